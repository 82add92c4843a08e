package report

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	errs "github.com/dallangoldblatt/untappd-data/pkg/errors"
	"github.com/dallangoldblatt/untappd-data/pkg/storage"
)

// Stage names for the four pipeline stages
const (
	StageUpdate = "update"
	StageParse  = "parse"
	StageVenues = "venues"
	StageSweep  = "sweep"
)

// Stages lists the stages that persist run reports, in pipeline order
var Stages = []string{StageUpdate, StageParse, StageVenues, StageSweep}

const keyPrefix = "status/"

// RunReport records the outcome of one stage run. The latest report per
// stage is persisted next to the datasets so the status command can show
// when each stage last ran and how it went.
type RunReport struct {
	Stage      string          `json:"stage"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
	Success    bool            `json:"success"`
	Error      string          `json:"error,omitempty"`
	Summary    json.RawMessage `json:"summary,omitempty"`
}

// New builds a report for a finished stage run. summary may be nil; runErr
// nil means the run succeeded.
func New(stage string, startedAt time.Time, summary interface{}, runErr error) *RunReport {
	r := &RunReport{
		Stage:      stage,
		StartedAt:  startedAt,
		FinishedAt: time.Now(),
		Success:    runErr == nil,
	}
	if runErr != nil {
		r.Error = runErr.Error()
	}
	if summary != nil {
		if data, err := json.Marshal(summary); err == nil {
			r.Summary = data
		}
	}
	return r
}

// Key returns the storage key a stage's report lives under
func Key(stage string) string {
	return keyPrefix + stage + ".json"
}

// Save persists the report, replacing the stage's previous one
func (r *RunReport) Save(ctx context.Context, store storage.ObjectStore) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling run report: %w", err)
	}

	if err := store.Put(ctx, Key(r.Stage), data); err != nil {
		return fmt.Errorf("writing run report: %w", err)
	}
	return nil
}

// Load reads a stage's latest report. A stage that never ran returns
// (nil, nil).
func Load(ctx context.Context, store storage.ObjectStore, stage string) (*RunReport, error) {
	data, err := store.Get(ctx, Key(stage))
	if err != nil {
		if errs.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading run report: %w", err)
	}

	var r RunReport
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("unmarshaling run report: %w", err)
	}
	return &r, nil
}

// Outcome is a short display label for the run result
func (r *RunReport) Outcome() string {
	if r.Success {
		return "ok"
	}
	return "failed"
}

// Age returns how long ago the run finished
func (r *RunReport) Age(now time.Time) time.Duration {
	return now.Sub(r.FinishedAt)
}

// Runtime returns how long the run took
func (r *RunReport) Runtime() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
