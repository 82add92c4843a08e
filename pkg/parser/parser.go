package parser

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dallangoldblatt/untappd-data/pkg/checkpoint"
	"github.com/dallangoldblatt/untappd-data/pkg/dataset"
	"github.com/dallangoldblatt/untappd-data/pkg/feed"
	"github.com/dallangoldblatt/untappd-data/pkg/logger"
	"github.com/dallangoldblatt/untappd-data/pkg/models"
	"github.com/dallangoldblatt/untappd-data/pkg/storage"
)

// Parser turns stored raw posts into aggregate dataset rows and venue
// registry entries
type Parser struct {
	store       storage.ObjectStore
	aggregate   *dataset.AggregateTable
	registry    *dataset.RegistryTable
	checkpoints *checkpoint.Store
	breweries   []string
	logger      logger.Logger
}

// Summary reports what one parse run did
type Summary struct {
	Posts      int           `json:"posts"`
	Malformed  int           `json:"malformed"`
	Duplicates int           `json:"duplicates"`
	NewVenues  int           `json:"new_venues"`
	Duration   time.Duration `json:"duration"`
}

// runState carries the datasets and checkpoint across one run
type runState struct {
	cp       checkpoint.Checkpoint
	checkins []models.Checkin
	guids    map[string]struct{}
	entries  []models.RegistryEntry
	venues   map[string]struct{}
}

// New creates a parser over the given store
func New(store storage.ObjectStore, checkpoints *checkpoint.Store, breweries []string, log logger.Logger) *Parser {
	if log == nil {
		log = logger.GetLogger()
	}

	return &Parser{
		store:       store,
		aggregate:   dataset.NewAggregateTable(store),
		registry:    dataset.NewRegistryTable(store),
		checkpoints: checkpoints,
		breweries:   breweries,
		logger:      log,
	}
}

// Run parses every stored post past the parse checkpoint, brewery by
// brewery in ascending post id order. The datasets and the checkpoint are
// saved after every post, so an interrupted run loses at most the post it
// was on. Malformed posts are logged, skipped and stepped over; they never
// block the posts behind them.
func (p *Parser) Run(ctx context.Context) (*Summary, error) {
	start := time.Now()
	summary := &Summary{}

	state, err := p.loadState(ctx)
	if err != nil {
		return nil, err
	}

	p.logger.InfoWithFields("Starting post parse", map[string]interface{}{
		"breweries": len(p.breweries),
		"checkins":  len(state.checkins),
		"venues":    len(state.entries),
	})

	for _, breweryID := range p.breweries {
		ids, err := p.storedPostIDs(ctx, breweryID)
		if err != nil {
			return summary, fmt.Errorf("listing posts for brewery %s: %w", breweryID, err)
		}

		parsed, _ := state.cp.Get(breweryID)
		for _, id := range ids {
			if id <= parsed {
				continue
			}
			if err := p.processPost(ctx, state, summary, breweryID, id); err != nil {
				return summary, err
			}
		}
	}

	summary.Duration = time.Since(start)
	p.logger.InfoWithFields("Post parse completed", map[string]interface{}{
		"posts":      summary.Posts,
		"malformed":  summary.Malformed,
		"duplicates": summary.Duplicates,
		"new_venues": summary.NewVenues,
		"duration":   summary.Duration,
	})

	return summary, nil
}

func (p *Parser) loadState(ctx context.Context) (*runState, error) {
	cp, err := p.checkpoints.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading parse checkpoint: %w", err)
	}

	checkins, err := p.aggregate.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading aggregate dataset: %w", err)
	}

	entries, err := p.registry.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading venue registry: %w", err)
	}

	return &runState{
		cp:       cp,
		checkins: checkins,
		guids:    dataset.GUIDs(checkins),
		entries:  entries,
		venues:   dataset.VenueNames(entries),
	}, nil
}

// storedPostIDs lists the stored post ids of one brewery in ascending
// order. Keys whose id tail does not parse are logged and ignored.
func (p *Parser) storedPostIDs(ctx context.Context, breweryID string) ([]int64, error) {
	prefix := breweryID + "/" + breweryID + "-"
	keys, err := p.store.List(ctx, prefix)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(keys))
	for _, key := range keys {
		tail := key[strings.LastIndex(key, "-")+1:]
		id, err := strconv.ParseInt(tail, 10, 64)
		if err != nil {
			p.logger.WarnWithFields("Ignoring object with malformed post key", map[string]interface{}{
				"key": key,
			})
			continue
		}
		ids = append(ids, id)
	}

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// processPost parses one stored post and commits whatever it changed. The
// checkpoint is written last, so a crash in between re-parses the post and
// the guid dedup makes that harmless.
func (p *Parser) processPost(ctx context.Context, state *runState, summary *Summary, breweryID string, id int64) error {
	key := models.PostKey(breweryID, id)

	raw, err := p.store.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("reading post %s: %w", key, err)
	}

	checkin, err := p.parsePost(breweryID, id, raw)
	if err != nil {
		p.logger.WarnWithFields("Skipping malformed post", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		summary.Malformed++
		return p.advance(ctx, state, breweryID, id)
	}

	if _, seen := state.guids[checkin.GUID]; seen {
		summary.Duplicates++
		return p.advance(ctx, state, breweryID, id)
	}

	state.checkins = append(state.checkins, checkin)
	state.guids[checkin.GUID] = struct{}{}
	if err := p.aggregate.Save(ctx, state.checkins); err != nil {
		return fmt.Errorf("saving aggregate dataset: %w", err)
	}
	summary.Posts++

	if checkin.HasVenue() {
		if _, known := state.venues[checkin.Venue]; !known {
			state.entries = append(state.entries, models.RegistryEntry{
				Venue:      checkin.Venue,
				CheckinURL: checkin.URL,
			})
			state.venues[checkin.Venue] = struct{}{}
			if err := p.registry.Save(ctx, state.entries); err != nil {
				return fmt.Errorf("saving venue registry: %w", err)
			}
			summary.NewVenues++
		}
	}

	return p.advance(ctx, state, breweryID, id)
}

func (p *Parser) parsePost(breweryID string, id int64, raw []byte) (models.Checkin, error) {
	item, err := feed.ParseStoredItem(raw)
	if err != nil {
		return models.Checkin{}, err
	}
	return buildCheckin(breweryID, id, item)
}

func (p *Parser) advance(ctx context.Context, state *runState, breweryID string, id int64) error {
	if !state.cp.Advance(breweryID, id) {
		return nil
	}
	if err := p.checkpoints.Save(ctx, state.cp); err != nil {
		return fmt.Errorf("saving parse checkpoint: %w", err)
	}
	return nil
}
