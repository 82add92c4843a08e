package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/dallangoldblatt/untappd-data/pkg/checkpoint"
	"github.com/dallangoldblatt/untappd-data/pkg/dataset"
	"github.com/dallangoldblatt/untappd-data/pkg/report"
)

var statusJSON bool

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show when each pipeline stage last ran and how it went",
	Long: `Show the last run of every pipeline stage: when it ran, whether it
succeeded, how long it took and what it got done, plus where the
incremental stages stand per brewery.

The numbers come from the run reports and checkpoints each stage writes
next to the datasets, so status works from any machine that can reach
the store.`,
	Example: `  # Human readable tables
  untappd-data status

  # Raw reports and checkpoints for scripting
  untappd-data status --json`,
	Args: cobra.NoArgs,
	Run:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "print run reports and checkpoints as JSON")
}

func runStatus(cmd *cobra.Command, args []string) {
	_, store, log := setupStage()
	ctx, cancel := stageContext()
	defer cancel()

	reports := make([]*report.RunReport, 0, len(report.Stages))
	for _, stage := range report.Stages {
		rep, err := report.Load(ctx, store, stage)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to load %s report: %v\n", stage, err)
			os.Exit(1)
		}
		reports = append(reports, rep)
	}

	fetched, err := checkpoint.NewStore(store, dataset.KeyLastUpdate, log).Load(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load update checkpoint: %v\n", err)
		os.Exit(1)
	}
	parsed, err := checkpoint.NewStore(store, dataset.KeyLastParsed, log).Load(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load parse checkpoint: %v\n", err)
		os.Exit(1)
	}

	if statusJSON {
		printStatusJSON(reports, fetched, parsed)
		return
	}

	now := time.Now()
	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Stage", "Last Run", "Result", "Runtime", "Detail"})

	for i, stage := range report.Stages {
		rep := reports[i]
		if rep == nil {
			tw.AppendRow(table.Row{stage, "never", "-", "-", ""})
			continue
		}

		detail := summaryDetail(rep.Summary)
		if !rep.Success {
			detail = truncate(rep.Error, 60)
		}

		tw.AppendRow(table.Row{
			stage,
			formatAge(rep.Age(now)),
			rep.Outcome(),
			rep.Runtime().Round(time.Millisecond).String(),
			detail,
		})
	}

	tw.Render()

	printCheckpointTable(fetched, parsed)
}

// printCheckpointTable shows the highest post ID the update and parse
// stages have handled per brewery. Nothing is printed before the first run.
func printCheckpointTable(fetched, parsed checkpoint.Checkpoint) {
	union := make(map[string]struct{}, len(fetched)+len(parsed))
	for id := range fetched {
		union[id] = struct{}{}
	}
	for id := range parsed {
		union[id] = struct{}{}
	}
	if len(union) == 0 {
		return
	}

	breweries := make([]string, 0, len(union))
	for id := range union {
		breweries = append(breweries, id)
	}
	sort.Strings(breweries)

	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Brewery", "Fetched Through", "Parsed Through"})

	for _, id := range breweries {
		tw.AppendRow(table.Row{id, checkpointCell(fetched, id), checkpointCell(parsed, id)})
	}

	tw.Render()
}

func checkpointCell(cp checkpoint.Checkpoint, breweryID string) string {
	if postID, ok := cp.Get(breweryID); ok {
		return strconv.FormatInt(postID, 10)
	}
	return "-"
}

func printStatusJSON(reports []*report.RunReport, fetched, parsed checkpoint.Checkpoint) {
	present := make([]*report.RunReport, 0, len(reports))
	for _, rep := range reports {
		if rep != nil {
			present = append(present, rep)
		}
	}

	out := struct {
		Reports     []*report.RunReport              `json:"reports"`
		Checkpoints map[string]checkpoint.Checkpoint `json:"checkpoints"`
	}{
		Reports: present,
		Checkpoints: map[string]checkpoint.Checkpoint{
			report.StageUpdate: fetched,
			report.StageParse:  parsed,
		},
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to format status: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(data))
}

// summaryDetail renders the counters of a stage summary as "key=value"
// pairs. The duration is skipped, the runtime column already shows it.
func summaryDetail(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var fields map[string]interface{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return ""
	}

	keys := make([]string, 0, len(fields))
	for key := range fields {
		if key == "duration" {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		if value, ok := fields[key].(float64); ok {
			parts = append(parts, fmt.Sprintf("%s=%d", key, int64(value)))
		}
	}
	return strings.Join(parts, " ")
}

func formatAge(age time.Duration) string {
	switch {
	case age < time.Minute:
		return fmt.Sprintf("%ds ago", int(age.Seconds()))
	case age < time.Hour:
		return fmt.Sprintf("%dm ago", int(age.Minutes()))
	case age < 24*time.Hour:
		return fmt.Sprintf("%.1fh ago", age.Hours())
	default:
		return fmt.Sprintf("%dd ago", int(age.Hours()/24))
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
