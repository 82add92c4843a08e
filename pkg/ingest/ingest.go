package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/dallangoldblatt/untappd-data/pkg/checkpoint"
	errs "github.com/dallangoldblatt/untappd-data/pkg/errors"
	"github.com/dallangoldblatt/untappd-data/pkg/logger"
	"github.com/dallangoldblatt/untappd-data/pkg/retry"
)

// Ingestor pulls every tracked brewery feed and stores the posts that are
// newer than the ingest checkpoint
type Ingestor struct {
	source      FeedSource
	store       PostStore
	checkpoints *checkpoint.Store
	retrier     *retry.Retrier
	breweries   []string
	workers     int
	logger      logger.Logger
}

// Summary reports what one ingest run did
type Summary struct {
	Breweries int           `json:"breweries"`
	Failed    int           `json:"failed"`
	NewPosts  int           `json:"new_posts"`
	Skipped   int           `json:"skipped"`
	Duration  time.Duration `json:"duration"`
}

// New creates an ingestor. The store holds raw posts and the checkpoint;
// breweries is the ordered set of tracked brewery ids.
func New(
	source FeedSource,
	store PostStore,
	checkpoints *checkpoint.Store,
	retrier *retry.Retrier,
	breweries []string,
	workers int,
	log logger.Logger,
) *Ingestor {
	if log == nil {
		log = logger.GetLogger()
	}
	if workers < 1 {
		workers = 1
	}

	return &Ingestor{
		source:      source,
		store:       store,
		checkpoints: checkpoints,
		retrier:     retrier,
		breweries:   breweries,
		workers:     workers,
		logger:      log,
	}
}

// Run fetches all tracked feeds concurrently, stores new posts and advances
// the checkpoint. One brewery failing does not stop the others; its
// checkpoint entry advances only over the posts that were durably stored
// before the failure.
func (in *Ingestor) Run(ctx context.Context) (*Summary, error) {
	start := time.Now()

	cp, err := in.checkpoints.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading ingest checkpoint: %w", err)
	}

	in.logger.InfoWithFields("Starting feed ingest", map[string]interface{}{
		"breweries": len(in.breweries),
		"workers":   in.workers,
	})

	pool := newFetchPool(ctx, in.workers, in.source, in.store, in.retrier, in.logger)
	pool.start()

	go func() {
		for _, breweryID := range in.breweries {
			after, _ := cp.Get(breweryID)
			job := FetchJob{BreweryID: breweryID, After: after}
			if err := pool.submit(job); err != nil {
				return
			}
		}
	}()

	summary := &Summary{Breweries: len(in.breweries)}
	for i := 0; i < len(in.breweries); i++ {
		result := <-pool.results()
		summary.NewPosts += result.NewPosts
		summary.Skipped += result.Skipped
		if result.Err != nil {
			summary.Failed++
		}
		if result.Latest > 0 {
			cp.Advance(result.BreweryID, result.Latest)
		}
	}
	pool.stop()

	if err := in.checkpoints.Save(ctx, cp); err != nil {
		return nil, fmt.Errorf("saving ingest checkpoint: %w", err)
	}

	summary.Duration = time.Since(start)
	in.logger.InfoWithFields("Feed ingest completed", map[string]interface{}{
		"new_posts": summary.NewPosts,
		"skipped":   summary.Skipped,
		"failed":    summary.Failed,
		"duration":  summary.Duration,
	})

	if summary.Failed == len(in.breweries) && len(in.breweries) > 0 {
		return summary, errs.New(errs.ErrorTypeNetwork, "every brewery feed fetch failed")
	}
	return summary, nil
}
