package ingest

import (
	"context"
	"fmt"
	"sync"
	"time"

	errs "github.com/dallangoldblatt/untappd-data/pkg/errors"
	"github.com/dallangoldblatt/untappd-data/pkg/logger"
	"github.com/dallangoldblatt/untappd-data/pkg/models"
	"github.com/dallangoldblatt/untappd-data/pkg/retry"
)

// FeedSource lists the current posts of one brewery feed, newest first
type FeedSource interface {
	ListPosts(ctx context.Context, breweryID string) ([]models.Post, error)
}

// PostStore persists raw posts under their storage keys
type PostStore interface {
	Exists(ctx context.Context, key string) (bool, error)
	Put(ctx context.Context, key string, value []byte) error
}

// FetchJob is one brewery feed to pull. After is the highest post id the
// previous runs already captured for that brewery.
type FetchJob struct {
	BreweryID string
	After     int64
}

// FetchResult reports the outcome of one brewery fetch. Latest is the highest
// post id that is durably stored after the fetch, including posts that were
// already present; it is meaningful even when Err is set, since a failure
// partway through a batch leaves the earlier posts stored.
type FetchResult struct {
	BreweryID string
	NewPosts  int
	Skipped   int
	Latest    int64
	Err       error
	Duration  time.Duration
}

// fetchPool fans brewery feed fetches out over a fixed set of workers
type fetchPool struct {
	numWorkers  int
	jobQueue    chan FetchJob
	resultQueue chan FetchResult
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	source      FeedSource
	store       PostStore
	retrier     *retry.Retrier
	logger      logger.Logger
}

func newFetchPool(parent context.Context, numWorkers int, source FeedSource, store PostStore, retrier *retry.Retrier, log logger.Logger) *fetchPool {
	ctx, cancel := context.WithCancel(parent)

	if log == nil {
		log = logger.GetLogger()
	}

	return &fetchPool{
		numWorkers:  numWorkers,
		jobQueue:    make(chan FetchJob, numWorkers*2),
		resultQueue: make(chan FetchResult, numWorkers),
		ctx:         ctx,
		cancel:      cancel,
		source:      source,
		store:       store,
		retrier:     retrier,
		logger:      log,
	}
}

// start launches the workers
func (fp *fetchPool) start() {
	fp.logger.InfoWithFields("Starting feed fetch pool", map[string]interface{}{
		"num_workers": fp.numWorkers,
	})

	for i := 0; i < fp.numWorkers; i++ {
		fp.wg.Add(1)
		go fp.worker(i)
	}
}

// stop drains the queue, waits for the workers and closes the result channel
func (fp *fetchPool) stop() {
	close(fp.jobQueue)
	fp.wg.Wait()
	close(fp.resultQueue)
	fp.cancel()
}

// submit queues one brewery fetch
func (fp *fetchPool) submit(job FetchJob) error {
	select {
	case fp.jobQueue <- job:
		return nil
	case <-fp.ctx.Done():
		return fmt.Errorf("fetch pool is shutting down")
	}
}

// results returns the channel fetch outcomes arrive on
func (fp *fetchPool) results() <-chan FetchResult {
	return fp.resultQueue
}

func (fp *fetchPool) worker(id int) {
	defer fp.wg.Done()

	fp.logger.DebugWithFields("Worker started", map[string]interface{}{
		"worker_id": id,
	})

	for job := range fp.jobQueue {
		select {
		case <-fp.ctx.Done():
			return
		default:
		}

		result := fp.processJob(job, id)

		select {
		case fp.resultQueue <- result:
		case <-fp.ctx.Done():
			return
		}
	}
}

// processJob pulls one brewery feed and stores every post newer than the
// job's checkpoint, oldest first so a partial failure still leaves a clean
// prefix behind
func (fp *fetchPool) processJob(job FetchJob, workerID int) FetchResult {
	start := time.Now()
	result := FetchResult{
		BreweryID: job.BreweryID,
		Latest:    job.After,
	}

	fp.logger.DebugWithFields("Worker fetching brewery feed", map[string]interface{}{
		"worker_id": workerID,
		"brewery":   job.BreweryID,
		"after":     job.After,
	})

	var posts []models.Post
	err := fp.retrier.Do(func() error {
		var listErr error
		posts, listErr = fp.source.ListPosts(fp.ctx, job.BreweryID)
		return listErr
	})
	if err != nil {
		result.Err = fmt.Errorf("listing feed: %w", err)
		result.Duration = time.Since(start)
		return result
	}

	if err := validateNewestFirst(job.BreweryID, posts); err != nil {
		result.Err = err
		result.Duration = time.Since(start)
		return result
	}

	// The feed arrives newest first; walk it backwards so posts are stored
	// in ascending id order
	for i := len(posts) - 1; i >= 0; i-- {
		post := posts[i]
		if post.ID <= job.After {
			continue
		}

		stored, err := fp.store.Exists(fp.ctx, post.Key())
		if err != nil {
			result.Err = errs.NewStorage(fmt.Sprintf("checking post %s", post.Key()), err)
			break
		}
		if stored {
			result.Skipped++
			result.Latest = post.ID
			continue
		}

		if err := fp.store.Put(fp.ctx, post.Key(), post.Raw); err != nil {
			result.Err = errs.NewStorage(fmt.Sprintf("storing post %s", post.Key()), err)
			break
		}
		result.NewPosts++
		result.Latest = post.ID
	}

	result.Duration = time.Since(start)

	if result.Err != nil {
		fp.logger.ErrorWithFields("Brewery feed fetch failed", map[string]interface{}{
			"worker_id": workerID,
			"brewery":   job.BreweryID,
			"error":     result.Err.Error(),
			"stored":    result.NewPosts,
		})
	} else {
		fp.logger.DebugWithFields("Brewery feed fetch completed", map[string]interface{}{
			"worker_id": workerID,
			"brewery":   job.BreweryID,
			"new_posts": result.NewPosts,
			"skipped":   result.Skipped,
			"latest":    result.Latest,
			"duration":  result.Duration,
		})
	}

	return result
}

// validateNewestFirst rejects a feed whose post ids are not strictly
// descending. Advancing a checkpoint over a shuffled batch could silently
// skip posts, so the whole batch is refused instead.
func validateNewestFirst(breweryID string, posts []models.Post) error {
	for i := 1; i < len(posts); i++ {
		if posts[i].ID >= posts[i-1].ID {
			return errs.NewParsing(
				fmt.Sprintf("feed for brewery %s is not newest first: post %d followed by %d",
					breweryID, posts[i-1].ID, posts[i].ID),
				nil,
			)
		}
	}
	return nil
}
