package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dallangoldblatt/untappd-data/internal/runlock"
	"github.com/dallangoldblatt/untappd-data/pkg/auth"
	"github.com/dallangoldblatt/untappd-data/pkg/checkpoint"
	"github.com/dallangoldblatt/untappd-data/pkg/config"
	"github.com/dallangoldblatt/untappd-data/pkg/dataset"
	"github.com/dallangoldblatt/untappd-data/pkg/feed"
	"github.com/dallangoldblatt/untappd-data/pkg/foursquare"
	"github.com/dallangoldblatt/untappd-data/pkg/ingest"
	"github.com/dallangoldblatt/untappd-data/pkg/logger"
	"github.com/dallangoldblatt/untappd-data/pkg/parser"
	"github.com/dallangoldblatt/untappd-data/pkg/report"
	"github.com/dallangoldblatt/untappd-data/pkg/resolver"
	"github.com/dallangoldblatt/untappd-data/pkg/retry"
	"github.com/dallangoldblatt/untappd-data/pkg/storage"
	"github.com/dallangoldblatt/untappd-data/pkg/sweeper"
	"github.com/dallangoldblatt/untappd-data/pkg/untappd"
)

// buildFlags collects command line overrides for config.Load
func buildFlags() map[string]interface{} {
	flags := make(map[string]interface{})
	if storeBackend != "" {
		flags["store"] = storeBackend
	}
	if bucket != "" {
		flags["bucket"] = bucket
	}
	if dataDir != "" {
		flags["data-dir"] = dataDir
	}
	if logLevel != "" {
		flags["log-level"] = logLevel
	}
	if breweries != "" {
		flags["breweries"] = breweries
	}
	if workers > 0 {
		flags["workers"] = workers
	}
	return flags
}

// setupStage loads configuration, initializes logging, applies stored
// credentials and opens the object store. Failures are fatal.
func setupStage() (*config.Config, storage.ObjectStore, logger.Logger) {
	cfg, err := config.Load(configFile, buildFlags())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logging: %v\n", err)
		os.Exit(1)
	}
	log := logger.GetLogger()

	applyProfile(cfg, log)

	store, err := storage.New(cfg.Store)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open %s store: %v\n", cfg.Store.Backend, err)
		os.Exit(1)
	}

	return cfg, store, log
}

// applyProfile overlays stored credentials onto the configuration. A profile
// named with --profile always wins; otherwise a stored profile only fills
// the pairs the environment and config file left empty.
func applyProfile(cfg *config.Config, log logger.Logger) {
	manager, err := auth.NewManager()
	if err != nil {
		return
	}

	if profileName != "" {
		profile, err := manager.Retrieve(profileName)
		if err != nil {
			fmt.Fprintf(os.Stderr, "profile not found: %s\n", profileName)
			fmt.Fprintln(os.Stderr, "use 'untappd-data auth list' to see stored profiles")
			os.Exit(1)
		}
		profile.Apply(cfg)
		log.InfoWithFields("Using stored profile", map[string]interface{}{
			"profile": profile.Name,
		})
		return
	}

	needStore := cfg.Store.Backend == "s3" &&
		(cfg.Store.AccessKeyID == "" || cfg.Store.SecretAccessKey == "")
	needFoursquare := cfg.Foursquare.ClientID == "" || cfg.Foursquare.ClientSecret == ""
	if !needStore && !needFoursquare {
		return
	}

	profile, err := manager.RetrieveDefault()
	if err != nil {
		return
	}

	if needStore && profile.HasStoreCredentials() {
		cfg.Store.AccessKeyID = profile.AccessKeyID
		cfg.Store.SecretAccessKey = profile.SecretAccessKey
	}
	if needFoursquare && profile.HasFoursquareCredentials() {
		cfg.Foursquare.ClientID = profile.FoursquareClientID
		cfg.Foursquare.ClientSecret = profile.FoursquareClientSecret
	}
	log.InfoWithFields("Using stored profile", map[string]interface{}{
		"profile": profile.Name,
	})
}

// requireFoursquareCredentials stops a stage that cannot work without the
// Foursquare key pair
func requireFoursquareCredentials(cfg *config.Config) error {
	if cfg.Foursquare.ClientID == "" || cfg.Foursquare.ClientSecret == "" {
		return fmt.Errorf("foursquare credentials are not configured; " +
			"run 'untappd-data auth login' or set foursquare_client_id and foursquare_client_secret")
	}
	return nil
}

// stageContext returns a context cancelled by SIGINT or SIGTERM
func stageContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// saveReport persists the stage outcome for the status command. A failure
// to report is logged, never fatal; the stage result matters more.
func saveReport(ctx context.Context, store storage.ObjectStore, stage string, started time.Time, summary interface{}, runErr error, log logger.Logger) {
	// An interrupted run still gets its report written
	if ctx.Err() != nil {
		ctx = context.Background()
	}

	rep := report.New(stage, started, summary, runErr)
	if err := rep.Save(ctx, store); err != nil {
		log.WarnWithFields("Failed to save run report", map[string]interface{}{
			"stage": stage,
			"error": err.Error(),
		})
	}
}

// runUpdateStage fetches all tracked brewery feeds and stores new posts
func runUpdateStage(ctx context.Context, cfg *config.Config, store storage.ObjectStore, log logger.Logger) error {
	lock, err := runlock.Acquire(cfg.Store.LockDirectory, runlock.Ingest, log)
	if err != nil {
		return err
	}
	defer lock.Release()

	started := time.Now()
	checkpoints := checkpoint.NewStore(store, dataset.KeyLastUpdate, log)
	retrier := retry.NewRetrier(retry.FromRetryConfig(cfg.Retry, log))
	client := feed.NewClient(cfg.Feed, log)
	ingestor := ingest.New(client, store, checkpoints, retrier, cfg.Feed.Breweries, cfg.Feed.Workers, log)

	summary, runErr := ingestor.Run(ctx)
	saveReport(ctx, store, report.StageUpdate, started, summary, runErr, log)
	return runErr
}

// runParseStage turns stored posts into dataset rows and registers venues
func runParseStage(ctx context.Context, cfg *config.Config, store storage.ObjectStore, log logger.Logger) error {
	lock, err := runlock.Acquire(cfg.Store.LockDirectory, runlock.Parse, log)
	if err != nil {
		return err
	}
	defer lock.Release()

	started := time.Now()
	checkpoints := checkpoint.NewStore(store, dataset.KeyLastParsed, log)
	p := parser.New(store, checkpoints, cfg.Feed.Breweries, log)

	summary, runErr := p.Run(ctx)
	saveReport(ctx, store, report.StageParse, started, summary, runErr, log)
	return runErr
}

// runVenuesStage resolves registered venues via Untappd pages and Foursquare
func runVenuesStage(ctx context.Context, cfg *config.Config, store storage.ObjectStore, log logger.Logger) error {
	if err := requireFoursquareCredentials(cfg); err != nil {
		return err
	}

	lock, err := runlock.Acquire(cfg.Store.LockDirectory, runlock.Venues, log)
	if err != nil {
		return err
	}
	defer lock.Release()

	started := time.Now()
	scraper := untappd.NewScraper(cfg.Untappd, log)
	search := foursquare.NewClient(cfg.Foursquare, log)
	retrier := retry.NewLookupRetrier(cfg.Retry.MaxAttempts, log)
	r := resolver.New(store, scraper, search, retrier, log)

	summary, runErr := r.Run(ctx)
	saveReport(ctx, store, report.StageVenues, started, summary, runErr, log)
	return runErr
}

// runSweepStage backfills stubborn venues, snapshots the dataset and prunes
// expired backups. It shares the venues lock since both stages rewrite the
// venue location table.
func runSweepStage(ctx context.Context, cfg *config.Config, store storage.ObjectStore, log logger.Logger) error {
	if err := requireFoursquareCredentials(cfg); err != nil {
		return err
	}

	lock, err := runlock.Acquire(cfg.Store.LockDirectory, runlock.Venues, log)
	if err != nil {
		return err
	}
	defer lock.Release()

	started := time.Now()
	elevated := foursquare.NewClient(cfg.Foursquare, log)
	retrier := retry.NewLookupRetrier(cfg.Retry.MaxAttempts, log)
	s := sweeper.New(store, elevated, retrier, cfg.Retention.BackupPrefix, cfg.Retention.Days, log)

	summary, runErr := s.Run(ctx)
	saveReport(ctx, store, report.StageSweep, started, summary, runErr, log)
	return runErr
}
