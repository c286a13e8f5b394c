package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/fortuna/clubsync/internal/cache"
	"github.com/fortuna/clubsync/internal/config"
	"github.com/fortuna/clubsync/internal/ingest/site"
	"github.com/fortuna/clubsync/internal/registry"
	"github.com/fortuna/clubsync/internal/scheduler"
	"github.com/fortuna/clubsync/internal/store"
	"github.com/fortuna/clubsync/internal/store/repository"
)

// app holds the components shared by every command
type app struct {
	cfg          *config.Config
	registry     registry.Store
	db           *store.Database
	redis        *cache.RedisCache
	history      *repository.SyncRunRepository
	ingester     *site.Ingester
	orchestrator *scheduler.Orchestrator
	closers      []func()
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{cfg: cfg}

	if err := a.openStore(ctx); err != nil {
		a.Close()
		return nil, err
	}

	if cfg.RedisURL != "" {
		a.redis = connectRedis(ctx, cfg.RedisURL)
		if a.redis != nil {
			a.closers = append(a.closers, func() { a.redis.Close() })
		}
	}

	var fetcher site.Fetcher
	switch cfg.FetchMode {
	case config.FetchModeBrowser:
		browser := site.NewBrowserClient(cfg.FetchTimeout, cfg.UserAgent)
		a.closers = append(a.closers, browser.Close)
		fetcher = browser
	default:
		fetcher = site.NewClient(cfg.FetchTimeout).WithUserAgent(cfg.UserAgent)
	}

	clock := clockwork.NewRealClock()
	a.ingester = site.NewIngester(site.NewScraper(fetcher, cfg.BaseURL), cfg.CurrentSeason)
	a.orchestrator = scheduler.NewOrchestrator(a.registry, a.ingester, scheduler.NewPacer(&cfg.Sync, clock))
	if a.history != nil {
		a.orchestrator.WithRecorder(a.history)
	}

	if cfg.SeedFile != "" {
		if err := a.applySeed(ctx); err != nil {
			a.Close()
			return nil, err
		}
	}

	log.Info().
		Str("store", cfg.StoreDriver).
		Str("fetch_mode", cfg.FetchMode).
		Str("base_url", cfg.BaseURL).
		Str("season", cfg.CurrentSeason).
		Bool("redis", a.redis != nil).
		Msg("components initialized")

	return a, nil
}

func (a *app) openStore(ctx context.Context) error {
	switch a.cfg.StoreDriver {
	case config.DriverPostgres:
		db, err := store.NewDatabase(ctx, a.cfg.DatabaseDSN)
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}
		a.db = db
		a.closers = append(a.closers, func() { db.Close() })

		if err := db.RunMigrations(ctx); err != nil {
			return fmt.Errorf("running migrations: %w", err)
		}
		a.registry = registry.NewPostgres(db)
		a.history = repository.NewSyncRunRepository(db)

	case config.DriverBolt:
		b, err := registry.NewBolt(a.cfg.BoltPath)
		if err != nil {
			return err
		}
		a.registry = b
		a.closers = append(a.closers, func() { b.Close() })

	default:
		a.registry = registry.NewMemory()
	}
	return nil
}

func (a *app) applySeed(ctx context.Context) error {
	regs, err := config.LoadSeed(a.cfg.SeedFile)
	if err != nil {
		return err
	}
	for _, reg := range regs {
		if err := a.registry.Register(ctx, reg); err != nil {
			return fmt.Errorf("seeding club %d: %w", reg.ClubID, err)
		}
	}
	log.Info().Int("registrations", len(regs)).Str("file", a.cfg.SeedFile).Msg("seed registrations applied")
	return nil
}

// connectRedis retries for a while, then runs without a cache
func connectRedis(ctx context.Context, redisURL string) *cache.RedisCache {
	const maxRetries = 5
	retryDelay := 2 * time.Second

	for i := 0; i < maxRetries; i++ {
		redisCache, err := cache.NewRedisCache(ctx, redisURL)
		if err == nil {
			log.Info().Msg("connected to redis")
			return redisCache
		}

		log.Warn().Err(err).Int("attempt", i+1).Int("max", maxRetries).Msg("redis connection failed")
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(retryDelay):
		}
	}

	log.Warn().Msg("continuing without redis; snapshot cache and stream events disabled")
	return nil
}

// Close releases resources in reverse order of acquisition
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
