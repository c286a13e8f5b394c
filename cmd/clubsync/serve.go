package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fortuna/clubsync/internal/api/rest"
	"github.com/fortuna/clubsync/internal/api/websocket"
	"github.com/fortuna/clubsync/internal/publisher"
	"github.com/fortuna/clubsync/internal/scheduler"
	"github.com/fortuna/clubsync/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the REST API, websocket feed and sync cron",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serve(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info().Str("version", serviceVersion).Msg("starting clubsync")

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	// background work outlives the signal so in-flight batches can finish
	background, cancelBackground := context.WithCancel(context.WithoutCancel(ctx))
	defer cancelBackground()

	wsServer := websocket.NewServer(background, cfg.WSPort)
	notifiers := scheduler.Notifiers{wsServer}
	if a.redis != nil {
		notifiers = append(notifiers, publisher.NewRedisStreamPublisher(a.redis.Client()))
	}
	a.orchestrator.WithNotifier(notifiers)

	cron := scheduler.NewCron(background, func(ctx context.Context) {
		a.orchestrator.ProcessDailySync(ctx, store.TriggerCron)
	}, clockwork.NewRealClock())
	if cfg.Sync.EnableCron {
		cron.Start(cfg.Sync.Interval)
	}

	deps := rest.Deps{
		Orchestrator: a.orchestrator,
		Cron:         cron,
		SnapshotTTL:  cfg.SnapshotTTL,
		Background:   background,
	}
	deps.Checks = map[string]rest.HealthChecker{}
	if a.redis != nil {
		deps.Cache = a.redis
		deps.Checks["redis"] = a.redis
	}
	if a.db != nil {
		deps.Checks["postgres"] = a.db
	}
	if a.history != nil {
		deps.History = a.history
	}

	restServer := rest.NewServer(cfg.RESTPort, deps)
	go func() {
		if err := restServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("REST server error")
			stop()
		}
	}()

	go func() {
		if err := wsServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("websocket server error")
			stop()
		}
	}()

	log.Info().
		Str("rest", "http://0.0.0.0:"+cfg.RESTPort).
		Str("websocket", "ws://0.0.0.0:"+cfg.WSPort+"/ws/sync").
		Bool("cron", cron.Running()).
		Msg("clubsync started")

	<-ctx.Done()
	log.Info().Msg("shutting down clubsync")

	cron.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := restServer.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("REST server shutdown error")
	}
	if err := wsServer.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("websocket server shutdown error")
	}

	log.Info().Msg("clubsync stopped")
	return nil
}
