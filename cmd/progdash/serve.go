package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spektr-org/progdash/helpers"
	"github.com/spektr-org/progdash/server"
)

const pruneSchedule = "@every 10m"

var (
	serveAddr     string
	serveSchedule string
	serveWatch    bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the dashboard API",
	Long: `Loads the sources and serves the JSON API:

  GET    /api/health
  GET    /api/dashboard?FIELD=value&FIELD=value
  GET    /api/options/{field}?FIELD=value
  POST   /api/sessions
  GET    /api/sessions/{id}
  PUT    /api/sessions/{id}/filters/{field}   {"values": [...]}
  POST   /api/sessions/{id}/reset
  DELETE /api/sessions/{id}
  POST   /api/reload

The dataset reloads on a cron schedule (--schedule), when the source file
changes (--watch), or on POST /api/reload.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from config, :8080)")
	serveCmd.Flags().StringVar(&serveSchedule, "schedule", "", `Cron spec for scheduled reloads, e.g. "0 6 * * *"`)
	serveCmd.Flags().BoolVar(&serveWatch, "watch", false, "Reload when the source file changes")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}
	if serveSchedule != "" {
		cfg.Server.RefreshSchedule = serveSchedule
	}
	if serveWatch {
		cfg.Server.Watch = true
	}

	sources, closeSources, err := helpers.SourcesFromConfig(ctx, cfg.Source)
	if err != nil {
		return err
	}
	defer closeSources()

	load := func(ctx context.Context) (*helpers.Dataset, error) {
		return helpers.Load(ctx, cfg, logger, sources...)
	}
	srv, err := server.New(ctx, load,
		server.WithLogger(logger),
		server.WithEngineOptions(helpers.EngineOptions(cfg, logger)...),
		server.WithSessionTTL(cfg.GetSessionTTL()))
	if err != nil {
		return err
	}

	ropts := []server.RefresherOption{
		server.WithRefresherLogger(logger),
		server.WithJob(pruneSchedule, func() { srv.PruneSessions() }),
	}
	if cfg.Server.RefreshSchedule != "" {
		ropts = append(ropts, server.WithSchedule(cfg.Server.RefreshSchedule, cfg.GetLocation()))
	}
	if cfg.Server.Watch {
		if cfg.Source.Path == "" {
			logger.Warn("watch ignored: source has no file path", zap.String("kind", cfg.Source.Kind))
		} else {
			ropts = append(ropts, server.WithWatch(cfg.Source.Path))
		}
	}
	refresher := server.NewRefresher(srv.Reload, ropts...)
	if err := refresher.Start(ctx); err != nil {
		return err
	}
	defer refresher.Stop()

	addr := cfg.Server.Addr
	if addr == "" {
		addr = ":8080"
	}
	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", zap.String("addr", addr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "http server failed")
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		logger.Info("shutting down")
		return httpSrv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
