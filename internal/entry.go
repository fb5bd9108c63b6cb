// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/starford/chessboards/internal/collection"
	"github.com/starford/chessboards/internal/ledger"
	"github.com/starford/chessboards/internal/metadata"
	"github.com/starford/chessboards/internal/render"
	"github.com/starford/chessboards/internal/sampler"
	"github.com/starford/chessboards/internal/storage"
)

func newApplication(opts []Option) (*application, error) {
	app := &application{out: os.Stdout}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if app.logger == nil {
		// Initialize structured JSON logger.
		app.logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: app.config.App.LogLevel,
		}))
		slog.SetDefault(app.logger)
	}
	return app, nil
}

// resolveSeed returns the configured seed, or a time-derived one when the
// configuration leaves it at zero.
func resolveSeed(cfg *Config) uint64 {
	if cfg.Collection.Seed != 0 {
		return cfg.Collection.Seed
	}
	return uint64(time.Now().UnixNano())
}

// Run builds the collection described by the configuration.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg, logger := app.config, app.logger
	seed := resolveSeed(cfg)

	logger.Info("Configuration loaded",
		slog.Int("size", cfg.Collection.Size),
		slog.String("output_dir", cfg.Collection.OutputDir),
		slog.String("ledger_path", cfg.Ledger.Path),
		slog.Uint64("seed", seed),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Ensure output directory exists.
	if err := os.MkdirAll(cfg.Collection.OutputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	store, err := storage.NewFS(cfg.Collection.OutputDir)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}

	db, err := ledger.Open(cfg.Ledger.Path)
	if err != nil {
		return fmt.Errorf("init ledger: %w", err)
	}
	defer db.Close()

	rec, err := ledger.Reconcile(db, store, logger)
	if err != nil {
		return fmt.Errorf("reconcile ledger: %w", err)
	}
	if rec != (ledger.ReconcileReport{}) {
		logger.Warn("Ledger reconciled with output directory",
			slog.Int("restored", rec.Restored),
			slog.Int("dropped", rec.Dropped),
			slog.Int("removed", rec.Removed))
	}

	smp, err := sampler.New(cfg.Palette.SamplerPalette())
	if err != nil {
		return fmt.Errorf("init sampler: %w", err)
	}
	rnd, err := render.NewRenderer(cfg.Board.RenderOptions())
	if err != nil {
		return fmt.Errorf("init renderer: %w", err)
	}
	records, err := metadata.NewBuilder(cfg.Collection.MetadataSettings())
	if err != nil {
		return fmt.Errorf("init metadata: %w", err)
	}
	builder, err := collection.New(cfg.Collection.Size, collection.Deps{
		Sampler:  smp,
		Renderer: rnd,
		Records:  records,
		Store:    store,
		Ledger:   db,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	buildCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gCtx := errgroup.WithContext(buildCtx)

	var report collection.Report
	g.Go(func() error {
		defer cancel()
		var err error
		report, err = builder.Build(gCtx, sampler.NewRand(seed))
		return err
	})

	// Handle shutdown signals.
	g.Go(func() error {
		waitForSignal(gCtx, logger)
		cancel()
		return nil
	})

	err = g.Wait()
	logger.Info("Build finished",
		slog.Int("accepted", report.Accepted),
		slog.Int("skipped", report.Skipped),
		slog.Int("duplicates", report.Duplicates))
	if err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Warn("Build interrupted; rerun to resume")
		}
		return err
	}
	return nil
}

func waitForSignal(ctx context.Context, logger *slog.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case sig := <-quit:
		logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
	case <-ctx.Done():
	}
}
