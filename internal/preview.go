package internal

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/starford/chessboards/internal/metadata"
	"github.com/starford/chessboards/internal/preview"
	"github.com/starford/chessboards/internal/render"
	"github.com/starford/chessboards/internal/sampler"
	"github.com/starford/chessboards/internal/storage"
	pkgconfig "github.com/starford/chessboards/pkg/config"
)

// Preview file names, written into the collection output directory.
const (
	PreviewImage    = "preview.png"
	PreviewMetadata = "preview.json"
)

// Preview samples and renders a single board without touching the ledger.
// With WithWatch it keeps running and re-renders after every change to the
// config file, reloading it each time.
func Preview(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	if err := renderPreview(app.config, app.logger); err != nil {
		return err
	}
	if !app.watch {
		return nil
	}
	if app.configPath == "" {
		return fmt.Errorf("preview: watching requires a config path")
	}

	return preview.Watch(ctx, app.configPath, preview.DefaultDebounce, app.logger, func() {
		cfg := NewDefaultConfig()
		if err := pkgconfig.Load(app.configPath, cfg); err != nil {
			app.logger.Warn("preview: config reload failed", slog.String("error", err.Error()))
			return
		}
		// flag overrides applied to the first load carry over
		cfg.Collection.OutputDir = app.config.Collection.OutputDir
		if app.config.Collection.Seed != 0 {
			cfg.Collection.Seed = app.config.Collection.Seed
		}
		if err := renderPreview(cfg, app.logger); err != nil {
			app.logger.Warn("preview: render failed", slog.String("error", err.Error()))
		}
	})
}

func renderPreview(cfg *Config, logger *slog.Logger) error {
	seed := resolveSeed(cfg)
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

	rng := sampler.NewRand(seed)
	ts := smp.Sample(rng)
	board, err := rnd.Render(ts, rng)
	if err != nil {
		return err
	}

	var img bytes.Buffer
	if err := render.EncodePNG(&img, board.Image); err != nil {
		return err
	}
	rec, err := records.Build(0, ts)
	if err != nil {
		return err
	}
	rec.Image = PreviewImage
	rec.Properties.Files[0].URI = PreviewImage
	meta, err := rec.Encode()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(cfg.Collection.OutputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	store, err := storage.NewFS(cfg.Collection.OutputDir)
	if err != nil {
		return err
	}
	if err := store.Write(PreviewImage, img.Bytes()); err != nil {
		return err
	}
	if err := store.Write(PreviewMetadata, meta); err != nil {
		return err
	}

	logger.Info("Preview rendered",
		slog.String("path", store.Root()),
		slog.Uint64("seed", seed),
		slog.String("border_style", ts.BorderStyle.String()),
		slog.Int("nodes_per_side", ts.NodesPerSide),
		slog.Float64("edge_probability", ts.EdgeProbability),
		slog.String("fingerprint", string(board.Fingerprint)))
	return nil
}
