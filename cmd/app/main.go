package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/chessboards/internal"
	pkgconfig "github.com/starford/chessboards/pkg/config"
)

// loadConfig reads the config file (defaults apply when it is absent) and
// layers command-line overrides on top.
func loadConfig(cmd *cli.Command) (*internal.Config, []internal.Option, error) {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	if _, err := pkgconfig.LoadOptional(configPath, cfg); err != nil {
		return nil, nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if cmd.IsSet("seed") {
		cfg.Collection.Seed = uint64(cmd.Uint("seed"))
	}
	if cmd.IsSet("size") {
		cfg.Collection.Size = int(cmd.Int("size"))
	}
	if cmd.IsSet("out") {
		cfg.Collection.OutputDir = cmd.String("out")
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	return cfg, []internal.Option{
		internal.WithConfig(cfg),
		internal.WithConfigPath(configPath),
	}, nil
}

func generate(ctx context.Context, cmd *cli.Command) error {
	_, opts, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, opts...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func preview(ctx context.Context, cmd *cli.Command) error {
	_, opts, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	opts = append(opts, internal.WithWatch(cmd.Bool("watch")))
	return internal.Preview(ctx, opts...)
}

func stats(ctx context.Context, cmd *cli.Command) error {
	_, opts, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.Stats(ctx, opts...)
}

func main() {
	overrides := []cli.Flag{
		&cli.UintFlag{
			Name:    "seed",
			Usage:   "Random seed (0 picks a fresh one)",
			Sources: cli.EnvVars("APP_SEED"),
		},
		&cli.IntFlag{
			Name:  "size",
			Usage: "Number of boards in the collection",
		},
		&cli.StringFlag{
			Name:  "out",
			Usage: "Output directory for images and metadata",
		},
	}

	cmd := &cli.Command{
		Name:   "chessboards",
		Usage:  "Generate a collection of unique procedurally drawn chessboards",
		Action: generate,
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		}, overrides...),
		Commands: []*cli.Command{
			{
				Name:   "generate",
				Usage:  "Build the collection, resuming from the ledger",
				Action: generate,
			},
			{
				Name:   "preview",
				Usage:  "Render one sample board into the output directory",
				Action: preview,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "watch",
						Usage: "Re-render whenever the config file changes",
					},
				},
			},
			{
				Name:   "stats",
				Usage:  "Print trait frequencies recorded in the ledger",
				Action: stats,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
