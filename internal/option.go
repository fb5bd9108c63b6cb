package internal

import (
	"io"
	"log/slog"
)

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config     *Config
	configPath string
	logger     *slog.Logger
	out        io.Writer
	watch      bool
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithConfigPath records where the configuration was loaded from, so
// preview can reload it.
func WithConfigPath(path string) Option {
	return func(a *application) {
		a.configPath = path
	}
}

// WithLogger replaces the JSON stdout logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *application) {
		a.logger = l
	}
}

// WithOutput sets where reports are printed.
func WithOutput(w io.Writer) Option {
	return func(a *application) {
		a.out = w
	}
}

// WithWatch makes Preview re-render whenever the config file changes.
func WithWatch(watch bool) Option {
	return func(a *application) {
		a.watch = watch
	}
}
