package app

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/vk/formulagrid/internal/ctxlog"
	"github.com/vk/formulagrid/internal/engine"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	config   *Config
	executor *engine.Executor

	healthServer *http.Server
	healthAddr   string
}

// NewApp is the constructor for the main application. Results are written
// to outW and logs to logW, each with its own isolated logger.
func NewApp(outW, logW io.Writer, config *Config) *App {
	logger := newLogger(config.LogLevel, config.LogFormat, logW)
	logger.Debug("Logger configured successfully.")

	return &App{
		outW:     outW,
		logger:   logger,
		config:   config,
		executor: engine.New(config.Workers),
	}
}

// Context returns ctx carrying the app's logger.
func (a *App) Context(ctx context.Context) context.Context {
	return ctxlog.WithLogger(ctx, a.logger)
}
