// Package bootstrap coordinates startup and graceful shutdown for the
// hoverlearn server and CLI processes.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// A shutdownHook releases one resource, such as the HTTP listener or the
// database pool. Hooks carry a name so failures can be attributed in logs.
type shutdownHook struct {
	name string
	fn   func(ctx context.Context) error
}

// App ties a process's main loop to OS signals and tears down registered
// resources when the loop ends or the process is asked to stop.
type App struct {
	logger *slog.Logger

	mu    sync.Mutex
	hooks []shutdownHook
}

// New creates an App. A nil logger falls back to slog.Default.
func New(logger *slog.Logger) *App {
	if logger == nil {
		logger = slog.Default()
	}
	return &App{logger: logger}
}

// AddShutdownHook registers a named cleanup step. Hooks run in reverse
// registration order so dependents close before their dependencies.
// Thread-safe.
func (a *App) AddShutdownHook(name string, fn func(ctx context.Context) error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.hooks = append(a.hooks, shutdownHook{name: name, fn: fn})
}

// Run executes run until it returns or the process receives SIGINT or
// SIGTERM, then drains the shutdown hooks. An error from run finishing
// first is returned as-is; otherwise the joined hook errors are returned.
func (a *App) Run(ctx context.Context, run func(ctx context.Context) error) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- run(ctx)
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutting down")
		return a.shutdown(context.Background())
	case err := <-errCh:
		return err
	}
}

func (a *App) shutdown(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	var errs []error
	for i := len(a.hooks) - 1; i >= 0; i-- {
		h := a.hooks[i]
		if err := h.fn(ctx); err != nil {
			a.logger.Error("shutdown hook failed", "hook", h.name, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", h.name, err))
		}
	}
	return errors.Join(errs...)
}
