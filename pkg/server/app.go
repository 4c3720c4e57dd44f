package server

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	xhttp "FinSimples/pkg/http"
	applogger "FinSimples/pkg/logger"
)

// App encapsulates the application lifecycle.
type App struct {
	httpServer *xhttp.Server
	logger     *applogger.Logger
	background []func(stop <-chan struct{})
}

// New creates a new App around an HTTP server.
func New(srv *xhttp.Server, l *applogger.Logger) *App {
	return &App{httpServer: srv, logger: l}
}

// OnStart registers a background task started with the server. stop is
// closed on shutdown.
func (a *App) OnStart(fn func(stop <-chan struct{})) {
	a.background = append(a.background, fn)
}

// Run starts the application and blocks until ctx is done, an interrupt
// arrives or the server fails.
func (a *App) Run(ctx context.Context) error {
	ctx, stopSignals := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stopSignals()

	stop := make(chan struct{})
	defer close(stop)
	for _, fn := range a.background {
		fn(stop)
	}

	if err := a.httpServer.Start(); err != nil {
		return fmt.Errorf("http server start: %w", err)
	}

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-a.httpServer.Errors():
		runErr = fmt.Errorf("http server: %w", err)
	}

	return a.shutdown(runErr)
}

// shutdown gracefully stops the HTTP server.
func (a *App) shutdown(runErr error) error {
	a.logger.Info("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), a.httpServer.ShutdownTimeout())
	defer cancel()
	if err := a.httpServer.Stop(ctx); err != nil {
		a.logger.Error("http shutdown error", applogger.Error(err))
		if runErr == nil {
			runErr = err
		}
	}

	a.logger.Info("shutdown complete")
	return runErr
}
