// Package application wires configuration, storage, the core service and
// its front ends into one process.
package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/JonMunkholm/FeedStatus/internal/config"
	"github.com/JonMunkholm/FeedStatus/internal/core"
	"github.com/JonMunkholm/FeedStatus/internal/inbox"
	"github.com/JonMunkholm/FeedStatus/internal/kv"
	"github.com/JonMunkholm/FeedStatus/internal/seed"
	"github.com/JonMunkholm/FeedStatus/internal/web"
	"golang.org/x/sync/errgroup"
)

// App is a configured dashboard ready to Run.
type App struct {
	cfg     *config.Config
	store   kv.Store
	service *core.Service
	server  *web.Server
	inbox   *inbox.Watcher
}

// ServiceOptions maps configuration onto core.Options.
func ServiceOptions(cfg *config.Config, store kv.Store) core.Options {
	return core.Options{
		Store:                store,
		LogKey:               cfg.Storage.LogKey,
		MaxConcurrentUploads: cfg.Upload.MaxConcurrent,
		MaxWaitTime:          cfg.Upload.MaxWaitTime,
		MaxFileSize:          cfg.Upload.MaxFileSize,
	}
}

// OpenService opens the audit log slot and builds an unseeded service.
// The caller closes the returned store.
func OpenService(ctx context.Context, cfg *config.Config) (*core.Service, kv.Store, error) {
	store, err := kv.Open(ctx, cfg.KVOptions())
	if err != nil {
		return nil, nil, fmt.Errorf("open %s storage: %w", cfg.Storage.Backend, err)
	}
	svc := core.NewService(ctx, ServiceOptions(cfg, store))
	slog.Info("storage opened",
		"backend", cfg.Storage.Backend,
		"log_key", cfg.Storage.LogKey,
		"log_entries", svc.Audit().Len(),
	)
	return svc, store, nil
}

// New opens storage, seeds the datasets and builds the HTTP server and,
// when enabled, the inbox watcher.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	svc, store, err := OpenService(ctx, cfg)
	if err != nil {
		return nil, err
	}
	app := &App{cfg: cfg, store: store, service: svc}

	if !cfg.Seed.Disabled {
		sources := seed.Sources{
			core.DatasetProduct:   cfg.Seed.ProductPath,
			core.DatasetECommerce: cfg.Seed.ECommercePath,
		}
		if err := seed.Apply(ctx, svc, sources); err != nil {
			store.Close()
			return nil, err
		}
	}

	if cfg.Inbox.Enabled {
		w, err := inbox.New(cfg.Inbox.Dir, cfg.Inbox.Settle, svc)
		if err != nil {
			store.Close()
			return nil, err
		}
		app.inbox = w
	}

	app.server = web.NewServer(svc, cfg)
	return app, nil
}

// Service returns the underlying service.
func (a *App) Service() *core.Service { return a.service }

// Handler returns the HTTP handler.
func (a *App) Handler() http.Handler { return a.server.Router() }

// Run serves HTTP on the configured address until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	return a.run(ctx, a.server.Start)
}

// RunListener is Run on an existing listener.
func (a *App) RunListener(ctx context.Context, ln net.Listener) error {
	return a.run(ctx, func() error { return a.server.Serve(ln) })
}

func (a *App) run(ctx context.Context, serve func() error) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := serve(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	if a.inbox != nil {
		g.Go(func() error {
			return a.inbox.Run(gctx)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
		defer cancel()

		start := time.Now()
		if status := a.service.UploadLimiterStatus(); status.Active > 0 {
			slog.Info("waiting for uploads to complete", "active", status.Active)
		}
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		slog.Info("server stopped", "duration_ms", time.Since(start).Milliseconds())
		return nil
	})

	return g.Wait()
}

// Close releases storage. Call it after Run returns.
func (a *App) Close() error {
	if a.inbox != nil {
		a.inbox.Close()
	}
	a.server.Close()
	return a.store.Close()
}
