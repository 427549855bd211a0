package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/lithos/internal/metrics"
	"git.home.luguber.info/inful/lithos/internal/watch"
)

// Run starts the document server, the livereload listener and the file
// watcher, and blocks until ctx is cancelled or one of them fails.
func (s *State) Run(ctx context.Context, host, addr string) error {
	watcher, err := watch.New(s.paths)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return ignoreCanceled(watcher.Run(ctx))
	})
	g.Go(func() error {
		for batch := range watcher.Batches() {
			s.Apply(batch)
		}
		return nil
	})
	g.Go(func() error {
		return ServeReload(ctx, host, s.hub)
	})
	g.Go(func() error {
		return serveHTTP(ctx, addr, s.Handler())
	})
	return g.Wait()
}

func serveHTTP(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	slog.Info("dev server listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Static serves an already-built output directory with no rendering,
// watching or reload channel. Used by the serve command.
func Static(ctx context.Context, dir, addr string) error {
	handler := loggingMiddleware(metrics.NoopRecorder{}, http.FileServer(http.Dir(dir)))
	return serveHTTP(ctx, addr, handler)
}
