package httpserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/todoapp/todoapp-go/internal/logutil"
)

const shutdownTimeout = 10 * time.Second

// Serve runs handler on addr until ctx is cancelled, then shuts the server
// down gracefully. It returns the listener error, if any.
func Serve(ctx context.Context, addr string, handler http.Handler) error {
	server := &http.Server{
		Handler:           handler,
		Addr:              addr,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       2 * time.Minute,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}
	return run(ctx, server, server.ListenAndServe)
}

func run(ctx context.Context, server *http.Server, listen func() error) error {
	log := logutil.GetOrDefault(ctx).With().Str("server.addr", server.Addr).Logger()

	errc := make(chan error, 1)
	go func() {
		defer close(errc)
		log.Info().Msg("Starting HTTP server")
		if err := listen(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
			return
		}
		log.Info().Msg("Server closed")
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("Initiating shutdown process")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info().Msg("Shutdown completed")
	return <-errc
}
