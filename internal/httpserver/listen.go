package httpserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
)

// listenAndServe binds addr synchronously, so a busy port fails startup,
// then serves in the background. ready is closed once the socket is bound.
func listenAndServe(
	ctx context.Context,
	logger *slog.Logger,
	addr string,
	handler http.Handler,
	ready chan struct{},
) (*http.Server, net.Addr, error) {
	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadTimeout:       readTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		MaxHeaderBytes:    maxHeaderBytes,
	}

	lc := &net.ListenConfig{
		KeepAliveConfig: net.KeepAliveConfig{
			Enable: true,
		},
	}

	listener, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return nil, nil, fmt.Errorf("listen tcp %s: %w", addr, err)
	}

	close(ready)

	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.ErrorContext(ctx, "http serve error", "addr", addr, "error", err)
		}
	}()

	return server, listener.Addr(), nil
}

func pingReady(ctx context.Context, ready <-chan struct{}, name string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-ready:
		return nil
	default:
		return fmt.Errorf("%s is not ready", name)
	}
}
