package httpserver

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mt-krainski/chrzaszcz-simple/internal/infra/shutdown"
)

// MetricsServer serves Prometheus metrics on a dedicated port, away from
// the command surface.
type MetricsServer struct {
	logger     *slog.Logger
	port       string
	server     *http.Server
	ready      chan struct{}
	inShutdown atomic.Bool
}

// NewMetricsServer creates a new metrics server that serves GET /metrics on the given port.
func NewMetricsServer(logger *slog.Logger, port string) *MetricsServer {
	if port == "" {
		port = defaultMetricsPort
	}

	return &MetricsServer{
		logger: logger.With("component", "metrics-server"),
		port:   port,
		ready:  make(chan struct{}),
	}
}

var _ shutdown.Shutdowner = (*MetricsServer)(nil)

func (s *MetricsServer) Name() string {
	return "metrics-server"
}

// PingerCritical lets the rover keep driving when scraping breaks.
func (s *MetricsServer) PingerCritical() bool {
	return false
}

func (s *MetricsServer) Ping(ctx context.Context) error {
	return pingReady(ctx, s.ready, s.Name())
}

func (s *MetricsServer) Start(ctx context.Context) error {
	if s.inShutdown.Load() {
		s.logger.InfoContext(ctx, "metrics server is shutting down, skipping start")

		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.Handler())

	server, addr, err := listenAndServe(ctx, s.logger, ":"+s.port, mux, s.ready)
	if err != nil {
		return fmt.Errorf("start metrics server: %w", err)
	}

	s.server = server
	s.logger.InfoContext(ctx, "metrics server listening", "addr", addr.String())

	return nil
}

func (s *MetricsServer) Ready() <-chan struct{} {
	return s.ready
}

func (s *MetricsServer) Shutdown(ctx context.Context) error {
	if !s.inShutdown.CompareAndSwap(false, true) || s.server == nil {
		return nil
	}

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("metrics server shutdown: %w", err)
	}

	s.logger.InfoContext(ctx, "metrics server closed")

	return nil
}
