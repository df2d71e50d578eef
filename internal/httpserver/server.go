package httpserver

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"github.com/mt-krainski/chrzaszcz-simple/internal/infra/appstate"
	"github.com/mt-krainski/chrzaszcz-simple/internal/infra/shutdown"
)

// Deps are the components the command surface talks to.
type Deps struct {
	AppState appstater
	Drive    driveController
	Arm      armController
	Watchdog watchdogReporter
	Clock    clock
}

// Server is the operator-facing HTTP and WebSocket command surface.
type Server struct {
	logger     *slog.Logger
	deps       Deps
	port       string
	server     *http.Server
	addr       net.Addr
	ready      chan struct{}
	inShutdown atomic.Bool
	upgrader   websocket.Upgrader

	wsMu    sync.Mutex
	wsConns map[*websocket.Conn]struct{}
}

// New creates a new HTTP server instance
func New(logger *slog.Logger, deps Deps, port string) *Server {
	if port == "" {
		port = defaultPort
	}

	return &Server{
		logger: logger.With("component", "http-server"),
		deps:   deps,
		port:   port,
		ready:  make(chan struct{}),
		upgrader: websocket.Upgrader{
			HandshakeTimeout: readTimeout,
			// browser pages served from anywhere on the operator LAN may connect
			CheckOrigin: func(*http.Request) bool { return true },
		},
		wsConns: make(map[*websocket.Conn]struct{}),
	}
}

var _ shutdown.Shutdowner = (*Server)(nil)

// Name returns the name of the server component
func (s *Server) Name() string {
	return "http-server"
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(requestLogger(s.logger))
	router.Use(middleware.Recoverer)

	router.Get("/-/healthz", appstate.HandleHealthz(s.logger, s.deps.AppState))
	router.Get("/-/readyz", appstate.HandleReadyz(s.logger, s.deps.AppState))
	router.Get("/-/status", appstate.HandleStatus(s.logger, s.deps.AppState))

	router.Get("/heartbeat", s.handleHeartbeat)
	router.Get("/set_control", s.handleSetControl)
	router.Get("/ws/control", s.handleWebSocket)

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Post("/drive", s.handleDrive)
		r.Get("/arm", s.handleArmPosition)
		r.Post("/arm/move", s.handleArmMove)
		r.Post("/arm/reset", s.handleArmReset)
	})

	return router
}

// Start binds the port and serves in the background.
func (s *Server) Start(ctx context.Context) error {
	if s.inShutdown.Load() {
		s.logger.InfoContext(ctx, "http server is shutting down, skipping start")

		return nil
	}

	server, addr, err := listenAndServe(ctx, s.logger, ":"+s.port, s.Handler(), s.ready)
	if err != nil {
		return fmt.Errorf("start http server: %w", err)
	}

	server.RegisterOnShutdown(s.closeWebSockets)

	s.server = server
	s.addr = addr

	s.logger.InfoContext(ctx, "http server listening", "addr", addr.String())

	return nil
}

// Addr returns the bound address once started.
func (s *Server) Addr() net.Addr {
	return s.addr
}

// Ready returns a channel that is closed when the HTTP server is ready to serve requests
func (s *Server) Ready() <-chan struct{} {
	return s.ready
}

func (s *Server) Ping(ctx context.Context) error {
	return pingReady(ctx, s.ready, s.Name())
}

// Shutdown stops accepting requests, closes open WebSockets and waits for
// in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if !s.inShutdown.CompareAndSwap(false, true) {
		s.logger.ErrorContext(ctx, "http server is already shutting down, skipping shutdown")

		return nil
	}

	if s.server == nil {
		return nil
	}

	s.logger.InfoContext(ctx, "shutting down http server")

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}

	s.logger.InfoContext(ctx, "http server closed properly")

	return nil
}

// requestLogger logs each request at debug level; drive clients poll
// several times a second.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			defer func() {
				logger.DebugContext(r.Context(), "http request",
					"traceID", middleware.GetReqID(r.Context()),
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"bytes", ww.BytesWritten(),
					"duration", time.Since(start),
				)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
