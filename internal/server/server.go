package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vango-dev/auto/pkg/auto"
	"github.com/vango-dev/auto/pkg/stream"
)

// Options configures a Server.
type Options struct {
	// Addr is the listen address used by Run.
	Addr string

	// MetricsPath and FeedPath are the endpoint paths.
	MetricsPath string
	FeedPath    string

	// TickInterval is the period of the tick feed used by Run.
	TickInterval time.Duration

	// Gatherer is served on MetricsPath. Nil disables the endpoint.
	Gatherer prometheus.Gatherer

	// Recorder receives the metric hooks of feed connections.
	Recorder auto.Recorder

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Server serves the tick feed.
type Server struct {
	opts   Options
	logger *slog.Logger
	router *chi.Mux

	ticks *stream.Behavior[int]
	count atomic.Int64
	class *auto.Class[feedClient]

	upgrader websocket.Upgrader

	clientsMu sync.Mutex
	clients   map[*feedClient]*auto.Host[feedClient]
	closed    bool
}

// Define registers the feed connection class on r.
func Define(r *auto.Registry, opts ...auto.DefineOption) error {
	_, err := define(r, opts...)
	return err
}

func define(r *auto.Registry, opts ...auto.DefineOption) (*auto.Class[feedClient], error) {
	return auto.Define[feedClient](r, opts...)
}

// New creates a Server and its routes.
func New(opts Options) (*Server, error) {
	if opts.MetricsPath == "" {
		opts.MetricsPath = "/metrics"
	}
	if opts.FeedPath == "" {
		opts.FeedPath = "/ws"
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "server")

	defineOpts := []auto.DefineOption{auto.WithLogger(logger)}
	if opts.Recorder != nil {
		defineOpts = append(defineOpts, auto.WithRecorder(opts.Recorder))
	}
	class, err := define(auto.NewRegistry(), defineOpts...)
	if err != nil {
		return nil, err
	}

	s := &Server{
		opts:   opts,
		logger: logger,
		router: chi.NewRouter(),
		ticks:  stream.NewBehavior(0),
		class:  class,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		clients: make(map[*feedClient]*auto.Host[feedClient]),
	}
	s.setupRoutes()
	return s, nil
}

func (s *Server) setupRoutes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Recoverer)

	s.router.Get("/healthz", s.handleHealth)
	if s.opts.Gatherer != nil {
		s.router.Handle(s.opts.MetricsPath, promhttp.HandlerFor(s.opts.Gatherer, promhttp.HandlerOpts{}))
	}
	s.router.Get(s.opts.FeedPath, s.handleFeed)
}

// Handler returns the server's router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Tick advances the counter and sends it to every feed connection.
func (s *Server) Tick() int {
	n := int(s.count.Add(1))
	s.ticks.Next(n)
	return n
}

// Clients returns the number of open feed connections.
func (s *Server) Clients() int {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	return len(s.clients)
}

// Run serves on opts.Addr and ticks every opts.TickInterval until ctx is
// cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	s.logger.Info("listening", "addr", s.opts.Addr, "feed", s.opts.FeedPath, "interval", s.opts.TickInterval)

	ticker := time.NewTicker(s.opts.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Tick()
		case err := <-errCh:
			s.Close()
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			err := srv.Shutdown(shutdownCtx)
			s.Close()
			return err
		}
	}
}

// Close ends the tick stream and destroys every feed connection. Feed
// connections accepted after Close are closed immediately.
func (s *Server) Close() {
	s.clientsMu.Lock()
	s.closed = true
	hosts := make([]*auto.Host[feedClient], 0, len(s.clients))
	for _, h := range s.clients {
		hosts = append(hosts, h)
	}
	s.clientsMu.Unlock()

	for _, h := range hosts {
		destroyClient(h)
	}
	s.ticks.Complete()
}

// destroyClient runs OnDestroy once any in-flight OnCheck of the same
// client has returned.
func destroyClient(h *auto.Host[feedClient]) {
	c := h.Instance()
	c.lifeMu.Lock()
	defer c.lifeMu.Unlock()
	h.OnDestroy()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"healthy","clients":` + strconv.Itoa(s.Clients()) + `}`))
}

// handleFeed upgrades the connection and binds it as a feed client. The
// client's subscription replays the current count and then follows every
// tick until the peer goes away.
func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("upgrade failed", "error", err)
		return
	}

	c := &feedClient{Ticks: s.ticks, Conn: conn, logger: s.logger.With("client", uuid.NewString())}
	h := s.class.Bind(c, auto.ChangeDetectorFunc(c.push))
	c.logger.Debug("feed client connected", "remote", r.RemoteAddr)

	c.lifeMu.Lock()
	s.clientsMu.Lock()
	if s.closed {
		s.clientsMu.Unlock()
		h.OnDestroy()
		c.lifeMu.Unlock()
		c.logger.Debug("feed client rejected, server closed")
		return
	}
	s.clients[c] = h
	s.clientsMu.Unlock()
	h.OnCheck()
	c.lifeMu.Unlock()

	// Keep connection alive until client disconnects
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	s.clientsMu.Lock()
	delete(s.clients, c)
	s.clientsMu.Unlock()
	destroyClient(h)
	c.logger.Debug("feed client disconnected")
}
