package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/lacquerai/minijs/internal/cache"
	"github.com/lacquerai/minijs/internal/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// Config holds the server configuration
type Config struct {
	Host            string
	Port            int
	EnableMetrics   bool
	EnableCORS      bool
	StorePath       string
	CacheSize       int
	MaxSourceBytes  int64
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// DefaultConfig returns a default server configuration
func DefaultConfig() *Config {
	return &Config{
		Host:            "localhost",
		Port:            8080,
		EnableMetrics:   true,
		EnableCORS:      true,
		StorePath:       store.MemoryPath,
		CacheSize:       cache.DefaultSize,
		MaxSourceBytes:  64 << 10,
		ReadTimeout:     15 * time.Second,
		WriteTimeout:    15 * time.Second,
		IdleTimeout:     60 * time.Second,
		ShutdownTimeout: 30 * time.Second,
	}
}

// Metrics holds the Prometheus collectors updated by the handlers
type Metrics struct {
	runsTotal     *prometheus.CounterVec
	runDuration   *prometheus.HistogramVec
	cacheHits     prometheus.Counter
	cacheMisses   prometheus.Counter
	activeSockets prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with registerer,
// which may be nil to skip registration
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	m := &Metrics{
		runsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "minijs_runs_total",
			Help: "Programs run, by endpoint and outcome (ok or the error kind)",
		}, []string{"endpoint", "outcome"}),
		runDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "minijs_run_duration_seconds",
			Help:    "Time spent parsing and evaluating a program",
			Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
		}, []string{"endpoint"}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "minijs_parse_cache_hits_total",
			Help: "Parsed programs served from the cache",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "minijs_parse_cache_misses_total",
			Help: "Programs that had to be parsed",
		}),
		activeSockets: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "minijs_websocket_sessions_active",
			Help: "Open websocket REPL connections",
		}),
	}

	if registerer != nil {
		registerer.MustRegister(m.runsTotal)
		registerer.MustRegister(m.runDuration)
		registerer.MustRegister(m.cacheHits)
		registerer.MustRegister(m.cacheMisses)
		registerer.MustRegister(m.activeSockets)
	}

	return m
}

// CacheHit implements cache.Observer
func (m *Metrics) CacheHit() { m.cacheHits.Inc() }

// CacheMiss implements cache.Observer
func (m *Metrics) CacheMiss() { m.cacheMisses.Inc() }

func (m *Metrics) observeRun(endpoint, outcome string, d time.Duration) {
	m.runsTotal.WithLabelValues(endpoint, outcome).Inc()
	m.runDuration.WithLabelValues(endpoint).Observe(d.Seconds())
}

// Option customises a Server
type Option func(*Server)

// WithRegistry registers metrics with registry and serves it on /metrics
// instead of the default Prometheus registry
func WithRegistry(registry *prometheus.Registry) Option {
	return func(s *Server) {
		s.registerer = registry
		s.gatherer = registry
	}
}

// WithStore uses an already opened session store. The server does not
// close it.
func WithStore(st *store.Store) Option {
	return func(s *Server) {
		s.store = st
	}
}

// Server exposes minijs over HTTP
type Server struct {
	config     *Config
	store      *store.Store
	ownsStore  bool
	cache      *cache.ProgramCache
	metrics    *Metrics
	registerer prometheus.Registerer
	gatherer   prometheus.Gatherer
	server     *http.Server
	upgrader   websocket.Upgrader
}

// New creates a server, opening the session store at config.StorePath
// unless one is supplied with WithStore
func New(config *Config, options ...Option) (*Server, error) {
	if config == nil {
		config = DefaultConfig()
	}

	s := &Server{
		config:     config,
		registerer: prometheus.DefaultRegisterer,
		gatherer:   prometheus.DefaultGatherer,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return config.EnableCORS
			},
		},
	}
	for _, option := range options {
		option(s)
	}

	if s.store == nil {
		path := config.StorePath
		if path == "" {
			path = store.MemoryPath
		}
		st, err := store.Open(path)
		if err != nil {
			return nil, err
		}
		s.store = st
		s.ownsStore = true
	}

	s.metrics = NewMetrics(s.registerer)
	s.cache = cache.New(config.CacheSize)
	s.cache.SetObserver(s.metrics)

	return s, nil
}

// Handler builds the router
func (s *Server) Handler() http.Handler {
	router := mux.NewRouter()

	if s.config.EnableCORS {
		router.Use(s.corsMiddleware)
	}

	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(s.loggingMiddleware)

	api.HandleFunc("/run", s.runProgram).Methods("POST")
	api.HandleFunc("/parse", s.parseProgram).Methods("POST")

	api.HandleFunc("/sessions", s.listSessions).Methods("GET")
	api.HandleFunc("/sessions/{name}", s.getSession).Methods("GET")
	api.HandleFunc("/sessions/{name}", s.putSession).Methods("PUT")
	api.HandleFunc("/sessions/{name}", s.deleteSession).Methods("DELETE")
	api.HandleFunc("/sessions/{name}/run", s.runSession).Methods("POST")
	api.HandleFunc("/sessions/{name}/ws", s.sessionSocket).Methods("GET")

	if s.config.EnableCORS {
		api.Methods("OPTIONS").HandlerFunc(s.handleOptions)
	}

	if s.config.EnableMetrics {
		router.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	router.HandleFunc("/health", s.healthCheck)

	return router
}

// Start starts the HTTP server in the background
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	log.Info().
		Str("addr", addr).
		Str("store", s.config.StorePath).
		Bool("metrics", s.config.EnableMetrics).
		Msg("Starting minijs server")

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	return nil
}

// Stop shuts the HTTP server down and closes the store if the server
// opened it
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		log.Info().Msg("Shutting down server...")
		if err := s.server.Shutdown(ctx); err != nil {
			return err
		}
	}
	return s.Close()
}

// Close releases the session store if the server opened it
func (s *Server) Close() error {
	if s.ownsStore && s.store != nil {
		err := s.store.Close()
		s.store = nil
		return err
	}
	return nil
}

// StartWithGracefulShutdown starts the server and blocks until SIGINT or
// SIGTERM
func (s *Server) StartWithGracefulShutdown() error {
	if err := s.Start(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Info().Msg("Received shutdown signal")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
		defer shutdownCancel()

		if err := s.Stop(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Server shutdown error")
		}

		cancel()
	}()

	<-ctx.Done()
	log.Info().Msg("Server shutdown complete")
	return nil
}

// GetAddr returns the server address
func (s *Server) GetAddr() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}

// CacheStats returns the parse cache counters
func (s *Server) CacheStats() cache.Stats {
	return s.cache.Stats()
}

// handleOptions handles CORS preflight requests
func (s *Server) handleOptions(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
