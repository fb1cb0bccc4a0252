// Package server exposes the tracker to a local front end over HTTP.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/etnz/pit/date"
	"github.com/etnz/pit/quotes"
	"github.com/etnz/pit/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Config holds server configuration
type Config struct {
	Addr           string
	AllowedOrigins []string
	BaseCurrency   string // fallback when the base_currency setting is absent
	Schedule       string // cron spec of the quote refresh, empty disables it
	Store          *store.Store
	Fetcher        *quotes.Fetcher // nil disables the quote refresh
	Log            zerolog.Logger
	Today          func() date.Date // defaults to date.Today
}

// Server is the HTTP bridge between a front end and the store.
type Server struct {
	router  *chi.Mux
	server  *http.Server
	cron    *cron.Cron
	log     zerolog.Logger
	store   *store.Store
	fetcher *quotes.Fetcher
	cfg     Config
	funcs   map[string]apiFunc
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	if cfg.Today == nil {
		cfg.Today = date.Today
	}
	s := &Server{
		router:  chi.NewRouter(),
		log:     cfg.Log.With().Str("component", "server").Logger(),
		store:   cfg.Store,
		fetcher: cfg.Fetcher,
		cfg:     cfg,
	}
	s.funcs = s.apiFuncs()

	s.setupMiddleware()
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Handler returns the root handler, mostly for tests.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Recoverer)
	s.router.Use(requestID)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Timeout(60 * time.Second))

	origins := s.cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:*", "http://127.0.0.1:*"}
	}
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)
	s.router.Post("/api/{function}", s.handleCall)
	s.router.Get("/report/holdings", s.handleHoldingsReport)
	s.router.Get("/chart/allocation.svg", s.handleAllocationChart)
}

// Start registers the quote refresh job, serves until ctx is done and
// then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	if err := s.startScheduler(); err != nil {
		return err
	}
	defer s.stopScheduler()

	errc := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.server.Addr).Msg("Starting HTTP server")
		errc <- s.server.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.Shutdown(shutdownCtx)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

func (s *Server) startScheduler() error {
	if s.cfg.Schedule == "" || s.fetcher == nil {
		return nil
	}
	s.cron = cron.New()
	if _, err := s.cron.AddFunc(s.cfg.Schedule, s.refreshQuotes); err != nil {
		return err
	}
	s.cron.Start()
	s.log.Info().Str("schedule", s.cfg.Schedule).Msg("Quote refresh scheduled")
	return nil
}

func (s *Server) stopScheduler() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
	s.log.Info().Msg("Scheduler stopped")
}

// refreshQuotes is the cron job updating today's prices.
func (s *Server) refreshQuotes() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	assets, err := s.store.ListAssets(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("Quote refresh failed")
		return
	}
	n, err := s.fetcher.Update(ctx, assets, s.store, s.cfg.Today())
	if err != nil {
		s.log.Warn().Err(err).Int("updated", n).Msg("Quote refresh incomplete")
		return
	}
	s.log.Info().Int("updated", n).Msg("Quote refresh done")
}

// requestID reuses the client X-Request-Id or generates one, and makes it
// available to middleware.GetReqID.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(middleware.RequestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		w.Header().Set(middleware.RequestIDHeader, id)
		ctx := context.WithValue(r.Context(), middleware.RequestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
