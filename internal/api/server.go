// Package api exposes the portfolio, rules and watchlist services over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"stockwatch/internal/analytics"
	"stockwatch/internal/history"
	"stockwatch/internal/ledger"
	"stockwatch/internal/model"
	"stockwatch/internal/portfolio"
	"stockwatch/internal/rules"
	"stockwatch/internal/store"
)

// MarketSource provides a snapshot of the major index quotes. Sources that
// cannot serve it simply aren't wired in.
type MarketSource interface {
	MarketOverview() []model.IndexQuote
}

// Config holds server dependencies.
type Config struct {
	Addr      string
	Log       zerolog.Logger
	Ledger    *ledger.Service
	Portfolio *portfolio.Service
	Analytics *analytics.Service
	Rules     *rules.Service
	History   *history.Builder
	Store     store.Store
	Market    MarketSource
}

// Server is the HTTP front end.
type Server struct {
	router    *chi.Mux
	server    *http.Server
	log       zerolog.Logger
	ledger    *ledger.Service
	portfolio *portfolio.Service
	analytics *analytics.Service
	rules     *rules.Service
	history   *history.Builder
	store     store.Store
	market    MarketSource
}

// New creates a new HTTP server.
func New(cfg Config) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		log:       cfg.Log.With().Str("component", "api").Logger(),
		ledger:    cfg.Ledger,
		portfolio: cfg.Portfolio,
		analytics: cfg.Analytics,
		rules:     cfg.Rules,
		history:   cfg.History,
		store:     cfg.Store,
		market:    cfg.Market,
	}

	s.setupMiddleware()
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Timeout(60 * time.Second))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Route("/portfolio", func(r chi.Router) {
			r.Get("/", s.handlePortfolio)
			r.Get("/metrics", s.handleMetrics)
			r.Get("/breakdown", s.handleBreakdown)
			r.Get("/risk", s.handleRisk)
			r.Get("/performance", s.handlePerformance)
			r.Get("/history", s.handleHistory)
		})

		r.Get("/positions/{symbol}", s.handlePosition)

		r.Route("/transactions", func(r chi.Router) {
			r.Get("/", s.handleListTransactions)
			r.Post("/", s.handleAddTransaction)
		})

		r.Route("/rules", func(r chi.Router) {
			r.Get("/", s.handleListRules)
			r.Post("/", s.handleCreateRule)
			r.Post("/{id}/toggle", s.handleToggleRule)
			r.Delete("/{id}", s.handleDeleteRule)
		})

		r.Get("/alerts", s.handleAlerts)

		r.Route("/watchlist", func(r chi.Router) {
			r.Get("/", s.handleWatchlist)
			r.Post("/", s.handleAddToWatchlist)
			r.Delete("/{symbol}", s.handleRemoveFromWatchlist)
		})

		r.Get("/market", s.handleMarket)

		// Rebuilding history walks every transaction day against the quote
		// source, so it gets its own longer timeout.
		r.With(middleware.Timeout(120 * time.Second)).
			Post("/history/rebuild", s.handleRebuildHistory)

		r.Get("/backup", s.handleBackup)
		r.Get("/stats", s.handleStats)
		r.Delete("/data", s.handleClearData)
	})
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

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
