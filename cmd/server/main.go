package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Meet7773/ChronoStox/internal/config"
	"github.com/Meet7773/ChronoStox/internal/dashboard"
	"github.com/Meet7773/ChronoStox/internal/logger"
	"github.com/Meet7773/ChronoStox/internal/marketdata"
	"github.com/Meet7773/ChronoStox/internal/metrics"
	"github.com/Meet7773/ChronoStox/internal/overview"
	"github.com/Meet7773/ChronoStox/internal/scenario"
	"github.com/Meet7773/ChronoStox/internal/screener"
	"github.com/Meet7773/ChronoStox/internal/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		boot := logger.New(logger.Config{Level: "info"})
		boot.Fatal().Err(err).Msg("invalid configuration")
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty})
	logger.SetGlobalLogger(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// --- Market data ---
	var cleanup []func()
	provider := buildProvider(ctx, cfg, log, &cleanup)
	defer func() {
		for _, fn := range cleanup {
			fn()
		}
	}()

	// --- Static data ---
	universe, err := screener.Load(cfg.UniversePath)
	if err != nil {
		log.Warn().Err(err).Str("path", cfg.UniversePath).Msg("screener data unavailable")
		universe = nil
	}
	tickers, defaults := screener.TickerList(cfg.UniversePath)
	if defaults {
		log.Warn().Strs("tickers", tickers).Msg("using default ticker list")
	}

	catalog, err := scenario.Load(cfg.ScenariosPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.ScenariosPath).Msg("invalid scenario file")
	}
	log.Info().Int("scenarios", catalog.Len()).Msg("scenario catalog loaded")

	// --- Sessions ---
	sessions := session.NewRegistry(provider, cfg.InitialCash, cfg.SessionTTL, log)
	go sweepSessions(ctx, sessions, cfg.SessionTTL/4)

	// --- WebSocket hub ---
	wsHub := dashboard.NewWSHub(log, originChecker(cfg.AllowedOrigins))
	go wsHub.Run(ctx)

	// --- Dashboard API ---
	api := dashboard.NewHandler(dashboard.Options{
		Sessions:       sessions,
		Provider:       provider,
		Catalog:        catalog,
		Universe:       universe,
		Tickers:        tickers,
		TickerDefaults: defaults,
		Overview:       overview.New(provider, log),
		Hub:            wsHub,
		Log:            log,
	})

	// --- HTTP router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(log))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(metrics.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: !allowsAny(cfg.AllowedOrigins),
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","service":"chronostox"}`))
	})

	// Prometheus metrics endpoint.
	r.Handle("/metrics", metrics.Handler())

	r.Mount("/api/v1", api.Routes())

	// --- Server ---
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 65 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr()).Msg("chronostox listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down chronostox...")
	cancel()

	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown error")
	}
	log.Info().Msg("chronostox stopped")
}

// buildProvider assembles the market-data stack: an optional Postgres
// mirror ahead of Yahoo, a per-call timeout, then a read-through cache in
// Redis or memory.
func buildProvider(ctx context.Context, cfg *config.Config, log zerolog.Logger, cleanup *[]func()) marketdata.Provider {
	var sources []marketdata.Provider

	if cfg.DatabaseURL != "" {
		pool, err := marketdata.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Warn().Err(err).Msg("database unavailable, history mirror disabled")
		} else {
			*cleanup = append(*cleanup, pool.Close)
			sources = append(sources, marketdata.NewPostgresProvider(pool))
			log.Info().Msg("connected to PostgreSQL history mirror")
		}
	}
	sources = append(sources, marketdata.NewYahoo(cfg.YahooBaseURL, log))

	var p marketdata.Provider = marketdata.NewChain(log, sources...)
	p = marketdata.WithTimeout(p, cfg.ProviderTimeout, log)

	var cache marketdata.Cache = marketdata.NewMemoryCache()
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("invalid REDIS_URL")
		}
		rdb := redis.NewClient(opt)
		*cleanup = append(*cleanup, func() { rdb.Close() })
		cache = marketdata.NewRedisCache(rdb, "chronostox:", log)
		log.Info().Msg("Redis provider cache enabled")
	} else {
		log.Info().Msg("REDIS_URL not set, using in-memory provider cache")
	}
	return marketdata.NewCachedProvider(p, cache, marketdata.DefaultTTLs(), log)
}

func sweepSessions(ctx context.Context, sessions *session.Registry, every time.Duration) {
	if every < time.Minute {
		every = time.Minute
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sessions.Sweep()
		}
	}
}

func allowsAny(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return len(origins) == 0
}

// originChecker mirrors the CORS origin list for WebSocket upgrades.
func originChecker(origins []string) func(*http.Request) bool {
	if allowsAny(origins) {
		return nil
	}
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || allowed[origin]
	}
}

// requestLogger logs one line per request through zerolog.
func requestLogger(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			log.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Str("request_id", middleware.GetReqID(r.Context())).
				Msg("request")
		})
	}
}
