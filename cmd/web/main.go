package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/CAFxX/httpcompression"

	"brandlens/internal/config"
	"brandlens/internal/dataset"
	"brandlens/internal/middleware"
	"brandlens/internal/observability"
	"brandlens/internal/report"
	"brandlens/internal/server"
	"brandlens/internal/ui/templates"
)

const (
	renderTimeout  = 10 * time.Second
	csvLoadTimeout = 30 * time.Second
	cacheMaxAge    = "public, max-age=300"
)

func dashboardHandler(brand string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), renderTimeout)
		defer cancel()

		w.Header().Set("Cache-Control", cacheMaxAge)
		if err := templates.Dashboard(brand).Render(ctx, w); err != nil {
			http.Error(w, "render error", http.StatusInternalServerError)
		}
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Logger)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"version", "1.0.0",
		"brand", cfg.Analysis.Brand,
		"csv_file", cfg.Data.CSVFile,
	)

	loader := dataset.NewLoader(cfg.Analysis.Brand, logger)
	data := dataset.NewCache(loader, cfg.Data.CSVFile, cfg.Data.CacheDir, logger)

	// Warm the cache so the first request does not pay the parse cost. A
	// brand with no rows is a valid (empty) state; only an unreadable or
	// malformed source is fatal here.
	ctx, cancel := context.WithTimeout(context.Background(), csvLoadTimeout)
	defer cancel()

	start := time.Now()
	ds, err := data.Get(ctx)
	if err != nil {
		logger.Error("failed to load dataset", "error", err)
		os.Exit(1)
	}
	logger.Info("dataset ready",
		"rows", len(ds.Rows),
		"empty", ds.Empty(),
		"duration", time.Since(start),
	)

	opts := report.Options{
		ForecastPeriods:  cfg.Analysis.ForecastPeriods,
		TopCities:        cfg.Analysis.TopCities,
		PriceBucketWidth: cfg.Analysis.PriceBucketWidth,
	}

	templateHandlers := &server.TemplateHandlers{
		Dashboard: dashboardHandler(cfg.Analysis.Brand),
	}

	srv := server.NewServer(data, opts, logger, templateHandlers)

	rateLimiter := middleware.NewRateLimiter(cfg.Security)

	middlewareChain := middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.Tracing(),
		middleware.SecurityHeaders(),
		middleware.CORS(cfg.Security),
		middleware.TrustedProxy(cfg.Security),
		middleware.RateLimit(rateLimiter, logger),
	)

	handler := middlewareChain(srv)

	compress, err := httpcompression.DefaultAdapter()
	if err != nil {
		logger.Error("failed to build compression adapter", "error", err)
		os.Exit(1)
	}
	handler = compress(handler)

	httpServer := &http.Server{
		Addr:         cfg.Address(),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	gracefulServer := server.NewGracefulServer(httpServer, logger, cfg)

	gracefulServer.RegisterShutdownHook(func(ctx context.Context) error {
		logger.Info("invalidating dataset cache")
		data.Invalidate()
		return nil
	})

	if err := gracefulServer.ListenAndServe(); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}

	logger.Info("application stopped gracefully")
}
