package server

import (
	"log/slog"
	"net/http"

	"brandlens/internal/dataset"
	"brandlens/internal/handlers"
	"brandlens/internal/report"
)

type Server struct {
	mux         *http.ServeMux
	logger      *slog.Logger
	apiHandlers *handlers.APIHandlers
	sseHandlers *handlers.SSEHandlers
}

type TemplateHandlers struct {
	Dashboard http.HandlerFunc
}

func NewServer(data *dataset.Cache, opts report.Options, logger *slog.Logger, templateHandlers *TemplateHandlers) *Server {
	s := &Server{
		mux:         http.NewServeMux(),
		logger:      logger,
		apiHandlers: handlers.NewAPIHandlers(data, opts, logger),
		sseHandlers: handlers.NewSSEHandlers(data, opts, logger),
	}
	s.setupRoutes(templateHandlers)
	return s
}

func (s *Server) setupRoutes(templateHandlers *TemplateHandlers) {
	// Dashboard routes
	s.mux.HandleFunc("GET /", templateHandlers.Dashboard)
	s.mux.HandleFunc("GET /health", s.apiHandlers.HandleHealth)
	s.mux.HandleFunc("GET /admin/stats", s.apiHandlers.HandleStats)

	// REST API endpoints
	s.mux.HandleFunc("GET /api/metrics", s.apiHandlers.HandleMetrics)
	s.mux.HandleFunc("GET /api/top-cities", s.apiHandlers.HandleTopCities)
	s.mux.HandleFunc("GET /api/monthly-sales", s.apiHandlers.HandleMonthlySales)
	s.mux.HandleFunc("GET /api/weekly-sales", s.apiHandlers.HandleWeeklySales)
	s.mux.HandleFunc("GET /api/weekday-sales", s.apiHandlers.HandleWeekdaySales)
	s.mux.HandleFunc("GET /api/seasonal-sales", s.apiHandlers.HandleSeasonalSales)
	s.mux.HandleFunc("GET /api/price-buckets", s.apiHandlers.HandlePriceBuckets)
	s.mux.HandleFunc("GET /api/discount-impact", s.apiHandlers.HandleDiscountImpact)
	s.mux.HandleFunc("GET /api/categories", s.apiHandlers.HandleCategories)
	s.mux.HandleFunc("GET /api/age-groups", s.apiHandlers.HandleAgeGroups)
	s.mux.HandleFunc("GET /api/forecast/{metric}", s.apiHandlers.HandleForecast)
	s.mux.HandleFunc("GET /api/report", s.apiHandlers.HandleReport)

	// Report downloads
	s.mux.HandleFunc("GET /report.txt", s.apiHandlers.HandleReportText)
	s.mux.HandleFunc("GET /report.csv", s.apiHandlers.HandleReportCSV)

	// Datastar SSE endpoints
	s.mux.HandleFunc("GET /sse/top-cities", s.sseHandlers.HandleTopCities)
	s.mux.HandleFunc("GET /sse/monthly-sales", s.sseHandlers.HandleMonthlySales)
	s.mux.HandleFunc("GET /sse/forecast", s.sseHandlers.HandleForecast)
	s.mux.HandleFunc("GET /sse/discount-impact", s.sseHandlers.HandleDiscountImpact)
	s.mux.HandleFunc("GET /sse/refresh-all", s.sseHandlers.HandleRefreshAll)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}
