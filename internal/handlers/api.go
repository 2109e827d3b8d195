package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"brandlens/internal/analytics"
	"brandlens/internal/dataset"
	"brandlens/internal/errors"
	"brandlens/internal/models"
	"brandlens/internal/observability"
	"brandlens/internal/report"
)

var cacheHeaders = map[string]string{
	"Cache-Control": "public, max-age=300",
}

type APIHandlers struct {
	data   *dataset.Cache
	opts   report.Options
	logger *slog.Logger
}

func NewAPIHandlers(data *dataset.Cache, opts report.Options, logger *slog.Logger) *APIHandlers {
	return &APIHandlers{
		data:   data,
		opts:   opts,
		logger: logger,
	}
}

// dataset fetches the cached dataset, writing the DataUnavailable response
// itself on failure.
func (h *APIHandlers) dataset(w http.ResponseWriter, r *http.Request) (*dataset.Dataset, bool) {
	ds, err := h.data.Get(r.Context())
	if err != nil {
		errors.WriteError(w, h.logger, err, observability.GetRequestID(r.Context()))
		return nil, false
	}
	return ds, true
}

func (h *APIHandlers) writeSummary(w http.ResponseWriter, summary models.Summary) {
	errors.WriteSuccessWithHeaders(w, summary, cacheHeaders)
}

func (h *APIHandlers) HandleTopCities(w http.ResponseWriter, r *http.Request) {
	ds, ok := h.dataset(w, r)
	if !ok {
		return
	}
	h.writeSummary(w, analytics.Top(analytics.GroupBy(ds, analytics.ByCity()), h.opts.TopCities))
}

func (h *APIHandlers) HandleMonthlySales(w http.ResponseWriter, r *http.Request) {
	ds, ok := h.dataset(w, r)
	if !ok {
		return
	}
	h.writeSummary(w, analytics.GroupBy(ds, analytics.ByMonth()))
}

func (h *APIHandlers) HandleWeeklySales(w http.ResponseWriter, r *http.Request) {
	ds, ok := h.dataset(w, r)
	if !ok {
		return
	}
	h.writeSummary(w, analytics.GroupBy(ds, analytics.ByWeek()))
}

func (h *APIHandlers) HandleWeekdaySales(w http.ResponseWriter, r *http.Request) {
	ds, ok := h.dataset(w, r)
	if !ok {
		return
	}
	h.writeSummary(w, analytics.GroupBy(ds, analytics.ByWeekday()))
}

func (h *APIHandlers) HandleSeasonalSales(w http.ResponseWriter, r *http.Request) {
	ds, ok := h.dataset(w, r)
	if !ok {
		return
	}
	h.writeSummary(w, analytics.GroupBy(ds, analytics.BySeason()))
}

func (h *APIHandlers) HandlePriceBuckets(w http.ResponseWriter, r *http.Request) {
	ds, ok := h.dataset(w, r)
	if !ok {
		return
	}
	h.writeSummary(w, analytics.GroupBy(ds, analytics.ByPriceBucket(h.opts.PriceBucketWidth)))
}

func (h *APIHandlers) HandleDiscountImpact(w http.ResponseWriter, r *http.Request) {
	ds, ok := h.dataset(w, r)
	if !ok {
		return
	}
	h.writeSummary(w, analytics.GroupBy(ds, analytics.ByDiscount()))
}

func (h *APIHandlers) HandleCategories(w http.ResponseWriter, r *http.Request) {
	h.handleOptionalDimension(w, r, analytics.ByCategory(), "Product_Category")
}

func (h *APIHandlers) HandleAgeGroups(w http.ResponseWriter, r *http.Request) {
	h.handleOptionalDimension(w, r, analytics.ByAgeGroup(), "Age_Group")
}

func (h *APIHandlers) handleOptionalDimension(w http.ResponseWriter, r *http.Request, dim analytics.Dimension, column string) {
	ds, ok := h.dataset(w, r)
	if !ok {
		return
	}
	summary := analytics.GroupBy(ds, dim)
	if analytics.AllUnknown(summary) {
		err := errors.SlotUnavailable("source has no " + column + " column")
		errors.WriteError(w, h.logger, err, observability.GetRequestID(r.Context()))
		return
	}
	h.writeSummary(w, summary)
}

func (h *APIHandlers) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	ds, ok := h.dataset(w, r)
	if !ok {
		return
	}
	errors.WriteSuccessWithHeaders(w, analytics.KeyMetrics(ds), cacheHeaders)
}

// HandleForecast serves /api/forecast/{metric} for sales, ratings and price.
func (h *APIHandlers) HandleForecast(w http.ResponseWriter, r *http.Request) {
	ds, ok := h.dataset(w, r)
	if !ok {
		return
	}

	monthly := analytics.GroupBy(ds, analytics.ByMonth())

	var series []analytics.ObservedPoint
	metric := r.PathValue("metric")
	switch metric {
	case "sales":
		series = analytics.SalesSeries(monthly)
	case "ratings":
		series = analytics.RatingSeries(monthly)
	case "price":
		series = analytics.PriceSeries(monthly)
	default:
		err := errors.BadRequest("unknown forecast metric " + metric)
		errors.WriteError(w, h.logger, err, observability.GetRequestID(r.Context()))
		return
	}

	trend, err := analytics.FitTrend(metric, series, h.opts.ForecastPeriods, true)
	if err != nil {
		errors.WriteError(w, h.logger, err, observability.GetRequestID(r.Context()))
		return
	}

	errors.WriteSuccessWithHeaders(w, trend, cacheHeaders)
}

func (h *APIHandlers) HandleReport(w http.ResponseWriter, r *http.Request) {
	ds, ok := h.dataset(w, r)
	if !ok {
		return
	}
	errors.WriteSuccessWithHeaders(w, report.Assemble(r.Context(), ds, h.opts), cacheHeaders)
}

func (h *APIHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	healthData := map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   "1.0.0",
	}

	errors.WriteSuccess(w, healthData)
}

func (h *APIHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	ds, ok := h.dataset(w, r)
	if !ok {
		return
	}

	errors.WriteSuccess(w, map[string]any{
		"brand":            ds.Brand,
		"rows":             len(ds.Rows),
		"total_valid_rows": ds.TotalValidRows,
		"dropped_rows":     ds.Dropped.Total(),
		"loaded_at":        ds.LoadedAt,
	})
}
