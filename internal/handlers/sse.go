package handlers

import (
	"encoding/json"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"brandlens/internal/analytics"
	"brandlens/internal/dataset"
	"brandlens/internal/models"
	"brandlens/internal/report"
	"github.com/starfederation/datastar-go/datastar"
)

var cityTableTemplate = template.Must(template.New("cityTable").Funcs(template.FuncMap{
	"pct": func(share float64) string { return fmt.Sprintf("%.1f%%", share*100) },
}).Parse(`
<div id="cities-content">
<table class="modern-table">
<thead><tr><th>City</th><th>Orders</th><th>Sales</th><th>Avg Rating</th><th>Share</th></tr></thead>
<tbody>
{{range .Groups}}<tr>
<td>{{.Key}}</td>
<td>{{.Count}}</td>
<td><strong>${{printf "%.2f" .Sum}}</strong></td>
<td>{{printf "%.2f" .MeanRating}}</td>
<td>{{pct .Share}}</td>
</tr>{{end}}
</tbody>
</table>
</div>`))

type SSEHandlers struct {
	data   *dataset.Cache
	opts   report.Options
	logger *slog.Logger
}

func NewSSEHandlers(data *dataset.Cache, opts report.Options, logger *slog.Logger) *SSEHandlers {
	return &SSEHandlers{
		data:   data,
		opts:   opts,
		logger: logger,
	}
}

func (h *SSEHandlers) renderCityTable(summary models.Summary) (string, error) {
	var buf strings.Builder
	err := cityTableTemplate.Execute(&buf, summary)
	return buf.String(), err
}

func (h *SSEHandlers) HandleTopCities(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	ds, err := h.data.Get(r.Context())
	if err != nil {
		h.logger.Error("load dataset", "error", err)
		sse.PatchElements(`<div id="cities-content">⚠️ Data unavailable</div>`)
		return
	}

	summary := analytics.Top(analytics.GroupBy(ds, analytics.ByCity()), h.opts.TopCities)
	if len(summary.Groups) == 0 {
		sse.PatchElements(`<div id="cities-content">No data for this brand</div>`)
		return
	}

	html, err := h.renderCityTable(summary)
	if err != nil {
		h.logger.Error("render city table", "error", err)
		return
	}

	sse.PatchElements(html)

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

func (h *SSEHandlers) HandleMonthlySales(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	ds, err := h.data.Get(r.Context())
	if err != nil {
		h.logger.Error("load dataset", "error", err)
		return
	}

	monthly := analytics.GroupBy(ds, analytics.ByMonth())
	jsonData, err := json.Marshal(map[string]any{
		"monthlyData": monthly.Groups,
	})
	if err != nil {
		h.logger.Error("marshal monthly data", "error", err)
		return
	}
	sse.PatchSignals(jsonData)

	sse.PatchElements(`<div id="monthly-content">✅ Monthly sales chart data loaded</div>`)

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

func (h *SSEHandlers) HandleForecast(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	ds, err := h.data.Get(r.Context())
	if err != nil {
		h.logger.Error("load dataset", "error", err)
		return
	}

	monthly := analytics.GroupBy(ds, analytics.ByMonth())
	trend, err := analytics.FitTrend("sales", analytics.SalesSeries(monthly), h.opts.ForecastPeriods, true)
	if err != nil {
		sse.PatchElements(`<div id="forecast-content">Not enough history to forecast</div>`)
		return
	}

	jsonData, err := json.Marshal(map[string]any{
		"forecastData": trend.Points,
	})
	if err != nil {
		h.logger.Error("marshal forecast data", "error", err)
		return
	}
	sse.PatchSignals(jsonData)
	sse.PatchElements(`<div id="forecast-content">✅ Sales forecast loaded</div>`)

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

func (h *SSEHandlers) HandleDiscountImpact(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	ds, err := h.data.Get(r.Context())
	if err != nil {
		h.logger.Error("load dataset", "error", err)
		return
	}

	summary := analytics.GroupBy(ds, analytics.ByDiscount())
	jsonData, err := json.Marshal(map[string]any{
		"discountData": summary.Groups,
	})
	if err != nil {
		h.logger.Error("marshal discount data", "error", err)
		return
	}
	sse.PatchSignals(jsonData)
	sse.PatchElements(`<div id="discount-content">✅ Discount impact data loaded</div>`)

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

func (h *SSEHandlers) HandleRefreshAll(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	ds, err := h.data.Get(r.Context())
	if err != nil {
		h.logger.Error("load dataset", "error", err)
		sse.PatchElements(`<div id="cities-content">⚠️ Data unavailable</div>`)
		return
	}

	cities := analytics.Top(analytics.GroupBy(ds, analytics.ByCity()), h.opts.TopCities)
	html, err := h.renderCityTable(cities)
	if err != nil {
		h.logger.Error("render city table", "error", err)
		return
	}
	sse.PatchElements(html)

	monthly := analytics.GroupBy(ds, analytics.ByMonth())
	discount := analytics.GroupBy(ds, analytics.ByDiscount())

	signals := map[string]any{
		"monthlyData":  monthly.Groups,
		"discountData": discount.Groups,
	}
	if trend, err := analytics.FitTrend("sales", analytics.SalesSeries(monthly), h.opts.ForecastPeriods, true); err == nil {
		signals["forecastData"] = trend.Points
	}

	allSignals, err := json.Marshal(signals)
	if err != nil {
		h.logger.Error("marshal refresh signals", "error", err)
		return
	}
	sse.PatchSignals(allSignals)

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}
