// Package report assembles the per-dimension summaries and trend fits into
// one request-scoped document that the dashboard renders and offers for
// download. Assembly is a pure composition: a slot that cannot be built is
// marked unavailable and the rest of the report still populates.
package report

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"brandlens/internal/analytics"
	"brandlens/internal/dataset"
	apperrors "brandlens/internal/errors"
	"brandlens/internal/models"
	"brandlens/internal/observability"
)

// Options selects what the assembler computes. Zero values fall back to the
// dashboard defaults.
type Options struct {
	ForecastPeriods  int
	TopCities        int
	PriceBucketWidth float64
}

func (o Options) withDefaults() Options {
	if o.ForecastPeriods < 1 {
		o.ForecastPeriods = 6
	}
	if o.TopCities < 1 {
		o.TopCities = 10
	}
	if o.PriceBucketWidth <= 0 {
		o.PriceBucketWidth = 250
	}
	return o
}

// Slot is one named section of a Report.
type Slot struct {
	Name        string          `json:"name"`
	Title       string          `json:"title"`
	Summary     *models.Summary `json:"summary,omitempty"`
	Trend       *models.Trend   `json:"trend,omitempty"`
	Unavailable bool            `json:"unavailable,omitempty"`
	Reason      string          `json:"reason,omitempty"`
}

// Report is the assembled analysis for one presentation session. It is built
// fresh per request and never persisted.
type Report struct {
	Brand       string            `json:"brand"`
	GeneratedAt time.Time         `json:"generated_at"`
	Metrics     models.KeyMetrics `json:"metrics"`
	Slots       []Slot            `json:"slots"`
}

// Slot lookup by name; nil when absent.
func (r *Report) Slot(name string) *Slot {
	for i := range r.Slots {
		if r.Slots[i].Name == name {
			return &r.Slots[i]
		}
	}
	return nil
}

// Assemble builds the full report for one dataset. Slots fail independently:
// an absent optional column or a trend without enough history marks only its
// own slot.
func Assemble(ctx context.Context, ds *dataset.Dataset, opts Options) *Report {
	_, span := observability.StartSpan(ctx, "report.assemble")
	defer span.Finish()

	opts = opts.withDefaults()

	r := &Report{
		Brand:       ds.Brand,
		GeneratedAt: time.Now().UTC(),
		Metrics:     analytics.KeyMetrics(ds),
	}

	monthly := analytics.GroupBy(ds, analytics.ByMonth())

	r.Slots = []Slot{
		summarySlot(ds, "top_cities", fmt.Sprintf("Top %d Cities by Sales", opts.TopCities),
			analytics.Top(analytics.GroupBy(ds, analytics.ByCity()), opts.TopCities)),
		trendSlot(ds, "monthly_sales", "Monthly Sales Trend",
			monthly, analytics.SalesSeries(monthly), "sales", opts.ForecastPeriods, true),
		trendSlot(ds, "monthly_ratings", "Monthly Rating Trend",
			monthly, analytics.RatingSeries(monthly), "rating", opts.ForecastPeriods, true),
		trendSlot(ds, "price_elasticity", "Monthly Average Price Trend",
			monthly, analytics.PriceSeries(monthly), "price", opts.ForecastPeriods, true),
		summarySlot(ds, "weekly_sales", "Weekly Sales",
			analytics.GroupBy(ds, analytics.ByWeek())),
		summarySlot(ds, "weekday_sales", "Sales by Weekday",
			analytics.GroupBy(ds, analytics.ByWeekday())),
		summarySlot(ds, "seasonal_sales", "Seasonal Sales Spikes",
			analytics.GroupBy(ds, analytics.BySeason())),
		summarySlot(ds, "price_buckets", "Sales by Price Band",
			analytics.GroupBy(ds, analytics.ByPriceBucket(opts.PriceBucketWidth))),
		summarySlot(ds, "discount_impact", "Discount Impact",
			analytics.GroupBy(ds, analytics.ByDiscount())),
		optionalSlot(ds, "categories", "Sales by Product Category",
			analytics.GroupBy(ds, analytics.ByCategory()), "Product_Category"),
		optionalSlot(ds, "age_groups", "Sales by Age Group",
			analytics.GroupBy(ds, analytics.ByAgeGroup()), "Age_Group"),
	}

	span.SetTag("slots", strconv.Itoa(len(r.Slots)))
	return r
}

func summarySlot(ds *dataset.Dataset, name, title string, summary models.Summary) Slot {
	if ds.Empty() {
		return unavailableSlot(ds, name, title)
	}
	return Slot{Name: name, Title: title, Summary: &summary}
}

// optionalSlot is a summarySlot over a dimension backed by an optional source
// column: when every row grouped as unknown, the column is absent and the
// slot is unavailable rather than a single meaningless "unknown" row.
func optionalSlot(ds *dataset.Dataset, name, title string, summary models.Summary, column string) Slot {
	if ds.Empty() {
		return unavailableSlot(ds, name, title)
	}
	if analytics.AllUnknown(summary) {
		return Slot{
			Name:        name,
			Title:       title,
			Unavailable: true,
			Reason:      fmt.Sprintf("source has no %s column", column),
		}
	}
	return Slot{Name: name, Title: title, Summary: &summary}
}

func trendSlot(ds *dataset.Dataset, name, title string, summary models.Summary,
	series []analytics.ObservedPoint, metric string, periods int, clampNonNegative bool) Slot {

	if ds.Empty() {
		return unavailableSlot(ds, name, title)
	}

	slot := Slot{Name: name, Title: title, Summary: &summary}

	trend, err := analytics.FitTrend(metric, series, periods, clampNonNegative)
	if err != nil {
		// Keep the observed summary; only the projection is missing.
		if apperrors.IsCode(err, apperrors.CodeInsufficientData) {
			slot.Reason = err.Error()
			return slot
		}
		slot.Unavailable = true
		slot.Reason = err.Error()
		slot.Summary = nil
		return slot
	}

	slot.Trend = trend
	return slot
}

func unavailableSlot(ds *dataset.Dataset, name, title string) Slot {
	return Slot{
		Name:        name,
		Title:       title,
		Unavailable: true,
		Reason:      fmt.Sprintf("no transactions matched brand %s", ds.Brand),
	}
}
