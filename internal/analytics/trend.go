package analytics

import (
	"fmt"
	"time"

	apperrors "brandlens/internal/errors"
	"brandlens/internal/models"
)

// ObservedPoint is one chronological (period, value) pair fed to the trend
// fit, typically taken from a monthly Summary.
type ObservedPoint struct {
	Period string
	Value  float64
}

// FitTrend fits an ordinary least squares line over the observed points
// (x is the 1-based period index) and extrapolates the requested number of
// future periods. Projections for inherently non-negative metrics are clamped
// to zero, with the clamp recorded as a caveat. Fewer than 2 observed points
// is an InsufficientData error.
func FitTrend(metric string, observed []ObservedPoint, periods int, clampNonNegative bool) (*models.Trend, error) {
	n := len(observed)
	if n < 2 {
		return nil, apperrors.InsufficientData(
			fmt.Sprintf("trend fit for %s needs at least 2 observed periods, got %d", metric, n))
	}

	var sumX, sumY, sumXY, sumXX float64
	for i, p := range observed {
		x := float64(i + 1)
		sumX += x
		sumY += p.Value
		sumXY += x * p.Value
		sumXX += x * x
	}

	fn := float64(n)
	slope := (fn*sumXY - sumX*sumY) / (fn*sumXX - sumX*sumX)
	intercept := (sumY - slope*sumX) / fn

	trend := &models.Trend{
		Metric:    metric,
		Slope:     slope,
		Intercept: intercept,
		Points:    make([]models.TrendPoint, 0, n+periods),
	}

	for _, p := range observed {
		trend.Points = append(trend.Points, models.TrendPoint{
			Period: p.Period,
			Value:  p.Value,
		})
	}

	clamped := false
	lastPeriod := observed[n-1].Period
	for k := 1; k <= periods; k++ {
		value := intercept + slope*float64(n+k)
		point := models.TrendPoint{
			Period:    nextPeriod(lastPeriod, k),
			Value:     value,
			Projected: true,
		}
		if clampNonNegative && value < 0 {
			point.Value = 0
			point.Clamped = true
			clamped = true
		}
		trend.Points = append(trend.Points, point)
	}

	if clamped {
		trend.Caveats = append(trend.Caveats,
			fmt.Sprintf("projected %s fell below zero and was clamped to zero", metric))
	}

	return trend, nil
}

// nextPeriod advances a month-shaped label ("2006-01") by k calendar months.
// Labels with any other shape fall back to a relative "t+k" form.
func nextPeriod(last string, k int) string {
	if t, err := time.Parse("2006-01", last); err == nil {
		return t.AddDate(0, k, 0).Format("2006-01")
	}
	return fmt.Sprintf("t+%d", k)
}

// SalesSeries, RatingSeries and PriceSeries project a chronological summary
// onto the three trendable metrics.

func SalesSeries(summary models.Summary) []ObservedPoint {
	points := make([]ObservedPoint, 0, len(summary.Groups))
	for _, g := range summary.Groups {
		points = append(points, ObservedPoint{Period: g.Key, Value: g.Sum})
	}
	return points
}

func RatingSeries(summary models.Summary) []ObservedPoint {
	points := make([]ObservedPoint, 0, len(summary.Groups))
	for _, g := range summary.Groups {
		points = append(points, ObservedPoint{Period: g.Key, Value: g.MeanRating})
	}
	return points
}

func PriceSeries(summary models.Summary) []ObservedPoint {
	points := make([]ObservedPoint, 0, len(summary.Groups))
	for _, g := range summary.Groups {
		points = append(points, ObservedPoint{Period: g.Key, Value: g.MeanPrice})
	}
	return points
}
