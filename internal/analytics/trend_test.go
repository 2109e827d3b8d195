package analytics

import (
	"math"
	"testing"

	apperrors "brandlens/internal/errors"
	"brandlens/internal/models"
)

func TestFitTrend_LinearSeries(t *testing.T) {
	observed := []ObservedPoint{
		{Period: "2023-01", Value: 100},
		{Period: "2023-02", Value: 200},
		{Period: "2023-03", Value: 300},
	}

	trend, err := FitTrend("sales", observed, 2, true)
	if err != nil {
		t.Fatalf("FitTrend() error: %v", err)
	}

	if math.Abs(trend.Slope-100) > floatTolerance {
		t.Errorf("slope = %g, want 100", trend.Slope)
	}
	if math.Abs(trend.Intercept) > floatTolerance {
		t.Errorf("intercept = %g, want 0", trend.Intercept)
	}

	if len(trend.Points) != 5 {
		t.Fatalf("expected 3 observed + 2 projected points, got %d", len(trend.Points))
	}

	wantProjected := []struct {
		period string
		value  float64
	}{
		{"2023-04", 400},
		{"2023-05", 500},
	}
	for i, want := range wantProjected {
		p := trend.Points[3+i]
		if !p.Projected {
			t.Errorf("point %s should be flagged projected", p.Period)
		}
		if p.Period != want.period {
			t.Errorf("projected period = %q, want %q", p.Period, want.period)
		}
		if math.Abs(p.Value-want.value) > floatTolerance {
			t.Errorf("projected value for %s = %g, want %g", want.period, p.Value, want.value)
		}
	}

	for _, p := range trend.Points[:3] {
		if p.Projected {
			t.Errorf("observed point %s must not be flagged projected", p.Period)
		}
	}
}

func TestFitTrend_InsufficientData(t *testing.T) {
	tests := []struct {
		name     string
		observed []ObservedPoint
	}{
		{name: "no points", observed: nil},
		{name: "one point", observed: []ObservedPoint{{Period: "2023-01", Value: 100}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FitTrend("sales", tt.observed, 3, true)
			if err == nil {
				t.Fatal("FitTrend() should fail with fewer than 2 observed periods")
			}
			if !apperrors.IsCode(err, apperrors.CodeInsufficientData) {
				t.Errorf("expected INSUFFICIENT_DATA, got %v", err)
			}
		})
	}
}

func TestFitTrend_ClampsNegativeProjections(t *testing.T) {
	observed := []ObservedPoint{
		{Period: "2023-01", Value: 200},
		{Period: "2023-02", Value: 100},
	}

	trend, err := FitTrend("sales", observed, 3, true)
	if err != nil {
		t.Fatalf("FitTrend() error: %v", err)
	}

	var clamped []models.TrendPoint
	for _, p := range trend.Points {
		if p.Clamped {
			clamped = append(clamped, p)
		}
	}

	if len(clamped) == 0 {
		t.Fatal("a steeply declining series must produce clamped projections")
	}
	for _, p := range clamped {
		if p.Value != 0 {
			t.Errorf("clamped value for %s = %g, want 0", p.Period, p.Value)
		}
		if !p.Projected {
			t.Errorf("clamped point %s must be projected", p.Period)
		}
	}
	if len(trend.Caveats) == 0 {
		t.Error("clamping must be recorded as a caveat")
	}
}

func TestFitTrend_NoClampWhenDisabled(t *testing.T) {
	observed := []ObservedPoint{
		{Period: "2023-01", Value: 200},
		{Period: "2023-02", Value: 100},
	}

	trend, err := FitTrend("delta", observed, 3, false)
	if err != nil {
		t.Fatalf("FitTrend() error: %v", err)
	}

	last := trend.Points[len(trend.Points)-1]
	if last.Value >= 0 {
		t.Errorf("without clamping the projection should go negative, got %g", last.Value)
	}
	if last.Clamped {
		t.Error("point must not be marked clamped when clamping is disabled")
	}
}

func TestFitTrend_PeriodLabels(t *testing.T) {
	t.Run("month labels roll over the year", func(t *testing.T) {
		observed := []ObservedPoint{
			{Period: "2023-11", Value: 10},
			{Period: "2023-12", Value: 20},
		}

		trend, err := FitTrend("sales", observed, 2, true)
		if err != nil {
			t.Fatal(err)
		}

		if got := trend.Points[2].Period; got != "2024-01" {
			t.Errorf("first projected period = %q, want 2024-01", got)
		}
		if got := trend.Points[3].Period; got != "2024-02" {
			t.Errorf("second projected period = %q, want 2024-02", got)
		}
	})

	t.Run("non-month labels fall back to relative form", func(t *testing.T) {
		observed := []ObservedPoint{
			{Period: "Q1", Value: 10},
			{Period: "Q2", Value: 20},
		}

		trend, err := FitTrend("sales", observed, 1, true)
		if err != nil {
			t.Fatal(err)
		}

		if got := trend.Points[2].Period; got != "t+1" {
			t.Errorf("projected period = %q, want t+1", got)
		}
	})
}

func TestSeriesProjections(t *testing.T) {
	summary := models.Summary{
		Dimension: "month",
		Groups: []models.Group{
			{Key: "2023-01", Sum: 100, MeanRating: 4.0, MeanPrice: 900},
			{Key: "2023-02", Sum: 200, MeanRating: 4.5, MeanPrice: 950},
		},
	}

	sales := SalesSeries(summary)
	if sales[1].Value != 200 {
		t.Errorf("sales series should use group sums, got %g", sales[1].Value)
	}
	ratings := RatingSeries(summary)
	if ratings[1].Value != 4.5 {
		t.Errorf("rating series should use mean ratings, got %g", ratings[1].Value)
	}
	prices := PriceSeries(summary)
	if prices[1].Value != 950 {
		t.Errorf("price series should use mean prices, got %g", prices[1].Value)
	}
}
