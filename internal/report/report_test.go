package report

import (
	"bytes"
	"context"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"brandlens/internal/dataset"
	"brandlens/internal/models"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func multiMonthDataset() *dataset.Dataset {
	rows := []models.Transaction{
		{Brand: "Apple", PurchaseDate: day(2023, 1, 15), PurchaseAmount: 1000, MarketPrice: 1100, Rating: 4.5, City: "Dallas", DiscountApplied: true, ProductCategory: "Phones"},
		{Brand: "Apple", PurchaseDate: day(2023, 2, 10), PurchaseAmount: 500, MarketPrice: 600, Rating: 4.0, City: "Austin", DiscountApplied: false, ProductCategory: "Tablets"},
		{Brand: "Apple", PurchaseDate: day(2023, 3, 5), PurchaseAmount: 750, MarketPrice: 800, Rating: 3.5, City: "Dallas", DiscountApplied: false, ProductCategory: "Phones"},
	}
	return &dataset.Dataset{Brand: "Apple", Rows: rows, TotalValidRows: 9}
}

func TestAssemble_PartialFailureIsolation(t *testing.T) {
	// No row carries an Age_Group value, so only that slot degrades.
	ds := multiMonthDataset()

	r := Assemble(context.Background(), ds, Options{})

	ageSlot := r.Slot("age_groups")
	if ageSlot == nil {
		t.Fatal("age_groups slot missing from report")
	}
	if !ageSlot.Unavailable {
		t.Error("age_groups slot should be unavailable when the column is absent")
	}
	if !strings.Contains(ageSlot.Reason, "Age_Group") {
		t.Errorf("reason should name the missing column, got %q", ageSlot.Reason)
	}

	citySlot := r.Slot("top_cities")
	if citySlot == nil || citySlot.Unavailable || citySlot.Summary == nil {
		t.Error("top_cities slot should be populated normally")
	}
	catSlot := r.Slot("categories")
	if catSlot == nil || catSlot.Unavailable || catSlot.Summary == nil {
		t.Error("categories slot should be populated normally")
	}
}

func TestAssemble_EmptyDataset(t *testing.T) {
	ds := &dataset.Dataset{Brand: "Apple", TotalValidRows: 9}

	r := Assemble(context.Background(), ds, Options{})

	if len(r.Slots) == 0 {
		t.Fatal("empty dataset must still produce a report with slots")
	}
	for _, slot := range r.Slots {
		if !slot.Unavailable {
			t.Errorf("slot %q should be unavailable for an empty dataset", slot.Name)
		}
		if !strings.Contains(slot.Reason, "Apple") {
			t.Errorf("slot %q reason should name the brand, got %q", slot.Name, slot.Reason)
		}
	}

	if r.Metrics.Transactions != 0 {
		t.Errorf("metrics should be zeroed, got %+v", r.Metrics)
	}
}

func TestAssemble_ForecastSlots(t *testing.T) {
	ds := multiMonthDataset()

	r := Assemble(context.Background(), ds, Options{ForecastPeriods: 4})

	for _, name := range []string{"monthly_sales", "monthly_ratings", "price_elasticity"} {
		slot := r.Slot(name)
		if slot == nil {
			t.Fatalf("slot %q missing", name)
		}
		if slot.Unavailable {
			t.Fatalf("slot %q unexpectedly unavailable: %s", name, slot.Reason)
		}
		if slot.Trend == nil {
			t.Fatalf("slot %q should carry a trend", name)
		}

		projected := 0
		for _, p := range slot.Trend.Points {
			if p.Projected {
				projected++
			}
		}
		if projected != 4 {
			t.Errorf("slot %q: %d projected periods, want 4", name, projected)
		}
	}
}

func TestAssemble_TrendDegradesToSummaryOnShortHistory(t *testing.T) {
	ds := &dataset.Dataset{
		Brand: "Apple",
		Rows: []models.Transaction{
			{Brand: "Apple", PurchaseDate: day(2023, 1, 15), PurchaseAmount: 100, MarketPrice: 120, Rating: 4, City: "Dallas"},
		},
		TotalValidRows: 1,
	}

	r := Assemble(context.Background(), ds, Options{})

	slot := r.Slot("monthly_sales")
	if slot == nil {
		t.Fatal("monthly_sales slot missing")
	}
	if slot.Unavailable {
		t.Error("single observed month keeps the summary; only the forecast degrades")
	}
	if slot.Summary == nil {
		t.Error("observed summary should be kept")
	}
	if slot.Trend != nil {
		t.Error("trend must be absent with one observed month")
	}
	if slot.Reason == "" {
		t.Error("degraded forecast should carry a reason")
	}
}

func TestReport_WriteText(t *testing.T) {
	ds := multiMonthDataset()
	r := Assemble(context.Background(), ds, Options{ForecastPeriods: 2})

	var buf bytes.Buffer
	if err := r.WriteText(&buf); err != nil {
		t.Fatal(err)
	}
	out := buf.String()

	if !strings.Contains(out, "APPLE MARKET ANALYSIS REPORT") {
		t.Error("text report should open with the brand header")
	}
	if !strings.Contains(out, "TOP 10 CITIES BY SALES") {
		t.Error("text report should contain slot section headers")
	}
	if !strings.Contains(out, "(projected)") {
		t.Error("projected trend periods must be marked in the text report")
	}
	if !strings.Contains(out, "unavailable: source has no Age_Group column") {
		t.Error("unavailable slots must be rendered with their reason")
	}
	if !strings.Contains(out, "slope=") {
		t.Error("trend parameters should be printed")
	}
}

func TestReport_WriteCSV(t *testing.T) {
	ds := multiMonthDataset()
	r := Assemble(context.Background(), ds, Options{ForecastPeriods: 2})

	var buf bytes.Buffer
	if err := r.WriteCSV(&buf); err != nil {
		t.Fatal(err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("report CSV should parse cleanly: %v", err)
	}
	if len(records) < 2 {
		t.Fatal("report CSV should have a header and data rows")
	}

	if records[0][0] != "slot" || records[0][1] != "kind" {
		t.Errorf("unexpected CSV header: %v", records[0])
	}

	kinds := map[string]bool{}
	for _, rec := range records[1:] {
		kinds[rec[1]] = true
	}
	for _, want := range []string{"group", "trend", "unavailable"} {
		if !kinds[want] {
			t.Errorf("CSV should contain %q rows", want)
		}
	}
}
