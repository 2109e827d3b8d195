package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"brandlens/internal/dataset"
	"brandlens/internal/report"
)

const testHeader = "Brand,Purchase_Date,Purchase_Amount,Market_Price,Rating,City,Discount_Applied,Product_Category,Age_Group"

const multiMonthCSV = testHeader + `
Apple,2023-01-15,1000.00,1100.00,4.5,Dallas,true,Phones,26-35
Apple,2023-02-10,500.00,600.00,4.0,Austin,false,Tablets,18-25
Apple,2023-03-05,750.00,800.00,3.5,Dallas,false,Phones,26-35
Samsung,2023-01-20,499.00,549.00,4.2,Dallas,false,Phones,36-45`

func newTestCache(t *testing.T, csvContent string) *dataset.Cache {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.csv")
	if err := os.WriteFile(path, []byte(csvContent), 0644); err != nil {
		t.Fatal(err)
	}
	loader := dataset.NewLoader("Apple", nil)
	return dataset.NewCache(loader, path, "", nil)
}

func newTestAPIHandlers(t *testing.T, csvContent string) *APIHandlers {
	t.Helper()
	opts := report.Options{ForecastPeriods: 3, TopCities: 10, PriceBucketWidth: 250}
	return NewAPIHandlers(newTestCache(t, csvContent), opts, slog.Default())
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var response map[string]any
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode JSON: %v", err)
	}
	return response
}

func TestAPIHandlers_HandleTopCities(t *testing.T) {
	handlers := newTestAPIHandlers(t, multiMonthCSV)

	req := httptest.NewRequest(http.MethodGet, "/api/top-cities", nil)
	w := httptest.NewRecorder()

	handlers.HandleTopCities(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected content-type 'application/json', got %q", ct)
	}
	if cc := w.Header().Get("Cache-Control"); cc != "public, max-age=300" {
		t.Errorf("expected cache-control 'public, max-age=300', got %q", cc)
	}

	response := decodeEnvelope(t, w)
	if success, ok := response["success"].(bool); !ok || !success {
		t.Error("expected success=true in response")
	}

	data, ok := response["data"].(map[string]any)
	if !ok {
		t.Fatal("expected summary object in data field")
	}
	groups, ok := data["groups"].([]any)
	if !ok || len(groups) == 0 {
		t.Fatal("expected non-empty groups in summary")
	}

	first, _ := groups[0].(map[string]any)
	if first["key"] != "Dallas" {
		t.Errorf("expected Dallas as top city, got %v", first["key"])
	}
}

func TestAPIHandlers_HandleMonthlySales_Chronological(t *testing.T) {
	handlers := newTestAPIHandlers(t, multiMonthCSV)

	req := httptest.NewRequest(http.MethodGet, "/api/monthly-sales", nil)
	w := httptest.NewRecorder()

	handlers.HandleMonthlySales(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	response := decodeEnvelope(t, w)
	data := response["data"].(map[string]any)
	groups := data["groups"].([]any)

	want := []string{"2023-01", "2023-02", "2023-03"}
	if len(groups) != len(want) {
		t.Fatalf("expected %d months, got %d", len(want), len(groups))
	}
	for i, key := range want {
		g := groups[i].(map[string]any)
		if g["key"] != key {
			t.Errorf("month %d: got %v, want %s", i, g["key"], key)
		}
	}
}

func TestAPIHandlers_HandleForecast(t *testing.T) {
	handlers := newTestAPIHandlers(t, multiMonthCSV)

	req := httptest.NewRequest(http.MethodGet, "/api/forecast/sales", nil)
	req.SetPathValue("metric", "sales")
	w := httptest.NewRecorder()

	handlers.HandleForecast(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}

	response := decodeEnvelope(t, w)
	data := response["data"].(map[string]any)

	if _, ok := data["slope"]; !ok {
		t.Error("forecast response should carry fit parameters")
	}
	points, ok := data["points"].([]any)
	if !ok {
		t.Fatal("forecast response should carry trend points")
	}
	// 3 observed months + 3 projected periods.
	if len(points) != 6 {
		t.Errorf("expected 6 trend points, got %d", len(points))
	}
}

func TestAPIHandlers_HandleForecast_InsufficientData(t *testing.T) {
	singleMonth := testHeader + `
Apple,2023-01-15,1000.00,1100.00,4.5,Dallas,true,Phones,26-35`
	handlers := newTestAPIHandlers(t, singleMonth)

	req := httptest.NewRequest(http.MethodGet, "/api/forecast/sales", nil)
	req.SetPathValue("metric", "sales")
	w := httptest.NewRecorder()

	handlers.HandleForecast(w, req)

	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected status %d, got %d", http.StatusUnprocessableEntity, w.Code)
	}

	response := decodeEnvelope(t, w)
	errObj, ok := response["error"].(map[string]any)
	if !ok {
		t.Fatal("expected error object in response")
	}
	if errObj["code"] != "INSUFFICIENT_DATA" {
		t.Errorf("expected INSUFFICIENT_DATA, got %v", errObj["code"])
	}
}

func TestAPIHandlers_HandleForecast_UnknownMetric(t *testing.T) {
	handlers := newTestAPIHandlers(t, multiMonthCSV)

	req := httptest.NewRequest(http.MethodGet, "/api/forecast/margin", nil)
	req.SetPathValue("metric", "margin")
	w := httptest.NewRecorder()

	handlers.HandleForecast(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
}

func TestAPIHandlers_HandleCategories_MissingColumn(t *testing.T) {
	noCategory := `Brand,Purchase_Date,Purchase_Amount,Market_Price,Rating,City,Discount_Applied
Apple,2023-01-15,1000.00,1100.00,4.5,Dallas,true`
	handlers := newTestAPIHandlers(t, noCategory)

	req := httptest.NewRequest(http.MethodGet, "/api/categories", nil)
	w := httptest.NewRecorder()

	handlers.HandleCategories(w, req)

	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected status %d, got %d", http.StatusUnprocessableEntity, w.Code)
	}

	response := decodeEnvelope(t, w)
	errObj := response["error"].(map[string]any)
	if errObj["code"] != "SLOT_UNAVAILABLE" {
		t.Errorf("expected SLOT_UNAVAILABLE, got %v", errObj["code"])
	}
}

func TestAPIHandlers_DataUnavailable(t *testing.T) {
	loader := dataset.NewLoader("Apple", nil)
	cache := dataset.NewCache(loader, filepath.Join(t.TempDir(), "missing.csv"), "", nil)
	handlers := NewAPIHandlers(cache, report.Options{}, slog.Default())

	req := httptest.NewRequest(http.MethodGet, "/api/top-cities", nil)
	w := httptest.NewRecorder()

	handlers.HandleTopCities(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status %d, got %d", http.StatusServiceUnavailable, w.Code)
	}

	response := decodeEnvelope(t, w)
	errObj := response["error"].(map[string]any)
	if errObj["code"] != "DATA_UNAVAILABLE" {
		t.Errorf("expected DATA_UNAVAILABLE, got %v", errObj["code"])
	}
}

func TestAPIHandlers_HandleReport(t *testing.T) {
	handlers := newTestAPIHandlers(t, multiMonthCSV)

	req := httptest.NewRequest(http.MethodGet, "/api/report", nil)
	w := httptest.NewRecorder()

	handlers.HandleReport(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	response := decodeEnvelope(t, w)
	data := response["data"].(map[string]any)

	slots, ok := data["slots"].([]any)
	if !ok || len(slots) == 0 {
		t.Fatal("report should contain slots")
	}
	if data["brand"] != "Apple" {
		t.Errorf("report brand = %v, want Apple", data["brand"])
	}
}

func TestAPIHandlers_HandleHealth(t *testing.T) {
	handlers := newTestAPIHandlers(t, multiMonthCSV)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	handlers.HandleHealth(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	response := decodeEnvelope(t, w)
	data := response["data"].(map[string]any)
	if data["status"] != "healthy" {
		t.Errorf("expected healthy status, got %v", data["status"])
	}
}

func TestAPIHandlers_HandleStats(t *testing.T) {
	handlers := newTestAPIHandlers(t, multiMonthCSV)

	req := httptest.NewRequest(http.MethodGet, "/admin/stats", nil)
	w := httptest.NewRecorder()

	handlers.HandleStats(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	response := decodeEnvelope(t, w)
	data := response["data"].(map[string]any)
	if data["rows"].(float64) != 3 {
		t.Errorf("expected 3 brand rows, got %v", data["rows"])
	}
	if data["total_valid_rows"].(float64) != 4 {
		t.Errorf("expected 4 total valid rows, got %v", data["total_valid_rows"])
	}
}

func TestAPIHandlers_HandleReportText(t *testing.T) {
	handlers := newTestAPIHandlers(t, multiMonthCSV)

	req := httptest.NewRequest(http.MethodGet, "/report.txt", nil)
	w := httptest.NewRecorder()

	handlers.HandleReportText(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("expected text/plain content type, got %q", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "apple-market-report.txt") {
		t.Errorf("unexpected content disposition %q", cd)
	}
	if !strings.Contains(w.Body.String(), "APPLE MARKET ANALYSIS REPORT") {
		t.Error("text report body should contain the report header")
	}
}

func TestAPIHandlers_HandleReportCSV(t *testing.T) {
	handlers := newTestAPIHandlers(t, multiMonthCSV)

	req := httptest.NewRequest(http.MethodGet, "/report.csv", nil)
	w := httptest.NewRecorder()

	handlers.HandleReportCSV(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("expected text/csv content type, got %q", ct)
	}
	if !strings.Contains(w.Body.String(), "slot,kind,key") {
		t.Error("csv report should start with the flat header row")
	}
}
