package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestDashboardHandler(t *testing.T) {
	handler := dashboardHandler("Apple")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()

	handler(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	if cc := w.Header().Get("Cache-Control"); cc != cacheMaxAge {
		t.Errorf("expected cache-control %q, got %q", cacheMaxAge, cc)
	}

	body := w.Body.String()
	if !strings.Contains(body, "Apple Market Analysis") {
		t.Error("dashboard should render the brand heading")
	}
	if !strings.Contains(body, "/sse/top-cities") {
		t.Error("dashboard should wire the SSE panels")
	}
	if !strings.Contains(body, "/report.txt") {
		t.Error("dashboard should link the report downloads")
	}
}

func TestDashboardHandler_EscapesBrand(t *testing.T) {
	handler := dashboardHandler(`<script>alert("x")</script>`)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()

	handler(w, req)

	if strings.Contains(w.Body.String(), "<script>alert") {
		t.Error("brand name must be HTML-escaped in the page")
	}
}
