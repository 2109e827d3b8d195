package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"brandlens/internal/report"
)

// Download handlers render the assembled report as flat documents. The
// report is built fresh per request; only the underlying dataset is cached.

func (h *APIHandlers) HandleReportText(w http.ResponseWriter, r *http.Request) {
	ds, ok := h.dataset(w, r)
	if !ok {
		return
	}

	rep := report.Assemble(r.Context(), ds, h.opts)

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", attachment(ds.Brand, "txt"))

	if err := rep.WriteText(w); err != nil {
		h.logger.Error("write text report", "error", err)
	}
}

func (h *APIHandlers) HandleReportCSV(w http.ResponseWriter, r *http.Request) {
	ds, ok := h.dataset(w, r)
	if !ok {
		return
	}

	rep := report.Assemble(r.Context(), ds, h.opts)

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", attachment(ds.Brand, "csv"))

	if err := rep.WriteCSV(w); err != nil {
		h.logger.Error("write csv report", "error", err)
	}
}

func attachment(brand, ext string) string {
	name := strings.ToLower(strings.ReplaceAll(brand, " ", "-"))
	return fmt.Sprintf(`attachment; filename="%s-market-report.%s"`, name, ext)
}
