package web

import (
	"net/http"
	"time"

	"branch-supply/internal/core"
)

// dashboardStats handles GET /api/orders/stats/dashboard.
func (h *Handler) dashboardStats(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFromContext(r.Context())

	stats, err := h.svc.DashboardStats(r.Context(), identity)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, stats)
}

// yearMonth reads year/month query params, defaulting to the current month.
func yearMonth(r *http.Request) (int, int) {
	now := time.Now()
	year := atoiDefault(r.URL.Query().Get("year"), now.Year())
	month := atoiDefault(r.URL.Query().Get("month"), int(now.Month()))
	return year, month
}

// branchAnalytics handles GET /api/orders/branch-analytics.
func (h *Handler) branchAnalytics(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFromContext(r.Context())
	year, month := yearMonth(r)
	topN := atoiDefault(r.URL.Query().Get("top"), 0)

	result, err := h.svc.BranchAnalytics(r.Context(), identity, year, month, topN)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// productInsights handles GET /api/orders/product-insights.
func (h *Handler) productInsights(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFromContext(r.Context())
	year, month := yearMonth(r)

	result, err := h.svc.ProductInsights(r.Context(), identity, year, month)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// financialMetrics handles GET /api/orders/financial-metrics.
func (h *Handler) financialMetrics(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFromContext(r.Context())
	timeframe := r.URL.Query().Get("timeframe")
	if timeframe == "" {
		timeframe = "month"
	}

	result, err := h.svc.FinancialMetrics(r.Context(), identity, timeframe)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// exportReport handles GET /api/orders/export. The JSON form returns the
// structured paginated document; format=text streams the plain-text
// rendering page by page.
func (h *Handler) exportReport(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFromContext(r.Context())
	q := r.URL.Query()

	filters := core.ReportFilters{
		From:   q.Get("from"),
		To:     q.Get("to"),
		Branch: q.Get("branch"),
	}

	doc, err := h.svc.ExportReport(r.Context(), identity, filters)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	if q.Get("format") == "text" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_ = doc.WriteText(w)
		return
	}
	writeJSON(w, doc)
}
