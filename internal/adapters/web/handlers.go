package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"branch-supply/internal/app"
)

// Handler holds the ApplicationService and the chi router.
type Handler struct {
	svc       app.ApplicationService
	router    chi.Router
	jwtSecret string
	devMode   bool
	pinger    Pinger
}

// Pinger is the health check's view of the database pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// NewHandler wires the chi router with all routes.
func NewHandler(svc app.ApplicationService, pinger Pinger, jwtSecret, allowedOrigins string, devMode bool) http.Handler {
	h := &Handler{svc: svc, jwtSecret: jwtSecret, devMode: devMode, pinger: pinger}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger)
	r.Use(Recoverer)
	r.Use(CORS(allowedOrigins))

	r.Get("/api/health", h.health)

	r.Group(func(r chi.Router) {
		r.Use(h.RequireAuth)
		r.Use(RequestBodyLimit(1 << 20)) // 1 MB

		r.Get("/api/auth/me", h.me)

		r.Post("/api/orders", h.createOrder)
		r.Get("/api/orders", h.listOrders)

		// Aggregate routes are declared before /api/orders/{id} so chi
		// does not try to parse "stats" as an order id.
		r.Get("/api/orders/stats/dashboard", h.dashboardStats)
		r.Get("/api/orders/branch-analytics", h.branchAnalytics)
		r.Get("/api/orders/product-insights", h.productInsights)
		r.Get("/api/orders/financial-metrics", h.financialMetrics)
		r.Get("/api/orders/export", h.exportReport)

		r.Get("/api/orders/{id}", h.getOrder)
		r.Put("/api/orders/{id}", h.updateOrder)
		r.Delete("/api/orders/{id}", h.deleteOrder)
		r.Patch("/api/orders/{id}/status", h.updateOrderStatus)
	})

	h.router = r
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

// health handles GET /api/health with a database ping.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	code := http.StatusOK
	if h.pinger != nil {
		if err := h.pinger.Ping(r.Context()); err != nil {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": status})
}

// decodeJSON decodes the request body into v, writing a 400 and returning
// false on malformed input.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			writeError(w, r, "request body too large", "validation", http.StatusRequestEntityTooLarge)
			return false
		}
		writeError(w, r, "invalid request body", "validation", http.StatusBadRequest)
		return false
	}
	return true
}
