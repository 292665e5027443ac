package web

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"branch-supply/internal/app"
)

// orderID parses the {id} route parameter, writing a 400 on garbage.
func orderID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		writeError(w, r, "invalid order id", "validation", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

// createOrder handles POST /api/orders.
func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFromContext(r.Context())

	var req app.CreateOrderRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.svc.CreateOrder(r.Context(), identity, req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	writeBody(w, result)
}

// listOrders handles GET /api/orders.
func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFromContext(r.Context())
	q := r.URL.Query()

	req := app.ListOrdersRequest{
		Date:    q.Get("date"),
		Branch:  q.Get("branch"),
		Status:  q.Get("status"),
		Page:    atoiDefault(q.Get("page"), 0),
		Limit:   atoiDefault(q.Get("limit"), 0),
		ViewAll: q.Get("scope") == "all",
	}

	result, err := h.svc.ListOrders(r.Context(), identity, req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// getOrder handles GET /api/orders/{id}.
func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFromContext(r.Context())
	id, ok := orderID(w, r)
	if !ok {
		return
	}

	result, err := h.svc.GetOrder(r.Context(), identity, id, r.URL.Query().Get("scope") == "all")
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// updateOrder handles PUT /api/orders/{id}.
func (h *Handler) updateOrder(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFromContext(r.Context())
	id, ok := orderID(w, r)
	if !ok {
		return
	}

	var req app.UpdateOrderRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.svc.UpdateOrder(r.Context(), identity, id, req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// deleteOrder handles DELETE /api/orders/{id}.
func (h *Handler) deleteOrder(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFromContext(r.Context())
	id, ok := orderID(w, r)
	if !ok {
		return
	}

	if err := h.svc.DeleteOrder(r.Context(), identity, id); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// updateOrderStatus handles PATCH /api/orders/{id}/status.
func (h *Handler) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFromContext(r.Context())
	id, ok := orderID(w, r)
	if !ok {
		return
	}

	var req struct {
		Status string `json:"status"`
		Note   string `json:"note,omitempty"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.svc.UpdateOrderStatus(r.Context(), identity, id, req.Status, req.Note)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

func atoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
