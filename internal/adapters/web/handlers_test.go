package web_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"branch-supply/internal/adapters/web"
	"branch-supply/internal/app"
	"branch-supply/internal/core"
)

const testSecret = "test-secret"

// stubService returns canned results, or err from every method when set.
type stubService struct {
	err   error
	order *core.Order
}

func (s *stubService) result() (*app.OrderResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	o := s.order
	if o == nil {
		o = &core.Order{ID: 1, OrderNumber: "ORD-20260829-001", Status: core.StatusPending, Lines: []core.OrderLine{}}
	}
	return &app.OrderResult{Order: o}, nil
}

func (s *stubService) CreateOrder(ctx context.Context, id core.Identity, req app.CreateOrderRequest) (*app.OrderResult, error) {
	return s.result()
}

func (s *stubService) GetOrder(ctx context.Context, id core.Identity, orderID int, viewAll bool) (*app.OrderResult, error) {
	return s.result()
}

func (s *stubService) ListOrders(ctx context.Context, id core.Identity, req app.ListOrdersRequest) (*app.OrderListResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &app.OrderListResult{Orders: []core.Order{}, Page: 1, Limit: 20}, nil
}

func (s *stubService) UpdateOrder(ctx context.Context, id core.Identity, orderID int, req app.UpdateOrderRequest) (*app.OrderResult, error) {
	return s.result()
}

func (s *stubService) DeleteOrder(ctx context.Context, id core.Identity, orderID int) error {
	return s.err
}

func (s *stubService) UpdateOrderStatus(ctx context.Context, id core.Identity, orderID int, status, note string) (*app.OrderResult, error) {
	return s.result()
}

func (s *stubService) DashboardStats(ctx context.Context, id core.Identity) (*core.DashboardStats, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &core.DashboardStats{Date: "2026-08-29"}, nil
}

func (s *stubService) BranchAnalytics(ctx context.Context, id core.Identity, year, month, topN int) (*app.BranchAnalyticsResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &app.BranchAnalyticsResult{Year: year, Month: month}, nil
}

func (s *stubService) ProductInsights(ctx context.Context, id core.Identity, year, month int) (*app.ProductInsightsResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &app.ProductInsightsResult{Year: year, Month: month}, nil
}

func (s *stubService) FinancialMetrics(ctx context.Context, id core.Identity, timeframe string) (*core.FinancialMetrics, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &core.FinancialMetrics{Timeframe: timeframe}, nil
}

func (s *stubService) ExportReport(ctx context.Context, id core.Identity, filters core.ReportFilters) (*core.Document, error) {
	if s.err != nil {
		return nil, s.err
	}
	return core.BuildReport(nil, nil, filters, time.Now()), nil
}

func newTestHandler(svc app.ApplicationService) http.Handler {
	return web.NewHandler(svc, nil, testSecret, "", false)
}

func signToken(t *testing.T, secret, role string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": 7,
		"name":    "Kim",
		"role":    role,
		"branch":  "Gangnam",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func doRequest(h http.Handler, method, target, token, body string) *httptest.ResponseRecorder {
	var r *http.Request
	if body != "" {
		r = httptest.NewRequest(method, target, strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
	} else {
		r = httptest.NewRequest(method, target, nil)
	}
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func TestRequireAuth(t *testing.T) {
	h := newTestHandler(&stubService{})

	t.Run("MissingToken", func(t *testing.T) {
		w := doRequest(h, http.MethodGet, "/api/auth/me", "", "")
		if w.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", w.Code)
		}
	})

	t.Run("WrongSecret", func(t *testing.T) {
		w := doRequest(h, http.MethodGet, "/api/auth/me", signToken(t, "other-secret", "worker"), "")
		if w.Code != http.StatusUnauthorized {
			t.Errorf("expected 401 for forged token, got %d", w.Code)
		}
	})

	t.Run("UnknownRole", func(t *testing.T) {
		w := doRequest(h, http.MethodGet, "/api/auth/me", signToken(t, testSecret, "superuser"), "")
		if w.Code != http.StatusUnauthorized {
			t.Errorf("expected 401 for unknown role, got %d", w.Code)
		}
	})

	t.Run("ValidToken", func(t *testing.T) {
		w := doRequest(h, http.MethodGet, "/api/auth/me", signToken(t, testSecret, "worker"), "")
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
		}
		var body map[string]any
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body["name"] != "Kim" || body["role"] != "worker" || body["branch"] != "Gangnam" {
			t.Errorf("unexpected identity echo: %v", body)
		}
	})

	t.Run("CookieToken", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
		r.AddCookie(&http.Cookie{Name: "auth_token", Value: signToken(t, testSecret, "editor")})
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		if w.Code != http.StatusOK {
			t.Errorf("expected 200 via cookie, got %d", w.Code)
		}
	})
}

func TestErrorStatusMapping(t *testing.T) {
	token := signToken(t, testSecret, "admin")

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"Validation", core.Validationf("bad input"), http.StatusBadRequest, "validation"},
		{"Authorization", core.Authorizationf("not yours"), http.StatusForbidden, "authorization"},
		{"NotFound", core.NotFoundf("order 5 not found"), http.StatusNotFound, "not_found"},
		{"InvalidState", core.InvalidStatef("already completed"), http.StatusConflict, "invalid_state"},
		{"Conflict", core.Conflictf("number collision"), http.StatusConflict, "conflict"},
		{"Unknown", errors.New("pq: connection refused"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler(&stubService{err: tt.err})
			w := doRequest(h, http.MethodGet, "/api/orders/5", token, "")
			if w.Code != tt.wantStatus {
				t.Errorf("expected %d, got %d: %s", tt.wantStatus, w.Code, w.Body.String())
			}
			var body map[string]any
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body["code"] != tt.wantCode {
				t.Errorf("expected code %q, got %v", tt.wantCode, body["code"])
			}
			if tt.name == "Unknown" && body["error"] != "internal server error" {
				t.Errorf("internal detail must not leak outside dev mode, got %v", body["error"])
			}
		})
	}
}

func TestCreateOrder(t *testing.T) {
	token := signToken(t, testSecret, "worker")

	t.Run("Created", func(t *testing.T) {
		h := newTestHandler(&stubService{})
		w := doRequest(h, http.MethodPost, "/api/orders", token,
			`{"order_date":"2026-08-30","lines":[{"product_id":1,"quantity":2}]}`)
		if w.Code != http.StatusCreated {
			t.Errorf("expected 201, got %d: %s", w.Code, w.Body.String())
		}
	})

	t.Run("UnknownField", func(t *testing.T) {
		h := newTestHandler(&stubService{})
		w := doRequest(h, http.MethodPost, "/api/orders", token, `{"order_date":"2026-08-30","surprise":true}`)
		if w.Code != http.StatusBadRequest {
			t.Errorf("expected 400 for unknown field, got %d", w.Code)
		}
	})

	t.Run("MalformedJSON", func(t *testing.T) {
		h := newTestHandler(&stubService{})
		w := doRequest(h, http.MethodPost, "/api/orders", token, `{"order_date":`)
		if w.Code != http.StatusBadRequest {
			t.Errorf("expected 400 for malformed body, got %d", w.Code)
		}
	})
}

func TestOrderIDParsing(t *testing.T) {
	h := newTestHandler(&stubService{})
	token := signToken(t, testSecret, "worker")

	w := doRequest(h, http.MethodGet, "/api/orders/banana", token, "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for non-numeric id, got %d", w.Code)
	}
}

func TestAggregateRoutesNotShadowedByID(t *testing.T) {
	h := newTestHandler(&stubService{})
	token := signToken(t, testSecret, "admin")

	for _, path := range []string{
		"/api/orders/stats/dashboard",
		"/api/orders/branch-analytics?year=2026&month=8",
		"/api/orders/product-insights?year=2026&month=8",
		"/api/orders/financial-metrics?timeframe=week",
	} {
		w := doRequest(h, http.MethodGet, path, token, "")
		if w.Code != http.StatusOK {
			t.Errorf("%s: expected 200, got %d: %s", path, w.Code, w.Body.String())
		}
	}
}

func TestExportReport_TextFormat(t *testing.T) {
	h := newTestHandler(&stubService{})
	token := signToken(t, testSecret, "admin")

	w := doRequest(h, http.MethodGet, "/api/orders/export?format=text", token, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("expected text/plain, got %q", ct)
	}
	if !strings.Contains(w.Body.String(), "Supply Order Report") {
		t.Error("text export missing report title")
	}
}

func TestHealth(t *testing.T) {
	t.Run("NoPinger", func(t *testing.T) {
		h := newTestHandler(&stubService{})
		w := doRequest(h, http.MethodGet, "/api/health", "", "")
		if w.Code != http.StatusOK {
			t.Errorf("expected 200, got %d", w.Code)
		}
	})

	t.Run("DatabaseDown", func(t *testing.T) {
		h := web.NewHandler(&stubService{}, failingPinger{}, testSecret, "", false)
		w := doRequest(h, http.MethodGet, "/api/health", "", "")
		if w.Code != http.StatusServiceUnavailable {
			t.Errorf("expected 503 when the database ping fails, got %d", w.Code)
		}
	})
}

type failingPinger struct{}

func (failingPinger) Ping(ctx context.Context) error { return errors.New("connection refused") }
