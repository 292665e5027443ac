package app_test

import (
	"context"
	"testing"

	"branch-supply/internal/app"
	"branch-supply/internal/core"
)

// The aggregate gate and request parsing run before any storage access, so
// a facade with nil services exercises them directly.
func gateTestService() app.ApplicationService {
	return app.NewAppService(nil, nil, nil)
}

func TestAggregatesAreReviewerOnly(t *testing.T) {
	svc := gateTestService()
	ctx := context.Background()
	worker := core.Identity{UserID: 1, Name: "Kim", Role: core.RoleWorker, Branch: "Gangnam"}

	checks := map[string]func() error{
		"DashboardStats": func() error {
			_, err := svc.DashboardStats(ctx, worker)
			return err
		},
		"BranchAnalytics": func() error {
			_, err := svc.BranchAnalytics(ctx, worker, 2026, 8, 5)
			return err
		},
		"ProductInsights": func() error {
			_, err := svc.ProductInsights(ctx, worker, 2026, 8)
			return err
		},
		"FinancialMetrics": func() error {
			_, err := svc.FinancialMetrics(ctx, worker, "month")
			return err
		},
		"ExportReport": func() error {
			_, err := svc.ExportReport(ctx, worker, core.ReportFilters{})
			return err
		},
	}
	for name, call := range checks {
		if err := call(); !core.IsKind(err, core.KindAuthorization) {
			t.Errorf("%s: expected authorization error for worker, got %v", name, err)
		}
	}
}

func TestUpdateOrderStatus_RejectsUnknownStatus(t *testing.T) {
	svc := gateTestService()
	editor := core.Identity{UserID: 3, Name: "Cho", Role: core.RoleEditor, Branch: "HQ"}

	_, err := svc.UpdateOrderStatus(context.Background(), editor, 1, "archived", "")
	if !core.IsKind(err, core.KindValidation) {
		t.Errorf("expected validation error for unknown status, got %v", err)
	}
}
