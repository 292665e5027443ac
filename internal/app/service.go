package app

import (
	"context"

	"branch-supply/internal/core"
)

// ApplicationService is the single interface the transport adapter calls.
// It decouples HTTP handling from business logic: implementations contain
// no status codes, no JSON, and no presentation concerns.
type ApplicationService interface {
	// CreateOrder submits a new pending supply order for the identity's branch.
	CreateOrder(ctx context.Context, id core.Identity, req CreateOrderRequest) (*OrderResult, error)

	// GetOrder fetches one order. Workers see their own orders (or everything
	// read-only with viewAll); reviewers see all.
	GetOrder(ctx context.Context, id core.Identity, orderID int, viewAll bool) (*OrderResult, error)

	// ListOrders returns a filtered, paginated order page within scope.
	ListOrders(ctx context.Context, id core.Identity, req ListOrdersRequest) (*OrderListResult, error)

	// UpdateOrder edits a pending order owned by the identity.
	UpdateOrder(ctx context.Context, id core.Identity, orderID int, req UpdateOrderRequest) (*OrderResult, error)

	// DeleteOrder removes an order under the owner-pending or admin-any rule.
	DeleteOrder(ctx context.Context, id core.Identity, orderID int) error

	// UpdateOrderStatus runs a reviewer transition with an optional note.
	UpdateOrderStatus(ctx context.Context, id core.Identity, orderID int, status, note string) (*OrderResult, error)

	// DashboardStats returns today's summary. Reviewer only.
	DashboardStats(ctx context.Context, id core.Identity) (*core.DashboardStats, error)

	// BranchAnalytics returns per-branch statistics for a month. Reviewer only.
	BranchAnalytics(ctx context.Context, id core.Identity, year, month, topN int) (*BranchAnalyticsResult, error)

	// ProductInsights returns per-product statistics for a month. Reviewer only.
	ProductInsights(ctx context.Context, id core.Identity, year, month int) (*ProductInsightsResult, error)

	// FinancialMetrics returns aggregate totals for a timeframe keyword. Reviewer only.
	FinancialMetrics(ctx context.Context, id core.Identity, timeframe string) (*core.FinancialMetrics, error)

	// ExportReport renders the paginated document for a selection. Reviewer only.
	ExportReport(ctx context.Context, id core.Identity, filters core.ReportFilters) (*core.Document, error)
}
