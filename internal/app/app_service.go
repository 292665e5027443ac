package app

import (
	"context"

	"branch-supply/internal/core"
)

type appService struct {
	orders    core.OrderService
	analytics *core.AnalyticsService
	reports   *core.ReportService
}

// NewAppService wires the application facade over the core services.
func NewAppService(orders core.OrderService, analytics *core.AnalyticsService, reports *core.ReportService) ApplicationService {
	return &appService{orders: orders, analytics: analytics, reports: reports}
}

func toLineInputs(lines []OrderLineRequest) []core.OrderLineInput {
	out := make([]core.OrderLineInput, 0, len(lines))
	for _, l := range lines {
		out = append(out, core.OrderLineInput{ProductID: l.ProductID, Quantity: l.Quantity, Note: l.Note})
	}
	return out
}

func (s *appService) CreateOrder(ctx context.Context, id core.Identity, req CreateOrderRequest) (*OrderResult, error) {
	scope := core.NewScope(id, core.ScopeOptions{})
	order, err := s.orders.Create(ctx, scope, core.CreateOrderInput{
		OrderDate: req.OrderDate,
		Lines:     toLineInputs(req.Lines),
		Note:      req.Note,
	})
	if err != nil {
		return nil, err
	}
	return &OrderResult{Order: order}, nil
}

func (s *appService) GetOrder(ctx context.Context, id core.Identity, orderID int, viewAll bool) (*OrderResult, error) {
	scope := core.NewScope(id, core.ScopeOptions{ViewAll: viewAll})
	order, err := s.orders.Get(ctx, scope, orderID)
	if err != nil {
		return nil, err
	}
	return &OrderResult{Order: order}, nil
}

func (s *appService) ListOrders(ctx context.Context, id core.Identity, req ListOrdersRequest) (*OrderListResult, error) {
	scope := core.NewScope(id, core.ScopeOptions{ViewAll: req.ViewAll})
	filter := core.OrderFilter{
		Date:   req.Date,
		Branch: req.Branch,
		Status: req.Status,
		Page:   req.Page,
		Limit:  req.Limit,
	}
	orders, total, err := s.orders.List(ctx, scope, filter)
	if err != nil {
		return nil, err
	}
	page := req.Page
	if page < 1 {
		page = 1
	}
	limit := req.Limit
	if limit < 1 {
		limit = 20
	}
	return &OrderListResult{Orders: orders, Total: total, Page: page, Limit: limit}, nil
}

func (s *appService) UpdateOrder(ctx context.Context, id core.Identity, orderID int, req UpdateOrderRequest) (*OrderResult, error) {
	scope := core.NewScope(id, core.ScopeOptions{})
	input := core.UpdateOrderInput{OrderDate: req.OrderDate, Note: req.Note}
	if req.Lines != nil {
		input.Lines = toLineInputs(req.Lines)
	}
	order, err := s.orders.Update(ctx, scope, orderID, input)
	if err != nil {
		return nil, err
	}
	return &OrderResult{Order: order}, nil
}

func (s *appService) DeleteOrder(ctx context.Context, id core.Identity, orderID int) error {
	scope := core.NewScope(id, core.ScopeOptions{})
	return s.orders.Delete(ctx, scope, orderID)
}

func (s *appService) UpdateOrderStatus(ctx context.Context, id core.Identity, orderID int, status, note string) (*OrderResult, error) {
	next, err := core.ParseStatus(status)
	if err != nil {
		return nil, err
	}
	scope := core.NewScope(id, core.ScopeOptions{})
	order, err := s.orders.UpdateStatus(ctx, scope, orderID, next, note)
	if err != nil {
		return nil, err
	}
	return &OrderResult{Order: order}, nil
}

// requireAggregates gates the reporting surface to reviewer roles.
func requireAggregates(id core.Identity) error {
	if !id.Role.Can(core.CapViewAggregates) {
		return core.Authorizationf("role %s may not view order aggregates", id.Role)
	}
	return nil
}

func (s *appService) DashboardStats(ctx context.Context, id core.Identity) (*core.DashboardStats, error) {
	if err := requireAggregates(id); err != nil {
		return nil, err
	}
	return s.analytics.Dashboard(ctx)
}

func (s *appService) BranchAnalytics(ctx context.Context, id core.Identity, year, month, topN int) (*BranchAnalyticsResult, error) {
	if err := requireAggregates(id); err != nil {
		return nil, err
	}
	branches, err := s.analytics.BranchAnalytics(ctx, year, month, topN)
	if err != nil {
		return nil, err
	}
	return &BranchAnalyticsResult{Year: year, Month: month, Branches: branches}, nil
}

func (s *appService) ProductInsights(ctx context.Context, id core.Identity, year, month int) (*ProductInsightsResult, error) {
	if err := requireAggregates(id); err != nil {
		return nil, err
	}
	products, err := s.analytics.ProductInsights(ctx, year, month)
	if err != nil {
		return nil, err
	}
	return &ProductInsightsResult{Year: year, Month: month, Products: products}, nil
}

func (s *appService) FinancialMetrics(ctx context.Context, id core.Identity, timeframe string) (*core.FinancialMetrics, error) {
	if err := requireAggregates(id); err != nil {
		return nil, err
	}
	return s.analytics.Financial(ctx, timeframe)
}

func (s *appService) ExportReport(ctx context.Context, id core.Identity, filters core.ReportFilters) (*core.Document, error) {
	if err := requireAggregates(id); err != nil {
		return nil, err
	}
	return s.reports.Export(ctx, filters)
}
