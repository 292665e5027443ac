package core

import (
	"context"
	"time"
)

// ReportService turns a date/branch selection into an export document.
// Access gating (reviewer-only) happens at the transport layer; the service
// only degrades gracefully on unresolved catalog data, never aborts on it.
type ReportService struct {
	orders   OrderService
	resolver Resolver
	now      func() time.Time
}

// NewReportService constructs the report renderer service.
func NewReportService(orders OrderService, resolver Resolver) *ReportService {
	return &ReportService{orders: orders, resolver: resolver, now: time.Now}
}

// Export builds the paginated report for the selection. A selection
// matching zero orders returns a well-formed "no orders found" document.
func (s *ReportService) Export(ctx context.Context, filters ReportFilters) (*Document, error) {
	for _, d := range []string{filters.From, filters.To} {
		if d == "" {
			continue
		}
		if _, err := time.Parse(dateLayout, d); err != nil {
			return nil, Validationf("report date %q is not a valid YYYY-MM-DD date", d)
		}
	}

	orders, err := s.orders.ListRange(ctx, DateRange{From: filters.From, To: filters.To}, filters.Branch)
	if err != nil {
		return nil, err
	}
	products, err := s.resolver.Resolve(ctx, lineProductIDs(orders))
	if err != nil {
		return nil, err
	}
	return BuildReport(orders, products, filters, s.now()), nil
}
