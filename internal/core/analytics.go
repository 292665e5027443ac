package core

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"branch-supply/internal/cache"
)

// ── Aggregate types ───────────────────────────────────────────────────────────

// DashboardStats is the at-a-glance summary for reviewers.
type DashboardStats struct {
	Date            string          `json:"date"`
	OrdersToday     int             `json:"orders_today"`     // created today
	CompletedToday  int             `json:"completed_today"`  // transitioned to completed today
	PendingCount    int             `json:"pending_count"`    // pending regardless of age
	TotalValueToday decimal.Decimal `json:"total_value_today"`
}

// ProductQuantity is one entry in a top-products ranking. Deleted marks a
// dangling catalog reference; such products still rank by quantity but are
// labeled rather than silently dropped.
type ProductQuantity struct {
	ProductID int    `json:"product_id"`
	Name      string `json:"name"`
	Deleted   bool   `json:"deleted,omitempty"`
	Quantity  int    `json:"quantity"`
}

// BranchStats aggregates one branch's activity for a month.
type BranchStats struct {
	Branch         string            `json:"branch"`
	OrderCount     int               `json:"order_count"`
	TotalValue     decimal.Decimal   `json:"total_value"`
	AverageValue   decimal.Decimal   `json:"average_value"`
	PendingCount   int               `json:"pending_count"`
	CompletedCount int               `json:"completed_count"`
	TopProducts    []ProductQuantity `json:"top_products"`
	// TrendPct compares total value with the previous month:
	// (current − previous) / previous × 100, 0 when previous is 0.
	TrendPct decimal.Decimal `json:"trend_pct"`
}

// ProductInsight aggregates one product's ordering activity for a month.
type ProductInsight struct {
	ProductID     int             `json:"product_id"`
	Name          string          `json:"name"`
	Deleted       bool            `json:"deleted,omitempty"`
	TotalQuantity int             `json:"total_quantity"`
	TotalValue    decimal.Decimal `json:"total_value"`
	// FrequencyPct is the share of the period's orders containing the product.
	FrequencyPct decimal.Decimal `json:"frequency_pct"`
	// Trend is "up", "down", or "flat" versus the previous month's quantity.
	Trend string `json:"trend"`
}

// FinancialMetrics aggregates order value over a selectable timeframe.
type FinancialMetrics struct {
	Timeframe    string          `json:"timeframe"`
	From         string          `json:"from"`
	To           string          `json:"to"`
	OrderCount   int             `json:"order_count"`
	TotalValue   decimal.Decimal `json:"total_value"`
	AverageValue decimal.Decimal `json:"average_value"`
	TrendPct     decimal.Decimal `json:"trend_pct"` // versus the preceding window of equal length
}

// ── Pure aggregation functions ────────────────────────────────────────────────
//
// These operate on an order collection plus a resolved product map and never
// touch storage. A line whose product is absent from the map is a dangling
// reference: it contributes 0 to every monetary sum but its full quantity to
// item counts. Monetary values keep full precision; rounding belongs to
// presentation.

// lineValue prices one line, or zero when the product reference dangles.
func lineValue(l OrderLine, products map[int]Product) decimal.Decimal {
	p, ok := products[l.ProductID]
	if !ok {
		return decimal.Zero
	}
	return p.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

func orderValue(o Order, products map[int]Product) decimal.Decimal {
	total := decimal.Zero
	for _, l := range o.Lines {
		total = total.Add(lineValue(l, products))
	}
	return total
}

// trendPct computes (current − previous) / previous × 100, defined as 0
// (not an error or NaN) when previous is 0.
func trendPct(current, previous decimal.Decimal) decimal.Decimal {
	if previous.IsZero() {
		return decimal.Zero
	}
	return current.Sub(previous).Div(previous).Mul(decimal.NewFromInt(100))
}

// ComputeDashboard derives the dashboard summary for the given day
// (YYYY-MM-DD) from the full order set.
func ComputeDashboard(orders []Order, products map[int]Product, today string) DashboardStats {
	stats := DashboardStats{Date: today, TotalValueToday: decimal.Zero}
	for _, o := range orders {
		if o.Status == StatusPending {
			stats.PendingCount++
		}
		if o.ProcessedAt != nil && o.Status == StatusCompleted &&
			o.ProcessedAt.Format(dateLayout) == today {
			stats.CompletedToday++
		}
		if o.CreatedAt.Format(dateLayout) == today {
			stats.OrdersToday++
			stats.TotalValueToday = stats.TotalValueToday.Add(orderValue(o, products))
		}
	}
	return stats
}

// monthKey buckets an order by its fulfillment date, YYYY-MM.
func monthKey(o Order) string {
	if len(o.OrderDate) >= 7 {
		return o.OrderDate[:7]
	}
	return ""
}

func monthOf(year, month int) string {
	return fmt.Sprintf("%04d-%02d", year, month)
}

func previousMonth(year, month int) (int, int) {
	if month == 1 {
		return year - 1, 12
	}
	return year, month - 1
}

// ComputeBranchStats aggregates per-branch activity for the given month,
// with trend against the previous month. Branches are returned in name order.
func ComputeBranchStats(orders []Order, products map[int]Product, year, month, topN int) []BranchStats {
	current := monthOf(year, month)
	prevYear, prevMonth := previousMonth(year, month)
	previous := monthOf(prevYear, prevMonth)

	type acc struct {
		stats     BranchStats
		prevValue decimal.Decimal
		qtyByProd map[int]int
	}
	byBranch := make(map[string]*acc)
	get := func(branch string) *acc {
		a, ok := byBranch[branch]
		if !ok {
			a = &acc{
				stats: BranchStats{
					Branch:      branch,
					TotalValue:  decimal.Zero,
					TopProducts: []ProductQuantity{},
				},
				prevValue: decimal.Zero,
				qtyByProd: make(map[int]int),
			}
			byBranch[branch] = a
		}
		return a
	}

	for _, o := range orders {
		switch monthKey(o) {
		case current:
			a := get(o.Branch)
			a.stats.OrderCount++
			a.stats.TotalValue = a.stats.TotalValue.Add(orderValue(o, products))
			if o.Status == StatusPending {
				a.stats.PendingCount++
			}
			if o.Status == StatusCompleted {
				a.stats.CompletedCount++
			}
			for _, l := range o.Lines {
				a.qtyByProd[l.ProductID] += l.Quantity
			}
		case previous:
			a := get(o.Branch)
			a.prevValue = a.prevValue.Add(orderValue(o, products))
		}
	}

	var out []BranchStats
	for _, a := range byBranch {
		if a.stats.OrderCount > 0 {
			a.stats.AverageValue = a.stats.TotalValue.Div(decimal.NewFromInt(int64(a.stats.OrderCount)))
		} else {
			a.stats.AverageValue = decimal.Zero
		}
		a.stats.TrendPct = trendPct(a.stats.TotalValue, a.prevValue)
		a.stats.TopProducts = topProducts(a.qtyByProd, products, topN)
		out = append(out, a.stats)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Branch < out[j].Branch })
	return out
}

// topProducts ranks products by cumulative quantity, highest first, ties
// broken by product ID for stable output.
func topProducts(qtyByProd map[int]int, products map[int]Product, n int) []ProductQuantity {
	ranked := make([]ProductQuantity, 0, len(qtyByProd))
	for pid, qty := range qtyByProd {
		pq := ProductQuantity{ProductID: pid, Quantity: qty}
		if p, ok := products[pid]; ok {
			pq.Name = p.Name
		} else {
			pq.Name = "product deleted"
			pq.Deleted = true
		}
		ranked = append(ranked, pq)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Quantity != ranked[j].Quantity {
			return ranked[i].Quantity > ranked[j].Quantity
		}
		return ranked[i].ProductID < ranked[j].ProductID
	})
	if n > 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// ComputeProductInsights aggregates per-product activity for the given
// month. Frequency is the share of the month's orders containing the
// product; trend compares quantity with the previous month.
func ComputeProductInsights(orders []Order, products map[int]Product, year, month int) []ProductInsight {
	current := monthOf(year, month)
	prevYear, prevMonth := previousMonth(year, month)
	previous := monthOf(prevYear, prevMonth)

	type acc struct {
		insight ProductInsight
		orders  map[int]bool // order IDs containing the product this month
		prevQty int
	}
	byProduct := make(map[int]*acc)
	get := func(pid int) *acc {
		a, ok := byProduct[pid]
		if !ok {
			a = &acc{
				insight: ProductInsight{ProductID: pid, TotalValue: decimal.Zero},
				orders:  make(map[int]bool),
			}
			if p, resolved := products[pid]; resolved {
				a.insight.Name = p.Name
			} else {
				a.insight.Name = "product deleted"
				a.insight.Deleted = true
			}
			byProduct[pid] = a
		}
		return a
	}

	currentOrders := 0
	for _, o := range orders {
		switch monthKey(o) {
		case current:
			currentOrders++
			for _, l := range o.Lines {
				a := get(l.ProductID)
				a.insight.TotalQuantity += l.Quantity
				a.insight.TotalValue = a.insight.TotalValue.Add(lineValue(l, products))
				a.orders[o.ID] = true
			}
		case previous:
			for _, l := range o.Lines {
				get(l.ProductID).prevQty += l.Quantity
			}
		}
	}

	var out []ProductInsight
	for _, a := range byProduct {
		if a.insight.TotalQuantity == 0 && len(a.orders) == 0 && a.prevQty == 0 {
			continue
		}
		if currentOrders > 0 {
			a.insight.FrequencyPct = decimal.NewFromInt(int64(len(a.orders))).
				Div(decimal.NewFromInt(int64(currentOrders))).
				Mul(decimal.NewFromInt(100))
		} else {
			a.insight.FrequencyPct = decimal.Zero
		}
		switch {
		case a.insight.TotalQuantity > a.prevQty:
			a.insight.Trend = "up"
		case a.insight.TotalQuantity < a.prevQty:
			a.insight.Trend = "down"
		default:
			a.insight.Trend = "flat"
		}
		out = append(out, a.insight)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalQuantity != out[j].TotalQuantity {
			return out[i].TotalQuantity > out[j].TotalQuantity
		}
		return out[i].ProductID < out[j].ProductID
	})
	return out
}

// timeframeDays maps the financial-metrics timeframe keywords to window
// lengths in days.
var timeframeDays = map[string]int{
	"day":       1,
	"week":      7,
	"month":     30,
	"half_year": 182,
	"year":      365,
}

// TimeframeWindow resolves a timeframe keyword into the current window and
// the preceding window of equal length, ending at ref.
func TimeframeWindow(timeframe string, ref time.Time) (cur, prev DateRange, err error) {
	days, ok := timeframeDays[timeframe]
	if !ok {
		return cur, prev, Validationf("unknown timeframe %q", timeframe)
	}
	end := ref
	start := end.AddDate(0, 0, -(days - 1))
	cur = DateRange{From: start.Format(dateLayout), To: end.Format(dateLayout)}
	prevEnd := start.AddDate(0, 0, -1)
	prevStart := prevEnd.AddDate(0, 0, -(days - 1))
	prev = DateRange{From: prevStart.Format(dateLayout), To: prevEnd.Format(dateLayout)}
	return cur, prev, nil
}

func inRange(o Order, rng DateRange) bool {
	return o.OrderDate >= rng.From && o.OrderDate <= rng.To
}

// ComputeFinancialMetrics aggregates totals over the current window with a
// trend against the preceding window.
func ComputeFinancialMetrics(orders []Order, products map[int]Product, timeframe string, cur, prev DateRange) FinancialMetrics {
	m := FinancialMetrics{
		Timeframe:    timeframe,
		From:         cur.From,
		To:           cur.To,
		TotalValue:   decimal.Zero,
		AverageValue: decimal.Zero,
	}
	prevTotal := decimal.Zero
	for _, o := range orders {
		if inRange(o, cur) {
			m.OrderCount++
			m.TotalValue = m.TotalValue.Add(orderValue(o, products))
		} else if inRange(o, prev) {
			prevTotal = prevTotal.Add(orderValue(o, products))
		}
	}
	if m.OrderCount > 0 {
		m.AverageValue = m.TotalValue.Div(decimal.NewFromInt(int64(m.OrderCount)))
	}
	m.TrendPct = trendPct(m.TotalValue, prevTotal)
	return m
}

// ── Service ───────────────────────────────────────────────────────────────────

// AnalyticsService loads order windows from the store, resolves products
// once per computation, and runs the pure aggregations. Reads need no
// transactional isolation: a slightly stale snapshot is fine for reports.
type AnalyticsService struct {
	orders   OrderService
	resolver Resolver
	cache    *cache.Cache
	now      func() time.Time
}

// NewAnalyticsService constructs the aggregation engine. cache may be nil
// or disabled; it only shortcuts the dashboard query.
func NewAnalyticsService(orders OrderService, resolver Resolver, c *cache.Cache) *AnalyticsService {
	return &AnalyticsService{orders: orders, resolver: resolver, cache: c, now: time.Now}
}

// load fetches an order window plus its resolved products.
func (s *AnalyticsService) load(ctx context.Context, rng DateRange, branch string) ([]Order, map[int]Product, error) {
	orders, err := s.orders.ListRange(ctx, rng, branch)
	if err != nil {
		return nil, nil, err
	}
	products, err := s.resolver.Resolve(ctx, lineProductIDs(orders))
	if err != nil {
		return nil, nil, err
	}
	return orders, products, nil
}

// Dashboard returns today's summary, served from cache when fresh.
func (s *AnalyticsService) Dashboard(ctx context.Context) (*DashboardStats, error) {
	today := s.now().Format(dateLayout)
	key := fmt.Sprintf(cache.KeyDashboardStats, today)
	if b, ok := s.cache.Get(ctx, key); ok {
		var stats DashboardStats
		if err := json.Unmarshal(b, &stats); err == nil {
			return &stats, nil
		}
	}

	orders, products, err := s.load(ctx, DateRange{}, "")
	if err != nil {
		return nil, err
	}
	stats := ComputeDashboard(orders, products, today)

	if b, err := json.Marshal(stats); err == nil {
		s.cache.Set(ctx, key, b, cache.TTLDashboard)
	}
	return &stats, nil
}

// BranchAnalytics returns per-branch statistics for a month. topN bounds
// the product ranking; zero means the default of 5.
func (s *AnalyticsService) BranchAnalytics(ctx context.Context, year, month, topN int) ([]BranchStats, error) {
	if month < 1 || month > 12 {
		return nil, Validationf("month must be between 1 and 12, got %d", month)
	}
	if topN <= 0 {
		topN = 5
	}
	prevYear, prevMonth := previousMonth(year, month)
	rng := DateRange{
		From: fmt.Sprintf("%s-01", monthOf(prevYear, prevMonth)),
		To:   lastDayOfMonth(year, month),
	}
	orders, products, err := s.load(ctx, rng, "")
	if err != nil {
		return nil, err
	}
	return ComputeBranchStats(orders, products, year, month, topN), nil
}

// ProductInsights returns per-product statistics for a month.
func (s *AnalyticsService) ProductInsights(ctx context.Context, year, month int) ([]ProductInsight, error) {
	if month < 1 || month > 12 {
		return nil, Validationf("month must be between 1 and 12, got %d", month)
	}
	prevYear, prevMonth := previousMonth(year, month)
	rng := DateRange{
		From: fmt.Sprintf("%s-01", monthOf(prevYear, prevMonth)),
		To:   lastDayOfMonth(year, month),
	}
	orders, products, err := s.load(ctx, rng, "")
	if err != nil {
		return nil, err
	}
	return ComputeProductInsights(orders, products, year, month), nil
}

// Financial returns aggregate totals for a timeframe keyword.
func (s *AnalyticsService) Financial(ctx context.Context, timeframe string) (*FinancialMetrics, error) {
	cur, prev, err := TimeframeWindow(timeframe, s.now())
	if err != nil {
		return nil, err
	}
	orders, products, err := s.load(ctx, DateRange{From: prev.From, To: cur.To}, "")
	if err != nil {
		return nil, err
	}
	m := ComputeFinancialMetrics(orders, products, timeframe, cur, prev)
	return &m, nil
}

func lastDayOfMonth(year, month int) string {
	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return first.AddDate(0, 1, -1).Format(dateLayout)
}
