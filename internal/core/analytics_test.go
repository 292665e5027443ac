package core_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"branch-supply/internal/core"
)

func products() map[int]core.Product {
	return map[int]core.Product{
		1: {ID: 1, Name: "Flour 20kg", Price: decimal.NewFromInt(30000), Unit: "bag", Category: "food"},
		2: {ID: 2, Name: "Cola Syrup", Price: decimal.NewFromInt(12000), Unit: "box", Category: "beverage"},
		3: {ID: 3, Name: "Paper Cups", Price: decimal.NewFromInt(5000), Unit: "pack", Category: "packaging"},
	}
}

func order(id int, branch, orderDate string, status core.Status, lines ...core.OrderLine) core.Order {
	return core.Order{
		ID:        id,
		Branch:    branch,
		OrderDate: orderDate,
		Status:    status,
		Lines:     lines,
	}
}

func line(productID, qty int) core.OrderLine {
	return core.OrderLine{ProductID: productID, Quantity: qty}
}

func TestComputeBranchStats_TotalsExcludeDanglingValues(t *testing.T) {
	// Product 99 does not resolve: its lines price at zero but still count.
	orders := []core.Order{
		order(1, "Gangnam", "2026-08-05", core.StatusPending, line(1, 2), line(99, 3)),
		order(2, "Gangnam", "2026-08-12", core.StatusCompleted, line(2, 1)),
		order(3, "Hongdae", "2026-08-20", core.StatusApproved, line(3, 10)),
	}

	stats := core.ComputeBranchStats(orders, products(), 2026, 8, 5)
	if len(stats) != 2 {
		t.Fatalf("expected 2 branches, got %d", len(stats))
	}

	gangnam := stats[0]
	if gangnam.Branch != "Gangnam" {
		t.Fatalf("branches must sort by name, got %q first", gangnam.Branch)
	}
	// 2×30000 + 0 (dangling) + 1×12000
	if !gangnam.TotalValue.Equal(decimal.NewFromInt(72000)) {
		t.Errorf("Gangnam total: expected 72000, got %s", gangnam.TotalValue)
	}
	if gangnam.OrderCount != 2 || gangnam.PendingCount != 1 || gangnam.CompletedCount != 1 {
		t.Errorf("Gangnam counts wrong: %+v", gangnam)
	}
	if !gangnam.AverageValue.Equal(decimal.NewFromInt(36000)) {
		t.Errorf("Gangnam average: expected 36000, got %s", gangnam.AverageValue)
	}

	// The dangling product still ranks in top products by quantity.
	found := false
	for _, tp := range gangnam.TopProducts {
		if tp.ProductID == 99 {
			found = true
			if !tp.Deleted || tp.Name != "product deleted" {
				t.Errorf("dangling product must be labeled deleted: %+v", tp)
			}
			if tp.Quantity != 3 {
				t.Errorf("dangling quantity: expected 3, got %d", tp.Quantity)
			}
		}
	}
	if !found {
		t.Error("dangling product must appear in item counts, not be dropped")
	}
}

func TestComputeBranchStats_TrendZeroWhenNoPreviousPeriod(t *testing.T) {
	orders := []core.Order{
		order(1, "Gangnam", "2026-08-05", core.StatusPending, line(1, 1)),
	}
	stats := core.ComputeBranchStats(orders, products(), 2026, 8, 5)
	if len(stats) != 1 {
		t.Fatalf("expected 1 branch, got %d", len(stats))
	}
	if !stats[0].TrendPct.IsZero() {
		t.Errorf("trend with empty previous period must be 0, got %s", stats[0].TrendPct)
	}
}

func TestComputeBranchStats_TrendAgainstPreviousMonth(t *testing.T) {
	orders := []core.Order{
		order(1, "Gangnam", "2026-07-10", core.StatusCompleted, line(1, 1)), // prev: 30000
		order(2, "Gangnam", "2026-08-10", core.StatusCompleted, line(1, 2)), // cur: 60000
	}
	stats := core.ComputeBranchStats(orders, products(), 2026, 8, 5)
	if !stats[0].TrendPct.Equal(decimal.NewFromInt(100)) {
		t.Errorf("expected +100%% trend, got %s", stats[0].TrendPct)
	}
	if stats[0].OrderCount != 1 {
		t.Errorf("previous-month orders must not count in the current month, got %d", stats[0].OrderCount)
	}
}

func TestComputeBranchStats_TopNCutoff(t *testing.T) {
	orders := []core.Order{
		order(1, "Gangnam", "2026-08-01", core.StatusPending, line(1, 5), line(2, 3), line(3, 1)),
	}
	stats := core.ComputeBranchStats(orders, products(), 2026, 8, 2)
	if len(stats[0].TopProducts) != 2 {
		t.Fatalf("expected top 2 products, got %d", len(stats[0].TopProducts))
	}
	if stats[0].TopProducts[0].ProductID != 1 || stats[0].TopProducts[1].ProductID != 2 {
		t.Errorf("top products must rank by quantity: %+v", stats[0].TopProducts)
	}
}

func TestComputeProductInsights(t *testing.T) {
	orders := []core.Order{
		order(1, "Gangnam", "2026-08-01", core.StatusPending, line(1, 2)),
		order(2, "Gangnam", "2026-08-02", core.StatusPending, line(1, 1), line(2, 4)),
		order(3, "Hongdae", "2026-08-03", core.StatusPending, line(2, 2)),
		order(4, "Gangnam", "2026-07-15", core.StatusCompleted, line(1, 10)), // previous month
	}

	insights := core.ComputeProductInsights(orders, products(), 2026, 8)

	byID := make(map[int]core.ProductInsight)
	for _, in := range insights {
		byID[in.ProductID] = in
	}

	p1 := byID[1]
	if p1.TotalQuantity != 3 {
		t.Errorf("product 1 quantity: expected 3, got %d", p1.TotalQuantity)
	}
	if !p1.TotalValue.Equal(decimal.NewFromInt(90000)) {
		t.Errorf("product 1 value: expected 90000, got %s", p1.TotalValue)
	}
	// In 2 of 3 current-month orders.
	want := decimal.NewFromInt(2).Div(decimal.NewFromInt(3)).Mul(decimal.NewFromInt(100))
	if !p1.FrequencyPct.Equal(want) {
		t.Errorf("product 1 frequency: expected %s, got %s", want, p1.FrequencyPct)
	}
	if p1.Trend != "down" {
		t.Errorf("product 1 trend: expected down (3 < 10), got %q", p1.Trend)
	}

	p2 := byID[2]
	if p2.Trend != "up" {
		t.Errorf("product 2 trend: expected up (6 > 0), got %q", p2.Trend)
	}
}

func TestComputeDashboard(t *testing.T) {
	today := "2026-08-29"
	now := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
	yesterday := now.AddDate(0, 0, -1)

	completedAt := now
	oldOrder := order(1, "Gangnam", "2026-08-30", core.StatusPending, line(1, 1))
	oldOrder.CreatedAt = yesterday

	todayOrder := order(2, "Gangnam", "2026-08-30", core.StatusPending, line(1, 2), line(99, 1))
	todayOrder.CreatedAt = now

	doneToday := order(3, "Hongdae", "2026-08-29", core.StatusCompleted, line(2, 1))
	doneToday.CreatedAt = yesterday
	doneToday.ProcessedAt = &completedAt

	stats := core.ComputeDashboard([]core.Order{oldOrder, todayOrder, doneToday}, products(), today)

	if stats.OrdersToday != 1 {
		t.Errorf("orders today: expected 1, got %d", stats.OrdersToday)
	}
	if stats.CompletedToday != 1 {
		t.Errorf("completed today: expected 1, got %d", stats.CompletedToday)
	}
	if stats.PendingCount != 2 {
		t.Errorf("pending count: expected 2, got %d", stats.PendingCount)
	}
	// 2×30000; the dangling line adds nothing.
	if !stats.TotalValueToday.Equal(decimal.NewFromInt(60000)) {
		t.Errorf("today's total: expected 60000, got %s", stats.TotalValueToday)
	}
}

func TestTimeframeWindow(t *testing.T) {
	ref := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)

	cur, prev, err := core.TimeframeWindow("week", ref)
	if err != nil {
		t.Fatalf("week window failed: %v", err)
	}
	if cur.From != "2026-08-23" || cur.To != "2026-08-29" {
		t.Errorf("current week window wrong: %+v", cur)
	}
	if prev.From != "2026-08-16" || prev.To != "2026-08-22" {
		t.Errorf("previous week window wrong: %+v", prev)
	}

	if _, _, err := core.TimeframeWindow("decade", ref); !core.IsKind(err, core.KindValidation) {
		t.Errorf("unknown timeframe must fail validation, got %v", err)
	}
}

func TestComputeFinancialMetrics(t *testing.T) {
	cur := core.DateRange{From: "2026-08-23", To: "2026-08-29"}
	prev := core.DateRange{From: "2026-08-16", To: "2026-08-22"}

	orders := []core.Order{
		order(1, "Gangnam", "2026-08-25", core.StatusCompleted, line(1, 1)), // 30000
		order(2, "Gangnam", "2026-08-26", core.StatusPending, line(2, 1)),   // 12000
		order(3, "Gangnam", "2026-08-18", core.StatusCompleted, line(1, 1)), // previous window
	}

	m := core.ComputeFinancialMetrics(orders, products(), "week", cur, prev)
	if m.OrderCount != 2 {
		t.Errorf("order count: expected 2, got %d", m.OrderCount)
	}
	if !m.TotalValue.Equal(decimal.NewFromInt(42000)) {
		t.Errorf("total: expected 42000, got %s", m.TotalValue)
	}
	if !m.AverageValue.Equal(decimal.NewFromInt(21000)) {
		t.Errorf("average: expected 21000, got %s", m.AverageValue)
	}
	if !m.TrendPct.Equal(decimal.NewFromInt(40)) {
		t.Errorf("trend: expected 40%% (42000 vs 30000), got %s", m.TrendPct)
	}
}

func TestComputeFinancialMetrics_EmptyPrevious(t *testing.T) {
	cur := core.DateRange{From: "2026-08-23", To: "2026-08-29"}
	prev := core.DateRange{From: "2026-08-16", To: "2026-08-22"}
	orders := []core.Order{
		order(1, "Gangnam", "2026-08-25", core.StatusPending, line(1, 1)),
	}
	m := core.ComputeFinancialMetrics(orders, products(), "week", cur, prev)
	if !m.TrendPct.IsZero() {
		t.Errorf("trend with zero previous must be 0, got %s", m.TrendPct)
	}
}
