package core

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// ── Document model ────────────────────────────────────────────────────────────

// ReportFilters records the selection a report was generated for.
type ReportFilters struct {
	From   string `json:"from,omitempty"`
	To     string `json:"to,omitempty"`
	Branch string `json:"branch,omitempty"`
}

// Row is one printable line of a report block.
type Row struct {
	Label    string          `json:"label"`
	Category string          `json:"category,omitempty"`
	Quantity int             `json:"quantity,omitempty"`
	Value    decimal.Decimal `json:"value"`
	Deleted  bool            `json:"deleted,omitempty"` // dangling product reference
}

// Block is a headed group of rows. A block never starts at the very bottom
// of a page: its heading always shares a page with at least its first row.
// Long blocks continue on following pages with Continued set.
type Block struct {
	Kind      string `json:"kind"` // "status_summary", "category_summary", "branch", "order", "totals", "empty"
	Heading   string `json:"heading"`
	Continued bool   `json:"continued,omitempty"`
	Rows      []Row  `json:"rows"`
}

// Page is one page of the rendered document.
type Page struct {
	Number int     `json:"number"`
	Blocks []Block `json:"blocks"`
}

// ReportTotals is the closing totals block in structured form.
type ReportTotals struct {
	OrderCount    int             `json:"order_count"`
	ItemCount     int             `json:"item_count"` // includes dangling lines
	TotalValue    decimal.Decimal `json:"total_value"`
	DanglingLines int             `json:"dangling_lines"`
}

// Document is a paginated order report. An empty selection still yields a
// well-formed document with an explicit "no orders found" section.
type Document struct {
	Title       string        `json:"title"`
	GeneratedAt time.Time     `json:"generated_at"`
	Filters     ReportFilters `json:"filters"`
	Empty       bool          `json:"empty"`
	Totals      ReportTotals  `json:"totals"`
	Pages       []Page        `json:"pages"`
}

// pageCapacity is the number of printable lines per page. A block heading
// costs one line, each row one line.
const pageCapacity = 40

// categoryOrder is the fixed display order for product categories. Unknown
// categories sort after these, alphabetically.
var categoryOrder = []string{"food", "beverage", "packaging", "cleaning", "equipment", "other"}

func categoryRank(c string) int {
	for i, k := range categoryOrder {
		if k == c {
			return i
		}
	}
	return len(categoryOrder)
}

func lessByCategory(a, b string) bool {
	ra, rb := categoryRank(a), categoryRank(b)
	if ra != rb {
		return ra < rb
	}
	return a < b
}

// ── Builder ───────────────────────────────────────────────────────────────────

// docBuilder assembles pages incrementally so a large report never needs the
// whole flat row list in one slice per page decision.
type docBuilder struct {
	doc       *Document
	remaining int
}

func newDocBuilder(doc *Document) *docBuilder {
	b := &docBuilder{doc: doc}
	b.newPage()
	return b
}

func (b *docBuilder) newPage() {
	b.doc.Pages = append(b.doc.Pages, Page{Number: len(b.doc.Pages) + 1})
	b.remaining = pageCapacity
}

func (b *docBuilder) currentPage() *Page {
	return &b.doc.Pages[len(b.doc.Pages)-1]
}

// placeBlock appends a block, breaking to a new page whenever the remaining
// space cannot fit the next piece. The heading is never separated from the
// first row; continuations repeat the heading with Continued set.
func (b *docBuilder) placeBlock(block Block) {
	// heading + first row must fit together
	need := 1
	if len(block.Rows) > 0 {
		need = 2
	}
	if b.remaining < need {
		b.newPage()
	}

	open := Block{Kind: block.Kind, Heading: block.Heading}
	b.remaining-- // heading
	for _, row := range block.Rows {
		if b.remaining < 1 {
			p := b.currentPage()
			p.Blocks = append(p.Blocks, open)
			b.newPage()
			open = Block{Kind: block.Kind, Heading: block.Heading, Continued: true}
			b.remaining-- // continuation heading
		}
		open.Rows = append(open.Rows, row)
		b.remaining--
	}
	p := b.currentPage()
	p.Blocks = append(p.Blocks, open)
}

// ── Report construction ───────────────────────────────────────────────────────

// BuildReport renders an already access-scoped, filtered order set plus its
// resolved products into a paginated document. Dangling lines are priced at
// zero and labeled "product deleted", never dropped: historical orders stay
// auditable after catalog changes.
func BuildReport(orders []Order, products map[int]Product, filters ReportFilters, generatedAt time.Time) *Document {
	doc := &Document{
		Title:       "Supply Order Report",
		GeneratedAt: generatedAt,
		Filters:     filters,
		Totals:      ReportTotals{TotalValue: decimal.Zero},
	}
	b := newDocBuilder(doc)

	if len(orders) == 0 {
		doc.Empty = true
		b.placeBlock(Block{
			Kind:    "empty",
			Heading: "No orders found for this selection",
		})
		return doc
	}

	b.placeBlock(statusSummaryBlock(orders))
	for _, blk := range categorySummaryBlocks(orders, products) {
		b.placeBlock(blk)
	}
	for _, blk := range branchBlocks(orders, products) {
		b.placeBlock(blk)
	}

	doc.Totals = computeTotals(orders, products)
	b.placeBlock(totalsBlock(doc.Totals))
	return doc
}

func statusSummaryBlock(orders []Order) Block {
	counts := make(map[Status]int)
	for _, o := range orders {
		counts[o.Status]++
	}
	blk := Block{Kind: "status_summary", Heading: "Orders by status"}
	for _, st := range []Status{StatusPending, StatusApproved, StatusRejected, StatusCompleted} {
		if counts[st] == 0 {
			continue
		}
		blk.Rows = append(blk.Rows, Row{Label: string(st), Quantity: counts[st], Value: decimal.Zero})
	}
	return blk
}

// categorySummaryBlocks groups product quantities and values by catalog
// category, one block per category in fixed display order. Dangling lines
// collect under a dedicated "product deleted" row in the final category.
func categorySummaryBlocks(orders []Order, products map[int]Product) []Block {
	type prodAcc struct {
		name  string
		qty   int
		value decimal.Decimal
	}
	byCategory := make(map[string]map[int]*prodAcc)
	for _, o := range orders {
		for _, l := range o.Lines {
			cat := "other"
			name := "product deleted"
			if p, ok := products[l.ProductID]; ok {
				cat = p.Category
				name = p.Name
			}
			if byCategory[cat] == nil {
				byCategory[cat] = make(map[int]*prodAcc)
			}
			a := byCategory[cat][l.ProductID]
			if a == nil {
				a = &prodAcc{name: name, value: decimal.Zero}
				byCategory[cat][l.ProductID] = a
			}
			a.qty += l.Quantity
			a.value = a.value.Add(lineValue(l, products))
		}
	}

	cats := make([]string, 0, len(byCategory))
	for c := range byCategory {
		cats = append(cats, c)
	}
	sort.Slice(cats, func(i, j int) bool { return lessByCategory(cats[i], cats[j]) })

	var blocks []Block
	for _, cat := range cats {
		blk := Block{Kind: "category_summary", Heading: "Category: " + cat}
		pids := make([]int, 0, len(byCategory[cat]))
		for pid := range byCategory[cat] {
			pids = append(pids, pid)
		}
		sort.Ints(pids)
		for _, pid := range pids {
			a := byCategory[cat][pid]
			_, resolved := products[pid]
			blk.Rows = append(blk.Rows, Row{
				Label:    a.name,
				Category: cat,
				Quantity: a.qty,
				Value:    a.value.Round(2),
				Deleted:  !resolved,
			})
		}
		blocks = append(blocks, blk)
	}
	return blocks
}

// branchBlocks emits one heading block per branch followed by one block per
// order, its lines sorted into the fixed category order.
func branchBlocks(orders []Order, products map[int]Product) []Block {
	byBranch := make(map[string][]Order)
	for _, o := range orders {
		byBranch[o.Branch] = append(byBranch[o.Branch], o)
	}
	branches := make([]string, 0, len(byBranch))
	for br := range byBranch {
		branches = append(branches, br)
	}
	sort.Strings(branches)

	var blocks []Block
	for _, br := range branches {
		blocks = append(blocks, Block{
			Kind:    "branch",
			Heading: "Branch: " + br,
			Rows: []Row{
				{Label: fmt.Sprintf("%d orders", len(byBranch[br])), Value: decimal.Zero},
			},
		})
		for _, o := range byBranch[br] {
			blk := Block{
				Kind:    "order",
				Heading: fmt.Sprintf("%s %s (%s) by %s", o.OrderNumber, o.OrderDate, o.Status, o.RequesterName),
			}
			lines := append([]OrderLine(nil), o.Lines...)
			sort.SliceStable(lines, func(i, j int) bool {
				return lessByCategory(lineCategory(lines[i], products), lineCategory(lines[j], products))
			})
			for _, l := range lines {
				name := "product deleted"
				unit := ""
				if p, ok := products[l.ProductID]; ok {
					name = p.Name
					unit = p.Unit
				}
				label := name
				if unit != "" {
					label = fmt.Sprintf("%s (%s)", name, unit)
				}
				_, resolved := products[l.ProductID]
				blk.Rows = append(blk.Rows, Row{
					Label:    label,
					Category: lineCategory(l, products),
					Quantity: l.Quantity,
					Value:    lineValue(l, products).Round(2),
					Deleted:  !resolved,
				})
			}
			blocks = append(blocks, blk)
		}
	}
	return blocks
}

func lineCategory(l OrderLine, products map[int]Product) string {
	if p, ok := products[l.ProductID]; ok {
		return p.Category
	}
	return "other"
}

func computeTotals(orders []Order, products map[int]Product) ReportTotals {
	t := ReportTotals{OrderCount: len(orders), TotalValue: decimal.Zero}
	for _, o := range orders {
		for _, l := range o.Lines {
			t.ItemCount += l.Quantity
			if _, ok := products[l.ProductID]; !ok {
				t.DanglingLines++
			}
		}
		t.TotalValue = t.TotalValue.Add(orderValue(o, products))
	}
	t.TotalValue = t.TotalValue.Round(2)
	return t
}

func totalsBlock(t ReportTotals) Block {
	return Block{
		Kind:    "totals",
		Heading: "Totals",
		Rows: []Row{
			{Label: "orders", Quantity: t.OrderCount, Value: decimal.Zero},
			{Label: "items", Quantity: t.ItemCount, Value: decimal.Zero},
			{Label: "total value", Value: t.TotalValue},
			{Label: "lines with deleted products", Quantity: t.DanglingLines, Value: decimal.Zero},
		},
	}
}

// ── Text rendering ────────────────────────────────────────────────────────────

// WriteText streams the document as plain text, page by page, so a large
// report never materializes as a single string.
func (d *Document) WriteText(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "%s\ngenerated: %s\n", d.Title, d.GeneratedAt.Format(time.RFC3339)); err != nil {
		return err
	}
	if d.Filters.From != "" || d.Filters.To != "" {
		if _, err := fmt.Fprintf(w, "period: %s .. %s\n", d.Filters.From, d.Filters.To); err != nil {
			return err
		}
	}
	if d.Filters.Branch != "" {
		if _, err := fmt.Fprintf(w, "branch: %s\n", d.Filters.Branch); err != nil {
			return err
		}
	}

	for _, page := range d.Pages {
		if _, err := fmt.Fprintf(w, "\n----- page %d -----\n", page.Number); err != nil {
			return err
		}
		for _, blk := range page.Blocks {
			heading := blk.Heading
			if blk.Continued {
				heading += " (continued)"
			}
			if _, err := fmt.Fprintln(w, heading); err != nil {
				return err
			}
			for _, row := range blk.Rows {
				if err := writeRow(w, row); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func writeRow(w io.Writer, row Row) error {
	label := row.Label
	if row.Deleted {
		label += " [product deleted]"
	}
	switch {
	case row.Quantity > 0 && !row.Value.IsZero():
		_, err := fmt.Fprintf(w, "  %-40s x%-5d %s\n", label, row.Quantity, row.Value.StringFixed(2))
		return err
	case row.Quantity > 0:
		_, err := fmt.Fprintf(w, "  %-40s x%d\n", label, row.Quantity)
		return err
	case !row.Value.IsZero():
		_, err := fmt.Fprintf(w, "  %-40s %s\n", label, row.Value.StringFixed(2))
		return err
	default:
		_, err := fmt.Fprintf(w, "  %s\n", label)
		return err
	}
}
