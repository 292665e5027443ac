package core

import (
	"time"

	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

// Order is a branch's supply request. Branch and RequesterName are
// point-in-time snapshots taken at creation: renaming a branch or a user
// later never alters historical orders.
type Order struct {
	ID            int     `json:"id"`
	OrderNumber   string  `json:"order_number"` // ORD-YYYYMMDD-NNN, unique per day, monotonic within it
	RequesterID   int     `json:"requester_id"`
	RequesterName string  `json:"requester_name"`
	Branch        string  `json:"branch"`
	OrderDate     string  `json:"order_date"` // requested fulfillment date, YYYY-MM-DD
	Status        Status  `json:"status"`
	Note          *string `json:"note,omitempty"`          // requester note
	ReviewerNote  *string `json:"reviewer_note,omitempty"` // set on status transitions
	// Reviewer stamp, written atomically with every status transition.
	ProcessedBy     *int        `json:"processed_by,omitempty"`
	ProcessedByName *string     `json:"processed_by_name,omitempty"`
	ProcessedAt     *time.Time  `json:"processed_at,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
	Lines           []OrderLine `json:"lines"`
}

// OrderLine is a single product request on an order. ProductID is a soft
// reference: the product may be deleted from the catalog afterwards, leaving
// the line dangling. Resolution happens explicitly via Resolver.
type OrderLine struct {
	ID         int     `json:"id"`
	OrderID    int     `json:"order_id"`
	LineNumber int     `json:"line_number"`
	ProductID  int     `json:"product_id"`
	Quantity   int     `json:"quantity"`
	Note       *string `json:"note,omitempty"`
}

// Product is the catalog summary used to price and label order lines.
type Product struct {
	ID       int             `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Unit     string          `json:"unit"`
	Category string          `json:"category"`
}

// OrderLineInput holds the fields required to create or replace a line.
type OrderLineInput struct {
	ProductID int
	Quantity  int
	Note      string
}

// CreateOrderInput holds the requester-supplied fields for a new order.
// Branch is never part of the input: it is frozen from the identity.
type CreateOrderInput struct {
	OrderDate string // YYYY-MM-DD, must not be earlier than today
	Lines     []OrderLineInput
	Note      string
}

// UpdateOrderInput is a partial edit of a pending order. Nil fields are
// left unchanged; a non-nil Lines slice replaces all lines.
type UpdateOrderInput struct {
	OrderDate *string
	Lines     []OrderLineInput
	Note      *string
}

// OrderFilter narrows List results. Scope restrictions are applied on top
// of it by the scoping layer, never by the caller.
type OrderFilter struct {
	Date   string // exact order_date match, YYYY-MM-DD
	Branch string // admin capability only
	Status string
	Page   int // 1-based; zero means first page
	Limit  int // zero means the default page size
}

// DateRange bounds an aggregation window. Empty bounds are open.
type DateRange struct {
	From string // YYYY-MM-DD inclusive
	To   string // YYYY-MM-DD inclusive
}
