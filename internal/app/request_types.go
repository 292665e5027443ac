package app

// OrderLineRequest is one line of a create or update request.
type OrderLineRequest struct {
	ProductID int    `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Note      string `json:"note,omitempty"`
}

// CreateOrderRequest carries the requester-supplied order fields. The branch
// is always the identity's own branch and cannot be chosen.
type CreateOrderRequest struct {
	OrderDate string             `json:"order_date"`
	Lines     []OrderLineRequest `json:"lines"`
	Note      string             `json:"note,omitempty"`
}

// UpdateOrderRequest is a partial edit of a pending order. Nil fields are
// left unchanged; a non-nil Lines slice replaces all lines.
type UpdateOrderRequest struct {
	OrderDate *string            `json:"order_date,omitempty"`
	Lines     []OrderLineRequest `json:"lines,omitempty"`
	Note      *string            `json:"note,omitempty"`
}

// ListOrdersRequest holds list filters. Branch requires the admin
// branch-filter capability; ViewAll grants workers read-only team visibility.
type ListOrdersRequest struct {
	Date    string
	Branch  string
	Status  string
	Page    int
	Limit   int
	ViewAll bool
}
