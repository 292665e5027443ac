package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100

	// numberRetries bounds the retry loop on order-number collisions.
	// The sequence upsert makes collisions near-impossible, but the unique
	// index is the final authority and a retry costs one round trip.
	numberRetries = 3
)

// OrderService persists orders and enforces the lifecycle rules. Every
// operation takes the caller's Scope; the service never consults the
// identity beyond what the scope exposes.
type OrderService interface {
	// Create validates input and inserts a pending order, assigning the
	// day-scoped sequential order number atomically.
	Create(ctx context.Context, scope Scope, input CreateOrderInput) (*Order, error)

	// Get returns one order with its lines. An order outside the caller's
	// scope yields an authorization error, not not-found.
	Get(ctx context.Context, scope Scope, id int) (*Order, error)

	// List returns orders matching the filter within the caller's scope,
	// newest first, paginated. The total count ignores pagination.
	List(ctx context.Context, scope Scope, filter OrderFilter) ([]Order, int, error)

	// ListRange returns all orders in a date window, optionally limited to
	// one branch, with lines attached. It is unscoped: callers gate access
	// (the aggregate endpoints are reviewer-only).
	ListRange(ctx context.Context, rng DateRange, branch string) ([]Order, error)

	// Update edits a pending order's items, date, or notes. Owner only.
	Update(ctx context.Context, scope Scope, id int, input UpdateOrderInput) (*Order, error)

	// Delete removes an order: owner while pending, admin at any status.
	Delete(ctx context.Context, scope Scope, id int) error

	// UpdateStatus transitions the order lifecycle, stamping the reviewer
	// identity and timestamp atomically with the status change.
	UpdateStatus(ctx context.Context, scope Scope, id int, next Status, note string) (*Order, error)
}

type orderService struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// NewOrderService constructs an OrderService backed by PostgreSQL.
func NewOrderService(pool *pgxpool.Pool) OrderService {
	return &orderService{pool: pool, now: time.Now}
}

// ── Create ────────────────────────────────────────────────────────────────────

func validateLines(lines []OrderLineInput) error {
	if len(lines) == 0 {
		return Validationf("order must have at least one line")
	}
	for i, l := range lines {
		if l.ProductID <= 0 {
			return Validationf("line %d: product reference is required", i+1)
		}
		if l.Quantity < 1 {
			return Validationf("line %d: quantity must be at least 1, got %d", i+1, l.Quantity)
		}
	}
	return nil
}

func (s *orderService) validateOrderDate(raw string) (string, error) {
	d, err := time.Parse(dateLayout, raw)
	if err != nil {
		return "", Validationf("order date %q is not a valid YYYY-MM-DD date", raw)
	}
	today := s.now().Format(dateLayout)
	if d.Format(dateLayout) < today {
		return "", Validationf("order date %s is earlier than today", raw)
	}
	return d.Format(dateLayout), nil
}

func (s *orderService) Create(ctx context.Context, scope Scope, input CreateOrderInput) (*Order, error) {
	if err := validateLines(input.Lines); err != nil {
		return nil, err
	}
	orderDate, err := s.validateOrderDate(input.OrderDate)
	if err != nil {
		return nil, err
	}

	id := scope.Identity()

	var lastErr error
	for attempt := 0; attempt < numberRetries; attempt++ {
		orderID, err := s.insertOrder(ctx, id, orderDate, input)
		if err == nil {
			return s.fetchOrder(ctx, orderID)
		}
		if !isUniqueViolation(err) {
			return nil, err
		}
		lastErr = err
	}
	return nil, wrapf(KindConflict, lastErr, "order number assignment kept colliding")
}

// insertOrder runs one creation attempt: sequence upsert, header insert,
// line inserts, all in a single transaction so concurrent creations on the
// same day can never share a number.
func (s *orderService) insertOrder(ctx context.Context, id Identity, orderDate string, input CreateOrderInput) (int, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	day := s.now().Format(dateLayout)
	var seq int64
	if err := tx.QueryRow(ctx, `
		INSERT INTO order_sequences (order_day, last_number)
		VALUES ($1, 1)
		ON CONFLICT (order_day)
		DO UPDATE SET last_number = order_sequences.last_number + 1
		RETURNING last_number`,
		day,
	).Scan(&seq); err != nil {
		return 0, fmt.Errorf("advance order sequence for %s: %w", day, err)
	}

	orderNumber := fmt.Sprintf("ORD-%s-%03d", s.now().Format("20060102"), seq)

	var note *string
	if input.Note != "" {
		note = &input.Note
	}

	var orderID int
	if err := tx.QueryRow(ctx, `
		INSERT INTO orders (order_number, requester_id, requester_name, branch,
		                    order_date, status, note)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		orderNumber, id.UserID, id.Name, id.Branch, orderDate, StatusPending, note,
	).Scan(&orderID); err != nil {
		return 0, fmt.Errorf("insert order: %w", err)
	}

	if err := insertLines(ctx, tx, orderID, input.Lines); err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit order: %w", err)
	}
	return orderID, nil
}

func insertLines(ctx context.Context, tx pgx.Tx, orderID int, lines []OrderLineInput) error {
	for i, l := range lines {
		var note *string
		if l.Note != "" {
			n := l.Note
			note = &n
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO order_lines (order_id, line_number, product_id, quantity, note)
			VALUES ($1, $2, $3, $4, $5)`,
			orderID, i+1, l.ProductID, l.Quantity, note,
		); err != nil {
			return fmt.Errorf("insert order line %d: %w", i+1, err)
		}
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// ── Read ──────────────────────────────────────────────────────────────────────

const orderColumns = `
	o.id, o.order_number, o.requester_id, o.requester_name, o.branch,
	o.order_date::text, o.status, o.note, o.reviewer_note,
	o.processed_by, o.processed_by_name, o.processed_at,
	o.created_at, o.updated_at`

func scanOrder(row pgx.Row, o *Order) error {
	return row.Scan(
		&o.ID, &o.OrderNumber, &o.RequesterID, &o.RequesterName, &o.Branch,
		&o.OrderDate, &o.Status, &o.Note, &o.ReviewerNote,
		&o.ProcessedBy, &o.ProcessedByName, &o.ProcessedAt,
		&o.CreatedAt, &o.UpdatedAt,
	)
}

func (s *orderService) Get(ctx context.Context, scope Scope, id int) (*Order, error) {
	o, err := s.fetchOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if !scope.CanRead(o) {
		return nil, Authorizationf("order %d belongs to another requester", id)
	}
	return o, nil
}

func (s *orderService) fetchOrder(ctx context.Context, id int) (*Order, error) {
	o := &Order{}
	err := scanOrder(s.pool.QueryRow(ctx,
		"SELECT"+orderColumns+" FROM orders o WHERE o.id = $1", id), o)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, NotFoundf("order %d not found", id)
		}
		return nil, fmt.Errorf("get order %d: %w", id, err)
	}

	lines, err := s.fetchLines(ctx, []int{id})
	if err != nil {
		return nil, err
	}
	o.Lines = lines[id]
	if o.Lines == nil {
		o.Lines = []OrderLine{}
	}
	return o, nil
}

func (s *orderService) fetchLines(ctx context.Context, orderIDs []int) (map[int][]OrderLine, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, order_id, line_number, product_id, quantity, note
		FROM order_lines
		WHERE order_id = ANY($1)
		ORDER BY order_id, line_number`,
		orderIDs,
	)
	if err != nil {
		return nil, fmt.Errorf("fetch order lines: %w", err)
	}
	defer rows.Close()

	out := make(map[int][]OrderLine)
	for rows.Next() {
		var l OrderLine
		if err := rows.Scan(&l.ID, &l.OrderID, &l.LineNumber, &l.ProductID, &l.Quantity, &l.Note); err != nil {
			return nil, fmt.Errorf("scan order line: %w", err)
		}
		out[l.OrderID] = append(out[l.OrderID], l)
	}
	return out, rows.Err()
}

func (s *orderService) List(ctx context.Context, scope Scope, filter OrderFilter) ([]Order, int, error) {
	branch, err := scope.BranchFilter(filter.Branch)
	if err != nil {
		return nil, 0, err
	}

	where := " WHERE 1=1"
	var args []any
	add := func(cond string, v any) {
		args = append(args, v)
		where += fmt.Sprintf(" AND "+cond, len(args))
	}

	if rid := scope.RequesterID(); rid != nil {
		add("o.requester_id = $%d", *rid)
	}
	if filter.Date != "" {
		if _, err := time.Parse(dateLayout, filter.Date); err != nil {
			return nil, 0, Validationf("date filter %q is not a valid YYYY-MM-DD date", filter.Date)
		}
		add("o.order_date = $%d::date", filter.Date)
	}
	if branch != "" {
		add("o.branch = $%d", branch)
	}
	if filter.Status != "" {
		st, err := ParseStatus(filter.Status)
		if err != nil {
			return nil, 0, err
		}
		add("o.status = $%d", st)
	}

	var total int
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM orders o"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	argLimit := len(args) + 1
	argOffset := len(args) + 2
	args = append(args, limit, (page-1)*limit)

	q := "SELECT" + orderColumns + " FROM orders o" + where +
		fmt.Sprintf(" ORDER BY o.created_at DESC, o.id DESC LIMIT $%d OFFSET $%d", argLimit, argOffset)

	orders, err := s.queryOrders(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func (s *orderService) ListRange(ctx context.Context, rng DateRange, branch string) ([]Order, error) {
	where := " WHERE 1=1"
	var args []any
	add := func(cond string, v any) {
		args = append(args, v)
		where += fmt.Sprintf(" AND "+cond, len(args))
	}
	if rng.From != "" {
		add("o.order_date >= $%d::date", rng.From)
	}
	if rng.To != "" {
		add("o.order_date <= $%d::date", rng.To)
	}
	if branch != "" {
		add("o.branch = $%d", branch)
	}
	q := "SELECT" + orderColumns + " FROM orders o" + where + " ORDER BY o.order_date ASC, o.id ASC"
	return s.queryOrders(ctx, q, args...)
}

func (s *orderService) queryOrders(ctx context.Context, q string, args ...any) ([]Order, error) {
	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var orders []Order
	var ids []int
	for rows.Next() {
		var o Order
		if err := scanOrder(rows, &o); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
		ids = append(ids, o.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return []Order{}, nil
	}

	lines, err := s.fetchLines(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Lines = lines[orders[i].ID]
		if orders[i].Lines == nil {
			orders[i].Lines = []OrderLine{}
		}
	}
	return orders, nil
}

// ── Update ────────────────────────────────────────────────────────────────────

func (s *orderService) Update(ctx context.Context, scope Scope, id int, input UpdateOrderInput) (*Order, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	o, err := lockOrder(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if !scope.CanEdit(o) {
		return nil, Authorizationf("only the requester may edit order %d", id)
	}
	if !o.Status.Editable() {
		return nil, InvalidStatef("order %d is %s and can no longer be edited", id, o.Status)
	}

	orderDate := o.OrderDate
	if input.OrderDate != nil {
		orderDate, err = s.validateOrderDate(*input.OrderDate)
		if err != nil {
			return nil, err
		}
	}
	note := o.Note
	if input.Note != nil {
		if *input.Note == "" {
			note = nil
		} else {
			note = input.Note
		}
	}

	if _, err := tx.Exec(ctx, `
		UPDATE orders SET order_date = $1, note = $2, updated_at = NOW()
		WHERE id = $3`,
		orderDate, note, id,
	); err != nil {
		return nil, fmt.Errorf("update order %d: %w", id, err)
	}

	if input.Lines != nil {
		if err := validateLines(input.Lines); err != nil {
			return nil, err
		}
		if _, err := tx.Exec(ctx, "DELETE FROM order_lines WHERE order_id = $1", id); err != nil {
			return nil, fmt.Errorf("replace lines of order %d: %w", id, err)
		}
		if err := insertLines(ctx, tx, id, input.Lines); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit order update: %w", err)
	}
	return s.fetchOrder(ctx, id)
}

// lockOrder reads an order header FOR UPDATE inside tx.
func lockOrder(ctx context.Context, tx pgx.Tx, id int) (*Order, error) {
	o := &Order{}
	err := scanOrder(tx.QueryRow(ctx,
		"SELECT"+orderColumns+" FROM orders o WHERE o.id = $1 FOR UPDATE", id), o)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, NotFoundf("order %d not found", id)
		}
		return nil, fmt.Errorf("lock order %d: %w", id, err)
	}
	return o, nil
}

// ── Delete ────────────────────────────────────────────────────────────────────

func (s *orderService) Delete(ctx context.Context, scope Scope, id int) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	o, err := lockOrder(ctx, tx, id)
	if err != nil {
		return err
	}
	ok, pendingOnly := scope.CanDelete(o)
	if !ok {
		return Authorizationf("order %d belongs to another requester", id)
	}
	if pendingOnly && !o.Status.Editable() {
		return InvalidStatef("order %d is %s and can no longer be deleted by its requester", id, o.Status)
	}

	if _, err := tx.Exec(ctx, "DELETE FROM order_lines WHERE order_id = $1", id); err != nil {
		return fmt.Errorf("delete lines of order %d: %w", id, err)
	}
	if _, err := tx.Exec(ctx, "DELETE FROM orders WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete order %d: %w", id, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit order deletion: %w", err)
	}
	return nil
}

// ── Status transitions ────────────────────────────────────────────────────────

func (s *orderService) UpdateStatus(ctx context.Context, scope Scope, id int, next Status, note string) (*Order, error) {
	if !scope.CanTransition() {
		return nil, Authorizationf("role %s may not change order status", scope.Identity().Role)
	}
	if _, err := ParseStatus(string(next)); err != nil {
		return nil, err
	}
	if next == StatusPending {
		return nil, InvalidStatef("orders cannot return to pending")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	o, err := lockOrder(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if err := o.Status.Transition(next); err != nil {
		return nil, err
	}

	reviewer := scope.Identity()
	var reviewerNote *string
	if note != "" {
		reviewerNote = &note
	}

	if _, err := tx.Exec(ctx, `
		UPDATE orders
		SET status = $1, reviewer_note = $2,
		    processed_by = $3, processed_by_name = $4, processed_at = NOW(),
		    updated_at = NOW()
		WHERE id = $5`,
		next, reviewerNote, reviewer.UserID, reviewer.Name, id,
	); err != nil {
		return nil, fmt.Errorf("transition order %d to %s: %w", id, next, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit status transition: %w", err)
	}
	return s.fetchOrder(ctx, id)
}
