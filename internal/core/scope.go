package core

// Scope is the mandatory query predicate computed from an identity before
// any store call. The store itself carries no authorization logic: it only
// applies whatever restriction the scope dictates.
type Scope struct {
	identity Identity
	// requesterID, when non-nil, restricts reads to orders owned by that
	// requester. Nil means unrestricted (reviewers, or view-all mode).
	requesterID *int
	// readOnly marks the worker "view all" mode: team-wide visibility with
	// mutation still limited to the worker's own pending orders.
	readOnly bool
}

// ScopeOptions tunes scope construction per request.
type ScopeOptions struct {
	// ViewAll requests cross-branch, cross-requester read visibility.
	// For workers this yields a read-only scope; reviewers already see all.
	ViewAll bool
}

// NewScope computes the access scope for an identity.
func NewScope(id Identity, opts ScopeOptions) Scope {
	s := Scope{identity: id}
	if id.Role.Can(CapViewAllOrders) {
		return s
	}
	if opts.ViewAll {
		s.readOnly = true
		return s
	}
	uid := id.UserID
	s.requesterID = &uid
	return s
}

// Identity returns the identity the scope was built for.
func (s Scope) Identity() Identity { return s.identity }

// RequesterID returns the requester restriction for list queries,
// or nil when reads are unrestricted.
func (s Scope) RequesterID() *int { return s.requesterID }

// CanRead reports whether the scoped identity may see the order at all.
// A false result must surface as an authorization error, not not-found:
// "exists but forbidden" stays distinguishable from "absent".
func (s Scope) CanRead(o *Order) bool {
	if s.requesterID == nil {
		return true
	}
	return o.RequesterID == *s.requesterID
}

// CanEdit reports whether the identity may mutate the order's items, date,
// and notes. Only the owning requester may, and state is checked separately
// so callers can return invalid-state instead of authorization errors.
func (s Scope) CanEdit(o *Order) bool {
	if s.identity.Role.IsReviewer() {
		return false // reviewers change status, not content
	}
	return o.RequesterID == s.identity.UserID
}

// CanDelete reports whether the identity may delete the order.
// Owners delete their own pending orders; admins delete at any status.
func (s Scope) CanDelete(o *Order) (ok bool, pendingOnly bool) {
	if s.identity.Role.Can(CapDeleteAnyOrder) {
		return true, false
	}
	return o.RequesterID == s.identity.UserID, true
}

// CanTransition reports whether the identity may change order status.
func (s Scope) CanTransition() bool {
	return !s.readOnly && s.identity.Role.Can(CapTransitionStatus)
}

// BranchFilter validates a requested branch filter against the capability
// table, returning the effective filter value.
func (s Scope) BranchFilter(requested string) (string, error) {
	if requested == "" {
		return "", nil
	}
	if !s.identity.Role.Can(CapFilterByBranch) {
		return "", Authorizationf("role %s may not filter orders by branch", s.identity.Role)
	}
	return requested, nil
}
