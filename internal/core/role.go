package core

// Role is the closed set of identities this system recognizes. Routes never
// compare role strings directly; all authorization questions go through the
// capability table below via the scoping layer.
type Role string

const (
	RoleWorker Role = "worker" // branch staff submitting supply orders
	RoleEditor Role = "editor" // reviewer with status-transition rights
	RoleAdmin  Role = "admin"  // reviewer with full visibility and deletion rights
)

// ParseRole validates a role string coming from an external token.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleWorker, RoleEditor, RoleAdmin:
		return Role(s), nil
	}
	return "", Validationf("unknown role %q", s)
}

// Capability names a single permission consulted by the scoping layer.
type Capability int

const (
	// CapViewAllOrders allows reading orders of any requester and branch.
	CapViewAllOrders Capability = iota
	// CapFilterByBranch allows restricting list queries to a chosen branch.
	CapFilterByBranch
	// CapTransitionStatus allows approving, rejecting, and completing orders.
	CapTransitionStatus
	// CapDeleteAnyOrder allows deleting orders of any requester at any status.
	CapDeleteAnyOrder
	// CapViewAggregates allows the stats, analytics, and export endpoints.
	CapViewAggregates
)

// capabilities is the single authorization table. Workers act only on their
// own orders; editors and admins are reviewers with identical read and
// transition rights, tracked as distinct identities for audit; only admins
// filter by branch or delete outside the pending-owner rule.
var capabilities = map[Role]map[Capability]bool{
	RoleWorker: {},
	RoleEditor: {
		CapViewAllOrders:    true,
		CapTransitionStatus: true,
		CapViewAggregates:   true,
	},
	RoleAdmin: {
		CapViewAllOrders:    true,
		CapFilterByBranch:   true,
		CapTransitionStatus: true,
		CapDeleteAnyOrder:   true,
		CapViewAggregates:   true,
	},
}

// Can reports whether the role holds the capability.
func (r Role) Can(c Capability) bool { return capabilities[r][c] }

// IsReviewer reports whether the role may transition order status.
func (r Role) IsReviewer() bool { return r.Can(CapTransitionStatus) }

// Identity is the authenticated caller, supplied by the external session
// service via JWT claims. It is trusted as-is and never re-verified here.
type Identity struct {
	UserID int
	Name   string
	Role   Role
	Branch string
}
