package core

// Status is the lifecycle state of an order.
//
//	pending ──┬──> approved ──┬──> completed
//	          │               └──> rejected
//	          ├──> rejected
//	          └──> completed
//
// rejected and completed are terminal. An approved order may still be
// rejected or completed: the re-review path is deliberately kept open.
// No transition ever returns to pending.
type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusCompleted Status = "completed"
)

// ParseStatus validates a status string from external input.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusApproved, StatusRejected, StatusCompleted:
		return Status(s), nil
	}
	return "", Validationf("unknown status %q", s)
}

// transitions is the allowed-transition table. Source states absent from
// the map (rejected, completed) are terminal.
var transitions = map[Status][]Status{
	StatusPending:  {StatusApproved, StatusRejected, StatusCompleted},
	StatusApproved: {StatusRejected, StatusCompleted},
}

// CanTransitionTo reports whether moving from s to next is allowed.
func (s Status) CanTransitionTo(next Status) bool {
	for _, t := range transitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// Transition validates the move from s to next and returns an
// invalid-state error when the lifecycle forbids it.
func (s Status) Transition(next Status) error {
	if !s.CanTransitionTo(next) {
		return InvalidStatef("cannot transition order from %s to %s", s, next)
	}
	return nil
}

// IsTerminal reports whether no further transition is possible.
func (s Status) IsTerminal() bool { return len(transitions[s]) == 0 }

// Editable reports whether the order's items, date, and notes may still be
// changed by its requester. Only pending orders are editable.
func (s Status) Editable() bool { return s == StatusPending }
