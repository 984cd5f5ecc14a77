package document

import "fmt"

// Status represents the lifecycle state of a commercial document.
// The vocabulary is shared by every document type: invoices, purchase
// orders and notes all move through the same states.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusSent      Status = "sent"
	StatusAccepted  Status = "accepted"
	StatusRejected  Status = "rejected"
	StatusPaid      Status = "paid"
	StatusCancelled Status = "cancelled"
)

// IsValid checks if the status is a valid Status
func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusSent, StatusAccepted, StatusRejected, StatusPaid, StatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// IsTerminal returns true if the document is settled and can no longer move
func (s Status) IsTerminal() bool {
	return s == StatusPaid || s == StatusRejected || s == StatusCancelled
}

// TransitionTable maps each state to the set of states reachable from it.
type TransitionTable map[Status]map[Status]bool

// transitions is the single table driving every document lifecycle.
// draft -> sent -> {accepted, rejected}; sent/accepted -> paid;
// any non-terminal -> cancelled. accepted stays non-terminal so an
// accepted invoice can still be paid.
var transitions = TransitionTable{
	StatusDraft: {
		StatusSent:      true,
		StatusCancelled: true,
	},
	StatusSent: {
		StatusAccepted:  true,
		StatusRejected:  true,
		StatusPaid:      true,
		StatusCancelled: true,
	},
	StatusAccepted: {
		StatusPaid:      true,
		StatusCancelled: true,
	},
	StatusRejected:  {},
	StatusPaid:      {},
	StatusCancelled: {},
}

// TransitionsFor returns the transition table for a document type.
// Purchase orders and notes currently share the invoice vocabulary, so a
// single table serves all types; divergence would be expressed here.
func TransitionsFor(t Type) TransitionTable {
	return transitions
}

// CanTransitionTo checks whether the target state is reachable from s
func (s Status) CanTransitionTo(docType Type, target Status) bool {
	allowed, ok := TransitionsFor(docType)[s]
	if !ok {
		return false
	}
	return allowed[target]
}

// InvalidTransitionError reports a lifecycle transition that the table does
// not permit. The document state is left untouched when it is returned.
type InvalidTransitionError struct {
	From Status
	To   Status
}

// Error implements the error interface
func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition from %s to %s", e.From, e.To)
}
