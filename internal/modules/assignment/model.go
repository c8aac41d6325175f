// README: Assignment (proposal) aggregate and its lifecycle state machine.
package assignment

import (
	"time"

	"aidlink/internal/types"
)

type Status string

const (
	StatusProposed  Status = "proposed"
	StatusAccepted  Status = "accepted"
	StatusRejected  Status = "rejected"
	StatusCompleted Status = "completed"
)

// Assignment is a candidate or decided pairing between one ticket and one
// provider. Unique on (ticket_id, provider_id); rows are never deleted, the
// ledger is the audit trail.
type Assignment struct {
	ID                types.ID
	TicketID          types.ID
	ProviderID        types.ID
	Status            Status
	MatchedCategories []string
	Score             float64
	DistanceKm        *float64
	EtaMinutes        *int
	Allocated         map[string]int
	CreatedAt         time.Time
	DecidedAt         *time.Time
}

// AllowedTransitions represents the proposal state flow as code. Accepted is
// non-terminal: the tracking workflow later completes it.
var AllowedTransitions = map[Status][]Status{
	StatusProposed: {StatusAccepted, StatusRejected},
	StatusAccepted: {StatusCompleted},
}

func CanTransition(from, to Status) bool {
	next, ok := AllowedTransitions[from]
	if !ok {
		return false
	}
	for _, s := range next {
		if s == to {
			return true
		}
	}
	return false
}
