// README: Ticket aggregate and lifecycle status definitions.
package ticket

import (
	"time"

	"aidlink/internal/types"
)

type Status string

const (
	StatusActive     Status = "active"
	StatusMatched    Status = "matched"
	StatusDispatched Status = "dispatched"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// Headcount is the reported number of affected people, split by age band.
// It drives demand defaults when explicit quantities are absent.
type Headcount struct {
	Adults   int `json:"adults"`
	Children int `json:"children"`
	Elderly  int `json:"elderly"`
}

// Total returns the combined headcount.
func (h Headcount) Total() int {
	return h.Adults + h.Children + h.Elderly
}

// Ticket is a submitted aid request. Tickets are never deleted; the matching
// flow only mutates status and assignment references.
type Ticket struct {
	ID                 types.ID
	Reference          string
	RequesterID        types.ID
	Description        string
	Location           *types.Point
	Categories         []string
	Quantities         map[string]int
	Headcount          Headcount
	SOS                bool
	Status             Status
	StatusVersion      int
	AssignedProviderID *types.ID
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// HistoryEntry is one line of the append-only assignment history log.
type HistoryEntry struct {
	ID         int64
	TicketID   types.ID
	ProviderID types.ID
	Note       string
	CreatedAt  time.Time
}

// AllowedTransitions represents the ticket state flow as code.
var AllowedTransitions = map[Status][]Status{
	StatusActive:     {StatusMatched, StatusCancelled},
	StatusMatched:    {StatusDispatched, StatusInProgress, StatusCompleted, StatusCancelled},
	StatusDispatched: {StatusInProgress, StatusCancelled},
	StatusInProgress: {StatusCompleted, StatusCancelled},
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
