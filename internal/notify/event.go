// README: Typed notification events and the fanout contract.
package notify

import (
	"context"

	"aidlink/internal/types"
)

// Event names carried over the fanout. Consumers (dashboard, provider apps)
// subscribe by room and switch on the name.
const (
	EventTicketCreated       = "ticket:created"
	EventTicketStatusChanged = "ticket:status_changed"
	EventTicketMatched       = "ticket:matched"
	EventProposalCreated     = "assignment:proposed"
	EventProposalsChanged    = "assignment:proposals_changed"
	EventAssignmentAccepted  = "assignment:accepted"
	EventAssignmentRejected  = "assignment:rejected"
	EventAssignmentCompleted = "assignment:completed"
)

type TargetKind string

const (
	TargetTicket    TargetKind = "ticket"
	TargetProvider  TargetKind = "provider"
	TargetRequester TargetKind = "requester"
	TargetGlobal    TargetKind = "global"
)

// Target selects the room an event is delivered to.
type Target struct {
	Kind TargetKind
	ID   types.ID
}

type Event struct {
	Name    string         `json:"name"`
	Payload map[string]any `json:"payload"`
	Target  Target         `json:"-"`
}

// Fanout delivers events to live subscribers. Delivery is best-effort:
// implementations log failures and never propagate them to the caller.
type Fanout interface {
	Emit(ctx context.Context, e Event)
}
