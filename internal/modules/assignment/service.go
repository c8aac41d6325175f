// README: Assignment ledger service: idempotent proposal upserts and the
// accept/reject/complete lifecycle with its ticket side effects.
package assignment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"aidlink/internal/modules/provider"
	"aidlink/internal/modules/ticket"
	"aidlink/internal/notify"
	"aidlink/internal/types"
)

var (
	ErrNotFound     = errors.New("assignment not found")
	ErrForbidden    = errors.New("operation forbidden")
	ErrInvalidState = errors.New("invalid assignment state transition")
	ErrConflict     = errors.New("assignment state conflict")
)

// Store is the ledger persistence contract. Implemented by PostgresStore.
type Store interface {
	UpsertProposal(ctx context.Context, a *Assignment) (bool, error)
	Get(ctx context.Context, id types.ID) (*Assignment, error)
	ListByTicket(ctx context.Context, ticketID types.ID) ([]Assignment, error)
	DecidedProviderIDs(ctx context.Context, ticketID types.ID) ([]types.ID, error)
	UpdateStatus(ctx context.Context, id types.ID, from, to Status) (bool, error)
}

// TicketDirectory is the slice of the ticket store the ledger needs for its
// side effects. ticket.PostgresStore satisfies it.
type TicketDirectory interface {
	Get(ctx context.Context, id types.ID) (*ticket.Ticket, error)
	UpdateStatus(ctx context.Context, id types.ID, from, to ticket.Status, version int, providerID *types.ID) (bool, error)
	AppendHistory(ctx context.Context, e *ticket.HistoryEntry) error
}

// ProviderDirectory resolves provider names for out-of-band messages.
type ProviderDirectory interface {
	Get(ctx context.Context, id types.ID) (*provider.Provider, error)
}

type Service struct {
	store     Store
	tickets   TicketDirectory
	providers ProviderDirectory
	fanout    notify.Fanout
	messenger notify.Messenger
	log       zerolog.Logger
}

func NewService(store Store, tickets TicketDirectory, providers ProviderDirectory, fanout notify.Fanout, messenger notify.Messenger, log zerolog.Logger) *Service {
	return &Service{
		store:     store,
		tickets:   tickets,
		providers: providers,
		fanout:    fanout,
		messenger: messenger,
		log:       log.With().Str("component", "assignment").Logger(),
	}
}

type UpsertProposalCommand struct {
	TicketID          types.ID
	ProviderID        types.ID
	MatchedCategories []string
	Score             float64
	DistanceKm        *float64
	EtaMinutes        *int
	Allocated         map[string]int
}

// UpsertProposal records a proposal for the (ticket, provider) pair. If the
// pair already has a record — whatever its status — nothing is written and
// created is false. Safe under concurrent reconciliation passes: the unique
// key makes the insert atomic.
func (s *Service) UpsertProposal(ctx context.Context, cmd UpsertProposalCommand) (*Assignment, bool, error) {
	a := &Assignment{
		ID:                types.ID(uuid.NewString()),
		TicketID:          cmd.TicketID,
		ProviderID:        cmd.ProviderID,
		Status:            StatusProposed,
		MatchedCategories: cmd.MatchedCategories,
		Score:             cmd.Score,
		DistanceKm:        cmd.DistanceKm,
		EtaMinutes:        cmd.EtaMinutes,
		Allocated:         cmd.Allocated,
		CreatedAt:         time.Now().UTC(),
	}
	created, err := s.store.UpsertProposal(ctx, a)
	if err != nil {
		return nil, false, err
	}
	if !created {
		return nil, false, nil
	}

	if s.fanout != nil {
		s.fanout.Emit(ctx, notify.Event{
			Name:   notify.EventProposalCreated,
			Target: notify.Target{Kind: notify.TargetProvider, ID: a.ProviderID},
			Payload: map[string]any{
				"assignment_id": a.ID,
				"ticket_id":     a.TicketID,
				"score":         a.Score,
				"categories":    a.MatchedCategories,
			},
		})
	}
	return a, true, nil
}

type AcceptCommand struct {
	AssignmentID types.ID
	ActorID      types.ID // accepting provider; empty for trusted internal calls
}

// Accept transitions proposed → accepted and, as a side effect, flips the
// parent ticket active → matched with the provider as primary. The ticket
// flip is an optimistic conditional update: when two providers accept
// near-simultaneously, exactly one wins and the loser gets ErrConflict.
func (s *Service) Accept(ctx context.Context, cmd AcceptCommand) error {
	a, err := s.store.Get(ctx, cmd.AssignmentID)
	if err != nil {
		return err
	}
	if cmd.ActorID != "" && cmd.ActorID != a.ProviderID {
		return ErrForbidden
	}
	if !CanTransition(a.Status, StatusAccepted) {
		return ErrInvalidState
	}

	t, err := s.tickets.Get(ctx, a.TicketID)
	if err != nil {
		return err
	}
	if !ticket.CanTransition(t.Status, ticket.StatusMatched) {
		return ErrInvalidState
	}
	ok, err := s.tickets.UpdateStatus(ctx, t.ID, t.Status, ticket.StatusMatched, t.StatusVersion, &a.ProviderID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict
	}

	ok, err = s.store.UpdateStatus(ctx, a.ID, StatusProposed, StatusAccepted)
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict
	}

	if err := s.tickets.AppendHistory(ctx, &ticket.HistoryEntry{
		TicketID:   t.ID,
		ProviderID: a.ProviderID,
		Note:       "assignment accepted",
		CreatedAt:  time.Now().UTC(),
	}); err != nil {
		s.log.Warn().Err(err).Str("ticket", string(t.ID)).Msg("append history failed")
	}

	s.emit(ctx, notify.EventAssignmentAccepted, a, t)
	s.emit(ctx, notify.EventTicketMatched, a, t)
	if s.messenger != nil {
		s.messenger.TicketMatched(ctx, t.RequesterID, t.Reference, s.providerName(ctx, a.ProviderID))
	}
	return nil
}

type RejectCommand struct {
	AssignmentID types.ID
	ActorID      types.ID
}

// Reject transitions proposed → rejected. Assignments of an SOS ticket can
// never be rejected, whatever their status.
func (s *Service) Reject(ctx context.Context, cmd RejectCommand) error {
	a, err := s.store.Get(ctx, cmd.AssignmentID)
	if err != nil {
		return err
	}
	if cmd.ActorID != "" && cmd.ActorID != a.ProviderID {
		return ErrForbidden
	}

	t, err := s.tickets.Get(ctx, a.TicketID)
	if err != nil {
		return err
	}
	if t.SOS {
		return ErrForbidden
	}
	if !CanTransition(a.Status, StatusRejected) {
		return ErrInvalidState
	}

	ok, err := s.store.UpdateStatus(ctx, a.ID, StatusProposed, StatusRejected)
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict
	}

	s.emit(ctx, notify.EventAssignmentRejected, a, t)
	return nil
}

type CompleteCommand struct {
	AssignmentID types.ID
	ActorID      types.ID
}

// Complete transitions accepted → completed (invoked by the tracking
// workflow) and closes the parent ticket when its state allows.
func (s *Service) Complete(ctx context.Context, cmd CompleteCommand) error {
	a, err := s.store.Get(ctx, cmd.AssignmentID)
	if err != nil {
		return err
	}
	if cmd.ActorID != "" && cmd.ActorID != a.ProviderID {
		return ErrForbidden
	}
	if !CanTransition(a.Status, StatusCompleted) {
		return ErrInvalidState
	}

	ok, err := s.store.UpdateStatus(ctx, a.ID, StatusAccepted, StatusCompleted)
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict
	}

	t, err := s.tickets.Get(ctx, a.TicketID)
	if err != nil {
		return err
	}
	if ticket.CanTransition(t.Status, ticket.StatusCompleted) {
		if _, err := s.tickets.UpdateStatus(ctx, t.ID, t.Status, ticket.StatusCompleted, t.StatusVersion, nil); err != nil {
			s.log.Warn().Err(err).Str("ticket", string(t.ID)).Msg("ticket completion failed")
		}
	}

	if err := s.tickets.AppendHistory(ctx, &ticket.HistoryEntry{
		TicketID:   t.ID,
		ProviderID: a.ProviderID,
		Note:       "assignment completed",
		CreatedAt:  time.Now().UTC(),
	}); err != nil {
		s.log.Warn().Err(err).Str("ticket", string(t.ID)).Msg("append history failed")
	}

	s.emit(ctx, notify.EventAssignmentCompleted, a, t)
	return nil
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Assignment, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) ListByTicket(ctx context.Context, ticketID types.ID) ([]Assignment, error) {
	return s.store.ListByTicket(ctx, ticketID)
}

func (s *Service) DecidedProviderIDs(ctx context.Context, ticketID types.ID) ([]types.ID, error) {
	return s.store.DecidedProviderIDs(ctx, ticketID)
}

func (s *Service) emit(ctx context.Context, name string, a *Assignment, t *ticket.Ticket) {
	if s.fanout == nil {
		return
	}
	payload := map[string]any{
		"assignment_id": a.ID,
		"ticket_id":     a.TicketID,
		"provider_id":   a.ProviderID,
	}
	s.fanout.Emit(ctx, notify.Event{Name: name, Target: notify.Target{Kind: notify.TargetTicket, ID: a.TicketID}, Payload: payload})
	s.fanout.Emit(ctx, notify.Event{Name: name, Target: notify.Target{Kind: notify.TargetRequester, ID: t.RequesterID}, Payload: payload})
}

func (s *Service) providerName(ctx context.Context, id types.ID) string {
	if s.providers == nil {
		return string(id)
	}
	p, err := s.providers.Get(ctx, id)
	if err != nil {
		return string(id)
	}
	return p.Name
}
