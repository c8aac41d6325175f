// README: Ticket service: validated intake (with optional AI analysis of
// free-text requests), reads, and tracked status transitions.
package ticket

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"aidlink/internal/ai"
	"aidlink/internal/notify"
	"aidlink/internal/types"
)

var (
	ErrNotFound     = errors.New("ticket not found")
	ErrBadRequest   = errors.New("bad request")
	ErrInvalidState = errors.New("invalid ticket state transition")
	ErrConflict     = errors.New("ticket state conflict")
)

// Store is the persistence contract the service needs. Implemented by
// PostgresStore; tests swap in an in-memory fake.
type Store interface {
	Create(ctx context.Context, t *Ticket) error
	Get(ctx context.Context, id types.ID) (*Ticket, error)
	ListOpen(ctx context.Context, createdAfter time.Time) ([]Ticket, error)
	UpdateStatus(ctx context.Context, id types.ID, from, to Status, version int, providerID *types.ID) (bool, error)
	AppendHistory(ctx context.Context, e *HistoryEntry) error
	History(ctx context.Context, id types.ID) ([]HistoryEntry, error)
}

type Service struct {
	store     Store
	analyzer  ai.Analyzer
	fanout    notify.Fanout
	messenger notify.Messenger
	validate  *validator.Validate
	log       zerolog.Logger
}

func NewService(store Store, analyzer ai.Analyzer, fanout notify.Fanout, messenger notify.Messenger, log zerolog.Logger) *Service {
	return &Service{
		store:     store,
		analyzer:  analyzer,
		fanout:    fanout,
		messenger: messenger,
		validate:  validator.New(),
		log:       log.With().Str("component", "ticket").Logger(),
	}
}

type CreateCommand struct {
	RequesterID string         `validate:"required"`
	Description string         `validate:"max=2000"`
	Location    *types.Point
	Categories  []string       `validate:"dive,oneof=food medical transport shelter"`
	Quantities  map[string]int `validate:"dive,gte=0"`
	Headcount   Headcount
	SOS         bool
}

func (s *Service) Create(ctx context.Context, cmd CreateCommand) (*Ticket, error) {
	if err := s.validate.Struct(cmd); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	if cmd.Headcount.Adults < 0 || cmd.Headcount.Children < 0 || cmd.Headcount.Elderly < 0 {
		return nil, fmt.Errorf("%w: negative headcount", ErrBadRequest)
	}
	if cmd.Location != nil {
		if cmd.Location.Lat < -90 || cmd.Location.Lat > 90 || cmd.Location.Lng < -180 || cmd.Location.Lng > 180 {
			return nil, fmt.Errorf("%w: coordinates out of range", ErrBadRequest)
		}
	}

	categories := cmd.Categories
	quantities := cmd.Quantities
	sos := cmd.SOS

	// Free-text submissions without explicit categories go through intake
	// analysis. A failed analysis never blocks the ticket.
	if len(categories) == 0 && cmd.Description != "" && s.analyzer != nil {
		if res, err := s.analyzer.Analyze(ctx, cmd.Description); err == nil {
			categories = res.Categories
			if len(quantities) == 0 && len(res.Quantities) > 0 {
				quantities = res.Quantities
			}
			sos = sos || res.SOS
		} else {
			s.log.Warn().Err(err).Msg("intake analysis failed, continuing without")
		}
	}
	if len(categories) == 0 {
		return nil, fmt.Errorf("%w: at least one category required", ErrBadRequest)
	}

	now := time.Now().UTC()
	t := &Ticket{
		ID:            newID(),
		Reference:     newReference(now),
		RequesterID:   types.ID(cmd.RequesterID),
		Description:   cmd.Description,
		Location:      cmd.Location,
		Categories:    categories,
		Quantities:    quantities,
		Headcount:     cmd.Headcount,
		SOS:           sos,
		Status:        StatusActive,
		StatusVersion: 0,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.store.Create(ctx, t); err != nil {
		return nil, err
	}

	if s.fanout != nil {
		s.fanout.Emit(ctx, notify.Event{
			Name:    notify.EventTicketCreated,
			Target:  notify.Target{Kind: notify.TargetGlobal},
			Payload: map[string]any{"ticket_id": t.ID, "reference": t.Reference, "sos": t.SOS},
		})
	}
	if s.messenger != nil {
		s.messenger.TicketCreated(ctx, t.RequesterID, t.Reference)
	}
	return t, nil
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Ticket, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) History(ctx context.Context, id types.ID) ([]HistoryEntry, error) {
	return s.store.History(ctx, id)
}

type UpdateStatusCommand struct {
	TicketID types.ID
	To       Status
}

// UpdateStatus is the tracking-workflow hook (dispatched, in_progress, ...).
func (s *Service) UpdateStatus(ctx context.Context, cmd UpdateStatusCommand) error {
	t, err := s.store.Get(ctx, cmd.TicketID)
	if err != nil {
		return err
	}
	if !CanTransition(t.Status, cmd.To) {
		return ErrInvalidState
	}
	ok, err := s.store.UpdateStatus(ctx, t.ID, t.Status, cmd.To, t.StatusVersion, nil)
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict
	}
	if s.fanout != nil {
		s.fanout.Emit(ctx, notify.Event{
			Name:    notify.EventTicketStatusChanged,
			Target:  notify.Target{Kind: notify.TargetTicket, ID: t.ID},
			Payload: map[string]any{"ticket_id": t.ID, "status": cmd.To},
		})
	}
	if s.messenger != nil {
		s.messenger.TicketStatusChanged(ctx, t.RequesterID, t.Reference, string(cmd.To))
	}
	return nil
}

func newID() types.ID {
	return types.ID(uuid.NewString())
}

// newReference builds the short human-readable ticket reference, e.g.
// T-20260901-3f2a.
func newReference(now time.Time) string {
	return fmt.Sprintf("T-%s-%s", now.Format("20060102"), uuid.NewString()[:4])
}
