// README: Reconciliation loop: a recurring pass that proposes assignments
// for still-open tickets without ever duplicating a proposal.
package reconcile

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"aidlink/internal/config"
	"aidlink/internal/modules/assignment"
	"aidlink/internal/modules/matching"
	"aidlink/internal/modules/ticket"
	"aidlink/internal/notify"
	"aidlink/internal/types"
)

// TicketSource lists the tickets still worth reconciling.
type TicketSource interface {
	ListOpen(ctx context.Context, createdAfter time.Time) ([]ticket.Ticket, error)
}

// Matcher runs the combination search. Implemented by matching.Service.
type Matcher interface {
	FindCombinations(ctx context.Context, t *ticket.Ticket, opts matching.Options) ([]matching.Group, error)
}

// Ledger is the slice of the assignment service the loop writes through.
type Ledger interface {
	DecidedProviderIDs(ctx context.Context, ticketID types.ID) ([]types.ID, error)
	UpsertProposal(ctx context.Context, cmd assignment.UpsertProposalCommand) (*assignment.Assignment, bool, error)
}

type Service struct {
	tickets TicketSource
	matcher Matcher
	ledger  Ledger
	fanout  notify.Fanout
	cfg     config.ReconcileConfig
	log     zerolog.Logger
}

func NewService(tickets TicketSource, matcher Matcher, ledger Ledger, fanout notify.Fanout, cfg config.ReconcileConfig, log zerolog.Logger) *Service {
	return &Service{
		tickets: tickets,
		matcher: matcher,
		ledger:  ledger,
		fanout:  fanout,
		cfg:     cfg,
		log:     log.With().Str("component", "reconcile").Logger(),
	}
}

// Run ticks until the context is cancelled.
func (s *Service) Run(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single reconciliation pass. A failure on one ticket is
// logged and never aborts the pass for the others.
func (s *Service) RunOnce(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-s.cfg.Lookback)
	open, err := s.tickets.ListOpen(ctx, cutoff)
	if err != nil {
		s.log.Error().Err(err).Msg("list open tickets")
		return
	}

	var created int
	for i := range open {
		n, err := s.reconcileTicket(ctx, &open[i])
		if err != nil {
			s.log.Error().Err(err).Str("ticket", string(open[i].ID)).Msg("reconcile ticket")
			continue
		}
		created += n
	}
	if created > 0 || len(open) > 0 {
		s.log.Info().Int("tickets", len(open)).Int("new_proposals", created).Msg("reconcile pass")
	}
}

// reconcileTicket proposes the top combination group for one ticket and
// returns the number of proposals actually created this pass.
func (s *Service) reconcileTicket(ctx context.Context, t *ticket.Ticket) (int, error) {
	decided, err := s.ledger.DecidedProviderIDs(ctx, t.ID)
	if err != nil {
		return 0, err
	}

	groups, err := s.matcher.FindCombinations(ctx, t, matching.Options{ExcludeProviderIDs: decided})
	if err != nil {
		return 0, err
	}
	if len(groups) == 0 {
		// No actionable match yet; the next pass will retry.
		return 0, nil
	}

	top := groups[0]
	created := 0
	for _, m := range top.Members {
		c := m.Candidate
		_, ok, err := s.ledger.UpsertProposal(ctx, assignment.UpsertProposalCommand{
			TicketID:          t.ID,
			ProviderID:        c.Provider.ID,
			MatchedCategories: c.MatchedCategories,
			Score:             c.Score,
			DistanceKm:        c.DistanceKm,
			EtaMinutes:        c.EtaMinutes,
			Allocated:         m.Quantities,
		})
		if err != nil {
			return created, err
		}
		if ok {
			created++
		}
	}

	if created > 0 && s.fanout != nil {
		s.fanout.Emit(ctx, notify.Event{
			Name:    notify.EventProposalsChanged,
			Target:  notify.Target{Kind: notify.TargetTicket, ID: t.ID},
			Payload: map[string]any{"ticket_id": t.ID, "new_proposals": created},
		})
	}
	return created, nil
}
