package reconcile

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"aidlink/internal/config"
	"aidlink/internal/modules/assignment"
	"aidlink/internal/modules/matching"
	"aidlink/internal/modules/provider"
	"aidlink/internal/modules/ticket"
	"aidlink/internal/notify"
	"aidlink/internal/types"
)

type fakeTickets struct {
	open []ticket.Ticket
	err  error
}

func (f *fakeTickets) ListOpen(ctx context.Context, createdAfter time.Time) ([]ticket.Ticket, error) {
	return f.open, f.err
}

// fakeMatcher returns a canned group per ticket, minus excluded providers.
type fakeMatcher struct {
	groups map[types.ID][]matching.Group
	errFor map[types.ID]error
	calls  int
}

func (f *fakeMatcher) FindCombinations(ctx context.Context, t *ticket.Ticket, opts matching.Options) ([]matching.Group, error) {
	f.calls++
	if err := f.errFor[t.ID]; err != nil {
		return nil, err
	}
	excluded := make(map[types.ID]bool, len(opts.ExcludeProviderIDs))
	for _, id := range opts.ExcludeProviderIDs {
		excluded[id] = true
	}
	var out []matching.Group
	for _, g := range f.groups[t.ID] {
		keep := true
		for _, m := range g.Members {
			if excluded[m.Candidate.Provider.ID] {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, g)
		}
	}
	return out, nil
}

// fakeLedger upserts in memory with the same (ticket, provider) idempotence
// as the real one.
type fakeLedger struct {
	pairs map[string]bool
}

func newFakeLedger() *fakeLedger { return &fakeLedger{pairs: map[string]bool{}} }

func (f *fakeLedger) key(ticketID, providerID types.ID) string {
	return string(ticketID) + "|" + string(providerID)
}

func (f *fakeLedger) DecidedProviderIDs(ctx context.Context, ticketID types.ID) ([]types.ID, error) {
	prefix := string(ticketID) + "|"
	var out []types.ID
	for k := range f.pairs {
		if strings.HasPrefix(k, prefix) {
			out = append(out, types.ID(k[len(prefix):]))
		}
	}
	return out, nil
}

func (f *fakeLedger) UpsertProposal(ctx context.Context, cmd assignment.UpsertProposalCommand) (*assignment.Assignment, bool, error) {
	k := f.key(cmd.TicketID, cmd.ProviderID)
	if f.pairs[k] {
		return nil, false, nil
	}
	f.pairs[k] = true
	return &assignment.Assignment{TicketID: cmd.TicketID, ProviderID: cmd.ProviderID, Status: assignment.StatusProposed}, true, nil
}

type recordFanout struct {
	events []notify.Event
}

func (r *recordFanout) Emit(ctx context.Context, e notify.Event) {
	r.events = append(r.events, e)
}

func groupOf(score float64, providerIDs ...types.ID) matching.Group {
	g := matching.Group{Score: score}
	for _, id := range providerIDs {
		g.Members = append(g.Members, matching.Allocation{
			Candidate:  matching.Candidate{Provider: provider.Provider{ID: id}, Score: score},
			Quantities: map[string]int{types.CategoryFood: 100},
		})
	}
	return g
}

func openTicket(id types.ID) ticket.Ticket {
	return ticket.Ticket{ID: id, Status: ticket.StatusActive, Categories: []string{types.CategoryFood}}
}

func newTestLoop(tickets TicketSource, matcher Matcher, ledger Ledger, fanout notify.Fanout) *Service {
	cfg := config.ReconcileConfig{Interval: time.Minute, Lookback: 6 * time.Hour}
	return NewService(tickets, matcher, ledger, fanout, cfg, zerolog.Nop())
}

func TestRunOnce_ProposesTopGroupOnly(t *testing.T) {
	tickets := &fakeTickets{open: []ticket.Ticket{openTicket("t1")}}
	matcher := &fakeMatcher{groups: map[types.ID][]matching.Group{
		"t1": {groupOf(20, "best-a", "best-b"), groupOf(10, "runner-up")},
	}}
	ledger := newFakeLedger()
	fanout := &recordFanout{}

	newTestLoop(tickets, matcher, ledger, fanout).RunOnce(context.Background())

	if !ledger.pairs["t1|best-a"] || !ledger.pairs["t1|best-b"] {
		t.Errorf("top group members not proposed: %v", ledger.pairs)
	}
	if ledger.pairs["t1|runner-up"] {
		t.Errorf("runner-up group must not be proposed")
	}
	if len(fanout.events) != 1 || fanout.events[0].Name != notify.EventProposalsChanged {
		t.Errorf("expected one proposals-changed event, got %v", fanout.events)
	}
	if fanout.events[0].Target.Kind != notify.TargetTicket || fanout.events[0].Target.ID != "t1" {
		t.Errorf("event targets wrong room: %+v", fanout.events[0].Target)
	}
}

func TestRunOnce_SecondPassCreatesNothing(t *testing.T) {
	tickets := &fakeTickets{open: []ticket.Ticket{openTicket("t1")}}
	matcher := &fakeMatcher{groups: map[types.ID][]matching.Group{
		"t1": {groupOf(20, "p1", "p2")},
	}}
	ledger := newFakeLedger()
	fanout := &recordFanout{}
	loop := newTestLoop(tickets, matcher, ledger, fanout)

	loop.RunOnce(context.Background())
	if len(ledger.pairs) != 2 {
		t.Fatalf("first pass created %d proposals, want 2", len(ledger.pairs))
	}

	loop.RunOnce(context.Background())
	if len(ledger.pairs) != 2 {
		t.Errorf("second identical pass created new records: %v", ledger.pairs)
	}
	if len(fanout.events) != 1 {
		t.Errorf("second pass must not emit, events: %d", len(fanout.events))
	}
}

func TestRunOnce_DecidedProvidersExcluded(t *testing.T) {
	tickets := &fakeTickets{open: []ticket.Ticket{openTicket("t1")}}
	matcher := &fakeMatcher{groups: map[types.ID][]matching.Group{
		"t1": {groupOf(20, "already-decided"), groupOf(15, "fresh")},
	}}
	ledger := newFakeLedger()
	ledger.pairs[ledger.key("t1", "already-decided")] = true

	newTestLoop(tickets, matcher, ledger, &recordFanout{}).RunOnce(context.Background())

	if !ledger.pairs["t1|fresh"] {
		t.Errorf("expected the fresh group to be proposed once the decided provider is excluded")
	}
}

func TestRunOnce_TicketFailureIsIsolated(t *testing.T) {
	tickets := &fakeTickets{open: []ticket.Ticket{openTicket("broken"), openTicket("healthy")}}
	matcher := &fakeMatcher{
		groups: map[types.ID][]matching.Group{"healthy": {groupOf(10, "p1")}},
		errFor: map[types.ID]error{"broken": errors.New("search blew up")},
	}
	ledger := newFakeLedger()

	newTestLoop(tickets, matcher, ledger, &recordFanout{}).RunOnce(context.Background())

	if !ledger.pairs["healthy|p1"] {
		t.Errorf("failure on one ticket must not abort the pass for the rest")
	}
}

func TestRunOnce_NoGroupsNoEvent(t *testing.T) {
	tickets := &fakeTickets{open: []ticket.Ticket{openTicket("t1")}}
	matcher := &fakeMatcher{groups: map[types.ID][]matching.Group{}}
	fanout := &recordFanout{}

	newTestLoop(tickets, matcher, newFakeLedger(), fanout).RunOnce(context.Background())

	if len(fanout.events) != 0 {
		t.Errorf("no proposals means no event, got %v", fanout.events)
	}
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	tickets := &fakeTickets{}
	loop := NewService(tickets, &fakeMatcher{}, newFakeLedger(), nil, config.ReconcileConfig{Interval: time.Millisecond, Lookback: time.Hour}, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		loop.Run(ctx)
		close(done)
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after context cancellation")
	}
}
