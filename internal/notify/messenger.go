// README: Out-of-band messaging (SMS/email) boundary. Failures degrade to a
// log line and never reach the caller.
package notify

import (
	"context"

	"github.com/rs/zerolog"

	"aidlink/internal/types"
)

// Messenger sends out-of-band notifications after ledger state changes.
type Messenger interface {
	TicketCreated(ctx context.Context, requesterID types.ID, reference string)
	TicketMatched(ctx context.Context, requesterID types.ID, reference string, providerName string)
	TicketStatusChanged(ctx context.Context, requesterID types.ID, reference string, status string)
}

// LogMessenger is the default delivery: a local log line. A real SMS/email
// gateway slots in behind the same interface.
type LogMessenger struct {
	log zerolog.Logger
}

func NewLogMessenger(log zerolog.Logger) *LogMessenger {
	return &LogMessenger{log: log.With().Str("component", "messenger").Logger()}
}

func (m *LogMessenger) TicketCreated(ctx context.Context, requesterID types.ID, reference string) {
	m.log.Info().Str("requester", string(requesterID)).Str("reference", reference).Msg("ticket created")
}

func (m *LogMessenger) TicketMatched(ctx context.Context, requesterID types.ID, reference string, providerName string) {
	m.log.Info().Str("requester", string(requesterID)).Str("reference", reference).Str("provider", providerName).Msg("ticket matched")
}

func (m *LogMessenger) TicketStatusChanged(ctx context.Context, requesterID types.ID, reference string, status string) {
	m.log.Info().Str("requester", string(requesterID)).Str("reference", reference).Str("status", status).Msg("ticket status changed")
}
