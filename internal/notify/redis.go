// README: Redis pub/sub fanout; one channel ("room") per ticket, provider,
// requester, plus a global broadcast channel.
package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

type RedisFanout struct {
	redis *redis.Client
	log   zerolog.Logger
}

func NewRedisFanout(client *redis.Client, log zerolog.Logger) *RedisFanout {
	return &RedisFanout{
		redis: client,
		log:   log.With().Str("component", "fanout").Logger(),
	}
}

func (f *RedisFanout) Emit(ctx context.Context, e Event) {
	payload, err := json.Marshal(e)
	if err != nil {
		f.log.Error().Err(err).Str("event", e.Name).Msg("marshal event")
		return
	}
	if err := f.redis.Publish(ctx, roomChannel(e.Target), payload).Err(); err != nil {
		f.log.Warn().Err(err).Str("event", e.Name).Msg("publish failed")
	}
}

func roomChannel(t Target) string {
	if t.Kind == TargetGlobal || t.Kind == "" {
		return "room:global"
	}
	return fmt.Sprintf("room:%s:%s", t.Kind, t.ID)
}
