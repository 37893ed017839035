package presence

import (
	"context"

	"github.com/WojciechMatuszewski/btc-guessr/transport"
	"github.com/WojciechMatuszewski/btc-guessr/userdao"
	"github.com/aws/aws-lambda-go/events"
	"github.com/rs/zerolog"
)

// Disconnecter drains the disconnect delay queue and applies the disconnects
// that are still current.
type Disconnecter struct {
	users *userdao.DAO
}

// NewDisconnecter creates a disconnecter over the user DAO.
func NewDisconnecter(users *userdao.DAO) *Disconnecter {
	return &Disconnecter{users: users}
}

// HandleSQS applies a batch of delayed disconnects best-effort. A stale
// disconnect means the user reconnected during the delay window and is kept
// online. Malformed or foreign messages are dropped.
func (d *Disconnecter) HandleSQS(ctx context.Context, event events.SQSEvent) error {
	for _, record := range event.Records {
		parsed, err := transport.Parse([]byte(record.Body))
		if err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Str("messageId", record.MessageId).Msg("dropping malformed queue message")
			continue
		}

		disconnection, ok := parsed.(transport.DisconnectionEvent)
		if !ok {
			zerolog.Ctx(ctx).Warn().Str("type", parsed.EventType()).Msg("unexpected event on disconnect queue")
			continue
		}

		err = d.users.Disconnected(ctx, disconnection.Payload.UserID, disconnection.Payload.TimestampMs)
		if err != nil {
			// Includes ErrStale, which is the debounce doing its job.
			zerolog.Ctx(ctx).Info().
				Err(err).
				Str("userId", disconnection.Payload.UserID).
				Msg("disconnect not applied")
		}
	}
	return nil
}
