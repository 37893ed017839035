// Package presence translates raw pub/sub lifecycle events into user
// connection state. Connects apply immediately; disconnects detour through a
// delay queue so a brief drop-and-reconnect never flickers the user offline.
package presence

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/WojciechMatuszewski/btc-guessr/transport"
	"github.com/WojciechMatuszewski/btc-guessr/userdao"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/sqs"
	"github.com/aws/aws-sdk-go/service/sqs/sqsiface"
	"github.com/rs/zerolog"
)

// disconnectDelaySeconds is how long a disconnect waits in the queue before
// it is applied. A reconnect within this window bumps lastSeenMs, which makes
// the queued disconnect stale.
const disconnectDelaySeconds = 5

const gameTopic = "game"

// lifecycleEvent is the transport's connection lifecycle notice.
type lifecycleEvent struct {
	ClientID    string   `json:"clientId"`
	EventType   string   `json:"eventType"`
	Topics      []string `json:"topics"`
	TimestampMs int64    `json:"timestamp"`
}

func (e lifecycleEvent) watchesGame() bool {
	for _, topic := range e.Topics {
		if topic == gameTopic {
			return true
		}
	}
	return false
}

// Handler applies lifecycle events to user rows.
type Handler struct {
	users    *userdao.DAO
	sqs      sqsiface.SQSAPI
	queueURL string
	room     string
}

// NewHandler creates a presence handler for a room.
func NewHandler(users *userdao.DAO, sqsAPI sqsiface.SQSAPI, queueURL, room string) *Handler {
	return &Handler{
		users:    users,
		sqs:      sqsAPI,
		queueURL: queueURL,
		room:     room,
	}
}

// Handle processes one lifecycle notice. Subscribing to the game topic
// connects the user. Unsubscribes and hard disconnects are debounced via the
// delay queue; the browser closing fires "disconnected" without an
// "unsubscribed", so both routes lead to the queue.
func (h *Handler) Handle(ctx context.Context, raw json.RawMessage) error {
	var event lifecycleEvent
	if err := json.Unmarshal(raw, &event); err != nil {
		return fmt.Errorf("malformed lifecycle event: %w", err)
	}
	if event.ClientID == "" {
		return fmt.Errorf("lifecycle event missing clientId")
	}

	switch event.EventType {
	case "subscribed":
		if !event.watchesGame() {
			return nil
		}
		return h.users.Connected(ctx, event.ClientID, h.room, event.TimestampMs)

	case "unsubscribed", "disconnected":
		return h.enqueueDisconnect(ctx, event)

	default:
		zerolog.Ctx(ctx).Warn().Str("eventType", event.EventType).Msg("unknown lifecycle event")
		return nil
	}
}

func (h *Handler) enqueueDisconnect(ctx context.Context, event lifecycleEvent) error {
	body, err := transport.Marshal(transport.DisconnectionEvent{
		Payload: transport.Disconnection{
			UserID:      event.ClientID,
			TimestampMs: event.TimestampMs,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to encode disconnection of user %v: %w", event.ClientID, err)
	}

	_, err = h.sqs.SendMessageWithContext(ctx, &sqs.SendMessageInput{
		QueueUrl:     aws.String(h.queueURL),
		MessageBody:  aws.String(string(body)),
		DelaySeconds: aws.Int64(disconnectDelaySeconds),
	})
	if err != nil {
		return fmt.Errorf("failed to enqueue disconnection of user %v: %w", event.ClientID, err)
	}
	return nil
}
