package transport

import (
	"encoding/json"
	"fmt"
)

// Event type discriminators as they appear on the wire.
const (
	TypePresence      = "presence"
	TypePrediction    = "prediction"
	TypeGame          = "game"
	TypeDisconnection = "disconnection"
)

// Event is the closed set of domain events published on the game topic.
// Consumers switch exhaustively over the concrete types.
type Event interface {
	EventType() string
	sealed()
}

// PresenceEvent announces a user's connection state change.
type PresenceEvent struct {
	Payload UserWithPrediction `json:"payload"`
}

func (PresenceEvent) EventType() string { return TypePresence }
func (PresenceEvent) sealed()           {}

// PredictionEvent announces a newly recorded prediction.
type PredictionEvent struct {
	Payload Prediction `json:"payload"`
}

func (PredictionEvent) EventType() string { return TypePrediction }
func (PredictionEvent) sealed()           {}

// GameEvent announces a tick, carrying the game that replaced the previous one.
type GameEvent struct {
	Payload Game `json:"payload"`
}

func (GameEvent) EventType() string { return TypeGame }
func (GameEvent) sealed()           {}

// DisconnectionEvent carries a debounced disconnect through the delay queue.
type DisconnectionEvent struct {
	Payload Disconnection `json:"payload"`
}

func (DisconnectionEvent) EventType() string { return TypeDisconnection }
func (DisconnectionEvent) sealed()           {}

type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Marshal encodes an event as a single topic message.
func Marshal(event Event) ([]byte, error) {
	payload, err := json.Marshal(eventPayload(event))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %v payload: %w", event.EventType(), err)
	}
	return json.Marshal(envelope{Type: event.EventType(), Payload: payload})
}

// Parse decodes a topic message back into a typed event. Unknown types and
// malformed payloads are errors; the caller decides whether to drop or raise.
func Parse(data []byte) (Event, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("invalid event envelope: %w", err)
	}

	switch env.Type {
	case TypePresence:
		var e PresenceEvent
		if err := json.Unmarshal(env.Payload, &e.Payload); err != nil {
			return nil, fmt.Errorf("invalid presence payload: %w", err)
		}
		return e, validateStatus(e.Payload.Status)

	case TypePrediction:
		var e PredictionEvent
		if err := json.Unmarshal(env.Payload, &e.Payload); err != nil {
			return nil, fmt.Errorf("invalid prediction payload: %w", err)
		}
		_, err := ParseDirection(string(e.Payload.Prediction))
		return e, err

	case TypeGame:
		var e GameEvent
		if err := json.Unmarshal(env.Payload, &e.Payload); err != nil {
			return nil, fmt.Errorf("invalid game payload: %w", err)
		}
		return e, nil

	case TypeDisconnection:
		var e DisconnectionEvent
		if err := json.Unmarshal(env.Payload, &e.Payload); err != nil {
			return nil, fmt.Errorf("invalid disconnection payload: %w", err)
		}
		return e, nil

	default:
		return nil, fmt.Errorf("unknown event type %q", env.Type)
	}
}

func validateStatus(s Status) error {
	switch s {
	case StatusConnected, StatusDisconnected:
		return nil
	default:
		return fmt.Errorf("invalid status %q", s)
	}
}

func eventPayload(event Event) interface{} {
	switch e := event.(type) {
	case PresenceEvent:
		return e.Payload
	case PredictionEvent:
		return e.Payload
	case GameEvent:
		return e.Payload
	case DisconnectionEvent:
		return e.Payload
	default:
		// Event is sealed, this is unreachable.
		panic(fmt.Sprintf("unhandled event type %T", event))
	}
}
