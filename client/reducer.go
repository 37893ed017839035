package client

import (
	"github.com/WojciechMatuszewski/btc-guessr/gamedao"
	"github.com/WojciechMatuszewski/btc-guessr/transport"
)

// Reduce folds one domain event into the local game state. It is pure: the
// input state is never mutated. Events referencing unknown users are ignored,
// not errors; under at-least-once unordered delivery they are expected.
func Reduce(state transport.GameState, event transport.Event) transport.GameState {
	switch e := event.(type) {
	case transport.PresenceEvent:
		return reducePresence(state, e)
	case transport.PredictionEvent:
		return reducePrediction(state, e)
	case transport.GameEvent:
		return reduceGame(state, e)
	case transport.DisconnectionEvent:
		// Queue-internal, resolved into presence events server side.
		return state
	default:
		return state
	}
}

func reducePresence(state transport.GameState, event transport.PresenceEvent) transport.GameState {
	switch event.Payload.Status {
	case transport.StatusConnected:
		for _, user := range state.Users {
			if user.ID == event.Payload.ID {
				return state
			}
		}
		next := state
		next.Users = append(copyUsers(state.Users), event.Payload)
		return next

	case transport.StatusDisconnected:
		next := state
		next.Users = make([]transport.UserWithPrediction, 0, len(state.Users))
		for _, user := range state.Users {
			if user.ID != event.Payload.ID {
				next.Users = append(next.Users, user)
			}
		}
		return next

	default:
		return state
	}
}

func reducePrediction(state transport.GameState, event transport.PredictionEvent) transport.GameState {
	next := state
	next.Users = copyUsers(state.Users)
	for i, user := range next.Users {
		if user.ID == event.Payload.UserID {
			direction := event.Payload.Prediction
			next.Users[i].Prediction = &direction
		}
	}
	return next
}

// reduceGame mirrors the server's settlement optimistically: score deltas are
// computed with the same direction rule the scoring engine uses, clamped at
// zero. Predictions all reset because the game id changed.
func reduceGame(state transport.GameState, event transport.GameEvent) transport.GameState {
	correct := gamedao.CorrectDirection(event.Payload.Value - state.Game.Value)

	next := state
	next.Game = event.Payload
	next.Users = copyUsers(state.Users)
	for i, user := range next.Users {
		if user.Prediction == nil {
			continue
		}
		if *user.Prediction == correct {
			next.Users[i].Score++
		} else if next.Users[i].Score > 0 {
			next.Users[i].Score--
		}
		next.Users[i].Prediction = nil
	}
	return next
}

func copyUsers(users []transport.UserWithPrediction) []transport.UserWithPrediction {
	copied := make([]transport.UserWithPrediction, len(users))
	copy(copied, users)
	return copied
}
