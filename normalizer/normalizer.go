// Package normalizer classifies raw table stream images into typed domain
// events. Record pairs arrive in no guaranteed order relative to each other;
// each pair independently yields zero or one event.
package normalizer

import (
	"context"
	"errors"
	"fmt"

	"github.com/WojciechMatuszewski/btc-guessr/gamedao"
	"github.com/WojciechMatuszewski/btc-guessr/predictiondao"
	"github.com/WojciechMatuszewski/btc-guessr/transport"
	"github.com/WojciechMatuszewski/btc-guessr/userdao"
	"github.com/aws/aws-sdk-go/service/dynamodb"
)

// Normalizer turns before/after row images into domain events.
type Normalizer struct {
	room        string
	games       *gamedao.DAO
	predictions *predictiondao.DAO
}

// New creates a normalizer for a room. The DAOs back the side lookups that
// enrich presence events with pending predictions.
func New(room string, games *gamedao.DAO, predictions *predictiondao.DAO) *Normalizer {
	return &Normalizer{
		room:        room,
		games:       games,
		predictions: predictions,
	}
}

// Normalize classifies one image pair. Pairs that match no variant are
// dropped (ok == false) by design: most table writes, and any malformed row,
// are simply not interesting to clients. Errors are reserved for failed side
// lookups.
func (n *Normalizer) Normalize(ctx context.Context, oldItem, newItem map[string]*dynamodb.AttributeValue) (transport.Event, bool, error) {
	if prediction, ok := predictiondao.IsNewPrediction(oldItem, newItem); ok {
		return transport.PredictionEvent{Payload: prediction.ToPrediction()}, true, nil
	}

	if user, ok := userdao.IsPresenceChange(oldItem, newItem); ok {
		withPrediction, err := n.withPendingPrediction(ctx, user)
		if err != nil {
			return nil, false, err
		}
		return transport.PresenceEvent{Payload: withPrediction}, true, nil
	}

	if game, ok := gamedao.IsGameChange(oldItem, newItem); ok {
		return transport.GameEvent{Payload: game.ToGame()}, true, nil
	}

	return nil, false, nil
}

// withPendingPrediction resolves the user's prediction for the room's active
// game, if both exist. Absence of either is normal, not an error.
func (n *Normalizer) withPendingPrediction(ctx context.Context, user userdao.UserItem) (transport.UserWithPrediction, error) {
	view := transport.UserWithPrediction{User: user.ToUser()}

	game, err := n.games.Get(ctx, n.room)
	if err != nil {
		if errors.Is(err, gamedao.ErrNotFound) {
			return view, nil
		}
		return transport.UserWithPrediction{}, fmt.Errorf("failed to enrich presence of user %v: %w", user.ID, err)
	}

	prediction, err := n.predictions.ForUser(ctx, game.ID, user.ID)
	if err != nil {
		if errors.Is(err, predictiondao.ErrNotFound) {
			return view, nil
		}
		return transport.UserWithPrediction{}, fmt.Errorf("failed to enrich presence of user %v: %w", user.ID, err)
	}

	direction := prediction.Prediction
	view.Prediction = &direction
	return view, nil
}
