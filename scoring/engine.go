// Package scoring derives per-user score deltas from a finished game's
// recorded result and its predictions.
package scoring

import (
	"context"
	"errors"
	"fmt"

	"github.com/WojciechMatuszewski/btc-guessr/gamedao"
	"github.com/WojciechMatuszewski/btc-guessr/predictiondao"
)

// Engine computes score deltas for finished games.
type Engine struct {
	games       *gamedao.DAO
	predictions *predictiondao.DAO
}

// New creates a scoring engine over the game and prediction DAOs.
func New(games *gamedao.DAO, predictions *predictiondao.DAO) *Engine {
	return &Engine{
		games:       games,
		predictions: predictions,
	}
}

// ScoresForGame returns the score delta of every user who predicted: +1 for a
// match with the recorded correct direction, -1 otherwise. A game without a
// result yet (still in progress) yields an empty map. Users who abstained are
// absent from the map entirely.
func (e *Engine) ScoresForGame(ctx context.Context, gameID string) (map[string]int, error) {
	result, err := e.games.GetResult(ctx, gameID)
	if err != nil {
		if errors.Is(err, gamedao.ErrNotFound) {
			return map[string]int{}, nil
		}
		return nil, fmt.Errorf("failed to score game %v: %w", gameID, err)
	}

	predictions, err := e.predictions.ForGame(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to score game %v: %w", gameID, err)
	}

	scores := make(map[string]int, len(predictions))
	for _, prediction := range predictions {
		if prediction.Prediction == result.CorrectPrediction {
			scores[prediction.UserID] = 1
		} else {
			scores[prediction.UserID] = -1
		}
	}
	return scores, nil
}
