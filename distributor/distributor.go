// Package distributor settles scores when a game finishes. It watches the
// table stream for result-row inserts; each one triggers the scoring engine
// and a best-effort fan-out of score updates.
package distributor

import (
	"context"
	"fmt"
	"time"

	"github.com/WojciechMatuszewski/btc-guessr/gamedao"
	"github.com/WojciechMatuszewski/btc-guessr/scoring"
	"github.com/WojciechMatuszewski/btc-guessr/userdao"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/rs/zerolog"
)

// Distributor applies score deltas for finished games.
type Distributor struct {
	engine *scoring.Engine
	users  *userdao.DAO
}

// New creates a distributor.
func New(engine *scoring.Engine, users *userdao.DAO) *Distributor {
	return &Distributor{
		engine: engine,
		users:  users,
	}
}

// OnInsert handles a single stream insert. Only result rows are interesting;
// everything else on the stream belongs to the normalizer pipeline.
func (d *Distributor) OnInsert(ctx context.Context, newValue map[string]*dynamodb.AttributeValue) error {
	result, ok := gamedao.IsResultInsert(newValue)
	if !ok {
		return nil
	}
	return d.settle(ctx, result.GameID)
}

func (d *Distributor) settle(ctx context.Context, gameID string) (err error) {
	var updated int
	defer func(begin time.Time) {
		zerolog.Ctx(ctx).Info().
			Dur("elapsed", time.Since(begin)).
			Err(err).
			Str("gameId", gameID).
			Int("updated", updated).
			Msg("settled game scores")
	}(time.Now())

	scores, err := d.engine.ScoresForGame(ctx, gameID)
	if err != nil {
		return fmt.Errorf("failed to settle game %v: %w", gameID, err)
	}
	updated = len(scores)
	if updated == 0 {
		return nil
	}

	if err := d.users.UpdateScores(ctx, scores); err != nil {
		return fmt.Errorf("failed to settle game %v: %w", gameID, err)
	}
	return nil
}
