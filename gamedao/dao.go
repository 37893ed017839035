// Package gamedao owns the game and game-result rows of the single game
// table. A room has exactly one mutable game row; finishing a game writes an
// immutable result row in the same transaction that starts the next one.
package gamedao

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	guessrddb "github.com/WojciechMatuszewski/btc-guessr/guessr-ddb"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbattribute"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
)

// ErrNotFound indicates the requested game or result row does not exist.
// Reads are eventually consistent, so absence right after a write may be
// read-after-write lag rather than true absence.
var ErrNotFound = errors.New("game not found")

// ErrResultExists indicates a result row was already written for the
// previous game, meaning a concurrent tick won the race.
var ErrResultExists = errors.New("game result already recorded")

// DAO provides access to game and result rows.
type DAO struct {
	api       dynamodbiface.DynamoDBAPI
	tableName string
}

// New creates a new game DAO.
func New(api dynamodbiface.DynamoDBAPI, tableName string) *DAO {
	return &DAO{
		api:       api,
		tableName: tableName,
	}
}

// NewGame replaces the room's game row with a fresh game and, when a game was
// already live, records its result. Both writes commit atomically: the game
// row update is unconditional, the result put is conditioned on the result
// not existing yet.
func (d *DAO) NewGame(ctx context.Context, room string, value float64) (game GameItem, err error) {
	defer func(begin time.Time) {
		zerolog.Ctx(ctx).Info().
			Dur("elapsed", time.Since(begin)).
			Err(err).
			Str("room", room).
			Str("gameId", game.ID).
			Msg("started new game")
	}(time.Now())

	previous, err := d.Get(ctx, room)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return GameItem{}, err
	}
	hasPrevious := err == nil

	game = GameItem{
		PK:          gamePK,
		SK:          gameSK + room,
		ID:          ulid.Make().String(),
		Value:       value,
		CreatedAtMs: time.Now().UnixMilli(),
	}

	items := []*dynamodb.TransactWriteItem{
		{
			Update: &dynamodb.Update{
				TableName:        aws.String(d.tableName),
				Key:              Key(room),
				UpdateExpression: aws.String("SET #id = :id, #value = :value, #createdAtMs = :createdAtMs"),
				ExpressionAttributeNames: map[string]*string{
					"#id":          aws.String("id"),
					"#value":       aws.String("value"),
					"#createdAtMs": aws.String("createdAtMs"),
				},
				ExpressionAttributeValues: map[string]*dynamodb.AttributeValue{
					":id":          {S: aws.String(game.ID)},
					":value":       {N: aws.String(formatFloat(game.Value))},
					":createdAtMs": {N: aws.String(fmt.Sprintf("%d", game.CreatedAtMs))},
				},
			},
		},
	}

	if hasPrevious {
		resultItem, err := dynamodbattribute.MarshalMap(computeResult(previous, value))
		if err != nil {
			return GameItem{}, fmt.Errorf("failed to marshal result for game %v: %w", previous.ID, err)
		}
		items = append(items, &dynamodb.TransactWriteItem{
			Put: &dynamodb.Put{
				TableName:                aws.String(d.tableName),
				Item:                     resultItem,
				ConditionExpression:      aws.String("attribute_not_exists(#pk)"),
				ExpressionAttributeNames: map[string]*string{"#pk": aws.String("pk")},
			},
		})
	}

	_, err = d.api.TransactWriteItemsWithContext(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: items,
	})
	if err != nil {
		if guessrddb.IsConditionalCheckFailed(err) {
			return GameItem{}, fmt.Errorf("failed to start game in room %v: %w", room, ErrResultExists)
		}
		return GameItem{}, fmt.Errorf("failed to start game in room %v: %w", room, err)
	}

	return game, nil
}

// Get returns the room's current game. Returns ErrNotFound before the first
// tick; a malformed row is an error, never coerced.
func (d *DAO) Get(ctx context.Context, room string) (GameItem, error) {
	out, err := d.api.GetItemWithContext(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(d.tableName),
		Key:       Key(room),
	})
	if err != nil {
		return GameItem{}, fmt.Errorf("failed to get game for room %v: %w", room, err)
	}
	if len(out.Item) == 0 {
		return GameItem{}, fmt.Errorf("no game for room %v: %w", room, ErrNotFound)
	}

	game, err := ParseGameItem(out.Item)
	if err != nil {
		return GameItem{}, fmt.Errorf("game row for room %v: %w", room, err)
	}
	return game, nil
}

// GetResult returns the recorded outcome of a finished game, or ErrNotFound
// while the game is still in progress.
func (d *DAO) GetResult(ctx context.Context, gameID string) (ResultItem, error) {
	pk, sk := resultKey(gameID)
	out, err := d.api.GetItemWithContext(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(d.tableName),
		Key: map[string]*dynamodb.AttributeValue{
			"pk": {S: aws.String(pk)},
			"sk": {S: aws.String(sk)},
		},
	})
	if err != nil {
		return ResultItem{}, fmt.Errorf("failed to get result for game %v: %w", gameID, err)
	}
	if len(out.Item) == 0 {
		return ResultItem{}, fmt.Errorf("no result for game %v: %w", gameID, ErrNotFound)
	}

	result, err := ParseResultItem(out.Item)
	if err != nil {
		return ResultItem{}, fmt.Errorf("result row for game %v: %w", gameID, err)
	}
	return result, nil
}

func computeResult(previous GameItem, newValue float64) ResultItem {
	pk, sk := resultKey(previous.ID)
	difference := newValue - previous.Value
	return ResultItem{
		PK:                pk,
		SK:                sk,
		GameID:            previous.ID,
		PreviousValue:     previous.Value,
		CurrentValue:      newValue,
		Difference:        difference,
		CorrectPrediction: CorrectDirection(difference),
	}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
