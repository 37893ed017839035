package gamedao

import (
	"fmt"
	"strings"

	"github.com/WojciechMatuszewski/btc-guessr/transport"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbattribute"
)

const (
	gamePK   = "GAME"
	gameSK   = "GAME#ROOM#"
	resultPK = "GAME#"
	resultSK = "RESULT"
)

// GameItem is the mutable "current game" row of a room. The key is fixed per
// room; id and value are overwritten on every tick.
type GameItem struct {
	PK          string  `dynamodbav:"pk"`
	SK          string  `dynamodbav:"sk"`
	ID          string  `dynamodbav:"id"`
	Value       float64 `dynamodbav:"value"`
	CreatedAtMs int64   `dynamodbav:"createdAtMs"`
}

func (g GameItem) validate() error {
	if g.PK != gamePK || !strings.HasPrefix(g.SK, gameSK) {
		return fmt.Errorf("malformed game key %v/%v", g.PK, g.SK)
	}
	if g.ID == "" {
		return fmt.Errorf("game row missing id")
	}
	return nil
}

// Room extracts the room from the row's sort key.
func (g GameItem) Room() string {
	return strings.TrimPrefix(g.SK, gameSK)
}

// ToGame converts the row into its client-facing view.
func (g GameItem) ToGame() transport.Game {
	return transport.Game{
		ID:          g.ID,
		Room:        g.Room(),
		Value:       g.Value,
		CreatedAtMs: g.CreatedAtMs,
	}
}

// ResultItem records the outcome of a finished game, keyed by the finished
// game's id. Written exactly once, when the next tick replaces the game.
type ResultItem struct {
	PK                string              `dynamodbav:"pk"`
	SK                string              `dynamodbav:"sk"`
	GameID            string              `dynamodbav:"gameId"`
	PreviousValue     float64             `dynamodbav:"previousValue"`
	CurrentValue      float64             `dynamodbav:"currentValue"`
	Difference        float64             `dynamodbav:"difference"`
	CorrectPrediction transport.Direction `dynamodbav:"correctPrediction"`
}

func (r ResultItem) validate() error {
	if !strings.HasPrefix(r.PK, resultPK) || r.SK != resultSK {
		return fmt.Errorf("malformed result key %v/%v", r.PK, r.SK)
	}
	if r.GameID == "" {
		return fmt.Errorf("result row missing gameId")
	}
	if r.CorrectPrediction != transport.DirectionUp && r.CorrectPrediction != transport.DirectionDown {
		return fmt.Errorf("result row has invalid correctPrediction %q", r.CorrectPrediction)
	}
	return nil
}

// Key is the table key of a room's game row.
func Key(room string) map[string]*dynamodb.AttributeValue {
	return map[string]*dynamodb.AttributeValue{
		"pk": {S: stringPtr(gamePK)},
		"sk": {S: stringPtr(gameSK + room)},
	}
}

func resultKey(gameID string) (pk, sk string) {
	return resultPK + gameID, resultSK
}

// CorrectDirection applies the game's direction rule. A zero difference
// resolves to UP; the asymmetry is part of the game's economics and must not
// be changed.
func CorrectDirection(difference float64) transport.Direction {
	if difference < 0 {
		return transport.DirectionDown
	}
	return transport.DirectionUp
}

// ParseGameItem decodes and validates a raw game row image.
func ParseGameItem(item map[string]*dynamodb.AttributeValue) (GameItem, error) {
	var g GameItem
	if err := dynamodbattribute.UnmarshalMap(item, &g); err != nil {
		return GameItem{}, fmt.Errorf("unable to unmarshal game row: %w", err)
	}
	if err := g.validate(); err != nil {
		return GameItem{}, err
	}
	return g, nil
}

// ParseResultItem decodes and validates a raw result row image.
func ParseResultItem(item map[string]*dynamodb.AttributeValue) (ResultItem, error) {
	var r ResultItem
	if err := dynamodbattribute.UnmarshalMap(item, &r); err != nil {
		return ResultItem{}, fmt.Errorf("unable to unmarshal result row: %w", err)
	}
	if err := r.validate(); err != nil {
		return ResultItem{}, err
	}
	return r, nil
}

// IsGameChange reports whether an image pair represents a tick: both images
// are valid game rows and the game id changed. A same-id rewrite is not a
// change. Malformed images simply don't match.
func IsGameChange(oldItem, newItem map[string]*dynamodb.AttributeValue) (GameItem, bool) {
	oldGame, err := ParseGameItem(oldItem)
	if err != nil {
		return GameItem{}, false
	}
	newGame, err := ParseGameItem(newItem)
	if err != nil {
		return GameItem{}, false
	}
	if oldGame.ID == newGame.ID {
		return GameItem{}, false
	}
	return newGame, true
}

// IsResultInsert reports whether a new image is a valid result row.
func IsResultInsert(newItem map[string]*dynamodb.AttributeValue) (ResultItem, bool) {
	result, err := ParseResultItem(newItem)
	if err != nil {
		return ResultItem{}, false
	}
	return result, true
}

func stringPtr(s string) *string { return &s }
