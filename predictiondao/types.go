package predictiondao

import (
	"fmt"
	"strings"

	"github.com/WojciechMatuszewski/btc-guessr/transport"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbattribute"
)

const (
	predictionPK = "GAME#"
	predictionSK = "PREDICTION#"
)

// PredictionItem is a single user's guess for a single game. Keyed by both
// ids, so the table itself enforces at-most-one prediction per pair. Rows are
// written once and never mutated; a new game simply uses a new partition.
type PredictionItem struct {
	PK         string              `dynamodbav:"pk"`
	SK         string              `dynamodbav:"sk"`
	GameID     string              `dynamodbav:"gameId"`
	UserID     string              `dynamodbav:"userId"`
	Prediction transport.Direction `dynamodbav:"prediction"`
}

func (p PredictionItem) validate() error {
	if !strings.HasPrefix(p.PK, predictionPK) || !strings.HasPrefix(p.SK, predictionSK) {
		return fmt.Errorf("malformed prediction key %v/%v", p.PK, p.SK)
	}
	if p.GameID == "" || p.UserID == "" {
		return fmt.Errorf("prediction row missing ids")
	}
	if p.Prediction != transport.DirectionUp && p.Prediction != transport.DirectionDown {
		return fmt.Errorf("prediction row has invalid direction %q", p.Prediction)
	}
	return nil
}

// ToPrediction converts the row into its client-facing view.
func (p PredictionItem) ToPrediction() transport.Prediction {
	return transport.Prediction{
		UserID:     p.UserID,
		GameID:     p.GameID,
		Prediction: p.Prediction,
	}
}

// Key is the table key of a (game, user) prediction row.
func Key(gameID, userID string) map[string]*dynamodb.AttributeValue {
	return map[string]*dynamodb.AttributeValue{
		"pk": {S: aws.String(predictionPK + gameID)},
		"sk": {S: aws.String(predictionSK + userID)},
	}
}

// ParsePredictionItem decodes and validates a raw prediction row image.
func ParsePredictionItem(item map[string]*dynamodb.AttributeValue) (PredictionItem, error) {
	var p PredictionItem
	if err := dynamodbattribute.UnmarshalMap(item, &p); err != nil {
		return PredictionItem{}, fmt.Errorf("unable to unmarshal prediction row: %w", err)
	}
	if err := p.validate(); err != nil {
		return PredictionItem{}, err
	}
	return p, nil
}

// IsNewPrediction reports whether an image pair is a prediction insert.
// Predictions are never updated, so anything with an old image is ignored.
func IsNewPrediction(oldItem, newItem map[string]*dynamodb.AttributeValue) (PredictionItem, bool) {
	if len(oldItem) != 0 {
		return PredictionItem{}, false
	}
	prediction, err := ParsePredictionItem(newItem)
	if err != nil {
		return PredictionItem{}, false
	}
	return prediction, true
}
