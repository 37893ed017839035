// Package predictiondao owns the prediction rows of the game table. A
// prediction is only accepted while its game is still the room's current one,
// enforced by a transaction spanning the game, user, and prediction rows.
package predictiondao

import (
	"context"
	"errors"
	"fmt"

	"github.com/WojciechMatuszewski/btc-guessr/gamedao"
	guessrddb "github.com/WojciechMatuszewski/btc-guessr/guessr-ddb"
	"github.com/WojciechMatuszewski/btc-guessr/transport"
	"github.com/WojciechMatuszewski/btc-guessr/userdao"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbattribute"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"
)

// ErrNotFound indicates no prediction row exists for the pair.
var ErrNotFound = errors.New("prediction not found")

// ErrConflict indicates a precondition of the predict transaction failed:
// the game already advanced past the supplied id, or the user is unknown.
// Nothing was written.
var ErrConflict = errors.New("prediction rejected")

// DAO provides access to prediction rows.
type DAO struct {
	api       dynamodbiface.DynamoDBAPI
	tableName string
}

// New creates a new prediction DAO.
func New(api dynamodbiface.DynamoDBAPI, tableName string) *DAO {
	return &DAO{
		api:       api,
		tableName: tableName,
	}
}

// Predict records a user's guess for a game. The write commits only when the
// room's current game id still equals gameID and the user row exists; either
// check failing aborts the whole transaction with ErrConflict.
func (d *DAO) Predict(ctx context.Context, gameID, room, userID string, prediction transport.Direction) error {
	item, err := dynamodbattribute.MarshalMap(PredictionItem{
		PK:         predictionPK + gameID,
		SK:         predictionSK + userID,
		GameID:     gameID,
		UserID:     userID,
		Prediction: prediction,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal prediction of user %v for game %v: %w", userID, gameID, err)
	}

	_, err = d.api.TransactWriteItemsWithContext(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []*dynamodb.TransactWriteItem{
			{
				ConditionCheck: &dynamodb.ConditionCheck{
					TableName:           aws.String(d.tableName),
					Key:                 gamedao.Key(room),
					ConditionExpression: aws.String("attribute_exists(#pk) AND #id = :gameId"),
					ExpressionAttributeNames: map[string]*string{
						"#pk": aws.String("pk"),
						"#id": aws.String("id"),
					},
					ExpressionAttributeValues: map[string]*dynamodb.AttributeValue{
						":gameId": {S: aws.String(gameID)},
					},
				},
			},
			{
				ConditionCheck: &dynamodb.ConditionCheck{
					TableName:                aws.String(d.tableName),
					Key:                      userdao.Key(userID),
					ConditionExpression:      aws.String("attribute_exists(#pk)"),
					ExpressionAttributeNames: map[string]*string{"#pk": aws.String("pk")},
				},
			},
			{
				Put: &dynamodb.Put{
					TableName: aws.String(d.tableName),
					Item:      item,
				},
			},
		},
	})
	if err != nil {
		if guessrddb.IsConditionalCheckFailed(err) {
			return fmt.Errorf("prediction of user %v for game %v: %w", userID, gameID, ErrConflict)
		}
		return fmt.Errorf("failed to record prediction of user %v for game %v: %w", userID, gameID, err)
	}
	return nil
}

// ForGame returns every prediction recorded for a game.
func (d *DAO) ForGame(ctx context.Context, gameID string) ([]PredictionItem, error) {
	var (
		predictions []PredictionItem
		parseErr    error
	)

	input := &dynamodb.QueryInput{
		TableName:              aws.String(d.tableName),
		KeyConditionExpression: aws.String("#pk = :pk AND begins_with(#sk, :sk)"),
		ExpressionAttributeNames: map[string]*string{
			"#pk": aws.String("pk"),
			"#sk": aws.String("sk"),
		},
		ExpressionAttributeValues: map[string]*dynamodb.AttributeValue{
			":pk": {S: aws.String(predictionPK + gameID)},
			":sk": {S: aws.String(predictionSK)},
		},
	}

	err := d.api.QueryPagesWithContext(ctx, input, func(page *dynamodb.QueryOutput, lastPage bool) bool {
		for _, item := range page.Items {
			var prediction PredictionItem
			if prediction, parseErr = ParsePredictionItem(item); parseErr != nil {
				return false
			}
			predictions = append(predictions, prediction)
		}
		return true
	})
	if err == nil {
		err = parseErr
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query predictions for game %v: %w", gameID, err)
	}
	return predictions, nil
}

// ForUser returns a user's prediction for a game, or ErrNotFound.
func (d *DAO) ForUser(ctx context.Context, gameID, userID string) (PredictionItem, error) {
	out, err := d.api.GetItemWithContext(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(d.tableName),
		Key:       Key(gameID, userID),
	})
	if err != nil {
		return PredictionItem{}, fmt.Errorf("failed to get prediction of user %v for game %v: %w", userID, gameID, err)
	}
	if len(out.Item) == 0 {
		return PredictionItem{}, fmt.Errorf("no prediction of user %v for game %v: %w", userID, gameID, ErrNotFound)
	}

	prediction, err := ParsePredictionItem(out.Item)
	if err != nil {
		return PredictionItem{}, fmt.Errorf("prediction row of user %v for game %v: %w", userID, gameID, err)
	}
	return prediction, nil
}
