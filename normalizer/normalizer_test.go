package normalizer

import (
	"context"
	"testing"

	"github.com/WojciechMatuszewski/btc-guessr/gamedao"
	"github.com/WojciechMatuszewski/btc-guessr/predictiondao"
	"github.com/WojciechMatuszewski/btc-guessr/transport"
	"github.com/WojciechMatuszewski/btc-guessr/userdao"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbattribute"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"
	"github.com/tj/assert"
)

// fakeTable answers the enrichment lookups by table key.
type fakeTable struct {
	dynamodbiface.DynamoDBAPI

	rows map[string]map[string]*dynamodb.AttributeValue
}

func (f *fakeTable) GetItemWithContext(_ aws.Context, input *dynamodb.GetItemInput, _ ...request.Option) (*dynamodb.GetItemOutput, error) {
	key := aws.StringValue(input.Key["pk"].S) + "/" + aws.StringValue(input.Key["sk"].S)
	return &dynamodb.GetItemOutput{Item: f.rows[key]}, nil
}

func marshal(t *testing.T, v interface{}) map[string]*dynamodb.AttributeValue {
	t.Helper()
	item, err := dynamodbattribute.MarshalMap(v)
	assert.NoError(t, err)
	return item
}

func connectedUser(t *testing.T, id string) map[string]*dynamodb.AttributeValue {
	return marshal(t, userdao.UserItem{
		PK:         "USER",
		SK:         "USER#" + id,
		GSI1PK:     "CONNECTED#ROOM#default",
		ID:         id,
		Name:       "Brave Otter",
		Status:     transport.StatusConnected,
		LastSeenMs: 1000,
	})
}

func TestNormalize(t *testing.T) {
	ctx := context.Background()

	gameRow := marshal(t, gamedao.GameItem{PK: "GAME", SK: "GAME#ROOM#default", ID: "g1", Value: 1, CreatedAtMs: 1000})
	nextGameRow := marshal(t, gamedao.GameItem{PK: "GAME", SK: "GAME#ROOM#default", ID: "g2", Value: 2, CreatedAtMs: 2000})
	predictionRow := marshal(t, predictiondao.PredictionItem{PK: "GAME#g1", SK: "PREDICTION#u1", GameID: "g1", UserID: "u1", Prediction: transport.DirectionUp})

	newNormalizer := func(api dynamodbiface.DynamoDBAPI) *Normalizer {
		return New("default", gamedao.New(api, "games"), predictiondao.New(api, "games"))
	}

	t.Run("prediction insert", func(t *testing.T) {
		event, ok, err := newNormalizer(&fakeTable{}).Normalize(ctx, nil, predictionRow)
		assert.NoError(t, err)
		assert.True(t, ok)

		prediction, isPrediction := event.(transport.PredictionEvent)
		assert.True(t, isPrediction)
		assert.Equal(t, "u1", prediction.Payload.UserID)
		assert.Equal(t, transport.DirectionUp, prediction.Payload.Prediction)
	})

	t.Run("connect with a pending prediction", func(t *testing.T) {
		api := &fakeTable{rows: map[string]map[string]*dynamodb.AttributeValue{
			"GAME/GAME#ROOM#default": gameRow,
			"GAME#g1/PREDICTION#u1":  predictionRow,
		}}

		event, ok, err := newNormalizer(api).Normalize(ctx, nil, connectedUser(t, "u1"))
		assert.NoError(t, err)
		assert.True(t, ok)

		presence, isPresence := event.(transport.PresenceEvent)
		assert.True(t, isPresence)
		assert.Equal(t, "u1", presence.Payload.ID)
		assert.Equal(t, transport.StatusConnected, presence.Payload.Status)
		assert.NotNil(t, presence.Payload.Prediction)
		assert.Equal(t, transport.DirectionUp, *presence.Payload.Prediction)
	})

	t.Run("connect before any game exists", func(t *testing.T) {
		event, ok, err := newNormalizer(&fakeTable{}).Normalize(ctx, nil, connectedUser(t, "u2"))
		assert.NoError(t, err)
		assert.True(t, ok)

		presence := event.(transport.PresenceEvent)
		assert.Nil(t, presence.Payload.Prediction)
	})

	t.Run("tick", func(t *testing.T) {
		event, ok, err := newNormalizer(&fakeTable{}).Normalize(ctx, gameRow, nextGameRow)
		assert.NoError(t, err)
		assert.True(t, ok)

		game, isGame := event.(transport.GameEvent)
		assert.True(t, isGame)
		assert.Equal(t, "g2", game.Payload.ID)
		assert.Equal(t, float64(2), game.Payload.Value)
	})

	t.Run("score rewrite is dropped", func(t *testing.T) {
		before := connectedUser(t, "u1")
		after := connectedUser(t, "u1")
		after["score"] = &dynamodb.AttributeValue{N: aws.String("5")}

		_, ok, err := newNormalizer(&fakeTable{}).Normalize(ctx, before, after)
		assert.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("result insert is dropped", func(t *testing.T) {
		resultRow := marshal(t, gamedao.ResultItem{
			PK:                "GAME#g1",
			SK:                "RESULT",
			GameID:            "g1",
			PreviousValue:     1,
			CurrentValue:      2,
			Difference:        1,
			CorrectPrediction: transport.DirectionUp,
		})

		_, ok, err := newNormalizer(&fakeTable{}).Normalize(ctx, nil, resultRow)
		assert.NoError(t, err)
		assert.False(t, ok)
	})
}
