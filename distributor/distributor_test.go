package distributor

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/WojciechMatuszewski/btc-guessr/gamedao"
	"github.com/WojciechMatuszewski/btc-guessr/predictiondao"
	"github.com/WojciechMatuszewski/btc-guessr/scoring"
	"github.com/WojciechMatuszewski/btc-guessr/transport"
	"github.com/WojciechMatuszewski/btc-guessr/userdao"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbattribute"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"
	"github.com/tj/assert"
)

type fakeTable struct {
	dynamodbiface.DynamoDBAPI

	result      map[string]*dynamodb.AttributeValue
	predictions []map[string]*dynamodb.AttributeValue

	mu      sync.Mutex
	updates []*dynamodb.UpdateItemInput
}

func (f *fakeTable) GetItemWithContext(_ aws.Context, input *dynamodb.GetItemInput, _ ...request.Option) (*dynamodb.GetItemOutput, error) {
	if aws.StringValue(input.Key["sk"].S) == "RESULT" {
		return &dynamodb.GetItemOutput{Item: f.result}, nil
	}
	return &dynamodb.GetItemOutput{}, nil
}

func (f *fakeTable) QueryPagesWithContext(_ aws.Context, input *dynamodb.QueryInput, fn func(*dynamodb.QueryOutput, bool) bool, _ ...request.Option) error {
	if strings.HasPrefix(aws.StringValue(input.ExpressionAttributeValues[":sk"].S), "PREDICTION") {
		fn(&dynamodb.QueryOutput{Items: f.predictions}, true)
	}
	return nil
}

func (f *fakeTable) UpdateItemWithContext(_ aws.Context, input *dynamodb.UpdateItemInput, _ ...request.Option) (*dynamodb.UpdateItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, input)
	return &dynamodb.UpdateItemOutput{}, nil
}

func marshal(t *testing.T, v interface{}) map[string]*dynamodb.AttributeValue {
	t.Helper()
	item, err := dynamodbattribute.MarshalMap(v)
	assert.NoError(t, err)
	return item
}

func newDistributor(api dynamodbiface.DynamoDBAPI) *Distributor {
	engine := scoring.New(gamedao.New(api, "games"), predictiondao.New(api, "games"))
	return New(engine, userdao.New(api, "games"))
}

func TestOnInsert(t *testing.T) {
	ctx := context.Background()

	resultRow := marshal(t, gamedao.ResultItem{
		PK:                "GAME#g1",
		SK:                "RESULT",
		GameID:            "g1",
		PreviousValue:     2,
		CurrentValue:      1,
		Difference:        -1,
		CorrectPrediction: transport.DirectionDown,
	})

	t.Run("settles the finished game", func(t *testing.T) {
		api := &fakeTable{
			result: resultRow,
			predictions: []map[string]*dynamodb.AttributeValue{
				marshal(t, predictiondao.PredictionItem{PK: "GAME#g1", SK: "PREDICTION#winner", GameID: "g1", UserID: "winner", Prediction: transport.DirectionDown}),
				marshal(t, predictiondao.PredictionItem{PK: "GAME#g1", SK: "PREDICTION#loser", GameID: "g1", UserID: "loser", Prediction: transport.DirectionUp}),
			},
		}

		err := newDistributor(api).OnInsert(ctx, resultRow)
		assert.NoError(t, err)
		assert.Len(t, api.updates, 2)

		for _, update := range api.updates {
			delta := aws.StringValue(update.ExpressionAttributeValues[":score"].N)
			switch aws.StringValue(update.Key["sk"].S) {
			case "USER#winner":
				assert.Equal(t, "1", delta)
			case "USER#loser":
				assert.Equal(t, "-1", delta)
			default:
				t.Fatalf("unexpected score update %v", update)
			}
		}
	})

	t.Run("nobody predicted", func(t *testing.T) {
		api := &fakeTable{result: resultRow}

		err := newDistributor(api).OnInsert(ctx, resultRow)
		assert.NoError(t, err)
		assert.Empty(t, api.updates)
	})

	t.Run("other inserts are ignored", func(t *testing.T) {
		api := &fakeTable{}
		userRow := marshal(t, userdao.UserItem{
			PK:         "USER",
			SK:         "USER#u1",
			GSI1PK:     "CONNECTED#ROOM#default",
			ID:         "u1",
			Status:     transport.StatusConnected,
			LastSeenMs: 1,
		})

		err := newDistributor(api).OnInsert(ctx, userRow)
		assert.NoError(t, err)
		assert.Empty(t, api.updates)
	})
}
