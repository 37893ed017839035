package userdao

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/WojciechMatuszewski/btc-guessr/transport"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbattribute"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"
	"github.com/tj/assert"
)

type fakeDDB struct {
	dynamodbiface.DynamoDBAPI

	mu         sync.Mutex
	updateItem func(*dynamodb.UpdateItemInput) (*dynamodb.UpdateItemOutput, error)
	getItem    func(*dynamodb.GetItemInput) (*dynamodb.GetItemOutput, error)
	queryPages func(*dynamodb.QueryInput, func(*dynamodb.QueryOutput, bool) bool) error
	updates    []*dynamodb.UpdateItemInput
}

func (f *fakeDDB) UpdateItemWithContext(_ aws.Context, input *dynamodb.UpdateItemInput, _ ...request.Option) (*dynamodb.UpdateItemOutput, error) {
	f.mu.Lock()
	f.updates = append(f.updates, input)
	f.mu.Unlock()
	if f.updateItem != nil {
		return f.updateItem(input)
	}
	return &dynamodb.UpdateItemOutput{}, nil
}

func (f *fakeDDB) GetItemWithContext(_ aws.Context, input *dynamodb.GetItemInput, _ ...request.Option) (*dynamodb.GetItemOutput, error) {
	return f.getItem(input)
}

func (f *fakeDDB) QueryPagesWithContext(_ aws.Context, input *dynamodb.QueryInput, fn func(*dynamodb.QueryOutput, bool) bool, _ ...request.Option) error {
	return f.queryPages(input, fn)
}

func userRow(t *testing.T, id, room string, score int64, status transport.Status) map[string]*dynamodb.AttributeValue {
	t.Helper()
	gsi1pk := string(transport.StatusDisconnected)
	if status == transport.StatusConnected {
		gsi1pk = connectedGSIPK(room)
	}
	item, err := dynamodbattribute.MarshalMap(UserItem{
		PK:         "USER",
		SK:         "USER#" + id,
		GSI1PK:     gsi1pk,
		ID:         id,
		Name:       "Brave Otter",
		Score:      score,
		Status:     status,
		LastSeenMs: 1000,
	})
	assert.NoError(t, err)
	return item
}

func TestConnected(t *testing.T) {
	api := &fakeDDB{}

	err := New(api, "games").Connected(context.Background(), "u1", "default", 1000)
	assert.NoError(t, err)

	assert.Len(t, api.updates, 1)
	input := api.updates[0]
	assert.Equal(t, "USER#u1", aws.StringValue(input.Key["sk"].S))
	assert.Equal(t, "CONNECTED#ROOM#default", aws.StringValue(input.ExpressionAttributeValues[":gsi1pk"].S))

	// Reconnects must keep identity and score.
	expr := aws.StringValue(input.UpdateExpression)
	assert.True(t, strings.Contains(expr, "if_not_exists(#name, :name)"))
	assert.True(t, strings.Contains(expr, "if_not_exists(#score, :score)"))
	assert.NotEmpty(t, aws.StringValue(input.ExpressionAttributeValues[":name"].S))
}

func TestDisconnected(t *testing.T) {
	t.Run("guards against resurrecting", func(t *testing.T) {
		api := &fakeDDB{}

		err := New(api, "games").Disconnected(context.Background(), "u1", 2000)
		assert.NoError(t, err)

		input := api.updates[0]
		assert.Equal(t, "attribute_exists(#id) AND #lastSeenMs <= :lastSeenMs", aws.StringValue(input.ConditionExpression))
		assert.Equal(t, "2000", aws.StringValue(input.ExpressionAttributeValues[":lastSeenMs"].N))
	})

	t.Run("reconnect during the delay wins", func(t *testing.T) {
		api := &fakeDDB{updateItem: func(*dynamodb.UpdateItemInput) (*dynamodb.UpdateItemOutput, error) {
			return nil, &dynamodb.ConditionalCheckFailedException{}
		}}

		err := New(api, "games").Disconnected(context.Background(), "u1", 500)
		assert.True(t, errors.Is(err, ErrStale))
	})
}

func TestUpdateScores(t *testing.T) {
	t.Run("deductions carry the zero floor condition", func(t *testing.T) {
		api := &fakeDDB{}

		err := New(api, "games").UpdateScores(context.Background(), map[string]int{
			"winner": 1,
			"loser":  -1,
		})
		assert.NoError(t, err)
		assert.Len(t, api.updates, 2)

		for _, input := range api.updates {
			delta := aws.StringValue(input.ExpressionAttributeValues[":score"].N)
			switch aws.StringValue(input.Key["sk"].S) {
			case "USER#winner":
				assert.Equal(t, "1", delta)
				assert.Nil(t, input.ConditionExpression)
			case "USER#loser":
				assert.Equal(t, "-1", delta)
				assert.Equal(t, "#score >= :one", aws.StringValue(input.ConditionExpression))
			default:
				t.Fatalf("unexpected update %v", input)
			}
		}
	})

	t.Run("a failed update never fails the batch", func(t *testing.T) {
		api := &fakeDDB{updateItem: func(input *dynamodb.UpdateItemInput) (*dynamodb.UpdateItemOutput, error) {
			if aws.StringValue(input.Key["sk"].S) == "USER#loser" {
				return nil, &dynamodb.ConditionalCheckFailedException{}
			}
			return &dynamodb.UpdateItemOutput{}, nil
		}}

		err := New(api, "games").UpdateScores(context.Background(), map[string]int{
			"winner": 1,
			"loser":  -1,
		})
		assert.NoError(t, err)
		assert.Len(t, api.updates, 2)
	})
}

func TestConnectedUsers(t *testing.T) {
	t.Run("queries the status index", func(t *testing.T) {
		api := &fakeDDB{queryPages: func(input *dynamodb.QueryInput, fn func(*dynamodb.QueryOutput, bool) bool) error {
			assert.Equal(t, StatusIndex, aws.StringValue(input.IndexName))
			assert.Equal(t, "CONNECTED#ROOM#default", aws.StringValue(input.ExpressionAttributeValues[":gsi1pk"].S))
			fn(&dynamodb.QueryOutput{Items: []map[string]*dynamodb.AttributeValue{
				userRow(t, "u1", "default", 3, transport.StatusConnected),
			}}, false)
			fn(&dynamodb.QueryOutput{Items: []map[string]*dynamodb.AttributeValue{
				userRow(t, "u2", "default", 0, transport.StatusConnected),
			}}, true)
			return nil
		}}

		users, err := New(api, "games").ConnectedUsers(context.Background(), "default")
		assert.NoError(t, err)
		assert.Len(t, users, 2)
		assert.Equal(t, "u1", users[0].ID)
		assert.EqualValues(t, 3, users[0].Score)
	})

	t.Run("malformed row aborts the read", func(t *testing.T) {
		api := &fakeDDB{queryPages: func(input *dynamodb.QueryInput, fn func(*dynamodb.QueryOutput, bool) bool) error {
			fn(&dynamodb.QueryOutput{Items: []map[string]*dynamodb.AttributeValue{
				{"pk": {S: aws.String("USER")}, "sk": {S: aws.String("USER#broken")}},
			}}, true)
			return nil
		}}

		_, err := New(api, "games").ConnectedUsers(context.Background(), "default")
		assert.Error(t, err)
	})
}

func TestIsPresenceChange(t *testing.T) {
	connected := userRow(t, "u1", "default", 0, transport.StatusConnected)
	disconnected := userRow(t, "u1", "default", 0, transport.StatusDisconnected)

	t.Run("first connect", func(t *testing.T) {
		user, ok := IsPresenceChange(nil, connected)
		assert.True(t, ok)
		assert.Equal(t, transport.StatusConnected, user.Status)
	})

	t.Run("status flip", func(t *testing.T) {
		user, ok := IsPresenceChange(connected, disconnected)
		assert.True(t, ok)
		assert.Equal(t, transport.StatusDisconnected, user.Status)
	})

	t.Run("score rewrite is not presence", func(t *testing.T) {
		bumped := userRow(t, "u1", "default", 5, transport.StatusConnected)
		_, ok := IsPresenceChange(connected, bumped)
		assert.False(t, ok)
	})
}
