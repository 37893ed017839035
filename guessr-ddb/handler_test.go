package guessrddb

import (
	"context"
	"encoding/json"
	"testing"

	guessrcli "github.com/WojciechMatuszewski/btc-guessr/guessr-cli"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/savaki/ddb"
	"github.com/tj/assert"
)

func record(t *testing.T, eventName string) ddb.Record {
	t.Helper()
	raw := []byte(`{
		"eventID": "e1",
		"eventName": "` + eventName + `",
		"dynamodb": {
			"OldImage": {"pk": {"S": "GAME"}},
			"NewImage": {"pk": {"S": "GAME"}}
		}
	}`)
	var r ddb.Record
	assert.NoError(t, json.Unmarshal(raw, &r))
	return r
}

func TestHandleSingleRecord(t *testing.T) {
	service := guessrcli.NewService("test")

	var got []string
	handler := NewHandler(service,
		func(ctx context.Context, newValue map[string]*dynamodb.AttributeValue) error {
			got = append(got, "insert")
			assert.NotEmpty(t, newValue)
			return nil
		},
		func(ctx context.Context, oldValue, newValue map[string]*dynamodb.AttributeValue) error {
			got = append(got, "update")
			assert.NotEmpty(t, oldValue)
			return nil
		},
		nil,
	)

	ctx := context.Background()

	assert.NoError(t, handler.HandleSingleRecord(ctx, record(t, "INSERT")))
	assert.NoError(t, handler.HandleSingleRecord(ctx, record(t, "MODIFY")))

	// No delete callback registered.
	assert.NoError(t, handler.HandleSingleRecord(ctx, record(t, "REMOVE")))

	assert.Equal(t, []string{"insert", "update"}, got)
}
