// Package userdao owns the player rows of the game table: connection state,
// display names, and scores. All mutations are conditional updates designed
// to survive out-of-order delivery from the presence transport.
package userdao

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	guessrddb "github.com/WojciechMatuszewski/btc-guessr/guessr-ddb"
	"github.com/WojciechMatuszewski/btc-guessr/transport"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"
	"github.com/brianvoe/gofakeit/v6"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// ErrNotFound indicates the user row does not exist.
var ErrNotFound = errors.New("user not found")

// ErrStale indicates a disconnect carried a timestamp older than the user's
// latest recorded activity, i.e. the user reconnected before the disconnect
// was processed. Callers treat this as "ignore", not as a failure.
var ErrStale = errors.New("stale disconnect")

// DAO provides access to user rows.
type DAO struct {
	api       dynamodbiface.DynamoDBAPI
	tableName string
}

// New creates a new user DAO.
func New(api dynamodbiface.DynamoDBAPI, tableName string) *DAO {
	return &DAO{
		api:       api,
		tableName: tableName,
	}
}

// Connected upserts the user as connected to the room. A first connect seeds
// id, a generated display name, and a zero score; reconnects keep all three
// via if_not_exists.
func (d *DAO) Connected(ctx context.Context, id, room string, atMs int64) error {
	name := fmt.Sprintf("%v %v", gofakeit.AdjectiveDescriptive(), gofakeit.Animal())

	_, err := d.api.UpdateItemWithContext(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(d.tableName),
		Key:       Key(id),
		UpdateExpression: aws.String(
			"SET #gsi1pk = :gsi1pk, #lastSeenMs = :lastSeenMs, #status = :status, " +
				"#name = if_not_exists(#name, :name), #id = if_not_exists(#id, :id), #score = if_not_exists(#score, :score)",
		),
		ExpressionAttributeNames: map[string]*string{
			"#gsi1pk":     aws.String("gsi1pk"),
			"#lastSeenMs": aws.String("lastSeenMs"),
			"#status":     aws.String("status"),
			"#name":       aws.String("name"),
			"#id":         aws.String("id"),
			"#score":      aws.String("score"),
		},
		ExpressionAttributeValues: map[string]*dynamodb.AttributeValue{
			":gsi1pk":     {S: aws.String(connectedGSIPK(room))},
			":lastSeenMs": {N: aws.String(strconv.FormatInt(atMs, 10))},
			":status":     {S: aws.String(string(transport.StatusConnected))},
			":name":       {S: aws.String(name)},
			":id":         {S: aws.String(id)},
			":score":      {N: aws.String("0")},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to connect user %v: %w", id, err)
	}
	return nil
}

// Disconnected marks the user disconnected, but only when no later activity
// was recorded. A disconnect that lost the race against a reconnect returns
// ErrStale and leaves the row untouched.
func (d *DAO) Disconnected(ctx context.Context, id string, atMs int64) error {
	_, err := d.api.UpdateItemWithContext(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(d.tableName),
		Key:       Key(id),
		UpdateExpression: aws.String(
			"SET #gsi1pk = :status, #status = :status, #lastSeenMs = :lastSeenMs",
		),
		ConditionExpression: aws.String("attribute_exists(#id) AND #lastSeenMs <= :lastSeenMs"),
		ExpressionAttributeNames: map[string]*string{
			"#gsi1pk":     aws.String("gsi1pk"),
			"#status":     aws.String("status"),
			"#lastSeenMs": aws.String("lastSeenMs"),
			"#id":         aws.String("id"),
		},
		ExpressionAttributeValues: map[string]*dynamodb.AttributeValue{
			":status":     {S: aws.String(string(transport.StatusDisconnected))},
			":lastSeenMs": {N: aws.String(strconv.FormatInt(atMs, 10))},
		},
	})
	if err != nil {
		if guessrddb.IsConditionalCheckFailed(err) {
			return fmt.Errorf("disconnect of user %v at %v: %w", id, atMs, ErrStale)
		}
		return fmt.Errorf("failed to disconnect user %v: %w", id, err)
	}
	return nil
}

// UpdateScores applies one additive score update per user. Updates are
// independent, not a transaction: a deduction hitting the zero floor or a
// throttled write only skips that user. Failures are logged, never retried
// here; the next game settles scores again.
func (d *DAO) UpdateScores(ctx context.Context, scores map[string]int) error {
	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(25)

	for userID, delta := range scores {
		userID, delta := userID, delta
		group.Go(func() error {
			if err := d.updateScore(ctx, userID, delta); err != nil {
				zerolog.Ctx(ctx).Warn().
					Err(err).
					Str("userId", userID).
					Int("delta", delta).
					Msg("score update skipped")
			}
			return nil
		})
	}

	return group.Wait()
}

func (d *DAO) updateScore(ctx context.Context, userID string, delta int) error {
	input := &dynamodb.UpdateItemInput{
		TableName:        aws.String(d.tableName),
		Key:              Key(userID),
		UpdateExpression: aws.String("ADD #score :score"),
		ExpressionAttributeNames: map[string]*string{
			"#score": aws.String("score"),
		},
		ExpressionAttributeValues: map[string]*dynamodb.AttributeValue{
			":score": {N: aws.String(strconv.Itoa(delta))},
		},
	}
	// The floor-at-zero invariant: a deduction requires a point to deduct.
	if delta < 0 {
		input.ConditionExpression = aws.String("#score >= :one")
		input.ExpressionAttributeValues[":one"] = &dynamodb.AttributeValue{N: aws.String("1")}
	}

	if _, err := d.api.UpdateItemWithContext(ctx, input); err != nil {
		return fmt.Errorf("failed to update score of user %v by %v: %w", userID, delta, err)
	}
	return nil
}

// Get returns a user row, or ErrNotFound.
func (d *DAO) Get(ctx context.Context, id string) (UserItem, error) {
	out, err := d.api.GetItemWithContext(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(d.tableName),
		Key:       Key(id),
	})
	if err != nil {
		return UserItem{}, fmt.Errorf("failed to get user %v: %w", id, err)
	}
	if len(out.Item) == 0 {
		return UserItem{}, fmt.Errorf("no user %v: %w", id, ErrNotFound)
	}

	user, err := ParseUserItem(out.Item)
	if err != nil {
		return UserItem{}, fmt.Errorf("user row %v: %w", id, err)
	}
	return user, nil
}

// ConnectedUsers returns every user currently connected to the room, via the
// status GSI.
func (d *DAO) ConnectedUsers(ctx context.Context, room string) ([]UserItem, error) {
	var (
		users    []UserItem
		parseErr error
	)

	input := &dynamodb.QueryInput{
		TableName:              aws.String(d.tableName),
		IndexName:              aws.String(StatusIndex),
		KeyConditionExpression: aws.String("#gsi1pk = :gsi1pk"),
		ExpressionAttributeNames: map[string]*string{
			"#gsi1pk": aws.String("gsi1pk"),
		},
		ExpressionAttributeValues: map[string]*dynamodb.AttributeValue{
			":gsi1pk": {S: aws.String(connectedGSIPK(room))},
		},
	}

	err := d.api.QueryPagesWithContext(ctx, input, func(page *dynamodb.QueryOutput, lastPage bool) bool {
		for _, item := range page.Items {
			var user UserItem
			if user, parseErr = ParseUserItem(item); parseErr != nil {
				return false
			}
			users = append(users, user)
		}
		return true
	})
	if err == nil {
		err = parseErr
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query connected users of room %v: %w", room, err)
	}
	return users, nil
}
