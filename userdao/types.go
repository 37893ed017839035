package userdao

import (
	"fmt"
	"strings"

	"github.com/WojciechMatuszewski/btc-guessr/transport"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbattribute"
)

const (
	userPK = "USER"
	userSK = "USER#"

	// StatusIndex is the GSI keyed by gsi1pk, used for the
	// connected-users-by-room query.
	StatusIndex = "ByUserStatus"

	connectedPrefix   = string(transport.StatusConnected) + "#ROOM#"
	disconnectedGSIPK = string(transport.StatusDisconnected)
)

// UserItem is a player row. Connection state transitions rewrite gsi1pk so
// that connected users of a room share one index partition.
type UserItem struct {
	PK         string           `dynamodbav:"pk"`
	SK         string           `dynamodbav:"sk"`
	GSI1PK     string           `dynamodbav:"gsi1pk"`
	ID         string           `dynamodbav:"id"`
	Name       string           `dynamodbav:"name"`
	Score      int64            `dynamodbav:"score"`
	Status     transport.Status `dynamodbav:"status"`
	LastSeenMs int64            `dynamodbav:"lastSeenMs"`
}

func (u UserItem) validate() error {
	if u.PK != userPK || !strings.HasPrefix(u.SK, userSK) {
		return fmt.Errorf("malformed user key %v/%v", u.PK, u.SK)
	}
	if u.ID == "" {
		return fmt.Errorf("user row missing id")
	}
	switch u.Status {
	case transport.StatusConnected:
		if !strings.HasPrefix(u.GSI1PK, connectedPrefix) {
			return fmt.Errorf("connected user %v has gsi1pk %q", u.ID, u.GSI1PK)
		}
	case transport.StatusDisconnected:
		if u.GSI1PK != disconnectedGSIPK {
			return fmt.Errorf("disconnected user %v has gsi1pk %q", u.ID, u.GSI1PK)
		}
	default:
		return fmt.Errorf("user %v has invalid status %q", u.ID, u.Status)
	}
	return nil
}

// ToUser converts the row into its client-facing view.
func (u UserItem) ToUser() transport.User {
	return transport.User{
		ID:     u.ID,
		Name:   u.Name,
		Score:  u.Score,
		Status: u.Status,
	}
}

// Key is the table key of a user row.
func Key(id string) map[string]*dynamodb.AttributeValue {
	return map[string]*dynamodb.AttributeValue{
		"pk": {S: aws.String(userPK)},
		"sk": {S: aws.String(userSK + id)},
	}
}

func connectedGSIPK(room string) string {
	return connectedPrefix + room
}

// ParseUserItem decodes and validates a raw user row image.
func ParseUserItem(item map[string]*dynamodb.AttributeValue) (UserItem, error) {
	var u UserItem
	if err := dynamodbattribute.UnmarshalMap(item, &u); err != nil {
		return UserItem{}, fmt.Errorf("unable to unmarshal user row: %w", err)
	}
	if err := u.validate(); err != nil {
		return UserItem{}, err
	}
	return u, nil
}

// IsPresenceChange reports whether an image pair represents a connection
// state transition: a first connect (no old image) or a status flip. Score
// and lastSeen rewrites with an unchanged status are not presence changes.
func IsPresenceChange(oldItem, newItem map[string]*dynamodb.AttributeValue) (UserItem, bool) {
	newUser, err := ParseUserItem(newItem)
	if err != nil {
		return UserItem{}, false
	}

	if len(oldItem) == 0 {
		return newUser, true
	}

	oldUser, err := ParseUserItem(oldItem)
	if err != nil {
		return UserItem{}, false
	}
	if oldUser.Status == newUser.Status {
		return UserItem{}, false
	}
	return newUser, true
}
