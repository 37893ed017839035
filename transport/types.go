// Package transport defines the domain types and events shared between the
// backend pipeline and game clients. These are the normalized views, not the
// raw table rows.
package transport

import "fmt"

// Direction is a player's guess about where the game value moves next.
type Direction string

const (
	DirectionUp   Direction = "UP"
	DirectionDown Direction = "DOWN"
)

// ParseDirection validates a wire-level direction string.
func ParseDirection(s string) (Direction, error) {
	switch Direction(s) {
	case DirectionUp, DirectionDown:
		return Direction(s), nil
	default:
		return "", fmt.Errorf("invalid direction %q", s)
	}
}

// Status is a user's connection state.
type Status string

const (
	StatusConnected    Status = "CONNECTED"
	StatusDisconnected Status = "DISCONNECTED"
)

// Game is the current game of a room.
type Game struct {
	ID          string  `json:"id"`
	Room        string  `json:"room"`
	Value       float64 `json:"value"`
	CreatedAtMs int64   `json:"createdAtMs"`
}

// User is a player as seen by clients.
type User struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Score  int64  `json:"score"`
	Status Status `json:"status"`
}

// UserWithPrediction is a User together with their pending prediction for the
// active game, nil when they have not predicted yet.
type UserWithPrediction struct {
	User
	Prediction *Direction `json:"prediction"`
}

// Prediction is a single user's guess for a specific game.
type Prediction struct {
	UserID     string    `json:"userId"`
	GameID     string    `json:"gameId"`
	Prediction Direction `json:"prediction"`
}

// GameState is the snapshot served to (re)hydrating clients: the room's
// current game and its connected users merged with their predictions.
type GameState struct {
	Game  Game                 `json:"game"`
	Users []UserWithPrediction `json:"users"`
}

// Disconnection is the debounced disconnect notice routed through the delay
// queue. The timestamp is the transport-layer disconnect time, used to reject
// disconnects that raced a later reconnect.
type Disconnection struct {
	UserID      string `json:"userId"`
	TimestampMs int64  `json:"timestampMs"`
}
