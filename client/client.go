// Package client implements the game client's state machine: hydrate a
// snapshot over REST, then fold broadcast events into it. Broadcasts are
// at-least-once and unordered, so the fold tolerates duplicates and events
// about users it has never seen.
package client

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/WojciechMatuszewski/btc-guessr/transport"
	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
)

var (
	// ErrNotYetConsistent means the snapshot was served before the local
	// user's connect write became readable. Resolves itself quickly.
	ErrNotYetConsistent = errors.New("user not yet visible in snapshot")
	// ErrGameNotFound means no game row exists for the room yet. The ticker
	// creates one on its next run.
	ErrGameNotFound = errors.New("game not found")
)

// Fetcher retrieves the hydration snapshot.
type Fetcher interface {
	Fetch(ctx context.Context) (transport.GameState, error)
}

// Phase is the client lifecycle state.
type Phase string

const (
	PhaseLoading Phase = "LOADING"
	PhaseReady   Phase = "READY"
	PhaseError   Phase = "ERROR"
)

const (
	notReadyInterval = 2 * time.Second
	notReadyRetries  = 3

	// Sized to the game tick: if no game exists, one will within a tick.
	notFoundInterval = 70 * time.Second
	notFoundRetries  = 2
)

// Client holds a user's live view of a room.
type Client struct {
	userID  string
	fetcher Fetcher

	notReadyInterval time.Duration
	notFoundInterval time.Duration

	mu    sync.Mutex
	phase Phase
	state transport.GameState
}

// New creates a client for a user. The client is in PhaseLoading until
// Hydrate succeeds.
func New(userID string, fetcher Fetcher) *Client {
	return &Client{
		userID:           userID,
		fetcher:          fetcher,
		notReadyInterval: notReadyInterval,
		notFoundInterval: notFoundInterval,
		phase:            PhaseLoading,
	}
}

// Phase returns the current lifecycle phase.
func (c *Client) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// State returns a copy of the current game state. Only meaningful in
// PhaseReady.
func (c *Client) State() transport.GameState {
	c.mu.Lock()
	defer c.mu.Unlock()
	state := c.state
	state.Users = copyUsers(c.state.Users)
	return state
}

// Hydrate fetches the snapshot until it both exists and contains the local
// user. The two failure modes retry on different schedules: eventual
// consistency clears in seconds, a missing game needs a full tick. Exhausting
// either surfaces as ErrGameNotFound and moves the client to PhaseError.
func (c *Client) Hydrate(ctx context.Context) error {
	notReady := backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(c.notReadyInterval), notReadyRetries), ctx)
	notFound := backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(c.notFoundInterval), notFoundRetries), ctx)

	for {
		state, err := c.fetchOnce(ctx)
		if err == nil {
			c.mu.Lock()
			c.state = state
			c.phase = PhaseReady
			c.mu.Unlock()
			return nil
		}

		var policy backoff.BackOff
		switch {
		case errors.Is(err, ErrNotYetConsistent):
			policy = notReady
		case errors.Is(err, ErrGameNotFound):
			policy = notFound
		default:
			c.fail()
			return fmt.Errorf("failed to hydrate: %w", err)
		}

		wait := policy.NextBackOff()
		if wait == backoff.Stop {
			c.fail()
			if errors.Is(err, ErrNotYetConsistent) {
				return fmt.Errorf("user %v never became visible: %w", c.userID, ErrGameNotFound)
			}
			return fmt.Errorf("failed to hydrate: %w", err)
		}

		zerolog.Ctx(ctx).Info().
			Err(err).
			Dur("wait", wait).
			Msg("snapshot not ready; retrying")

		select {
		case <-ctx.Done():
			c.fail()
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

func (c *Client) fetchOnce(ctx context.Context) (transport.GameState, error) {
	state, err := c.fetcher.Fetch(ctx)
	if err != nil {
		return transport.GameState{}, err
	}
	for _, user := range state.Users {
		if user.ID == c.userID {
			return state, nil
		}
	}
	return transport.GameState{}, ErrNotYetConsistent
}

func (c *Client) fail() {
	c.mu.Lock()
	c.phase = PhaseError
	c.mu.Unlock()
}

// Apply folds one event into the state. Events arriving before hydration
// completes are dropped; the snapshot that ends hydration supersedes them.
// Presence events about the local user are ignored, the snapshot established
// our own membership.
func (c *Client) Apply(event transport.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.phase != PhaseReady {
		return
	}
	if presence, ok := event.(transport.PresenceEvent); ok && presence.Payload.ID == c.userID {
		return
	}
	c.state = Reduce(c.state, event)
}

// Run hydrates and then consumes raw broadcast messages until the context is
// cancelled or the channel closes. Unparseable messages are logged and
// skipped.
func (c *Client) Run(ctx context.Context, messages <-chan []byte) error {
	if err := c.Hydrate(ctx); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case message, ok := <-messages:
			if !ok {
				return nil
			}
			event, err := transport.Parse(message)
			if err != nil {
				zerolog.Ctx(ctx).Warn().Err(err).Msg("skipping unparseable message")
				continue
			}
			c.Apply(event)
		}
	}
}
