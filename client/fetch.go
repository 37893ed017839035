package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/WojciechMatuszewski/btc-guessr/transport"
)

// HTTPFetcher fetches the hydration snapshot from the REST API.
type HTTPFetcher struct {
	Endpoint string
	Client   *http.Client
}

// NewHTTPFetcher creates a fetcher against an API base URL.
func NewHTTPFetcher(endpoint string) *HTTPFetcher {
	return &HTTPFetcher{
		Endpoint: endpoint,
		Client:   http.DefaultClient,
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context) (transport.GameState, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.Endpoint+"/game", nil)
	if err != nil {
		return transport.GameState{}, fmt.Errorf("failed to build snapshot request: %w", err)
	}

	resp, err := f.Client.Do(req)
	if err != nil {
		return transport.GameState{}, fmt.Errorf("failed to fetch snapshot: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return transport.GameState{}, ErrGameNotFound
	case resp.StatusCode != http.StatusOK:
		return transport.GameState{}, fmt.Errorf("snapshot request failed with status %v", resp.StatusCode)
	}

	var state transport.GameState
	if err := json.NewDecoder(resp.Body).Decode(&state); err != nil {
		return transport.GameState{}, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	if state.Game.ID == "" {
		return transport.GameState{}, fmt.Errorf("snapshot missing game id")
	}
	return state, nil
}
