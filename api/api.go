// Package api exposes the REST surface of the game: the snapshot read,
// prediction submission, and single-user lookup.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/WojciechMatuszewski/btc-guessr/gamedao"
	"github.com/WojciechMatuszewski/btc-guessr/predictiondao"
	"github.com/WojciechMatuszewski/btc-guessr/transport"
	"github.com/WojciechMatuszewski/btc-guessr/userdao"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// API serves the game's REST routes.
type API struct {
	room        string
	games       *gamedao.DAO
	users       *userdao.DAO
	predictions *predictiondao.DAO
}

// New creates the API for a room.
func New(room string, games *gamedao.DAO, users *userdao.DAO, predictions *predictiondao.DAO) *API {
	return &API{
		room:        room,
		games:       games,
		users:       users,
		predictions: predictions,
	}
}

// Routes mounts the API onto a router.
func (a *API) Routes(r chi.Router) {
	r.Get("/game", a.getState)
	r.Post("/game/{gameID}/predictions", a.postPrediction)
	r.Get("/users/{userID}", a.getUser)
}

// getState serves the hydration snapshot. Reads are eventually consistent:
// a client may not find itself among the users yet and is expected to retry.
func (a *API) getState(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	game, err := a.games.Get(ctx, a.room)
	if err != nil {
		if errors.Is(err, gamedao.ErrNotFound) {
			writeError(w, http.StatusNotFound, "no game yet")
			return
		}
		internalError(w, r, err)
		return
	}

	users, err := a.users.ConnectedUsers(ctx, a.room)
	if err != nil {
		internalError(w, r, err)
		return
	}

	predictions, err := a.predictions.ForGame(ctx, game.ID)
	if err != nil {
		internalError(w, r, err)
		return
	}

	byUser := make(map[string]transport.Direction, len(predictions))
	for _, prediction := range predictions {
		byUser[prediction.UserID] = prediction.Prediction
	}

	state := transport.GameState{
		Game:  game.ToGame(),
		Users: make([]transport.UserWithPrediction, 0, len(users)),
	}
	for _, user := range users {
		view := transport.UserWithPrediction{User: user.ToUser()}
		if direction, ok := byUser[user.ID]; ok {
			direction := direction
			view.Prediction = &direction
		}
		state.Users = append(state.Users, view)
	}

	writeJSON(w, http.StatusOK, state)
}

type predictionRequest struct {
	UserID     string `json:"userId"`
	Prediction string `json:"prediction"`
}

func (a *API) postPrediction(w http.ResponseWriter, r *http.Request) {
	gameID := chi.URLParam(r, "gameID")
	if gameID == "" {
		writeError(w, http.StatusBadRequest, "missing game id")
		return
	}

	var body predictionRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "malformed body")
		return
	}
	if body.UserID == "" {
		writeError(w, http.StatusBadRequest, "missing userId")
		return
	}
	direction, err := transport.ParseDirection(body.Prediction)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	err = a.predictions.Predict(r.Context(), gameID, a.room, body.UserID, direction)
	if err != nil {
		if errors.Is(err, predictiondao.ErrConflict) {
			writeError(w, http.StatusConflict, "game advanced or user unknown")
			return
		}
		internalError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, struct{}{})
}

func (a *API) getUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "missing user id")
		return
	}

	user, err := a.users.Get(r.Context(), userID)
	if err != nil {
		if errors.Is(err, userdao.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		internalError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, user.ToUser())
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}

func internalError(w http.ResponseWriter, r *http.Request, err error) {
	zerolog.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	writeError(w, http.StatusInternalServerError, "internal error")
}
