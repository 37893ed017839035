// Package guessrcron provides the scheduled-Lambda scaffolding used by the
// game ticker.
package guessrcron

import (
	"context"
	"encoding/json"

	guessrcli "github.com/WojciechMatuszewski/btc-guessr/guessr-cli"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/rs/zerolog"
)

type RunCallback func(ctx context.Context) error

type Handler struct {
	service guessrcli.Service
	logger  zerolog.Logger

	runOnce RunCallback
}

func NewHandler(
	service guessrcli.Service,
	runOnce RunCallback,
) *Handler {
	return &Handler{
		service: service,
		logger:  guessrcli.Logger(service),
		runOnce: runOnce,
	}
}

func (h *Handler) RunOnce(ctx context.Context, _ json.RawMessage) error {
	h.logger.Info().Msg("running scheduled task")
	return h.runOnce(h.logger.WithContext(ctx))
}

func (h *Handler) Start() error {
	switch {
	case guessrcli.CommonOpts.Console:
		return h.runOnce(h.logger.WithContext(context.Background()))

	default:
		lambda.Start(h.RunOnce)
	}
	return nil
}
