// Package guessrrest provides the REST glue for the game API: CORS, logging
// middleware, and the console-or-Lambda webserver switch.
package guessrrest

import (
	"fmt"
	"net/http"

	guessrcli "github.com/WojciechMatuszewski/btc-guessr/guessr-cli"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
	"github.com/savaki/apigateway"
)

func Middlewares(service guessrcli.Service, routes chi.Router) chi.Router {
	routes.Use(
		withCORS(),
		withLogger(guessrcli.Logger(service)),
		middleware.Recoverer,
	)
	return routes
}

func Webserver(service guessrcli.Service, routes chi.Router) error {
	logger := guessrcli.Logger(service)

	if guessrcli.CommonOpts.Console {
		logger.Info().Int("port", guessrcli.CommonOpts.Port).Msg("starting http server")
		addr := fmt.Sprintf(":%v", guessrcli.CommonOpts.Port)
		return http.ListenAndServe(addr, routes)
	}

	lambda.Start(apigateway.Wrap(routes, guessrcli.CommonOpts.Env))
	return nil
}

func withCORS() func(next http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	})
}

func withLogger(logger zerolog.Logger) func(handler http.Handler) http.Handler {
	return func(handler http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := logger.WithContext(req.Context())
			req = req.WithContext(ctx)
			handler.ServeHTTP(w, req)
		})
	}
}
