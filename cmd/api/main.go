package main

import (
	"log"
	"os"

	"github.com/WojciechMatuszewski/btc-guessr/api"
	"github.com/WojciechMatuszewski/btc-guessr/gamedao"
	guessrcli "github.com/WojciechMatuszewski/btc-guessr/guessr-cli"
	guessrddb "github.com/WojciechMatuszewski/btc-guessr/guessr-ddb"
	guessrrest "github.com/WojciechMatuszewski/btc-guessr/guessr-rest"
	"github.com/WojciechMatuszewski/btc-guessr/predictiondao"
	"github.com/WojciechMatuszewski/btc-guessr/userdao"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/go-chi/chi/v5"
	"github.com/urfave/cli/v2"
)

var service = guessrcli.NewService("api")

func main() {
	app := guessrcli.App(
		service,
		action,
		append(
			guessrcli.CommonFlags,
			append(
				[]cli.Flag{guessrcli.PortFlag(5000)},
				guessrddb.DDBFlags...,
			)...,
		)...,
	)
	err := app.Run(os.Args)
	if err != nil {
		log.Fatalln(err)
	}
}

func action(_ *cli.Context) error {
	sess := session.Must(session.NewSession(aws.NewConfig()))
	ddbAPI, err := guessrddb.DynamoDBAPI(sess)
	if err != nil {
		return err
	}

	games := gamedao.Build(ddbAPI)
	users := userdao.Build(ddbAPI)
	predictions := predictiondao.Build(ddbAPI)

	routes := chi.NewRouter()
	guessrrest.Middlewares(service, routes)
	api.New(guessrcli.CommonOpts.Room, games, users, predictions).Routes(routes)

	return guessrrest.Webserver(service, routes)
}
