package main

import (
	"log"
	"os"

	"github.com/WojciechMatuszewski/btc-guessr/distributor"
	"github.com/WojciechMatuszewski/btc-guessr/gamedao"
	guessrcli "github.com/WojciechMatuszewski/btc-guessr/guessr-cli"
	guessrddb "github.com/WojciechMatuszewski/btc-guessr/guessr-ddb"
	"github.com/WojciechMatuszewski/btc-guessr/predictiondao"
	"github.com/WojciechMatuszewski/btc-guessr/scoring"
	"github.com/WojciechMatuszewski/btc-guessr/userdao"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/urfave/cli/v2"
)

var service = guessrcli.NewService("distributor")

func main() {
	app := guessrcli.App(
		service,
		action,
		append(
			guessrcli.CommonFlags,
			guessrddb.DDBFlags...,
		)...,
	)
	err := app.Run(os.Args)
	if err != nil {
		log.Fatalln(err)
	}
}

func action(_ *cli.Context) error {
	sess := session.Must(session.NewSession(aws.NewConfig()))
	api, err := guessrddb.DynamoDBAPI(sess)
	if err != nil {
		return err
	}
	games := gamedao.Build(api)
	predictions := predictiondao.Build(api)
	users := userdao.Build(api)

	engine := scoring.New(games, predictions)
	dist := distributor.New(engine, users)

	handler := guessrddb.NewHandler(service, dist.OnInsert, nil, nil)
	return handler.Start()
}
