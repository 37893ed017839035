package main

import (
	"context"
	"log"
	"math/rand"
	"os"

	"github.com/WojciechMatuszewski/btc-guessr/gamedao"
	guessrcli "github.com/WojciechMatuszewski/btc-guessr/guessr-cli"
	guessrcron "github.com/WojciechMatuszewski/btc-guessr/guessr-cron"
	guessrddb "github.com/WojciechMatuszewski/btc-guessr/guessr-ddb"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/urfave/cli/v2"
)

var service = guessrcli.NewService("ticker")

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

	handler := guessrcron.NewHandler(service, func(ctx context.Context) error {
		_, err := games.NewGame(ctx, guessrcli.CommonOpts.Room, rand.Float64())
		return err
	})
	return handler.Start()
}
