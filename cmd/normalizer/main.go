package main

import (
	"context"
	"log"
	"os"

	"github.com/WojciechMatuszewski/btc-guessr/gamedao"
	guessrcli "github.com/WojciechMatuszewski/btc-guessr/guessr-cli"
	guessrddb "github.com/WojciechMatuszewski/btc-guessr/guessr-ddb"
	"github.com/WojciechMatuszewski/btc-guessr/normalizer"
	"github.com/WojciechMatuszewski/btc-guessr/notifier"
	"github.com/WojciechMatuszewski/btc-guessr/predictiondao"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/urfave/cli/v2"
)

var service = guessrcli.NewService("normalizer")

func main() {
	app := guessrcli.App(
		service,
		action,
		append(
			guessrcli.CommonFlags,
			append(
				guessrddb.DDBFlags,
				notifier.NotifierFlags...,
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
	api, err := guessrddb.DynamoDBAPI(sess)
	if err != nil {
		return err
	}
	games := gamedao.Build(api)
	predictions := predictiondao.Build(api)

	norm := normalizer.New(guessrcli.CommonOpts.Room, games, predictions)
	publisher := notifier.Build()

	broadcast := func(ctx context.Context, oldValue, newValue map[string]*dynamodb.AttributeValue) error {
		event, ok, err := norm.Normalize(ctx, oldValue, newValue)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		publisher.Publish(ctx, event)
		return nil
	}

	handler := guessrddb.NewHandler(
		service,
		func(ctx context.Context, newValue map[string]*dynamodb.AttributeValue) error {
			return broadcast(ctx, nil, newValue)
		},
		broadcast,
		nil,
	)
	return handler.Start()
}
