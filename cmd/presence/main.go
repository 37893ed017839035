package main

import (
	"bufio"
	"context"
	"encoding/json"
	"log"
	"os"

	guessrcli "github.com/WojciechMatuszewski/btc-guessr/guessr-cli"
	guessrddb "github.com/WojciechMatuszewski/btc-guessr/guessr-ddb"
	"github.com/WojciechMatuszewski/btc-guessr/presence"
	"github.com/WojciechMatuszewski/btc-guessr/userdao"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/sqs"
	"github.com/urfave/cli/v2"
)

var service = guessrcli.NewService("presence")

func main() {
	app := guessrcli.App(
		service,
		action,
		append(
			guessrcli.CommonFlags,
			append(
				guessrddb.DDBFlags,
				presence.PresenceFlags...,
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
	users := userdao.Build(api)

	logger := guessrcli.Logger(service)
	handler := presence.NewHandler(
		users,
		sqs.New(sess),
		presence.PresenceOpts.DisconnectQueueURL,
		guessrcli.CommonOpts.Room,
	)

	handle := func(ctx context.Context, raw json.RawMessage) error {
		return handler.Handle(logger.WithContext(ctx), raw)
	}

	// Console mode reads lifecycle events line by line, for local poking.
	if guessrcli.CommonOpts.Console {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			if err := handle(context.Background(), json.RawMessage(scanner.Bytes())); err != nil {
				logger.Error().Err(err).Msg("unable to handle lifecycle event")
			}
		}
		return scanner.Err()
	}

	lambda.Start(handle)
	return nil
}
