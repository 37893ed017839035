package main

import (
	"context"
	"log"
	"os"

	guessrcli "github.com/WojciechMatuszewski/btc-guessr/guessr-cli"
	guessrddb "github.com/WojciechMatuszewski/btc-guessr/guessr-ddb"
	"github.com/WojciechMatuszewski/btc-guessr/presence"
	"github.com/WojciechMatuszewski/btc-guessr/userdao"
	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/sqs"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"
)

var service = guessrcli.NewService("disconnecter")

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
	disconnecter := presence.NewDisconnecter(users)

	handle := func(ctx context.Context, event events.SQSEvent) error {
		return disconnecter.HandleSQS(logger.WithContext(ctx), event)
	}

	// Console mode polls the queue directly, for local runs without the
	// Lambda event source mapping.
	if guessrcli.CommonOpts.Console {
		return pollQueue(sqs.New(sess), logger, handle)
	}

	lambda.Start(handle)
	return nil
}

func pollQueue(client *sqs.SQS, logger zerolog.Logger, handle func(context.Context, events.SQSEvent) error) error {
	ctx := context.Background()
	queueURL := presence.PresenceOpts.DisconnectQueueURL

	for {
		out, err := client.ReceiveMessageWithContext(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:            aws.String(queueURL),
			MaxNumberOfMessages: aws.Int64(10),
			WaitTimeSeconds:     aws.Int64(20),
		})
		if err != nil {
			return err
		}

		event := events.SQSEvent{}
		for _, message := range out.Messages {
			event.Records = append(event.Records, events.SQSMessage{
				MessageId: aws.StringValue(message.MessageId),
				Body:      aws.StringValue(message.Body),
			})
		}
		if len(event.Records) == 0 {
			continue
		}

		if err := handle(ctx, event); err != nil {
			logger.Error().Err(err).Msg("unable to handle batch")
			continue
		}

		for _, message := range out.Messages {
			_, err := client.DeleteMessageWithContext(ctx, &sqs.DeleteMessageInput{
				QueueUrl:      aws.String(queueURL),
				ReceiptHandle: message.ReceiptHandle,
			})
			if err != nil {
				logger.Error().Err(err).Msg("unable to delete message")
			}
		}
	}
}
