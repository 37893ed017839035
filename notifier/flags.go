package notifier

import (
	guessrcli "github.com/WojciechMatuszewski/btc-guessr/guessr-cli"
	"github.com/urfave/cli/v2"
)

var NotifierOpts struct {
	Topic string
}

var TopicFlag = guessrcli.StringFlag("game-topic", "The pub/sub topic game events are broadcast on", &NotifierOpts.Topic, "game")

var NotifierFlags = []cli.Flag{
	TopicFlag,
}
