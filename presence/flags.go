package presence

import (
	guessrcli "github.com/WojciechMatuszewski/btc-guessr/guessr-cli"
	"github.com/urfave/cli/v2"
)

var PresenceOpts struct {
	DisconnectQueueURL string
}

var DisconnectQueueFlag = guessrcli.StringFlag("disconnect-queue-url", "The delay queue buffering disconnect events", &PresenceOpts.DisconnectQueueURL)

var PresenceFlags = []cli.Flag{
	DisconnectQueueFlag,
}
