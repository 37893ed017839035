package notifier

import (
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/iotdataplane"
)

// Build creates a Publisher on the configured broadcast topic.
func Build() *Publisher {
	sess := session.Must(session.NewSession(aws.NewConfig()))
	return New(iotdataplane.New(sess), NotifierOpts.Topic)
}
