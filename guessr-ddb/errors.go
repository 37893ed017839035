package guessrddb

import (
	"errors"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/dynamodb"
)

// IsConditionalCheckFailed reports whether a write failed because a condition
// expression did not hold, either on a plain conditional write or on any item
// of a transaction.
func IsConditionalCheckFailed(err error) bool {
	var conditional *dynamodb.ConditionalCheckFailedException
	if errors.As(err, &conditional) {
		return true
	}

	var cancelled *dynamodb.TransactionCanceledException
	if errors.As(err, &cancelled) {
		for _, reason := range cancelled.CancellationReasons {
			if aws.StringValue(reason.Code) == "ConditionalCheckFailed" {
				return true
			}
		}
	}
	return false
}
