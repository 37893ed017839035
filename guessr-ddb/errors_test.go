package guessrddb

import (
	"fmt"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/tj/assert"
)

func TestIsConditionalCheckFailed(t *testing.T) {
	t.Run("plain conditional write", func(t *testing.T) {
		assert.True(t, IsConditionalCheckFailed(&dynamodb.ConditionalCheckFailedException{}))
	})

	t.Run("wrapped", func(t *testing.T) {
		err := fmt.Errorf("write failed: %w", &dynamodb.ConditionalCheckFailedException{})
		assert.True(t, IsConditionalCheckFailed(err))
	})

	t.Run("cancelled transaction", func(t *testing.T) {
		err := &dynamodb.TransactionCanceledException{
			CancellationReasons: []*dynamodb.CancellationReason{
				{Code: aws.String("None")},
				{Code: aws.String("ConditionalCheckFailed")},
			},
		}
		assert.True(t, IsConditionalCheckFailed(err))
	})

	t.Run("transaction cancelled for other reasons", func(t *testing.T) {
		err := &dynamodb.TransactionCanceledException{
			CancellationReasons: []*dynamodb.CancellationReason{
				{Code: aws.String("TransactionConflict")},
			},
		}
		assert.False(t, IsConditionalCheckFailed(err))
	})

	t.Run("unrelated error", func(t *testing.T) {
		assert.False(t, IsConditionalCheckFailed(fmt.Errorf("throttled")))
	})
}
