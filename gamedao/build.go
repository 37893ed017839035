package gamedao

import (
	guessrddb "github.com/WojciechMatuszewski/btc-guessr/guessr-ddb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"
)

// Build creates a game DAO against the configured game table.
func Build(api dynamodbiface.DynamoDBAPI) *DAO {
	return New(api, guessrddb.DDBOpts.TableName)
}
