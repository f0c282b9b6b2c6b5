// Function deployer starts a DynamoDB session and hands over to package deployer.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"

	"github.com/UKHomeOffice/gwdeploy/pkg/deployer"
	"github.com/UKHomeOffice/gwdeploy/pkg/logging"
	"github.com/UKHomeOffice/gwdeploy/pkg/statestore"
)

var sess *session.Session
var ddb *dynamodb.DynamoDB

func init() {
	sess = session.Must(session.NewSessionWithOptions(session.Options{
		SharedConfigState: session.SharedConfigEnable,
	}))
	ddb = dynamodb.New(sess, &aws.Config{Region: aws.String(os.Getenv("AWS_REGION"))})
}

// request is the invocation payload
type request struct {
	ServiceID string          `json:"serviceId"`
	Inputs    deployer.Inputs `json:"inputs"`
}

func handler(ctx context.Context, req request) (deployer.Output, error) {

	table, ok := os.LookupEnv("STATE_TABLE")
	if !ok {
		return deployer.Output{}, fmt.Errorf("missing environment variable: STATE_TABLE")
	}

	log := logging.New("deployer")
	store := statestore.NewDynamo(ddb, table, req.ServiceID, log)
	return deployer.Run(ctx, req.Inputs, req.ServiceID, store, log)
}

func main() {
	lambda.Start(handler)
}
