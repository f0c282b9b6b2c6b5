// Function fileputter starts a DynamoDB session and hands over to package fileputter.
package main

import (
	"context"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"

	"github.com/UKHomeOffice/gwdeploy/pkg/fileputter"
	"github.com/UKHomeOffice/gwdeploy/pkg/logging"
)

var sess *session.Session
var ddb *dynamodb.DynamoDB

func init() {
	sess = session.Must(session.NewSessionWithOptions(session.Options{
		SharedConfigState: session.SharedConfigEnable,
	}))
	ddb = dynamodb.New(sess, &aws.Config{Region: aws.String(os.Getenv("AWS_REGION"))})
}

func handler(ctx context.Context, e fileputter.Event) (events.APIGatewayProxyResponse, error) {
	return fileputter.NewPutter(ddb, logging.New("fileputter")).Handle(ctx, e)
}

func s3handler(ctx context.Context, e events.S3Event) error {
	return fileputter.NewPutter(ddb, logging.New("fileputter")).HandleS3(ctx, e)
}

func main() {
	// SOURCE=s3 subscribes the function to bucket notifications instead of direct invocation
	if os.Getenv("SOURCE") == "s3" {
		lambda.Start(s3handler)
		return
	}
	lambda.Start(handler)
}
