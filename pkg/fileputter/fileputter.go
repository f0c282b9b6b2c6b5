// Package fileputter records uploaded file metadata in DynamoDB.
package fileputter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbattribute"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrGeneric is all a caller learns about a failed write
var ErrGeneric = errors.New("Something went wrong")

// DBPutter is an abstraction (helpful for testing)
type DBPutter interface {
	PutItemWithContext(aws.Context, *dynamodb.PutItemInput, ...request.Option) (*dynamodb.PutItemOutput, error)
}

// Event is the invocation payload
type Event struct {
	Data FileData `json:"data"`
}

// FileData locates an uploaded file
type FileData struct {
	FileURL  string `json:"fileUrl"`
	FileName string `json:"fileName"`
}

// FileRecord is the stored item
type FileRecord struct {
	ID       string `json:"id"`
	FileURL  string `json:"fileUrl"`
	FileName string `json:"fileName"`
}

// Putter is a file record saver
type Putter struct {
	ddb DBPutter
	log zerolog.Logger
}

// NewPutter returns a new putter
func NewPutter(d DBPutter, log zerolog.Logger) *Putter {
	return &Putter{ddb: d, log: log}
}

// Put writes a record with a new id for the file to the table named by FILES_TABLE
func (p *Putter) Put(ctx context.Context, fileURL, fileName string) (FileRecord, error) {

	rec := FileRecord{
		ID:       uuid.NewString(),
		FileURL:  fileURL,
		FileName: fileName,
	}

	item, err := dynamodbattribute.MarshalMap(rec)
	if err != nil {
		return FileRecord{}, fmt.Errorf("failed to marshal db record: %v", err)
	}

	input := &dynamodb.PutItemInput{
		Item:      item,
		TableName: aws.String(os.Getenv("FILES_TABLE")),
	}

	_, err = p.ddb.PutItemWithContext(ctx, input)
	if err != nil {
		return FileRecord{}, fmt.Errorf("failed to put to db: %w", err)
	}

	p.log.Info().Str("id", rec.ID).Str("fileName", rec.FileName).Msg("record created")
	return rec, nil
}

// Handle stores the file in e and replies with a success message
func (p *Putter) Handle(ctx context.Context, e Event) (events.APIGatewayProxyResponse, error) {

	p.log.Info().Interface("event", e).Msg("received event")

	if e.Data.FileURL == "" {
		return events.APIGatewayProxyResponse{
			StatusCode: http.StatusBadRequest,
			Body:       `{"message":"missing fileUrl"}`,
		}, nil
	}

	_, err := p.Put(ctx, e.Data.FileURL, e.Data.FileName)
	if err != nil {
		p.log.Error().Err(err).Msg("could not store file record")
		return events.APIGatewayProxyResponse{}, ErrGeneric
	}

	msg := struct {
		Message string `json:"message"`
	}{
		Message: "Success!",
	}

	bmsg, err := json.Marshal(msg)
	if err != nil {
		p.log.Error().Err(err).Msg("could not marshal response")
		return events.APIGatewayProxyResponse{}, ErrGeneric
	}

	return events.APIGatewayProxyResponse{
		StatusCode: http.StatusOK,
		Body:       string(bmsg),
	}, nil
}

// HandleS3 stores a record for every object created in the notification
func (p *Putter) HandleS3(ctx context.Context, e events.S3Event) error {

	for _, r := range e.Records {
		if !strings.HasPrefix(r.EventName, "ObjectCreated") {
			p.log.Debug().Str("event", r.EventName).Msg("ignoring record")
			continue
		}

		// object keys arrive form encoded
		key, err := url.QueryUnescape(r.S3.Object.Key)
		if err != nil {
			p.log.Error().Err(err).Str("key", r.S3.Object.Key).Msg("could not decode object key")
			return ErrGeneric
		}

		_, err = p.Put(ctx, "s3://"+r.S3.Bucket.Name+"/"+key, path.Base(key))
		if err != nil {
			p.log.Error().Err(err).Str("key", key).Msg("could not store file record")
			return ErrGeneric
		}
	}
	return nil
}
