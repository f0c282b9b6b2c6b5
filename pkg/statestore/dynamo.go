// Package statestore keeps deploy state between runs.
package statestore

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbattribute"
	"github.com/rs/zerolog"

	"github.com/UKHomeOffice/gwdeploy/pkg/deployer"
)

// DB defines client methods
type DB interface {
	GetItemWithContext(aws.Context, *dynamodb.GetItemInput, ...request.Option) (*dynamodb.GetItemOutput, error)
	PutItemWithContext(aws.Context, *dynamodb.PutItemInput, ...request.Option) (*dynamodb.PutItemOutput, error)
}

// record is the item stored per service
type record struct {
	ServiceID string         `json:"serviceId"`
	State     deployer.State `json:"state"`
}

// Dynamo stores the state of one service in a DynamoDB table keyed on serviceId
type Dynamo struct {
	ddb       DB
	table     string
	serviceID string
	log       zerolog.Logger
}

// NewDynamo returns a new Dynamo store
func NewDynamo(d DB, table, serviceID string, log zerolog.Logger) *Dynamo {
	return &Dynamo{ddb: d, table: table, serviceID: serviceID, log: log}
}

// Load returns the stored state, or an empty one if the service has never deployed
func (d *Dynamo) Load(ctx context.Context) (deployer.State, error) {

	if d.serviceID == "" {
		return deployer.State{}, fmt.Errorf("no service id")
	}

	input := &dynamodb.GetItemInput{
		TableName:      aws.String(d.table),
		ConsistentRead: aws.Bool(true),
		Key: map[string]*dynamodb.AttributeValue{
			"serviceId": {
				S: aws.String(d.serviceID),
			},
		},
	}

	resp, err := d.ddb.GetItemWithContext(ctx, input)
	if err != nil {
		return deployer.State{}, fmt.Errorf("failed to get item: %v", err)
	}

	if resp.Item == nil {
		d.log.Info().Str("service", d.serviceID).Msg("no stored state, starting empty")
		return deployer.NewState(), nil
	}

	var rec record
	err = dynamodbattribute.UnmarshalMap(resp.Item, &rec)
	if err != nil {
		return deployer.State{}, fmt.Errorf("failed to unmarshal item: %v", err)
	}
	return rec.State.WithDefaults(), nil
}

// SaveState overwrites the stored state
func (d *Dynamo) SaveState(ctx context.Context, s deployer.State) error {

	item, err := dynamodbattribute.MarshalMap(record{ServiceID: d.serviceID, State: s})
	if err != nil {
		return fmt.Errorf("failed to marshal db record: %v", err)
	}

	input := &dynamodb.PutItemInput{
		Item:      item,
		TableName: aws.String(d.table),
	}

	_, err = d.ddb.PutItemWithContext(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to put to db: %v", err)
	}

	d.log.Debug().Str("service", d.serviceID).Msg("state saved")
	return nil
}
