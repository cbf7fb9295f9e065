package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// StatusIndex is the GSI (status, created_at) used to list pending entries.
const StatusIndex = "status-created_at-index"

// DynamoAPI is the subset of the DynamoDB client the outbox uses.
type DynamoAPI interface {
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, in *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
}

// DynamoOutbox stores entries in a DynamoDB table keyed by id.
type DynamoOutbox struct {
	client DynamoAPI
	table  string
	now    func() time.Time
}

type dynamoEntry struct {
	ID            string `dynamodbav:"id"`
	AggregateID   string `dynamodbav:"aggregate_id"`
	AggregateType string `dynamodbav:"aggregate_type"`
	EventType     string `dynamodbav:"event_type"`
	Data          string `dynamodbav:"data"`
	Status        string `dynamodbav:"status"`
	Attempts      int    `dynamodbav:"attempts"`
	LastError     string `dynamodbav:"last_error"`
	CreatedAt     string `dynamodbav:"created_at"`
	UpdatedAt     string `dynamodbav:"updated_at"`
}

func NewDynamoOutbox(client DynamoAPI, table string) *DynamoOutbox {
	return &DynamoOutbox{client: client, table: table, now: time.Now}
}

// NewDynamoClient builds a client from the default AWS credential chain.
// A non-empty endpoint points it at a local emulator.
func NewDynamoClient(ctx context.Context, region, endpoint string) (*dynamodb.Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	}), nil
}

func (s *DynamoOutbox) Append(ctx context.Context, aggregateID, aggregateType, eventType string, data any) (*Entry, error) {
	e, err := newEntry(aggregateID, aggregateType, eventType, data, s.now())
	if err != nil {
		return nil, err
	}

	av, err := attributevalue.MarshalMap(toDynamo(e))
	if err != nil {
		return nil, fmt.Errorf("marshal outbox entry: %w", err)
	}
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.table),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(id)"),
	})
	if err != nil {
		return nil, fmt.Errorf("put outbox entry: %w", err)
	}
	return &e, nil
}

func (s *DynamoOutbox) Pending(ctx context.Context, limit int) ([]Entry, error) {
	result, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.table),
		IndexName:              aws.String(StatusIndex),
		KeyConditionExpression: aws.String("#status = :pending"),
		ExpressionAttributeNames: map[string]string{
			"#status": "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pending": &types.AttributeValueMemberS{Value: string(StatusPending)},
		},
		ScanIndexForward: aws.Bool(true),
		Limit:            aws.Int32(int32(batchSize(limit))),
	})
	if err != nil {
		return nil, fmt.Errorf("query pending outbox: %w", err)
	}

	out := make([]Entry, 0, len(result.Items))
	for _, item := range result.Items {
		var de dynamoEntry
		if err := attributevalue.UnmarshalMap(item, &de); err != nil {
			return nil, fmt.Errorf("unmarshal outbox entry: %w", err)
		}
		out = append(out, fromDynamo(de))
	}
	return out, nil
}

func (s *DynamoOutbox) MarkProcessed(ctx context.Context, id string) error {
	return s.update(ctx, id, "SET #status = :status, updated_at = :now", map[string]types.AttributeValue{
		":status": &types.AttributeValueMemberS{Value: string(StatusProcessed)},
		":now":    &types.AttributeValueMemberS{Value: s.now().Format(time.RFC3339Nano)},
	})
}

func (s *DynamoOutbox) MarkFailed(ctx context.Context, id string, cause error, dead bool) error {
	return s.update(ctx, id, "SET #status = :status, updated_at = :now, last_error = :err ADD attempts :one", map[string]types.AttributeValue{
		":status": &types.AttributeValueMemberS{Value: string(failedStatus(dead))},
		":now":    &types.AttributeValueMemberS{Value: s.now().Format(time.RFC3339Nano)},
		":err":    &types.AttributeValueMemberS{Value: errorText(cause)},
		":one":    &types.AttributeValueMemberN{Value: "1"},
	})
}

func (s *DynamoOutbox) update(ctx context.Context, id, expr string, values map[string]types.AttributeValue) error {
	_, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.table),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
		UpdateExpression:          aws.String(expr),
		ConditionExpression:       aws.String("attribute_exists(id)"),
		ExpressionAttributeNames:  map[string]string{"#status": "status"},
		ExpressionAttributeValues: values,
	})
	var condErr *types.ConditionalCheckFailedException
	if errors.As(err, &condErr) {
		return fmt.Errorf("%w: %s", ErrEntryNotFound, id)
	}
	if err != nil {
		return fmt.Errorf("update outbox entry: %w", err)
	}
	return nil
}

func toDynamo(e Entry) dynamoEntry {
	return dynamoEntry{
		ID:            e.ID,
		AggregateID:   e.AggregateID,
		AggregateType: e.AggregateType,
		EventType:     e.EventType,
		Data:          string(e.Data),
		Status:        string(e.Status),
		Attempts:      e.Attempts,
		LastError:     e.LastError,
		CreatedAt:     e.CreatedAt.Format(time.RFC3339Nano),
		UpdatedAt:     e.UpdatedAt.Format(time.RFC3339Nano),
	}
}

func fromDynamo(de dynamoEntry) Entry {
	created, _ := time.Parse(time.RFC3339Nano, de.CreatedAt)
	updated, _ := time.Parse(time.RFC3339Nano, de.UpdatedAt)
	return Entry{
		ID:            de.ID,
		AggregateID:   de.AggregateID,
		AggregateType: de.AggregateType,
		EventType:     de.EventType,
		Data:          json.RawMessage(de.Data),
		Status:        Status(de.Status),
		Attempts:      de.Attempts,
		LastError:     de.LastError,
		CreatedAt:     created,
		UpdatedAt:     updated,
	}
}
