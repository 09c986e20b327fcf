package store

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DynamoAPI is the subset of the DynamoDB client used by DynamoStore
type DynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// DynamoStore implements Backend on a DynamoDB table whose partition key is
// the string attribute "key".
type DynamoStore struct {
	client    DynamoAPI
	tableName string
}

// dynamoEntry represents the DynamoDB item structure
type dynamoEntry struct {
	Key       string `dynamodbav:"key"`
	Value     []byte `dynamodbav:"value"`
	UpdatedAt string `dynamodbav:"updated_at"`
}

func NewDynamoStore(client DynamoAPI, tableName string) *DynamoStore {
	return &DynamoStore{
		client:    client,
		tableName: tableName,
	}
}

// Get retrieves a value by key
func (ds *DynamoStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if key == "" {
		return nil, false, ErrEmptyKey
	}
	out, err := ds.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(ds.tableName),
		Key: map[string]types.AttributeValue{
			"key": &types.AttributeValueMemberS{Value: key},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, false, fmt.Errorf("failed to get item: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, false, nil
	}

	var entry dynamoEntry
	if err := attributevalue.UnmarshalMap(out.Item, &entry); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal item: %w", err)
	}
	return entry.Value, true, nil
}

// Set stores a value
func (ds *DynamoStore) Set(ctx context.Context, key string, value []byte) error {
	if key == "" {
		return ErrEmptyKey
	}
	av, err := attributevalue.MarshalMap(dynamoEntry{
		Key:       key,
		Value:     value,
		UpdatedAt: time.Now().Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal item: %w", err)
	}

	_, err = ds.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(ds.tableName),
		Item:      av,
	})
	if err != nil {
		return fmt.Errorf("failed to put item: %w", err)
	}
	return nil
}

// Delete removes a value
func (ds *DynamoStore) Delete(ctx context.Context, key string) error {
	_, err := ds.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(ds.tableName),
		Key: map[string]types.AttributeValue{
			"key": &types.AttributeValueMemberS{Value: key},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}
	return nil
}
