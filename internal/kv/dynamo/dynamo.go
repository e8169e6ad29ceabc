// Package dynamo is the DynamoDB kv backend. Tables use a string partition
// key "PK" and a string sort key "SK".
package dynamo

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/vocali/transcription-api/internal/kv"
)

// API is the subset of the DynamoDB client used by the backend.
type API interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	ListTables(ctx context.Context, params *dynamodb.ListTablesInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ListTablesOutput, error)
}

// Store opens DynamoDB tables.
type Store struct {
	client API
}

// NewFromConfig builds a Store from an AWS config. endpoint overrides the
// service URL, e.g. for DynamoDB Local.
func NewFromConfig(cfg aws.Config, endpoint string) *Store {
	client := dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})
	return New(client)
}

// New wraps an existing client.
func New(client API) *Store {
	return &Store{client: client}
}

// Table returns a handle for the named table.
func (s *Store) Table(name string) kv.Table {
	return &Table{client: s.client, name: name}
}

// Ping checks that the service answers.
func (s *Store) Ping(ctx context.Context) error {
	_, err := s.client.ListTables(ctx, &dynamodb.ListTablesInput{Limit: aws.Int32(1)})
	if err != nil {
		return fmt.Errorf("list tables: %w", err)
	}
	return nil
}

// Close is a no-op; the SDK client holds no resources that need releasing.
func (s *Store) Close() error { return nil }

// Table is a single DynamoDB table.
type Table struct {
	client API
	name   string
}

func (t *Table) Put(ctx context.Context, item kv.Item) error {
	av, err := marshalItem(item)
	if err != nil {
		return err
	}
	if _, err := t.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(t.name),
		Item:      av,
	}); err != nil {
		return fmt.Errorf("put item into %s: %w", t.name, err)
	}
	return nil
}

func (t *Table) Insert(ctx context.Context, item kv.Item) error {
	av, err := marshalItem(item)
	if err != nil {
		return err
	}
	_, err = t.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(t.name),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return kv.ErrItemExists
		}
		return fmt.Errorf("insert item into %s: %w", t.name, err)
	}
	return nil
}

func (t *Table) Get(ctx context.Context, key kv.Key) (kv.Item, error) {
	out, err := t.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(t.name),
		Key:            keyAttrs(key),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return kv.Item{}, fmt.Errorf("get item from %s: %w", t.name, err)
	}
	if len(out.Item) == 0 {
		return kv.Item{}, kv.ErrItemNotFound
	}
	return unmarshalItem(out.Item)
}

func (t *Table) Query(ctx context.Context, q kv.Query) (kv.Result, error) {
	in := &dynamodb.QueryInput{
		TableName:              aws.String(t.name),
		KeyConditionExpression: aws.String("PK = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: q.PK},
		},
		ScanIndexForward: aws.Bool(!q.Descending),
	}
	if q.Limit > 0 {
		// One extra item tells whether another page exists.
		in.Limit = aws.Int32(int32(q.Limit + 1))
	}
	if q.StartAfter != nil {
		in.ExclusiveStartKey = keyAttrs(*q.StartAfter)
	}

	out, err := t.client.Query(ctx, in)
	if err != nil {
		return kv.Result{}, fmt.Errorf("query %s: %w", t.name, err)
	}

	items := make([]kv.Item, 0, len(out.Items))
	for _, raw := range out.Items {
		item, err := unmarshalItem(raw)
		if err != nil {
			return kv.Result{}, err
		}
		items = append(items, item)
	}

	res := kv.Page(items, q.Limit)
	// The 1 MB response cap can stop a query early.
	if res.LastKey == nil && len(out.LastEvaluatedKey) > 0 && len(items) > 0 {
		last := items[len(items)-1].Key
		res.LastKey = &last
	}
	return res, nil
}

func keyAttrs(key kv.Key) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		kv.AttrPK: &types.AttributeValueMemberS{Value: key.PK},
		kv.AttrSK: &types.AttributeValueMemberS{Value: key.SK},
	}
}

func marshalItem(item kv.Item) (map[string]types.AttributeValue, error) {
	av, err := attributevalue.MarshalMap(item.Attrs)
	if err != nil {
		return nil, fmt.Errorf("marshal item: %w", err)
	}
	if av == nil {
		av = make(map[string]types.AttributeValue, 2)
	}
	for k, v := range keyAttrs(item.Key) {
		av[k] = v
	}
	return av, nil
}

func unmarshalItem(raw map[string]types.AttributeValue) (kv.Item, error) {
	var attrs map[string]string
	if err := attributevalue.UnmarshalMap(raw, &attrs); err != nil {
		return kv.Item{}, fmt.Errorf("unmarshal item: %w", err)
	}
	item := kv.Item{
		Key:   kv.Key{PK: attrs[kv.AttrPK], SK: attrs[kv.AttrSK]},
		Attrs: attrs,
	}
	delete(item.Attrs, kv.AttrPK)
	delete(item.Attrs, kv.AttrSK)
	return item, nil
}
