// Package dynamo stores table rows in DynamoDB tables keyed by PK and SK.
package dynamo

import (
	"context"
	"errors"
	"fmt"

	"github.com/Department-for-Transport-Disruptions/disruption-manager/internal/table"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// API is the subset of the DynamoDB client used by Table.
type API interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
}

// ClientOptions configures NewClient.
type ClientOptions struct {
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
}

// NewClient builds a DynamoDB client from the default AWS credential chain,
// or from static keys when both are given.
func NewClient(ctx context.Context, opts ClientOptions) (*dynamodb.Client, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(opts.Region)}
	if opts.AccessKeyID != "" && opts.SecretAccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, ""),
		))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
	}), nil
}

type Table struct {
	api  API
	name string
}

var _ table.Table = (*Table)(nil)

func New(api API, name string) *Table {
	return &Table{api: api, name: name}
}

func (t *Table) Name() string { return t.name }

func (t *Table) Get(ctx context.Context, key table.Key) (table.Item, error) {
	out, err := t.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(t.name),
		Key:       marshalKey(key),
	})
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	return unmarshalItem(out.Item)
}

func (t *Table) Put(ctx context.Context, item table.Item) error {
	if err := table.CheckItem(item); err != nil {
		return err
	}
	av, err := attributevalue.MarshalMap(map[string]any(item))
	if err != nil {
		return fmt.Errorf("marshal %s: %w", item.Key(), err)
	}
	_, err = t.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(t.name),
		Item:      av,
	})
	return err
}

func (t *Table) Delete(ctx context.Context, key table.Key) error {
	_, err := t.api.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(t.name),
		Key:       marshalKey(key),
	})
	return err
}

func (t *Table) Query(ctx context.Context, pk, skPrefix string) ([]table.Item, error) {
	input, err := t.queryInput(pk, skPrefix)
	if err != nil {
		return nil, err
	}

	var items []table.Item
	paginator := dynamodb.NewQueryPaginator(t.api, input)
	for paginator.HasMorePages() {
		out, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("query %s: %w", pk, err)
		}
		page, err := unmarshalItems(out.Items)
		if err != nil {
			return nil, err
		}
		items = append(items, page...)
	}
	return items, nil
}

func (t *Table) QueryPage(ctx context.Context, pk, skPrefix string, limit int, token string) (table.Page, error) {
	after, err := table.DecodeToken(token)
	if err != nil {
		return table.Page{}, err
	}
	input, err := t.queryInput(pk, skPrefix)
	if err != nil {
		return table.Page{}, err
	}
	input.Limit = aws.Int32(int32(table.Limit(limit)))
	if after.SK != "" {
		input.ExclusiveStartKey = marshalKey(after)
	}

	out, err := t.api.Query(ctx, input)
	if err != nil {
		return table.Page{}, fmt.Errorf("query %s: %w", pk, err)
	}
	items, err := unmarshalItems(out.Items)
	if err != nil {
		return table.Page{}, err
	}
	page := table.Page{Items: items}
	if len(out.LastEvaluatedKey) > 0 {
		last, err := unmarshalItem(out.LastEvaluatedKey)
		if err != nil {
			return table.Page{}, err
		}
		page.NextToken = table.EncodeToken(last.Key())
	}
	return page, nil
}

func (t *Table) TransactWrite(ctx context.Context, ops []table.WriteOp) error {
	if err := table.CheckOps(ops); err != nil {
		return err
	}
	if len(ops) == 0 {
		return nil
	}

	items := make([]types.TransactWriteItem, 0, len(ops))
	for _, op := range ops {
		if op.Put != nil {
			av, err := attributevalue.MarshalMap(map[string]any(op.Put))
			if err != nil {
				return fmt.Errorf("marshal %s: %w", op.Put.Key(), err)
			}
			items = append(items, types.TransactWriteItem{
				Put: &types.Put{TableName: aws.String(t.name), Item: av},
			})
			continue
		}
		items = append(items, types.TransactWriteItem{
			Delete: &types.Delete{TableName: aws.String(t.name), Key: marshalKey(*op.Delete)},
		})
	}

	_, err := t.api.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: items})
	var canceled *types.TransactionCanceledException
	if errors.As(err, &canceled) {
		return fmt.Errorf("transaction canceled on %s: %w", t.name, err)
	}
	return err
}

func (t *Table) queryInput(pk, skPrefix string) (*dynamodb.QueryInput, error) {
	cond := expression.Key(table.AttrPK).Equal(expression.Value(pk))
	if skPrefix != "" {
		cond = cond.And(expression.Key(table.AttrSK).BeginsWith(skPrefix))
	}
	expr, err := expression.NewBuilder().WithKeyCondition(cond).Build()
	if err != nil {
		return nil, fmt.Errorf("build key condition: %w", err)
	}
	return &dynamodb.QueryInput{
		TableName:                 aws.String(t.name),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	}, nil
}

func marshalKey(k table.Key) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		table.AttrPK: &types.AttributeValueMemberS{Value: k.PK},
		table.AttrSK: &types.AttributeValueMemberS{Value: k.SK},
	}
}

func unmarshalItem(av map[string]types.AttributeValue) (table.Item, error) {
	var m map[string]any
	if err := attributevalue.UnmarshalMap(av, &m); err != nil {
		return nil, fmt.Errorf("unmarshal item: %w", err)
	}
	return table.Item(m), nil
}

func unmarshalItems(avs []map[string]types.AttributeValue) ([]table.Item, error) {
	items := make([]table.Item, 0, len(avs))
	for _, av := range avs {
		item, err := unmarshalItem(av)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}
