package dynamo

import (
	"context"
	"errors"
	"testing"

	"github.com/Department-for-Transport-Disruptions/disruption-manager/internal/table"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockAPI struct {
	mock.Mock
}

func (m *mockAPI) GetItem(ctx context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dynamodb.GetItemOutput), args.Error(1)
}

func (m *mockAPI) PutItem(ctx context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	args := m.Called(ctx, in)
	return &dynamodb.PutItemOutput{}, args.Error(0)
}

func (m *mockAPI) DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	args := m.Called(ctx, in)
	return &dynamodb.DeleteItemOutput{}, args.Error(0)
}

func (m *mockAPI) Query(ctx context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dynamodb.QueryOutput), args.Error(1)
}

func (m *mockAPI) TransactWriteItems(ctx context.Context, in *dynamodb.TransactWriteItemsInput, _ ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error) {
	args := m.Called(ctx, in)
	return &dynamodb.TransactWriteItemsOutput{}, args.Error(0)
}

func s(v string) types.AttributeValue { return &types.AttributeValueMemberS{Value: v} }

func row(pk, sk string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{"PK": s(pk), "SK": s(sk)}
}

func TestGet_MissingReturnsNil(t *testing.T) {
	api := new(mockAPI)
	api.On("GetItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.GetItemInput) bool {
		return *in.TableName == "disruptions" && in.Key["SK"].(*types.AttributeValueMemberS).Value == "a#INFO"
	})).Return(&dynamodb.GetItemOutput{}, nil)

	got, err := New(api, "disruptions").Get(context.Background(), table.Key{PK: "org", SK: "a#INFO"})
	require.NoError(t, err)
	assert.Nil(t, got)
	api.AssertExpectations(t)
}

func TestGet_UnmarshalsAttributes(t *testing.T) {
	api := new(mockAPI)
	item := row("org", "a#INFO")
	item["summary"] = s("closure")
	item["isDeleted"] = &types.AttributeValueMemberBOOL{Value: true}
	item["consequenceIndex"] = &types.AttributeValueMemberN{Value: "2"}
	api.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{Item: item}, nil)

	got, err := New(api, "disruptions").Get(context.Background(), table.Key{PK: "org", SK: "a#INFO"})
	require.NoError(t, err)
	assert.Equal(t, "closure", got.String("summary"))
	assert.True(t, got.Bool("isDeleted"))
	assert.EqualValues(t, 2, got["consequenceIndex"])
	assert.Equal(t, table.Key{PK: "org", SK: "a#INFO"}, got.Key())
}

func TestQuery_FollowsEveryPage(t *testing.T) {
	api := new(mockAPI)
	api.On("Query", mock.Anything, mock.MatchedBy(func(in *dynamodb.QueryInput) bool {
		return in.ExclusiveStartKey == nil
	})).Return(&dynamodb.QueryOutput{
		Items:            []map[string]types.AttributeValue{row("org", "a#CONSEQUENCE#0")},
		LastEvaluatedKey: row("org", "a#CONSEQUENCE#0"),
	}, nil).Once()
	api.On("Query", mock.Anything, mock.MatchedBy(func(in *dynamodb.QueryInput) bool {
		return in.ExclusiveStartKey != nil
	})).Return(&dynamodb.QueryOutput{
		Items: []map[string]types.AttributeValue{row("org", "a#INFO")},
	}, nil).Once()

	got, err := New(api, "disruptions").Query(context.Background(), "org", "a#")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a#INFO", got[1].String("SK"))
	api.AssertExpectations(t)
}

func TestQuery_BuildsKeyCondition(t *testing.T) {
	api := new(mockAPI)
	api.On("Query", mock.Anything, mock.MatchedBy(func(in *dynamodb.QueryInput) bool {
		return *in.TableName == "templates" &&
			in.KeyConditionExpression != nil &&
			len(in.ExpressionAttributeNames) == 2 &&
			len(in.ExpressionAttributeValues) == 2
	})).Return(&dynamodb.QueryOutput{}, nil)

	got, err := New(api, "templates").Query(context.Background(), "org", "a#")
	require.NoError(t, err)
	assert.Empty(t, got)
	api.AssertExpectations(t)
}

func TestQueryPage_TokenRoundTrip(t *testing.T) {
	api := new(mockAPI)
	api.On("Query", mock.Anything, mock.MatchedBy(func(in *dynamodb.QueryInput) bool {
		return *in.Limit == 2 && in.ExclusiveStartKey == nil
	})).Return(&dynamodb.QueryOutput{
		Items:            []map[string]types.AttributeValue{row("org", "a#INFO"), row("org", "b#INFO")},
		LastEvaluatedKey: row("org", "b#INFO"),
	}, nil).Once()
	api.On("Query", mock.Anything, mock.MatchedBy(func(in *dynamodb.QueryInput) bool {
		start, ok := in.ExclusiveStartKey["SK"].(*types.AttributeValueMemberS)
		return ok && start.Value == "b#INFO"
	})).Return(&dynamodb.QueryOutput{
		Items: []map[string]types.AttributeValue{row("org", "c#INFO")},
	}, nil).Once()

	tbl := New(api, "disruptions")
	first, err := tbl.QueryPage(context.Background(), "org", "", 2, "")
	require.NoError(t, err)
	require.NotEmpty(t, first.NextToken)

	second, err := tbl.QueryPage(context.Background(), "org", "", 2, first.NextToken)
	require.NoError(t, err)
	assert.Empty(t, second.NextToken)
	require.Len(t, second.Items, 1)
	assert.Equal(t, "c#INFO", second.Items[0].String("SK"))
	api.AssertExpectations(t)
}

func TestTransactWrite_BuildsPutsAndDeletes(t *testing.T) {
	api := new(mockAPI)
	api.On("TransactWriteItems", mock.Anything, mock.MatchedBy(func(in *dynamodb.TransactWriteItemsInput) bool {
		if len(in.TransactItems) != 2 {
			return false
		}
		put, del := in.TransactItems[0].Put, in.TransactItems[1].Delete
		return put != nil && del != nil &&
			*put.TableName == "disruptions" &&
			put.Item["SK"].(*types.AttributeValueMemberS).Value == "a#INFO" &&
			del.Key["SK"].(*types.AttributeValueMemberS).Value == "a#INFO#EDIT"
	})).Return(nil)

	err := New(api, "disruptions").TransactWrite(context.Background(), []table.WriteOp{
		table.PutOp(table.Item{"PK": "org", "SK": "a#INFO", "summary": "x"}),
		table.DeleteOp(table.Key{PK: "org", SK: "a#INFO#EDIT"}),
	})
	require.NoError(t, err)
	api.AssertExpectations(t)
}

func TestTransactWrite_WrapsCancellation(t *testing.T) {
	api := new(mockAPI)
	api.On("TransactWriteItems", mock.Anything, mock.Anything).
		Return(&types.TransactionCanceledException{Message: stringPtr("conflict")})

	err := New(api, "disruptions").TransactWrite(context.Background(), []table.WriteOp{
		table.DeleteOp(table.Key{PK: "org", SK: "a#INFO"}),
	})
	var canceled *types.TransactionCanceledException
	require.Error(t, err)
	assert.True(t, errors.As(err, &canceled))
}

func TestTransactWrite_EmptyIsNoop(t *testing.T) {
	api := new(mockAPI)
	require.NoError(t, New(api, "disruptions").TransactWrite(context.Background(), nil))
	api.AssertNotCalled(t, "TransactWriteItems", mock.Anything, mock.Anything)
}

func stringPtr(v string) *string { return &v }
