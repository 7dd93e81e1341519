package dynamo

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDB is an in-test stand-in for the DynamoDB client. Query and Scan
// serve pre-built pages in order; inputs are recorded for assertions.
type fakeDB struct {
	putInputs    []*dynamodb.PutItemInput
	updateInputs []*dynamodb.UpdateItemInput
	updateOut    *dynamodb.UpdateItemOutput
	updateErr    error

	queryPages  []*dynamodb.QueryOutput
	queryStarts []map[string]types.AttributeValue
	scanPages   []*dynamodb.ScanOutput
	scanStarts  []map[string]types.AttributeValue
}

func (f *fakeDB) PutItem(ctx context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.putInputs = append(f.putInputs, in)
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDB) UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	f.updateInputs = append(f.updateInputs, in)
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	if f.updateOut != nil {
		return f.updateOut, nil
	}
	return &dynamodb.UpdateItemOutput{}, nil
}

func (f *fakeDB) Query(ctx context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.queryStarts = append(f.queryStarts, in.ExclusiveStartKey)
	if len(f.queryPages) == 0 {
		return &dynamodb.QueryOutput{}, nil
	}
	page := f.queryPages[0]
	f.queryPages = f.queryPages[1:]
	return page, nil
}

func (f *fakeDB) Scan(ctx context.Context, in *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	f.scanStarts = append(f.scanStarts, in.ExclusiveStartKey)
	if len(f.scanPages) == 0 {
		return &dynamodb.ScanOutput{}, nil
	}
	page := f.scanPages[0]
	f.scanPages = f.scanPages[1:]
	return page, nil
}

func item(id string) map[string]types.AttributeValue {
	return strKey("device_id", id)
}

func TestStrKey(t *testing.T) {
	key := strKey("message_id", "msg-1")
	require.Len(t, key, 1)
	s, ok := key["message_id"].(*types.AttributeValueMemberS)
	require.True(t, ok)
	assert.Equal(t, "msg-1", s.Value)
}

func TestQueryAll_FollowsLastEvaluatedKey(t *testing.T) {
	db := &fakeDB{
		queryPages: []*dynamodb.QueryOutput{
			{
				Items:            []map[string]types.AttributeValue{item("a"), item("b")},
				LastEvaluatedKey: strKey("token", "tok-b"),
			},
			{
				Items: []map[string]types.AttributeValue{item("c")},
			},
		},
	}

	items, err := queryAll(context.Background(), db, &dynamodb.QueryInput{})
	require.NoError(t, err)
	assert.Len(t, items, 3)

	// Second request must resume from the first page's LastEvaluatedKey.
	require.Len(t, db.queryStarts, 2)
	assert.Nil(t, db.queryStarts[0])
	assert.Equal(t, strKey("token", "tok-b"), db.queryStarts[1])
}

func TestQueryAll_SinglePage(t *testing.T) {
	db := &fakeDB{
		queryPages: []*dynamodb.QueryOutput{
			{Items: []map[string]types.AttributeValue{item("a")}},
		},
	}

	items, err := queryAll(context.Background(), db, &dynamodb.QueryInput{})
	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.Len(t, db.queryStarts, 1)
}

func TestScanAll_FollowsLastEvaluatedKey(t *testing.T) {
	db := &fakeDB{
		scanPages: []*dynamodb.ScanOutput{
			{
				Items:            []map[string]types.AttributeValue{item("a")},
				LastEvaluatedKey: strKey("token", "tok-a"),
			},
			{
				Items:            []map[string]types.AttributeValue{item("b")},
				LastEvaluatedKey: strKey("token", "tok-b"),
			},
			{
				Items: []map[string]types.AttributeValue{item("c")},
			},
		},
	}

	items, err := scanAll(context.Background(), db, &dynamodb.ScanInput{})
	require.NoError(t, err)
	assert.Len(t, items, 3)
	assert.Len(t, db.scanStarts, 3)
}

func TestScanCount_SumsPages(t *testing.T) {
	db := &fakeDB{
		scanPages: []*dynamodb.ScanOutput{
			{Count: 40, LastEvaluatedKey: strKey("token", "tok-x")},
			{Count: 2},
		},
	}

	total, err := scanCount(context.Background(), db, &dynamodb.ScanInput{})
	require.NoError(t, err)
	assert.Equal(t, 42, total)
}

func TestScanAll_PropagatesError(t *testing.T) {
	boom := errors.New("throttled")
	failing := &failingDB{err: boom}

	_, err := scanAll(context.Background(), failing, &dynamodb.ScanInput{})
	assert.ErrorIs(t, err, boom)
}

// failingDB errors on every call.
type failingDB struct {
	fakeDB
	err error
}

func (f *failingDB) Scan(context.Context, *dynamodb.ScanInput, ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	return nil, f.err
}

func (f *failingDB) Query(context.Context, *dynamodb.QueryInput, ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	return nil, f.err
}
