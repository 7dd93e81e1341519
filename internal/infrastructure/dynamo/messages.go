package dynamo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/notifylight/server/internal/domain"
)

// MessageRepo provides typed DynamoDB operations for the in-app messages table.
type MessageRepo struct {
	client    api
	tableName string
}

func NewMessageRepo(client *dynamodb.Client, tableName string) *MessageRepo {
	return &MessageRepo{client: client, tableName: tableName}
}

func (r *MessageRepo) Put(ctx context.Context, m *domain.InAppMessage) error {
	item, err := attributevalue.MarshalMap(m)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

// ListActive queries the user_id-created_at GSI for active messages,
// oldest first (FIFO consumption order).
func (r *MessageRepo) ListActive(ctx context.Context, userID string) ([]domain.InAppMessage, error) {
	items, err := queryAll(ctx, r.client, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String("user_id-created_at-index"),
		KeyConditionExpression: aws.String("user_id = :uid"),
		FilterExpression:       aws.String("#s = :active"),
		ExpressionAttributeNames: map[string]string{
			"#s": fieldStatus,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uid":    &types.AttributeValueMemberS{Value: userID},
			":active": &types.AttributeValueMemberS{Value: domain.MessageStatusActive},
		},
		ScanIndexForward: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	var messages []domain.InAppMessage
	if err := attributevalue.UnmarshalListOfMaps(items, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

// MarkRead transitions a message from active to read. The conditional update
// fails when the row is absent or was already read, which is the idempotency
// guard against double consumption — callers see domain.ErrNotFound either way.
func (r *MessageRepo) MarkRead(ctx context.Context, messageID string, readAt time.Time) (*domain.InAppMessage, error) {
	readAtAV, err := attributevalue.Marshal(readAt)
	if err != nil {
		return nil, fmt.Errorf("marshal timestamp: %w", err)
	}
	out, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 strKey("message_id", messageID),
		UpdateExpression:    aws.String("SET #s = :read, #ra = :ts"),
		ConditionExpression: aws.String("#s = :active"),
		ExpressionAttributeNames: map[string]string{
			"#s":  fieldStatus,
			"#ra": fieldReadAt,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":read":   &types.AttributeValueMemberS{Value: domain.MessageStatusRead},
			":active": &types.AttributeValueMemberS{Value: domain.MessageStatusActive},
			":ts":     readAtAV,
		},
		ReturnValues: types.ReturnValueAllNew,
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return nil, fmt.Errorf("message absent or already read: %w", domain.ErrNotFound)
		}
		return nil, err
	}
	var m domain.InAppMessage
	if err := attributevalue.UnmarshalMap(out.Attributes, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// CountByStatus returns how many messages currently hold the given status.
func (r *MessageRepo) CountByStatus(ctx context.Context, status string) (int, error) {
	return scanCount(ctx, r.client, &dynamodb.ScanInput{
		TableName:        aws.String(r.tableName),
		Select:           types.SelectCount,
		FilterExpression: aws.String("#s = :s"),
		ExpressionAttributeNames: map[string]string{
			"#s": fieldStatus,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":s": &types.AttributeValueMemberS{Value: status},
		},
	})
}
