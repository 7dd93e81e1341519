package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/notifylight/server/internal/domain"
)

// DeliveryLogRepo provides typed DynamoDB operations for the delivery ledger.
// The ledger is append-only: this repo has no update or delete methods.
type DeliveryLogRepo struct {
	client    api
	tableName string
}

func NewDeliveryLogRepo(client *dynamodb.Client, tableName string) *DeliveryLogRepo {
	return &DeliveryLogRepo{client: client, tableName: tableName}
}

func (r *DeliveryLogRepo) Append(ctx context.Context, e *domain.DeliveryLogEntry) error {
	item, err := attributevalue.MarshalMap(e)
	if err != nil {
		return fmt.Errorf("marshal delivery log entry: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

// ListFor returns every ledger entry recorded for one logical notification,
// via the notification_id GSI, oldest first.
func (r *DeliveryLogRepo) ListFor(ctx context.Context, notificationID string) ([]domain.DeliveryLogEntry, error) {
	items, err := queryAll(ctx, r.client, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String("notification_id-timestamp-index"),
		KeyConditionExpression: aws.String("notification_id = :nid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":nid": &types.AttributeValueMemberS{Value: notificationID},
		},
		ScanIndexForward: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	var entries []domain.DeliveryLogEntry
	if err := attributevalue.UnmarshalListOfMaps(items, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// StatsFor counts sent and failed entries for one logical notification.
func (r *DeliveryLogRepo) StatsFor(ctx context.Context, notificationID string) (sent, failed int, err error) {
	entries, err := r.ListFor(ctx, notificationID)
	if err != nil {
		return 0, 0, err
	}
	for _, e := range entries {
		switch e.Status {
		case domain.DeliveryStatusSent:
			sent++
		case domain.DeliveryStatusFailed:
			failed++
		}
	}
	return sent, failed, nil
}

// CountAll returns the total number of ledger entries.
func (r *DeliveryLogRepo) CountAll(ctx context.Context) (int, error) {
	return scanCount(ctx, r.client, &dynamodb.ScanInput{
		TableName: aws.String(r.tableName),
		Select:    types.SelectCount,
	})
}
