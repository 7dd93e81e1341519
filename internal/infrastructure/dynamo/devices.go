package dynamo

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/notifylight/server/internal/domain"
)

// DeviceRepo provides typed DynamoDB operations for the devices table.
// The table is keyed by the raw push token, so every write is token-scoped.
type DeviceRepo struct {
	client    api
	tableName string
}

func NewDeviceRepo(client *dynamodb.Client, tableName string) *DeviceRepo {
	return &DeviceRepo{client: client, tableName: tableName}
}

// Upsert registers a token in a single atomic UpdateItem. When the token is
// new, device_id and created_at are written from newID/now; when it already
// exists, if_not_exists leaves them untouched and only platform/user_id/
// updated_at change. Two concurrent calls for the same token therefore can
// never produce two rows or two device ids.
func (r *DeviceRepo) Upsert(ctx context.Context, token, platform, userID, newID string, now time.Time) (*domain.Device, error) {
	nowAV, err := attributevalue.Marshal(now)
	if err != nil {
		return nil, fmt.Errorf("marshal timestamp: %w", err)
	}
	out, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("token", token),
		UpdateExpression: aws.String(
			"SET #uid = :uid, #p = :p, #u = :now, device_id = if_not_exists(device_id, :id), created_at = if_not_exists(created_at, :now)"),
		ExpressionAttributeNames: map[string]string{
			"#uid": fieldUserID,
			"#p":   fieldPlatform,
			"#u":   fieldUpdatedAt,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uid": &types.AttributeValueMemberS{Value: userID},
			":p":   &types.AttributeValueMemberS{Value: platform},
			":id":  &types.AttributeValueMemberS{Value: newID},
			":now": nowAV,
		},
		ReturnValues: types.ReturnValueAllNew,
	})
	if err != nil {
		return nil, fmt.Errorf("upsert device: %w", err)
	}
	var d domain.Device
	if err := attributevalue.UnmarshalMap(out.Attributes, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// ListByUsers returns every device belonging to any of the given users,
// ordered by updated_at descending.
func (r *DeviceRepo) ListByUsers(ctx context.Context, userIDs []string) ([]domain.Device, error) {
	var devices []domain.Device
	for _, uid := range userIDs {
		items, err := queryAll(ctx, r.client, &dynamodb.QueryInput{
			TableName:              aws.String(r.tableName),
			IndexName:              aws.String("user_id-updated_at-index"),
			KeyConditionExpression: aws.String("user_id = :uid"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":uid": &types.AttributeValueMemberS{Value: uid},
			},
			ScanIndexForward: aws.Bool(false),
		})
		if err != nil {
			return nil, err
		}
		var page []domain.Device
		if err := attributevalue.UnmarshalListOfMaps(items, &page); err != nil {
			return nil, err
		}
		devices = append(devices, page...)
	}
	sortByUpdatedAtDesc(devices)
	return devices, nil
}

// ListAll returns every registered device, ordered by updated_at descending.
func (r *DeviceRepo) ListAll(ctx context.Context) ([]domain.Device, error) {
	items, err := scanAll(ctx, r.client, &dynamodb.ScanInput{TableName: aws.String(r.tableName)})
	if err != nil {
		return nil, err
	}
	var devices []domain.Device
	if err := attributevalue.UnmarshalListOfMaps(items, &devices); err != nil {
		return nil, err
	}
	sortByUpdatedAtDesc(devices)
	return devices, nil
}

// DistinctUserIDs returns every user id with at least one registered device.
func (r *DeviceRepo) DistinctUserIDs(ctx context.Context) ([]string, error) {
	items, err := scanAll(ctx, r.client, &dynamodb.ScanInput{
		TableName:            aws.String(r.tableName),
		ProjectionExpression: aws.String("#uid"),
		ExpressionAttributeNames: map[string]string{
			"#uid": fieldUserID,
		},
	})
	if err != nil {
		return nil, err
	}
	var rows []struct {
		UserID string `dynamodbav:"user_id"`
	}
	if err := attributevalue.UnmarshalListOfMaps(items, &rows); err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(rows))
	var users []string
	for _, row := range rows {
		if _, ok := seen[row.UserID]; ok {
			continue
		}
		seen[row.UserID] = struct{}{}
		users = append(users, row.UserID)
	}
	return users, nil
}

// Counts returns the total device count and a per-platform breakdown.
func (r *DeviceRepo) Counts(ctx context.Context) (int, map[string]int, error) {
	items, err := scanAll(ctx, r.client, &dynamodb.ScanInput{
		TableName:            aws.String(r.tableName),
		ProjectionExpression: aws.String("#p"),
		ExpressionAttributeNames: map[string]string{
			"#p": fieldPlatform,
		},
	})
	if err != nil {
		return 0, nil, err
	}
	var rows []struct {
		Platform string `dynamodbav:"platform"`
	}
	if err := attributevalue.UnmarshalListOfMaps(items, &rows); err != nil {
		return 0, nil, err
	}
	byPlatform := make(map[string]int)
	for _, row := range rows {
		byPlatform[row.Platform]++
	}
	return len(rows), byPlatform, nil
}

func sortByUpdatedAtDesc(devices []domain.Device) {
	sort.SliceStable(devices, func(i, j int) bool {
		return devices[i].UpdatedAt.After(devices[j].UpdatedAt)
	})
}
