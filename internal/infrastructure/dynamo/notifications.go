package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-rental-api/internal/domain"
)

// NotificationRepo provides typed DynamoDB operations for the notifications table.
type NotificationRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewNotificationRepo(client *dynamodb.Client, tableName string) *NotificationRepo {
	return &NotificationRepo{client: client, tableName: tableName}
}

func (r *NotificationRepo) Put(ctx context.Context, n *domain.Notification) error {
	item, err := attributevalue.MarshalMap(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *NotificationRepo) Get(ctx context.Context, notificationID string) (*domain.Notification, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("notification_id", notificationID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("notification not found: %w", domain.ErrNotFound)
	}
	var n domain.Notification
	if err := attributevalue.UnmarshalMap(out.Item, &n); err != nil {
		return nil, err
	}
	return &n, nil
}

// ListByUser returns the user's notifications newest first. Message
// notifications are filtered out unless includeMessages is set.
func (r *NotificationRepo) ListByUser(ctx context.Context, userID string, unreadOnly, includeMessages bool) ([]domain.Notification, error) {
	input := &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(indexUserCreatedAt),
		KeyConditionExpression:    aws.String("user_id = :uid"),
		ScanIndexForward:          aws.Bool(false),
		ExpressionAttributeNames:  map[string]string{},
		ExpressionAttributeValues: map[string]types.AttributeValue{":uid": strValue(userID)},
	}
	var filters []string
	if unreadOnly {
		filters = append(filters, "#r = :f")
		input.ExpressionAttributeNames["#r"] = fieldIsRead
		input.ExpressionAttributeValues[":f"] = &types.AttributeValueMemberBOOL{Value: false}
	}
	if !includeMessages {
		filters = append(filters, "#t <> :msg")
		input.ExpressionAttributeNames["#t"] = "notification_type"
		input.ExpressionAttributeValues[":msg"] = strValue(string(domain.NotificationMessage))
	}
	if len(filters) > 0 {
		expr := filters[0]
		for _, f := range filters[1:] {
			expr += " AND " + f
		}
		input.FilterExpression = aws.String(expr)
	} else {
		input.ExpressionAttributeNames = nil
	}
	var notifications []domain.Notification
	if err := queryAll(ctx, r.client, input, &notifications); err != nil {
		return nil, err
	}
	return notifications, nil
}

// ListUnreadForConversation returns the unread message notifications linked to a conversation.
func (r *NotificationRepo) ListUnreadForConversation(ctx context.Context, userID, conversationID string) ([]domain.Notification, error) {
	var notifications []domain.Notification
	err := queryAll(ctx, r.client, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(indexUserCreatedAt),
		KeyConditionExpression: aws.String("user_id = :uid"),
		FilterExpression:       aws.String("#r = :f AND #t = :msg AND #c = :cid"),
		ExpressionAttributeNames: map[string]string{
			"#r": fieldIsRead,
			"#t": "notification_type",
			"#c": "related_conversation_id",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uid": strValue(userID),
			":f":   &types.AttributeValueMemberBOOL{Value: false},
			":msg": strValue(string(domain.NotificationMessage)),
			":cid": strValue(conversationID),
		},
	}, &notifications)
	return notifications, err
}

func (r *NotificationRepo) MarkAsRead(ctx context.Context, notificationID string) error {
	ue, err := buildUpdateExpr(map[string]interface{}{fieldIsRead: true})
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("notification_id", notificationID),
		UpdateExpression:          aws.String(ue.Expr),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	return err
}
