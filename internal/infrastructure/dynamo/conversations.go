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
	"github.com/go-rental-api/internal/domain"
)

// ConversationRepo stores one thread per (property, renter).
type ConversationRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewConversationRepo(client *dynamodb.Client, tableName string) *ConversationRepo {
	return &ConversationRepo{client: client, tableName: tableName}
}

func (r *ConversationRepo) Put(ctx context.Context, c *domain.Conversation) error {
	item, err := attributevalue.MarshalMap(c)
	if err != nil {
		return fmt.Errorf("marshal conversation: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *ConversationRepo) Get(ctx context.Context, conversationID string) (*domain.Conversation, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey(fieldConversationID, conversationID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("conversation not found: %w", domain.ErrNotFound)
	}
	var c domain.Conversation
	if err := attributevalue.UnmarshalMap(out.Item, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// FindByPropertyAndRenter returns the existing thread or a not-found error.
func (r *ConversationRepo) FindByPropertyAndRenter(ctx context.Context, propertyID, renterID string) (*domain.Conversation, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(indexProperty),
		KeyConditionExpression: aws.String("property_id = :p AND renter_id = :r"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":p": strValue(propertyID),
			":r": strValue(renterID),
		},
		Limit: aws.Int32(1),
	})
	if err != nil {
		return nil, err
	}
	if len(out.Items) == 0 {
		return nil, fmt.Errorf("conversation not found: %w", domain.ErrNotFound)
	}
	var c domain.Conversation
	if err := attributevalue.UnmarshalMap(out.Items[0], &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// ListByParticipant returns every thread the user takes part in, most recently active first.
func (r *ConversationRepo) ListByParticipant(ctx context.Context, userID string) ([]domain.Conversation, error) {
	var all []domain.Conversation
	for _, idx := range []struct{ index, attr string }{
		{indexRenter, fieldRenterID},
		{indexLandlord, fieldLandlordID},
	} {
		var rows []domain.Conversation
		err := queryAll(ctx, r.client, &dynamodb.QueryInput{
			TableName:                 aws.String(r.tableName),
			IndexName:                 aws.String(idx.index),
			KeyConditionExpression:    aws.String("#a = :u"),
			ExpressionAttributeNames:  map[string]string{"#a": idx.attr},
			ExpressionAttributeValues: map[string]types.AttributeValue{":u": strValue(userID)},
		}, &rows)
		if err != nil {
			return nil, err
		}
		all = append(all, rows...)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].UpdatedAt.After(all[j].UpdatedAt) })
	return all, nil
}

func (r *ConversationRepo) Touch(ctx context.Context, conversationID string, at time.Time) error {
	ue, err := buildUpdateExpr(map[string]interface{}{fieldUpdatedAt: at})
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey(fieldConversationID, conversationID),
		UpdateExpression:          aws.String(ue.Expr),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	return err
}
