package dynamo

import (
	"context"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-rental-api/internal/domain"
)

// ViewRepo keeps one row per (property, viewer) pair.
type ViewRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewViewRepo(client *dynamodb.Client, tableName string) *ViewRepo {
	return &ViewRepo{client: client, tableName: tableName}
}

// Record stores the first view of a viewer. created is false when the pair existed.
func (r *ViewRepo) Record(ctx context.Context, v *domain.PropertyView) (bool, error) {
	item, err := attributevalue.MarshalMap(v)
	if err != nil {
		return false, fmt.Errorf("marshal view: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(viewer_id)"),
	})
	if isConditionFailed(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *ViewRepo) CountByProperty(ctx context.Context, propertyID string) (int, error) {
	return countQuery(ctx, r.client, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		KeyConditionExpression:    aws.String("property_id = :p"),
		ExpressionAttributeValues: map[string]types.AttributeValue{":p": strValue(propertyID)},
	})
}

// RecentlyViewedRepo tracks the listings a renter opened, keyed by (user_id, property_id).
type RecentlyViewedRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewRecentlyViewedRepo(client *dynamodb.Client, tableName string) *RecentlyViewedRepo {
	return &RecentlyViewedRepo{client: client, tableName: tableName}
}

// Touch upserts the entry so viewed_at always holds the latest visit.
func (r *RecentlyViewedRepo) Touch(ctx context.Context, rv *domain.RecentlyViewed) error {
	item, err := attributevalue.MarshalMap(rv)
	if err != nil {
		return fmt.Errorf("marshal recently viewed: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

// ListByUser returns the renter's history, most recent first.
func (r *RecentlyViewedRepo) ListByUser(ctx context.Context, userID string) ([]domain.RecentlyViewed, error) {
	var rows []domain.RecentlyViewed
	err := queryAll(ctx, r.client, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		KeyConditionExpression:    aws.String("user_id = :u"),
		ExpressionAttributeValues: map[string]types.AttributeValue{":u": strValue(userID)},
	}, &rows)
	if err != nil {
		return nil, err
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ViewedAt.After(rows[j].ViewedAt) })
	return rows, nil
}
