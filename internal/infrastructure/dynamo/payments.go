package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-rental-api/internal/domain"
)

// PaymentRepo stores featured-upgrade checkouts keyed by transaction reference.
type PaymentRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewPaymentRepo(client *dynamodb.Client, tableName string) *PaymentRepo {
	return &PaymentRepo{client: client, tableName: tableName}
}

// Create stores a new payment; a duplicate tx_ref is a conflict.
func (r *PaymentRepo) Create(ctx context.Context, p *domain.FeaturedPayment) error {
	item, err := attributevalue.MarshalMap(p)
	if err != nil {
		return fmt.Errorf("marshal payment: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(tx_ref)"),
	})
	if isConditionFailed(err) {
		return fmt.Errorf("payment %s already exists: %w", p.TxRef, domain.ErrConflict)
	}
	return err
}

func (r *PaymentRepo) Get(ctx context.Context, txRef string) (*domain.FeaturedPayment, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            strKey("tx_ref", txRef),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("payment not found: %w", domain.ErrNotFound)
	}
	var p domain.FeaturedPayment
	if err := attributevalue.UnmarshalMap(out.Item, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// TransitionStatus moves a payment from one status to another only when it
// is still in from. A nil completedAt clears the completion time. applied is
// false when another request already moved it.
func (r *PaymentRepo) TransitionStatus(ctx context.Context, txRef string, from, to domain.PaymentStatus, completedAt *time.Time) (bool, error) {
	update := "SET #s = :to REMOVE #c"
	values := map[string]types.AttributeValue{
		":to":   strValue(string(to)),
		":from": strValue(string(from)),
	}
	if completedAt != nil {
		av, err := attributevalue.Marshal(*completedAt)
		if err != nil {
			return false, fmt.Errorf("marshal completed_at: %w", err)
		}
		update = "SET #s = :to, #c = :at"
		values[":at"] = av
	}
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 strKey("tx_ref", txRef),
		UpdateExpression:    aws.String(update),
		ConditionExpression: aws.String("#s = :from"),
		ExpressionAttributeNames: map[string]string{
			"#s": fieldStatus,
			"#c": fieldCompletedAt,
		},
		ExpressionAttributeValues: values,
	})
	if isConditionFailed(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ListByProperty returns every checkout attempt for a listing.
func (r *PaymentRepo) ListByProperty(ctx context.Context, propertyID string) ([]domain.FeaturedPayment, error) {
	var payments []domain.FeaturedPayment
	err := queryAll(ctx, r.client, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(indexProperty),
		KeyConditionExpression:    aws.String("property_id = :p"),
		ExpressionAttributeValues: map[string]types.AttributeValue{":p": strValue(propertyID)},
	}, &payments)
	return payments, err
}
