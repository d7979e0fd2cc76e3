package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/campusboard-api/internal/domain"
)

// ChatRequestRepo provides typed DynamoDB operations for the chat_requests table.
type ChatRequestRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewChatRequestRepo(client *dynamodb.Client, tableName string) *ChatRequestRepo {
	return &ChatRequestRepo{client: client, tableName: tableName}
}

func (r *ChatRequestRepo) Put(ctx context.Context, cr *domain.ChatRequest) error {
	item, err := attributevalue.MarshalMap(cr)
	if err != nil {
		return fmt.Errorf("marshal chat request: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *ChatRequestRepo) Get(ctx context.Context, requestID string) (*domain.ChatRequest, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("request_id", requestID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("chat request not found: %w", domain.ErrNotFound)
	}
	var cr domain.ChatRequest
	if err := attributevalue.UnmarshalMap(out.Item, &cr); err != nil {
		return nil, err
	}
	return &cr, nil
}

// GetExisting returns the request a given requester already sent about an
// application, if any. Backed by the application_id GSI.
func (r *ChatRequestRepo) GetExisting(ctx context.Context, applicationID, requesterUserID, recipientUserID string) (*domain.ChatRequest, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String("application_id-index"),
		KeyConditionExpression: aws.String("application_id = :aid"),
		FilterExpression:       aws.String("requester_user_id = :req AND recipient_user_id = :rec"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":aid": &types.AttributeValueMemberS{Value: applicationID},
			":req": &types.AttributeValueMemberS{Value: requesterUserID},
			":rec": &types.AttributeValueMemberS{Value: recipientUserID},
		},
	})
	if err != nil {
		return nil, err
	}
	if len(out.Items) == 0 {
		return nil, fmt.Errorf("chat request not found: %w", domain.ErrNotFound)
	}
	var cr domain.ChatRequest
	if err := attributevalue.UnmarshalMap(out.Items[0], &cr); err != nil {
		return nil, err
	}
	return &cr, nil
}

func (r *ChatRequestRepo) ListByRecipient(ctx context.Context, recipientUserID string) ([]domain.ChatRequest, error) {
	return r.queryIndex(ctx, "recipient_user_id-index", "recipient_user_id", recipientUserID)
}

func (r *ChatRequestRepo) ListByRequester(ctx context.Context, requesterUserID string) ([]domain.ChatRequest, error) {
	return r.queryIndex(ctx, "requester_user_id-index", "requester_user_id", requesterUserID)
}

// Respond records the approve/reject outcome and response time.
func (r *ChatRequestRepo) Respond(ctx context.Context, requestID, status string, respondedAt time.Time) error {
	expr, names, values, err := buildUpdateExpr(map[string]interface{}{
		fieldStatus:      status,
		fieldRespondedAt: respondedAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("request_id", requestID),
		UpdateExpression:          aws.String(expr),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
	})
	return err
}

func (r *ChatRequestRepo) queryIndex(ctx context.Context, index, attr, value string) ([]domain.ChatRequest, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(index),
		KeyConditionExpression:    aws.String("#a = :v"),
		ExpressionAttributeNames:  map[string]string{"#a": attr},
		ExpressionAttributeValues: map[string]types.AttributeValue{":v": &types.AttributeValueMemberS{Value: value}},
		ScanIndexForward:          aws.Bool(false),
	})
	if err != nil {
		return nil, err
	}
	var requests []domain.ChatRequest
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &requests); err != nil {
		return nil, err
	}
	return requests, nil
}
