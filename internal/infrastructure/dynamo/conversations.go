package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/campusboard-api/internal/domain"
)

// ConversationRepo provides typed DynamoDB operations for the conversations table.
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
		Key:       strKey("conversation_id", conversationID),
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

// GetByApplication returns the (single) conversation attached to an
// application, active or not.
func (r *ConversationRepo) GetByApplication(ctx context.Context, applicationID string) (*domain.Conversation, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String("application_id-index"),
		KeyConditionExpression: aws.String("application_id = :aid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":aid": &types.AttributeValueMemberS{Value: applicationID},
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

// ListByParticipant scans for conversations the user takes part in. The
// participant can sit on either side, which rules out a single-key GSI.
func (r *ConversationRepo) ListByParticipant(ctx context.Context, userID string) ([]domain.Conversation, error) {
	out, err := r.client.Scan(ctx, &dynamodb.ScanInput{
		TableName:        aws.String(r.tableName),
		FilterExpression: aws.String("(participant_1_id = :uid OR participant_2_id = :uid) AND is_active = :t"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uid": &types.AttributeValueMemberS{Value: userID},
			":t":   &types.AttributeValueMemberBOOL{Value: true},
		},
	})
	if err != nil {
		return nil, err
	}
	var conversations []domain.Conversation
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &conversations); err != nil {
		return nil, err
	}
	return conversations, nil
}

// ScanAll returns every conversation for the admin monitor view.
func (r *ConversationRepo) ScanAll(ctx context.Context) ([]domain.Conversation, error) {
	out, err := r.client.Scan(ctx, &dynamodb.ScanInput{
		TableName: aws.String(r.tableName),
	})
	if err != nil {
		return nil, err
	}
	var conversations []domain.Conversation
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &conversations); err != nil {
		return nil, err
	}
	return conversations, nil
}

func (r *ConversationRepo) SetActive(ctx context.Context, conversationID string, active bool) error {
	expr, names, values, err := buildUpdateExpr(map[string]interface{}{fieldIsActive: active})
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("conversation_id", conversationID),
		UpdateExpression:          aws.String(expr),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
	})
	return err
}
