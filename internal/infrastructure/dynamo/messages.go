package dynamo

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/campusboard-api/internal/domain"
)

// MessageRepo provides typed DynamoDB operations for the messages table.
// PK: message_id; conversation_id GSI with message_id range gives
// chronological order because message IDs are ULIDs.
type MessageRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewMessageRepo(client *dynamodb.Client, tableName string) *MessageRepo {
	return &MessageRepo{client: client, tableName: tableName}
}

func (r *MessageRepo) Put(ctx context.Context, m *domain.Message) error {
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

func (r *MessageRepo) Get(ctx context.Context, messageID string) (*domain.Message, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("message_id", messageID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("message not found: %w", domain.ErrNotFound)
	}
	var m domain.Message
	if err := attributevalue.UnmarshalMap(out.Item, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *MessageRepo) ListByConversation(ctx context.Context, conversationID string) ([]domain.Message, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String("conversation_id-index"),
		KeyConditionExpression: aws.String("conversation_id = :cid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":cid": &types.AttributeValueMemberS{Value: conversationID},
		},
	})
	if err != nil {
		return nil, err
	}
	var messages []domain.Message
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

// MarkReadByRecipient flags every unread message in the conversation that was
// sent by someone other than userID.
func (r *MessageRepo) MarkReadByRecipient(ctx context.Context, conversationID, userID string) error {
	messages, err := r.ListByConversation(ctx, conversationID)
	if err != nil {
		return err
	}
	for i := range messages {
		m := &messages[i]
		if m.IsRead || m.SenderUserID == userID {
			continue
		}
		if err := r.setFlag(ctx, m.MessageID, fieldIsRead, true); err != nil {
			slog.Warn("failed to mark message read", "message_id", m.MessageID, "err", err)
		}
	}
	return nil
}

func (r *MessageRepo) SetFlagged(ctx context.Context, messageID string, flagged bool) error {
	return r.setFlag(ctx, messageID, fieldFlaggedByAdmin, flagged)
}

func (r *MessageRepo) setFlag(ctx context.Context, messageID, field string, value bool) error {
	expr, names, values, err := buildUpdateExpr(map[string]interface{}{field: value})
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("message_id", messageID),
		UpdateExpression:          aws.String(expr),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
	})
	return err
}
