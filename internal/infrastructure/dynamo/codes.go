package dynamo

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/campusboard-api/internal/domain"
)

// CodeRepo manages one verification-code table (email or phone; both tables
// share the schema and are served by two instances of this type).
// PK: address, SK: created_at (ULID). ULIDs sort chronologically, so the
// newest code for an address is the last item in key order.
type CodeRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewCodeRepo(client *dynamodb.Client, tableName string) *CodeRepo {
	return &CodeRepo{client: client, tableName: tableName}
}

func (r *CodeRepo) Put(ctx context.Context, v *domain.VerificationCode) error {
	item, err := attributevalue.MarshalMap(v)
	if err != nil {
		return fmt.Errorf("marshal verification code: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

// GetLatest returns the most recently issued code record for address,
// used or not. Redemption only ever considers this record, which is what
// makes a newly issued code supersede all earlier ones.
func (r *CodeRepo) GetLatest(ctx context.Context, address string) (*domain.VerificationCode, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		KeyConditionExpression: aws.String("address = :a"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":a": &types.AttributeValueMemberS{Value: address},
		},
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int32(1),
	})
	if err != nil {
		return nil, err
	}
	if len(out.Items) == 0 {
		return nil, fmt.Errorf("no code issued for address: %w", domain.ErrNotFound)
	}
	var v domain.VerificationCode
	if err := attributevalue.UnmarshalMap(out.Items[0], &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// ListIssuedSince returns the issuance timestamps (Unix seconds, newest
// first) of all codes issued for address at or after since. The issuance
// limiter derives both of its thresholds from this list.
func (r *CodeRepo) ListIssuedSince(ctx context.Context, address string, since int64) ([]int64, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		KeyConditionExpression: aws.String("address = :a"),
		FilterExpression:       aws.String("issued_at >= :since"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":a":     &types.AttributeValueMemberS{Value: address},
			":since": &types.AttributeValueMemberN{Value: strconv.FormatInt(since, 10)},
		},
		ScanIndexForward: aws.Bool(false),
	})
	if err != nil {
		return nil, err
	}
	var codes []domain.VerificationCode
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &codes); err != nil {
		return nil, err
	}
	stamps := make([]int64, len(codes))
	for i := range codes {
		stamps[i] = codes[i].IssuedAt
	}
	return stamps, nil
}

// MarkUsed flips is_used on the (address, createdAt) record with a
// conditional update keyed on the unused state. Of two concurrent redemption
// attempts exactly one wins; the loser gets domain.ErrCodeMismatch.
func (r *CodeRepo) MarkUsed(ctx context.Context, address, createdAt string) error {
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                aws.String(r.tableName),
		Key:                      compositeKey("address", address, "created_at", createdAt),
		UpdateExpression:         aws.String("SET #u = :t"),
		ConditionExpression:      aws.String("#u = :f"),
		ExpressionAttributeNames: map[string]string{"#u": fieldIsUsed},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":t": &types.AttributeValueMemberBOOL{Value: true},
			":f": &types.AttributeValueMemberBOOL{Value: false},
		},
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return fmt.Errorf("code already consumed: %w", domain.ErrCodeMismatch)
		}
		return err
	}
	return nil
}
