package dynamo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/campusboard-api/internal/domain"
)

// JobRepo provides typed DynamoDB operations for the jobs table.
type JobRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewJobRepo(client *dynamodb.Client, tableName string) *JobRepo {
	return &JobRepo{client: client, tableName: tableName}
}

func (r *JobRepo) Put(ctx context.Context, j *domain.JobPost) error {
	item, err := attributevalue.MarshalMap(j)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *JobRepo) Get(ctx context.Context, jobID string) (*domain.JobPost, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("job_id", jobID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("job not found: %w", domain.ErrNotFound)
	}
	var j domain.JobPost
	if err := attributevalue.UnmarshalMap(out.Item, &j); err != nil {
		return nil, err
	}
	return &j, nil
}

func (r *JobRepo) Update(ctx context.Context, jobID string, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now().UTC().Format(time.RFC3339)
	expr, names, values, err := buildUpdateExpr(updates)
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("job_id", jobID),
		UpdateExpression:          aws.String(expr),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
	})
	return err
}

func (r *JobRepo) SoftDelete(ctx context.Context, jobID string) error {
	now := time.Now().UTC()
	return r.Update(ctx, jobID, map[string]interface{}{
		fieldEnable:    0,
		fieldDeletedAt: now.Format(time.RFC3339),
	})
}

// ListByCompany queries the company_user_id GSI; job IDs are ULIDs so key
// order is posting order, newest last.
func (r *JobRepo) ListByCompany(ctx context.Context, companyUserID string) ([]domain.JobPost, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String("company_user_id-index"),
		KeyConditionExpression: aws.String("company_user_id = :cid"),
		FilterExpression:       aws.String("enable = :t"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":cid": &types.AttributeValueMemberS{Value: companyUserID},
			":t":   &types.AttributeValueMemberN{Value: "1"},
		},
		ScanIndexForward: aws.Bool(false),
	})
	if err != nil {
		return nil, err
	}
	var jobs []domain.JobPost
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &jobs); err != nil {
		return nil, err
	}
	return jobs, nil
}

// ScanPage returns a filtered page of job posts.
// Search matching (title/description/location substring) runs as a DynamoDB
// contains() filter over lowercased copies the service keeps in search_blob.
func (r *JobRepo) ScanPage(ctx context.Context, filter domain.JobFilter, limit int32, cursor string) ([]domain.JobPost, string, error) {
	exprParts := []string{"enable = :t"}
	values := map[string]types.AttributeValue{
		":t": &types.AttributeValueMemberN{Value: "1"},
	}
	if filter.ApprovedOnly {
		exprParts = append(exprParts, "is_approved = :appr")
		values[":appr"] = &types.AttributeValueMemberBOOL{Value: true}
	}
	if filter.Category != "" {
		exprParts = append(exprParts, "category = :cat")
		values[":cat"] = &types.AttributeValueMemberS{Value: filter.Category}
	}
	if filter.JobType != "" {
		exprParts = append(exprParts, "job_type = :jt")
		values[":jt"] = &types.AttributeValueMemberS{Value: filter.JobType}
	}
	if filter.Search != "" {
		exprParts = append(exprParts, "contains(search_blob, :q)")
		values[":q"] = &types.AttributeValueMemberS{Value: strings.ToLower(filter.Search)}
	}

	input := &dynamodb.ScanInput{
		TableName:                 aws.String(r.tableName),
		FilterExpression:          aws.String(strings.Join(exprParts, " AND ")),
		ExpressionAttributeValues: values,
		Limit:                     aws.Int32(limit),
	}
	if cursor != "" {
		jobID, err := decodeCursor(cursor)
		if err != nil {
			return nil, "", fmt.Errorf("invalid cursor: %w", domain.ErrBadRequest)
		}
		input.ExclusiveStartKey = strKey("job_id", jobID)
	}
	out, err := r.client.Scan(ctx, input)
	if err != nil {
		return nil, "", err
	}
	var jobs []domain.JobPost
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &jobs); err != nil {
		return nil, "", err
	}
	nextCursor := ""
	if v, ok := out.LastEvaluatedKey["job_id"].(*types.AttributeValueMemberS); ok {
		nextCursor = encodeCursor(v.Value)
	}
	return jobs, nextCursor, nil
}

// CountApproved counts live, admin-approved job posts.
func (r *JobRepo) CountApproved(ctx context.Context) (int, error) {
	out, err := r.client.Scan(ctx, &dynamodb.ScanInput{
		TableName:        aws.String(r.tableName),
		FilterExpression: aws.String("enable = :t AND is_approved = :appr"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":t":    &types.AttributeValueMemberN{Value: "1"},
			":appr": &types.AttributeValueMemberBOOL{Value: true},
		},
		Select: types.SelectCount,
	})
	if err != nil {
		return 0, err
	}
	return int(out.Count), nil
}
