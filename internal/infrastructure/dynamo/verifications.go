package dynamo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-directory-api/internal/domain"
)

// VerificationRepo manages single-use email verification tokens.
// PK: user_id, SK: type — so a PutItem for the same user replaces any
// outstanding token atomically (at most one active token per user).
type VerificationRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewVerificationRepo(client *dynamodb.Client, tableName string) *VerificationRepo {
	return &VerificationRepo{client: client, tableName: tableName}
}

func (r *VerificationRepo) Put(ctx context.Context, v *domain.VerificationToken) error {
	item, err := attributevalue.MarshalMap(v)
	if err != nil {
		return fmt.Errorf("marshal verification token: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("put verification token: %w: %w", domain.ErrStorage, err)
	}
	return nil
}

// GetByToken resolves a token value to its record via the token-index GSI.
// A token that was replaced by a newer issuance no longer has a record and
// therefore resolves to not-found.
func (r *VerificationRepo) GetByToken(ctx context.Context, token string) (*domain.VerificationToken, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String("token-index"),
		KeyConditionExpression:    aws.String("#a = :v"),
		ExpressionAttributeNames:  map[string]string{"#a": "token"},
		ExpressionAttributeValues: map[string]types.AttributeValue{":v": &types.AttributeValueMemberS{Value: token}},
		Limit:                     aws.Int32(1),
	})
	if err != nil {
		return nil, fmt.Errorf("query verification token: %w: %w", domain.ErrStorage, err)
	}
	if len(out.Items) == 0 {
		return nil, fmt.Errorf("verification token not found: %w", domain.ErrNotFound)
	}
	var v domain.VerificationToken
	if err := attributevalue.UnmarshalMap(out.Items[0], &v); err != nil {
		return nil, fmt.Errorf("unmarshal verification token: %w", err)
	}
	return &v, nil
}

// MarkUsed consumes the token. The conditional write only succeeds while
// used_at is still zero, so two concurrent validations cannot both win.
func (r *VerificationRepo) MarkUsed(ctx context.Context, userID, verType string, usedAt time.Time) error {
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 compositeKey("user_id", userID, "type", verType),
		UpdateExpression:    aws.String("SET used_at = :u"),
		ConditionExpression: aws.String("attribute_exists(user_id) AND used_at = :zero"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":u":    &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", usedAt.Unix())},
			":zero": &types.AttributeValueMemberN{Value: "0"},
		},
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return fmt.Errorf("verification token already consumed: %w", domain.ErrAlreadyUsed)
		}
		return fmt.Errorf("mark verification token used: %w: %w", domain.ErrStorage, err)
	}
	return nil
}

func (r *VerificationRepo) Delete(ctx context.Context, userID, verType string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       compositeKey("user_id", userID, "type", verType),
	})
	if err != nil {
		return fmt.Errorf("delete verification token: %w: %w", domain.ErrStorage, err)
	}
	return nil
}
