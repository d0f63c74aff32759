package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

const (
	pkPrefixBooking = "BOOKING#"
	skLedger        = "LEDGER#"
	DefaultTTL      = 24 * time.Hour
)

// dynamodbAPI is the minimal DynamoDB interface required by BookingLedger.
// Defined here for testability.
type dynamodbAPI interface {
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// BookingLedger records forwarded call-back requests in a DynamoDB table so
// that separate instances agree on what was already sent. Entries expire via
// the table's TTL attribute.
type BookingLedger struct {
	api       dynamodbAPI
	tableName string
	ttl       time.Duration
	now       func() time.Time
}

// NewBookingLedger creates a ledger over tableName. A non-positive ttl uses
// DefaultTTL.
func NewBookingLedger(api dynamodbAPI, tableName string, ttl time.Duration) (*BookingLedger, error) {
	if api == nil {
		return nil, errors.New("repository: api must not be nil")
	}
	if strings.TrimSpace(tableName) == "" {
		return nil, errors.New("repository: table name must not be empty")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &BookingLedger{api: api, tableName: tableName, ttl: ttl, now: time.Now}, nil
}

func bookingPK(fingerprint string) string {
	return pkPrefixBooking + fingerprint
}

func ledgerKey(fingerprint string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: bookingPK(fingerprint)},
		"SK": &types.AttributeValueMemberS{Value: skLedger},
	}
}

// Claim writes the fingerprint unless a live entry already exists. Expired
// entries not yet swept by TTL can be claimed again.
func (l *BookingLedger) Claim(ctx context.Context, fingerprint string) (bool, error) {
	if strings.TrimSpace(fingerprint) == "" {
		return false, errors.New("repository: fingerprint must not be empty")
	}
	now := l.now().UTC()
	item := ledgerKey(fingerprint)
	item["claimedAt"] = &types.AttributeValueMemberS{Value: now.Format(time.RFC3339Nano)}
	item["ttl"] = &types.AttributeValueMemberN{Value: strconv.FormatInt(now.Add(l.ttl).Unix(), 10)}

	_, err := l.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(l.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(PK) OR #ttl < :now"),
		ExpressionAttributeNames: map[string]string{
			"#ttl": "ttl",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":now": &types.AttributeValueMemberN{Value: strconv.FormatInt(now.Unix(), 10)},
		},
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return false, nil
		}
		return false, fmt.Errorf("repository: claim booking: %w", err)
	}
	return true, nil
}

// Release deletes the fingerprint so it can be claimed again.
func (l *BookingLedger) Release(ctx context.Context, fingerprint string) error {
	if strings.TrimSpace(fingerprint) == "" {
		return errors.New("repository: fingerprint must not be empty")
	}
	_, err := l.api.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(l.tableName),
		Key:       ledgerKey(fingerprint),
	})
	if err != nil {
		return fmt.Errorf("repository: release booking: %w", err)
	}
	return nil
}
