package repository

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/require"
)

type fakeDynamo struct {
	putErr          error
	deleteErr       error
	lastPutInput    *dynamodb.PutItemInput
	lastDeleteInput *dynamodb.DeleteItemInput
}

func (f *fakeDynamo) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.lastPutInput = in
	return &dynamodb.PutItemOutput{}, f.putErr
}

func (f *fakeDynamo) DeleteItem(_ context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	f.lastDeleteInput = in
	return &dynamodb.DeleteItemOutput{}, f.deleteErr
}

func mustNewLedger(t *testing.T, db *fakeDynamo) *BookingLedger {
	t.Helper()
	l, err := NewBookingLedger(db, "bookings", time.Hour)
	require.NoError(t, err)
	l.now = func() time.Time { return time.Unix(1_700_000_000, 0) }
	return l
}

// ---------------------------------------------------------------------------
// BookingLedger
// ---------------------------------------------------------------------------

func TestNewBookingLedger_Validation(t *testing.T) {
	_, err := NewBookingLedger(nil, "bookings", 0)
	require.Error(t, err)

	_, err = NewBookingLedger(&fakeDynamo{}, " ", 0)
	require.Error(t, err)

	l, err := NewBookingLedger(&fakeDynamo{}, "bookings", 0)
	require.NoError(t, err)
	require.Equal(t, DefaultTTL, l.ttl)
}

func TestClaim_WritesConditionalItem(t *testing.T) {
	db := &fakeDynamo{}
	l := mustNewLedger(t, db)

	ok, err := l.Claim(context.Background(), "abc")
	require.NoError(t, err)
	require.True(t, ok)

	in := db.lastPutInput
	require.NotNil(t, in)
	require.Equal(t, "bookings", *in.TableName)
	require.Equal(t, "attribute_not_exists(PK) OR #ttl < :now", *in.ConditionExpression)
	require.Equal(t, "ttl", in.ExpressionAttributeNames["#ttl"])
	require.Equal(t, &types.AttributeValueMemberN{Value: "1700000000"}, in.ExpressionAttributeValues[":now"])
	require.Equal(t, &types.AttributeValueMemberS{Value: "BOOKING#abc"}, in.Item["PK"])
	require.Equal(t, &types.AttributeValueMemberS{Value: "LEDGER#"}, in.Item["SK"])
	require.Equal(t, &types.AttributeValueMemberN{Value: strconv.FormatInt(1_700_000_000+3600, 10)}, in.Item["ttl"])
}

func TestClaim_ConditionFailedMeansDuplicate(t *testing.T) {
	db := &fakeDynamo{putErr: &types.ConditionalCheckFailedException{}}
	l := mustNewLedger(t, db)

	ok, err := l.Claim(context.Background(), "abc")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestClaim_DynamoError(t *testing.T) {
	db := &fakeDynamo{putErr: errors.New("throttled")}
	l := mustNewLedger(t, db)

	_, err := l.Claim(context.Background(), "abc")
	require.ErrorContains(t, err, "throttled")
	require.ErrorContains(t, err, "claim booking")
}

func TestClaim_EmptyFingerprint(t *testing.T) {
	db := &fakeDynamo{}
	l := mustNewLedger(t, db)
	_, err := l.Claim(context.Background(), " ")
	require.Error(t, err)
	require.Nil(t, db.lastPutInput)
}

func TestRelease_DeletesItem(t *testing.T) {
	db := &fakeDynamo{}
	l := mustNewLedger(t, db)

	require.NoError(t, l.Release(context.Background(), "abc"))
	require.Equal(t, "bookings", *db.lastDeleteInput.TableName)
	require.Equal(t, &types.AttributeValueMemberS{Value: "BOOKING#abc"}, db.lastDeleteInput.Key["PK"])

	db.deleteErr = errors.New("boom")
	require.ErrorContains(t, l.Release(context.Background(), "abc"), "release booking")
}
