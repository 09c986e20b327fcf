package store

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================
// MemoryStore Tests
// ============================================

func TestMemoryStore_SetGetDelete(t *testing.T) {
	ms := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, ms.Set(ctx, "client:1:homely_cart", []byte(`{"id":"c1"}`)))

	value, ok, err := ms.Get(ctx, "client:1:homely_cart")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `{"id":"c1"}`, string(value))

	require.NoError(t, ms.Delete(ctx, "client:1:homely_cart"))
	_, ok, err = ms.Get(ctx, "client:1:homely_cart")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 0, ms.Len())
}

func TestMemoryStore_ValuesAreCopied(t *testing.T) {
	ms := NewMemoryStore()
	ctx := context.Background()

	input := []byte("abc")
	require.NoError(t, ms.Set(ctx, "k", input))
	input[0] = 'z'

	value, _, _ := ms.Get(ctx, "k")
	assert.Equal(t, "abc", string(value))

	value[1] = 'z'
	again, _, _ := ms.Get(ctx, "k")
	assert.Equal(t, "abc", string(again))
}

func TestMemoryStore_EmptyKey(t *testing.T) {
	ms := NewMemoryStore()
	ctx := context.Background()

	assert.ErrorIs(t, ms.Set(ctx, "", []byte("x")), ErrEmptyKey)
	_, _, err := ms.Get(ctx, "")
	assert.ErrorIs(t, err, ErrEmptyKey)
}

func TestMemoryStore_DeleteMissingKey(t *testing.T) {
	ms := NewMemoryStore()

	assert.NoError(t, ms.Delete(context.Background(), "missing"))
}

// ============================================
// DynamoStore Tests
// ============================================

type fakeDynamo struct {
	items map[string]map[string]types.AttributeValue
}

func newFakeDynamo() *fakeDynamo {
	return &fakeDynamo{items: make(map[string]map[string]types.AttributeValue)}
}

func keyOf(key map[string]types.AttributeValue) string {
	if s, ok := key["key"].(*types.AttributeValueMemberS); ok {
		return s.Value
	}
	return ""
}

func (f *fakeDynamo) GetItem(ctx context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	return &dynamodb.GetItemOutput{Item: f.items[keyOf(in.Key)]}, nil
}

func (f *fakeDynamo) PutItem(ctx context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.items[keyOf(in.Item)] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamo) DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	delete(f.items, keyOf(in.Key))
	return &dynamodb.DeleteItemOutput{}, nil
}

func TestDynamoStore_RoundTrip(t *testing.T) {
	client := newFakeDynamo()
	ds := NewDynamoStore(client, "homely-kv")
	ctx := context.Background()

	require.NoError(t, ds.Set(ctx, "client:1:homely_cart_items", []byte(`[]`)))
	assert.Len(t, client.items, 1)

	value, ok, err := ds.Get(ctx, "client:1:homely_cart_items")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "[]", string(value))

	require.NoError(t, ds.Delete(ctx, "client:1:homely_cart_items"))
	_, ok, err = ds.Get(ctx, "client:1:homely_cart_items")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDynamoStore_EmptyKey(t *testing.T) {
	ds := NewDynamoStore(newFakeDynamo(), "homely-kv")

	assert.ErrorIs(t, ds.Set(context.Background(), "", nil), ErrEmptyKey)
}

// ============================================
// JSON helper Tests
// ============================================

type sample struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestJSONHelpers_RoundTrip(t *testing.T) {
	ctx := context.Background()
	ms := NewMemoryStore()

	require.NoError(t, PutJSON(ctx, ms, "sample", sample{Name: "pizza", Count: 2}))

	got, ok, err := GetJSON[sample](ctx, ms, "sample")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, sample{Name: "pizza", Count: 2}, got)

	_, ok, err = GetJSON[sample](ctx, ms, "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGetJSON_Corrupt(t *testing.T) {
	ctx := context.Background()
	ms := NewMemoryStore()
	require.NoError(t, ms.Set(ctx, "sample", []byte("{not json")))

	_, ok, err := GetJSON[sample](ctx, ms, "sample")
	assert.Error(t, err)
	assert.False(t, ok)
}

// ============================================
// Open Tests
// ============================================

func TestOpen_Memory(t *testing.T) {
	b, closeFn, err := Open(context.Background(), Options{Driver: DriverMemory})

	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, b)
	assert.NoError(t, closeFn())
}

func TestOpen_UnknownDriver(t *testing.T) {
	b, closeFn, err := Open(context.Background(), Options{Driver: "redis"})

	assert.Error(t, err)
	assert.Nil(t, b)
	assert.NotNil(t, closeFn)
}
