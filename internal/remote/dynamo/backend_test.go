package dynamo

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/courier/internal/remote"
)

// mockDynamo stores items per table keyed by the collection attribute.
type mockDynamo struct {
	mu      sync.Mutex
	tables  map[string]map[string]map[string]types.AttributeValue
	getErr  error
	getHits int
}

func newMockDynamo() *mockDynamo {
	return &mockDynamo{tables: map[string]map[string]map[string]types.AttributeValue{}}
}

func (m *mockDynamo) PutItem(ctx context.Context, params *dyn.PutItemInput, optFns ...func(*dyn.Options)) (*dyn.PutItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	table := *params.TableName
	if _, ok := m.tables[table]; !ok {
		m.tables[table] = map[string]map[string]types.AttributeValue{}
	}
	pk, ok := params.Item["collection"].(*types.AttributeValueMemberS)
	if !ok {
		return nil, errors.New("no primary key in put item")
	}
	m.tables[table][pk.Value] = params.Item
	return &dyn.PutItemOutput{}, nil
}

func (m *mockDynamo) GetItem(ctx context.Context, params *dyn.GetItemInput, optFns ...func(*dyn.Options)) (*dyn.GetItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getHits++
	if m.getErr != nil {
		return nil, m.getErr
	}
	pk, ok := params.Key["collection"].(*types.AttributeValueMemberS)
	if !ok {
		return nil, errors.New("no key attribute")
	}
	item, ok := m.tables[*params.TableName][pk.Value]
	if !ok {
		return &dyn.GetItemOutput{}, nil
	}
	return &dyn.GetItemOutput{Item: item}, nil
}

func (m *mockDynamo) setGetErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getErr = err
}

func TestBackend_GetSet(t *testing.T) {
	mock := newMockDynamo()
	b := New(mock, "courier", time.Second)
	b.nowFunc = func() time.Time { return time.UnixMilli(1700000000000) }
	ctx := context.Background()

	doc, err := b.Get(ctx, remote.CollectionOrders)
	require.NoError(t, err)
	assert.True(t, remote.IsNull(doc))

	require.NoError(t, b.Set(ctx, remote.CollectionOrders, json.RawMessage(`{"a":{"id":"a"}}`)))

	doc, err = b.Get(ctx, remote.CollectionOrders)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":{"id":"a"}}`, string(doc))

	item := mock.tables["courier"][remote.CollectionOrders]
	ts, ok := item["updated_at"].(*types.AttributeValueMemberN)
	require.True(t, ok)
	assert.Equal(t, "1700000000000", ts.Value)

	require.Error(t, b.Set(ctx, remote.CollectionOrders, json.RawMessage(`{`)))
}

func TestBackend_WatchEmitsOnlyChanges(t *testing.T) {
	mock := newMockDynamo()
	b := New(mock, "courier", 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, b.Set(ctx, remote.CollectionHistory, json.RawMessage(`[]`)))

	var mu sync.Mutex
	var values []string
	done := make(chan error, 1)
	go func() {
		done <- b.Watch(ctx, remote.CollectionHistory, func(doc json.RawMessage) {
			mu.Lock()
			values = append(values, string(doc))
			mu.Unlock()
		}, nil)
	}()

	waitFor(t, func() bool {
		mock.mu.Lock()
		defer mock.mu.Unlock()
		return mock.getHits >= 4
	})
	require.NoError(t, b.Set(ctx, remote.CollectionHistory, json.RawMessage(`[{"id":"a"}]`)))
	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(values) == 2
	})

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{`[]`, `[{"id":"a"}]`}, values)
}

func TestBackend_WatchReportsErrors(t *testing.T) {
	mock := newMockDynamo()
	mock.setGetErr(&types.ResourceNotFoundException{Message: ptr("Requested resource not found")})
	b := New(mock, "missing", time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var got error
	err := b.Watch(ctx, remote.CollectionOrders, func(json.RawMessage) {
		t.Error("onValue called for a failing table")
	}, func(err error) {
		got = err
		cancel()
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, got, ErrTableNotFound)
}

func TestOpen_RequiresTable(t *testing.T) {
	_, err := Open(context.Background(), " ", "eu-west-1", 0)
	require.Error(t, err)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func ptr(s string) *string { return &s }
