package predcache

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/rwhplan/internal/db"
	"github.com/kailas-cloud/rwhplan/internal/domain"
	"github.com/kailas-cloud/rwhplan/internal/domain/assessment"
)

type mockPredictor struct {
	result assessment.Result
	err    error
	calls  int
}

func (m *mockPredictor) Predict(_ context.Context, _ domain.PredictionRequest) (assessment.Result, error) {
	m.calls++
	return m.result, m.err
}

// mockKVStore implements the consumer interface for tests.
type mockKVStore struct {
	getFn func(ctx context.Context, key string) ([]byte, error)
	setFn func(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

func (m *mockKVStore) Get(ctx context.Context, key string) ([]byte, error) {
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	return nil, db.ErrKeyNotFound
}

func (m *mockKVStore) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if m.setFn != nil {
		return m.setFn(ctx, key, value, ttl)
	}
	return nil
}

func newTestCachedPredictor(t *testing.T, inner *mockPredictor) (*CachedPredictor, *mockKVStore) {
	t.Helper()
	ms := &mockKVStore{}
	cp := New(inner, ms, "v1", time.Hour, nil, zap.NewNop())
	return cp, ms
}
