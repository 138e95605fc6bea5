package predcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/rwhplan/internal/db"
	"github.com/kailas-cloud/rwhplan/internal/domain"
	"github.com/kailas-cloud/rwhplan/internal/domain/assessment"
)

var cacheKeyPrefix = domain.KeyPrefix + "prediction:"

// store is the consumer interface for the prediction cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// CachedPredictor caches prediction results in a key-value store.
// Cache failures are logged and never fail a prediction.
type CachedPredictor struct {
	inner        domain.Predictor
	store        store
	modelVersion string
	ttl          time.Duration
	cacheTotal   *prometheus.CounterVec
	logger       *zap.Logger
}

// New creates a caching decorator.
// Keys include modelVersion so a new bundle never serves stale results.
// cacheTotal is a counter vec with label "result" ("hit"/"miss"), passed explicitly.
func New(
	inner domain.Predictor,
	s store,
	modelVersion string,
	ttl time.Duration,
	cacheTotal *prometheus.CounterVec,
	logger *zap.Logger,
) *CachedPredictor {
	return &CachedPredictor{
		inner:        inner,
		store:        s,
		modelVersion: modelVersion,
		ttl:          ttl,
		cacheTotal:   cacheTotal,
		logger:       logger,
	}
}

// Predict returns a cached result or calls the inner predictor.
// Errors from the inner predictor are returned as is and never cached.
func (c *CachedPredictor) Predict(ctx context.Context, req domain.PredictionRequest) (assessment.Result, error) {
	if req.RoofArea <= 0 || req.HouseholdSize <= 0 {
		return c.inner.Predict(ctx, req)
	}

	key := c.cacheKey(req.Normalized())

	if res, ok := c.getFromCache(ctx, key); ok {
		c.incCache("hit")
		return res, nil
	}

	c.incCache("miss")

	res, err := c.inner.Predict(ctx, req)
	if err != nil {
		return assessment.Result{}, fmt.Errorf("predict: %w", err)
	}

	c.putToCache(ctx, key, res)
	return res, nil
}

func (c *CachedPredictor) incCache(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}

func (c *CachedPredictor) cacheKey(req domain.PredictionRequest) string {
	parts := []string{
		c.modelVersion,
		strconv.FormatFloat(req.RoofArea, 'g', -1, 64),
		strconv.Itoa(req.HouseholdSize),
		strings.ToLower(req.Location),
	}
	h := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return cacheKeyPrefix + hex.EncodeToString(h[:])
}

func (c *CachedPredictor) getFromCache(ctx context.Context, key string) (assessment.Result, bool) {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Failed to get cached prediction", zap.String("key", key), zap.Error(err))
		}
		return assessment.Result{}, false
	}
	if len(data) == 0 {
		return assessment.Result{}, false
	}

	var res assessment.Result
	if err := json.Unmarshal(data, &res); err != nil {
		c.logger.Warn("Failed to parse cached prediction", zap.String("key", key), zap.Error(err))
		return assessment.Result{}, false
	}
	return res, true
}

func (c *CachedPredictor) putToCache(ctx context.Context, key string, res assessment.Result) {
	data, err := json.Marshal(res)
	if err != nil {
		c.logger.Warn("Failed to encode prediction", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.store.SetWithTTL(ctx, key, data, c.ttl); err != nil {
		c.logger.Warn("Failed to cache prediction", zap.String("key", key), zap.Error(err))
	}
}
