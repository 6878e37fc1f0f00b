// Package cache provides a Redis read-through decorator for the hot catalog
// lookup: service-by-id, which every evaluation resolves at least once.
package cache

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"sdagate/internal/catalog"
	"sdagate/internal/platform/metrics"
	"sdagate/pkg/domain"
)

const serviceKeyPrefix = "catalog:service:"

// ServiceCache wraps a catalog.Store and serves FindService from Redis when a
// fresh entry exists. All other Store methods pass through.
type ServiceCache struct {
	catalog.Store
	client  *redis.Client
	ttl     time.Duration
	metrics *metrics.Metrics
}

// New decorates the given store. ttl bounds entry staleness.
func New(store catalog.Store, client *redis.Client, ttl time.Duration, m *metrics.Metrics) *ServiceCache {
	return &ServiceCache{Store: store, client: client, ttl: ttl, metrics: m}
}

// cachedService flattens the matrix for JSON round-tripping; map keys of
// struct type do not marshal.
type cachedService struct {
	ID         int64    `json:"id"`
	Code       string   `json:"code"`
	Name       string   `json:"name"`
	CategoryID int64    `json:"category_id"`
	Cells      []string `json:"cells"`
}

func toCached(svc *catalog.Service) cachedService {
	cells := make([]string, 0, 6)
	for _, key := range domain.Cells() {
		cells = append(cells, string(svc.Matrix[key]))
	}
	return cachedService{ID: svc.ID, Code: svc.Code, Name: svc.Name, CategoryID: svc.CategoryID, Cells: cells}
}

func fromCached(c cachedService) *catalog.Service {
	matrix := make(domain.PermissionMatrix, len(c.Cells))
	for i, key := range domain.Cells() {
		if i < len(c.Cells) && c.Cells[i] != "" {
			matrix[key] = domain.PermissionCode(c.Cells[i])
		}
	}
	return &catalog.Service{ID: c.ID, Code: c.Code, Name: c.Name, CategoryID: c.CategoryID, Matrix: matrix}
}

// FindService serves from Redis when possible, otherwise loads from the
// underlying store and populates the cache. Redis failures degrade to the
// store; they never fail the lookup.
func (c *ServiceCache) FindService(ctx context.Context, id int64) (*catalog.Service, error) {
	key := serviceKeyPrefix + strconv.FormatInt(id, 10)

	// Any Redis failure, including Redis being down entirely, counts as a
	// miss and falls through to the store.
	raw, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		var cached cachedService
		if err := json.Unmarshal(raw, &cached); err == nil {
			c.metrics.ObserveCacheHit()
			return fromCached(cached), nil
		}
	}
	c.metrics.ObserveCacheMiss()

	svc, err := c.Store.FindService(ctx, id)
	if err != nil {
		return nil, err
	}
	if raw, err := json.Marshal(toCached(svc)); err == nil {
		_ = c.client.Set(ctx, key, raw, c.ttl).Err()
	}
	return svc, nil
}
