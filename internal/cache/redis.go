package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/oernster/trainer-sub004/internal/models"
)

// RouteCacheConfig holds the optional Redis route-result cache settings
type RouteCacheConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
	MutexTTL time.Duration `yaml:"mutex_ttl"`
}

// RouteCache is a shared cache of computed route results. The planner
// is fully functional without it; callers construct one only when a
// Redis endpoint is configured.
type RouteCache struct {
	client   *redis.Client
	ttl      time.Duration
	mutexTTL time.Duration
}

// NewRouteCache connects to Redis and verifies the connection
func NewRouteCache(cfg RouteCacheConfig) (*RouteCache, error) {
	if cfg.TTL <= 0 {
		cfg.TTL = 10 * time.Minute
	}
	if cfg.MutexTTL <= 0 {
		cfg.MutexTTL = 5 * time.Second
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RouteCache{client: client, ttl: cfg.TTL, mutexTTL: cfg.MutexTTL}, nil
}

// Close releases the Redis connection
func (rc *RouteCache) Close() error {
	return rc.client.Close()
}

// RouteKey generates a deterministic cache key for a planning query
func RouteKey(from, to string, maxChanges int, departure string) string {
	data := fmt.Sprintf("%s|%s|%d|%s", from, to, maxChanges, departure)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("route:%x", hash[:8])
}

// LockKey generates the mutex key guarding a route computation
func LockKey(routeKey string) string {
	return "lock:" + routeKey
}

// GetRoutes retrieves cached route results; (nil, nil) is a cache miss
func (rc *RouteCache) GetRoutes(ctx context.Context, key string) ([]models.RouteOption, error) {
	data, err := rc.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var routes []models.RouteOption
	if err := json.Unmarshal(data, &routes); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached routes: %w", err)
	}
	return routes, nil
}

// SetRoutes caches the results of a planning query
func (rc *RouteCache) SetRoutes(ctx context.Context, key string, routes []models.RouteOption) error {
	data, err := json.Marshal(routes)
	if err != nil {
		return fmt.Errorf("failed to marshal routes: %w", err)
	}
	return rc.client.Set(ctx, key, data, rc.ttl).Err()
}

// AcquireLock attempts to take the computation mutex for a route key
func (rc *RouteCache) AcquireLock(ctx context.Context, key string) (bool, error) {
	return rc.client.SetNX(ctx, key, "1", rc.mutexTTL).Result()
}

// ReleaseLock releases the computation mutex
func (rc *RouteCache) ReleaseLock(ctx context.Context, key string) error {
	return rc.client.Del(ctx, key).Err()
}

// WaitForRoutes polls until the lock holder publishes its result or
// maxWait elapses. Avoids recomputing the same query in parallel.
func (rc *RouteCache) WaitForRoutes(ctx context.Context, routeKey string, maxWait time.Duration) ([]models.RouteOption, error) {
	lockKey := LockKey(routeKey)
	deadline := time.Now().Add(maxWait)

	for time.Now().Before(deadline) {
		exists, err := rc.client.Exists(ctx, lockKey).Result()
		if err != nil {
			return nil, err
		}
		if exists == 0 {
			return rc.GetRoutes(ctx, routeKey)
		}
		time.Sleep(100 * time.Millisecond)
	}

	return nil, fmt.Errorf("timeout waiting for route computation")
}

// HealthCheck pings the Redis connection
func (rc *RouteCache) HealthCheck(ctx context.Context) error {
	if err := rc.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}
