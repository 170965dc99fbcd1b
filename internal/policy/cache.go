package policy

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"

	"claimguard/internal/claims/models"
)

var cacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "claimguard_policy_cache_lookups_total",
	Help: "Policy directory cache lookups by layer and result",
}, []string{"layer", "result"})

const (
	redisKeyPrefix = "policy:"

	DefaultLocalTTL  = time.Minute
	DefaultSharedTTL = 10 * time.Minute
)

// CachedDirectory fronts a Directory with an in-process cache and, when a
// redis client is configured, a shared cache. Misses in both fall through to
// the backing directory. Not-found results are never cached so newly issued
// policies become visible immediately.
type CachedDirectory struct {
	next      Directory
	local     *gocache.Cache
	shared    *redis.Client
	sharedTTL time.Duration
	logger    *slog.Logger
}

type CacheOption func(*CachedDirectory)

// WithRedis enables the shared cache layer.
func WithRedis(client *redis.Client, ttl time.Duration) CacheOption {
	return func(d *CachedDirectory) {
		d.shared = client
		if ttl > 0 {
			d.sharedTTL = ttl
		}
	}
}

func WithLocalTTL(ttl time.Duration) CacheOption {
	return func(d *CachedDirectory) {
		if ttl > 0 {
			d.local = gocache.New(ttl, 2*ttl)
		}
	}
}

func WithCacheLogger(logger *slog.Logger) CacheOption {
	return func(d *CachedDirectory) {
		d.logger = logger
	}
}

func NewCached(next Directory, opts ...CacheOption) *CachedDirectory {
	d := &CachedDirectory{
		next:      next,
		local:     gocache.New(DefaultLocalTTL, 2*DefaultLocalTTL),
		sharedTTL: DefaultSharedTTL,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	return d
}

func (d *CachedDirectory) Lookup(ctx context.Context, policyNumber string) (models.PolicyRecord, error) {
	key := normalize(policyNumber)
	if v, ok := d.local.Get(key); ok {
		cacheLookups.WithLabelValues("local", "hit").Inc()
		return v.(models.PolicyRecord), nil
	}
	cacheLookups.WithLabelValues("local", "miss").Inc()

	if d.shared != nil {
		if r, ok := d.getShared(ctx, key); ok {
			d.local.SetDefault(key, r)
			return r, nil
		}
	}

	r, err := d.next.Lookup(ctx, policyNumber)
	if err != nil {
		return models.PolicyRecord{}, err
	}
	d.local.SetDefault(key, r)
	if d.shared != nil {
		d.setShared(ctx, key, r)
	}
	return r, nil
}

// Invalidate drops a policy from both cache layers.
func (d *CachedDirectory) Invalidate(ctx context.Context, policyNumber string) error {
	key := normalize(policyNumber)
	d.local.Delete(key)
	if d.shared == nil {
		return nil
	}
	return d.shared.Del(ctx, redisKeyPrefix+key).Err()
}

func (d *CachedDirectory) getShared(ctx context.Context, key string) (models.PolicyRecord, bool) {
	raw, err := d.shared.Get(ctx, redisKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		cacheLookups.WithLabelValues("shared", "miss").Inc()
		return models.PolicyRecord{}, false
	}
	if err != nil {
		cacheLookups.WithLabelValues("shared", "error").Inc()
		d.warn(ctx, "policy cache read failed", "error", err)
		return models.PolicyRecord{}, false
	}
	var r models.PolicyRecord
	if err := json.Unmarshal(raw, &r); err != nil {
		cacheLookups.WithLabelValues("shared", "error").Inc()
		d.warn(ctx, "policy cache entry corrupt", "error", err)
		return models.PolicyRecord{}, false
	}
	cacheLookups.WithLabelValues("shared", "hit").Inc()
	return r, true
}

func (d *CachedDirectory) setShared(ctx context.Context, key string, r models.PolicyRecord) {
	raw, err := json.Marshal(r)
	if err != nil {
		return
	}
	if err := d.shared.Set(ctx, redisKeyPrefix+key, raw, d.sharedTTL).Err(); err != nil {
		d.warn(ctx, "policy cache write failed", "error", err)
	}
}

func (d *CachedDirectory) warn(ctx context.Context, msg string, args ...any) {
	if d.logger != nil {
		d.logger.WarnContext(ctx, msg, args...)
	}
}
