package service

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/noah-isme/campus-api/pkg/errors"
)

// CacheRepository abstracts persistence for cached payloads and the
// generation counters that version them.
type CacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
	Counter(ctx context.Context, key string) (int64, error)
	Incr(ctx context.Context, key string) (int64, error)
}

func generationKey(key string) string { return key + ":gen" }

func versionedKey(key string, generation int64) string {
	return fmt.Sprintf("%s:v%d", key, generation)
}

// defaultCacheCooldown is how long reads and writes skip the backend after it
// fails, so an unreachable Redis does not add a timeout to every check.
const defaultCacheCooldown = 30 * time.Second

// CacheService fronts the prerequisite graph cache. It is optional: a nil or
// disabled service turns every call into a no-op.
type CacheService struct {
	repo       CacheRepository
	metrics    *MetricsService
	defaultTTL time.Duration
	cooldown   time.Duration
	logger     *zap.Logger
	enabled    bool

	now         func() time.Time
	bypassUntil atomic.Int64
}

// NewCacheService constructs a cache service.
func NewCacheService(repo CacheRepository, metrics *MetricsService, defaultTTL time.Duration, logger *zap.Logger, enabled bool) *CacheService {
	if defaultTTL <= 0 {
		defaultTTL = 15 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{
		repo:       repo,
		metrics:    metrics,
		defaultTTL: defaultTTL,
		cooldown:   defaultCacheCooldown,
		logger:     logger,
		enabled:    enabled,
		now:        time.Now,
	}
}

// Enabled indicates whether caching is configured.
func (s *CacheService) Enabled() bool {
	return s != nil && s.enabled && s.repo != nil
}

func (s *CacheService) available() bool {
	return s.Enabled() && s.now().UnixNano() >= s.bypassUntil.Load()
}

func (s *CacheService) trip(op, key string, err error) {
	s.bypassUntil.Store(s.now().Add(s.cooldown).UnixNano())
	s.logger.Warn("prerequisite cache unavailable",
		zap.String("op", op), zap.String("key", key), zap.Duration("cooldown", s.cooldown), zap.Error(err))
}

// Get loads key into dest and reports whether it was a hit. A miss is not an error.
func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !s.available() {
		return false, nil
	}
	start := time.Now()
	err := s.repo.Get(ctx, key, dest)
	s.metrics.RecordCacheOperation(err == nil, time.Since(start))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, appErrors.ErrCacheMiss):
		return false, nil
	default:
		s.trip("get", key, err)
		return false, err
	}
}

// Set stores value under key. A non-positive ttl uses the configured default.
func (s *CacheService) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !s.available() {
		return nil
	}
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	start := time.Now()
	err := s.repo.Set(ctx, key, value, ttl)
	s.metrics.ObserveCacheWrite(time.Since(start))
	if err != nil {
		s.trip("set", key, err)
	}
	return err
}

// generation returns the current generation of key. ok is false when the
// backend is unavailable and the read must go straight to the source.
func (s *CacheService) generation(ctx context.Context, key string) (gen int64, ok bool) {
	if !s.available() {
		return 0, false
	}
	gen, err := s.repo.Counter(ctx, generationKey(key))
	if err != nil {
		s.trip("generation", key, err)
		return 0, false
	}
	return gen, true
}

// Invalidate retires every cached version of key by bumping its generation.
// Readers that loaded before the bump keep writing under the old generation,
// which nobody reads any more. It ignores the cooldown and returns backend
// failures to the caller.
func (s *CacheService) Invalidate(ctx context.Context, key string) error {
	if !s.Enabled() {
		return nil
	}
	gen, err := s.repo.Incr(ctx, generationKey(key))
	if err != nil {
		s.trip("invalidate", key, err)
		return err
	}
	if err := s.repo.DeleteByPattern(ctx, key+":v*"); err != nil {
		s.logger.Warn("prerequisite cache cleanup failed", zap.String("key", key), zap.Int64("generation", gen), zap.Error(err))
	}
	return nil
}

// cachedLoad serves key from cache or calls load and stores its result under
// the generation read before loading. Cache failures degrade to a direct
// load; they never fail the request.
func cachedLoad[T any](ctx context.Context, cache *CacheService, key string, load func(context.Context) (T, error)) (T, error) {
	gen, ok := cache.generation(ctx, key)
	if !ok {
		return load(ctx)
	}
	versioned := versionedKey(key, gen)

	var cached T
	if hit, err := cache.Get(ctx, versioned, &cached); err == nil && hit {
		return cached, nil
	}
	value, err := load(ctx)
	if err != nil {
		return value, err
	}
	_ = cache.Set(ctx, versioned, value, 0)
	return value, nil
}
