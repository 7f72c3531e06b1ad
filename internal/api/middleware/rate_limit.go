package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"zettanote/internal/pkg/errors"
)

const rateWindow = time.Minute

// Limiter decides whether another request for key fits in limit
// requests per minute. When it does not, retryAfter says how long to
// wait.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int) (allowed bool, retryAfter time.Duration, err error)
}

// MemoryLimiter is a per-process token bucket limiter.
type MemoryLimiter struct {
	store *sync.Map // map[string]*Bucket
	now   func() time.Time
	stop  chan struct{}
	once  sync.Once
}

type Bucket struct {
	tokens     int
	lastRefill time.Time
	lastAccess time.Time
	mu         sync.Mutex
}

func NewMemoryLimiter() *MemoryLimiter {
	rl := &MemoryLimiter{
		store: &sync.Map{},
		now:   time.Now,
		stop:  make(chan struct{}),
	}

	go rl.cleanupLoop()

	return rl
}

func (rl *MemoryLimiter) cleanupLoop() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
			rl.evictIdle(10 * time.Minute)
		}
	}
}

func (rl *MemoryLimiter) evictIdle(idle time.Duration) {
	now := rl.now()
	rl.store.Range(func(key, value interface{}) bool {
		bucket := value.(*Bucket)
		bucket.mu.Lock()
		if now.Sub(bucket.lastAccess) > idle {
			rl.store.Delete(key)
		}
		bucket.mu.Unlock()
		return true
	})
}

func (rl *MemoryLimiter) Stop() {
	rl.once.Do(func() { close(rl.stop) })
}

func (rl *MemoryLimiter) Allow(_ context.Context, key string, limit int) (bool, time.Duration, error) {
	now := rl.now()

	val, _ := rl.store.LoadOrStore(key, &Bucket{
		tokens:     limit,
		lastRefill: now,
		lastAccess: now,
	})

	bucket := val.(*Bucket)
	bucket.mu.Lock()
	defer bucket.mu.Unlock()

	bucket.lastAccess = now

	// refill at limit tokens per window
	perToken := rateWindow / time.Duration(limit)
	if refill := int(now.Sub(bucket.lastRefill) / perToken); refill > 0 {
		bucket.tokens += refill
		if bucket.tokens > limit {
			bucket.tokens = limit
		}
		bucket.lastRefill = bucket.lastRefill.Add(time.Duration(refill) * perToken)
		if bucket.tokens == limit {
			bucket.lastRefill = now
		}
	}

	if bucket.tokens > 0 {
		bucket.tokens--
		return true, 0, nil
	}

	return false, perToken - now.Sub(bucket.lastRefill), nil
}

// RedisLimiter is a fixed window counter shared by every replica.
type RedisLimiter struct {
	client *redis.Client
	prefix string
}

func NewRedisLimiter(client *redis.Client) *RedisLimiter {
	return &RedisLimiter{client: client, prefix: "zettanote:ratelimit:"}
}

func (rl *RedisLimiter) Allow(ctx context.Context, key string, limit int) (bool, time.Duration, error) {
	redisKey := rl.prefix + key

	pipe := rl.client.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.ExpireNX(ctx, redisKey, rateWindow)
	ttl := pipe.PTTL(ctx, redisKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, fmt.Errorf("rate limit %s: %w", key, err)
	}

	if incr.Val() > int64(limit) {
		retry := ttl.Val()
		if retry <= 0 {
			retry = rateWindow
		}
		return false, retry, nil
	}
	return true, 0, nil
}

// RateLimit limits requests per client IP under name. Limiter failures
// let the request through.
func RateLimit(limiter Limiter, name string, perMinute int) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		if perMinute <= 0 {
			return next
		}
		return func(w http.ResponseWriter, r *http.Request) {
			key := fmt.Sprintf("%s:%s", name, ClientIP(r))

			allowed, retryAfter, err := limiter.Allow(r.Context(), key, perMinute)
			if err != nil {
				zerolog.Ctx(r.Context()).Warn().Err(err).Str("limit", name).Msg("rate limiter unavailable")
				next(w, r)
				return
			}

			if !allowed {
				seconds := int(retryAfter.Round(time.Second) / time.Second)
				if seconds < 1 {
					seconds = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(seconds))
				errors.WriteError(w, http.StatusTooManyRequests, errors.ErrCodeRateLimitExceeded, "Too many requests, please try again later", nil)
				return
			}

			next(w, r)
		}
	}
}
