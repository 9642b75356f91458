// Package infra provides shared infrastructure components used by the data
// provider clients: a TTL cache, request rate limiting and a circuit breaker.
package infra

import (
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// --- TTL cache ---

type cacheEntry[V any] struct {
	value     V
	expiresAt time.Time
}

// Cache is a thread-safe in-memory cache with a default TTL.
type Cache[V any] struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry[V]
	ttl     time.Duration
	now     func() time.Time
}

// NewCache creates a new cache with the given default TTL. A zero TTL
// disables caching: Set becomes a no-op.
func NewCache[V any](ttl time.Duration) *Cache[V] {
	return &Cache[V]{
		entries: make(map[string]cacheEntry[V]),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get retrieves a value. ok is false when the key is absent or expired.
func (c *Cache[V]) Get(key string) (v V, ok bool) {
	c.mu.RLock()
	entry, found := c.entries[key]
	c.mu.RUnlock()
	if !found || c.now().After(entry.expiresAt) {
		return v, false
	}
	return entry.value, true
}

// Set stores a value with the default TTL.
func (c *Cache[V]) Set(key string, value V) {
	c.SetWithTTL(key, value, c.ttl)
}

// SetWithTTL stores a value with a custom TTL.
func (c *Cache[V]) SetWithTTL(key string, value V, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	c.mu.Lock()
	c.entries[key] = cacheEntry[V]{value: value, expiresAt: c.now().Add(ttl)}
	c.mu.Unlock()
}

// Len reports the number of stored entries, expired ones included.
func (c *Cache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Cleanup removes expired entries.
func (c *Cache[V]) Cleanup() {
	c.mu.Lock()
	now := c.now()
	for k, v := range c.entries {
		if now.After(v.expiresAt) {
			delete(c.entries, k)
		}
	}
	c.mu.Unlock()
}

// --- Rate limiter ---

// NewLimiter returns a token bucket allowing rps requests per second with the
// given burst. A non-positive rps disables limiting.
func NewLimiter(rps float64, burst int) *rate.Limiter {
	if rps <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}

// --- Circuit breaker ---

// ErrCircuitOpen is returned by Breaker.Do while the breaker rejects calls.
var ErrCircuitOpen = errors.New("circuit breaker open")

// BreakerConfig configures a Breaker.
type BreakerConfig struct {
	Name string
	// Consecutive failures that open the breaker. Zero disables the breaker.
	MaxFailures uint32
	// How long the breaker stays open before letting a probe through.
	Cooldown time.Duration
	// Benign reports errors that should not count as failures, e.g. a
	// ticker the upstream does not know.
	Benign func(error) bool
}

// Breaker fails fast after repeated upstream failures.
type Breaker struct {
	cb *gobreaker.CircuitBreaker
}

// NewBreaker builds a Breaker. State changes are logged at warn level.
func NewBreaker(cfg BreakerConfig, log zerolog.Logger) *Breaker {
	if cfg.MaxFailures == 0 {
		return &Breaker{}
	}
	st := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: 1,
		Timeout:     cfg.Cooldown,
	}
	failures := cfg.MaxFailures
	st.ReadyToTrip = func(counts gobreaker.Counts) bool { return counts.ConsecutiveFailures >= failures }
	st.IsSuccessful = func(err error) bool {
		return err == nil || (cfg.Benign != nil && cfg.Benign(err))
	}
	st.OnStateChange = func(name string, from, to gobreaker.State) {
		log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
	}
	return &Breaker{cb: gobreaker.NewCircuitBreaker(st)}
}

// Do runs fn through the breaker. Rejections are reported as ErrCircuitOpen.
func (b *Breaker) Do(fn func() error) error {
	if b == nil || b.cb == nil {
		return fn()
	}
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, fn()
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return ErrCircuitOpen
	}
	return err
}

// State reports the breaker state for status output.
func (b *Breaker) State() string {
	if b == nil || b.cb == nil {
		return "disabled"
	}
	return b.cb.State().String()
}
