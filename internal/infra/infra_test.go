package infra

import (
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheExpiry(t *testing.T) {
	c := NewCache[int](time.Minute)
	now := time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Set("a", 1)
	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	now = now.Add(2 * time.Minute)
	_, ok = c.Get("a")
	assert.False(t, ok)

	c.Cleanup()
	assert.Zero(t, c.Len())
}

func TestCacheZeroTTLDisables(t *testing.T) {
	c := NewCache[string](0)
	c.Set("k", "v")
	_, ok := c.Get("k")
	assert.False(t, ok)
}

func TestNewLimiter(t *testing.T) {
	l := NewLimiter(0, 0)
	for i := 0; i < 100; i++ {
		assert.True(t, l.Allow())
	}

	l = NewLimiter(1, 2)
	assert.True(t, l.Allow())
	assert.True(t, l.Allow())
	assert.False(t, l.Allow())
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	boom := errors.New("boom")
	b := NewBreaker(BreakerConfig{Name: "test", MaxFailures: 2, Cooldown: time.Hour}, zerolog.Nop())

	assert.ErrorIs(t, b.Do(func() error { return boom }), boom)
	assert.ErrorIs(t, b.Do(func() error { return boom }), boom)

	called := false
	err := b.Do(func() error { called = true; return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)
	assert.Equal(t, "open", b.State())
}

func TestBreakerIgnoresBenignErrors(t *testing.T) {
	notFound := errors.New("not found")
	b := NewBreaker(BreakerConfig{
		Name:        "test",
		MaxFailures: 1,
		Cooldown:    time.Hour,
		Benign:      func(err error) bool { return errors.Is(err, notFound) },
	}, zerolog.Nop())

	for i := 0; i < 3; i++ {
		assert.ErrorIs(t, b.Do(func() error { return notFound }), notFound)
	}
	assert.Equal(t, "closed", b.State())
}

func TestBreakerDisabled(t *testing.T) {
	b := NewBreaker(BreakerConfig{}, zerolog.Nop())
	boom := errors.New("boom")
	for i := 0; i < 5; i++ {
		assert.ErrorIs(t, b.Do(func() error { return boom }), boom)
	}
	assert.Equal(t, "disabled", b.State())
}
