package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(l *Limiter, at time.Time) *time.Time {
	now := at
	l.now = func() time.Time { return now }
	return &now
}

func TestLimiter_AllowUpToBurst(t *testing.T) {
	limiter := NewLimiter(&Config{Enabled: true, DefaultLimit: 3, DefaultWindow: time.Minute})
	defer limiter.Stop()
	fixedClock(limiter, time.Unix(1_700_000_000, 0))

	for i := range 3 {
		allowed, info := limiter.Allow("10.0.0.1", "/v1/budget", "GET")
		require.True(t, allowed, "request %d", i+1)
		assert.Equal(t, 3, info.Limit)
		assert.Equal(t, 2-i, info.Remaining)
	}

	allowed, info := limiter.Allow("10.0.0.1", "/v1/budget", "GET")
	assert.False(t, allowed)
	assert.Equal(t, 0, info.Remaining)
	assert.InDelta(t, float64(20*time.Second), float64(info.RetryAfter), float64(time.Millisecond))
}

func TestLimiter_Refill(t *testing.T) {
	limiter := NewLimiter(&Config{Enabled: true, DefaultLimit: 2, DefaultWindow: time.Minute})
	defer limiter.Stop()
	now := fixedClock(limiter, time.Unix(1_700_000_000, 0))

	limiter.Allow("c", "/x", "GET")
	limiter.Allow("c", "/x", "GET")
	allowed, _ := limiter.Allow("c", "/x", "GET")
	require.False(t, allowed)

	*now = now.Add(30 * time.Second)
	allowed, _ = limiter.Allow("c", "/x", "GET")
	assert.True(t, allowed)
}

func TestLimiter_ClientsAreIndependent(t *testing.T) {
	limiter := NewLimiter(&Config{Enabled: true, DefaultLimit: 1, DefaultWindow: time.Minute})
	defer limiter.Stop()
	fixedClock(limiter, time.Unix(1_700_000_000, 0))

	allowed, _ := limiter.Allow("a", "/x", "GET")
	assert.True(t, allowed)
	allowed, _ = limiter.Allow("a", "/x", "GET")
	assert.False(t, allowed)
	allowed, _ = limiter.Allow("b", "/x", "GET")
	assert.True(t, allowed)
}

func TestLimiter_Disabled(t *testing.T) {
	limiter := NewLimiter(NewConfig(0))
	defer limiter.Stop()

	for range 100 {
		allowed, _ := limiter.Allow("c", "/v1/tailor", "POST")
		require.True(t, allowed)
	}
}

func TestNewConfig_Endpoints(t *testing.T) {
	cfg := NewConfig(60)
	limiter := NewLimiter(cfg)
	defer limiter.Stop()
	fixedClock(limiter, time.Unix(1_700_000_000, 0))

	for range 10 {
		allowed, _ := limiter.Allow("c", "/health", "GET")
		require.True(t, allowed)
	}

	_, info := limiter.Allow("c", "/v1/tailor", "POST")
	assert.Equal(t, 10, info.Limit)
	allowed, _ := limiter.Allow("c", "/v1/tailor", "POST")
	assert.True(t, allowed)
	allowed, _ = limiter.Allow("c", "/v1/tailor", "POST")
	assert.False(t, allowed, "tailor burst is two requests")
}

func TestLimiter_BucketPerEndpointPattern(t *testing.T) {
	limiter := NewLimiter(&Config{
		Enabled:       true,
		DefaultLimit:  2,
		DefaultWindow: time.Minute,
		EndpointConfigs: []EndpointConfig{
			{Path: "/v1/drafts/", Method: "GET", Limit: 2, Window: time.Minute},
		},
	})
	defer limiter.Stop()
	fixedClock(limiter, time.Unix(1_700_000_000, 0))

	tests := []struct {
		name  string
		paths []string
	}{
		{"draft ids share the prefix bucket", []string{"/v1/drafts/a", "/v1/drafts/b", "/v1/drafts/c"}},
		{"unmatched paths share the default bucket", []string{"/v1/budget", "/v1/other", "/v1/missing"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for i, path := range tt.paths[:2] {
				allowed, _ := limiter.Allow("10.0.0.1", path, "GET")
				require.True(t, allowed, "request %d", i+1)
			}
			allowed, info := limiter.Allow("10.0.0.1", tt.paths[2], "GET")
			assert.False(t, allowed)
			assert.Equal(t, 0, info.Remaining)
		})
	}
	assert.Len(t, limiter.buckets, 2)
}

func TestMatchEndpoint(t *testing.T) {
	configs := []EndpointConfig{
		{Path: "/v1/drafts/", Method: "GET", Limit: 5},
		{Path: "/v1/tailor", Method: "POST", Limit: 1},
	}

	assert.Equal(t, 1, MatchEndpoint("/v1/tailor", "POST", configs).Limit)
	assert.Equal(t, 5, MatchEndpoint("/v1/drafts/123", "GET", configs).Limit)
	assert.Nil(t, MatchEndpoint("/v1/tailor", "GET", configs))
	assert.Nil(t, MatchEndpoint("/v1/budget", "GET", configs))
}

func TestLimiter_CleanupDropsIdleBuckets(t *testing.T) {
	limiter := NewLimiter(&Config{Enabled: true, DefaultLimit: 1, DefaultWindow: time.Minute, IdleTTL: time.Minute})
	defer limiter.Stop()
	now := fixedClock(limiter, time.Unix(1_700_000_000, 0))

	limiter.Allow("c", "/x", "GET")
	require.Len(t, limiter.buckets, 1)

	limiter.cleanup(now.Add(2 * time.Minute))
	assert.Empty(t, limiter.buckets)
}
