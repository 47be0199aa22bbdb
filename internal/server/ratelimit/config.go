package ratelimit

import (
	"strings"
	"time"
)

// EndpointConfig overrides the default limit for one method and path.
// A Path ending in "/" matches by prefix.
type EndpointConfig struct {
	Path   string
	Method string
	Limit  int // requests per Window; zero or less is unlimited
	Window time.Duration
	Burst  int // defaults to Limit
}

// Config holds rate limiting configuration
type Config struct {
	Enabled         bool
	DefaultLimit    int
	DefaultWindow   time.Duration
	CleanupInterval time.Duration
	IdleTTL         time.Duration
	EndpointConfigs []EndpointConfig
}

// NewConfig returns the limits for the grounder API: perMinute requests per
// client on read endpoints and a tighter budget on the model-backed tailor
// endpoint. The health check is never limited.
func NewConfig(perMinute int) *Config {
	if perMinute <= 0 {
		return &Config{Enabled: false}
	}
	tailorLimit := max(1, perMinute/6)
	return &Config{
		Enabled:         true,
		DefaultLimit:    perMinute,
		DefaultWindow:   time.Minute,
		CleanupInterval: 5 * time.Minute,
		IdleTTL:         time.Hour,
		EndpointConfigs: []EndpointConfig{
			{Path: "/health", Method: "GET", Limit: 0},
			{Path: "/v1/drafts/", Method: "GET", Limit: perMinute, Window: time.Minute},
			{Path: "/v1/tailor", Method: "POST", Limit: tailorLimit, Window: time.Minute, Burst: min(2, tailorLimit)},
		},
	}
}

// MatchEndpoint returns the endpoint override for a request, or nil.
// Exact matches win over prefix matches.
func MatchEndpoint(path, method string, configs []EndpointConfig) *EndpointConfig {
	for i := range configs {
		if configs[i].Path == path && configs[i].Method == method {
			return &configs[i]
		}
	}
	for i := range configs {
		c := &configs[i]
		if c.Method == method && strings.HasSuffix(c.Path, "/") && strings.HasPrefix(path, c.Path) {
			return c
		}
	}
	return nil
}
