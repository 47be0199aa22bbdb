package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// JWT environment variables
const (
	EnvJWTSecret          = "JWT_SECRET"
	EnvJWTExpirationHours = "JWT_EXPIRATION_HOURS"
	DefaultJWTIssuer      = "resume-grounder"
	defaultJWTHours       = 24
	minJWTSecretLength    = 16
)

// JWTConfig holds the bearer-token settings for the HTTP surface
type JWTConfig struct {
	Secret     string
	Expiration time.Duration
	Issuer     string
}

// NewJWTConfig reads JWT_SECRET (required) and JWT_EXPIRATION_HOURS (default 24)
func NewJWTConfig() (*JWTConfig, error) {
	return jwtConfigFrom(os.Getenv)
}

func jwtConfigFrom(getenv func(string) string) (*JWTConfig, error) {
	secret := getenv(EnvJWTSecret)
	if secret == "" {
		return nil, fmt.Errorf("%s is required but not set", EnvJWTSecret)
	}
	if len(secret) < minJWTSecretLength {
		return nil, fmt.Errorf("%s must be at least %d characters", EnvJWTSecret, minJWTSecretLength)
	}

	hours := defaultJWTHours
	if raw := getenv(EnvJWTExpirationHours); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvJWTExpirationHours, err)
		}
		hours = parsed
	}
	if hours < 1 {
		return nil, fmt.Errorf("%s must be at least 1 hour, got: %d", EnvJWTExpirationHours, hours)
	}

	return &JWTConfig{
		Secret:     secret,
		Expiration: time.Duration(hours) * time.Hour,
		Issuer:     DefaultJWTIssuer,
	}, nil
}
