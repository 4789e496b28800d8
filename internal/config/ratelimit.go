package config

import (
	"strconv"
	"time"
)

// RateLimitConfig controls the fixed-window limiter applied to the auth
// endpoints. When Enabled is false or no Redis client is available the
// limiter is a no-op.
type RateLimitConfig struct {
	Enabled bool
	Limit   int           // requests allowed per window
	Window  time.Duration // window length
	Prefix  string        // key namespace in Redis
}

// LoadRateLimitConfig reads environment variables to build a RateLimitConfig.
// Defaults allow 20 auth attempts per minute per client.
func LoadRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Enabled: getenv("RATELIMIT_ENABLED", "true") == "true",
		Limit:   atoi(getenv("RATELIMIT_LIMIT", "20")),
		Window:  parseDur(getenv("RATELIMIT_WINDOW", "1m")),
		Prefix:  getenv("RATELIMIT_PREFIX", "ratelimit"),
	}
}

func atoi(s string) int {
	i, _ := strconv.Atoi(s)
	return i
}

func parseDur(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return time.Minute
	}
	return d
}
