package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// CacheConfig defines settings for the per-user response cache.  When
// Enabled is false or no Redis client is configured, caching is disabled.
// TTL bounds how long an entry lives even without invalidation.
type CacheConfig struct {
	Enabled      bool
	TTL          time.Duration
	Prefix       string
	MaxBodyBytes int
}

func setCacheDefaults(v *viper.Viper) {
	v.SetDefault("CACHE_ENABLED", true)
	v.SetDefault("CACHE_TTL", 30*time.Second)
	v.SetDefault("CACHE_PREFIX", "cache")
	v.SetDefault("CACHE_MAX_BODY_BYTES", 1<<20)
}

func loadCacheConfig(v *viper.Viper) CacheConfig {
	c := CacheConfig{
		Enabled:      v.GetBool("CACHE_ENABLED"),
		TTL:          v.GetDuration("CACHE_TTL"),
		Prefix:       strings.TrimSpace(v.GetString("CACHE_PREFIX")),
		MaxBodyBytes: v.GetInt("CACHE_MAX_BODY_BYTES"),
	}
	if c.TTL <= 0 {
		c.TTL = time.Second
	}
	if c.Prefix == "" {
		c.Prefix = "cache"
	}
	return c
}
