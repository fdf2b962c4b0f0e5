package config

import (
    "strings"
    "time"
)

// CacheConfig defines settings for the response cache middleware that sits
// in front of the weather endpoints.  Weather data for a coordinate changes
// slowly, so identical lookups within TTL are served from Redis instead of
// spending upstream API quota.  When Enabled is false or no Redis client is
// configured, caching is disabled.  KeyStrategy determines which parts of
// the request contribute to the cache key.
type CacheConfig struct {
    Enabled      bool
    Methods      map[string]bool
    TTL          time.Duration
    KeyStrategy  string
    Prefix       string
    MaxBodyBytes int
    // CoordDecimals rounds lat/lon query parameters before they enter the
    // key, so lookups a few meters apart share one entry.  Negative keeps
    // the raw values.
    CoordDecimals int
}

// LoadCacheConfig reads environment variables to build a CacheConfig.  Defaults
// are used when variables are not set.  All methods are upper-cased.
func LoadCacheConfig() CacheConfig {
    return CacheConfig{
        Enabled:       envBool("CACHE_ENABLED", true),
        Methods:       parseMethods(envStr("CACHE_METHODS", "GET")),
        TTL:           envDur("CACHE_TTL", 10*time.Minute),
        KeyStrategy:   envStr("CACHE_KEY_STRATEGY", "route_query"),
        Prefix:        envStr("CACHE_PREFIX", "fishtrack:cache"),
        MaxBodyBytes:  envInt("CACHE_MAX_BODY_BYTES", 256<<10),
        CoordDecimals: envInt("CACHE_COORD_DECIMALS", 2),
    }
}

// parseMethods turns "get, head" into {"GET": true, "HEAD": true}.
func parseMethods(s string) map[string]bool {
    m := map[string]bool{}
    for _, p := range strings.Split(s, ",") {
        p = strings.TrimSpace(strings.ToUpper(p))
        if p != "" {
            m[p] = true
        }
    }
    return m
}
