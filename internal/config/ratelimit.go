package config

import "time"

// RateLimitConfig configures the Redis token bucket applied to the /v1 API.
// The default key strategy buckets per client IP, user and route so that a
// client hammering the weather endpoints does not starve its own capture
// writes.
type RateLimitConfig struct {
    Enabled        bool
    Capacity       int
    RefillTokens   int
    RefillInterval time.Duration
    TTL            time.Duration
    KeyStrategy    string
    Prefix         string
    Debug          bool

    // AuthCapacity and AuthRefillInterval size the stricter bucket stacked
    // on /v1/auth, where every request costs a bcrypt comparison or an
    // outgoing email.
    AuthCapacity       int
    AuthRefillInterval time.Duration
}

// LoadRateLimitConfig reads RATE_LIMIT_* variables.  RATE_LIMIT_BURST and
// RATE_LIMIT_REFILL_EVERY are shorthands that override capacity and refill.
func LoadRateLimitConfig() RateLimitConfig {
    cfg := RateLimitConfig{
        Enabled:            envBool("RATE_LIMIT_ENABLED", true),
        Capacity:           envInt("RATE_LIMIT_CAPACITY", 30),
        RefillTokens:       envInt("RATE_LIMIT_REFILL_TOKENS", 1),
        RefillInterval:     envDur("RATE_LIMIT_REFILL_INTERVAL", time.Second),
        TTL:                envDur("RATE_LIMIT_TTL", 10*time.Minute),
        KeyStrategy:        envStr("RATE_LIMIT_KEY_STRATEGY", "ip_user_route"),
        Prefix:             envStr("RATE_LIMIT_PREFIX", "fishtrack:rl"),
        Debug:              envBool("RATE_LIMIT_DEBUG", false),
        AuthCapacity:       envInt("RATE_LIMIT_AUTH_CAPACITY", 5),
        AuthRefillInterval: envDur("RATE_LIMIT_AUTH_REFILL_INTERVAL", 12*time.Second),
    }
    if b := envInt("RATE_LIMIT_BURST", -1); b > 0 {
        cfg.Capacity = b
    }
    if every := envDur("RATE_LIMIT_REFILL_EVERY", 0); every > 0 {
        cfg.RefillTokens = 1
        cfg.RefillInterval = every
    }
    cfg.Capacity = max(cfg.Capacity, 1)
    cfg.RefillTokens = max(cfg.RefillTokens, 1)
    cfg.AuthCapacity = max(cfg.AuthCapacity, 1)
    if cfg.RefillInterval <= 0 {
        cfg.RefillInterval = time.Second
    }
    if cfg.AuthRefillInterval <= 0 {
        cfg.AuthRefillInterval = cfg.RefillInterval
    }
    cfg.TTL = max(cfg.TTL, 5*cfg.RefillInterval, 5*cfg.AuthRefillInterval)
    return cfg
}

// ForAuth derives the config of the /v1/auth bucket.  It keys on client IP
// and route only, since those requests carry no session, and uses its own
// key prefix so the two buckets never share state.
func (c RateLimitConfig) ForAuth() RateLimitConfig {
    c.Capacity = c.AuthCapacity
    c.RefillTokens = 1
    c.RefillInterval = c.AuthRefillInterval
    c.KeyStrategy = "ip_route"
    c.Prefix += ":auth"
    return c
}
