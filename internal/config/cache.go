package config

import (
	"strings"
	"time"
)

// DefaultCacheSkipPrefixes are the routes that always reach the engine.
// Availability is computed per request.  Reservations and reports change
// when the menu client writes to a shared store, which never bumps the
// HTTP cache generation, so only clients and rooms (insert only) are cached.
const DefaultCacheSkipPrefixes = "/v1/availability,/v1/reservations,/v1/reports,/healthz"

// CacheConfig configures the redis response cache of the read endpoints.
// Entries live under Prefix for at most TTL and are keyed by route and
// query.  Responses larger than MaxBodyBytes are served but not stored.
type CacheConfig struct {
	Enabled      bool
	Methods      map[string]bool // upper-cased methods whose responses are cached
	TTL          time.Duration
	KeyStrategy  string // route_query or route
	Prefix       string
	MaxBodyBytes int
	SkipPrefixes []string
}

// LoadCacheConfig reads CACHE_* variables.
func LoadCacheConfig() CacheConfig {
	return CacheConfig{
		Enabled:      envBool("CACHE_ENABLED", true),
		Methods:      parseMethods(envStr("CACHE_METHODS", "GET")),
		TTL:          envDur("CACHE_TTL", 30*time.Second),
		KeyStrategy:  envStr("CACHE_KEY_STRATEGY", "route_query"),
		Prefix:       envStr("CACHE_PREFIX", "coworking:cache"),
		MaxBodyBytes: envInt("CACHE_MAX_BODY_BYTES", 1<<20),
		SkipPrefixes: parseList(envStr("CACHE_SKIP_PREFIXES", DefaultCacheSkipPrefixes)),
	}
}

// Skips reports whether path must bypass the cache.
func (c CacheConfig) Skips(path string) bool {
	for _, p := range c.SkipPrefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

func parseMethods(s string) map[string]bool {
	m := map[string]bool{}
	for _, p := range parseList(s) {
		m[strings.ToUpper(p)] = true
	}
	return m
}

func parseList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
