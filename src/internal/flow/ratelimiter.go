// FILE: logship/src/internal/flow/ratelimiter.go
package flow

import (
	"strings"
	"sync/atomic"

	"logship/src/internal/config"

	"github.com/lixenwraith/log"
	"golang.org/x/time/rate"
)

// RateLimiter guards the producer write path. Rejected entries are dropped
// without telling the producer, like capacity drops.
type RateLimiter struct {
	limiter *rate.Limiter
	policy  config.RateLimitPolicy
	logger  *log.Logger

	// Statistics
	maxEntrySizeBytes  int64
	droppedBySizeCount atomic.Uint64
	droppedCount       atomic.Uint64
}

// NewRateLimiter creates a producer-side rate limiter from configuration.
// Returns nil when neither a rate nor a size limit is configured.
func NewRateLimiter(cfg config.RateLimitConfig, logger *log.Logger) *RateLimiter {
	var policy config.RateLimitPolicy
	switch strings.ToLower(cfg.Policy) {
	case "drop":
		policy = config.PolicyDrop
	default:
		policy = config.PolicyPass
	}

	if policy == config.PolicyPass || (cfg.Rate <= 0 && cfg.MaxEntrySizeBytes <= 0) {
		return nil
	}

	l := &RateLimiter{
		policy:            policy,
		logger:            logger,
		maxEntrySizeBytes: cfg.MaxEntrySizeBytes,
	}

	if cfg.Rate > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = cfg.Rate // Default burst to rate
		}
		if burst < 1 {
			burst = 1
		}
		l.limiter = rate.NewLimiter(rate.Limit(cfg.Rate), int(burst))
	}

	logger.Info("msg", "Rate limiter enabled",
		"component", "rate_limiter",
		"rate", cfg.Rate,
		"burst", cfg.Burst,
		"max_entry_size_bytes", cfg.MaxEntrySizeBytes)

	return l
}

// Allow reports whether an entry of the given serialized size may be queued.
func (l *RateLimiter) Allow(size int64) bool {
	if l == nil || l.policy == config.PolicyPass {
		return true
	}

	// Check size limit first
	if l.maxEntrySizeBytes > 0 && size > l.maxEntrySizeBytes {
		l.droppedBySizeCount.Add(1)
		return false
	}

	if l.limiter != nil && !l.limiter.Allow() {
		l.droppedCount.Add(1)
		return false
	}

	return true
}

// GetStats returns statistics for the rate limiter.
func (l *RateLimiter) GetStats() map[string]any {
	if l == nil {
		return map[string]any{
			"enabled": false,
		}
	}

	stats := map[string]any{
		"enabled":               true,
		"dropped_total":         l.droppedCount.Load(),
		"dropped_by_size_total": l.droppedBySizeCount.Load(),
		"policy":                policyString(l.policy),
		"max_entry_size_bytes":  l.maxEntrySizeBytes,
	}

	if l.limiter != nil {
		stats["tokens"] = l.limiter.Tokens()
	}

	return stats
}

// policyString returns the string representation of a rate limit policy.
func policyString(p config.RateLimitPolicy) string {
	switch p {
	case config.PolicyDrop:
		return "drop"
	case config.PolicyPass:
		return "pass"
	default:
		return "unknown"
	}
}
