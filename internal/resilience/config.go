package resilience

import (
	"time"
)

// PolicyFromConfig builds a retry Policy from configuration values,
// keeping defaults for anything left zero.
func PolicyFromConfig(maxAttempts int, baseDelay time.Duration, multiplier, jitter float64) Policy {
	p := DefaultPolicy()
	if maxAttempts > 0 {
		p.MaxAttempts = maxAttempts
	}
	if baseDelay > 0 {
		p.BaseDelay = baseDelay
	}
	if multiplier > 0 {
		p.Multiplier = multiplier
	}
	if jitter > 0 {
		p.Jitter = jitter
	}
	return p
}

// BreakerFromConfig builds a BreakerConfig from configuration values,
// keeping defaults for anything left zero.
func BreakerFromConfig(failureLimit int, cooldown time.Duration) BreakerConfig {
	cfg := DefaultBreakerConfig()
	if failureLimit > 0 {
		cfg.FailureLimit = failureLimit
	}
	if cooldown > 0 {
		cfg.Cooldown = cooldown
	}
	return cfg
}
