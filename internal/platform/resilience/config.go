package resilience

import "time"

// CircuitBreakerConfig carries breaker tuning from the config layer.
// Zero or negative values fall back to the defaults via
// NormalizeCircuitBreakerConfig.
type CircuitBreakerConfig struct {
	Enabled          bool
	FailureThreshold int
	OpenTimeout      time.Duration
	HalfOpenMaxReq   int
}

const (
	defaultFailureThreshold = 5
	defaultOpenTimeout      = 15 * time.Second
	defaultHalfOpenMaxReq   = 2
)

func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Enabled:          true,
		FailureThreshold: defaultFailureThreshold,
		OpenTimeout:      defaultOpenTimeout,
		HalfOpenMaxReq:   defaultHalfOpenMaxReq,
	}
}

func NormalizeCircuitBreakerConfig(cfg CircuitBreakerConfig) CircuitBreakerConfig {
	if cfg.FailureThreshold < 1 {
		cfg.FailureThreshold = defaultFailureThreshold
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = defaultOpenTimeout
	}
	if cfg.HalfOpenMaxReq < 1 {
		cfg.HalfOpenMaxReq = defaultHalfOpenMaxReq
	}
	return cfg
}
