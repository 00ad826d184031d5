package resilience

import (
	"errors"
	"time"
)

// RetryPolicy bounds the retry loop for a single call.
type RetryPolicy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Multiplier     float64
}

// BreakerPolicy controls the per-operation circuit breaker.
type BreakerPolicy struct {
	Enabled          bool
	MinRequests      uint32
	FailureRatio     float64
	OpenTimeout      time.Duration
	HalfOpenMaxCalls uint32
}

type Config struct {
	Retry   RetryPolicy
	Breaker BreakerPolicy

	// DoNotRetry short-circuits the per-call classifier: errors it
	// matches fail immediately and the breaker does not count them.
	DoNotRetry func(error) bool
}

// QuotaSignal marks an error as a deliberate quota or rate-limit
// rejection by the remote side. Such failures are excluded from retries
// and breaker accounting no matter what the per-call classifier says:
// the pipeline has its own quota fallback, and more attempts only
// extend the penalty window.
type QuotaSignal interface {
	QuotaExceeded() bool
}

func quotaSignaled(err error) bool {
	var q QuotaSignal
	return errors.As(err, &q) && q.QuotaExceeded()
}

// DefaultConfig is tuned for calls made inside a user-facing request.
// The budget is one extra attempt and at most 250ms of waiting: a chat
// stream is already open, so a slow dependency should fail fast and
// let the pipeline serve its stored-answer fallback. The breaker trips
// on low volume (this service sees requests, not batch jobs) and
// half-opens with a single probe call.
func DefaultConfig() Config {
	return Config{
		Retry: RetryPolicy{
			MaxAttempts:    2,
			InitialBackoff: 150 * time.Millisecond,
			MaxBackoff:     250 * time.Millisecond,
			Multiplier:     2.0,
		},
		Breaker: BreakerPolicy{
			Enabled:          true,
			MinRequests:      5,
			FailureRatio:     0.6,
			OpenTimeout:      15 * time.Second,
			HalfOpenMaxCalls: 1,
		},
		DoNotRetry: quotaSignaled,
	}
}

func (c Config) normalize() Config {
	out := c
	def := DefaultConfig()

	if out.Retry.MaxAttempts <= 0 {
		out.Retry.MaxAttempts = def.Retry.MaxAttempts
	}
	if out.Retry.InitialBackoff <= 0 {
		out.Retry.InitialBackoff = def.Retry.InitialBackoff
	}
	if out.Retry.MaxBackoff <= 0 {
		out.Retry.MaxBackoff = def.Retry.MaxBackoff
	}
	if out.Retry.MaxBackoff < out.Retry.InitialBackoff {
		out.Retry.MaxBackoff = out.Retry.InitialBackoff
	}
	if out.Retry.Multiplier < 1.0 {
		out.Retry.Multiplier = def.Retry.Multiplier
	}

	if out.Breaker.MinRequests == 0 {
		out.Breaker.MinRequests = def.Breaker.MinRequests
	}
	if out.Breaker.FailureRatio <= 0 || out.Breaker.FailureRatio > 1 {
		out.Breaker.FailureRatio = def.Breaker.FailureRatio
	}
	if out.Breaker.OpenTimeout <= 0 {
		out.Breaker.OpenTimeout = def.Breaker.OpenTimeout
	}
	if out.Breaker.HalfOpenMaxCalls == 0 {
		out.Breaker.HalfOpenMaxCalls = def.Breaker.HalfOpenMaxCalls
	}

	if out.DoNotRetry == nil {
		out.DoNotRetry = quotaSignaled
	}

	return out
}
