package chat

import "time"

// ReconnectPolicy bounds automatic session recovery after unexpected closes.
type ReconnectPolicy struct {
	// MaxAttempts caps consecutive recoveries. Zero means unlimited.
	MaxAttempts int
	// InitialBackoff is the delay before the second attempt. The first
	// attempt starts immediately.
	InitialBackoff time.Duration
	// MaxBackoff caps the exponential delay.
	MaxBackoff time.Duration
}

// DefaultReconnectPolicy returns the policy used when none is configured.
func DefaultReconnectPolicy() ReconnectPolicy {
	return ReconnectPolicy{
		MaxAttempts:    5,
		InitialBackoff: 1 * time.Second,
		MaxBackoff:     30 * time.Second,
	}
}

// Exhausted reports whether attempt (1-based) exceeds the cap.
func (p ReconnectPolicy) Exhausted(attempt int) bool {
	return p.MaxAttempts > 0 && attempt > p.MaxAttempts
}

// Backoff returns the delay to wait before attempt (1-based).
func (p ReconnectPolicy) Backoff(attempt int) time.Duration {
	if attempt <= 1 || p.InitialBackoff <= 0 {
		return 0
	}

	delay := p.InitialBackoff
	for i := 2; i < attempt; i++ {
		delay *= 2
		if p.MaxBackoff > 0 && delay >= p.MaxBackoff {
			return p.MaxBackoff
		}
	}
	if p.MaxBackoff > 0 && delay > p.MaxBackoff {
		return p.MaxBackoff
	}
	return delay
}
