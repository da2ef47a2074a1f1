package stream

import (
	"math"
	"time"
)

// Config controls the connection lifecycle.
type Config struct {
	URL                  string
	AutoReconnect        bool
	MaxReconnectAttempts int
	ReconnectBaseDelay   time.Duration // delay before the first retry, doubled on each further one
	ReconnectMaxDelay    time.Duration // 0 = uncapped
	PingInterval         time.Duration // 0 = no keep-alive
	EventBuffer          int
}

// DefaultConfig returns production defaults for url.
func DefaultConfig(url string) Config {
	return Config{
		URL:                  url,
		AutoReconnect:        true,
		MaxReconnectAttempts: 5,
		ReconnectBaseDelay:   time.Second,
		PingInterval:         30 * time.Second,
		EventBuffer:          256,
	}
}

func (c Config) normalize() Config {
	if c.MaxReconnectAttempts < 0 {
		c.MaxReconnectAttempts = 0
	}
	if c.ReconnectBaseDelay <= 0 {
		c.ReconnectBaseDelay = time.Second
	}
	if c.EventBuffer <= 0 {
		c.EventBuffer = 256
	}
	return c
}

// backoff returns base × 2^attempt, capped by max when max > 0. Without a cap
// the delay saturates at math.MaxInt64 instead of overflowing.
func backoff(base, max time.Duration, attempt int) time.Duration {
	d := base
	for i := 0; i < attempt; i++ {
		if d > math.MaxInt64/2 {
			d = math.MaxInt64
			break
		}
		d *= 2
		if max > 0 && d >= max {
			return max
		}
	}
	if max > 0 && d > max {
		return max
	}
	return d
}
