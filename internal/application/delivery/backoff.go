package delivery

import (
	"math"
	"time"
)

// ExponentialBackoff computes the delay before the next attempt.
// Attempt starts at 1 for the delay after the first failure.
// Formula: min(InitialInterval * (Multiplier ^ (attempt-1)), MaxInterval).
type ExponentialBackoff struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
}

// defaultBackoff yields 2s, 4s, 8s — the waits between the three push attempts.
var defaultBackoff = ExponentialBackoff{
	InitialInterval: 2 * time.Second,
	MaxInterval:     30 * time.Second,
	Multiplier:      2,
}

// NextInterval returns the wait after the given failed attempt number.
func (e ExponentialBackoff) NextInterval(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	initial := e.InitialInterval
	if initial == 0 {
		initial = time.Second
	}
	max := e.MaxInterval
	if max == 0 {
		max = 30 * time.Second
	}
	multiplier := e.Multiplier
	if multiplier == 0 {
		multiplier = 2
	}
	interval := float64(initial) * math.Pow(multiplier, float64(attempt-1))
	if interval > float64(max) {
		interval = float64(max)
	}
	return time.Duration(interval)
}
