// Package backoff provides delay schedules for retry strategies.
package backoff

import (
	"math"
	"time"
)

// Strategy returns the delay before the next attempt. Attempts start at 1.
type Strategy func(attempts uint) time.Duration

// Constant waits interval between every attempt. Status polling uses it.
func Constant(interval time.Duration) Strategy {
	return func(uint) time.Duration {
		return interval
	}
}

// Exponential multiplies baseDelay by factor for every attempt after the
// first, saturating at math.MaxInt64.
//
// Ex. Exponential(time.Second, 3) = 1s, 3s, 9s, 27s, ...
func Exponential(baseDelay time.Duration, factor float64) Strategy {
	return func(attempts uint) time.Duration {
		if attempts <= 1 {
			return baseDelay
		}

		delay := float64(baseDelay) * math.Pow(factor, float64(attempts-1))
		if delay >= math.MaxInt64 || delay < 0 {
			return math.MaxInt64
		}
		return time.Duration(delay)
	}
}

// BinaryExponential doubles the delay on every attempt. RPC retries use it.
//
// Ex. BinaryExponential(time.Second) = 1s, 2s, 4s, 8s, ...
func BinaryExponential(baseDelay time.Duration) Strategy {
	return Exponential(baseDelay, 2)
}
