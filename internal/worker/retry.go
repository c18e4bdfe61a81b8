package worker

import (
	"math"
	"time"
)

// RetryPolicy controls how failed spreadsheet writes are rescheduled.
// Zero fields take the defaults of DefaultRetryPolicy.
type RetryPolicy struct {
	MaxRetries    int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

// DefaultRetryPolicy gives a task about a minute and a half of retries
// before it lands in the dead-letter list.
var DefaultRetryPolicy = RetryPolicy{
	MaxRetries:    5,
	InitialDelay:  2 * time.Second,
	MaxDelay:      time.Minute,
	BackoffFactor: 2,
}

func (r RetryPolicy) withDefaults() RetryPolicy {
	if r.MaxRetries == 0 {
		r.MaxRetries = DefaultRetryPolicy.MaxRetries
	}
	if r.InitialDelay == 0 {
		r.InitialDelay = DefaultRetryPolicy.InitialDelay
	}
	if r.MaxDelay == 0 {
		r.MaxDelay = DefaultRetryPolicy.MaxDelay
	}
	if r.BackoffFactor == 0 {
		r.BackoffFactor = DefaultRetryPolicy.BackoffFactor
	}
	return r
}

// Exhausted reports whether attempt (1-based) is the last one allowed.
func (r RetryPolicy) Exhausted(attempt int) bool {
	return attempt >= r.MaxRetries
}

// NextDelay is the wait before attempt (1-based), growing by BackoffFactor
// and capped at MaxDelay.
func (r RetryPolicy) NextDelay(attempt int) time.Duration {
	attempt = max(attempt, 1)
	if r.InitialDelay <= 0 {
		r.InitialDelay = time.Second
	}
	if r.BackoffFactor <= 0 {
		r.BackoffFactor = 2
	}

	d := time.Duration(float64(r.InitialDelay) * math.Pow(r.BackoffFactor, float64(attempt-1)))
	if r.MaxDelay > 0 && d > r.MaxDelay {
		d = r.MaxDelay
	}
	if d <= 0 {
		return time.Second
	}
	return d
}
