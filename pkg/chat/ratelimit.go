package chat

import (
	"sync"
	"time"
)

// DefaultPerMinute and DefaultPerHour are the rate limiter's bracketed
// defaults.
const (
	DefaultPerMinute = 10
	DefaultPerHour   = 100
)

// RateLimiter enforces independent sliding-window ceilings per minute
// and per hour. A submission is allowed only if both windows have room.
type RateLimiter struct {
	perMinute int
	perHour   int

	mu     sync.Mutex
	minute []time.Time
	hour   []time.Time
}

// NewRateLimiter builds a limiter with the given ceilings. A
// non-positive value falls back to the package default.
func NewRateLimiter(perMinute, perHour int) *RateLimiter {
	if perMinute <= 0 {
		perMinute = DefaultPerMinute
	}
	if perHour <= 0 {
		perHour = DefaultPerHour
	}
	return &RateLimiter{perMinute: perMinute, perHour: perHour}
}

// Allow reports whether a submission at now is permitted, recording it
// if so. On rejection it returns the limit that was hit and how long
// the caller should wait before the oldest entry in that window ages
// out.
func (r *RateLimiter) Allow(now time.Time) (ok bool, limit int, waitSecs int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.minute = prune(r.minute, now.Add(-time.Minute))
	r.hour = prune(r.hour, now.Add(-time.Hour))

	if len(r.minute) >= r.perMinute {
		return false, r.perMinute, waitUntil(r.minute[0], time.Minute, now)
	}
	if len(r.hour) >= r.perHour {
		return false, r.perHour, waitUntil(r.hour[0], time.Hour, now)
	}

	r.minute = append(r.minute, now)
	r.hour = append(r.hour, now)
	return true, 0, 0
}

func prune(times []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(times) && times[i].Before(cutoff) {
		i++
	}
	return times[i:]
}

func waitUntil(oldest time.Time, window time.Duration, now time.Time) int {
	wait := oldest.Add(window).Sub(now)
	if wait < 0 {
		wait = 0
	}
	secs := int(wait.Seconds())
	if wait%time.Second != 0 {
		secs++
	}
	return secs
}
