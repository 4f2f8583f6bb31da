package resultcache

import "time"

// ExpirationPolicy computes the absolute deadline attached to an entry when it
// is inserted. The deadline is never refreshed by reads.
type ExpirationPolicy interface {
	ExpiresAt(now time.Time, duration time.Duration) time.Time
}

// PolicyFunc adapts a function to ExpirationPolicy.
type PolicyFunc func(now time.Time, duration time.Duration) time.Time

func (f PolicyFunc) ExpiresAt(now time.Time, duration time.Duration) time.Time {
	return f(now, duration)
}

// AbsolutePolicy expires an entry exactly duration after it was inserted.
type AbsolutePolicy struct{}

func (AbsolutePolicy) ExpiresAt(now time.Time, duration time.Duration) time.Time {
	return now.Add(duration)
}
