package kv

import "time"

// Clock supplies the instant used for every expiry check and TTL
// computation. The store only compares instants and adds durations to them.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }
