// Package timex wraps the wall clock used for bus timestamps.
package timex

import "time"

// NowMs returns Unix milliseconds.
func NowMs() int64 { return time.Now().UnixMilli() }

// Ms converts a millisecond count to a Duration.
func Ms[T ~int | ~int32 | ~int64 | ~uint16 | ~uint32](n T) time.Duration {
	return time.Duration(n) * time.Millisecond
}
