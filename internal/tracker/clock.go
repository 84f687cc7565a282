package tracker

import "time"

// SystemClock is the production Clock, backed by the wall clock.
type SystemClock struct{}

// NowMillis returns the current time as Unix milliseconds.
func (SystemClock) NowMillis() int64 {
	return time.Now().UnixMilli()
}
