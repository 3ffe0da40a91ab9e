package vmix

import "time"

// Clock is the generator's time source. Passed explicitly at construction
// instead of referenced as a package-level global, so tests can drive
// delivery timestamps deterministically.
type Clock interface {
	Now() time.Time
}

// systemClock is the default Clock, backed by the real wall clock.
type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// NewSystemClock returns the real wall-clock Clock.
func NewSystemClock() Clock { return systemClock{} }

// RTPTimestamp converts a clock reading to the 90kHz RTP video clock used
// for delivered-frame timestamps.
func RTPTimestamp(t time.Time) uint64 {
	return uint64(t.UnixMilli()) * 90
}
