package engine

import "time"

// Clock supplies the wall time stamped on records and audit entries.
// Ordering never depends on it; the audit log is ordered by seq.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the real time in UTC.
type SystemClock struct{}

// Now returns the current UTC time.
func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}
