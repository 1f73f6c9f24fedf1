package tsdemux

import "time"

// pcrTickHz is the 27 MHz clock PCR/OPCR/ESCR values are expressed in.
const pcrTickHz = 27_000_000

// ClockReference is a 27 MHz clock sample: PCR, OPCR, or ESCR.
// value = base*300 + extension, wrapping at 2^33*300.
type ClockReference struct {
	base      int64 // 33 bits
	extension int64 // 9 bits
}

// newClockReference builds a ClockReference from its base and extension.
func newClockReference(base, extension int) ClockReference {
	return ClockReference{base: int64(base), extension: int64(extension)}
}

// Value returns base*300 + extension, in 27 MHz ticks.
func (c ClockReference) Value() int64 {
	return c.base*300 + c.extension
}

// Duration returns the clock reference expressed as a time.Duration since
// an arbitrary epoch of 0.
func (c ClockReference) Duration() time.Duration {
	return time.Duration(c.Value() * 1000 / (pcrTickHz / 1_000_000))
}

// Time interprets the clock reference as a Unix timestamp relative to the
// epoch. Useful mainly for comparing two references from the same stream.
func (c ClockReference) Time() time.Time {
	return time.Unix(0, int64(c.Duration())).UTC()
}
