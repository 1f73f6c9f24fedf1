package tsdemux

import "time"

// Decoding DVB's 16-bit Modified Julian Date + 24-bit BCD time fields
// (ETSI EN 300 468 Annex C), used by TDT, TOT and EIT start_time.
//
// The reference implementation this package is descended from converts MJD
// to a Gregorian date with the Annex C floating-point approximation, which
// accumulates off-by-one-day errors near century boundaries because of how
// it truncates intermediate float64 results. This package instead converts
// through the Unix epoch with integer arithmetic, which is both simpler and
// exact for the full MJD range DVB actually uses.

// mjdEpochOffset is the number of days between MJD 0 (1858-11-17) and the
// Unix epoch (1970-01-01).
const mjdEpochOffset = 40587

// mjdToTime converts a Modified Julian Date (days since 1858-11-17) to a
// UTC midnight time.Time.
func mjdToTime(mjd int) time.Time {
	unixDay := int64(mjd) - mjdEpochOffset
	return time.Unix(unixDay*86400, 0).UTC()
}

// bcdDigitsToInt decodes a byte holding two BCD digits (high nibble tens,
// low nibble units). ok is false if either nibble is not a valid decimal
// digit (0-9).
func bcdDigitsToInt(b byte) (v int, ok bool) {
	hi := b >> 4
	lo := b & 0x0f
	if hi > 9 || lo > 9 {
		return 0, false
	}
	return int(hi)*10 + int(lo), true
}

// dvbTime decodes the 5-byte DVB UTC_time field: a 16-bit MJD followed by
// 3 BCD-encoded bytes for hour, minute, second. malformed is true if any of
// the time-of-day bytes fail BCD validation; the MJD portion is still
// applied (at midnight) so callers get a best-effort date.
func dvbTime(b []byte) (t time.Time, malformed bool) {
	mjd := int(b[0])<<8 | int(b[1])
	date := mjdToTime(mjd)

	hour, okH := bcdDigitsToInt(b[2])
	minute, okM := bcdDigitsToInt(b[3])
	second, okS := bcdDigitsToInt(b[4])
	if !okH || !okM || !okS {
		return date, true
	}
	return date.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute + time.Duration(second)*time.Second), false
}

// dvbDuration decodes a 3-byte BCD hour/minute/second duration field, as
// used by EIT's event duration.
func dvbDuration(b []byte) (d time.Duration, malformed bool) {
	hour, okH := bcdDigitsToInt(b[0])
	minute, okM := bcdDigitsToInt(b[1])
	second, okS := bcdDigitsToInt(b[2])
	if !okH || !okM || !okS {
		return 0, true
	}
	return time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute + time.Duration(second)*time.Second, false
}
