package tsdemux

// parsePTSOrDTS decodes a 5-byte 90 kHz PTS/DTS/splice-DTS field:
// prefix:4, ts[32:30]:3, marker:1, ts[29:15]:15, marker:1, ts[14:0]:15, marker:1.
// The marker bits are not validated; callers that care can check b[0]&0x1,
// b[2]&0x1, b[4]&0x1 are all set.
func parsePTSOrDTS(b []byte) ClockReference {
	v := uint64(b[0]&0x0e)<<29 |
		uint64(b[1])<<22 |
		uint64(b[2]&0xfe)<<14 |
		uint64(b[3])<<7 |
		uint64(b[4]&0xfe)>>1
	return newClockReference(int(v), 0)
}

// parseESCR decodes the 6-byte ESCR field: reserved:2, base[32:30]:3,
// marker:1, base[29:15]:15, marker:1, base[14:0]:15, marker:1, extension:9,
// marker:1.
func parseESCR(b []byte) ClockReference {
	v := uint64(b[0]&0x38)<<27 |
		uint64(b[0]&0x03)<<28 |
		uint64(b[1])<<20 |
		uint64(b[2]&0xf8)<<12 |
		uint64(b[2]&0x03)<<13 |
		uint64(b[3])<<5 |
		uint64(b[4]&0xf8)>>3
	ext := uint64(b[4]&0x03)<<7 | uint64(b[5])>>1
	return newClockReference(int(v), int(ext))
}
