package tsdemux

import "time"

// TOTData is the decoded Time Offset Table: the same UTC timestamp as TDT,
// plus local-time-offset descriptors and a trailing CRC_32. Like TDT it is
// short form (no syntax section). This table is not in the original distillation's scope but costs
// little to add once TDT and the descriptor loop exist.
type TOTData struct {
	UTCTime     time.Time
	Malformed   bool
	Descriptors []Descriptor
	DescriptorOverflow bool
}

// parseTOT decodes a TOT section body: utc_time:40 (MJD+BCD), reserved:4,
// descriptors_loop_length:12, descriptors. TOT has no table_id_extension
// or section_number fields, yet its CRC_32 is appended directly after the
// descriptors. cutSection treats it like any short-form section, so body
// is everything after the 3-byte header and still ends with those 4 CRC
// bytes; they lie past the descriptor loop and are ignored here, and the
// CRC is not checked.
func parseTOT(body []byte) *TOTData {
	if len(body) < 5 {
		return &TOTData{Malformed: true}
	}
	t, malformed := dvbTime(body[0:5])
	d := &TOTData{UTCTime: t, Malformed: malformed}
	if len(body) < 7 {
		return d
	}
	loopLength := int(body[5]&0x0f)<<8 | int(body[6])
	descs, overflow := parseDescriptors(body[7:], loopLength)
	d.Descriptors = descs
	d.DescriptorOverflow = overflow
	return d
}
