package tsdemux

import "time"

// TDTData is the decoded Time and Date Table: a single UTC timestamp
// broadcast periodically so receivers can set their clocks. TDT is short
// form (no section_syntax_indicator, no CRC_32).
type TDTData struct {
	UTCTime   time.Time
	Malformed bool
}

// parseTDT decodes a TDT section body: utc_time:40 (MJD+BCD), and nothing
// else.
func parseTDT(body []byte) *TDTData {
	if len(body) < 5 {
		return &TDTData{Malformed: true}
	}
	t, malformed := dvbTime(body[0:5])
	return &TDTData{UTCTime: t, Malformed: malformed}
}
