package tsdemux

// PES stream_id values that carry no PES header fields at all (just the
// start code, stream_id, length, then raw data) per ISO/IEC 13818-1 Table
// 2-18.
const (
	streamIDProgramStreamMap uint8 = 0xbc
	streamIDPaddingStream    uint8 = 0xbe
	streamIDPrivateStream2   uint8 = 0xbf
	streamIDECMStream        uint8 = 0xf0
	streamIDEMMStream        uint8 = 0xf1
	streamIDProgramStreamDirectory uint8 = 0xff
	streamIDDSMCCStream      uint8 = 0xf2
	streamIDH2221TypeE       uint8 = 0xf8
)

func pesHasOptionalHeader(streamID uint8) bool {
	switch streamID {
	case streamIDProgramStreamMap, streamIDPaddingStream, streamIDPrivateStream2,
		streamIDECMStream, streamIDEMMStream, streamIDProgramStreamDirectory,
		streamIDDSMCCStream, streamIDH2221TypeE:
		return false
	}
	return true
}

// PESData is a decoded PES packet header, stopping at the elementary
// stream payload: this package demultiplexes and timestamps PES packets,
// it does not decode the ES payload itself.
type PESData struct {
	StreamID    uint8
	PacketLength int

	HasOptionalHeader bool
	PTS               *ClockReference
	DTS               *ClockReference
	ESCR              *ClockReference
	ESRate            uint32
	HasESRate         bool

	HeaderDataLength int
	Data             []byte
}

// parsePES decodes a PES packet starting at its 00 00 01 start code. b must
// contain at least the fixed 6-byte prefix; returns nil if b is too short
// or does not start with the PES start code.
func parsePES(b []byte) *PESData {
	if len(b) < 6 || b[0] != 0x00 || b[1] != 0x00 || b[2] != 0x01 {
		return nil
	}
	d := &PESData{StreamID: b[3], PacketLength: int(b[4])<<8 | int(b[5])}
	rest := b[6:]

	if !pesHasOptionalHeader(d.StreamID) {
		d.Data = rest
		return d
	}
	d.HasOptionalHeader = true
	if len(rest) < 3 {
		return d
	}

	ptsDTSFlags := rest[1] >> 6
	escrFlag := rest[1]&0x20 != 0
	esRateFlag := rest[1]&0x10 != 0
	headerDataLength := int(rest[2])
	d.HeaderDataLength = headerDataLength

	optional := rest[3:]
	if headerDataLength > len(optional) {
		headerDataLength = len(optional)
	}
	fields := optional[:headerDataLength]

	offset := 0
	if ptsDTSFlags == 0b10 && offset+5 <= len(fields) {
		pts := parsePTSOrDTS(fields[offset : offset+5])
		d.PTS = &pts
		offset += 5
	} else if ptsDTSFlags == 0b11 && offset+10 <= len(fields) {
		pts := parsePTSOrDTS(fields[offset : offset+5])
		d.PTS = &pts
		offset += 5
		dts := parsePTSOrDTS(fields[offset : offset+5])
		d.DTS = &dts
		offset += 5
	}
	if escrFlag && offset+6 <= len(fields) {
		escr := parseESCR(fields[offset : offset+6])
		d.ESCR = &escr
		offset += 6
	}
	if esRateFlag && offset+3 <= len(fields) {
		d.ESRate = uint32(fields[offset]&0x7f)<<15 | uint32(fields[offset+1])<<7 | uint32(fields[offset+2])>>1
		d.HasESRate = true
		offset += 3
	}

	if headerDataLength <= len(optional) {
		d.Data = optional[headerDataLength:]
	}
	return d
}
