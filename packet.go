package tsdemux

import "errors"

// PacketSize is the length in bytes of one MPEG-2 Transport Stream packet.
const PacketSize = 188

// syncByte starts every TS packet.
const syncByte = 0x47

// PIDNull is the null/stuffing PID. Packets on this PID carry no payload
// of interest and are dropped before further processing.
const PIDNull uint16 = 0x1fff

// Transport scrambling control values.
const (
	ScramblingControlNotScrambled = 0
	ScramblingControlReserved     = 1
	ScramblingControlEvenKey      = 2
	ScramblingControlOddKey       = 3
)

// ErrPacketMustStartWithSyncByte is returned when a 188-byte buffer handed
// to parsePacket does not begin with the sync byte.
var ErrPacketMustStartWithSyncByte = errors.New("tsdemux: packet must start with a sync byte")

// Packet is one demultiplexed 188-byte Transport Stream packet.
type Packet struct {
	Header          PacketHeader
	AdaptationField *AdaptationField
	Payload         []byte // nil when the packet carries no payload
	Bytes           []byte // the whole 188-byte packet
}

// PacketHeader is the 4-byte Transport Stream packet header.
// https://en.wikipedia.org/wiki/MPEG_transport_stream
type PacketHeader struct {
	TransportErrorIndicator   bool
	PayloadUnitStartIndicator bool
	TransportPriority         bool
	PID                       uint16
	TransportScrambling       uint8
	AdaptationFieldControl    uint8 // 0b01 payload only, 0b10 adaptation only, 0b11 both
	ContinuityCounter         uint8
}

// HasAdaptationField reports whether AdaptationFieldControl indicates an
// adaptation field is present (0b10 or 0b11).
func (h PacketHeader) HasAdaptationField() bool {
	return h.AdaptationFieldControl == 0b10 || h.AdaptationFieldControl == 0b11
}

// HasPayload reports whether AdaptationFieldControl indicates a payload is
// present (0b01 or 0b11).
func (h PacketHeader) HasPayload() bool {
	return h.AdaptationFieldControl == 0b01 || h.AdaptationFieldControl == 0b11
}

// parsePacketHeader decodes the first 4 bytes of a packet. b must be at
// least 4 bytes and b[0] must already be known to equal syncByte.
func parsePacketHeader(b []byte) PacketHeader {
	return PacketHeader{
		TransportErrorIndicator:   b[1]&0x80 > 0,
		PayloadUnitStartIndicator: b[1]&0x40 > 0,
		TransportPriority:        b[1]&0x20 > 0,
		PID:                      uint16(b[1]&0x1f)<<8 | uint16(b[2]),
		TransportScrambling:      b[3] >> 6 & 0x3,
		AdaptationFieldControl:   b[3] >> 4 & 0x3,
		ContinuityCounter:        b[3] & 0xf,
	}
}

// parsePacket decodes one 188-byte TS packet.
func parsePacket(b []byte) (*Packet, error) {
	if b[0] != syncByte {
		return nil, ErrPacketMustStartWithSyncByte
	}

	p := &Packet{Bytes: b, Header: parsePacketHeader(b)}

	offset := 4
	if p.Header.HasAdaptationField() {
		af, n := parseAdaptationField(b[offset:])
		p.AdaptationField = af
		offset += n
	}

	if p.Header.HasPayload() && offset < len(b) {
		p.Payload = b[offset:]
	}

	return p, nil
}
