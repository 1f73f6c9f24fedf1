package tsdemux

import "errors"

// ErrAdaptationMalformed is reported when the adaptation field's stuffing
// bytes are corrupted (anything other than 0xFF).
var ErrAdaptationMalformed = errors.New("tsdemux: adaptation field stuffing is corrupted")

// AdaptationField is the optional, variable-length field following the
// packet header. Flags and optional subfields are laid out per ISO/IEC
// 13818-1 §2.4.3.5.
type AdaptationField struct {
	Length int

	DiscontinuityIndicator bool
	RandomAccessIndicator  bool
	ESPriorityIndicator    bool
	HasPCR                 bool
	HasOPCR                bool
	HasSplicingCountdown   bool
	HasTransportPrivate    bool
	HasExtension           bool

	PCR             *ClockReference
	OPCR            *ClockReference
	SpliceCountdown int8

	TransportPrivateData []byte

	Extension *AdaptationExtensionField

	// StuffingCorrupted is true when trailing stuffing bytes were not all
	// 0xFF; the field is still returned, decorated with this flag, and the
	// caller is expected to surface ErrAdaptationMalformed as a diagnostic.
	StuffingCorrupted bool
}

// AdaptationExtensionField is the adaptation field's own optional nested
// extension (legal time window, piecewise rate, seamless splice).
type AdaptationExtensionField struct {
	Length int

	HasLegalTimeWindow bool
	HasPiecewiseRate   bool
	HasSeamlessSplice  bool

	LTWValid  bool
	LTWOffset uint16 // 15 bits

	PiecewiseRate uint32 // 22 bits

	SpliceType     uint8 // 4 bits
	NextDTS        *ClockReference
}

// parseAdaptationField decodes an adaptation field from the bytes that
// immediately follow the 4-byte packet header. It returns the number of
// bytes consumed (length + 1, i.e. including the length byte itself),
// which the caller uses to locate the payload.
func parseAdaptationField(b []byte) (*AdaptationField, int) {
	a := &AdaptationField{Length: int(b[0])}
	consumed := 1 + a.Length
	if a.Length == 0 {
		return a, consumed
	}

	// bound is the last valid index this field may read up to: either the
	// declared length or whatever the caller actually handed us, whichever
	// is shorter. A packet with a bogus adaptation_field_length cannot make
	// this function read past its input.
	bound := consumed
	if len(b) < bound {
		bound = len(b)
	}

	offset := 1
	if offset >= bound {
		a.StuffingCorrupted = true
		return a, consumed
	}
	flags := b[offset]
	a.DiscontinuityIndicator = flags&0x80 > 0
	a.RandomAccessIndicator = flags&0x40 > 0
	a.ESPriorityIndicator = flags&0x20 > 0
	a.HasPCR = flags&0x10 > 0
	a.HasOPCR = flags&0x08 > 0
	a.HasSplicingCountdown = flags&0x04 > 0
	a.HasTransportPrivate = flags&0x02 > 0
	a.HasExtension = flags&0x01 > 0
	offset++

	if a.HasPCR {
		if offset+6 > bound {
			a.StuffingCorrupted = true
			return a, consumed
		}
		pcr := parsePCR(b[offset:])
		a.PCR = &pcr
		offset += 6
	}
	if a.HasOPCR {
		if offset+6 > bound {
			a.StuffingCorrupted = true
			return a, consumed
		}
		opcr := parsePCR(b[offset:])
		a.OPCR = &opcr
		offset += 6
	}
	if a.HasSplicingCountdown {
		if offset+1 > bound {
			a.StuffingCorrupted = true
			return a, consumed
		}
		a.SpliceCountdown = int8(b[offset])
		offset++
	}
	if a.HasTransportPrivate {
		if offset+1 > bound {
			a.StuffingCorrupted = true
			return a, consumed
		}
		n := int(b[offset])
		offset++
		if n > 0 {
			if offset+n > bound {
				a.StuffingCorrupted = true
				return a, consumed
			}
			a.TransportPrivateData = b[offset : offset+n]
			offset += n
		}
	}
	if a.HasExtension {
		if offset >= bound {
			a.StuffingCorrupted = true
			return a, consumed
		}
		ext, n, ok := parseAdaptationExtensionField(b[offset:bound])
		a.Extension = ext
		if !ok {
			a.StuffingCorrupted = true
			return a, consumed
		}
		offset += n
	}

	// Everything remaining up to the declared length is stuffing and must
	// be all 0xFF.
	for ; offset < bound; offset++ {
		if b[offset] != 0xff {
			a.StuffingCorrupted = true
			break
		}
	}
	if bound < consumed {
		a.StuffingCorrupted = true
	}

	return a, consumed
}

// parsePCR decodes the 6-byte 33-bit-base/6-reserved/9-bit-extension PCR
// or OPCR encoding.
func parsePCR(b []byte) ClockReference {
	v := uint64(b[0])<<40 | uint64(b[1])<<32 | uint64(b[2])<<24 |
		uint64(b[3])<<16 | uint64(b[4])<<8 | uint64(b[5])
	return newClockReference(int(v>>15), int(v&0x1ff))
}

// parseAdaptationExtensionField decodes b, which must already be clamped by
// the caller to the enclosing adaptation field's declared bound. ok is
// false if a flagged subfield would read past len(b), in which case n is
// not meaningful beyond "consumed at least this much".
func parseAdaptationExtensionField(b []byte) (e *AdaptationExtensionField, n int, ok bool) {
	if len(b) < 1 {
		return &AdaptationExtensionField{}, 0, false
	}
	e = &AdaptationExtensionField{Length: int(b[0])}
	consumed := 1 + e.Length
	if e.Length == 0 {
		return e, consumed, true
	}
	if len(b) < 2 {
		return e, consumed, false
	}

	offset := 1
	flags := b[offset]
	e.HasLegalTimeWindow = flags&0x80 > 0
	e.HasPiecewiseRate = flags&0x40 > 0
	e.HasSeamlessSplice = flags&0x20 > 0
	offset++

	if e.HasLegalTimeWindow {
		if offset+2 > len(b) {
			return e, consumed, false
		}
		e.LTWValid = b[offset]&0x80 > 0
		e.LTWOffset = uint16(b[offset]&0x7f)<<8 | uint16(b[offset+1])
		offset += 2
	}
	if e.HasPiecewiseRate {
		if offset+3 > len(b) {
			return e, consumed, false
		}
		e.PiecewiseRate = uint32(b[offset]&0x3f)<<16 | uint32(b[offset+1])<<8 | uint32(b[offset+2])
		offset += 3
	}
	if e.HasSeamlessSplice {
		if offset+5 > len(b) {
			return e, consumed, false
		}
		e.SpliceType = b[offset] >> 4 & 0xf
		dts := parsePTSOrDTS(b[offset:])
		e.NextDTS = &dts
		offset += 5
	}

	if consumed > len(b) {
		return e, consumed, false
	}
	return e, consumed, true
}
