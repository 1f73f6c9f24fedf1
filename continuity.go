package tsdemux

// continuityMonitor tracks the last-seen continuity counter and payload
// fingerprint for every PID so duplicate packets (legal once) and genuine
// discontinuities can be told apart, per ISO/IEC 13818-1 §2.4.3.3.
//
// A plain array indexed by PID is used instead of a map, per the "array of
// 8192 slots" design note: most PIDs in a real stream are unused and the
// per-slot state is a handful of bytes.
type continuityMonitor struct {
	seen [1 << 13]bool
	cc   [1 << 13]uint8
	// lastPayloadHash is a cheap fingerprint of the previous payload-bearing
	// packet on this PID, used only to recognize an exact duplicate.
	lastPayloadHash [1 << 13]uint64
	hasHash         [1 << 13]bool
}

func newContinuityMonitor() *continuityMonitor {
	return &continuityMonitor{}
}

// observe updates the tracker for one packet and reports whether this is
// the first packet seen on pid and, if not, whether a discontinuity
// occurred. A discontinuity is never reported for the DiscontinuityIndicator
// case nor for an exact duplicate of the immediately preceding packet.
func (m *continuityMonitor) observe(p *Packet) (isNew bool, discontinuity bool, expected, got uint8) {
	pid := p.Header.PID
	got = p.Header.ContinuityCounter

	if !m.seen[pid] {
		m.seen[pid] = true
		m.cc[pid] = got
		if p.Header.HasPayload() {
			m.hasHash[pid] = true
			m.lastPayloadHash[pid] = hashPayload(p.Payload)
		}
		return true, false, got, got
	}

	prev := m.cc[pid]

	if p.Header.AdaptationFieldControl == 0b10 {
		// Adaptation-field-only packet: CC must not change.
		expected = prev
		if got != prev {
			discontinuity = true
		}
		return false, discontinuity, expected, got
	}

	expected = (prev + 1) % 16

	if p.AdaptationField != nil && p.AdaptationField.DiscontinuityIndicator {
		m.cc[pid] = got
		if p.Header.HasPayload() {
			m.hasHash[pid] = true
			m.lastPayloadHash[pid] = hashPayload(p.Payload)
		}
		return false, false, expected, got
	}

	if got == prev && m.hasHash[pid] && hashPayload(p.Payload) == m.lastPayloadHash[pid] {
		// Legal duplicate: same CC, same payload. Not a discontinuity, and
		// the counter does not advance further. Only one repeat is legal:
		// the fingerprint is dropped so a further copy is a discontinuity.
		m.hasHash[pid] = false
		return false, false, expected, got
	}

	if got != expected {
		discontinuity = true
	}

	m.cc[pid] = got
	if p.Header.HasPayload() {
		m.hasHash[pid] = true
		m.lastPayloadHash[pid] = hashPayload(p.Payload)
	}

	return false, discontinuity, expected, got
}

// hashPayload is a cheap, non-cryptographic fingerprint (FNV-1a) used only
// to detect exact-duplicate retransmissions of a packet's payload.
func hashPayload(b []byte) uint64 {
	var h uint64 = 14695981039346656037
	for _, c := range b {
		h ^= uint64(c)
		h *= 1099511628211
	}
	return h
}
