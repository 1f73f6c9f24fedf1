package tsdemux

// sectionAssembly holds the in-progress reassembly buffer for PSI/SI
// sections on one PID. A PID only ever carries sections of a single
// syntax at a time, so one buffer per PID is enough.
type sectionAssembly struct {
	buf       []byte
	active    bool
	orphaned  bool
}

// sectionReassembler accumulates PSI/SI section bytes per PID across
// packets, using the pointer_field on PUSI packets to find where a new
// section starts, and handing back every complete section it can cut once
// enough bytes have accumulated. Continuation packets that arrive before
// any PUSI packet has been seen on their PID are reported as orphaned so
// the caller can emit OrphanContinuation instead of silently discarding
// them.
type sectionReassembler struct {
	byPID [1 << 13]*sectionAssembly
}

func newSectionReassembler() *sectionReassembler {
	return &sectionReassembler{}
}

// sectionReassemblyResult is returned by feed for one packet: zero or more
// complete sections ready to decode, plus diagnostics.
type sectionReassemblyResult struct {
	Sections        []decodedSection
	OrphanContinuation bool
	Incomplete      bool // a PUSI packet discarded a still-incomplete prior buffer
}

// feed processes one PSI-classified packet's payload for pid. pusi
// indicates the payload begins with a pointer_field.
func (r *sectionReassembler) feed(pid uint16, pusi bool, payload []byte) sectionReassemblyResult {
	var res sectionReassemblyResult
	a := r.byPID[pid]
	if a == nil {
		a = &sectionAssembly{}
		r.byPID[pid] = a
	}

	if pusi {
		if len(payload) < 1 {
			return res
		}
		pointer := int(payload[0])
		if 1+pointer > len(payload) {
			return res
		}
		tail := payload[1 : 1+pointer]
		head := payload[1+pointer:]

		if a.active && len(tail) > 0 {
			// Bytes before the pointer_field target complete the
			// previous section that was in progress.
			a.buf = append(a.buf, tail...)
			r.drain(a, &res)
		}
		if a.active && len(a.buf) > 0 {
			// Whatever is left over never reached a complete section
			// before this new one started.
			res.Incomplete = true
		}

		a.buf = append(a.buf[:0], head...)
		a.active = true
		a.orphaned = false
		r.drain(a, &res)
		return res
	}

	if !a.active {
		res.OrphanContinuation = true
		return res
	}
	a.buf = append(a.buf, payload...)
	r.drain(a, &res)
	return res
}

// Flush reports every PID still holding a non-empty, incomplete reassembly
// buffer, for use when the underlying source has reached end-of-stream
// with no further packets to complete them. Each returned PID's buffer is
// discarded; calling Flush again before feeding more packets on that PID
// returns nothing further for it.
func (r *sectionReassembler) Flush() []uint16 {
	var pids []uint16
	for pid, a := range r.byPID {
		if a == nil || len(a.buf) == 0 {
			continue
		}
		pids = append(pids, uint16(pid))
		a.buf = nil
		a.active = false
	}
	return pids
}

// drain cuts as many complete sections out of a.buf as it can, stopping at
// the table_id=0xff padding convention or an incomplete trailing section.
func (r *sectionReassembler) drain(a *sectionAssembly, res *sectionReassemblyResult) {
	for {
		if len(a.buf) == 0 || a.buf[0] == 0xff {
			a.buf = nil
			return
		}
		ds, consumed, ok := cutSection(a.buf)
		if !ok {
			return
		}
		res.Sections = append(res.Sections, ds)
		a.buf = a.buf[consumed:]
	}
}
