package tsdemux

import (
	"bufio"
	"errors"
	"fmt"
	"io"
)

// ErrDesynchronized is returned by NextPacket when no sync byte could be
// reacquired within resyncWindow bytes of a failed alignment check;
// NextEvent reports it as an EventDesynchronized event rather than as an
// error. Per spec, losing sync is fatal for the stream: the caller must
// start a new Demuxer over a new byte source.
var ErrDesynchronized = errors.New("tsdemux: lost transport stream synchronization")

// resyncWindow bounds how far ahead of a candidate sync byte the demuxer
// will scan looking for a second 0x47 exactly PacketSize later, before
// giving up and declaring desynchronization.
const resyncWindow = PacketSize * 1024

// Demuxer reads 188-byte transport stream packets from a byte source,
// verifies alignment, tracks per-PID continuity and section reassembly
// state, and exposes the result as a flat stream of Events.
type Demuxer struct {
	r      *bufio.Reader
	cfg    *Config
	model  *Model
	cc     *continuityMonitor
	sect   *sectionReassembler

	pending []Event
	flushed bool

	// pidKind remembers the payload kind (PES, PSI, or DVB-MIP) that the
	// last PUSI packet on a PID established, so continuation packets
	// (which carry no start-code/pointer_field of their own) are routed
	// consistently with whatever unit that PID is carrying instead of
	// being assumed to be PSI.
	pidKind [1 << 13]payloadKind

	// noisySkip holds PIDs added to the skip set at runtime, e.g. after an
	// application information section (table_id 0x74) marks its own PID as
	// noise to suppress, per spec.md §4.7. This is separate from Config's
	// static skipPIDs/targetPIDs so it applies regardless of which mode the
	// caller configured.
	noisySkip map[uint16]bool
}

// NewDemuxer wraps r as a transport stream source. r is read in 188-byte
// units; wrap it in your own buffering if reads are expensive, though
// bufio.Reader is already applied here.
func NewDemuxer(r io.Reader, opts ...DemuxerOpt) *Demuxer {
	return &Demuxer{
		r:         bufio.NewReaderSize(r, PacketSize*512),
		cfg:       newConfig(opts...),
		model:     newModel(),
		cc:        newContinuityMonitor(),
		sect:      newSectionReassembler(),
		noisySkip: make(map[uint16]bool),
	}
}

// Model returns the accumulated SI/PSI state. The returned pointer is
// live: its contents change as NextEvent is called.
func (d *Demuxer) Model() *Model { return d.model }

// NextPacket reads and returns the next aligned 188-byte packet,
// reacquiring sync if the stream is misaligned. io.EOF is returned when
// the source is exhausted at a packet boundary.
func (d *Demuxer) NextPacket() (*Packet, error) {
	b := make([]byte, PacketSize)
	if _, err := io.ReadFull(d.r, b); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, io.EOF
		}
		return nil, err
	}

	if b[0] != syncByte {
		if err := d.resync(b); err != nil {
			return nil, err
		}
	} else if next, err := d.r.Peek(1); err == nil && len(next) == 1 && next[0] != syncByte {
		// The byte at this offset looked like a sync byte but the next
		// packet does not confirm it: treat this as noise and resync.
		if err := d.resync(b); err != nil {
			return nil, err
		}
	}

	return parsePacket(b)
}

// resync discards bytes one at a time, refilling buf with a shifted
// candidate packet, until it finds an offset where both buf[0] and the
// byte PacketSize later are 0x47, or until resyncWindow bytes have been
// discarded. Once resync has been entered, running out of source bytes is
// not a clean end-of-stream: byte 0 of buf already failed the sync check,
// so the source is desynchronized and cannot be trusted, per spec's
// distinction between a short read "at the very first byte" (clean EOF)
// and any other short read mid-packet (fatal).
func (d *Demuxer) resync(buf []byte) error {
	discarded := 0
	for discarded < resyncWindow {
		copy(buf, buf[1:])
		nb, err := d.r.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) {
				d.cfg.logger.Errorf("tsdemux: lost sync and reached end of stream while resynchronizing")
				return ErrDesynchronized
			}
			return err
		}
		buf[PacketSize-1] = nb
		discarded++

		if buf[0] != syncByte {
			continue
		}
		next, err := d.r.Peek(1)
		if err != nil {
			if errors.Is(err, io.EOF) {
				// Can't confirm the second sync byte yet; accept this
				// candidate since we're at the end of the stream.
				return nil
			}
			return err
		}
		if len(next) == 1 && next[0] == syncByte {
			d.cfg.logger.Debugf("tsdemux: resynchronized after discarding %d bytes", discarded)
			return nil
		}
	}
	d.cfg.logger.Errorf("tsdemux: failed to resynchronize within %d bytes", resyncWindow)
	return ErrDesynchronized
}

// NextEvent returns the next diagnostic or decode event, reading and
// processing packets from the underlying source as needed. io.EOF is
// returned once the source is exhausted and every pending event has been
// drained.
func (d *Demuxer) NextEvent() (*Event, error) {
	for len(d.pending) == 0 {
		p, err := d.NextPacket()
		if err != nil {
			if errors.Is(err, ErrDesynchronized) {
				d.pending = append(d.pending, Event{Kind: EventDesynchronized})
				break
			}
			if errors.Is(err, io.EOF) && !d.flushed {
				d.flushed = true
				for _, pid := range d.sect.Flush() {
					d.pending = append(d.pending, Event{Kind: EventIncomplete, PID: pid})
				}
				if len(d.pending) > 0 {
					break
				}
			}
			return nil, err
		}
		d.pending = d.processPacket(p)
	}

	ev := d.pending[0]
	d.pending = d.pending[1:]
	if ev.Kind == EventCRCFailure && d.cfg.strict {
		return nil, fmt.Errorf("tsdemux: CRC failure on PID 0x%04x table_id 0x%02x: expected %#08x got %#08x", ev.PID, ev.TableID, ev.ExpectedCRC, ev.GotCRC)
	}
	return &ev, nil
}

// processPacket runs one packet through continuity tracking, adaptation
// field reporting, and payload reassembly/decoding, returning every event
// it produced. Packets on PIDs the Config excludes still pass through
// continuity tracking (so discontinuities on skipped PIDs are still
// visible) but are not reassembled or decoded.
func (d *Demuxer) processPacket(p *Packet) []Event {
	if p.Header.PID == PIDNull {
		// Null packets are stuffing: dropped before any further processing.
		return nil
	}

	var events []Event
	if !d.cfg.hidePacketSeen {
		events = append(events, Event{Kind: EventPacketSeen, PID: p.Header.PID})
	}

	if p.Header.TransportErrorIndicator {
		events = append(events, Event{Kind: EventTransportError, PID: p.Header.PID})
	}

	isNew, discontinuity, expected, got := d.cc.observe(p)
	if isNew {
		events = append(events, Event{Kind: EventNewPID, PID: p.Header.PID})
	}
	if discontinuity {
		events = append(events, Event{Kind: EventContinuityDiscontinuity, PID: p.Header.PID, Expected: expected, Got: got})
	}
	d.model.LastCC[p.Header.PID] = got

	if !d.cfg.ignoreAdaptation && p.AdaptationField != nil {
		if p.AdaptationField.StuffingCorrupted {
			events = append(events, Event{Kind: EventAdaptationMalformed, PID: p.Header.PID})
		} else {
			events = append(events, Event{Kind: EventAdaptationDecoded, PID: p.Header.PID, Adaptation: p.AdaptationField})
		}
	}

	if d.cfg.ignorePayload || !p.Header.HasPayload() || !d.cfg.wants(p.Header.PID) || d.noisySkip[p.Header.PID] {
		return events
	}

	pid := p.Header.PID
	kind := classifyPayload(p.Header.PayloadUnitStartIndicator, pid, p.Payload)
	if kind != payloadKindContinuation {
		// A PUSI packet establishes what kind of unit this PID carries, so
		// that its own continuation packets (pusi=false, classified as
		// payloadKindContinuation above) are routed the same way rather
		// than defaulting to PSI.
		d.pidKind[pid] = kind
	} else {
		kind = d.pidKind[pid]
	}

	switch kind {
	case payloadKindPES:
		// This package does not reassemble elementary-stream payloads past
		// the PES header, so a continuation packet on a PES PID (pusi
		// unset) carries nothing this decoder uses; only the packet that
		// started the PES unit is decoded.
		if p.Header.PayloadUnitStartIndicator && !d.cfg.skipPES {
			events = append(events, d.decodePES(p)...)
		}
	case payloadKindDVBMIP:
		if p.Header.PayloadUnitStartIndicator {
			events = append(events, Event{Kind: EventUnimplementedDVBMIP, PID: pid})
		}
	case payloadKindPSI, payloadKindContinuation:
		if !d.cfg.skipPSI {
			events = append(events, d.decodePSI(p)...)
		}
	}

	return events
}

func (d *Demuxer) decodePES(p *Packet) []Event {
	pes := parsePES(p.Payload)
	if pes == nil {
		return []Event{{Kind: EventUnknown, PID: p.Header.PID, Detail: "malformed PES start"}}
	}
	return []Event{{Kind: EventUnknown, PID: p.Header.PID, Detail: pesSummary(pes)}}
}

// pesSummary is a terse human-readable summary used for diagnostic
// logging. The Model holds no PES data; structured consumers decode PES
// data themselves from the raw payload.
func pesSummary(p *PESData) string {
	if p.PTS != nil {
		return fmt.Sprintf("PES stream_id=0x%02x pts=%s", p.StreamID, p.PTS.Time())
	}
	return fmt.Sprintf("PES stream_id=0x%02x", p.StreamID)
}

func (d *Demuxer) decodePSI(p *Packet) []Event {
	res := d.sect.feed(p.Header.PID, p.Header.PayloadUnitStartIndicator, p.Payload)

	var events []Event
	if res.OrphanContinuation {
		events = append(events, Event{Kind: EventOrphanContinuation, PID: p.Header.PID})
	}
	if res.Incomplete {
		events = append(events, Event{Kind: EventIncomplete, PID: p.Header.PID})
	}

	for _, ds := range res.Sections {
		events = append(events, d.decodeSection(p.Header.PID, ds)...)
	}
	return events
}

// decodeSection dispatches a cut section to its table decoder. A CRC
// mismatch does not by itself suppress decoding in the default (lenient)
// mode: a CRCFailure event is emitted alongside whatever the table
// decoder produces from the (possibly corrupted) bytes, so callers still
// see best-effort table data. DemuxerOptStrict gates this: on a CRC
// mismatch it returns only the CRCFailure event and skips the decode
// (and the model update) entirely, and NextEvent turns that event into a
// hard error.
//
// current_next_indicator=0 marks a section describing a table that is not
// yet in effect (a future version announced ahead of its activation). Per
// the PAT/PMT/SDT/EIT/NIT entity-lifecycle rule, only
// current_next_indicator=1 sections replace the live model; a not-yet-
// current section is not decoded and produces no event, leaving whatever
// the model already holds untouched. TDT and TOT have no syntax section
// (and so no current_next_indicator) and are always treated as current.
func (d *Demuxer) decodeSection(pid uint16, ds decodedSection) []Event {
	var crcEvents []Event
	if !ds.CRCValid && ds.Syntax != nil {
		crcEvents = []Event{{Kind: EventCRCFailure, PID: pid, TableID: ds.Header.TableID, ExpectedCRC: ds.ExpectedCRC, GotCRC: ds.GotCRC}}
		if d.cfg.strict {
			return crcEvents
		}
	}

	isCurrent := ds.Syntax == nil || ds.Syntax.CurrentNextIndicator

	var tableEvents []Event
	switch {
	case ds.Header.TableID == TableIDPAT && ds.Syntax != nil:
		if isCurrent {
			pat := parsePAT(*ds.Syntax, ds.Body)
			d.model.PAT[pid] = pat
			tableEvents = []Event{{Kind: EventPATUpdated, PID: pid, PAT: pat}}
		}

	case ds.Header.TableID == TableIDPMT && ds.Syntax != nil:
		if isCurrent {
			pmt := parsePMT(*ds.Syntax, ds.Body)
			d.model.PMT[pid] = pmt
			ev := Event{Kind: EventPMTUpdated, PID: pid, PMT: pmt}
			if pmt.DescriptorOverflow {
				tableEvents = []Event{{Kind: EventDescriptorOverflow, PID: pid, TableID: ds.Header.TableID}, ev}
			} else {
				tableEvents = []Event{ev}
			}
		}

	case (ds.Header.TableID == TableIDSDTActual || ds.Header.TableID == TableIDSDTOther) && ds.Syntax != nil:
		if isCurrent {
			sdt := parseSDT(ds.Header.TableID, *ds.Syntax, ds.Body)
			d.model.SDT[pid] = sdt
			tableEvents = []Event{{Kind: EventSDTUpdated, PID: pid, SDT: sdt}}
		}

	case eitTableID(ds.Header.TableID) && ds.Syntax != nil:
		if isCurrent {
			eit := parseEIT(ds.Header.TableID, *ds.Syntax, ds.Body)
			d.model.EIT[pid] = eit
			tableEvents = []Event{{Kind: EventEITUpdated, PID: pid, EIT: eit}}
		}

	case ds.Header.TableID == TableIDTDT:
		tdt := parseTDT(ds.Body)
		d.model.TDT = tdt
		ev := Event{Kind: EventTDTUpdated, PID: pid, TDT: tdt}
		if tdt.Malformed {
			tableEvents = []Event{{Kind: EventMalformedBCD, PID: pid, Detail: "TDT utc_time"}, ev}
		} else {
			tableEvents = []Event{ev}
		}

	case ds.Header.TableID == TableIDTOT:
		if isCurrent {
			tot := parseTOT(ds.Body)
			d.model.TOT = tot
			ev := Event{Kind: EventTOTUpdated, PID: pid, TOT: tot}
			if tot.Malformed {
				tableEvents = []Event{{Kind: EventMalformedBCD, PID: pid, Detail: "TOT utc_time"}, ev}
			} else {
				tableEvents = []Event{ev}
			}
		}

	case (ds.Header.TableID == TableIDNIT || ds.Header.TableID == TableIDNITOther) && ds.Syntax != nil:
		if isCurrent {
			nit := parseNIT(ds.Header.TableID, *ds.Syntax, ds.Body)
			d.model.NIT[pid] = nit
			tableEvents = []Event{{Kind: EventNITUpdated, PID: pid, NIT: nit}}
		}

	case ds.Header.TableID == TableIDApplicationInformation:
		// Per spec.md §4.7, an application information section carries
		// nothing this package decodes; its PID is added to the skip set
		// so the rest of its (undecoded) sections stop being reassembled.
		d.noisySkip[pid] = true
		tableEvents = []Event{{Kind: EventUnknown, PID: pid, TableID: ds.Header.TableID}}

	default:
		tableEvents = []Event{{Kind: EventUnknown, PID: pid, TableID: ds.Header.TableID}}
	}

	return append(crcEvents, tableEvents...)
}
