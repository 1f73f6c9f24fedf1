package tsdemux

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// wrapInPacket places a PSI payload (pointer_field + section bytes) into a
// single 188-byte TS packet on pid, padding the remainder with 0xFF
// stuffing bytes (which classifyPayload/cutSection both treat as
// end-of-data).
func wrapInPacket(pid uint16, cc uint8, sectionBytes []byte) []byte {
	b := make([]byte, PacketSize)
	b[0] = syncByte
	b[1] = 0x40 | byte(pid>>8&0x1f) // PUSI set
	b[2] = byte(pid)
	b[3] = 0b01<<4 | cc&0x0f // payload only

	payload := b[4:]
	payload[0] = 0x00 // pointer_field
	copy(payload[1:], sectionBytes)
	for i := 1 + len(sectionBytes); i < len(payload); i++ {
		payload[i] = 0xff
	}
	return b
}

func TestDemuxerSinglePATSection(t *testing.T) {
	pkt := wrapInPacket(0x0000, 0, buildPATSection())
	d := NewDemuxer(bytes.NewReader(pkt))

	var sawPAT bool
	for {
		ev, err := d.NextEvent()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		if ev.Kind == EventPATUpdated {
			sawPAT = true
			require.NotNil(t, ev.PAT)
			assert.Equal(t, uint16(0x0100), ev.PAT.Programs[0].PID)
		}
	}
	assert.True(t, sawPAT)

	m := d.Model()
	require.Contains(t, m.PAT, uint16(0x0000))
}

func TestDemuxerContinuityDiscontinuity(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(wrapInPacket(0x0100, 0, nil))
	buf.Write(wrapInPacket(0x0100, 5, nil))

	d := NewDemuxer(&buf)
	var sawDiscontinuity bool
	for {
		ev, err := d.NextEvent()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		if ev.Kind == EventContinuityDiscontinuity {
			sawDiscontinuity = true
			assert.Equal(t, uint8(1), ev.Expected)
			assert.Equal(t, uint8(5), ev.Got)
		}
	}
	assert.True(t, sawDiscontinuity)
}

func TestDemuxerBadSyncByteTriggersDesync(t *testing.T) {
	garbage := bytes.Repeat([]byte{0x00}, resyncWindow+PacketSize)
	d := NewDemuxer(bytes.NewReader(garbage))

	var sawDesync bool
	for {
		ev, err := d.NextEvent()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		if ev.Kind == EventDesynchronized {
			sawDesync = true
		}
	}
	assert.True(t, sawDesync)
}

func TestDemuxerBadSyncByteOnShortStreamIsDesyncNotEOF(t *testing.T) {
	// Scenario 6 (spec.md §8): a single 188-byte packet whose byte 0 is
	// 0x48 and nothing follows. The short read resync hits is mid-resync,
	// not a clean end-of-stream, so this must be fatal Desynchronized, not
	// a silent EOF.
	garbage := make([]byte, PacketSize)
	garbage[0] = 0x48
	d := NewDemuxer(bytes.NewReader(garbage))

	ev, err := d.NextEvent()
	require.NoError(t, err)
	require.Equal(t, EventDesynchronized, ev.Kind)

	_, err = d.NextEvent()
	assert.ErrorIs(t, err, io.EOF)
}

// buildApplicationInformationSection assembles a minimal, well-formed
// section with table_id 0x74 (application information section) and an
// empty body, CRC included.
func buildApplicationInformationSection() []byte {
	b := []byte{
		TableIDApplicationInformation,
		0x80, 0x09, // syntax indicator + section_length=9
		0x00, 0x00, // table_id_extension
		0xc1,       // version=0, current_next=1
		0x00,       // section_number
		0x00,       // last_section_number
	}
	crc := crc32MPEG(b)
	return append(b, byte(crc>>24), byte(crc>>16), byte(crc>>8), byte(crc))
}

func TestDemuxerApplicationInformationSectionAddsPIDToSkipSet(t *testing.T) {
	const pid = uint16(0x0300) // not in the default skip set
	var buf bytes.Buffer
	buf.Write(wrapInPacket(pid, 0, buildApplicationInformationSection()))
	buf.Write(wrapInPacket(pid, 1, buildPATSection()))

	d := NewDemuxer(&buf, DemuxerOptHidePacketSeen())

	var sawAppInfo, sawPATOnNoisyPID bool
	for {
		ev, err := d.NextEvent()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		switch ev.Kind {
		case EventUnknown:
			if ev.TableID == TableIDApplicationInformation {
				sawAppInfo = true
			}
		case EventPATUpdated:
			if ev.PID == pid {
				sawPATOnNoisyPID = true
			}
		}
	}
	assert.True(t, sawAppInfo)
	assert.False(t, sawPATOnNoisyPID, "second section on the same PID should have been suppressed by the skip set")
}

func TestDemuxerPATThenPMT(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(wrapInPacket(0x0000, 0, buildPATSection()))
	buf.Write(wrapInPacket(0x0100, 0, buildPMTSection()))

	d := NewDemuxer(&buf, DemuxerOptHidePacketSeen())
	var pmt *PMTData
	for {
		ev, err := d.NextEvent()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		if ev.Kind == EventPMTUpdated {
			pmt = ev.PMT
		}
	}
	require.NotNil(t, pmt)
	assert.Equal(t, uint16(0x0101), pmt.PCRPID)
	require.Len(t, pmt.ElementaryStreams, 1)
	assert.Equal(t, uint8(0x1b), pmt.ElementaryStreams[0].StreamType)
	assert.Equal(t, uint16(0x0101), pmt.ElementaryStreams[0].PID)
}

// buildLargePMTSection assembles a PMT section carrying nStreams elementary
// streams, made deliberately larger than one packet's 183-byte payload
// capacity so it must be reassembled across two TS packets.
func buildLargePMTSection(nStreams int) []byte {
	syntaxAndFixed := []byte{
		0x00, 0x01, // program_number
		0xc3,       // version=1, current_next=1
		0x00, 0x00, // section_number, last_section_number
		0xe1, 0x00, // PCR_PID = 0x0100
		0xf0, 0x00, // program_info_length = 0
	}
	full := append([]byte{}, syntaxAndFixed...)
	for i := 0; i < nStreams; i++ {
		pid := uint16(0x0200 + i)
		full = append(full,
			0x1b,
			0xe0|byte(pid>>8&0x1f), byte(pid),
			0xf0, 0x00,
		)
	}
	sectionLength := len(full) + 4
	b := []byte{0x02, 0x80 | byte(sectionLength>>8&0x0f), byte(sectionLength)}
	b = append(b, full...)
	crc := crc32MPEG(b)
	b = append(b, byte(crc>>24), byte(crc>>16), byte(crc>>8), byte(crc))
	return b
}

func TestDemuxerSplitSectionAcrossTwoPackets(t *testing.T) {
	section := buildLargePMTSection(40) // comfortably over 183 bytes
	require.Greater(t, len(section), PacketSize-4-1)

	first := make([]byte, PacketSize)
	first[0] = syncByte
	first[1] = 0x40 // PUSI
	first[2] = 0x00
	first[3] = 0b01 << 4
	first[4] = 0x00 // pointer_field = 0
	firstChunkLen := copy(first[5:], section)

	second := make([]byte, PacketSize)
	second[0] = syncByte
	second[1] = 0x00 // PUSI clear: continuation
	second[2] = 0x00
	second[3] = 0b01<<4 | 0x01
	copy(second[4:], section[firstChunkLen:])
	for i := 4 + len(section) - firstChunkLen; i < PacketSize; i++ {
		second[i] = 0xff
	}

	var buf bytes.Buffer
	buf.Write(first)
	buf.Write(second)

	d := NewDemuxer(&buf, DemuxerOptHidePacketSeen())
	var pmtCount int
	for {
		ev, err := d.NextEvent()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		if ev.Kind == EventPMTUpdated {
			pmtCount++
			assert.Len(t, ev.PMT.ElementaryStreams, 40)
		}
	}
	assert.Equal(t, 1, pmtCount)
}

func TestDemuxerStrictModeReturnsErrorOnCRCFailure(t *testing.T) {
	section := buildPATSection()
	section[len(section)-1] ^= 0xff // corrupt CRC

	d := NewDemuxer(bytes.NewReader(wrapInPacket(0x0000, 0, section)), DemuxerOptStrict())
	var sawErr bool
	for {
		_, err := d.NextEvent()
		if err == io.EOF {
			break
		}
		if err != nil {
			sawErr = true
			break
		}
	}
	assert.True(t, sawErr)
}

func TestDemuxerLenientModeStillDecodesOnCRCFailure(t *testing.T) {
	section := buildPATSection()
	section[len(section)-1] ^= 0xff // corrupt CRC, body untouched

	d := NewDemuxer(bytes.NewReader(wrapInPacket(0x0000, 0, section)), DemuxerOptHidePacketSeen())
	var sawCRCFailure, sawPAT bool
	for {
		ev, err := d.NextEvent()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		switch ev.Kind {
		case EventCRCFailure:
			sawCRCFailure = true
		case EventPATUpdated:
			sawPAT = true
			require.NotNil(t, ev.PAT)
			assert.Equal(t, uint16(0x0100), ev.PAT.Programs[0].PID)
		}
	}
	assert.True(t, sawCRCFailure)
	assert.True(t, sawPAT)
}

// buildPATSectionNotCurrent is buildPATSection with
// current_next_indicator cleared, CRC recomputed over the modified bytes.
func buildPATSectionNotCurrent() []byte {
	b := buildPATSection()
	b = b[:len(b)-4] // drop the old CRC
	b[5] &^= 0x01    // clear current_next_indicator, keep version bits
	crc := crc32MPEG(b)
	return append(b, byte(crc>>24), byte(crc>>16), byte(crc>>8), byte(crc))
}

func TestDemuxerSkipsNotCurrentSection(t *testing.T) {
	d := NewDemuxer(bytes.NewReader(wrapInPacket(0x0000, 0, buildPATSectionNotCurrent())), DemuxerOptHidePacketSeen())

	var sawPAT bool
	for {
		ev, err := d.NextEvent()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		if ev.Kind == EventPATUpdated {
			sawPAT = true
		}
	}
	assert.False(t, sawPAT)
	assert.Empty(t, d.Model().PAT)
}

func TestDemuxerNotCurrentSectionDoesNotOverwriteModel(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(wrapInPacket(0x0000, 0, buildPATSection()))
	buf.Write(wrapInPacket(0x0000, 1, buildPATSectionNotCurrent()))

	d := NewDemuxer(&buf, DemuxerOptHidePacketSeen())
	for {
		_, err := d.NextEvent()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
	}

	pat, ok := d.Model().PAT[0x0000]
	require.True(t, ok)
	require.NotNil(t, pat)
	assert.Equal(t, uint16(0x0100), pat.Programs[0].PID)
}

func TestDemuxerFlushesIncompleteSectionAtEOF(t *testing.T) {
	section := buildLargePMTSection(40)
	first := make([]byte, PacketSize)
	first[0] = syncByte
	first[1] = 0x40 // PUSI
	first[2] = 0x00
	first[3] = 0b01 << 4
	first[4] = 0x00 // pointer_field = 0
	copy(first[5:], section)
	// Deliberately do not send the continuation packet: the stream ends
	// mid-section.

	d := NewDemuxer(bytes.NewReader(first), DemuxerOptHidePacketSeen())
	var sawIncomplete bool
	for {
		ev, err := d.NextEvent()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		if ev.Kind == EventIncomplete {
			sawIncomplete = true
			assert.Equal(t, uint16(0x0000), ev.PID)
		}
	}
	assert.True(t, sawIncomplete)
}

func TestDemuxerPESContinuationDoesNotTriggerOrphanContinuation(t *testing.T) {
	const pesPID = 0x0100

	pesStart := make([]byte, PacketSize)
	pesStart[0] = syncByte
	pesStart[1] = 0x40 | byte(pesPID>>8&0x1f) // PUSI
	pesStart[2] = byte(pesPID & 0xff)
	pesStart[3] = 0b01 << 4
	copy(pesStart[4:], []byte{0x00, 0x00, 0x01, 0xe0, 0x00, 0x00})

	pesContinuation := make([]byte, PacketSize)
	pesContinuation[0] = syncByte
	pesContinuation[1] = byte(pesPID >> 8 & 0x1f) // PUSI clear
	pesContinuation[2] = byte(pesPID & 0xff)
	pesContinuation[3] = 0b01<<4 | 0x01
	for i := 4; i < PacketSize; i++ {
		pesContinuation[i] = 0xaa // arbitrary ES bytes
	}

	var buf bytes.Buffer
	buf.Write(pesStart)
	buf.Write(pesContinuation)

	d := NewDemuxer(&buf, DemuxerOptHidePacketSeen())
	var sawOrphan bool
	for {
		ev, err := d.NextEvent()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		if ev.Kind == EventOrphanContinuation {
			sawOrphan = true
		}
	}
	assert.False(t, sawOrphan)
}

func TestDemuxerTargetPIDsSkipsOthers(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(wrapInPacket(0x0000, 0, buildPATSection()))
	buf.Write(wrapInPacket(0x0200, 0, buildPATSection()))

	d := NewDemuxer(&buf, DemuxerOptTargetPIDs(0x0200), DemuxerOptHidePacketSeen())
	var pats []uint16
	for {
		ev, err := d.NextEvent()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		if ev.Kind == EventPATUpdated {
			pats = append(pats, ev.PID)
		}
	}
	assert.Equal(t, []uint16{0x0200}, pats)
}
