package tsdemux

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildPATSection assembles a single, well-formed PAT section carrying one
// program plus the network PID entry, CRC included.
func buildPATSection() []byte {
	b := []byte{
		0x00,       // table_id
		0x80, 0x11, // syntax indicator + section_length=17
		0x00, 0x01, // transport_stream_id
		0xc3,       // version=1, current_next=1
		0x00,       // section_number
		0x00,       // last_section_number
		0x00, 0x00, // program_number 0 (network PID entry)
		0xe0, 0x10, // reserved|PID = 0x0010
		0x00, 0x01, // program_number 1
		0xe1, 0x00, // reserved|PID = 0x0100
	}
	crc := crc32MPEG(b)
	b = append(b, byte(crc>>24), byte(crc>>16), byte(crc>>8), byte(crc))
	return b
}

func TestCutSectionPAT(t *testing.T) {
	b := buildPATSection()
	ds, consumed, ok := cutSection(b)
	require.True(t, ok)
	assert.Equal(t, len(b), consumed)
	assert.Equal(t, TableIDPAT, ds.Header.TableID)
	require.NotNil(t, ds.Syntax)
	assert.True(t, ds.CRCValid)
}

func TestCutSectionIncomplete(t *testing.T) {
	b := buildPATSection()
	_, _, ok := cutSection(b[:len(b)-1])
	assert.False(t, ok)
}

func TestCutSectionCRCFailure(t *testing.T) {
	b := buildPATSection()
	b[len(b)-1] ^= 0xff // corrupt one CRC byte
	ds, _, ok := cutSection(b)
	require.True(t, ok)
	assert.False(t, ds.CRCValid)
}

func TestParsePAT(t *testing.T) {
	b := buildPATSection()
	ds, _, ok := cutSection(b)
	require.True(t, ok)
	require.NotNil(t, ds.Syntax)

	pat := parsePAT(*ds.Syntax, ds.Body)
	assert.Equal(t, uint16(0x0001), pat.TransportStreamID)
	assert.Equal(t, uint8(1), pat.Version)
	require.True(t, pat.HasNetworkPID)
	assert.Equal(t, uint16(0x0010), pat.NetworkPID)
	require.Len(t, pat.Programs, 1)
	assert.Equal(t, uint16(1), pat.Programs[0].ProgramNumber)
	assert.Equal(t, uint16(0x0100), pat.Programs[0].PID)
}

func TestCutSectionShortFormTDT(t *testing.T) {
	// TDT: no syntax section, no CRC. section_length = 5 (just utc_time).
	b := []byte{TableIDTDT, 0x00, 0x05, 0xea, 0x29, 0x08, 0x30, 0x15}
	ds, consumed, ok := cutSection(b)
	require.True(t, ok)
	assert.Equal(t, len(b), consumed)
	assert.Nil(t, ds.Syntax)
	assert.True(t, ds.CRCValid)

	tdt := parseTDT(ds.Body)
	assert.False(t, tdt.Malformed)
}
