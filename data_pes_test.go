package tsdemux

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pts90kHz encodes a 33-bit 90 kHz timestamp into the 5-byte marker-bit
// layout shared by PTS, DTS, and (as the base) ESCR, prefixed with the
// given 4-bit prefix ('0010' for PTS-only, '0011'/'0001' for PTS+DTS).
func pts90kHz(prefix byte, v uint64) []byte {
	b := make([]byte, 5)
	b[0] = prefix<<4 | byte(v>>29&0x0e) | 0x01
	b[1] = byte(v >> 22)
	b[2] = byte(v>>14&0xfe) | 0x01
	b[3] = byte(v >> 7)
	b[4] = byte(v<<1&0xfe) | 0x01
	return b
}

func TestParsePESWithPTSOnly(t *testing.T) {
	const pts = uint64(12345)
	optional := []byte{0x80, 0x80, 0x05} // '10' marker, PTS_DTS_flags=10, rest=0, header_data_length=5
	optional = append(optional, pts90kHz(0x02, pts)...)

	b := []byte{0x00, 0x00, 0x01, 0xe0, 0x00, 0x00} // start code, stream_id=0xe0 (video), packet_length=0
	b = append(b, optional...)
	b = append(b, []byte("esdata")...)

	pes := parsePES(b)
	require.NotNil(t, pes)
	assert.Equal(t, uint8(0xe0), pes.StreamID)
	assert.True(t, pes.HasOptionalHeader)
	require.NotNil(t, pes.PTS)
	assert.Equal(t, int64(pts)*300, pes.PTS.Value())
	assert.Nil(t, pes.DTS)
	assert.Equal(t, []byte("esdata"), pes.Data)
}

func TestParsePESWithPTSAndDTS(t *testing.T) {
	const pts, dts = uint64(90000), uint64(45000)
	optional := []byte{0x80, 0xc0, 0x0a} // PTS_DTS_flags=11, header_data_length=10
	optional = append(optional, pts90kHz(0x03, pts)...)
	optional = append(optional, pts90kHz(0x01, dts)...)

	b := []byte{0x00, 0x00, 0x01, 0xe0, 0x00, 0x00}
	b = append(b, optional...)

	pes := parsePES(b)
	require.NotNil(t, pes)
	require.NotNil(t, pes.PTS)
	require.NotNil(t, pes.DTS)
	assert.Equal(t, int64(pts)*300, pes.PTS.Value())
	assert.Equal(t, int64(dts)*300, pes.DTS.Value())
}

func TestParsePESStreamWithNoOptionalHeader(t *testing.T) {
	b := []byte{0x00, 0x00, 0x01, streamIDPaddingStream, 0x00, 0x03, 0xff, 0xff, 0xff}
	pes := parsePES(b)
	require.NotNil(t, pes)
	assert.False(t, pes.HasOptionalHeader)
	assert.Equal(t, []byte{0xff, 0xff, 0xff}, pes.Data)
}

func TestParsePESRejectsBadStartCode(t *testing.T) {
	b := []byte{0x00, 0x00, 0x02, 0xe0, 0x00, 0x00}
	assert.Nil(t, parsePES(b))
}

func TestParsePESTooShort(t *testing.T) {
	assert.Nil(t, parsePES([]byte{0x00, 0x00, 0x01}))
}
