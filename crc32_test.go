package tsdemux

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCRC32MPEGKnownVector(t *testing.T) {
	// "123456789" is the standard CRC self-check string; the non-reflected
	// CRC-32/MPEG-2 variant (poly 0x04C11DB7, init 0xFFFFFFFF, no xorout) of
	// it is well known to be 0x0376E6E7.
	assert.Equal(t, uint32(0x0376e6e7), crc32MPEG([]byte("123456789")))
}

func TestCRC32MPEGEmpty(t *testing.T) {
	assert.Equal(t, uint32(0xffffffff), crc32MPEG(nil))
}

func TestBEUint32(t *testing.T) {
	assert.Equal(t, uint32(0x01020304), beUint32([]byte{0x01, 0x02, 0x03, 0x04}))
}
