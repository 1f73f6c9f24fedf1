package tsdemux

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDescriptorsService(t *testing.T) {
	provider := "Provider"
	name := "ServiceName"
	body := []byte{0x01} // service_type
	body = append(body, byte(len(provider)))
	body = append(body, []byte(provider)...)
	body = append(body, byte(len(name)))
	body = append(body, []byte(name)...)

	entry := []byte{DescriptorTagService, byte(len(body))}
	entry = append(entry, body...)

	descs, overflow := parseDescriptors(entry, len(entry))
	require.False(t, overflow)
	require.Len(t, descs, 1)
	require.NotNil(t, descs[0].Service)
	assert.Equal(t, uint8(0x01), descs[0].Service.Type)
	assert.Equal(t, provider, descs[0].Service.ProviderName)
	assert.Equal(t, name, descs[0].Service.Name)
}

func TestParseDescriptorsOverflow(t *testing.T) {
	// Declares a 10-byte value but the loop only contains 2 bytes of it.
	entry := []byte{DescriptorTagService, 10, 0x01, 0x02}
	descs, overflow := parseDescriptors(entry, len(entry))
	assert.True(t, overflow)
	assert.Empty(t, descs)
}

func TestParseDescriptorShortEvent(t *testing.T) {
	body := []byte("eng")
	body = append(body, byte(len("Title")))
	body = append(body, []byte("Title")...)
	body = append(body, byte(len("Summary")))
	body = append(body, []byte("Summary")...)

	entry := []byte{DescriptorTagShortEvent, byte(len(body))}
	entry = append(entry, body...)

	descs, overflow := parseDescriptors(entry, len(entry))
	require.False(t, overflow)
	require.Len(t, descs, 1)
	require.NotNil(t, descs[0].ShortEvent)
	assert.Equal(t, "eng", descs[0].ShortEvent.Language)
	assert.Equal(t, "Title", descs[0].ShortEvent.Name)
	assert.Equal(t, "Summary", descs[0].ShortEvent.Text)
}

func TestParseDescriptorsUnknownTagKeptRaw(t *testing.T) {
	entry := []byte{0x7f, 2, 0xaa, 0xbb}
	descs, overflow := parseDescriptors(entry, len(entry))
	require.False(t, overflow)
	require.Len(t, descs, 1)
	assert.Equal(t, uint8(0x7f), descs[0].Tag)
	assert.Equal(t, []byte{0xaa, 0xbb}, descs[0].Raw)
}
