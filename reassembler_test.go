package tsdemux

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSectionReassemblerSplitAcrossTwoFeeds(t *testing.T) {
	section := buildPATSection()

	r := newSectionReassembler()

	// First feed: a PUSI payload whose pointer_field is 0 and whose head is
	// only the first 10 bytes of the section - everything this "packet"
	// had room for.
	res1 := r.feed(0x0000, true, append([]byte{0x00}, section[:10]...))
	assert.Empty(t, res1.Sections)
	assert.False(t, res1.OrphanContinuation)

	// Second feed: the rest of the section, as a continuation payload.
	res2 := r.feed(0x0000, false, section[10:])
	require.Len(t, res2.Sections, 1)
	assert.Equal(t, TableIDPAT, res2.Sections[0].Header.TableID)
	assert.True(t, res2.Sections[0].CRCValid)
}

func TestSectionReassemblerOrphanContinuation(t *testing.T) {
	r := newSectionReassembler()
	res := r.feed(0x0100, false, []byte{1, 2, 3})
	assert.True(t, res.OrphanContinuation)
	assert.Empty(t, res.Sections)
}

func TestSectionReassemblerMultipleSectionsInOneBuffer(t *testing.T) {
	section := buildPATSection()
	payload := append([]byte{0x00}, section...)
	payload = append(payload, section...)

	r := newSectionReassembler()
	res := r.feed(0x0000, true, payload)
	require.Len(t, res.Sections, 2)
}

func TestSectionReassemblerIncompleteFlaggedOnNewPUSI(t *testing.T) {
	section := buildPATSection()

	r := newSectionReassembler()
	r.feed(0x0000, true, append([]byte{0x00}, section[:10]...))

	// A new section starts (pointer_field 0) before the first one ever
	// completed: the leftover bytes never formed a full section.
	res := r.feed(0x0000, true, append([]byte{0x00}, section...))
	assert.True(t, res.Incomplete)
	require.Len(t, res.Sections, 1)
}
