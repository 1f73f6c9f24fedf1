package tsdemux

// Table IDs this package recognizes. Anything else surfaces as an Unknown
// event carrying the raw table_id.
const (
	TableIDPAT uint8 = 0x00
	TableIDPMT uint8 = 0x02
	TableIDSDTActual uint8 = 0x42
	TableIDSDTOther  uint8 = 0x46
	TableIDEITActualPresentFollowing uint8 = 0x4e
	TableIDEITOtherPresentFollowing  uint8 = 0x4f
	TableIDTDT uint8 = 0x70
	TableIDTOT uint8 = 0x73
	TableIDNIT uint8 = 0x40
	TableIDNITOther uint8 = 0x41
	TableIDApplicationInformation uint8 = 0x74
)

// eitTableID reports whether id is an EIT table_id: present/following
// (actual 0x4e, other 0x4f) or either schedule range (actual 0x50-0x5f,
// other 0x60-0x6f), which all share the EIT payload layout.
func eitTableID(id uint8) bool {
	switch {
	case id == TableIDEITActualPresentFollowing || id == TableIDEITOtherPresentFollowing:
		return true
	case id >= 0x50 && id <= 0x6f:
		return true
	}
	return false
}

// sectionHeader is the common 3-byte prefix of every PSI/SI section:
// table_id:8, section_syntax_indicator:1, reserved:3, section_length:12.
type sectionHeader struct {
	TableID              uint8
	SectionSyntaxIndicator bool
	SectionLength        int
}

// parseSectionHeader reads the 3-byte section header. SectionLength is the
// number of bytes following the header (i.e. the full section is
// 3+SectionLength bytes).
func parseSectionHeader(b []byte) sectionHeader {
	return sectionHeader{
		TableID:                b[0],
		SectionSyntaxIndicator: b[1]&0x80 != 0,
		SectionLength:          int(b[1]&0x0f)<<8 | int(b[2]),
	}
}

// longFormSyntax is the syntax section following the header when
// section_syntax_indicator is set: table_id_extension:16, reserved:2,
// version_number:5, current_next_indicator:1, section_number:8,
// last_section_number:8. Present in PAT, PMT, SDT, EIT, NIT; absent
// (short form) in TDT and TOT.
type longFormSyntax struct {
	TableIDExtension    uint16
	VersionNumber       uint8
	CurrentNextIndicator bool
	SectionNumber       uint8
	LastSectionNumber   uint8
}

func parseLongFormSyntax(b []byte) longFormSyntax {
	return longFormSyntax{
		TableIDExtension:     uint16(b[0])<<8 | uint16(b[1]),
		VersionNumber:        (b[2] >> 1) & 0x1f,
		CurrentNextIndicator: b[2]&0x01 != 0,
		SectionNumber:        b[3],
		LastSectionNumber:    b[4],
	}
}

// decodedSection is the result of splitting and CRC-checking one section
// out of a reassembled buffer, ready to be handed to a table-specific
// decoder. Body excludes the section header and, for long-form sections,
// excludes the trailing CRC_32.
type decodedSection struct {
	Header   sectionHeader
	Syntax   *longFormSyntax
	Body     []byte
	CRCValid bool
	ExpectedCRC, GotCRC uint32
}

// cutSection extracts the first complete section from b, returning the
// section and the number of bytes it occupied (3+SectionLength), or ok=false
// if b does not yet contain a full section.
func cutSection(b []byte) (ds decodedSection, consumed int, ok bool) {
	if len(b) < 3 {
		return decodedSection{}, 0, false
	}
	h := parseSectionHeader(b)
	total := 3 + h.SectionLength
	if len(b) < total {
		return decodedSection{}, 0, false
	}

	ds.Header = h
	full := b[:total]

	if !h.SectionSyntaxIndicator {
		// Short form (TDT, TOT): no syntax section, no CRC check.
		ds.Body = full[3:total]
		ds.CRCValid = true
		return ds, total, true
	}

	if h.SectionLength < 5+4 {
		// Too short to hold even the long-form syntax fields plus CRC.
		ds.Body = nil
		ds.CRCValid = false
		return ds, total, true
	}

	syntax := parseLongFormSyntax(full[3:8])
	ds.Syntax = &syntax
	ds.Body = full[8 : total-4]
	ds.GotCRC = beUint32(full[total-4 : total])
	ds.ExpectedCRC = crc32MPEG(full[:total-4])
	ds.CRCValid = ds.GotCRC == ds.ExpectedCRC

	return ds, total, true
}
