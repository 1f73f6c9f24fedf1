package tsdemux

// PMTData is the decoded Program Map Table for one program: its PCR PID,
// program-level descriptors, and elementary stream list.
type PMTData struct {
	ProgramNumber uint16
	Version       uint8
	PCRPID        uint16
	Descriptors   []Descriptor
	ElementaryStreams []PMTElementaryStream

	DescriptorOverflow bool
}

type PMTElementaryStream struct {
	StreamType  uint8
	PID         uint16
	Descriptors []Descriptor

	DescriptorOverflow bool
}

// parsePMT decodes a PMT section body: PCR_PID:13 (after 3 reserved bits),
// program_info_length:12 (after 4 reserved bits), program descriptors, then
// a repeated stream_type:8, PID:13, ES_info_length:12, ES descriptors.
func parsePMT(syntax longFormSyntax, body []byte) *PMTData {
	d := &PMTData{ProgramNumber: syntax.TableIDExtension, Version: syntax.VersionNumber}
	if len(body) < 4 {
		return d
	}
	d.PCRPID = uint16(body[0]&0x1f)<<8 | uint16(body[1])
	programInfoLength := int(body[2]&0x0f)<<8 | int(body[3])
	offset := 4
	if offset+programInfoLength > len(body) {
		programInfoLength = len(body) - offset
	}
	descs, overflow := parseDescriptors(body[offset:], programInfoLength)
	d.Descriptors = descs
	d.DescriptorOverflow = overflow
	offset += programInfoLength

	for offset+5 <= len(body) {
		streamType := body[offset]
		pid := uint16(body[offset+1]&0x1f)<<8 | uint16(body[offset+2])
		esInfoLength := int(body[offset+3]&0x0f)<<8 | int(body[offset+4])
		offset += 5
		if offset+esInfoLength > len(body) {
			esInfoLength = len(body) - offset
		}
		esDescs, esOverflow := parseDescriptors(body[offset:], esInfoLength)
		d.ElementaryStreams = append(d.ElementaryStreams, PMTElementaryStream{
			StreamType:         streamType,
			PID:                pid,
			Descriptors:        esDescs,
			DescriptorOverflow: esOverflow,
		})
		offset += esInfoLength
	}
	return d
}
