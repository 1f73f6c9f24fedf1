package tsdemux

// PATData is the decoded Program Association Table for one transport
// stream: the program_number -> PMT PID map, plus the network PID when
// program_number 0 is present.
type PATData struct {
	TransportStreamID uint16
	Version           uint8
	Programs          []PATProgram
	NetworkPID        uint16
	HasNetworkPID     bool
}

type PATProgram struct {
	ProgramNumber uint16
	PID           uint16
}

// parsePAT decodes a PAT section body (the bytes strictly between the
// long-form syntax header and the trailing CRC_32): a repeated
// program_number:16, reserved:3, PID:13 entry.
func parsePAT(syntax longFormSyntax, body []byte) *PATData {
	d := &PATData{
		TransportStreamID: syntax.TableIDExtension,
		Version:           syntax.VersionNumber,
	}
	for offset := 0; offset+4 <= len(body); offset += 4 {
		programNumber := uint16(body[offset])<<8 | uint16(body[offset+1])
		pid := uint16(body[offset+2]&0x1f)<<8 | uint16(body[offset+3])
		if programNumber == 0 {
			d.NetworkPID = pid
			d.HasNetworkPID = true
			continue
		}
		d.Programs = append(d.Programs, PATProgram{ProgramNumber: programNumber, PID: pid})
	}
	return d
}
