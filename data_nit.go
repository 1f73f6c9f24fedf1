package tsdemux

// NITData is a minimal decode of the Network Information Table: the
// network-level descriptor loop (typically a network_name descriptor) and
// the list of transport streams it describes, each with its own
// descriptor loop (typically service_list / delivery_system
// descriptors, kept raw since this package has no tuning-parameter
// decoders). NIT's PID (0x0010) is skipped by default alongside the other
// reserved PIDs, so this decoder only runs when a caller opts in.
type NITData struct {
	NetworkID   uint16
	Version     uint8
	Actual      bool
	Descriptors []Descriptor
	DescriptorOverflow bool
	TransportStreams []NITTransportStream
}

type NITTransportStream struct {
	TransportStreamID uint16
	OriginalNetworkID uint16
	Descriptors       []Descriptor
	DescriptorOverflow bool
}

// parseNIT decodes an NIT section body: reserved:4, network_descriptors_length:12,
// network descriptors, reserved:4, transport_stream_loop_length:12, then a
// repeated transport_stream_id:16, original_network_id:16,
// transport_descriptors_length:12 (after 4 reserved bits), descriptors.
func parseNIT(tableID uint8, syntax longFormSyntax, body []byte) *NITData {
	d := &NITData{NetworkID: syntax.TableIDExtension, Version: syntax.VersionNumber, Actual: tableID == TableIDNIT}
	if len(body) < 2 {
		return d
	}
	netDescLength := int(body[0]&0x0f)<<8 | int(body[1])
	offset := 2
	if offset+netDescLength > len(body) {
		netDescLength = len(body) - offset
	}
	descs, overflow := parseDescriptors(body[offset:], netDescLength)
	d.Descriptors = descs
	d.DescriptorOverflow = overflow
	offset += netDescLength

	if offset+2 > len(body) {
		return d
	}
	tsLoopLength := int(body[offset]&0x0f)<<8 | int(body[offset+1])
	offset += 2
	end := offset + tsLoopLength
	if end > len(body) {
		end = len(body)
	}
	for offset+6 <= end {
		tsID := uint16(body[offset])<<8 | uint16(body[offset+1])
		onID := uint16(body[offset+2])<<8 | uint16(body[offset+3])
		loopLength := int(body[offset+4]&0x0f)<<8 | int(body[offset+5])
		offset += 6
		if offset+loopLength > end {
			loopLength = end - offset
		}
		tsDescs, tsOverflow := parseDescriptors(body[offset:], loopLength)
		d.TransportStreams = append(d.TransportStreams, NITTransportStream{
			TransportStreamID:  tsID,
			OriginalNetworkID:  onID,
			Descriptors:        tsDescs,
			DescriptorOverflow: tsOverflow,
		})
		offset += loopLength
	}
	return d
}
