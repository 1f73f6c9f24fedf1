package tsdemux

import "time"

// EITData is the decoded Event Information Table for one service: the
// event_id -> event map for either the present/following subtable or one
// schedule subtable, depending on which table_id carried the section.
type EITData struct {
	ServiceID         uint16
	TransportStreamID uint16
	OriginalNetworkID uint16
	Version           uint8
	Actual            bool
	Schedule          bool
	SegmentLastSectionNumber uint8
	LastTableID       uint8
	Events            []EITDataEvent
}

type EITDataEvent struct {
	EventID        uint16
	StartTime      time.Time
	StartTimeMalformed bool
	Duration       time.Duration
	DurationMalformed bool
	RunningStatus  uint8
	FreeCAMode     bool
	Descriptors    []Descriptor
	DescriptorOverflow bool
}

// parseEIT decodes an EIT section body: transport_stream_id:16,
// original_network_id:16, segment_last_section_number:8, last_table_id:8,
// then a repeated event_id:16, start_time:40 (MJD+BCD), duration:24 (BCD),
// running_status:3, free_CA_mode:1, descriptors_loop_length:12,
// descriptors.
func parseEIT(tableID uint8, syntax longFormSyntax, body []byte) *EITData {
	d := &EITData{
		ServiceID: syntax.TableIDExtension,
		Version:   syntax.VersionNumber,
		Actual:    tableID == TableIDEITActualPresentFollowing || (tableID >= 0x50 && tableID <= 0x5f),
		Schedule:  tableID >= 0x50 && tableID <= 0x6f,
	}
	if len(body) < 6 {
		return d
	}
	d.TransportStreamID = uint16(body[0])<<8 | uint16(body[1])
	d.OriginalNetworkID = uint16(body[2])<<8 | uint16(body[3])
	d.SegmentLastSectionNumber = body[4]
	d.LastTableID = body[5]

	offset := 6
	for offset+12 <= len(body) {
		eventID := uint16(body[offset])<<8 | uint16(body[offset+1])
		startTime, startMalformed := dvbTime(body[offset+2 : offset+7])
		duration, durationMalformed := dvbDuration(body[offset+7 : offset+10])
		flags := body[offset+10]
		loopLength := int(body[offset+10]&0x0f)<<8 | int(body[offset+11])
		offset += 12
		if offset+loopLength > len(body) {
			loopLength = len(body) - offset
		}
		descs, overflow := parseDescriptors(body[offset:], loopLength)
		d.Events = append(d.Events, EITDataEvent{
			EventID:            eventID,
			StartTime:          startTime,
			StartTimeMalformed: startMalformed,
			Duration:           duration,
			DurationMalformed:  durationMalformed,
			RunningStatus:      (flags >> 5) & 0x07,
			FreeCAMode:         flags&0x10 != 0,
			Descriptors:        descs,
			DescriptorOverflow: overflow,
		})
		offset += loopLength
	}
	return d
}
