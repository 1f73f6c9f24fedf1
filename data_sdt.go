package tsdemux

// SDTData is the decoded Service Description Table for one transport
// stream: service_id -> service descriptor map.
type SDTData struct {
	TransportStreamID uint16
	OriginalNetworkID uint16
	Version           uint8
	Actual            bool
	Services          []SDTDataService
}

type SDTDataService struct {
	ServiceID             uint16
	EITScheduleFlag        bool
	EITPresentFollowingFlag bool
	RunningStatus          uint8
	FreeCAMode             bool
	Descriptors            []Descriptor
	DescriptorOverflow     bool
}

// parseSDT decodes an SDT section body: original_network_id:16,
// reserved:8, then a repeated service_id:16, reserved:6,
// EIT_schedule_flag:1, EIT_present_following_flag:1, running_status:3,
// free_CA_mode:1, descriptors_loop_length:12, descriptors.
func parseSDT(tableID uint8, syntax longFormSyntax, body []byte) *SDTData {
	d := &SDTData{
		TransportStreamID: syntax.TableIDExtension,
		Version:           syntax.VersionNumber,
		Actual:            tableID == TableIDSDTActual,
	}
	if len(body) < 3 {
		return d
	}
	d.OriginalNetworkID = uint16(body[0])<<8 | uint16(body[1])
	offset := 3 // skip reserved_future_use byte

	for offset+5 <= len(body) {
		serviceID := uint16(body[offset])<<8 | uint16(body[offset+1])
		eitFlags := body[offset+2]
		statusByte := body[offset+3]
		loopLength := int(statusByte&0x0f)<<8 | int(body[offset+4])
		offset += 5
		if offset+loopLength > len(body) {
			loopLength = len(body) - offset
		}
		descs, overflow := parseDescriptors(body[offset:], loopLength)
		d.Services = append(d.Services, SDTDataService{
			ServiceID:               serviceID,
			EITScheduleFlag:         eitFlags&0x02 != 0,
			EITPresentFollowingFlag: eitFlags&0x01 != 0,
			RunningStatus:           (statusByte >> 5) & 0x07,
			FreeCAMode:              statusByte&0x10 != 0,
			Descriptors:             descs,
			DescriptorOverflow:      overflow,
		})
		offset += loopLength
	}
	return d
}
