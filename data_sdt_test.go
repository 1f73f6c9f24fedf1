package tsdemux

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSDT(t *testing.T) {
	provider := "BBC"
	name := "BBC One"
	serviceDesc := []byte{0x01} // service_type
	serviceDesc = append(serviceDesc, byte(len(provider)))
	serviceDesc = append(serviceDesc, []byte(provider)...)
	serviceDesc = append(serviceDesc, byte(len(name)))
	serviceDesc = append(serviceDesc, []byte(name)...)

	descEntry := []byte{DescriptorTagService, byte(len(serviceDesc))}
	descEntry = append(descEntry, serviceDesc...)

	// eitFlags: reserved(6)=0b111111, EIT_schedule=1, EIT_present_following=0
	eitFlags := byte(0xfe)
	// statusByte: running_status=4 (RUNNING), free_CA_mode=0, loop_length_hi=0
	statusByte := byte(4<<5) | byte(len(descEntry)>>8&0x0f)

	body := []byte{
		0x00, 0x01, // original_network_id
		0xff,                        // reserved_future_use
		0x00, 0x01,                  // service_id
		eitFlags,
		statusByte,
		byte(len(descEntry) & 0xff), // descriptors_loop_length low byte
	}
	body = append(body, descEntry...)

	sdt := parseSDT(TableIDSDTActual, longFormSyntax{TableIDExtension: 1}, body)
	assert.True(t, sdt.Actual)
	assert.Equal(t, uint16(1), sdt.OriginalNetworkID)
	require.Len(t, sdt.Services, 1)
	svc := sdt.Services[0]
	assert.Equal(t, uint16(1), svc.ServiceID)
	assert.True(t, svc.EITScheduleFlag)
	assert.False(t, svc.EITPresentFollowingFlag)
	assert.Equal(t, uint8(4), svc.RunningStatus)
	assert.False(t, svc.FreeCAMode)
	require.Len(t, svc.Descriptors, 1)
	require.NotNil(t, svc.Descriptors[0].Service)
	assert.Equal(t, provider, svc.Descriptors[0].Service.ProviderName)
	assert.Equal(t, name, svc.Descriptors[0].Service.Name)
}

func TestParseSDTOther(t *testing.T) {
	body := []byte{0x00, 0x02, 0x00}
	sdt := parseSDT(TableIDSDTOther, longFormSyntax{TableIDExtension: 9}, body)
	assert.False(t, sdt.Actual)
	assert.Equal(t, uint16(2), sdt.OriginalNetworkID)
	assert.Empty(t, sdt.Services)
}
