package spec

import (
	"testing"

	"github.com/tturner/cipwire/internal/cip/protocol"
)

func TestServiceName(t *testing.T) {
	tests := []struct {
		code     protocol.ServiceCode
		expected string
	}{
		{CIPServiceGetAttributeSingle, "Get_Attribute_Single"},
		{CIPServiceSetAttributeSingle, "Set_Attribute_Single"},
		{CIPServiceForwardOpen, "Forward_Open"},
		{protocol.ServiceCode(0xFF), "Unknown(0xFF)"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			result := ServiceName(tt.code)
			if result != tt.expected {
				t.Errorf("got %q, want %q", result, tt.expected)
			}
		})
	}
}

func TestIsKnownService(t *testing.T) {
	tests := []struct {
		code protocol.ServiceCode
		want bool
	}{
		{CIPServiceGetAttributeList, true},
		{CIPServiceGetAttributeList.Reply(), true},
		{CIPServiceLargeForwardOpen, true},
		{protocol.ServiceCode(0x12), false},
		{protocol.ServiceCode(0x7F), false},
	}
	for _, tt := range tests {
		if got := IsKnownService(tt.code); got != tt.want {
			t.Errorf("IsKnownService(0x%02X) = %v, want %v", uint8(tt.code), got, tt.want)
		}
	}
}
