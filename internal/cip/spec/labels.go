package spec

import (
	"fmt"
	"strings"

	"github.com/tturner/cipwire/internal/cip/protocol"
)

type classLabel struct {
	service uint8
	class   uint16
}

// Vendor-specific service codes (0x4B-0x5B) mean different things per class.
var contextualLabels = map[classLabel]string{
	{0x4B, CIPClassEnergyBase}:        "Energy_Start_Metering",
	{0x4B, CIPClassFileObject}:        "Initiate_Upload",
	{0x4B, CIPClassModbus}:            "Modbus_Read_Discrete_Inputs",
	{0x4B, CIPClassMotionAxis}:        "Motion_Get_Axis_Attributes_List",
	{0x4B, CIPClassSafetyValidator}:   "Safety_Reset_Error_Counters",
	{0x4B, CIPClassPCCCObject}:        "Execute_PCCC",
	{0x4C, CIPClassEnergyBase}:        "Energy_Stop_Metering",
	{0x4C, CIPClassFileObject}:        "Initiate_Download",
	{0x4C, CIPClassModbus}:            "Modbus_Read_Coils",
	{0x4C, CIPClassMotionAxis}:        "Motion_Set_Axis_Attributes_List",
	{0x4C, CIPClassSymbolObject}:      "Read_Tag",
	{0x4C, CIPClassTemplateObject}:    "Template_Read",
	{0x4D, CIPClassFileObject}:        "Initiate_Partial_Read",
	{0x4D, CIPClassModbus}:            "Modbus_Read_Input_Registers",
	{0x4D, CIPClassSymbolObject}:      "Write_Tag",
	{0x4E, CIPClassConnectionManager}: "Forward_Close",
	{0x4E, CIPClassFileObject}:        "Initiate_Partial_Write",
	{0x4E, CIPClassModbus}:            "Modbus_Read_Holding_Registers",
	{0x4F, CIPClassFileObject}:        "Upload_Transfer",
	{0x4F, CIPClassModbus}:            "Modbus_Write_Coils",
	{0x50, CIPClassFileObject}:        "Download_Transfer",
	{0x50, CIPClassModbus}:            "Modbus_Write_Holding_Registers",
	{0x50, CIPClassMotionAxis}:        "Motion_Get_Motor_Test_Data",
	{0x51, CIPClassFileObject}:        "Clear_File",
	{0x51, CIPClassModbus}:            "Modbus_Passthrough",
	{0x52, CIPClassConnectionManager}: "Unconnected_Send",
	{0x52, CIPClassSymbolObject}:      "Read_Tag_Fragmented",
	{0x52, CIPClassTemplateObject}:    "Read_Tag_Fragmented",
	{0x52, CIPClassMotionAxis}:        "Motion_Get_Inertia_Test_Data",
	{0x53, CIPClassSymbolObject}:      "Write_Tag_Fragmented",
	{0x54, CIPClassConnectionManager}: "Forward_Open",
	{0x54, CIPClassMotionAxis}:        "Motion_Get_Hookup_Test_Data",
	{0x54, CIPClassSafetySupervisor}:  "Safety_Reset",
}

// LabelService returns a contextual label for a service code. Object class
// context is needed because vendor-specific codes are ambiguous without it.
// A symbolic (tag) path has class 0 and resolves to the Symbol object.
func LabelService(service protocol.ServiceCode, class uint16, isResponse bool) (string, bool) {
	code := uint8(service.Base())
	label := ServiceName(service.Base())
	if code >= 0x4B && code <= 0x5B {
		lookup := class
		if lookup == 0 {
			lookup = CIPClassSymbolObject
		}
		if name, ok := contextualLabels[classLabel{code, lookup}]; ok {
			label = name
		} else if code <= 0x54 {
			label = fmt.Sprintf("Unknown(0x%02X)", code)
		}
	}
	known := !IsUnknownServiceLabel(label)
	if isResponse || service.IsReply() {
		label += "_Response"
	}
	return label, known
}

// LabelPath labels a request addressed by a padded routing path. Paths that
// are not logical fall back to class 0.
func LabelPath(service protocol.ServiceCode, path []byte, isResponse bool) (string, bool) {
	lp, err := protocol.ParseLogicalPath(path)
	if err != nil {
		return LabelService(service, 0, isResponse)
	}
	return LabelService(service, lp.Class, isResponse)
}

// IsUnknownServiceLabel reports if the label is an Unknown placeholder.
func IsUnknownServiceLabel(label string) bool {
	return strings.HasPrefix(label, "Unknown(")
}
