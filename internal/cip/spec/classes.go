package spec

import "fmt"

// CIP object class codes referenced by the registry and labels.
const (
	CIPClassIdentityObject    uint16 = 0x0001
	CIPClassMessageRouter     uint16 = 0x0002
	CIPClassAssembly          uint16 = 0x0004
	CIPClassConnectionManager uint16 = 0x0006
	CIPClassFileObject        uint16 = 0x0037
	CIPClassEnergyBase        uint16 = 0x004E
	CIPClassModbus            uint16 = 0x0044
	CIPClassMotionAxis        uint16 = 0x0042
	CIPClassSafetySupervisor  uint16 = 0x0039
	CIPClassSafetyValidator   uint16 = 0x003A
	CIPClassPCCCObject        uint16 = 0x0067
	CIPClassSymbolObject      uint16 = 0x006B
	CIPClassTemplateObject    uint16 = 0x006C
	CIPClassPortObject        uint16 = 0x00F4
	CIPClassTCPIPInterface    uint16 = 0x00F5
	CIPClassEthernetLink      uint16 = 0x00F6
)

var cipClassNames = map[uint16]string{
	CIPClassIdentityObject:    "Identity",
	CIPClassMessageRouter:     "Message_Router",
	CIPClassAssembly:          "Assembly",
	CIPClassConnectionManager: "Connection_Manager",
	CIPClassFileObject:        "File",
	CIPClassEnergyBase:        "Base_Energy",
	CIPClassModbus:            "Modbus",
	CIPClassMotionAxis:        "Motion_Axis",
	CIPClassSafetySupervisor:  "Safety_Supervisor",
	CIPClassSafetyValidator:   "Safety_Validator",
	CIPClassPCCCObject:        "PCCC",
	CIPClassSymbolObject:      "Symbol",
	CIPClassTemplateObject:    "Template",
	CIPClassPortObject:        "Port",
	CIPClassTCPIPInterface:    "TCP/IP_Interface",
	CIPClassEthernetLink:      "Ethernet_Link",
}

// ClassName returns a display name for a CIP object class.
func ClassName(class uint16) string {
	if name, ok := cipClassNames[class]; ok {
		return name
	}
	return fmt.Sprintf("Class(0x%04X)", class)
}

// IsKnownClass reports whether class has a registered name.
func IsKnownClass(class uint16) bool {
	_, ok := cipClassNames[class]
	return ok
}
