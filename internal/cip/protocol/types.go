package protocol

import (
	"fmt"
	"strconv"
	"strings"
)

// CIPDataType encodes CIP elementary data type codes as carried in Logix
// tag services.
type CIPDataType uint16

const (
	CIPTypeBOOL  CIPDataType = 0x00C1
	CIPTypeSINT  CIPDataType = 0x00C2
	CIPTypeINT   CIPDataType = 0x00C3
	CIPTypeDINT  CIPDataType = 0x00C4
	CIPTypeLINT  CIPDataType = 0x00C5
	CIPTypeREAL  CIPDataType = 0x00CA
	CIPTypeLREAL CIPDataType = 0x00CB
	CIPTypeSTR   CIPDataType = 0x00D0
	// CIPTypeStruct prefixes an abbreviated structure type; a 16-bit
	// structure handle follows it on the wire.
	CIPTypeStruct CIPDataType = 0x02A0
)

var cipTypeNames = map[CIPDataType]string{
	CIPTypeBOOL:   "BOOL",
	CIPTypeSINT:   "SINT",
	CIPTypeINT:    "INT",
	CIPTypeDINT:   "DINT",
	CIPTypeLINT:   "LINT",
	CIPTypeREAL:   "REAL",
	CIPTypeLREAL:  "LREAL",
	CIPTypeSTR:    "STRING",
	CIPTypeStruct: "STRUCT",
}

// CIPTypeName returns a display name for a CIP data type.
func CIPTypeName(dt CIPDataType) string {
	if name, ok := cipTypeNames[dt]; ok {
		return name
	}
	return fmt.Sprintf("UNKNOWN(0x%04X)", uint16(dt))
}

// CIPTypeCode returns the code for a type name, defaulting to DINT.
func CIPTypeCode(name string) CIPDataType {
	for code, n := range cipTypeNames {
		if n == name {
			return code
		}
	}
	return CIPTypeDINT
}

// ParseCIPDataType parses a CIP data type from hex or alias name.
func ParseCIPDataType(input string) (CIPDataType, error) {
	clean := strings.TrimSpace(input)
	if clean == "" {
		return 0, fmt.Errorf("data type is required")
	}
	if val, err := strconv.ParseUint(clean, 0, 16); err == nil {
		return CIPDataType(val), nil
	}
	upper := strings.ToUpper(clean)
	for code, n := range cipTypeNames {
		if n == upper {
			return code, nil
		}
	}
	return 0, fmt.Errorf("unsupported data type %q", input)
}
