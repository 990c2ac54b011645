package protocol

import (
	"fmt"
	"strings"
)

// GeneralStatus is the 8-bit general status of a Message Router reply.
type GeneralStatus uint8

// General status codes (CIP Vol 1, Appendix B).
const (
	StatusSuccess                  GeneralStatus = 0x00
	StatusConnectionFailure        GeneralStatus = 0x01
	StatusResourceUnavailable      GeneralStatus = 0x02
	StatusInvalidParameterValue    GeneralStatus = 0x03
	StatusPathSegmentError         GeneralStatus = 0x04
	StatusPathDestinationUnknown   GeneralStatus = 0x05
	StatusPartialTransfer          GeneralStatus = 0x06
	StatusConnectionLost           GeneralStatus = 0x07
	StatusServiceNotSupported      GeneralStatus = 0x08
	StatusInvalidAttributeValue    GeneralStatus = 0x09
	StatusAttributeListError       GeneralStatus = 0x0A
	StatusAlreadyInRequestedMode   GeneralStatus = 0x0B
	StatusObjectStateConflict      GeneralStatus = 0x0C
	StatusObjectAlreadyExists      GeneralStatus = 0x0D
	StatusAttributeNotSettable     GeneralStatus = 0x0E
	StatusPrivilegeViolation       GeneralStatus = 0x0F
	StatusDeviceStateConflict      GeneralStatus = 0x10
	StatusReplyDataTooLarge        GeneralStatus = 0x11
	StatusFragmentationOfPrimitive GeneralStatus = 0x12
	StatusNotEnoughData            GeneralStatus = 0x13
	StatusAttributeNotSupported    GeneralStatus = 0x14
	StatusTooMuchData              GeneralStatus = 0x15
	StatusObjectDoesNotExist       GeneralStatus = 0x16
	StatusFragmentationSequence    GeneralStatus = 0x17
	StatusNoStoredAttributeData    GeneralStatus = 0x18
	StatusStoreOperationFailure    GeneralStatus = 0x19
	StatusRequestTooLarge          GeneralStatus = 0x1A
	StatusResponseTooLarge         GeneralStatus = 0x1B
	StatusMissingAttributeList     GeneralStatus = 0x1C
	StatusInvalidAttributeList     GeneralStatus = 0x1D
	StatusEmbeddedServiceError     GeneralStatus = 0x1E
	StatusVendorSpecific           GeneralStatus = 0x1F
	StatusInvalidParameter         GeneralStatus = 0x20
	StatusWriteOnceWritten         GeneralStatus = 0x21
	StatusInvalidReplyReceived     GeneralStatus = 0x22
	StatusKeyFailureInPath         GeneralStatus = 0x25
	StatusPathSizeInvalid          GeneralStatus = 0x26
	StatusUnexpectedAttribute      GeneralStatus = 0x27
	StatusInvalidMemberID          GeneralStatus = 0x28
	StatusMemberNotSettable        GeneralStatus = 0x29
)

var generalStatusNames = map[GeneralStatus]string{
	StatusSuccess:                  "Success",
	StatusConnectionFailure:        "Connection failure",
	StatusResourceUnavailable:      "Resource unavailable",
	StatusInvalidParameterValue:    "Invalid parameter value",
	StatusPathSegmentError:         "Path segment error",
	StatusPathDestinationUnknown:   "Path destination unknown",
	StatusPartialTransfer:          "Partial transfer",
	StatusConnectionLost:           "Connection lost",
	StatusServiceNotSupported:      "Service not supported",
	StatusInvalidAttributeValue:    "Invalid attribute value",
	StatusAttributeListError:       "Attribute list error",
	StatusAlreadyInRequestedMode:   "Already in requested mode/state",
	StatusObjectStateConflict:      "Object state conflict",
	StatusObjectAlreadyExists:      "Object already exists",
	StatusAttributeNotSettable:     "Attribute not settable",
	StatusPrivilegeViolation:       "Privilege violation",
	StatusDeviceStateConflict:      "Device state conflict",
	StatusReplyDataTooLarge:        "Reply data too large",
	StatusFragmentationOfPrimitive: "Fragmentation of a primitive value",
	StatusNotEnoughData:            "Not enough data",
	StatusAttributeNotSupported:    "Attribute not supported",
	StatusTooMuchData:              "Too much data",
	StatusObjectDoesNotExist:       "Object does not exist",
	StatusFragmentationSequence:    "Service fragmentation sequence not in progress",
	StatusNoStoredAttributeData:    "No stored attribute data",
	StatusStoreOperationFailure:    "Store operation failure",
	StatusRequestTooLarge:          "Routing failure, request packet too large",
	StatusResponseTooLarge:         "Routing failure, response packet too large",
	StatusMissingAttributeList:     "Missing attribute list entry data",
	StatusInvalidAttributeList:     "Invalid attribute value list",
	StatusEmbeddedServiceError:     "Embedded service error",
	StatusVendorSpecific:           "Vendor specific error",
	StatusInvalidParameter:         "Invalid parameter",
	StatusWriteOnceWritten:         "Write-once value or medium already written",
	StatusInvalidReplyReceived:     "Invalid reply received",
	StatusKeyFailureInPath:         "Key failure in path",
	StatusPathSizeInvalid:          "Path size invalid",
	StatusUnexpectedAttribute:      "Unexpected attribute in list",
	StatusInvalidMemberID:          "Invalid member ID",
	StatusMemberNotSettable:        "Member not settable",
}

func (s GeneralStatus) String() string {
	if name, ok := generalStatusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Unknown status (0x%02X)", uint8(s))
}

// StatusError is a terminal protocol status: the general status and the
// additional status words exactly as the device sent them.
type StatusError struct {
	Service    ServiceCode
	General    GeneralStatus
	Additional []uint16
}

func (e *StatusError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "service 0x%02X failed: status 0x%02X (%s)", uint8(e.Service), uint8(e.General), e.General)
	if len(e.Additional) > 0 {
		buf.WriteString(", additional status [")
		for i, word := range e.Additional {
			if i > 0 {
				buf.WriteString(" ")
			}
			fmt.Fprintf(&buf, "0x%04X", word)
		}
		buf.WriteString("]")
	}
	return buf.String()
}
