package spec

import "github.com/tturner/cipwire/internal/cip/protocol"

// CIP service codes (authoritative registry).
const (
	CIPServiceGetAttributeAll      protocol.ServiceCode = 0x01
	CIPServiceSetAttributeAll      protocol.ServiceCode = 0x02
	CIPServiceGetAttributeList     protocol.ServiceCode = 0x03
	CIPServiceSetAttributeList     protocol.ServiceCode = 0x04
	CIPServiceReset                protocol.ServiceCode = 0x05
	CIPServiceStart                protocol.ServiceCode = 0x06
	CIPServiceStop                 protocol.ServiceCode = 0x07
	CIPServiceCreate               protocol.ServiceCode = 0x08
	CIPServiceDelete               protocol.ServiceCode = 0x09
	CIPServiceMultipleService      protocol.ServiceCode = 0x0A
	CIPServiceApplyAttributes      protocol.ServiceCode = 0x0D
	CIPServiceGetAttributeSingle   protocol.ServiceCode = 0x0E
	CIPServiceSetAttributeSingle   protocol.ServiceCode = 0x10
	CIPServiceFindNextObjectInst   protocol.ServiceCode = 0x11
	CIPServiceErrorResponse        protocol.ServiceCode = 0x14
	CIPServiceRestore              protocol.ServiceCode = 0x15
	CIPServiceSave                 protocol.ServiceCode = 0x16
	CIPServiceNoOp                 protocol.ServiceCode = 0x17
	CIPServiceGetMember            protocol.ServiceCode = 0x18
	CIPServiceSetMember            protocol.ServiceCode = 0x19
	CIPServiceInsertMember         protocol.ServiceCode = 0x1A
	CIPServiceRemoveMember         protocol.ServiceCode = 0x1B
	CIPServiceGroupSync            protocol.ServiceCode = 0x1C
	CIPServiceExecutePCCC          protocol.ServiceCode = 0x4B
	CIPServiceReadTag              protocol.ServiceCode = 0x4C
	CIPServiceWriteTag             protocol.ServiceCode = 0x4D
	CIPServiceReadModifyWrite      protocol.ServiceCode = 0x4E
	CIPServiceUploadTransfer       protocol.ServiceCode = 0x4F
	CIPServiceDownloadTransfer     protocol.ServiceCode = 0x50
	CIPServiceClearFile            protocol.ServiceCode = 0x51
	CIPServiceReadTagFragmented    protocol.ServiceCode = 0x52
	CIPServiceWriteTagFragmented   protocol.ServiceCode = 0x53
	CIPServiceForwardOpen          protocol.ServiceCode = 0x54
	CIPServiceGetInstanceAttrList  protocol.ServiceCode = 0x55
	CIPServiceGetConnectionData    protocol.ServiceCode = 0x56
	CIPServiceSearchConnectionData protocol.ServiceCode = 0x57
	CIPServiceGetConnectionOwner   protocol.ServiceCode = 0x5A
	CIPServiceLargeForwardOpen     protocol.ServiceCode = 0x5B
	CIPServiceUnconnectedSend      protocol.ServiceCode = 0x52
	CIPServiceForwardClose         protocol.ServiceCode = 0x4E
)

// File Object service aliases (share values with existing service codes).
const (
	CIPServiceInitiateUpload       protocol.ServiceCode = CIPServiceExecutePCCC
	CIPServiceInitiateDownload     protocol.ServiceCode = CIPServiceReadTag
	CIPServiceInitiatePartialRead  protocol.ServiceCode = CIPServiceWriteTag
	CIPServiceInitiatePartialWrite protocol.ServiceCode = CIPServiceReadModifyWrite
)
