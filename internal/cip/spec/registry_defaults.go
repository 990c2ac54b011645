package spec

import "github.com/tturner/cipwire/internal/cip/protocol"

// genericServices apply to any class. Columns: code, requires attribute,
// minimum request body, minimum response body.
var genericServices = []struct {
	code      protocol.ServiceCode
	attribute bool
	minReq    int
	minResp   int
}{
	{CIPServiceGetAttributeAll, false, 0, 0},
	{CIPServiceSetAttributeAll, false, 1, 0},
	{CIPServiceGetAttributeList, false, 2, 0},
	{CIPServiceSetAttributeList, false, 2, 0},
	{CIPServiceReset, false, 0, 0},
	{CIPServiceStart, false, 0, 0},
	{CIPServiceStop, false, 0, 0},
	{CIPServiceCreate, false, 0, 0},
	{CIPServiceDelete, false, 0, 0},
	{CIPServiceApplyAttributes, false, 0, 0},
	{CIPServiceGetAttributeSingle, true, 0, 0},
	{CIPServiceSetAttributeSingle, true, 1, 0},
	{CIPServiceFindNextObjectInst, false, 0, 0},
	{CIPServiceRestore, false, 0, 0},
	{CIPServiceSave, false, 0, 0},
	{CIPServiceNoOp, false, 0, 0},
	{CIPServiceGetMember, false, 0, 0},
	{CIPServiceSetMember, false, 1, 0},
	{CIPServiceInsertMember, false, 1, 0},
	{CIPServiceRemoveMember, false, 1, 0},
	{CIPServiceGroupSync, false, 0, 0},
}

// classServices are bound to one object class.
var classServices = []ServiceDef{
	{ClassID: CIPClassMessageRouter, Service: CIPServiceMultipleService, MinRequestLen: 4},
	{ClassID: CIPClassConnectionManager, Service: CIPServiceForwardOpen, MinRequestLen: 20, MinResponseLen: 17},
	{ClassID: CIPClassConnectionManager, Service: CIPServiceForwardClose, Name: "Forward_Close", MinRequestLen: 3},
	{ClassID: CIPClassConnectionManager, Service: CIPServiceLargeForwardOpen, MinRequestLen: 20, MinResponseLen: 17},
	{ClassID: CIPClassConnectionManager, Service: CIPServiceUnconnectedSend, MinRequestLen: 4, MinResponseLen: 2},
	{ClassID: CIPClassConnectionManager, Service: CIPServiceGetConnectionData},
	{ClassID: CIPClassConnectionManager, Service: CIPServiceSearchConnectionData},
	{ClassID: CIPClassConnectionManager, Service: CIPServiceGetConnectionOwner},
	{ClassID: CIPClassSymbolObject, Service: CIPServiceReadTag, MinRequestLen: 2},
	{ClassID: CIPClassSymbolObject, Service: CIPServiceWriteTag, MinRequestLen: 4},
	{ClassID: CIPClassSymbolObject, Service: CIPServiceReadTagFragmented, Name: "Read_Tag_Fragmented", MinRequestLen: 6, MinResponseLen: 2},
	{ClassID: CIPClassSymbolObject, Service: CIPServiceWriteTagFragmented, MinRequestLen: 8},
	{ClassID: CIPClassSymbolObject, Service: CIPServiceReadModifyWrite, Name: "Read_Modify_Write", MinRequestLen: 4},
	{ClassID: CIPClassTemplateObject, Service: CIPServiceReadTag, Name: "Template_Read", MinRequestLen: 6},
	{ClassID: CIPClassPCCCObject, Service: CIPServiceExecutePCCC, MinRequestLen: 1},
}

func registerDefaultServices(registry *Registry) {
	for _, svc := range genericServices {
		registry.RegisterService(ServiceDef{
			Service:           svc.code,
			Name:              ServiceName(svc.code),
			RequiresInstance:  true,
			RequiresAttribute: svc.attribute,
			MinRequestLen:     svc.minReq,
			MinResponseLen:    svc.minResp,
		})
	}
	for _, def := range classServices {
		if def.Name == "" {
			def.Name = ServiceName(def.Service)
		}
		def.RequiresInstance = true
		registry.RegisterService(def)
	}
}
