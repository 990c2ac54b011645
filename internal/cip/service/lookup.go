package service

import (
	"sort"

	"github.com/tturner/cipwire/internal/cip/protocol"
	"github.com/tturner/cipwire/internal/cip/spec"
)

// Info describes one member of the closed set of implemented services.
type Info struct {
	Code       protocol.ServiceCode
	Name       string
	Fragmented bool
}

// The class gives vendor-specific codes their meaning for labels.
var implemented = []struct {
	code       protocol.ServiceCode
	class      uint16
	fragmented bool
}{
	{spec.CIPServiceGetAttributeAll, 0, false},
	{spec.CIPServiceGetAttributeList, 0, false},
	{spec.CIPServiceSetAttributeList, 0, false},
	{spec.CIPServiceGetAttributeSingle, 0, false},
	{spec.CIPServiceSetAttributeSingle, 0, false},
	{spec.CIPServiceReadTagFragmented, spec.CIPClassSymbolObject, true},
}

// Lookup returns the implemented service with the given request code. Reply
// codes are accepted.
func Lookup(code protocol.ServiceCode) (Info, bool) {
	for _, svc := range implemented {
		if svc.code == code.Base() {
			name, _ := spec.LabelService(svc.code, svc.class, false)
			return Info{Code: svc.code, Name: name, Fragmented: svc.fragmented}, true
		}
	}
	return Info{}, false
}

// Implemented lists every implemented service in code order.
func Implemented() []Info {
	out := make([]Info, 0, len(implemented))
	for _, svc := range implemented {
		info, _ := Lookup(svc.code)
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}
