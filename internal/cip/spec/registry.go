package spec

import (
	"fmt"
	"sync"

	"github.com/tturner/cipwire/internal/cip/protocol"
)

// ServiceDef describes a CIP service definition and its minimum shape.
type ServiceDef struct {
	ClassID           uint16
	Service           protocol.ServiceCode
	Name              string
	RequiresInstance  bool
	RequiresAttribute bool
	MinRequestLen     int
	MinResponseLen    int
}

type serviceKey struct {
	classID uint16
	service uint8
}

// Registry holds the authoritative service definitions.
type Registry struct {
	services map[serviceKey]ServiceDef
}

// NewRegistry returns an empty service registry.
func NewRegistry() *Registry {
	return &Registry{
		services: make(map[serviceKey]ServiceDef),
	}
}

// RegisterService registers a service definition.
func (r *Registry) RegisterService(def ServiceDef) {
	key := serviceKey{classID: def.ClassID, service: uint8(def.Service.Base())}
	r.services[key] = def
}

// LookupService finds a matching service definition, falling back to class-agnostic entries.
func (r *Registry) LookupService(classID uint16, service protocol.ServiceCode) (ServiceDef, bool) {
	key := serviceKey{classID: classID, service: uint8(service.Base())}
	if def, ok := r.services[key]; ok {
		return def, true
	}
	key = serviceKey{classID: 0, service: uint8(service.Base())}
	def, ok := r.services[key]
	return def, ok
}

// CheckShape reports a request or reply body shorter than the registered
// minimum. Unknown services pass.
func (r *Registry) CheckShape(classID uint16, service protocol.ServiceCode, body []byte) error {
	def, ok := r.LookupService(classID, service)
	if !ok {
		return nil
	}
	min := def.MinRequestLen
	kind := "request"
	if service.IsReply() {
		min = def.MinResponseLen
		kind = "response"
	}
	if len(body) < min {
		return fmt.Errorf("%s %s body too short: %d bytes (minimum %d)", def.Name, kind, len(body), min)
	}
	return nil
}

var (
	defaultRegistry     *Registry
	defaultRegistryOnce sync.Once
)

// DefaultRegistry returns the shared CIP service registry. It is read-only
// after construction.
func DefaultRegistry() *Registry {
	defaultRegistryOnce.Do(func() {
		registry := NewRegistry()
		for code, name := range cipServiceNames {
			registry.RegisterService(ServiceDef{
				ClassID: 0,
				Service: protocol.ServiceCode(code),
				Name:    name,
			})
		}
		registerDefaultServices(registry)
		defaultRegistry = registry
	})
	return defaultRegistry
}
