package layer

import (
	"reflect"

	"github.com/google/uuid"
)

// Identity is the identity part of a layer: a unique id and an optional name.
//
// Embed it in layer implementations to satisfy the Layer interface:
//
//	type ReLU struct {
//	    layer.Identity
//	    size int
//	}
//
//	relu := &ReLU{Identity: layer.NewIdentity("relu1"), size: 128}
type Identity struct {
	id   uuid.UUID
	name string
}

// NewIdentity creates an identity with a freshly generated id.
// An empty name means the layer is unnamed.
func NewIdentity(name string) Identity {
	return Identity{id: uuid.New(), name: name}
}

// ID returns the layer id. It never changes for the lifetime of the layer.
func (i Identity) ID() uuid.UUID {
	return i.id
}

// Name returns the layer name, or "" if the layer is unnamed.
func (i Identity) Name() string {
	return i.name
}

// String returns the name if present, otherwise the id.
func (i Identity) String() string {
	if i.name != "" {
		return i.name
	}
	return i.id.String()
}

// Describe returns the display form of any layer: its name if present,
// otherwise the string form of its id.
func Describe(l Layer) string {
	if IsNil(l) {
		return "<nil>"
	}
	if name := l.Name(); name != "" {
		return name
	}
	return l.ID().String()
}

// IsNil reports whether l is nil or an interface holding a nil pointer,
// map, slice, channel or func.
func IsNil(l Layer) bool {
	if l == nil {
		return true
	}
	switch v := reflect.ValueOf(l); v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func:
		return v.IsNil()
	}
	return false
}
