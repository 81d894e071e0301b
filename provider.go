package nasc

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
)

// Module groups related service registrations.
//
// Example:
//
//	type LoggingModule struct{}
//
//	func (m *LoggingModule) Register(b *nasc.Builder) error {
//	    return b.Add(nasc.MustDescriptor("logger", nasc.LifetimeSingleton, nasc.Factory(newLogger)))
//	}
type Module interface {
	Register(b *Builder) error
}

// BootableModule is an optional interface for modules that need a boot phase.
// Boot is called with the root scope once every module is registered.
//
// Example:
//
//	func (m *DatabaseModule) Boot(root *nasc.Scope) error {
//	    db, err := root.GetInstance("db")
//	    if err != nil {
//	        return err
//	    }
//	    return db.(Database).Ping()
//	}
type BootableModule interface {
	Module
	Boot(root *Scope) error
}

// DeferredModule is an optional interface for modules that register
// conditionally.
type DeferredModule interface {
	Module
	ShouldRegister(b *Builder) bool
}

// Builder collects descriptors and modules, then builds the root scope.
type Builder struct {
	descriptors []*Descriptor
	names       map[string]struct{}
	ids         map[uint32]string
	modules     []Module
}

// NewBuilder creates an empty Builder.
func NewBuilder() *Builder {
	return &Builder{
		names: make(map[string]struct{}),
		ids:   make(map[uint32]string),
	}
}

// Add registers a descriptor. Primary names and ids must be unique.
func (b *Builder) Add(d *Descriptor) error {
	if d == nil {
		return ErrNilDescriptor
	}
	if _, exists := b.names[d.name]; exists {
		return &DescriptorExistsError{Name: d.name, ID: d.id, Holder: d.name}
	}
	if holder, exists := b.ids[d.id]; exists {
		return &DescriptorExistsError{Name: d.name, ID: d.id, Holder: holder}
	}

	b.names[d.name] = struct{}{}
	b.ids[d.id] = d.name
	b.descriptors = append(b.descriptors, d)
	return nil
}

// Register calls m.Register immediately. A module type registered twice is
// skipped, as is a DeferredModule that opts out.
//
// Example:
//
//	b.Register(&LoggingModule{})
//	b.Register(&DatabaseModule{})
//	root, err := b.Build() // boot phase runs here
func (b *Builder) Register(m Module) error {
	if m == nil {
		return errors.New("module cannot be nil")
	}

	if deferred, ok := m.(DeferredModule); ok && !deferred.ShouldRegister(b) {
		return nil
	}

	moduleType := reflect.TypeOf(m)
	for _, existing := range b.modules {
		if reflect.TypeOf(existing) == moduleType {
			return nil
		}
	}

	if err := m.Register(b); err != nil {
		return fmt.Errorf("module registration failed: %w", err)
	}
	b.modules = append(b.modules, m)
	return nil
}

// Descriptors returns the added descriptors in registration order.
func (b *Builder) Descriptors() []*Descriptor {
	return slices.Clone(b.descriptors)
}

// Modules returns the registered modules.
// This is useful for debugging and introspection.
func (b *Builder) Modules() []Module {
	return slices.Clone(b.modules)
}

// Build creates the root scope and boots every BootableModule in
// registration order. If a boot fails the root is disposed.
func (b *Builder) Build(opts ...Option) (*Scope, error) {
	root, err := New(b.descriptors, opts...)
	if err != nil {
		return nil, err
	}

	for _, m := range b.modules {
		bootable, ok := m.(BootableModule)
		if !ok {
			continue
		}
		if err := bootable.Boot(root); err != nil {
			bootErr := fmt.Errorf("module boot failed: %w", err)
			if derr := root.Dispose(); derr != nil {
				bootErr = errors.Join(bootErr, derr)
			}
			return nil, bootErr
		}
	}
	return root, nil
}
