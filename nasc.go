package nasc

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/toutaio/toutago-nasc-scopes/registry"
)

const tracerName = "github.com/toutaio/toutago-nasc-scopes"

// New creates the root scope of a container from a complete set of
// descriptors. Descriptors must have distinct primary names and ids; alias
// overlaps are only detected when the second service is activated.
//
// Example:
//
//	root, err := nasc.New([]*nasc.Descriptor{loggerDesc, dbDesc}, nasc.WithLogger(logger))
//	if err != nil {
//	    return err
//	}
//	defer root.Dispose()
func New(descriptors []*Descriptor, opts ...Option) (*Scope, error) {
	o := defaultOptions()
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	reg := registry.New[*Descriptor]()
	for _, d := range descriptors {
		if d == nil {
			return nil, ErrNilDescriptor
		}
		if err := reg.Register(d); err != nil {
			var inUse *registry.AliasInUseError
			if errors.As(err, &inUse) {
				return nil, &DescriptorExistsError{Name: d.name, ID: d.id, Holder: inUse.Holder}
			}
			return nil, err
		}
	}

	root := newScope(nil, reg, o)
	root.log.Debug("root scope created", zap.Int("services", reg.Len()))
	return root, nil
}

// Resolve returns the manager of d in this scope, activating d on first use.
// Activation state is never inherited: a child resolving d for the first
// time activates its own manager even if the parent already has one.
func (s *Scope) Resolve(d *Descriptor) (Manager, error) {
	if d == nil {
		return nil, ErrNilDescriptor
	}

	s.mu.RLock()
	if s.disposed {
		s.mu.RUnlock()
		return nil, s.disposedError("resolve " + d.name)
	}
	m, ok := s.active.Lookup(d.name)
	s.mu.RUnlock()

	if ok {
		return m, nil
	}
	return s.activate(d)
}

// ResolveName returns the manager active under alias name, or activates the
// descriptor registered with that primary name.
func (s *Scope) ResolveName(name string) (Manager, error) {
	s.mu.RLock()
	if s.disposed {
		s.mu.RUnlock()
		return nil, s.disposedError("resolve " + name)
	}
	m, ok := s.active.Lookup(name)
	reg := s.registry
	s.mu.RUnlock()

	if ok {
		return m, nil
	}
	d, err := reg.Get(name)
	if err != nil {
		// The root clears the registry while disposing.
		if s.Disposed() {
			return nil, s.disposedError("resolve " + name)
		}
		return nil, &UnresolvedDescriptorError{Name: name}
	}
	return s.Resolve(d)
}

// ResolveID is ResolveName keyed by numeric id.
func (s *Scope) ResolveID(id uint32) (Manager, error) {
	s.mu.RLock()
	if s.disposed {
		s.mu.RUnlock()
		return nil, s.disposedError(fmt.Sprintf("resolve id %d", id))
	}
	m, ok := s.active.LookupID(id)
	reg := s.registry
	s.mu.RUnlock()

	if ok {
		return m, nil
	}
	d, err := reg.GetByID(id)
	if err != nil {
		if s.Disposed() {
			return nil, s.disposedError(fmt.Sprintf("resolve id %d", id))
		}
		return nil, &UnresolvedDescriptorError{ID: id, ByID: true}
	}
	return s.Resolve(d)
}

// GetInstance resolves name and returns the managed instance.
//
// Example:
//
//	logger, err := scope.GetInstance("logger")
func (s *Scope) GetInstance(name string) (any, error) {
	m, err := s.ResolveName(name)
	if err != nil {
		return nil, err
	}
	return m.Instance()
}

// GetInstanceByID resolves id and returns the managed instance.
func (s *Scope) GetInstanceByID(id uint32) (any, error) {
	m, err := s.ResolveID(id)
	if err != nil {
		return nil, err
	}
	return m.Instance()
}

// MustGet is like GetInstance but panics on error.
func (s *Scope) MustGet(name string) any {
	instance, err := s.GetInstance(name)
	if err != nil {
		panic(fmt.Sprintf("failed to resolve %q: %v", name, err))
	}
	return instance
}

// ResolveType resolves the service registered under t.String(). It lets a
// scope act as a projector.Resolver.
func (s *Scope) ResolveType(t reflect.Type) (any, bool) {
	if t == nil {
		return nil, false
	}
	instance, err := s.GetInstance(t.String())
	if err != nil {
		return nil, false
	}
	return instance, true
}

// Recycle hands instance back to the transient manager of d active in this
// scope. It reports whether the instance was pooled.
func (s *Scope) Recycle(d *Descriptor, instance any) bool {
	if d == nil {
		return false
	}

	s.mu.RLock()
	m, ok := s.active.Lookup(d.name)
	s.mu.RUnlock()
	if !ok {
		return false
	}

	r, ok := m.(Recycler)
	return ok && r.Recycle(instance)
}

// activate builds the manager of d and caches it under every alias.
func (s *Scope) activate(d *Descriptor) (Manager, error) {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return nil, s.disposedError("activate " + d.name)
	}

	// Double-check after acquiring write lock
	if m, ok := s.active.Lookup(d.name); ok {
		s.mu.Unlock()
		return m, nil
	}

	m, err := s.build(d)
	if err != nil {
		s.mu.Unlock()
		s.opts.metrics.failed("strategy")
		return nil, &ActivationError{Descriptor: d.name, Scope: s.id.String(), Cause: err}
	}

	if err := s.active.Insert(d.aliasNames, d.aliasIDs, m); err != nil {
		s.mu.Unlock()
		s.opts.metrics.failed("duplicate_alias")

		dup := &DuplicateAliasError{Scope: s.id.String(), Descriptor: d.name}
		var inUse *registry.AliasInUseError
		if errors.As(err, &inUse) {
			dup.Alias, dup.ID, dup.Holder = inUse.Alias, inUse.ID, inUse.Holder
		}
		if derr := m.Dispose(); derr != nil {
			s.log.Warn("failed to dispose rejected manager", zap.String("service", d.name), zap.Error(derr))
		}
		return nil, dup
	}
	observers := append([]Observer(nil), s.observers...)
	s.mu.Unlock()

	s.opts.metrics.activated(d.lifetime)
	s.log.Debug("service activated",
		zap.String("service", d.name),
		zap.Uint32("id", d.id),
		zap.Stringer("lifetime", d.lifetime),
		zap.Strings("aliases", d.aliasNames),
	)

	event := ActivationEvent{Scope: s, Descriptor: d, Manager: m}
	for _, observe := range observers {
		observe(event)
	}
	return m, nil
}

func (s *Scope) build(d *Descriptor) (Manager, error) {
	_, span := s.opts.tracer.Start(context.Background(), "nasc.activate",
		trace.WithAttributes(
			attribute.String("nasc.service", d.name),
			attribute.String("nasc.lifetime", d.lifetime.String()),
			attribute.String("nasc.scope", s.id.String()),
			attribute.Bool("nasc.scope.root", s.isRoot),
		),
	)
	defer span.End()

	m, err := d.strategy.Build(s, d)
	if err == nil && m == nil {
		err = errors.New("strategy returned a nil manager")
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return m, nil
}

func (s *Scope) disposedError(op string) error {
	return &UseAfterDisposeError{Scope: s.id.String(), Op: op}
}
