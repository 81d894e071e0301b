package nasc

import "errors"

// Strategy builds the manager of a descriptor for a requesting scope.
//
// Build runs while the scope is being written to and must not resolve
// services from that same scope. Resolving dependencies belongs in the
// factory, which managers call outside the scope lock.
type Strategy interface {
	Build(s *Scope, d *Descriptor) (Manager, error)
}

// StrategyFunc adapts an ordinary function to the Strategy interface.
type StrategyFunc func(s *Scope, d *Descriptor) (Manager, error)

// Build calls f(s, d).
func (f StrategyFunc) Build(s *Scope, d *Descriptor) (Manager, error) {
	return f(s, d)
}

// FactoryFunc creates a service instance. It receives the scope the
// instance is built for, so it can resolve its own dependencies.
//
// Example:
//
//	factory := func(s *nasc.Scope) (any, error) {
//	    cfg, err := s.GetInstance("config")
//	    if err != nil {
//	        return nil, err
//	    }
//	    return NewConnection(cfg.(*Config).DSN), nil
//	}
type FactoryFunc func(s *Scope) (any, error)

type factoryStrategy struct {
	fn FactoryFunc
}

// Factory returns a strategy that builds the manager matching the
// descriptor's lifetime and creates instances with fn:
//   - Transient: a new instance per call
//   - Scoped: one instance per scope
//   - Singleton: one instance in the root; other scopes proxy to it
func Factory(fn FactoryFunc) Strategy {
	return &factoryStrategy{fn: fn}
}

func (f *factoryStrategy) Build(s *Scope, d *Descriptor) (Manager, error) {
	if f.fn == nil {
		return nil, errors.New("factory function cannot be nil")
	}

	switch d.Lifetime() {
	case LifetimeTransient:
		return newTransientManager(s, d, f.fn), nil
	case LifetimeScoped:
		return newCachedManager(s, d, f.fn), nil
	case LifetimeSingleton:
		if !s.IsRoot() {
			return &rootProxy{root: s.Root(), desc: d}, nil
		}
		return newCachedManager(s, d, f.fn), nil
	default:
		return nil, &InvalidDescriptorError{Name: d.Name(), Reason: "unknown lifetime " + d.Lifetime().String()}
	}
}

type valueStrategy struct {
	value any
}

// Value returns a strategy serving a pre-built instance. Setup actions run
// once per scope the value is activated in. The container never disposes v.
func Value(v any) Strategy {
	return &valueStrategy{value: v}
}

func (v *valueStrategy) Build(s *Scope, d *Descriptor) (Manager, error) {
	if d.Lifetime() == LifetimeSingleton && !s.IsRoot() {
		return &rootProxy{root: s.Root(), desc: d}, nil
	}
	return &valueManager{scope: s, desc: d, value: v.value}, nil
}
