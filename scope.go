package nasc

import (
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/toutaio/toutago-nasc-scopes/registry"
)

// Scope is a node in the provider tree and the boundary for caching and
// disposal. All scopes of a tree share the root's registry; each scope keeps
// its own table of activated managers.
//
// Example:
//
//	request, err := root.NewChild()
//	if err != nil {
//	    return err
//	}
//	defer request.Dispose()
//
//	// Scoped services are unique to this scope
//	uow, err := request.GetInstance("unit-of-work")
type Scope struct {
	id     uuid.UUID
	isRoot bool
	root   *Scope
	opts   *options
	log    *zap.Logger

	mu        sync.RWMutex
	parent    *Scope
	children  []*Scope
	registry  *registry.Registry[*Descriptor]
	active    *registry.AliasTable[Manager]
	observers []Observer
	disposed  bool
}

// newScope creates a scope below parent, or a root scope if parent is nil.
// The caller holds parent's write lock.
func newScope(parent *Scope, reg *registry.Registry[*Descriptor], o *options) *Scope {
	s := &Scope{
		id:       uuid.New(),
		opts:     o,
		parent:   parent,
		registry: reg,
		active:   registry.NewAliasTable[Manager](),
	}

	if parent == nil {
		s.isRoot = true
		s.root = s
		s.observers = slices.Clone(o.observers)
		s.log = o.logger.With(zap.Stringer("scope", s.id))
	} else {
		s.root = parent.root
		s.observers = slices.Clone(parent.observers)
		s.log = o.logger.With(zap.Stringer("scope", s.id), zap.Stringer("parent", parent.id))
	}

	o.metrics.scopeOpened()
	return s
}

// ID returns the unique identity of the scope, used in logs, spans and errors.
func (s *Scope) ID() uuid.UUID { return s.id }

// IsRoot reports whether s is the root of its tree.
func (s *Scope) IsRoot() bool { return s.isRoot }

// Root returns the root scope of the tree.
func (s *Scope) Root() *Scope { return s.root }

// Parent returns the parent scope, or nil for the root or a disposed scope.
func (s *Scope) Parent() *Scope {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.parent
}

// Children returns a snapshot of the live child scopes.
func (s *Scope) Children() []*Scope {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.children)
}

// Disposed reports whether Dispose has been called.
func (s *Scope) Disposed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.disposed
}

// Lookup returns the descriptor registered under a primary name.
func (s *Scope) Lookup(name string) (*Descriptor, bool) {
	s.mu.RLock()
	reg := s.registry
	s.mu.RUnlock()

	if reg == nil {
		return nil, false
	}
	d, err := reg.Get(name)
	return d, err == nil
}

// Registered returns the sorted primary names of every registered service.
func (s *Scope) Registered() []string {
	s.mu.RLock()
	reg := s.registry
	s.mu.RUnlock()

	if reg == nil {
		return nil
	}
	return reg.Names()
}

// Active returns the primary names of the services activated in this scope,
// in activation order.
func (s *Scope) Active() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.active.Primaries()
}

// IsActive reports whether alias resolves to an activated manager in s.
func (s *Scope) IsActive(alias string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.active.Lookup(alias)
	return ok
}

// NewChild creates a child scope. The child shares the registry and root of
// s, starts with no activated services, and is disposed with s.
//
// Example:
//
//	parentScope, _ := root.NewChild()
//	defer parentScope.Dispose()
//
//	childScope, _ := parentScope.NewChild()
//	// Child will be disposed with parent
func (s *Scope) NewChild() (*Scope, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.disposed {
		return nil, s.disposedError("create child scope")
	}

	child := newScope(s, s.registry, s.opts)
	s.children = append(s.children, child)

	s.log.Debug("child scope created", zap.Stringer("child", child.id))
	return child, nil
}

// Dispose tears the scope down: children first, depth first, then every
// manager activated here in reverse activation order. Failures do not stop
// the cascade; they are returned together as a *DisposeError once teardown
// completes. Once Dispose starts, resolving from s fails with
// *UseAfterDisposeError. Calling Dispose again is a no-op.
//
// Example:
//
//	scope, _ := root.NewChild()
//	defer scope.Dispose()
func (s *Scope) Dispose() error {
	parent, disposedNow, err := s.dispose()
	if disposedNow && parent != nil {
		parent.detach(s)
	}
	return err
}

// dispose performs the teardown. Setting disposed under the lock freezes the
// active table, so managers and children are torn down without holding it;
// factories running concurrently then fail fast instead of deadlocking.
// It returns the former parent so a direct Dispose can detach from it.
func (s *Scope) dispose() (*Scope, bool, error) {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return nil, false, nil
	}
	s.disposed = true
	children := slices.Clone(s.children)
	s.mu.Unlock()

	var errs error

	// First, dispose all child scopes
	for _, child := range children {
		if _, _, err := child.dispose(); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("child scope %s: %w", child.id, err))
		}
	}

	s.mu.RLock()
	managers := s.active.Values()
	names := s.active.Primaries()
	s.mu.RUnlock()

	// Managers in reverse activation order
	for i := len(managers) - 1; i >= 0; i-- {
		if err := managers[i].Dispose(); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("service %q: %w", names[i], err))
		}
	}

	s.mu.Lock()
	parent := s.parent
	s.parent = nil
	s.children = nil
	s.observers = nil
	s.active.Clear()
	if s.isRoot {
		s.registry.Clear()
	}
	s.registry = nil
	s.mu.Unlock()

	failures := multierr.Errors(errs)
	s.opts.metrics.scopeDisposed(len(failures))

	if len(failures) > 0 {
		s.log.Warn("scope disposed with errors", zap.Int("managers", len(managers)), zap.Errors("errors", failures))
		return parent, true, &DisposeError{Scope: s.id.String(), Errors: failures}
	}
	s.log.Debug("scope disposed", zap.Int("managers", len(managers)))
	return parent, true, nil
}

// detach removes child from s's children.
func (s *Scope) detach(child *Scope) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.children = slices.DeleteFunc(s.children, func(c *Scope) bool { return c == child })
}
