package nasc

import (
	"fmt"
	"sync"

	"go.uber.org/multierr"

	"github.com/toutaio/toutago-nasc-scopes/pool"
)

// Manager owns the instance(s) of one descriptor within one scope, according
// to the descriptor's lifetime.
type Manager interface {
	// Instance returns an instance, building it if the lifetime requires.
	Instance() (any, error)
	// InstanceWith is like Instance but also runs setup on a newly built
	// instance, ordered by order among the descriptor's setup actions.
	InstanceWith(setup SetupFunc, order int) (any, error)
	// Dispose releases the managed instances. It is idempotent.
	Dispose() error
}

// Recycler is implemented by managers that can take instances back for reuse.
type Recycler interface {
	Recycle(instance any) bool
}

// Disposable represents a service that requires cleanup.
// Services implementing this interface will have Dispose called
// when their manager is disposed.
//
// Example:
//
//	type DatabaseConnection struct {}
//	func (d *DatabaseConnection) Dispose() error {
//	    return d.connection.Close()
//	}
type Disposable interface {
	Dispose() error
}

// Initializable represents a service that requires initialization.
// Services implementing this interface will have Initialize called
// after being created and set up.
type Initializable interface {
	Initialize() error
}

func disposeInstance(instance any) error {
	if disposable, ok := instance.(Disposable); ok {
		if err := disposable.Dispose(); err != nil {
			return fmt.Errorf("disposal error for %T: %w", instance, err)
		}
	}
	return nil
}

func customSetup(fn SetupFunc, order int) *Setup {
	if fn == nil {
		return nil
	}
	return &Setup{Action: fn, Order: order}
}

// cachedManager builds its instance once and hands out the same value until
// disposed. It backs scoped services and root-level singletons.
type cachedManager struct {
	scope *Scope
	desc  *Descriptor
	build FactoryFunc

	mu       sync.Mutex
	built    bool
	value    any
	disposed bool
}

func newCachedManager(s *Scope, d *Descriptor, build FactoryFunc) *cachedManager {
	return &cachedManager{scope: s, desc: d, build: build}
}

func (m *cachedManager) Instance() (any, error) {
	return m.instance(nil)
}

// InstanceWith runs setup only if this call builds the instance.
func (m *cachedManager) InstanceWith(setup SetupFunc, order int) (any, error) {
	return m.instance(customSetup(setup, order))
}

func (m *cachedManager) instance(custom *Setup) (any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.disposed {
		return nil, &UseAfterDisposeError{Scope: m.scope.ID().String(), Op: "get instance of " + m.desc.name}
	}
	if m.built {
		return m.value, nil
	}

	instance, err := m.build(m.scope)
	if err != nil {
		return nil, &ActivationError{Descriptor: m.desc.name, Scope: m.scope.ID().String(), Cause: err}
	}
	if err := m.desc.prepare(instance, m.scope, custom); err != nil {
		return nil, &ActivationError{
			Descriptor: m.desc.name,
			Scope:      m.scope.ID().String(),
			Cause:      multierr.Append(err, disposeInstance(instance)),
		}
	}

	m.value, m.built = instance, true
	return instance, nil
}

func (m *cachedManager) Dispose() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.disposed {
		return nil
	}
	m.disposed = true

	var err error
	if m.built {
		err = disposeInstance(m.value)
	}
	m.value, m.built = nil, false
	return err
}

// transientManager builds a new instance per call. Instances implementing
// Disposable are tracked and disposed in reverse creation order.
type transientManager struct {
	scope *Scope
	desc  *Descriptor
	build FactoryFunc

	mu       sync.Mutex
	pool     *pool.Pool[any]
	created  []any
	disposed bool
}

func newTransientManager(s *Scope, d *Descriptor, build FactoryFunc) *transientManager {
	m := &transientManager{scope: s, desc: d, build: build}
	if d.poolSize > 0 {
		m.pool = pool.New[any](d.poolSize)
	}
	return m
}

func (m *transientManager) Instance() (any, error) {
	return m.instance(nil)
}

func (m *transientManager) InstanceWith(setup SetupFunc, order int) (any, error) {
	return m.instance(customSetup(setup, order))
}

func (m *transientManager) instance(custom *Setup) (any, error) {
	m.mu.Lock()
	if m.disposed {
		m.mu.Unlock()
		return nil, &UseAfterDisposeError{Scope: m.scope.ID().String(), Op: "get instance of " + m.desc.name}
	}
	var (
		instance any
		pooled   bool
	)
	if m.pool != nil {
		instance, pooled = m.pool.TryPull()
	}
	m.mu.Unlock()

	if !pooled {
		var err error
		instance, err = m.build(m.scope)
		if err != nil {
			return nil, &ActivationError{Descriptor: m.desc.name, Scope: m.scope.ID().String(), Cause: err}
		}
	}
	if err := m.desc.prepare(instance, m.scope, custom); err != nil {
		return nil, &ActivationError{Descriptor: m.desc.name, Scope: m.scope.ID().String(), Cause: err}
	}
	if pooled {
		return instance, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.disposed {
		return nil, multierr.Append(
			&UseAfterDisposeError{Scope: m.scope.ID().String(), Op: "get instance of " + m.desc.name},
			disposeInstance(instance),
		)
	}
	if _, ok := instance.(Disposable); ok {
		m.created = append(m.created, instance)
	}
	return instance, nil
}

// Recycle returns instance to the pool. It reports false if the descriptor
// has no pool, the pool is full, or the manager is disposed.
func (m *transientManager) Recycle(instance any) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.disposed || m.pool == nil || instance == nil {
		return false
	}
	return m.pool.TryReturn(instance)
}

func (m *transientManager) Dispose() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.disposed {
		return nil
	}
	m.disposed = true

	if m.pool != nil {
		m.pool.Drain()
	}

	var err error
	for i := len(m.created) - 1; i >= 0; i-- {
		err = multierr.Append(err, disposeInstance(m.created[i]))
	}
	m.created = nil
	return err
}

// valueManager hands out a value that was built outside the container.
// The caller owns the value, so Dispose does not dispose it.
type valueManager struct {
	scope *Scope
	desc  *Descriptor
	value any

	once     sync.Once
	err      error
	mu       sync.Mutex
	disposed bool
}

func (m *valueManager) Instance() (any, error) {
	return m.InstanceWith(nil, 0)
}

func (m *valueManager) InstanceWith(setup SetupFunc, order int) (any, error) {
	m.mu.Lock()
	disposed := m.disposed
	m.mu.Unlock()
	if disposed {
		return nil, &UseAfterDisposeError{Scope: m.scope.ID().String(), Op: "get instance of " + m.desc.name}
	}

	m.once.Do(func() {
		m.err = m.desc.prepare(m.value, m.scope, customSetup(setup, order))
	})
	if m.err != nil {
		return nil, &ActivationError{Descriptor: m.desc.name, Scope: m.scope.ID().String(), Cause: m.err}
	}
	return m.value, nil
}

func (m *valueManager) Dispose() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.disposed = true
	return nil
}
