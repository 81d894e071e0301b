package nasc

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/toutaio/toutago-nasc-scopes/internal/hashing"
)

// HashName returns the numeric id derived from a service name or alias.
func HashName(name string) uint32 {
	return hashing.Sum32(name)
}

// SetupFunc configures a freshly built instance before it is handed out.
type SetupFunc func(instance any, s *Scope, d *Descriptor) error

// Setup is a setup action with its ordering value. Lower orders run first.
type Setup struct {
	Action SetupFunc
	Order  int
}

// Descriptor is the immutable registration record of one service: its
// primary name and id, its lifetime, the aliases it is cached under once
// activated, the strategy that builds its manager, and its setup actions.
type Descriptor struct {
	id         uint32
	name       string
	lifetime   Lifetime
	aliasNames []string
	aliasIDs   []uint32
	strategy   Strategy
	setups     []Setup
	poolSize   int
}

// DescriptorOption configures a Descriptor at construction.
type DescriptorOption func(*Descriptor) error

// WithAliases makes the activated service resolvable under extra names.
// Each alias also gets a numeric id derived with HashName.
func WithAliases(names ...string) DescriptorOption {
	return func(d *Descriptor) error {
		for _, n := range names {
			if n == "" {
				return &InvalidDescriptorError{Name: d.name, Reason: "alias cannot be empty"}
			}
			if !slices.Contains(d.aliasNames, n) {
				d.aliasNames = append(d.aliasNames, n)
			}
		}
		return nil
	}
}

// WithSetup appends a setup action that runs on every new instance.
func WithSetup(fn SetupFunc, order int) DescriptorOption {
	return func(d *Descriptor) error {
		if fn == nil {
			return &InvalidDescriptorError{Name: d.name, Reason: "setup action cannot be nil"}
		}
		d.setups = append(d.setups, Setup{Action: fn, Order: order})
		return nil
	}
}

// WithPool lets a transient service recycle up to capacity instances.
// See Scope.Recycle.
func WithPool(capacity int) DescriptorOption {
	return func(d *Descriptor) error {
		if capacity < 0 {
			return &InvalidDescriptorError{Name: d.name, Reason: fmt.Sprintf("pool capacity %d is negative", capacity)}
		}
		d.poolSize = capacity
		return nil
	}
}

// NewDescriptor creates a descriptor for name. The primary name is always
// the first alias.
//
// Example:
//
//	d, err := nasc.NewDescriptor("db", nasc.LifetimeSingleton,
//	    nasc.Factory(func(s *nasc.Scope) (any, error) { return openDB() }),
//	    nasc.WithAliases("database"))
func NewDescriptor(name string, lifetime Lifetime, strategy Strategy, opts ...DescriptorOption) (*Descriptor, error) {
	if name == "" {
		return nil, &InvalidDescriptorError{Reason: "name cannot be empty"}
	}
	if !lifetime.Valid() {
		return nil, &InvalidDescriptorError{Name: name, Reason: fmt.Sprintf("unknown lifetime %q", lifetime)}
	}
	if strategy == nil {
		return nil, &InvalidDescriptorError{Name: name, Reason: "strategy cannot be nil"}
	}

	d := &Descriptor{
		id:         HashName(name),
		name:       name,
		lifetime:   lifetime,
		aliasNames: []string{name},
		strategy:   strategy,
	}
	for _, opt := range opts {
		if err := opt(d); err != nil {
			return nil, err
		}
	}

	d.aliasIDs = make([]uint32, len(d.aliasNames))
	for i, alias := range d.aliasNames {
		d.aliasIDs[i] = HashName(alias)
	}
	return d, nil
}

// MustDescriptor is like NewDescriptor but panics on error.
func MustDescriptor(name string, lifetime Lifetime, strategy Strategy, opts ...DescriptorOption) *Descriptor {
	d, err := NewDescriptor(name, lifetime, strategy, opts...)
	if err != nil {
		panic(err)
	}
	return d
}

// ID returns the numeric id of the primary name.
func (d *Descriptor) ID() uint32 { return d.id }

// Name returns the primary name.
func (d *Descriptor) Name() string { return d.name }

// Lifetime returns the service lifetime.
func (d *Descriptor) Lifetime() Lifetime { return d.lifetime }

// Strategy returns the strategy that builds this descriptor's manager.
func (d *Descriptor) Strategy() Strategy { return d.strategy }

// PoolSize returns the transient recycling capacity, zero when disabled.
func (d *Descriptor) PoolSize() int { return d.poolSize }

// AliasNames returns every name the service is cached under, primary first.
func (d *Descriptor) AliasNames() []string { return slices.Clone(d.aliasNames) }

// AliasIDs returns the ids matching AliasNames index by index.
func (d *Descriptor) AliasIDs() []uint32 { return slices.Clone(d.aliasIDs) }

// Setups returns the setup actions in declaration order.
func (d *Descriptor) Setups() []Setup { return slices.Clone(d.setups) }

// String implements fmt.Stringer.
func (d *Descriptor) String() string {
	return fmt.Sprintf("%s(%s)", d.name, d.lifetime)
}

// GetInstance resolves the descriptor in s and returns the managed instance.
func (d *Descriptor) GetInstance(s *Scope) (any, error) {
	m, err := s.Resolve(d)
	if err != nil {
		return nil, err
	}
	return m.Instance()
}

// GetInstanceWith is like GetInstance but also runs setup, ordered by order
// among the descriptor's own setup actions, on a newly built instance.
func (d *Descriptor) GetInstanceWith(s *Scope, setup SetupFunc, order int) (any, error) {
	m, err := s.Resolve(d)
	if err != nil {
		return nil, err
	}
	return m.InstanceWith(setup, order)
}

// OrderedSetups merges the descriptor's setup actions with an optional
// ad-hoc one and sorts them by Order. The sort is stable and the ad-hoc
// action goes last, so on equal orders descriptor actions run first.
func (d *Descriptor) OrderedSetups(custom *Setup) []Setup {
	out := make([]Setup, 0, len(d.setups)+1)
	out = append(out, d.setups...)
	if custom != nil && custom.Action != nil {
		out = append(out, *custom)
	}
	slices.SortStableFunc(out, func(a, b Setup) int {
		return cmp.Compare(a.Order, b.Order)
	})
	return out
}

// prepare runs the ordered setup actions on instance, then Initialize if
// the instance implements Initializable.
func (d *Descriptor) prepare(instance any, s *Scope, custom *Setup) error {
	for _, setup := range d.OrderedSetups(custom) {
		if err := setup.Action(instance, s, d); err != nil {
			return fmt.Errorf("setup (order %d) failed: %w", setup.Order, err)
		}
	}
	if initializable, ok := instance.(Initializable); ok {
		if err := initializable.Initialize(); err != nil {
			return fmt.Errorf("failed to initialize instance of %T: %w", instance, err)
		}
	}
	return nil
}
