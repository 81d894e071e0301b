// Package nasc resolves registered service descriptors to managed instances
// across a tree of nested scopes.
//
// Nasc (Old Irish: "Link" or "Bond") keeps one registry of descriptors per
// container. Every scope of the tree shares that registry, but each scope
// activates descriptors on its own: the first resolution in a scope runs the
// descriptor's strategy, and the resulting manager is cached under every
// alias name and alias id of the descriptor.
//
// # Quick Start
//
//	logger := nasc.MustDescriptor("logger", nasc.LifetimeSingleton,
//	    nasc.Factory(func(*nasc.Scope) (any, error) { return NewLogger(), nil }),
//	    nasc.WithAliases("log"))
//
//	root, err := nasc.New([]*nasc.Descriptor{logger})
//	if err != nil {
//	    return err
//	}
//	defer root.Dispose()
//
//	l, err := root.GetInstance("log")
//
// # Lifetimes
//
// Transient - New instance each time:
//
//	nasc.MustDescriptor("request", nasc.LifetimeTransient, nasc.Factory(newRequest))
//
// Singleton - One instance owned by the root; child scopes proxy to it:
//
//	nasc.MustDescriptor("cache", nasc.LifetimeSingleton, nasc.Factory(newCache))
//
// Scoped - One instance per scope:
//
//	request, _ := root.NewChild()
//	defer request.Dispose()
//	uow, _ := request.GetInstance("unit-of-work")
//
// # Aliases
//
// A descriptor's primary name is always its first alias. Aliases resolve
// only once the descriptor is active in the scope; before that, lookups go
// through primary names and ids in the registry. Two descriptors sharing an
// alias fail when the second one is activated, with a *DuplicateAliasError.
//
// # Setup Actions
//
// Setup actions run on every newly built instance, ordered by their order
// value. An ad-hoc action passed to GetInstanceWith is merged in and runs
// after descriptor actions of the same order:
//
//	d := nasc.MustDescriptor("worker", nasc.LifetimeTransient, nasc.Factory(newWorker),
//	    nasc.WithSetup(applyDefaults, 0))
//	w, err := d.GetInstanceWith(scope, bindRequest, 10)
//
// # Modules
//
// Organize registrations in reusable modules:
//
//	type DatabaseModule struct{}
//
//	func (m *DatabaseModule) Register(b *nasc.Builder) error {
//	    return b.Add(nasc.MustDescriptor("db", nasc.LifetimeSingleton, nasc.Factory(openDB)))
//	}
//
//	b := nasc.NewBuilder()
//	b.Register(&DatabaseModule{})
//	root, err := b.Build()
//
// # Disposal
//
// Dispose tears a scope down depth first: children, then the scope's own
// managers in reverse activation order. Every failure is collected into a
// *DisposeError. A disposed scope rejects further use with
// *UseAfterDisposeError.
//
// # Thread Safety
//
// Scopes are safe for concurrent use. A descriptor is activated at most once
// per scope even under concurrent resolution. Strategies run while the scope
// is locked and must not resolve from it; factories run outside the lock and
// may resolve freely. Dependency cycles between factories are not detected.
package nasc
