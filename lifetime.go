package nasc

import "fmt"

// Lifetime represents the lifecycle strategy for a registered service.
type Lifetime string

const (
	// LifetimeTransient creates a new instance on every resolution.
	LifetimeTransient Lifetime = "transient"

	// LifetimeSingleton shares one instance across the whole scope tree.
	// The instance lives in the root scope; child scopes proxy to it.
	LifetimeSingleton Lifetime = "singleton"

	// LifetimeScoped creates one instance per scope.
	// Each scope maintains its own instance, isolated from parent and children.
	LifetimeScoped Lifetime = "scoped"
)

// String returns the string representation of the lifetime.
func (l Lifetime) String() string {
	return string(l)
}

// Valid reports whether l is one of the known lifetimes.
func (l Lifetime) Valid() bool {
	switch l {
	case LifetimeTransient, LifetimeSingleton, LifetimeScoped:
		return true
	default:
		return false
	}
}

// ParseLifetime converts a textual lifetime such as "scoped" to a Lifetime.
func ParseLifetime(s string) (Lifetime, error) {
	l := Lifetime(s)
	if !l.Valid() {
		return "", fmt.Errorf("unknown lifetime %q", s)
	}
	return l, nil
}
