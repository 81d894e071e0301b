package nasc

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNilDescriptor is returned when a nil *Descriptor is passed to a scope.
var ErrNilDescriptor = errors.New("descriptor cannot be nil")

// DuplicateAliasError is returned when an activation would register an alias
// that is already taken in the scope. It means two descriptors share an
// alias; the descriptor activated first keeps it.
type DuplicateAliasError struct {
	Scope      string
	Descriptor string
	Alias      string
	ID         uint32
	Holder     string
}

func (e *DuplicateAliasError) Error() string {
	if e.Holder != "" && e.Holder != e.Alias {
		return fmt.Sprintf("cannot activate %q in scope %s: alias %q (id %d) collides with active alias %q",
			e.Descriptor, e.Scope, e.Alias, e.ID, e.Holder)
	}
	return fmt.Sprintf("cannot activate %q in scope %s: alias %q is already active", e.Descriptor, e.Scope, e.Alias)
}

// UseAfterDisposeError is returned when a disposed scope or manager is used.
type UseAfterDisposeError struct {
	Scope string
	Op    string
}

func (e *UseAfterDisposeError) Error() string {
	return fmt.Sprintf("cannot %s: scope %s is disposed", e.Op, e.Scope)
}

// UnresolvedDescriptorError is returned when a lookup matches neither an
// active alias nor a registered descriptor.
type UnresolvedDescriptorError struct {
	Name string
	ID   uint32
	ByID bool
}

func (e *UnresolvedDescriptorError) Error() string {
	if e.ByID {
		return fmt.Sprintf("no service registered for id %d", e.ID)
	}
	return fmt.Sprintf("no service registered for name %q. Did you forget to add its descriptor?", e.Name)
}

// InvalidDescriptorError is returned when a descriptor has invalid parameters.
type InvalidDescriptorError struct {
	Name   string
	Reason string
}

func (e *InvalidDescriptorError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("invalid descriptor: %s", e.Reason)
	}
	return fmt.Sprintf("invalid descriptor %q: %s", e.Name, e.Reason)
}

// DescriptorExistsError is returned when two descriptors with the same primary
// name or id are registered.
type DescriptorExistsError struct {
	Name   string
	ID     uint32
	Holder string
}

func (e *DescriptorExistsError) Error() string {
	if e.Holder != "" && e.Holder != e.Name {
		return fmt.Sprintf("descriptor %q (id %d) collides with registered descriptor %q", e.Name, e.ID, e.Holder)
	}
	return fmt.Sprintf("descriptor %q is already registered", e.Name)
}

// ActivationError is returned when a descriptor's strategy fails to build a
// manager, or a manager fails to produce an instance.
type ActivationError struct {
	Descriptor string
	Scope      string
	Cause      error
}

func (e *ActivationError) Error() string {
	return fmt.Sprintf("failed to activate %q in scope %s: %v", e.Descriptor, e.Scope, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *ActivationError) Unwrap() error {
	return e.Cause
}

// DisposeError collects every failure seen while tearing down a scope.
// Disposal continues past individual failures.
type DisposeError struct {
	Scope  string
	Errors []error
}

func (e *DisposeError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("disposing scope %s: %v", e.Scope, e.Errors[0])
	}

	var b strings.Builder
	fmt.Fprintf(&b, "disposing scope %s encountered %d error(s):", e.Scope, len(e.Errors))
	for i, err := range e.Errors {
		fmt.Fprintf(&b, "\n  %d. %v", i+1, err)
	}
	return b.String()
}

func (e *DisposeError) Unwrap() []error {
	return e.Errors
}
