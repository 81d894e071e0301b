// Package projector turns a set of candidate types into instances of a
// target capability.
//
// Sequences are lazy: no candidate is built before iteration reaches it.
// Each returned sequence can be ranged over once.
//
//	p, _ := projector.New[Plugin](types, projector.WithMode(projector.FailOnMismatch))
//	for plugin, err := range p.Instances() {
//	    if err != nil {
//	        return err
//	    }
//	    plugin.Start()
//	}
package projector

import (
	"errors"
	"fmt"
	"iter"
	"reflect"
	"slices"
	"sync/atomic"
)

// Mode selects what happens when a candidate does not implement the target.
type Mode int

const (
	// SkipOnMismatch drops non-matching candidates silently.
	SkipOnMismatch Mode = iota
	// FailOnMismatch stops the sequence with a *MismatchError.
	FailOnMismatch
)

func (m Mode) String() string {
	switch m {
	case SkipOnMismatch:
		return "skip"
	case FailOnMismatch:
		return "fail"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode converts "skip" or "fail" to a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "skip", "":
		return SkipOnMismatch, nil
	case "fail":
		return FailOnMismatch, nil
	default:
		return SkipOnMismatch, fmt.Errorf("unknown projector mode %q", s)
	}
}

// ErrConsumed is yielded when a sequence is ranged over a second time.
var ErrConsumed = errors.New("projector: sequence already consumed")

// Resolver supplies instances from an external container.
type Resolver interface {
	ResolveType(t reflect.Type) (any, bool)
}

// MismatchError reports a candidate whose instance is not a Target.
type MismatchError struct {
	Type   reflect.Type
	Target reflect.Type
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("projector: %v does not implement %v", e.Type, e.Target)
}

// ConstructionError reports a candidate that produced no instance.
type ConstructionError struct {
	Type  reflect.Type
	Cause error
}

func (e *ConstructionError) Error() string {
	return fmt.Sprintf("projector: failed to build %v: %v", e.Type, e.Cause)
}

func (e *ConstructionError) Unwrap() error {
	return e.Cause
}

type settings struct {
	mode         Mode
	constructors map[reflect.Type]*constructorInfo
}

// Option configures a Projector.
type Option func(*settings) error

// WithMode sets the mismatch policy. The default is SkipOnMismatch.
func WithMode(m Mode) Option {
	return func(s *settings) error {
		if m != SkipOnMismatch && m != FailOnMismatch {
			return fmt.Errorf("unknown projector mode %d", int(m))
		}
		s.mode = m
		return nil
	}
}

// WithConstructor builds candidate t by calling fn instead of allocating a
// zero value. fn returns X or (X, error); its parameters are filled from the
// extra arguments first, then from the Resolver.
func WithConstructor(t reflect.Type, fn any) Option {
	return func(s *settings) error {
		if t == nil {
			return errors.New("constructor type cannot be nil")
		}
		info, err := parseConstructor(fn)
		if err != nil {
			return fmt.Errorf("invalid constructor for %v: %w", t, err)
		}
		s.constructors[t] = info
		return nil
	}
}

// Projector produces instances of T from candidate types.
type Projector[T any] struct {
	types    []reflect.Type
	target   reflect.Type
	settings settings
}

// New creates a Projector over candidates, in order.
func New[T any](candidates []reflect.Type, opts ...Option) (*Projector[T], error) {
	for i, t := range candidates {
		if t == nil {
			return nil, fmt.Errorf("candidate %d is nil", i)
		}
	}

	p := &Projector[T]{
		types:    slices.Clone(candidates),
		target:   reflect.TypeFor[T](),
		settings: settings{constructors: make(map[reflect.Type]*constructorInfo)},
	}
	for _, opt := range opts {
		if err := opt(&p.settings); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Types returns the candidate types.
func (p *Projector[T]) Types() []reflect.Type {
	return slices.Clone(p.types)
}

// Mode returns the mismatch policy.
func (p *Projector[T]) Mode() Mode {
	return p.settings.mode
}

// Instances builds every candidate without an external container.
func (p *Projector[T]) Instances() iter.Seq2[T, error] {
	return p.sequence(nil, nil)
}

// InstancesFrom asks r for each candidate first and builds it only when r
// has none. args feed constructor parameters.
func (p *Projector[T]) InstancesFrom(r Resolver, args ...any) iter.Seq2[T, error] {
	return p.sequence(r, args)
}

// Collect drains seq into a slice, stopping at the first error.
func Collect[T any](seq iter.Seq2[T, error]) ([]T, error) {
	var out []T
	for v, err := range seq {
		if err != nil {
			return out, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (p *Projector[T]) sequence(r Resolver, args []any) iter.Seq2[T, error] {
	var consumed atomic.Bool

	return func(yield func(T, error) bool) {
		var zero T
		if !consumed.CompareAndSwap(false, true) {
			yield(zero, ErrConsumed)
			return
		}

		for _, t := range p.types {
			instance, err := p.produce(t, r, args)
			if err != nil {
				yield(zero, &ConstructionError{Type: t, Cause: err})
				return
			}

			casted, ok := instance.(T)
			if !ok {
				if p.settings.mode == FailOnMismatch {
					yield(zero, &MismatchError{Type: t, Target: p.target})
					return
				}
				continue
			}
			if !yield(casted, nil) {
				return
			}
		}
	}
}

func (p *Projector[T]) produce(t reflect.Type, r Resolver, args []any) (any, error) {
	if r != nil {
		if instance, ok := r.ResolveType(t); ok && instance != nil {
			return instance, nil
		}
	}
	if info, ok := p.settings.constructors[t]; ok {
		instance, err := info.invoke(r, args)
		if err != nil {
			return nil, err
		}
		if instance == nil {
			return nil, errors.New("constructor returned nil")
		}
		return instance, nil
	}
	return newZero(t), nil
}

// newZero allocates a zero value of t; pointer types get a fresh pointee.
func newZero(t reflect.Type) any {
	if t.Kind() == reflect.Pointer {
		return reflect.New(t.Elem()).Interface()
	}
	return reflect.New(t).Elem().Interface()
}
