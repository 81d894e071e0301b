// Package registry provides the dual-keyed tables that back service lookup.
//
// Every entry is reachable by a string alias and by the numeric id derived
// from that alias. The string alias is the canonical key; ids are kept in a
// secondary index that points back at it, so the two key spaces are written
// by a single code path and cannot drift apart.
package registry

import (
	"fmt"
	"sort"
	"sync"
)

// AliasInUseError is returned when an insertion would reuse an alias name or
// id that is already present in a table.
type AliasInUseError struct {
	// Alias is the offending alias name.
	Alias string
	// ID is the numeric id inserted alongside Alias.
	ID uint32
	// Holder is the alias that already owns the name or id.
	Holder string
}

func (e *AliasInUseError) Error() string {
	if e.Holder == e.Alias {
		return fmt.Sprintf("alias %q is already registered", e.Alias)
	}
	return fmt.Sprintf("alias %q (id %d) collides with registered alias %q", e.Alias, e.ID, e.Holder)
}

// NotFoundError is returned when no entry matches a name or id.
type NotFoundError struct {
	Name string
	ID   uint32
	ByID bool
}

func (e *NotFoundError) Error() string {
	if e.ByID {
		return fmt.Sprintf("no entry registered for id %d", e.ID)
	}
	return fmt.Sprintf("no entry registered for name %q", e.Name)
}

type record[V any] struct {
	primary string
	value   V
}

// AliasTable maps alias names and their ids to values.
//
// One Insert call registers a value under several aliases at once; either
// all aliases are stored or none are. AliasTable is not safe for concurrent
// use; callers guard it.
type AliasTable[V any] struct {
	byName map[string]V
	nameOf map[uint32]string
	order  []record[V]
}

// NewAliasTable creates an empty table.
func NewAliasTable[V any]() *AliasTable[V] {
	return &AliasTable[V]{
		byName: make(map[string]V),
		nameOf: make(map[uint32]string),
	}
}

// Insert stores v under every (names[i], ids[i]) pair. It fails without
// modifying the table if any name or id is already present, or repeated
// within the call.
func (t *AliasTable[V]) Insert(names []string, ids []uint32, v V) error {
	if len(names) == 0 {
		return fmt.Errorf("insert requires at least one alias")
	}
	if len(names) != len(ids) {
		return fmt.Errorf("alias names and ids differ in length: %d != %d", len(names), len(ids))
	}

	pendingNames := make(map[string]struct{}, len(names))
	pendingIDs := make(map[uint32]string, len(ids))
	for i, name := range names {
		id := ids[i]
		if _, exists := t.byName[name]; exists {
			return &AliasInUseError{Alias: name, ID: id, Holder: name}
		}
		if holder, exists := t.nameOf[id]; exists {
			return &AliasInUseError{Alias: name, ID: id, Holder: holder}
		}
		if _, exists := pendingNames[name]; exists {
			return &AliasInUseError{Alias: name, ID: id, Holder: name}
		}
		if holder, exists := pendingIDs[id]; exists {
			return &AliasInUseError{Alias: name, ID: id, Holder: holder}
		}
		pendingNames[name] = struct{}{}
		pendingIDs[id] = name
	}

	for i, name := range names {
		t.byName[name] = v
		t.nameOf[ids[i]] = name
	}
	t.order = append(t.order, record[V]{primary: names[0], value: v})
	return nil
}

// Lookup returns the value stored under an alias name.
func (t *AliasTable[V]) Lookup(name string) (V, bool) {
	v, ok := t.byName[name]
	return v, ok
}

// LookupID returns the value stored under an alias id.
func (t *AliasTable[V]) LookupID(id uint32) (V, bool) {
	name, ok := t.nameOf[id]
	if !ok {
		var zero V
		return zero, false
	}
	return t.Lookup(name)
}

// Values returns each inserted value once, in insertion order.
func (t *AliasTable[V]) Values() []V {
	out := make([]V, len(t.order))
	for i, r := range t.order {
		out[i] = r.value
	}
	return out
}

// Primaries returns the first alias of every insertion, in insertion order.
func (t *AliasTable[V]) Primaries() []string {
	out := make([]string, len(t.order))
	for i, r := range t.order {
		out[i] = r.primary
	}
	return out
}

// Len returns the number of insertions.
func (t *AliasTable[V]) Len() int {
	return len(t.order)
}

// Aliases returns the number of alias names stored.
func (t *AliasTable[V]) Aliases() int {
	return len(t.byName)
}

// Clear removes every entry.
func (t *AliasTable[V]) Clear() {
	clear(t.byName)
	clear(t.nameOf)
	t.order = nil
}

// Entry is anything that can be registered under a primary name and id.
type Entry interface {
	Name() string
	ID() uint32
}

// Registry is a goroutine-safe table of entries keyed by primary name and id.
// It is written while a container is being assembled and read from every
// scope afterwards.
type Registry[E Entry] struct {
	mu    sync.RWMutex
	table *AliasTable[E]
}

// New creates an empty Registry.
func New[E Entry]() *Registry[E] {
	return &Registry[E]{table: NewAliasTable[E]()}
}

// Register stores an entry under its primary name and id.
// Returns an *AliasInUseError if either is taken.
//
// This method is goroutine-safe.
func (r *Registry[E]) Register(e E) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.table.Insert([]string{e.Name()}, []uint32{e.ID()}, e)
}

// Get retrieves an entry by primary name.
//
// This method is goroutine-safe.
func (r *Registry[E]) Get(name string) (E, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.table.Lookup(name)
	if !ok {
		return e, &NotFoundError{Name: name}
	}
	return e, nil
}

// GetByID retrieves an entry by primary id.
//
// This method is goroutine-safe.
func (r *Registry[E]) GetByID(id uint32) (E, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.table.LookupID(id)
	if !ok {
		return e, &NotFoundError{ID: id, ByID: true}
	}
	return e, nil
}

// Has checks if an entry exists under name.
func (r *Registry[E]) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.table.Lookup(name)
	return ok
}

// Len returns the number of registered entries.
func (r *Registry[E]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.table.Len()
}

// Names returns the primary names of all entries, sorted.
func (r *Registry[E]) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := r.table.Primaries()
	sort.Strings(names)
	return names
}

// Entries returns all entries in registration order.
func (r *Registry[E]) Entries() []E {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.table.Values()
}

// Clear removes every entry.
func (r *Registry[E]) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.table.Clear()
}
