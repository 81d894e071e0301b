package nasc

import "errors"

// ActivationEvent describes one completed activation.
type ActivationEvent struct {
	Scope      *Scope
	Descriptor *Descriptor
	Manager    Manager
}

// Observer is notified after a descriptor is activated in a scope. Observers
// run synchronously, in subscription order, after every alias is cached and
// before the resolving call returns. An observer may resolve services.
type Observer func(ActivationEvent)

// OnActivated subscribes fn to activations in s. Children created after
// this call inherit the subscription; existing children do not.
func (s *Scope) OnActivated(fn Observer) error {
	if fn == nil {
		return errors.New("observer cannot be nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.disposed {
		return s.disposedError("subscribe")
	}
	s.observers = append(s.observers, fn)
	return nil
}
