package nasc

// rootProxy stands in for a singleton activated below the root. Every call
// resolves the descriptor through the root scope, which owns the instance.
type rootProxy struct {
	root *Scope
	desc *Descriptor
}

func (p *rootProxy) Instance() (any, error) {
	return p.desc.GetInstance(p.root)
}

func (p *rootProxy) InstanceWith(setup SetupFunc, order int) (any, error) {
	return p.desc.GetInstanceWith(p.root, setup, order)
}

// Dispose is a no-op; the root disposes the singleton itself.
func (p *rootProxy) Dispose() error {
	return nil
}
