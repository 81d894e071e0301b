package nasc

import (
	"github.com/toutaio/toutago-nasc-scopes/config"
)

// FromConfig builds a root scope from a service manifest. Each service names
// its strategy in strategies (the service name is used when the manifest
// leaves it empty). A logger built from cfg.Log is applied before opts, so
// an explicit WithLogger wins.
func FromConfig(cfg *config.Config, strategies map[string]Strategy, opts ...Option) (*Scope, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	descriptors := make([]*Descriptor, 0, len(cfg.Services))
	for _, svc := range cfg.Services {
		lifetime, err := ParseLifetime(svc.Lifetime)
		if err != nil {
			return nil, &InvalidDescriptorError{Name: svc.Name, Reason: err.Error()}
		}

		key := svc.Strategy
		if key == "" {
			key = svc.Name
		}
		strategy, ok := strategies[key]
		if !ok {
			return nil, &InvalidDescriptorError{Name: svc.Name, Reason: "no strategy bound to " + key}
		}

		d, err := NewDescriptor(svc.Name, lifetime, strategy, WithAliases(svc.Aliases...), WithPool(svc.Pool))
		if err != nil {
			return nil, err
		}
		descriptors = append(descriptors, d)
	}

	logger, err := config.NewLogger(cfg.Log)
	if err != nil {
		return nil, err
	}
	return New(descriptors, append([]Option{WithLogger(logger)}, opts...)...)
}
