package fedprox

import (
	"fmt"
	"slices"
	"sync"
)

const (
	FedProx = "fed_prox"
	FedAvg  = "fed_avg"
)

// Factory builds a Strategy around a model.
type Factory func(model Model, opts ...Option) Strategy

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

func init() {
	Register(FedProx, func(model Model, opts ...Option) Strategy {
		return NewTrainer(model, opts...)
	})
	Register(FedAvg, func(model Model, opts ...Option) Strategy {
		return NewTrainer(model, append(opts, WithoutProximal())...)
	})
}

// Register makes a strategy available by name. It panics if the name is
// empty, the factory is nil or the name is already taken.
func Register(name string, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if name == "" || f == nil {
		panic("fedprox: Register requires a name and a factory")
	}
	if _, dup := registry[name]; dup {
		panic("fedprox: Register called twice for strategy " + name)
	}
	registry[name] = f
}

func New(name string, model Model, opts ...Option) (Strategy, error) {
	registryMu.RLock()
	f, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}

	return f(model, opts...), nil
}

// Strategies returns the sorted names of registered strategies.
func Strategies() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	slices.Sort(names)

	return names
}
