package adapter

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/Dainanahan/drugtree/pkg/core"
)

// Factory builds an unconnected adapter. A nil logger means discard.
type Factory func(*slog.Logger) Adapter

var (
	registryMu sync.RWMutex
	factories  = make(map[string]Factory)
)

// Register makes a source adapter available under name. It is called from
// the init function of each adapter package and panics when the name is
// taken, as database/sql does for drivers.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if factory == nil {
		panic("adapter: Register factory is nil")
	}
	if _, dup := factories[name]; dup {
		panic("adapter: Register called twice for " + name)
	}
	factories[name] = factory
}

// Get returns the factory registered under name.
func Get(name string) (Factory, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	f, ok := factories[name]
	return f, ok
}

// IsRegistered reports whether an adapter named name exists.
func IsRegistered(name string) bool {
	_, ok := Get(name)
	return ok
}

// ListAdapters returns the registered adapter names in sorted order.
func ListAdapters() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// NewAdapter builds the adapter selected by cfg.Type. The returned adapter
// is not connected yet.
func NewAdapter(cfg core.AdapterConfig, logger *slog.Logger) (Adapter, error) {
	if cfg.Type == "" {
		return nil, fmt.Errorf("adapter type not specified")
	}
	factory, ok := Get(cfg.Type)
	if !ok {
		return nil, &UnknownAdapterError{Type: cfg.Type, Available: ListAdapters()}
	}
	return factory(logger), nil
}

// UnknownAdapterError is returned for a source type nobody registered.
type UnknownAdapterError struct {
	Type      string
	Available []string
}

func (e *UnknownAdapterError) Error() string {
	return fmt.Sprintf("unknown adapter type %q\nAvailable adapters: %v\nHint: Check source.type in drugtree.yaml", e.Type, e.Available)
}
