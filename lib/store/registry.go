package store

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
)

var (
	registry map[string]Factory = map[string]Factory{}
	regLock  sync.RWMutex
)

// Factory builds a storage backend from its JSON configuration blob. Each
// backend package registers a Factory under its backend name in init.
type Factory interface {
	Build(ctx context.Context, config json.RawMessage) (Interface, error)
	Valid(config json.RawMessage) error
}

func Register(name string, impl Factory) {
	regLock.Lock()
	defer regLock.Unlock()

	registry[name] = impl
}

func Get(name string) (Factory, bool) {
	regLock.RLock()
	defer regLock.RUnlock()
	result, ok := registry[name]
	return result, ok
}

// Backends lists every registered backend name in sorted order, mostly for
// error messages when an operator typos a backend name.
func Backends() []string {
	regLock.RLock()
	defer regLock.RUnlock()
	var result []string
	for name := range registry {
		result = append(result, name)
	}
	sort.Strings(result)
	return result
}
