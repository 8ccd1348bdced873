package utils

import (
	"cmp"
	"maps"
	"slices"
	"sync"
)

// Registry maps names to implementations, such as the Digest algorithms selectable by flag.
// Entries can not be replaced once registered.
type Registry[K cmp.Ordered, V any] struct {
	mut     sync.RWMutex
	entries map[K]V
}

func NewRegistry[K cmp.Ordered, V any]() *Registry[K, V] {
	return &Registry[K, V]{entries: make(map[K]V)}
}

// Register adds value under name. It errors if name is already registered.
func (self *Registry[K, V]) Register(name K, value V) error {
	self.mut.Lock()
	defer self.mut.Unlock()
	if _, conflict := self.entries[name]; conflict {
		return newError("%v already registered", name)
	}
	self.entries[name] = value
	return nil
}

// Lookup returns the value registered under name.
func (self *Registry[K, V]) Lookup(name K) (V, bool) {
	self.mut.RLock()
	defer self.mut.RUnlock()
	rv, found := self.entries[name]
	return rv, found
}

// Names returns the registered names in ascending order.
func (self *Registry[K, V]) Names() []K {
	self.mut.RLock()
	defer self.mut.RUnlock()
	return slices.Sorted(maps.Keys(self.entries))
}
