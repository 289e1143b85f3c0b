// Package memory implements the embedded in-memory storage provider.
// It backs tests and in-process embedding; state lives in maps and does
// not survive the process. The durability layer provides persistence on
// top when needed.
package memory

import (
	"sync"

	"github.com/mesh-intelligence/loom/pkg/types"
)

// Store is the namespace-keyed factory for memory providers. Namespaces
// are lazily initialized on first use and fully independent of each other.
type Store struct {
	mu         sync.Mutex
	namespaces map[string]*Provider
}

// NewStore creates an empty memory store.
func NewStore() *Store {
	return &Store{namespaces: make(map[string]*Provider)}
}

// Namespace returns the provider for the named namespace, creating it on
// first use. An empty name selects the default namespace.
func (s *Store) Namespace(name string) (types.Provider, error) {
	return s.namespace(name), nil
}

func (s *Store) namespace(name string) *Provider {
	if name == "" {
		name = types.DefaultNamespace
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.namespaces[name]
	if !ok {
		p = NewProvider()
		s.namespaces[name] = p
	}
	return p
}

// Provider looks up or creates the named namespace and returns the
// concrete type, which additionally implements types.Restorer.
func (s *Store) Provider(name string) *Provider {
	return s.namespace(name)
}
