package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/loom/pkg/lingua"
	"github.com/mesh-intelligence/loom/pkg/types"
)

// Store is the namespace-keyed factory for SQL-backed providers. Each
// namespace gets its own database file under DataDir, created and
// migrated on first use. Cross-namespace operations are independent;
// operations within one namespace are serialized by the provider.
type Store struct {
	mu         sync.Mutex
	dataDir    string
	namespaces map[string]*Provider
	closed     bool
}

// Open creates the data directory if needed and returns a store ready to
// hand out namespace providers.
func Open(dataDir string) (*Store, error) {
	if dataDir == "" {
		return nil, types.ErrDataDirEmpty
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}
	return &Store{
		dataDir:    dataDir,
		namespaces: make(map[string]*Provider),
	}, nil
}

// Namespace returns the provider for the named namespace, opening its
// database and applying the schema on first use. An empty name selects
// the default namespace.
func (s *Store) Namespace(name string) (types.Provider, error) {
	return s.Provider(name)
}

// Provider is Namespace returning the concrete type, which additionally
// implements types.Restorer.
func (s *Store) Provider(name string) (*Provider, error) {
	if name == "" {
		name = types.DefaultNamespace
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, fmt.Errorf("store is closed")
	}
	if p, ok := s.namespaces[name]; ok {
		return p, nil
	}

	path := filepath.Join(s.dataDir, lingua.Slugify(name)+".db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening namespace %s: %w", name, err)
	}
	for _, stmt := range schemaStatements {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("applying schema for %s: %w", name, err)
		}
	}

	p := &Provider{db: db}
	s.namespaces[name] = p
	return p, nil
}

// Close closes every namespace database. The store cannot be reused
// afterwards. Close is idempotent.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	var firstErr error
	for name, p := range s.namespaces {
		if err := p.db.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("closing namespace %s: %w", name, err)
		}
	}
	s.namespaces = make(map[string]*Provider)
	s.closed = true
	return firstErr
}
