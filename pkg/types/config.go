package types

import "errors"

// Config holds backend selection and parameters for opening a store.
type Config struct {
	Backend   string `json:"backend" yaml:"backend"`
	DataDir   string `json:"data_dir" yaml:"data_dir"`
	BlobDir   string `json:"blob_dir" yaml:"blob_dir"`
	Listen    string `json:"listen" yaml:"listen"`
	Namespace string `json:"namespace" yaml:"namespace"`
}

// Supported backend names.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
)

// DefaultNamespace is used when a caller or request names no namespace.
const DefaultNamespace = "default"

// Config validation errors.
var (
	ErrBackendEmpty   = errors.New("backend must not be empty")
	ErrBackendUnknown = errors.New("unknown backend")
	ErrDataDirEmpty   = errors.New("data dir must not be empty for sqlite backend")
)

// knownBackends lists the backends that Validate accepts.
var knownBackends = map[string]bool{
	BackendMemory: true,
	BackendSQLite: true,
}

// Validate checks that the Config is well-formed. It returns a sentinel
// error from this package on failure.
func (c Config) Validate() error {
	if c.Backend == "" {
		return ErrBackendEmpty
	}
	if !knownBackends[c.Backend] {
		return ErrBackendUnknown
	}
	if c.Backend == BackendSQLite && c.DataDir == "" {
		return ErrDataDirEmpty
	}
	return nil
}

// WithDefaults returns a copy of the config with empty fields filled in.
func (c Config) WithDefaults() Config {
	if c.Backend == "" {
		c.Backend = BackendMemory
	}
	if c.Namespace == "" {
		c.Namespace = DefaultNamespace
	}
	if c.Listen == "" {
		c.Listen = ":8040"
	}
	return c
}
