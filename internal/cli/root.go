// Package cli implements the loom command-line interface.
package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mesh-intelligence/loom/internal/durable"
	"github.com/mesh-intelligence/loom/internal/memory"
	"github.com/mesh-intelligence/loom/internal/sqlite"
	"github.com/mesh-intelligence/loom/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configFile string
	backend    string
	dataDir    string
	blobDir    string
	namespace  string
	listen     string
	jsonMode   bool
}

var flags rootFlags

// NewRootCmd creates the top-level "loom" command with global flags and
// all subcommands registered.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "loom",
		Short: "A schema-light store for things and the actions between them",
		Long: "Loom stores typed entities and the relationships that connect them,\n" +
			"serving them over HTTP or persisting them to SQLite, snapshots, and\n" +
			"a write-ahead log.",
		// Do not print usage on errors returned by subcommands.
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&flags.configFile, "config", "", "config file (default: ./loom.yaml)")
	root.PersistentFlags().StringVar(&flags.backend, "backend", "", "storage backend: memory or sqlite")
	root.PersistentFlags().StringVar(&flags.dataDir, "data-dir", "", "data directory (default: .loom-db)")
	root.PersistentFlags().StringVar(&flags.blobDir, "blob-dir", "", "snapshot and WAL directory (default: <data-dir>/blobs)")
	root.PersistentFlags().StringVar(&flags.namespace, "ns", "", "namespace to operate on (default: default)")
	root.PersistentFlags().BoolVar(&flags.jsonMode, "json", false, "output in JSON format")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newServeCmd())
	root.AddCommand(newSnapshotCmd())
	root.AddCommand(newWALCmd())
	root.AddCommand(newExportCmd())
	root.AddCommand(newImportCmd())

	return root
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		os.Exit(exitUserError)
	}
}

// loadConfig resolves configuration from flags, environment, and an
// optional config file, in that order of precedence.
func loadConfig() (types.Config, error) {
	v := viper.New()
	v.SetDefault("backend", types.BackendSQLite)
	v.SetDefault("data_dir", ".loom-db")
	v.SetDefault("namespace", types.DefaultNamespace)
	v.SetDefault("listen", ":8040")

	v.SetEnvPrefix("LOOM")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if flags.configFile != "" {
		v.SetConfigFile(flags.configFile)
		if err := v.ReadInConfig(); err != nil {
			return types.Config{}, fmt.Errorf("reading config %s: %w", flags.configFile, err)
		}
	} else {
		v.SetConfigName("loom")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return types.Config{}, fmt.Errorf("reading config: %w", err)
			}
		}
	}

	cfg := types.Config{
		Backend:   v.GetString("backend"),
		DataDir:   v.GetString("data_dir"),
		BlobDir:   v.GetString("blob_dir"),
		Listen:    v.GetString("listen"),
		Namespace: v.GetString("namespace"),
	}
	if flags.backend != "" {
		cfg.Backend = flags.backend
	}
	if flags.dataDir != "" {
		cfg.DataDir = flags.dataDir
	}
	if flags.blobDir != "" {
		cfg.BlobDir = flags.blobDir
	}
	if flags.namespace != "" {
		cfg.Namespace = flags.namespace
	}
	cfg = cfg.WithDefaults()
	if cfg.BlobDir == "" {
		cfg.BlobDir = filepath.Join(cfg.DataDir, "blobs")
	}
	if err := cfg.Validate(); err != nil {
		return types.Config{}, err
	}
	return cfg, nil
}

// namespaceStore abstracts the two local backends behind their shared
// namespace accessor.
type namespaceStore interface {
	Namespace(name string) (types.Provider, error)
	Close() error
}

type memoryStore struct{ *memory.Store }

func (memoryStore) Close() error { return nil }

// openStore constructs the configured backend.
func openStore(cfg types.Config) (namespaceStore, error) {
	switch cfg.Backend {
	case types.BackendMemory:
		return memoryStore{memory.NewStore()}, nil
	case types.BackendSQLite:
		return sqlite.Open(cfg.DataDir)
	default:
		return nil, fmt.Errorf("%w: %q", types.ErrBackendUnknown, cfg.Backend)
	}
}

// openProvider opens the configured backend and returns the provider for
// the configured namespace along with a close function.
func openProvider(cfg types.Config) (types.Provider, func() error, error) {
	store, err := openStore(cfg)
	if err != nil {
		return nil, nil, err
	}
	p, err := store.Namespace(cfg.Namespace)
	if err != nil {
		store.Close()
		return nil, nil, err
	}
	return p, store.Close, nil
}

func openBlobs(cfg types.Config) (durable.BlobStore, error) {
	return durable.NewFSStore(cfg.BlobDir)
}

// exitError prints the error to stderr and exits with the given code.
func exitError(cmd *cobra.Command, code int, msg string) error {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(code)
	return nil // unreachable
}
