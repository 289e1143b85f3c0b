package cli

import (
	"fmt"
	"log"
	"net/http"
	"sync"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/loom/internal/durable"
	"github.com/mesh-intelligence/loom/internal/httpapi"
	"github.com/mesh-intelligence/loom/pkg/types"
)

func newServeCmd() *cobra.Command {
	var listen string
	var recordWAL bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API over the configured backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return exitError(cmd, exitUserError, err.Error())
			}
			if listen != "" {
				cfg.Listen = listen
			}

			store, err := openStore(cfg)
			if err != nil {
				return exitError(cmd, exitSysError, fmt.Sprintf("open storage: %s", err))
			}
			defer store.Close()

			factory := httpapi.ProviderFactory(store.Namespace)
			if recordWAL {
				blobs, err := openBlobs(cfg)
				if err != nil {
					return exitError(cmd, exitSysError, fmt.Sprintf("open blob store: %s", err))
				}
				factory = recordingFactory(store, blobs)
			}

			server := httpapi.NewServer(factory)
			log.Printf("loom serving on %s (backend=%s data=%s)", cfg.Listen, cfg.Backend, cfg.DataDir)
			if err := http.ListenAndServe(cfg.Listen, server); err != nil {
				return exitError(cmd, exitSysError, fmt.Sprintf("serve: %s", err))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "listen address (default from config, :8040)")
	cmd.Flags().BoolVar(&recordWAL, "record-wal", false, "append every mutation to the write-ahead log")
	return cmd
}

// recordingFactory wraps each namespace provider in a WAL recorder,
// caching per namespace so one log is shared across requests.
func recordingFactory(store namespaceStore, blobs durable.BlobStore) httpapi.ProviderFactory {
	var mu sync.Mutex
	recorders := make(map[string]*durable.Recorder)

	return func(namespace string) (types.Provider, error) {
		if namespace == "" {
			namespace = types.DefaultNamespace
		}
		mu.Lock()
		defer mu.Unlock()
		if rec, ok := recorders[namespace]; ok {
			return rec, nil
		}
		p, err := store.Namespace(namespace)
		if err != nil {
			return nil, err
		}
		wal, err := durable.OpenWAL(blobs, namespace)
		if err != nil {
			return nil, err
		}
		rec := durable.NewRecorder(p, wal)
		recorders[namespace] = rec
		return rec, nil
	}
}
