package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/loom/internal/durable"
)

func newWALCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wal",
		Short: "Manage the write-ahead log",
	}
	cmd.AddCommand(newWALReplayCmd())
	cmd.AddCommand(newWALCompactCmd())
	return cmd
}

func newWALReplayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "replay",
		Short: "Apply logged mutations to the namespace in order",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return exitError(cmd, exitUserError, err.Error())
			}
			p, closeStore, err := openProvider(cfg)
			if err != nil {
				return exitError(cmd, exitSysError, fmt.Sprintf("open storage: %s", err))
			}
			defer closeStore()
			blobs, err := openBlobs(cfg)
			if err != nil {
				return exitError(cmd, exitSysError, fmt.Sprintf("open blob store: %s", err))
			}

			wal, err := durable.OpenWAL(blobs, cfg.Namespace)
			if err != nil {
				return exitError(cmd, exitSysError, fmt.Sprintf("open wal: %s", err))
			}
			applied, err := wal.Replay(p)
			if err != nil {
				return exitError(cmd, exitSysError, fmt.Sprintf("replay: %s", err))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "replayed %d records\n", applied)
			return nil
		},
	}
}

func newWALCompactCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "compact",
		Short: "Snapshot the namespace and truncate the log",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return exitError(cmd, exitUserError, err.Error())
			}
			p, closeStore, err := openProvider(cfg)
			if err != nil {
				return exitError(cmd, exitSysError, fmt.Sprintf("open storage: %s", err))
			}
			defer closeStore()
			blobs, err := openBlobs(cfg)
			if err != nil {
				return exitError(cmd, exitSysError, fmt.Sprintf("open blob store: %s", err))
			}

			wal, err := durable.OpenWAL(blobs, cfg.Namespace)
			if err != nil {
				return exitError(cmd, exitSysError, fmt.Sprintf("open wal: %s", err))
			}
			key, err := wal.Compact(blobs, p)
			if err != nil {
				return exitError(cmd, exitSysError, fmt.Sprintf("compact: %s", err))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "compacted into %s\n", key)
			return nil
		},
	}
}
