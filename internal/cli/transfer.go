package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/loom/internal/durable"
)

func newExportCmd() *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the namespace as JSONL",
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

			var w io.Writer = cmd.OutOrStdout()
			if outPath != "" {
				f, err := os.Create(outPath)
				if err != nil {
					return exitError(cmd, exitSysError, fmt.Sprintf("create %s: %s", outPath, err))
				}
				defer f.Close()
				w = f
			}

			count, err := durable.ExportJSONL(w, p, cfg.Namespace)
			if err != nil {
				return exitError(cmd, exitSysError, fmt.Sprintf("export: %s", err))
			}
			if outPath != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "exported %d records to %s\n", count, outPath)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default: stdout)")
	return cmd
}

func newImportCmd() *cobra.Command {
	var inPath string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import JSONL records into the namespace",
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

			var r io.Reader = cmd.InOrStdin()
			if inPath != "" {
				f, err := os.Open(inPath)
				if err != nil {
					return exitError(cmd, exitUserError, fmt.Sprintf("open %s: %s", inPath, err))
				}
				defer f.Close()
				r = f
			}

			imported, skipped, err := durable.ImportJSONL(r, p)
			if err != nil {
				return exitError(cmd, exitSysError, fmt.Sprintf("import: %s", err))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d records (%d skipped)\n", imported, skipped)
			return nil
		},
	}

	cmd.Flags().StringVarP(&inPath, "in", "i", "", "input file (default: stdin)")
	return cmd
}
