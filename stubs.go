package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/phobologic/ktlight/internal/stubs"
)

// defaultStubsPath is used when neither --out nor [stubs] path is set.
const defaultStubsPath = ".ktlight/stubs.db"

func newStubsCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stubs",
		Short: "Manage the compiled stub database",
	}
	cmd.AddCommand(newStubsBuildCmd(g))
	return cmd
}

func newStubsBuildCmd(g *globals) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "build [root]",
		Short: "Compile the annotation classes and usages of a source tree",
		Long: `Compile every annotation class and every resolved annotation usage of a source
tree into a stub database. Other projects list the database as [stubs] path
to see these annotations without their sources.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := g.load(cmd.Context(), args, false)
			if err != nil {
				return err
			}

			path := out
			if path == "" {
				path = ws.cfg.StubsPath()
			}
			if path == "" {
				path = filepath.Join(ws.cfg.Dir, defaultStubsPath)
			}

			store, err := stubs.Open(path)
			if err != nil {
				return err
			}
			defer store.Close()

			stats, err := ws.cache().Export(cmd.Context(), ws.snap.Files(), store)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(g.stderr, "wrote %d annotation classes and %d usages to %s\n",
				stats.Declarations, stats.Usages, path)
			if stats.Unresolved > 0 {
				_, _ = fmt.Fprintf(g.stderr, "Warning: skipped %d unresolved usages\n", stats.Unresolved)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "stub database path (default [stubs] path or "+defaultStubsPath+")")
	return cmd
}
