package main

import (
	"github.com/spf13/cobra"

	"github.com/phobologic/ktlight/internal/index"
	"github.com/phobologic/ktlight/internal/lsp"
)

func newLSPCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "lsp [root]",
		Short: "Run the hover language server on stdio",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := g.load(cmd.Context(), args, true)
			if err != nil {
				return err
			}
			defer ws.Close()

			return lsp.New(index.NewProject(ws.snap), version, ws.opts, ws.resOpts...).Run()
		},
	}
}
