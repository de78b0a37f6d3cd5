package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/phobologic/ktlight/internal/model"
	"github.com/phobologic/ktlight/internal/report"
	"github.com/phobologic/ktlight/internal/toon"
)

func newDumpCmd(g *globals) *cobra.Command {
	var format, annotation, file string
	cmd := &cobra.Command{
		Use:   "dump [root]",
		Short: "Print every annotation usage with its evaluated attributes",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "toon" && format != "table" {
				return fmt.Errorf("unknown format %q (want toon or table)", format)
			}
			ws, err := g.load(cmd.Context(), args, true)
			if err != nil {
				return err
			}
			defer ws.Close()

			r := report.Build(filepath.Base(ws.cfg.Dir), ws.snap, ws.cache())
			if annotation != "" {
				r = report.FilterByAnnotation(r, annotation)
			}
			if file != "" {
				r = report.FilterByFile(r, file)
			}
			if format == "table" {
				writeReportTable(g.stdout, r)
				return nil
			}
			_, _ = fmt.Fprintln(g.stdout, toon.Encode(r))
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "toon", "output format: toon or table")
	cmd.Flags().StringVarP(&annotation, "annotation", "a", "", "only annotations whose qualified name contains this (case-insensitive)")
	cmd.Flags().StringVar(&file, "file", "", "only annotations in files whose path contains this (case-insensitive)")
	return cmd
}

func writeReportTable(w io.Writer, r *model.Report) {
	table := newTable(w, []string{"Location", "Owner", "Annotation", "Attribute", "Value", "Origin"})
	rows := 0
	for _, a := range r.Annotations {
		loc := a.File + ":" + strconv.Itoa(a.Line)
		name := a.Name
		if !a.Resolved {
			name += " (unresolved)"
		}
		if len(a.Attribute) == 0 {
			table.Append([]string{loc, a.Owner, name, "", "", ""})
			rows++
			continue
		}
		for _, at := range a.Attribute {
			table.Append([]string{loc, a.Owner, name, at.Name, at.Value, string(at.Origin)})
			rows++
		}
	}
	table.SetFooter([]string{
		fmt.Sprintf("%d files", r.Files),
		"",
		fmt.Sprintf("%d annotations", len(r.Annotations)),
		fmt.Sprintf("%d rows", rows),
		"",
		fmt.Sprintf("%d diagnostics", len(r.Diagnostics)),
	})
	table.Render()
}

func newTable(w io.Writer, header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	return table
}
