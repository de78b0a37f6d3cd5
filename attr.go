package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/phobologic/ktlight/internal/model"
	"github.com/phobologic/ktlight/internal/report"
)

func newAttrCmd(g *globals) *cobra.Command {
	var root string
	cmd := &cobra.Command{
		Use:   "attr <owner> <annotation> [name]",
		Short: "Show the attributes of one annotation usage",
		Long: `Show the attributes of the annotations named <annotation> on <owner>, including
defaults. <owner> is a qualified declaration name such as com.example.User or
com.example.User.name; <annotation> may be qualified or simple.`,
		Args: cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := g.load(cmd.Context(), []string{root}, true)
			if err != nil {
				return err
			}
			defer ws.Close()

			owner, annotation := args[0], args[1]
			views := report.Find(ws.snap, ws.cache(), owner, annotation)
			if len(views) == 0 {
				return fmt.Errorf("no @%s on %s", annotation, owner)
			}

			table := newTable(g.stdout, []string{"#", "Attribute", "Kind", "Value", "Origin", "Location"})
			for _, v := range views {
				var attrs []model.Attribute
				if len(args) == 3 {
					n := v.FindAttribute(args[2])
					if n == nil {
						return fmt.Errorf("@%s has no attribute %q", v.QualifiedName(), args[2])
					}
					attrs = append(attrs, report.Attribute(args[2], n))
				} else {
					attrs = report.Annotation(v).Attribute
				}
				for _, at := range attrs {
					table.Append([]string{
						strconv.Itoa(v.Ordinal()),
						at.Name,
						string(at.Kind),
						at.Value,
						string(at.Origin),
						at.Location,
					})
				}
			}
			table.Render()
			return nil
		},
	}
	cmd.Flags().StringVarP(&root, "root", "r", ".", "source root")
	return cmd
}
