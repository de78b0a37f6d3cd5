// ktlight shows Kotlin annotation usages the way Java annotation processors
// see them.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	_ "github.com/tliron/commonlog/simple"
)

var version = "dev"

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	cmd := newRootCmd(stdout, stderr)
	cmd.SetArgs(args)
	return cmd.Execute()
}

// globals holds the persistent flags and output streams shared by every
// subcommand.
type globals struct {
	verbose int
	langs   string
	stdout  io.Writer
	stderr  io.Writer
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	g := &globals{stdout: stdout, stderr: stderr}
	cmd := &cobra.Command{
		Use:   "ktlight",
		Short: "Project Kotlin annotations into a Java annotation model",
		Long: `ktlight indexes the Kotlin and Java sources of a project and evaluates every
annotation usage the way a Java annotation processor would see it: defaults
filled in from the declaration, varargs collected into arrays, nested
annotations expanded.

Configuration is read from ktlight.toml in the source root or any parent.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetVersionTemplate("ktlight {{.Version}}\n")
	cmd.PersistentFlags().CountVarP(&g.verbose, "verbose", "v", "increase log verbosity (repeatable)")
	cmd.PersistentFlags().StringVarP(&g.langs, "langs", "l", "", "comma-separated languages to include (kotlin, java)")

	cmd.AddCommand(
		newDumpCmd(g),
		newAttrCmd(g),
		newStubsCmd(g),
		newLSPCmd(g),
		newInitCmd(g),
	)
	return cmd
}
