package main

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/phobologic/ktlight/internal/config"
)

const (
	sentinelStart = "# ktlight:start"
	sentinelEnd   = "# ktlight:end"
)

// newInitCmd implements `ktlight init`, which writes (or updates) the
// generated section of a ktlight.toml file.
func newInitCmd(g *globals) *cobra.Command {
	var dryRun, force bool
	cmd := &cobra.Command{
		Use:   "init [path-to-ktlight.toml]",
		Short: "Write a default ktlight.toml",
		Long: `Write the default ktlight configuration to a ktlight.toml file. The settings are
wrapped in sentinel comments; content outside them is left untouched. An
existing section is only replaced with --force. Creates the file if it does
not exist.

path-to-ktlight.toml defaults to ./ktlight.toml.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			section, err := generateSection()
			if err != nil {
				return err
			}

			// --dry-run with no path: just print the section itself.
			if dryRun && len(args) == 0 {
				_, _ = fmt.Fprintln(g.stdout, section)
				return nil
			}

			path := config.FileName
			if len(args) > 0 {
				path = args[0]
			}

			existing, _ := os.ReadFile(path)
			if hasSection(string(existing)) && !force {
				return fmt.Errorf("%s already has a ktlight section (use --force to replace it)", path)
			}
			updated := applySection(string(existing), section)

			if dryRun {
				_, _ = fmt.Fprint(g.stdout, updated)
				return nil
			}

			if err := os.WriteFile(path, []byte(updated), 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", path, err)
			}

			_, _ = fmt.Fprintf(g.stderr, "wrote ktlight section to %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print what would be written without modifying the file")
	cmd.Flags().BoolVar(&force, "force", false, "replace an existing ktlight section")
	return cmd
}

// generateSection returns the sentinel-wrapped default configuration.
func generateSection() (string, error) {
	c := config.Default("")
	c.Stubs.Path = defaultStubsPath

	var buf bytes.Buffer
	buf.WriteString("# Written by `ktlight init`. Paths are relative to this file.\n\n")
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return "", fmt.Errorf("encoding default config: %w", err)
	}
	return sentinelStart + "\n" + strings.TrimRight(buf.String(), "\n") + "\n" + sentinelEnd, nil
}

func hasSection(content string) bool {
	start := strings.Index(content, sentinelStart)
	return start >= 0 && strings.Index(content, sentinelEnd) > start
}

// applySection inserts section into content, replacing an existing sentinel
// block if present or appending if not.
func applySection(content, section string) string {
	start := strings.Index(content, sentinelStart)
	end := strings.Index(content, sentinelEnd)

	if start >= 0 && end > start {
		return content[:start] + section + content[end+len(sentinelEnd):]
	}

	if len(content) > 0 && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	if content == "" {
		return section + "\n"
	}
	return content + "\n" + section + "\n"
}
