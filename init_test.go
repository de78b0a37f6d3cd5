package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/phobologic/ktlight/internal/config"
)

// TestApplySectionCreate verifies that applySection on empty content yields
// just the section with a trailing newline.
func TestApplySectionCreate(t *testing.T) {
	t.Parallel()
	section := sentinelStart + "\nbody\n" + sentinelEnd
	got := applySection("", section)
	if got != section+"\n" {
		t.Errorf("applySection on empty content = %q", got)
	}
}

// TestApplySectionAppend verifies that existing content without a sentinel
// block is preserved and the section is appended.
func TestApplySectionAppend(t *testing.T) {
	t.Parallel()
	existing := "# mine\n[extra]\nkey = 1"
	section := sentinelStart + "\nnew content\n" + sentinelEnd
	got := applySection(existing, section)

	if !strings.HasPrefix(got, existing+"\n") {
		t.Errorf("existing content should be preserved at start:\n%s", got)
	}
	if !strings.Contains(got, "new content") {
		t.Error("new content missing")
	}
}

// TestApplySectionUpdate verifies that an existing sentinel block is replaced
// precisely, leaving surrounding content intact.
func TestApplySectionUpdate(t *testing.T) {
	t.Parallel()
	before := "# header\n\n"
	after := "\n\n# trailer\n"
	old := before + sentinelStart + "\nold content\n" + sentinelEnd + after

	section := sentinelStart + "\nnew content\n" + sentinelEnd
	got := applySection(old, section)

	if !strings.HasPrefix(got, before) {
		t.Errorf("content before sentinel should be preserved:\n%s", got)
	}
	if !strings.HasSuffix(got, after) {
		t.Errorf("content after sentinel should be preserved:\n%s", got)
	}
	if strings.Contains(got, "old content") {
		t.Error("old content should be replaced")
	}
}

// TestInitWritesLoadableConfig verifies that the written file parses back
// into the default configuration.
func TestInitWritesLoadableConfig(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, config.FileName)

	var stdout, stderr bytes.Buffer
	if err := run([]string{"init", path}, &stdout, &stderr); err != nil {
		t.Fatalf("init: %v", err)
	}
	if !strings.Contains(stderr.String(), "wrote ktlight section") {
		t.Errorf("stderr: %q", stderr.String())
	}

	c, err := config.Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.View.MaxDepth != config.DefaultMaxDepth {
		t.Errorf("max-depth = %d, want %d", c.View.MaxDepth, config.DefaultMaxDepth)
	}
	if len(c.Source.Roots) != 1 || c.Source.Roots[0] != "." {
		t.Errorf("roots = %v", c.Source.Roots)
	}
	if got := c.StubsPath(); got != filepath.Join(dir, defaultStubsPath) {
		t.Errorf("stubs path = %q", got)
	}
	if strings.Join(c.Resolve.DefaultImports, ",") != strings.Join(config.DefaultImports, ",") {
		t.Errorf("default-imports = %v", c.Resolve.DefaultImports)
	}
}

// TestInitRefusesToReplace verifies that an existing section is kept unless
// --force is given.
func TestInitRefusesToReplace(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, config.FileName)
	edited := sentinelStart + "\n[view]\nmax-depth = 3\n" + sentinelEnd + "\n"
	if err := os.WriteFile(path, []byte(edited), 0o644); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	err := run([]string{"init", path}, &buf, &buf)
	if err == nil || !strings.Contains(err.Error(), "--force") {
		t.Fatalf("expected refusal, got %v", err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != edited {
		t.Error("refused init must not modify the file")
	}

	if err := run([]string{"init", "--force", path}, &buf, &buf); err != nil {
		t.Fatalf("init --force: %v", err)
	}
	data, _ = os.ReadFile(path)
	if strings.Contains(string(data), "max-depth = 3") {
		t.Error("--force should replace the section")
	}
}

// TestInitDryRun verifies that --dry-run prints without writing.
func TestInitDryRun(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, config.FileName)

	existing := "# kept\n"
	if err := os.WriteFile(path, []byte(existing), 0o644); err != nil {
		t.Fatal(err)
	}

	var stdout, stderr bytes.Buffer
	if err := run([]string{"init", "--dry-run", path}, &stdout, &stderr); err != nil {
		t.Fatalf("init: %v", err)
	}

	out := stdout.String()
	if !strings.HasPrefix(out, "# kept\n") {
		t.Error("dry-run output missing existing file content")
	}
	if !strings.Contains(out, sentinelStart) || !strings.Contains(out, "[source]") {
		t.Errorf("dry-run output missing section:\n%s", out)
	}
	data, _ := os.ReadFile(path)
	if string(data) != existing {
		t.Error("--dry-run must not modify the file")
	}
}

// TestInitDryRunNoPath verifies that --dry-run without a path prints only
// the section.
func TestInitDryRunNoPath(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer
	if err := run([]string{"init", "--dry-run"}, &stdout, &stderr); err != nil {
		t.Fatalf("init: %v", err)
	}
	out := strings.TrimSpace(stdout.String())
	if !strings.HasPrefix(out, sentinelStart) || !strings.HasSuffix(out, sentinelEnd) {
		t.Errorf("expected bare section, got:\n%s", out)
	}
}

// TestInitIdempotent verifies that forcing init twice produces identical
// output.
func TestInitIdempotent(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, config.FileName)

	var buf bytes.Buffer
	if err := run([]string{"init", path}, &buf, &buf); err != nil {
		t.Fatalf("first run: %v", err)
	}
	first, _ := os.ReadFile(path)

	if err := run([]string{"init", "--force", path}, &buf, &buf); err != nil {
		t.Fatalf("second run: %v", err)
	}
	second, _ := os.ReadFile(path)

	if string(first) != string(second) {
		t.Errorf("init is not idempotent:\nfirst:\n%s\nsecond:\n%s", first, second)
	}
}
