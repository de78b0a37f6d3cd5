// Package discover finds Kotlin and Java source files under a source root.
package discover

import (
	"context"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	ignore "github.com/sabhiram/go-gitignore"

	"github.com/phobologic/ktlight/internal/lang"
	"github.com/phobologic/ktlight/internal/syntax"
)

// FileEntry represents a discovered source file.
type FileEntry struct {
	Path     string // Relative to the source root
	Language syntax.Language
}

// Options narrows discovery.
type Options struct {
	// Languages restricts results to the listed languages when non-empty.
	Languages []syntax.Language
	// Exclude holds gitignore-style patterns relative to the root.
	Exclude []string
	// MaxFileSize skips larger files when positive.
	MaxFileSize int64
	// Warnings receives one line per skipped file; may be nil.
	Warnings io.Writer
}

var skipDirs = map[string]struct{}{
	"build":        {},
	"out":          {},
	"target":       {},
	"node_modules": {},
	".git":         {},
	".hg":          {},
	".svn":         {},
	".gradle":      {},
	".idea":        {},
	".kotlin":      {},
	".ktlight":     {},
}

// Files discovers parseable source files under root, sorted by path.
func Files(root string, opts Options) ([]FileEntry, error) {
	langSet := make(map[syntax.Language]struct{}, len(opts.Languages))
	for _, l := range opts.Languages {
		langSet[l] = struct{}{}
	}
	gitFiles := gitLsFiles(root)
	var gi *ignore.GitIgnore
	if gitFiles == nil {
		gi = loadGitignore(root)
	}
	var excluded *ignore.GitIgnore
	if len(opts.Exclude) > 0 {
		excluded = ignore.CompileIgnoreLines(opts.Exclude...)
	}

	var results []FileEntry

	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // skip errors
		}

		name := d.Name()

		if d.IsDir() {
			if path == root {
				return nil
			}
			if _, skip := skipDirs[name]; skip || strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}

		if strings.HasPrefix(name, ".") {
			return nil
		}

		// Skip symlinks
		if d.Type()&os.ModeSymlink != 0 {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}

		if gitFiles != nil {
			if _, ok := gitFiles[filepath.ToSlash(rel)]; !ok {
				return nil
			}
		} else if gi != nil && gi.MatchesPath(rel) {
			return nil
		}
		if excluded != nil && excluded.MatchesPath(rel) {
			return nil
		}

		langName := lang.ForExtension(filepath.Ext(name))
		if langName == "" {
			return nil
		}

		if len(langSet) > 0 {
			if _, ok := langSet[langName]; !ok {
				return nil
			}
		}

		if opts.MaxFileSize > 0 {
			if info, err := d.Info(); err == nil && info.Size() > opts.MaxFileSize {
				if opts.Warnings != nil {
					_, _ = io.WriteString(opts.Warnings, "Warning: "+rel+": skipped (too large)\n")
				}
				return nil
			}
		}

		results = append(results, FileEntry{Path: rel, Language: langName})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Path < results[j].Path
	})

	return results, nil
}

// IsTestFile reports whether a path looks like test sources, following the
// Gradle/Maven layout.
func IsTestFile(path string) bool {
	p := filepath.ToSlash(path)
	for _, part := range strings.Split(p, "/") {
		switch part {
		case "test", "androidTest", "testFixtures", "commonTest", "jvmTest":
			return true
		}
	}
	base := strings.TrimSuffix(filepath.Base(p), filepath.Ext(p))
	return strings.HasSuffix(base, "Test") || strings.HasSuffix(base, "Tests") || strings.HasSuffix(base, "Spec")
}

func gitLsFiles(root string) map[string]struct{} {
	gitDir := filepath.Join(root, ".git")
	info, err := os.Stat(gitDir)
	if err != nil || !info.IsDir() {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", "ls-files", "--cached", "--others", "--exclude-standard")
	cmd.Dir = root
	out, err := cmd.Output()
	if err != nil {
		return nil
	}

	files := make(map[string]struct{})
	for _, line := range strings.Split(strings.TrimRight(string(out), "\n"), "\n") {
		if line != "" {
			files[line] = struct{}{}
		}
	}
	return files
}

func loadGitignore(root string) *ignore.GitIgnore {
	path := filepath.Join(root, ".gitignore")
	gi, err := ignore.CompileIgnoreFile(path)
	if err != nil {
		return nil
	}
	return gi
}
