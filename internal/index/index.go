// Package index parses a source tree into immutable snapshots and tracks
// which files must be re-projected when one of them changes.
package index

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"

	"github.com/tliron/commonlog"
	"golang.org/x/sync/errgroup"

	"github.com/phobologic/ktlight/internal/discover"
	"github.com/phobologic/ktlight/internal/graph"
	"github.com/phobologic/ktlight/internal/lang"
	"github.com/phobologic/ktlight/internal/model"
	"github.com/phobologic/ktlight/internal/syntax"
)

var log = commonlog.GetLogger("ktlight.index")

// Snapshot is an immutable view of every parsed file of a source tree.
type Snapshot struct {
	root  string
	files map[string]*syntax.File
	paths []string
	decls map[string]*syntax.Declaration
	deps  []model.Dependency
}

// New builds a snapshot from already parsed files. Later files win when two
// share a path; the first declaration of a qualified name wins.
func New(root string, files ...*syntax.File) *Snapshot {
	s := &Snapshot{
		root:  root,
		files: make(map[string]*syntax.File, len(files)),
		decls: make(map[string]*syntax.Declaration),
	}
	for _, f := range files {
		s.files[f.Path] = f
	}
	for p := range s.files {
		s.paths = append(s.paths, p)
	}
	sort.Strings(s.paths)

	ordered := make([]*syntax.File, 0, len(s.paths))
	for _, p := range s.paths {
		f := s.files[p]
		ordered = append(ordered, f)
		for _, d := range f.Declarations {
			if prev, dup := s.decls[d.FQN]; dup {
				log.Warningf("%s: %s already declared in %s", f.Path, d.FQN, prev.File.Path)
				continue
			}
			s.decls[d.FQN] = d
		}
	}
	s.deps = graph.BuildGraph(ordered)
	return s
}

// Root returns the source root the snapshot was built from.
func (s *Snapshot) Root() string { return s.root }

// Paths returns the relative paths of all files, sorted.
func (s *Snapshot) Paths() []string { return s.paths }

// File returns the parsed file at a relative path, or nil.
func (s *Snapshot) File(path string) *syntax.File { return s.files[path] }

// Files returns all files in path order.
func (s *Snapshot) Files() []*syntax.File {
	out := make([]*syntax.File, len(s.paths))
	for i, p := range s.paths {
		out[i] = s.files[p]
	}
	return out
}

// Declaration returns the declaration with the given qualified name, or nil.
func (s *Snapshot) Declaration(fqn string) *syntax.Declaration { return s.decls[fqn] }

// Dependencies returns the file dependency edges of the snapshot.
func (s *Snapshot) Dependencies() []model.Dependency { return s.deps }

// with returns a copy of s in which path is replaced by f, or removed when f
// is nil.
func (s *Snapshot) with(path string, f *syntax.File) *Snapshot {
	files := make([]*syntax.File, 0, len(s.files)+1)
	for p, old := range s.files {
		if p != path {
			files = append(files, old)
		}
	}
	if f != nil {
		files = append(files, f)
	}
	return New(s.root, files...)
}

// Build parses the discovered files concurrently. Files that cannot be read
// or parsed are logged and left out of the snapshot.
func Build(ctx context.Context, root string, entries []discover.FileEntry) (*Snapshot, error) {
	numWorkers := runtime.GOMAXPROCS(0)
	if numWorkers > len(entries) {
		numWorkers = len(entries)
	}
	if numWorkers < 1 {
		numWorkers = 1
	}

	parsed := make([]*syntax.File, len(entries))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(numWorkers)
	for i, e := range entries {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			l := lang.Languages[e.Language]
			if l == nil {
				log.Warningf("%s: unsupported language %q", e.Path, e.Language)
				return nil
			}
			source, err := os.ReadFile(filepath.Join(root, e.Path))
			if err != nil {
				log.Warningf("failed to read %s: %v", e.Path, err)
				return nil
			}
			f, err := l.ParseSource(ctx, filepath.ToSlash(e.Path), source)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				log.Warningf("failed to parse %s: %v", e.Path, err)
				return nil
			}
			parsed[i] = f
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("building index: %w", err)
	}

	files := make([]*syntax.File, 0, len(parsed))
	for _, f := range parsed {
		if f != nil {
			files = append(files, f)
		}
	}
	log.Infof("indexed %d of %d files under %s", len(files), len(entries), root)
	return New(root, files...), nil
}
