package index

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"sync"

	"github.com/phobologic/ktlight/internal/graph"
	"github.com/phobologic/ktlight/internal/lang"
)

// Project holds the current snapshot of a source tree and replaces it as
// files change. It is safe for concurrent use.
type Project struct {
	mu   sync.Mutex
	snap *Snapshot
}

// NewProject starts a project at the given snapshot.
func NewProject(snap *Snapshot) *Project {
	return &Project{snap: snap}
}

// Snapshot returns the current snapshot.
func (p *Project) Snapshot() *Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snap
}

// Update reparses one file from source and installs the resulting snapshot.
// It returns the new snapshot and every file whose annotation views may have
// changed: the file itself and its transitive dependents in both the old and
// the new graph.
func (p *Project) Update(ctx context.Context, path string, source []byte) (*Snapshot, []string, error) {
	path = filepath.ToSlash(path)
	l := lang.ForPath(path)
	if l == nil {
		return nil, nil, fmt.Errorf("%s: unsupported file type", path)
	}
	f, err := l.ParseSource(ctx, path, source)
	if err != nil {
		return nil, nil, fmt.Errorf("updating %s: %w", path, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	old := p.snap
	p.snap = old.with(path, f)
	return p.snap, affected(old, p.snap, path), nil
}

// Remove drops a file from the project.
func (p *Project) Remove(path string) (*Snapshot, []string) {
	path = filepath.ToSlash(path)

	p.mu.Lock()
	defer p.mu.Unlock()
	old := p.snap
	if old.File(path) == nil {
		return old, nil
	}
	p.snap = old.with(path, nil)
	return p.snap, affected(old, p.snap, path)
}

func affected(old, cur *Snapshot, path string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, deps := range [][]string{
		graph.Dependents(old.Dependencies(), path),
		graph.Dependents(cur.Dependencies(), path),
	} {
		for _, d := range deps {
			if _, ok := seen[d]; !ok {
				seen[d] = struct{}{}
				out = append(out, d)
			}
		}
	}
	sort.Strings(out)
	return out
}
