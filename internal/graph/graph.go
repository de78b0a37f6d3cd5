// Package graph builds the file dependency graph of annotation usage.
package graph

import (
	"sort"

	"github.com/phobologic/ktlight/internal/model"
	"github.com/phobologic/ktlight/internal/syntax"
)

// BuildGraph creates dependency edges from annotation usages to the files
// declaring annotation classes of the same simple name. Calls inside
// arguments and parameter defaults count as usages. Matching by simple name
// over-approximates the resolved edges.
func BuildGraph(files []*syntax.File) []model.Dependency {
	// Build definition index: annotation name → set of files that declare it
	defines := make(map[string]map[string]struct{})
	for _, f := range files {
		for _, d := range f.Declarations {
			if !d.Annotation {
				continue
			}
			if defines[d.Name] == nil {
				defines[d.Name] = make(map[string]struct{})
			}
			defines[d.Name][f.Path] = struct{}{}
		}
	}

	// Build edges: source → target → list of symbols
	type edgeKey struct{ src, tgt string }
	edgeSymbols := make(map[edgeKey][]string)

	for _, f := range files {
		for _, name := range References(f) {
			defFiles := defines[name]
			if defFiles == nil {
				continue
			}
			// Iterate in sorted order for determinism
			for _, defFile := range sortedKeys(defFiles) {
				if defFile == f.Path {
					continue // no self-edges
				}
				key := edgeKey{f.Path, defFile}
				if !contains(edgeSymbols[key], name) {
					edgeSymbols[key] = append(edgeSymbols[key], name)
				}
			}
		}
	}

	var deps []model.Dependency
	for key, syms := range edgeSymbols {
		sort.Strings(syms)
		deps = append(deps, model.Dependency{
			Source:  key.src,
			Target:  key.tgt,
			Symbols: syms,
		})
	}

	// Sort for deterministic output
	sort.Slice(deps, func(i, j int) bool {
		if deps[i].Source != deps[j].Source {
			return deps[i].Source < deps[j].Source
		}
		return deps[i].Target < deps[j].Target
	})

	return deps
}

// References returns the distinct simple names of every callee used by the
// file's annotation entries, their nested calls and its parameter defaults.
func References(f *syntax.File) []string {
	seen := make(map[string]struct{})
	var names []string
	add := func(r syntax.Ref) {
		n := r.Name()
		if n == "" {
			return
		}
		if _, ok := seen[n]; ok {
			return
		}
		seen[n] = struct{}{}
		names = append(names, n)
	}
	var walk func(e *syntax.Expr)
	walk = func(e *syntax.Expr) {
		if e == nil {
			return
		}
		if e.Kind == syntax.ExprCall {
			add(e.Callee)
		}
		for _, a := range e.Args {
			walk(a.Value)
		}
		for _, el := range e.Elems {
			if e.Kind != syntax.ExprArgumentList {
				walk(el)
			}
		}
		walk(e.Operand)
	}
	for _, en := range f.Entries {
		add(en.Callee)
		for _, a := range en.Args {
			walk(a.Value)
		}
	}
	for _, d := range f.Declarations {
		for _, p := range d.Params {
			walk(p.Default)
		}
	}
	sort.Strings(names)
	return names
}

// Dependents returns every file that transitively depends on one of the
// given paths, including the paths themselves, sorted.
func Dependents(deps []model.Dependency, paths ...string) []string {
	reverse := make(map[string][]string)
	for _, d := range deps {
		reverse[d.Target] = append(reverse[d.Target], d.Source)
	}
	seen := make(map[string]struct{})
	queue := append([]string(nil), paths...)
	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		queue = append(queue, reverse[p]...)
	}
	return sortedKeys(seen)
}

func sortedKeys(m map[string]struct{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func contains(slice []string, s string) bool {
	for _, v := range slice {
		if v == s {
			return true
		}
	}
	return false
}
