package report

import (
	"strings"

	"github.com/phobologic/ktlight/internal/model"
)

// FilterByAnnotation returns a new Report containing only the annotations
// whose qualified name contains substr (case-insensitive), the diagnostics
// of their files, and the dependency edges leaving those files.
func FilterByAnnotation(r *model.Report, substr string) *model.Report {
	lower := strings.ToLower(substr)
	return filter(r, func(a *model.Annotation) bool {
		return strings.Contains(strings.ToLower(a.Name), lower)
	})
}

// FilterByFile returns a new Report containing only the annotations of files
// whose path contains substr (case-insensitive), with their diagnostics and
// the dependency edges touching those files.
func FilterByFile(r *model.Report, substr string) *model.Report {
	lower := strings.ToLower(substr)
	return filter(r, func(a *model.Annotation) bool {
		return strings.Contains(strings.ToLower(a.File), lower)
	})
}

func filter(r *model.Report, keep func(*model.Annotation) bool) *model.Report {
	matchedFiles := make(map[string]struct{})
	var annotations []model.Annotation
	for i := range r.Annotations {
		a := &r.Annotations[i]
		if keep(a) {
			matchedFiles[a.File] = struct{}{}
			annotations = append(annotations, *a)
		}
	}

	var deps []model.Dependency
	for i := range r.Dependencies {
		d := &r.Dependencies[i]
		if _, ok := matchedFiles[d.Source]; ok {
			deps = append(deps, *d)
		}
	}

	var diags []model.Diagnostic
	for i := range r.Diagnostics {
		d := &r.Diagnostics[i]
		if _, ok := matchedFiles[d.File]; ok {
			diags = append(diags, *d)
		}
	}

	return &model.Report{
		Name:         r.Name,
		Root:         r.Root,
		Files:        len(matchedFiles),
		Annotations:  annotations,
		Dependencies: deps,
		Diagnostics:  diags,
	}
}
