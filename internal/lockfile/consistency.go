package lockfile

import (
	"fmt"
	"slices"
	"sort"

	"github.com/terassyi/vx/internal/versionsolver"
)

// InconsistencyKind classifies one check_consistency finding (spec.md
// §4.4).
type InconsistencyKind string

const (
	KindVersionNoLongerSatisfies InconsistencyKind = "VersionNoLongerSatisfies"
	KindToolAdded                InconsistencyKind = "ToolAdded"
	KindToolRemoved              InconsistencyKind = "ToolRemoved"
	KindDependencyEdgeChanged    InconsistencyKind = "DependencyEdgeChanged"
)

// Inconsistency is one finding from CheckConsistency.
type Inconsistency struct {
	Runtime string
	Kind    InconsistencyKind
	Message string
}

// DeclaredTool is one tool declaration from a project's vx.toml, as
// needed for consistency checking.
type DeclaredTool struct {
	Runtime   string
	Request   string // raw VersionRequest string, e.g. "^20"
	Ecosystem string
}

// CheckConsistency implements spec.md §4.4's check_consistency: an entry
// is inconsistent when the user-declared VersionRequest no longer
// satisfies the locked version, when a tool was added or removed from
// the project, or when a dependency edge changed. currentDeps supplies
// each runtime's live dependency edges (from the Runtime Map) to compare
// against the lock file's own `[dependencies]` table.
func (lf *LockFile) CheckConsistency(declared []DeclaredTool, currentDeps map[string][]string) []Inconsistency {
	var out []Inconsistency

	declaredNames := make(map[string]struct{}, len(declared))
	for _, d := range declared {
		declaredNames[d.Runtime] = struct{}{}

		tool, ok := lf.Tools[d.Runtime]
		if !ok {
			out = append(out, Inconsistency{
				Runtime: d.Runtime, Kind: KindToolAdded,
				Message: fmt.Sprintf("%q is declared in the project but has no lock entry", d.Runtime),
			})
			continue
		}

		strategy := versionsolver.For(d.Ecosystem)
		req, err := versionsolver.ParseRequest(d.Request)
		if err != nil {
			out = append(out, Inconsistency{
				Runtime: d.Runtime, Kind: KindVersionNoLongerSatisfies,
				Message: fmt.Sprintf("%q's declared version request %q could not be parsed: %v", d.Runtime, d.Request, err),
			})
			continue
		}
		satisfies, err := strategy.Satisfies(tool.Version, req)
		if err != nil || !satisfies {
			out = append(out, Inconsistency{
				Runtime: d.Runtime, Kind: KindVersionNoLongerSatisfies,
				Message: fmt.Sprintf("locked version %s of %q no longer satisfies %q", tool.Version, d.Runtime, d.Request),
			})
		}
	}

	for name := range lf.Tools {
		if _, ok := declaredNames[name]; !ok {
			out = append(out, Inconsistency{
				Runtime: name, Kind: KindToolRemoved,
				Message: fmt.Sprintf("%q has a lock entry but is no longer declared in the project", name),
			})
		}
	}

	names := lf.names()
	for _, name := range names {
		want, ok := currentDeps[name]
		if !ok {
			continue
		}
		got := lf.Dependencies[name]
		wantSorted := append([]string(nil), want...)
		gotSorted := append([]string(nil), got...)
		sort.Strings(wantSorted)
		sort.Strings(gotSorted)
		if !slices.Equal(wantSorted, gotSorted) {
			out = append(out, Inconsistency{
				Runtime: name, Kind: KindDependencyEdgeChanged,
				Message: fmt.Sprintf("%q's dependency edges changed: locked %v, now %v", name, gotSorted, wantSorted),
			})
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Runtime != out[j].Runtime {
			return out[i].Runtime < out[j].Runtime
		}
		return out[i].Kind < out[j].Kind
	})
	return out
}
