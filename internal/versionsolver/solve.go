package versionsolver

import (
	"sort"

	"github.com/terassyi/vx/internal/vxerrors"
)

// Solve implements spec.md §4's algorithm: parse the raw request under
// ecosystem, skip prerelease candidates unless allowed or requested, then
// pick the highest-comparing element that satisfies the constraint,
// preferring an LTS candidate when two compare equal. Candidates are not
// filtered by platform. Returns a *vxerrors.ResolveError (KindVersionNotFound) with
// near-miss suggestions when nothing satisfies.
func Solve(ecosystem, runtime, rawRequest string, candidates []Candidate, allowPrerelease bool) (Candidate, error) {
	strategy := For(ecosystem)

	req, err := ParseRequest(rawRequest)
	if err != nil {
		return Candidate{}, vxerrors.NewManifestInvalid(runtime, err.Error(), err)
	}

	var best *Candidate
	for i := range candidates {
		c := &candidates[i]

		if c.Prerelease && !allowPrerelease && req.Kind != LatestPrerelease {
			continue
		}

		ok, err := strategy.Satisfies(c.Version, req)
		if err != nil || !ok {
			continue
		}

		if best == nil {
			best = c
			continue
		}
		cmp, err := strategy.Compare(c.Version, best.Version)
		if err != nil {
			continue
		}
		if req.Kind == LatestPrerelease {
			if cmp > 0 {
				best = c
			}
			continue
		}
		// Prefer LTS when both candidates otherwise compare equal in rank,
		// matching spec.md §4's "ecosystem-specific LTS preferences".
		if cmp > 0 || (cmp == 0 && c.LTS && !best.LTS) {
			best = c
		}
	}

	if best == nil {
		return Candidate{}, vxerrors.NewVersionNotFound(runtime, rawRequest, nearMisses(strategy, candidates, 5))
	}
	return *best, nil
}

// nearMisses returns up to n candidate versions (by descending recency in
// the input slice) for inclusion in a VersionNotFound error's
// suggestions, so the CLI can show the user what *is* available.
func nearMisses(strategy Strategy, candidates []Candidate, n int) []string {
	versions := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if !c.Prerelease {
			versions = append(versions, c.Version)
		}
	}
	sort.Slice(versions, func(i, j int) bool {
		cmp, err := strategy.Compare(versions[i], versions[j])
		if err != nil {
			return false
		}
		return cmp > 0
	})
	if len(versions) > n {
		versions = versions[:n]
	}
	return versions
}

// ConflictSource names one contributor to a joint constraint on a single
// runtime, for UnsatisfiableConstraint reporting (spec.md §4:
// "a chain of source→constraint→affected-runtime").
type ConflictSource struct {
	Source     string // the tool/runtime that declared the constraint
	Constraint string
}

// DetectConflict reports whether the joint set of constraints on runtime
// has no candidate satisfying all of them simultaneously, returning a
// *vxerrors.ResolveError (KindUnsatisfiableConstraint) when so.
func DetectConflict(ecosystem, runtime string, sources []ConflictSource, candidates []Candidate) error {
	strategy := For(ecosystem)

	for i := range candidates {
		c := &candidates[i]
		satisfiesAll := true
		for _, src := range sources {
			req, err := ParseRequest(src.Constraint)
			if err != nil {
				satisfiesAll = false
				break
			}
			ok, err := strategy.Satisfies(c.Version, req)
			if err != nil || !ok {
				satisfiesAll = false
				break
			}
		}
		if satisfiesAll {
			return nil
		}
	}

	chain := make([]vxerrors.UnsatisfiableConstraintLink, 0, len(sources))
	suggestions := make([]string, 0, len(sources)+1)
	for _, src := range sources {
		chain = append(chain, vxerrors.UnsatisfiableConstraintLink{
			Source: src.Source, Constraint: src.Constraint, Runtime: runtime,
		})
		suggestions = append(suggestions, "review the version constraint declared by "+src.Source)
	}
	suggestions = append(suggestions, "vx check --explain "+runtime)

	return vxerrors.NewUnsatisfiableConstraint(runtime, chain, suggestions)
}
