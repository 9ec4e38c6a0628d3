package manifest

import (
	"fmt"

	"github.com/terassyi/vx/internal/platform"
)

// Runtime is the merged, precedence-resolved view of one runtime as
// exposed to the rest of vx: the Runtime Map (§4.2) consumes RuntimeSpec
// fields from it, and the Installer/Environment Builder consume the
// richer configuration.
type Runtime struct {
	RuntimeEntry
	Provider   Provider
	SourcePath string
	Tier       Tier
}

// Store is the fully merged, indexed manifest view: every runtime reachable
// by canonical name or alias, overridden per spec.md §4.1's precedence
// order. It is built once at startup and is immutable thereafter.
type Store struct {
	byName map[string]*Runtime
	alias  map[string]string // alias -> canonical name
	order  []string          // canonical names in first-seen order, for stable iteration
}

func newStore() *Store {
	return &Store{
		byName: make(map[string]*Runtime),
		alias:  make(map[string]string),
	}
}

// Merge builds a Store directly from already-parsed manifests, applying
// the same precedence-merge rules LoadAll uses. This is the entry point
// for callers that already have Manifest values in hand — e.g. tests, or
// tools embedding manifests from a source other than disk.
func Merge(manifests ...*Manifest) (*Store, Diagnostics) {
	var diags Diagnostics
	store := newStore()
	for _, m := range manifests {
		store.merge(m, &diags)
	}
	return store, diags
}

// merge folds one Manifest's runtimes into the store, overriding any
// existing entry of equal or lower Tier for the same canonical name.
func (s *Store) merge(m *Manifest, diags *Diagnostics) {
	for _, re := range m.Runtimes {
		if re.Name == "" {
			diags.addError(m.SourcePath, "runtime entry missing name", nil)
			continue
		}

		existing, ok := s.byName[re.Name]
		if ok && existing.Tier > m.SourceTier {
			diags.addWarning(m.SourcePath, fmt.Sprintf(
				"runtime %q already defined at higher precedence (%s); ignoring %s definition",
				re.Name, existing.Tier, m.SourceTier))
			continue
		}

		rt := &Runtime{
			RuntimeEntry: re,
			Provider:     m.Provider,
			SourcePath:   m.SourcePath,
			Tier:         m.SourceTier,
		}
		if rt.Ecosystem == "" {
			rt.Ecosystem = m.Provider.Ecosystem
		}

		if !ok {
			s.order = append(s.order, re.Name)
		} else {
			// Overriding at a higher tier: drop the old entry's aliases so a
			// stale alias from a lower-precedence definition can't linger.
			s.removeAliasesFor(re.Name)
		}
		s.byName[re.Name] = rt

		for _, a := range re.Aliases {
			if owner, exists := s.alias[a]; exists && owner != re.Name {
				diags.addWarning(m.SourcePath, fmt.Sprintf(
					"alias %q for runtime %q conflicts with existing alias of %q; keeping the first definition",
					a, re.Name, owner))
				continue
			}
			s.alias[a] = re.Name
		}
	}
}

func (s *Store) removeAliasesFor(name string) {
	for a, owner := range s.alias {
		if owner == name {
			delete(s.alias, a)
		}
	}
}

// Get resolves a canonical name or alias to its merged Runtime view.
func (s *Store) Get(nameOrAlias string) (*Runtime, bool) {
	if rt, ok := s.byName[nameOrAlias]; ok {
		return rt, true
	}
	if canonical, ok := s.alias[nameOrAlias]; ok {
		rt, ok := s.byName[canonical]
		return rt, ok
	}
	return nil, false
}

// All returns every runtime in first-loaded order, filtered to those
// supported on the given platform. Pass nil to skip platform filtering.
func (s *Store) All(p *platform.Platform) []*Runtime {
	out := make([]*Runtime, 0, len(s.order))
	for _, name := range s.order {
		rt := s.byName[name]
		if p != nil && len(rt.Platforms) > 0 && !p.MatchesConstraint(rt.Platforms) {
			continue
		}
		out = append(out, rt)
	}
	return out
}

// Names returns every canonical runtime name known to the store.
func (s *Store) Names() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// SupportsPlatform reports whether rt declares support for p. A runtime
// with no platform constraint is assumed universal.
func SupportsPlatform(rt *Runtime, p platform.Platform) bool {
	if len(rt.Platforms) == 0 {
		return true
	}
	return p.MatchesConstraint(rt.Platforms)
}
