// Package runtimemap builds the transitive runtime-dependency graph from
// the Manifest Store and exposes topological install order, dependents,
// and alias/name resolution (SPEC_FULL.md §4.2). Grounded on the
// teacher's internal/graph/dag.go, narrowed from a multi-Kind
// (Runtime/Installer/Tool) graph to a single-kind graph over runtime
// names, since vx has only one node kind.
package runtimemap

import (
	"maps"
	"slices"

	"github.com/terassyi/vx/internal/manifest"
	"github.com/terassyi/vx/internal/vxerrors"
)

// Edge is one dependency edge: Runtime depends on Requires.
type Edge struct {
	Runtime     string
	Requires    string
	Required    bool // false means "recommended", per spec.md's RuntimeDependency
	VersionSpec string
	Reason      string
	ProvidedBy  string
}

// Layer is a group of runtimes with no dependency edges between them —
// safe to install/resolve concurrently (SPEC_FULL.md §5).
type Layer struct {
	Runtimes []string
}

// Map is the constructed, cycle-free runtime dependency graph. It is
// immutable after New returns successfully.
type Map struct {
	store    *manifest.Store
	edges    map[string]map[string]Edge // runtime -> requires -> Edge (this runtime depends on requires)
	inDegree map[string]int
	reverse  map[string][]string // requires -> dependents
}

// New builds a Map from every runtime in store, including its
// manifest-declared dependency constraints. Returns a
// *vxerrors.ResolveError (KindDependencyCycle) if the resulting graph is
// not acyclic.
func New(store *manifest.Store) (*Map, error) {
	m := &Map{
		store:    store,
		edges:    make(map[string]map[string]Edge),
		inDegree: make(map[string]int),
		reverse:  make(map[string][]string),
	}

	for _, name := range store.Names() {
		m.inDegree[name] = 0
		m.edges[name] = make(map[string]Edge)
	}

	for _, name := range store.Names() {
		rt, _ := store.Get(name)

		if rt.BundledWith != "" {
			m.addEdge(name, Edge{Runtime: name, Requires: rt.BundledWith, Required: true, ProvidedBy: rt.BundledWith})
		}

		for _, c := range rt.Constraints {
			for _, req := range c.Requires {
				m.addEdge(name, Edge{
					Runtime:     name,
					Requires:    req.Runtime,
					Required:    !req.Recommended,
					VersionSpec: req.Version,
					Reason:      req.Reason,
				})
			}
		}
	}

	if cycle := m.detectCycle(); cycle != nil {
		return nil, vxerrors.NewDependencyCycle(cycle)
	}

	return m, nil
}

func (m *Map) addEdge(from string, e Edge) {
	if _, exists := m.edges[from][e.Requires]; exists {
		return
	}
	if m.edges[from] == nil {
		m.edges[from] = make(map[string]Edge)
	}
	m.edges[from][e.Requires] = e
	m.inDegree[from]++
	m.reverse[e.Requires] = append(m.reverse[e.Requires], from)
}

type color int

const (
	white color = iota
	gray
	black
)

func (m *Map) detectCycle() []string {
	colors := make(map[string]color, len(m.edges))
	parent := make(map[string]string, len(m.edges))
	var cycle []string

	var dfs func(node string) bool
	dfs = func(node string) bool {
		colors[node] = gray
		for dep := range m.edges[node] {
			if colors[dep] == gray {
				cycle = []string{dep}
				for curr := node; curr != dep; curr = parent[curr] {
					cycle = append(cycle, curr)
				}
				cycle = append(cycle, dep)
				slices.Reverse(cycle)
				return true
			}
			if colors[dep] == white {
				parent[dep] = node
				if dfs(dep) {
					return true
				}
			}
		}
		colors[node] = black
		return false
	}

	names := make([]string, 0, len(m.edges))
	for n := range m.edges {
		names = append(names, n)
	}
	slices.Sort(names)

	for _, n := range names {
		if colors[n] == white {
			if dfs(n) {
				return cycle
			}
		}
	}
	return nil
}

// Dependencies returns the direct dependency edges of a runtime.
func (m *Map) Dependencies(runtime string) []Edge {
	edges := m.edges[runtime]
	out := make([]Edge, 0, len(edges))
	for _, e := range edges {
		out = append(out, e)
	}
	slices.SortFunc(out, func(a, b Edge) int {
		if a.Requires < b.Requires {
			return -1
		}
		if a.Requires > b.Requires {
			return 1
		}
		return 0
	})
	return out
}

// Dependents returns the runtimes that directly depend on runtime.
func (m *Map) Dependents(runtime string) []string {
	out := slices.Clone(m.reverse[runtime])
	slices.Sort(out)
	return out
}

// InstallOrder returns the topologically ordered closure of runtimes
// needed to install target: target's transitive dependencies first, in
// layers whose members have no edges between them (SPEC_FULL.md §5,
// spec.md's "topological order" invariant).
func (m *Map) InstallOrder(target string) ([]Layer, error) {
	closure := m.closure(target)
	return m.layersFor(closure)
}

// closure computes the set of runtime names reachable from target via
// dependency edges, including target itself.
func (m *Map) closure(target string) map[string]struct{} {
	seen := map[string]struct{}{target: {}}
	queue := []string{target}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		for dep := range m.edges[n] {
			if _, ok := seen[dep]; !ok {
				seen[dep] = struct{}{}
				queue = append(queue, dep)
			}
		}
	}
	return seen
}

func (m *Map) layersFor(subset map[string]struct{}) ([]Layer, error) {
	inDegree := make(map[string]int, len(subset))
	for n := range subset {
		count := 0
		for dep := range m.edges[n] {
			if _, ok := subset[dep]; ok {
				count++
			}
		}
		inDegree[n] = count
	}

	reverse := make(map[string][]string, len(subset))
	for n := range subset {
		for dep := range m.edges[n] {
			if _, ok := subset[dep]; ok {
				reverse[dep] = append(reverse[dep], n)
			}
		}
	}

	var layers []Layer
	queue := make([]string, 0, len(subset))
	for n, d := range inDegree {
		if d == 0 {
			queue = append(queue, n)
		}
	}
	slices.Sort(queue)

	processed := 0
	for len(queue) > 0 {
		slices.Sort(queue)
		layer := Layer{Runtimes: append([]string(nil), queue...)}
		layers = append(layers, layer)
		processed += len(queue)

		var next []string
		for _, n := range queue {
			for _, dependent := range reverse[n] {
				inDegree[dependent]--
				if inDegree[dependent] == 0 {
					next = append(next, dependent)
				}
			}
		}
		queue = next
	}

	if processed != len(subset) {
		// Should be unreachable: New() already rejected cycles in the full
		// graph, and a subset of an acyclic graph is acyclic.
		remaining := make([]string, 0, len(subset)-processed)
		for n := range subset {
			remaining = append(remaining, n)
		}
		return nil, vxerrors.NewDependencyCycle(remaining)
	}

	return layers, nil
}

// Get resolves a canonical name or alias to its manifest.Runtime view.
func (m *Map) Get(nameOrAlias string) (*manifest.Runtime, bool) {
	return m.store.Get(nameOrAlias)
}

// Names returns every runtime name known to the map.
func (m *Map) Names() []string {
	return slices.Sorted(maps.Keys(m.edges))
}
