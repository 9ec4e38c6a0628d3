package pipeline

import (
	"context"
	"sort"

	"github.com/terassyi/vx/internal/cachemode"
	"github.com/terassyi/vx/internal/manifest"
	"github.com/terassyi/vx/internal/resolutioncache"
	"github.com/terassyi/vx/internal/versioncache"
	"github.com/terassyi/vx/internal/versionsolver"
	"github.com/terassyi/vx/internal/vxerrors"
)

// Resolve parses the version request, consults the lock file (pins
// preferred) and the resolution cache, walks the Runtime Map to compute
// the dependency closure, solves a version for every runtime in it, and
// yields an ExecutionPlan (spec.md §4.11). On a resolution-cache hit it
// skips the Manifest Store / Runtime Map / Version Solver walk entirely.
func (p *Pipeline) Resolve(ctx context.Context, req RuntimeRequest, cfg Configuration) (*ExecutionPlan, error) {
	rt, ok := p.Store.Get(req.Runtime)
	if !ok {
		return nil, vxerrors.NewRuntimeNotFound(req.Runtime)
	}
	if !manifest.SupportsPlatform(rt, req.Platform) {
		return nil, vxerrors.NewPlatformNotSupported(rt.Name, req.Platform.String())
	}

	key := p.cacheKey(rt.Name, req, cfg)
	cached, hit, err := p.ResolutionCache.Lookup(key, req.CacheMode, nil)
	if err != nil {
		return nil, err
	}
	if hit {
		return p.planFromGraph(*cached, req)
	}

	graph, err := p.resolveCold(rt, req, cfg)
	if err != nil {
		return nil, err
	}
	if err := p.ResolutionCache.Store(key, graph); err != nil {
		// A failed cache write never invalidates an otherwise-successful
		// resolution; the next invocation simply resolves cold again.
		_ = err
	}
	return p.planFromGraph(graph, req)
}

func (p *Pipeline) cacheKey(target string, req RuntimeRequest, cfg Configuration) resolutioncache.Key {
	lockHash := ""
	if p.LockFile != nil {
		lockHash = p.LockFile.Hash()
	}
	return resolutioncache.Key{
		CommandInput:          target + "@" + req.VersionRequest,
		ProjectConfigHash:     configDigest(cfg),
		LockFileHash:          lockHash,
		Platform:              req.Platform.String(),
		VXVersion:             p.VXVersion,
		ResolverSchemaVersion: resolutioncache.GraphSchemaVersion,
	}
}

// configDigest renders cfg into a value stable enough to key a cache
// entry on: only the one runtime's own requested version matters for
// correctness here, but folding the whole view in means any project
// file edit still forces a cold resolution (spec.md §4.6).
func configDigest(cfg Configuration) string {
	names := make([]string, 0, len(cfg.Versions))
	for name := range cfg.Versions {
		names = append(names, name)
	}
	sort.Strings(names)
	digest := ""
	for _, name := range names {
		digest += name + "=" + cfg.Versions[name] + ";"
	}
	return digest
}

func (p *Pipeline) resolveCold(rt *manifest.Runtime, req RuntimeRequest, cfg Configuration) (resolutioncache.ResolvedGraph, error) {
	layers, err := p.RuntimeMap.InstallOrder(rt.Name)
	if err != nil {
		return resolutioncache.ResolvedGraph{}, err
	}

	versions := make(map[string]string)
	var nodes []resolutioncache.Node
	for _, layer := range layers {
		for _, name := range layer {
			entry, ok := p.Store.Get(name)
			if !ok {
				return resolutioncache.ResolvedGraph{}, vxerrors.NewRuntimeNotFound(name)
			}
			raw := p.requestedVersion(name, entry, rt.Name, req, cfg)
			candidate, err := p.solveVersion(entry, raw, req.CacheMode)
			if err != nil {
				return resolutioncache.ResolvedGraph{}, err
			}
			versions[name] = candidate.Version
			nodes = append(nodes, resolutioncache.Node{Runtime: name, Version: candidate.Version})
		}
	}

	var edges []resolutioncache.Edge
	for name := range versions {
		for _, dep := range p.RuntimeMap.Dependencies(name) {
			edges = append(edges, resolutioncache.Edge{From: name, To: dep.Requires})
		}
	}

	return resolutioncache.ResolvedGraph{
		SchemaVersion: resolutioncache.GraphSchemaVersion,
		Target:        rt.Name,
		Nodes:         nodes,
		Edges:         edges,
	}, nil
}

// requestedVersion picks the raw VersionRequest string for name, in
// spec.md §4.11's stated preference order: the invocation's own pin (for
// the target runtime only), then the lock file's pin, then the project
// Configuration, then the manifest's default_pin, then "latest".
func (p *Pipeline) requestedVersion(name string, entry *manifest.Runtime, target string, req RuntimeRequest, cfg Configuration) string {
	if name == target && req.VersionRequest != "" {
		return req.VersionRequest
	}
	if p.LockFile != nil {
		if t, ok := p.LockFile.Get(name); ok {
			return t.Version
		}
	}
	if v, ok := cfg.Versions[name]; ok && v != "" {
		return v
	}
	if entry.DefaultPin != "" {
		return entry.DefaultPin
	}
	return "latest"
}

func (p *Pipeline) solveVersion(entry *manifest.Runtime, raw string, mode cachemode.Mode) (versionsolver.Candidate, error) {
	fetch := func() ([]versionsolver.Candidate, error) {
		if p.FetchVersions == nil {
			return nil, vxerrors.NewResolveCacheMiss(entry.Name)
		}
		return p.FetchVersions(entry)
	}

	candidates, err := p.VersionCache.Get(entry.Name, mode, versioncache.Fetcher(fetch))
	if err != nil {
		return versionsolver.Candidate{}, err
	}
	return versionsolver.Solve(entry.Ecosystem, entry.Name, raw, candidates, false)
}

// planFromGraph builds an ExecutionPlan from a resolved graph, whether
// freshly computed or served from the resolution cache.
func (p *Pipeline) planFromGraph(graph resolutioncache.ResolvedGraph, req RuntimeRequest) (*ExecutionPlan, error) {
	rt, ok := p.Store.Get(graph.Target)
	if !ok {
		return nil, vxerrors.NewRuntimeNotFound(graph.Target)
	}

	version := ""
	for _, n := range graph.Nodes {
		if n.Runtime == graph.Target {
			version = n.Version
			break
		}
	}

	plan := &ExecutionPlan{
		Target:   graph.Target,
		Version:  version,
		Graph:    graph,
		Args:     req.Args,
		WorkDir:  req.WorkDir,
		Timeout:  req.Timeout,
		Platform: req.Platform,
	}
	if rt.BundledWith != "" {
		plan.Proxy = &ProxyInfo{Runtime: rt.Name, Parent: rt.BundledWith}
	}
	return plan, nil
}
