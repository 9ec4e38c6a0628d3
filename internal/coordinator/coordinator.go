// Package coordinator drives installation of a topologically sorted set
// of (runtime, version) pairs with correctness under concurrency
// (SPEC_FULL.md §4.8, spec.md §4.8): a per-(runtime,version) filesystem
// lock serializes installs across processes, and independent branches
// of the dependency graph may install in parallel within one process.
package coordinator

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"

	"github.com/terassyi/vx/internal/installer"
	"github.com/terassyi/vx/internal/layout"
	"github.com/terassyi/vx/internal/manifest"
	"github.com/terassyi/vx/internal/platform"
	"github.com/terassyi/vx/internal/resolutioncache"
	"github.com/terassyi/vx/internal/vxerrors"
)

// InstallStatus is the outcome of ensuring one (runtime, version) pair.
type InstallStatus string

const (
	AlreadyInstalled InstallStatus = "AlreadyInstalled"
	NeedsInstall      InstallStatus = "NeedsInstall"
	NeedsUpdate       InstallStatus = "NeedsUpdate"
)

// EnsureStep is one node of an ExecutionPlan after the Coordinator has
// settled it: Status reports what happened, StorePath is populated on
// success.
type EnsureStep struct {
	Runtime   string
	Version   string
	Status    InstallStatus
	StorePath string
}

// EventType identifies what stage of a single (runtime, version) install
// a Reporter callback describes.
type EventType int

const (
	EventStart EventType = iota
	EventProgress
	EventAlreadyInstalled
	EventComplete
	EventFailed
)

// Event is one progress notification emitted while Ensure drives a
// runtime toward AlreadyInstalled. The Console consumes these to drive
// its interactive or CI-fallback renderer (SPEC_FULL.md §4.13).
type Event struct {
	Runtime    string
	Version    string
	Type       EventType
	Downloaded int64
	Total      int64
	Err        error
}

// Reporter receives Events as Ensure progresses. Implementations must be
// safe for concurrent use: nodes within one graph layer install in parallel.
type Reporter interface {
	Report(Event)
}

// noopReporter discards every event; the zero-value default so Ensure
// never has to nil-check.
type noopReporter struct{}

func (noopReporter) Report(Event) {}

// DefaultParallelism matches spec.md §4.8's "defaults to sequential for
// determinism".
const DefaultParallelism = 1

// lockPollInterval is how often a blocked Ensure call logs that it is
// still waiting on another process's install lock.
const lockPollInterval = 5 * time.Second

// Coordinator drives a ResolvedGraph's installs to completion.
type Coordinator struct {
	layout      *layout.Layout
	installer   *installer.Installer
	parallelism int64
	reporter    Reporter
	group       singleflight.Group
}

// New builds a Coordinator with the default (sequential) parallelism.
func New(l *layout.Layout, inst *installer.Installer) *Coordinator {
	return &Coordinator{layout: l, installer: inst, parallelism: DefaultParallelism, reporter: noopReporter{}}
}

// WithParallelism overrides how many independent branches may install
// concurrently; values below 1 are clamped to 1.
func (c *Coordinator) WithParallelism(n int) *Coordinator {
	if n < 1 {
		n = 1
	}
	c.parallelism = int64(n)
	return c
}

// WithReporter attaches r as the sink for install progress events. r
// must tolerate concurrent calls from independent layer branches.
func (c *Coordinator) WithReporter(r Reporter) *Coordinator {
	if r != nil {
		c.reporter = r
	}
	return c
}

// Ensure drives every node of graph to AlreadyInstalled, in topological
// layers, installing nodes within a layer up to c.parallelism at a time.
// entries maps a runtime name to the manifest.RuntimeEntry describing
// how to install it; p is the host platform. A node whose runtime entry
// has BundledWith set is never installed independently — installing its
// parent is assumed to suffice (spec.md §4.8, "Bundled sub-runtimes...
// are not independently installed").
func (c *Coordinator) Ensure(ctx context.Context, graph resolutioncache.ResolvedGraph, entries map[string]manifest.RuntimeEntry, p platform.Platform) ([]EnsureStep, error) {
	layers, err := layerNodes(graph)
	if err != nil {
		return nil, err
	}

	results := make(map[string]*EnsureStep, len(graph.Nodes))
	for _, n := range graph.Nodes {
		results[n.Runtime] = &EnsureStep{Runtime: n.Runtime, Version: n.Version}
	}

	for _, layer := range layers {
		if err := c.ensureLayer(ctx, layer, entries, p, results); err != nil {
			return stepSlice(results, graph.Nodes), err
		}
	}

	return stepSlice(results, graph.Nodes), nil
}

func stepSlice(results map[string]*EnsureStep, nodes []resolutioncache.Node) []EnsureStep {
	out := make([]EnsureStep, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, *results[n.Runtime])
	}
	return out
}

func (c *Coordinator) ensureLayer(ctx context.Context, layer []resolutioncache.Node, entries map[string]manifest.RuntimeEntry, p platform.Platform, results map[string]*EnsureStep) error {
	sem := semaphore.NewWeighted(c.parallelism)
	errCh := make(chan error, len(layer))
	var mu sync.Mutex

	for _, node := range layer {
		node := node
		entry, ok := entries[node.Runtime]
		if !ok {
			errCh <- fmt.Errorf("no manifest entry for runtime %q", node.Runtime)
			continue
		}

		if err := sem.Acquire(ctx, 1); err != nil {
			errCh <- err
			continue
		}

		go func() {
			defer sem.Release(1)
			step, err := c.ensureOne(ctx, entry, node.Version, p)
			if err != nil {
				errCh <- err
				return
			}
			mu.Lock()
			results[node.Runtime] = step
			mu.Unlock()
			errCh <- nil
		}()
	}

	var firstErr error
	for range layer {
		if err := <-errCh; err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// ensureOne installs a single (runtime, version), deduping concurrent
// in-process callers via singleflight and serializing cross-process
// callers via a filesystem lock (spec.md §8 property 7).
func (c *Coordinator) ensureOne(ctx context.Context, entry manifest.RuntimeEntry, version string, p platform.Platform) (*EnsureStep, error) {
	if entry.BundledWith != "" {
		c.reporter.Report(Event{Runtime: entry.Name, Version: version, Type: EventAlreadyInstalled})
		return &EnsureStep{Runtime: entry.Name, Version: version, Status: AlreadyInstalled, StorePath: c.layout.StorePath(entry.BundledWith, version)}, nil
	}

	key := entry.Name + "@" + version
	v, err, _ := c.group.Do(key, func() (any, error) {
		return c.ensureLocked(ctx, entry, version, p)
	})
	if err != nil {
		return nil, err
	}
	return v.(*EnsureStep), nil
}

func (c *Coordinator) ensureLocked(ctx context.Context, entry manifest.RuntimeEntry, version string, p platform.Platform) (*EnsureStep, error) {
	storePath := c.layout.StorePath(entry.Name, version)
	if _, err := os.Stat(storePath); err == nil {
		c.reporter.Report(Event{Runtime: entry.Name, Version: version, Type: EventAlreadyInstalled})
		return &EnsureStep{Runtime: entry.Name, Version: version, Status: AlreadyInstalled, StorePath: storePath}, nil
	}

	lockPath := c.layout.InstallLockFile(entry.Name, version)
	if err := os.MkdirAll(filepath.Dir(lockPath), 0755); err != nil {
		return nil, vxerrors.NewInstallFailed(entry.Name, version, err)
	}
	fl := flock.New(lockPath)

	if err := waitForLock(ctx, fl, entry.Name, version); err != nil {
		return nil, vxerrors.NewInstallFailed(entry.Name, version, err)
	}
	defer fl.Unlock()

	// Re-check: the lock holder that just released it may have completed
	// this exact install while we waited (spec.md §8 property 7: the
	// second waiter observes AlreadyInstalled, not a second download).
	if _, err := os.Stat(storePath); err == nil {
		c.reporter.Report(Event{Runtime: entry.Name, Version: version, Type: EventAlreadyInstalled})
		return &EnsureStep{Runtime: entry.Name, Version: version, Status: AlreadyInstalled, StorePath: storePath}, nil
	}

	c.reporter.Report(Event{Runtime: entry.Name, Version: version, Type: EventStart})
	onProgress := func(downloaded, total int64) {
		c.reporter.Report(Event{Runtime: entry.Name, Version: version, Type: EventProgress, Downloaded: downloaded, Total: total})
	}

	path, err := c.installer.Install(ctx, installer.Request{Runtime: entry, Version: version, Platform: p, OnProgress: onProgress})
	if err != nil {
		c.reporter.Report(Event{Runtime: entry.Name, Version: version, Type: EventFailed, Err: err})
		return nil, err
	}
	c.reporter.Report(Event{Runtime: entry.Name, Version: version, Type: EventComplete})
	return &EnsureStep{Runtime: entry.Name, Version: version, Status: NeedsInstall, StorePath: path}, nil
}

// waitForLock blocks until fl is acquired, logging progress every
// lockPollInterval while another process holds it (spec.md §4.8:
// "the current one waits (with periodic progress messages)").
func waitForLock(ctx context.Context, fl *flock.Flock, runtime, version string) error {
	logged := false
	for {
		locked, err := fl.TryLock()
		if err != nil {
			return fmt.Errorf("failed to acquire install lock: %w", err)
		}
		if locked {
			return nil
		}
		if !logged {
			slog.Info("waiting for install lock held by another process", "runtime", runtime, "version", version)
			logged = true
		} else {
			slog.Info("still waiting for install lock", "runtime", runtime, "version", version)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(lockPollInterval):
		}
	}
}

// layerNodes groups graph.Nodes into topologically ordered layers via
// Kahn's algorithm over graph.Edges, so independent branches land in
// the same layer and can install in parallel. Adapted from
// internal/graph's dag.go layering algorithm, re-keyed on the plain
// runtime-name identifiers ResolvedGraph uses instead of that package's
// Kind-qualified NodeID (vx's dependency graph has only one resource
// kind: runtimes).
func layerNodes(graph resolutioncache.ResolvedGraph) ([][]resolutioncache.Node, error) {
	byName := make(map[string]resolutioncache.Node, len(graph.Nodes))
	inDegree := make(map[string]int, len(graph.Nodes))
	for _, n := range graph.Nodes {
		byName[n.Runtime] = n
		inDegree[n.Runtime] = 0
	}

	dependents := make(map[string][]string)
	for _, e := range graph.Edges {
		inDegree[e.From]++
		dependents[e.To] = append(dependents[e.To], e.From)
	}

	var layers [][]resolutioncache.Node
	queue := make([]string, 0, len(graph.Nodes))
	for name, degree := range inDegree {
		if degree == 0 {
			queue = append(queue, name)
		}
	}

	visited := 0
	for len(queue) > 0 {
		layer := make([]resolutioncache.Node, 0, len(queue))
		var next []string
		for _, name := range queue {
			layer = append(layer, byName[name])
			visited++
			for _, dependent := range dependents[name] {
				inDegree[dependent]--
				if inDegree[dependent] == 0 {
					next = append(next, dependent)
				}
			}
		}
		layers = append(layers, layer)
		queue = next
	}

	if visited != len(graph.Nodes) {
		return nil, fmt.Errorf("dependency graph for %q contains a cycle", graph.Target)
	}
	return layers, nil
}
