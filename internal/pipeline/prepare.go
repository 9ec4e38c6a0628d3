package pipeline

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/terassyi/vx/internal/envbuilder"
	"github.com/terassyi/vx/internal/executor"
	"github.com/terassyi/vx/internal/platform"
	"github.com/terassyi/vx/internal/resolutioncache"
	"github.com/terassyi/vx/internal/vxerrors"
)

// Prepare resolves the target's final executable absolute path —
// re-targeting to the bundled_with parent's bin/ directory for a proxy
// execution — and builds the child process environment via the
// Environment Builder (spec.md §4.11).
func (p *Pipeline) Prepare(plan *ExecutionPlan) (*PreparedExecution, error) {
	targetEntry, ok := p.Store.Get(plan.Target)
	if !ok {
		return nil, vxerrors.NewRuntimeNotFound(plan.Target)
	}

	binRuntime, binVersion := plan.Target, plan.Version
	if plan.Proxy != nil {
		parentVersion, ok := versionOf(plan.Graph, plan.Proxy.Parent)
		if !ok {
			return nil, vxerrors.NewProxyNotAvailable(plan.Target, plan.Proxy.Parent)
		}
		binRuntime, binVersion = plan.Proxy.Parent, parentVersion
	}

	storePath := p.Layout.StorePath(binRuntime, binVersion)
	if _, err := os.Stat(storePath); err != nil {
		return nil, vxerrors.NewInstallPathMissing(plan.Target, binVersion, storePath)
	}
	binDir := p.Layout.StoreBinDir(binRuntime, binVersion)

	executablePath, err := executor.ResolveExecutable(targetEntry.RuntimeEntry, binDir, plan.Platform)
	if err != nil {
		return nil, err
	}

	bindings, err := p.bindings(plan.Graph, plan.Platform)
	if err != nil {
		return nil, err
	}

	target := bindings[plan.Target]
	deps := make([]envbuilder.RuntimeBinding, 0, len(plan.Graph.Nodes))
	for _, n := range plan.Graph.Nodes {
		if n.Runtime == plan.Target {
			continue
		}
		deps = append(deps, bindings[n.Runtime])
	}

	env, err := p.EnvBuilder.Build(envbuilder.Request{
		Target:       target,
		Dependencies: deps,
		SystemPath:   filepath.SplitList(os.Getenv("PATH")),
		BaseEnv:      environMap(os.Environ()),
		Platform:     plan.Platform,
	})
	if err != nil {
		return nil, vxerrors.NewEnvironmentInvalid(plan.Target, err.Error())
	}

	return &PreparedExecution{Plan: *plan, Executable: executablePath, Env: env}, nil
}

func versionOf(g resolutioncache.ResolvedGraph, runtime string) (string, bool) {
	for _, n := range g.Nodes {
		if n.Runtime == runtime {
			return n.Version, true
		}
	}
	return "", false
}

// bindings builds one envbuilder.RuntimeBinding per graph node, keyed by
// runtime name, from the manifest and the already-resolved StorePath. A
// node with BundledWith set is redirected to its parent's StorePath —
// mirroring Prepare's own proxy redirect — since it was never installed
// under a StorePath of its own (internal/coordinator.Ensure).
func (p *Pipeline) bindings(g resolutioncache.ResolvedGraph, plat platform.Platform) (map[string]envbuilder.RuntimeBinding, error) {
	out := make(map[string]envbuilder.RuntimeBinding, len(g.Nodes))
	for _, n := range g.Nodes {
		rt, ok := p.Store.Get(n.Runtime)
		if !ok {
			return nil, vxerrors.NewRuntimeNotFound(n.Runtime)
		}
		name := rt.Normalize.TargetName
		if name == "" {
			name = rt.Name
		}

		storeRuntime, storeVersion := n.Runtime, n.Version
		if rt.BundledWith != "" {
			parentVersion, ok := versionOf(g, rt.BundledWith)
			if ok {
				storeRuntime, storeVersion = rt.BundledWith, parentVersion
			}
		}

		out[n.Runtime] = envbuilder.RuntimeBinding{
			Runtime:    rt.RuntimeEntry,
			Version:    n.Version,
			StorePath:  p.Layout.StorePath(storeRuntime, storeVersion),
			BinDirs:    []string{p.Layout.StoreBinDir(storeRuntime, storeVersion)},
			Executable: name + plat.ExecutableExt(),
		}
	}
	return out, nil
}

func environMap(environ []string) map[string]string {
	out := make(map[string]string, len(environ))
	for _, kv := range environ {
		if i := strings.IndexByte(kv, '='); i >= 0 {
			out[kv[:i]] = kv[i+1:]
		}
	}
	return out
}
