package pipeline

import (
	"time"

	"github.com/terassyi/vx/internal/cachemode"
	"github.com/terassyi/vx/internal/coordinator"
	"github.com/terassyi/vx/internal/platform"
	"github.com/terassyi/vx/internal/resolutioncache"
)

// RuntimeRequest is the top-level input to the pipeline: the user's
// invocation of `vx <runtime> <args...>` (spec.md §3's RuntimeRequest),
// reduced to what the core needs — project-file parsing, flag
// defaulting, and argv splitting all happen before this point.
type RuntimeRequest struct {
	// Runtime is the canonical name or alias the user invoked.
	Runtime string
	// VersionRequest is the raw version constraint the invocation itself
	// pinned (e.g. `vx node@18 ...`); empty means defer to Configuration,
	// the lock file, and finally the manifest's default_pin.
	VersionRequest string
	Args           []string
	WorkDir        string
	Timeout        time.Duration
	CacheMode      cachemode.Mode
	Platform       platform.Platform
}

// Configuration is the reconciled Configuration View (spec.md §3): a map
// of runtime name to raw VersionRequest string plus any project-level
// environment overrides. Project-file (vx.toml) parsing happens above
// this package; Configuration is the only shape the core ever sees.
type Configuration struct {
	Versions map[string]string
	Env      map[string]string
}

// ProxyInfo is set on an ExecutionPlan when the invoked runtime is
// bundled_with another: the final executable lives under the parent's
// StorePath, not the invoked runtime's own (spec.md §3's ExecutionPlan
// "optional proxy configuration").
type ProxyInfo struct {
	Runtime string
	Parent  string
}

// ExecutionPlan is the concrete plan threaded through Ensure, Prepare,
// and Execute (spec.md §3). Resolve populates Target/Version/Graph/Args;
// Ensure fills in EnsureSteps; Prepare resolves Executable and builds the
// environment into a PreparedExecution.
type ExecutionPlan struct {
	Target   string
	Version  string
	Graph    resolutioncache.ResolvedGraph
	Proxy    *ProxyInfo
	Args     []string
	WorkDir  string
	Timeout  time.Duration
	Platform platform.Platform

	// EnsureSteps is populated by Ensure: one entry per graph node, in
	// the same topological order, reporting what Ensure did (or needs to
	// do) for it.
	EnsureSteps []coordinator.EnsureStep
}

// PreparedExecution is Prepare's output: a plan whose target executable
// has been resolved to an absolute path, paired with the composed
// environment Execute spawns the child under.
type PreparedExecution struct {
	Plan       ExecutionPlan
	Executable string
	Env        map[string]string
}
