// Package pipeline composes the Manifest Store, Runtime Map, Version
// Solver/Cache, Resolution Cache, Lock File, Installation Coordinator,
// Environment Builder, and Executor into the four-stage orchestrator
// spec.md §4.11 describes: Resolve -> Ensure -> Prepare -> Execute. Each
// stage is independently callable; Run drives all four and wraps
// whichever one fails in a *vxerrors.PipelineError naming the stage.
//
// Grounded directly on internal/installer/engine/engine.go's Apply
// method, which already implements an equivalent multi-phase
// orchestration (expand -> build DAG -> lock/load state -> configure
// resolver -> execute layer-by-layer -> flush -> handle taints -> handle
// removals); Apply's phase split maps onto Resolve+Ensure, and its
// event-emission hooks map onto the Console's progress consumption.
package pipeline

import (
	"context"

	"github.com/terassyi/vx/internal/coordinator"
	"github.com/terassyi/vx/internal/envbuilder"
	"github.com/terassyi/vx/internal/executor"
	"github.com/terassyi/vx/internal/layout"
	"github.com/terassyi/vx/internal/lockfile"
	"github.com/terassyi/vx/internal/manifest"
	"github.com/terassyi/vx/internal/resolutioncache"
	"github.com/terassyi/vx/internal/runtimemap"
	"github.com/terassyi/vx/internal/versioncache"
	"github.com/terassyi/vx/internal/versionsolver"
	"github.com/terassyi/vx/internal/vxerrors"
)

// CandidateFetcher retrieves the live upstream candidate list for rt.
// The pipeline never constructs ecosystem-specific clients itself — the
// caller wires in whatever the runtime's versions.kind needs (GitHub
// releases, nodejs.org's index.json, an npm registry query, ...), the
// same seam versioncache.Fetcher already establishes one layer down.
type CandidateFetcher func(rt *manifest.Runtime) ([]versionsolver.Candidate, error)

// Pipeline holds every component the four stages depend on. It is built
// once per process from already-constructed components — it owns none
// of their lifecycles.
type Pipeline struct {
	Store           *manifest.Store
	RuntimeMap      *runtimemap.Map
	Layout          *layout.Layout
	VersionCache    *versioncache.Cache
	ResolutionCache *resolutioncache.Cache
	LockFile        *lockfile.LockFile
	Coordinator     *coordinator.Coordinator
	EnvBuilder      *envbuilder.Builder
	Executor        *executor.Executor
	FetchVersions   CandidateFetcher
	VXVersion       string
}

// New builds a Pipeline from its already-constructed components.
func New(store *manifest.Store, rm *runtimemap.Map, l *layout.Layout, vc *versioncache.Cache, rc *resolutioncache.Cache, lf *lockfile.LockFile, co *coordinator.Coordinator, fetch CandidateFetcher, vxVersion string) *Pipeline {
	return &Pipeline{
		Store:           store,
		RuntimeMap:      rm,
		Layout:          l,
		VersionCache:    vc,
		ResolutionCache: rc,
		LockFile:        lf,
		Coordinator:     co,
		EnvBuilder:      envbuilder.New(),
		Executor:        executor.New(),
		FetchVersions:   fetch,
		VXVersion:       vxVersion,
	}
}

// Run drives a RuntimeRequest through all four stages and returns the
// child's exit code, or a *vxerrors.PipelineError naming whichever stage
// failed (spec.md §4.11: "the pipeline as a whole is itself a stage").
func (p *Pipeline) Run(ctx context.Context, req RuntimeRequest, cfg Configuration) (int, error) {
	plan, err := p.Resolve(ctx, req, cfg)
	if err != nil {
		return 0, vxerrors.Wrap(vxerrors.StageResolve, err)
	}
	plan, err = p.Ensure(ctx, plan)
	if err != nil {
		return 0, vxerrors.Wrap(vxerrors.StageEnsure, err)
	}
	prepared, err := p.Prepare(plan)
	if err != nil {
		return 0, vxerrors.Wrap(vxerrors.StagePrepare, err)
	}
	code, err := p.Execute(ctx, prepared)
	if err != nil {
		return 0, vxerrors.Wrap(vxerrors.StageExecute, err)
	}
	return code, nil
}
