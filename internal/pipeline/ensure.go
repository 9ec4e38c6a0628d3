package pipeline

import (
	"context"

	"github.com/terassyi/vx/internal/manifest"
)

// Ensure installs every missing runtime in plan's graph via the
// Installation Coordinator, populating EnsureSteps (spec.md §4.11). The
// final executable absolute path is resolved afterward, in Prepare,
// because a runtime's StorePath only exists once Ensure has run.
func (p *Pipeline) Ensure(ctx context.Context, plan *ExecutionPlan) (*ExecutionPlan, error) {
	entries := make(map[string]manifest.RuntimeEntry, len(plan.Graph.Nodes))
	for _, n := range plan.Graph.Nodes {
		rt, ok := p.Store.Get(n.Runtime)
		if !ok {
			continue
		}
		entries[n.Runtime] = rt.RuntimeEntry
	}

	steps, err := p.Coordinator.Ensure(ctx, plan.Graph, entries, plan.Platform)
	plan.EnsureSteps = steps
	if err != nil {
		return plan, err
	}
	return plan, nil
}
