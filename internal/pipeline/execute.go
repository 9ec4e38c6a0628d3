package pipeline

import (
	"context"

	"github.com/terassyi/vx/internal/executor"
)

// Execute spawns the prepared child process and returns its exit code
// (spec.md §4.11).
func (p *Pipeline) Execute(ctx context.Context, prepared *PreparedExecution) (int, error) {
	entry, _ := p.Store.Get(prepared.Plan.Target)
	var commandPrefix []string
	if entry != nil {
		commandPrefix = entry.CommandPrefix
	}

	return p.Executor.Run(ctx, executor.Request{
		Runtime:       prepared.Plan.Target,
		Executable:    prepared.Executable,
		CommandPrefix: commandPrefix,
		Args:          prepared.Plan.Args,
		Env:           prepared.Env,
		WorkDir:       prepared.Plan.WorkDir,
		Timeout:       prepared.Plan.Timeout,
	})
}
