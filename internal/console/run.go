package console

import (
	"context"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/terassyi/vx/internal/coordinator"
	"github.com/terassyi/vx/internal/pipeline"
	"github.com/terassyi/vx/internal/vxerrors"
)

// Run drives req through p, rendering Ensure's progress via whichever
// renderer fits the terminal: the interactive Bubble Tea InstallModel
// on a TTY, the flat ciReporter otherwise (SPEC_FULL.md §4.13). It
// temporarily installs a Coordinator Reporter for the duration of the
// call and restores the previous one afterward.
func (c *Console) Run(ctx context.Context, p *pipeline.Pipeline, co *coordinator.Coordinator, req pipeline.RuntimeRequest, cfg pipeline.Configuration) (int, error) {
	if !c.Interactive() {
		co.WithReporter(newCIReporter(c.Stderr))
		code, err := p.Run(ctx, req, cfg)
		if err != nil {
			c.Error(err)
		}
		return code, err
	}
	return c.runInteractive(ctx, p, co, req, cfg)
}

// Install drives req through Resolve+Ensure only (no Execute), the shape
// `vx install`/`vx sync` need: materialize a runtime's StorePath without
// running it. It renders progress the same way Run does.
func (c *Console) Install(ctx context.Context, p *pipeline.Pipeline, co *coordinator.Coordinator, req pipeline.RuntimeRequest, cfg pipeline.Configuration) (*pipeline.ExecutionPlan, error) {
	if !c.Interactive() {
		co.WithReporter(newCIReporter(c.Stderr))
		plan, err := c.installOnly(ctx, p, req, cfg)
		if err != nil {
			c.Error(err)
		}
		return plan, err
	}

	model := NewInstallModel()
	program := tea.NewProgram(model, tea.WithOutput(c.Stderr))

	prevLogger := slog.Default()
	slog.SetDefault(slog.New(newTUILogHandler(program, slog.LevelWarn)))
	defer slog.SetDefault(prevLogger)

	reporter := newThrottledReporter(program)
	co.WithReporter(reporter)

	type installResult struct {
		plan *pipeline.ExecutionPlan
		err  error
	}
	resultCh := make(chan installResult, 1)
	go func() {
		plan, err := c.installOnly(ctx, p, req, cfg)
		reporter.done(err)
		resultCh <- installResult{plan, err}
	}()

	if _, err := program.Run(); err != nil {
		return nil, err
	}
	os.Stderr.WriteString(model.FinalView() + "\n")

	result := <-resultCh
	if result.err != nil {
		c.Error(result.err)
	}
	return result.plan, result.err
}

func (c *Console) installOnly(ctx context.Context, p *pipeline.Pipeline, req pipeline.RuntimeRequest, cfg pipeline.Configuration) (*pipeline.ExecutionPlan, error) {
	plan, err := p.Resolve(ctx, req, cfg)
	if err != nil {
		return nil, vxerrors.Wrap(vxerrors.StageResolve, err)
	}
	plan, err = p.Ensure(ctx, plan)
	if err != nil {
		return nil, vxerrors.Wrap(vxerrors.StageEnsure, err)
	}
	return plan, nil
}

func (c *Console) runInteractive(ctx context.Context, p *pipeline.Pipeline, co *coordinator.Coordinator, req pipeline.RuntimeRequest, cfg pipeline.Configuration) (int, error) {
	model := NewInstallModel()
	program := tea.NewProgram(model, tea.WithOutput(c.Stderr))

	prevLogger := slog.Default()
	slog.SetDefault(slog.New(newTUILogHandler(program, slog.LevelWarn)))
	defer slog.SetDefault(prevLogger)

	reporter := newThrottledReporter(program)
	co.WithReporter(reporter)

	type runResult struct {
		code int
		err  error
	}
	resultCh := make(chan runResult, 1)
	go func() {
		code, err := p.Run(ctx, req, cfg)
		reporter.done(err)
		resultCh <- runResult{code, err}
	}()

	if _, err := program.Run(); err != nil {
		return 0, err
	}
	os.Stderr.WriteString(model.FinalView() + "\n")

	result := <-resultCh
	if result.err != nil {
		c.Error(result.err)
	}
	return result.code, result.err
}
