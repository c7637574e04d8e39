// File: internal/stack/executor.go
// Brief: Restart strategy state machine + execution mode switch.

package stack

import (
	"context"
	"fmt"
	"io"

	"github.com/fatih/color"
	"go.uber.org/zap"
)

// ExecOptions configure one strategy execution.
type ExecOptions struct {
	Strategy      Strategy
	ForceRecreate bool
	RefreshImages bool
	DryRun        bool

	// Out receives the planned-action echo in dry-run mode. Nil silences it.
	Out io.Writer
	Log *zap.Logger
}

var dryRunPrefix = color.New(color.FgYellow).Sprint("would run:")

// Execute drives the restart strategy over the target set and returns
// the recorded action plan. Rolling pulls (optionally) and recreates
// only the targeted services; Full stops the whole stack and starts it
// back up, since stopping a subset while dependents keep running is
// unsafe. Every transition is a single backend call; the first failure
// aborts the remaining transitions and is reported with the phase it
// occurred in. In dry-run mode the plan is recorded and echoed but the
// backend is never invoked, so Execute always succeeds.
func Execute(ctx context.Context, backend Backend, targets []string, opts ExecOptions) (Plan, error) {
	e := &executor{backend: backend, opts: opts}
	if e.opts.Log == nil {
		e.opts.Log = zap.NewNop()
	}

	switch opts.Strategy {
	case StrategyFull:
		if opts.RefreshImages {
			if err := e.apply(ctx, PhasePull, Action{Op: OpPullImages, Services: targets}); err != nil {
				return e.plan, err
			}
		}
		if err := e.apply(ctx, PhaseStop, Action{Op: OpStopAll}); err != nil {
			return e.plan, err
		}
		if err := e.apply(ctx, PhaseStart, Action{Op: OpStartAll, Force: opts.ForceRecreate}); err != nil {
			return e.plan, err
		}
	default:
		if opts.RefreshImages {
			if err := e.apply(ctx, PhasePull, Action{Op: OpPullImages, Services: targets}); err != nil {
				return e.plan, err
			}
		}
		if err := e.apply(ctx, PhaseRecreate, Action{Op: OpRecreate, Services: targets, Force: opts.ForceRecreate}); err != nil {
			return e.plan, err
		}
	}
	return e.plan, nil
}

type executor struct {
	backend Backend
	opts    ExecOptions
	plan    Plan
}

// apply is the single dispatch point shared by live and dry-run mode:
// the action is always recorded, only the side effect differs.
func (e *executor) apply(ctx context.Context, phase ExecPhase, a Action) error {
	e.plan = append(e.plan, a)
	if e.opts.DryRun {
		if e.opts.Out != nil {
			fmt.Fprintf(e.opts.Out, "%s %s\n", dryRunPrefix, a)
		}
		return nil
	}
	e.opts.Log.Info("executing", zap.String("phase", string(phase)), zap.String("action", a.String()))

	var err error
	switch a.Op {
	case OpPullImages:
		err = e.backend.PullImages(ctx, a.Services)
	case OpRecreate:
		err = e.backend.RecreateServices(ctx, a.Services, a.Force)
	case OpStopAll:
		err = e.backend.StopAll(ctx)
	case OpStartAll:
		err = e.backend.StartAll(ctx, a.Services, a.Force)
	}
	if err != nil {
		return &ExecError{Phase: phase, Err: err}
	}
	return nil
}
