// File: internal/stack/run.go
// Brief: Pipeline orchestrator: guard -> resolve -> select -> execute -> wait.

package stack

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"
)

// RunOptions configure one restart invocation end to end.
type RunOptions struct {
	Filter        Filter
	Strategy      Strategy
	ForceRecreate bool
	RefreshImages bool
	DryRun        bool

	// Precondition runs before anything else touches the backend.
	// Nil skips the check (explicit opt-out, not a silent default).
	Precondition func() error

	Wait         bool
	WaitTimeout  time.Duration
	PollInterval time.Duration
	Parallelism  int

	Out io.Writer
	Log *zap.Logger
}

// RunResult carries the decision trace and final per-service status of
// one invocation. On error it is still returned with whatever phases
// completed, so callers can render and journal partial progress.
type RunResult struct {
	Catalog   []string
	Targets   []string
	Plan      Plan
	Readiness map[string]ReadinessRecord
	Elapsed   time.Duration
}

// Run drives the whole pipeline. Data flows strictly forward; every
// fatal condition aborts the remainder of the run. There is no
// "continue with remaining services" mode: partial completion only ever
// shows up as unhealthy stragglers at timeout.
func Run(ctx context.Context, backend Backend, opts RunOptions) (*RunResult, error) {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	started := time.Now()
	res := &RunResult{}
	defer func() { res.Elapsed = time.Since(started) }()

	if opts.Precondition != nil {
		if err := opts.Precondition(); err != nil {
			return res, err
		}
	}

	catalog, err := backend.ListDeclaredServices(ctx)
	if err != nil {
		return res, fmt.Errorf("resolve service catalog: %w", err)
	}
	res.Catalog = catalog

	targets, err := SelectServices(ctx, backend, catalog, opts.Filter)
	if err != nil {
		return res, err
	}
	res.Targets = targets
	log.Info("selected services",
		zap.Strings("targets", targets),
		zap.String("strategy", string(opts.Strategy)),
		zap.Bool("dry-run", opts.DryRun))

	plan, err := Execute(ctx, backend, targets, ExecOptions{
		Strategy:      opts.Strategy,
		ForceRecreate: opts.ForceRecreate,
		RefreshImages: opts.RefreshImages,
		DryRun:        opts.DryRun,
		Out:           opts.Out,
		Log:           log,
	})
	res.Plan = plan
	if err != nil {
		return res, err
	}

	// Dry-run stops at the plan: polling real containers for a mutation
	// that never happened would only report stale state.
	if opts.DryRun || !opts.Wait {
		return res, nil
	}

	records, err := WaitReady(ctx, backend, targets, WaitOptions{
		Timeout:      opts.WaitTimeout,
		PollInterval: opts.PollInterval,
		Parallelism:  opts.Parallelism,
		Log:          log,
	})
	res.Readiness = records
	if err != nil {
		return res, err
	}
	log.Info("all services ready", zap.Int("count", len(targets)))
	return res, nil
}
