// File: internal/stack/wait.go
// Brief: Readiness polling loop with absolute deadline.

package stack

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// WaitOptions configure the readiness wait phase.
type WaitOptions struct {
	// Timeout bounds the whole wait. The deadline is computed once at
	// entry, not re-derived between passes.
	Timeout time.Duration
	// PollInterval is the sleep between polling passes.
	PollInterval time.Duration
	// Parallelism caps concurrent status queries within one pass.
	// Zero or negative means sequential.
	Parallelism int

	Log *zap.Logger
}

// WaitReady polls every target service until all are ready or the
// deadline elapses. Classification per pass, in priority order: not
// running means pending; an explicit healthy status means ready; an
// explicit unhealthy status stays pending (unhealthy is often transient
// during startup); a running service with no health check configured is
// ready on liveness alone. A failed status query counts as "not ready
// this pass" and is retried, since restarts routinely cause brief
// backend hiccups. Services classified ready are never re-checked.
//
// The returned map always carries a record for every target, including
// on failure. When the deadline passes, still-pending services are
// marked timed-out and the error is a *ReadinessTimeoutError. Context
// cancellation stops the loop promptly, without waiting out the
// interval.
func WaitReady(ctx context.Context, backend Backend, targets []string, opts WaitOptions) (map[string]ReadinessRecord, error) {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	deadline := time.Now().Add(opts.Timeout)

	records := make(map[string]ReadinessRecord, len(targets))
	for _, name := range targets {
		records[name] = ReadinessRecord{State: ReadinessUnknown}
	}

	pending := append([]string(nil), targets...)
	for {
		type outcome struct {
			name  string
			state ReadinessState
			at    time.Time
		}
		results := make([]outcome, len(pending))

		g, gctx := errgroup.WithContext(ctx)
		if opts.Parallelism > 0 {
			g.SetLimit(opts.Parallelism)
		} else {
			g.SetLimit(1)
		}
		for i, name := range pending {
			i, name := i, name
			g.Go(func() error {
				status, err := backend.ServiceStatus(gctx, name)
				now := time.Now()
				if err != nil {
					log.Debug("status query failed, retrying next pass",
						zap.String("service", name), zap.Error(err))
					results[i] = outcome{name: name, state: ReadinessPending, at: now}
					return nil
				}
				results[i] = outcome{name: name, state: Classify(status), at: now}
				return nil
			})
		}
		_ = g.Wait()

		var still []string
		for _, r := range results {
			records[r.name] = ReadinessRecord{State: r.state, LastCheckedAt: r.at}
			if !r.state.Terminal() {
				still = append(still, r.name)
			}
		}
		pending = still

		if len(pending) == 0 {
			return records, nil
		}
		if time.Now().After(deadline) {
			return records, timeoutRecords(records, pending)
		}

		select {
		case <-ctx.Done():
			return records, ctx.Err()
		case <-time.After(opts.PollInterval):
		}
		if time.Now().After(deadline) {
			return records, timeoutRecords(records, pending)
		}
	}
}

// Classify maps a backend status snapshot onto a readiness state. It
// is shared by the waiter and the one-shot status command.
func Classify(status ServiceStatus) ReadinessState {
	switch {
	case !status.Running:
		return ReadinessPending
	case status.Health == HealthHealthy:
		return ReadinessReady
	case status.Health == HealthUnhealthy:
		return ReadinessUnhealthy
	default:
		// Running with no health check configured: liveness is the
		// fallback success criterion.
		return ReadinessReady
	}
}

func timeoutRecords(records map[string]ReadinessRecord, pending []string) error {
	for _, name := range pending {
		rec := records[name]
		rec.State = ReadinessTimedOut
		records[name] = rec
	}
	return &ReadinessTimeoutError{
		TimedOut: append([]string(nil), pending...),
		Records:  records,
	}
}
