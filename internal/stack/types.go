// File: internal/stack/types.go
// Brief: Backend surface, filters, plan actions, and error taxonomy.

package stack

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Health is the backend-reported health classification for one service.
type Health string

const (
	// HealthNone means the service has no health check configured.
	HealthNone Health = "none"
	// HealthHealthy means the configured health check is passing.
	HealthHealthy Health = "healthy"
	// HealthUnhealthy means the configured health check is failing.
	HealthUnhealthy Health = "unhealthy"
)

// ServiceStatus is a point-in-time snapshot of one service's containers.
type ServiceStatus struct {
	Running bool
	Health  Health
}

// Backend is the narrow surface restack needs from the container
// orchestration engine. The compose implementation shells out to
// `docker compose` for mutations and queries the Docker Engine API for
// status; tests substitute an in-memory fake.
type Backend interface {
	ListDeclaredServices(ctx context.Context) ([]string, error)
	ListRunningServices(ctx context.Context) ([]string, error)
	PullImages(ctx context.Context, services []string) error
	RecreateServices(ctx context.Context, services []string, forceRecreate bool) error
	StopAll(ctx context.Context) error
	StartAll(ctx context.Context, services []string, forceRecreate bool) error
	ServiceStatus(ctx context.Context, service string) (ServiceStatus, error)
}

// Strategy selects how the stack is restarted.
type Strategy string

const (
	// StrategyRolling recreates only the targeted services in place.
	StrategyRolling Strategy = "rolling"
	// StrategyFull stops the entire stack and starts it back up.
	StrategyFull Strategy = "full"
)

// ParseStrategy maps a flag value onto a Strategy.
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(StrategyRolling):
		return StrategyRolling, nil
	case string(StrategyFull):
		return StrategyFull, nil
	default:
		return "", fmt.Errorf("unknown strategy %q (expected rolling or full)", s)
	}
}

// Filter narrows the declared catalog down to the target set.
// An empty Include list means "all"; Exclude always subtracts regardless
// of Include; RunningOnly further restricts to currently running services.
type Filter struct {
	Include     []string
	Exclude     []string
	RunningOnly bool
}

// ActionOp enumerates the atomic backend mutations a run can plan.
type ActionOp string

const (
	OpPullImages ActionOp = "pull-images"
	OpRecreate   ActionOp = "recreate"
	OpStopAll    ActionOp = "stop-all"
	OpStartAll   ActionOp = "start-all"
)

// Action is one planned backend mutation. The recorded sequence is
// identical in live and dry-run mode; only the dispatch differs.
type Action struct {
	Op       ActionOp
	Services []string
	Force    bool
}

func (a Action) String() string {
	var b strings.Builder
	b.WriteString(string(a.Op))
	if len(a.Services) > 0 {
		b.WriteString(" [")
		b.WriteString(strings.Join(a.Services, ", "))
		b.WriteString("]")
	}
	if a.Force {
		b.WriteString(" (force-recreate)")
	}
	return b.String()
}

// Plan is the ordered action trace of a single run.
type Plan []Action

// ReadinessState tracks one service through the wait phase.
type ReadinessState string

const (
	ReadinessUnknown   ReadinessState = "unknown"
	ReadinessPending   ReadinessState = "pending"
	ReadinessReady     ReadinessState = "ready"
	ReadinessUnhealthy ReadinessState = "unhealthy"
	ReadinessTimedOut  ReadinessState = "timed-out"
)

// Terminal reports whether the waiter should stop polling this service.
func (s ReadinessState) Terminal() bool {
	return s == ReadinessReady || s == ReadinessTimedOut
}

// ReadinessRecord is the per-service outcome of the wait phase.
type ReadinessRecord struct {
	State         ReadinessState
	LastCheckedAt time.Time
}

// NoServicesSelectedError is returned when the filter chain empties the
// catalog. It carries the full catalog so the operator can see which
// names were available.
type NoServicesSelectedError struct {
	Catalog []string
}

func (e *NoServicesSelectedError) Error() string {
	return fmt.Sprintf("no services selected; declared services: %s", strings.Join(e.Catalog, ", "))
}

// ExecPhase names the strategy state at which a backend mutation failed.
type ExecPhase string

const (
	PhasePull     ExecPhase = "pulling"
	PhaseRecreate ExecPhase = "recreating"
	PhaseStop     ExecPhase = "stopping"
	PhaseStart    ExecPhase = "starting"
)

// ExecError wraps a backend mutation failure with the phase reached.
// No rollback is attempted; the backend remains the source of truth.
type ExecError struct {
	Phase ExecPhase
	Err   error
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("restart failed while %s: %v", e.Phase, e.Err)
}

func (e *ExecError) Unwrap() error { return e.Err }

// ReadinessTimeoutError reports services that never reached a ready
// state before the deadline, alongside the final record of every
// targeted service.
type ReadinessTimeoutError struct {
	TimedOut []string
	Records  map[string]ReadinessRecord
}

func (e *ReadinessTimeoutError) Error() string {
	names := append([]string(nil), e.TimedOut...)
	sort.Strings(names)
	return fmt.Sprintf("timed out waiting for %d service(s) to become ready: %s", len(names), strings.Join(names, ", "))
}
