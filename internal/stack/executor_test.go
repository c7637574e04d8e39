// File: internal/stack/executor_test.go
// Brief: Strategy state machine and dry-run equivalence tests.

package stack

import (
	"bytes"
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestRollingStrategyIssuesExactlyOneRecreate(t *testing.T) {
	backend := &fakeBackend{}
	plan, err := Execute(context.Background(), backend, []string{"a"}, ExecOptions{Strategy: StrategyRolling})
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	want := []string{"recreate a force=false"}
	if !reflect.DeepEqual(backend.calls, want) {
		t.Fatalf("call sequence mismatch: got %v, want %v", backend.calls, want)
	}
	if len(plan) != 1 || plan[0].Op != OpRecreate {
		t.Fatalf("plan mismatch: %v", plan)
	}
}

func TestRollingStrategyPullsOnlyTargets(t *testing.T) {
	backend := &fakeBackend{}
	_, err := Execute(context.Background(), backend, []string{"a", "c"}, ExecOptions{
		Strategy:      StrategyRolling,
		RefreshImages: true,
		ForceRecreate: true,
	})
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	want := []string{"pull a,c", "recreate a,c force=true"}
	if !reflect.DeepEqual(backend.calls, want) {
		t.Fatalf("call sequence mismatch: got %v, want %v", backend.calls, want)
	}
}

func TestFullStrategyStopsThenStarts(t *testing.T) {
	backend := &fakeBackend{}
	_, err := Execute(context.Background(), backend, []string{"a", "b", "c"}, ExecOptions{
		Strategy:      StrategyFull,
		ForceRecreate: true,
	})
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	want := []string{"stop-all", "start-all  force=true"}
	if !reflect.DeepEqual(backend.calls, want) {
		t.Fatalf("call sequence mismatch: got %v, want %v", backend.calls, want)
	}
}

func TestExecuteFailureReportsPhaseAndStops(t *testing.T) {
	backend := &fakeBackend{stopErr: errors.New("stop blew up")}
	_, err := Execute(context.Background(), backend, []string{"a"}, ExecOptions{Strategy: StrategyFull})
	if err == nil {
		t.Fatalf("expected stop failure to propagate")
	}
	var execErr *ExecError
	if !errors.As(err, &execErr) {
		t.Fatalf("expected ExecError, got %T: %v", err, err)
	}
	if execErr.Phase != PhaseStop {
		t.Fatalf("expected failure in %s phase, got %s", PhaseStop, execErr.Phase)
	}
	for _, call := range backend.calls {
		if strings.HasPrefix(call, "start-all") {
			t.Fatalf("start must not run after stop failed: %v", backend.calls)
		}
	}
}

func TestDryRunPlanMatchesLiveCallSequence(t *testing.T) {
	cases := []ExecOptions{
		{Strategy: StrategyRolling},
		{Strategy: StrategyRolling, RefreshImages: true, ForceRecreate: true},
		{Strategy: StrategyFull},
		{Strategy: StrategyFull, RefreshImages: true},
	}
	targets := []string{"a", "b"}
	for _, opts := range cases {
		live := &fakeBackend{}
		livePlan, err := Execute(context.Background(), live, targets, opts)
		if err != nil {
			t.Fatalf("live execute failed: %v", err)
		}

		dryOpts := opts
		dryOpts.DryRun = true
		var echo bytes.Buffer
		dryOpts.Out = &echo
		dry := &fakeBackend{}
		dryPlan, err := Execute(context.Background(), dry, targets, dryOpts)
		if err != nil {
			t.Fatalf("dry-run execute failed: %v", err)
		}

		if !reflect.DeepEqual(livePlan, dryPlan) {
			t.Fatalf("dry-run plan diverged for %+v: live %v, dry %v", opts, livePlan, dryPlan)
		}
		if len(dry.calls) != 0 {
			t.Fatalf("dry-run must not touch the backend, saw %v", dry.calls)
		}
		if len(livePlan) != len(live.mutations()) {
			t.Fatalf("plan length %d does not match live mutation count %d", len(livePlan), len(live.mutations()))
		}
		if echo.Len() == 0 {
			t.Fatalf("dry-run should echo planned actions")
		}
	}
}

func TestDryRunAlwaysSucceeds(t *testing.T) {
	backend := &fakeBackend{stopErr: errors.New("boom"), startErr: errors.New("boom")}
	if _, err := Execute(context.Background(), backend, []string{"a"}, ExecOptions{Strategy: StrategyFull, DryRun: true}); err != nil {
		t.Fatalf("dry-run must not fail: %v", err)
	}
}
