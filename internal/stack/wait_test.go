// File: internal/stack/wait_test.go
// Brief: Readiness waiter polling and deadline tests.

package stack

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastWait() WaitOptions {
	return WaitOptions{Timeout: 250 * time.Millisecond, PollInterval: 5 * time.Millisecond}
}

func TestWaitReadyLivenessFallbackOnFirstPass(t *testing.T) {
	backend := &fakeBackend{statusFn: func(service string, pass int) (ServiceStatus, error) {
		return ServiceStatus{Running: true, Health: HealthNone}, nil
	}}
	records, err := WaitReady(context.Background(), backend, []string{"a"}, fastWait())
	if err != nil {
		t.Fatalf("wait failed: %v", err)
	}
	if records["a"].State != ReadinessReady {
		t.Fatalf("expected ready, got %s", records["a"].State)
	}
	if backend.statusCalls["a"] != 1 {
		t.Fatalf("no-healthcheck service should be ready on the first pass, polled %d times", backend.statusCalls["a"])
	}
}

func TestWaitReadyReadyServicesAreNeverRechecked(t *testing.T) {
	backend := &fakeBackend{statusFn: func(service string, pass int) (ServiceStatus, error) {
		switch service {
		case "fast":
			return ServiceStatus{Running: true, Health: HealthHealthy}, nil
		default:
			// slow becomes healthy on the third pass.
			if pass >= 3 {
				return ServiceStatus{Running: true, Health: HealthHealthy}, nil
			}
			return ServiceStatus{Running: false}, nil
		}
	}}
	records, err := WaitReady(context.Background(), backend, []string{"fast", "slow"}, fastWait())
	if err != nil {
		t.Fatalf("wait failed: %v", err)
	}
	if records["fast"].State != ReadinessReady || records["slow"].State != ReadinessReady {
		t.Fatalf("expected both ready, got %v", records)
	}
	if backend.statusCalls["fast"] != 1 {
		t.Fatalf("ready service was re-checked %d times", backend.statusCalls["fast"])
	}
	if backend.statusCalls["slow"] != 3 {
		t.Fatalf("slow service should be polled exactly 3 times, got %d", backend.statusCalls["slow"])
	}
}

func TestWaitReadyUnhealthyIsRetriedNotFatal(t *testing.T) {
	backend := &fakeBackend{statusFn: func(service string, pass int) (ServiceStatus, error) {
		if pass < 3 {
			return ServiceStatus{Running: true, Health: HealthUnhealthy}, nil
		}
		return ServiceStatus{Running: true, Health: HealthHealthy}, nil
	}}
	records, err := WaitReady(context.Background(), backend, []string{"a"}, fastWait())
	if err != nil {
		t.Fatalf("transiently unhealthy service should eventually pass: %v", err)
	}
	if records["a"].State != ReadinessReady {
		t.Fatalf("expected ready, got %s", records["a"].State)
	}
}

func TestWaitReadyBackendErrorsCountAsPending(t *testing.T) {
	backend := &fakeBackend{statusFn: func(service string, pass int) (ServiceStatus, error) {
		if pass < 2 {
			return ServiceStatus{}, errors.New("daemon hiccup")
		}
		return ServiceStatus{Running: true, Health: HealthNone}, nil
	}}
	records, err := WaitReady(context.Background(), backend, []string{"a"}, fastWait())
	if err != nil {
		t.Fatalf("query errors must be retried, not fatal: %v", err)
	}
	if records["a"].State != ReadinessReady {
		t.Fatalf("expected ready after recovery, got %s", records["a"].State)
	}
}

func TestWaitReadyTimeoutMarksStragglers(t *testing.T) {
	backend := &fakeBackend{statusFn: func(service string, pass int) (ServiceStatus, error) {
		if service == "ok" {
			return ServiceStatus{Running: true, Health: HealthHealthy}, nil
		}
		return ServiceStatus{Running: true, Health: HealthUnhealthy}, nil
	}}
	opts := WaitOptions{Timeout: 30 * time.Millisecond, PollInterval: 5 * time.Millisecond}
	records, err := WaitReady(context.Background(), backend, []string{"ok", "stuck"}, opts)
	if err == nil {
		t.Fatalf("expected a readiness timeout")
	}
	var timeout *ReadinessTimeoutError
	if !errors.As(err, &timeout) {
		t.Fatalf("expected ReadinessTimeoutError, got %T: %v", err, err)
	}
	if len(timeout.TimedOut) != 1 || timeout.TimedOut[0] != "stuck" {
		t.Fatalf("unexpected timed-out set: %v", timeout.TimedOut)
	}
	if records["ok"].State != ReadinessReady {
		t.Fatalf("ready service must keep its final state, got %s", records["ok"].State)
	}
	if records["stuck"].State != ReadinessTimedOut {
		t.Fatalf("straggler should be timed-out, got %s", records["stuck"].State)
	}
}

func TestWaitReadyRespectsDeadlineBound(t *testing.T) {
	backend := &fakeBackend{statusFn: func(service string, pass int) (ServiceStatus, error) {
		return ServiceStatus{Running: false}, nil
	}}
	opts := WaitOptions{Timeout: 50 * time.Millisecond, PollInterval: 20 * time.Millisecond}
	start := time.Now()
	_, err := WaitReady(context.Background(), backend, []string{"a"}, opts)
	elapsed := time.Since(start)
	if err == nil {
		t.Fatalf("expected timeout")
	}
	// The loop must terminate within timeout + one interval (plus slack
	// for scheduling).
	if limit := opts.Timeout + opts.PollInterval + 100*time.Millisecond; elapsed > limit {
		t.Fatalf("wait ran %s, beyond the %s bound", elapsed, limit)
	}
}

func TestWaitReadyStopsPromptlyOnCancellation(t *testing.T) {
	backend := &fakeBackend{statusFn: func(service string, pass int) (ServiceStatus, error) {
		return ServiceStatus{Running: false}, nil
	}}
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	opts := WaitOptions{Timeout: 10 * time.Second, PollInterval: 5 * time.Second}
	start := time.Now()
	_, err := WaitReady(ctx, backend, []string{"a"}, opts)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context cancellation, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("cancellation should not wait out the interval, took %s", elapsed)
	}
}

func TestWaitReadyParallelPassKeepsSemantics(t *testing.T) {
	backend := &fakeBackend{statusFn: func(service string, pass int) (ServiceStatus, error) {
		return ServiceStatus{Running: true, Health: HealthHealthy}, nil
	}}
	opts := fastWait()
	opts.Parallelism = 4
	records, err := WaitReady(context.Background(), backend, []string{"a", "b", "c", "d"}, opts)
	if err != nil {
		t.Fatalf("wait failed: %v", err)
	}
	for name, rec := range records {
		if rec.State != ReadinessReady {
			t.Fatalf("service %s not ready: %s", name, rec.State)
		}
	}
}
