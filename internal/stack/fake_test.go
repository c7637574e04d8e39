// File: internal/stack/fake_test.go
// Brief: In-memory Backend fake shared by the pipeline tests.

package stack

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

type fakeBackend struct {
	declared    []string
	running     []string
	declaredErr error
	runningErr  error

	pullErr     error
	recreateErr error
	stopErr     error
	startErr    error

	// statusFn is consulted per status query; pass is 1-based per service.
	statusFn func(service string, pass int) (ServiceStatus, error)

	mu          sync.Mutex
	calls       []string
	statusCalls map[string]int
}

func (f *fakeBackend) ListDeclaredServices(ctx context.Context) ([]string, error) {
	if f.declaredErr != nil {
		return nil, f.declaredErr
	}
	return append([]string(nil), f.declared...), nil
}

func (f *fakeBackend) ListRunningServices(ctx context.Context) ([]string, error) {
	f.calls = append(f.calls, "list-running")
	if f.runningErr != nil {
		return nil, f.runningErr
	}
	return append([]string(nil), f.running...), nil
}

func (f *fakeBackend) PullImages(ctx context.Context, services []string) error {
	f.calls = append(f.calls, "pull "+strings.Join(services, ","))
	return f.pullErr
}

func (f *fakeBackend) RecreateServices(ctx context.Context, services []string, forceRecreate bool) error {
	f.calls = append(f.calls, fmt.Sprintf("recreate %s force=%v", strings.Join(services, ","), forceRecreate))
	return f.recreateErr
}

func (f *fakeBackend) StopAll(ctx context.Context) error {
	f.calls = append(f.calls, "stop-all")
	return f.stopErr
}

func (f *fakeBackend) StartAll(ctx context.Context, services []string, forceRecreate bool) error {
	f.calls = append(f.calls, fmt.Sprintf("start-all %s force=%v", strings.Join(services, ","), forceRecreate))
	return f.startErr
}

func (f *fakeBackend) ServiceStatus(ctx context.Context, service string) (ServiceStatus, error) {
	f.mu.Lock()
	if f.statusCalls == nil {
		f.statusCalls = map[string]int{}
	}
	f.statusCalls[service]++
	pass := f.statusCalls[service]
	f.mu.Unlock()
	if f.statusFn == nil {
		return ServiceStatus{Running: true, Health: HealthNone}, nil
	}
	return f.statusFn(service, pass)
}

// mutations returns the recorded calls excluding read-only queries, for
// comparing live call sequences against recorded plans.
func (f *fakeBackend) mutations() []string {
	var out []string
	for _, c := range f.calls {
		if c == "list-running" {
			continue
		}
		out = append(out, c)
	}
	return out
}
