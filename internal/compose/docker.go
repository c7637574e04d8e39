// File: internal/compose/docker.go
// Brief: Service status via the Docker Engine API.

package compose

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/client"
	"go.uber.org/zap"

	"github.com/example/restack/internal/stack"
)

// Compose-managed containers carry these labels; they are how status
// queries map containers back onto declared services.
const (
	labelProject = "com.docker.compose.project"
	labelService = "com.docker.compose.service"
)

type dockerStatusReader struct {
	log *zap.Logger

	once sync.Once
	cli  *client.Client
	err  error
}

// newDockerStatusReader defers client construction until first use so
// commands that never query status (dry-run) work without a docker
// socket.
func newDockerStatusReader(log *zap.Logger) *dockerStatusReader {
	return &dockerStatusReader{log: log}
}

func (r *dockerStatusReader) client() (*client.Client, error) {
	r.once.Do(func() {
		r.cli, r.err = client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
		if r.err != nil {
			r.err = fmt.Errorf("create docker client: %w", r.err)
		}
	})
	return r.cli, r.err
}

func (r *dockerStatusReader) RunningServices(ctx context.Context, project string) ([]string, error) {
	cli, err := r.client()
	if err != nil {
		return nil, err
	}
	args := filters.NewArgs(
		filters.Arg("label", labelProject+"="+project),
		filters.Arg("status", "running"),
	)
	summaries, err := cli.ContainerList(ctx, container.ListOptions{Filters: args})
	if err != nil {
		return nil, fmt.Errorf("list running containers: %w", err)
	}
	seen := map[string]struct{}{}
	for _, s := range summaries {
		if name := s.Labels[labelService]; name != "" {
			seen[name] = struct{}{}
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (r *dockerStatusReader) ServiceStatus(ctx context.Context, project, service string) (stack.ServiceStatus, error) {
	cli, err := r.client()
	if err != nil {
		return stack.ServiceStatus{}, err
	}
	args := filters.NewArgs(
		filters.Arg("label", labelProject+"="+project),
		filters.Arg("label", labelService+"="+service),
	)
	summaries, err := cli.ContainerList(ctx, container.ListOptions{All: true, Filters: args})
	if err != nil {
		return stack.ServiceStatus{}, fmt.Errorf("list containers for %s: %w", service, err)
	}
	if len(summaries) == 0 {
		return stack.ServiceStatus{Running: false, Health: stack.HealthNone}, nil
	}

	// A service is running only when every one of its containers is;
	// one unhealthy replica makes the whole service unhealthy.
	status := stack.ServiceStatus{Running: true, Health: stack.HealthNone}
	for _, s := range summaries {
		insp, err := cli.ContainerInspect(ctx, s.ID)
		if err != nil {
			return stack.ServiceStatus{}, fmt.Errorf("inspect container %s: %w", s.ID, err)
		}
		if insp.State == nil || !insp.State.Running {
			status.Running = false
		}
		if insp.State == nil || insp.State.Health == nil {
			continue
		}
		switch insp.State.Health.Status {
		case types.Healthy:
			if status.Health == stack.HealthNone {
				status.Health = stack.HealthHealthy
			}
		default:
			// Starting counts as unhealthy-for-now; the waiter retries.
			status.Health = stack.HealthUnhealthy
		}
	}
	return status, nil
}

var _ StatusReader = (*dockerStatusReader)(nil)
