// File: internal/compose/backend.go
// Brief: stack.Backend implementation over docker compose.

package compose

import (
	"context"
	"fmt"
	"sync"

	composetypes "github.com/compose-spec/compose-go/v2/types"
	shellwords "github.com/mattn/go-shellwords"
	"go.uber.org/zap"

	"github.com/example/restack/internal/stack"
)

// Options configure the compose backend.
type Options struct {
	// Files are the compose files; empty means discover the
	// conventional filenames in the working directory.
	Files       []string
	ProjectName string
	Profiles    []string
	// ExtraOpts is a raw string of additional `docker compose` flags,
	// split shell-style (e.g. "--env-file .env.prod --ansi never").
	ExtraOpts string

	// Runner and Status default to the real docker CLI and Engine API.
	Runner Runner
	Status StatusReader
	Log    *zap.Logger
}

// StatusReader answers point-in-time service status questions. The
// production implementation queries the Docker Engine API by compose
// labels.
type StatusReader interface {
	RunningServices(ctx context.Context, project string) ([]string, error)
	ServiceStatus(ctx context.Context, project, service string) (stack.ServiceStatus, error)
}

// Backend implements stack.Backend for a docker compose stack.
type Backend struct {
	files     []string
	nameHint  string
	profiles  []string
	extraOpts []string

	runner Runner
	status StatusReader
	log    *zap.Logger

	loadOnce sync.Once
	loadErr  error
	project  *composetypes.Project
}

// New builds a compose backend. The compose project itself is loaded
// lazily on first use so precondition checks run before the descriptor
// is ever read.
func New(opts Options) (*Backend, error) {
	extra, err := shellwords.Parse(opts.ExtraOpts)
	if err != nil {
		return nil, fmt.Errorf("parse compose opts %q: %w", opts.ExtraOpts, err)
	}
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	runner := opts.Runner
	if runner == nil {
		runner = NewExecRunner(log)
	}
	status := opts.Status
	if status == nil {
		status = newDockerStatusReader(log)
	}
	return &Backend{
		files:     opts.Files,
		nameHint:  opts.ProjectName,
		profiles:  opts.Profiles,
		extraOpts: extra,
		runner:    runner,
		status:    status,
		log:       log,
	}, nil
}

func (b *Backend) ensureProject() (*composetypes.Project, error) {
	b.loadOnce.Do(func() {
		files, err := ResolveFiles(b.files)
		if err != nil {
			b.loadErr = err
			return
		}
		b.files = files
		project, err := LoadProject(files, b.nameHint, b.profiles)
		if err != nil {
			b.loadErr = fmt.Errorf("load compose project: %w", err)
			return
		}
		b.project = project
	})
	return b.project, b.loadErr
}

// ProjectName resolves the effective compose project name.
func (b *Backend) ProjectName() (string, error) {
	project, err := b.ensureProject()
	if err != nil {
		return "", err
	}
	return project.Name, nil
}

func (b *Backend) ListDeclaredServices(ctx context.Context) ([]string, error) {
	project, err := b.ensureProject()
	if err != nil {
		return nil, err
	}
	return serviceNames(project), nil
}

func (b *Backend) ListRunningServices(ctx context.Context) ([]string, error) {
	name, err := b.ProjectName()
	if err != nil {
		return nil, err
	}
	return b.status.RunningServices(ctx, name)
}

func (b *Backend) PullImages(ctx context.Context, services []string) error {
	return b.compose(ctx, append([]string{"pull"}, services...))
}

func (b *Backend) RecreateServices(ctx context.Context, services []string, forceRecreate bool) error {
	// --no-deps keeps the recreate scoped to exactly the target set;
	// dependencies that are already running are left alone.
	args := []string{"up", "-d", "--no-deps"}
	if forceRecreate {
		args = append(args, "--force-recreate")
	}
	return b.compose(ctx, append(args, services...))
}

func (b *Backend) StopAll(ctx context.Context) error {
	return b.compose(ctx, []string{"stop"})
}

func (b *Backend) StartAll(ctx context.Context, services []string, forceRecreate bool) error {
	args := []string{"up", "-d"}
	if forceRecreate {
		args = append(args, "--force-recreate")
	}
	return b.compose(ctx, append(args, services...))
}

func (b *Backend) ServiceStatus(ctx context.Context, service string) (stack.ServiceStatus, error) {
	name, err := b.ProjectName()
	if err != nil {
		return stack.ServiceStatus{}, err
	}
	return b.status.ServiceStatus(ctx, name, service)
}

// compose invokes `docker compose` with the shared project flags
// prepended to the subcommand arguments.
func (b *Backend) compose(ctx context.Context, args []string) error {
	if _, err := b.ensureProject(); err != nil {
		return err
	}
	argv := b.composeArgs(args)
	return b.runner.Run(ctx, argv)
}

func (b *Backend) composeArgs(args []string) []string {
	argv := []string{"compose"}
	for _, f := range b.files {
		argv = append(argv, "-f", f)
	}
	if b.nameHint != "" {
		argv = append(argv, "--project-name", b.nameHint)
	}
	for _, p := range b.profiles {
		argv = append(argv, "--profile", p)
	}
	argv = append(argv, b.extraOpts...)
	return append(argv, args...)
}

var _ stack.Backend = (*Backend)(nil)
