// File: internal/compose/runner.go
// Brief: docker compose CLI invocation.

package compose

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"go.uber.org/zap"
)

// Runner executes a docker CLI invocation. Tests substitute a recording
// fake so backend argv construction can be verified without docker.
type Runner interface {
	Run(ctx context.Context, args []string) error
}

type execRunner struct {
	log *zap.Logger
}

// NewExecRunner returns a Runner that invokes the docker binary,
// streaming its output to the operator's terminal.
func NewExecRunner(log *zap.Logger) Runner {
	if log == nil {
		log = zap.NewNop()
	}
	return &execRunner{log: log}
}

func (r *execRunner) Run(ctx context.Context, args []string) error {
	r.log.Debug("exec", zap.String("cmd", "docker "+strings.Join(args, " ")))
	cmd := exec.CommandContext(ctx, "docker", args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("docker %s: %w", strings.Join(args, " "), err)
	}
	return nil
}
