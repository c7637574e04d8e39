// File: internal/config/config.go
// Brief: Flag plumbing and runtime options for restack commands.

// Package config defines the options shared by restack's commands,
// translating Cobra/Viper flag values into a strongly typed struct the
// restart pipeline consumes. No component reads ambient state directly;
// everything flows through Options built once at startup.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"

	"github.com/example/restack/internal/stack"
)

// Options holds all CLI configuration for a restack invocation.
type Options struct {
	// Compose project selection, shared across commands.
	Files       []string
	ProjectName string
	Profiles    []string
	ComposeOpts string

	// Service selection.
	Include     []string
	Exclude     []string
	RunningOnly bool

	// Restart strategy.
	Full          bool
	ForceRecreate bool
	Pull          bool

	// Precondition guard.
	RequireMount   string
	SkipMountCheck bool

	// Readiness wait.
	Wait            bool
	WaitTimeout     time.Duration
	PollInterval    time.Duration
	PollParallelism int

	// Execution mode.
	DryRun bool
	Yes    bool

	Journal bool
}

// NewOptions returns Options with the safe defaults applied: mount
// check honored when configured, rolling strategy, wait enabled.
func NewOptions() *Options {
	return &Options{
		Wait:            true,
		WaitTimeout:     5 * time.Minute,
		PollInterval:    2 * time.Second,
		PollParallelism: 4,
		Journal:         true,
	}
}

// AddProjectFlags binds the compose project selection flags.
func (o *Options) AddProjectFlags(fs *pflag.FlagSet) {
	fs.StringArrayVarP(&o.Files, "file", "f", nil, "Specify an additional compose file (repeatable)")
	fs.StringVar(&o.ProjectName, "project-name", "", "Override the compose project name")
	fs.StringArrayVar(&o.Profiles, "profile", nil, "Enable an optional compose profile")
	fs.StringVar(&o.ComposeOpts, "compose-opts", "", "Extra flags passed through to docker compose (shell-style string)")
}

// AddSelectionFlags binds the target-set filter flags.
func (o *Options) AddSelectionFlags(fs *pflag.FlagSet) {
	fs.StringArrayVarP(&o.Include, "service", "s", nil, "Restrict to this service (repeatable; default all)")
	fs.StringArrayVarP(&o.Exclude, "exclude", "x", nil, "Exclude this service (repeatable; wins over --service)")
	fs.BoolVar(&o.RunningOnly, "running-only", false, "Only act on services that are currently running")
}

// AddRestartFlags binds the strategy, guard, and wait flags.
func (o *Options) AddRestartFlags(fs *pflag.FlagSet) {
	fs.BoolVar(&o.Full, "full", false, "Stop the entire stack and start it again (default: rolling recreate of targets)")
	fs.BoolVar(&o.ForceRecreate, "force-recreate", false, "Recreate containers even if their configuration is unchanged")
	fs.BoolVar(&o.Pull, "pull", false, "Pull images for the targeted services before restarting")
	fs.StringVar(&o.RequireMount, "require-mount", "", "Abort unless this path is a mounted filesystem")
	fs.BoolVar(&o.SkipMountCheck, "skip-mount-check", false, "Bypass the required-mount precondition")
	fs.BoolVar(&o.Wait, "wait", o.Wait, "Wait for targeted services to become ready")
	fs.DurationVar(&o.WaitTimeout, "timeout", o.WaitTimeout, "Deadline for the readiness wait")
	fs.DurationVar(&o.PollInterval, "poll-interval", o.PollInterval, "Interval between readiness polling passes")
	fs.IntVar(&o.PollParallelism, "poll-parallelism", o.PollParallelism, "Concurrent status queries per polling pass")
	fs.BoolVar(&o.DryRun, "dry-run", false, "Print the planned actions without executing them")
	fs.BoolVarP(&o.Yes, "yes", "y", false, "Skip the confirmation prompt for full restarts")
	fs.BoolVar(&o.Journal, "journal", o.Journal, "Record the run in the local journal")
}

// Validate checks cross-flag consistency.
func (o *Options) Validate() error {
	if o.WaitTimeout <= 0 {
		return fmt.Errorf("--timeout must be positive, got %s", o.WaitTimeout)
	}
	if o.PollInterval <= 0 {
		return fmt.Errorf("--poll-interval must be positive, got %s", o.PollInterval)
	}
	if o.PollParallelism < 1 {
		o.PollParallelism = 1
	}
	return nil
}

// Strategy maps the flag form onto the pipeline's strategy enum.
func (o *Options) Strategy() stack.Strategy {
	if o.Full {
		return stack.StrategyFull
	}
	return stack.StrategyRolling
}

// Filter builds the selector input from the flag values.
func (o *Options) Filter() stack.Filter {
	return stack.Filter{
		Include:     o.Include,
		Exclude:     o.Exclude,
		RunningOnly: o.RunningOnly,
	}
}

// MountPath returns the guarded path, or empty when the check is
// skipped or unconfigured.
func (o *Options) MountPath() string {
	if o.SkipMountCheck {
		return ""
	}
	return o.RequireMount
}
