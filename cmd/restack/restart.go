// restart.go declares 'restack restart', the selection -> strategy -> readiness pipeline.
package main

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/example/restack/internal/compose"
	"github.com/example/restack/internal/config"
	"github.com/example/restack/internal/journal"
	"github.com/example/restack/internal/logging"
	"github.com/example/restack/internal/mount"
	"github.com/example/restack/internal/stack"
)

func newRestartCommand(opts *config.Options, logLevel *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "restart",
		Short: "Restart or update targeted stack services",
		Example: `  # Rolling restart of the whole stack
  restack restart

  # Recreate two services with fresh images
  restack restart -s api -s worker --pull

  # Full stop/start cycle, but show the plan first
  restack restart --full --dry-run`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRestart(cmd, opts, logLevel)
		},
	}
	opts.AddSelectionFlags(cmd.Flags())
	opts.AddRestartFlags(cmd.Flags())
	return cmd
}

func runRestart(cmd *cobra.Command, opts *config.Options, logLevel *string) error {
	ctx := cmd.Context()
	if err := opts.Validate(); err != nil {
		return err
	}
	log, err := logging.New(*logLevel)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	backend, err := compose.New(compose.Options{
		Files:       opts.Files,
		ProjectName: opts.ProjectName,
		Profiles:    opts.Profiles,
		ExtraOpts:   opts.ComposeOpts,
		Log:         log,
	})
	if err != nil {
		return err
	}

	strategy := opts.Strategy()
	if strategy == stack.StrategyFull && !opts.DryRun {
		if err := confirmFullRestart(ctx, cmd.InOrStdin(), cmd.ErrOrStderr(), opts.Yes); err != nil {
			return err
		}
	}

	started := time.Now()
	res, runErr := stack.Run(ctx, backend, stack.RunOptions{
		Filter:        opts.Filter(),
		Strategy:      strategy,
		ForceRecreate: opts.ForceRecreate,
		RefreshImages: opts.Pull,
		DryRun:        opts.DryRun,
		Precondition: func() error {
			return mount.CheckRequired(opts.MountPath())
		},
		Wait:         opts.Wait,
		WaitTimeout:  opts.WaitTimeout,
		PollInterval: opts.PollInterval,
		Parallelism:  opts.PollParallelism,
		Out:          cmd.OutOrStdout(),
		Log:          log,
	})

	if len(res.Readiness) > 0 {
		printReadinessTable(cmd.OutOrStdout(), res.Targets, res.Readiness)
	}
	if opts.Journal {
		recordRun(ctx, backend, opts, strategy, started, res, runErr, log)
	}
	if runErr != nil {
		return runErr
	}

	if opts.DryRun {
		fmt.Fprintf(cmd.OutOrStdout(), "Dry-run complete: %d action(s) planned for %d service(s).\n",
			len(res.Plan), len(res.Targets))
		return nil
	}
	okMark := color.New(color.FgGreen).Sprint("✓")
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s restart of %d service(s) finished in %s\n",
		okMark, strategy, len(res.Targets), res.Elapsed.Round(time.Millisecond))
	return nil
}

// recordRun journals the invocation. Journal failures are logged, never
// fatal: the restart already happened.
func recordRun(ctx context.Context, backend *compose.Backend, opts *config.Options, strategy stack.Strategy, started time.Time, res *stack.RunResult, runErr error, log *zap.Logger) {
	project, err := backend.ProjectName()
	if err != nil {
		log.Warn("journal skipped: project name unresolved", zap.Error(err))
		return
	}
	store, err := journal.Open(".")
	if err != nil {
		log.Warn("journal unavailable", zap.Error(err))
		return
	}
	defer func() { _ = store.Close() }()

	entry := journal.Entry{
		StartedAt: started,
		Project:   project,
		Strategy:  string(strategy),
		DryRun:    opts.DryRun,
		Targets:   res.Targets,
		Outcome:   "succeeded",
		Elapsed:   res.Elapsed,
	}
	if runErr != nil {
		entry.Outcome = "failed"
		entry.Error = runErr.Error()
	}
	if err := store.Record(ctx, entry); err != nil {
		log.Warn("journal write failed", zap.Error(err))
	}
}
