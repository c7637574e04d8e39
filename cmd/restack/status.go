// status.go declares 'restack status', a one-shot readiness snapshot.
package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/example/restack/internal/compose"
	"github.com/example/restack/internal/config"
	"github.com/example/restack/internal/logging"
	"github.com/example/restack/internal/stack"
)

type statusListing struct {
	Name    string `json:"name" yaml:"name"`
	Running bool   `json:"running" yaml:"running"`
	Health  string `json:"health" yaml:"health"`
	State   string `json:"state" yaml:"state"`
}

func newStatusCommand(opts *config.Options, logLevel *string) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:           "status",
		Short:         "Show current readiness of targeted services without mutating anything",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
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
			catalog, err := backend.ListDeclaredServices(ctx)
			if err != nil {
				return err
			}
			targets, err := stack.SelectServices(ctx, backend, catalog, opts.Filter())
			if err != nil {
				return err
			}

			listings := make([]statusListing, 0, len(targets))
			for _, name := range targets {
				status, err := backend.ServiceStatus(ctx, name)
				if err != nil {
					return fmt.Errorf("status of %s: %w", name, err)
				}
				listings = append(listings, statusListing{
					Name:    name,
					Running: status.Running,
					Health:  string(status.Health),
					State:   string(stack.Classify(status)),
				})
			}

			out := cmd.OutOrStdout()
			switch format {
			case "json":
				body, err := json.MarshalIndent(listings, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(out, string(body))
			case "yaml":
				body, err := yaml.Marshal(listings)
				if err != nil {
					return err
				}
				fmt.Fprint(out, string(body))
			case "table":
				tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
				fmt.Fprintln(tw, "SERVICE\tRUNNING\tHEALTH\tSTATE")
				for _, l := range listings {
					fmt.Fprintf(tw, "%s\t%v\t%s\t%s\n", l.Name, l.Running, l.Health, renderState(stack.ReadinessState(l.State)))
				}
				return tw.Flush()
			default:
				return fmt.Errorf("unknown format %q (expected table, json, or yaml)", format)
			}
			return nil
		},
	}
	opts.AddSelectionFlags(cmd.Flags())
	cmd.Flags().StringVar(&format, "format", "table", "Output format: table|json|yaml")
	return cmd
}
