// services.go declares 'restack services', listing the declared catalog.
package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/example/restack/internal/compose"
	"github.com/example/restack/internal/config"
)

type serviceListing struct {
	Name    string `json:"name" yaml:"name"`
	Running bool   `json:"running" yaml:"running"`
}

func newServicesCommand(opts *config.Options) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:           "services",
		Short:         "List the services declared by the compose project",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			backend, err := compose.New(compose.Options{
				Files:       opts.Files,
				ProjectName: opts.ProjectName,
				Profiles:    opts.Profiles,
				ExtraOpts:   opts.ComposeOpts,
			})
			if err != nil {
				return err
			}
			catalog, err := backend.ListDeclaredServices(ctx)
			if err != nil {
				return err
			}
			running, err := backend.ListRunningServices(ctx)
			if err != nil {
				return err
			}
			runningSet := map[string]bool{}
			for _, name := range running {
				runningSet[name] = true
			}
			listings := make([]serviceListing, 0, len(catalog))
			for _, name := range catalog {
				listings = append(listings, serviceListing{Name: name, Running: runningSet[name]})
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
				fmt.Fprintln(tw, "SERVICE\tRUNNING")
				for _, l := range listings {
					fmt.Fprintf(tw, "%s\t%v\n", l.Name, l.Running)
				}
				return tw.Flush()
			default:
				return fmt.Errorf("unknown format %q (expected table, json, or yaml)", format)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "table", "Output format: table|json|yaml")
	return cmd
}
