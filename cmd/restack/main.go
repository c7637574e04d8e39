// main.go bootstraps restack: it builds the root Cobra command, wires config
// layering, and executes with a signal-aware context.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/example/restack/internal/config"
	"github.com/example/restack/internal/mount"
	"github.com/example/restack/internal/stack"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	rootCmd := newRootCommand()
	err := rootCmd.ExecuteContext(ctx)
	handleError(err)
	if err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := config.NewOptions()
	logLevel := "info"
	cmd := &cobra.Command{
		Use:           "restack",
		Short:         "Restart or update the services of a compose stack",
		Long: "restack restarts or updates a declaratively defined compose stack: it checks\n" +
			"storage preconditions, narrows the declared services with include/exclude\n" +
			"filters, applies a rolling or full restart strategy, and waits until every\n" +
			"targeted service reports ready.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", logLevel, "Log level for restack output (debug, info, warn, error)")
	opts.AddProjectFlags(cmd.PersistentFlags())

	restartCmd := newRestartCommand(opts, &logLevel)
	servicesCmd := newServicesCommand(opts)
	statusCmd := newStatusCommand(opts, &logLevel)
	runsCmd := newRunsCommand()
	cmd.AddCommand(restartCmd, servicesCmd, statusCmd, runsCmd)
	bindViper(cmd, restartCmd, servicesCmd, statusCmd, runsCmd)
	return cmd
}

func bindViper(commands ...*cobra.Command) {
	if len(commands) == 0 {
		return
	}
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.SetEnvPrefix("RESTACK")
	v.AutomaticEnv()
	configFile := os.Getenv("RESTACK_CONFIG")
	configureConfigFile(v, configFile)

	cobra.OnInitialize(func() {
		for _, cmd := range commands {
			if err := v.BindPFlags(cmd.Flags()); err != nil {
				cobra.CheckErr(err)
			}
			if err := v.BindPFlags(cmd.PersistentFlags()); err != nil {
				cobra.CheckErr(err)
			}
		}
		if err := readConfigFile(v, configFile != ""); err != nil {
			cobra.CheckErr(err)
		}
		for _, cmd := range commands {
			applyConfigValues(v, cmd.Flags())
			applyConfigValues(v, cmd.PersistentFlags())
		}
	})
}

// applyConfigValues copies viper-resolved settings onto flags the user
// did not set explicitly. Array-valued flags (--service, --exclude,
// --file) go through the slice interface so a config entry like
// `service: [a, b]` lands as two values, not the string "[a b]".
func applyConfigValues(v *viper.Viper, fs *pflag.FlagSet) {
	fs.VisitAll(func(f *pflag.Flag) {
		if f.Changed {
			return
		}
		if !v.IsSet(f.Name) {
			return
		}
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			if vals := v.GetStringSlice(f.Name); len(vals) > 0 {
				_ = sv.Replace(vals)
			}
			return
		}
		val := fmt.Sprintf("%v", v.Get(f.Name))
		if val != "" {
			_ = f.Value.Set(val)
		}
	})
}

func configureConfigFile(v *viper.Viper, explicitPath string) {
	if explicitPath != "" {
		v.SetConfigFile(explicitPath)
		return
	}
	v.SetConfigName("config")
	for _, dir := range configSearchDirs() {
		v.AddConfigPath(dir)
	}
}

func readConfigFile(v *viper.Viper, strict bool) error {
	if err := v.ReadInConfig(); err != nil {
		var cfgErr viper.ConfigFileNotFoundError
		if errors.As(err, &cfgErr) && !strict {
			return nil
		}
		return err
	}
	return nil
}

func configSearchDirs() []string {
	dirs := []string{"."}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		dirs = append(dirs, filepath.Join(xdg, "restack"))
	}
	if home, err := homedir.Dir(); err == nil && home != "" {
		dirs = append(dirs, filepath.Join(home, ".config", "restack"))
	}
	return dirs
}

func handleError(err error) {
	if err == nil || errors.Is(err, pflag.ErrHelp) {
		return
	}
	message := err.Error()
	var notMounted *mount.NotMountedError
	var noneSelected *stack.NoServicesSelectedError
	var timeout *stack.ReadinessTimeoutError
	switch {
	case errors.As(err, &notMounted):
		message = fmt.Sprintf("%s\nHint: mount the storage volume first, or pass --skip-mount-check to proceed without it.", err)
	case errors.As(err, &noneSelected):
		message = fmt.Sprintf("%s\nHint: check the --service/--exclude spelling against the names above.", err)
	case errors.As(err, &timeout):
		message = fmt.Sprintf("%s\nHint: inspect the stragglers with 'restack status', or raise --timeout.", err)
	case strings.Contains(message, "Cannot connect to the Docker daemon"):
		message = fmt.Sprintf("%s\nHint: is the docker daemon running and DOCKER_HOST pointing at it?", err)
	}
	fmt.Fprintf(os.Stderr, "Error: %s\n", message)
}
