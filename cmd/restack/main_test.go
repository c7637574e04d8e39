// main_test.go covers the viper-to-flag config layering.
package main

import (
	"reflect"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/example/restack/internal/config"
)

func TestApplyConfigValuesPreservesArrayEntries(t *testing.T) {
	opts := config.NewOptions()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	opts.AddSelectionFlags(fs)

	v := viper.New()
	v.Set("service", []interface{}{"api", "worker"})
	v.Set("exclude", "db")

	applyConfigValues(v, fs)

	if want := []string{"api", "worker"}; !reflect.DeepEqual(opts.Include, want) {
		t.Fatalf("array config entry mangled: got %v, want %v", opts.Include, want)
	}
	// A scalar entry still lands as a one-element list.
	if want := []string{"db"}; !reflect.DeepEqual(opts.Exclude, want) {
		t.Fatalf("scalar config entry mishandled: got %v, want %v", opts.Exclude, want)
	}
}

func TestApplyConfigValuesSetsScalarFlags(t *testing.T) {
	opts := config.NewOptions()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	opts.AddRestartFlags(fs)

	v := viper.New()
	v.Set("timeout", "10m")
	v.Set("dry-run", true)

	applyConfigValues(v, fs)

	if opts.WaitTimeout != 10*time.Minute {
		t.Fatalf("timeout not applied: got %s", opts.WaitTimeout)
	}
	if !opts.DryRun {
		t.Fatalf("dry-run not applied")
	}
}

func TestApplyConfigValuesNeverOverridesExplicitFlags(t *testing.T) {
	opts := config.NewOptions()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	opts.AddSelectionFlags(fs)
	if err := fs.Parse([]string{"--service", "api"}); err != nil {
		t.Fatalf("parse: %v", err)
	}

	v := viper.New()
	v.Set("service", []interface{}{"worker"})

	applyConfigValues(v, fs)

	if want := []string{"api"}; !reflect.DeepEqual(opts.Include, want) {
		t.Fatalf("explicit flag overridden by config: got %v, want %v", opts.Include, want)
	}
}
