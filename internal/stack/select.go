// File: internal/stack/select.go
// Brief: Target-set selection over the declared catalog.

package stack

import (
	"context"
	"fmt"
)

// SelectServices applies the filter chain to the declared catalog and
// returns the target set in catalog order. The steps are applied in a
// fixed, non-commutative order: include narrows (empty include keeps
// everything), exclude always subtracts, and running-only intersects
// with the backend's currently running set. Filter tokens that match no
// catalog member are ignored; selection is set algebra, not an
// existence assertion.
func SelectServices(ctx context.Context, backend Backend, catalog []string, f Filter) ([]string, error) {
	selected := toSet(catalog)

	if len(f.Include) > 0 {
		selected = intersect(selected, toSet(f.Include))
	}
	selected = subtract(selected, toSet(f.Exclude))

	if f.RunningOnly {
		running, err := backend.ListRunningServices(ctx)
		if err != nil {
			return nil, fmt.Errorf("list running services: %w", err)
		}
		selected = intersect(selected, toSet(running))
	}

	// Emit in catalog order so the plan is deterministic.
	targets := make([]string, 0, len(selected))
	for _, name := range catalog {
		if _, ok := selected[name]; ok {
			targets = append(targets, name)
		}
	}
	if len(targets) == 0 {
		return nil, &NoServicesSelectedError{Catalog: append([]string(nil), catalog...)}
	}
	return targets, nil
}

func toSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		if n == "" {
			continue
		}
		set[n] = struct{}{}
	}
	return set
}

func intersect(a, b map[string]struct{}) map[string]struct{} {
	out := map[string]struct{}{}
	for k := range a {
		if _, ok := b[k]; ok {
			out[k] = struct{}{}
		}
	}
	return out
}

func subtract(a, b map[string]struct{}) map[string]struct{} {
	out := map[string]struct{}{}
	for k := range a {
		if _, ok := b[k]; !ok {
			out[k] = struct{}{}
		}
	}
	return out
}
