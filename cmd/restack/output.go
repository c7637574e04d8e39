// output.go renders service tables shared by the restart and status commands.
package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"

	"github.com/example/restack/internal/stack"
)

func printReadinessTable(w io.Writer, order []string, records map[string]stack.ReadinessRecord) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintln(tw, "SERVICE\tSTATE\tLAST CHECK")
	for _, name := range order {
		rec, ok := records[name]
		if !ok {
			continue
		}
		checked := "-"
		if !rec.LastCheckedAt.IsZero() {
			checked = rec.LastCheckedAt.Format(time.TimeOnly)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", name, renderState(rec.State), checked)
	}
}

func renderState(state stack.ReadinessState) string {
	switch state {
	case stack.ReadinessReady:
		return color.New(color.FgGreen).Sprint(state)
	case stack.ReadinessTimedOut, stack.ReadinessUnhealthy:
		return color.New(color.FgRed).Sprint(state)
	default:
		return color.New(color.FgYellow).Sprint(state)
	}
}
