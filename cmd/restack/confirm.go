// confirm.go holds the confirmation prompt guarding full-stack restarts.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

// confirmFullRestart gates the stop-everything path. Approved runs
// (--yes) skip the prompt; non-interactive sessions are refused rather
// than silently approved.
func confirmFullRestart(ctx context.Context, in io.Reader, out io.Writer, approved bool) error {
	if approved {
		return nil
	}
	if !stdinIsTerminal(in) {
		return errors.New("refusing a full stack restart without confirmation; rerun with --yes")
	}
	fmt.Fprint(out, "Stop and start the ENTIRE stack? [y/N]: ")

	readResult := make(chan struct {
		line string
		err  error
	}, 1)
	go func() {
		line, err := bufio.NewReader(in).ReadString('\n')
		readResult <- struct {
			line string
			err  error
		}{line: line, err: err}
	}()

	var line string
	var err error
	select {
	case <-ctx.Done():
		fmt.Fprintln(out)
		return ctx.Err()
	case res := <-readResult:
		line, err = res.line, res.err
	}
	if err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return nil
	default:
		return errors.New("full restart aborted by operator")
	}
}

func stdinIsTerminal(in io.Reader) bool {
	f, ok := in.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
