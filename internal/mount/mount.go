// File: internal/mount/mount.go
// Brief: Storage mount precondition guard.

// Package mount verifies that a required filesystem mount is present
// before the restart pipeline mutates anything. The point of the check
// is to avoid restarting services against an empty local directory
// masquerading as networked storage.
package mount

import (
	"fmt"

	"github.com/moby/sys/mountinfo"
)

// NotMountedError reports a required path that is not a mountpoint.
type NotMountedError struct {
	Path string
}

func (e *NotMountedError) Error() string {
	return fmt.Sprintf("required mount %s is not present", e.Path)
}

// CheckRequired verifies path is a mounted filesystem. An empty path is
// an explicit opt-out and succeeds without looking at the system. There
// is no retry: a transient mount race is a hard stop, remediation is up
// to the operator.
func CheckRequired(path string) error {
	if path == "" {
		return nil
	}
	mounted, err := mountinfo.Mounted(path)
	if err != nil {
		return fmt.Errorf("check mount %s: %w", path, err)
	}
	if !mounted {
		return &NotMountedError{Path: path}
	}
	return nil
}
