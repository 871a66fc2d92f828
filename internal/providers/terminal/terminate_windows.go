//go:build windows

package terminal

import (
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// taskkillTerminator removes the whole tree with taskkill /T.
type taskkillTerminator struct{}

// DefaultTerminator returns the process-tree terminator for this platform.
func DefaultTerminator() Terminator {
	return taskkillTerminator{}
}

func (taskkillTerminator) Terminate(pid int) error {
	if pid <= 0 {
		return fmt.Errorf("invalid pid %d", pid)
	}

	out, err := exec.Command("taskkill", "/PID", strconv.Itoa(pid), "/T", "/F").CombinedOutput()
	if err != nil {
		return fmt.Errorf("taskkill %d: %w: %s", pid, err, strings.TrimSpace(string(out)))
	}
	return nil
}
