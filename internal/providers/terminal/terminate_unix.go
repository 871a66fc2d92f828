//go:build unix

package terminal

import (
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

// processTreeTerminator kills the descendants of a shell deepest first,
// then the shell's process group, every process left in its session and
// finally the shell itself.
type processTreeTerminator struct{}

// DefaultTerminator returns the process-tree terminator for this platform.
func DefaultTerminator() Terminator {
	return processTreeTerminator{}
}

func (processTreeTerminator) Terminate(pid int) error {
	if pid <= 0 {
		return fmt.Errorf("invalid pid %d", pid)
	}

	// Read before any signal: once the shell is reaped its session id can
	// no longer be looked up, though surviving members keep it.
	sid, sidErr := unix.Getsid(pid)

	var errs []error
	for _, child := range descendants(pid) {
		if err := signal(child, unix.SIGKILL); err != nil {
			errs = append(errs, err)
		}
	}

	// Jobs the shell left in its own group; the group id is the shell pid
	// because the PTY child is started as a session leader.
	if pgid, err := unix.Getpgid(pid); err == nil && pgid == pid {
		if err := unix.Kill(-pgid, unix.SIGKILL); err != nil && !errors.Is(err, unix.ESRCH) {
			errs = append(errs, fmt.Errorf("kill group %d: %w", pgid, err))
		}
	}

	// Background jobs of exited subshells are reparented to init and drop
	// out of the pgrep -P walk, but they keep the shell's session.
	if sidErr == nil && sid == pid {
		for _, member := range sessionMembers(sid) {
			if member == pid {
				continue
			}
			if err := signal(member, unix.SIGKILL); err != nil {
				errs = append(errs, err)
			}
		}
	}

	if err := signal(pid, unix.SIGKILL); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func signal(pid int, sig unix.Signal) error {
	if err := unix.Kill(pid, sig); err != nil && !errors.Is(err, unix.ESRCH) {
		return fmt.Errorf("kill %d: %w", pid, err)
	}
	return nil
}

// sessionMembers lists the processes whose session id is sid.
func sessionMembers(sid int) []int {
	out, err := exec.Command("pgrep", "-s", strconv.Itoa(sid)).Output()
	if err != nil {
		return nil
	}
	return parsePIDs(out)
}

func parsePIDs(out []byte) []int {
	var pids []int
	for _, field := range strings.Fields(string(out)) {
		if pid, err := strconv.Atoi(field); err == nil {
			pids = append(pids, pid)
		}
	}
	return pids
}

// descendants lists every process below pid, grandchildren before their
// parents. pgrep exits non-zero when there are no children.
func descendants(pid int) []int {
	out, err := exec.Command("pgrep", "-P", strconv.Itoa(pid)).Output()
	if err != nil {
		return nil
	}

	var result []int
	for _, child := range parsePIDs(out) {
		result = append(result, descendants(child)...)
		result = append(result, child)
	}
	return result
}
