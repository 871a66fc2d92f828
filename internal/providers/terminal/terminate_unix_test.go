//go:build unix

package terminal

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// processGone reports whether pid has exited. Zombies count as gone since
// nothing may reap an orphan inside a container.
func processGone(pid int) bool {
	data, err := os.ReadFile(fmt.Sprintf("/proc/%d/stat", pid))
	if err != nil {
		return true
	}
	stat := string(data)
	end := strings.LastIndexByte(stat, ')')
	return end < 0 || strings.HasPrefix(stat[end+1:], " Z")
}

func TestParsePIDs(t *testing.T) {
	assert.Equal(t, []int{12, 345}, parsePIDs([]byte("12\n345\nbogus\n")))
	assert.Empty(t, parsePIDs(nil))
}

func TestKillReachesReparentedJobs(t *testing.T) {
	if _, err := os.Stat("/proc/self/stat"); err != nil {
		t.Skip("procfs not available")
	}
	m := newTestManager(t, Options{})

	opts := quietShell
	opts.ID = "orphans"
	_, err := m.Create(opts)
	require.NoError(t, err)

	// The subshell exits at once, leaving sleep parented by init but still
	// in the shell's session.
	require.NoError(t, m.Write("orphans", []byte("(sleep 300 & echo orphan=$!)\n")))

	pattern := regexp.MustCompile(`orphan=(\d+)`)
	var orphan int
	require.Eventually(t, func() bool {
		history, _ := m.History("orphans")
		match := pattern.FindSubmatch(history)
		if match == nil {
			return false
		}
		orphan, _ = strconv.Atoi(string(match[1]))
		return orphan > 0
	}, 5*time.Second, 20*time.Millisecond)
	require.False(t, processGone(orphan), "background job should be running before kill")

	require.NoError(t, m.Kill("orphans"))

	assert.Eventually(t, func() bool { return processGone(orphan) }, 5*time.Second, 20*time.Millisecond,
		"pid %d survived kill", orphan)
}
