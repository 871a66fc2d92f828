package terminal

import (
	"fmt"
	"hash/fnv"
	"path/filepath"
	"strings"
)

const (
	markerPrefix = "__GEMINIT_END_"
	markerSuffix = "__"
)

type shellFamily int

const (
	familyPOSIX shellFamily = iota
	familyPowerShell
	familyCmd
)

func detectShellFamily(shell string) shellFamily {
	base := strings.ToLower(filepath.Base(strings.ReplaceAll(shell, `\`, "/")))
	base = strings.TrimSuffix(base, ".exe")
	switch base {
	case "powershell", "pwsh":
		return familyPowerShell
	case "cmd":
		return familyCmd
	default:
		return familyPOSIX
	}
}

// markerToken reduces a request id to characters that are inert in every
// supported shell. When that changes the id, a hash of the original is
// appended so distinct ids never share a marker.
func markerToken(requestID string) string {
	var sb strings.Builder
	changed := false
	for _, r := range requestID {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			sb.WriteRune(r)
		default:
			sb.WriteByte('_')
			changed = true
		}
	}
	if changed {
		h := fnv.New32a()
		h.Write([]byte(requestID))
		fmt.Fprintf(&sb, "_%08x", h.Sum32())
	}
	return sb.String()
}

// EndMarker returns the sentinel printed after a capture's command.
func EndMarker(requestID string) string {
	return markerPrefix + markerToken(requestID) + markerSuffix
}

// markerCommand returns the command that prints the end marker. The typed
// text is split so the shell's echo of it never contains the marker.
func markerCommand(family shellFamily, requestID string) string {
	token := markerToken(requestID)
	switch family {
	case familyPowerShell:
		return fmt.Sprintf("Write-Output ('%s' + '%s' + '%s')", markerPrefix, token, markerSuffix)
	case familyCmd:
		return fmt.Sprintf("echo %s^%s%s", markerPrefix, token, markerSuffix)
	default:
		return fmt.Sprintf(`echo "%s""%s""%s"`, markerPrefix, token, markerSuffix)
	}
}

func lineTerminator(family shellFamily) string {
	if family == familyPOSIX {
		return "\n"
	}
	return "\r\n"
}

// composeCapture builds the bytes to write for a capture and the input
// lines the shell will echo back.
func composeCapture(family shellFamily, requestID, command string) (payload string, sent []string) {
	eol := lineTerminator(family)
	marker := markerCommand(family, requestID)

	command = strings.TrimRight(command, "\r\n")
	for _, line := range strings.Split(command, "\n") {
		sent = append(sent, strings.TrimSpace(line))
	}
	sent = append(sent, strings.TrimSpace(marker))

	body := strings.ReplaceAll(strings.ReplaceAll(command, "\r\n", "\n"), "\n", eol)
	return body + eol + marker + eol, sent
}
