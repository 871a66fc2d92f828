package terminal

import "strings"

// FilterEcho removes the lines of text that are the shell's echo of input
// we sent ourselves. A line is dropped when its trimmed form equals one of
// the trimmed sent lines; order is preserved and the joined result is
// trimmed. Empty sent lines are ignored so blank output lines survive.
func FilterEcho(text string, sent []string) string {
	echoed := make(map[string]struct{}, len(sent))
	for _, line := range sent {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			echoed[trimmed] = struct{}{}
		}
	}

	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if _, ok := echoed[strings.TrimSpace(line)]; ok {
			continue
		}
		kept = append(kept, line)
	}

	return strings.TrimSpace(strings.Join(kept, "\n"))
}
