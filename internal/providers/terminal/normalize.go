package terminal

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	backspace = 0x08
	c1CSI     = 0x9b
)

var (
	// csiPattern matches CSI sequences introduced by ESC or the C1 CSI
	// character, plus the short ESC ( ) # designations that share its shape.
	csiPattern = regexp.MustCompile(`[\x1b\x{9b}][\[()#;?]*(?:[0-9]{1,4}(?:;[0-9]{0,4})*)?[0-9A-ORZcf-nqry=><]`)

	// oscPattern matches OSC sequences terminated by BEL or ST (ESC \).
	oscPattern = regexp.MustCompile(`\x1b\][^\x07\x1b]*(?:\x07|\x1b\\)`)
)

// Normalize turns raw terminal output into plain text. Control sequences
// are removed, backspaces erase the previously kept character and every
// byte outside printable ASCII, newline, carriage return and tab is
// dropped. Normalize(Normalize(s)) == Normalize(s).
func Normalize(raw string) string {
	s := csiPattern.ReplaceAllString(expandC1CSI(raw), "")
	s = oscPattern.ReplaceAllString(s, "")

	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == backspace:
			if len(out) > 0 {
				out = out[:len(out)-1]
			}
		case c >= ' ' && c <= '~', c == '\n', c == '\r', c == '\t':
			out = append(out, c)
		}
	}
	return string(out)
}

// expandC1CSI rewrites a raw 0x9B byte to ESC [ so the patterns see one
// CSI form. The byte is only an introducer when it is not part of a valid
// UTF-8 sequence; regexp would otherwise read it as U+FFFD.
func expandC1CSI(s string) string {
	if strings.IndexByte(s, c1CSI) < 0 {
		return s
	}

	var sb strings.Builder
	sb.Grow(len(s) + 8)
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 && s[i] == c1CSI {
			sb.WriteString("\x1b[")
		} else {
			sb.WriteString(s[i : i+size])
		}
		i += size
	}
	return sb.String()
}

// NormalizeLines normalizes raw and splits the result into lines with
// trailing carriage returns removed.
func NormalizeLines(raw string) []string {
	lines := strings.Split(Normalize(raw), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, "\r")
	}
	return lines
}
