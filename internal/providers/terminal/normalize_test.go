package terminal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"plain text", "hello world", "hello world"},
		{"sgr color", "\x1b[31mred\x1b[0m", "red"},
		{"cursor movement", "a\x1b[2Kb\x1b[10;20Hc", "abc"},
		{"private mode", "\x1b[?2004hprompt\x1b[?2004l", "prompt"},
		{"c1 csi", "x\u009b1my", "xy"},
		{"raw c1 csi byte", "x\x9b31my", "xy"},
		{"raw c1 csi with private mode", "\x9b?25lok\x9b?25h", "ok"},
		{"0x9b inside utf-8 is not csi", "a\u271b31mb", "a31mb"},
		{"osc title with bel", "\x1b]0;user@host: ~\x07$ ls", "$ ls"},
		{"osc with string terminator", "\x1b]2;title\x1b\\done", "done"},
		{"backspace erases", "abc\x08\x08d", "ad"},
		{"backspace at start", "\x08\x08ok", "ok"},
		{"keeps whitespace controls", "a\tb\r\nc\n", "a\tb\r\nc\n"},
		{"drops other controls", "a\x00b\x07c\x1bd", "abcd"},
		{"drops non ascii", "caf\u00e9 \u2713", "caf "},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.raw))
		})
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	inputs := []string{
		"\x1b[1;32muser@host\x1b[0m:~$ ls\r\n",
		"ab\x08\x08\x08c",
		"\x1b]0;t\x07x\x1b[Ky\u009b2Jz",
		"tab\there\r\n\u00e9\x1b",
		"x\x9b31my\x9b",
	}

	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "input %q", in)
	}
}

func TestNormalizeLines(t *testing.T) {
	lines := NormalizeLines("\x1b[32mone\x1b[0m\r\ntwo\r\n")
	assert.Equal(t, []string{"one", "two", ""}, lines)
}
