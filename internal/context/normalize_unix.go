package context

import (
	"regexp"
	"strings"
)

var (
	csiPattern        = regexp.MustCompile(`\x1b\[[0-9;?]*[a-zA-Z]`)
	oscPattern        = regexp.MustCompile(`\x1b\].*?(\x07|\x1b\\)`)
	singleEscPattern  = regexp.MustCompile(`\x1b[=><OP]`)
	sgrDigitsPattern  = regexp.MustCompile(`\[\d+m`)
	controlOnlyRe     = regexp.MustCompile(`^[\x00-\x1f]*$`)
	spinnerChars      = "⠋⠙⠹⠸⠼⠴⠦⠧⠇⠏"
	spinnerLinePattern = regexp.MustCompile(`^[` + spinnerChars + `\s]*$`)
)

// applyBackspaces replays backspace/^H characters against a character stack,
// turning what a terminal would have erased into an actually-erased string.
func applyBackspaces(text string) string {
	var stack []rune
	for _, r := range text {
		if r == '\b' || r == '\x08' {
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
			continue
		}
		stack = append(stack, r)
	}
	return string(stack)
}

// normalizeUnixLog strips terminal control sequences and collapses a raw
// tmux/script-style capture into plain, readable lines: spinner frames,
// control-only lines, and the bare `%`/`\` line-continuation markers some
// shells emit are dropped entirely.
func normalizeUnixLog(text string) string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))

	for _, line := range lines {
		if strings.ContainsAny(line, "\b\x08") {
			line = applyBackspaces(line)
		}
		line = csiPattern.ReplaceAllString(line, "")
		line = oscPattern.ReplaceAllString(line, "")
		line = singleEscPattern.ReplaceAllString(line, "")
		line = sgrDigitsPattern.ReplaceAllString(line, "")
		line = stripControlChars(line)

		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if spinnerLinePattern.MatchString(trimmed) {
			continue
		}
		if controlOnlyRe.MatchString(line) {
			continue
		}
		if trimmed == "%" || trimmed == "\\" {
			continue
		}

		out = append(out, line)
	}

	return strings.Join(out, "\n")
}

func stripControlChars(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r == '\n' || r == '\t' {
			b.WriteRune(r)
			continue
		}
		if r < 0x20 || r == 0x7f {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
