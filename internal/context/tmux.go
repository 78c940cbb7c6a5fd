package context

import (
	"context"
	"os"
	"os/exec"
	"strings"
	"time"
)

// TmuxSource captures the current tmux pane's scrollback, when whai is
// itself running inside a tmux session.
type TmuxSource struct{}

// Capture runs `tmux capture-pane -p -S -` (via `wsl` when on a Windows host with
// WSL available, since tmux itself doesn't run natively on Windows) and
// truncates the result to everything before the last line that looks like
// the excluded command being invoked, so whai doesn't see itself asking the
// question it's currently answering.
func (s *TmuxSource) Capture(ctx context.Context, excludeCommand string) (Result, error) {
	if os.Getenv("TMUX") == "" {
		return Result{}, nil
	}

	cctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var cmd *exec.Cmd
	if wslAvailable(ctx) {
		cmd = exec.CommandContext(cctx, "wsl", "tmux", "capture-pane", "-p", "-S", "-")
	} else {
		cmd = exec.CommandContext(cctx, "tmux", "capture-pane", "-p", "-S", "-")
	}

	out, err := cmd.Output()
	if err != nil {
		return Result{}, nil
	}

	text := string(out)
	if excludeCommand != "" {
		text = truncateBeforeLastMatch(text, excludeCommand)
	}
	text = strings.TrimRight(text, "\n")
	if text == "" {
		return Result{}, nil
	}

	return Result{Text: text, IsDeep: true}, nil
}

// truncateBeforeLastMatch scans lines from the end, finds the last one that
// looks like an invocation of command, and drops it and everything after.
func truncateBeforeLastMatch(text, command string) string {
	lines := strings.Split(text, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if matchesCommandPattern(lines[i], command) {
			return strings.Join(lines[:i], "\n")
		}
	}
	return text
}
