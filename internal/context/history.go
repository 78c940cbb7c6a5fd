package context

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// HistorySource falls back to the user's shell history file when no tmux
// pane or session transcript is available. It only ever yields command
// lines, never their output, so callers should treat it as shallow context.
type HistorySource struct {
	MaxCommands int
}

// Capture reads the detected shell's history file, excludes the last entry
// if it matches excludeCommand, and renders up to MaxCommands as a numbered
// list.
func (s *HistorySource) Capture(_ context.Context, excludeCommand string) (Result, error) {
	max := s.MaxCommands
	if max <= 0 {
		max = 50
	}

	cmds, err := loadHistoryCommands(ShellName(), max+1)
	if err != nil || len(cmds) == 0 {
		return Result{}, nil
	}

	if excludeCommand != "" && len(cmds) > 0 {
		last := cmds[len(cmds)-1]
		if matchesCommandPattern(last, excludeCommand) || strings.TrimSpace(last) == strings.TrimSpace(excludeCommand) {
			cmds = cmds[:len(cmds)-1]
		}
	}

	if len(cmds) > max {
		cmds = cmds[len(cmds)-max:]
	}
	if len(cmds) == 0 {
		return Result{}, nil
	}

	var b strings.Builder
	b.WriteString("Recent command history:\n")
	for i, c := range cmds {
		fmt.Fprintf(&b, "%d. %s\n", i+1, c)
	}

	return Result{Text: strings.TrimRight(b.String(), "\n"), IsDeep: false}, nil
}

func loadHistoryCommands(shellName string, limit int) ([]string, error) {
	switch shellName {
	case "zsh":
		if path := zshHistoryPath(); path != "" {
			if data, err := os.ReadFile(path); err == nil {
				return tail(parseZshHistory(string(data)), limit), nil
			}
		}
	case "bash":
		if path := bashHistoryPath(); path != "" {
			if data, err := os.ReadFile(path); err == nil {
				return tail(parseBashHistory(string(data)), limit), nil
			}
		}
	}

	if runtime.GOOS == "windows" {
		if cmds, ok := loadPSReadLineHistory(limit); ok {
			return cmds, nil
		}
	}

	if path := zshHistoryPath(); path != "" {
		if data, err := os.ReadFile(path); err == nil {
			return tail(parseZshHistory(string(data)), limit), nil
		}
	}
	if path := bashHistoryPath(); path != "" {
		if data, err := os.ReadFile(path); err == nil {
			return tail(parseBashHistory(string(data)), limit), nil
		}
	}

	return nil, nil
}

func zshHistoryPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".zsh_history")
}

func bashHistoryPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".bash_history")
}

// parseZshHistory splits zsh's extended-history format (`: <ts>:<dur>;<cmd>`)
// on the first semicolon, keeping everything after it; plain lines pass
// through unchanged.
func parseZshHistory(data string) []string {
	lines := strings.Split(data, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, ":") {
			if _, cmd, ok := strings.Cut(line, ";"); ok {
				out = append(out, cmd)
				continue
			}
		}
		out = append(out, line)
	}
	return out
}

// parseBashHistory treats each non-empty line as one command.
func parseBashHistory(data string) []string {
	lines := strings.Split(data, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		out = append(out, line)
	}
	return out
}

func tail(lines []string, limit int) []string {
	if len(lines) <= limit {
		return lines
	}
	return lines[len(lines)-limit:]
}

// loadPSReadLineHistory reads the PSReadLine console history file, trying
// both known %APPDATA% locations used across PowerShell 5.1 and 7.
func loadPSReadLineHistory(limit int) ([]string, bool) {
	appData := os.Getenv("APPDATA")
	if appData == "" {
		return nil, false
	}

	candidates := []string{
		filepath.Join(appData, "Microsoft", "Windows", "PowerShell", "PSReadLine", "ConsoleHost_history.txt"),
		filepath.Join(appData, "Microsoft", "PowerShell", "PSReadLine", "ConsoleHost_history.txt"),
	}

	for _, path := range candidates {
		normalized := normalizeWindowsPath(path)
		data, err := os.ReadFile(normalized)
		if err != nil {
			continue
		}
		return tail(parseBashHistory(string(data)), limit), true
	}
	return nil, false
}

// normalizeWindowsPath collapses doubled backslashes introduced by naive
// path joining, applied twice since a single pass can leave a fresh double
// behind at the join point.
func normalizeWindowsPath(p string) string {
	p = strings.ReplaceAll(p, `\\`, `\`)
	p = strings.ReplaceAll(p, `\\`, `\`)
	return p
}
