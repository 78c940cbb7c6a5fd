package context

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

// ShellName returns a short shell identifier (bash, zsh, pwsh, fish, cmd,
// or "" if undetermined) based on the SHELL env var, falling back to
// PSModulePath sniffing and a pwsh/powershell.exe/cmd.exe probe on Windows
// where SHELL is typically unset.
func ShellName() string {
	if shell := os.Getenv("SHELL"); shell != "" {
		base := filepath.Base(shell)
		base = strings.TrimSuffix(base, filepath.Ext(base))
		switch {
		case strings.Contains(base, "zsh"):
			return "zsh"
		case strings.Contains(base, "bash"):
			return "bash"
		case strings.Contains(base, "fish"):
			return "fish"
		case strings.Contains(base, "pwsh"):
			return "pwsh"
		}
	}
	if runtime.GOOS == "windows" {
		if os.Getenv("PSModulePath") != "" {
			if _, err := exec.LookPath("pwsh"); err == nil {
				return "pwsh"
			}
			return "pwsh"
		}
		return "cmd"
	}
	return ""
}

// ShellExecutable resolves a shell name to the executable whai should
// invoke, mirroring the original's get_shell_executable: bash and zsh map
// to their well-known absolute paths, pwsh prefers a PATH-resolved `pwsh`
// and falls back to the platform's built-in shell, fish is looked up on
// PATH, and an unrecognized name falls back to powershell.exe on Windows and
// /bin/bash elsewhere.
func ShellExecutable(shellName string) string {
	switch shellName {
	case "bash":
		return "/bin/bash"
	case "zsh":
		return "/bin/zsh"
	case "fish":
		if path, err := exec.LookPath("fish"); err == nil {
			return path
		}
		return "fish"
	case "cmd":
		return "cmd.exe"
	case "pwsh":
		if path, err := exec.LookPath("pwsh"); err == nil {
			return path
		}
		if runtime.GOOS == "windows" {
			return "powershell.exe"
		}
		return "pwsh"
	default:
		if runtime.GOOS == "windows" {
			return "powershell.exe"
		}
		return "/bin/bash"
	}
}

// ShellInvocationFlag returns the flag whai passes before the literal
// command string for the given shell executable: PowerShell and cmd.exe
// each use their own, everything else follows the POSIX -c convention. The
// caller invokes the shell directly with this flag rather than routing
// through an intermediate interpreter, so a process-group kill on timeout
// reliably reaches the whole child tree.
func ShellInvocationFlag(shellExe string) string {
	base := strings.ToLower(filepath.Base(shellExe))
	switch {
	case strings.Contains(base, "powershell"), strings.Contains(base, "pwsh"):
		return "-Command"
	case strings.Contains(base, "cmd"):
		return "/c"
	default:
		return "-c"
	}
}

// wslAvailable reports whether whai is running on a Windows host that also
// has a working WSL installation, in which case tmux capture is proxied
// through `wsl tmux capture-pane` since tmux itself only runs inside WSL.
func wslAvailable(ctx context.Context) bool {
	if runtime.GOOS != "windows" {
		return false
	}
	cctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return exec.CommandContext(cctx, "wsl", "--status").Run() == nil
}
