package tools

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"syscall"
	"time"
	"unicode/utf8"

	"golang.org/x/sys/unix"

	whaicontext "github.com/samsaffron/whai/internal/context"
)

// Shell runs one command per call in a fresh subprocess; no cwd or
// environment state persists between calls.
type Shell struct {
	exe  string
	flag string
}

// NewShell detects the user's shell once at construction, the way the
// teacher's detectShell does, but following the original's richer
// bash/zsh/pwsh/fish/cmd branching rather than a bare $SHELL-or-bash
// fallback.
func NewShell() *Shell {
	name := whaicontext.ShellName()
	exe := whaicontext.ShellExecutable(name)
	return &Shell{exe: exe, flag: whaicontext.ShellInvocationFlag(exe)}
}

// Execute runs command with the given timeout (0 means no limit). On
// expiry it kills the whole process group, not just the direct child, and
// returns a result with TimedOut set; the caller is responsible for
// turning that into the synthetic tool-result string spec.md §4.1
// requires.
func (s *Shell) Execute(ctx context.Context, command string, timeout time.Duration) (ShellResult, error) {
	runCtx := ctx
	var cancel context.CancelFunc
	if timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, s.exe, s.flag, command)
	setProcessGroup(cmd)
	// Kill the whole group at the deadline, so a grandchild holding the
	// output pipes open cannot keep Run waiting past the timeout.
	cmd.Cancel = func() error {
		return unix.Kill(-cmd.Process.Pid, unix.SIGKILL)
	}

	devNull, err := os.OpenFile(os.DevNull, os.O_RDONLY, 0)
	if err == nil {
		cmd.Stdin = devNull
		defer devNull.Close()
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()

	if runCtx.Err() == context.DeadlineExceeded {
		killProcessGroup(cmd)
		return ShellResult{
			Stdout:   decodeUTF8(stdout.Bytes()),
			Stderr:   decodeUTF8(stderr.Bytes()),
			TimedOut: true,
		}, nil
	}

	result := ShellResult{
		Stdout: decodeUTF8(stdout.Bytes()),
		Stderr: decodeUTF8(stderr.Bytes()),
	}

	if runErr != nil {
		if exitErr, ok := runErr.(*exec.ExitError); ok {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		return result, NewToolErrorf(ErrFailure, "launch failed: %v", runErr)
	}

	return result, nil
}

// decodeUTF8 replaces invalid byte sequences instead of raising, per
// spec.md §4.1's "never raise on decoding" requirement. Go strings are
// already byte sequences, so this only needs to force a round trip through
// utf8.Valid and replace invalid runs.
func decodeUTF8(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	var out []rune
	for len(b) > 0 {
		r, size := utf8.DecodeRune(b)
		out = append(out, r)
		b = b[size:]
	}
	return string(out)
}

// TimeoutToolResult builds the synthetic tool-result body spec.md §4.1
// mandates for a timed-out command, fed back to the model in place of real
// output.
func TimeoutToolResult(command string, timeoutSeconds int) string {
	return fmt.Sprintf("Command: %s\n\nOUTPUT: NO OUTPUT, %ds TIMEOUT EXCEEDED", command, timeoutSeconds)
}

// FormatResult renders a completed (non-timeout) result as the tool-result
// text fed back to the model.
func FormatResult(command string, r ShellResult) string {
	return fmt.Sprintf("Command: %s\n\nSTDOUT:\n%s\nSTDERR:\n%s\nEXIT CODE: %d", command, r.Stdout, r.Stderr, r.ExitCode)
}

func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// killProcessGroup kills the entire process group spawned for cmd, not
// just the direct child: exec.CommandContext's own deadline handling only
// signals the immediate process, which leaves grandchildren (e.g. a
// `sleep` invoked from a shell one level down) running past the timeout.
func killProcessGroup(cmd *exec.Cmd) {
	if cmd.Process == nil {
		return
	}
	unix.Kill(-cmd.Process.Pid, unix.SIGKILL)
}
