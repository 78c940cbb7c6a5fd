// Package render implements the terminal sink spec.md treats as an
// external collaborator: print_text, print_command, print_output,
// spinner, and error/warn/info. Kept to direct lipgloss-styled printing
// rather than a full bubbletea program, since the spec's contract is a
// handful of one-shot output operations, not an interactive UI.
package render

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
)

var (
	commandStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#83a598")).Bold(true)
	stdoutStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ebdbb2"))
	stderrStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#fb4934"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#fb4934")).Bold(true)
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#fabd2f"))
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#928374"))
	spinnerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#d3869b"))
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Sink is the terminal output surface the driver writes through. Plain
// can be set from WHAI_PLAIN to disable styling, matching spec.md §6's
// environment variable.
type Sink struct {
	out   io.Writer
	plain bool

	spinMu   sync.Mutex
	spinStop chan struct{}
	spinDone chan struct{}
}

// New builds a Sink writing to stdout, honoring WHAI_PLAIN.
func New() *Sink {
	return &Sink{out: os.Stdout, plain: os.Getenv("WHAI_PLAIN") != ""}
}

func (s *Sink) style(st lipgloss.Style, text string) string {
	if s.plain {
		return text
	}
	return st.Render(text)
}

// PrintText streams an assistant text chunk to the terminal as it arrives.
// No trailing newline is added, since chunks are fragments of one message.
func (s *Sink) PrintText(text string) {
	fmt.Fprint(s.out, text)
}

// PrintCommand shows a proposed or executed command.
func (s *Sink) PrintCommand(command string) {
	fmt.Fprintf(s.out, "\n%s %s\n", s.style(commandStyle, "$"), s.style(commandStyle, command))
}

// PrintOutput renders a completed command's stdout/stderr panels.
func (s *Sink) PrintOutput(stdout, stderr string, exitCode int) {
	if stdout != "" {
		fmt.Fprintln(s.out, s.style(stdoutStyle, stdout))
	}
	if stderr != "" {
		fmt.Fprintln(s.out, s.style(stderrStyle, stderr))
	}
	fmt.Fprintf(s.out, "%s\n", s.style(infoStyle, fmt.Sprintf("exit code: %d", exitCode)))
}

// Error prints a fatal or turn-ending error.
func (s *Sink) Error(message string) {
	fmt.Fprintln(s.out, s.style(errorStyle, "Error: "+message))
}

// Warn prints a recoverable warning.
func (s *Sink) Warn(message string) {
	fmt.Fprintln(s.out, s.style(warnStyle, message))
}

// Info prints a neutral status line.
func (s *Sink) Info(message string) {
	fmt.Fprintln(s.out, s.style(infoStyle, message))
}

// StartSpinner shows a spinner until the first stream chunk arrives, per
// spec.md §4.7: visible only between send and the first chunk. Calling
// StopSpinner is safe even if the spinner was never started.
func (s *Sink) StartSpinner() {
	s.spinMu.Lock()
	defer s.spinMu.Unlock()
	if s.spinStop != nil || s.plain {
		return
	}
	s.spinStop = make(chan struct{})
	s.spinDone = make(chan struct{})

	go func() {
		defer close(s.spinDone)
		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()
		i := 0
		for {
			select {
			case <-s.spinStop:
				fmt.Fprint(s.out, "\r\033[K")
				return
			case <-ticker.C:
				frame := spinnerFrames[i%len(spinnerFrames)]
				fmt.Fprintf(s.out, "\r%s", s.style(spinnerStyle, frame))
				i++
			}
		}
	}()
}

// StopSpinner halts the spinner and clears its line.
func (s *Sink) StopSpinner() {
	s.spinMu.Lock()
	stop, done := s.spinStop, s.spinDone
	s.spinStop, s.spinDone = nil, nil
	s.spinMu.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	<-done
}
