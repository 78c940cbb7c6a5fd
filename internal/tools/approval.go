package tools

import (
	"bufio"
	"fmt"
	"os"

	"github.com/mattn/go-runewidth"
	"golang.org/x/term"
)

// ApprovalDecision is the outcome of a shell approval prompt.
type ApprovalDecision struct {
	Approved bool
	Command  string // possibly modified, when Approved
}

// Approval reads a|r|m / a|r decisions from the controlling terminal via
// single raw keypresses, the way the teacher's getApprovalTTY does. When
// stdin is not a TTY it reads one line instead and uses its first
// character; no input at all counts as a reject.
type Approval struct{}

func NewApproval() *Approval { return &Approval{} }

// ApproveShell presents command and reads a single a|r|m keypress. On m it
// switches to line-editing mode to collect the modified command: an empty
// modification re-prompts rather than silently approving the original. EOF
// or interrupt is treated as reject.
func (a *Approval) ApproveShell(command string) ApprovalDecision {
	fmt.Printf("\n> %s\n", command)
	for {
		fmt.Print("[a]pprove / [r]eject / [m]odify: ")
		key, err := readKey()
		fmt.Println(key)
		if err != nil {
			fmt.Println("Rejected.")
			return ApprovalDecision{Approved: false}
		}

		switch key {
		case "a":
			return ApprovalDecision{Approved: true, Command: command}
		case "r":
			fmt.Println("Command rejected.")
			return ApprovalDecision{Approved: false}
		case "m":
			modified, ok := readLine("Enter modified command: ")
			if !ok {
				fmt.Println("Rejected.")
				return ApprovalDecision{Approved: false}
			}
			if modified == "" {
				fmt.Println("No command entered. Please try again.")
				continue
			}
			return ApprovalDecision{Approved: true, Command: modified}
		default:
			fmt.Println("Invalid response. Please enter 'a', 'r', or 'm'.")
		}
	}
}

// ApproveTool presents an MCP tool call (server/tool, pretty-printed
// arguments, description) and reads a single a|r keypress.
func (a *Approval) ApproveTool(displayName, argsPretty, description string) bool {
	fmt.Printf("\n%s\n", displayName)
	if description != "" {
		fmt.Println(truncateDisplay(description, 200))
	}
	if argsPretty != "" {
		fmt.Println(argsPretty)
	}
	for {
		fmt.Print("[a]pprove / [r]eject: ")
		key, err := readKey()
		fmt.Println(key)
		if err != nil {
			fmt.Println("Rejected.")
			return false
		}
		switch key {
		case "a":
			return true
		case "r":
			fmt.Println("Tool call rejected.")
			return false
		default:
			fmt.Println("Invalid response. Please enter 'a' or 'r'.")
		}
	}
}

// RejectedShellResult is the tool-result body fed back to the model when
// the user rejects a shell command, per spec.md §4.4.
const RejectedShellResult = "Command rejected by user."

// RejectedToolResult is the tool-result body fed back to the model when
// the user rejects an MCP tool call.
const RejectedToolResult = "Tool call rejected by user."

// readKey reads one keypress from the controlling terminal in raw mode. If
// stdin is not a terminal (piped input, non-interactive run), it falls
// back to reading one line so scripted tests still work, returning only
// its first rune.
func readKey() (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		line, ok := readLine("")
		if !ok || line == "" {
			return "", fmt.Errorf("no input available")
		}
		return string([]rune(line)[0]), nil
	}

	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return "", err
	}
	defer term.Restore(fd, oldState)

	buf := make([]byte, 1)
	n, err := os.Stdin.Read(buf)
	if err != nil || n == 0 {
		return "", fmt.Errorf("read interrupted")
	}
	if buf[0] == 3 { // Ctrl-C
		return "", fmt.Errorf("interrupted")
	}
	return string(buf[0] | 0x20), nil // lowercase
}

var stdinReader = bufio.NewReader(os.Stdin)

func readLine(prompt string) (string, bool) {
	if prompt != "" {
		fmt.Print(prompt)
	}
	line, err := stdinReader.ReadString('\n')
	if err != nil {
		return "", false
	}
	return trimNewline(line), true
}

func trimNewline(s string) string {
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}
	return s
}

func truncateDisplay(s string, width int) string {
	if runewidth.StringWidth(s) <= width {
		return s
	}
	return runewidth.Truncate(s, width, "...")
}
