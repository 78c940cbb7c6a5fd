// Package prompt assembles the system prompt (OS/shell/cwd facts plus a
// context-depth note) and the user message that carries captured terminal
// context, per spec.md §4 Prompt Builder.
package prompt

import (
	"fmt"
	"os"
	"runtime"
	"strings"

	whaicontext "github.com/samsaffron/whai/internal/context"
	"github.com/samsaffron/whai/internal/llm"
	"github.com/samsaffron/whai/internal/role"
)

const deepContextNote = "You will be given the recent terminal scrollback (commands and their output) along with the user message."

const shallowContextNote = "You will be given the recent command history of the user (commands only, not their outputs). This also means that after you finish your message, the user will not be able to show you further context from before this turn, so don't end with a question or suggestion that depends on context you haven't been given."

// BuildSystemPrompt assembles the base system prompt: a context-depth note,
// OS/shell/cwd facts, and the active role's body appended last so role
// instructions take precedence in the model's attention.
func BuildSystemPrompt(r *role.Role, isDeepContext bool) string {
	var b strings.Builder

	if isDeepContext {
		b.WriteString(deepContextNote)
	} else {
		b.WriteString(shallowContextNote)
	}

	b.WriteString(" System: ")
	b.WriteString(strings.Join(systemFacts(), " | "))

	if r != nil && r.Body != "" {
		b.WriteString("\n\n")
		b.WriteString(r.Body)
	}

	return b.String()
}

func systemFacts() []string {
	facts := []string{fmt.Sprintf("OS: %s", runtime.GOOS)}

	shellName := whaicontext.ShellName()
	if shellName != "" {
		facts = append(facts, fmt.Sprintf("Shell: %s", shellName))
	}

	if cwd, err := os.Getwd(); err == nil {
		facts = append(facts, fmt.Sprintf("CWD: %s", cwd))
	}

	return facts
}

// BuildUserMessage combines the captured terminal context (if any) with the
// user's free-form query into the single user-role message sent on the
// first turn.
func BuildUserMessage(query, capturedContext string) llm.Message {
	if capturedContext == "" {
		return llm.UserText(query)
	}
	return llm.UserText(fmt.Sprintf("%s\n\n---\n\nUser question: %s", capturedContext, query))
}
