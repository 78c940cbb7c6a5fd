// Package session resolves and writes the assistant self-log that
// accompanies a `whai shell` recording session, and locates the sibling
// transcript file for the context capture pipeline to read. `whai shell`
// itself — the process that records the outer transcript — is an external
// collaborator per spec.md; this package only consumes its output and
// produces the self-log the driver writes alongside it.
package session

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/samsaffron/whai/internal/config"
)

// selfLogSeparator must match internal/context's SessionSource parsing.
const selfLogSeparator = "\n---whai-turn---\n"

// ActiveTranscriptPath reads WHAI_SESSION_ACTIVE, which `whai shell` sets to
// the path of the transcript it is recording. An empty or unset value means
// no recording session is active.
func ActiveTranscriptPath() (path string, active bool) {
	path = os.Getenv("WHAI_SESSION_ACTIVE")
	return path, path != ""
}

// SelfLogPathFor derives the self-log sibling of a transcript path, per
// spec.md §6's naming: session_<ts>.log alongside session_<ts>_whai.log.
func SelfLogPathFor(transcriptPath string) string {
	dir := filepath.Dir(transcriptPath)
	base := filepath.Base(transcriptPath)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	return filepath.Join(dir, stem+"_whai"+ext)
}

// NewTranscriptPath builds a fresh sessions/session_<ts>.log path under the
// config directory, for callers (tests, or a future `whai shell`) that need
// to mint one. ts should be a caller-supplied timestamp string so tests
// stay deterministic; production callers pass time.Now().Format(...).
func NewTranscriptPath(ts string) (string, error) {
	cfgDir, err := config.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cfgDir, "sessions", fmt.Sprintf("session_%s.log", ts)), nil
}

// Logger appends one turn segment at a time to the self-log file. It is
// the single writer spec.md §5 requires: only the driver calls Append.
type Logger struct {
	path string
}

// NewLogger returns a Logger for path, creating its parent directory on
// first Append if needed.
func NewLogger(path string) *Logger {
	return &Logger{path: path}
}

// Append writes one turn's segment (already formatted by the caller — e.g.
// a command marker plus the assistant's printed response) to the self-log,
// delimited the way SessionSource expects to split it back apart.
func (l *Logger) Append(segment string) error {
	if l.path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("create self-log directory: %w", err)
	}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open self-log: %w", err)
	}
	defer f.Close()

	existing, err := f.Stat()
	if err == nil && existing.Size() > 0 {
		if _, err := f.WriteString(selfLogSeparator); err != nil {
			return err
		}
	}
	_, err = f.WriteString(segment)
	return err
}

// FormatTurn renders one self-log segment: the invoking whai command line
// (so SessionSource's merge step can find where to splice it) followed by
// the assistant's printed text.
func FormatTurn(invokedAs, assistantText string) string {
	return fmt.Sprintf("$ %s\n%s", invokedAs, strings.TrimRight(assistantText, "\n"))
}

// NewSessionTimestamp returns a short unique token suitable for a session
// filename when no wall-clock timestamp is available to the caller (tests,
// or callers that prefer an opaque id over a time-derived one).
func NewSessionTimestamp() string {
	return uuid.NewString()[:8]
}
