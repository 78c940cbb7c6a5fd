package context

import (
	"context"
	"os"
	"regexp"
	"runtime"
	"strings"
)

// SessionSource merges a recorded shell-session transcript with whai's own
// self-log, so a question asked partway through a long recorded session sees
// both the surrounding shell activity and whai's own prior turns in order.
//
// It only applies when a `whai shell` recording session is active (signalled
// by WHAI_SESSION_ACTIVE) and a transcript path is configured; otherwise
// Capture returns an empty Result so the caller falls through to the next
// source. The self-log is optional: without it the transcript is used alone.
type SessionSource struct {
	// TranscriptPath is the outer shell transcript being recorded, produced
	// by `script`/Start-Transcript or equivalent.
	TranscriptPath string
	// SelfLogPath is whai's own append-only log of question/answer turns
	// taken during the recorded session.
	SelfLogPath string
}

var whaiInvocationRe = regexp.MustCompile(`(?m)^.*\bwhai\b.*$`)

// Capture normalizes the outer transcript, splits whai's self-log into
// per-invocation segments, and splices each segment in immediately after the
// transcript line that invoked it — so the merged text reads as a single
// chronological narrative instead of two interleaved files.
func (s *SessionSource) Capture(_ context.Context, excludeCommand string) (Result, error) {
	if s.TranscriptPath == "" {
		return Result{}, nil
	}

	rawTranscript, err := os.ReadFile(s.TranscriptPath)
	if err != nil {
		return Result{}, nil
	}

	transcript := string(rawTranscript)
	if runtime.GOOS == "windows" {
		transcript = normalizePowerShellTranscript(transcript)
	} else {
		transcript = normalizeUnixLog(transcript)
	}

	var selfSegments []string
	if s.SelfLogPath != "" {
		if raw, err := os.ReadFile(s.SelfLogPath); err == nil {
			selfSegments = splitSelfLog(string(raw))
		}
	}

	merged := mergeSessionLog(transcript, selfSegments, excludeCommand)
	merged = strings.TrimRight(merged, "\n")
	if merged == "" {
		return Result{}, nil
	}

	return Result{Text: merged, IsDeep: true}, nil
}

// selfLogSeparator delimits one whai turn from the next in the self-log file.
const selfLogSeparator = "\n---whai-turn---\n"

func splitSelfLog(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, selfLogSeparator)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// mergeSessionLog walks transcript line by line. Each line that looks like a
// whai invocation consumes the next unconsumed self-log segment and splices
// it in immediately afterward. The last line matching excludeCommand (the
// question currently being asked) and everything after it is dropped,
// mirroring the tmux source's own-question exclusion.
func mergeSessionLog(transcript string, selfSegments []string, excludeCommand string) string {
	lines := strings.Split(transcript, "\n")
	if excludeCommand != "" {
		for i := len(lines) - 1; i >= 0; i-- {
			if matchesCommandPattern(lines[i], excludeCommand) {
				lines = lines[:i]
				break
			}
		}
	}
	var out strings.Builder
	segIdx := 0

	for _, line := range lines {
		out.WriteString(line)
		out.WriteString("\n")

		if whaiInvocationRe.MatchString(line) && segIdx < len(selfSegments) {
			out.WriteString(selfSegments[segIdx])
			out.WriteString("\n")
			segIdx++
		}
	}

	for ; segIdx < len(selfSegments); segIdx++ {
		out.WriteString(selfSegments[segIdx])
		out.WriteString("\n")
	}

	return out.String()
}
