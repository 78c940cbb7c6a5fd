// Package context captures a snapshot of the user's recent terminal
// activity — a tmux pane, a recorded shell session, or plain shell
// history — for inclusion in the prompt sent to the model.
package context

import "context"

// Result is the outcome of a capture: the text blob plus whether it carries
// command output (deep) or just command lines (shallow).
type Result struct {
	Text   string
	IsDeep bool
}

// Source produces a context snapshot, excluding the last occurrence of
// excludeCommand (and everything after it) when excludeCommand is non-empty.
// An empty Result with no error means "nothing available from this source".
type Source interface {
	Capture(ctx context.Context, excludeCommand string) (Result, error)
}

// Get runs sources in the spec's precedence order — session transcript,
// tmux, shell history — and returns the first non-empty result. Sources
// that fail or find nothing are skipped silently; only the last error is
// surfaced, and only if every source came back empty.
func Get(ctx context.Context, excludeCommand string, sources ...Source) (Result, error) {
	var lastErr error
	for _, src := range sources {
		res, err := src.Capture(ctx, excludeCommand)
		if err != nil {
			lastErr = err
			continue
		}
		if res.Text != "" {
			return res, nil
		}
	}
	return Result{}, lastErr
}

// DefaultSources returns the three sources in their spec-mandated precedence:
// session transcript (only when WHAI_SESSION_ACTIVE signals a recording
// whai shell session), tmux pane capture, then shell history.
func DefaultSources(sessionActive bool, transcriptPath, selfLogPath string) []Source {
	sources := make([]Source, 0, 3)
	if sessionActive {
		sources = append(sources, &SessionSource{TranscriptPath: transcriptPath, SelfLogPath: selfLogPath})
	}
	sources = append(sources, &TmuxSource{})
	sources = append(sources, &HistorySource{MaxCommands: 50})
	return sources
}
