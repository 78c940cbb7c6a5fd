// Package truncate reduces a text blob to an approximate token budget while
// preserving its tail, the part of a terminal transcript most likely to be
// relevant to the question just asked.
package truncate

import "fmt"

// charsPerToken is the heuristic used when no tokenizer is wired in: roughly
// four characters per token for English prose and shell output alike.
const charsPerToken = 4

// noticeTemplate mirrors the exact wording the model is trained to expect
// when it sees truncated context or tool output.
const noticeTemplate = "%d CHARACTERS REMOVED TO RESPECT TOKEN LIMITS\n\n"

// EstimateTokens approximates the token count of s.
func EstimateTokens(s string) int {
	if len(s) == 0 {
		return 0
	}
	n := len(s) / charsPerToken
	if n == 0 {
		n = 1
	}
	return n
}

// Truncate returns text unchanged (wasTruncated=false) if it already fits
// within maxTokens. Otherwise it returns a notice followed by the tail of
// text that fits in the remaining budget, or "" (wasTruncated=true) when
// the notice alone would use up the whole budget.
func Truncate(text string, maxTokens int) (result string, wasTruncated bool) {
	if EstimateTokens(text) <= maxTokens {
		return text, false
	}

	removed := len(text) // placeholder; corrected below once we know the kept length
	notice := fmt.Sprintf(noticeTemplate, removed)
	noticeTokens := EstimateTokens(notice)

	if noticeTokens >= maxTokens {
		return "", true
	}

	keepChars := (maxTokens - noticeTokens) * charsPerToken
	if keepChars <= 0 {
		return "", true
	}
	if keepChars >= len(text) {
		keepChars = len(text)
	}

	tail := tailRunes(text, keepChars)
	removedChars := len(text) - len(tail)
	notice = fmt.Sprintf(noticeTemplate, removedChars)

	return notice + tail, true
}

// tailRunes returns the suffix of s whose byte length is at most maxBytes,
// cut on a rune boundary so multi-byte UTF-8 sequences are never split.
func tailRunes(s string, maxBytes int) string {
	if len(s) <= maxBytes {
		return s
	}
	cut := len(s) - maxBytes
	for cut < len(s) && !isRuneStart(s[cut]) {
		cut++
	}
	return s[cut:]
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
