package context

import (
	"strings"
)

// metadataIndicators are substrings that mark a line as part of the
// asterisk-delimited header PowerShell's Start-Transcript writes. We match
// on content rather than counting `*` rows because the exact banner differs
// between Windows PowerShell 5.1 and PowerShell 7.
var metadataIndicators = []string{
	"PowerShell transcript start",
	"Start time:",
	"Username:",
	"RunAs User:",
	"Configuration Name:",
	"Machine:",
	"Host Application:",
	"Process ID:",
	"PSVersion:",
	"PSEdition:",
	"PSCompatibleVersions:",
	"BuildVersion:",
	"CLRVersion:",
	"WSManStackVersion:",
	"PSRemotingProtocolVersion:",
	"SerializationVersion:",
	"OS:",
}

var endIndicators = []string{
	"PowerShell transcript end",
	"End time:",
}

const commandTimestampPrefix = "Command start time:"

// normalizePowerShellTranscript compacts a raw PowerShell transcript: the
// verbose start-of-session metadata block is collapsed into a short header,
// the end-of-session metadata block is dropped, `>> ` continuation prompts
// are stripped, and `Command start time:` markers become inline timestamps.
func normalizePowerShellTranscript(text string) string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))

	state := stateNormal
	header := map[string]string{}
	var headerOrder []string

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)

		switch state {
		case stateNormal:
			if isAsteriskRule(trimmed) {
				continue
			}
			if containsAny(trimmed, metadataIndicators) {
				state = stateHeader
				recordHeaderLine(trimmed, header, &headerOrder)
				continue
			}
			if containsAny(trimmed, endIndicators) {
				state = stateFooter
				continue
			}
			if strings.HasPrefix(line, ">> ") {
				continue
			}
			if strings.HasPrefix(trimmed, commandTimestampPrefix) {
				ts := strings.TrimSpace(strings.TrimPrefix(trimmed, commandTimestampPrefix))
				out = append(out, "[Command timestamp: "+ts+"]")
				continue
			}
			out = append(out, line)

		case stateHeader:
			if isAsteriskRule(trimmed) {
				out = append(out, renderHeader(headerOrder, header)...)
				state = stateNormal
				continue
			}
			if trimmed == "" {
				continue
			}
			recordHeaderLine(trimmed, header, &headerOrder)

		case stateFooter:
			if isAsteriskRule(trimmed) {
				state = stateNormal
			}
			continue
		}
	}

	if state == stateHeader {
		out = append(out, renderHeader(headerOrder, header)...)
	}

	return strings.Join(out, "\n")
}

type psState int

const (
	stateNormal psState = iota
	stateHeader
	stateFooter
)

func isAsteriskRule(trimmed string) bool {
	if trimmed == "" {
		return false
	}
	for _, r := range trimmed {
		if r != '*' {
			return false
		}
	}
	return true
}

func containsAny(s string, candidates []string) bool {
	for _, c := range candidates {
		if strings.Contains(s, c) {
			return true
		}
	}
	return false
}

func recordHeaderLine(line string, header map[string]string, order *[]string) {
	key, val, ok := strings.Cut(line, ":")
	if !ok {
		return
	}
	key = strings.TrimSpace(key)
	val = strings.TrimSpace(val)
	if _, exists := header[key]; !exists {
		*order = append(*order, key)
	}
	header[key] = val
}

func renderHeader(order []string, header map[string]string) []string {
	if len(order) == 0 {
		return nil
	}
	lines := make([]string, 0, len(order)+2)
	lines = append(lines, "--- PowerShell Session ---")
	for _, k := range order {
		lines = append(lines, k+": "+header[k])
	}
	lines = append(lines, "---")
	return lines
}
