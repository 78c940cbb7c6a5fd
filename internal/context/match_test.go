package context

import "testing"

func TestMatchesCommandPatternExact(t *testing.T) {
	if !matchesCommandPattern("ls -la", "ls -la") {
		t.Fatalf("expected exact match")
	}
}

func TestMatchesCommandPatternWithPrompt(t *testing.T) {
	if !matchesCommandPattern("user@host:~$ ls -la", "ls -la") {
		t.Fatalf("expected prompt-prefixed match")
	}
}

func TestMatchesCommandPatternQuoted(t *testing.T) {
	if !matchesCommandPattern(`$ "ls -la"`, "ls -la") {
		t.Fatalf("expected quoted match")
	}
}

func TestMatchesCommandPatternExcludesLogMarker(t *testing.T) {
	if matchesCommandPattern("[INFO] ls -la", "ls -la") {
		t.Fatalf("expected log-marker line to be excluded")
	}
}

func TestMatchesCommandPatternExcludesInternalNoise(t *testing.T) {
	if matchesCommandPattern("Found matching command at line 5: ls -la", "ls -la") {
		t.Fatalf("expected internal status line to be excluded")
	}
}

func TestMatchesCommandPatternRejectsUnrelated(t *testing.T) {
	if matchesCommandPattern("total 42", "ls -la") {
		t.Fatalf("expected output line not to match")
	}
}

func TestMatchesCommandPatternQuotedArgument(t *testing.T) {
	if !matchesCommandPattern(`whai -v "DEBUG"`, "whai -v DEBUG") {
		t.Fatalf("expected a quoted argument in the line to be normalized away")
	}
}
