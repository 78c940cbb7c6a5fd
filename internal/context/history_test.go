package context

import "testing"

func TestParseZshHistoryStripsTimestamps(t *testing.T) {
	data := ": 1700000000:0;ls -la\n: 1700000001:0;git status\nplain command\n"
	got := parseZshHistory(data)
	want := []string{"ls -la", "git status", "plain command"}
	assertStringSlice(t, got, want)
}

func TestParseBashHistorySkipsBlankLines(t *testing.T) {
	data := "ls -la\n\ngit status\n"
	got := parseBashHistory(data)
	want := []string{"ls -la", "git status"}
	assertStringSlice(t, got, want)
}

func TestTailReturnsLastN(t *testing.T) {
	got := tail([]string{"a", "b", "c", "d"}, 2)
	want := []string{"c", "d"}
	assertStringSlice(t, got, want)
}

func TestNormalizeWindowsPathCollapsesDoubleBackslashes(t *testing.T) {
	got := normalizeWindowsPath(`C:\\Users\\\\me\\AppData`)
	want := `C:\Users\me\AppData`
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func assertStringSlice(t *testing.T, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %v want %v", got, want)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Fatalf("got %v want %v", got, want)
		}
	}
}
