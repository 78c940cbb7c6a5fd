package role

import (
	"testing"

	"github.com/samsaffron/whai/internal/config"
)

func TestParseSerializeRoundTrip(t *testing.T) {
	temp := float32(0.7)
	r := &Role{
		Name:        "devops",
		Model:       "gpt-5-mini",
		Temperature: &temp,
		Body:        "You are a helpful terminal assistant with the 'devops' specialization.",
	}

	content, err := Serialize(r)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}

	got, err := Parse(r.Name, content)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if got.Name != r.Name || got.Model != r.Model || got.Body != r.Body {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, r)
	}
	if got.Temperature == nil || *got.Temperature != *r.Temperature {
		t.Fatalf("round trip temperature mismatch: got %v, want %v", got.Temperature, r.Temperature)
	}
}

func TestParseSerializeRoundTripNoFrontmatter(t *testing.T) {
	r := &Role{Name: "plain", Body: "Just a body, no model or temperature override."}

	content, err := Serialize(r)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}

	got, err := Parse(r.Name, content)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got.Model != "" || got.Temperature != nil {
		t.Fatalf("expected no frontmatter fields, got model=%q temperature=%v", got.Model, got.Temperature)
	}
	if got.Body != r.Body {
		t.Fatalf("expected body %q, got %q", r.Body, got.Body)
	}
}

func TestParseTemperatureOutOfRange(t *testing.T) {
	for _, content := range []string{
		"---\ntemperature: 3.0\n---\nbody\n",
		"---\ntemperature: -1\n---\nbody\n",
	} {
		if _, err := Parse("bad", content); err == nil {
			t.Fatalf("expected an error for out-of-range temperature in %q", content)
		}
	}
}

func TestParseTemperatureAtBounds(t *testing.T) {
	for _, content := range []string{
		"---\ntemperature: 0\n---\nbody\n",
		"---\ntemperature: 2\n---\nbody\n",
	} {
		if _, err := Parse("ok", content); err != nil {
			t.Fatalf("expected %q to parse, got error: %v", content, err)
		}
	}
}

func TestResolveFlagWins(t *testing.T) {
	cfg := &config.Config{DefaultRole: "debug"}
	t.Setenv("WHAI_ROLE", "default")

	got := Resolve("custom", cfg)
	if got != "custom" {
		t.Fatalf("expected custom, got %s", got)
	}
}

func TestResolveEnvWinsOverConfig(t *testing.T) {
	cfg := &config.Config{DefaultRole: "default"}
	t.Setenv("WHAI_ROLE", "debug")

	got := Resolve("", cfg)
	if got != "debug" {
		t.Fatalf("expected debug, got %s", got)
	}
}

func TestResolveEmptyEnvDoesNotOverrideConfig(t *testing.T) {
	cfg := &config.Config{DefaultRole: "debug"}
	t.Setenv("WHAI_ROLE", "")

	got := Resolve("", cfg)
	if got != "debug" {
		t.Fatalf("expected debug, got %s", got)
	}
}

func TestResolveConfigWinsOverDefault(t *testing.T) {
	cfg := &config.Config{DefaultRole: "debug"}
	t.Setenv("WHAI_ROLE", "")

	got := Resolve("", cfg)
	if got != "debug" {
		t.Fatalf("expected debug, got %s", got)
	}
}

func TestResolveFallsBackToDefault(t *testing.T) {
	t.Setenv("WHAI_ROLE", "")

	got := Resolve("", &config.Config{})
	if got != "default" {
		t.Fatalf("expected default, got %s", got)
	}
}

func TestResolveNilConfigFallsBackToDefault(t *testing.T) {
	t.Setenv("WHAI_ROLE", "")

	got := Resolve("", nil)
	if got != "default" {
		t.Fatalf("expected default, got %s", got)
	}
}
