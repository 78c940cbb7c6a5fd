package resolve

import (
	"testing"

	"github.com/samsaffron/whai/internal/config"
	"github.com/samsaffron/whai/internal/role"
)

func TestModelPrecedenceFlagWins(t *testing.T) {
	r := &role.Role{Model: "role-model"}
	got := Model("flag-model", r, config.ProviderConfig{DefaultModel: "provider-model"})
	if got != "flag-model" {
		t.Fatalf("expected flag-model, got %s", got)
	}
}

func TestModelPrecedenceFallsBackToRole(t *testing.T) {
	r := &role.Role{Model: "role-model"}
	got := Model("", r, config.ProviderConfig{DefaultModel: "provider-model"})
	if got != "role-model" {
		t.Fatalf("expected role-model, got %s", got)
	}
}

func TestModelPrecedenceFallsBackToProvider(t *testing.T) {
	got := Model("", nil, config.ProviderConfig{DefaultModel: "provider-model"})
	if got != "provider-model" {
		t.Fatalf("expected provider-model, got %s", got)
	}
}

func TestModelPrecedenceFallsBackToDefault(t *testing.T) {
	got := Model("", nil, config.ProviderConfig{})
	if got != DefaultModel {
		t.Fatalf("expected %s, got %s", DefaultModel, got)
	}
}

func TestTemperaturePrecedenceFlagWins(t *testing.T) {
	r := &role.Role{}
	roleTemp := float32(0.3)
	r.Temperature = &roleTemp

	got := Temperature(true, 1.5, r)
	if got == nil || *got != 1.5 {
		t.Fatalf("expected flag temperature 1.5, got %v", got)
	}
}

func TestTemperaturePrecedenceFallsBackToRole(t *testing.T) {
	roleTemp := float32(0.3)
	r := &role.Role{Temperature: &roleTemp}

	got := Temperature(false, 0, r)
	if got == nil || *got != 0.3 {
		t.Fatalf("expected role temperature 0.3, got %v", got)
	}
}

func TestTemperaturePrecedenceOmittedWhenUnset(t *testing.T) {
	got := Temperature(false, 0, nil)
	if got != nil {
		t.Fatalf("expected nil temperature, got %v", *got)
	}
}

func TestInvocationToExcludeJoinsArgs(t *testing.T) {
	got := InvocationToExclude([]string{"/usr/local/bin/whai", "-v", "DEBUG"})
	if got != "whai -v DEBUG" {
		t.Fatalf("expected %q, got %q", "whai -v DEBUG", got)
	}
}

func TestInvocationToExcludeEmptyWithNoArgs(t *testing.T) {
	got := InvocationToExclude([]string{"/usr/local/bin/whai"})
	if got != "" {
		t.Fatalf("expected empty string with no args, got %q", got)
	}
}

func TestInvocationToExcludeHandlesAlias(t *testing.T) {
	got := InvocationToExclude([]string{"my-whai-alias", "echo", "test"})
	if got != "whai echo test" {
		t.Fatalf("expected %q, got %q", "whai echo test", got)
	}
}
