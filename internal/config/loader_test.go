package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Ad4m2017/agent-cli-sub000/internal/errs"
)

func TestLoadRuntimeConfig_MissingPathReturnsDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := LoadRuntimeConfig(filepath.Join(dir, "does-not-exist.json"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.DefaultProvider != "openai" {
		t.Fatalf("expected default provider openai, got %q", cfg.DefaultProvider)
	}
	if cfg.MaxToolTurns != DefaultMaxToolTurns {
		t.Fatalf("expected default max tool turns, got %d", cfg.MaxToolTurns)
	}
}

func TestLoadRuntimeConfig_EmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := LoadRuntimeConfig("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Profile != ProfileSafe {
		t.Fatalf("expected safe profile, got %q", cfg.Profile)
	}
}

func TestLoadRuntimeConfig_MissingParentDirFails(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nope", "config.json")
	_, err := LoadRuntimeConfig(path)
	if err == nil {
		t.Fatal("expected error for missing parent directory")
	}
	if errs.CodeOf(err, "") != errs.CodeConfigError {
		t.Fatalf("expected CodeConfigError, got %v", err)
	}
}

func TestLoadRuntimeConfig_DirectoryPathFails(t *testing.T) {
	dir := t.TempDir()
	_, err := LoadRuntimeConfig(dir)
	if errs.CodeOf(err, "") != errs.CodeConfigError {
		t.Fatalf("expected CodeConfigError for directory path, got %v", err)
	}
}

func TestLoadRuntimeConfig_InvalidJSONFails(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	_, err := LoadRuntimeConfig(path)
	if errs.CodeOf(err, "") != errs.CodeConfigInvalid {
		t.Fatalf("expected CodeConfigInvalid, got %v", err)
	}
}

func TestLoadRuntimeConfig_MergesOverOnlySetFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	contents := `{"defaultModel":"gpt-4o","maxToolTurns":5,"security":{"modes":{"dev":{"allow":["go test"]}}}}`
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadRuntimeConfig(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.DefaultModel != "gpt-4o" {
		t.Fatalf("expected overridden model, got %q", cfg.DefaultModel)
	}
	if cfg.DefaultProvider != "openai" {
		t.Fatalf("expected default provider preserved, got %q", cfg.DefaultProvider)
	}
	if cfg.MaxToolTurns != 5 {
		t.Fatalf("expected maxToolTurns 5, got %d", cfg.MaxToolTurns)
	}
	if len(cfg.Security.Modes) != 1 {
		t.Fatalf("expected security.modes replaced wholesale, got %+v", cfg.Security.Modes)
	}
	if len(cfg.Security.DenyCritical) == 0 {
		t.Fatalf("expected denyCritical preserved from defaults")
	}
}

func TestResolveCommandTimeoutMs_ClampsAndDefaults(t *testing.T) {
	cases := []struct {
		in   int
		want int
	}{
		{0, DefaultCommandTimeoutMs},
		{-5, DefaultCommandTimeoutMs},
		{1, 100},
		{700000, 600000},
		{5000, 5000},
	}
	for _, c := range cases {
		if got := ResolveCommandTimeoutMs(c.in); got != c.want {
			t.Errorf("ResolveCommandTimeoutMs(%d) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestResolveMaxToolTurns_ClampsAndDefaults(t *testing.T) {
	cases := []struct {
		in   int
		want int
	}{
		{0, DefaultMaxToolTurns},
		{-1, DefaultMaxToolTurns},
		{1, 1},
		{500, 200},
		{50, 50},
	}
	for _, c := range cases {
		if got := ResolveMaxToolTurns(c.in); got != c.want {
			t.Errorf("ResolveMaxToolTurns(%d) = %d, want %d", c.in, got, c.want)
		}
	}
}
