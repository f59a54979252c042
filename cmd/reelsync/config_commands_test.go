package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfigInitAndValidate(t *testing.T) {
	configPath := writeTestConfig(t, "http://plex.test:32400", "https://api.themoviedb.org/3")

	out, err := runCLI(t, []string{"config", "validate"}, configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")

	tmp := t.TempDir()
	target := filepath.Join(tmp, "config.toml")
	out, err = runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")

	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected init without --overwrite to fail on an existing file")
	}
}

func TestConfigShowMasksSecrets(t *testing.T) {
	configPath := writeTestConfig(t, "http://plex.test:32400", "https://api.themoviedb.org/3")

	out, err := runCLI(t, []string{"config", "show"}, configPath)
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, "primary = 'plex'")
	if maskSecret("plex-token") != "****oken" {
		t.Fatalf("unexpected mask: %q", maskSecret("plex-token"))
	}
	requireContains(t, out, "****oken")
}

func TestMaskSecret(t *testing.T) {
	if got := maskSecret(""); got != "" {
		t.Errorf("empty secret should stay empty, got %q", got)
	}
	if got := maskSecret("abc"); got != "****" {
		t.Errorf("short secret should be fully masked, got %q", got)
	}
	if got := maskSecret("supersecret"); got != "****cret" {
		t.Errorf("unexpected mask %q", got)
	}
}
