package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"reelsync/internal/config"
)

func TestLoadDefaultConfigUsesEnvTMDBKeyAndExpandsPaths(t *testing.T) {
	t.Setenv("TMDB_API_KEY", "test-key")
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	configPath := filepath.Join(tempHome, "config.toml")
	content := "[simkl]\nclient_id = \"abc\"\n"
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: %q", resolved)
	}
	if !exists {
		t.Fatal("expected config file to exist")
	}

	wantOutput := filepath.Join(tempHome, ".local", "share", "reelsync", "output")
	if cfg.Paths.OutputDir != wantOutput {
		t.Fatalf("unexpected output dir: got %q want %q", cfg.Paths.OutputDir, wantOutput)
	}
	if cfg.Paths.APIBind != "127.0.0.1:19876" {
		t.Fatalf("unexpected api bind: %q", cfg.Paths.APIBind)
	}
	if cfg.TMDB.APIKey != "test-key" {
		t.Fatalf("expected TMDB key from env, got %q", cfg.TMDB.APIKey)
	}
	if cfg.Sources.Primary != "simkl" {
		t.Fatalf("expected simkl default source, got %q", cfg.Sources.Primary)
	}
	if cfg.Sync.IntervalMinutes != 15 {
		t.Fatalf("unexpected sync interval: %d", cfg.Sync.IntervalMinutes)
	}
}

func TestLoadRejectsUnknownSource(t *testing.T) {
	t.Setenv("TMDB_API_KEY", "test-key")
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.toml")
	content := "[sources]\nprimary = \"trakt\"\n"
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, _, _, err := config.Load(configPath); err == nil {
		t.Fatal("expected error for unknown source")
	}
}

func TestLoadRequiresTMDBKey(t *testing.T) {
	t.Setenv("TMDB_API_KEY", "")
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.toml")
	content := "[simkl]\nclient_id = \"abc\"\n"
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, _, _, err := config.Load(configPath); err == nil {
		t.Fatal("expected error when TMDB key missing")
	}
}

func TestLoadRequiresSourceCredentials(t *testing.T) {
	t.Setenv("TMDB_API_KEY", "test-key")
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.toml")
	content := "[sources]\nprimary = \"plex\"\n"
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, _, _, err := config.Load(configPath); err == nil {
		t.Fatal("expected error when plex token missing")
	}
}

func TestCreateSampleRefusesOverwrite(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "config.toml")

	if err := config.CreateSample(target); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}
	if err := config.CreateSample(target); err == nil {
		t.Fatal("expected error when sample already exists")
	}

	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("expected sample content")
	}
}
