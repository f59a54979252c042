package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func runCLI(t *testing.T, args []string, configPath string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	if configPath != "" {
		args = append([]string{"--config", configPath}, args...)
	}
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

// writeTestConfig writes a minimal valid configuration using Plex as the
// primary source so no token file is needed.
func writeTestConfig(t *testing.T, plexURL, tmdbURL string) string {
	t.Helper()
	base := t.TempDir()
	configPath := filepath.Join(base, "config.toml")
	content := fmt.Sprintf(`[paths]
output_dir = %q
data_dir = %q
log_dir = %q
api_bind = "127.0.0.1:0"

[sources]
primary = "plex"

[plex]
url = %q
token = "plex-token"

[tmdb]
api_key = "tmdb-key"
base_url = %q
`,
		filepath.Join(base, "output"),
		filepath.Join(base, "data"),
		filepath.Join(base, "logs"),
		plexURL,
		tmdbURL,
	)
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write test config: %v", err)
	}
	return configPath
}

func requireContains(t *testing.T, output, want string) {
	t.Helper()
	if !strings.Contains(output, want) {
		t.Fatalf("expected output to contain %q, got:\n%s", want, output)
	}
}
