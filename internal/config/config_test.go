package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestDefaults(t *testing.T) {
	cfg := Default()

	if cfg.Server.Port != 8767 {
		t.Errorf("default port = %d, want 8767", cfg.Server.Port)
	}
	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("default host = %q, want 127.0.0.1", cfg.Server.Host)
	}
	if cfg.Terminal.DefaultCols != 80 || cfg.Terminal.DefaultRows != 24 {
		t.Errorf("default size = %dx%d, want 80x24", cfg.Terminal.DefaultCols, cfg.Terminal.DefaultRows)
	}
	if cfg.Terminal.Term != "xterm-256color" {
		t.Errorf("default term = %q", cfg.Terminal.Term)
	}
	if cfg.Terminal.ExecTimeout != 30*time.Second {
		t.Errorf("default exec timeout = %v, want 30s", cfg.Terminal.ExecTimeout)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("Load of missing file succeeded")
	}
	if !os.IsNotExist(err) {
		t.Errorf("error is not a not-exist error: %v", err)
	}
}

func TestLoadPartialKeepsDefaults(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 9000\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("port = %d, want 9000", cfg.Server.Port)
	}
	if cfg.Terminal.DefaultCols != 80 {
		t.Errorf("default_cols = %d, want default 80", cfg.Terminal.DefaultCols)
	}
	if cfg.Terminal.ExecTimeout != 30*time.Second {
		t.Errorf("exec_timeout = %v, want default 30s", cfg.Terminal.ExecTimeout)
	}
}

func TestLoadFull(t *testing.T) {
	path := writeConfig(t, `
server:
  host: 0.0.0.0
  port: 8080
  auth_token: secret
  allowed_origins:
    - https://editor.example.com
terminal:
  shell: /bin/zsh
  term: xterm
  default_cols: 120
  default_rows: 40
  exec_timeout: 5s
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Host != "0.0.0.0" || cfg.Server.Port != 8080 {
		t.Errorf("server = %+v", cfg.Server)
	}
	if cfg.Server.AuthToken != "secret" {
		t.Errorf("auth_token = %q", cfg.Server.AuthToken)
	}
	if len(cfg.Server.AllowedOrigins) != 1 || cfg.Server.AllowedOrigins[0] != "https://editor.example.com" {
		t.Errorf("allowed_origins = %v", cfg.Server.AllowedOrigins)
	}
	if cfg.Terminal.Shell != "/bin/zsh" || cfg.Terminal.Term != "xterm" {
		t.Errorf("terminal = %+v", cfg.Terminal)
	}
	if cfg.Terminal.DefaultCols != 120 || cfg.Terminal.DefaultRows != 40 {
		t.Errorf("size = %dx%d", cfg.Terminal.DefaultCols, cfg.Terminal.DefaultRows)
	}
	if cfg.Terminal.ExecTimeout != 5*time.Second {
		t.Errorf("exec_timeout = %v", cfg.Terminal.ExecTimeout)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := writeConfig(t, "server: [not a mapping")

	if _, err := Load(path); err == nil {
		t.Fatal("Load of invalid yaml succeeded")
	}
}
