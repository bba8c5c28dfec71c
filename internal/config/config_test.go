package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadYAMLAppliesDefaults(t *testing.T) {
	path := writeFile(t, "oxygent.yaml", `
server:
  address: "127.0.0.1:9000"
storage:
  driver: MEMORY
executor:
  timeout_seconds: 3
runtime:
  data_dir: state
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Address != "127.0.0.1:9000" {
		t.Fatalf("unexpected address: %s", cfg.Server.Address)
	}
	if cfg.Server.MaxUploadMB != 32 || cfg.Server.MaxBodyKB != 1024 {
		t.Fatalf("unexpected body limits: %+v", cfg.Server)
	}
	if cfg.Storage.Driver != "memory" || cfg.Storage.IDStrategy != "sequence" {
		t.Fatalf("unexpected storage defaults: %+v", cfg.Storage)
	}
	if cfg.Events.Driver != "memory" || cfg.Events.Buffer != 256 {
		t.Fatalf("unexpected events defaults: %+v", cfg.Events)
	}
	if cfg.Executor.Timeout() != 3*time.Second {
		t.Fatalf("unexpected executor timeout: %v", cfg.Executor.Timeout())
	}
	want := filepath.Join(filepath.Dir(path), "state")
	if cfg.Runtime.DataDir != want {
		t.Fatalf("data dir not resolved relative to config: got %s want %s", cfg.Runtime.DataDir, want)
	}
	if !cfg.Metrics.IsEnabled() {
		t.Fatalf("metrics should default to enabled")
	}
}

func TestLoadJSON(t *testing.T) {
	path := writeFile(t, "oxygent.json", `{"storage":{"driver":"redis","id_strategy":"uuid","redis":{"address":"localhost:6379"}},"metrics":{"enabled":false}}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Storage.Driver != "redis" || cfg.Storage.IDStrategy != "uuid" {
		t.Fatalf("unexpected storage: %+v", cfg.Storage)
	}
	if cfg.Storage.Redis.Prefix != "oxygent" {
		t.Fatalf("unexpected redis prefix: %s", cfg.Storage.Redis.Prefix)
	}
	if cfg.Metrics.IsEnabled() {
		t.Fatalf("metrics should be disabled")
	}
}

func TestLoadRejectsInvalidDrivers(t *testing.T) {
	cases := map[string]string{
		"unknown storage": `{"storage":{"driver":"etcd"}}`,
		"mysql no dsn":    `{"storage":{"driver":"mysql"}}`,
		"bad id strategy": `{"storage":{"id_strategy":"random"}}`,
		"unknown events":  `{"events":{"driver":"kafka"}}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Load(writeFile(t, "cfg.json", body)); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestLoadEmptyPath(t *testing.T) {
	if _, err := Load(" "); err == nil {
		t.Fatalf("expected error for empty path")
	}
}
