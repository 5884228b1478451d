package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
)

func TestLoad(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test.yaml")

	configContent := `
project:
  path: /srv/game

orchestrator:
  workers: 3
  timeout_seconds: 30
  analyzers: [shader, material]

analyzers:
  material:
    enabled: true
    min_count: 3
  instance:
    enabled: false
    min_count: 20
  mesh:
    enabled: true
    min_count: 4
    lod_face_threshold: 5000
  texture:
    max_size: 1024
  shader:
    max_features: 8
    derived_prefix: ENABLE_
    runtime_threshold: 0.2

report:
  output: report.yaml
  format: yaml

logging:
  level: debug
  format: json
  output: stdout
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Project.Path != "/srv/game" {
		t.Errorf("expected project path '/srv/game', got %s", cfg.Project.Path)
	}
	if cfg.Orchestrator.Workers != 3 {
		t.Errorf("expected workers 3, got %d", cfg.Orchestrator.Workers)
	}
	if cfg.Orchestrator.TimeoutSeconds != 30 {
		t.Errorf("expected timeout 30, got %v", cfg.Orchestrator.TimeoutSeconds)
	}
	if len(cfg.Orchestrator.Analyzers) != 2 || cfg.Orchestrator.Analyzers[0] != "shader" {
		t.Errorf("expected analyzers [shader material], got %v", cfg.Orchestrator.Analyzers)
	}

	if cfg.Analyzers.Material.MinCount != 3 {
		t.Errorf("expected material min_count 3, got %d", cfg.Analyzers.Material.MinCount)
	}
	if cfg.Analyzers.Instance.Enabled {
		t.Error("expected instance analyzer disabled")
	}
	if cfg.Analyzers.Mesh.MinCount != 4 {
		t.Errorf("expected mesh min_count 4 (squashed field), got %d", cfg.Analyzers.Mesh.MinCount)
	}
	if cfg.Analyzers.Mesh.LODFaceThreshold != 5000 {
		t.Errorf("expected lod_face_threshold 5000, got %d", cfg.Analyzers.Mesh.LODFaceThreshold)
	}
	// Unset fields keep their defaults
	if cfg.Analyzers.Mesh.FragmentationThreshold != 0.2 {
		t.Errorf("expected default fragmentation 0.2, got %v", cfg.Analyzers.Mesh.FragmentationThreshold)
	}
	if cfg.Analyzers.Texture.MaxSize != 1024 {
		t.Errorf("expected texture max_size 1024, got %d", cfg.Analyzers.Texture.MaxSize)
	}
	if cfg.Analyzers.Shader.MaxFeatures != 8 {
		t.Errorf("expected shader max_features 8, got %d", cfg.Analyzers.Shader.MaxFeatures)
	}
	if cfg.Analyzers.Shader.DerivedPrefix != "ENABLE_" {
		t.Errorf("expected derived prefix ENABLE_, got %s", cfg.Analyzers.Shader.DerivedPrefix)
	}

	if cfg.Report.Format != "yaml" {
		t.Errorf("expected report format yaml, got %s", cfg.Report.Format)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected logging level debug, got %s", cfg.Logging.Level)
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("expected error for nonexistent file")
	}
}

func TestLoadOrDefault(t *testing.T) {
	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("expected defaults for missing file, got error: %v", err)
	}
	if cfg.Analyzers.Instance.MinCount != 10 {
		t.Errorf("expected default config, got instance min_count %d", cfg.Analyzers.Instance.MinCount)
	}

	cfg, err = LoadOrDefault("")
	if err != nil || cfg == nil {
		t.Fatalf("expected defaults for empty path, got %v", err)
	}
}

func TestEnvVarSubstitution(t *testing.T) {
	os.Setenv("TEST_STORE_HOST", "db.internal")
	os.Setenv("TEST_STORE_PASS", "secret123")
	os.Setenv("TEST_PROJECT_ROOT", "/data/game")
	defer func() {
		os.Unsetenv("TEST_STORE_HOST")
		os.Unsetenv("TEST_STORE_PASS")
		os.Unsetenv("TEST_PROJECT_ROOT")
	}()

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test.yaml")

	configContent := `
project:
  path: ${TEST_PROJECT_ROOT}/assets
store:
  enabled: true
  host: ${TEST_STORE_HOST}
  user: profiler
  password: $TEST_STORE_PASS
  database: ${UNSET_VAR_FOR_TEST}
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Project.Path != "/data/game/assets" {
		t.Errorf("expected project path '/data/game/assets', got %s", cfg.Project.Path)
	}
	if cfg.Store.Host != "db.internal" {
		t.Errorf("expected store host 'db.internal', got %s", cfg.Store.Host)
	}
	if cfg.Store.Password != "secret123" {
		t.Errorf("expected store password 'secret123', got %s", cfg.Store.Password)
	}
	if cfg.Store.Database != "${UNSET_VAR_FOR_TEST}" {
		t.Errorf("expected unresolved variable to be kept, got %s", cfg.Store.Database)
	}
}

func TestLoadFromViper(t *testing.T) {
	v := viper.New()
	v.Set("orchestrator.workers", 7)
	v.Set("analyzers.shader.max_features", 10)

	cfg, err := LoadFromViper(v)
	if err != nil {
		t.Fatalf("LoadFromViper failed: %v", err)
	}
	if cfg.Orchestrator.Workers != 7 {
		t.Errorf("expected workers 7, got %d", cfg.Orchestrator.Workers)
	}
	if cfg.Analyzers.Shader.MaxFeatures != 10 {
		t.Errorf("expected max_features 10, got %d", cfg.Analyzers.Shader.MaxFeatures)
	}
	if cfg.Analyzers.Instance.MinCount != 10 {
		t.Errorf("expected default instance min_count 10, got %d", cfg.Analyzers.Instance.MinCount)
	}
}

func TestApplyOverrides(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ApplyOverrides("debug", "json", 6, 12.5, "yaml", "out.yaml")

	if cfg.Logging.Level != "debug" {
		t.Errorf("expected level debug, got %s", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("expected format json, got %s", cfg.Logging.Format)
	}
	if cfg.Orchestrator.Workers != 6 {
		t.Errorf("expected workers 6, got %d", cfg.Orchestrator.Workers)
	}
	if cfg.Orchestrator.TimeoutSeconds != 12.5 {
		t.Errorf("expected timeout 12.5, got %v", cfg.Orchestrator.TimeoutSeconds)
	}
	if cfg.Report.Format != "yaml" || cfg.Report.Output != "out.yaml" {
		t.Errorf("expected report yaml/out.yaml, got %s/%s", cfg.Report.Format, cfg.Report.Output)
	}

	// Zero values leave config untouched
	cfg.ApplyOverrides("", "", 0, 0, "", "")
	if cfg.Orchestrator.Workers != 6 {
		t.Errorf("zero override should not reset workers, got %d", cfg.Orchestrator.Workers)
	}
}
