package config

import (
	"strings"
	"testing"
)

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantField string
	}{
		{"negative workers", func(c *Config) { c.Orchestrator.Workers = -1 }, "orchestrator.workers"},
		{"negative timeout", func(c *Config) { c.Orchestrator.TimeoutSeconds = -5 }, "orchestrator.timeout_seconds"},
		{"unknown analyzer", func(c *Config) { c.Orchestrator.Analyzers = []string{"occlusion"} }, "orchestrator.analyzers[0]"},
		{"zero min_count", func(c *Config) { c.Analyzers.Instance.MinCount = 0 }, "analyzers.instance.min_count"},
		{"mesh min_count", func(c *Config) { c.Analyzers.Mesh.MinCount = 0 }, "analyzers.mesh.min_count"},
		{"fragmentation over one", func(c *Config) { c.Analyzers.Mesh.FragmentationThreshold = 1.5 }, "analyzers.mesh.fragmentation_threshold"},
		{"texture max size", func(c *Config) { c.Analyzers.Texture.MaxSize = 0 }, "analyzers.texture.max_size"},
		{"max features too large", func(c *Config) { c.Analyzers.Shader.MaxFeatures = 21 }, "analyzers.shader.max_features"},
		{"negative runtime threshold", func(c *Config) { c.Analyzers.Shader.RuntimeThreshold = -0.1 }, "analyzers.shader.runtime_threshold"},
		{"cost function", func(c *Config) { c.Analyzers.Shader.CostFunction = "random" }, "analyzers.shader.cost_function"},
		{"report format", func(c *Config) { c.Report.Format = "xml" }, "report.format"},
		{"log level", func(c *Config) { c.Logging.Level = "trace" }, "logging.level"},
		{"log format", func(c *Config) { c.Logging.Format = "pretty" }, "logging.format"},
		{
			"nothing enabled",
			func(c *Config) {
				c.Analyzers.Material.Enabled = false
				c.Analyzers.Mesh.Enabled = false
				c.Analyzers.Instance.Enabled = false
				c.Analyzers.Texture.Enabled = false
				c.Analyzers.Shader.Enabled = false
			},
			"analyzers",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			errs, ok := err.(ValidationErrors)
			if !ok {
				t.Fatalf("expected ValidationErrors, got %T", err)
			}
			found := false
			for _, e := range errs {
				if e.Field == tt.wantField {
					found = true
				}
			}
			if !found {
				t.Errorf("expected error on field %q, got: %v", tt.wantField, err)
			}
		})
	}
}

func TestValidate_StoreOnlyWhenEnabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Store.Host = ""
	if err := cfg.Validate(); err != nil {
		t.Errorf("disabled store should not be validated, got: %v", err)
	}

	cfg.Store.Enabled = true
	cfg.Store.Table = "runs; DROP TABLE x"
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected store validation errors")
	}
	msg := err.Error()
	for _, field := range []string{"store.host", "store.user", "store.database", "store.table"} {
		if !strings.Contains(msg, field) {
			t.Errorf("expected %s in error message, got: %s", field, msg)
		}
	}
}

func TestValidationErrors_Error(t *testing.T) {
	var empty ValidationErrors
	if empty.Error() != "" {
		t.Errorf("expected empty message, got %q", empty.Error())
	}

	errs := ValidationErrors{
		{Field: "a", Message: "first"},
		{Field: "b", Message: "second"},
	}
	msg := errs.Error()
	if !strings.HasPrefix(msg, "validation failed:") {
		t.Errorf("unexpected prefix: %s", msg)
	}
	if !strings.Contains(msg, "a: first") || !strings.Contains(msg, "b: second") {
		t.Errorf("missing entries: %s", msg)
	}
}

func TestValidate_MaxFeaturesAtLimit(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Analyzers.Shader.MaxFeatures = 20
	if err := cfg.Validate(); err != nil {
		t.Errorf("max_features 20 should be valid, got: %v", err)
	}
}
