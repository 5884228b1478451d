package config

import (
	"fmt"
	"strings"

	"github.com/dbsmedya/assetprof/internal/shader"
	"github.com/dbsmedya/assetprof/internal/sqlutil"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
}

// maxShaderFeatures bounds max_features to what the enumerator accepts.
const maxShaderFeatures = shader.HardMaxFeatures

// Validate checks the configuration for required fields and valid values.
func (c *Config) Validate() error {
	var errors ValidationErrors

	if err := c.validateOrchestrator(); err != nil {
		errors = append(errors, err...)
	}

	if err := c.validateAnalyzers(); err != nil {
		errors = append(errors, err...)
	}

	if err := c.validateReport(); err != nil {
		errors = append(errors, err...)
	}

	if c.Store.Enabled {
		if err := c.validateStore(); err != nil {
			errors = append(errors, err...)
		}
	}

	if err := c.validateLogging(); err != nil {
		errors = append(errors, err...)
	}

	if len(errors) > 0 {
		return errors
	}
	return nil
}

func (c *Config) validateOrchestrator() ValidationErrors {
	var errors ValidationErrors

	if c.Orchestrator.Workers < 0 {
		errors = append(errors, ValidationError{
			Field:   "orchestrator.workers",
			Message: "workers cannot be negative",
		})
	}

	if c.Orchestrator.TimeoutSeconds < 0 {
		errors = append(errors, ValidationError{
			Field:   "orchestrator.timeout_seconds",
			Message: "timeout_seconds cannot be negative",
		})
	}

	known := make(map[string]bool, len(KnownAnalyzers))
	for _, name := range KnownAnalyzers {
		known[name] = true
	}
	for i, name := range c.Orchestrator.Analyzers {
		if !known[name] {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("orchestrator.analyzers[%d]", i),
				Message: fmt.Sprintf("unknown analyzer %q (must be one of %s)", name, strings.Join(KnownAnalyzers, ", ")),
			})
		}
	}

	if len(c.EnabledAnalyzers()) == 0 {
		errors = append(errors, ValidationError{
			Field:   "analyzers",
			Message: "at least one analyzer must be enabled",
		})
	}

	return errors
}

func (c *Config) validateAnalyzers() ValidationErrors {
	var errors ValidationErrors

	grouping := map[string]GroupingConfig{
		AnalyzerMaterial: c.Analyzers.Material,
		AnalyzerInstance: c.Analyzers.Instance,
		AnalyzerMesh:     c.Analyzers.Mesh.GroupingConfig,
		AnalyzerTexture:  c.Analyzers.Texture.GroupingConfig,
	}
	for _, name := range KnownAnalyzers {
		g, ok := grouping[name]
		if !ok {
			continue
		}
		if g.MinCount < 1 {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("analyzers.%s.min_count", name),
				Message: "min_count must be at least 1",
			})
		}
	}

	if c.Analyzers.Mesh.LODFaceThreshold <= 0 {
		errors = append(errors, ValidationError{
			Field:   "analyzers.mesh.lod_face_threshold",
			Message: "lod_face_threshold must be positive",
		})
	}
	if c.Analyzers.Mesh.FragmentationThreshold < 0 || c.Analyzers.Mesh.FragmentationThreshold > 1 {
		errors = append(errors, ValidationError{
			Field:   "analyzers.mesh.fragmentation_threshold",
			Message: "fragmentation_threshold must be between 0 and 1",
		})
	}

	if c.Analyzers.Texture.MaxSize <= 0 {
		errors = append(errors, ValidationError{
			Field:   "analyzers.texture.max_size",
			Message: "max_size must be positive",
		})
	}
	if c.Analyzers.Texture.UncompressedBytes < 0 {
		errors = append(errors, ValidationError{
			Field:   "analyzers.texture.uncompressed_bytes",
			Message: "uncompressed_bytes cannot be negative",
		})
	}

	sh := c.Analyzers.Shader
	if sh.MaxFeatures < 0 || sh.MaxFeatures > maxShaderFeatures {
		errors = append(errors, ValidationError{
			Field:   "analyzers.shader.max_features",
			Message: fmt.Sprintf("max_features must be between 0 and %d", maxShaderFeatures),
		})
	}
	if sh.RuntimeThreshold < 0 {
		errors = append(errors, ValidationError{
			Field:   "analyzers.shader.runtime_threshold",
			Message: "runtime_threshold cannot be negative",
		})
	}
	if sh.MaxUnionFeatures < 0 {
		errors = append(errors, ValidationError{
			Field:   "analyzers.shader.max_union_features",
			Message: "max_union_features cannot be negative",
		})
	}
	if sh.WorstCount < 0 {
		errors = append(errors, ValidationError{
			Field:   "analyzers.shader.worst_count",
			Message: "worst_count cannot be negative",
		})
	}

	validCost := map[string]bool{"default": true, "feature_count": true, "": true}
	if !validCost[sh.CostFunction] {
		errors = append(errors, ValidationError{
			Field:   "analyzers.shader.cost_function",
			Message: "cost_function must be 'default' or 'feature_count'",
		})
	}

	return errors
}

func (c *Config) validateReport() ValidationErrors {
	var errors ValidationErrors

	validFormats := map[string]bool{"json": true, "yaml": true, "": true}
	if !validFormats[c.Report.Format] {
		errors = append(errors, ValidationError{
			Field:   "report.format",
			Message: "format must be 'json' or 'yaml'",
		})
	}

	return errors
}

func (c *Config) validateStore() ValidationErrors {
	var errors ValidationErrors

	if c.Store.Host == "" {
		errors = append(errors, ValidationError{
			Field:   "store.host",
			Message: "host is required when store is enabled",
		})
	}

	if c.Store.Port <= 0 || c.Store.Port > 65535 {
		errors = append(errors, ValidationError{
			Field:   "store.port",
			Message: "port must be between 1 and 65535",
		})
	}

	if c.Store.User == "" {
		errors = append(errors, ValidationError{
			Field:   "store.user",
			Message: "user is required when store is enabled",
		})
	}

	if c.Store.Database == "" {
		errors = append(errors, ValidationError{
			Field:   "store.database",
			Message: "database name is required when store is enabled",
		})
	}

	validTLS := map[string]bool{"disable": true, "preferred": true, "required": true, "": true}
	if !validTLS[c.Store.TLS] {
		errors = append(errors, ValidationError{
			Field:   "store.tls",
			Message: "tls must be 'disable', 'preferred', or 'required'",
		})
	}

	if !sqlutil.IsValidIdentifier(c.Store.Table) {
		errors = append(errors, ValidationError{
			Field:   "store.table",
			Message: "table must contain only alphanumeric characters and underscores",
		})
	}

	return errors
}

func (c *Config) validateLogging() ValidationErrors {
	var errors ValidationErrors

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true, "": true}
	if !validLevels[c.Logging.Level] {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Message: "level must be 'debug', 'info', 'warn', or 'error'",
		})
	}

	validFormats := map[string]bool{"json": true, "text": true, "": true}
	if !validFormats[c.Logging.Format] {
		errors = append(errors, ValidationError{
			Field:   "logging.format",
			Message: "format must be 'json' or 'text'",
		})
	}

	return errors
}
