// Package analyzer implements the per-domain analyzer tasks run by the
// orchestrator. Every task scans a directory into asset records and then
// analyzes those records into a serializable result. Tasks keep no state
// between calls.
package analyzer

import (
	"context"
	"fmt"

	"github.com/dbsmedya/assetprof/internal/asset"
	"github.com/dbsmedya/assetprof/internal/config"
	"github.com/dbsmedya/assetprof/internal/logger"
)

// Result is the report produced by one analyzer. Concrete results are
// structs with json and yaml tags.
type Result interface {
	// Summary returns the headline numbers for terminal output and history.
	Summary() map[string]any
}

// Suggester is implemented by results that carry human-readable advice.
type Suggester interface {
	Suggestions() []string
}

// Task is the uniform analyzer capability.
type Task interface {
	Name() string
	Scan(ctx context.Context, path string) ([]asset.Record, error)
	Analyze(ctx context.Context, records []asset.Record) (Result, error)
}

// New creates the named analyzer from configuration.
func New(name string, cfg *config.Config, log *logger.Logger) (Task, error) {
	if log == nil {
		log = logger.NewNop()
	}
	log = log.WithAnalyzer(name)

	switch name {
	case config.AnalyzerMaterial:
		return NewMaterial(cfg.Analyzers.Material, log), nil
	case config.AnalyzerInstance:
		return NewInstance(cfg.Analyzers.Instance, log), nil
	case config.AnalyzerMesh:
		return NewMesh(cfg.Analyzers.Mesh, log), nil
	case config.AnalyzerTexture:
		return NewTexture(cfg.Analyzers.Texture, log), nil
	case config.AnalyzerShader:
		sh, err := NewShader(cfg.Analyzers.Shader, log)
		if err != nil {
			return nil, err
		}
		return sh, nil
	default:
		return nil, fmt.Errorf("unknown analyzer %q", name)
	}
}

// FromConfig creates every enabled analyzer in run order.
func FromConfig(cfg *config.Config, log *logger.Logger) ([]Task, error) {
	names := cfg.EnabledAnalyzers()
	tasks := make([]Task, 0, len(names))
	for _, name := range names {
		task, err := New(name, cfg, log)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}
