package analyzer

import (
	"context"
	"fmt"
	"strings"

	"github.com/dbsmedya/assetprof/internal/asset"
	"github.com/dbsmedya/assetprof/internal/config"
	"github.com/dbsmedya/assetprof/internal/fingerprint"
	"github.com/dbsmedya/assetprof/internal/logger"
	"github.com/dbsmedya/assetprof/internal/optimizer"
)

var materialSuffixes = []string{".mat", ".material"}

// materialFile is the on-disk material description.
type materialFile struct {
	Name       string         `json:"name"`
	Shader     string         `json:"shader"`
	Properties map[string]any `json:"properties"`
}

// Material finds materials that share a shader and identical properties and
// can therefore be batched into one draw call.
type Material struct {
	cfg config.GroupingConfig
	log *logger.Logger
}

// NewMaterial creates a material analyzer.
func NewMaterial(cfg config.GroupingConfig, log *logger.Logger) *Material {
	return &Material{cfg: cfg, log: log}
}

// Name implements Task.
func (m *Material) Name() string { return config.AnalyzerMaterial }

// Scan reads every .mat/.material JSON file under path.
func (m *Material) Scan(ctx context.Context, path string) ([]asset.Record, error) {
	var records []asset.Record
	err := walkFiles(ctx, path, materialSuffixes, func(file string) error {
		var mf materialFile
		if err := decodeJSONFile(file, &mf); err != nil {
			m.log.Warnw("Skipping material", "file", file, "error", err)
			return nil
		}
		if mf.Name == "" {
			mf.Name = "unknown"
		}
		if mf.Shader == "" {
			mf.Shader = "unknown"
		}
		if mf.Properties == nil {
			mf.Properties = map[string]any{}
		}

		attrs := asset.NewAttributes().
			Set("name", mf.Name).
			Set("shader", mf.Shader).
			Set("properties", mf.Properties)
		records = append(records, asset.NewRecord(relativeID(path, file), asset.DomainMaterial, attrs))
		return nil
	})
	if err != nil {
		return nil, err
	}
	m.log.Debugw("Scanned materials", "path", path, "count", len(records))
	return records, nil
}

// MaterialShaderStats counts materials per shader.
type MaterialShaderStats struct {
	MaterialCount int `json:"material_count" yaml:"material_count"`
	BatchGroups   int `json:"batch_groups" yaml:"batch_groups"`
}

// BatchRecommendation is one group of materials that can share a batch.
type BatchRecommendation struct {
	Shader        string                  `json:"shader" yaml:"shader"`
	MaterialCount int                     `json:"material_count" yaml:"material_count"`
	Materials     []string                `json:"materials" yaml:"materials"`
	Fingerprint   fingerprint.Fingerprint `json:"fingerprint" yaml:"fingerprint"`
}

// MaterialResult is the material analyzer report.
type MaterialResult struct {
	TotalMaterials       int                            `json:"total_materials" yaml:"total_materials"`
	ShaderCount          int                            `json:"shader_count" yaml:"shader_count"`
	BatchGroups          int                            `json:"batch_groups" yaml:"batch_groups"`
	ShaderStats          map[string]MaterialShaderStats `json:"shader_stats" yaml:"shader_stats"`
	BatchRecommendations []BatchRecommendation          `json:"batch_recommendations" yaml:"batch_recommendations"`
	DrawCalls            optimizer.Summary              `json:"draw_calls" yaml:"draw_calls"`
}

// Summary implements Result.
func (r *MaterialResult) Summary() map[string]any {
	return map[string]any{
		"total_materials":      r.TotalMaterials,
		"shader_count":         r.ShaderCount,
		"batch_groups":         r.BatchGroups,
		"reduction_percentage": r.DrawCalls.ReductionPercentage,
	}
}

// Suggestions implements Suggester.
func (r *MaterialResult) Suggestions() []string {
	out := make([]string, 0, len(r.BatchRecommendations))
	for _, rec := range r.BatchRecommendations {
		out = append(out, fmt.Sprintf("Batch %d materials using shader %s: %s",
			rec.MaterialCount, rec.Shader, strings.Join(rec.Materials, ", ")))
	}
	return out
}

// Analyze groups materials by shader and properties.
func (m *Material) Analyze(ctx context.Context, records []asset.Record) (Result, error) {
	buckets, err := fingerprint.Group(records, fingerprint.AttributeKey("shader", "properties"))
	if err != nil {
		return nil, err
	}
	sel, err := optimizer.SelectCandidates(buckets, m.cfg.MinCount)
	if err != nil {
		return nil, err
	}

	result := &MaterialResult{
		TotalMaterials:       len(records),
		ShaderStats:          make(map[string]MaterialShaderStats),
		BatchRecommendations: []BatchRecommendation{},
		DrawCalls:            sel.Summary,
	}
	for _, rec := range records {
		shader := rec.Attributes.String("shader")
		stats := result.ShaderStats[shader]
		stats.MaterialCount++
		result.ShaderStats[shader] = stats
	}
	result.ShaderCount = len(result.ShaderStats)

	for _, c := range sel.Candidates {
		shader := c.Records[0].Attributes.String("shader")
		names := make([]string, 0, len(c.Records))
		for _, rec := range c.Records {
			names = append(names, rec.Attributes.String("name"))
		}
		result.BatchRecommendations = append(result.BatchRecommendations, BatchRecommendation{
			Shader:        shader,
			MaterialCount: c.Before,
			Materials:     names,
			Fingerprint:   c.Fingerprint,
		})

		stats := result.ShaderStats[shader]
		stats.BatchGroups++
		result.ShaderStats[shader] = stats
	}
	result.BatchGroups = len(result.BatchRecommendations)

	return result, nil
}
