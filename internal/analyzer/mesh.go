package analyzer

import (
	"context"
	"fmt"

	"github.com/dbsmedya/assetprof/internal/asset"
	"github.com/dbsmedya/assetprof/internal/config"
	"github.com/dbsmedya/assetprof/internal/fingerprint"
	"github.com/dbsmedya/assetprof/internal/logger"
	"github.com/dbsmedya/assetprof/internal/optimizer"
)

var meshSuffixes = []string{".mesh.yaml", ".mesh.yml"}

// Poly count buckets.
const (
	lowPolyFaces    = 1000
	mediumPolyFaces = 10000
)

// lodLevel is one suggested level of detail as a fraction of the source faces.
type lodLevel struct {
	Name  string
	Ratio float64
}

var lodLevels = []lodLevel{
	{Name: "high", Ratio: 1.0},
	{Name: "medium", Ratio: 0.5},
	{Name: "low", Ratio: 0.25},
	{Name: "very_low", Ratio: 0.1},
}

// meshFile is the sidecar written next to a model by the export pipeline.
type meshFile struct {
	Name          string  `yaml:"name"`
	Vertices      int64   `yaml:"vertices"`
	Faces         int64   `yaml:"faces"`
	MemorySize    int64   `yaml:"memory_size"`
	Fragmentation float64 `yaml:"fragmentation"`
	Bounds        any     `yaml:"bounds"`
}

// estimatedMeshMemory covers positions, normals and UVs as float32 plus
// int32 triangle indices.
func estimatedMeshMemory(vertices, faces int64) int64 {
	return vertices*(3+3+2)*4 + faces*3*4
}

// Mesh reports polygon budgets, LOD needs, memory fragmentation and
// duplicated geometry.
type Mesh struct {
	cfg config.MeshConfig
	log *logger.Logger
}

// NewMesh creates a mesh analyzer.
func NewMesh(cfg config.MeshConfig, log *logger.Logger) *Mesh {
	return &Mesh{cfg: cfg, log: log}
}

// Name implements Task.
func (m *Mesh) Name() string { return config.AnalyzerMesh }

// Scan reads every *.mesh.yaml sidecar under path.
func (m *Mesh) Scan(ctx context.Context, path string) ([]asset.Record, error) {
	var records []asset.Record
	err := walkFiles(ctx, path, meshSuffixes, func(file string) error {
		var mf meshFile
		if err := decodeYAMLFile(file, &mf); err != nil {
			m.log.Warnw("Skipping mesh", "file", file, "error", err)
			return nil
		}
		if mf.Vertices < 0 || mf.Faces < 0 {
			m.log.Warnw("Skipping mesh with negative counts", "file", file)
			return nil
		}

		id := relativeID(path, file)
		if mf.Name == "" {
			mf.Name = id
		}
		if mf.MemorySize <= 0 {
			mf.MemorySize = estimatedMeshMemory(mf.Vertices, mf.Faces)
		}

		attrs := asset.NewAttributes().
			Set("name", mf.Name).
			Set("vertices", mf.Vertices).
			Set("faces", mf.Faces).
			Set("memory_size", mf.MemorySize).
			Set("fragmentation", mf.Fragmentation).
			Set("bounds", mf.Bounds)
		records = append(records, asset.NewRecord(id, asset.DomainMesh, attrs))
		return nil
	})
	if err != nil {
		return nil, err
	}
	m.log.Debugw("Scanned meshes", "path", path, "count", len(records))
	return records, nil
}

// PolyDistribution counts meshes per face-count bucket.
type PolyDistribution struct {
	Low    int `json:"low" yaml:"low"`
	Medium int `json:"medium" yaml:"medium"`
	High   int `json:"high" yaml:"high"`
}

// MeshSuggestion is one optimization opportunity.
type MeshSuggestion struct {
	Mesh                 string           `json:"mesh" yaml:"mesh"`
	Type                 string           `json:"type" yaml:"type"` // high_poly, fragmentation or duplicate
	CurrentFaces         int64            `json:"current_faces,omitempty" yaml:"current_faces,omitempty"`
	SuggestedLODs        map[string]int64 `json:"suggested_lods,omitempty" yaml:"suggested_lods,omitempty"`
	CurrentFragmentation float64          `json:"current_fragmentation,omitempty" yaml:"current_fragmentation,omitempty"`
	Duplicates           []string         `json:"duplicates,omitempty" yaml:"duplicates,omitempty"`
	SuggestedAction      string           `json:"suggested_action,omitempty" yaml:"suggested_action,omitempty"`
	MemorySave           float64          `json:"memory_save" yaml:"memory_save"`
}

// MeshResult is the mesh analyzer report.
type MeshResult struct {
	TotalModels          int               `json:"total_models" yaml:"total_models"`
	TotalVertices        int64             `json:"total_vertices" yaml:"total_vertices"`
	TotalFaces           int64             `json:"total_faces" yaml:"total_faces"`
	TotalMemory          int64             `json:"total_memory" yaml:"total_memory"`
	TotalMemoryHuman     string            `json:"total_memory_human" yaml:"total_memory_human"`
	PolyDistribution     PolyDistribution  `json:"poly_count_distribution" yaml:"poly_count_distribution"`
	AverageFragmentation float64           `json:"average_fragmentation" yaml:"average_fragmentation"`
	FragmentedModels     int               `json:"fragmented_models" yaml:"fragmented_models"`
	DuplicateGroups      int               `json:"duplicate_groups" yaml:"duplicate_groups"`
	Duplicates           optimizer.Summary `json:"duplicates" yaml:"duplicates"`
	PotentialMemorySave  float64           `json:"potential_memory_save" yaml:"potential_memory_save"`
	SuggestionsList      []MeshSuggestion  `json:"suggestions" yaml:"suggestions"`
}

// Summary implements Result.
func (r *MeshResult) Summary() map[string]any {
	return map[string]any{
		"total_models":          r.TotalModels,
		"total_faces":           r.TotalFaces,
		"suggestions":           len(r.SuggestionsList),
		"duplicate_groups":      r.DuplicateGroups,
		"potential_memory_save": formatSize(r.PotentialMemorySave),
	}
}

// Suggestions implements Suggester.
func (r *MeshResult) Suggestions() []string {
	out := make([]string, 0, len(r.SuggestionsList))
	for _, s := range r.SuggestionsList {
		switch s.Type {
		case "high_poly":
			out = append(out, fmt.Sprintf("Generate LODs for %s (%d faces), saving about %s",
				s.Mesh, s.CurrentFaces, formatSize(s.MemorySave)))
		case "fragmentation":
			out = append(out, fmt.Sprintf("Optimize memory layout of %s (%.0f%% fragmented)",
				s.Mesh, s.CurrentFragmentation*100))
		case "duplicate":
			out = append(out, fmt.Sprintf("Share one mesh asset for %s and %d duplicates, saving %s",
				s.Mesh, len(s.Duplicates), formatSize(s.MemorySave)))
		}
	}
	return out
}

// Analyze computes poly statistics and collects LOD, fragmentation and
// duplicate-geometry suggestions.
func (m *Mesh) Analyze(ctx context.Context, records []asset.Record) (Result, error) {
	result := &MeshResult{
		TotalModels:     len(records),
		SuggestionsList: []MeshSuggestion{},
	}

	var fragmentation []float64
	for _, rec := range records {
		attrs := rec.Attributes
		faces := attrs.Int("faces")
		memory := attrs.Int("memory_size")
		frag, _ := attrs.Float("fragmentation")
		name := attrs.String("name")

		result.TotalVertices += attrs.Int("vertices")
		result.TotalFaces += faces
		result.TotalMemory += memory
		fragmentation = append(fragmentation, frag)

		switch {
		case faces < lowPolyFaces:
			result.PolyDistribution.Low++
		case faces < mediumPolyFaces:
			result.PolyDistribution.Medium++
		default:
			result.PolyDistribution.High++
		}

		if faces > int64(m.cfg.LODFaceThreshold) {
			result.SuggestionsList = append(result.SuggestionsList, MeshSuggestion{
				Mesh:          name,
				Type:          "high_poly",
				CurrentFaces:  faces,
				SuggestedLODs: suggestLODs(faces),
				MemorySave:    lodMemorySave(memory),
			})
		}

		if frag > m.cfg.FragmentationThreshold {
			result.FragmentedModels++
			result.SuggestionsList = append(result.SuggestionsList, MeshSuggestion{
				Mesh:                 name,
				Type:                 "fragmentation",
				CurrentFragmentation: frag,
				SuggestedAction:      "optimize_layout",
				MemorySave:           float64(memory) * frag,
			})
		}
	}
	result.TotalMemoryHuman = formatSize(float64(result.TotalMemory))
	result.AverageFragmentation = mean(fragmentation)

	buckets, err := fingerprint.Group(records, fingerprint.AttributeKey("vertices", "faces", "bounds"))
	if err != nil {
		return nil, err
	}
	sel, err := optimizer.SelectCandidates(buckets, m.cfg.MinCount)
	if err != nil {
		return nil, err
	}
	result.Duplicates = sel.Summary
	for _, c := range sel.Candidates {
		if c.Delta == 0 {
			continue
		}
		first := c.Records[0].Attributes
		dups := make([]string, 0, c.Delta)
		for _, rec := range c.Records[1:] {
			dups = append(dups, rec.Attributes.String("name"))
		}
		result.DuplicateGroups++
		result.SuggestionsList = append(result.SuggestionsList, MeshSuggestion{
			Mesh:            first.String("name"),
			Type:            "duplicate",
			Duplicates:      dups,
			SuggestedAction: "share_mesh",
			MemorySave:      float64(first.Int("memory_size")) * float64(c.Delta),
		})
	}

	for _, s := range result.SuggestionsList {
		result.PotentialMemorySave += s.MemorySave
	}
	return result, nil
}

func suggestLODs(faces int64) map[string]int64 {
	lods := make(map[string]int64, len(lodLevels))
	for _, level := range lodLevels {
		lods[level.Name] = int64(float64(faces) * level.Ratio)
	}
	return lods
}

// lodMemorySave is the source size minus the mean size of the LOD chain.
func lodMemorySave(memory int64) float64 {
	total := 0.0
	for _, level := range lodLevels {
		total += float64(memory) * level.Ratio
	}
	return float64(memory) - total/float64(len(lodLevels))
}
