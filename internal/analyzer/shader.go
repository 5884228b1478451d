package analyzer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/dbsmedya/assetprof/internal/asset"
	"github.com/dbsmedya/assetprof/internal/config"
	"github.com/dbsmedya/assetprof/internal/logger"
	"github.com/dbsmedya/assetprof/internal/shader"
)

var shaderSuffixes = []string{".shader", ".frag", ".vert"}

// highComplexityFactor flags shaders this many times above the mean complexity.
const highComplexityFactor = 1.5

// Shader enumerates the variant space of every shader, prices the variants
// and derives a per-shader optimization plan.
type Shader struct {
	cfg  config.ShaderConfig
	cost shader.CostFunc
	log  *logger.Logger
}

// NewShader creates a shader analyzer. It fails on an unknown cost function.
func NewShader(cfg config.ShaderConfig, log *logger.Logger) (*Shader, error) {
	cost, err := shader.CostFuncByName(cfg.CostFunction)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Shader{cfg: cfg, cost: cost, log: log}, nil
}

// Name implements Task.
func (s *Shader) Name() string { return config.AnalyzerShader }

// Scan parses every .shader/.frag/.vert file under path.
func (s *Shader) Scan(ctx context.Context, path string) ([]asset.Record, error) {
	var records []asset.Record
	err := walkFiles(ctx, path, shaderSuffixes, func(file string) error {
		src, err := parseShaderFile(file)
		if err != nil {
			s.log.Warnw("Skipping shader", "file", file, "error", err)
			return nil
		}

		features := make([]string, len(src.Features))
		for i, f := range src.Features {
			features[i] = string(f)
		}
		attrs := asset.NewAttributes().
			Set("name", filepath.Base(file)).
			Set("features", features).
			Set("branches", src.Branches).
			Set("lines", src.Lines).
			Set("complexity", src.Complexity())
		records = append(records, asset.NewRecord(relativeID(path, file), asset.DomainShader, attrs))
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Debugw("Scanned shaders", "path", path, "count", len(records))
	return records, nil
}

func parseShaderFile(path string) (*shader.Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return shader.Parse(f)
}

// ShaderInfo summarizes one analyzed shader.
type ShaderInfo struct {
	Shader       string              `json:"shader" yaml:"shader"`
	Features     []shader.Feature    `json:"features" yaml:"features"`
	Branches     shader.BranchCounts `json:"branches" yaml:"branches"`
	Lines        int                 `json:"lines" yaml:"lines"`
	Complexity   float64             `json:"complexity" yaml:"complexity"`
	Variants     int                 `json:"variants" yaml:"variants"`
	Inconsistent int                 `json:"inconsistent_variants" yaml:"inconsistent_variants"`
}

// SkippedShader is a shader whose variant space was over the cap.
type SkippedShader struct {
	Shader   string `json:"shader" yaml:"shader"`
	Features int    `json:"features" yaml:"features"`
	Reason   string `json:"reason" yaml:"reason"`
}

// WorstVariant is the most expensive variant of one shader.
type WorstVariant struct {
	Shader      string         `json:"shader" yaml:"shader"`
	Variant     shader.Variant `json:"variant" yaml:"variant"`
	RuntimeCost float64        `json:"runtime_cost" yaml:"runtime_cost"`
	CompileCost float64        `json:"compile_cost" yaml:"compile_cost"`
}

// ComplexityStats aggregates shader complexity scores.
type ComplexityStats struct {
	Average               float64  `json:"average_complexity" yaml:"average_complexity"`
	Max                   float64  `json:"max_complexity" yaml:"max_complexity"`
	HighComplexityShaders []string `json:"high_complexity_shaders" yaml:"high_complexity_shaders"`
}

// PerformanceStats aggregates simulated variant costs.
type PerformanceStats struct {
	AverageCompileTime float64        `json:"average_compile_time" yaml:"average_compile_time"`
	AverageRuntimeCost float64        `json:"average_runtime_cost" yaml:"average_runtime_cost"`
	TotalCompileTime   float64        `json:"total_compile_time" yaml:"total_compile_time"`
	WorstVariants      []WorstVariant `json:"worst_variants" yaml:"worst_variants"`
}

// ShaderResult is the shader analyzer report.
type ShaderResult struct {
	TotalShaders      int                     `json:"total_shaders" yaml:"total_shaders"`
	TotalVariants     int                     `json:"total_variants" yaml:"total_variants"`
	TotalFeatures     int                     `json:"total_features" yaml:"total_features"`
	Complexity        ComplexityStats         `json:"complexity_analysis" yaml:"complexity_analysis"`
	Performance       PerformanceStats        `json:"performance_analysis" yaml:"performance_analysis"`
	Plans             map[string]shader.Plan  `json:"optimization_suggestions" yaml:"optimization_suggestions"`
	Dependencies      []shader.DependencyEdge `json:"dependencies" yaml:"dependencies"`
	DependencyCycles  []shader.Feature        `json:"dependency_cycles" yaml:"dependency_cycles"`
	InconsistentTotal int                     `json:"inconsistent_variants" yaml:"inconsistent_variants"`
	Shaders           []ShaderInfo            `json:"shaders" yaml:"shaders"`
	Skipped           []SkippedShader         `json:"skipped" yaml:"skipped"`
}

// Summary implements Result.
func (r *ShaderResult) Summary() map[string]any {
	return map[string]any{
		"total_shaders":         r.TotalShaders,
		"total_variants":        r.TotalVariants,
		"total_features":        r.TotalFeatures,
		"skipped":               len(r.Skipped),
		"inconsistent_variants": r.InconsistentTotal,
	}
}

// Suggestions implements Suggester, in shader order.
func (r *ShaderResult) Suggestions() []string {
	var out []string
	for _, info := range r.Shaders {
		for _, rec := range r.Plans[info.Shader].Recommendations {
			out = append(out, info.Shader+": "+rec)
		}
	}
	for _, sk := range r.Skipped {
		out = append(out, sk.Shader+": "+sk.Reason)
	}
	return out
}

// Analyze enumerates, tracks and ranks the variants of each shader. A shader
// over the feature cap is recorded as skipped; it does not fail the task.
func (s *Shader) Analyze(ctx context.Context, records []asset.Record) (Result, error) {
	enum := shader.Enumerator{MaxFeatures: s.cfg.MaxFeatures}
	prefix := s.cfg.DerivedPrefix
	global := shader.NewTracker(prefix)

	result := &ShaderResult{
		TotalShaders: len(records),
		Plans:        make(map[string]shader.Plan),
		Shaders:      []ShaderInfo{},
		Skipped:      []SkippedShader{},
	}

	var (
		complexities []float64
		compileCosts []float64
		runtimeCosts []float64
		worst        []WorstVariant
		allFeatures  = make(map[shader.Feature]bool)
	)

	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		features := recordFeatures(rec)
		complexity, _ := rec.Attributes.Float("complexity")
		complexities = append(complexities, complexity)
		for _, f := range features {
			allFeatures[f] = true
		}
		global.RecordAll(features)

		info := ShaderInfo{
			Shader:     rec.ID,
			Features:   features,
			Complexity: complexity,
			Lines:      int(rec.Attributes.Int("lines")),
		}
		if branches, ok := rec.Attributes.Get("branches"); ok {
			info.Branches, _ = branches.(shader.BranchCounts)
		}

		variants, err := enum.Enumerate(features)
		if err != nil {
			var tooLarge *shader.VariantSpaceTooLargeError
			if !errors.As(err, &tooLarge) {
				return nil, err
			}
			s.log.WithShader(rec.ID).Warnw("Variant space over cap, skipping", "features", tooLarge.Features, "max", tooLarge.Max)
			result.Skipped = append(result.Skipped, SkippedShader{
				Shader:   rec.ID,
				Features: tooLarge.Features,
				Reason:   err.Error(),
			})
			result.Shaders = append(result.Shaders, info)
			continue
		}

		tracker := shader.NewTracker(prefix)
		tracker.RecordAll(features)
		info.Variants = len(variants)
		info.Inconsistent = tracker.Inconsistent(variants)
		result.TotalVariants += len(variants)
		result.InconsistentTotal += info.Inconsistent

		ranking := shader.Rank(variants, s.cost)
		for _, r := range ranking {
			compileCosts = append(compileCosts, r.Cost.Compile)
			runtimeCosts = append(runtimeCosts, r.Cost.Runtime)
		}
		if top := ranking.Worst(1); len(top) == 1 {
			worst = append(worst, WorstVariant{
				Shader:      rec.ID,
				Variant:     top[0].Variant,
				RuntimeCost: top[0].Cost.Runtime,
				CompileCost: top[0].Cost.Compile,
			})
		}
		if high := ranking.HighCost(s.cfg.RuntimeThreshold); len(high) > 0 {
			result.Plans[rec.ID] = shader.PlanFor(high, s.cfg.MaxUnionFeatures)
		}

		result.Shaders = append(result.Shaders, info)
	}

	result.TotalFeatures = len(allFeatures)
	result.Dependencies = global.Edges()
	cycles, err := global.Cycles()
	if err != nil {
		return nil, fmt.Errorf("failed to build feature dependency graph: %w", err)
	}
	result.DependencyCycles = cycles
	result.Complexity = complexityStats(result.Shaders, complexities)
	result.Performance = PerformanceStats{
		AverageCompileTime: mean(compileCosts),
		AverageRuntimeCost: mean(runtimeCosts),
		TotalCompileTime:   sum(compileCosts),
		WorstVariants:      worstVariants(worst, s.cfg.WorstCount),
	}
	return result, nil
}

func recordFeatures(rec asset.Record) []shader.Feature {
	v, _ := rec.Attributes.Get("features")
	var names []string
	switch x := v.(type) {
	case []string:
		names = x
	case []any:
		for _, el := range x {
			if s, ok := el.(string); ok {
				names = append(names, s)
			}
		}
	}
	features := make([]shader.Feature, len(names))
	for i, n := range names {
		features[i] = shader.Feature(n)
	}
	return shader.Normalize(features)
}

func complexityStats(infos []ShaderInfo, complexities []float64) ComplexityStats {
	stats := ComplexityStats{HighComplexityShaders: []string{}}
	if len(complexities) == 0 {
		return stats
	}
	stats.Average = mean(complexities)
	for i, c := range complexities {
		stats.Max = max(stats.Max, c)
		if c > stats.Average*highComplexityFactor {
			stats.HighComplexityShaders = append(stats.HighComplexityShaders, infos[i].Shader)
		}
	}
	return stats
}

// worstVariants keeps the n most expensive per-shader worst variants.
func worstVariants(worst []WorstVariant, n int) []WorstVariant {
	sort.SliceStable(worst, func(i, j int) bool {
		return worst[i].RuntimeCost > worst[j].RuntimeCost
	})
	if n < 0 {
		n = 0
	}
	if len(worst) > n {
		worst = worst[:n]
	}
	if worst == nil {
		worst = []WorstVariant{}
	}
	return worst
}

func sum(values []float64) float64 {
	total := 0.0
	for _, v := range values {
		total += v
	}
	return total
}
