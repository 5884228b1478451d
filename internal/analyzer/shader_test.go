package analyzer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbsmedya/assetprof/internal/asset"
	"github.com/dbsmedya/assetprof/internal/config"
	"github.com/dbsmedya/assetprof/internal/shader"
)

const fogShader = `#pragma multi_compile _ FOG USE_FOG
#pragma shader_feature NORMALMAP
void main() {
    if (depth > 0.5) {
        discard;
    } else {
        color = vec4(1.0);
    }
}
`

const plainShader = `void main() {
    gl_FragColor = vec4(1.0);
}
`

func testShaderConfig() config.ShaderConfig {
	cfg := config.DefaultConfig().Analyzers.Shader
	cfg.CostFunction = "feature_count"
	return cfg
}

func scanShaders(t *testing.T, s *Shader, files map[string]string) []asset.Record {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		writeFile(t, dir, name, content)
	}
	records, err := s.Scan(context.Background(), dir)
	require.NoError(t, err)
	return records
}

func TestNewShader_UnknownCostFunction(t *testing.T) {
	cfg := testShaderConfig()
	cfg.CostFunction = "quadratic"
	_, err := NewShader(cfg, nil)
	assert.Error(t, err)
}

func TestShader_Scan(t *testing.T) {
	s, err := NewShader(testShaderConfig(), testLogger())
	require.NoError(t, err)
	assert.Equal(t, "shader", s.Name())

	records := scanShaders(t, s, map[string]string{
		"water.shader":   fogShader,
		"post/blur.frag": plainShader,
		"readme.md":      "not a shader",
	})
	require.Len(t, records, 2)

	blur := records[0]
	assert.Equal(t, "post/blur.frag", blur.ID)
	assert.Equal(t, asset.DomainShader, blur.Domain)

	water := records[1]
	assert.Equal(t, "water.shader", water.ID)
	features, ok := water.Attributes.Get("features")
	require.True(t, ok)
	assert.Equal(t, []string{"FOG", "NORMALMAP", "USE_FOG"}, features)
	assert.Equal(t, int64(9), water.Attributes.Int("lines"))
}

func TestShader_Analyze(t *testing.T) {
	cfg := testShaderConfig()
	cfg.RuntimeThreshold = 2.5
	s, err := NewShader(cfg, testLogger())
	require.NoError(t, err)

	records := scanShaders(t, s, map[string]string{
		"water.shader": fogShader,
		"blur.frag":    plainShader,
	})

	res, err := s.Analyze(context.Background(), records)
	require.NoError(t, err)
	result := res.(*ShaderResult)

	assert.Equal(t, 2, result.TotalShaders)
	assert.Equal(t, 9, result.TotalVariants, "8 for water plus the empty variant for blur")
	assert.Equal(t, 3, result.TotalFeatures)
	assert.Empty(t, result.Skipped)

	require.Len(t, result.Shaders, 2)
	water := result.Shaders[1]
	assert.Equal(t, "water.shader", water.Shader)
	assert.Equal(t, 8, water.Variants)
	assert.Equal(t, 2, water.Inconsistent, "USE_FOG without FOG, with and without NORMALMAP")
	assert.Equal(t, shader.BranchCounts{If: 1, Else: 1}, water.Branches)
	assert.Equal(t, 2, result.InconsistentTotal)

	assert.Equal(t, []shader.DependencyEdge{
		{Base: "FOG", Derived: []shader.Feature{"USE_FOG"}},
	}, result.Dependencies)
	assert.Empty(t, result.DependencyCycles)

	require.Contains(t, result.Plans, "water.shader")
	plan := result.Plans["water.shader"]
	assert.Equal(t, 1, plan.HighCost)
	assert.Equal(t, []shader.Feature{"FOG", "NORMALMAP", "USE_FOG"}, plan.Common)
	assert.False(t, plan.TooManyFeatures)
	assert.NotContains(t, result.Plans, "blur.frag")

	require.Len(t, result.Performance.WorstVariants, 2)
	worst := result.Performance.WorstVariants[0]
	assert.Equal(t, "water.shader", worst.Shader)
	assert.Equal(t, 3.0, worst.RuntimeCost)
	assert.Equal(t, 3, worst.Variant.Len())
	// 8 water variants sum to 12 features; blur adds one empty variant.
	assert.InDelta(t, 12.0, result.Performance.TotalCompileTime, 1e-9)
	assert.InDelta(t, 12.0/9, result.Performance.AverageRuntimeCost, 1e-9)

	assert.Equal(t, []string{
		"water.shader: Consider pre-compiling variants with features: FOG, NORMALMAP, USE_FOG",
	}, result.Suggestions())
	assert.Equal(t, 9, result.Summary()["total_variants"])
}

func TestShader_TooManyFeaturesPlan(t *testing.T) {
	cfg := testShaderConfig()
	cfg.RuntimeThreshold = 1.5
	cfg.MaxUnionFeatures = 2
	s, err := NewShader(cfg, testLogger())
	require.NoError(t, err)

	records := scanShaders(t, s, map[string]string{"water.shader": fogShader})
	res, err := s.Analyze(context.Background(), records)
	require.NoError(t, err)
	result := res.(*ShaderResult)

	plan := result.Plans["water.shader"]
	assert.Equal(t, 4, plan.HighCost)
	assert.Empty(t, plan.Common)
	assert.Len(t, plan.Union, 3)
	assert.True(t, plan.TooManyFeatures)
	assert.Equal(t, []string{
		"water.shader: Too many features enabled. Consider reducing feature combinations.",
	}, result.Suggestions())
}

func TestShader_OverCapIsSkipped(t *testing.T) {
	cfg := testShaderConfig()
	cfg.MaxFeatures = 2
	s, err := NewShader(cfg, testLogger())
	require.NoError(t, err)

	records := scanShaders(t, s, map[string]string{
		"water.shader": fogShader,
		"blur.frag":    plainShader,
	})
	res, err := s.Analyze(context.Background(), records)
	require.NoError(t, err)
	result := res.(*ShaderResult)

	require.Len(t, result.Skipped, 1)
	assert.Equal(t, "water.shader", result.Skipped[0].Shader)
	assert.Equal(t, 3, result.Skipped[0].Features)
	assert.Equal(t, 1, result.TotalVariants)
	assert.Len(t, result.Shaders, 2)
	assert.NotEmpty(t, result.Suggestions())
}

func TestShader_ComplexityStats(t *testing.T) {
	s, err := NewShader(testShaderConfig(), testLogger())
	require.NoError(t, err)

	records := []asset.Record{
		asset.NewRecord("a", asset.DomainShader, asset.NewAttributes().Set("complexity", 1.0)),
		asset.NewRecord("b", asset.DomainShader, asset.NewAttributes().Set("complexity", 1.0)),
		asset.NewRecord("c", asset.DomainShader, asset.NewAttributes().Set("complexity", 10.0)),
	}
	res, err := s.Analyze(context.Background(), records)
	require.NoError(t, err)
	stats := res.(*ShaderResult).Complexity

	assert.InDelta(t, 4.0, stats.Average, 1e-9)
	assert.Equal(t, 10.0, stats.Max)
	assert.Equal(t, []string{"c"}, stats.HighComplexityShaders)
}

func TestShader_AnalyzeCancelled(t *testing.T) {
	s, err := NewShader(testShaderConfig(), testLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	records := []asset.Record{asset.NewRecord("a", asset.DomainShader, nil)}
	_, err = s.Analyze(ctx, records)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWorstVariants(t *testing.T) {
	worst := []WorstVariant{
		{Shader: "a", RuntimeCost: 1},
		{Shader: "b", RuntimeCost: 3},
		{Shader: "c", RuntimeCost: 2},
	}
	got := worstVariants(worst, 2)
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].Shader)
	assert.Equal(t, "c", got[1].Shader)

	assert.Empty(t, worstVariants(nil, 5))
	assert.NotNil(t, worstVariants(nil, 5))
}
