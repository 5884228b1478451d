// Package config provides configuration structures and loading for assetprof.
package config

// Analyzer names understood by the orchestrator.
const (
	AnalyzerMaterial = "material"
	AnalyzerMesh     = "mesh"
	AnalyzerInstance = "instance"
	AnalyzerTexture  = "texture"
	AnalyzerShader   = "shader"
)

// KnownAnalyzers lists every analyzer in default run order.
var KnownAnalyzers = []string{
	AnalyzerMaterial,
	AnalyzerMesh,
	AnalyzerInstance,
	AnalyzerTexture,
	AnalyzerShader,
}

// Config represents the complete application configuration.
type Config struct {
	Project      ProjectConfig      `yaml:"project" mapstructure:"project"`
	Orchestrator OrchestratorConfig `yaml:"orchestrator" mapstructure:"orchestrator"`
	Analyzers    AnalyzersConfig    `yaml:"analyzers" mapstructure:"analyzers"`
	Report       ReportConfig       `yaml:"report" mapstructure:"report"`
	Store        StoreConfig        `yaml:"store" mapstructure:"store"`
	Logging      LoggingConfig      `yaml:"logging" mapstructure:"logging"`
}

// ProjectConfig points at the asset tree to analyze.
type ProjectConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// OrchestratorConfig controls the analyzer worker pool.
type OrchestratorConfig struct {
	Workers        int      `yaml:"workers" mapstructure:"workers"`                 // 0 = number of CPUs
	TimeoutSeconds float64  `yaml:"timeout_seconds" mapstructure:"timeout_seconds"` // 0 = wait forever
	Analyzers      []string `yaml:"analyzers" mapstructure:"analyzers"`             // run order; empty = all enabled
}

// AnalyzersConfig holds per-analyzer settings.
type AnalyzersConfig struct {
	Material GroupingConfig `yaml:"material" mapstructure:"material"`
	Instance GroupingConfig `yaml:"instance" mapstructure:"instance"`
	Mesh     MeshConfig     `yaml:"mesh" mapstructure:"mesh"`
	Texture  TextureConfig  `yaml:"texture" mapstructure:"texture"`
	Shader   ShaderConfig   `yaml:"shader" mapstructure:"shader"`
}

// GroupingConfig is shared by every fingerprint-grouping analyzer.
type GroupingConfig struct {
	Enabled  bool `yaml:"enabled" mapstructure:"enabled"`
	MinCount int  `yaml:"min_count" mapstructure:"min_count"`
}

// MeshConfig represents mesh analyzer settings.
type MeshConfig struct {
	GroupingConfig         `yaml:",inline" mapstructure:",squash"`
	LODFaceThreshold       int     `yaml:"lod_face_threshold" mapstructure:"lod_face_threshold"`
	FragmentationThreshold float64 `yaml:"fragmentation_threshold" mapstructure:"fragmentation_threshold"`
}

// TextureConfig represents texture analyzer settings.
type TextureConfig struct {
	GroupingConfig    `yaml:",inline" mapstructure:",squash"`
	MaxSize           int   `yaml:"max_size" mapstructure:"max_size"`
	UncompressedBytes int64 `yaml:"uncompressed_bytes" mapstructure:"uncompressed_bytes"`
}

// ShaderConfig represents shader variant analysis settings.
type ShaderConfig struct {
	Enabled          bool    `yaml:"enabled" mapstructure:"enabled"`
	MaxFeatures      int     `yaml:"max_features" mapstructure:"max_features"`
	DerivedPrefix    string  `yaml:"derived_prefix" mapstructure:"derived_prefix"`
	RuntimeThreshold float64 `yaml:"runtime_threshold" mapstructure:"runtime_threshold"`
	MaxUnionFeatures int     `yaml:"max_union_features" mapstructure:"max_union_features"`
	WorstCount       int     `yaml:"worst_count" mapstructure:"worst_count"`
	CostFunction     string  `yaml:"cost_function" mapstructure:"cost_function"` // default or feature_count
}

// ReportConfig controls where the comprehensive report goes.
type ReportConfig struct {
	Output      string `yaml:"output" mapstructure:"output"`             // empty = no file
	Format      string `yaml:"format" mapstructure:"format"`             // json or yaml
	MetricsFile string `yaml:"metrics_file" mapstructure:"metrics_file"` // prometheus textfile
}

// StoreConfig represents the optional MySQL run-history store.
type StoreConfig struct {
	Enabled            bool   `yaml:"enabled" mapstructure:"enabled"`
	Host               string `yaml:"host" mapstructure:"host"`
	Port               int    `yaml:"port" mapstructure:"port"`
	User               string `yaml:"user" mapstructure:"user"`
	Password           string `yaml:"password" mapstructure:"password"`
	Database           string `yaml:"database" mapstructure:"database"`
	TLS                string `yaml:"tls" mapstructure:"tls"` // disable, preferred, required
	Table              string `yaml:"table" mapstructure:"table"`
	MaxConnections     int    `yaml:"max_connections" mapstructure:"max_connections"`
	MaxIdleConnections int    `yaml:"max_idle_connections" mapstructure:"max_idle_connections"`
}

// LoggingConfig represents logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `yaml:"format" mapstructure:"format"` // json or text
	Output string `yaml:"output" mapstructure:"output"` // stdout, stderr, or file path
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() *Config {
	return &Config{
		Project: ProjectConfig{
			Path: ".",
		},
		Orchestrator: OrchestratorConfig{
			Workers:        0,
			TimeoutSeconds: 0,
		},
		Analyzers: AnalyzersConfig{
			Material: GroupingConfig{Enabled: true, MinCount: 2},
			Instance: GroupingConfig{Enabled: true, MinCount: 10},
			Mesh: MeshConfig{
				GroupingConfig:         GroupingConfig{Enabled: true, MinCount: 2},
				LODFaceThreshold:       10000,
				FragmentationThreshold: 0.2,
			},
			Texture: TextureConfig{
				GroupingConfig:    GroupingConfig{Enabled: true, MinCount: 2},
				MaxSize:           2048,
				UncompressedBytes: 1024 * 1024,
			},
			Shader: ShaderConfig{
				Enabled:          true,
				MaxFeatures:      16,
				DerivedPrefix:    "USE_",
				RuntimeThreshold: 0.1,
				MaxUnionFeatures: 5,
				WorstCount:       5,
				CostFunction:     "default",
			},
		},
		Report: ReportConfig{
			Format: "json",
		},
		Store: StoreConfig{
			Enabled:            false,
			Port:               3306,
			TLS:                "preferred",
			Table:              "assetprof_runs",
			MaxConnections:     4,
			MaxIdleConnections: 2,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
	}
}

// IsEnabled reports whether the named analyzer is switched on.
func (c *Config) IsEnabled(name string) bool {
	switch name {
	case AnalyzerMaterial:
		return c.Analyzers.Material.Enabled
	case AnalyzerInstance:
		return c.Analyzers.Instance.Enabled
	case AnalyzerMesh:
		return c.Analyzers.Mesh.Enabled
	case AnalyzerTexture:
		return c.Analyzers.Texture.Enabled
	case AnalyzerShader:
		return c.Analyzers.Shader.Enabled
	default:
		return false
	}
}

// EnabledAnalyzers returns the analyzers to run, in run order.
// An explicit orchestrator.analyzers list wins over the known default order;
// disabled analyzers are dropped either way.
func (c *Config) EnabledAnalyzers() []string {
	order := c.Orchestrator.Analyzers
	if len(order) == 0 {
		order = KnownAnalyzers
	}

	seen := make(map[string]bool, len(order))
	names := make([]string, 0, len(order))
	for _, name := range order {
		if seen[name] || !c.IsEnabled(name) {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names
}
