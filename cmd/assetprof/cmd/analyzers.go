package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/assetprof/internal/config"
)

var analyzersCmd = &cobra.Command{
	Use:   "analyzers",
	Short: "List analyzers and their settings",
	Long: `Analyzers displays every known analyzer in run order, whether it is
enabled, and the thresholds it will use.

Example:
  assetprof analyzers --config assetprof.yaml`,
	RunE: runAnalyzers,
}

func init() {
	rootCmd.AddCommand(analyzersCmd)
}

func runAnalyzers(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	enabled := cfg.EnabledAnalyzers()
	order := make(map[string]int, len(enabled))
	for i, name := range enabled {
		order[name] = i + 1
	}

	cmd.Printf("Analyzers for %s:\n\n", cfg.Project.Path)

	for _, name := range config.KnownAnalyzers {
		if pos, ok := order[name]; ok {
			cmd.Printf("%d. %s\n", pos, name)
		} else {
			cmd.Printf("-. %s (disabled)\n", name)
		}
		for _, line := range analyzerSettings(cfg, name) {
			cmd.Printf("   %s\n", line)
		}
	}

	workers := "number of CPUs"
	if cfg.Orchestrator.Workers > 0 {
		workers = fmt.Sprintf("%d", cfg.Orchestrator.Workers)
	}
	timeout := "none"
	if cfg.Orchestrator.TimeoutSeconds > 0 {
		timeout = fmt.Sprintf("%gs", cfg.Orchestrator.TimeoutSeconds)
	}
	cmd.Printf("\nWorkers: %s, Timeout: %s\n", workers, timeout)
	cmd.Printf("Total: %d enabled\n", len(enabled))
	return nil
}

func analyzerSettings(cfg *config.Config, name string) []string {
	a := cfg.Analyzers
	switch name {
	case config.AnalyzerMaterial:
		return []string{fmt.Sprintf("Min Count:     %d", a.Material.MinCount)}
	case config.AnalyzerInstance:
		return []string{fmt.Sprintf("Min Count:     %d", a.Instance.MinCount)}
	case config.AnalyzerMesh:
		return []string{
			fmt.Sprintf("Min Count:     %d", a.Mesh.MinCount),
			fmt.Sprintf("LOD Faces:     > %d", a.Mesh.LODFaceThreshold),
			fmt.Sprintf("Fragmentation: > %.2f", a.Mesh.FragmentationThreshold),
		}
	case config.AnalyzerTexture:
		return []string{
			fmt.Sprintf("Min Count:     %d", a.Texture.MinCount),
			fmt.Sprintf("Max Size:      %d", a.Texture.MaxSize),
			fmt.Sprintf("Uncompressed:  > %d bytes", a.Texture.UncompressedBytes),
		}
	case config.AnalyzerShader:
		return []string{
			fmt.Sprintf("Max Features:  %d", a.Shader.MaxFeatures),
			fmt.Sprintf("Derived:       %s*", a.Shader.DerivedPrefix),
			fmt.Sprintf("High Cost:     > %g runtime", a.Shader.RuntimeThreshold),
			fmt.Sprintf("Max Union:     %d", a.Shader.MaxUnionFeatures),
			fmt.Sprintf("Cost Function: %s", a.Shader.CostFunction),
		}
	}
	return nil
}
