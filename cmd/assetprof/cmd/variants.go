package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dbsmedya/assetprof/internal/analyzer"
	"github.com/dbsmedya/assetprof/internal/config"
	"github.com/dbsmedya/assetprof/internal/logger"
	"github.com/dbsmedya/assetprof/internal/report"
	"github.com/dbsmedya/assetprof/internal/shader"
)

var variantsCmd = &cobra.Command{
	Use:   "variants [shader-dir]",
	Short: "Enumerate and rank shader variants",
	Long: `Variants runs only the shader analyzer and prints, for each shader, its
features, the size of its variant space and the pre-compile plan derived
from its high-cost variants.

The plan shows:
  - Features common to every high-cost variant (pre-compile candidates)
  - Whether too many features are enabled across them
  - The most expensive variants across all shaders
  - Declared base -> derived feature dependencies and any cycles

Without --format the output is a text listing; with --format json or yaml
the full shader result is printed instead.

Example:
  assetprof variants ./game/shaders
  assetprof variants ./game/shaders --format json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runVariants,
}

func init() {
	rootCmd.AddCommand(variantsCmd)
}

func runVariants(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	path := cfg.Project.Path
	if len(args) > 0 {
		path = args[0]
	}

	log, err := logger.New(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer log.Sync()

	sh, err := analyzer.NewShader(cfg.Analyzers.Shader, log.WithAnalyzer(config.AnalyzerShader))
	if err != nil {
		return err
	}

	ctx := commandContext(cmd)
	result, err := analyzeShaders(ctx, sh, path)
	if err != nil {
		return err
	}

	// Only an explicit --format switches to structured output; the config
	// file's report.format applies to analyze reports.
	switch GetCLIOverrides().ReportFormat {
	case "":
		printVariants(path, result)
		return nil
	case report.FormatJSON:
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode shader result: %w", err)
		}
		fmt.Fprintln(outputWriter, string(data))
		return nil
	case report.FormatYAML:
		data, err := yaml.Marshal(result)
		if err != nil {
			return fmt.Errorf("failed to encode shader result: %w", err)
		}
		fmt.Fprint(outputWriter, string(data))
		return nil
	default:
		return fmt.Errorf("unsupported format %q", GetCLIOverrides().ReportFormat)
	}
}

func analyzeShaders(ctx context.Context, sh *analyzer.Shader, path string) (*analyzer.ShaderResult, error) {
	records, err := sh.Scan(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to scan shaders: %w", err)
	}
	res, err := sh.Analyze(ctx, records)
	if err != nil {
		return nil, fmt.Errorf("failed to analyze shaders: %w", err)
	}
	return res.(*analyzer.ShaderResult), nil
}

func printVariants(path string, r *analyzer.ShaderResult) {
	w := outputWriter

	fmt.Fprintf(w, "\n=== Shader Variants: %s ===\n", path)
	fmt.Fprintf(w, "Shaders: %d  Variants: %d  Features: %d  Skipped: %d\n",
		r.TotalShaders, r.TotalVariants, r.TotalFeatures, len(r.Skipped))

	for _, info := range r.Shaders {
		fmt.Fprintf(w, "\n--- %s ---\n", info.Shader)
		fmt.Fprintf(w, "Features:    %s\n", featureList(info.Features))
		fmt.Fprintf(w, "Variants:    %d (%d inconsistent)\n", info.Variants, info.Inconsistent)
		fmt.Fprintf(w, "Complexity:  %.2f\n", info.Complexity)

		plan := r.Plans[info.Shader]
		fmt.Fprintf(w, "High cost:   %d variant(s)\n", plan.HighCost)
		for _, rec := range plan.Recommendations {
			fmt.Fprintf(w, "  - %s\n", rec)
		}
	}

	if len(r.Performance.WorstVariants) > 0 {
		fmt.Fprintf(w, "\n--- Worst variants ---\n")
		for i, wv := range r.Performance.WorstVariants {
			fmt.Fprintf(w, "%d. %s [%s] runtime=%.4f compile=%.4f\n",
				i+1, wv.Shader, strings.Join(wv.Variant.Names(), " "), wv.RuntimeCost, wv.CompileCost)
		}
	}

	if len(r.Skipped) > 0 {
		fmt.Fprintf(w, "\n--- Skipped ---\n")
		for _, sk := range r.Skipped {
			fmt.Fprintf(w, "%s (%d features): %s\n", sk.Shader, sk.Features, sk.Reason)
		}
	}

	if len(r.Dependencies) > 0 {
		fmt.Fprintf(w, "\n--- Dependencies ---\n")
		for _, e := range r.Dependencies {
			fmt.Fprintf(w, "%s -> %s\n", e.Base, featureList(e.Derived))
		}
		if len(r.DependencyCycles) > 0 {
			fmt.Fprintf(w, "Cycles: %s\n", featureList(r.DependencyCycles))
		}
	}
}

func featureList(features []shader.Feature) string {
	if len(features) == 0 {
		return "(none)"
	}
	names := make([]string, len(features))
	for i, f := range features {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}
