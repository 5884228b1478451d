package cmd

import (
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/assetprof/internal/config"
	"github.com/dbsmedya/assetprof/internal/report"
	"github.com/dbsmedya/assetprof/internal/shader"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version and built-in analyzers",
	Long: `Display the assetprof build, the analyzers compiled into it, the report
formats it can write and the shader variant enumeration limits.`,
	Run: runVersion,
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

func runVersion(cmd *cobra.Command, args []string) {
	cmd.Printf("assetprof version %s\n", Version)
	cmd.Printf("  Commit: %s\n", Commit)
	cmd.Printf("  Go version: %s\n", runtime.Version())
	cmd.Printf("  OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	cmd.Printf("  Analyzers: %s\n", strings.Join(config.KnownAnalyzers, ", "))
	cmd.Printf("  Report formats: %s, %s\n", report.FormatJSON, report.FormatYAML)
	cmd.Printf("  Shader features: %d default, %d max\n", shader.DefaultMaxFeatures, shader.HardMaxFeatures)
}
