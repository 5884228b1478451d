package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/dbsmedya/assetprof/internal/orchestrator"
)

type stubResult struct {
	Count       int     `json:"count" yaml:"count"`
	Ratio       float64 `json:"ratio" yaml:"ratio"`
	suggestions []string
}

func (r *stubResult) Summary() map[string]any {
	return map[string]any{"count": r.Count, "ratio": r.Ratio}
}

func (r *stubResult) Suggestions() []string { return r.suggestions }

func sampleReport() *orchestrator.Report {
	r := orchestrator.NewReport()
	r.Summary.RunID = "3f1c2b7a-0000-4000-8000-000000000001"
	r.Summary.ProjectPath = "./game"
	r.Summary.StartedAt = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	r.Summary.DurationSeconds = 1.5
	// Registration order deliberately not alphabetical.
	r.AddResult("texture", &stubResult{Count: 3, Ratio: 0.25, suggestions: []string{"Compress sky"}})
	r.AddFailure(&orchestrator.AnalyzerFailure{Analyzer: "mesh", Stage: orchestrator.StageScan, Err: errors.New("no such dir")})
	r.AddResult("material", &stubResult{Count: 5})
	return r
}

func TestMarshal_JSON(t *testing.T) {
	data, err := Marshal(sampleReport(), FormatJSON)
	require.NoError(t, err)

	var decoded struct {
		Summary     orchestrator.Summary         `json:"summary"`
		Results     map[string]stubResult        `json:"results"`
		Errors      map[string]map[string]string `json:"errors"`
		Suggestions map[string][]string          `json:"suggestions"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, "./game", decoded.Summary.ProjectPath)
	assert.Equal(t, 2, decoded.Summary.AnalyzersRun)
	assert.Equal(t, 1, decoded.Summary.AnalyzersFailed)
	assert.Equal(t, []string{"texture", "mesh", "material"}, decoded.Summary.Analyzers)
	assert.Equal(t, []string{"mesh"}, decoded.Summary.Failed)
	assert.Equal(t, 3, decoded.Results["texture"].Count)
	assert.Equal(t, map[string]string{"stage": "scan", "error": "no such dir"}, decoded.Errors["mesh"])
	assert.Equal(t, []string{"Compress sky"}, decoded.Suggestions["texture"])

	text := string(data)
	assert.Less(t, strings.Index(text, `"texture"`), strings.Index(text, `"material"`),
		"results keep registration order")
	assert.True(t, strings.HasPrefix(text, "{\n  \"summary\""))
}

func TestMarshal_YAML(t *testing.T) {
	data, err := Marshal(sampleReport(), FormatYAML)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, yaml.Unmarshal(data, &decoded))
	summary := decoded["summary"].(map[string]any)
	assert.Equal(t, "./game", summary["project_path"])
	assert.Equal(t, []any{"mesh"}, summary["failed_analyzers"])

	text := string(data)
	assert.True(t, strings.HasPrefix(text, "summary:"))
	assert.Less(t, strings.Index(text, "texture:"), strings.Index(text, "material:"))
	assert.Contains(t, text, "stage: scan")
}

func TestMarshal_UnknownFormat(t *testing.T) {
	_, err := Marshal(sampleReport(), "xml")
	assert.Error(t, err)
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	require.NoError(t, WriteFile(path, sampleReport(), ""))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, json.Valid(data))

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleReport(), FormatJSON))
	assert.Equal(t, string(data), buf.String())
}

func TestPrintSummary(t *testing.T) {
	var buf bytes.Buffer
	PrintSummary(&buf, sampleReport(), false)
	out := buf.String()

	assert.Contains(t, out, "Asset Profile: ./game")
	assert.Contains(t, out, "Analyzers: 2 succeeded, 1 failed")
	assert.Contains(t, out, "  texture   OK      count=3 ratio=0.25\n")
	assert.Contains(t, out, "  mesh      FAILED  scan: no such dir\n")
	assert.Contains(t, out, "  material  OK      count=5 ratio=0.00\n")
	assert.Contains(t, out, "[Suggestions]")
	assert.Contains(t, out, "    - Compress sky\n")
	assert.NotContains(t, out, "\x1b[")
}

func TestVisualWidth(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"mesh", 4},
		{"纹理", 4},
	}
	for _, tt := range tests {
		if got := visualWidth(tt.in); got != tt.want {
			t.Errorf("visualWidth(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
