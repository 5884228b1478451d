package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dbsmedya/assetprof/internal/orchestrator"
)

// Output formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Marshal serializes the report as indented JSON or YAML. An empty format
// means JSON.
func Marshal(r *orchestrator.Report, format string) ([]byte, error) {
	doc := Document(r)
	switch format {
	case "", FormatJSON:
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to encode report as JSON: %w", err)
		}
		return append(data, '\n'), nil
	case FormatYAML:
		data, err := yaml.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("failed to encode report as YAML: %w", err)
		}
		return data, nil
	default:
		return nil, fmt.Errorf("unsupported report format %q (must be 'json' or 'yaml')", format)
	}
}

// Write serializes the report to w.
func Write(w io.Writer, r *orchestrator.Report, format string) error {
	data, err := Marshal(r, format)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// WriteFile serializes the report to path, replacing any existing file.
func WriteFile(path string, r *orchestrator.Report, format string) error {
	data, err := Marshal(r, format)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
