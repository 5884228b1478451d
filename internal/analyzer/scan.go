package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// walkFiles calls fn for every regular file under root whose lower-cased
// name has one of the suffixes, in lexical order. A missing root is an
// error; ctx is checked between files.
func walkFiles(ctx context.Context, root string, suffixes []string, fn func(path string) error) error {
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("failed to stat scan root: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("scan root %s is not a directory", root)
	}

	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() || !hasSuffix(d.Name(), suffixes) {
			return nil
		}
		return fn(path)
	})
}

func hasSuffix(name string, suffixes []string) bool {
	lower := strings.ToLower(name)
	for _, s := range suffixes {
		if strings.HasSuffix(lower, s) {
			return true
		}
	}
	return false
}

func decodeJSONFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}

func decodeYAMLFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("invalid YAML: %w", err)
	}
	return nil
}

// relativeID names a record by its path relative to the scan root.
func relativeID(root, path string) string {
	if rel, err := filepath.Rel(root, path); err == nil {
		return filepath.ToSlash(rel)
	}
	return filepath.ToSlash(path)
}

// formatSize renders a byte count with binary units, e.g. "1.50MB".
func formatSize(bytes float64) string {
	for _, unit := range []string{"B", "KB", "MB", "GB"} {
		if bytes < 1024 {
			return fmt.Sprintf("%.2f%s", bytes, unit)
		}
		bytes /= 1024
	}
	return fmt.Sprintf("%.2fTB", bytes)
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
