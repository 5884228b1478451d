package analyzer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dbsmedya/assetprof/internal/logger"
)

// writeFile creates name (which may contain directories) under dir.
func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func testLogger() *logger.Logger {
	return logger.NewNop()
}
