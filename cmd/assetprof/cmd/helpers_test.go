package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

// writeFile creates name (which may contain directories) under dir and
// returns its path.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

// withFlags resets every package-level flag for the duration of a test and
// captures outputWriter into the returned buffer.
func withFlags(t *testing.T, configPath string) *bytes.Buffer {
	t.Helper()

	saved := struct {
		cfgFile, logLevel, logFormat, reportFormat, reportOutput string
		workers                                                  int
		timeoutSeconds                                           float64
		metricsFile                                              string
		noColor, noStore, watch                                  bool
		debounceMS                                               int
		historyLimit                                             int
		historyAll, historyReport                                bool
		historyRun                                               string
	}{
		cfgFile, logLevel, logFormat, reportFormat, reportOutput,
		workers, timeoutSeconds, analyzeMetricsFile, analyzeNoColor, analyzeNoStore,
		analyzeWatch, analyzeDebounceMS,
		historyLimit, historyAll, historyReport, historyRun,
	}
	t.Cleanup(func() {
		cfgFile, logLevel, logFormat = saved.cfgFile, saved.logLevel, saved.logFormat
		reportFormat, reportOutput = saved.reportFormat, saved.reportOutput
		workers, timeoutSeconds = saved.workers, saved.timeoutSeconds
		analyzeMetricsFile, analyzeNoColor, analyzeNoStore = saved.metricsFile, saved.noColor, saved.noStore
		analyzeWatch, analyzeDebounceMS = saved.watch, saved.debounceMS
		historyLimit, historyAll, historyReport, historyRun = saved.historyLimit, saved.historyAll, saved.historyReport, saved.historyRun
		storeOpener = nil
		resetOutputWriter()
	})

	cfgFile = configPath
	logLevel, logFormat, reportFormat, reportOutput = "", "", "", ""
	workers, timeoutSeconds = 0, 0
	analyzeMetricsFile, analyzeNoColor, analyzeNoStore = "", true, false
	analyzeWatch, analyzeDebounceMS = false, 500
	historyLimit, historyAll, historyReport, historyRun = 10, false, false, ""

	buf := &bytes.Buffer{}
	setOutputWriter(buf)
	return buf
}

// quietConfig is a config that keeps logs below error level out of test output.
const quietConfig = `
logging:
  level: error
`

// materialOnlyConfig enables only the material and shader analyzers.
const materialOnlyConfig = `
analyzers:
  instance:
    enabled: false
  mesh:
    enabled: false
  texture:
    enabled: false
logging:
  level: error
`
