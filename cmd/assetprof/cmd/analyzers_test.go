package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunAnalyzers(t *testing.T) {
	dir := t.TempDir()
	withFlags(t, writeFile(t, dir, "assetprof.yaml", `
project:
  path: ./game
orchestrator:
  workers: 3
  analyzers: [shader, material]
analyzers:
  texture:
    enabled: false
logging:
  level: error
`))

	var buf bytes.Buffer
	analyzersCmd.SetOut(&buf)
	defer analyzersCmd.SetOut(nil)

	require.NoError(t, runAnalyzers(analyzersCmd, nil))

	out := buf.String()
	assert.Contains(t, out, "Analyzers for ./game:")
	assert.Contains(t, out, "1. shader\n")
	assert.Contains(t, out, "2. material\n")
	assert.Contains(t, out, "-. mesh (disabled)\n")
	assert.Contains(t, out, "-. texture (disabled)\n")
	assert.Contains(t, out, "Max Features:  16")
	assert.Contains(t, out, "Cost Function: default")
	assert.Contains(t, out, "Workers: 3, Timeout: none")
	assert.Contains(t, out, "Total: 2 enabled")
}
