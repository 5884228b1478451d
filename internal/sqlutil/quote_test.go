package sqlutil

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuoteIdentifier(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"assetprof_runs", "`assetprof_runs`"},
		{"Runs2026", "`Runs2026`"},
		{"run`s", "`run``s`"},
		{"", "``"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, QuoteIdentifier(tt.input))
		})
	}
}

func TestIsValidIdentifier(t *testing.T) {
	tests := []struct {
		name  string
		input string
		valid bool
	}{
		{"plain", "assetprof_runs", true},
		{"digits", "runs_2026", true},
		{"max length", strings.Repeat("a", 64), true},
		{"too long", strings.Repeat("a", 65), false},
		{"empty", "", false},
		{"space", "asset runs", false},
		{"dot", "db.runs", false},
		{"injection", "runs; DROP TABLE x", false},
		{"backtick", "runs`", false},
		{"dash", "asset-runs", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidIdentifier(tt.input); got != tt.valid {
				t.Errorf("IsValidIdentifier(%q) = %v, want %v", tt.input, got, tt.valid)
			}
		})
	}
}

func TestQuoteIdentifierSafe(t *testing.T) {
	quoted, err := QuoteIdentifierSafe("assetprof_runs")
	require.NoError(t, err)
	assert.Equal(t, "`assetprof_runs`", quoted)

	_, err = QuoteIdentifierSafe("runs; DROP TABLE x")
	require.Error(t, err)

	var invalid *InvalidIdentifierError
	require.True(t, errors.As(err, &invalid))
	assert.Equal(t, "runs; DROP TABLE x", invalid.Name)
	assert.Contains(t, err.Error(), "invalid identifier")
}

func TestQuoteQualified(t *testing.T) {
	tests := []struct {
		name     string
		schema   string
		table    string
		expected string
		wantErr  bool
	}{
		{"table only", "", "assetprof_runs", "`assetprof_runs`", false},
		{"schema and table", "profiling", "assetprof_runs", "`profiling`.`assetprof_runs`", false},
		{"bad table", "profiling", "bad-table", "", true},
		{"bad schema", "bad schema", "runs", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := QuoteQualified(tt.schema, tt.table)
			if (err != nil) != tt.wantErr {
				t.Fatalf("QuoteQualified() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.expected {
				t.Errorf("QuoteQualified() = %q, want %q", got, tt.expected)
			}
		})
	}
}
