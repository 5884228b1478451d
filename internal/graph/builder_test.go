package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild(t *testing.T) {
	g, err := Build([]Edge{{From: "FOG", To: "USE_FOG"}, {From: "FOG", To: "USE_FOG"}})
	require.NoError(t, err)
	assert.Equal(t, 2, g.NodeCount())
	assert.Equal(t, 1, g.EdgeCount())
}

func TestBuild_EmptyName(t *testing.T) {
	_, err := Build([]Edge{{From: "", To: "USE_"}})
	assert.Error(t, err)
}

func TestBuildFromMap(t *testing.T) {
	g, err := BuildFromMap(map[string][]string{
		"SHADOW": {"USE_SHADOW"},
		"FOG":    {"USE_FOG", "USE_FOG_HEIGHT"},
	})
	require.NoError(t, err)
	assert.Equal(t, []Edge{
		{From: "FOG", To: "USE_FOG"},
		{From: "FOG", To: "USE_FOG_HEIGHT"},
		{From: "SHADOW", To: "USE_SHADOW"},
	}, g.AllEdges())
	assert.NoError(t, g.Validate())
}

func TestBuildFromMap_Cycle(t *testing.T) {
	g, err := BuildFromMap(map[string][]string{
		"A": {"B"},
		"B": {"A"},
	})
	require.NoError(t, err, "cycles are reported by Validate, not Build")
	assert.Error(t, g.Validate())
}
