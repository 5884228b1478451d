package shader

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbsmedya/assetprof/internal/fingerprint"
)

func TestEnumerate_FogShadow(t *testing.T) {
	variants, err := Enumerator{}.Enumerate([]Feature{"USE_SHADOW", "USE_FOG"})
	require.NoError(t, err)
	require.Len(t, variants, 4)

	var sets [][]string
	for _, v := range variants {
		sets = append(sets, v.Names())
	}
	assert.Equal(t, [][]string{
		{},
		{"USE_FOG"},
		{"USE_SHADOW"},
		{"USE_FOG", "USE_SHADOW"},
	}, sets)
}

func TestEnumerate_SizeAndDistinct(t *testing.T) {
	for n := 0; n <= 10; n++ {
		features := make([]Feature, n)
		for i := range features {
			features[i] = Feature(fmt.Sprintf("F%02d", i))
		}

		variants, err := Enumerator{}.Enumerate(features)
		require.NoError(t, err)
		assert.Len(t, variants, 1<<n)

		seen := make(map[fingerprint.Fingerprint]bool, len(variants))
		for _, v := range variants {
			assert.False(t, seen[v.Fingerprint], "duplicate fingerprint for %v", v.Names())
			seen[v.Fingerprint] = true
		}
	}
}

func TestEnumerate_FingerprintIndependentOfOrder(t *testing.T) {
	a, err := Enumerator{}.Enumerate([]Feature{"A", "B", "C"})
	require.NoError(t, err)
	b, err := Enumerator{}.Enumerate([]Feature{"C", "A", "B", "A"})
	require.NoError(t, err)
	require.Equal(t, len(a), len(b))

	for i := range a {
		assert.Equal(t, a[i].Fingerprint, b[i].Fingerprint)
	}
	assert.Equal(t, NewVariant("C", "A").Fingerprint, NewVariant("A", "C").Fingerprint)
}

func TestEnumerate_Cap(t *testing.T) {
	features := make([]Feature, 5)
	for i := range features {
		features[i] = Feature(fmt.Sprintf("F%d", i))
	}

	_, err := Enumerator{MaxFeatures: 4}.Enumerate(features)
	require.Error(t, err)

	var tooLarge *VariantSpaceTooLargeError
	require.True(t, errors.As(err, &tooLarge))
	assert.Equal(t, 5, tooLarge.Features)
	assert.Equal(t, 4, tooLarge.Max)
	assert.Contains(t, err.Error(), "32 variants")

	variants, err := Enumerator{MaxFeatures: 5}.Enumerate(features)
	require.NoError(t, err)
	assert.Len(t, variants, 32)
}

func TestEnumerator_Limits(t *testing.T) {
	assert.Equal(t, DefaultMaxFeatures, Enumerator{}.limit())
	assert.Equal(t, DefaultMaxFeatures, Enumerator{MaxFeatures: -1}.limit())
	assert.Equal(t, HardMaxFeatures, Enumerator{MaxFeatures: 64}.limit())
	assert.Equal(t, 20, HardMaxFeatures)

	features := make([]Feature, 17)
	for i := range features {
		features[i] = Feature(fmt.Sprintf("F%d", i))
	}
	_, err := Enumerator{}.Size(features)
	assert.Error(t, err)
	size, err := Enumerator{}.Size(features[:16])
	require.NoError(t, err)
	assert.Equal(t, 65536, size)
}

func TestEnumerator_HardLimitRejectsLargeSpace(t *testing.T) {
	features := make([]Feature, 21)
	for i := range features {
		features[i] = Feature(fmt.Sprintf("F%d", i))
	}
	_, err := Enumerator{MaxFeatures: 30}.Size(features)
	var tooLarge *VariantSpaceTooLargeError
	require.ErrorAs(t, err, &tooLarge)
	assert.Equal(t, 21, tooLarge.Features)
	assert.Equal(t, HardMaxFeatures, tooLarge.Max)

	size, err := Enumerator{MaxFeatures: 30}.Size(features[:20])
	require.NoError(t, err)
	assert.Equal(t, 1<<20, size)
}

func TestVariant_Has(t *testing.T) {
	v := NewVariant("USE_SHADOW", "USE_FOG", "USE_FOG")
	assert.Equal(t, 2, v.Len())
	assert.True(t, v.Has("USE_FOG"))
	assert.True(t, v.Has("USE_SHADOW"))
	assert.False(t, v.Has("FOG"))
	assert.False(t, NewVariant().Has("X"))
}
