package shader

import (
	"fmt"
	"sort"

	"github.com/dbsmedya/assetprof/internal/fingerprint"
)

const (
	// DefaultMaxFeatures caps enumeration at 65536 variants per shader.
	DefaultMaxFeatures = 16
	// HardMaxFeatures is the largest cap an Enumerator accepts. Every
	// variant is materialized and ranked, so 2^20 is about as far as memory
	// allows.
	HardMaxFeatures = 20
)

// Variant is one feature subset of a shader.
type Variant struct {
	Features    []Feature               `json:"features" yaml:"features"` // sorted
	Fingerprint fingerprint.Fingerprint `json:"fingerprint" yaml:"fingerprint"`
}

// NewVariant builds a variant from features in any order. Duplicates collapse.
func NewVariant(features ...Feature) Variant {
	sorted := Normalize(features)
	return Variant{Features: sorted, Fingerprint: fingerprint.Strings(names(sorted))}
}

// Len returns the number of enabled features.
func (v Variant) Len() int {
	return len(v.Features)
}

// Has reports whether f is enabled in the variant.
func (v Variant) Has(f Feature) bool {
	i := sort.Search(len(v.Features), func(i int) bool { return v.Features[i] >= f })
	return i < len(v.Features) && v.Features[i] == f
}

// Names returns the feature names.
func (v Variant) Names() []string {
	return names(v.Features)
}

func names(features []Feature) []string {
	out := make([]string, len(features))
	for i, f := range features {
		out[i] = string(f)
	}
	return out
}

// Normalize returns the features sorted by name with duplicates removed.
func Normalize(features []Feature) []Feature {
	seen := make(map[Feature]bool, len(features))
	out := make([]Feature, 0, len(features))
	for _, f := range features {
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// VariantSpaceTooLargeError is returned when a shader has more features than
// the enumeration cap allows.
type VariantSpaceTooLargeError struct {
	Features int
	Max      int
}

func (e *VariantSpaceTooLargeError) Error() string {
	return fmt.Sprintf("variant space too large: %d features exceeds cap of %d (%d variants)",
		e.Features, e.Max, uint64(1)<<uint(min(e.Features, 63)))
}

// Enumerator produces the full variant space of a feature set.
type Enumerator struct {
	// MaxFeatures caps the feature count. Zero means DefaultMaxFeatures;
	// values above HardMaxFeatures are clamped.
	MaxFeatures int
}

func (e Enumerator) limit() int {
	switch {
	case e.MaxFeatures <= 0:
		return DefaultMaxFeatures
	case e.MaxFeatures > HardMaxFeatures:
		return HardMaxFeatures
	default:
		return e.MaxFeatures
	}
}

// Size returns the number of variants Enumerate would produce, or an error
// when the feature set is over the cap.
func (e Enumerator) Size(features []Feature) (int, error) {
	n := len(Normalize(features))
	if limit := e.limit(); n > limit {
		return 0, &VariantSpaceTooLargeError{Features: n, Max: limit}
	}
	return 1 << uint(n), nil
}

// Enumerate returns all 2^N subsets of features, including the empty and
// full variants. Bit j of the mask selects the j-th feature in name order.
func (e Enumerator) Enumerate(features []Feature) ([]Variant, error) {
	sorted := Normalize(features)
	size, err := e.Size(sorted)
	if err != nil {
		return nil, err
	}

	variants := make([]Variant, 0, size)
	for mask := 0; mask < size; mask++ {
		subset := make([]Feature, 0, len(sorted))
		for j, f := range sorted {
			if mask&(1<<uint(j)) != 0 {
				subset = append(subset, f)
			}
		}
		variants = append(variants, Variant{
			Features:    subset,
			Fingerprint: fingerprint.Strings(names(subset)),
		})
	}
	return variants, nil
}
