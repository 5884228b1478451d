package shader

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sort"
	"strings"
)

// Cost is the simulated price of a variant. Both fields are non-negative.
type Cost struct {
	Compile float64 `json:"compile" yaml:"compile"`
	Runtime float64 `json:"runtime" yaml:"runtime"`
}

// CostFunc prices a variant. Implementations must be deterministic and safe
// for concurrent use.
type CostFunc func(Variant) Cost

const (
	compileBase = 0.1
	compileStep = 0.2
	runtimeBase = 0.05
	runtimeStep = 0.15
	jitterScale = 0.9
)

// DefaultCost grows linearly with the feature count plus a jitter below one
// feature step, seeded from the variant fingerprint. Runtime cost is
// therefore strictly increasing in the number of features.
func DefaultCost(v Variant) Cost {
	n := float64(v.Len()) + jitterScale*jitter(v)
	return Cost{
		Compile: compileBase * (1 + compileStep*n),
		Runtime: runtimeBase * (1 + runtimeStep*n),
	}
}

// FeatureCountCost prices a variant at its feature count.
func FeatureCountCost(v Variant) Cost {
	n := float64(v.Len())
	return Cost{Compile: n, Runtime: n}
}

// CostFuncByName resolves a cost function name from configuration.
func CostFuncByName(name string) (CostFunc, error) {
	switch strings.ToLower(name) {
	case "", "default":
		return DefaultCost, nil
	case "feature_count":
		return FeatureCountCost, nil
	default:
		return nil, fmt.Errorf("unknown cost function %q (must be 'default' or 'feature_count')", name)
	}
}

// jitter maps the fingerprint to [0, 1).
func jitter(v Variant) float64 {
	return float64(binary.BigEndian.Uint64(v.Fingerprint[:8])>>11) / (1 << 53)
}

// Ranked pairs a variant with its cost.
type Ranked struct {
	Variant Variant `json:"variant" yaml:"variant"`
	Cost    Cost    `json:"cost" yaml:"cost"`
}

// Ranking is a list of variants sorted by runtime cost, most expensive first.
type Ranking []Ranked

// Rank prices every variant and sorts by runtime cost descending. Ties are
// broken by fingerprint so the result is stable. A nil cost uses DefaultCost.
func Rank(variants []Variant, cost CostFunc) Ranking {
	if cost == nil {
		cost = DefaultCost
	}

	ranking := make(Ranking, len(variants))
	for i, v := range variants {
		ranking[i] = Ranked{Variant: v, Cost: cost(v)}
	}

	sort.SliceStable(ranking, func(i, j int) bool {
		a, b := ranking[i], ranking[j]
		if a.Cost.Runtime != b.Cost.Runtime {
			return a.Cost.Runtime > b.Cost.Runtime
		}
		return bytes.Compare(a.Variant.Fingerprint[:], b.Variant.Fingerprint[:]) < 0
	})
	return ranking
}

// Worst returns the n most expensive variants.
func (r Ranking) Worst(n int) Ranking {
	if n < 0 {
		n = 0
	}
	if n > len(r) {
		n = len(r)
	}
	return r[:n]
}

// HighCost returns the variants whose runtime cost exceeds threshold, in rank order.
func (r Ranking) HighCost(threshold float64) Ranking {
	var out Ranking
	for _, ranked := range r {
		if ranked.Cost.Runtime > threshold {
			out = append(out, ranked)
		}
	}
	return out
}

// Totals returns summed compile and runtime costs.
func (r Ranking) Totals() Cost {
	var total Cost
	for _, ranked := range r {
		total.Compile += ranked.Cost.Compile
		total.Runtime += ranked.Cost.Runtime
	}
	return total
}

// DefaultMaxUnionFeatures is the union size above which a plan flags too many features.
const DefaultMaxUnionFeatures = 5

// Plan is the optimization advice derived from high-cost variants.
type Plan struct {
	HighCost        int       `json:"high_cost_variants" yaml:"high_cost_variants"`
	Common          []Feature `json:"common_features" yaml:"common_features"`
	Union           []Feature `json:"union_features" yaml:"union_features"`
	TooManyFeatures bool      `json:"too_many_features" yaml:"too_many_features"`
	Recommendations []string  `json:"recommendations" yaml:"recommendations"`
}

// PlanFor intersects and unions the feature sets of the high-cost variants.
// A non-empty intersection suggests pre-compiling; a union larger than
// maxUnion flags too many features. An empty input yields an empty plan.
func PlanFor(high Ranking, maxUnion int) Plan {
	plan := Plan{HighCost: len(high)}
	if len(high) == 0 {
		return plan
	}

	counts := make(map[Feature]int)
	for _, ranked := range high {
		for _, f := range ranked.Variant.Features {
			counts[f]++
		}
	}
	for f, c := range counts {
		plan.Union = append(plan.Union, f)
		if c == len(high) {
			plan.Common = append(plan.Common, f)
		}
	}
	plan.Union = Normalize(plan.Union)
	plan.Common = Normalize(plan.Common)

	if len(plan.Common) > 0 {
		plan.Recommendations = append(plan.Recommendations,
			fmt.Sprintf("Consider pre-compiling variants with features: %s", strings.Join(names(plan.Common), ", ")))
	}
	if len(plan.Union) > maxUnion {
		plan.TooManyFeatures = true
		plan.Recommendations = append(plan.Recommendations,
			"Too many features enabled. Consider reducing feature combinations.")
	}
	return plan
}
