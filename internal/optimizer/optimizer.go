// Package optimizer applies a minimum-count policy to fingerprint buckets and
// computes the before/after savings of collapsing each selected bucket.
package optimizer

import (
	"errors"

	"github.com/dbsmedya/assetprof/internal/asset"
	"github.com/dbsmedya/assetprof/internal/fingerprint"
)

// Candidate is a bucket plus its policy decision and cost delta.
// Before is the bucket size; After is 1 since a bucket collapses to one
// draw call or compile unit.
type Candidate struct {
	Fingerprint fingerprint.Fingerprint `json:"fingerprint" yaml:"fingerprint"`
	Records     []asset.Record          `json:"-" yaml:"-"`
	Met         bool                    `json:"met" yaml:"met"`
	Before      int                     `json:"before" yaml:"before"`
	After       int                     `json:"after" yaml:"after"`
	Delta       int                     `json:"delta" yaml:"delta"`
}

// Summary aggregates the selected candidates.
type Summary struct {
	Candidates          int     `json:"candidates" yaml:"candidates"`
	TotalBefore         int     `json:"total_before" yaml:"total_before"`
	TotalAfter          int     `json:"total_after" yaml:"total_after"`
	ReductionPercentage float64 `json:"reduction_percentage" yaml:"reduction_percentage"`
}

// Selection is the result of SelectCandidates.
type Selection struct {
	MinCount   int
	Candidates []Candidate
	Summary    Summary
}

var errNilBuckets = errors.New("nil bucket set")

func normalizeMinCount(minCount int) int {
	if minCount < 1 {
		return 1
	}
	return minCount
}

func newCandidate(b *fingerprint.Bucket, met bool) Candidate {
	size := b.Len()
	return Candidate{
		Fingerprint: b.Fingerprint,
		Records:     b.Records(),
		Met:         met,
		Before:      size,
		After:       1,
		Delta:       size - 1,
	}
}

// Evaluate returns every bucket, in bucket order, with its policy decision.
func Evaluate(b *fingerprint.Buckets, minCount int) ([]Candidate, error) {
	if b == nil {
		return nil, &fingerprint.GroupingError{Err: errNilBuckets}
	}
	minCount = normalizeMinCount(minCount)

	all := b.All()
	out := make([]Candidate, 0, len(all))
	for _, bucket := range all {
		out = append(out, newCandidate(bucket, bucket.Len() >= minCount))
	}
	return out, nil
}

// SelectCandidates keeps buckets with at least minCount members. A minCount
// below 1 is treated as 1.
func SelectCandidates(b *fingerprint.Buckets, minCount int) (*Selection, error) {
	evaluated, err := Evaluate(b, minCount)
	if err != nil {
		return nil, err
	}

	sel := &Selection{MinCount: normalizeMinCount(minCount)}
	for _, c := range evaluated {
		if !c.Met {
			continue
		}
		sel.Candidates = append(sel.Candidates, c)
		sel.Summary.TotalBefore += c.Before
		sel.Summary.TotalAfter += c.After
	}
	sel.Summary.Candidates = len(sel.Candidates)
	sel.Summary.ReductionPercentage = ReductionPercentage(sel.Summary.TotalBefore, sel.Summary.TotalAfter)
	return sel, nil
}

// ReductionPercentage returns (before-after)/before*100, or 0 when before is 0.
func ReductionPercentage(before, after int) float64 {
	if before <= 0 {
		return 0
	}
	return float64(before-after) / float64(before) * 100
}
