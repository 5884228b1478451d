package orchestrator

import (
	"time"

	"github.com/elliotchance/orderedmap/v2"

	"github.com/dbsmedya/assetprof/internal/analyzer"
)

// Summary is the headline of a run.
type Summary struct {
	RunID           string    `json:"run_id" yaml:"run_id"`
	ProjectPath     string    `json:"project_path" yaml:"project_path"`
	StartedAt       time.Time `json:"timestamp" yaml:"timestamp"`
	DurationSeconds float64   `json:"duration_seconds" yaml:"duration_seconds"`
	AnalyzersRun    int       `json:"analyzers_run" yaml:"analyzers_run"`
	AnalyzersFailed int       `json:"analyzers_failed" yaml:"analyzers_failed"`
	// Analyzers lists every analyzer that ran, successful or not.
	Analyzers []string `json:"analyzers" yaml:"analyzers"`
	Failed    []string `json:"failed_analyzers" yaml:"failed_analyzers"`
}

// Report is the merged outcome of one run. Results, Errors and Suggestions
// are keyed by analyzer name in registration order.
type Report struct {
	Summary     Summary
	Results     *orderedmap.OrderedMap[string, analyzer.Result]
	Errors      *orderedmap.OrderedMap[string, *AnalyzerFailure]
	Suggestions *orderedmap.OrderedMap[string, []string]

	order []string
}

// NewReport returns an empty report.
func NewReport() *Report {
	return &Report{
		Summary: Summary{
			Analyzers: []string{},
			Failed:    []string{},
		},
		Results:     orderedmap.NewOrderedMap[string, analyzer.Result](),
		Errors:      orderedmap.NewOrderedMap[string, *AnalyzerFailure](),
		Suggestions: orderedmap.NewOrderedMap[string, []string](),
	}
}

// Failed reports whether any analyzer failed.
func (r *Report) Failed() bool {
	return r.Errors.Len() > 0
}

// Result returns the named analyzer's result.
func (r *Report) Result(name string) (analyzer.Result, bool) {
	return r.Results.Get(name)
}

// Failure returns the named analyzer's failure.
func (r *Report) Failure(name string) (*AnalyzerFailure, bool) {
	return r.Errors.Get(name)
}

// AnalyzerNames returns every analyzer in the report, registration order.
func (r *Report) AnalyzerNames() []string {
	return append([]string(nil), r.order...)
}

// AddResult records a successful analyzer and collects its suggestions.
func (r *Report) AddResult(name string, res analyzer.Result) {
	r.order = append(r.order, name)
	r.Summary.Analyzers = append(r.Summary.Analyzers, name)
	r.Results.Set(name, res)
	r.Summary.AnalyzersRun++
	if s, ok := res.(analyzer.Suggester); ok {
		if suggestions := s.Suggestions(); len(suggestions) > 0 {
			r.Suggestions.Set(name, suggestions)
		}
	}
}

// AddFailure records a failed analyzer.
func (r *Report) AddFailure(f *AnalyzerFailure) {
	r.order = append(r.order, f.Analyzer)
	r.Summary.Analyzers = append(r.Summary.Analyzers, f.Analyzer)
	r.Summary.Failed = append(r.Summary.Failed, f.Analyzer)
	r.Errors.Set(f.Analyzer, f)
	r.Summary.AnalyzersFailed++
}
