package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/gookit/color"
	"github.com/mattn/go-runewidth"

	"github.com/dbsmedya/assetprof/internal/orchestrator"
)

// Printer renders a human-readable run summary.
type Printer struct {
	w     io.Writer
	color bool
}

// NewPrinter creates a printer writing to w. Colors are only emitted when
// colored is true.
func NewPrinter(w io.Writer, colored bool) *Printer {
	return &Printer{w: w, color: colored}
}

// PrintSummary writes the header, one status line per analyzer and the
// aggregated suggestions.
func PrintSummary(w io.Writer, r *orchestrator.Report, colored bool) {
	NewPrinter(w, colored).Print(r)
}

// Print renders r.
func (p *Printer) Print(r *orchestrator.Report) {
	p.printHeader("Asset Profile: %s", r.Summary.ProjectPath)
	fmt.Fprintf(p.w, "Run:       %s\n", r.Summary.RunID)
	fmt.Fprintf(p.w, "Started:   %s\n", r.Summary.StartedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(p.w, "Duration:  %.2fs\n", r.Summary.DurationSeconds)
	fmt.Fprintf(p.w, "Analyzers: %d succeeded, %d failed\n", r.Summary.AnalyzersRun, r.Summary.AnalyzersFailed)
	fmt.Fprintln(p.w)

	names := r.AnalyzerNames()
	nameWidth := 0
	for _, name := range names {
		nameWidth = max(nameWidth, visualWidth(name))
	}

	p.printSection("Analyzers")
	for _, name := range names {
		label := runewidth.FillRight(name, nameWidth)
		if res, ok := r.Result(name); ok {
			fmt.Fprintf(p.w, "  %s  %s  %s\n", label, p.paint(color.Green, "OK    "), formatSummary(res.Summary()))
			continue
		}
		if failure, ok := r.Failure(name); ok {
			fmt.Fprintf(p.w, "  %s  %s  %s: %v\n", label, p.paint(color.Red, "FAILED"), failure.Stage, failure.Err)
		}
	}

	if r.Suggestions.Len() > 0 {
		fmt.Fprintln(p.w)
		p.printSection("Suggestions")
		for el := r.Suggestions.Front(); el != nil; el = el.Next() {
			fmt.Fprintf(p.w, "  %s:\n", p.paint(color.Cyan, el.Key))
			for _, s := range el.Value {
				fmt.Fprintf(p.w, "    - %s\n", s)
			}
		}
	}
}

func (p *Printer) paint(c color.Color, s string) string {
	if !p.color {
		return s
	}
	return c.Sprint(s)
}

// printHeader prints a formatted header
func (p *Printer) printHeader(format string, args ...any) {
	title := fmt.Sprintf(format, args...)
	width := visualWidth(title) + 4
	fmt.Fprintln(p.w, strings.Repeat("=", width))
	fmt.Fprintf(p.w, "  %s\n", p.paint(color.OpBold, title))
	fmt.Fprintln(p.w, strings.Repeat("=", width))
}

// printSection prints a section header
func (p *Printer) printSection(title string) {
	fmt.Fprintf(p.w, "[%s]\n", title)
	fmt.Fprintln(p.w, strings.Repeat("-", visualWidth(title)+2))
}

// formatSummary renders summary numbers as sorted key=value pairs.
func formatSummary(summary map[string]any) string {
	keys := make([]string, 0, len(summary))
	for k := range summary {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		var v string
		switch x := summary[k].(type) {
		case float64:
			v = fmt.Sprintf("%.2f", x)
		default:
			v = fmt.Sprint(x)
		}
		parts = append(parts, k+"="+v)
	}
	return strings.Join(parts, " ")
}

// visualWidth returns the terminal width of s, counting wide characters twice.
func visualWidth(s string) int {
	return runewidth.StringWidth(s)
}
