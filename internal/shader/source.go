// Package shader implements shader variant analysis: feature extraction,
// variant space enumeration, dependency tracking and cost ranking.
package shader

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strings"
)

// Feature is a named boolean toggle on a shader. Its identity is its name.
type Feature string

// BranchCounts tallies control-flow keywords in a shader source.
type BranchCounts struct {
	If     int `json:"if" yaml:"if"`
	Else   int `json:"else" yaml:"else"`
	Switch int `json:"switch" yaml:"switch"`
	For    int `json:"for" yaml:"for"`
}

// Total returns the sum of all branch keywords.
func (b BranchCounts) Total() int {
	return b.If + b.Else + b.Switch + b.For
}

// Source is the parsed summary of one shader file.
type Source struct {
	Features []Feature    // sorted, unique
	Branches BranchCounts
	Lines    int
}

// Complexity scores a shader: branches*2 + features*1.5 + lines*0.1.
func (s *Source) Complexity() float64 {
	return float64(s.Branches.Total())*2 + float64(len(s.Features))*1.5 + float64(s.Lines)*0.1
}

var (
	pragmaPattern = regexp.MustCompile(`^\s*#\s*pragma\s+(multi_compile|shader_feature)\w*\s+(.*)$`)
	definePattern = regexp.MustCompile(`^\s*#\s*define\s+(\w+)`)
	tokenPattern  = regexp.MustCompile(`\w+`)

	ifPattern     = regexp.MustCompile(`\bif\b`)
	elsePattern   = regexp.MustCompile(`\belse\b`)
	switchPattern = regexp.MustCompile(`\bswitch\b`)
	forPattern    = regexp.MustCompile(`\bfor\b`)
)

// maxLineBytes bounds a single source line.
const maxLineBytes = 1024 * 1024

// Parse reads shader source and extracts its features, branch counts and line count.
//
// Features come from "#pragma multi_compile" and "#pragma shader_feature"
// keyword lists (the "_" placeholder is skipped) and from "#define" names.
func Parse(r io.Reader) (*Source, error) {
	src := &Source{}
	seen := make(map[Feature]bool)
	add := func(name string) {
		if strings.Trim(name, "_") == "" {
			return
		}
		f := Feature(name)
		if !seen[f] {
			seen[f] = true
			src.Features = append(src.Features, f)
		}
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for scanner.Scan() {
		line := scanner.Text()
		src.Lines++

		if m := pragmaPattern.FindStringSubmatch(line); m != nil {
			keywords := m[2]
			if i := strings.Index(keywords, "//"); i >= 0 {
				keywords = keywords[:i]
			}
			for _, tok := range tokenPattern.FindAllString(keywords, -1) {
				add(tok)
			}
		} else if m := definePattern.FindStringSubmatch(line); m != nil {
			add(m[1])
		}

		src.Branches.If += len(ifPattern.FindAllStringIndex(line, -1))
		src.Branches.Else += len(elsePattern.FindAllStringIndex(line, -1))
		src.Branches.Switch += len(switchPattern.FindAllStringIndex(line, -1))
		src.Branches.For += len(forPattern.FindAllStringIndex(line, -1))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read shader source: %w", err)
	}

	sort.Slice(src.Features, func(i, j int) bool { return src.Features[i] < src.Features[j] })
	return src, nil
}
