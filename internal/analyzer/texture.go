package analyzer

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/dbsmedya/assetprof/internal/asset"
	"github.com/dbsmedya/assetprof/internal/config"
	"github.com/dbsmedya/assetprof/internal/fingerprint"
	"github.com/dbsmedya/assetprof/internal/logger"
	"github.com/dbsmedya/assetprof/internal/optimizer"
)

var textureSuffixes = []string{".texture.yaml", ".texture.yml"}

// Size buckets by largest dimension.
const (
	smallTexture  = 512
	mediumTexture = 1024
	largeTexture  = 2048
)

// compressionSaving is the share of memory a block-compressed format saves.
const compressionSaving = 0.75

var compressedFormats = map[string]bool{"DDS": true, "PVR": true, "KTX": true}

// reportedFormats always appear in the format distribution.
var reportedFormats = []string{"PNG", "JPG", "DDS", "TGA"}

// textureFile is the sidecar written next to an image by the import pipeline.
type textureFile struct {
	Name       string `yaml:"name"`
	Width      int64  `yaml:"width"`
	Height     int64  `yaml:"height"`
	Format     string `yaml:"format"`
	FileSize   int64  `yaml:"file_size"`
	Memory     int64  `yaml:"memory"`
	Compressed *bool  `yaml:"compressed"`
	Checksum   string `yaml:"checksum"`
}

func bytesPerPixel(format string) int64 {
	switch format {
	case "L", "P":
		return 1
	case "RGB":
		return 3
	default:
		return 4
	}
}

// Texture reports size, format and compression statistics and finds
// duplicated images.
type Texture struct {
	cfg config.TextureConfig
	log *logger.Logger
}

// NewTexture creates a texture analyzer.
func NewTexture(cfg config.TextureConfig, log *logger.Logger) *Texture {
	return &Texture{cfg: cfg, log: log}
}

// Name implements Task.
func (t *Texture) Name() string { return config.AnalyzerTexture }

// Scan reads every *.texture.yaml sidecar under path.
func (t *Texture) Scan(ctx context.Context, path string) ([]asset.Record, error) {
	var records []asset.Record
	err := walkFiles(ctx, path, textureSuffixes, func(file string) error {
		var tf textureFile
		if err := decodeYAMLFile(file, &tf); err != nil {
			t.log.Warnw("Skipping texture", "file", file, "error", err)
			return nil
		}
		if tf.Width <= 0 || tf.Height <= 0 {
			t.log.Warnw("Skipping texture without dimensions", "file", file)
			return nil
		}

		id := relativeID(path, file)
		if tf.Name == "" {
			tf.Name = id
		}
		tf.Format = strings.ToUpper(strings.TrimPrefix(tf.Format, "."))
		if tf.Format == "JPEG" {
			tf.Format = "JPG"
		}
		if tf.Memory <= 0 {
			tf.Memory = tf.Width * tf.Height * bytesPerPixel(tf.Format)
		}
		compressed := compressedFormats[tf.Format]
		if tf.Compressed != nil {
			compressed = *tf.Compressed
		}

		attrs := asset.NewAttributes().
			Set("name", tf.Name).
			Set("width", tf.Width).
			Set("height", tf.Height).
			Set("format", tf.Format).
			Set("file_size", tf.FileSize).
			Set("memory", tf.Memory).
			Set("compressed", compressed).
			Set("checksum", tf.Checksum)
		records = append(records, asset.NewRecord(id, asset.DomainTexture, attrs))
		return nil
	})
	if err != nil {
		return nil, err
	}
	t.log.Debugw("Scanned textures", "path", path, "count", len(records))
	return records, nil
}

// SizeDistribution counts textures by largest dimension.
type SizeDistribution struct {
	Small     int `json:"small" yaml:"small"`
	Medium    int `json:"medium" yaml:"medium"`
	Large     int `json:"large" yaml:"large"`
	Oversized int `json:"oversized" yaml:"oversized"`
}

// CompressionStats counts compressed and uncompressed textures.
type CompressionStats struct {
	Compressed   int `json:"compressed" yaml:"compressed"`
	Uncompressed int `json:"uncompressed" yaml:"uncompressed"`
}

// TextureSuggestion is one optimization opportunity.
type TextureSuggestion struct {
	Texture         string   `json:"texture" yaml:"texture"`
	Type            string   `json:"type" yaml:"type"` // oversized, uncompressed or duplicate
	CurrentSize     string   `json:"current_size,omitempty" yaml:"current_size,omitempty"`
	SuggestedSize   string   `json:"suggested_size,omitempty" yaml:"suggested_size,omitempty"`
	SuggestedFormat string   `json:"suggested_format,omitempty" yaml:"suggested_format,omitempty"`
	Duplicates      []string `json:"duplicates,omitempty" yaml:"duplicates,omitempty"`
	MemorySave      float64  `json:"memory_save" yaml:"memory_save"`
}

// TextureResult is the texture analyzer report.
type TextureResult struct {
	TotalTextures       int                 `json:"total_textures" yaml:"total_textures"`
	TotalMemory         int64               `json:"total_memory" yaml:"total_memory"`
	TotalMemoryHuman    string              `json:"total_memory_human" yaml:"total_memory_human"`
	SizeDistribution    SizeDistribution    `json:"size_distribution" yaml:"size_distribution"`
	FormatDistribution  map[string]int      `json:"format_distribution" yaml:"format_distribution"`
	Compression         CompressionStats    `json:"compression_stats" yaml:"compression_stats"`
	DuplicateGroups     int                 `json:"duplicate_groups" yaml:"duplicate_groups"`
	Duplicates          optimizer.Summary   `json:"duplicates" yaml:"duplicates"`
	PotentialMemorySave float64             `json:"potential_memory_save" yaml:"potential_memory_save"`
	SuggestionsList     []TextureSuggestion `json:"suggestions" yaml:"suggestions"`
	Pipeline            []string            `json:"optimization_pipeline" yaml:"optimization_pipeline"`
}

// Summary implements Result.
func (r *TextureResult) Summary() map[string]any {
	return map[string]any{
		"total_textures":        r.TotalTextures,
		"total_memory":          r.TotalMemoryHuman,
		"oversized":             r.SizeDistribution.Oversized,
		"uncompressed":          r.Compression.Uncompressed,
		"potential_memory_save": formatSize(r.PotentialMemorySave),
	}
}

// Suggestions implements Suggester. Pipeline steps come first.
func (r *TextureResult) Suggestions() []string {
	out := append([]string(nil), r.Pipeline...)
	for _, s := range r.SuggestionsList {
		switch s.Type {
		case "oversized":
			out = append(out, fmt.Sprintf("Downscale %s from %s to %s", s.Texture, s.CurrentSize, s.SuggestedSize))
		case "uncompressed":
			out = append(out, fmt.Sprintf("Compress %s (%s) to %s", s.Texture, s.CurrentSize, s.SuggestedFormat))
		case "duplicate":
			out = append(out, fmt.Sprintf("Remove %d duplicates of %s", len(s.Duplicates), s.Texture))
		}
	}
	return out
}

// Analyze computes distributions and collects oversize, compression and
// duplicate suggestions.
func (t *Texture) Analyze(ctx context.Context, records []asset.Record) (Result, error) {
	maxSize := int64(t.cfg.MaxSize)
	result := &TextureResult{
		TotalTextures:      len(records),
		FormatDistribution: make(map[string]int),
		SuggestionsList:    []TextureSuggestion{},
		Pipeline:           []string{},
	}
	for _, f := range reportedFormats {
		result.FormatDistribution[f] = 0
	}

	for _, rec := range records {
		attrs := rec.Attributes
		name := attrs.String("name")
		width, height := attrs.Int("width"), attrs.Int("height")
		memory := attrs.Int("memory")
		fileSize := attrs.Int("file_size")
		compressed := attrs.Bool("compressed")

		result.TotalMemory += memory
		result.FormatDistribution[attrs.String("format")]++
		if compressed {
			result.Compression.Compressed++
		} else {
			result.Compression.Uncompressed++
		}

		largest := max(width, height)
		switch {
		case largest <= smallTexture:
			result.SizeDistribution.Small++
		case largest <= mediumTexture:
			result.SizeDistribution.Medium++
		case largest <= largeTexture:
			result.SizeDistribution.Large++
		default:
			result.SizeDistribution.Oversized++
		}

		if largest > maxSize {
			result.SuggestionsList = append(result.SuggestionsList, TextureSuggestion{
				Texture:       name,
				Type:          "oversized",
				CurrentSize:   fmt.Sprintf("%dx%d", width, height),
				SuggestedSize: fmt.Sprintf("%dx%d", maxSize, maxSize),
				MemorySave:    oversizeSaving(memory, width, height, maxSize),
			})
		}

		if !compressed && fileSize > t.cfg.UncompressedBytes {
			result.SuggestionsList = append(result.SuggestionsList, TextureSuggestion{
				Texture:         name,
				Type:            "uncompressed",
				CurrentSize:     formatSize(float64(fileSize)),
				SuggestedFormat: "DDS/BC7",
				MemorySave:      float64(memory) * compressionSaving,
			})
		}
	}
	result.TotalMemoryHuman = formatSize(float64(result.TotalMemory))

	buckets, err := fingerprint.Group(records,
		fingerprint.AttributeKey("width", "height", "format", "file_size", "checksum"))
	if err != nil {
		return nil, err
	}
	sel, err := optimizer.SelectCandidates(buckets, t.cfg.MinCount)
	if err != nil {
		return nil, err
	}
	result.Duplicates = sel.Summary
	for _, c := range sel.Candidates {
		if c.Delta == 0 {
			continue
		}
		first := c.Records[0].Attributes
		dups := make([]string, 0, c.Delta)
		for _, rec := range c.Records[1:] {
			dups = append(dups, rec.Attributes.String("name"))
		}
		result.DuplicateGroups++
		result.SuggestionsList = append(result.SuggestionsList, TextureSuggestion{
			Texture:    first.String("name"),
			Type:       "duplicate",
			Duplicates: dups,
			MemorySave: float64(first.Int("memory")) * float64(c.Delta),
		})
	}

	for _, s := range result.SuggestionsList {
		result.PotentialMemorySave += s.MemorySave
	}
	result.Pipeline = t.pipeline(result)
	return result, nil
}

// oversizeSaving scales memory down to a max x max footprint.
func oversizeSaving(memory, width, height, maxSize int64) float64 {
	pixels := float64(width * height)
	target := float64(maxSize * maxSize)
	if pixels <= target {
		return 0
	}
	return math.Max(0, float64(memory)*(1-target/pixels))
}

func (t *Texture) pipeline(r *TextureResult) []string {
	steps := []string{}
	if r.Compression.Uncompressed > r.Compression.Compressed {
		steps = append(steps, "Add a batch compression step converting uncompressed textures to DDS")
	}
	if r.SizeDistribution.Oversized > 0 {
		steps = append(steps, fmt.Sprintf("Enforce a texture size standard capping textures at %dx%d",
			t.cfg.MaxSize, t.cfg.MaxSize))
	}
	used := 0
	for _, n := range r.FormatDistribution {
		if n > 0 {
			used++
		}
	}
	if used > 3 {
		steps = append(steps, "Unify texture formats, preferring DDS/BC7 compression")
	}
	return steps
}
