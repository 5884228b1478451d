package analyzer

import (
	"context"
	"fmt"

	"github.com/dbsmedya/assetprof/internal/asset"
	"github.com/dbsmedya/assetprof/internal/config"
	"github.com/dbsmedya/assetprof/internal/fingerprint"
	"github.com/dbsmedya/assetprof/internal/logger"
	"github.com/dbsmedya/assetprof/internal/optimizer"
)

var sceneSuffixes = []string{".scene.json"}

type sceneFile struct {
	Objects []sceneObject `json:"objects"`
}

type sceneObject struct {
	ID       any            `json:"id"`
	MeshName string         `json:"mesh_name"`
	Mesh     map[string]any `json:"mesh"`
	Position any            `json:"position"`
	Rotation any            `json:"rotation"`
	Scale    any            `json:"scale"`
}

// Instance finds scene objects that draw identical mesh data and could be
// rendered with GPU instancing.
type Instance struct {
	cfg config.GroupingConfig
	log *logger.Logger
}

// NewInstance creates an instancing analyzer.
func NewInstance(cfg config.GroupingConfig, log *logger.Logger) *Instance {
	return &Instance{cfg: cfg, log: log}
}

// Name implements Task.
func (a *Instance) Name() string { return config.AnalyzerInstance }

// Scan reads every *.scene.json file under path and emits one record per
// object. Objects without vertex and index data are skipped.
func (a *Instance) Scan(ctx context.Context, path string) ([]asset.Record, error) {
	var records []asset.Record
	err := walkFiles(ctx, path, sceneSuffixes, func(file string) error {
		var scene sceneFile
		if err := decodeJSONFile(file, &scene); err != nil {
			a.log.Warnw("Skipping scene", "file", file, "error", err)
			return nil
		}

		sceneID := relativeID(path, file)
		for i, obj := range scene.Objects {
			vertices, hasVertices := obj.Mesh["vertices"]
			indices, hasIndices := obj.Mesh["indices"]
			if !hasVertices || !hasIndices {
				a.log.Warnw("Skipping object without mesh data", "scene", sceneID, "index", i)
				continue
			}

			id := fmt.Sprint(obj.ID)
			if obj.ID == nil {
				id = fmt.Sprintf("#%d", i)
			}
			meshName := obj.MeshName
			if meshName == "" {
				meshName = "unnamed"
			}

			attrs := asset.NewAttributes().
				Set("object_id", id).
				Set("mesh_name", meshName).
				Set("vertices", vertices).
				Set("indices", indices).
				Set("position", obj.Position).
				Set("rotation", obj.Rotation).
				Set("scale", obj.Scale)
			records = append(records, asset.NewRecord(sceneID+"/"+id, asset.DomainInstance, attrs))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	a.log.Debugw("Scanned scene objects", "path", path, "count", len(records))
	return records, nil
}

// Transform is an object placement inside an instance group.
type Transform struct {
	Position any `json:"position" yaml:"position"`
	Rotation any `json:"rotation" yaml:"rotation"`
	Scale    any `json:"scale" yaml:"scale"`
}

// InstanceGroup is a set of objects sharing one mesh.
type InstanceGroup struct {
	MeshName          string                  `json:"mesh_name" yaml:"mesh_name"`
	Fingerprint       fingerprint.Fingerprint `json:"fingerprint" yaml:"fingerprint"`
	InstanceCount     int                     `json:"instance_count" yaml:"instance_count"`
	OriginalDrawCalls int                     `json:"original_draw_calls" yaml:"original_draw_calls"`
	Transforms        []Transform             `json:"transforms" yaml:"transforms"`
}

// InstanceRecommendation is the advice for one instance group.
type InstanceRecommendation struct {
	MeshName          string `json:"mesh_name" yaml:"mesh_name"`
	InstanceCount     int    `json:"instance_count" yaml:"instance_count"`
	DrawCallReduction int    `json:"draw_call_reduction" yaml:"draw_call_reduction"`
	Recommendation    string `json:"recommendation" yaml:"recommendation"`
}

// InstanceResult is the instancing analyzer report.
type InstanceResult struct {
	TotalObjects    int                      `json:"total_objects" yaml:"total_objects"`
	UniqueMeshes    int                      `json:"unique_meshes" yaml:"unique_meshes"`
	InstanceGroups  int                      `json:"instance_groups" yaml:"instance_groups"`
	DrawCalls       optimizer.Summary        `json:"draw_calls" yaml:"draw_calls"`
	Groups          []InstanceGroup          `json:"groups" yaml:"groups"`
	Recommendations []InstanceRecommendation `json:"recommendations" yaml:"recommendations"`
}

// Summary implements Result.
func (r *InstanceResult) Summary() map[string]any {
	return map[string]any{
		"total_objects":        r.TotalObjects,
		"instance_groups":      r.InstanceGroups,
		"draw_calls_before":    r.DrawCalls.TotalBefore,
		"draw_calls_after":     r.DrawCalls.TotalAfter,
		"reduction_percentage": r.DrawCalls.ReductionPercentage,
	}
}

// Suggestions implements Suggester.
func (r *InstanceResult) Suggestions() []string {
	out := make([]string, 0, len(r.Recommendations))
	for _, rec := range r.Recommendations {
		out = append(out, rec.Recommendation)
	}
	return out
}

// Analyze groups objects by mesh vertex and index data.
func (a *Instance) Analyze(ctx context.Context, records []asset.Record) (Result, error) {
	buckets, err := fingerprint.Group(records, fingerprint.StrictAttributeKey("vertices", "indices"))
	if err != nil {
		return nil, err
	}
	sel, err := optimizer.SelectCandidates(buckets, a.cfg.MinCount)
	if err != nil {
		return nil, err
	}

	result := &InstanceResult{
		TotalObjects:    len(records),
		UniqueMeshes:    buckets.Len(),
		InstanceGroups:  len(sel.Candidates),
		DrawCalls:       sel.Summary,
		Groups:          []InstanceGroup{},
		Recommendations: []InstanceRecommendation{},
	}

	for _, c := range sel.Candidates {
		meshName := c.Records[0].Attributes.String("mesh_name")
		transforms := make([]Transform, 0, len(c.Records))
		for _, rec := range c.Records {
			position, _ := rec.Attributes.Get("position")
			rotation, _ := rec.Attributes.Get("rotation")
			scale, _ := rec.Attributes.Get("scale")
			transforms = append(transforms, Transform{Position: position, Rotation: rotation, Scale: scale})
		}

		result.Groups = append(result.Groups, InstanceGroup{
			MeshName:          meshName,
			Fingerprint:       c.Fingerprint,
			InstanceCount:     c.Before,
			OriginalDrawCalls: c.Before,
			Transforms:        transforms,
		})
		result.Recommendations = append(result.Recommendations, InstanceRecommendation{
			MeshName:          meshName,
			InstanceCount:     c.Before,
			DrawCallReduction: c.Delta,
			Recommendation: fmt.Sprintf("Convert %s to GPU Instancing to reduce %d draw calls",
				meshName, c.Delta),
		})
	}

	return result, nil
}
