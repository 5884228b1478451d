// Package report serializes run reports and renders terminal summaries.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/dbsmedya/assetprof/internal/orchestrator"
)

// field is one key of an ordered object.
type field struct {
	key   string
	value any
}

// object is a mapping that serializes its keys in insertion order, in both
// JSON and YAML.
type object []field

func (o object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range o {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.key)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(f.value)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s: %w", f.key, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (o object) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, f := range o {
		key := &yaml.Node{}
		key.SetString(f.key)
		value := &yaml.Node{}
		if err := value.Encode(f.value); err != nil {
			return nil, fmt.Errorf("failed to encode %s: %w", f.key, err)
		}
		node.Content = append(node.Content, key, value)
	}
	return node, nil
}

// failureEntry is the serialized form of an analyzer failure.
type failureEntry struct {
	Stage string `json:"stage" yaml:"stage"`
	Error string `json:"error" yaml:"error"`
}

// Document converts a report into its serializable form: summary, results,
// errors and suggestions, each keyed by analyzer in registration order.
func Document(r *orchestrator.Report) any {
	results := object{}
	for el := r.Results.Front(); el != nil; el = el.Next() {
		results = append(results, field{key: el.Key, value: el.Value})
	}

	errs := object{}
	for el := r.Errors.Front(); el != nil; el = el.Next() {
		errs = append(errs, field{key: el.Key, value: failureEntry{
			Stage: el.Value.Stage,
			Error: el.Value.Err.Error(),
		}})
	}

	suggestions := object{}
	for el := r.Suggestions.Front(); el != nil; el = el.Next() {
		suggestions = append(suggestions, field{key: el.Key, value: el.Value})
	}

	return object{
		{key: "summary", value: r.Summary},
		{key: "results", value: results},
		{key: "errors", value: errs},
		{key: "suggestions", value: suggestions},
	}
}
