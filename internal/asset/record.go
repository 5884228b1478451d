// Package asset defines the records scanners produce and the analyzers consume.
package asset

import (
	"github.com/elliotchance/orderedmap/v2"
)

// Domain tags which kind of asset a record describes.
type Domain string

const (
	DomainMaterial Domain = "material"
	DomainMesh     Domain = "mesh"
	DomainInstance Domain = "instance"
	DomainTexture  Domain = "texture"
	DomainShader   Domain = "shader"
)

// Record is one scanned asset. Records are built once by a scanner and
// never mutated afterwards.
type Record struct {
	ID         string
	Domain     Domain
	Attributes *Attributes
}

// NewRecord builds a record. A nil attribute bag is replaced by an empty one.
func NewRecord(id string, domain Domain, attrs *Attributes) Record {
	if attrs == nil {
		attrs = NewAttributes()
	}
	return Record{ID: id, Domain: domain, Attributes: attrs}
}

// Attributes is an insertion-ordered bag of named values.
//
// Values are scalars (bool, integers, floats, strings), vectors ([]any,
// []float64, []int, []string) or nested map[string]any.
type Attributes struct {
	values *orderedmap.OrderedMap[string, any]
}

// NewAttributes returns an empty bag.
func NewAttributes() *Attributes {
	return &Attributes{values: orderedmap.NewOrderedMap[string, any]()}
}

// AttributesFrom copies m into a new bag. Map iteration order is random, so
// the bag's insertion order is undefined; fingerprints do not depend on it.
func AttributesFrom(m map[string]any) *Attributes {
	a := NewAttributes()
	for k, v := range m {
		a.values.Set(k, v)
	}
	return a
}

// Set stores a value and returns the bag for chaining. Setting an existing
// name keeps its original position.
func (a *Attributes) Set(name string, value any) *Attributes {
	a.values.Set(name, value)
	return a
}

// Get returns the named value.
func (a *Attributes) Get(name string) (any, bool) {
	if a == nil {
		return nil, false
	}
	return a.values.Get(name)
}

// Has reports whether name is present.
func (a *Attributes) Has(name string) bool {
	_, ok := a.Get(name)
	return ok
}

// Len returns the number of attributes.
func (a *Attributes) Len() int {
	if a == nil {
		return 0
	}
	return a.values.Len()
}

// Names returns attribute names in insertion order.
func (a *Attributes) Names() []string {
	if a == nil {
		return nil
	}
	names := make([]string, 0, a.values.Len())
	for el := a.values.Front(); el != nil; el = el.Next() {
		names = append(names, el.Key)
	}
	return names
}

// Each calls fn for every attribute in insertion order.
func (a *Attributes) Each(fn func(name string, value any)) {
	if a == nil {
		return
	}
	for el := a.values.Front(); el != nil; el = el.Next() {
		fn(el.Key, el.Value)
	}
}

// String returns the named value if it is a string, "" otherwise.
func (a *Attributes) String(name string) string {
	v, _ := a.Get(name)
	s, _ := v.(string)
	return s
}

// Float returns the named value converted to float64.
func (a *Attributes) Float(name string) (float64, bool) {
	v, ok := a.Get(name)
	if !ok {
		return 0, false
	}
	return ToFloat64(v)
}

// Int returns the named value converted to int64, or 0.
func (a *Attributes) Int(name string) int64 {
	v, _ := a.Get(name)
	return ToInt64(v)
}

// Bool returns the named value if it is a bool.
func (a *Attributes) Bool(name string) bool {
	v, _ := a.Get(name)
	b, _ := v.(bool)
	return b
}

// Map returns a plain map copy of the bag.
func (a *Attributes) Map() map[string]any {
	out := make(map[string]any, a.Len())
	a.Each(func(name string, value any) {
		out[name] = value
	})
	return out
}
