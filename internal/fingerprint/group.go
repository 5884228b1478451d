package fingerprint

import (
	"fmt"

	"github.com/elliotchance/orderedmap/v2"

	"github.com/dbsmedya/assetprof/internal/asset"
)

// KeyFunc maps a record to its grouping fingerprint. It must be deterministic.
type KeyFunc func(asset.Record) (Fingerprint, error)

// AttributeKey fingerprints the named attributes, or the whole bag when no
// names are given. Missing attributes hash as absent.
func AttributeKey(names ...string) KeyFunc {
	return func(r asset.Record) (Fingerprint, error) {
		return Of(r.Attributes, names...)
	}
}

// MissingAttributeError is returned by StrictAttributeKey.
type MissingAttributeError struct {
	Name string
}

func (e *MissingAttributeError) Error() string {
	return fmt.Sprintf("missing attribute %q", e.Name)
}

// StrictAttributeKey is AttributeKey but fails when a named attribute is missing.
func StrictAttributeKey(names ...string) KeyFunc {
	return func(r asset.Record) (Fingerprint, error) {
		for _, name := range names {
			if !r.Attributes.Has(name) {
				return Fingerprint{}, &MissingAttributeError{Name: name}
			}
		}
		return Of(r.Attributes, names...)
	}
}

// GroupingError reports a key function failure on a record.
type GroupingError struct {
	RecordID string
	Err      error
}

func (e *GroupingError) Error() string {
	if e.RecordID == "" {
		return fmt.Sprintf("grouping failed: %v", e.Err)
	}
	return fmt.Sprintf("grouping failed for record %s: %v", e.RecordID, e.Err)
}

func (e *GroupingError) Unwrap() error {
	return e.Err
}

// Bucket is one equivalence class.
type Bucket struct {
	Fingerprint Fingerprint
	records     []asset.Record
}

// Len returns the number of member records.
func (b *Bucket) Len() int {
	return len(b.records)
}

// Records returns a copy of the members in insertion order.
func (b *Bucket) Records() []asset.Record {
	return append([]asset.Record(nil), b.records...)
}

// First returns the first member, the bucket's representative.
func (b *Bucket) First() asset.Record {
	return b.records[0]
}

// Buckets is the frozen output of Group, ordered by first appearance.
type Buckets struct {
	index *orderedmap.OrderedMap[Fingerprint, *Bucket]
	total int
}

// Len returns the number of buckets.
func (b *Buckets) Len() int {
	return b.index.Len()
}

// Total returns the number of grouped records.
func (b *Buckets) Total() int {
	return b.total
}

// Get returns the bucket for a fingerprint.
func (b *Buckets) Get(f Fingerprint) (*Bucket, bool) {
	return b.index.Get(f)
}

// All returns buckets in first-appearance order.
func (b *Buckets) All() []*Bucket {
	out := make([]*Bucket, 0, b.index.Len())
	for el := b.index.Front(); el != nil; el = el.Next() {
		out = append(out, el.Value)
	}
	return out
}

// Group partitions records by key. key is called exactly once per record;
// its first failure aborts grouping with a *GroupingError.
func Group(records []asset.Record, key KeyFunc) (*Buckets, error) {
	index := orderedmap.NewOrderedMap[Fingerprint, *Bucket]()

	for _, rec := range records {
		fp, err := key(rec)
		if err != nil {
			return nil, &GroupingError{RecordID: rec.ID, Err: err}
		}
		bucket, ok := index.Get(fp)
		if !ok {
			bucket = &Bucket{Fingerprint: fp}
			index.Set(fp, bucket)
		}
		bucket.records = append(bucket.records, rec)
	}

	return &Buckets{index: index, total: len(records)}, nil
}
