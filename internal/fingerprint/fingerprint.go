// Package fingerprint computes canonical content hashes for asset attributes
// and groups records into equivalence classes by those hashes.
package fingerprint

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"hash"
	"math"
	"reflect"
	"sort"
	"strconv"

	"github.com/dbsmedya/assetprof/internal/asset"
)

// Size is the digest width in bytes.
const Size = sha256.Size

// Fingerprint is a fixed-width canonical hash.
type Fingerprint [Size]byte

// String returns the lowercase hex form.
func (f Fingerprint) String() string {
	return hex.EncodeToString(f[:])
}

// Short returns the first 12 hex characters, for logs and terminal output.
func (f Fingerprint) Short() string {
	return f.String()[:12]
}

// MarshalText renders the fingerprint as hex in JSON and YAML output.
func (f Fingerprint) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// UnsupportedValueError is returned when a value has no canonical encoding.
type UnsupportedValueError struct {
	Path string
	Type string
}

func (e *UnsupportedValueError) Error() string {
	return fmt.Sprintf("unsupported value type %s at %s", e.Type, e.Path)
}

// Type tags keep values of different kinds from colliding.
const (
	tagNil    byte = 'z'
	tagBool   byte = 'b'
	tagNumber byte = 'f'
	tagString byte = 's'
	tagList   byte = 'l'
	tagMap    byte = 'm'
	tagAbsent byte = 'x'
)

type encoder struct {
	h   hash.Hash
	buf [binary.MaxVarintLen64]byte
}

func newEncoder() *encoder {
	return &encoder{h: sha256.New()}
}

func (e *encoder) sum() Fingerprint {
	var f Fingerprint
	copy(f[:], e.h.Sum(nil))
	return f
}

func (e *encoder) tag(t byte) {
	e.h.Write([]byte{t})
}

func (e *encoder) length(n int) {
	k := binary.PutUvarint(e.buf[:], uint64(n))
	e.h.Write(e.buf[:k])
}

func (e *encoder) str(s string) {
	e.length(len(s))
	e.h.Write([]byte(s))
}

func (e *encoder) number(text string) {
	e.tag(tagNumber)
	e.str(text)
}

const (
	twoTo63 = 1 << 63
	twoTo64 = twoTo63 * 2.0
)

// numberText returns the canonical text of a numeric value. Integers are
// written exactly and whole floats take the same integer form, so int 5 and
// float 5.0 encode identically while 2^53 and 2^53+1 stay apart.
func numberText(v any) (string, bool) {
	switch n := v.(type) {
	case int:
		return strconv.FormatInt(int64(n), 10), true
	case int64:
		return strconv.FormatInt(n, 10), true
	case int32:
		return strconv.FormatInt(int64(n), 10), true
	case int16:
		return strconv.FormatInt(int64(n), 10), true
	case int8:
		return strconv.FormatInt(int64(n), 10), true
	case uint:
		return strconv.FormatUint(uint64(n), 10), true
	case uint64:
		return strconv.FormatUint(n, 10), true
	case uint32:
		return strconv.FormatUint(uint64(n), 10), true
	case uint16:
		return strconv.FormatUint(uint64(n), 10), true
	case uint8:
		return strconv.FormatUint(uint64(n), 10), true
	case float64:
		return floatText(n), true
	case float32:
		return floatText(float64(n)), true
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return strconv.FormatInt(i, 10), true
		}
		if u, err := strconv.ParseUint(string(n), 10, 64); err == nil {
			return strconv.FormatUint(u, 10), true
		}
		f, err := n.Float64()
		if err != nil {
			return "", false
		}
		return floatText(f), true
	}
	return "", false
}

func floatText(f float64) string {
	if f == math.Trunc(f) {
		switch {
		case f >= -twoTo63 && f < twoTo63:
			return strconv.FormatInt(int64(f), 10) // also folds -0
		case f >= twoTo63 && f < twoTo64:
			return strconv.FormatUint(uint64(f), 10)
		}
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func (e *encoder) value(path string, v any) error {
	switch x := v.(type) {
	case nil:
		e.tag(tagNil)
		return nil
	case bool:
		e.tag(tagBool)
		if x {
			e.h.Write([]byte{1})
		} else {
			e.h.Write([]byte{0})
		}
		return nil
	case string:
		e.tag(tagString)
		e.str(x)
		return nil
	case []any:
		e.tag(tagList)
		e.length(len(x))
		for i, el := range x {
			if err := e.value(path+"["+strconv.Itoa(i)+"]", el); err != nil {
				return err
			}
		}
		return nil
	case map[string]any:
		return e.mapping(path, x)
	case *asset.Attributes:
		return e.mapping(path, x.Map())
	}

	if text, ok := numberText(v); ok {
		e.number(text)
		return nil
	}

	// Typed slices and string-keyed maps from decoders or callers.
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		e.tag(tagList)
		e.length(rv.Len())
		for i := 0; i < rv.Len(); i++ {
			if err := e.value(path+"["+strconv.Itoa(i)+"]", rv.Index(i).Interface()); err != nil {
				return err
			}
		}
		return nil
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			break
		}
		m := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			m[iter.Key().String()] = iter.Value().Interface()
		}
		return e.mapping(path, m)
	}

	return &UnsupportedValueError{Path: path, Type: fmt.Sprintf("%T", v)}
}

func (e *encoder) mapping(path string, m map[string]any) error {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	e.tag(tagMap)
	e.length(len(keys))
	for _, k := range keys {
		e.str(k)
		if err := e.value(path+"."+k, m[k]); err != nil {
			return err
		}
	}
	return nil
}

// Of fingerprints an attribute bag. With no names the whole bag is used;
// otherwise only the named attributes, with missing names encoded as absent.
// Attribute insertion order never affects the result.
func Of(attrs *asset.Attributes, names ...string) (Fingerprint, error) {
	if len(names) == 0 {
		names = attrs.Names()
	}
	sorted := append([]string(nil), names...)
	sort.Strings(sorted)

	e := newEncoder()
	e.tag(tagMap)
	e.length(len(sorted))
	for _, name := range sorted {
		e.str(name)
		v, ok := attrs.Get(name)
		if !ok {
			e.tag(tagAbsent)
			continue
		}
		if err := e.value(name, v); err != nil {
			return Fingerprint{}, err
		}
	}
	return e.sum(), nil
}

// Sum fingerprints an ordered sequence of values.
func Sum(values ...any) (Fingerprint, error) {
	e := newEncoder()
	if err := e.value("$", values); err != nil {
		return Fingerprint{}, err
	}
	return e.sum(), nil
}

// Strings fingerprints a string list after sorting a copy of it.
func Strings(items []string) Fingerprint {
	sorted := append([]string(nil), items...)
	sort.Strings(sorted)

	e := newEncoder()
	e.tag(tagList)
	e.length(len(sorted))
	for _, s := range sorted {
		e.tag(tagString)
		e.str(s)
	}
	return e.sum()
}
