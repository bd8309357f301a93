// Package jsondoc models JSON documents with object member order preserved.
//
// The standard library decodes JSON objects into Go maps, which forget the
// order keys appeared in. Order matters here: the structural parser emits
// child nodes and edges in document order, and layouts tie-break on it. Values
// therefore keep object members in an insertion-ordered map and numbers as
// their original literal text alongside the parsed float.
//
// Construct values either by decoding raw bytes:
//
//	v, err := jsondoc.Decode([]byte(`{"name":"ada","tags":[1,2]}`))
//
// or programmatically:
//
//	v := jsondoc.Object().Set("name", jsondoc.String("ada"))
//
// Values are treated as immutable once built; accessors return copies of
// internal slices.
package jsondoc

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Kind identifies which member of the Value union is populated.
type Kind int

// Value kinds, covering the complete JSON data model.
const (
	KindInvalid Kind = iota
	KindObject
	KindArray
	KindString
	KindNumber
	KindBool
	KindNull
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "boolean"
	case KindNull:
		return "null"
	default:
		return "invalid"
	}
}

// IsContainer reports whether the kind holds child values.
func (k Kind) IsContainer() bool {
	return k == KindObject || k == KindArray
}

// IsPrimitive reports whether the kind is a JSON scalar (string, number,
// boolean, or null).
func (k Kind) IsPrimitive() bool {
	switch k {
	case KindString, KindNumber, KindBool, KindNull:
		return true
	}
	return false
}

// Value is one JSON value: a tagged union over the six JSON kinds.
// The zero Value has KindInvalid; use the constructors.
type Value struct {
	kind    Kind
	members *orderedmap.OrderedMap[string, *Value]
	items   []*Value
	str     string
	raw     string // original number literal, kept for display fidelity
	num     float64
	boolean bool
}

// Member is one object property in document order.
type Member struct {
	Key   string
	Value *Value
}

// Object returns an empty JSON object value.
func Object() *Value {
	return &Value{kind: KindObject, members: orderedmap.New[string, *Value]()}
}

// Array returns a JSON array value holding items in order.
func Array(items ...*Value) *Value {
	return &Value{kind: KindArray, items: items}
}

// String returns a JSON string value.
func String(s string) *Value {
	return &Value{kind: KindString, str: s}
}

// Number returns a JSON number value. NaN and infinities are not
// representable in JSON and coerce to Null.
func Number(f float64) *Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Null()
	}
	return &Value{kind: KindNumber, num: f}
}

// NumberLiteral returns a JSON number value that remembers its source
// literal, e.g. "1e3" or "0.10".
func NumberLiteral(raw string, f float64) *Value {
	v := Number(f)
	if v.kind == KindNumber {
		v.raw = raw
	}
	return v
}

// Bool returns a JSON boolean value.
func Bool(b bool) *Value {
	return &Value{kind: KindBool, boolean: b}
}

// Null returns the JSON null value.
func Null() *Value {
	return &Value{kind: KindNull}
}

// Kind returns the value's kind. A nil receiver reports KindNull, so
// callers can treat absent values as JSON null without guarding.
func (v *Value) Kind() Kind {
	if v == nil {
		return KindNull
	}
	return v.kind
}

// Set appends or replaces an object member, preserving first-insertion
// order, and returns the receiver for chaining. It panics on non-object
// values; programmatic construction is a programmer-controlled path.
func (v *Value) Set(key string, child *Value) *Value {
	if v.Kind() != KindObject {
		panic(fmt.Sprintf("jsondoc: Set on %s value", v.Kind()))
	}
	if child == nil {
		child = Null()
	}
	v.members.Set(key, child)
	return v
}

// Append adds items to an array value and returns the receiver.
func (v *Value) Append(items ...*Value) *Value {
	if v.Kind() != KindArray {
		panic(fmt.Sprintf("jsondoc: Append on %s value", v.Kind()))
	}
	for _, it := range items {
		if it == nil {
			it = Null()
		}
		v.items = append(v.items, it)
	}
	return v
}

// Len returns the number of members (object) or items (array); zero for
// every other kind.
func (v *Value) Len() int {
	switch v.Kind() {
	case KindObject:
		return v.members.Len()
	case KindArray:
		return len(v.items)
	}
	return 0
}

// Get looks up an object member by key.
func (v *Value) Get(key string) (*Value, bool) {
	if v.Kind() != KindObject {
		return nil, false
	}
	return v.members.Get(key)
}

// At returns the array item at index i, or nil if out of range.
func (v *Value) At(i int) *Value {
	if v.Kind() != KindArray || i < 0 || i >= len(v.items) {
		return nil
	}
	return v.items[i]
}

// Members returns the object's properties in document order.
func (v *Value) Members() []Member {
	if v.Kind() != KindObject {
		return nil
	}
	out := make([]Member, 0, v.members.Len())
	for pair := v.members.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, Member{Key: pair.Key, Value: pair.Value})
	}
	return out
}

// Keys returns the object's property names in document order.
func (v *Value) Keys() []string {
	if v.Kind() != KindObject {
		return nil
	}
	out := make([]string, 0, v.members.Len())
	for pair := v.members.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Key)
	}
	return out
}

// Items returns a copy of the array's items in order.
func (v *Value) Items() []*Value {
	if v.Kind() != KindArray {
		return nil
	}
	out := make([]*Value, len(v.items))
	copy(out, v.items)
	return out
}

// Str returns the string payload (empty for other kinds).
func (v *Value) Str() string {
	if v.Kind() != KindString {
		return ""
	}
	return v.str
}

// Float returns the numeric payload (zero for other kinds).
func (v *Value) Float() float64 {
	if v.Kind() != KindNumber {
		return 0
	}
	return v.num
}

// Literal returns the number's source literal when known, else a canonical
// formatting of the float.
func (v *Value) Literal() string {
	if v.Kind() != KindNumber {
		return ""
	}
	if v.raw != "" {
		return v.raw
	}
	return strconv.FormatFloat(v.num, 'g', -1, 64)
}

// Bool returns the boolean payload (false for other kinds).
func (v *Value) Bool() bool {
	return v.Kind() == KindBool && v.boolean
}

// maxPreviewRunes bounds single-line previews of string scalars.
const maxPreviewRunes = 40

// Preview renders the value as a single line suitable for a node row:
// scalars as JSON literals (long strings truncated), containers as a
// bracketed child count.
func (v *Value) Preview() string {
	switch v.Kind() {
	case KindObject:
		return fmt.Sprintf("{%d}", v.members.Len())
	case KindArray:
		return fmt.Sprintf("[%d]", len(v.items))
	case KindString:
		s := v.str
		if runes := []rune(s); len(runes) > maxPreviewRunes {
			s = string(runes[:maxPreviewRunes]) + "..."
		}
		return strconv.Quote(s)
	case KindNumber:
		return v.Literal()
	case KindBool:
		return strconv.FormatBool(v.boolean)
	default:
		return "null"
	}
}

// String implements fmt.Stringer using the preview rendering.
func (v *Value) String() string {
	return v.Preview()
}

// Equal reports deep equality. Object members must match in both content
// and order, since member order is semantically significant here.
func Equal(a, b *Value) bool {
	if a.Kind() != b.Kind() {
		return false
	}
	switch a.Kind() {
	case KindObject:
		if a.members.Len() != b.members.Len() {
			return false
		}
		pb := b.members.Oldest()
		for pa := a.members.Oldest(); pa != nil; pa = pa.Next() {
			if pb == nil || pa.Key != pb.Key || !Equal(pa.Value, pb.Value) {
				return false
			}
			pb = pb.Next()
		}
		return true
	case KindArray:
		if len(a.items) != len(b.items) {
			return false
		}
		for i := range a.items {
			if !Equal(a.items[i], b.items[i]) {
				return false
			}
		}
		return true
	case KindString:
		return a.str == b.str
	case KindNumber:
		return a.num == b.num
	case KindBool:
		return a.boolean == b.boolean
	default:
		return true
	}
}

// MarshalJSON renders the value as standard JSON, preserving object member
// order and original number literals.
func (v *Value) MarshalJSON() ([]byte, error) {
	switch v.Kind() {
	case KindObject:
		return v.members.MarshalJSON()
	case KindArray:
		if v.items == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.items)
	case KindString:
		return json.Marshal(v.str)
	case KindNumber:
		if v.raw != "" {
			return []byte(v.raw), nil
		}
		return json.Marshal(v.num)
	case KindBool:
		return json.Marshal(v.boolean)
	case KindNull:
		return []byte("null"), nil
	default:
		return nil, fmt.Errorf("jsondoc: marshal of invalid value")
	}
}

// UnmarshalJSON decodes data into the receiver via Decode.
func (v *Value) UnmarshalJSON(data []byte) error {
	decoded, err := Decode(data)
	if err != nil {
		return err
	}
	*v = *decoded
	return nil
}

// Compact renders the value as compact JSON. It is a convenience for tests
// and previews; errors collapse to an empty string.
func (v *Value) Compact() string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

// TypeTag returns the scalar type tag for primitive kinds
// ("string", "number", "boolean", "null") and "" for containers.
func (v *Value) TypeTag() string {
	k := v.Kind()
	if !k.IsPrimitive() {
		return ""
	}
	return k.String()
}

// Summarize renders a short human description such as "object with 3
// properties" for log lines and CLI stats.
func (v *Value) Summarize() string {
	switch v.Kind() {
	case KindObject:
		return fmt.Sprintf("object with %d %s", v.Len(), plural(v.Len(), "property", "properties"))
	case KindArray:
		return fmt.Sprintf("array with %d %s", v.Len(), plural(v.Len(), "item", "items"))
	default:
		return v.Kind().String() + " " + strings.TrimSpace(v.Preview())
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
