package jsondoc

import (
	"encoding/json"
	stderrors "errors"
	"math"
	"reflect"
	"sort"
	"strconv"

	"github.com/buger/jsonparser"

	"github.com/jsonflow/jsonflow/pkg/errors"
)

// Limits bounds decoding of untrusted documents. Zero fields disable the
// corresponding check.
type Limits struct {
	// MaxDepth caps nesting depth (root is depth 0).
	MaxDepth int
	// MaxBytes caps the raw document size.
	MaxBytes int
}

// DefaultLimits returns the limits applied by Decode.
func DefaultLimits() Limits {
	return Limits{
		MaxDepth: 512,
		MaxBytes: 10 << 20, // 10 MiB
	}
}

// Decode parses raw JSON into a Value with object member order preserved,
// applying DefaultLimits. The scan is token-driven (buger/jsonparser), so
// member order is exactly document order.
func Decode(data []byte) (*Value, error) {
	return DecodeWithLimits(data, DefaultLimits())
}

// DecodeWithLimits is Decode with caller-controlled limits.
//
// Decode validates structure as it walks; malformed input yields an
// INVALID_DOCUMENT error. It does not reject trailing content after the
// root value.
func DecodeWithLimits(data []byte, lim Limits) (*Value, error) {
	if err := errors.ValidateDocumentBytes(data, lim.MaxBytes); err != nil {
		return nil, err
	}

	value, vt, _, err := jsonparser.Get(data)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidDocument, err, "document is not valid JSON")
	}

	v, err := decodeValue(value, vt, 0, lim)
	if err != nil {
		return nil, err
	}
	return v, nil
}

func decodeValue(value []byte, vt jsonparser.ValueType, depth int, lim Limits) (*Value, error) {
	if lim.MaxDepth > 0 && depth > lim.MaxDepth {
		return nil, errors.New(errors.ErrCodeLimitExceeded, "document nesting exceeds %d levels", lim.MaxDepth)
	}

	switch vt {
	case jsonparser.Object:
		obj := Object()
		err := jsonparser.ObjectEach(value, func(key, val []byte, dt jsonparser.ValueType, _ int) error {
			child, err := decodeValue(val, dt, depth+1, lim)
			if err != nil {
				return err
			}
			obj.Set(string(key), child)
			return nil
		})
		if err != nil {
			return nil, asDocumentError(err)
		}
		return obj, nil

	case jsonparser.Array:
		arr := Array()
		var cbErr error
		_, err := jsonparser.ArrayEach(value, func(val []byte, dt jsonparser.ValueType, _ int, elemErr error) {
			if cbErr != nil {
				return
			}
			if elemErr != nil {
				cbErr = elemErr
				return
			}
			child, err := decodeValue(val, dt, depth+1, lim)
			if err != nil {
				cbErr = err
				return
			}
			arr.Append(child)
		})
		if cbErr != nil {
			return nil, asDocumentError(cbErr)
		}
		if err != nil {
			return nil, asDocumentError(err)
		}
		return arr, nil

	case jsonparser.String:
		s, err := jsonparser.ParseString(value)
		if err != nil {
			return nil, asDocumentError(err)
		}
		return String(s), nil

	case jsonparser.Number:
		v := parseNumber(value)
		if v == nil {
			return nil, errors.New(errors.ErrCodeInvalidDocument, "invalid number literal %q", string(value))
		}
		return v, nil

	case jsonparser.Boolean:
		b, err := jsonparser.ParseBoolean(value)
		if err != nil {
			return nil, asDocumentError(err)
		}
		return Bool(b), nil

	case jsonparser.Null:
		return Null(), nil

	default:
		return nil, errors.New(errors.ErrCodeInvalidDocument, "unsupported JSON token %q", string(value))
	}
}

// parseNumber converts a tokenizer-accepted number literal. Out-of-range
// literals saturate instead of failing: they are valid JSON and the literal
// text is what displays anyway. Returns nil for garbage.
func parseNumber(raw []byte) *Value {
	lit := string(raw)
	f, err := strconv.ParseFloat(lit, 64)
	if err != nil {
		if !stderrors.Is(err, strconv.ErrRange) {
			return nil
		}
		if math.IsInf(f, 1) {
			f = math.MaxFloat64
		} else if math.IsInf(f, -1) {
			f = -math.MaxFloat64
		}
	}
	return &Value{kind: KindNumber, raw: lit, num: f}
}

// asDocumentError keeps already-coded errors intact and wraps raw parser
// failures as INVALID_DOCUMENT.
func asDocumentError(err error) error {
	var coded *errors.Error
	if stderrors.As(err, &coded) {
		return err
	}
	return errors.Wrap(errors.ErrCodeInvalidDocument, err, "document is not valid JSON")
}

// FromAny converts an already-decoded Go value into a Value.
//
// Values outside the JSON data model (functions, channels, complex numbers,
// NaN, infinities) coerce to Null rather than failing: a visualization's
// first obligation is graceful degradation, so exotic payloads degrade to a
// null leaf instead of an error. Map-typed input is ordered by sorted key,
// since Go maps carry no insertion order; only Decode sees document order.
// Cyclic values bottom out as Null at the depth limit.
func FromAny(value any) *Value {
	return fromAny(value, 0)
}

func fromAny(value any, depth int) *Value {
	if depth > DefaultLimits().MaxDepth {
		return Null()
	}

	switch x := value.(type) {
	case nil:
		return Null()
	case *Value:
		if x == nil {
			return Null()
		}
		return x
	case bool:
		return Bool(x)
	case string:
		return String(x)
	case float64:
		return Number(x)
	case float32:
		return Number(float64(x))
	case int:
		return Number(float64(x))
	case int8:
		return Number(float64(x))
	case int16:
		return Number(float64(x))
	case int32:
		return Number(float64(x))
	case int64:
		return Number(float64(x))
	case uint:
		return Number(float64(x))
	case uint8:
		return Number(float64(x))
	case uint16:
		return Number(float64(x))
	case uint32:
		return Number(float64(x))
	case uint64:
		return Number(float64(x))
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return Null()
		}
		return NumberLiteral(x.String(), f)
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		obj := Object()
		for _, k := range keys {
			obj.Set(k, fromAny(x[k], depth+1))
		}
		return obj
	case []any:
		arr := Array()
		for _, it := range x {
			arr.Append(fromAny(it, depth+1))
		}
		return arr
	}

	return fromReflect(reflect.ValueOf(value), depth)
}

func fromReflect(rv reflect.Value, depth int) *Value {
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return Null()
		}
		return fromAny(rv.Elem().Interface(), depth)
	case reflect.Slice, reflect.Array:
		arr := Array()
		for i := 0; i < rv.Len(); i++ {
			arr.Append(fromAny(rv.Index(i).Interface(), depth+1))
		}
		return arr
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return marshalRoundTrip(rv)
		}
		keys := make([]string, 0, rv.Len())
		for _, k := range rv.MapKeys() {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		obj := Object()
		for _, k := range keys {
			obj.Set(k, fromAny(rv.MapIndex(reflect.ValueOf(k).Convert(rv.Type().Key())).Interface(), depth+1))
		}
		return obj
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Number(float64(rv.Int()))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return Number(float64(rv.Uint()))
	case reflect.Float32, reflect.Float64:
		return Number(rv.Float())
	case reflect.Bool:
		return Bool(rv.Bool())
	case reflect.String:
		return String(rv.String())
	case reflect.Struct:
		return marshalRoundTrip(rv)
	default:
		// func, chan, complex, unsafe pointer, invalid
		return Null()
	}
}

// marshalRoundTrip coerces struct and exotic-map values through
// encoding/json, honoring json tags and custom marshalers. Anything that
// fails to marshal degrades to Null.
func marshalRoundTrip(rv reflect.Value) *Value {
	b, err := json.Marshal(rv.Interface())
	if err != nil {
		return Null()
	}
	v, err := Decode(b)
	if err != nil {
		return Null()
	}
	return v
}
