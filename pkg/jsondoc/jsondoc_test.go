package jsondoc

import (
	"math"
	"strings"
	"testing"
)

func TestConstructorsAndAccessors(t *testing.T) {
	obj := Object().
		Set("name", String("ada")).
		Set("age", Number(36)).
		Set("tags", Array(String("math"), String("logic"))).
		Set("active", Bool(true)).
		Set("notes", Null())

	if obj.Kind() != KindObject {
		t.Fatalf("Kind() = %v, want %v", obj.Kind(), KindObject)
	}
	if obj.Len() != 5 {
		t.Fatalf("Len() = %d, want 5", obj.Len())
	}

	wantKeys := []string{"name", "age", "tags", "active", "notes"}
	gotKeys := obj.Keys()
	for i, k := range wantKeys {
		if gotKeys[i] != k {
			t.Errorf("Keys()[%d] = %q, want %q", i, gotKeys[i], k)
		}
	}

	name, ok := obj.Get("name")
	if !ok || name.Str() != "ada" {
		t.Errorf("Get(name) = %v, %v", name, ok)
	}

	tags, _ := obj.Get("tags")
	if tags.Len() != 2 || tags.At(0).Str() != "math" {
		t.Errorf("tags = %v", tags.Items())
	}
	if tags.At(5) != nil {
		t.Error("At(out of range) should be nil")
	}

	if v, ok := obj.Get("missing"); ok || v != nil {
		t.Errorf("Get(missing) = %v, %v", v, ok)
	}
}

func TestNilValueIsNull(t *testing.T) {
	var v *Value
	if v.Kind() != KindNull {
		t.Errorf("nil Value Kind() = %v, want %v", v.Kind(), KindNull)
	}
	if v.Preview() != "null" {
		t.Errorf("nil Value Preview() = %q, want %q", v.Preview(), "null")
	}
}

func TestNumberCoercion(t *testing.T) {
	nan := Number(math.NaN())
	if nan.Kind() != KindNull {
		t.Errorf("Number(NaN) kind = %v, want null", nan.Kind())
	}

	lit := NumberLiteral("0.10", 0.10)
	if lit.Literal() != "0.10" {
		t.Errorf("Literal() = %q, want %q", lit.Literal(), "0.10")
	}
	if lit.Float() != 0.10 {
		t.Errorf("Float() = %v, want 0.10", lit.Float())
	}
}

func TestPreview(t *testing.T) {
	tests := []struct {
		name string
		v    *Value
		want string
	}{
		{"object", Object().Set("a", Null()).Set("b", Null()), "{2}"},
		{"empty object", Object(), "{0}"},
		{"array", Array(Number(1), Number(2), Number(3)), "[3]"},
		{"string", String("hi"), `"hi"`},
		{"long string", String(strings.Repeat("x", 60)), `"` + strings.Repeat("x", 40) + `..."`},
		{"number literal", NumberLiteral("1e3", 1000), "1e3"},
		{"number", Number(2.5), "2.5"},
		{"bool", Bool(true), "true"},
		{"null", Null(), "null"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.v.Preview(); got != tt.want {
				t.Errorf("Preview() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEqualIsOrderSensitive(t *testing.T) {
	ab := Object().Set("a", Number(1)).Set("b", Number(2))
	ab2 := Object().Set("a", Number(1)).Set("b", Number(2))
	ba := Object().Set("b", Number(2)).Set("a", Number(1))

	if !Equal(ab, ab2) {
		t.Error("identical objects should be equal")
	}
	if Equal(ab, ba) {
		t.Error("objects with reordered members should not be equal")
	}
}

func TestEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b *Value
		want bool
	}{
		{"numbers equal across literals", NumberLiteral("1", 1), NumberLiteral("1.0", 1), true},
		{"numbers unequal", Number(1), Number(2), false},
		{"strings", String("x"), String("x"), true},
		{"kind mismatch", String("1"), Number(1), false},
		{"nulls", Null(), Null(), true},
		{"nil receivers treated as null", nil, Null(), true},
		{"arrays", Array(Number(1), Null()), Array(Number(1), Null()), true},
		{"array length mismatch", Array(Number(1)), Array(Number(1), Number(2)), false},
		{
			"nested",
			Object().Set("a", Array(Object().Set("b", Bool(true)))),
			Object().Set("a", Array(Object().Set("b", Bool(true)))),
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Equal(tt.a, tt.b); got != tt.want {
				t.Errorf("Equal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMarshalPreservesOrderAndLiterals(t *testing.T) {
	src := `{"z":0,"a":[1,2],"m":{"x":null},"price":0.10}`
	v, err := Decode([]byte(src))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if got := v.Compact(); got != src {
		t.Errorf("Compact() = %s, want %s", got, src)
	}
}

func TestMarshalEmptyContainers(t *testing.T) {
	if got := Object().Compact(); got != "{}" {
		t.Errorf("empty object = %s, want {}", got)
	}
	if got := Array().Compact(); got != "[]" {
		t.Errorf("empty array = %s, want []", got)
	}
}

func TestSummarize(t *testing.T) {
	tests := []struct {
		name string
		v    *Value
		want string
	}{
		{"object", Object().Set("a", Null()), "object with 1 property"},
		{"array", Array(Number(1), Number(2)), "array with 2 items"},
		{"scalar", Bool(false), "boolean false"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.v.Summarize(); got != tt.want {
				t.Errorf("Summarize() = %q, want %q", got, tt.want)
			}
		})
	}
}
