package value

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEqualPrimitives(t *testing.T) {
	tests := []struct {
		name  string
		a     Value
		b     Value
		equal bool
	}{
		{"undefined equals undefined", NewUndefined(), NewUndefined(), true},
		{"null equals null", NewNull(), NewNull(), true},
		{"null is not undefined", NewNull(), NewUndefined(), false},
		{"equal bools", NewBool(true), NewBool(true), true},
		{"different bools", NewBool(true), NewBool(false), false},
		{"equal numbers", NewNumber(42), NewNumber(42), true},
		{"different numbers", NewNumber(42), NewNumber(43), false},
		{"NaN equals NaN", NewNumber(math.NaN()), NewNumber(math.NaN()), true},
		{"equal strings", NewString("abc"), NewString("abc"), true},
		{"no coercion between number and string", NewNumber(1), NewString("1"), false},
		{"no coercion between bool and number", NewBool(true), NewNumber(1), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.equal, tt.a.Equal(tt.b))
			assert.Equal(t, tt.equal, tt.b.Equal(tt.a), "equality must be symmetric")
		})
	}
}

func TestEqualArraysOrderSensitive(t *testing.T) {
	a := NewArray(NewNumber(1), NewNumber(2), NewNumber(3))
	b := NewArray(NewNumber(1), NewNumber(2), NewNumber(3))
	c := NewArray(NewNumber(3), NewNumber(2), NewNumber(1))

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c), "array element order must be significant")
	assert.False(t, a.Equal(NewArray(NewNumber(1), NewNumber(2))))
}

func TestEqualObjectsKeyOrderInsensitive(t *testing.T) {
	a := NewObject(map[string]Value{
		"name": NewString("John Doe"),
		"age":  NewNumber(42),
	})
	b := NewObject(map[string]Value{
		"age":  NewNumber(42),
		"name": NewString("John Doe"),
	})

	assert.True(t, a.Equal(b))

	// Key sets must match exactly: an extra key fails in both directions.
	c := NewObject(map[string]Value{
		"name":  NewString("John Doe"),
		"age":   NewNumber(42),
		"email": NewString("john@example.com"),
	})
	assert.False(t, a.Equal(c))
	assert.False(t, c.Equal(a))
}

func TestEqualNested(t *testing.T) {
	mk := func() Value {
		return NewObject(map[string]Value{
			"items": NewArray(NewNumber(1), NewObject(map[string]Value{"x": NewNull()})),
			"ok":    NewBool(true),
		})
	}
	assert.True(t, mk().Equal(mk()))
}

func TestEqualReflexive(t *testing.T) {
	values := []Value{
		NewUndefined(),
		NewNull(),
		NewBool(false),
		NewNumber(math.NaN()),
		NewNumber(-0.5),
		NewString(""),
		NewArray(),
		NewArray(NewString("a"), NewArray(NewNumber(1))),
		NewObject(map[string]Value{"k": NewObject(map[string]Value{})}),
	}
	for _, v := range values {
		assert.True(t, v.Equal(v), "Equal must be reflexive for %s", v)
	}
}

func TestStringCanonicalForm(t *testing.T) {
	tests := []struct {
		name string
		val  Value
		want string
	}{
		{"undefined", NewUndefined(), "undefined"},
		{"null", NewNull(), "null"},
		{"integral number", NewNumber(3), "3"},
		{"float number", NewNumber(2.5), "2.5"},
		{"string quoted", NewString("hi"), `"hi"`},
		{"array", NewArray(NewNumber(1), NewNumber(2)), "[1, 2]"},
		{
			"object keys sorted",
			NewObject(map[string]Value{"b": NewNumber(2), "a": NewNumber(1)}),
			"{a: 1, b: 2}",
		},
		{"NaN", NewNumber(math.NaN()), "NaN"},
		{"negative infinity", NewNumber(math.Inf(-1)), "-Infinity"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.val.String())
		})
	}
}

func TestFromGo(t *testing.T) {
	raw := map[string]interface{}{
		"name":  "John Doe",
		"age":   int64(42),
		"tags":  []interface{}{"a", "b"},
		"extra": nil,
	}

	got := FromGo(raw)
	require.Equal(t, Object, got.Kind)
	assert.True(t, got.Equal(NewObject(map[string]Value{
		"name":  NewString("John Doe"),
		"age":   NewNumber(42),
		"tags":  NewArray(NewString("a"), NewString("b")),
		"extra": NewNull(),
	})))
}
