// Package value defines the tagged value model used to describe snippet
// results and expected-output annotations.
//
// Values are an explicit variant type (Undefined, Null, Bool, Number, String,
// Array, Object) with defined deep-equality rules: arrays compare element by
// element in order, objects compare by exact key set with order ignored.
// Comparison never relies on runtime type coercion.
package value

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Kind identifies the variant stored in a Value.
type Kind int

// Value kinds, ordered roughly by complexity.
const (
	Undefined Kind = iota
	Null
	Bool
	Number
	String
	Array
	Object
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case Undefined:
		return "undefined"
	case Null:
		return "null"
	case Bool:
		return "bool"
	case Number:
		return "number"
	case String:
		return "string"
	case Array:
		return "array"
	case Object:
		return "object"
	default:
		return "unknown"
	}
}

// Value is a single tagged value. Only the field matching Kind is meaningful.
type Value struct {
	Kind   Kind
	Bool   bool
	Num    float64
	Str    string
	Elems  []Value          // Array elements, in order
	Fields map[string]Value // Object fields, order irrelevant
}

// NewUndefined returns the undefined value.
func NewUndefined() Value { return Value{Kind: Undefined} }

// NewNull returns the null value.
func NewNull() Value { return Value{Kind: Null} }

// NewBool returns a boolean value.
func NewBool(b bool) Value { return Value{Kind: Bool, Bool: b} }

// NewNumber returns a numeric value.
func NewNumber(n float64) Value { return Value{Kind: Number, Num: n} }

// NewString returns a string value.
func NewString(s string) Value { return Value{Kind: String, Str: s} }

// NewArray returns an array value with the given elements.
func NewArray(elems ...Value) Value { return Value{Kind: Array, Elems: elems} }

// NewObject returns an object value with the given fields.
func NewObject(fields map[string]Value) Value { return Value{Kind: Object, Fields: fields} }

// Equal reports deep structural equality between v and other.
// Arrays are equal when they have the same length and pairwise-equal elements.
// Objects are equal when their key sets match exactly and each key maps to an
// equal value. NaN compares equal to NaN so that comparison is reflexive for
// every representable value.
func (v Value) Equal(other Value) bool {
	if v.Kind != other.Kind {
		return false
	}

	switch v.Kind {
	case Undefined, Null:
		return true
	case Bool:
		return v.Bool == other.Bool
	case Number:
		if math.IsNaN(v.Num) && math.IsNaN(other.Num) {
			return true
		}
		return v.Num == other.Num
	case String:
		return v.Str == other.Str
	case Array:
		if len(v.Elems) != len(other.Elems) {
			return false
		}
		for i := range v.Elems {
			if !v.Elems[i].Equal(other.Elems[i]) {
				return false
			}
		}
		return true
	case Object:
		if len(v.Fields) != len(other.Fields) {
			return false
		}
		for key, val := range v.Fields {
			otherVal, ok := other.Fields[key]
			if !ok || !val.Equal(otherVal) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// String renders the value in a canonical single-line form. Object keys are
// emitted in sorted order so equal values always render identically.
func (v Value) String() string {
	var sb strings.Builder
	v.write(&sb)
	return sb.String()
}

func (v Value) write(sb *strings.Builder) {
	switch v.Kind {
	case Undefined:
		sb.WriteString("undefined")
	case Null:
		sb.WriteString("null")
	case Bool:
		sb.WriteString(strconv.FormatBool(v.Bool))
	case Number:
		sb.WriteString(formatNumber(v.Num))
	case String:
		sb.WriteString(strconv.Quote(v.Str))
	case Array:
		sb.WriteString("[")
		for i, elem := range v.Elems {
			if i > 0 {
				sb.WriteString(", ")
			}
			elem.write(sb)
		}
		sb.WriteString("]")
	case Object:
		keys := make([]string, 0, len(v.Fields))
		for key := range v.Fields {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		sb.WriteString("{")
		for i, key := range keys {
			if i > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(sb, "%s: ", key)
			field := v.Fields[key]
			field.write(sb)
		}
		sb.WriteString("}")
	}
}

// formatNumber renders a float the way JavaScript does for the common cases:
// integral values without a decimal point, everything else in shortest form.
func formatNumber(n float64) string {
	if math.IsNaN(n) {
		return "NaN"
	}
	if math.IsInf(n, 1) {
		return "Infinity"
	}
	if math.IsInf(n, -1) {
		return "-Infinity"
	}
	if n == math.Trunc(n) && math.Abs(n) < 1e15 {
		return strconv.FormatInt(int64(n), 10)
	}
	return strconv.FormatFloat(n, 'g', -1, 64)
}

// FromGo converts an exported Go representation (as produced by the JS
// engine's Export) into a tagged Value. Unknown types are rendered through
// fmt so conversion never fails.
func FromGo(raw interface{}) Value {
	switch t := raw.(type) {
	case nil:
		return NewNull()
	case bool:
		return NewBool(t)
	case int:
		return NewNumber(float64(t))
	case int32:
		return NewNumber(float64(t))
	case int64:
		return NewNumber(float64(t))
	case float32:
		return NewNumber(float64(t))
	case float64:
		return NewNumber(t)
	case string:
		return NewString(t)
	case []interface{}:
		elems := make([]Value, len(t))
		for i, e := range t {
			elems[i] = FromGo(e)
		}
		return NewArray(elems...)
	case map[string]interface{}:
		fields := make(map[string]Value, len(t))
		for k, e := range t {
			fields[k] = FromGo(e)
		}
		return NewObject(fields)
	default:
		return NewString(fmt.Sprintf("%v", t))
	}
}
