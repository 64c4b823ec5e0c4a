package evaluator

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Value represents any value the evaluator works with
type Value interface {
	Type() ValueType
	GoValue() interface{}
	String() string
	Equals(Value) bool
}

// ValueType represents the type of a value
type ValueType string

const (
	TypeNil    ValueType = "nil"
	TypeBool   ValueType = "bool"
	TypeNumber ValueType = "number"
	TypeString ValueType = "string"
	TypeMap    ValueType = "map"
)

// NilValue is the result of a conditional whose test failed and that has
// no else branch. It cannot be stored in a context.
type NilValue struct{}

func (v NilValue) Type() ValueType         { return TypeNil }
func (v NilValue) GoValue() interface{}    { return nil }
func (v NilValue) String() string          { return "nil" }
func (v NilValue) Equals(other Value) bool { return other.Type() == TypeNil }

type BoolValue struct {
	Val bool
}

func (v BoolValue) Type() ValueType      { return TypeBool }
func (v BoolValue) GoValue() interface{} { return v.Val }
func (v BoolValue) String() string {
	if v.Val {
		return "true"
	}
	return "false"
}
func (v BoolValue) Equals(other Value) bool {
	switch o := other.(type) {
	case BoolValue:
		return v.Val == o.Val
	case NumberValue:
		return boolToNumber(v.Val).Equals(o)
	default:
		return false
	}
}

// NumberValue holds either an exact integer (IsInt, Int) or a float. Val is
// always set so float arithmetic can use it directly.
type NumberValue struct {
	Val   float64
	Int   int64
	IsInt bool
}

// IntNumber returns the integer form of a number
func IntNumber(i int64) NumberValue {
	return NumberValue{Val: float64(i), Int: i, IsInt: true}
}

// FloatNumber returns the float form of a number
func FloatNumber(f float64) NumberValue {
	return NumberValue{Val: f}
}

func (v NumberValue) Type() ValueType { return TypeNumber }

// GoValue returns an int for integers and integral floats, float64 otherwise
func (v NumberValue) GoValue() interface{} {
	if v.IsInt {
		if i := int(v.Int); int64(i) == v.Int {
			return i
		}
		return v.Int
	}
	if v.Val == math.Trunc(v.Val) && math.Abs(v.Val) <= 1<<53 {
		return int(v.Val)
	}
	return v.Val
}
func (v NumberValue) String() string {
	if v.IsInt {
		return strconv.FormatInt(v.Int, 10)
	}
	return strconv.FormatFloat(v.Val, 'f', -1, 64)
}
func (v NumberValue) Equals(other Value) bool {
	switch o := other.(type) {
	case NumberValue:
		if v.IsInt && o.IsInt {
			return v.Int == o.Int
		}
		return v.Val == o.Val
	case BoolValue:
		return v.Equals(boolToNumber(o.Val))
	default:
		return false
	}
}

// Greater reports v > other, exactly when both are integers
func (v NumberValue) Greater(other NumberValue) bool {
	if v.IsInt && other.IsInt {
		return v.Int > other.Int
	}
	return v.Val > other.Val
}

// Add returns v + other. Two integers stay integers unless the sum
// overflows int64, in which case the result is a float.
func (v NumberValue) Add(other NumberValue) NumberValue {
	if v.IsInt && other.IsInt {
		sum := v.Int + other.Int
		if (sum > v.Int) == (other.Int > 0) {
			return IntNumber(sum)
		}
	}
	return FloatNumber(v.Val + other.Val)
}

// Sub returns v - other with the same overflow rule as Add
func (v NumberValue) Sub(other NumberValue) NumberValue {
	if v.IsInt && other.IsInt {
		diff := v.Int - other.Int
		if (diff < v.Int) == (other.Int > 0) {
			return IntNumber(diff)
		}
	}
	return FloatNumber(v.Val - other.Val)
}

type StringValue struct {
	Val string
}

func (v StringValue) Type() ValueType      { return TypeString }
func (v StringValue) GoValue() interface{} { return v.Val }
func (v StringValue) String() string       { return strconv.Quote(v.Val) }
func (v StringValue) Equals(other Value) bool {
	o, ok := other.(StringValue)
	return ok && v.Val == o.Val
}

// MapValue is a nested mapping reachable through property access
type MapValue struct {
	Vals map[string]Value
}

func (v MapValue) Type() ValueType { return TypeMap }
func (v MapValue) GoValue() interface{} {
	result := make(map[string]interface{}, len(v.Vals))
	for k, val := range v.Vals {
		result[k] = val.GoValue()
	}
	return result
}
func (v MapValue) String() string {
	keys := make([]string, 0, len(v.Vals))
	for k := range v.Vals {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s: %s", k, v.Vals[k].String())
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
func (v MapValue) Equals(other Value) bool {
	otherMap, ok := other.(MapValue)
	if !ok || len(v.Vals) != len(otherMap.Vals) {
		return false
	}
	for k, val := range v.Vals {
		otherVal, ok := otherMap.Vals[k]
		if !ok || !val.Equals(otherVal) {
			return false
		}
	}
	return true
}

// GoToValue converts a Go value held in a context into a Value
func GoToValue(v interface{}) (Value, error) {
	switch val := v.(type) {
	case nil:
		return NilValue{}, nil
	case Value:
		return val, nil
	case bool:
		return BoolValue{Val: val}, nil
	case int:
		return IntNumber(int64(val)), nil
	case int8:
		return IntNumber(int64(val)), nil
	case int16:
		return IntNumber(int64(val)), nil
	case int32:
		return IntNumber(int64(val)), nil
	case int64:
		return IntNumber(val), nil
	case uint:
		return unsignedNumber(uint64(val)), nil
	case uint8:
		return IntNumber(int64(val)), nil
	case uint16:
		return IntNumber(int64(val)), nil
	case uint32:
		return IntNumber(int64(val)), nil
	case uint64:
		return unsignedNumber(val), nil
	case float32:
		return FloatNumber(float64(val)), nil
	case float64:
		return FloatNumber(val), nil
	case string:
		return StringValue{Val: val}, nil
	case map[string]interface{}:
		result := make(map[string]Value, len(val))
		for k, item := range val {
			converted, err := GoToValue(item)
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", k, err)
			}
			result[k] = converted
		}
		return MapValue{Vals: result}, nil
	default:
		return nil, fmt.Errorf("unsupported value of type %T", v)
	}
}

// Truthy reports whether v counts as true in a condition or logical operator
func Truthy(v Value) bool {
	switch val := v.(type) {
	case BoolValue:
		return val.Val
	case NumberValue:
		if val.IsInt {
			return val.Int != 0
		}
		return val.Val != 0
	case StringValue:
		return val.Val != ""
	case MapValue:
		return len(val.Vals) > 0
	default:
		return false
	}
}

// toNumber returns the numeric value of numbers and booleans
func toNumber(v Value) (NumberValue, bool) {
	switch val := v.(type) {
	case NumberValue:
		return val, true
	case BoolValue:
		return boolToNumber(val.Val), true
	default:
		return NumberValue{}, false
	}
}

func boolToNumber(b bool) NumberValue {
	if b {
		return IntNumber(1)
	}
	return IntNumber(0)
}

func unsignedNumber(u uint64) NumberValue {
	if u > math.MaxInt64 {
		return FloatNumber(float64(u))
	}
	return IntNumber(int64(u))
}
