package templecode

import (
	"math"
	"strconv"
	"strings"
)

// Value represents a value within the interpreter (number or string).
// All dialects share this representation through the variable store.
type Value struct {
	NumValue  float64 // Numeric value (if IsNumeric is true).
	StrValue  string  // String value (if IsNumeric is false).
	IsNumeric bool    // Flag indicating whether the value is numeric or string.
}

// NumberValue erstellt einen numerischen Wert
func NumberValue(n float64) Value {
	return Value{NumValue: n, IsNumeric: true}
}

// StringValue erstellt einen String-Wert
func StringValue(s string) Value {
	return Value{StrValue: s, IsNumeric: false}
}

// String formats the value for program output. Whole numbers print
// without a decimal point so that integer arithmetic stays readable
// ("15", not "15.000000").
func (v Value) String() string {
	if !v.IsNumeric {
		return v.StrValue
	}
	return FormatNumber(v.NumValue)
}

// FormatNumber formats a float the way classic interpreters print it:
// whole values without a fraction, everything else with the shortest
// round-trip representation.
func FormatNumber(n float64) string {
	if n == math.Trunc(n) && !math.IsInf(n, 0) && math.Abs(n) < 1e15 {
		return strconv.FormatInt(int64(n), 10)
	}
	return strconv.FormatFloat(n, 'g', -1, 64)
}

// IsStringVarName meldet, ob ein Variablenname der $-Konvention für
// Strings folgt (z.B. "NAME$").
func IsStringVarName(name string) bool {
	return strings.HasSuffix(name, "$")
}

// AsBool interprets the value as a condition result. Numbers are true
// when nonzero, strings when non-empty.
func (v Value) AsBool() bool {
	if v.IsNumeric {
		return v.NumValue != 0
	}
	return v.StrValue != ""
}
