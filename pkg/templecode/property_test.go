package templecode

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// A square of any side length returns the turtle to its starting point.
func TestSquareAlwaysCloses(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("REPEAT 4 closes the square", prop.ForAll(
		func(side int) bool {
			i := New()
			tt := i.Turtle()
			startX, startY := tt.X, tt.Y
			i.RunProgram(context.Background(), fmt.Sprintf("REPEAT 4 [FD %d RT 90]", side))
			return math.Abs(tt.X-startX) < 0.1 && math.Abs(tt.Y-startY) < 0.1
		},
		gen.IntRange(1, 500),
	))

	properties.TestingRun(t)
}

// Turning by any angle and back restores the heading.
func TestTurnRoundtrip(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("LT then RT restores heading", prop.ForAll(
		func(deg int) bool {
			i := New()
			start := i.Turtle().Heading
			i.ExecuteDirect(fmt.Sprintf("LT %d RT %d", deg, deg))
			return math.Abs(i.Turtle().Heading-start) < 1e-9
		},
		gen.IntRange(0, 720),
	))

	properties.TestingRun(t)
}

// Whole floats print without a fraction and round-trip through Atoi.
func TestFormatNumberWholeFloats(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("whole values print as integers", prop.ForAll(
		func(n int32) bool {
			s := FormatNumber(float64(n))
			parsed, err := strconv.Atoi(s)
			return err == nil && parsed == int(n)
		},
		gen.Int32(),
	))

	properties.TestingRun(t)
}

// Addition in the expression grammar is commutative for numbers.
func TestAdditionCommutative(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("a+b equals b+a", prop.ForAll(
		func(a, b int16) bool {
			i := New()
			left, err1 := i.EvaluateExpression(fmt.Sprintf("%d + %d", a, b))
			right, err2 := i.EvaluateExpression(fmt.Sprintf("%d + %d", b, a))
			if err1 != nil || err2 != nil {
				return false
			}
			return left.NumValue == right.NumValue
		},
		gen.Int16(),
		gen.Int16(),
	))

	properties.TestingRun(t)
}

// Storing and reading a variable is the identity, whatever the casing
// of the lookup.
func TestVariableRoundtrip(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("set then get returns the value", prop.ForAll(
		func(n float64) bool {
			if math.IsNaN(n) || math.IsInf(n, 0) {
				return true
			}
			i := New()
			i.SetVariable("Slot", NumberValue(n))
			return i.GetVariable("SLOT").NumValue == n && i.GetVariable("slot").NumValue == n
		},
		gen.Float64Range(-1e12, 1e12),
	))

	properties.TestingRun(t)
}
