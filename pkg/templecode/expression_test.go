package templecode

import (
	"math"
	"strings"
	"testing"
)

func evalOK(t *testing.T, i *Interpreter, expr string) Value {
	t.Helper()
	v, err := i.EvaluateExpression(expr)
	if err != nil {
		t.Fatalf("EvaluateExpression(%q) failed: %v", expr, err)
	}
	return v
}

func TestEvaluateArithmetic(t *testing.T) {
	i := New()

	tests := []struct {
		expr string
		want string
	}{
		{"1+2", "3"},
		{"10-4", "6"},
		{"6*7", "42"},
		{"10/4", "2.5"},
		{"2^10", "1024"},
		{"2^3^2", "512"}, // rechtsassoziativ
		{"10 MOD 3", "1"},
		{"10 % 3", "1"},
		{"-5+3", "-2"},
		{"((10+5)*(2-1))", "15"},
		{"42+3.14", "45.14"},
		{"1+2*3", "7"},
		{"(1+2)*3", "9"},
	}

	for _, tt := range tests {
		v := evalOK(t, i, tt.expr)
		if v.String() != tt.want {
			t.Errorf("%q = %q, want %q", tt.expr, v.String(), tt.want)
		}
	}
}

func TestEvaluateStrings(t *testing.T) {
	i := New()
	i.SetVariable("NAME$", StringValue("world"))

	tests := []struct {
		expr string
		want string
	}{
		{`"hello"`, "hello"},
		{`"hello" + " " + "world"`, "hello world"},
		{`"count: " + 3`, "count: 3"},
		{`NAME$`, "world"},
		{`"hi " + NAME$`, "hi world"},
	}

	for _, tt := range tests {
		v := evalOK(t, i, tt.expr)
		if v.IsNumeric {
			t.Errorf("%q: numeric result, want string", tt.expr)
		}
		if v.String() != tt.want {
			t.Errorf("%q = %q, want %q", tt.expr, v.String(), tt.want)
		}
	}
}

func TestEvaluateComparisonAndLogic(t *testing.T) {
	i := New()
	i.SetVariable("X", NumberValue(5))

	tests := []struct {
		expr string
		want float64
	}{
		{"1 = 1", 1},
		{"1 == 1", 1},
		{"1 <> 2", 1},
		{"1 != 2", 1},
		{"3 < 4", 1},
		{"4 <= 4", 1},
		{"5 > 4", 1},
		{"5 >= 6", 0},
		{"X = 5", 1},
		{`"5" = 5`, 1}, // gemischter Vergleich ueber die Textform
		{`"abc" = "abc"`, 1},
		{`"abc" < "abd"`, 1},
		{"1 AND 1", 1},
		{"1 AND 0", 0},
		{"0 OR 1", 1},
		{"0 OR 0", 0},
		{"NOT 0", 1},
		{"NOT 7", 0},
		{"X > 3 AND X < 10", 1},
	}

	for _, tt := range tests {
		v := evalOK(t, i, tt.expr)
		if !v.IsNumeric || v.NumValue != tt.want {
			t.Errorf("%q = %v, want %v", tt.expr, v, tt.want)
		}
	}
}

func TestEvaluateFunctions(t *testing.T) {
	i := New()

	tests := []struct {
		expr string
		want string
	}{
		{"ABS(-5)", "5"},
		{"INT(3.7)", "3"},
		{"INT(-3.7)", "-4"},
		{"ROUND(2.5)", "3"},
		{"SGN(-2)", "-1"},
		{"SGN(0)", "0"},
		{"SQR(9)", "3"},
		{"SIN(0)", "0"},
		{"COS(0)", "1"},
		{"VAL(\"42\")", "42"},
		{"VAL(\"nope\")", "0"},
		{"LEN(\"hello\")", "5"},
		{"STR$(7)", "7"},
		{"UPPER$(\"hi\")", "HI"},
		{"LOWER$(\"HI\")", "hi"},
		{"MID$(\"hello\", 2, 3)", "ell"},
		{"MID$(\"hello\", 2)", "ello"},
		{"MID$(\"hello\", 99, 3)", ""},
		{"MAX(3, 9)", "9"},
		{"MIN(3, 9)", "3"},
		{"LEN(STR$(1000))", "4"},
	}

	for _, tt := range tests {
		v := evalOK(t, i, tt.expr)
		if v.String() != tt.want {
			t.Errorf("%q = %q, want %q", tt.expr, v.String(), tt.want)
		}
	}
}

func TestEvaluateFunctionErrors(t *testing.T) {
	i := New()

	bad := []string{
		"SQR(-1)",
		"LOG(0)",
		"NOSUCHFN(1)",
		"ABS()",
		"MAX(1)",
	}
	for _, expr := range bad {
		if _, err := i.EvaluateExpression(expr); err == nil {
			t.Errorf("%q: expected error, got none", expr)
		}
	}
}

func TestEvaluateErrors(t *testing.T) {
	i := New()

	bad := []string{
		"",
		"1 +",
		"(1+2",
		"1 # 2",
		`"unterminated`,
		"1 / 0",
		"5 MOD 0",
		`"abc" - 1`,
		`-"abc"`,
	}
	for _, expr := range bad {
		if _, err := i.EvaluateExpression(expr); err == nil {
			t.Errorf("%q: expected error, got none", expr)
		}
	}
}

func TestEvaluateSecurityScreen(t *testing.T) {
	i := New()

	hostile := []string{
		"__anything__",
		"1 + [2]",
		"{1}",
		"EXEC(1)",
	}
	for _, expr := range hostile {
		_, err := i.EvaluateExpression(expr)
		if err == nil {
			t.Fatalf("%q: expected security error, got none", expr)
		}
		if !IsSecurityError(err) {
			t.Errorf("%q: error is not a security error: %v", expr, err)
		}
	}
}

func TestStarVariableSubstitution(t *testing.T) {
	i := New()
	i.SetVariable("N", NumberValue(7))
	i.SetVariable("WORD$", StringValue("seven"))

	v := evalOK(t, i, "*N* + 1")
	if v.String() != "8" {
		t.Errorf("*N* + 1 = %q, want 8", v.String())
	}

	v = evalOK(t, i, `*WORD$* + "!"`)
	if v.String() != "seven!" {
		t.Errorf("*WORD$* concat = %q, want seven!", v.String())
	}

	// Sterne ohne Variablennamen bleiben Multiplikation
	v = evalOK(t, i, "2 * 3 * 4")
	if v.String() != "24" {
		t.Errorf("2 * 3 * 4 = %q, want 24", v.String())
	}
}

func TestInterpolateText(t *testing.T) {
	i := New()
	i.SetVariable("NAME$", StringValue("Ada"))
	i.SetVariable("AGE", NumberValue(36))

	tests := []struct {
		in   string
		want string
	}{
		{"hello *NAME$*", "hello Ada"},
		{"*NAME$* is *AGE*", "Ada is 36"},
		{"next year: *AGE+1*", "next year: 37"},
		{"no tokens here", "no tokens here"},
		{"*not a name*", "*not a name*"},
		{"trailing star *", "trailing star *"},
	}
	for _, tt := range tests {
		if got := i.InterpolateText(tt.in); got != tt.want {
			t.Errorf("InterpolateText(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestUnknownVariableDefaults(t *testing.T) {
	i := New()

	v := evalOK(t, i, "NEVERSET + 1")
	if v.String() != "1" {
		t.Errorf("unset numeric variable: got %q, want 1", v.String())
	}
	v = evalOK(t, i, `NEVERSET$ + "x"`)
	if v.String() != "x" {
		t.Errorf("unset string variable: got %q, want x", v.String())
	}
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{15, "15"},
		{-3, "-3"},
		{2.5, "2.5"},
		{45.14, "45.14"},
		{1000000, "1000000"},
	}
	for _, tt := range tests {
		if got := FormatNumber(tt.in); got != tt.want {
			t.Errorf("FormatNumber(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTrigPrecision(t *testing.T) {
	i := New()
	v := evalOK(t, i, "SIN(1.5707963267948966)")
	if math.Abs(v.NumValue-1) > 1e-9 {
		t.Errorf("SIN(pi/2) = %v, want 1", v.NumValue)
	}
}

func TestCaseInsensitiveVariables(t *testing.T) {
	i := New()
	i.SetVariable("Counter", NumberValue(3))

	v := evalOK(t, i, "COUNTER + counter")
	if v.String() != "6" {
		t.Errorf("case-insensitive lookup: got %q, want 6", v.String())
	}
}

func TestRndRange(t *testing.T) {
	i := New()
	for n := 0; n < 20; n++ {
		v := evalOK(t, i, "RND(10)")
		if !v.IsNumeric || v.NumValue < 0 || v.NumValue >= 10 {
			t.Fatalf("RND(10) out of range: %v", v)
		}
	}
}

// RND works without an argument too and then behaves like RND(0).
func TestRndWithoutArgument(t *testing.T) {
	i := New()
	for n := 0; n < 20; n++ {
		v := evalOK(t, i, "RND()")
		if !v.IsNumeric || v.NumValue < 0 || v.NumValue >= 1 {
			t.Fatalf("RND() out of range: %v", v)
		}
	}
	v := evalOK(t, i, "RND() * 0")
	if v.NumValue != 0 {
		t.Errorf("RND() must compose with arithmetic, got %v", v)
	}
}

func TestErrorMessages(t *testing.T) {
	_, err := New().EvaluateExpression("1/0")
	if err == nil || !strings.Contains(err.Error(), "division by zero") {
		t.Errorf("division error message: %v", err)
	}
}
