package templecode

import (
	"context"
	"strings"
	"testing"

	"github.com/antibyte/templecode/pkg/shared"
)

// run loads, runs and returns the text output of a program.
func run(t *testing.T, i *Interpreter, program string) []string {
	t.Helper()
	if !i.RunProgram(context.Background(), program) {
		t.Fatalf("program tripped the iteration guard:\n%s", program)
	}
	return i.TextOutput()
}

func scriptedInput(lines ...string) func(string) (string, error) {
	idx := 0
	return func(prompt string) (string, error) {
		if idx >= len(lines) {
			return "", nil
		}
		line := lines[idx]
		idx++
		return line, nil
	}
}

func TestPilotType(t *testing.T) {
	i := New()
	i.SetVariable("NAME$", StringValue("Ada"))
	i.SetVariable("AGE", NumberValue(36))

	out := run(t, i, "T: hello *NAME$*\nT: you are *AGE*\nT: next year *AGE+1*")
	want := []string{"hello Ada", "you are 36", "next year 37"}
	if len(out) != len(want) {
		t.Fatalf("got %d lines %v, want %d", len(out), out, len(want))
	}
	for n := range want {
		if out[n] != want[n] {
			t.Errorf("line %d = %q, want %q", n, out[n], want[n])
		}
	}
}

func TestPilotTypewriterMode(t *testing.T) {
	i := New()
	run(t, i, "MT: slow text")

	var typed shared.Message
	for _, m := range i.Transcript() {
		if m.Type == shared.MessageTypeTyped {
			typed = m
		}
	}
	if typed.Type != shared.MessageTypeTyped {
		t.Fatal("MT: produced no typed message")
	}
	if typed.Content != "slow text" {
		t.Errorf("typed content = %q", typed.Content)
	}
	if typed.TypeSpeed <= 0 {
		t.Errorf("typed message carries no speed: %d", typed.TypeSpeed)
	}
}

func TestPilotAcceptCoercion(t *testing.T) {
	i := New()
	i.SetInputFunc(scriptedInput("42", "Ada"))

	run(t, i, "A:\nC: DOUBLE = answer * 2\nA: NAME$\nT: *NAME$* *DOUBLE*")

	if v := i.GetVariable("DOUBLE"); v.String() != "84" {
		t.Errorf("numeric input not coerced: DOUBLE = %q", v.String())
	}
	out := i.TextOutput()
	if len(out) == 0 || out[len(out)-1] != "Ada 84" {
		t.Errorf("output = %v, want last line %q", out, "Ada 84")
	}
}

func TestPilotMatchWildcard(t *testing.T) {
	i := New()
	i.SetInputFunc(scriptedInput("YELLOW"))

	out := run(t, i, strings.Join([]string{
		"A:",
		"M: red, *ell*, blue",
		"T: matched",
		"T: always",
	}, "\n"))

	want := []string{"matched", "always"}
	if len(out) != 2 || out[0] != want[0] || out[1] != want[1] {
		t.Errorf("output = %v, want %v", out, want)
	}
}

func TestPilotMatchMiss(t *testing.T) {
	i := New()
	i.SetInputFunc(scriptedInput("no"))

	out := run(t, i, strings.Join([]string{
		"A:",
		"M: yes, sure, ok",
		"T: hidden",
		"T: visible",
	}, "\n"))

	// Das verbrauchte False-Flag unterdrückt genau eine T:-Zeile.
	if len(out) != 1 || out[0] != "visible" {
		t.Errorf("output = %v, want [visible]", out)
	}
}

func TestPilotConditions(t *testing.T) {
	i := New()
	i.SetVariable("X", NumberValue(5))

	out := run(t, i, strings.Join([]string{
		"Y: X > 3",
		"T: big",
		"N: X > 3",
		"T: small",
		"T: end",
	}, "\n"))

	want := []string{"big", "end"}
	if len(out) != 2 || out[0] != want[0] || out[1] != want[1] {
		t.Errorf("output = %v, want %v", out, want)
	}
}

func TestPilotUseThenInterpolate(t *testing.T) {
	i := New()
	out := run(t, i, "U: X = 5\nT: *X*")
	if len(out) != 1 || out[0] != "5" {
		t.Errorf("output = %v, want [5]", out)
	}
}

func TestPilotAgeGating(t *testing.T) {
	i := New()
	i.SetInputFunc(scriptedInput("15"))

	out := run(t, i, strings.Join([]string{
		"A: AGE",
		"Y: AGE < 18",
		"T: minor",
		"N: AGE < 18",
		"T: adult",
	}, "\n"))

	if len(out) != 1 || out[0] != "minor" {
		t.Errorf("output = %v, want [minor]", out)
	}
}

func TestPilotJumpGatedByFlag(t *testing.T) {
	i := New()

	out := run(t, i, strings.Join([]string{
		"Y: 1 = 2",
		"J:*skip",
		"T: not skipped",
		"L:skip",
		"T: done",
	}, "\n"))

	want := []string{"not skipped", "done"}
	if len(out) != 2 || out[0] != want[0] || out[1] != want[1] {
		t.Errorf("output = %v, want %v", out, want)
	}
}

func TestPilotJumpToLabel(t *testing.T) {
	i := New()

	out := run(t, i, strings.Join([]string{
		"J:*end",
		"T: skipped",
		"L:end",
		"T: reached",
	}, "\n"))

	if len(out) != 1 || out[0] != "reached" {
		t.Errorf("output = %v, want [reached]", out)
	}
}

func TestPilotComputeAndUse(t *testing.T) {
	i := New()

	run(t, i, strings.Join([]string{
		"C: N = 6 * 7",
		`U: GREETING$ = "hello"`,
		"U: RAW$ = not an expr at all",
		"E:",
	}, "\n"))

	if v := i.GetVariable("N"); v.String() != "42" {
		t.Errorf("C: assignment: N = %q", v.String())
	}
	if v := i.GetVariable("GREETING$"); v.String() != "hello" {
		t.Errorf("U: quoted literal: %q", v.String())
	}
	// Nicht auswertbare U:-Rümpfe landen als Rohtext in der Variablen
	if v := i.GetVariable("RAW$"); v.String() != "not an expr at all" {
		t.Errorf("U: fallback: %q", v.String())
	}
}

func TestPilotUseSecurityRejection(t *testing.T) {
	i := New()
	i.RunProgram(context.Background(), "U: X = __bad__\nT: still running")

	if v := i.GetVariable("X"); v.String() != "0" {
		t.Errorf("hostile assignment must not store: X = %q", v.String())
	}
	errSeen := false
	for _, m := range i.Transcript() {
		if m.Type == shared.MessageTypeError {
			errSeen = true
		}
	}
	if !errSeen {
		t.Error("security rejection produced no error message")
	}
	// Fehler beenden das Programm nicht
	out := i.TextOutput()
	if len(out) == 0 || out[len(out)-1] != "still running" {
		t.Errorf("program did not continue after error: %v", out)
	}
}

func TestPilotSubroutine(t *testing.T) {
	i := New()

	out := run(t, i, strings.Join([]string{
		"T: main",
		"R: sub",
		"T: after",
		"E:",
		"L:sub",
		"T: inside",
		"C:",
	}, "\n"))

	want := []string{"main", "inside", "after"}
	if len(out) != 3 || out[0] != want[0] || out[1] != want[1] || out[2] != want[2] {
		t.Errorf("output = %v, want %v", out, want)
	}
}

func TestPilotReturnWithoutCall(t *testing.T) {
	i := New()
	i.RunProgram(context.Background(), "C:\nT: after")

	errSeen := false
	for _, m := range i.Transcript() {
		if m.Type == shared.MessageTypeError {
			errSeen = true
		}
	}
	if !errSeen {
		t.Error("C: return without call must report an error")
	}
	out := i.TextOutput()
	if len(out) != 1 || out[0] != "after" {
		t.Errorf("program must continue after the error: %v", out)
	}
}

func TestPilotRemarkIsComment(t *testing.T) {
	i := New()
	out := run(t, i, "R: just a note, no label here\nT: ok")
	if len(out) != 1 || out[0] != "ok" {
		t.Errorf("output = %v, want [ok]", out)
	}
}

func TestPilotGraphicsDot(t *testing.T) {
	i := New()
	run(t, i, "G: DOT 10 20")

	segs := i.Turtle().Segments()
	if len(segs) != 1 {
		t.Fatalf("DOT drew %d segments, want 1", len(segs))
	}
	s := segs[0]
	if s.X1 != 10 || s.Y1 != 20 || s.X2 != 10 || s.Y2 != 20 {
		t.Errorf("DOT segment = %+v", s)
	}
}

func TestPilotGraphicsRect(t *testing.T) {
	i := New()
	run(t, i, "G: RECT 0 0 10 5")
	if n := len(i.Turtle().Segments()); n != 4 {
		t.Errorf("RECT drew %d segments, want 4", n)
	}
}

func TestPilotGraphicsDelegatesToLogo(t *testing.T) {
	i := New()
	run(t, i, "G: FD 50")
	if n := len(i.Turtle().Segments()); n != 1 {
		t.Errorf("G: FD drew %d segments, want 1", n)
	}
}

func TestPilotUnknownCommand(t *testing.T) {
	i := New()
	i.RunProgram(context.Background(), "Q: nope\nT: ok")

	errSeen := false
	for _, m := range i.Transcript() {
		if m.Type == shared.MessageTypeError {
			errSeen = true
		}
	}
	if !errSeen {
		t.Error("unknown command letter must report an error")
	}
}
