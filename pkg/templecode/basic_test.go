package templecode

import (
	"context"
	"strings"
	"testing"

	"github.com/antibyte/templecode/pkg/shared"
)

func TestBasicLetAndImplicitAssignment(t *testing.T) {
	i := New()
	run(t, i, strings.Join([]string{
		"10 LET A = 5",
		"20 B = A * 2",
		"30 NAME$ = \"Ada\"",
		"40 END",
	}, "\n"))

	if v := i.GetVariable("A"); v.String() != "5" {
		t.Errorf("A = %q", v.String())
	}
	if v := i.GetVariable("B"); v.String() != "10" {
		t.Errorf("B = %q", v.String())
	}
	if v := i.GetVariable("NAME$"); v.String() != "Ada" {
		t.Errorf("NAME$ = %q", v.String())
	}
}

func TestBasicPrint(t *testing.T) {
	i := New()
	out := run(t, i, strings.Join([]string{
		"10 X = 7",
		"20 PRINT \"X is \"; X",
		"30 PRINT X * 2",
		"40 PRINT",
	}, "\n"))

	want := []string{"X is 7", "14", ""}
	if len(out) != 3 {
		t.Fatalf("output = %v", out)
	}
	for n := range want {
		if out[n] != want[n] {
			t.Errorf("line %d = %q, want %q", n, out[n], want[n])
		}
	}
}

func TestBasicPrintTrailingSemicolon(t *testing.T) {
	i := New()
	run(t, i, "10 PRINT \"no newline\";")

	var last shared.Message
	for _, m := range i.Transcript() {
		if m.Type == shared.MessageTypeText {
			last = m
		}
	}
	if last.Content != "no newline" || !last.NoNewline {
		t.Errorf("trailing semicolon: %+v", last)
	}
}

func TestBasicForNext(t *testing.T) {
	i := New()
	out := run(t, i, strings.Join([]string{
		"10 FOR I = 1 TO 3",
		"20 PRINT I",
		"30 NEXT I",
	}, "\n"))

	want := []string{"1", "2", "3"}
	if len(out) != 3 || out[0] != want[0] || out[1] != want[1] || out[2] != want[2] {
		t.Errorf("output = %v, want %v", out, want)
	}
}

func TestBasicForStep(t *testing.T) {
	i := New()
	out := run(t, i, strings.Join([]string{
		"10 FOR I = 10 TO 1 STEP -3",
		"20 PRINT I",
		"30 NEXT",
	}, "\n"))

	want := []string{"10", "7", "4", "1"}
	if len(out) != len(want) {
		t.Fatalf("output = %v, want %v", out, want)
	}
	for n := range want {
		if out[n] != want[n] {
			t.Errorf("line %d = %q, want %q", n, out[n], want[n])
		}
	}
}

func TestBasicNestedFor(t *testing.T) {
	i := New()
	out := run(t, i, strings.Join([]string{
		"10 FOR I = 1 TO 2",
		"20 FOR J = 1 TO 2",
		"30 PRINT I; \".\"; J",
		"40 NEXT J",
		"50 NEXT I",
	}, "\n"))

	want := []string{"1.1", "1.2", "2.1", "2.2"}
	if len(out) != len(want) {
		t.Fatalf("output = %v, want %v", out, want)
	}
	for n := range want {
		if out[n] != want[n] {
			t.Errorf("line %d = %q, want %q", n, out[n], want[n])
		}
	}
}

func TestBasicNextWithoutFor(t *testing.T) {
	i := New()
	out := run(t, i, "10 NEXT I\n20 PRINT \"ok\"")
	if len(out) != 1 || out[0] != "ok" {
		t.Errorf("NEXT without FOR must be a no-op: %v", out)
	}
}

func TestBasicGoto(t *testing.T) {
	i := New()
	out := run(t, i, strings.Join([]string{
		"10 GOTO 40",
		"20 PRINT \"skipped\"",
		"30 END",
		"40 PRINT \"landed\"",
	}, "\n"))
	if len(out) != 1 || out[0] != "landed" {
		t.Errorf("output = %v, want [landed]", out)
	}
}

func TestBasicGotoUnknownLine(t *testing.T) {
	i := New()
	i.RunProgram(context.Background(), "10 GOTO 999\n20 PRINT \"after\"")

	errSeen := false
	for _, m := range i.Transcript() {
		if m.Type == shared.MessageTypeError {
			errSeen = true
		}
	}
	if !errSeen {
		t.Error("GOTO to a missing line must report an error")
	}
	out := i.TextOutput()
	if len(out) != 1 || out[0] != "after" {
		t.Errorf("program must continue after the error: %v", out)
	}
}

func TestBasicGosubReturn(t *testing.T) {
	i := New()
	out := run(t, i, strings.Join([]string{
		"10 PRINT \"one\"",
		"20 GOSUB 100",
		"30 PRINT \"three\"",
		"40 END",
		"100 PRINT \"two\"",
		"110 RETURN",
	}, "\n"))

	want := []string{"one", "two", "three"}
	if len(out) != 3 || out[0] != want[0] || out[1] != want[1] || out[2] != want[2] {
		t.Errorf("output = %v, want %v", out, want)
	}
}

func TestBasicReturnWithoutGosub(t *testing.T) {
	i := New()
	i.RunProgram(context.Background(), "10 RETURN")

	errSeen := false
	for _, m := range i.Transcript() {
		if m.Type == shared.MessageTypeError {
			errSeen = true
		}
	}
	if !errSeen {
		t.Error("RETURN without GOSUB must report an error")
	}
}

func TestBasicIfThenGoto(t *testing.T) {
	i := New()
	out := run(t, i, strings.Join([]string{
		"10 X = 9",
		"20 IF X > 5 THEN 50",
		"30 PRINT \"small\"",
		"40 END",
		"50 PRINT \"big\"",
	}, "\n"))
	if len(out) != 1 || out[0] != "big" {
		t.Errorf("output = %v, want [big]", out)
	}
}

func TestBasicIfThenStatement(t *testing.T) {
	i := New()
	out := run(t, i, strings.Join([]string{
		"10 X = 2",
		"20 IF X = 2 THEN PRINT \"yes\"",
		"30 IF X = 3 THEN PRINT \"no\"",
		"40 PRINT \"done\"",
	}, "\n"))

	want := []string{"yes", "done"}
	if len(out) != 2 || out[0] != want[0] || out[1] != want[1] {
		t.Errorf("output = %v, want %v", out, want)
	}
}

// The THEN branch runs through the full dispatcher, so it can be a
// command of any dialect.
func TestBasicIfCrossDialect(t *testing.T) {
	i := New()
	out := run(t, i, "10 IF 1 = 1 THEN T: from pilot")
	if len(out) != 1 || out[0] != "from pilot" {
		t.Errorf("output = %v, want [from pilot]", out)
	}

	i2 := New()
	run(t, i2, "10 IF 1 = 1 THEN FD 25")
	if n := len(i2.Turtle().Segments()); n != 1 {
		t.Errorf("IF ... THEN FD drew %d segments, want 1", n)
	}
}

// A BASIC IF also feeds the shared match flag, so a following PILOT
// T: can react to it.
func TestBasicIfSetsMatchFlag(t *testing.T) {
	i := New()
	out := run(t, i, strings.Join([]string{
		"10 X = 1",
		"20 IF X = 2 THEN",
		"T: suppressed",
		"T: shown",
	}, "\n"))
	if len(out) != 1 || out[0] != "shown" {
		t.Errorf("output = %v, want [shown]", out)
	}
}

func TestBasicInput(t *testing.T) {
	i := New()
	prompts := []string{}
	i.SetInputFunc(func(prompt string) (string, error) {
		prompts = append(prompts, prompt)
		return "21", nil
	})

	out := run(t, i, strings.Join([]string{
		"10 INPUT \"How many\"; N",
		"20 PRINT N * 2",
	}, "\n"))

	if len(out) != 1 || out[0] != "42" {
		t.Errorf("output = %v, want [42]", out)
	}
	if len(prompts) != 1 || prompts[0] != "How many" {
		t.Errorf("prompts = %v", prompts)
	}
}

func TestBasicRemAndUnknown(t *testing.T) {
	i := New()
	out := run(t, i, "10 REM this is ignored\n20 PRINT \"ok\"")
	if len(out) != 1 || out[0] != "ok" {
		t.Errorf("output = %v, want [ok]", out)
	}
}

func TestSplitTopLevel(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{`"a;b"; c`, []string{`"a;b"`, ` c`}},
		{`MAX(1;2); x`, []string{`MAX(1;2)`, ` x`}},
		{`plain`, []string{`plain`}},
	}
	for _, tt := range tests {
		got := splitTopLevel(tt.in, ';')
		if len(got) != len(tt.want) {
			t.Errorf("splitTopLevel(%q) = %v, want %v", tt.in, got, tt.want)
			continue
		}
		for n := range tt.want {
			if got[n] != tt.want[n] {
				t.Errorf("splitTopLevel(%q)[%d] = %q, want %q", tt.in, n, got[n], tt.want[n])
			}
		}
	}
}
