package templecode

import (
	"context"
	"math"
	"strings"
	"testing"

	"github.com/antibyte/templecode/pkg/shared"
)

func TestLogoForward(t *testing.T) {
	i := New()
	tt := i.Turtle()
	startX, startY := tt.X, tt.Y

	run(t, i, "FD 50")

	// Heading 90 zeigt nach oben, Canvas-Y wächst nach unten
	if tt.X != startX || math.Abs(tt.Y-(startY-50)) > 1e-9 {
		t.Errorf("position after FD 50: (%g, %g), start (%g, %g)", tt.X, tt.Y, startX, startY)
	}
	segs := tt.Segments()
	if len(segs) != 1 {
		t.Fatalf("FD 50 drew %d segments, want 1", len(segs))
	}
	if segs[0].X1 != startX || segs[0].Y1 != startY {
		t.Errorf("segment start = (%g, %g)", segs[0].X1, segs[0].Y1)
	}
}

func TestLogoBackAndTurns(t *testing.T) {
	i := New()
	tt := i.Turtle()
	startY := tt.Y

	run(t, i, "BK 30")
	if math.Abs(tt.Y-(startY+30)) > 1e-9 {
		t.Errorf("BK 30 moved to Y=%g, want %g", tt.Y, startY+30)
	}

	run(t, i, "RT 90")
	if tt.Heading != 0 {
		t.Errorf("heading after RT 90 = %g, want 0", tt.Heading)
	}
	run(t, i, "LT 45")
	if tt.Heading != 45 {
		t.Errorf("heading after LT 45 = %g, want 45", tt.Heading)
	}
}

func TestLogoChainedCommands(t *testing.T) {
	i := New()
	run(t, i, "FD 10 RT 90 FD 10")
	if n := len(i.Turtle().Segments()); n != 2 {
		t.Errorf("chained line drew %d segments, want 2", n)
	}
}

func TestLogoPenUpSuppressesDrawing(t *testing.T) {
	i := New()
	run(t, i, "PU FD 50 PD FD 50")

	segs := i.Turtle().Segments()
	if len(segs) != 1 {
		t.Errorf("got %d segments, want 1 (only the pen-down move)", len(segs))
	}
}

func TestLogoRepeatSquare(t *testing.T) {
	i := New()
	tt := i.Turtle()
	startX, startY := tt.X, tt.Y

	run(t, i, "REPEAT 4 [FD 50 RT 90]")

	if n := len(tt.Segments()); n != 4 {
		t.Fatalf("square drew %d segments, want 4", n)
	}
	// Ein geschlossenes Quadrat endet am Startpunkt
	if math.Abs(tt.X-startX) > 0.1 || math.Abs(tt.Y-startY) > 0.1 {
		t.Errorf("square not closed: end (%g, %g), start (%g, %g)", tt.X, tt.Y, startX, startY)
	}
}

func TestLogoNestedRepeat(t *testing.T) {
	i := New()
	run(t, i, "REPEAT 3 [REPEAT 2 [FD 5] RT 120]")
	if n := len(i.Turtle().Segments()); n != 6 {
		t.Errorf("nested repeat drew %d segments, want 6", n)
	}
}

func TestLogoUnbalancedBrackets(t *testing.T) {
	i := New()
	i.RunProgram(context.Background(), "REPEAT 4 [FD 50")

	errSeen := false
	for _, m := range i.Transcript() {
		if m.Type == shared.MessageTypeError {
			errSeen = true
		}
	}
	if !errSeen {
		t.Error("unbalanced brackets must report an error")
	}
}

func TestLogoProcedure(t *testing.T) {
	i := New()
	tt := i.Turtle()
	startX, startY := tt.X, tt.Y

	run(t, i, strings.Join([]string{
		"TO SQUARE :SIZE",
		"REPEAT 4 [FD :SIZE RT 90]",
		"END",
		"SQUARE 80",
	}, "\n"))

	segs := tt.Segments()
	if len(segs) != 4 {
		t.Fatalf("procedure drew %d segments, want 4", len(segs))
	}
	// erste Kante: 80 nach oben
	if math.Abs(segs[0].Y2-(startY-80)) > 1e-9 {
		t.Errorf("first edge ends at Y=%g, want %g", segs[0].Y2, startY-80)
	}
	if math.Abs(tt.X-startX) > 0.1 || math.Abs(tt.Y-startY) > 0.1 {
		t.Errorf("square not closed: (%g, %g)", tt.X, tt.Y)
	}
}

// Procedure parameters shadow globals of the same name only inside the
// call.
func TestLogoProcedureParameterScope(t *testing.T) {
	i := New()
	i.SetVariable("SIZE", NumberValue(999))

	run(t, i, strings.Join([]string{
		"TO STEPPER :SIZE",
		"FD :SIZE",
		"END",
		"STEPPER 10",
	}, "\n"))

	if v := i.GetVariable("SIZE"); v.String() != "999" {
		t.Errorf("global SIZE changed by procedure call: %q", v.String())
	}
}

func TestLogoProcedureExpressionArgs(t *testing.T) {
	i := New()
	i.SetVariable("N", NumberValue(20))
	tt := i.Turtle()
	startY := tt.Y

	run(t, i, strings.Join([]string{
		"TO WALK :D",
		"FD :D",
		"END",
		"WALK N+5",
	}, "\n"))

	if math.Abs(tt.Y-(startY-25)) > 1e-9 {
		t.Errorf("WALK N+5 moved to Y=%g, want %g", tt.Y, startY-25)
	}
}

func TestLogoRecursionStoppedByGuard(t *testing.T) {
	i := New()
	i.SetMaxIterations(200)

	ok := i.RunProgram(context.Background(), strings.Join([]string{
		"TO LOOP",
		"FD 1",
		"LOOP",
		"END",
		"LOOP",
	}, "\n"))

	if ok {
		t.Fatal("unbounded recursion must trip the iteration guard")
	}
	out := i.TextOutput()
	if len(out) == 0 || out[len(out)-1] != MaxIterationsMessage {
		t.Errorf("guard message missing: %v", out)
	}
}

func TestLogoSetposAndHeading(t *testing.T) {
	i := New()
	tt := i.Turtle()

	run(t, i, "PU SETPOS 10 20 SETHEADING -90")
	if tt.X != 10 || tt.Y != 20 {
		t.Errorf("SETPOS: (%g, %g), want (10, 20)", tt.X, tt.Y)
	}
	if tt.Heading != 270 {
		t.Errorf("SETHEADING -90 normalized to %g, want 270", tt.Heading)
	}
}

func TestLogoPenColorAndSize(t *testing.T) {
	i := New()
	tt := i.Turtle()

	run(t, i, "PENCOLOR \"red PENSIZE 3 FD 10")
	segs := tt.Segments()
	if len(segs) != 1 {
		t.Fatalf("drew %d segments", len(segs))
	}
	if segs[0].Color != "red" || segs[0].Width != 3 {
		t.Errorf("segment color/width = %q/%g, want red/3", segs[0].Color, segs[0].Width)
	}

	// unbekannte Farben werden durchgereicht
	run(t, i, "PENCOLOR \"#ff8800")
	if tt.PenColor != "#ff8800" {
		t.Errorf("pen color = %q, want pass-through", tt.PenColor)
	}
}

func TestLogoHomeAndClearscreen(t *testing.T) {
	i := New()
	tt := i.Turtle()
	homeX, homeY := tt.X, tt.Y

	run(t, i, "FD 50 RT 90 CS")
	if tt.X != homeX || tt.Y != homeY || tt.Heading != DefaultHeading {
		t.Errorf("CS did not home the turtle: (%g, %g, %g)", tt.X, tt.Y, tt.Heading)
	}
	if n := len(tt.Segments()); n != 0 {
		t.Errorf("CS left %d segments", n)
	}
}

func TestLogoCleanKeepsTurtle(t *testing.T) {
	i := New()
	tt := i.Turtle()

	run(t, i, "FD 50 CLEAN")
	if n := len(tt.Segments()); n != 0 {
		t.Errorf("CLEAN left %d segments", n)
	}
	if tt.Heading != DefaultHeading {
		t.Errorf("CLEAN changed the heading: %g", tt.Heading)
	}
}

func TestLogoHideShowTurtle(t *testing.T) {
	i := New()
	run(t, i, "HT")
	if i.Turtle().Visible {
		t.Error("HT left the turtle visible")
	}
	run(t, i, "ST")
	if !i.Turtle().Visible {
		t.Error("ST left the turtle hidden")
	}
}

func TestLogoUnknownCommand(t *testing.T) {
	i := New()
	i.RunProgram(context.Background(), "FD 10 FROB 1")

	errSeen := false
	for _, m := range i.Transcript() {
		if m.Type == shared.MessageTypeError {
			errSeen = true
		}
	}
	if !errSeen {
		t.Error("unknown command in a Logo chain must report an error")
	}
}

func TestLogoJumpOutOfProcedure(t *testing.T) {
	i := New()
	i.RunProgram(context.Background(), strings.Join([]string{
		"TO BAD",
		"J:*somewhere",
		"END",
		"L:somewhere",
		"BAD",
	}, "\n"))

	found := false
	for _, m := range i.Transcript() {
		if m.Type == shared.MessageTypeError && strings.Contains(m.Content, "jump out of procedure") {
			found = true
		}
	}
	if !found {
		t.Error("jump out of a procedure body must report an error")
	}
}

func TestTokenizeLogo(t *testing.T) {
	tokens, err := tokenizeLogo("REPEAT 4 [REPEAT 3 [FD 10] RT 90]")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"REPEAT", "4", "[REPEAT 3 [FD 10] RT 90]"}
	if len(tokens) != len(want) {
		t.Fatalf("tokens = %v, want %v", tokens, want)
	}
	for n := range want {
		if tokens[n] != want[n] {
			t.Errorf("token %d = %q, want %q", n, tokens[n], want[n])
		}
	}

	if _, err := tokenizeLogo("REPEAT 2 [FD 10"); err == nil {
		t.Error("unclosed bracket must fail")
	}
}

func TestTurtleSegmentMessage(t *testing.T) {
	msg := SegmentMessage(Segment{X1: 1, Y1: 2, X2: 3, Y2: 4, Color: "red", Width: 2})
	if msg.Type != shared.MessageTypeTurtle || msg.Command != "SEGMENT" {
		t.Fatalf("message = %+v", msg)
	}
	if msg.Params["color"] != "red" {
		t.Errorf("params = %v", msg.Params)
	}
}
