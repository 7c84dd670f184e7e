package templecode

import (
	"math"
	"strings"

	"github.com/antibyte/templecode/pkg/logger"
	"github.com/antibyte/templecode/pkg/shared"
)

// Canvas defaults. The origin sits at the canvas centre; the canvas Y
// axis grows downward, which is why forward movement subtracts the sine
// component (dy = -d*sin(h)).
const (
	DefaultCanvasWidth  = 400
	DefaultCanvasHeight = 400
	DefaultHeading      = 90 // nach oben; 0 Grad zeigt nach Osten, CCW positiv
	DefaultPenColor     = "white"
	DefaultPenWidth     = 1
)

// Segment ist eine gezeichnete Linie auf dem Canvas.
type Segment struct {
	X1, Y1 float64
	X2, Y2 float64
	Color  string
	Width  float64
}

// Turtle holds the drawing state shared by the Logo executor and the
// PILOT G: command.
type Turtle struct {
	X, Y     float64
	Heading  float64 // Grad, 0 = Osten, gegen den Uhrzeigersinn
	PenDown  bool
	PenColor string
	PenWidth float64
	Visible  bool

	homeX, homeY float64
	segments     []Segment
}

// namedColors is the classic palette accepted by pen colour commands.
// Anything not in the table is passed through untouched so RGB strings
// like "#ff8800" keep working.
var namedColors = map[string]string{
	"black": "black", "white": "white", "red": "red", "green": "green",
	"blue": "blue", "yellow": "yellow", "cyan": "cyan", "magenta": "magenta",
	"orange": "orange", "purple": "purple", "brown": "brown", "pink": "pink",
	"gray": "gray", "grey": "gray",
}

// NewTurtle erstellt eine Turtle in der Canvas-Mitte.
func NewTurtle(canvasWidth, canvasHeight int) *Turtle {
	t := &Turtle{
		homeX: float64(canvasWidth) / 2,
		homeY: float64(canvasHeight) / 2,
	}
	t.Reset()
	return t
}

// Reset setzt die Turtle in den Ausgangszustand zurück und löscht alle
// gezeichneten Segmente.
func (t *Turtle) Reset() {
	t.X = t.homeX
	t.Y = t.homeY
	t.Heading = DefaultHeading
	t.PenDown = true
	t.PenColor = DefaultPenColor
	t.PenWidth = DefaultPenWidth
	t.Visible = true
	t.segments = t.segments[:0]
}

// Home bewegt die Turtle ohne zu zeichnen in die Canvas-Mitte.
func (t *Turtle) Home() {
	t.X = t.homeX
	t.Y = t.homeY
	t.Heading = DefaultHeading
}

// Forward moves the turtle by distance along its heading, drawing a
// segment if the pen is down. Negative distances move backward.
func (t *Turtle) Forward(distance float64) *Segment {
	rad := t.Heading * math.Pi / 180
	nx := t.X + distance*math.Cos(rad)
	ny := t.Y - distance*math.Sin(rad) // Canvas-Y wächst nach unten

	var seg *Segment
	if t.PenDown {
		s := Segment{X1: t.X, Y1: t.Y, X2: nx, Y2: ny, Color: t.PenColor, Width: t.PenWidth}
		t.segments = append(t.segments, s)
		seg = &t.segments[len(t.segments)-1]
	}
	t.X = nx
	t.Y = ny
	return seg
}

// Turn dreht die Turtle um degrees (positiv = links/CCW).
func (t *Turtle) Turn(degrees float64) {
	t.Heading = math.Mod(t.Heading+degrees, 360)
	if t.Heading < 0 {
		t.Heading += 360
	}
}

// MoveTo bewegt die Turtle an eine absolute Position, zeichnend wenn
// der Stift unten ist.
func (t *Turtle) MoveTo(x, y float64) *Segment {
	var seg *Segment
	if t.PenDown {
		s := Segment{X1: t.X, Y1: t.Y, X2: x, Y2: y, Color: t.PenColor, Width: t.PenWidth}
		t.segments = append(t.segments, s)
		seg = &t.segments[len(t.segments)-1]
	}
	t.X = x
	t.Y = y
	return seg
}

// SetColor setzt die Stiftfarbe (Palette oder Durchreichung).
func (t *Turtle) SetColor(color string) {
	key := strings.ToLower(strings.TrimSpace(color))
	if mapped, ok := namedColors[key]; ok {
		t.PenColor = mapped
		return
	}
	t.PenColor = color
	logger.Debug(logger.AreaTurtle, "pen color passed through: %s", color)
}

// Segments liefert alle bisher gezeichneten Segmente.
func (t *Turtle) Segments() []Segment {
	return t.segments
}

// ClearScreen löscht die Segmente, lässt die Turtle aber stehen.
func (t *Turtle) ClearScreen() {
	t.segments = t.segments[:0]
}

// SegmentMessage builds the wire message the canvas frontend consumes
// for one drawn segment.
func SegmentMessage(s Segment) shared.Message {
	return shared.NewTurtleMessage("SEGMENT", map[string]interface{}{
		"x1":    s.X1,
		"y1":    s.Y1,
		"x2":    s.X2,
		"y2":    s.Y2,
		"color": s.Color,
		"width": s.Width,
	})
}

// PoseMessage meldet die aktuelle Turtle-Pose an das Frontend.
func (t *Turtle) PoseMessage() shared.Message {
	return shared.NewTurtleMessage("POSE", map[string]interface{}{
		"x":       t.X,
		"y":       t.Y,
		"heading": t.Heading,
		"visible": t.Visible,
	})
}
