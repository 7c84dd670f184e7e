package templecode

import "strings"

// Dialect identifies which executor handles a program line.
type Dialect int

const (
	DialectPilot Dialect = iota
	DialectBasic
	DialectLogo
)

// String liefert den Dialektnamen für Logs und Fehlermeldungen.
func (d Dialect) String() string {
	switch d {
	case DialectBasic:
		return "basic"
	case DialectLogo:
		return "logo"
	}
	return "pilot"
}

// logoKeywords are the commands routed to the Logo executor.
var logoKeywords = map[string]bool{
	"FD": true, "FORWARD": true, "BK": true, "BACK": true, "BACKWARD": true,
	"LT": true, "LEFT": true, "RT": true, "RIGHT": true,
	"PU": true, "PENUP": true, "PD": true, "PENDOWN": true,
	"HOME": true, "CS": true, "CLEARSCREEN": true, "CLEAN": true,
	"SETPOS": true, "SETXY": true, "SETX": true, "SETY": true,
	"SETHEADING": true, "SETH": true,
	"REPEAT": true, "TO": true, "END": true,
	"PENCOLOR": true, "SETPENCOLOR": true, "SETPC": true, "SETCOLOR": true,
	"PENSIZE": true, "SETPENSIZE": true, "SETWIDTH": true,
	"HIDETURTLE": true, "HT": true, "SHOWTURTLE": true, "ST": true,
}

// basicKeywords are the commands routed to the BASIC executor. END is
// deliberately absent: the Logo set claims it first and both executors
// treat it as end-of-program.
var basicKeywords = map[string]bool{
	"LET": true, "PRINT": true, "INPUT": true, "IF": true, "THEN": true,
	"GOTO": true, "GOSUB": true, "RETURN": true, "FOR": true, "NEXT": true,
	"REM": true, "END": true,
}

// Classify decides which dialect executes a line. The precedence order
// is fixed: PILOT's letter-colon form wins over everything, known user
// procedures beat the Logo keyword table, Logo beats BASIC, an
// assignment with a non-keyword left side is implicit BASIC LET, and
// anything left over falls through to PILOT.
func (i *Interpreter) Classify(line string) Dialect {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return DialectPilot
	}

	// 1. Zweites Zeichen Doppelpunkt: PILOT-Kommandoform (T:, J:, ...)
	if len(trimmed) >= 2 && trimmed[1] == ':' {
		return DialectPilot
	}

	first := strings.ToUpper(firstWord(trimmed))

	// 2. Benutzerdefinierte Logo-Prozedur
	if _, ok := i.procedures[first]; ok {
		return DialectLogo
	}

	// 3. Logo-Schlüsselwort
	if logoKeywords[first] {
		return DialectLogo
	}

	// 4. BASIC-Schlüsselwort
	if basicKeywords[first] {
		return DialectBasic
	}

	// 5. Implizite BASIC-Zuweisung: X = expr
	if idx := strings.IndexByte(trimmed, '='); idx > 0 {
		lhs := strings.TrimSpace(trimmed[:idx])
		if isIdentifier(lhs) && !logoKeywords[strings.ToUpper(lhs)] && !basicKeywords[strings.ToUpper(lhs)] {
			return DialectBasic
		}
	}

	// 6. Fallback PILOT
	return DialectPilot
}
