package templecode

import "testing"

func TestClassifyPrecedence(t *testing.T) {
	i := New()

	tests := []struct {
		line string
		want Dialect
	}{
		// PILOT-Kommandoform: zweites Zeichen Doppelpunkt
		{"T: hello", DialectPilot},
		{"t:lowercase works too", DialectPilot},
		{"J:*top", DialectPilot},
		{"Y: matched", DialectPilot},
		{"L:start", DialectPilot},
		// Logo-Schlüsselwörter
		{"FD 50", DialectLogo},
		{"FORWARD 100", DialectLogo},
		{"rt 90", DialectLogo},
		{"REPEAT 4 FD 10", DialectLogo},
		{"PENUP", DialectLogo},
		{"HOME", DialectLogo},
		{"END", DialectLogo}, // beide Dialekte beenden das Programm
		// BASIC-Schlüsselwörter
		{"PRINT X", DialectBasic},
		{"print \"hi\"", DialectBasic},
		{"LET A = 1", DialectBasic},
		{"IF X > 3 THEN 100", DialectBasic},
		{"GOTO 10", DialectBasic},
		{"FOR I = 1 TO 10", DialectBasic},
		{"NEXT I", DialectBasic},
		{"REM nothing", DialectBasic},
		// Implizite Zuweisung
		{"X = 5", DialectBasic},
		{"Score = Score + 1", DialectBasic},
		{"NAME$ = \"Ada\"", DialectBasic},
		// Fallback PILOT
		{"HELLO WORLD", DialectPilot},
		{"", DialectPilot},
		{"   ", DialectPilot},
		{"12345", DialectPilot},
	}

	for _, tt := range tests {
		if got := i.Classify(tt.line); got != tt.want {
			t.Errorf("Classify(%q) = %s, want %s", tt.line, got, tt.want)
		}
	}
}

// A defined procedure name routes to Logo even when it would otherwise
// fall through to PILOT, and even when it shadows nothing.
func TestClassifyUserProcedure(t *testing.T) {
	i := New()
	if got := i.Classify("SQUARE 50"); got != DialectPilot {
		t.Fatalf("before definition: Classify(SQUARE 50) = %s, want pilot", got)
	}

	err := i.Load("TO SQUARE :SIZE\nREPEAT 4 [FD :SIZE RT 90]\nEND")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := i.Classify("SQUARE 50"); got != DialectLogo {
		t.Errorf("after definition: Classify(SQUARE 50) = %s, want logo", got)
	}
	if got := i.Classify("square 50"); got != DialectLogo {
		t.Errorf("procedure lookup must ignore case, got %s", got)
	}
}

// An assignment whose left side is a keyword is not an implicit LET.
func TestClassifyKeywordAssignment(t *testing.T) {
	i := New()
	if got := i.Classify("PRINT = 5"); got != DialectBasic {
		// PRINT ist BASIC-Schlüsselwort, gewinnt vor der Zuweisungsregel
		t.Errorf("Classify(PRINT = 5) = %s, want basic", got)
	}
	if got := i.Classify("FD = 5"); got != DialectLogo {
		t.Errorf("Classify(FD = 5) = %s, want logo", got)
	}
	if got := i.Classify("?? = 5"); got != DialectPilot {
		t.Errorf("Classify(?? = 5) = %s, want pilot", got)
	}
}

func TestDialectString(t *testing.T) {
	if DialectPilot.String() != "pilot" || DialectBasic.String() != "basic" || DialectLogo.String() != "logo" {
		t.Error("dialect names changed")
	}
}
