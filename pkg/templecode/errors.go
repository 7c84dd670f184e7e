// Package templecode implements a multi-dialect educational interpreter
// that unifies PILOT, line-numbered BASIC and Logo turtle graphics behind
// a single per-line dispatcher.
package templecode

import (
	"errors"
	"fmt"
	"strings"

	"github.com/antibyte/templecode/pkg/shared"
)

// Error definitions specific to TempleCode operations. The sentinels are
// attached to the structured errors at their origin sites, so callers can
// match them with errors.Is.
var (
	ErrProgramRunning      = errors.New("program already running")
	ErrUnknownLabel        = errors.New("unknown label")
	ErrReturnWithoutCall   = errors.New("return without subroutine call")
	ErrLineNotFound        = errors.New("line not found")
	ErrTypeMismatch        = errors.New("type mismatch")
	ErrDivisionByZero      = errors.New("division by zero")
	ErrUnknownProcedure    = errors.New("unknown procedure")
	ErrUnsafeExpression    = errors.New("expression rejected for safety")
	ErrMaxIterations       = errors.New("maximum iterations reached")
	ErrUnbalancedBrackets  = errors.New("unbalanced brackets in REPEAT body")
	ErrMissingProcedureEnd = errors.New("TO without matching END")
)

// Fehlerkategorien
const (
	// ErrCategorySyntax kennzeichnet Syntaxfehler.
	ErrCategorySyntax = "SYNTAX ERROR"
	// ErrCategoryRuntime kennzeichnet Laufzeitfehler.
	ErrCategoryRuntime = "RUNTIME ERROR"
	// ErrCategoryEvaluation kennzeichnet Fehler bei der Ausdrucksauswertung.
	ErrCategoryEvaluation = "EVALUATION ERROR"
	// ErrCategorySecurity kennzeichnet abgewiesene unsichere Ausdrücke.
	ErrCategorySecurity = "SECURITY ERROR"
	// ErrCategoryExecution kennzeichnet allgemeine Ausführungsfehler.
	ErrCategoryExecution = "EXECUTION ERROR"
	// ErrCategoryIO kennzeichnet Ein-/Ausgabefehler (Save-Slots).
	ErrCategoryIO = "I/O ERROR"
)

// InterpretError repräsentiert einen strukturierten Fehler im TempleCode-Interpreter
type InterpretError struct {
	Category string // Fehlerkategorie (z.B. "SYNTAX ERROR")
	Message  string // Spezifische Fehlermeldung
	Command  string // Der Befehl, bei dem der Fehler aufgetreten ist (optional)
	Line     int    // Zeilenposition im Programm (0-basiert, -1 wenn unbekannt)
	Dialect  string // Dialekt, in dem der Fehler auftrat ("pilot", "basic", "logo")
	Err      error  // Zugehöriges Sentinel für errors.Is (optional)
}

// Error implementiert das error-Interface
func (ie *InterpretError) Error() string {
	msg := ie.Category + ": " + ie.Message
	if ie.Command != "" {
		msg += " (" + ie.Command + ")"
	}
	if ie.Line >= 0 {
		msg = fmt.Sprintf("%s [line %d]", msg, ie.Line+1)
	}
	return msg
}

// NewInterpretError erstellt eine neue Fehlerinstanz
func NewInterpretError(category, message string) *InterpretError {
	return &InterpretError{
		Category: category,
		Message:  message,
		Line:     -1,
	}
}

// WithCommand fügt dem Fehler einen Befehlsnamen hinzu
func (ie *InterpretError) WithCommand(cmd string) *InterpretError {
	ie.Command = cmd
	return ie
}

// WithLine fügt dem Fehler eine Zeilenposition hinzu
func (ie *InterpretError) WithLine(pos int) *InterpretError {
	ie.Line = pos
	return ie
}

// WithDialect fügt dem Fehler den Dialekt hinzu
func (ie *InterpretError) WithDialect(d string) *InterpretError {
	ie.Dialect = d
	return ie
}

// WithErr hängt das Sentinel an, gegen das errors.Is matchen soll.
func (ie *InterpretError) WithErr(err error) *InterpretError {
	ie.Err = err
	return ie
}

// Unwrap liefert das angehängte Sentinel.
func (ie *InterpretError) Unwrap() error {
	return ie.Err
}

// IsSecurityError meldet, ob ein Fehler eine Sicherheitsabweisung ist.
// Abgewiesene Ausdrücke dürfen nicht wie gewöhnliche Auswertungsfehler
// behandelt werden (U: speichert bei Auswertungsfehlern den Rohtext,
// bei Sicherheitsfehlern bricht es ab).
func IsSecurityError(err error) bool {
	if err == nil {
		return false
	}
	var ie *InterpretError
	if errors.As(err, &ie) {
		return ie.Category == ErrCategorySecurity
	}
	return errors.Is(err, ErrUnsafeExpression)
}

// WrapError wandelt einen beliebigen Fehler in einen InterpretError um
func WrapError(err error, command string, pos int) *InterpretError {
	if ie, ok := err.(*InterpretError); ok {
		if command != "" {
			ie.Command = command
		}
		if ie.Line < 0 {
			ie.Line = pos
		}
		return ie
	}
	return &InterpretError{
		Category: ErrCategoryExecution,
		Message:  err.Error(),
		Command:  command,
		Line:     pos,
	}
}

// FormatErrorAsMessages converts an error into a Message array (for output)
func FormatErrorAsMessages(err error) []shared.Message {
	if err == nil {
		return nil
	}
	lines := strings.Split(err.Error(), "\n")
	msgs := make([]shared.Message, 0, len(lines))
	for _, l := range lines {
		msgs = append(msgs, shared.Message{Type: shared.MessageTypeError, Content: l})
	}
	return msgs
}
