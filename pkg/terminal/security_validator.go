package terminal

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/antibyte/templecode/pkg/configuration"
)

// SecurityValidator prüft Programme und Eingaben, bevor sie den
// Interpreter erreichen. Die Ausdrucks-Sicherheitsprüfung selbst sitzt
// im Interpreter; hier geht es um Transportgrenzen.
type SecurityValidator struct{}

// NewSecurityValidator erstellt einen neuen SecurityValidator
func NewSecurityValidator() *SecurityValidator {
	return &SecurityValidator{}
}

// ValidateProgram checks size limits on an uploaded program before it
// is handed to the loader.
func (sv *SecurityValidator) ValidateProgram(text string) error {
	maxBytes := configuration.GetInt("Interpreter", "max_program_size_kb", 256) * 1024
	if len(text) > maxBytes {
		return fmt.Errorf("program too large: maximum %d KB allowed", maxBytes/1024)
	}

	maxLines := configuration.GetInt("Interpreter", "max_program_lines", 5000)
	lines := strings.Count(text, "\n") + 1
	if lines > maxLines {
		return fmt.Errorf("program too long: maximum %d lines allowed", maxLines)
	}

	for n, line := range strings.Split(text, "\n") {
		if err := sv.ValidateLine(line); err != nil {
			return fmt.Errorf("line %d: %v", n+1, err)
		}
	}
	return nil
}

// ValidateLine prüft eine einzelne Zeile (Programm oder Direktmodus).
func (sv *SecurityValidator) ValidateLine(line string) error {
	maxLength := configuration.GetInt("Interpreter", "max_line_length", 1000)
	if len(line) > maxLength {
		return fmt.Errorf("line too long: maximum %d characters allowed", maxLength)
	}

	// Kontrollzeichen außer Tab haben in Programmtext nichts verloren
	for _, r := range line {
		if unicode.IsControl(r) && r != '\t' && r != '\r' {
			return fmt.Errorf("line contains control characters")
		}
	}
	return nil
}

// ValidateSessionID prüft die Gültigkeit einer Session-ID
func (sv *SecurityValidator) ValidateSessionID(sessionID string) error {
	if len(sessionID) == 0 {
		return fmt.Errorf("session ID is empty")
	}

	if len(sessionID) > 128 {
		return fmt.Errorf("session ID too long")
	}

	// Nur alphanumerische Zeichen und Bindestriche erlauben
	for _, r := range sessionID {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-' && r != '_' {
			return fmt.Errorf("session ID contains invalid characters")
		}
	}

	return nil
}
