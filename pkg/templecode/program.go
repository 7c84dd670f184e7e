package templecode

import (
	"strconv"
	"strings"

	"github.com/antibyte/templecode/pkg/logger"
)

// programLine is one loaded program line. BASIC line numbers are
// stripped from Text but kept in Number for GOTO/GOSUB resolution.
type programLine struct {
	Text    string // Befehlstext ohne führende Zeilennummer
	Number  int    // BASIC-Zeilennummer (0 = keine)
	CReturn bool   // PILOT C: mit leerem Rumpf (Return-Variante, beim Laden klassifiziert)
}

// LogoProc is a user-defined Logo procedure collected at load time.
type LogoProc struct {
	Name   string
	Params []string // Parameternamen ohne führenden Doppelpunkt
	Body   []string
}

// Load parses program text and prepares it for execution. Loading
// resets the execution position, label table, call and loop stacks and
// the match flag - but keeps the variable store, so programs can be
// loaded incrementally against accumulated state. Loading the same text
// twice yields the same interpreter state.
//
// Loading is refused while a program runs; the run loop owns the line
// store until it ends or pauses at a breakpoint.
func (i *Interpreter) Load(text string) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.running && !i.paused {
		return NewInterpretError(ErrCategoryRuntime, "program already running").
			WithErr(ErrProgramRunning)
	}

	i.lines = i.lines[:0]
	i.labels = make(map[string]int)
	i.lineNumbers = make(map[int]int)
	i.procedures = make(map[string]*LogoProc)
	i.callStack = i.callStack[:0]
	i.forStack = i.forStack[:0]
	i.cursor = 0
	i.running = false
	i.paused = false
	i.flag.reset()
	i.pendingInput = ""
	i.lastInput = ""

	var proc *LogoProc // offene TO-Definition

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		// Führende BASIC-Zeilennummer abtrennen
		number := 0
		if idx := lineNumberPrefix(line); idx > 0 {
			number, _ = strconv.Atoi(line[:idx])
			line = strings.TrimSpace(line[idx:])
			if line == "" {
				continue
			}
		}

		// Logo-Prozedurdefinitionen werden beim Laden eingesammelt und
		// nicht in den ausführbaren Zeilenbestand aufgenommen.
		first := strings.ToUpper(firstWord(line))
		if proc != nil {
			if first == "END" {
				i.procedures[strings.ToUpper(proc.Name)] = proc
				logger.Debug(logger.AreaLogo, "procedure %s defined (%d params, %d lines)",
					proc.Name, len(proc.Params), len(proc.Body))
				proc = nil
			} else {
				proc.Body = append(proc.Body, line)
			}
			continue
		}
		if first == "TO" {
			fields := strings.Fields(line)
			if len(fields) < 2 {
				return NewInterpretError(ErrCategorySyntax, "TO requires a procedure name")
			}
			proc = &LogoProc{Name: fields[1]}
			for _, p := range fields[2:] {
				proc.Params = append(proc.Params, strings.TrimPrefix(p, ":"))
			}
			continue
		}

		pos := len(i.lines)
		pl := programLine{Text: line, Number: number}

		// PILOT-Label: beim Laden indizieren, letztes Vorkommen gewinnt
		if len(line) >= 2 && (line[0] == 'L' || line[0] == 'l') && line[1] == ':' {
			label := strings.ToLower(strings.TrimSpace(line[2:]))
			if label != "" {
				i.labels[label] = pos
			}
		}

		// PILOT C: mit leerem Rumpf ist die Return-Variante; die
		// Unterscheidung fällt hier beim Laden, nicht erst zur Laufzeit.
		if len(line) >= 2 && (line[0] == 'C' || line[0] == 'c') && line[1] == ':' {
			if strings.TrimSpace(line[2:]) == "" {
				pl.CReturn = true
			}
		}

		if number > 0 {
			i.lineNumbers[number] = pos
		}
		i.lines = append(i.lines, pl)
	}

	if proc != nil {
		return NewInterpretError(ErrCategorySyntax, "TO "+proc.Name+" without matching END").
			WithCommand("TO").WithErr(ErrMissingProcedureEnd)
	}

	logger.InterpreterInfo("program loaded: %d lines, %d labels, %d procedures",
		len(i.lines), len(i.labels), len(i.procedures))
	return nil
}

// lineNumberPrefix returns the length of a leading line number followed
// by whitespace, or 0 when the line has none.
func lineNumberPrefix(line string) int {
	n := 0
	for n < len(line) && line[n] >= '0' && line[n] <= '9' {
		n++
	}
	if n == 0 || n >= len(line) {
		return 0
	}
	if line[n] != ' ' && line[n] != '\t' {
		return 0
	}
	return n
}

// firstWord liefert das erste whitespace-getrennte Wort einer Zeile.
func firstWord(line string) string {
	for idx := 0; idx < len(line); idx++ {
		if line[idx] == ' ' || line[idx] == '\t' {
			return line[:idx]
		}
	}
	return line
}

// resolveLineNumber maps a BASIC line number to its program position.
func (i *Interpreter) resolveLineNumber(number int) (int, error) {
	if pos, ok := i.lineNumbers[number]; ok {
		return pos, nil
	}
	return 0, NewInterpretError(ErrCategoryRuntime,
		"line "+strconv.Itoa(number)+" not found").WithErr(ErrLineNotFound)
}

// resolveLabel maps a PILOT label (optionally *-prefixed) to a position.
func (i *Interpreter) resolveLabel(label string) (int, error) {
	key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(label, "*")))
	if pos, ok := i.labels[key]; ok {
		return pos, nil
	}
	return 0, NewInterpretError(ErrCategoryRuntime, "unknown label "+label).WithErr(ErrUnknownLabel)
}
