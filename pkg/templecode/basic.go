package templecode

import (
	"strconv"
	"strings"

	"github.com/antibyte/templecode/pkg/logger"
	"github.com/antibyte/templecode/pkg/shared"
)

// executeBasic handles the line-numbered BASIC dialect. Line numbers
// were already stripped by the loader; GOTO/GOSUB targets resolve
// through the loader's number index.
func (i *Interpreter) executeBasic(line string, pos int) signal {
	trimmed := strings.TrimSpace(line)
	first := strings.ToUpper(firstWord(trimmed))
	rest := strings.TrimSpace(trimmed[len(firstWord(trimmed)):])

	switch first {
	case "REM":
		return contSignal()
	case "END":
		return endSignal()
	case "LET":
		return i.cmdLet(rest, pos)
	case "PRINT":
		return i.cmdPrint(rest, pos)
	case "INPUT":
		return i.cmdInput(rest, pos)
	case "GOTO":
		return i.cmdGoto(rest, pos)
	case "IF":
		return i.cmdIf(rest, pos)
	case "FOR":
		return i.cmdFor(rest, pos)
	case "NEXT":
		return i.cmdNext(rest)
	case "GOSUB":
		return i.cmdGosub(rest, pos)
	case "RETURN":
		return i.cmdReturn(pos)
	case "THEN":
		return errSignal(NewInterpretError(ErrCategorySyntax, "THEN without IF").
			WithLine(pos).WithDialect("basic"))
	}

	// Implizite Zuweisung: X = expr
	if name, expr, ok := splitAssignment(trimmed); ok {
		return i.assign(name, expr, pos)
	}

	return errSignal(NewInterpretError(ErrCategorySyntax, "unknown BASIC statement").
		WithCommand(first).WithLine(pos).WithDialect("basic"))
}

// cmdLet implements LET (and carries implicit assignments).
func (i *Interpreter) cmdLet(rest string, pos int) signal {
	name, expr, ok := splitAssignment(rest)
	if !ok {
		return errSignal(NewInterpretError(ErrCategorySyntax, "assignment expected after LET").
			WithLine(pos).WithDialect("basic"))
	}
	return i.assign(name, expr, pos)
}

func (i *Interpreter) assign(name, expr string, pos int) signal {
	v, err := i.EvaluateExpression(expr)
	if err != nil {
		return errSignal(WrapError(err, "LET", pos))
	}
	i.SetVariable(name, v)
	return contSignal()
}

// cmdPrint implements PRINT. Semicolons join the pieces without
// separator; a trailing semicolon keeps the cursor on the line.
func (i *Interpreter) cmdPrint(rest string, pos int) signal {
	if rest == "" {
		i.Print("")
		return contSignal()
	}

	noNewline := false
	if strings.HasSuffix(rest, ";") {
		noNewline = true
		rest = strings.TrimSpace(rest[:len(rest)-1])
	}

	var b strings.Builder
	for _, part := range splitTopLevel(rest, ';') {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := i.EvaluateExpression(part)
		if err != nil {
			return errSignal(WrapError(err, "PRINT", pos))
		}
		b.WriteString(v.String())
	}

	if noNewline {
		i.send(shared.Message{Type: shared.MessageTypeText, Content: b.String(), NoNewline: true})
	} else {
		i.Print(b.String())
	}
	return contSignal()
}

// cmdInput implements INPUT ["prompt";] var.
func (i *Interpreter) cmdInput(rest string, pos int) signal {
	prompt := ""
	varName := strings.TrimSpace(rest)

	if strings.HasPrefix(varName, "\"") {
		if idx := strings.Index(varName[1:], "\""); idx >= 0 {
			prompt = varName[1 : idx+1]
			varName = strings.TrimSpace(strings.TrimPrefix(
				strings.TrimSpace(varName[idx+2:]), ";"))
			varName = strings.TrimSpace(varName)
		}
	}
	if varName == "" || !isIdentifier(varName) {
		return errSignal(NewInterpretError(ErrCategorySyntax, "variable name expected after INPUT").
			WithLine(pos).WithDialect("basic"))
	}

	input, err := i.requestInput(prompt)
	if err != nil {
		return errSignal(err)
	}
	i.lastInput = input
	i.SetVariable(varName, coerceInput(input))
	return contSignal()
}

// cmdGoto implements GOTO lineNumber.
func (i *Interpreter) cmdGoto(rest string, pos int) signal {
	number, err := strconv.Atoi(strings.TrimSpace(rest))
	if err != nil {
		return errSignal(NewInterpretError(ErrCategorySyntax, "line number expected after GOTO").
			WithLine(pos).WithDialect("basic"))
	}
	target, rerr := i.resolveLineNumber(number)
	if rerr != nil {
		return errSignal(WrapError(rerr, "GOTO", pos))
	}
	return jumpSignal(target)
}

// cmdIf implements IF cond THEN statement. The condition result also
// sets the shared match flag; a true condition re-dispatches the THEN
// branch through the full classifier, so "IF X THEN T: hello" works.
func (i *Interpreter) cmdIf(rest string, pos int) signal {
	upper := strings.ToUpper(rest)
	idx := strings.Index(upper, " THEN ")
	thenLen := 6
	if idx < 0 {
		if strings.HasSuffix(upper, " THEN") {
			idx = len(upper) - 5
			thenLen = 5
		} else {
			return errSignal(NewInterpretError(ErrCategorySyntax, "THEN expected after IF condition").
				WithLine(pos).WithDialect("basic"))
		}
	}
	cond := strings.TrimSpace(rest[:idx])
	branch := strings.TrimSpace(rest[idx+thenLen:])

	v, err := i.EvaluateExpression(cond)
	if err != nil {
		return errSignal(WrapError(err, "IF", pos))
	}
	i.flag.set(v.AsBool())
	if !v.AsBool() {
		// Flag bleibt für nachgelagerte PILOT-Befehle gesetzt,
		// der THEN-Zweig entfällt.
		return contSignal()
	}

	if branch == "" {
		return contSignal()
	}
	// Nackte Zahl nach THEN ist ein GOTO
	if number, err := strconv.Atoi(branch); err == nil {
		target, rerr := i.resolveLineNumber(number)
		if rerr != nil {
			return errSignal(WrapError(rerr, "IF", pos))
		}
		return jumpSignal(target)
	}

	// Der Zweig läuft durch den vollen Dispatcher, beliebiger Dialekt.
	return i.dispatch(branch, pos)
}

// cmdFor implements FOR var = start TO limit [STEP s].
func (i *Interpreter) cmdFor(rest string, pos int) signal {
	name, spec, ok := splitAssignment(rest)
	if !ok {
		return errSignal(NewInterpretError(ErrCategorySyntax, "FOR var = start TO end [STEP s] expected").
			WithLine(pos).WithDialect("basic"))
	}

	upper := strings.ToUpper(spec)
	toIdx := strings.Index(upper, " TO ")
	if toIdx < 0 {
		return errSignal(NewInterpretError(ErrCategorySyntax, "TO keyword expected in FOR loop").
			WithLine(pos).WithDialect("basic"))
	}
	startExpr := strings.TrimSpace(spec[:toIdx])
	limitExpr := strings.TrimSpace(spec[toIdx+4:])
	stepExpr := "1"
	if stepIdx := strings.Index(strings.ToUpper(limitExpr), " STEP "); stepIdx >= 0 {
		stepExpr = strings.TrimSpace(limitExpr[stepIdx+6:])
		limitExpr = strings.TrimSpace(limitExpr[:stepIdx])
	}

	start, err := i.EvaluateExpression(startExpr)
	if err != nil {
		return errSignal(WrapError(err, "FOR", pos))
	}
	limit, err := i.EvaluateExpression(limitExpr)
	if err != nil {
		return errSignal(WrapError(err, "FOR", pos))
	}
	step, err := i.EvaluateExpression(stepExpr)
	if err != nil {
		return errSignal(WrapError(err, "FOR", pos))
	}
	if !start.IsNumeric || !limit.IsNumeric || !step.IsNumeric {
		return errSignal(NewInterpretError(ErrCategoryEvaluation, "FOR bounds must be numeric").
			WithLine(pos).WithDialect("basic"))
	}

	i.SetVariable(name, start)
	i.forStack = append(i.forStack, forFrame{
		Var:       name,
		Limit:     limit.NumValue,
		Step:      step.NumValue,
		BodyStart: pos + 1,
	})
	logger.Debug(logger.AreaBasic, "FOR %s = %g TO %g STEP %g", name, start.NumValue, limit.NumValue, step.NumValue)
	return contSignal()
}

// cmdNext implements NEXT [var]. A NEXT with no matching FOR is a
// tolerated no-op rather than a hard error.
func (i *Interpreter) cmdNext(rest string) signal {
	if len(i.forStack) == 0 {
		return contSignal()
	}
	frame := &i.forStack[len(i.forStack)-1]

	wanted := strings.TrimSpace(rest)
	if wanted != "" && !equalFold(wanted, frame.Var) {
		return contSignal()
	}

	v := i.GetVariable(frame.Var)
	next := v.NumValue + frame.Step
	i.SetVariable(frame.Var, NumberValue(next))

	if (frame.Step >= 0 && next <= frame.Limit) || (frame.Step < 0 && next >= frame.Limit) {
		return jumpSignal(frame.BodyStart)
	}
	i.forStack = i.forStack[:len(i.forStack)-1]
	return contSignal()
}

// cmdGosub implements GOSUB lineNumber. The return position goes onto
// the call stack shared with PILOT's R: subroutine calls.
func (i *Interpreter) cmdGosub(rest string, pos int) signal {
	number, err := strconv.Atoi(strings.TrimSpace(rest))
	if err != nil {
		return errSignal(NewInterpretError(ErrCategorySyntax, "line number expected after GOSUB").
			WithLine(pos).WithDialect("basic"))
	}
	target, rerr := i.resolveLineNumber(number)
	if rerr != nil {
		return errSignal(WrapError(rerr, "GOSUB", pos))
	}
	i.callStack = append(i.callStack, pos+1)
	return jumpSignal(target)
}

// cmdReturn implements RETURN against the shared call stack.
func (i *Interpreter) cmdReturn(pos int) signal {
	if len(i.callStack) == 0 {
		return errSignal(NewInterpretError(ErrCategoryRuntime, "RETURN without GOSUB").
			WithLine(pos).WithDialect("basic").WithErr(ErrReturnWithoutCall))
	}
	target := i.callStack[len(i.callStack)-1]
	i.callStack = i.callStack[:len(i.callStack)-1]
	return jumpSignal(target)
}

// splitTopLevel splits on sep outside of string literals and
// parentheses.
func splitTopLevel(s string, sep byte) []string {
	parts := []string{}
	depth := 0
	inString := byte(0)
	start := 0
	for idx := 0; idx < len(s); idx++ {
		c := s[idx]
		switch {
		case inString != 0:
			if c == inString {
				inString = 0
			}
		case c == '"' || c == '\'':
			inString = c
		case c == '(':
			depth++
		case c == ')':
			depth--
		case c == sep && depth == 0:
			parts = append(parts, s[start:idx])
			start = idx + 1
		}
	}
	parts = append(parts, s[start:])
	return parts
}
