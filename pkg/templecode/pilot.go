package templecode

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/antibyte/templecode/pkg/logger"
	"github.com/antibyte/templecode/pkg/shared"
)

// executePilot handles the letter-colon command family. The command
// letter(s) stand before the first colon; everything after it is the
// body.
func (i *Interpreter) executePilot(line string, pos int) signal {
	idx := strings.IndexByte(line, ':')
	if idx < 0 {
		return errSignal(NewInterpretError(ErrCategorySyntax, "missing colon in PILOT command").
			WithLine(pos).WithDialect("pilot"))
	}
	op := strings.ToUpper(strings.TrimSpace(line[:idx]))
	body := strings.TrimPrefix(line[idx+1:], " ")

	switch op {
	case "T":
		return i.cmdType(body, false)
	case "MT":
		return i.cmdType(body, true)
	case "A":
		return i.cmdAccept(body)
	case "M":
		return i.cmdMatch(body)
	case "Y":
		return i.cmdCondition(body, false, pos)
	case "N":
		return i.cmdCondition(body, true, pos)
	case "C":
		return i.cmdCompute(body, pos)
	case "U":
		return i.cmdUse(body, pos)
	case "J":
		return i.cmdJump(body, pos)
	case "L":
		// Labels werden beim Laden indiziert, zur Laufzeit sind sie No-ops.
		return contSignal()
	case "E":
		return endSignal()
	case "R":
		return i.cmdRemark(body, pos)
	case "G":
		return i.cmdGraphics(body, pos)
	}
	return errSignal(NewInterpretError(ErrCategorySyntax, "unknown PILOT command "+op+":").
		WithLine(pos).WithDialect("pilot"))
}

// cmdType implements T: and MT:. A pending false match flag suppresses
// the output and is consumed doing so.
func (i *Interpreter) cmdType(body string, typed bool) signal {
	if !i.flag.consume(true) {
		return contSignal()
	}
	text := i.InterpolateText(body)
	if typed {
		i.send(shared.Message{
			Type:      shared.MessageTypeTyped,
			Content:   text,
			TypeSpeed: i.typeSpeed,
		})
	} else {
		i.Print(text)
	}
	return contSignal()
}

// cmdAccept implements A:. The raw input is remembered for M:; numeric
// strings are coerced so arithmetic on answers works without VAL().
func (i *Interpreter) cmdAccept(body string) signal {
	input, err := i.requestInput(strings.TrimSpace(body))
	if err != nil {
		return errSignal(err)
	}
	i.lastInput = input

	val := coerceInput(input)
	i.SetVariable("answer", val)
	if name := strings.TrimSpace(body); name != "" && isIdentifier(name) {
		i.SetVariable(name, val)
	}
	return contSignal()
}

// coerceInput macht aus numerischen Eingaben Zahlen, alles andere
// bleibt String.
func coerceInput(input string) Value {
	trimmed := strings.TrimSpace(input)
	if n, err := strconv.ParseFloat(trimmed, 64); err == nil && trimmed != "" {
		return NumberValue(n)
	}
	return StringValue(input)
}

// cmdMatch implements M:: the last input is tested against
// comma-separated alternatives, case-insensitively, with * as wildcard.
// The result becomes the pending match flag.
func (i *Interpreter) cmdMatch(body string) signal {
	matched := false
	for _, pattern := range strings.Split(body, ",") {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}
		expr := strings.ReplaceAll(regexp.QuoteMeta(pattern), `\*`, `.*`)
		re, err := regexp.Compile(`(?i)` + expr)
		if err != nil {
			continue
		}
		if re.MatchString(i.lastInput) {
			matched = true
			break
		}
	}
	i.flag.set(matched)
	logger.Debug(logger.AreaPilot, "M: %q against %q -> %v", body, i.lastInput, matched)
	return contSignal()
}

// cmdCondition implements Y: and N:. The condition expression is
// evaluated and the (for N: negated) result becomes the pending flag.
func (i *Interpreter) cmdCondition(body string, negate bool, pos int) signal {
	cond := strings.TrimSpace(body)
	if cond == "" {
		return errSignal(NewInterpretError(ErrCategorySyntax, "condition expected").
			WithLine(pos).WithDialect("pilot"))
	}
	v, err := i.EvaluateExpression(cond)
	if err != nil {
		return errSignal(WrapError(err, "Y:/N:", pos))
	}
	result := v.AsBool()
	if negate {
		result = !result
	}
	i.flag.set(result)
	return contSignal()
}

// cmdCompute implements the C: dual form. The empty-body Return variant
// was tagged at load time; in direct mode the body decides.
func (i *Interpreter) cmdCompute(body string, pos int) signal {
	isReturn := strings.TrimSpace(body) == ""
	if pos >= 0 {
		isReturn = i.lines[pos].CReturn
	}
	if isReturn {
		if len(i.callStack) == 0 {
			return errSignal(NewInterpretError(ErrCategoryRuntime, "return without subroutine call").
				WithCommand("C:").WithLine(pos).WithErr(ErrReturnWithoutCall))
		}
		target := i.callStack[len(i.callStack)-1]
		i.callStack = i.callStack[:len(i.callStack)-1]
		return jumpSignal(target)
	}

	name, expr, ok := splitAssignment(body)
	if !ok {
		return errSignal(NewInterpretError(ErrCategorySyntax, "assignment expected after C:").
			WithLine(pos).WithDialect("pilot"))
	}
	v, err := i.EvaluateExpression(expr)
	if err != nil {
		return errSignal(WrapError(err, "C:", pos))
	}
	i.SetVariable(name, v)
	i.flag.set(true)
	return contSignal()
}

// cmdUse implements U: assignments. Quoted bodies store the literal
// verbatim; an evaluation failure stores the raw text instead; only a
// security rejection is an error.
func (i *Interpreter) cmdUse(body string, pos int) signal {
	name, expr, ok := splitAssignment(body)
	if !ok {
		return errSignal(NewInterpretError(ErrCategorySyntax, "assignment expected after U:").
			WithLine(pos).WithDialect("pilot"))
	}

	if unquoted, isQuoted := stripQuotes(expr); isQuoted {
		i.SetVariable(name, StringValue(unquoted))
		return contSignal()
	}

	v, err := i.EvaluateExpression(expr)
	if err != nil {
		if IsSecurityError(err) {
			return errSignal(WrapError(err, "U:", pos))
		}
		// Auswertung fehlgeschlagen: Rohtext speichern
		i.SetVariable(name, StringValue(expr))
		return contSignal()
	}
	i.SetVariable(name, v)
	return contSignal()
}

// cmdJump implements J:. A pending match flag gates the jump and is
// consumed either way.
func (i *Interpreter) cmdJump(body string, pos int) signal {
	if !i.flag.consume(true) {
		return contSignal()
	}
	target, err := i.resolveLabel(body)
	if err != nil {
		return errSignal(WrapError(err, "J:", pos))
	}
	return jumpSignal(target)
}

// cmdRemark implements R:. Most bodies are comments, but a handful of
// special forms hide here: SND/PLAY sound commands, SAVE/LOAD slot
// persistence, and subroutine calls when the body names a label.
func (i *Interpreter) cmdRemark(body string, pos int) signal {
	trimmed := strings.TrimSpace(body)
	if trimmed == "" {
		return contSignal()
	}

	fields := strings.Fields(trimmed)
	switch strings.ToUpper(fields[0]) {
	case "SND":
		return i.cmdSound(fields[1:], pos)
	case "PLAY":
		return i.cmdPlay(fields[1:])
	case "SAVE":
		return i.cmdSaveSlot(fields[1:], pos)
	case "LOAD":
		return i.cmdLoadSlot(fields[1:], pos)
	}

	// Nennt der Rumpf ein Label, ist R: ein Unterprogrammaufruf.
	if pos >= 0 && len(fields) == 1 {
		if target, err := i.resolveLabel(fields[0]); err == nil {
			i.callStack = append(i.callStack, pos+1)
			return jumpSignal(target)
		}
	}

	// Gewöhnliche Bemerkung
	return contSignal()
}

// cmdGraphics implements the G: pass-through. DOT and RECT are handled
// directly; everything else is delegated to the Logo executor so
// "G: FD 50" works inside PILOT programs.
func (i *Interpreter) cmdGraphics(body string, pos int) signal {
	fields := strings.Fields(strings.TrimSpace(body))
	if len(fields) == 0 {
		return contSignal()
	}
	switch strings.ToUpper(fields[0]) {
	case "DOT":
		args, err := i.numericArgs(fields[1:], 2, "DOT")
		if err != nil {
			return errSignal(WrapError(err, "G:", pos))
		}
		seg := Segment{
			X1: args[0], Y1: args[1], X2: args[0], Y2: args[1],
			Color: i.turtle.PenColor, Width: i.turtle.PenWidth,
		}
		i.turtle.segments = append(i.turtle.segments, seg)
		i.send(SegmentMessage(seg))
		return contSignal()
	case "RECT":
		args, err := i.numericArgs(fields[1:], 4, "RECT")
		if err != nil {
			return errSignal(WrapError(err, "G:", pos))
		}
		x, y, w, h := args[0], args[1], args[2], args[3]
		corners := [][4]float64{
			{x, y, x + w, y},
			{x + w, y, x + w, y + h},
			{x + w, y + h, x, y + h},
			{x, y + h, x, y},
		}
		for _, c := range corners {
			seg := Segment{X1: c[0], Y1: c[1], X2: c[2], Y2: c[3],
				Color: i.turtle.PenColor, Width: i.turtle.PenWidth}
			i.turtle.segments = append(i.turtle.segments, seg)
			i.send(SegmentMessage(seg))
		}
		return contSignal()
	}
	return i.executeLogo(strings.TrimSpace(body), pos)
}

// splitAssignment zerlegt "name = expr" am ersten Gleichheitszeichen.
func splitAssignment(body string) (name, expr string, ok bool) {
	idx := strings.IndexByte(body, '=')
	if idx <= 0 {
		return "", "", false
	}
	name = strings.TrimSpace(body[:idx])
	expr = strings.TrimSpace(body[idx+1:])
	if !isIdentifier(name) || expr == "" {
		return "", "", false
	}
	return name, expr, true
}

// stripQuotes removes a matching pair of quotes and reports whether the
// text was quoted at all.
func stripQuotes(s string) (string, bool) {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1], true
		}
	}
	return s, false
}
