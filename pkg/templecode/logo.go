package templecode

import (
	"fmt"
	"math"
	"strings"

	"github.com/antibyte/templecode/pkg/logger"
	"github.com/antibyte/templecode/pkg/shared"
)

// dispatch routes one line through the classifier without the outer
// panic guard. REPEAT bodies, procedure bodies and IF..THEN branches
// re-enter execution here.
func (i *Interpreter) dispatch(line string, pos int) signal {
	switch i.Classify(line) {
	case DialectBasic:
		return i.executeBasic(line, pos)
	case DialectLogo:
		return i.executeLogo(line, pos)
	default:
		return i.executePilot(line, pos)
	}
}

// executeLogo handles the Logo dialect. A line may chain several
// commands ("FD 50 RT 90"), so the executor walks a token stream and
// lets each command consume its arguments.
func (i *Interpreter) executeLogo(line string, pos int) signal {
	tokens, err := tokenizeLogo(line)
	if err != nil {
		return errSignal(WrapError(err, "LOGO", pos))
	}

	idx := 0
	need := func(n int, cmd string) ([]string, error) {
		if idx+n > len(tokens) {
			return nil, NewInterpretError(ErrCategorySyntax,
				fmt.Sprintf("%s expects %d argument(s)", cmd, n)).
				WithCommand(cmd).WithLine(pos).WithDialect("logo")
		}
		args := tokens[idx : idx+n]
		idx += n
		return args, nil
	}

	for idx < len(tokens) {
		cmd := strings.ToUpper(tokens[idx])
		idx++

		switch cmd {
		case "FD", "FORWARD", "BK", "BACK", "BACKWARD":
			args, err := need(1, cmd)
			if err != nil {
				return errSignal(err)
			}
			dist, err := i.numericArg(args[0])
			if err != nil {
				return errSignal(WrapError(err, cmd, pos))
			}
			if cmd == "BK" || cmd == "BACK" || cmd == "BACKWARD" {
				dist = -dist
			}
			if seg := i.turtle.Forward(dist); seg != nil {
				i.send(SegmentMessage(*seg))
			}
			i.send(i.turtle.PoseMessage())

		case "LT", "LEFT", "RT", "RIGHT":
			args, err := need(1, cmd)
			if err != nil {
				return errSignal(err)
			}
			deg, err := i.numericArg(args[0])
			if err != nil {
				return errSignal(WrapError(err, cmd, pos))
			}
			if cmd == "RT" || cmd == "RIGHT" {
				deg = -deg
			}
			i.turtle.Turn(deg)
			i.send(i.turtle.PoseMessage())

		case "PU", "PENUP":
			i.turtle.PenDown = false
		case "PD", "PENDOWN":
			i.turtle.PenDown = true

		case "HOME":
			i.turtle.Home()
			i.send(i.turtle.PoseMessage())

		case "CS", "CLEARSCREEN":
			i.turtle.ClearScreen()
			i.turtle.Home()
			i.send(shared.NewTurtleMessage("CLEAR", nil))
			i.send(i.turtle.PoseMessage())
		case "CLEAN":
			// wie CS, aber die Turtle bleibt stehen
			i.turtle.ClearScreen()
			i.send(shared.NewTurtleMessage("CLEAR", nil))

		case "SETPOS", "SETXY":
			args, err := need(2, cmd)
			if err != nil {
				return errSignal(err)
			}
			x, err := i.numericArg(args[0])
			if err != nil {
				return errSignal(WrapError(err, cmd, pos))
			}
			y, err := i.numericArg(args[1])
			if err != nil {
				return errSignal(WrapError(err, cmd, pos))
			}
			if seg := i.turtle.MoveTo(x, y); seg != nil {
				i.send(SegmentMessage(*seg))
			}
			i.send(i.turtle.PoseMessage())

		case "SETX":
			args, err := need(1, cmd)
			if err != nil {
				return errSignal(err)
			}
			x, err := i.numericArg(args[0])
			if err != nil {
				return errSignal(WrapError(err, cmd, pos))
			}
			if seg := i.turtle.MoveTo(x, i.turtle.Y); seg != nil {
				i.send(SegmentMessage(*seg))
			}
			i.send(i.turtle.PoseMessage())
		case "SETY":
			args, err := need(1, cmd)
			if err != nil {
				return errSignal(err)
			}
			y, err := i.numericArg(args[0])
			if err != nil {
				return errSignal(WrapError(err, cmd, pos))
			}
			if seg := i.turtle.MoveTo(i.turtle.X, y); seg != nil {
				i.send(SegmentMessage(*seg))
			}
			i.send(i.turtle.PoseMessage())

		case "SETHEADING", "SETH":
			args, err := need(1, cmd)
			if err != nil {
				return errSignal(err)
			}
			deg, err := i.numericArg(args[0])
			if err != nil {
				return errSignal(WrapError(err, cmd, pos))
			}
			i.turtle.Heading = math.Mod(deg, 360)
			if i.turtle.Heading < 0 {
				i.turtle.Heading += 360
			}
			i.send(i.turtle.PoseMessage())

		case "PENCOLOR", "SETPENCOLOR", "SETPC", "SETCOLOR":
			args, err := need(1, cmd)
			if err != nil {
				return errSignal(err)
			}
			color, _ := stripQuotes(strings.TrimPrefix(args[0], "\""))
			i.turtle.SetColor(color)

		case "PENSIZE", "SETPENSIZE", "SETWIDTH":
			args, err := need(1, cmd)
			if err != nil {
				return errSignal(err)
			}
			w, err := i.numericArg(args[0])
			if err != nil {
				return errSignal(WrapError(err, cmd, pos))
			}
			if w < 1 {
				w = 1
			}
			i.turtle.PenWidth = w

		case "HT", "HIDETURTLE":
			i.turtle.Visible = false
			i.send(i.turtle.PoseMessage())
		case "ST", "SHOWTURTLE":
			i.turtle.Visible = true
			i.send(i.turtle.PoseMessage())

		case "REPEAT":
			args, err := need(2, cmd)
			if err != nil {
				return errSignal(err)
			}
			count, err := i.numericArg(args[0])
			if err != nil {
				return errSignal(WrapError(err, "REPEAT", pos))
			}
			body := args[1]
			if !strings.HasPrefix(body, "[") || !strings.HasSuffix(body, "]") {
				return errSignal(NewInterpretError(ErrCategorySyntax,
					"REPEAT expects a [bracketed] command list").
					WithCommand("REPEAT").WithLine(pos).WithDialect("logo"))
			}
			body = strings.TrimSpace(body[1 : len(body)-1])
			for n := 0; n < int(count); n++ {
				if err := i.tick(); err != nil {
					return errSignal(err)
				}
				if sig := i.executeLogo(body, pos); sig.kind != sigContinue {
					return sig
				}
			}

		case "TO":
			return errSignal(NewInterpretError(ErrCategorySyntax,
				"procedure definitions are only allowed in loaded programs").
				WithCommand("TO").WithLine(pos).WithDialect("logo"))

		case "END":
			// END außerhalb einer Prozedurdefinition beendet das Programm
			return endSignal()

		default:
			proc, ok := i.procedures[cmd]
			if !ok {
				return errSignal(NewInterpretError(ErrCategorySyntax,
					"unknown Logo command "+cmd).
					WithCommand(cmd).WithLine(pos).WithDialect("logo").
					WithErr(ErrUnknownProcedure))
			}
			args, err := need(len(proc.Params), cmd)
			if err != nil {
				return errSignal(err)
			}
			values := make([]Value, len(args))
			for n, a := range args {
				v, err := i.evalLogoArg(a)
				if err != nil {
					return errSignal(WrapError(err, cmd, pos))
				}
				values[n] = v
			}
			if sig := i.callProcedure(proc, values, pos); sig.kind != sigContinue {
				return sig
			}
		}
	}
	return contSignal()
}

// callProcedure runs a user-defined procedure with its parameters bound
// in a fresh frame. The frame shadows global variables of the same name
// for the duration of the call; everything else stays global.
func (i *Interpreter) callProcedure(proc *LogoProc, args []Value, pos int) signal {
	frame := make(map[string]Value, len(proc.Params))
	for idx, p := range proc.Params {
		frame[strings.ToLower(p)] = args[idx]
	}
	i.logoFrames = append(i.logoFrames, frame)
	defer func() { i.logoFrames = i.logoFrames[:len(i.logoFrames)-1] }()

	logger.Debug(logger.AreaLogo, "call %s with %d argument(s), depth %d",
		proc.Name, len(args), len(i.logoFrames))

	for _, body := range proc.Body {
		if err := i.tick(); err != nil {
			return errSignal(err)
		}
		sig := i.dispatch(body, pos)
		switch sig.kind {
		case sigContinue:
			continue
		case sigJump:
			return errSignal(NewInterpretError(ErrCategoryRuntime,
				"cannot jump out of procedure "+proc.Name).WithLine(pos))
		default:
			return sig
		}
	}
	return contSignal()
}

// evalLogoArg evaluates one Logo argument token. A leading colon marks
// a parameter reference, a leading double quote a word literal.
func (i *Interpreter) evalLogoArg(token string) (Value, error) {
	token = strings.TrimSpace(token)
	if strings.HasPrefix(token, "\"") && !strings.HasSuffix(token, "\"") {
		// Logo-Wort: "red
		return StringValue(token[1:]), nil
	}
	return i.EvaluateExpression(strings.TrimPrefix(token, ":"))
}

// numericArg evaluates one token and requires a numeric result.
func (i *Interpreter) numericArg(token string) (float64, error) {
	v, err := i.evalLogoArg(token)
	if err != nil {
		return 0, err
	}
	if !v.IsNumeric {
		return 0, NewInterpretError(ErrCategoryEvaluation,
			"numeric value expected, got "+v.String())
	}
	return v.NumValue, nil
}

// numericArgs evaluates exactly n tokens as numbers. The PILOT G:
// shorthand forms (DOT, RECT) use this for their coordinate lists.
func (i *Interpreter) numericArgs(fields []string, n int, cmd string) ([]float64, error) {
	if len(fields) < n {
		return nil, NewInterpretError(ErrCategorySyntax,
			fmt.Sprintf("%s expects %d argument(s)", cmd, n)).WithCommand(cmd)
	}
	out := make([]float64, n)
	for idx := 0; idx < n; idx++ {
		v, err := i.numericArg(fields[idx])
		if err != nil {
			return nil, err
		}
		out[idx] = v
	}
	return out, nil
}

// tokenizeLogo splits a Logo line into tokens. Bracketed command lists
// stay together as a single token, nesting respected, so
// "REPEAT 4 [REPEAT 3 [FD 10] RT 90]" yields three tokens.
func tokenizeLogo(line string) ([]string, error) {
	var tokens []string
	idx := 0
	for idx < len(line) {
		for idx < len(line) && (line[idx] == ' ' || line[idx] == '\t') {
			idx++
		}
		if idx >= len(line) {
			break
		}
		if line[idx] == '[' {
			depth := 0
			start := idx
			for idx < len(line) {
				switch line[idx] {
				case '[':
					depth++
				case ']':
					depth--
				}
				idx++
				if depth == 0 {
					break
				}
			}
			if depth != 0 {
				return nil, ErrUnbalancedBrackets
			}
			tokens = append(tokens, line[start:idx])
			continue
		}
		start := idx
		for idx < len(line) && line[idx] != ' ' && line[idx] != '\t' && line[idx] != '[' {
			idx++
		}
		tokens = append(tokens, line[start:idx])
	}
	return tokens, nil
}
