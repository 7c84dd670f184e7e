package templecode

import (
	"fmt"
	"math"
	"math/rand"
	"strconv"
	"strings"
	"unicode"

	"github.com/antibyte/templecode/pkg/logger"
)

// unsafePatterns is a fast substring screen applied before parsing.
// Expressions are never handed to a host-language evaluator; the screen
// only exists to reject obviously hostile input early and loudly.
var unsafePatterns = []string{
	"__", "import", "exec", "eval", "open", "file",
}

// unsafeChars are rejected outright - the grammar has no use for them.
const unsafeChars = "[]{}"

// checkExpressionSafety rejects expressions containing denied patterns.
func checkExpressionSafety(expr string) error {
	lower := strings.ToLower(expr)
	for _, pat := range unsafePatterns {
		if strings.Contains(lower, pat) {
			logger.SecurityWarn("expression rejected, contains %q: %s", pat, expr)
			return NewInterpretError(ErrCategorySecurity, fmt.Sprintf("unsafe pattern %q in expression", pat)).WithErr(ErrUnsafeExpression)
		}
	}
	if strings.ContainsAny(expr, unsafeChars) {
		logger.SecurityWarn("expression rejected, contains bracket characters: %s", expr)
		return NewInterpretError(ErrCategorySecurity, "unsafe characters in expression").WithErr(ErrUnsafeExpression)
	}
	return nil
}

// Token types for expression parsing
type TokenType int

const (
	TOKEN_EOF TokenType = iota
	TOKEN_NUMBER
	TOKEN_STRING
	TOKEN_IDENTIFIER
	TOKEN_PLUS
	TOKEN_MINUS
	TOKEN_MULTIPLY
	TOKEN_DIVIDE
	TOKEN_POWER
	TOKEN_MOD
	TOKEN_LPAREN
	TOKEN_RPAREN
	TOKEN_EQ
	TOKEN_NE
	TOKEN_LT
	TOKEN_LE
	TOKEN_GT
	TOKEN_GE
	TOKEN_AND
	TOKEN_OR
	TOKEN_NOT
	TOKEN_COMMA
)

// ExprToken represents a lexical token for expression parsing
type ExprToken struct {
	Type   TokenType
	Value  string
	NumVal float64
	StrVal string
}

// exprLexer tokenizes TempleCode expressions
type exprLexer struct {
	input string
	pos   int
	char  byte
}

func newExprLexer(input string) *exprLexer {
	l := &exprLexer{input: input}
	l.readChar()
	return l
}

// readChar advances the lexer position
func (l *exprLexer) readChar() {
	if l.pos >= len(l.input) {
		l.char = 0 // EOF
	} else {
		l.char = l.input[l.pos]
	}
	l.pos++
}

// peekChar returns the next character without advancing
func (l *exprLexer) peekChar() byte {
	if l.pos >= len(l.input) {
		return 0
	}
	return l.input[l.pos]
}

func (l *exprLexer) skipWhitespace() {
	for l.char == ' ' || l.char == '\t' {
		l.readChar()
	}
}

// readString reads a string literal delimited by " or '
func (l *exprLexer) readString(quote byte) (string, error) {
	startPos := l.pos
	l.readChar() // Skip opening quote

	for l.char != quote && l.char != 0 {
		l.readChar()
	}

	if l.char == quote {
		result := l.input[startPos : l.pos-1]
		l.readChar() // Skip closing quote
		return result, nil
	}

	return "", NewInterpretError(ErrCategorySyntax, "unterminated string literal")
}

// readNumber reads a numeric literal
func (l *exprLexer) readNumber() (string, float64) {
	startPos := l.pos - 1

	for unicode.IsDigit(rune(l.char)) {
		l.readChar()
	}

	// Handle decimal point
	if l.char == '.' && unicode.IsDigit(rune(l.peekChar())) {
		l.readChar() // Skip dot
		for unicode.IsDigit(rune(l.char)) {
			l.readChar()
		}
	}

	numStr := l.input[startPos : l.pos-1]
	numVal, _ := strconv.ParseFloat(numStr, 64)
	return numStr, numVal
}

// readIdentifier reads an identifier or keyword
func (l *exprLexer) readIdentifier() string {
	startPos := l.pos - 1

	for unicode.IsLetter(rune(l.char)) || unicode.IsDigit(rune(l.char)) || l.char == '$' || l.char == '_' {
		l.readChar()
	}

	return l.input[startPos : l.pos-1]
}

// NextToken returns the next token from the input
func (l *exprLexer) NextToken() (ExprToken, error) {
	l.skipWhitespace()

	switch l.char {
	case 0:
		return ExprToken{Type: TOKEN_EOF}, nil
	case '+':
		l.readChar()
		return ExprToken{Type: TOKEN_PLUS, Value: "+"}, nil
	case '-':
		l.readChar()
		return ExprToken{Type: TOKEN_MINUS, Value: "-"}, nil
	case '*':
		l.readChar()
		return ExprToken{Type: TOKEN_MULTIPLY, Value: "*"}, nil
	case '/':
		l.readChar()
		return ExprToken{Type: TOKEN_DIVIDE, Value: "/"}, nil
	case '^':
		l.readChar()
		return ExprToken{Type: TOKEN_POWER, Value: "^"}, nil
	case '%':
		l.readChar()
		return ExprToken{Type: TOKEN_MOD, Value: "%"}, nil
	case '(':
		l.readChar()
		return ExprToken{Type: TOKEN_LPAREN, Value: "("}, nil
	case ')':
		l.readChar()
		return ExprToken{Type: TOKEN_RPAREN, Value: ")"}, nil
	case ',':
		l.readChar()
		return ExprToken{Type: TOKEN_COMMA, Value: ","}, nil
	case '=':
		if l.peekChar() == '=' {
			l.readChar()
		}
		l.readChar()
		return ExprToken{Type: TOKEN_EQ, Value: "="}, nil
	case '!':
		if l.peekChar() == '=' {
			l.readChar()
			l.readChar()
			return ExprToken{Type: TOKEN_NE, Value: "!="}, nil
		}
		l.readChar()
		return ExprToken{Type: TOKEN_NOT, Value: "!"}, nil
	case '<':
		if l.peekChar() == '=' {
			l.readChar()
			l.readChar()
			return ExprToken{Type: TOKEN_LE, Value: "<="}, nil
		} else if l.peekChar() == '>' {
			l.readChar()
			l.readChar()
			return ExprToken{Type: TOKEN_NE, Value: "<>"}, nil
		}
		l.readChar()
		return ExprToken{Type: TOKEN_LT, Value: "<"}, nil
	case '>':
		if l.peekChar() == '=' {
			l.readChar()
			l.readChar()
			return ExprToken{Type: TOKEN_GE, Value: ">="}, nil
		}
		l.readChar()
		return ExprToken{Type: TOKEN_GT, Value: ">"}, nil
	case '"', '\'':
		quote := l.char
		str, err := l.readString(quote)
		if err != nil {
			return ExprToken{}, err
		}
		return ExprToken{Type: TOKEN_STRING, Value: str, StrVal: str}, nil
	default:
		if unicode.IsDigit(rune(l.char)) {
			numStr, numVal := l.readNumber()
			return ExprToken{Type: TOKEN_NUMBER, Value: numStr, NumVal: numVal}, nil
		} else if unicode.IsLetter(rune(l.char)) || l.char == '_' {
			ident := l.readIdentifier()

			// Check for keywords
			switch strings.ToUpper(ident) {
			case "MOD":
				return ExprToken{Type: TOKEN_MOD, Value: "MOD"}, nil
			case "AND":
				return ExprToken{Type: TOKEN_AND, Value: "AND"}, nil
			case "OR":
				return ExprToken{Type: TOKEN_OR, Value: "OR"}, nil
			case "NOT":
				return ExprToken{Type: TOKEN_NOT, Value: "NOT"}, nil
			default:
				return ExprToken{Type: TOKEN_IDENTIFIER, Value: ident}, nil
			}
		}

		return ExprToken{}, NewInterpretError(ErrCategorySyntax,
			fmt.Sprintf("unexpected character %q in expression", string(l.char)))
	}
}

// exprParser evaluates expressions by recursive descent. There is no
// intermediate AST: each grammar rule computes its Value directly.
// Identifiers resolve against the interpreter's variable store, so the
// grammar itself is restricted by construction - nothing outside the
// whitelisted functions and operators can execute.
type exprParser struct {
	lexer   *exprLexer
	current ExprToken
	interp  *Interpreter
	err     error
}

func newExprParser(input string, interp *Interpreter) (*exprParser, error) {
	p := &exprParser{
		lexer:  newExprLexer(input),
		interp: interp,
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	return p, nil
}

// advance moves to the next token
func (p *exprParser) advance() error {
	tok, err := p.lexer.NextToken()
	if err != nil {
		return err
	}
	p.current = tok
	return nil
}

func (p *exprParser) expect(t TokenType, what string) error {
	if p.current.Type != t {
		return NewInterpretError(ErrCategorySyntax, what+" expected")
	}
	return p.advance()
}

// parseExpression parses the full input and requires it to be consumed.
func (p *exprParser) parseExpression() (Value, error) {
	v, err := p.parseOr()
	if err != nil {
		return Value{}, err
	}
	if p.current.Type != TOKEN_EOF {
		return Value{}, NewInterpretError(ErrCategorySyntax,
			fmt.Sprintf("unexpected token %q after expression", p.current.Value))
	}
	return v, nil
}

func (p *exprParser) parseOr() (Value, error) {
	left, err := p.parseAnd()
	if err != nil {
		return Value{}, err
	}
	for p.current.Type == TOKEN_OR {
		if err := p.advance(); err != nil {
			return Value{}, err
		}
		right, err := p.parseAnd()
		if err != nil {
			return Value{}, err
		}
		left = boolValue(left.AsBool() || right.AsBool())
	}
	return left, nil
}

func (p *exprParser) parseAnd() (Value, error) {
	left, err := p.parseNot()
	if err != nil {
		return Value{}, err
	}
	for p.current.Type == TOKEN_AND {
		if err := p.advance(); err != nil {
			return Value{}, err
		}
		right, err := p.parseNot()
		if err != nil {
			return Value{}, err
		}
		left = boolValue(left.AsBool() && right.AsBool())
	}
	return left, nil
}

func (p *exprParser) parseNot() (Value, error) {
	if p.current.Type == TOKEN_NOT {
		if err := p.advance(); err != nil {
			return Value{}, err
		}
		v, err := p.parseNot()
		if err != nil {
			return Value{}, err
		}
		return boolValue(!v.AsBool()), nil
	}
	return p.parseComparison()
}

func (p *exprParser) parseComparison() (Value, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return Value{}, err
	}
	for {
		op := p.current.Type
		switch op {
		case TOKEN_EQ, TOKEN_NE, TOKEN_LT, TOKEN_LE, TOKEN_GT, TOKEN_GE:
		default:
			return left, nil
		}
		if err := p.advance(); err != nil {
			return Value{}, err
		}
		right, err := p.parseAdditive()
		if err != nil {
			return Value{}, err
		}
		left, err = compareValues(left, right, op)
		if err != nil {
			return Value{}, err
		}
	}
}

func (p *exprParser) parseAdditive() (Value, error) {
	left, err := p.parseTerm()
	if err != nil {
		return Value{}, err
	}
	for p.current.Type == TOKEN_PLUS || p.current.Type == TOKEN_MINUS {
		op := p.current.Type
		if err := p.advance(); err != nil {
			return Value{}, err
		}
		right, err := p.parseTerm()
		if err != nil {
			return Value{}, err
		}
		if op == TOKEN_PLUS {
			// + verkettet Strings, sobald eine Seite ein String ist
			if !left.IsNumeric || !right.IsNumeric {
				left = StringValue(left.String() + right.String())
				continue
			}
			left = NumberValue(left.NumValue + right.NumValue)
		} else {
			if !left.IsNumeric || !right.IsNumeric {
				return Value{}, NewInterpretError(ErrCategoryEvaluation, "type mismatch in subtraction").WithErr(ErrTypeMismatch)
			}
			left = NumberValue(left.NumValue - right.NumValue)
		}
	}
	return left, nil
}

func (p *exprParser) parseTerm() (Value, error) {
	left, err := p.parseUnary()
	if err != nil {
		return Value{}, err
	}
	for p.current.Type == TOKEN_MULTIPLY || p.current.Type == TOKEN_DIVIDE || p.current.Type == TOKEN_MOD {
		op := p.current.Type
		if err := p.advance(); err != nil {
			return Value{}, err
		}
		right, err := p.parseUnary()
		if err != nil {
			return Value{}, err
		}
		if !left.IsNumeric || !right.IsNumeric {
			return Value{}, NewInterpretError(ErrCategoryEvaluation, "type mismatch in arithmetic").WithErr(ErrTypeMismatch)
		}
		switch op {
		case TOKEN_MULTIPLY:
			left = NumberValue(left.NumValue * right.NumValue)
		case TOKEN_DIVIDE:
			if right.NumValue == 0 {
				return Value{}, NewInterpretError(ErrCategoryEvaluation, "division by zero").WithErr(ErrDivisionByZero)
			}
			left = NumberValue(left.NumValue / right.NumValue)
		case TOKEN_MOD:
			if right.NumValue == 0 {
				return Value{}, NewInterpretError(ErrCategoryEvaluation, "division by zero").WithErr(ErrDivisionByZero)
			}
			left = NumberValue(math.Mod(left.NumValue, right.NumValue))
		}
	}
	return left, nil
}

func (p *exprParser) parseUnary() (Value, error) {
	switch p.current.Type {
	case TOKEN_MINUS:
		if err := p.advance(); err != nil {
			return Value{}, err
		}
		v, err := p.parseUnary()
		if err != nil {
			return Value{}, err
		}
		if !v.IsNumeric {
			return Value{}, NewInterpretError(ErrCategoryEvaluation, "unary minus on string")
		}
		return NumberValue(-v.NumValue), nil
	case TOKEN_PLUS:
		if err := p.advance(); err != nil {
			return Value{}, err
		}
		return p.parseUnary()
	}
	return p.parsePower()
}

// parsePower handles ^ right-associatively (2^3^2 = 512).
func (p *exprParser) parsePower() (Value, error) {
	base, err := p.parsePrimary()
	if err != nil {
		return Value{}, err
	}
	if p.current.Type != TOKEN_POWER {
		return base, nil
	}
	if err := p.advance(); err != nil {
		return Value{}, err
	}
	exp, err := p.parseUnary()
	if err != nil {
		return Value{}, err
	}
	if !base.IsNumeric || !exp.IsNumeric {
		return Value{}, NewInterpretError(ErrCategoryEvaluation, "type mismatch in exponentiation")
	}
	return NumberValue(math.Pow(base.NumValue, exp.NumValue)), nil
}

func (p *exprParser) parsePrimary() (Value, error) {
	switch p.current.Type {
	case TOKEN_NUMBER:
		v := NumberValue(p.current.NumVal)
		if err := p.advance(); err != nil {
			return Value{}, err
		}
		return v, nil
	case TOKEN_STRING:
		v := StringValue(p.current.StrVal)
		if err := p.advance(); err != nil {
			return Value{}, err
		}
		return v, nil
	case TOKEN_LPAREN:
		if err := p.advance(); err != nil {
			return Value{}, err
		}
		v, err := p.parseOr()
		if err != nil {
			return Value{}, err
		}
		if err := p.expect(TOKEN_RPAREN, "closing parenthesis"); err != nil {
			return Value{}, err
		}
		return v, nil
	case TOKEN_IDENTIFIER:
		name := p.current.Value
		if err := p.advance(); err != nil {
			return Value{}, err
		}
		if p.current.Type == TOKEN_LPAREN {
			return p.parseFunctionCall(name)
		}
		// Bare identifier: resolve from the variable store. Unknown
		// variables follow the default rule (0 bzw. "").
		return p.interp.GetVariable(name), nil
	}
	return Value{}, NewInterpretError(ErrCategorySyntax,
		fmt.Sprintf("unexpected token %q in expression", p.current.Value))
}

// parseFunctionCall evaluates a whitelisted function. Anything not in
// the table is a syntax error, never a lookup into host functionality.
func (p *exprParser) parseFunctionCall(name string) (Value, error) {
	if err := p.advance(); err != nil { // skip (
		return Value{}, err
	}
	args := []Value{}
	if p.current.Type != TOKEN_RPAREN {
		for {
			arg, err := p.parseOr()
			if err != nil {
				return Value{}, err
			}
			args = append(args, arg)
			if p.current.Type != TOKEN_COMMA {
				break
			}
			if err := p.advance(); err != nil {
				return Value{}, err
			}
		}
	}
	if err := p.expect(TOKEN_RPAREN, "closing parenthesis"); err != nil {
		return Value{}, err
	}
	return callFunction(name, args)
}

// boolValue maps a condition result to the numeric 1/0 convention.
func boolValue(b bool) Value {
	if b {
		return NumberValue(1)
	}
	return NumberValue(0)
}

// compareValues compares two values. Mixed numeric/string comparisons
// compare the formatted representations, matching A: input semantics
// where "5" and 5 should test equal.
func compareValues(left, right Value, op TokenType) (Value, error) {
	var cmp int
	if left.IsNumeric && right.IsNumeric {
		switch {
		case left.NumValue < right.NumValue:
			cmp = -1
		case left.NumValue > right.NumValue:
			cmp = 1
		}
	} else {
		ls, rs := left.String(), right.String()
		switch {
		case ls < rs:
			cmp = -1
		case ls > rs:
			cmp = 1
		}
	}
	switch op {
	case TOKEN_EQ:
		return boolValue(cmp == 0), nil
	case TOKEN_NE:
		return boolValue(cmp != 0), nil
	case TOKEN_LT:
		return boolValue(cmp < 0), nil
	case TOKEN_LE:
		return boolValue(cmp <= 0), nil
	case TOKEN_GT:
		return boolValue(cmp > 0), nil
	case TOKEN_GE:
		return boolValue(cmp >= 0), nil
	}
	return Value{}, NewInterpretError(ErrCategorySyntax, "invalid comparison operator")
}

// callFunction dispatches the whitelisted built-in functions.
func callFunction(name string, args []Value) (Value, error) {
	fname := strings.ToUpper(name)

	num := func(idx int) (float64, error) {
		if idx >= len(args) {
			return 0, NewInterpretError(ErrCategorySyntax, fname+": missing argument")
		}
		if !args[idx].IsNumeric {
			return 0, NewInterpretError(ErrCategoryEvaluation, fname+": numeric argument expected")
		}
		return args[idx].NumValue, nil
	}
	str := func(idx int) (string, error) {
		if idx >= len(args) {
			return "", NewInterpretError(ErrCategorySyntax, fname+": missing argument")
		}
		return args[idx].String(), nil
	}

	switch fname {
	case "ABS":
		n, err := num(0)
		if err != nil {
			return Value{}, err
		}
		return NumberValue(math.Abs(n)), nil
	case "INT":
		n, err := num(0)
		if err != nil {
			return Value{}, err
		}
		return NumberValue(math.Floor(n)), nil
	case "ROUND":
		n, err := num(0)
		if err != nil {
			return Value{}, err
		}
		return NumberValue(math.Round(n)), nil
	case "SGN":
		n, err := num(0)
		if err != nil {
			return Value{}, err
		}
		switch {
		case n > 0:
			return NumberValue(1), nil
		case n < 0:
			return NumberValue(-1), nil
		}
		return NumberValue(0), nil
	case "SQR":
		n, err := num(0)
		if err != nil {
			return Value{}, err
		}
		if n < 0 {
			return Value{}, NewInterpretError(ErrCategoryEvaluation, "negative value in square root")
		}
		return NumberValue(math.Sqrt(n)), nil
	case "SIN":
		n, err := num(0)
		if err != nil {
			return Value{}, err
		}
		return NumberValue(math.Sin(n)), nil
	case "COS":
		n, err := num(0)
		if err != nil {
			return Value{}, err
		}
		return NumberValue(math.Cos(n)), nil
	case "TAN":
		n, err := num(0)
		if err != nil {
			return Value{}, err
		}
		return NumberValue(math.Tan(n)), nil
	case "ATN":
		n, err := num(0)
		if err != nil {
			return Value{}, err
		}
		return NumberValue(math.Atan(n)), nil
	case "LOG":
		n, err := num(0)
		if err != nil {
			return Value{}, err
		}
		if n <= 0 {
			return Value{}, NewInterpretError(ErrCategoryEvaluation, "non-positive value in logarithm")
		}
		return NumberValue(math.Log(n)), nil
	case "EXP":
		n, err := num(0)
		if err != nil {
			return Value{}, err
		}
		return NumberValue(math.Exp(n)), nil
	case "RND":
		// RND() ohne Argument entspricht RND(0)
		if len(args) == 0 {
			return NumberValue(rand.Float64()), nil
		}
		n, err := num(0)
		if err != nil {
			return Value{}, err
		}
		if n <= 0 {
			return NumberValue(rand.Float64()), nil
		}
		return NumberValue(rand.Float64() * n), nil
	case "VAL":
		s, err := str(0)
		if err != nil {
			return Value{}, err
		}
		n, perr := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if perr != nil {
			return NumberValue(0), nil
		}
		return NumberValue(n), nil
	case "LEN":
		s, err := str(0)
		if err != nil {
			return Value{}, err
		}
		return NumberValue(float64(len(s))), nil
	case "STR$", "STR":
		if len(args) < 1 {
			return Value{}, NewInterpretError(ErrCategorySyntax, fname+": missing argument")
		}
		return StringValue(args[0].String()), nil
	case "UPPER$", "UPPER":
		s, err := str(0)
		if err != nil {
			return Value{}, err
		}
		return StringValue(strings.ToUpper(s)), nil
	case "LOWER$", "LOWER":
		s, err := str(0)
		if err != nil {
			return Value{}, err
		}
		return StringValue(strings.ToLower(s)), nil
	case "MID$", "MID":
		s, err := str(0)
		if err != nil {
			return Value{}, err
		}
		start, err := num(1)
		if err != nil {
			return Value{}, err
		}
		length := float64(len(s))
		if len(args) > 2 {
			length, err = num(2)
			if err != nil {
				return Value{}, err
			}
		}
		// 1-basiert, Grenzen werden geklemmt statt zu fehlern
		from := int(start) - 1
		if from < 0 {
			from = 0
		}
		if from > len(s) {
			from = len(s)
		}
		to := from + int(length)
		if to > len(s) {
			to = len(s)
		}
		if to < from {
			to = from
		}
		return StringValue(s[from:to]), nil
	case "MAX":
		if len(args) < 2 {
			return Value{}, NewInterpretError(ErrCategorySyntax, "MAX: two arguments expected")
		}
		a, err := num(0)
		if err != nil {
			return Value{}, err
		}
		b, err := num(1)
		if err != nil {
			return Value{}, err
		}
		return NumberValue(math.Max(a, b)), nil
	case "MIN":
		if len(args) < 2 {
			return Value{}, NewInterpretError(ErrCategorySyntax, "MIN: two arguments expected")
		}
		a, err := num(0)
		if err != nil {
			return Value{}, err
		}
		b, err := num(1)
		if err != nil {
			return Value{}, err
		}
		return NumberValue(math.Min(a, b)), nil
	}

	return Value{}, NewInterpretError(ErrCategorySyntax,
		fmt.Sprintf("unknown function %q", name))
}

// EvaluateExpression evaluates an expression against the variable
// store. The safety screen runs first, then *NAME* tokens are
// substituted textually (string values quoted), then the restricted
// parser takes over. Bare identifiers resolve during parsing.
func (i *Interpreter) EvaluateExpression(expr string) (Value, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return Value{}, NewInterpretError(ErrCategorySyntax, "empty expression")
	}
	if err := checkExpressionSafety(expr); err != nil {
		return Value{}, err
	}

	expr = i.substituteStarVariables(expr)

	p, err := newExprParser(expr, i)
	if err != nil {
		return Value{}, err
	}
	v, err := p.parseExpression()
	if err != nil {
		logger.Debug(logger.AreaExpression, "evaluation failed for %q: %v", expr, err)
		return Value{}, err
	}
	return v, nil
}

// substituteStarVariables replaces *NAME* references with the stored
// value before parsing. String values are quoted so the lexer sees a
// string literal; numeric values are formatted plainly.
func (i *Interpreter) substituteStarVariables(expr string) string {
	var b strings.Builder
	for pos := 0; pos < len(expr); {
		ch := expr[pos]
		if ch != '*' {
			b.WriteByte(ch)
			pos++
			continue
		}
		// Mögliche *NAME*-Referenz
		end := strings.IndexByte(expr[pos+1:], '*')
		if end < 0 {
			b.WriteString(expr[pos:])
			break
		}
		name := expr[pos+1 : pos+1+end]
		if isIdentifier(name) {
			val := i.GetVariable(name)
			if val.IsNumeric {
				b.WriteString(FormatNumber(val.NumValue))
			} else {
				b.WriteByte('"')
				b.WriteString(val.StrValue)
				b.WriteByte('"')
			}
			pos += end + 2
			continue
		}
		// Kein Variablenname: das war ein Multiplikationsstern
		b.WriteByte('*')
		pos++
	}
	return b.String()
}

// isIdentifier reports whether s is a plain variable name (letters,
// digits, underscore, optional trailing $; must start with a letter).
func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for idx := 0; idx < len(s); idx++ {
		c := s[idx]
		switch {
		case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z':
		case c >= '0' && c <= '9', c == '_':
			if idx == 0 {
				return false
			}
		case c == '$':
			return idx == len(s)-1
		default:
			return false
		}
	}
	return true
}

// InterpolateText expands *VAR* and *expr* tokens inside T:/MT: output.
// A token that names a variable is replaced with its value; otherwise
// the token is evaluated as an expression, and left verbatim when that
// fails too.
func (i *Interpreter) InterpolateText(text string) string {
	var b strings.Builder
	for pos := 0; pos < len(text); {
		ch := text[pos]
		if ch != '*' {
			b.WriteByte(ch)
			pos++
			continue
		}
		end := strings.IndexByte(text[pos+1:], '*')
		if end < 0 {
			b.WriteString(text[pos:])
			break
		}
		token := text[pos+1 : pos+1+end]
		switch {
		case isIdentifier(token):
			b.WriteString(i.GetVariable(token).String())
		default:
			if v, err := i.EvaluateExpression(token); err == nil {
				b.WriteString(v.String())
			} else {
				b.WriteByte('*')
				b.WriteString(token)
				b.WriteByte('*')
			}
		}
		pos += end + 2
	}
	return b.String()
}
