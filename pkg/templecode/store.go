package templecode

// matchFlag is the shared conditional state of the interpreter. Y:/N:
// conditions, M: pattern matches and BASIC IF set it "pending"; the next
// flag-gated command (T:, J:, a bare Y:/N: body) consumes it exactly once.
type matchFlag struct {
	value   bool // Ergebnis der letzten Bedingung
	pending bool // true, bis ein Befehl das Flag konsumiert hat
}

// set stellt eine neue Bedingung ein und markiert sie als unverbraucht.
func (f *matchFlag) set(v bool) {
	f.value = v
	f.pending = true
}

// consume liefert den Flag-Wert und hebt die Markierung auf. Liegt kein
// unverbrauchtes Flag vor, wird defaultVal geliefert.
func (f *matchFlag) consume(defaultVal bool) bool {
	if !f.pending {
		return defaultVal
	}
	f.pending = false
	return f.value
}

// reset löscht Wert und Markierung (beim Laden eines Programms).
func (f *matchFlag) reset() {
	f.value = false
	f.pending = false
}

// GetVariable reads a variable from the shared store. Parameter frames
// of active Logo procedures shadow globals; unset variables default to
// 0 for numeric names and "" for $-suffixed string names.
func (i *Interpreter) GetVariable(name string) Value {
	for f := len(i.logoFrames) - 1; f >= 0; f-- {
		if v, ok := i.logoFrames[f][name]; ok {
			return v
		}
		for k, v := range i.logoFrames[f] {
			if equalFold(k, name) {
				return v
			}
		}
	}
	if v, ok := i.variables[name]; ok {
		return v
	}
	// Variablennamen sind case-preserving, Lookups aber tolerant:
	// PILOT-Programme mischen gern Groß- und Kleinschreibung.
	for k, v := range i.variables {
		if equalFold(k, name) {
			return v
		}
	}
	if IsStringVarName(name) {
		return StringValue("")
	}
	return NumberValue(0)
}

// SetVariable writes a variable. A name bound as a procedure parameter
// updates the innermost frame holding it; everything else lands in the
// global store. An existing case-insensitive match is updated under its
// original name so a program cannot end up with both "Score" and "SCORE".
func (i *Interpreter) SetVariable(name string, val Value) {
	for f := len(i.logoFrames) - 1; f >= 0; f-- {
		if _, ok := i.logoFrames[f][name]; ok {
			i.logoFrames[f][name] = val
			return
		}
		for k := range i.logoFrames[f] {
			if equalFold(k, name) {
				i.logoFrames[f][k] = val
				return
			}
		}
	}
	if _, ok := i.variables[name]; ok {
		i.variables[name] = val
		return
	}
	for k := range i.variables {
		if equalFold(k, name) {
			i.variables[k] = val
			return
		}
	}
	i.variables[name] = val
}

// HasVariable prüft, ob eine Variable (case-insensitiv) existiert.
func (i *Interpreter) HasVariable(name string) bool {
	for f := len(i.logoFrames) - 1; f >= 0; f-- {
		for k := range i.logoFrames[f] {
			if equalFold(k, name) {
				return true
			}
		}
	}
	if _, ok := i.variables[name]; ok {
		return true
	}
	for k := range i.variables {
		if equalFold(k, name) {
			return true
		}
	}
	return false
}

// equalFold is an ASCII-only case-insensitive comparison. Variable names
// are ASCII identifiers, so the unicode machinery of strings.EqualFold
// is not needed on this hot path.
func equalFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if ca >= 'a' && ca <= 'z' {
			ca -= 'a' - 'A'
		}
		if cb >= 'a' && cb <= 'z' {
			cb -= 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}
