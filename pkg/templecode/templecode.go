package templecode

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/antibyte/templecode/pkg/configuration"
	"github.com/antibyte/templecode/pkg/logger"
	"github.com/antibyte/templecode/pkg/shared"
	"github.com/antibyte/templecode/pkg/slotstore"
)

// MaxIterationsMessage is printed when the iteration guard stops a
// runaway program.
const MaxIterationsMessage = "Program stopped: Maximum iterations reached"

// DefaultMaxIterations bounds every run (including REPEAT bodies and
// recursive procedure calls) unless the configuration overrides it.
const DefaultMaxIterations = 10000

// OutputChannelBufferSize ist die Puffergröße des Nachrichtenkanals.
const OutputChannelBufferSize = 1000

// signalKind classifies the control signal an executed line yields.
type signalKind int

const (
	sigContinue signalKind = iota // nächste Zeile
	sigJump                       // Sprung zu Position target
	sigEnd                        // Programmende
	sigError                      // Fehler, Diagnose ausgeben und weiter
)

type signal struct {
	kind   signalKind
	target int
	err    error
}

func contSignal() signal         { return signal{kind: sigContinue} }
func jumpSignal(pos int) signal  { return signal{kind: sigJump, target: pos} }
func endSignal() signal          { return signal{kind: sigEnd} }
func errSignal(err error) signal { return signal{kind: sigError, err: err} }

// forFrame is one active BASIC FOR loop.
type forFrame struct {
	Var       string
	Limit     float64
	Step      float64
	BodyStart int // Position der Zeile nach dem FOR
}

// soundEffect ist ein per R: SND registrierter Klang.
type soundEffect struct {
	Freq float64
	Dur  float64
}

// Interpreter is a TempleCode interpreter instance. One instance serves
// one session; all dialects share its variable store, match flag, call
// stack and turtle.
type Interpreter struct {
	// Communication (External)
	OutputChan chan shared.Message // Channel for sending messages to the frontend.
	InputChan  chan string         // Channel feeding A:/INPUT responses.

	// Interpreter State (Internal, protected by mu)
	variables   map[string]Value
	flag        matchFlag
	lastInput   string // letzte A:/INPUT-Eingabe, Grundlage für M:
	lines       []programLine
	labels      map[string]int
	lineNumbers map[int]int
	procedures  map[string]*LogoProc
	callStack   []int                  // gemeinsamer Stack für R:-Subroutinen und GOSUB
	forStack    []forFrame             // aktive FOR-Schleifen
	logoFrames  []map[string]Value     // Parameter-Frames aktiver Logo-Prozeduren
	cursor      int                    // 0-basierte Position der nächsten Zeile
	running     bool
	paused      bool    // an Breakpoint angehalten
	lastDialect Dialect // zuletzt gemeldeter Modus (-1 = noch keiner)

	iterations    int
	maxIterations int

	// Debugging
	debugMode   bool
	breakpoints map[int]bool
	skipBreak   int // Position, deren Breakpoint beim Fortsetzen einmal ignoriert wird

	// Graphics, persistence, sound
	turtle *Turtle
	slots  slotstore.SlotStore
	sounds map[string]soundEffect

	// Ausgabe-Mitschrift (für Tests und REPL)
	transcript []shared.Message

	// pendingInput liefert Eingaben synchron, bevor InputChan befragt wird
	pendingInput string
	inputFunc    func(prompt string) (string, error)

	typeSpeed int // Zeichen pro Sekunde für MT:

	// Concurrency Control (Internal)
	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
}

// New creates and initializes a new interpreter instance. Limits and
// canvas geometry come from the [Interpreter] configuration section.
func New() *Interpreter {
	ctx, cancel := context.WithCancel(context.Background())

	width := configuration.GetInt("Interpreter", "canvas_width", DefaultCanvasWidth)
	height := configuration.GetInt("Interpreter", "canvas_height", DefaultCanvasHeight)

	i := &Interpreter{
		OutputChan:    make(chan shared.Message, OutputChannelBufferSize),
		InputChan:     make(chan string, 1),
		variables:     make(map[string]Value),
		labels:        make(map[string]int),
		lineNumbers:   make(map[int]int),
		procedures:    make(map[string]*LogoProc),
		breakpoints:   make(map[int]bool),
		sounds:        make(map[string]soundEffect),
		turtle:        NewTurtle(width, height),
		maxIterations: configuration.GetInt("Interpreter", "max_iterations", DefaultMaxIterations),
		typeSpeed:     configuration.GetInt("Interpreter", "type_speed", 30),
		skipBreak:     -1,
		lastDialect:   -1,
		ctx:           ctx,
		cancel:        cancel,
	}
	return i
}

// SetSlotStore verbindet den Interpreter mit einer Save-Slot-Ablage.
func (i *Interpreter) SetSlotStore(s slotstore.SlotStore) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.slots = s
}

// SetInputFunc installs a synchronous input source (used by the console
// REPL and by tests). When unset, input is read from InputChan.
func (i *Interpreter) SetInputFunc(fn func(prompt string) (string, error)) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.inputFunc = fn
}

// SetMaxIterations überschreibt den Iterationswächter.
func (i *Interpreter) SetMaxIterations(n int) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if n > 0 {
		i.maxIterations = n
	}
}

// Turtle exposes the turtle state (read-mostly; tests inspect it).
func (i *Interpreter) Turtle() *Turtle {
	return i.turtle
}

// Reset stellt den Ausgangszustand her, einschließlich Variablen und
// Turtle. Load() allein lässt Variablen absichtlich stehen.
func (i *Interpreter) Reset() {
	i.mu.Lock()
	defer i.mu.Unlock()

	i.variables = make(map[string]Value)
	i.flag.reset()
	i.lastInput = ""
	i.lines = nil
	i.labels = make(map[string]int)
	i.lineNumbers = make(map[int]int)
	i.procedures = make(map[string]*LogoProc)
	i.callStack = nil
	i.forStack = nil
	i.logoFrames = nil
	i.cursor = 0
	i.running = false
	i.paused = false
	i.iterations = 0
	i.breakpoints = make(map[int]bool)
	i.skipBreak = -1
	i.lastDialect = -1
	i.sounds = make(map[string]soundEffect)
	i.turtle.Reset()
	i.transcript = nil
}

// send delivers a message to the transcript and, without blocking, to
// the output channel. A full channel drops the message rather than
// stalling the driver.
func (i *Interpreter) send(msg shared.Message) {
	i.mu.Lock()
	i.transcript = append(i.transcript, msg)
	i.mu.Unlock()
	select {
	case i.OutputChan <- msg:
	default:
		logger.Warn(logger.AreaInterpreter, "output channel full, message dropped")
	}
}

// Print gibt eine Textzeile aus.
func (i *Interpreter) Print(text string) {
	i.send(shared.NewTextMessage(text))
}

// Transcript returns all messages emitted since the last clear.
func (i *Interpreter) Transcript() []shared.Message {
	i.mu.Lock()
	defer i.mu.Unlock()
	out := make([]shared.Message, len(i.transcript))
	copy(out, i.transcript)
	return out
}

// TextOutput liefert nur die Textzeilen des Mitschnitts.
func (i *Interpreter) TextOutput() []string {
	i.mu.Lock()
	defer i.mu.Unlock()
	out := []string{}
	for _, m := range i.transcript {
		if m.Type == shared.MessageTypeText || m.Type == shared.MessageTypeTyped {
			out = append(out, m.Content)
		}
	}
	return out
}

// ClearTranscript verwirft den Ausgabe-Mitschnitt.
func (i *Interpreter) ClearTranscript() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.transcript = nil
}

// ProvideInput feeds one pending input line (terminal handler path).
func (i *Interpreter) ProvideInput(line string) {
	select {
	case i.InputChan <- line:
	default:
		logger.Warn(logger.AreaInterpreter, "unexpected input dropped: %q", line)
	}
}

// requestInput blocks until an input line is available. The prompt is
// announced to the frontend through an input-control message first.
func (i *Interpreter) requestInput(prompt string) (string, error) {
	if i.pendingInput != "" {
		line := i.pendingInput
		i.pendingInput = ""
		return line, nil
	}
	if i.inputFunc != nil {
		return i.inputFunc(prompt)
	}

	enabled := true
	i.send(shared.Message{
		Type:         shared.MessageTypeInputControl,
		Content:      prompt,
		InputEnabled: &enabled,
	})
	ctx := i.runCtx()
	select {
	case line := <-i.InputChan:
		enabled = false
		i.send(shared.Message{Type: shared.MessageTypeInputControl, InputEnabled: &enabled})
		return line, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// runCtx liefert den internen Abbruchkontext unter dem Mutex;
// StopProgram tauscht ihn aus.
func (i *Interpreter) runCtx() context.Context {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.ctx
}

// tick charges one execution step against the iteration guard. Every
// dispatched line counts, including REPEAT bodies and recursive
// procedure calls - the guard is what bounds Logo recursion.
func (i *Interpreter) tick() error {
	i.iterations++
	if i.iterations > i.maxIterations {
		return ErrMaxIterations
	}
	return nil
}

// executeLine dispatches one line through the classifier. A panic in an
// executor is converted to an error signal so a bad line cannot take
// down the session.
func (i *Interpreter) executeLine(pos int) (sig signal) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error(logger.AreaInterpreter, "panic while executing line %d: %v", pos, r)
			sig = errSignal(NewInterpretError(ErrCategoryExecution,
				fmt.Sprintf("internal error: %v", r)).WithLine(pos))
		}
	}()

	line := i.lines[pos].Text
	dialect := i.Classify(line)
	logger.Debug(logger.AreaInterpreter, "line %d [%s]: %s", pos, dialect, line)
	i.announceMode(dialect)

	switch dialect {
	case DialectBasic:
		return i.executeBasic(line, pos)
	case DialectLogo:
		return i.executeLogo(line, pos)
	default:
		return i.executePilot(line, pos)
	}
}

// announceMode meldet dem Frontend den Dialekt der laufenden Zeile,
// aber nur bei einem Wechsel.
func (i *Interpreter) announceMode(d Dialect) {
	i.mu.Lock()
	changed := d != i.lastDialect
	i.lastDialect = d
	i.mu.Unlock()
	if changed {
		i.send(shared.Message{Type: shared.MessageTypeMode, Mode: d.String()})
	}
}

// setRunning aktualisiert das Laufzeitflag unter dem Interpreter-Mutex.
func (i *Interpreter) setRunning(v bool) {
	i.mu.Lock()
	i.running = v
	i.mu.Unlock()
}

// Run executes the loaded program from the beginning. It returns false
// only when the iteration guard stopped the program; clean ends, E:/END
// and breakpoint pauses all return true.
func (i *Interpreter) Run(ctx context.Context) bool {
	i.mu.Lock()
	i.cursor = 0
	i.iterations = 0
	i.running = true
	i.paused = false
	i.lastDialect = -1
	i.callStack = i.callStack[:0]
	i.forStack = i.forStack[:0]
	i.logoFrames = i.logoFrames[:0]
	i.flag.reset()
	i.mu.Unlock()

	return i.runLoop(ctx)
}

// runLoop drives the positional cursor until the program ends, pauses
// or trips the guard.
func (i *Interpreter) runLoop(ctx context.Context) bool {
	for i.cursor < len(i.lines) {
		select {
		case <-ctx.Done():
			i.setRunning(false)
			return true
		case <-i.runCtx().Done():
			i.setRunning(false)
			return true
		default:
		}

		if i.debugMode && i.breakpoints[i.cursor] && i.cursor != i.skipBreak {
			i.mu.Lock()
			i.paused = true
			i.mu.Unlock()
			i.send(shared.Message{
				Type:    shared.MessageTypeDebug,
				Content: "breakpoint",
				Line:    i.cursor,
			})
			logger.InterpreterDebug("paused at breakpoint, line %d", i.cursor)
			return true
		}
		i.skipBreak = -1

		if err := i.tick(); err != nil {
			i.Print(MaxIterationsMessage)
			i.setRunning(false)
			logger.InterpreterWarn("iteration guard tripped after %d steps", i.iterations-1)
			return false
		}

		switch i.applySignal(i.executeLine(i.cursor)) {
		case stepEnded:
			return true
		case stepGuard:
			return false
		}
	}
	i.setRunning(false)
	return true
}

// stepResult is the outcome of applying one control signal.
type stepResult int

const (
	stepRunning stepResult = iota // Programm läuft weiter
	stepEnded                     // sauberes Ende
	stepGuard                     // Iterationswächter hat abgebrochen
)

// applySignal advances the cursor according to a control signal.
func (i *Interpreter) applySignal(sig signal) stepResult {
	switch sig.kind {
	case sigContinue:
		i.cursor++
	case sigJump:
		i.cursor = sig.target
	case sigEnd:
		i.setRunning(false)
		return stepEnded
	case sigError:
		if errors.Is(sig.err, ErrMaxIterations) {
			i.Print(MaxIterationsMessage)
			i.setRunning(false)
			logger.InterpreterWarn("iteration guard tripped inside executor")
			return stepGuard
		}
		// Fehler werden gemeldet, das Programm läuft mit der
		// nächsten Zeile weiter.
		for _, m := range FormatErrorAsMessages(sig.err) {
			i.send(m)
		}
		logger.InterpreterError("line %d: %v", i.cursor, sig.err)
		i.cursor++
	}
	return stepRunning
}

// RunProgram loads and runs program text in one step.
func (i *Interpreter) RunProgram(ctx context.Context, text string) bool {
	if err := i.Load(text); err != nil {
		for _, m := range FormatErrorAsMessages(err) {
			i.send(m)
		}
		return true
	}
	return i.Run(ctx)
}

// ExecuteDirect runs a single line against the current state (REPL
// direct mode). Jumps are not meaningful without a program context and
// report an error instead. While a program runs the line is refused;
// the run loop owns the interpreter state until it ends or pauses.
func (i *Interpreter) ExecuteDirect(line string) {
	i.mu.Lock()
	busy := i.running && !i.paused
	i.mu.Unlock()
	if busy {
		for _, m := range FormatErrorAsMessages(
			NewInterpretError(ErrCategoryRuntime, "program already running").
				WithErr(ErrProgramRunning)) {
			i.send(m)
		}
		return
	}

	if err := i.tickReset(); err != nil {
		i.Print(MaxIterationsMessage)
		return
	}
	dialect := i.Classify(line)
	i.announceMode(dialect)
	var sig signal
	switch dialect {
	case DialectBasic:
		sig = i.executeBasic(line, -1)
	case DialectLogo:
		sig = i.executeLogo(line, -1)
	default:
		sig = i.executePilot(line, -1)
	}
	switch sig.kind {
	case sigJump:
		i.send(shared.Message{
			Type:    shared.MessageTypeError,
			Content: ErrCategoryRuntime + ": jump outside running program",
		})
	case sigError:
		for _, m := range FormatErrorAsMessages(sig.err) {
			i.send(m)
		}
	}
}

// tickReset charges the guard for direct mode, where each line resets
// the budget so an interactive session never locks itself out.
func (i *Interpreter) tickReset() error {
	i.iterations = 0
	return i.tick()
}

// StopProgram cancels a running program.
func (i *Interpreter) StopProgram() {
	i.cancel()
	i.mu.Lock()
	i.running = false
	i.ctx, i.cancel = context.WithCancel(context.Background())
	i.mu.Unlock()
	logger.InterpreterInfo("program stopped")
}

// IsRunning meldet, ob gerade ein Programm läuft.
func (i *Interpreter) IsRunning() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.running
}

// Busy meldet, ob die Run-Schleife den Interpreter gerade exklusiv
// besitzt. An einem Breakpoint pausierte Programme zählen nicht.
func (i *Interpreter) Busy() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.running && !i.paused
}

// SetDebugMode toggles breakpoint handling.
func (i *Interpreter) SetDebugMode(on bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.debugMode = on
}

// ToggleBreakpoint flips the breakpoint at a line position and reports
// the new state.
func (i *Interpreter) ToggleBreakpoint(pos int) bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.breakpoints[pos] {
		delete(i.breakpoints, pos)
		return false
	}
	i.breakpoints[pos] = true
	return true
}

// Step executes exactly one line and reports whether the program can
// continue afterwards.
func (i *Interpreter) Step() bool {
	if i.cursor >= len(i.lines) {
		return false
	}
	if err := i.tick(); err != nil {
		i.Print(MaxIterationsMessage)
		return false
	}
	i.send(shared.Message{Type: shared.MessageTypeDebug, Content: "step", Line: i.cursor})
	if i.applySignal(i.executeLine(i.cursor)) != stepRunning {
		return false
	}
	return i.cursor < len(i.lines)
}

// ContinueRun resumes after a breakpoint pause.
func (i *Interpreter) ContinueRun(ctx context.Context) bool {
	i.mu.Lock()
	i.paused = false
	i.skipBreak = i.cursor
	i.running = true
	i.mu.Unlock()
	return i.runLoop(ctx)
}

// IsPaused meldet, ob der Debugger an einem Breakpoint steht.
func (i *Interpreter) IsPaused() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.paused
}
