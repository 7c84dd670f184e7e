// Command templeconsole is a local console front end for the
// interpreter. It keeps a numbered program buffer the way classic
// BASIC consoles did; anything else runs in direct mode.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/antibyte/templecode/pkg/configuration"
	"github.com/antibyte/templecode/pkg/logger"
	"github.com/antibyte/templecode/pkg/shared"
	"github.com/antibyte/templecode/pkg/templecode"

	"github.com/danswartzendruber/liner"
)

func main() {
	if err := configuration.Initialize("settings.cfg"); err != nil {
		fmt.Printf("Error initializing configuration: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Initialize(); err != nil {
		fmt.Printf("Error initializing logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Close()

	l := setupLiner()
	defer cleanupLiner(&l)

	interp := templecode.New()
	interp.SetInputFunc(func(prompt string) (string, error) {
		if prompt == "" {
			prompt = "? "
		}
		line, eof := readLine(l, prompt, false)
		if eof {
			return "", io.EOF
		}
		return line, nil
	})

	// Ausgabe-Pumpe: Interpreter-Nachrichten auf die Konsole bringen
	done := make(chan struct{})
	go func() {
		defer close(done)
		for msg := range interp.OutputChan {
			printMessage(msg)
		}
	}()

	console := &console{interp: interp, buffer: make(map[int]string)}

	// Programmdatei als Argument: laden und sofort ausführen
	if len(os.Args) > 1 {
		data, err := os.ReadFile(os.Args[1])
		if err != nil {
			fmt.Printf("Error reading %s: %v\n", os.Args[1], err)
			os.Exit(1)
		}
		interp.RunProgram(context.Background(), string(data))
		return
	}

	fmt.Println("TempleCode console. Type BYE to leave, HELP for commands.")
	for {
		line, eof := readLine(l, "> ", true)
		if eof {
			return
		}
		if !console.handle(line) {
			return
		}
	}
}

type console struct {
	interp *templecode.Interpreter
	buffer map[int]string // Zeilennummer -> Zeilentext
}

// handle verarbeitet eine Konsoleneingabe; false beendet die Schleife.
func (c *console) handle(line string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return true
	}

	// Nummerierte Zeilen wandern in den Programmpuffer; eine leere
	// nummerierte Zeile löscht den Eintrag.
	if number, rest, ok := splitLineNumber(trimmed); ok {
		if rest == "" {
			delete(c.buffer, number)
		} else {
			c.buffer[number] = rest
		}
		return true
	}

	switch strings.ToUpper(strings.Fields(trimmed)[0]) {
	case "BYE", "QUIT", "EXIT":
		return false
	case "HELP":
		fmt.Println("RUN LIST NEW LOAD <file> SAVE <file> BYE - numbered lines edit the program")
		return true
	case "RUN":
		c.interp.RunProgram(context.Background(), c.programText())
		return true
	case "LIST":
		fmt.Print(c.programText())
		return true
	case "NEW":
		c.buffer = make(map[int]string)
		return true
	case "LOAD":
		c.loadFile(trimmed)
		return true
	case "SAVE":
		c.saveFile(trimmed)
		return true
	}

	// Alles andere läuft im Direktmodus durch den Dispatcher
	c.interp.ExecuteDirect(trimmed)
	return true
}

// programText baut den Pufferinhalt in Zeilennummern-Reihenfolge.
func (c *console) programText() string {
	numbers := make([]int, 0, len(c.buffer))
	for n := range c.buffer {
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)

	var b strings.Builder
	for _, n := range numbers {
		fmt.Fprintf(&b, "%d %s\n", n, c.buffer[n])
	}
	return b.String()
}

func (c *console) loadFile(cmd string) {
	fields := strings.Fields(cmd)
	if len(fields) < 2 {
		fmt.Println("LOAD <file>")
		return
	}
	data, err := os.ReadFile(fields[1])
	if err != nil {
		fmt.Printf("Error reading %s: %v\n", fields[1], err)
		return
	}
	c.buffer = make(map[int]string)
	auto := 10
	for _, raw := range strings.Split(string(data), "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if number, rest, ok := splitLineNumber(line); ok {
			c.buffer[number] = rest
		} else {
			// Unnummerierte Dateien bekommen automatische Nummern
			c.buffer[auto] = line
			auto += 10
		}
	}
	fmt.Printf("Loaded %d lines from %s\n", len(c.buffer), fields[1])
}

func (c *console) saveFile(cmd string) {
	fields := strings.Fields(cmd)
	if len(fields) < 2 {
		fmt.Println("SAVE <file>")
		return
	}
	if err := os.WriteFile(fields[1], []byte(c.programText()), 0644); err != nil {
		fmt.Printf("Error writing %s: %v\n", fields[1], err)
		return
	}
	fmt.Printf("Saved %d lines to %s\n", len(c.buffer), fields[1])
}

// splitLineNumber trennt eine führende Zeilennummer ab.
func splitLineNumber(line string) (int, string, bool) {
	idx := 0
	for idx < len(line) && line[idx] >= '0' && line[idx] <= '9' {
		idx++
	}
	if idx == 0 {
		return 0, "", false
	}
	number, err := strconv.Atoi(line[:idx])
	if err != nil {
		return 0, "", false
	}
	return number, strings.TrimSpace(line[idx:]), true
}

// printMessage bringt eine Interpreter-Nachricht auf die Konsole.
// Turtle-Nachrichten haben hier kein Canvas und werden kompakt
// angedeutet statt verworfen.
func printMessage(msg shared.Message) {
	switch msg.Type {
	case shared.MessageTypeText, shared.MessageTypeTyped:
		if msg.NoNewline {
			fmt.Print(msg.Content)
		} else {
			fmt.Println(msg.Content)
		}
	case shared.MessageTypeError:
		fmt.Println(msg.Content)
	case shared.MessageTypeClear:
		fmt.Print("\033[2J\033[H")
	case shared.MessageTypeSound:
		fmt.Printf("[sound %s]\n", msg.Command)
	case shared.MessageTypeTurtle:
		if msg.Command == "SEGMENT" {
			fmt.Printf("[draw %v]\n", msg.Params)
		}
	}
}

func setupLiner() *liner.State {
	l := liner.NewLiner()
	l.SetCtrlCAborts(true)
	return l
}

// cleanupLiner stellt den Terminalmodus wieder her.
func cleanupLiner(linerState **liner.State) {
	if *linerState != nil {
		(*linerState).Close()
		*linerState = nil
	}
}

// readLine liest eine Zeile mit Editing und History; das zweite
// Ergebnis meldet EOF (^D am Zeilenanfang).
func readLine(l *liner.State, prompt string, history bool) (string, bool) {
	s, err := l.Prompt(prompt)
	if err != nil {
		if err == io.EOF || err == liner.ErrPromptAborted {
			return "", true
		}
		fmt.Printf("readLine error: %q\n", err)
		return "", true
	}
	if history && strings.TrimSpace(s) != "" {
		l.AppendHistory(s)
	}
	return s, false
}
