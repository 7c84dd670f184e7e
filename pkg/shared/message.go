package shared

// MessageType definiert den Typ einer Nachricht für die WebSocket-Kommunikation.
type MessageType int

// Konstanten für MessageType, angepasst an Frontend-Erwartungen (templecanvas.js RESPONSE_TYPE_MAP)
const (
	MessageTypeText         MessageType = 0 // Textausgabe
	MessageTypeClear        MessageType = 1 // Bildschirm löschen
	MessageTypeTurtle       MessageType = 2 // Turtle-Grafikbefehl (Segment, Pose, Clear)
	MessageTypeSound        MessageType = 3 // Soundkommando (SND/PLAY)
	MessageTypeInputControl MessageType = 4 // Eingabesteuerung (aktivieren/deaktivieren)
	MessageTypeSession      MessageType = 5 // Session-ID Übermittlung
	MessageTypeMode         MessageType = 6 // Moduswechsel (z.B. "pilot", "basic", "logo")
	MessageTypeTyped        MessageType = 7 // Typewriter-Textausgabe (MT:), zeichenweise im Frontend
	MessageTypeDebug        MessageType = 8 // Debugger-Statusmeldung (step, breakpoint, paused)
	MessageTypeError        MessageType = 9 // Fehlermeldung (strukturiert, Kategorie in Params)
)

// Message repräsentiert eine Nachricht, die über WebSocket gesendet oder empfangen wird.
// Die Felder sind so strukturiert, dass sie den direkten Zugriffen im Frontend entsprechen.
type Message struct {
	Type    MessageType `json:"type"`
	Content string      `json:"content"`
	// Für TEXT - verhindert automatischen Zeilenumbruch im Frontend
	NoNewline bool `json:"noNewline,omitempty"`

	// Für SESSION
	SessionID string `json:"sessionId,omitempty"` // Beibehaltung des Namens sessionId für Kompatibilität

	// Für TURTLE und SOUND: Kommando plus Parameter-Map
	// Das Frontend erwartet response.command und response.params.
	Command string                 `json:"command,omitempty"` // z.B. "SEGMENT", "POSE", "CLEAR", "SND", "PLAY"
	Params  map[string]interface{} `json:"params,omitempty"`

	// Für INPUT_CONTROL (Pointer, um zwischen false und nicht gesetzt zu unterscheiden)
	InputEnabled *bool `json:"inputEnabled,omitempty"`

	// Für MODE
	Mode string `json:"mode,omitempty"` // z.B. "pilot", "basic", "logo"

	// Für TYPED (MT:): Zeichen pro Sekunde im Frontend-Typewriter
	TypeSpeed int `json:"typeSpeed,omitempty"`

	// Für DEBUG: Position der aktuellen Zeile (0-basiert)
	Line int `json:"line,omitempty"`
}

// NewTextMessage erstellt eine einfache Textnachricht.
func NewTextMessage(content string) Message {
	return Message{Type: MessageTypeText, Content: content}
}

// NewTurtleMessage erstellt eine Turtle-Grafiknachricht mit Kommando und Parametern.
func NewTurtleMessage(command string, params map[string]interface{}) Message {
	return Message{Type: MessageTypeTurtle, Command: command, Params: params}
}
