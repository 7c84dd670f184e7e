// Package slotstore persists numbered save slots for the interpreter.
// A slot captures the variable store plus the turtle pose; backends are
// a JSON file per slot (default) or a SQLite database.
package slotstore

import (
	"errors"
	"fmt"
)

// Slot field defaults applied when a stored snapshot predates a field.
const (
	DefaultTurtleX       = 200
	DefaultTurtleY       = 200
	DefaultTurtleHeading = 90
	DefaultPenColor      = "white"
	DefaultPenWidth      = 1
)

var (
	ErrSlotNotFound = errors.New("save slot not found")
	ErrInvalidSlot  = errors.New("invalid save slot number")
)

// SlotState is the persisted snapshot of one save slot. The JSON keys
// are the wire format shared by both backends.
type SlotState struct {
	Variables     map[string]interface{} `json:"variables"`
	TurtleX       float64                `json:"turtle_x"`
	TurtleY       float64                `json:"turtle_y"`
	TurtleHeading float64                `json:"turtle_heading"`
	PenDown       bool                   `json:"pen_down"`
	PenColor      string                 `json:"pen_color"`
	PenWidth      float64                `json:"pen_width"`
}

// NewSlotState erstellt einen Snapshot mit Default-Turtle-Pose.
func NewSlotState() *SlotState {
	return &SlotState{
		Variables:     make(map[string]interface{}),
		TurtleX:       DefaultTurtleX,
		TurtleY:       DefaultTurtleY,
		TurtleHeading: DefaultTurtleHeading,
		PenDown:       true,
		PenColor:      DefaultPenColor,
		PenWidth:      DefaultPenWidth,
	}
}

// applyDefaults füllt fehlende Felder älterer Snapshots auf.
func (s *SlotState) applyDefaults() {
	if s.Variables == nil {
		s.Variables = make(map[string]interface{})
	}
	if s.PenColor == "" {
		s.PenColor = DefaultPenColor
	}
	if s.PenWidth == 0 {
		s.PenWidth = DefaultPenWidth
	}
}

// SlotStore is the persistence interface used by the interpreter's
// R: SAVE and R: LOAD commands.
type SlotStore interface {
	// Save persists the snapshot under the slot number.
	Save(slot int, state *SlotState) error
	// Load reads the snapshot for the slot number. Missing slots
	// return ErrSlotNotFound.
	Load(slot int) (*SlotState, error)
	// List returns the slot numbers that currently hold a snapshot.
	List() ([]int, error)
	// Close releases backend resources.
	Close() error
}

// validateSlot weist Slots außerhalb des erlaubten Bereichs ab.
func validateSlot(slot, maxSlots int) error {
	if slot < 0 || (maxSlots > 0 && slot >= maxSlots) {
		return fmt.Errorf("%w: %d", ErrInvalidSlot, slot)
	}
	return nil
}
