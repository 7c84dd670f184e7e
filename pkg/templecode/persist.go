package templecode

import (
	"strconv"

	"github.com/antibyte/templecode/pkg/logger"
	"github.com/antibyte/templecode/pkg/slotstore"
)

// Snapshot captures the variable store and turtle pose for a save slot.
func (i *Interpreter) Snapshot() *slotstore.SlotState {
	state := slotstore.NewSlotState()
	for name, v := range i.variables {
		if v.IsNumeric {
			state.Variables[name] = v.NumValue
		} else {
			state.Variables[name] = v.StrValue
		}
	}
	state.TurtleX = i.turtle.X
	state.TurtleY = i.turtle.Y
	state.TurtleHeading = i.turtle.Heading
	state.PenDown = i.turtle.PenDown
	state.PenColor = i.turtle.PenColor
	state.PenWidth = i.turtle.PenWidth
	return state
}

// Restore merges a snapshot into the interpreter: variables are merged
// over the existing store (loading never clears), the turtle pose is
// overwritten.
func (i *Interpreter) Restore(state *slotstore.SlotState) {
	for name, raw := range state.Variables {
		switch v := raw.(type) {
		case float64:
			i.SetVariable(name, NumberValue(v))
		case string:
			i.SetVariable(name, StringValue(v))
		case bool:
			if v {
				i.SetVariable(name, NumberValue(1))
			} else {
				i.SetVariable(name, NumberValue(0))
			}
		}
	}
	i.turtle.X = state.TurtleX
	i.turtle.Y = state.TurtleY
	i.turtle.Heading = state.TurtleHeading
	i.turtle.PenDown = state.PenDown
	i.turtle.PenColor = state.PenColor
	i.turtle.PenWidth = state.PenWidth
	i.send(i.turtle.PoseMessage())
}

// cmdSaveSlot implements R: SAVE n.
func (i *Interpreter) cmdSaveSlot(args []string, pos int) signal {
	slot, err := parseSlotNumber(args)
	if err != nil {
		return errSignal(WrapError(err, "R: SAVE", pos))
	}
	if i.slots == nil {
		return errSignal(NewInterpretError(ErrCategoryIO, "no save storage configured").
			WithCommand("R: SAVE").WithLine(pos))
	}
	if err := i.slots.Save(slot, i.Snapshot()); err != nil {
		return errSignal(WrapError(err, "R: SAVE", pos))
	}
	i.Print("Saved to slot " + strconv.Itoa(slot))
	logger.Info(logger.AreaSaveSlot, "state saved to slot %d", slot)
	return contSignal()
}

// cmdLoadSlot implements R: LOAD n.
func (i *Interpreter) cmdLoadSlot(args []string, pos int) signal {
	slot, err := parseSlotNumber(args)
	if err != nil {
		return errSignal(WrapError(err, "R: LOAD", pos))
	}
	if i.slots == nil {
		return errSignal(NewInterpretError(ErrCategoryIO, "no save storage configured").
			WithCommand("R: LOAD").WithLine(pos))
	}
	state, err := i.slots.Load(slot)
	if err != nil {
		return errSignal(WrapError(err, "R: LOAD", pos))
	}
	i.Restore(state)
	i.Print("Loaded from slot " + strconv.Itoa(slot))
	logger.Info(logger.AreaSaveSlot, "state loaded from slot %d", slot)
	return contSignal()
}

func parseSlotNumber(args []string) (int, error) {
	if len(args) < 1 {
		return 0, NewInterpretError(ErrCategorySyntax, "slot number expected")
	}
	slot, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, NewInterpretError(ErrCategorySyntax, "slot number must be an integer")
	}
	return slot, nil
}
