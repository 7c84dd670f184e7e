package templecode

import (
	"strconv"
	"strings"

	"github.com/antibyte/templecode/pkg/logger"
	"github.com/antibyte/templecode/pkg/shared"
)

// cmdSound implements R: SND name freq dur. The effect is registered
// under its name and immediately announced to the frontend; no audio is
// synthesized server-side.
func (i *Interpreter) cmdSound(args []string, pos int) signal {
	if len(args) < 3 {
		return errSignal(NewInterpretError(ErrCategorySyntax, "SND requires name, frequency and duration").
			WithCommand("R: SND").WithLine(pos))
	}
	name := strings.ToUpper(args[0])
	freq, err1 := strconv.ParseFloat(args[1], 64)
	dur, err2 := strconv.ParseFloat(args[2], 64)
	if err1 != nil || err2 != nil {
		return errSignal(NewInterpretError(ErrCategorySyntax, "SND frequency and duration must be numeric").
			WithCommand("R: SND").WithLine(pos))
	}

	i.sounds[name] = soundEffect{Freq: freq, Dur: dur}
	i.send(shared.Message{
		Type:    shared.MessageTypeSound,
		Command: "SND",
		Params: map[string]interface{}{
			"name":     name,
			"freq":     freq,
			"duration": dur,
		},
	})
	logger.Debug(logger.AreaPilot, "sound %s registered (%g Hz, %g)", name, freq, dur)
	return contSignal()
}

// cmdPlay implements R: PLAY. A single argument naming a registered
// effect replays it; anything else is passed through as a note sequence
// for the frontend player.
func (i *Interpreter) cmdPlay(args []string) signal {
	if len(args) == 1 {
		if fx, ok := i.sounds[strings.ToUpper(args[0])]; ok {
			i.send(shared.Message{
				Type:    shared.MessageTypeSound,
				Command: "SND",
				Params: map[string]interface{}{
					"name":     strings.ToUpper(args[0]),
					"freq":     fx.Freq,
					"duration": fx.Dur,
				},
			})
			return contSignal()
		}
	}
	i.send(shared.Message{
		Type:    shared.MessageTypeSound,
		Command: "PLAY",
		Params: map[string]interface{}{
			"notes": strings.Join(args, " "),
		},
	})
	return contSignal()
}
