package sound

import (
	"time"

	"github.com/zurustar/blockstep/pkg/commands"
	"github.com/zurustar/blockstep/pkg/world"
)

// Note is a single sound played for a command.
type Note struct {
	Channel  int32
	Program  int32 // General MIDI instrument
	Key      int32
	Velocity int32
	Pan      int32 // 0 (left) to 127 (right)
	Duration time.Duration
}

// Instruments and channels per action.
var voices = map[commands.Action]struct {
	channel, program int32
}{
	commands.ActionForward: {0, 0},  // acoustic grand piano
	commands.ActionLeft:    {1, 11}, // vibraphone
	commands.ActionRight:   {2, 13}, // xylophone
}

const (
	highestKey      = 84 // C6, top row
	keysPerRow      = 2
	defaultVelocity = 100
)

// NoteFor returns the note for cmd after it moved the character to c.
// The key rises toward the top row and the pan follows the column.
func NoteFor(cmd commands.Command, c world.Character, stepTime time.Duration) Note {
	voice := voices[cmd.Action]
	dims := c.Dimensions

	pan := int32(64)
	if dims.Width() > 1 {
		pan = int32((c.X - dims.MinX) * 127 / (dims.Width() - 1))
	}

	return Note{
		Channel:  voice.channel,
		Program:  voice.program,
		Key:      int32(highestKey - (c.Y-dims.MinY)*keysPerRow),
		Velocity: defaultVelocity,
		Pan:      pan,
		Duration: cmd.SoundTime(stepTime),
	}
}
