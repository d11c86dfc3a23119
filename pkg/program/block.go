// Package program defines the block program model executed by the interpreter.
// A program is an ordered list of Blocks: command invocations and the start and
// end markers of counted loops. The interpreter never stores a program; it reads
// a Sequence value from its host before every step.
package program

import "fmt"

// Kind represents the kind of a Block.
type Kind string

// Block kinds.
const (
	// KindCommand invokes every handler registered for Name.
	KindCommand Kind = "command"

	// KindStartLoop opens a counted loop identified by Label.
	// Iterations is the configured count, IterationsLeft the number of
	// body passes still to run.
	KindStartLoop Kind = "startLoop"

	// KindEndLoop closes the loop with the same Label.
	KindEndLoop Kind = "endLoop"
)

// Block is one instruction of a program.
// Which fields are meaningful depends on Kind:
//   - KindCommand: Name
//   - KindStartLoop: Label, Iterations, IterationsLeft
//   - KindEndLoop: Label
type Block struct {
	Kind           Kind
	Name           string
	Label          string
	Iterations     int
	IterationsLeft int
}

// Command creates a command block.
func Command(name string) Block {
	return Block{Kind: KindCommand, Name: name}
}

// StartLoop creates a loop start block with all iterations still to run.
func StartLoop(label string, iterations int) Block {
	if iterations < 0 {
		iterations = 0
	}
	return Block{
		Kind:           KindStartLoop,
		Label:          label,
		Iterations:     iterations,
		IterationsLeft: iterations,
	}
}

// EndLoop creates a loop end block.
func EndLoop(label string) Block {
	return Block{Kind: KindEndLoop, Label: label}
}

// IsCommand reports whether b is a command block.
func (b Block) IsCommand() bool { return b.Kind == KindCommand }

// IsStartLoop reports whether b opens the loop labelled label.
func (b Block) IsStartLoop(label string) bool {
	return b.Kind == KindStartLoop && b.Label == label
}

// IsEndLoop reports whether b closes the loop labelled label.
func (b Block) IsEndLoop(label string) bool {
	return b.Kind == KindEndLoop && b.Label == label
}

// String returns a short human readable form, used in logs and listings.
func (b Block) String() string {
	switch b.Kind {
	case KindCommand:
		return b.Name
	case KindStartLoop:
		return fmt.Sprintf("loop %s (%d/%d left)", b.Label, b.IterationsLeft, b.Iterations)
	case KindEndLoop:
		return fmt.Sprintf("end %s", b.Label)
	default:
		return fmt.Sprintf("<%s>", b.Kind)
	}
}
