package interpreter

import (
	"fmt"

	"github.com/zurustar/blockstep/pkg/program"
)

// RunningState is the run state owned by the host.
type RunningState string

const (
	Running        RunningState = "running"
	Paused         RunningState = "paused"
	PauseRequested RunningState = "pauseRequested"
	Stopped        RunningState = "stopped"
	StopRequested  RunningState = "stopRequested"
)

// ParseRunningState converts a string to a RunningState.
func ParseRunningState(s string) (RunningState, error) {
	switch RunningState(s) {
	case Running, Paused, PauseRequested, Stopped, StopRequested:
		return RunningState(s), nil
	default:
		return "", fmt.Errorf("invalid running state: %s", s)
	}
}

// String implements fmt.Stringer.
func (s RunningState) String() string { return string(s) }

// MutationKind identifies the program change the interpreter asks for.
type MutationKind string

const (
	// MutationAdvance moves the program counter forward by one.
	MutationAdvance MutationKind = "advance"

	// MutationEnterLoop decrements the iterations left of the loop named by
	// Label and moves the program counter into its body.
	MutationEnterLoop MutationKind = "enterLoop"

	// MutationJump sets the loop counter of Label to its value in Sequence and
	// moves the program counter to Target, the block after one of the loop's
	// markers. It is used to leave an exhausted loop, to skip a loop with no
	// iterations and to repeat a loop body. Hosts whose program was edited
	// after the interpreter read it get the jump rebased onto the edit.
	MutationJump MutationKind = "jump"
)

// Mutation is a change to the host-owned program requested by the interpreter.
type Mutation struct {
	Kind     MutationKind
	Label    string           // loop label for EnterLoop and Jump
	Target   int              // new program counter for Jump
	Sequence program.Sequence // replacement program for Jump
}

// Advance creates an advance mutation.
func Advance() Mutation {
	return Mutation{Kind: MutationAdvance}
}

// EnterLoop creates an enter-loop-iteration mutation.
func EnterLoop(label string) Mutation {
	return Mutation{Kind: MutationEnterLoop, Label: label}
}

// Jump creates a jump mutation.
func Jump(label string, target int, seq program.Sequence) Mutation {
	return Mutation{Kind: MutationJump, Label: label, Target: target, Sequence: seq}
}

// ApplyTo returns seq with the mutation applied.
// Hosts that keep their program as a program.Sequence can use it directly.
func (m Mutation) ApplyTo(seq program.Sequence) program.Sequence {
	switch m.Kind {
	case MutationAdvance:
		return seq.Advance()
	case MutationEnterLoop:
		return seq.DecrementLoopIterations(m.Label).Advance()
	case MutationJump:
		return m.rebaseJump(seq)
	default:
		return seq
	}
}

// rebaseJump carries a jump over to seq, which may have been edited since the
// interpreter read the program it computed the jump from. The loop counter of
// Label and the target marker are looked up again in seq so that the edit is
// kept. If the loop no longer exists seq is returned unchanged.
func (m Mutation) rebaseJump(seq program.Sequence) program.Sequence {
	marker, ok := m.Sequence.At(m.Target - 1)
	if !ok || marker.Label != m.Label || marker.Kind == program.KindCommand {
		return m.Sequence.WithProgramCounter(m.Target)
	}

	var idx int
	var found bool
	if marker.Kind == program.KindStartLoop {
		idx, _, found = seq.FindStartLoop(m.Label)
	} else {
		idx, _, found = seq.FindEndLoop(m.Label)
	}
	if !found {
		return seq
	}

	if _, start, ok := m.Sequence.FindStartLoop(m.Label); ok {
		seq = seq.WithLoopIterationsLeft(m.Label, start.IterationsLeft)
	}
	return seq.WithProgramCounter(idx + 1)
}

// String implements fmt.Stringer.
func (m Mutation) String() string {
	switch m.Kind {
	case MutationEnterLoop:
		return fmt.Sprintf("%s(%s)", m.Kind, m.Label)
	case MutationJump:
		return fmt.Sprintf("%s(%s -> %d)", m.Kind, m.Label, m.Target)
	default:
		return string(m.Kind)
	}
}

// Host owns the authoritative program and running state.
// The interpreter never changes them itself: it reads them before acting and
// requests changes through Apply.
type Host interface {
	// ProgramSequence returns the current program and position.
	ProgramSequence() program.Sequence

	// RunningState returns the current running state.
	RunningState() RunningState

	// SetRunningState requests a state transition. How requests combine with
	// the current state (for example a stop request while paused) is host policy.
	SetRunningState(state RunningState)

	// Apply applies m and calls done exactly once after the change is visible
	// through ProgramSequence. done may be called from any goroutine.
	Apply(m Mutation, done func())
}
