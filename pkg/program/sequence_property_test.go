package program

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// genCommandBlocks generates a list of command blocks.
func genCommandBlocks() gopter.Gen {
	names := []string{"forward1", "forward2", "left45", "right90"}
	return gen.SliceOf(gen.IntRange(0, len(names)-1)).Map(func(idx []int) []Block {
		blocks := make([]Block, len(idx))
		for i, n := range idx {
			blocks[i] = Command(names[n])
		}
		return blocks
	})
}

// TestProperty1_DerivationsDoNotMutate tests that no derivation changes the
// receiver.
func TestProperty1_DerivationsDoNotMutate(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("sequence is unchanged after deriving new values", prop.ForAll(
		func(blocks []Block, pc int, iterations int) bool {
			wrapped := append([]Block{StartLoop("A", iterations)}, blocks...)
			wrapped = append(wrapped, EndLoop("A"))
			seq := NewSequence(wrapped, pc)
			snapshot := NewSequence(seq.Blocks(), seq.ProgramCounter())

			_ = seq.Advance()
			_ = seq.WithProgramCounter(pc + 3)
			_ = seq.DecrementLoopIterations("A")
			_ = seq.ResetLoopIterations("A")
			_ = seq.ResetAllLoops()
			_ = seq.Insert(1, Command("x"))
			_ = seq.Delete(0)
			_ = seq.Swap(0, len(wrapped)-1)

			return seq.Equal(snapshot)
		},
		genCommandBlocks(),
		gen.IntRange(0, 20),
		gen.IntRange(0, 10),
	))

	properties.TestingRun(t)
}

// TestProperty2_AtEndMatchesLength tests that AtEnd is exactly pc >= Len.
func TestProperty2_AtEndMatchesLength(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("AtEnd iff program counter >= length", prop.ForAll(
		func(blocks []Block, pc int) bool {
			seq := NewSequence(blocks, pc)
			return seq.AtEnd() == (seq.ProgramCounter() >= seq.Len())
		},
		genCommandBlocks(),
		gen.IntRange(0, 30),
	))

	properties.TestingRun(t)
}

// TestProperty3_DecrementThenResetRestoresLoop tests that resetting a loop after
// any number of decrements restores its configured iterations.
func TestProperty3_DecrementThenResetRestoresLoop(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("reset restores iterations", prop.ForAll(
		func(iterations int, decrements int) bool {
			seq := NewSequence([]Block{StartLoop("A", iterations), EndLoop("A")}, 0)
			for range decrements {
				seq = seq.DecrementLoopIterations("A")
			}
			_, b, _ := seq.FindStartLoop("A")
			if b.IterationsLeft < 0 {
				return false
			}
			if b.IterationsLeft != max(iterations-decrements, 0) {
				return false
			}
			_, b, _ = seq.ResetLoopIterations("A").FindStartLoop("A")
			return b.IterationsLeft == iterations
		},
		gen.IntRange(0, 20),
		gen.IntRange(0, 30),
	))

	properties.TestingRun(t)
}
