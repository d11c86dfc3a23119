package program

import "slices"

// Sequence is an immutable program together with its program counter.
// Every method that changes something returns a new Sequence and leaves the
// receiver untouched, so a Sequence can be shared freely between goroutines.
//
// A program counter at or past the end of the program means the run is
// complete; stepping such a sequence is a no-op.
type Sequence struct {
	blocks []Block
	pc     int
}

// NewSequence creates a sequence over a copy of blocks.
// A negative program counter is treated as 0.
func NewSequence(blocks []Block, programCounter int) Sequence {
	if programCounter < 0 {
		programCounter = 0
	}
	return Sequence{blocks: slices.Clone(blocks), pc: programCounter}
}

// Len returns the number of blocks.
func (s Sequence) Len() int { return len(s.blocks) }

// ProgramCounter returns the index of the next block to execute.
func (s Sequence) ProgramCounter() int { return s.pc }

// AtEnd reports whether the program counter is at or past the end.
func (s Sequence) AtEnd() bool { return s.pc >= len(s.blocks) }

// At returns the block at index i.
// ok is false when i is out of range.
func (s Sequence) At(i int) (Block, bool) {
	if i < 0 || i >= len(s.blocks) {
		return Block{}, false
	}
	return s.blocks[i], true
}

// Current returns the block at the program counter.
func (s Sequence) Current() (Block, bool) { return s.At(s.pc) }

// Blocks returns a copy of the blocks.
func (s Sequence) Blocks() []Block { return slices.Clone(s.blocks) }

// Equal reports whether both sequences hold the same blocks and program counter.
func (s Sequence) Equal(other Sequence) bool {
	return s.pc == other.pc && slices.Equal(s.blocks, other.blocks)
}

// WithProgramCounter returns a copy positioned at i.
func (s Sequence) WithProgramCounter(i int) Sequence {
	if i < 0 {
		i = 0
	}
	return Sequence{blocks: s.blocks, pc: i}
}

// Advance returns a copy with the program counter moved forward by one.
func (s Sequence) Advance() Sequence {
	return Sequence{blocks: s.blocks, pc: s.pc + 1}
}

// FindStartLoop returns the index and block of the loop start labelled label.
func (s Sequence) FindStartLoop(label string) (int, Block, bool) {
	for i, b := range s.blocks {
		if b.IsStartLoop(label) {
			return i, b, true
		}
	}
	return -1, Block{}, false
}

// FindEndLoop returns the index and block of the loop end labelled label.
func (s Sequence) FindEndLoop(label string) (int, Block, bool) {
	for i, b := range s.blocks {
		if b.IsEndLoop(label) {
			return i, b, true
		}
	}
	return -1, Block{}, false
}

// DecrementLoopIterations returns a copy where the loop labelled label has one
// iteration less left. The count never drops below zero.
func (s Sequence) DecrementLoopIterations(label string) Sequence {
	return s.mapStartLoops(func(b Block) Block {
		if b.Label == label && b.IterationsLeft > 0 {
			b.IterationsLeft--
		}
		return b
	})
}

// ResetLoopIterations returns a copy where the loop labelled label has all of
// its configured iterations left again.
func (s Sequence) ResetLoopIterations(label string) Sequence {
	return s.mapStartLoops(func(b Block) Block {
		if b.Label == label {
			b.IterationsLeft = b.Iterations
		}
		return b
	})
}

// WithLoopIterationsLeft returns a copy where the loop labelled label has n
// iterations left, clamped to its configured count.
func (s Sequence) WithLoopIterationsLeft(label string, n int) Sequence {
	return s.mapStartLoops(func(b Block) Block {
		if b.Label == label {
			b.IterationsLeft = max(0, min(n, b.Iterations))
		}
		return b
	})
}

// ResetAllLoops returns a copy where every loop has all iterations left.
func (s Sequence) ResetAllLoops() Sequence {
	return s.mapStartLoops(func(b Block) Block {
		b.IterationsLeft = b.Iterations
		return b
	})
}

func (s Sequence) mapStartLoops(fn func(Block) Block) Sequence {
	blocks := make([]Block, len(s.blocks))
	for i, b := range s.blocks {
		if b.Kind == KindStartLoop {
			b = fn(b)
		}
		blocks[i] = b
	}
	return Sequence{blocks: blocks, pc: s.pc}
}

// Insert returns a copy with blocks inserted before index i.
// Inserting at or before the program counter shifts the counter so that it
// keeps pointing at the same block.
func (s Sequence) Insert(i int, blocks ...Block) Sequence {
	if i < 0 {
		i = 0
	}
	if i > len(s.blocks) {
		i = len(s.blocks)
	}
	out := make([]Block, 0, len(s.blocks)+len(blocks))
	out = append(out, s.blocks[:i]...)
	out = append(out, blocks...)
	out = append(out, s.blocks[i:]...)

	pc := s.pc
	if i <= pc {
		pc += len(blocks)
	}
	return Sequence{blocks: out, pc: pc}
}

// Delete returns a copy without the block at index i.
// Deleting a loop marker also deletes its partner, keeping the loop body.
// Out of range indexes return the receiver unchanged.
func (s Sequence) Delete(i int) Sequence {
	b, ok := s.At(i)
	if !ok {
		return s
	}

	remove := map[int]bool{i: true}
	switch b.Kind {
	case KindStartLoop:
		if j, _, found := s.FindEndLoop(b.Label); found {
			remove[j] = true
		}
	case KindEndLoop:
		if j, _, found := s.FindStartLoop(b.Label); found {
			remove[j] = true
		}
	}

	out := make([]Block, 0, len(s.blocks))
	pc := s.pc
	for idx, blk := range s.blocks {
		if remove[idx] {
			if idx < s.pc {
				pc--
			}
			continue
		}
		out = append(out, blk)
	}
	return Sequence{blocks: out, pc: pc}
}

// Swap returns a copy with the blocks at i and j exchanged.
// If the program counter points at one of them it follows that block.
func (s Sequence) Swap(i, j int) Sequence {
	if _, ok := s.At(i); !ok {
		return s
	}
	if _, ok := s.At(j); !ok {
		return s
	}
	out := slices.Clone(s.blocks)
	out[i], out[j] = out[j], out[i]

	pc := s.pc
	switch pc {
	case i:
		pc = j
	case j:
		pc = i
	}
	return Sequence{blocks: out, pc: pc}
}
