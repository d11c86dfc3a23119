package program

import (
	"errors"
	"fmt"
)

// Validation errors returned by Validate.
var (
	ErrEmptyCommand      = errors.New("command block without name")
	ErrDuplicateLabel    = errors.New("duplicate loop label")
	ErrUnmatchedEndLoop  = errors.New("loop end without matching start")
	ErrUnclosedLoop      = errors.New("loop start without matching end")
	ErrNegativeIteration = errors.New("negative loop iterations")
	ErrUnknownBlockKind  = errors.New("unknown block kind")
)

// Validate checks that blocks form a well-formed program: command names are
// set, loop labels are unique and every loop is closed in nesting order.
// The interpreter assumes programs are well-formed; loaders call Validate.
func Validate(blocks []Block) error {
	seen := make(map[string]bool)
	var open []string

	for i, b := range blocks {
		switch b.Kind {
		case KindCommand:
			if b.Name == "" {
				return fmt.Errorf("block %d: %w", i, ErrEmptyCommand)
			}
		case KindStartLoop:
			if seen[b.Label] {
				return fmt.Errorf("block %d: %w: %q", i, ErrDuplicateLabel, b.Label)
			}
			if b.Iterations < 0 || b.IterationsLeft < 0 {
				return fmt.Errorf("block %d: %w", i, ErrNegativeIteration)
			}
			seen[b.Label] = true
			open = append(open, b.Label)
		case KindEndLoop:
			if len(open) == 0 || open[len(open)-1] != b.Label {
				return fmt.Errorf("block %d: %w: %q", i, ErrUnmatchedEndLoop, b.Label)
			}
			open = open[:len(open)-1]
		default:
			return fmt.Errorf("block %d: %w: %q", i, ErrUnknownBlockKind, b.Kind)
		}
	}

	if len(open) > 0 {
		return fmt.Errorf("%w: %q", ErrUnclosedLoop, open[len(open)-1])
	}
	return nil
}

// LoopLabel returns the n-th automatic loop label: A..Z, then AA, AB, ...
func LoopLabel(n int) string {
	if n < 0 {
		n = 0
	}
	label := ""
	for {
		label = string(rune('A'+n%26)) + label
		n = n/26 - 1
		if n < 0 {
			return label
		}
	}
}
