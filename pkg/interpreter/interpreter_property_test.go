package interpreter

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/zurustar/blockstep/pkg/program"
)

// sequenceHost is a minimal Host that applies mutations to a program.Sequence.
type sequenceHost struct {
	mu    sync.Mutex
	seq   program.Sequence
	state RunningState
}

func (h *sequenceHost) ProgramSequence() program.Sequence {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.seq
}

func (h *sequenceHost) RunningState() RunningState {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

func (h *sequenceHost) SetRunningState(state RunningState) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.state = state
}

func (h *sequenceHost) Apply(m Mutation, done func()) {
	h.mu.Lock()
	h.seq = m.ApplyTo(h.seq)
	h.mu.Unlock()
	done()
}

func countingHandler(n *atomic.Int64) Handler {
	return func(context.Context, time.Duration) error {
		n.Add(1)
		return nil
	}
}

// TestProperty1_StepPastEndIsNoop tests that stepping a finished program
// neither invokes handlers nor requests mutations.
func TestProperty1_StepPastEndIsNoop(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("step at or past end does nothing", prop.ForAll(
		func(length int, overshoot int) bool {
			in, host := createInterpreter()
			var calls atomic.Int64
			in.AddCommandHandler("forward1", "test", countingHandler(&calls))

			blocks := make([]program.Block, length)
			for i := range blocks {
				blocks[i] = program.Command("forward1")
			}
			if err := in.Step(context.Background(), program.NewSequence(blocks, length+overshoot)); err != nil {
				return false
			}
			return calls.Load() == 0 && host.mutationCount() == 0
		},
		gen.IntRange(0, 10),
		gen.IntRange(0, 5),
	))

	properties.TestingRun(t)
}

// TestProperty2_EveryHandlerInvokedOnce tests that all handlers registered
// for a command run exactly once per step, followed by a single advance.
func TestProperty2_EveryHandlerInvokedOnce(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50

	properties := gopter.NewProperties(parameters)

	properties.Property("n handlers yield n invocations and one advance", prop.ForAll(
		func(n int) bool {
			in, host := createInterpreter()
			counters := make([]atomic.Int64, n)
			for i := range counters {
				in.AddCommandHandler("right90", fmt.Sprintf("source%d", i), countingHandler(&counters[i]))
			}

			if err := in.Step(context.Background(), seq(0, program.Command("right90"))); err != nil {
				return false
			}
			for i := range counters {
				if counters[i].Load() != 1 {
					return false
				}
			}
			return host.countMutations(MutationAdvance) == 1 && host.mutationCount() == 1
		},
		gen.IntRange(1, 8),
	))

	properties.TestingRun(t)
}

// TestProperty3_LoopBodyRunsIterationsTimes tests that a run executes a loop
// body once per iteration and leaves the loop counter reset.
func TestProperty3_LoopBodyRunsIterationsTimes(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50

	properties := gopter.NewProperties(parameters)

	properties.Property("body commands run iterations x body length times", prop.ForAll(
		func(iterations int, bodyLen int) bool {
			blocks := []program.Block{program.StartLoop("A", iterations)}
			for range bodyLen {
				blocks = append(blocks, program.Command("forward1"))
			}
			blocks = append(blocks, program.EndLoop("A"), program.Command("left45"))

			host := &sequenceHost{seq: program.NewSequence(blocks, 0), state: Running}
			in := New(host, WithStepTime(time.Millisecond))
			var body, after atomic.Int64
			in.AddCommandHandler("forward1", "test", countingHandler(&body))
			in.AddCommandHandler("left45", "test", countingHandler(&after))

			if err := in.StartRun(context.Background()); err != nil {
				return false
			}

			final := host.ProgramSequence()
			_, start, _ := final.FindStartLoop("A")
			return body.Load() == int64(iterations*bodyLen) &&
				after.Load() == 1 &&
				host.RunningState() == Stopped &&
				final.AtEnd() &&
				start.IterationsLeft == iterations
		},
		gen.IntRange(0, 5),
		gen.IntRange(0, 4),
	))

	properties.TestingRun(t)
}

// TestProperty4_NestedLoopsMultiply tests that nested loop bodies run
// outer x inner times.
func TestProperty4_NestedLoopsMultiply(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 30

	properties := gopter.NewProperties(parameters)

	properties.Property("inner body runs outer x inner times", prop.ForAll(
		func(outer int, inner int) bool {
			blocks := []program.Block{
				program.StartLoop("A", outer),
				program.Command("left90"),
				program.StartLoop("B", inner),
				program.Command("forward1"),
				program.EndLoop("B"),
				program.EndLoop("A"),
			}

			host := &sequenceHost{seq: program.NewSequence(blocks, 0), state: Running}
			in := New(host, WithStepTime(time.Millisecond))
			var outerCalls, innerCalls atomic.Int64
			in.AddCommandHandler("left90", "test", countingHandler(&outerCalls))
			in.AddCommandHandler("forward1", "test", countingHandler(&innerCalls))

			if err := in.StartRun(context.Background()); err != nil {
				return false
			}
			return outerCalls.Load() == int64(outer) &&
				innerCalls.Load() == int64(outer*inner) &&
				host.RunningState() == Stopped
		},
		gen.IntRange(0, 4),
		gen.IntRange(0, 4),
	))

	properties.TestingRun(t)
}
