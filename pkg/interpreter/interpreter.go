package interpreter

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zurustar/blockstep/pkg/logger"
	"github.com/zurustar/blockstep/pkg/program"
	"golang.org/x/sync/errgroup"
)

// DefaultStepTime is the step time used when none is configured.
const DefaultStepTime = 1000 * time.Millisecond

// Interpreter executes block programs one block at a time.
// It decides when and in which order command handlers run and how control
// flows through loops; the program itself and the running state belong to
// the Host.
type Interpreter struct {
	host     Host
	registry *Registry

	// stepTime is read fresh for every handler invocation, in nanoseconds.
	stepTime atomic.Int64

	// runActive guards against a second continuous run.
	runActive atomic.Bool

	log *slog.Logger
}

// Option is a functional option for configuring the Interpreter.
type Option func(*Interpreter)

// WithStepTime sets the initial step time.
func WithStepTime(d time.Duration) Option {
	return func(in *Interpreter) {
		in.stepTime.Store(int64(d))
	}
}

// WithLogger sets a custom logger.
func WithLogger(log *slog.Logger) Option {
	return func(in *Interpreter) {
		in.log = log
	}
}

// WithRegistry shares an existing handler registry.
func WithRegistry(r *Registry) Option {
	return func(in *Interpreter) {
		in.registry = r
	}
}

// New creates an Interpreter driven by host.
func New(host Host, opts ...Option) *Interpreter {
	in := &Interpreter{
		host:     host,
		registry: NewRegistry(),
		log:      logger.GetLogger(),
	}
	in.stepTime.Store(int64(DefaultStepTime))

	for _, opt := range opts {
		opt(in)
	}

	return in
}

// SetStepTime changes the step time passed to every later handler invocation,
// including those of a run already in progress.
func (in *Interpreter) SetStepTime(d time.Duration) {
	in.stepTime.Store(int64(d))
	in.log.Debug("Step time changed", "step_time", d)
}

// StepTime returns the current step time.
func (in *Interpreter) StepTime() time.Duration {
	return time.Duration(in.stepTime.Load())
}

// AddCommandHandler registers handler for the command name under source.
func (in *Interpreter) AddCommandHandler(name, source string, handler Handler) {
	in.registry.Add(name, source, handler)
}

// Registry returns the handler registry.
func (in *Interpreter) Registry() *Registry {
	return in.registry
}

// IsRunActive reports whether a continuous run is in progress.
func (in *Interpreter) IsRunActive() bool {
	return in.runActive.Load()
}

// Step executes the block at seq's program counter and returns once every
// handler has finished and the host has acknowledged the resulting change.
// Stepping a sequence that is at its end does nothing.
func (in *Interpreter) Step(ctx context.Context, seq program.Sequence) error {
	block, ok := seq.Current()
	if !ok {
		return nil
	}

	in.log.Debug("Executing block", "pc", seq.ProgramCounter(), "block", block.String())

	switch block.Kind {
	case program.KindCommand:
		if err := in.dispatch(ctx, block.Name); err != nil {
			return err
		}
		return in.apply(ctx, Advance())

	case program.KindStartLoop:
		if block.IterationsLeft > 0 {
			return in.apply(ctx, EnterLoop(block.Label))
		}
		// No iterations: skip the whole loop.
		end, _, found := seq.FindEndLoop(block.Label)
		if !found {
			return NewMalformedProgramError(block.Label)
		}
		return in.apply(ctx, Jump(block.Label, end+1, seq.ResetLoopIterations(block.Label)))

	case program.KindEndLoop:
		start, startBlock, found := seq.FindStartLoop(block.Label)
		if !found {
			return NewMalformedProgramError(block.Label)
		}
		if startBlock.IterationsLeft == 0 {
			return in.apply(ctx, Jump(block.Label, seq.ProgramCounter()+1, seq.ResetLoopIterations(block.Label)))
		}
		return in.apply(ctx, Jump(block.Label, start+1, seq.DecrementLoopIterations(block.Label)))

	default:
		return NewInvalidBlockError(string(block.Kind))
	}
}

// DoCommand executes a single command block outside of any program.
// It never touches the program counter.
func (in *Interpreter) DoCommand(ctx context.Context, block program.Block) error {
	if !block.IsCommand() {
		return NewInvalidBlockError(string(block.Kind))
	}
	in.log.Debug("Executing command", "command", block.Name)
	return in.dispatch(ctx, block.Name)
}

// StartRun executes steps until the program ends, a pause or stop is
// requested, or a step fails.
//
// If a run is already active StartRun returns nil immediately without
// consulting the host. A failed step ends the run with that error and no
// running state transition, so the host can tell an error from a completed
// program. Cancelling ctx ends the run between steps with ctx.Err().
func (in *Interpreter) StartRun(ctx context.Context) error {
	if !in.runActive.CompareAndSwap(false, true) {
		in.log.Debug("Run already active")
		return nil
	}
	defer in.runActive.Store(false)

	in.log.Info("Run started")

	for {
		if err := ctx.Err(); err != nil {
			in.log.Info("Run cancelled")
			return err
		}

		switch state := in.host.RunningState(); state {
		case Running:
			seq := in.host.ProgramSequence()
			if seq.AtEnd() {
				in.host.SetRunningState(Stopped)
				in.log.Info("Run completed")
				return nil
			}
			if err := in.Step(ctx, seq); err != nil {
				in.log.Debug("Run aborted", "pc", seq.ProgramCounter(), "error", err)
				return err
			}

		case PauseRequested:
			in.host.SetRunningState(Paused)
			in.log.Info("Run paused")
			return nil

		default:
			in.host.SetRunningState(Stopped)
			in.log.Info("Run stopped", "state", state)
			return nil
		}
	}
}

// dispatch invokes every handler registered for name concurrently and waits
// for all of them. The first failure is returned.
func (in *Interpreter) dispatch(ctx context.Context, name string) error {
	handlers := in.registry.Handlers(name)
	if len(handlers) == 0 {
		return NewUnknownCommandError(name)
	}

	stepTime := in.StepTime()
	g, gctx := errgroup.WithContext(ctx)
	for _, h := range handlers {
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = NewHandlerFailureError(name, h.Source, fmt.Errorf("panic: %v", r))
				}
			}()
			if herr := h.Handler(gctx, stepTime); herr != nil {
				return NewHandlerFailureError(name, h.Source, herr)
			}
			return nil
		})
	}
	return g.Wait()
}

// apply asks the host to apply m and waits for its acknowledgement.
func (in *Interpreter) apply(ctx context.Context, m Mutation) error {
	done := make(chan struct{})
	var once sync.Once
	in.host.Apply(m, func() {
		once.Do(func() { close(done) })
	})

	select {
	case <-done:
		in.log.Debug("Mutation applied", "mutation", m.String())
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
