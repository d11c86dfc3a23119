// Package host owns the program and running state that the interpreter
// executes, and applies the play, stop and edit policies of the user
// interface.
package host

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/zurustar/blockstep/pkg/interpreter"
	"github.com/zurustar/blockstep/pkg/logger"
	"github.com/zurustar/blockstep/pkg/program"
)

// ErrRunning is returned by StepOnce and DoCommand while a run or another
// step is in progress.
var ErrRunning = errors.New("program is running")

// SpeedStepTimes maps speed levels 1..5 to step times.
var SpeedStepTimes = []time.Duration{
	2000 * time.Millisecond,
	1500 * time.Millisecond,
	1000 * time.Millisecond,
	500 * time.Millisecond,
	250 * time.Millisecond,
}

// DefaultSpeed is the speed level matching interpreter.DefaultStepTime.
const DefaultSpeed = 3

// StepTimeForSpeed returns the step time for a speed level.
func StepTimeForSpeed(level int) (time.Duration, error) {
	if level < 1 || level > len(SpeedStepTimes) {
		return 0, fmt.Errorf("invalid speed: %d (must be 1-%d)", level, len(SpeedStepTimes))
	}
	return SpeedStepTimes[level-1], nil
}

// Event describes a change of the session.
type Event struct {
	State    interpreter.RunningState
	Sequence program.Sequence
	Err      error
}

// Session implements interpreter.Host for a single program.
type Session struct {
	mu          sync.RWMutex
	seq         program.Sequence
	state       interpreter.RunningState
	err         error
	subscribers []func(Event)

	in  *interpreter.Interpreter
	log *slog.Logger

	runs sync.WaitGroup

	// busy is held by a run, a single step or a direct command for as long as
	// its handlers may execute.
	busy sync.Mutex

	// Context for cancellation
	ctx    context.Context
	cancel context.CancelFunc
}

// Option is a functional option for configuring the Session.
type Option func(*sessionConfig)

type sessionConfig struct {
	log        *slog.Logger
	interpOpts []interpreter.Option
}

// WithLogger sets a custom logger for the session and its interpreter.
func WithLogger(log *slog.Logger) Option {
	return func(c *sessionConfig) {
		c.log = log
	}
}

// WithInterpreterOptions passes options to the interpreter the session creates.
func WithInterpreterOptions(opts ...interpreter.Option) Option {
	return func(c *sessionConfig) {
		c.interpOpts = append(c.interpOpts, opts...)
	}
}

// New creates a stopped session for seq together with its interpreter.
func New(seq program.Sequence, opts ...Option) *Session {
	cfg := &sessionConfig{log: logger.GetLogger()}
	for _, opt := range opts {
		opt(cfg)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		seq:    seq,
		state:  interpreter.Stopped,
		log:    cfg.log,
		ctx:    ctx,
		cancel: cancel,
	}
	interpOpts := append([]interpreter.Option{interpreter.WithLogger(cfg.log)}, cfg.interpOpts...)
	s.in = interpreter.New(s, interpOpts...)
	return s
}

// Interpreter returns the interpreter driven by the session.
func (s *Session) Interpreter() *interpreter.Interpreter {
	return s.in
}

// ProgramSequence implements interpreter.Host.
func (s *Session) ProgramSequence() program.Sequence {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.seq
}

// RunningState implements interpreter.Host.
func (s *Session) RunningState() interpreter.RunningState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// SetRunningState implements interpreter.Host.
// A stop request while paused or stopped goes straight to stopped. Entering
// running starts a run.
func (s *Session) SetRunningState(state interpreter.RunningState) {
	s.mu.Lock()
	if state == interpreter.StopRequested &&
		(s.state == interpreter.Paused || s.state == interpreter.Stopped) {
		state = interpreter.Stopped
	}
	start := s.setStateLocked(state)
	ev := s.eventLocked()
	s.mu.Unlock()

	s.publish(ev)
	if start {
		s.startRun()
	}
}

// Apply implements interpreter.Host.
func (s *Session) Apply(m interpreter.Mutation, done func()) {
	s.mu.Lock()
	s.seq = m.ApplyTo(s.seq)
	ev := s.eventLocked()
	s.mu.Unlock()

	s.publish(ev)
	done()
}

// Play toggles between running and paused. From stopped it restarts the
// program from the beginning.
func (s *Session) Play() {
	s.mu.Lock()
	next := s.state
	switch s.state {
	case interpreter.Running:
		next = interpreter.PauseRequested
	case interpreter.PauseRequested, interpreter.Paused:
		next = interpreter.Running
	case interpreter.Stopped, interpreter.StopRequested:
		s.seq = s.seq.ResetAllLoops().WithProgramCounter(0)
		s.err = nil
		next = interpreter.Running
	}
	start := s.setStateLocked(next)
	ev := s.eventLocked()
	s.mu.Unlock()

	s.log.Debug("Play", "state", next)
	s.publish(ev)
	if start {
		s.startRun()
	}
}

// Stop requests the current run to stop after the step in progress.
func (s *Session) Stop() {
	s.SetRunningState(interpreter.StopRequested)
}

// StepOnce executes the block at the program counter.
// It fails with ErrRunning while a run or another step is in progress. A
// Play issued during the step starts its run after the step has finished.
func (s *Session) StepOnce(ctx context.Context) error {
	if !s.acquire() {
		return ErrRunning
	}
	defer s.busy.Unlock()
	return s.in.Step(ctx, s.ProgramSequence())
}

// DoCommand executes a single command without touching the program.
// It fails with ErrRunning while a run or a step is in progress.
func (s *Session) DoCommand(ctx context.Context, name string) error {
	if !s.acquire() {
		return ErrRunning
	}
	defer s.busy.Unlock()
	return s.in.DoCommand(ctx, program.Command(name))
}

// acquire takes the busy lock unless a run holds it or is about to.
func (s *Session) acquire() bool {
	if !s.busy.TryLock() {
		return false
	}
	switch s.RunningState() {
	case interpreter.Running, interpreter.PauseRequested, interpreter.StopRequested:
		s.busy.Unlock()
		return false
	}
	return true
}

// SetProgram replaces the program. If no block is left at or after the
// program counter the session stops.
func (s *Session) SetProgram(seq program.Sequence) {
	s.mu.Lock()
	s.seq = seq
	if seq.AtEnd() {
		s.setStateLocked(interpreter.Stopped)
	}
	ev := s.eventLocked()
	s.mu.Unlock()

	s.publish(ev)
}

// SetSpeed sets the step time from a speed level.
func (s *Session) SetSpeed(level int) error {
	d, err := StepTimeForSpeed(level)
	if err != nil {
		return err
	}
	s.in.SetStepTime(d)
	return nil
}

// Err returns the error that ended the last run, if any.
func (s *Session) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

// Subscribe registers fn to be called after every change of the session.
func (s *Session) Subscribe(fn func(Event)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

// Wait blocks until every run started so far has returned.
func (s *Session) Wait() {
	s.runs.Wait()
}

// Close cancels any run in progress and waits for it.
func (s *Session) Close() {
	s.cancel()
	s.runs.Wait()
}

// setStateLocked sets the state and reports whether a run should start.
func (s *Session) setStateLocked(state interpreter.RunningState) bool {
	prev := s.state
	s.state = state
	if prev != state {
		s.log.Debug("Running state changed", "from", prev, "to", state)
	}
	return state == interpreter.Running && prev != interpreter.Running
}

func (s *Session) eventLocked() Event {
	return Event{State: s.state, Sequence: s.seq, Err: s.err}
}

func (s *Session) publish(ev Event) {
	s.mu.RLock()
	subs := s.subscribers
	s.mu.RUnlock()

	for _, sub := range subs {
		sub(ev)
	}
}

func (s *Session) startRun() {
	s.runs.Add(1)
	go s.run()
}

// run drives the interpreter until it leaves the running state.
// A run that was requested while the previous one was finishing is retried
// once the guard is free.
func (s *Session) run() {
	defer s.runs.Done()

	for {
		s.busy.Lock()
		err := s.in.StartRun(s.ctx)
		s.busy.Unlock()
		if err != nil {
			s.fail(err)
			return
		}
		if s.RunningState() != interpreter.Running || s.in.IsRunActive() {
			return
		}
	}
}

// fail records err and stops the session.
func (s *Session) fail(err error) {
	s.mu.Lock()
	if !errors.Is(err, context.Canceled) {
		s.err = err
	}
	s.setStateLocked(interpreter.Stopped)
	ev := s.eventLocked()
	s.mu.Unlock()

	if ev.Err != nil {
		s.log.Error("Run failed", "error", err)
	}
	s.publish(ev)
}
