package interpreter

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/zurustar/blockstep/pkg/program"
)

// mockHost is a scripted implementation of Host for testing.
// RunningState and ProgramSequence return queued values first and then the
// configured defaults. Apply records the mutation and acknowledges it
// immediately unless asyncAck is set.
type mockHost struct {
	mu sync.Mutex

	states       []RunningState
	defaultState RunningState

	sequences       []program.Sequence
	defaultSequence program.Sequence

	runningStateCalls    int
	programSequenceCalls int
	setStates            []RunningState
	mutations            []Mutation

	asyncAck bool
	holdAck  bool
	pending  []func()
}

func newMockHost() *mockHost {
	return &mockHost{}
}

func (m *mockHost) queueStates(states ...RunningState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states = append(m.states, states...)
}

func (m *mockHost) queueSequences(seqs ...program.Sequence) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sequences = append(m.sequences, seqs...)
}

func (m *mockHost) ProgramSequence() program.Sequence {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.programSequenceCalls++
	if len(m.sequences) > 0 {
		seq := m.sequences[0]
		m.sequences = m.sequences[1:]
		return seq
	}
	return m.defaultSequence
}

func (m *mockHost) RunningState() RunningState {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runningStateCalls++
	if len(m.states) > 0 {
		s := m.states[0]
		m.states = m.states[1:]
		return s
	}
	return m.defaultState
}

func (m *mockHost) SetRunningState(state RunningState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setStates = append(m.setStates, state)
}

func (m *mockHost) Apply(mut Mutation, done func()) {
	m.mu.Lock()
	m.mutations = append(m.mutations, mut)
	hold := m.holdAck
	async := m.asyncAck
	if hold {
		m.pending = append(m.pending, done)
	}
	m.mu.Unlock()

	switch {
	case hold:
	case async:
		go func() {
			time.Sleep(time.Millisecond)
			done()
		}()
	default:
		done()
	}
}

// releaseAcks acknowledges every held mutation.
func (m *mockHost) releaseAcks() {
	m.mu.Lock()
	pending := m.pending
	m.pending = nil
	m.mu.Unlock()
	for _, done := range pending {
		done()
	}
}

// countMutations returns how many mutations of kind were requested.
func (m *mockHost) countMutations(kind MutationKind) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, mut := range m.mutations {
		if mut.Kind == kind {
			n++
		}
	}
	return n
}

func (m *mockHost) mutationCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.mutations)
}

func (m *mockHost) lastMutation() Mutation {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mutations[len(m.mutations)-1]
}

func (m *mockHost) stateRequests() []RunningState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]RunningState(nil), m.setStates...)
}

func (m *mockHost) runningStateCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.runningStateCalls
}

// mockHandler records its invocations and completes after delay.
type mockHandler struct {
	mu        sync.Mutex
	calls     []time.Duration
	delay     time.Duration
	err       error
	onInvoked func()
}

func newMockHandler() *mockHandler {
	return &mockHandler{}
}

func (h *mockHandler) handle(ctx context.Context, stepTime time.Duration) error {
	h.mu.Lock()
	h.calls = append(h.calls, stepTime)
	onInvoked := h.onInvoked
	delay := h.delay
	err := h.err
	h.mu.Unlock()

	if onInvoked != nil {
		onInvoked()
	}
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

func (h *mockHandler) callCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.calls)
}

func (h *mockHandler) call(i int) time.Duration {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.calls[i]
}

var errMockHandler = errors.New("mock handler failed")

// createInterpreter creates an Interpreter over a fresh mockHost.
func createInterpreter() (*Interpreter, *mockHost) {
	host := newMockHost()
	return New(host, WithStepTime(1000*time.Millisecond)), host
}

func seq(pc int, blocks ...program.Block) program.Sequence {
	return program.NewSequence(blocks, pc)
}
