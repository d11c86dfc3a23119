// Package sound plays a short note for every movement of the character,
// synthesized from a SoundFont with go-meltysynth and played through
// Ebitengine/audio.
package sound

import (
	"encoding/binary"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/sinshu/go-meltysynth/meltysynth"

	"github.com/zurustar/blockstep/pkg/commands"
	"github.com/zurustar/blockstep/pkg/logger"
	"github.com/zurustar/blockstep/pkg/world"
)

// SampleRate is the audio sample rate used for synthesis.
const SampleRate = 44100

// MIDI status bytes used by the player.
const (
	midiNoteOff       int32 = 0x80
	midiNoteOn        int32 = 0x90
	midiControlChange int32 = 0xB0
	midiProgramChange int32 = 0xC0
	midiPanController int32 = 10
)

// Synth is the part of a synthesizer the player drives.
// *meltysynth.Synthesizer satisfies it.
type Synth interface {
	ProcessMidiMessage(channel int32, command int32, data1 int32, data2 int32)
	Render(left []float32, right []float32)
}

// Player turns notes into audio. It is an io.Reader producing 16-bit
// little-endian stereo samples, which is what Ebitengine/audio consumes.
type Player struct {
	mu       sync.Mutex
	synth    Synth
	programs map[int32]int32
	muted    bool
	closed   bool

	output *audio.Player
	log    *slog.Logger
}

// Option is a functional option for configuring the Player.
type Option func(*Player)

// WithLogger sets a custom logger.
func WithLogger(log *slog.Logger) Option {
	return func(p *Player) {
		p.log = log
	}
}

// WithMuted starts the player muted.
func WithMuted(muted bool) Option {
	return func(p *Player) {
		p.muted = muted
	}
}

// NewPlayer creates a player over synth without audio output.
// Samples are produced only when Read is called.
func NewPlayer(synth Synth, opts ...Option) *Player {
	p := &Player{
		synth:    synth,
		programs: make(map[int32]int32),
		log:      logger.GetLogger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// New creates a player for soundFont and starts playing it through
// audioCtx. A new audio context is created when audioCtx is nil.
func New(soundFont *meltysynth.SoundFont, audioCtx *audio.Context, opts ...Option) (*Player, error) {
	settings := meltysynth.NewSynthesizerSettings(SampleRate)
	synth, err := meltysynth.NewSynthesizer(soundFont, settings)
	if err != nil {
		return nil, fmt.Errorf("failed to create synthesizer: %w", err)
	}

	if audioCtx == nil {
		audioCtx = audio.CurrentContext()
		if audioCtx == nil {
			audioCtx = audio.NewContext(SampleRate)
		}
	}

	p := NewPlayer(synth, opts...)
	output, err := audioCtx.NewPlayer(p)
	if err != nil {
		return nil, fmt.Errorf("failed to create audio player: %w", err)
	}
	if p.muted {
		output.SetVolume(0)
	}
	output.Play()
	p.output = output
	return p, nil
}

// Read implements io.Reader. It renders from the synthesizer and never
// reaches EOF; a closed player returns silence.
func (p *Player) Read(b []byte) (int, error) {
	// 16-bit stereo = 4 bytes per sample
	samples := len(b) / 4
	if samples == 0 {
		return 0, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed || p.synth == nil {
		clear(b[:samples*4])
		return samples * 4, nil
	}

	left := make([]float32, samples)
	right := make([]float32, samples)
	p.synth.Render(left, right)

	for i := range samples {
		l := int16(clamp(left[i], -1, 1) * 32767)
		r := int16(clamp(right[i], -1, 1) * 32767)
		binary.LittleEndian.PutUint16(b[i*4:], uint16(l))
		binary.LittleEndian.PutUint16(b[i*4+2:], uint16(r))
	}
	return samples * 4, nil
}

// Play starts n and schedules its release after n.Duration.
func (p *Player) Play(n Note) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	if prog, ok := p.programs[n.Channel]; !ok || prog != n.Program {
		p.synth.ProcessMidiMessage(n.Channel, midiProgramChange, n.Program, 0)
		p.programs[n.Channel] = n.Program
	}
	p.synth.ProcessMidiMessage(n.Channel, midiControlChange, midiPanController, n.Pan)
	p.synth.ProcessMidiMessage(n.Channel, midiNoteOn, n.Key, n.Velocity)
	p.log.Debug("Note on", "channel", n.Channel, "key", n.Key, "duration", n.Duration)

	time.AfterFunc(n.Duration, func() {
		p.release(n)
	})
}

func (p *Player) release(n Note) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.synth.ProcessMidiMessage(n.Channel, midiNoteOff, n.Key, 0)
}

// Moved plays the note for cmd. It implements commands.Observer.
func (p *Player) Moved(cmd commands.Command, c world.Character, stepTime time.Duration) {
	p.Play(NoteFor(cmd, c, stepTime))
}

// SetMuted mutes or unmutes the output.
func (p *Player) SetMuted(muted bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.muted = muted
	if p.output != nil {
		if muted {
			p.output.SetVolume(0)
		} else {
			p.output.SetVolume(1)
		}
	}
}

// IsMuted returns whether the player is muted.
func (p *Player) IsMuted() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.muted
}

// Close stops the output. Pending note releases are dropped.
func (p *Player) Close() error {
	p.mu.Lock()
	p.closed = true
	output := p.output
	p.output = nil
	p.mu.Unlock()

	// The output reads from p, so it is closed without holding p.mu.
	if output != nil {
		return output.Close()
	}
	return nil
}

// clamp restricts a value to the range [lo, hi].
func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
