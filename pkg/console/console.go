// Package console is an interactive line interface for a session: it runs
// single commands, steps and plays the program, edits it and reports what
// the character does.
package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/peterh/liner"
	"github.com/zurustar/blockstep/pkg/announce"
	"github.com/zurustar/blockstep/pkg/commands"
	"github.com/zurustar/blockstep/pkg/host"
	"github.com/zurustar/blockstep/pkg/interpreter"
	"github.com/zurustar/blockstep/pkg/logger"
	"github.com/zurustar/blockstep/pkg/program"
	"github.com/zurustar/blockstep/pkg/programfile"
	"github.com/zurustar/blockstep/pkg/world"
)

const (
	prompt      = "blockstep> "
	historyFile = ".blockstep_history"
)

// ErrQuit is returned by Execute for the quit command.
var ErrQuit = errors.New("quit")

// Muter switches sound on and off.
type Muter interface {
	SetMuted(muted bool)
	IsMuted() bool
}

// Console executes console commands against a session.
type Console struct {
	session   *host.Session
	world     *world.World
	announcer *announce.Announcer
	library   programfile.Library
	muter     Muter

	mu        sync.Mutex
	out       io.Writer
	name      string
	lastState interpreter.RunningState

	log *slog.Logger
}

// Option configures a Console.
type Option func(*Console)

// WithAnnouncer reports states and positions through a.
func WithAnnouncer(a *announce.Announcer) Option {
	return func(c *Console) {
		c.announcer = a
	}
}

// WithLibrary sets where the programs and load commands look.
func WithLibrary(l programfile.Library) Option {
	return func(c *Console) {
		c.library = l
	}
}

// WithName sets the name used when saving the program.
func WithName(name string) Option {
	return func(c *Console) {
		c.name = name
	}
}

// WithMuter enables the sound command.
func WithMuter(m Muter) Option {
	return func(c *Console) {
		c.muter = m
	}
}

// New creates a Console writing to out and subscribes it to session events.
func New(session *host.Session, w *world.World, out io.Writer, opts ...Option) *Console {
	c := &Console{
		session:   session,
		world:     w,
		out:       out,
		name:      "untitled",
		lastState: session.RunningState(),
		log:       logger.GetLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	session.Subscribe(c.onEvent)
	return c
}

// Run reads lines from the terminal until quit, end of input or ctx is done.
func (c *Console) Run(ctx context.Context) error {
	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)
	ln.SetCompleter(c.complete)

	histPath := ""
	if home, err := os.UserHomeDir(); err == nil {
		histPath = filepath.Join(home, historyFile)
		if f, err := os.Open(histPath); err == nil {
			_, _ = ln.ReadHistory(f)
			_ = f.Close()
		}
	}
	defer func() {
		if histPath == "" {
			return
		}
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	c.printf("Type help for a list of commands.\n")
	for ctx.Err() == nil {
		line, err := ln.Prompt(prompt)
		if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read input: %w", err)
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		ln.AppendHistory(line)

		if err := c.Execute(ctx, line); err != nil {
			if errors.Is(err, ErrQuit) {
				return nil
			}
			c.printf("error: %v\n", err)
		}
	}
	return ctx.Err()
}

// Execute runs one console command line.
func (c *Console) Execute(ctx context.Context, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]
	c.log.Debug("Console command", "command", cmd, "args", args)

	switch cmd {
	case "help", "?":
		c.printf("%s", helpText)
		return nil

	case "quit", "exit":
		c.session.Stop()
		return ErrQuit

	case "do":
		if len(args) != 1 {
			return fmt.Errorf("usage: do <command>")
		}
		if err := c.session.DoCommand(ctx, args[0]); err != nil {
			return err
		}
		c.where()
		return nil

	case "step":
		if err := c.session.StepOnce(ctx); err != nil {
			return err
		}
		c.where()
		return nil

	case "run", "play":
		c.session.Play()
		return nil

	case "pause":
		if c.session.RunningState() != interpreter.Running {
			return fmt.Errorf("program is not running")
		}
		c.session.Play()
		return nil

	case "stop":
		c.session.Stop()
		return nil

	case "wait":
		c.session.Wait()
		return nil

	case "reset":
		return c.reset()

	case "speed":
		if len(args) != 1 {
			return fmt.Errorf("usage: speed <1-%d>", len(host.SpeedStepTimes))
		}
		level, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid speed: %s", args[0])
		}
		return c.session.SetSpeed(level)

	case "steptime":
		if len(args) != 1 {
			return fmt.Errorf("usage: steptime <milliseconds>")
		}
		ms, err := strconv.Atoi(args[0])
		if err != nil || ms < 0 {
			return fmt.Errorf("invalid step time: %s", args[0])
		}
		c.session.Interpreter().SetStepTime(time.Duration(ms) * time.Millisecond)
		return nil

	case "list":
		c.printf("%s", formatProgram(c.session.ProgramSequence()))
		return nil

	case "where":
		c.where()
		return nil

	case "draw":
		if len(args) != 1 || (args[0] != "on" && args[0] != "off") {
			return fmt.Errorf("usage: draw on|off")
		}
		c.world.SetDrawing(args[0] == "on")
		return nil

	case "sound":
		if c.muter == nil {
			return fmt.Errorf("sound is not available")
		}
		if len(args) != 1 || (args[0] != "on" && args[0] != "off") {
			return fmt.Errorf("usage: sound on|off")
		}
		c.muter.SetMuted(args[0] == "off")
		return nil

	case "commands":
		c.printf("%s\n", strings.Join(commands.Names(), " "))
		return nil

	case "insert":
		return c.insert(args)

	case "delete":
		if len(args) != 1 {
			return fmt.Errorf("usage: delete <index>")
		}
		i, err := c.index(args[0])
		if err != nil {
			return err
		}
		c.session.SetProgram(c.session.ProgramSequence().Delete(i))
		return nil

	case "programs":
		names, err := c.library.Names()
		if err != nil {
			return err
		}
		c.printf("%s\n", strings.Join(names, " "))
		return nil

	case "load":
		if len(args) != 1 {
			return fmt.Errorf("usage: load <program>")
		}
		return c.load(args[0])

	case "save":
		if len(args) != 1 {
			return fmt.Errorf("usage: save <file>")
		}
		return c.save(args[0])

	default:
		return fmt.Errorf("unknown console command: %s (type help)", cmd)
	}
}

// insert handles "insert <index> <command>" and
// "insert <index> loop <iterations> <count>", the latter wrapping the next
// count blocks in a new loop.
func (c *Console) insert(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: insert <index> <command> | insert <index> loop <iterations> <count>")
	}
	seq := c.session.ProgramSequence()
	i, err := strconv.Atoi(args[0])
	if err != nil || i < 0 || i > seq.Len() {
		return fmt.Errorf("invalid index: %s", args[0])
	}

	if args[1] != "loop" {
		if !c.session.Interpreter().Registry().Has(args[1]) {
			return interpreter.NewUnknownCommandError(args[1])
		}
		c.session.SetProgram(seq.Insert(i, program.Command(args[1])))
		return nil
	}

	if len(args) != 4 {
		return fmt.Errorf("usage: insert <index> loop <iterations> <count>")
	}
	iterations, err := strconv.Atoi(args[2])
	if err != nil || iterations < 0 {
		return fmt.Errorf("invalid iterations: %s", args[2])
	}
	count, err := strconv.Atoi(args[3])
	if err != nil || count < 0 || i+count > seq.Len() {
		return fmt.Errorf("invalid count: %s", args[3])
	}

	label := nextLabel(seq)
	next := seq.Insert(i+count, program.EndLoop(label)).Insert(i, program.StartLoop(label, iterations))
	if err := program.Validate(next.Blocks()); err != nil {
		return err
	}
	c.session.SetProgram(next)
	return nil
}

// nextLabel returns the first automatic loop label not used in seq.
func nextLabel(seq program.Sequence) string {
	for n := 0; ; n++ {
		label := program.LoopLabel(n)
		if _, _, found := seq.FindStartLoop(label); !found {
			return label
		}
	}
}

func (c *Console) index(arg string) (int, error) {
	i, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("invalid index: %s", arg)
	}
	if _, ok := c.session.ProgramSequence().At(i); !ok {
		return 0, fmt.Errorf("index out of range: %d", i)
	}
	return i, nil
}

// reset moves the character back to its start and rewinds the program.
func (c *Console) reset() error {
	if state := c.session.RunningState(); state != interpreter.Stopped && state != interpreter.Paused {
		return host.ErrRunning
	}
	c.world.Reset()
	c.session.SetProgram(c.session.ProgramSequence().ResetAllLoops().WithProgramCounter(0))
	return nil
}

// load replaces the program and the starting character with a program file.
func (c *Console) load(name string) error {
	if c.session.RunningState() != interpreter.Stopped {
		return host.ErrRunning
	}
	f, err := c.library.Open(name)
	if err != nil {
		return err
	}
	seq, err := f.Sequence()
	if err != nil {
		return err
	}
	start, err := f.Character()
	if err != nil {
		return err
	}

	c.world.Restart(start)
	c.session.SetProgram(seq)
	c.mu.Lock()
	c.name = f.Name
	c.mu.Unlock()
	c.printf("loaded %s (%d blocks)\n", f.Name, seq.Len())
	return nil
}

// save writes the program as YAML.
func (c *Console) save(filename string) error {
	c.mu.Lock()
	name := c.name
	c.mu.Unlock()

	f, err := programfile.FromBlocks(name, c.session.ProgramSequence().Blocks())
	if err != nil {
		return err
	}
	data, err := programfile.Marshal(f)
	if err != nil {
		return err
	}
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to save program: %w", err)
	}
	c.printf("saved %s\n", filename)
	return nil
}

// where reports the character's position.
func (c *Console) where() {
	ch := c.world.Character()
	if c.announcer != nil {
		c.printf("%s\n", c.announcer.Position(ch))
		return
	}
	c.printf("%s\n", ch)
}

// onEvent reports running state changes and run errors.
func (c *Console) onEvent(ev host.Event) {
	c.mu.Lock()
	changed := ev.State != c.lastState
	c.lastState = ev.State
	c.mu.Unlock()
	if !changed {
		return
	}

	if c.announcer != nil {
		c.printf("%s\n", c.announcer.State(ev.State))
	} else {
		c.printf("%s\n", ev.State)
	}
	if ev.State == interpreter.Stopped && ev.Err != nil {
		c.printf("error: %v\n", ev.Err)
	}
}

func (c *Console) complete(line string) []string {
	var out []string
	for _, w := range completions {
		if strings.HasPrefix(w, line) {
			out = append(out, w)
		}
	}
	for _, name := range commands.Names() {
		if strings.HasPrefix("do "+name, line) {
			out = append(out, "do "+name)
		}
	}
	return out
}

func (c *Console) printf(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, format, args...)
}

// formatProgram lists the blocks with their index and marks the program
// counter.
func formatProgram(seq program.Sequence) string {
	var b strings.Builder
	depth := 0
	for i, blk := range seq.Blocks() {
		if blk.Kind == program.KindEndLoop && depth > 0 {
			depth--
		}
		marker := " "
		if i == seq.ProgramCounter() {
			marker = ">"
		}
		fmt.Fprintf(&b, "%s %3d  %s%s\n", marker, i, strings.Repeat("  ", depth), blk)
		if blk.Kind == program.KindStartLoop {
			depth++
		}
	}
	if seq.AtEnd() {
		fmt.Fprintf(&b, "> %3d  (end)\n", seq.Len())
	}
	return b.String()
}

var completions = []string{
	"help", "quit", "do ", "step", "run", "play", "pause", "stop", "wait", "reset",
	"speed ", "steptime ", "list", "where", "draw on", "draw off", "sound on", "sound off",
	"commands", "insert ", "delete ", "programs", "load ", "save ",
}

const helpText = `Commands:
  do <command>                     run one command without touching the program
  step                             run the block at the program counter
  run, play                        play the program, or pause it while running
  pause                            pause after the current step
  stop                             stop after the current step
  wait                             wait until the current run ends
  reset                            move the character back and rewind the program
  speed <1-5>                      set the speed level
  steptime <ms>                    set the step time directly
  list                             show the program
  where                            show the character's position
  draw on|off                      draw or stop drawing the path
  sound on|off                     turn sound on or off
  commands                         list the available commands
  insert <i> <command>             insert a command before block i
  insert <i> loop <n> <count>      wrap count blocks starting at i in a loop of n
  delete <i>                       delete block i (a loop marker deletes its loop)
  programs                         list the sample programs
  load <program>                   load a sample program or a program file
  save <file>                      save the program as YAML
  quit                             leave the console
`
