// Package commands defines the built-in movement commands and registers their
// handlers with an interpreter.
package commands

import (
	"context"
	"time"

	"github.com/zurustar/blockstep/pkg/interpreter"
	"github.com/zurustar/blockstep/pkg/world"
)

// Source is the handler source of the movement handlers.
const Source = "moveCharacter"

// Action is what a command does to the character.
type Action string

const (
	ActionForward Action = "forward"
	ActionLeft    Action = "left"
	ActionRight   Action = "right"
)

// Command describes one built-in command.
type Command struct {
	Name   string
	Action Action
	// Amount is the number of cells for forward moves and the number of
	// 45 degree turns otherwise.
	Amount int
	// SoundDivisor divides the step time to get the length of the sound
	// played for the command.
	SoundDivisor int
}

// Apply returns c after the command, drawing the path when drawing is true.
func (cmd Command) Apply(c world.Character, drawing bool) world.Character {
	switch cmd.Action {
	case ActionForward:
		return c.Forward(cmd.Amount, drawing)
	case ActionLeft:
		return c.TurnLeft(cmd.Amount)
	case ActionRight:
		return c.TurnRight(cmd.Amount)
	default:
		return c
	}
}

// SoundTime returns how long the command's sound lasts at stepTime.
func (cmd Command) SoundTime(stepTime time.Duration) time.Duration {
	if cmd.SoundDivisor <= 1 {
		return stepTime
	}
	return stepTime / time.Duration(cmd.SoundDivisor)
}

var builtins = []Command{
	{Name: "forward1", Action: ActionForward, Amount: 1, SoundDivisor: 1},
	{Name: "forward2", Action: ActionForward, Amount: 2, SoundDivisor: 1},
	{Name: "forward3", Action: ActionForward, Amount: 3, SoundDivisor: 1},
	{Name: "left45", Action: ActionLeft, Amount: 1, SoundDivisor: 4},
	{Name: "left90", Action: ActionLeft, Amount: 2, SoundDivisor: 2},
	{Name: "left180", Action: ActionLeft, Amount: 4, SoundDivisor: 1},
	{Name: "right45", Action: ActionRight, Amount: 1, SoundDivisor: 2},
	{Name: "right90", Action: ActionRight, Amount: 2, SoundDivisor: 2},
	{Name: "right180", Action: ActionRight, Amount: 4, SoundDivisor: 1},
}

// Names returns the built-in command names in palette order.
func Names() []string {
	names := make([]string, len(builtins))
	for i, cmd := range builtins {
		names[i] = cmd.Name
	}
	return names
}

// Lookup returns the built-in command called name.
func Lookup(name string) (Command, bool) {
	for _, cmd := range builtins {
		if cmd.Name == name {
			return cmd, true
		}
	}
	return Command{}, false
}

// Observer is notified after a command has moved the character.
type Observer interface {
	Moved(cmd Command, c world.Character, stepTime time.Duration)
}

// Register adds a movement handler for every built-in command.
func Register(in *interpreter.Interpreter, w *world.World, observers ...Observer) {
	for _, cmd := range builtins {
		in.AddCommandHandler(cmd.Name, Source, Handler(cmd, w, observers...))
	}
}

// Handler returns the handler for cmd. It updates w immediately, notifies
// observers and then waits one step time.
func Handler(cmd Command, w *world.World, observers ...Observer) interpreter.Handler {
	return func(ctx context.Context, stepTime time.Duration) error {
		c := w.Update(cmd.Apply)
		for _, o := range observers {
			o.Moved(cmd, c, stepTime)
		}
		return Wait(ctx, stepTime)
	}
}

// Wait blocks for d or until ctx is done.
func Wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
