package world

import "sync"

// World holds the character and drawing setting shared by the command
// handlers, the window and the console.
type World struct {
	mu          sync.RWMutex
	initial     Character
	character   Character
	drawing     bool
	subscribers []func(Character)
}

// New creates a world starting with c. Drawing is enabled.
func New(c Character) *World {
	return &World{initial: c, character: c, drawing: true}
}

// Character returns the current character.
func (w *World) Character() Character {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.character
}

// Drawing reports whether forward moves are drawn.
func (w *World) Drawing() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.drawing
}

// SetDrawing turns drawing on or off.
func (w *World) SetDrawing(on bool) {
	w.mu.Lock()
	w.drawing = on
	w.mu.Unlock()
}

// Update replaces the character with fn applied to it and the drawing
// setting, then notifies subscribers.
func (w *World) Update(fn func(c Character, drawing bool) Character) Character {
	w.mu.Lock()
	w.character = fn(w.character, w.drawing)
	c := w.character
	subs := w.subscribers
	w.mu.Unlock()

	for _, sub := range subs {
		sub(c)
	}
	return c
}

// Reset moves the character back to where it started and clears the path.
func (w *World) Reset() Character {
	return w.Update(func(Character, bool) Character { return w.initial })
}

// Restart makes c the starting character and moves there.
func (w *World) Restart(c Character) Character {
	w.mu.Lock()
	w.initial = c
	w.mu.Unlock()
	return w.Reset()
}

// Subscribe registers fn to be called after every change.
func (w *World) Subscribe(fn func(Character)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.subscribers = append(w.subscribers, fn)
}
