// Package announce produces spoken-style text for commands and run state
// changes in the user's language.
package announce

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/zurustar/blockstep/pkg/interpreter"
	"github.com/zurustar/blockstep/pkg/world"
)

// Source is the handler source of the announcement handlers.
const Source = "announce"

var matcher = language.NewMatcher(Supported)

// ParseLanguage returns the supported language closest to s.
func ParseLanguage(s string) (language.Tag, error) {
	tag, err := language.Parse(s)
	if err != nil {
		return language.Und, fmt.Errorf("invalid language: %s", s)
	}
	_, index, confidence := matcher.Match(tag)
	if confidence == language.No {
		return language.Und, fmt.Errorf("unsupported language: %s", s)
	}
	return Supported[index], nil
}

// Announcer writes one line per announcement to w.
type Announcer struct {
	mu      sync.Mutex
	w       io.Writer
	printer *message.Printer
}

// New creates an Announcer for lang.
func New(w io.Writer, lang language.Tag) (*Announcer, error) {
	cat, err := newCatalog()
	if err != nil {
		return nil, fmt.Errorf("failed to build announcement catalog: %w", err)
	}
	return &Announcer{
		w:       w,
		printer: message.NewPrinter(lang, message.Catalog(cat)),
	}, nil
}

// Command returns the text for a command name.
func (a *Announcer) Command(name string) string {
	text := a.printer.Sprintf(name)
	if text == name {
		return a.printer.Sprintf("unknown", name)
	}
	return text
}

// State returns the text for a running state.
func (a *Announcer) State(state interpreter.RunningState) string {
	return a.printer.Sprintf("state." + string(state))
}

// Position describes where the character is and where it faces.
func (a *Announcer) Position(c world.Character) string {
	dir := a.printer.Sprintf("direction." + c.Direction.String())
	return a.printer.Sprintf("position", c.Cell(), dir)
}

// Say writes text as one line.
func (a *Announcer) Say(text string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	fmt.Fprintln(a.w, text)
}

// Register adds an announcement handler for each of names.
func (a *Announcer) Register(in *interpreter.Interpreter, names []string) {
	for _, name := range names {
		in.AddCommandHandler(name, Source, func(context.Context, time.Duration) error {
			a.Say(a.Command(name))
			return nil
		})
	}
}
