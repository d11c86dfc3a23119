// Package programfile loads block programs from YAML or CUE files.
//
// A program file lists steps. A step is either a command name or a loop:
//
//	name: square
//	start: {x: 5, y: 5, direction: north}
//	program:
//	  - loop: 4
//	    body:
//	      - forward2
//	      - right90
//
// Every file is validated against an embedded CUE schema before it is decoded.
package programfile

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"strings"
	"unicode/utf8"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
	"gopkg.in/yaml.v3"

	"github.com/zurustar/blockstep/pkg/program"
	"github.com/zurustar/blockstep/pkg/world"
)

//go:embed schema.cue
var schemaSource string

// File is a decoded program file.
type File struct {
	Name        string `yaml:"name,omitempty"`
	Description string `yaml:"description,omitempty"`
	Start       *Start `yaml:"start,omitempty"`
	Program     []Step `yaml:"program"`
}

// Start is the optional starting position of the character.
type Start struct {
	X         int    `yaml:"x,omitempty"`
	Y         int    `yaml:"y,omitempty"`
	Direction string `yaml:"direction,omitempty"`
}

// Step is a command name or a loop. Exactly one of Command and Loop is set.
type Step struct {
	Command string
	Loop    *Loop
}

// Loop repeats Body Iterations times.
type Loop struct {
	Iterations int    `yaml:"loop"`
	Label      string `yaml:"label,omitempty"`
	Body       []Step `yaml:"body"`
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (s *Step) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		return node.Decode(&s.Command)
	case yaml.MappingNode:
		s.Loop = &Loop{}
		return node.Decode(s.Loop)
	default:
		return fmt.Errorf("line %d: step must be a command name or a loop", node.Line)
	}
}

// MarshalYAML implements yaml.Marshaler.
func (s Step) MarshalYAML() (any, error) {
	if s.Loop != nil {
		return s.Loop, nil
	}
	return s.Command, nil
}

// Parse validates and decodes a program file. The format is chosen by the
// extension of filename: ".cue" for CUE, anything else for YAML.
// Files that are not valid UTF-8 are read as Shift-JIS.
func Parse(filename string, data []byte) (*File, error) {
	data, err := toUTF8(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}

	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue")).LookupPath(cue.ParsePath("#File"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("failed to compile program schema: %w", err)
	}

	isCUE := strings.EqualFold(path.Ext(filename), ".cue")

	var value cue.Value
	if isCUE {
		value = ctx.CompileBytes(data, cue.Filename(filename))
	} else {
		var raw any
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("%s: %w", filename, err)
		}
		value = ctx.Encode(raw)
	}
	if err := value.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}

	unified := schema.Unify(value)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("%s: invalid program: %w", filename, err)
	}

	if isCUE {
		// JSON is valid YAML, so both formats share one decoder.
		data, err = unified.MarshalJSON()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filename, err)
		}
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	if f.Name == "" {
		base := path.Base(filename)
		f.Name = strings.TrimSuffix(base, path.Ext(base))
	}
	return &f, nil
}

// toUTF8 converts Shift-JIS input to UTF-8. UTF-8 input is returned as is.
func toUTF8(data []byte) ([]byte, error) {
	if utf8.Valid(data) {
		return data, nil
	}
	reader := transform.NewReader(bytes.NewReader(data), japanese.ShiftJIS.NewDecoder())
	utf8Data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to decode Shift-JIS: %w", err)
	}
	return utf8Data, nil
}

// Load reads and parses name from fsys.
func Load(fsys fs.FS, name string) (*File, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("failed to read program: %w", err)
	}
	return Parse(name, data)
}

// LoadFile reads and parses a program file from the local file system.
func LoadFile(filename string) (*File, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read program: %w", err)
	}
	return Parse(filename, data)
}

// Blocks flattens the file's steps into a validated block list.
// Loops without a label get the first free automatic label in order of
// appearance.
func (f *File) Blocks() ([]program.Block, error) {
	used := make(map[string]bool)
	collectLabels(f.Program, used)

	var blocks []program.Block
	next := 0
	var walk func(steps []Step)
	walk = func(steps []Step) {
		for _, step := range steps {
			if step.Loop == nil {
				blocks = append(blocks, program.Command(step.Command))
				continue
			}
			label := step.Loop.Label
			if label == "" {
				for {
					label = program.LoopLabel(next)
					next++
					if !used[label] {
						break
					}
				}
				used[label] = true
			}
			blocks = append(blocks, program.StartLoop(label, step.Loop.Iterations))
			walk(step.Loop.Body)
			blocks = append(blocks, program.EndLoop(label))
		}
	}
	walk(f.Program)

	if err := program.Validate(blocks); err != nil {
		return nil, err
	}
	return blocks, nil
}

func collectLabels(steps []Step, used map[string]bool) {
	for _, step := range steps {
		if step.Loop != nil {
			if step.Loop.Label != "" {
				used[step.Loop.Label] = true
			}
			collectLabels(step.Loop.Body, used)
		}
	}
}

// Sequence returns the file's program with the program counter at 0.
func (f *File) Sequence() (program.Sequence, error) {
	blocks, err := f.Blocks()
	if err != nil {
		return program.Sequence{}, err
	}
	return program.NewSequence(blocks, 0), nil
}

// Character returns the starting character described by the file on the
// default grid. Missing fields keep the default start.
func (f *File) Character() (world.Character, error) {
	c := world.DefaultCharacter()
	if f.Start == nil {
		return c, nil
	}

	x, y, dir := c.X, c.Y, c.Direction
	if f.Start.X != 0 {
		x = f.Start.X
	}
	if f.Start.Y != 0 {
		y = f.Start.Y
	}
	if f.Start.Direction != "" {
		d, err := world.ParseDirection(f.Start.Direction)
		if err != nil {
			return c, err
		}
		dir = d
	}
	return world.NewCharacter(x, y, dir, c.Dimensions), nil
}

// FromBlocks rebuilds the nested steps of a well-formed block list.
func FromBlocks(name string, blocks []program.Block) (*File, error) {
	if err := program.Validate(blocks); err != nil {
		return nil, err
	}

	root := []Step{}
	stack := []*[]Step{&root}
	for _, b := range blocks {
		top := stack[len(stack)-1]
		switch b.Kind {
		case program.KindCommand:
			*top = append(*top, Step{Command: b.Name})
		case program.KindStartLoop:
			*top = append(*top, Step{Loop: &Loop{Iterations: b.Iterations, Label: b.Label, Body: []Step{}}})
			stack = append(stack, &(*top)[len(*top)-1].Loop.Body)
		case program.KindEndLoop:
			stack = stack[:len(stack)-1]
		}
	}
	return &File{Name: name, Program: root}, nil
}

// Marshal encodes f as YAML.
func Marshal(f *File) ([]byte, error) {
	return yaml.Marshal(f)
}
