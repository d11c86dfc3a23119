// Package world models the grid the character moves on.
package world

import (
	"fmt"
	"slices"
)

// Direction is one of eight headings in 45 degree steps, clockwise from up.
type Direction int

const (
	North Direction = iota
	NorthEast
	East
	SouthEast
	South
	SouthWest
	West
	NorthWest
)

var directionNames = [...]string{"north", "northeast", "east", "southeast", "south", "southwest", "west", "northwest"}

// deltas holds the unit move for each direction. Rows grow downward.
var deltas = [...][2]int{{0, -1}, {1, -1}, {1, 0}, {1, 1}, {0, 1}, {-1, 1}, {-1, 0}, {-1, -1}}

// Normalize maps d into 0..7.
func (d Direction) Normalize() Direction {
	return ((d % 8) + 8) % 8
}

// String implements fmt.Stringer.
func (d Direction) String() string {
	return directionNames[d.Normalize()]
}

// Delta returns the unit move of d.
func (d Direction) Delta() (dx, dy int) {
	v := deltas[d.Normalize()]
	return v[0], v[1]
}

// Dimensions bounds the grid, inclusive.
type Dimensions struct {
	MinX, MaxX int
	MinY, MaxY int
}

// DefaultDimensions is a 26 column by 16 row grid.
var DefaultDimensions = Dimensions{MinX: 1, MaxX: 26, MinY: 1, MaxY: 16}

// Width returns the number of columns.
func (d Dimensions) Width() int { return d.MaxX - d.MinX + 1 }

// Height returns the number of rows.
func (d Dimensions) Height() int { return d.MaxY - d.MinY + 1 }

// Contains reports whether (x, y) is on the grid.
func (d Dimensions) Contains(x, y int) bool {
	return x >= d.MinX && x <= d.MaxX && y >= d.MinY && y <= d.MaxY
}

// ColumnLabel returns the letter naming column x, "A" for MinX.
func (d Dimensions) ColumnLabel(x int) string {
	return string(rune('A' + x - d.MinX))
}

// RowLabel returns the number naming row y, "1" for MinY.
func (d Dimensions) RowLabel(y int) string {
	return fmt.Sprint(y - d.MinY + 1)
}

func (d Dimensions) clamp(x, y int) (int, int) {
	return min(max(x, d.MinX), d.MaxX), min(max(y, d.MinY), d.MaxY)
}

// Segment is one drawn line of the path.
type Segment struct {
	X1, Y1 int
	X2, Y2 int
}

// Character is the position, heading and drawn path of the character.
// All methods return a new value; a Character is never modified in place.
type Character struct {
	X, Y       int
	Direction  Direction
	Path       []Segment
	Dimensions Dimensions
}

// NewCharacter creates a character at (x, y) facing dir on a grid of dims.
func NewCharacter(x, y int, dir Direction, dims Dimensions) Character {
	x, y = dims.clamp(x, y)
	return Character{X: x, Y: y, Direction: dir.Normalize(), Dimensions: dims}
}

// DefaultCharacter is the starting character: column A, row 1, facing east.
func DefaultCharacter() Character {
	return NewCharacter(DefaultDimensions.MinX, DefaultDimensions.MinY, East, DefaultDimensions)
}

// Forward moves n cells along the current direction, stopping at the edge of
// the grid. When drawing is true the move is added to the path.
func (c Character) Forward(n int, drawing bool) Character {
	dx, dy := deltas[c.Direction.Normalize()][0], deltas[c.Direction.Normalize()][1]
	x, y := c.Dimensions.clamp(c.X+dx*n, c.Y+dy*n)

	// Keep diagonal moves on the diagonal when one axis hits the edge.
	if dx != 0 && dy != 0 {
		steps := min(abs(x-c.X), abs(y-c.Y))
		x, y = c.X+dx*steps, c.Y+dy*steps
	}

	next := c
	next.X, next.Y = x, y
	next.Path = slices.Clone(c.Path)
	if drawing && (x != c.X || y != c.Y) {
		next.Path = append(next.Path, Segment{X1: c.X, Y1: c.Y, X2: x, Y2: y})
	}
	return next
}

// TurnLeft turns k eighths counterclockwise.
func (c Character) TurnLeft(k int) Character {
	next := c
	next.Direction = (c.Direction - Direction(k)).Normalize()
	return next
}

// TurnRight turns k eighths clockwise.
func (c Character) TurnRight(k int) Character {
	next := c
	next.Direction = (c.Direction + Direction(k)).Normalize()
	return next
}

// ClearPath returns c without its drawn path.
func (c Character) ClearPath() Character {
	next := c
	next.Path = nil
	return next
}

// Cell returns the grid reference of the character, for example "C5".
func (c Character) Cell() string {
	return c.Dimensions.ColumnLabel(c.X) + c.Dimensions.RowLabel(c.Y)
}

// String implements fmt.Stringer.
func (c Character) String() string {
	return fmt.Sprintf("%s facing %s", c.Cell(), c.Direction)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// ParseDirection converts a direction name such as "east" to a Direction.
func ParseDirection(name string) (Direction, error) {
	for i, n := range directionNames {
		if n == name {
			return Direction(i), nil
		}
	}
	return 0, fmt.Errorf("invalid direction: %s", name)
}
