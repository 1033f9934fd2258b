package geom

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidFacing = errors.New("invalid facing")

// Direction is one of the six axis-aligned lattice directions.
type Direction uint8

const (
	North Direction = iota // -Z
	South                  // +Z
	West                   // -X
	East                   // +X
	Up                     // +Y
	Down                   // -Y

	NumDirections = 6
)

var directionOffsets = [NumDirections]Pos{
	North: {Z: -1},
	South: {Z: 1},
	West:  {X: -1},
	East:  {X: 1},
	Up:    {Y: 1},
	Down:  {Y: -1},
}

var directionNames = [NumDirections]string{
	North: "north",
	South: "south",
	West:  "west",
	East:  "east",
	Up:    "up",
	Down:  "down",
}

func (d Direction) Offset() Pos {
	if d >= NumDirections {
		return Pos{}
	}
	return directionOffsets[d]
}

func (d Direction) Opposite() Direction {
	switch d {
	case North:
		return South
	case South:
		return North
	case West:
		return East
	case East:
		return West
	case Up:
		return Down
	default:
		return Up
	}
}

func (d Direction) Horizontal() bool { return d <= East }

func (d Direction) String() string {
	if d >= NumDirections {
		return fmt.Sprintf("direction(%d)", uint8(d))
	}
	return directionNames[d]
}

func (d Direction) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

func (d *Direction) UnmarshalText(b []byte) error {
	v, err := ParseDirection(string(b))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// ParseFacing parses a block facing attribute. Only the four horizontal
// compass directions are valid facings.
func ParseFacing(s string) (Direction, error) {
	d, err := ParseDirection(s)
	if err != nil {
		return 0, err
	}
	if !d.Horizontal() {
		return 0, fmt.Errorf("%w: %q is not horizontal", ErrInvalidFacing, s)
	}
	return d, nil
}

// ParseDirection accepts any of the six direction names, case-insensitively.
func ParseDirection(s string) (Direction, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for d, n := range directionNames {
		if n == name {
			return Direction(d), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidFacing, s)
}

// Between reports the direction of the unit step from -> to.
func Between(from, to Pos) (Direction, bool) {
	delta := to.Sub(from)
	for d, off := range directionOffsets {
		if off == delta {
			return Direction(d), true
		}
	}
	return 0, false
}
