package geom

import (
	"fmt"
	"math/bits"
)

// Pos is an integer lattice coordinate.
type Pos struct {
	X int `json:"x"`
	Y int `json:"y"`
	Z int `json:"z"`
}

func (p Pos) Add(q Pos) Pos { return Pos{X: p.X + q.X, Y: p.Y + q.Y, Z: p.Z + q.Z} }
func (p Pos) Sub(q Pos) Pos { return Pos{X: p.X - q.X, Y: p.Y - q.Y, Z: p.Z - q.Z} }

func (p Pos) ToArray() [3]int { return [3]int{p.X, p.Y, p.Z} }

func FromArray(a [3]int) Pos { return Pos{X: a[0], Y: a[1], Z: a[2]} }

func (p Pos) String() string { return fmt.Sprintf("(%d,%d,%d)", p.X, p.Y, p.Z) }

// Neighbors returns the six axis-aligned unit neighbors in Direction order.
func (p Pos) Neighbors() [NumDirections]Pos {
	var out [NumDirections]Pos
	for d := Direction(0); d < NumDirections; d++ {
		out[d] = p.Add(d.Offset())
	}
	return out
}

// Manhattan is the propagation metric used throughout.
func Manhattan(a, b Pos) int {
	return absInt(a.X-b.X) + absInt(a.Y-b.Y) + absInt(a.Z-b.Z)
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// Steps is the dominant-axis step count of the lattice line from start to end.
func Steps(start, end Pos) int {
	steps := absInt(end.X - start.X)
	if s := absInt(end.Y - start.Y); s > steps {
		steps = s
	}
	if s := absInt(end.Z - start.Z); s > steps {
		steps = s
	}
	return steps
}

// LineAt is the i-th lattice position (0..Steps) between start and end.
// Intermediate points are truncated toward start, so diagonal segments are
// approximated, not voxel-traversed.
func LineAt(start, end Pos, i int) Pos {
	steps := Steps(start, end)
	if steps == 0 || i <= 0 {
		return start
	}
	if i >= steps {
		return end
	}
	return Pos{
		X: start.X + scale(end.X-start.X, i, steps),
		Y: start.Y + scale(end.Y-start.Y, i, steps),
		Z: start.Z + scale(end.Z-start.Z, i, steps),
	}
}

// LineStep reports the index of p on the lattice line from start to end, if
// p lies on it. It does not walk the line.
func LineStep(start, end, p Pos) (int, bool) {
	steps := Steps(start, end)
	if steps == 0 {
		return 0, p == start
	}
	var i int
	switch steps {
	case absInt(end.X - start.X):
		i = (p.X - start.X) * sign(end.X-start.X)
	case absInt(end.Y - start.Y):
		i = (p.Y - start.Y) * sign(end.Y-start.Y)
	default:
		i = (p.Z - start.Z) * sign(end.Z-start.Z)
	}
	if i < 0 || i > steps {
		return 0, false
	}
	return i, LineAt(start, end, i) == p
}

// scale computes d*i/steps truncated toward zero, for 0 <= i <= steps and
// |d| <= steps, without overflowing the product.
func scale(d, i, steps int) int {
	hi, lo := bits.Mul64(uint64(absInt(d)), uint64(i))
	q, _ := bits.Div64(hi, lo, uint64(steps))
	return sign(d) * int(q)
}

func sign(x int) int {
	switch {
	case x < 0:
		return -1
	case x > 0:
		return 1
	}
	return 0
}

// WireHeading is the compass heading of a wire traversed from start to end.
// Vertical and zero-length wires report North.
func WireHeading(start, end Pos) Direction {
	switch {
	case start.X < end.X:
		return East
	case start.X > end.X:
		return West
	case start.Z < end.Z:
		return South
	default:
		return North
	}
}
