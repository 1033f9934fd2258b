// Package graph turns a circuit description into a connectivity graph of dots
// (ports and wire endpoints) joined by edges (wires), and provides the
// traversals the reachability checker runs over it.
//
// Dots and edges live in arenas owned by the Graph and refer to each other by
// index only; an index stays valid for the lifetime of the graph.
package graph

import (
	"fmt"
	"math"

	"voxelcircuit.ai/internal/geom"
)

// Unreached is the distance of a dot no traversal has reached.
const Unreached = math.MaxInt32

// NodeKind tags a dot as a signal consumer (Input) or a signal source (Output).
// External circuit inputs are Output dots: they drive signal into the circuit.
type NodeKind uint8

const (
	Input NodeKind = iota
	Output
)

func (k NodeKind) String() string {
	if k == Output {
		return "output"
	}
	return "input"
}

func (k NodeKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// EdgeDirection restricts which way signal may cross a wire. It comes only
// from repeaters embedded along the wire.
type EdgeDirection uint8

const (
	Bidirectional EdgeDirection = iota
	Forward                     // start -> end only
	Backward                    // end -> start only
)

func (d EdgeDirection) String() string {
	switch d {
	case Forward:
		return "forward"
	case Backward:
		return "backward"
	default:
		return "bidirectional"
	}
}

func (d EdgeDirection) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

type Dot struct {
	Pos  geom.Pos `json:"pos"`
	Kind NodeKind `json:"kind"`
	// Distance is scratch space for ShortestDistances; it is not part of the
	// dot's identity.
	Distance int `json:"distance"`
}

func (d Dot) String() string {
	return fmt.Sprintf("(%d,%d,%d,%s)", d.Pos.X, d.Pos.Y, d.Pos.Z, d.Kind)
}

type Edge struct {
	Start     int           `json:"start"`
	End       int           `json:"end"`
	Length    int           `json:"length"`
	Direction EdgeDirection `json:"direction"`
	Wire      string        `json:"wire,omitempty"`
	// Amplifiers lists the repeater positions along the wire, ordered from
	// the start endpoint.
	Amplifiers []geom.Pos `json:"amplifiers,omitempty"`
}

// Conflict records a wire dropped because its repeaters disagree on direction.
type Conflict struct {
	Wire  string   `json:"wire"`
	Start geom.Pos `json:"start"`
	End   geom.Pos `json:"end"`
}

type Graph struct {
	Dots      []Dot      `json:"dots"`
	Edges     []Edge     `json:"edges"`
	Inputs    []int      `json:"inputs"`
	Outputs   []int      `json:"outputs"`
	Conflicts []Conflict `json:"conflicts,omitempty"`

	incident [][]int // dot index -> edge indices, insertion order
}

func New() *Graph {
	return &Graph{Inputs: []int{}, Outputs: []int{}}
}

func (g *Graph) AddDot(pos geom.Pos, kind NodeKind) int {
	idx := len(g.Dots)
	g.Dots = append(g.Dots, Dot{Pos: pos, Kind: kind, Distance: Unreached})
	g.incident = append(g.incident, nil)
	if kind == Output {
		g.Outputs = append(g.Outputs, idx)
	} else {
		g.Inputs = append(g.Inputs, idx)
	}
	return idx
}

// FindDot returns the first dot inserted at pos.
func (g *Graph) FindDot(pos geom.Pos) (int, bool) {
	for i, d := range g.Dots {
		if d.Pos == pos {
			return i, true
		}
	}
	return -1, false
}

func (g *Graph) findOrAddDot(pos geom.Pos, kind NodeKind) int {
	if i, ok := g.FindDot(pos); ok {
		return i
	}
	return g.AddDot(pos, kind)
}

// AddEdge appends e; its endpoints must already be dots of g.
func (g *Graph) AddEdge(e Edge) int {
	idx := len(g.Edges)
	g.Edges = append(g.Edges, e)
	g.incident[e.Start] = append(g.incident[e.Start], idx)
	if e.End != e.Start {
		g.incident[e.End] = append(g.incident[e.End], idx)
	}
	return idx
}

// Incident lists the edges touching dot, whichever end.
func (g *Graph) Incident(dot int) []int { return g.incident[dot] }

// Other returns the endpoint of edge opposite to dot.
func (g *Graph) Other(edge, dot int) int {
	e := g.Edges[edge]
	if e.Start == dot {
		return e.End
	}
	return e.Start
}
