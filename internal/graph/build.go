package graph

import (
	"fmt"
	"sort"

	"github.com/pkg/errors"

	"voxelcircuit.ai/internal/circuit"
	"voxelcircuit.ai/internal/diag"
	"voxelcircuit.ai/internal/geom"
)

var ErrUnresolvedModel = errors.New("unresolved model")

// BuildError aborts graph construction: a component names a model the
// resolver does not know.
type BuildError struct {
	Component string
	Model     string
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("component %s: model %s not found", e.Component, e.Model)
}

func (e *BuildError) Unwrap() error { return ErrUnresolvedModel }

// Build constructs the connectivity graph of c. An unresolved model aborts the
// build with a *BuildError and no graph. Wires whose repeaters disagree on
// direction are reported to sink, recorded in Graph.Conflicts and left out;
// their endpoint dots stay in the graph.
func Build(c *circuit.Circuit, models circuit.Resolver, sink diag.Sink) (*Graph, error) {
	g := New()

	// External inputs feed the circuit, so internally they are sources.
	for _, p := range c.Inputs {
		g.AddDot(p.Position, Output)
	}

	for _, comp := range c.Components {
		m, ok := models.Lookup(comp.Model)
		if !ok {
			diag.Errorf(sink, "model %s not found for component %s", comp.Model, comp.Name)
			return nil, errors.WithStack(&BuildError{Component: comp.Name, Model: comp.Model})
		}
		for _, port := range m.InputPorts() {
			g.AddDot(comp.Position.Add(port.Position), Input)
		}
		for _, port := range m.OutputPorts() {
			g.AddDot(comp.Position.Add(port.Position), Output)
		}
	}

	amplifiers := amplifierBlocks(c)
	for _, w := range c.Wires {
		start := g.findOrAddDot(w.Start, Input)
		end := g.findOrAddDot(w.End, Input)

		dir, amps, ok := wireDirection(w, amplifiers, sink)
		if !ok {
			diag.Errorf(sink, "a wire has two or more repeaters whose directions are opposite: %s, starting from %v to %v, ignoring this wire", w.Name, w.Start, w.End)
			g.Conflicts = append(g.Conflicts, Conflict{Wire: w.Name, Start: w.Start, End: w.End})
			continue
		}
		g.AddEdge(Edge{
			Start:      start,
			End:        end,
			Length:     w.Length(),
			Direction:  dir,
			Wire:       w.Name,
			Amplifiers: amps,
		})
	}
	return g, nil
}

// amplifierBlocks lists the repeaters of c. When several blocks share a
// position the first one wins.
func amplifierBlocks(c *circuit.Circuit) []circuit.BlockInfo {
	seen := make(map[geom.Pos]bool, len(c.Blocks))
	var out []circuit.BlockInfo
	for _, b := range c.Blocks {
		if seen[b.Position] {
			continue
		}
		seen[b.Position] = true
		if b.IsAmplifier() {
			out = append(out, b)
		}
	}
	return out
}

// wireDirection derives the edge direction from the repeaters lying on the
// wire's lattice path. A repeater facing the wire's heading makes the edge
// Forward, any other facing makes it Backward. ok is false when repeaters
// disagree. Work is proportional to the number of repeaters, not to the wire
// length.
func wireDirection(w circuit.Wire, amplifiers []circuit.BlockInfo, sink diag.Sink) (dir EdgeDirection, amps []geom.Pos, ok bool) {
	type onWire struct {
		step int
		b    circuit.BlockInfo
	}
	var found []onWire
	for _, b := range amplifiers {
		if i, on := geom.LineStep(w.Start, w.End, b.Position); on {
			found = append(found, onWire{step: i, b: b})
		}
	}
	sort.Slice(found, func(i, j int) bool { return found[i].step < found[j].step })

	heading := geom.WireHeading(w.Start, w.End)
	dir = Bidirectional
	ok = true
	for _, f := range found {
		pos := f.b.Position
		facing, err := geom.ParseFacing(f.b.Facing())
		if err != nil {
			diag.Errorf(sink, "repeater at %v on wire %s: %v, ignoring it", pos, w.Name, err)
			continue
		}
		next := Backward
		if facing == heading {
			next = Forward
		}
		if dir != Bidirectional && next != dir {
			ok = false
		} else {
			dir = next
		}
		amps = append(amps, pos)
	}
	return dir, amps, ok
}
