// Package check verifies that signal can reach every consumer in a circuit
// before it runs out of power.
//
// Reachability and shortest distance ignore edge direction. Only pairs whose
// shortest distance exceeds the unboosted range get their directed paths
// enumerated and walked with a running power budget.
package check

import (
	"fmt"

	"voxelcircuit.ai/internal/circuit"
	"voxelcircuit.ai/internal/diag"
	"voxelcircuit.ai/internal/geom"
	"voxelcircuit.ai/internal/graph"
)

// MaxSignal is the unboosted range of a signal and the level an amplifier
// restores.
const MaxSignal = 15

type Violation struct {
	Source    geom.Pos `json:"source"`
	Target    geom.Pos `json:"target"`
	Distance  int      `json:"distance"`
	Paths     int      `json:"paths"`
	Truncated bool     `json:"truncated,omitempty"`
}

func (v Violation) String() string {
	return fmt.Sprintf("unreachable output due to running out of signal power: %v -> %v", v.Source, v.Target)
}

type Report struct {
	OK         bool             `json:"ok"`
	Dots       int              `json:"dots"`
	Edges      int              `json:"edges"`
	Pairs      int              `json:"pairs"`
	LongPairs  int              `json:"long_pairs"`
	Conflicts  []graph.Conflict `json:"conflicts,omitempty"`
	Violations []Violation      `json:"violations,omitempty"`

	Graph *graph.Graph `json:"-"`
}

// Checker carries the knobs of a check run. The zero value uses MaxSignal,
// graph.DefaultPathLimit and graph.DefaultPathSteps and reports nowhere.
type Checker struct {
	MaxSignal int
	MaxPaths  int
	// MaxPathSteps bounds the dots expanded per source/target pair.
	MaxPathSteps int
	Verbose      bool
	Sink         diag.Sink
}

func (k *Checker) maxSignal() int {
	if k.MaxSignal <= 0 {
		return MaxSignal
	}
	return k.MaxSignal
}

// Check builds the graph of c and checks every source/target pair. Every
// violation is collected; the check never stops at the first one. A wire
// conflict alone fails the check. A build failure is returned as the error
// with no report.
func (k *Checker) Check(c *circuit.Circuit, models circuit.Resolver) (*Report, error) {
	g, err := graph.Build(c, models, k.Sink)
	if err != nil {
		return nil, err
	}
	return k.CheckGraph(c, g), nil
}

// CheckGraph checks a graph already built from c. The circuit is consulted
// for amplifier blocks sitting on dots.
func (k *Checker) CheckGraph(c *circuit.Circuit, g *graph.Graph) *Report {
	maxSignal := k.maxSignal()
	rep := &Report{
		Dots:      len(g.Dots),
		Edges:     len(g.Edges),
		Conflicts: g.Conflicts,
		Graph:     g,
	}
	if k.Verbose {
		k.dump(c, g)
	}

	amplifierAt := map[geom.Pos]bool{}
	for pos, b := range c.BlockIndex() {
		if b.IsAmplifier() {
			amplifierAt[pos] = true
		}
	}

	for _, src := range g.Outputs {
		dist := g.ShortestDistances(src)
		for _, dst := range g.Reachable(src) {
			if dst == src {
				continue
			}
			rep.Pairs++
			d := dist[dst]
			if k.Verbose {
				diag.Infof(k.Sink, "checking reachability from %v to %v, distance: %d", g.Dots[src], g.Dots[dst].Pos, d)
			}
			if d <= maxSignal {
				continue
			}
			rep.LongPairs++
			if k.Verbose {
				diag.Infof(k.Sink, "found long path, checking if it has an amplifier")
			}

			paths, truncated := g.PathsWithin(src, dst, k.MaxPaths, k.MaxPathSteps)
			powered := false
			for _, p := range paths {
				if keepsPower(g, p, amplifierAt, maxSignal) {
					powered = true
					break
				}
			}
			if powered {
				continue
			}
			if truncated {
				diag.Warnf(k.Sink, "path enumeration from %v to %v stopped after %d paths", g.Dots[src].Pos, g.Dots[dst].Pos, len(paths))
			}
			v := Violation{
				Source:    g.Dots[src].Pos,
				Target:    g.Dots[dst].Pos,
				Distance:  d,
				Paths:     len(paths),
				Truncated: truncated,
			}
			diag.Errorf(k.Sink, "%s", v)
			rep.Violations = append(rep.Violations, v)
		}
	}
	rep.OK = len(rep.Violations) == 0 && len(rep.Conflicts) == 0
	return rep
}

// keepsPower walks the power budget along p.
//
// A Backward edge restores the budget outright, as does a Forward edge whose
// destination dot hosts an amplifier. Otherwise the edge costs its length,
// with the budget restored at every amplifier embedded along a Forward edge.
// The path fails as soon as the budget reaches zero.
func keepsPower(g *graph.Graph, p graph.Path, amplifierAt map[geom.Pos]bool, maxSignal int) bool {
	budget := maxSignal
	for _, ei := range p {
		e := g.Edges[ei]
		switch e.Direction {
		case graph.Backward:
			budget = maxSignal
		case graph.Forward:
			if amplifierAt[g.Dots[e.End].Pos] {
				budget = maxSignal
				continue
			}
			from := g.Dots[e.Start].Pos
			for _, amp := range e.Amplifiers {
				budget -= geom.Manhattan(from, amp)
				if budget <= 0 {
					return false
				}
				budget = maxSignal
				from = amp
			}
			budget -= geom.Manhattan(from, g.Dots[e.End].Pos)
		default:
			budget -= e.Length
		}
		if budget <= 0 {
			return false
		}
	}
	return budget > 0
}

func (k *Checker) dump(c *circuit.Circuit, g *graph.Graph) {
	diag.Infof(k.Sink, "dots:")
	for i, d := range g.Dots {
		diag.Infof(k.Sink, "  %d %v", i, d)
	}
	diag.Infof(k.Sink, "edges:")
	for _, e := range g.Edges {
		diag.Infof(k.Sink, "  (%d,%d,%d,%s) %s", e.Start, e.End, e.Length, e.Direction, e.Wire)
	}
	diag.Infof(k.Sink, "blocks:")
	for _, b := range c.Blocks {
		props := circuit.Properties{}
		if b.Properties != nil {
			props = *b.Properties
		}
		diag.Infof(k.Sink, "  %s:%v,%v", b.ID, b.Position, props)
	}
}

// Check reports whether c passes with default settings, writing every
// violation to sink.
func Check(c *circuit.Circuit, models circuit.Resolver, sink diag.Sink) bool {
	k := Checker{Sink: sink}
	rep, err := k.Check(c, models)
	if err != nil {
		diag.Errorf(sink, "failed to construct graph from circuit: %v", err)
		return false
	}
	return rep.OK
}
