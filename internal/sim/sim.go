// Package sim computes the steady-state signal levels a component's voxel
// content produces for one input assignment.
//
// Propagation is a single pass over the lattice: levels only ever rise, and
// each position accepts a given incoming direction at most once, so the work
// list always drains.
package sim

import (
	"sort"

	"github.com/pkg/errors"

	"voxelcircuit.ai/internal/blocks"
	"voxelcircuit.ai/internal/circuit"
	"voxelcircuit.ai/internal/diag"
	"voxelcircuit.ai/internal/geom"
)

// MaxLevel is the strongest signal a block carries. It is fixed by the block
// format and is not affected by the checker's max_signal budget.
const MaxLevel = 15

var (
	ErrUnknownPort = errors.New("unknown port")
	ErrLevelRange  = errors.New("signal level out of range")
)

// Relaxation is one accepted propagation step into To.
type Relaxation struct {
	From     geom.Pos
	To       geom.Pos
	Incoming geom.Direction
	Old, New int
}

type Simulator struct {
	Sink diag.Sink
	// Trace, if set, observes every relaxation in the order they happen.
	Trace func(Relaxation)
}

type Result struct {
	Outputs map[string]int
	Levels  map[geom.Pos]int
}

// visitRecord flags, per incoming direction, whether a position has already
// taken a level from that side.
type visitRecord [geom.NumDirections]bool

// Run propagates inputs through content. Every declared output port gets a
// level; one the signal never reached reads 0 and is reported to the sink.
func (s *Simulator) Run(m circuit.Model, inputs map[string]int, content blocks.Lookup) (*Result, error) {
	names := make([]string, 0, len(inputs))
	for name := range inputs {
		names = append(names, name)
	}
	sort.Strings(names)

	levels := make(map[geom.Pos]int, len(inputs))
	work := make([]geom.Pos, 0, len(inputs))
	for _, name := range names {
		lvl := inputs[name]
		if lvl < 0 || lvl > MaxLevel {
			return nil, errors.Wrapf(ErrLevelRange, "input %s: %d", name, lvl)
		}
		port, ok := circuit.FindPort(m.InputPorts(), name)
		if !ok {
			return nil, errors.Wrapf(ErrUnknownPort, "model %s has no input %q", m.ModelName(), name)
		}
		if cur, seen := levels[port.Position]; !seen || lvl > cur {
			levels[port.Position] = lvl
		}
		work = append(work, port.Position)
	}

	visited := map[geom.Pos]*visitRecord{}
	for len(work) > 0 {
		p := work[len(work)-1]
		work = work[:len(work)-1]

		for d := geom.Direction(0); d < geom.NumDirections; d++ {
			n := p.Add(d.Offset())
			b, ok := content.BlockAt(n)
			if !ok {
				continue
			}
			conducts, err := blocks.Conducts(b, d)
			if err != nil {
				return nil, errors.Wrapf(err, "block at %v", n)
			}
			if !conducts {
				continue
			}
			rec := visited[n]
			if rec == nil {
				rec = &visitRecord{}
				visited[n] = rec
			}
			if rec[d] {
				continue
			}

			candidate := MaxLevel
			if !blocks.IsRegenerator(b.ID) {
				candidate = max(0, levels[p]-1)
			}
			old := levels[n]
			next := max(old, candidate)
			levels[n] = next
			if s.Trace != nil {
				s.Trace(Relaxation{From: p, To: n, Incoming: d, Old: old, New: next})
			}
			rec[d] = true
			// Zero levels keep propagating so unpowered outputs are still observed.
			work = append(work, n)
		}
	}

	res := &Result{Outputs: make(map[string]int, len(m.OutputPorts())), Levels: levels}
	for _, port := range m.OutputPorts() {
		lvl, ok := levels[port.Position]
		if !ok {
			diag.Warnf(s.Sink, "output %s is not connected to any input", port.Name)
		}
		res.Outputs[port.Name] = lvl
	}
	return res, nil
}

// SimulateComponent runs a default Simulator and returns the output levels.
func SimulateComponent(m circuit.Model, inputs map[string]int, content blocks.Lookup) (map[string]int, error) {
	res, err := (&Simulator{}).Run(m, inputs, content)
	if err != nil {
		return nil, err
	}
	return res.Outputs, nil
}
