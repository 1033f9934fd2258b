// Package layout compiles a circuit into one placed block region: component
// content copied in at each component's position, wires laid as a base strip
// with redstone on top, then the circuit's own auxiliary blocks.
package layout

import (
	"errors"
	"fmt"

	"voxelcircuit.ai/internal/blocks"
	"voxelcircuit.ai/internal/circuit"
	"voxelcircuit.ai/internal/diag"
	"voxelcircuit.ai/internal/geom"
)

const WireBlock = "minecraft:redstone_wire"

// ContentSource yields the voxel content behind a component model.
type ContentSource interface {
	Content(m circuit.Model) (*blocks.Region, error)
}

type Compiler struct {
	Sink diag.Sink
}

// Compile places everything c describes into a region of size c.Size.
func (k *Compiler) Compile(c *circuit.Circuit, models circuit.Resolver, content ContentSource) (*blocks.Region, error) {
	region := blocks.NewRegion(c.Size)

	for _, comp := range c.Components {
		diag.Infof(k.Sink, "component: %s, model: %s, position: %v", comp.Name, comp.Model, comp.Position)
		m, ok := models.Lookup(comp.Model)
		if !ok {
			return nil, fmt.Errorf("model %s not found in imports", comp.Model)
		}
		if m.Kind() != circuit.KindComponent {
			return nil, fmt.Errorf("component %s: placing %s models is not supported", comp.Name, m.Kind())
		}
		src, err := content.Content(m)
		if err != nil {
			return nil, fmt.Errorf("component %s: %w", comp.Name, err)
		}
		if err := region.Place(src, comp.Position); err != nil {
			if errors.Is(err, blocks.ErrOutOfRange) {
				return nil, fmt.Errorf("component %s: block position out of range, the component size is %v: %w", comp.Name, src.Size(), err)
			}
			return nil, fmt.Errorf("component %s: %w", comp.Name, err)
		}
	}

	for _, w := range c.Wires {
		if blocks.IsAir(w.BaseMaterial) {
			return nil, fmt.Errorf("wire %s: invalid base material %q", w.Name, w.BaseMaterial)
		}
		lo, hi := box(w.Start, w.End)
		if err := fill(region, lo, hi, blocks.Block{ID: w.BaseMaterial}); err != nil {
			return nil, fmt.Errorf("wire %s: %w", w.Name, err)
		}
		up := geom.Pos{Y: 1}
		if err := fill(region, lo.Add(up), hi.Add(up), blocks.Block{ID: WireBlock}); err != nil {
			return nil, fmt.Errorf("wire %s: %w", w.Name, err)
		}
	}

	for _, b := range c.Blocks {
		if b.ID == "" {
			return nil, fmt.Errorf("block at %v: empty id", b.Position)
		}
		if err := region.Set(b.Position, b.Block()); err != nil {
			return nil, fmt.Errorf("block %s: %w", b.ID, err)
		}
	}
	return region, nil
}

// Compile runs a Compiler that reports nowhere.
func Compile(c *circuit.Circuit, models circuit.Resolver, content ContentSource) (*blocks.Region, error) {
	return (&Compiler{}).Compile(c, models, content)
}

func box(a, b geom.Pos) (lo, hi geom.Pos) {
	lo = geom.Pos{X: min(a.X, b.X), Y: min(a.Y, b.Y), Z: min(a.Z, b.Z)}
	hi = geom.Pos{X: max(a.X, b.X), Y: max(a.Y, b.Y), Z: max(a.Z, b.Z)}
	return lo, hi
}

func fill(r *blocks.Region, lo, hi geom.Pos, b blocks.Block) error {
	for x := lo.X; x <= hi.X; x++ {
		for y := lo.Y; y <= hi.Y; y++ {
			for z := lo.Z; z <= hi.Z; z++ {
				if err := r.Set(geom.Pos{X: x, Y: y, Z: z}, b); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
