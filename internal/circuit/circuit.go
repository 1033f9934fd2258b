// Package circuit holds the circuit description and component model documents
// together with the catalog that resolves model names for the builder,
// checker and simulator.
package circuit

import (
	"fmt"

	"voxelcircuit.ai/internal/blocks"
	"voxelcircuit.ai/internal/geom"
)

type Port struct {
	Name     string   `json:"name"`
	Position geom.Pos `json:"position"`
}

// Component is a placed instance of a named model.
type Component struct {
	Name     string   `json:"name"`
	Model    string   `json:"model"`
	Position geom.Pos `json:"position"`
}

type Wire struct {
	Name         string   `json:"name"`
	Start        geom.Pos `json:"start"`
	End          geom.Pos `json:"end"`
	BaseMaterial string   `json:"baseMaterial"`
}

func (w Wire) Length() int { return geom.Manhattan(w.Start, w.End) }

type Properties struct {
	Facing  string `json:"facing"`
	Delay   int    `json:"delay,omitempty"`
	Locked  bool   `json:"locked,omitempty"`
	Powered bool   `json:"powered,omitempty"`
	Power   int    `json:"power,omitempty"`
}

func (p Properties) String() string {
	return fmt.Sprintf("{facing:%s, delay:%d, locked:%t, powered:%t, power:%d}", p.Facing, p.Delay, p.Locked, p.Powered, p.Power)
}

// BlockInfo is an auxiliary block placed directly in the circuit, such as a
// repeater sitting on a wire.
type BlockInfo struct {
	Position   geom.Pos    `json:"position"`
	ID         string      `json:"id"`
	Properties *Properties `json:"properties,omitempty"`
}

func (b BlockInfo) Facing() string {
	if b.Properties == nil {
		return ""
	}
	return b.Properties.Facing
}

func (b BlockInfo) IsAmplifier() bool { return blocks.IsAmplifier(b.ID) }

func (b BlockInfo) Block() blocks.Block { return blocks.Block{ID: b.ID, Facing: b.Facing()} }

type ImportItem struct {
	ModelName string `json:"modelName"`
	ModelType string `json:"modelType"`
	Path      string `json:"path"`
}

// Circuit is a project document: placed components, wires between port
// positions, auxiliary blocks and the circuit's own external ports.
type Circuit struct {
	Name       string       `json:"name"`
	Size       geom.Pos     `json:"size"`
	Imports    []ImportItem `json:"imports"`
	Components []Component  `json:"components"`
	Wires      []Wire       `json:"wires"`
	Blocks     []BlockInfo  `json:"blocks"`
	Inputs     []Port       `json:"inputs"`
	Outputs    []Port       `json:"outputs"`
}

// ComponentModel is an importable leaf model backed by voxel content.
type ComponentModel struct {
	Name      string `json:"name"`
	ModelType string `json:"modelType"`
	NBT       string `json:"nbt"`
	Size      [3]int `json:"size"`
	Inputs    []Port `json:"inputs"`
	Outputs   []Port `json:"outputs"`
}

func FindPort(ports []Port, name string) (Port, bool) {
	for _, p := range ports {
		if p.Name == name {
			return p, true
		}
	}
	return Port{}, false
}

// BlockIndex maps positions to auxiliary blocks. The first block listed at a
// position wins.
func (c *Circuit) BlockIndex() map[geom.Pos]BlockInfo {
	out := make(map[geom.Pos]BlockInfo, len(c.Blocks))
	for _, b := range c.Blocks {
		if _, dup := out[b.Position]; !dup {
			out[b.Position] = b
		}
	}
	return out
}
