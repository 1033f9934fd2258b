package layout

import (
	"errors"
	"strings"
	"testing"

	"voxelcircuit.ai/internal/blocks"
	"voxelcircuit.ai/internal/circuit"
	"voxelcircuit.ai/internal/diag"
	"voxelcircuit.ai/internal/geom"
)

type fakeContent map[string]*blocks.Region

func (f fakeContent) Content(m circuit.Model) (*blocks.Region, error) {
	r, ok := f[m.ModelName()]
	if !ok {
		return nil, errors.New("no content")
	}
	return r, nil
}

func gate(t *testing.T) (*circuit.Catalog, fakeContent) {
	t.Helper()
	r, err := blocks.RegionFromEntries([]blocks.Entry{
		{Pos: [3]int{0, 0, 0}, ID: "minecraft:stone"},
		{Pos: [3]int{1, 0, 0}, ID: "minecraft:redstone_torch"},
		{Pos: [3]int{1, 1, 0}, ID: "minecraft:repeater", Facing: "west"},
	})
	if err != nil {
		t.Fatalf("region: %v", err)
	}
	cat, err := circuit.NewCatalog(
		&circuit.ComponentModel{Name: "gate", NBT: "gate.json"},
		&circuit.Circuit{Name: "sub"},
	)
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	return cat, fakeContent{"gate": r}
}

func TestCompile_PlacesEverything(t *testing.T) {
	cat, content := gate(t)
	c := &circuit.Circuit{
		Name:       "top",
		Size:       geom.Pos{X: 12, Y: 4, Z: 4},
		Components: []circuit.Component{{Name: "g0", Model: "gate", Position: geom.Pos{X: 8, Y: 1, Z: 2}}},
		// drawn right to left; the fill must normalize the box
		Wires:  []circuit.Wire{{Name: "w0", Start: geom.Pos{X: 6}, End: geom.Pos{X: 2}, BaseMaterial: "minecraft:stone"}},
		Blocks: []circuit.BlockInfo{{Position: geom.Pos{X: 4, Y: 1}, ID: "minecraft:repeater", Properties: &circuit.Properties{Facing: "east"}}},
	}
	var sink diag.Collector
	r, err := (&Compiler{Sink: &sink}).Compile(c, cat, content)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if r.Size() != c.Size {
		t.Fatalf("size=%v", r.Size())
	}
	check := func(p geom.Pos, id, facing string) {
		t.Helper()
		b, ok := r.BlockAt(p)
		if !ok || b.ID != id || b.Facing != facing {
			t.Fatalf("at %v: %v,%v want %s/%s", p, b, ok, id, facing)
		}
	}
	check(geom.Pos{X: 8, Y: 1, Z: 2}, "minecraft:stone", "")
	check(geom.Pos{X: 9, Y: 1, Z: 2}, "minecraft:redstone_torch", "")
	check(geom.Pos{X: 9, Y: 2, Z: 2}, "minecraft:repeater", "west")
	for x := 2; x <= 6; x++ {
		check(geom.Pos{X: x}, "minecraft:stone", "")
		if x != 4 {
			check(geom.Pos{X: x, Y: 1}, WireBlock, "")
		}
	}
	// auxiliary blocks go last and overwrite the wire
	check(geom.Pos{X: 4, Y: 1}, "minecraft:repeater", "east")
	if r.Count() != 3+5+5 {
		t.Fatalf("count=%d", r.Count())
	}
	if sink.Len() != 1 || !strings.Contains(sink.Lines()[0], "g0") {
		t.Fatalf("diagnostics=%v", sink.Lines())
	}
}

func TestCompile_Errors(t *testing.T) {
	cat, content := gate(t)
	cases := []struct {
		name string
		c    *circuit.Circuit
		want string
	}{
		{
			name: "out of range",
			c: &circuit.Circuit{
				Size:       geom.Pos{X: 2, Y: 2, Z: 1},
				Components: []circuit.Component{{Name: "g0", Model: "gate", Position: geom.Pos{X: 1}}},
			},
			want: "out of range",
		},
		{
			name: "unknown model",
			c:    &circuit.Circuit{Size: geom.Pos{X: 4, Y: 4, Z: 4}, Components: []circuit.Component{{Name: "x", Model: "nope"}}},
			want: "not found",
		},
		{
			name: "nested circuit",
			c:    &circuit.Circuit{Size: geom.Pos{X: 4, Y: 4, Z: 4}, Components: []circuit.Component{{Name: "s", Model: "sub"}}},
			want: "not supported",
		},
		{
			name: "air wire",
			c:    &circuit.Circuit{Size: geom.Pos{X: 4, Y: 4, Z: 4}, Wires: []circuit.Wire{{Name: "w", End: geom.Pos{X: 2}, BaseMaterial: "air"}}},
			want: "base material",
		},
		{
			name: "wire outside",
			c:    &circuit.Circuit{Size: geom.Pos{X: 4, Y: 1, Z: 1}, Wires: []circuit.Wire{{Name: "w", End: geom.Pos{X: 2}, BaseMaterial: "minecraft:stone"}}},
			want: "wire w",
		},
	}
	for _, tc := range cases {
		_, err := Compile(tc.c, cat, content)
		if err == nil || !strings.Contains(err.Error(), tc.want) {
			t.Fatalf("%s: err=%v want %q", tc.name, err, tc.want)
		}
	}
}
