package schematic

import (
	"bytes"
	"path/filepath"
	"testing"

	"voxelcircuit.ai/internal/blocks"
	"voxelcircuit.ai/internal/geom"
)

func sampleRegion(t *testing.T) *blocks.Region {
	t.Helper()
	r := blocks.NewRegion(geom.Pos{X: 4, Y: 2, Z: 3})
	for _, c := range []struct {
		p geom.Pos
		b blocks.Block
	}{
		{geom.Pos{X: 0}, blocks.Block{ID: "minecraft:stone"}},
		{geom.Pos{X: 1}, blocks.Block{ID: "minecraft:redstone_wire"}},
		{geom.Pos{X: 2}, blocks.Block{ID: "minecraft:repeater", Facing: "west"}},
		{geom.Pos{X: 3, Y: 1, Z: 2}, blocks.Block{ID: "minecraft:glass"}},
	} {
		if err := r.Set(c.p, c.b); err != nil {
			t.Fatalf("Set %v: %v", c.p, err)
		}
	}
	return r
}

func TestWriteRead_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "gate"+Ext)
	in := sampleRegion(t)
	if err := Write(path, in); err != nil {
		t.Fatalf("Write: %v", err)
	}
	out, err := Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if out.Size() != in.Size() || out.Count() != in.Count() {
		t.Fatalf("size/count mismatch: %v/%d vs %v/%d", out.Size(), out.Count(), in.Size(), in.Count())
	}
	in.Each(func(p geom.Pos, b blocks.Block) {
		got, ok := out.BlockAt(p)
		if !ok || got != b {
			t.Fatalf("at %v: got %v,%v want %v", p, got, ok, b)
		}
	})
}

func TestReadFrom_RejectsGarbage(t *testing.T) {
	if _, err := ReadFrom(bytes.NewReader([]byte("not zstd"))); err == nil {
		t.Fatalf("expected error")
	}
}

func TestDecode_RejectsWrongVersion(t *testing.T) {
	v := Encode(sampleRegion(t))
	v.Header.Version = 99
	if _, err := Decode(v); err == nil {
		t.Fatalf("expected version error")
	}
}
