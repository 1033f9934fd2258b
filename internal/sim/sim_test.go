package sim

import (
	"reflect"
	"sort"
	"strings"
	"testing"

	"github.com/pkg/errors"

	"voxelcircuit.ai/internal/blocks"
	"voxelcircuit.ai/internal/circuit"
	"voxelcircuit.ai/internal/diag"
	"voxelcircuit.ai/internal/geom"
)

const wire = "minecraft:redstone_wire"

func model(ins, outs map[string]geom.Pos) *circuit.ComponentModel {
	m := &circuit.ComponentModel{Name: "dut", ModelType: "component"}
	for _, name := range sortedKeys(ins) {
		m.Inputs = append(m.Inputs, circuit.Port{Name: name, Position: ins[name]})
	}
	for _, name := range sortedKeys(outs) {
		m.Outputs = append(m.Outputs, circuit.Port{Name: name, Position: outs[name]})
	}
	return m
}

func sortedKeys(m map[string]geom.Pos) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// wireRow lays redstone along +X from x=0 to x=n-1.
func wireRow(n int) blocks.MapLookup {
	content := blocks.MapLookup{}
	for x := 0; x < n; x++ {
		content[geom.Pos{X: x}] = blocks.Block{ID: wire}
	}
	return content
}

func TestRun_AdjacentPortsDecayByOne(t *testing.T) {
	m := model(map[string]geom.Pos{"a": {}}, map[string]geom.Pos{"y": {X: 1}})
	out, err := SimulateComponent(m, map[string]int{"a": 15}, wireRow(2))
	if err != nil {
		t.Fatalf("SimulateComponent: %v", err)
	}
	if out["y"] != 14 {
		t.Fatalf("y=%d want 14", out["y"])
	}
}

func TestRun_DecayAlongWire(t *testing.T) {
	m := model(map[string]geom.Pos{"a": {}}, map[string]geom.Pos{"near": {X: 5}, "far": {X: 19}})
	var sink diag.Collector
	res, err := (&Simulator{Sink: &sink}).Run(m, map[string]int{"a": 15}, wireRow(20))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Outputs["near"] != 10 {
		t.Fatalf("near=%d want 10", res.Outputs["near"])
	}
	if res.Outputs["far"] != 0 {
		t.Fatalf("far=%d want 0", res.Outputs["far"])
	}
	if _, ok := res.Levels[geom.Pos{X: 19}]; !ok {
		t.Fatalf("a zero level must still be recorded")
	}
	if sink.Len() != 0 {
		t.Fatalf("reached outputs should not warn: %v", sink.Lines())
	}
}

func TestRun_UnreachedOutputWarns(t *testing.T) {
	m := model(map[string]geom.Pos{"a": {}}, map[string]geom.Pos{"y": {X: 9}})
	var sink diag.Collector
	res, err := (&Simulator{Sink: &sink}).Run(m, map[string]int{"a": 15}, wireRow(3))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Outputs["y"] != 0 {
		t.Fatalf("y=%d", res.Outputs["y"])
	}
	lines := sink.Lines()
	if len(lines) != 1 || lines[0] != "warning: output y is not connected to any input" {
		t.Fatalf("diagnostics=%v", lines)
	}
}

func TestRun_RegeneratorsEmitFullStrength(t *testing.T) {
	for _, id := range []string{"minecraft:redstone_torch", "minecraft:redstone_block", "minecraft:repeater"} {
		content := wireRow(8)
		regen := blocks.Block{ID: id}
		if blocks.IsAmplifier(id) {
			regen.Facing = "west"
		}
		content[geom.Pos{X: 4}] = regen
		m := model(map[string]geom.Pos{"a": {}}, map[string]geom.Pos{"r": {X: 4}, "y": {X: 5}})
		out, err := SimulateComponent(m, map[string]int{"a": 3}, content)
		if err != nil {
			t.Fatalf("%s: %v", id, err)
		}
		if out["r"] != MaxLevel || out["y"] != MaxLevel-1 {
			t.Fatalf("%s: r=%d y=%d", id, out["r"], out["y"])
		}
	}
}

func TestRun_GlassBlocks(t *testing.T) {
	content := wireRow(4)
	content[geom.Pos{X: 1}] = blocks.Block{ID: "minecraft:glass"}
	m := model(map[string]geom.Pos{"a": {}}, map[string]geom.Pos{"y": {X: 3}})
	res, err := (&Simulator{}).Run(m, map[string]int{"a": 15}, content)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if _, ok := res.Levels[geom.Pos{X: 1}]; ok {
		t.Fatalf("glass took a level")
	}
	if res.Outputs["y"] != 0 {
		t.Fatalf("y=%d", res.Outputs["y"])
	}
}

func TestRun_RepeaterOnlyAcceptsFromItsBack(t *testing.T) {
	m := model(map[string]geom.Pos{"a": {}}, map[string]geom.Pos{"y": {X: 2}})

	forward := wireRow(3)
	forward[geom.Pos{X: 1}] = blocks.Block{ID: "minecraft:repeater", Facing: "west"}
	out, err := SimulateComponent(m, map[string]int{"a": 15}, forward)
	if err != nil {
		t.Fatalf("forward: %v", err)
	}
	if out["y"] != 14 {
		t.Fatalf("forward y=%d", out["y"])
	}

	backward := wireRow(3)
	backward[geom.Pos{X: 1}] = blocks.Block{ID: "minecraft:repeater", Facing: "east"}
	out, err = SimulateComponent(m, map[string]int{"a": 15}, backward)
	if err != nil {
		t.Fatalf("backward: %v", err)
	}
	if out["y"] != 0 {
		t.Fatalf("signal entered a repeater through its front: y=%d", out["y"])
	}
}

func TestRun_BadRepeaterFacing(t *testing.T) {
	content := wireRow(3)
	content[geom.Pos{X: 1}] = blocks.Block{ID: "minecraft:repeater", Facing: "sideways"}
	m := model(map[string]geom.Pos{"a": {}}, map[string]geom.Pos{"y": {X: 2}})
	_, err := SimulateComponent(m, map[string]int{"a": 15}, content)
	if !errors.Is(err, geom.ErrInvalidFacing) {
		t.Fatalf("err=%v", err)
	}
}

func TestRun_TakesMaximumFromEitherSide(t *testing.T) {
	m := model(map[string]geom.Pos{"a": {}, "b": {X: 4}}, map[string]geom.Pos{"y": {X: 2}})
	out, err := SimulateComponent(m, map[string]int{"a": 5, "b": 15}, wireRow(5))
	if err != nil {
		t.Fatalf("SimulateComponent: %v", err)
	}
	if out["y"] != 13 {
		t.Fatalf("y=%d want 13", out["y"])
	}
}

func TestRun_LevelsNeverDecrease(t *testing.T) {
	// A ring with a tail, so positions are reached from several sides.
	content := blocks.MapLookup{}
	for x := 0; x < 4; x++ {
		for z := 0; z < 4; z++ {
			if x == 0 || z == 0 || x == 3 || z == 3 {
				content[geom.Pos{X: x, Z: z}] = blocks.Block{ID: wire}
			}
		}
	}
	content[geom.Pos{X: 4}] = blocks.Block{ID: wire}
	m := model(map[string]geom.Pos{"a": {}, "b": {X: 3, Z: 3}}, map[string]geom.Pos{"y": {X: 4}})

	seen := map[geom.Pos]int{}
	steps := 0
	s := &Simulator{Trace: func(r Relaxation) {
		steps++
		if r.New < r.Old {
			t.Fatalf("level at %v dropped from %d to %d", r.To, r.Old, r.New)
		}
		if prev, ok := seen[r.To]; ok && r.New < prev {
			t.Fatalf("level at %v regressed from %d to %d", r.To, prev, r.New)
		}
		seen[r.To] = r.New
		if r.To.Sub(r.From) != r.Incoming.Offset() {
			t.Fatalf("relaxation %v -> %v tagged %v", r.From, r.To, r.Incoming)
		}
	}}
	if _, err := s.Run(m, map[string]int{"a": 15, "b": 9}, content); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if steps == 0 || steps > len(content)*int(geom.NumDirections) {
		t.Fatalf("relaxations=%d for %d blocks", steps, len(content))
	}
}

func TestRun_Idempotent(t *testing.T) {
	content := wireRow(10)
	content[geom.Pos{X: 3, Y: 1}] = blocks.Block{ID: wire}
	content[geom.Pos{X: 6}] = blocks.Block{ID: "minecraft:repeater", Facing: "west"}
	m := model(map[string]geom.Pos{"a": {}, "b": {X: 9}}, map[string]geom.Pos{"y": {X: 3, Y: 1}, "z": {X: 8}})
	in := map[string]int{"a": 12, "b": 4}

	first, err := (&Simulator{}).Run(m, in, content)
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	second, err := (&Simulator{}).Run(m, in, content)
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if !reflect.DeepEqual(first.Outputs, second.Outputs) || !reflect.DeepEqual(first.Levels, second.Levels) {
		t.Fatalf("runs differ:\n%v\n%v", first.Levels, second.Levels)
	}
}

func TestRun_InputErrors(t *testing.T) {
	m := model(map[string]geom.Pos{"a": {}}, map[string]geom.Pos{"y": {X: 1}})
	if _, err := SimulateComponent(m, map[string]int{"q": 15}, wireRow(2)); !errors.Is(err, ErrUnknownPort) {
		t.Fatalf("unknown port err=%v", err)
	}
	for _, lvl := range []int{-1, 16} {
		if _, err := SimulateComponent(m, map[string]int{"a": lvl}, wireRow(2)); !errors.Is(err, ErrLevelRange) {
			t.Fatalf("level %d err=%v", lvl, err)
		}
	}
}

func TestParseAssignment(t *testing.T) {
	got, err := ParseAssignment([]byte(`{"a": 15, "b": 0}`))
	if err != nil {
		t.Fatalf("ParseAssignment: %v", err)
	}
	if !reflect.DeepEqual(got, map[string]int{"a": 15, "b": 0}) {
		t.Fatalf("got %v", got)
	}
	if _, err := ParseAssignment([]byte(`{"a": 20}`)); !errors.Is(err, ErrLevelRange) {
		t.Fatalf("err=%v", err)
	}
	if _, err := ParseAssignment([]byte(`[1,2]`)); err == nil {
		t.Fatalf("expected decode error")
	}
	if got, err := ParseAssignment([]byte(`null`)); err != nil || got == nil {
		t.Fatalf("null assignment: %v %v", got, err)
	}
}

func TestBuildTruthTable(t *testing.T) {
	content := blocks.MapLookup{
		{Z: 0}: {ID: wire},
		{Z: 1}: {ID: wire},
		{Z: 2}: {ID: wire},
	}
	m := model(map[string]geom.Pos{"a": {Z: 0}, "b": {Z: 2}}, map[string]geom.Pos{"y": {Z: 1}})
	tt, err := BuildTruthTable(&Simulator{}, m, content, 4)
	if err != nil {
		t.Fatalf("BuildTruthTable: %v", err)
	}
	if len(tt.Rows) != 4 {
		t.Fatalf("rows=%v", tt.Rows)
	}
	want := [][]int{{0, 0, 0}, {15, 0, 14}, {0, 15, 14}, {15, 15, 14}}
	if !reflect.DeepEqual(tt.Rows, want) {
		t.Fatalf("rows=%v want %v", tt.Rows, want)
	}
	if out, ok := tt.Get([]int{0, 15}); !ok || out[0] != 14 {
		t.Fatalf("Get=%v,%v", out, ok)
	}
	if !strings.HasPrefix(tt.String(), "a\tb\ty\n0\t0\t0\n") {
		t.Fatalf("String=%q", tt.String())
	}

	if _, err := BuildTruthTable(&Simulator{}, m, content, 1); err == nil {
		t.Fatalf("expected input limit error")
	}
}

func TestTruthTable_SetReplacesRow(t *testing.T) {
	tt := NewTruthTable([]string{"a"}, []string{"y"})
	tt.Set([]int{15}, []int{3})
	tt.Set([]int{0}, []int{0})
	tt.Set([]int{15}, []int{14})
	if len(tt.Rows) != 2 {
		t.Fatalf("rows=%v", tt.Rows)
	}
	if out, ok := tt.Get([]int{15}); !ok || out[0] != 14 {
		t.Fatalf("Get=%v,%v", out, ok)
	}
	if _, ok := tt.Get([]int{7}); ok {
		t.Fatalf("unexpected row")
	}
}
