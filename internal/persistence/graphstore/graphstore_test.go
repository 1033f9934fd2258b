package graphstore

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"voxelcircuit.ai/internal/geom"
	"voxelcircuit.ai/internal/graph"
)

type fakeRunner struct {
	queries []string
	params  []map[string]interface{}
	failAt  int
}

func (f *fakeRunner) Run(_ context.Context, query string, params map[string]interface{}) (*neo4j.EagerResult, error) {
	f.queries = append(f.queries, query)
	f.params = append(f.params, params)
	if f.failAt > 0 && len(f.queries) == f.failAt {
		return nil, errors.New("boom")
	}
	return &neo4j.EagerResult{}, nil
}

func sampleGraph() *graph.Graph {
	g := graph.New()
	a := g.AddDot(geom.Pos{}, graph.Output)
	b := g.AddDot(geom.Pos{X: 4}, graph.Input)
	c := g.AddDot(geom.Pos{X: 4, Z: 3}, graph.Input)
	g.AddEdge(graph.Edge{Start: a, End: b, Length: 4, Wire: "w1"})
	g.AddEdge(graph.Edge{Start: b, End: c, Length: 3, Direction: graph.Forward, Amplifiers: []geom.Pos{{X: 4, Z: 1}}})
	return g
}

func TestExport_QueryPerDotAndEdge(t *testing.T) {
	r := &fakeRunner{}
	if err := (Exporter{Runner: r}).Export(context.Background(), "adder", sampleGraph()); err != nil {
		t.Fatalf("Export: %v", err)
	}
	// clear + 3 dots + 2 wires
	if len(r.queries) != 6 {
		t.Fatalf("queries=%d want 6: %q", len(r.queries), r.queries)
	}
	if !strings.Contains(r.queries[0], "DELETE") {
		t.Fatalf("first query should clear the circuit: %s", r.queries[0])
	}
	for _, q := range r.queries[1:4] {
		if !strings.Contains(q, "MERGE") || !strings.Contains(q, DotLabel) {
			t.Fatalf("dot query: %s", q)
		}
	}
	for _, q := range r.queries[4:] {
		if !strings.Contains(q, "CREATE") || !strings.Contains(q, WireType) {
			t.Fatalf("wire query: %s", q)
		}
	}
}

func TestExport_StopsOnRunnerError(t *testing.T) {
	r := &fakeRunner{failAt: 3}
	err := (Exporter{Runner: r}).Export(context.Background(), "adder", sampleGraph())
	if err == nil || !strings.Contains(err.Error(), "dot 1") {
		t.Fatalf("err=%v", err)
	}
	if len(r.queries) != 3 {
		t.Fatalf("kept going after failure: %d queries", len(r.queries))
	}
}

func TestExport_EmptyName(t *testing.T) {
	r := &fakeRunner{}
	if err := (Exporter{Runner: r}).Export(context.Background(), "", sampleGraph()); err == nil {
		t.Fatalf("expected error")
	}
	if len(r.queries) != 0 {
		t.Fatalf("ran %d queries", len(r.queries))
	}
}
