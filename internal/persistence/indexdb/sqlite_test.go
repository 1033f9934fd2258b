package indexdb

import (
	"context"
	"database/sql"
	"path/filepath"
	"sync"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"voxelcircuit.ai/internal/check"
	"voxelcircuit.ai/internal/geom"
	"voxelcircuit.ai/internal/graph"
)

func TestSQLiteIndex_RecordCheck(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "index.db")

	idx, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	rep := &check.Report{
		OK:        false,
		Dots:      3,
		Edges:     1,
		Pairs:     2,
		LongPairs: 1,
		Violations: []check.Violation{
			{Source: geom.Pos{}, Target: geom.Pos{X: 20}, Distance: 20, Paths: 1},
		},
		Conflicts: []graph.Conflict{{Wire: "w9", Start: geom.Pos{X: 1}, End: geom.Pos{X: 30}}},
	}
	run := CheckRunFromReport("run-a", "adder", "deadbeef", rep)
	idx.RecordCheck(run)
	idx.RecordCheck(CheckRun{}) // no run id: ignored
	if err := idx.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	defer db.Close()

	var (
		kind, subject, digest string
		ok, dots, pairs       int
	)
	row := db.QueryRow(`SELECT kind,subject,digest,ok,dots,pairs FROM runs WHERE run_id='run-a'`)
	if err := row.Scan(&kind, &subject, &digest, &ok, &dots, &pairs); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if kind != "check" || subject != "adder" || digest != "deadbeef" || ok != 0 || dots != 3 || pairs != 2 {
		t.Fatalf("row mismatch: %s %s %s %d %d %d", kind, subject, digest, ok, dots, pairs)
	}

	var tx, distance int
	if err := db.QueryRow(`SELECT tx,distance FROM violations WHERE run_id='run-a' AND seq=0`).Scan(&tx, &distance); err != nil {
		t.Fatalf("Scan violation: %v", err)
	}
	if tx != 20 || distance != 20 {
		t.Fatalf("violation mismatch: tx=%d distance=%d", tx, distance)
	}

	var wire string
	if err := db.QueryRow(`SELECT wire FROM conflicts WHERE run_id='run-a'`).Scan(&wire); err != nil {
		t.Fatalf("Scan conflict: %v", err)
	}
	if wire != "w9" {
		t.Fatalf("wire=%q", wire)
	}

	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM runs`).Scan(&n); err != nil || n != 1 {
		t.Fatalf("runs=%d err=%v", n, err)
	}
}

func TestSQLiteIndex_RecordSimulationAndRecentRuns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")
	idx, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	idx.RecordSimulation(SimulationRun{RunID: "sim-1", Model: "not", Inputs: map[string]int{"a": 15}, Outputs: map[string]int{"y": 0}, At: base})
	idx.RecordCheck(CheckRun{RunID: "chk-1", Circuit: "top", OK: true, At: base.Add(time.Minute)})
	if err := idx.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	idx, err = OpenSQLite(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer idx.Close()

	runs, err := idx.RecentRuns(context.Background(), 10)
	if err != nil {
		t.Fatalf("RecentRuns: %v", err)
	}
	if len(runs) != 2 || runs[0].RunID != "chk-1" || runs[1].Kind != "simulate" || !runs[0].OK {
		t.Fatalf("runs=%+v", runs)
	}

	var outputs string
	if err := idx.db.QueryRow(`SELECT outputs_json FROM simulations WHERE run_id='sim-1'`).Scan(&outputs); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if outputs != `{"y":0}` {
		t.Fatalf("outputs=%s", outputs)
	}
}

func TestSQLiteIndex_QueueDropStats(t *testing.T) {
	s := &SQLiteIndex{ch: make(chan req, 1)}
	s.RecordCheck(CheckRun{RunID: "a"})
	s.RecordCheck(CheckRun{RunID: "b"})
	s.RecordSimulation(SimulationRun{RunID: "c"})

	st := s.Stats()
	if st.DroppedTotal != 2 {
		t.Fatalf("DroppedTotal=%d want=2", st.DroppedTotal)
	}
	if st.QueueDepth != 1 || st.QueueCapacity != 1 {
		t.Fatalf("queue stats mismatch: depth=%d cap=%d", st.QueueDepth, st.QueueCapacity)
	}
}

func TestNewRunID(t *testing.T) {
	a, b := NewRunID(), NewRunID()
	if a == "" || a == b || len(a) != 36 {
		t.Fatalf("ids %q %q", a, b)
	}
}

func TestSQLiteIndex_RecordRacesClose(t *testing.T) {
	idx, err := OpenSQLite(filepath.Join(t.TempDir(), "index.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			for j := 0; j < 200; j++ {
				idx.RecordSimulation(SimulationRun{RunID: NewRunID(), Model: "not"})
			}
		}()
	}
	close(start)
	if err := idx.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	wg.Wait()

	before := idx.Stats().DroppedTotal
	idx.RecordCheck(CheckRun{RunID: "late"})
	if idx.Stats().DroppedTotal != before {
		t.Fatalf("record after close must be a no-op")
	}
}
