// Package indexdb keeps a queryable SQLite index of check and simulation runs.
// Writes are queued to a single writer goroutine and dropped when it falls
// behind; the diagnostics archive stays the full record.
package indexdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"voxelcircuit.ai/internal/check"
	"voxelcircuit.ai/internal/graph"
)

const schemaVersion = "1"

type SQLiteIndex struct {
	db *sql.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	// mu orders sends on ch against close(ch).
	mu      sync.RWMutex
	closed  bool
	dropped atomic.Uint64
}

type reqKind int

const (
	reqCheck reqKind = iota + 1
	reqSimulation
)

type req struct {
	kind reqKind

	check      CheckRun
	simulation SimulationRun
}

// CheckRun is one checker invocation over a circuit document.
type CheckRun struct {
	RunID      string
	Circuit    string
	Digest     string
	OK         bool
	Dots       int
	Edges      int
	Pairs      int
	LongPairs  int
	Violations []check.Violation
	Conflicts  []graph.Conflict
	At         time.Time
}

func CheckRunFromReport(runID, circuitName, digest string, rep *check.Report) CheckRun {
	return CheckRun{
		RunID:      runID,
		Circuit:    circuitName,
		Digest:     digest,
		OK:         rep.OK,
		Dots:       rep.Dots,
		Edges:      rep.Edges,
		Pairs:      rep.Pairs,
		LongPairs:  rep.LongPairs,
		Violations: rep.Violations,
		Conflicts:  rep.Conflicts,
		At:         time.Now().UTC(),
	}
}

// SimulationRun is one component simulation.
type SimulationRun struct {
	RunID   string
	Model   string
	Inputs  map[string]int
	Outputs map[string]int
	At      time.Time
}

type RunSummary struct {
	RunID      string `json:"run_id"`
	Kind       string `json:"kind"`
	Subject    string `json:"subject"`
	OK         bool   `json:"ok"`
	Violations int    `json:"violations"`
	RecordedAt string `json:"recorded_at"`
}

type Stats struct {
	QueueDepth    int
	QueueCapacity int
	DroppedTotal  uint64
}

func NewRunID() string { return uuid.NewString() }

func OpenSQLite(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{
		db: db,
		ch: make(chan req, 4096),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS runs (
			run_id TEXT PRIMARY KEY,
			kind TEXT NOT NULL,
			subject TEXT NOT NULL,
			digest TEXT NOT NULL,
			ok INTEGER NOT NULL,
			dots INTEGER NOT NULL,
			edges INTEGER NOT NULL,
			pairs INTEGER NOT NULL,
			long_pairs INTEGER NOT NULL,
			recorded_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_runs_subject ON runs(subject, recorded_at);`,
		`CREATE TABLE IF NOT EXISTS violations (
			run_id TEXT NOT NULL REFERENCES runs(run_id),
			seq INTEGER NOT NULL,
			sx INTEGER NOT NULL, sy INTEGER NOT NULL, sz INTEGER NOT NULL,
			tx INTEGER NOT NULL, ty INTEGER NOT NULL, tz INTEGER NOT NULL,
			distance INTEGER NOT NULL,
			paths INTEGER NOT NULL,
			truncated INTEGER NOT NULL,
			PRIMARY KEY (run_id, seq)
		);`,
		`CREATE TABLE IF NOT EXISTS conflicts (
			run_id TEXT NOT NULL REFERENCES runs(run_id),
			seq INTEGER NOT NULL,
			wire TEXT NOT NULL,
			raw_json TEXT NOT NULL,
			PRIMARY KEY (run_id, seq)
		);`,
		`CREATE TABLE IF NOT EXISTS simulations (
			run_id TEXT PRIMARY KEY REFERENCES runs(run_id),
			model TEXT NOT NULL,
			inputs_json TEXT NOT NULL,
			outputs_json TEXT NOT NULL
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	_, err := db.Exec(`INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version',?)`, schemaVersion)
	return err
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.mu.Lock()
		s.closed = true
		close(s.ch)
		s.mu.Unlock()
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

func (s *SQLiteIndex) enqueue(r req) {
	if s == nil {
		return
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return
	}
	select {
	case s.ch <- r:
	default:
		s.dropped.Add(1)
	}
}

func (s *SQLiteIndex) RecordCheck(run CheckRun) {
	if run.RunID == "" {
		return
	}
	s.enqueue(req{kind: reqCheck, check: run})
}

func (s *SQLiteIndex) RecordSimulation(run SimulationRun) {
	if run.RunID == "" {
		return
	}
	s.enqueue(req{kind: reqSimulation, simulation: run})
}

func (s *SQLiteIndex) Stats() Stats {
	if s == nil {
		return Stats{}
	}
	return Stats{
		QueueDepth:    len(s.ch),
		QueueCapacity: cap(s.ch),
		DroppedTotal:  s.dropped.Load(),
	}
}

// RecentRuns lists the newest runs first.
func (s *SQLiteIndex) RecentRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.run_id, r.kind, r.subject, r.ok, r.recorded_at,
			(SELECT COUNT(*) FROM violations v WHERE v.run_id = r.run_id)
		FROM runs r ORDER BY r.recorded_at DESC, r.run_id LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []RunSummary
	for rows.Next() {
		var (
			r  RunSummary
			ok int
		)
		if err := rows.Scan(&r.RunID, &r.Kind, &r.Subject, &ok, &r.RecordedAt, &r.Violations); err != nil {
			return nil, err
		}
		r.OK = ok != 0
		out = append(out, r)
	}
	return out, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func stamp(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()
	for r := range s.ch {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			time.Sleep(50 * time.Millisecond)
			continue
		}
		switch r.kind {
		case reqCheck:
			err = writeCheck(tx, r.check)
		case reqSimulation:
			err = writeSimulation(tx, r.simulation)
		}
		if err != nil {
			_ = tx.Rollback()
			continue
		}
		_ = tx.Commit()
	}
}

func writeCheck(tx *sql.Tx, c CheckRun) error {
	if _, err := tx.Exec(`INSERT OR REPLACE INTO runs(run_id,kind,subject,digest,ok,dots,edges,pairs,long_pairs,recorded_at) VALUES(?,?,?,?,?,?,?,?,?,?)`,
		c.RunID, "check", c.Circuit, c.Digest, boolInt(c.OK), c.Dots, c.Edges, c.Pairs, c.LongPairs, stamp(c.At),
	); err != nil {
		return err
	}
	for i, v := range c.Violations {
		if _, err := tx.Exec(`INSERT OR REPLACE INTO violations(run_id,seq,sx,sy,sz,tx,ty,tz,distance,paths,truncated) VALUES(?,?,?,?,?,?,?,?,?,?,?)`,
			c.RunID, i,
			v.Source.X, v.Source.Y, v.Source.Z,
			v.Target.X, v.Target.Y, v.Target.Z,
			v.Distance, v.Paths, boolInt(v.Truncated),
		); err != nil {
			return err
		}
	}
	for i, cf := range c.Conflicts {
		raw, _ := json.Marshal(cf)
		if _, err := tx.Exec(`INSERT OR REPLACE INTO conflicts(run_id,seq,wire,raw_json) VALUES(?,?,?,?)`,
			c.RunID, i, cf.Wire, string(raw),
		); err != nil {
			return err
		}
	}
	return nil
}

func writeSimulation(tx *sql.Tx, sim SimulationRun) error {
	if _, err := tx.Exec(`INSERT OR REPLACE INTO runs(run_id,kind,subject,digest,ok,dots,edges,pairs,long_pairs,recorded_at) VALUES(?,?,?,?,?,?,?,?,?,?)`,
		sim.RunID, "simulate", sim.Model, "", 1, 0, 0, 0, 0, stamp(sim.At),
	); err != nil {
		return err
	}
	in, _ := json.Marshal(sim.Inputs)
	out, _ := json.Marshal(sim.Outputs)
	_, err := tx.Exec(`INSERT OR REPLACE INTO simulations(run_id,model,inputs_json,outputs_json) VALUES(?,?,?,?)`,
		sim.RunID, sim.Model, string(in), string(out))
	return err
}
