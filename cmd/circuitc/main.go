package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"voxelcircuit.ai/internal/check"
	"voxelcircuit.ai/internal/circuit"
	"voxelcircuit.ai/internal/diag"
	"voxelcircuit.ai/internal/graph"
	"voxelcircuit.ai/internal/layout"
	"voxelcircuit.ai/internal/library"
	"voxelcircuit.ai/internal/persistence/archive"
	"voxelcircuit.ai/internal/persistence/graphstore"
	"voxelcircuit.ai/internal/persistence/indexdb"
	persistlog "voxelcircuit.ai/internal/persistence/log"
	"voxelcircuit.ai/internal/persistence/schematic"
	"voxelcircuit.ai/internal/sim"
	"voxelcircuit.ai/internal/sim/tuning"
)

var errCheckFailed = errors.New("circuit check failed. Stop compiling.")

type options struct {
	Input         string
	Output        string
	Library       string
	Check         bool
	GraphJSON     string
	Simulate      string
	TruthTable    bool
	ComponentJSON string
	IndexDB       string
	ArchiveDir    string

	Tuning tuning.Tuning
}

func main() {
	var (
		input      = flag.String("input", "", "circuit document (or component model with -simulate/-truth_table)")
		output     = flag.String("output", "", "compiled schematic path (.vxs); truth table path with -truth_table")
		libDir     = flag.String("library", "", "library directory imports are resolved against (default: tuning library_dir)")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (optional)")
		doCheck    = flag.Bool("check", false, "check signal reachability before compiling")
		verbose    = flag.Bool("verbose", false, "dump the connectivity graph while checking")
		graphJSON  = flag.String("graph_json", "", "write the connectivity graph as JSON to this path")
		simulate   = flag.String("simulate", "", "input assignment JSON; -input is then a component model")
		truthTable = flag.Bool("truth_table", false, "print the truth table of the component model given by -input")
		compJSON   = flag.String("generate_component_json", "", "write a component model describing the compiled circuit")
		indexDB    = flag.String("index_db", "", "sqlite run index path (default: tuning index_db)")
		archiveDir = flag.String("archive_dir", "", "diagnostics and build archive directory (default: tuning archive_dir)")
		neo4jURI   = flag.String("neo4j_uri", "", "export the connectivity graph to this neo4j instance")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[circuitc] ", log.LstdFlags|log.Lmicroseconds)

	tune, err := tuning.Load(*tuningPath)
	if err != nil {
		logger.Fatalf("load tuning: %v", err)
	}
	set := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
	if set["verbose"] {
		tune.Verbose = *verbose
	}
	if set["neo4j_uri"] {
		tune.Neo4j.URI = *neo4jURI
	}
	if err := tune.Validate(); err != nil {
		logger.Fatalf("tuning: %v", err)
	}

	o := options{
		Input:         *input,
		Output:        *output,
		Library:       pick(*libDir, tune.LibraryDir),
		Check:         *doCheck,
		GraphJSON:     *graphJSON,
		Simulate:      *simulate,
		TruthTable:    *truthTable,
		ComponentJSON: *compJSON,
		IndexDB:       pick(*indexDB, tune.IndexDB),
		ArchiveDir:    pick(*archiveDir, tune.ArchiveDir),
		Tuning:        tune,
	}
	if err := run(o, logger, os.Stdout); err != nil {
		if errors.Is(err, errCheckFailed) {
			logger.Print(err)
		} else {
			logger.Printf("error: %v", err)
		}
		os.Exit(1)
	}
}

func pick(flagValue, fallback string) string {
	if strings.TrimSpace(flagValue) != "" {
		return flagValue
	}
	return fallback
}

func run(o options, logger *log.Logger, stdout io.Writer) error {
	if o.Input == "" {
		return fmt.Errorf("-input is required")
	}
	runID := indexdb.NewRunID()

	var sink diag.Sink = diag.LogSink{Logger: logger}
	if o.ArchiveDir != "" {
		diagArchive := persistlog.NewDiagLogger(o.ArchiveDir, runID)
		defer func() {
			if err := diagArchive.Close(); err != nil {
				logger.Printf("close diagnostics archive: %v", err)
			}
			if err := diagArchive.Err(); err != nil {
				logger.Printf("diagnostics archive: %v", err)
			}
		}()
		sink = diag.Tee(sink, diagArchive)
	}

	var idx *indexdb.SQLiteIndex
	if o.IndexDB != "" {
		var err error
		idx, err = indexdb.OpenSQLite(o.IndexDB)
		if err != nil {
			return fmt.Errorf("open index: %w", err)
		}
		defer idx.Close()
	}

	loader := library.NewLoader(o.Library)
	if o.Simulate != "" || o.TruthTable {
		return runComponent(o, runID, loader, sink, idx, stdout)
	}
	return runCircuit(o, runID, loader, sink, idx, logger)
}

func runComponent(o options, runID string, loader *library.Loader, sink diag.Sink, idx *indexdb.SQLiteIndex, stdout io.Writer) error {
	path, err := filepath.Abs(o.Input)
	if err != nil {
		return err
	}
	m, err := loader.Import(circuit.ImportItem{ModelType: circuit.KindComponent.String(), Path: path})
	if err != nil {
		return err
	}
	content, err := loader.Content(m)
	if err != nil {
		return err
	}
	s := &sim.Simulator{Sink: sink}

	if o.TruthTable {
		tt, err := sim.BuildTruthTable(s, m, content, o.Tuning.MaxTruthTableInputs)
		if err != nil {
			return err
		}
		if o.Output != "" {
			return os.WriteFile(o.Output, []byte(tt.String()), 0o644)
		}
		_, err = io.WriteString(stdout, tt.String())
		return err
	}

	raw, err := os.ReadFile(o.Simulate)
	if err != nil {
		return err
	}
	inputs, err := sim.ParseAssignment(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", filepath.Base(o.Simulate), err)
	}
	res, err := s.Run(m, inputs, content)
	if err != nil {
		return err
	}
	names := make([]string, 0, len(res.Outputs))
	for name := range res.Outputs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(stdout, "%s: %d\n", name, res.Outputs[name])
	}
	if idx != nil {
		idx.RecordSimulation(indexdb.SimulationRun{
			RunID:   runID,
			Model:   m.ModelName(),
			Inputs:  inputs,
			Outputs: res.Outputs,
			At:      time.Now().UTC(),
		})
	}
	return nil
}

func runCircuit(o options, runID string, loader *library.Loader, sink diag.Sink, idx *indexdb.SQLiteIndex, logger *log.Logger) error {
	raw, err := os.ReadFile(o.Input)
	if err != nil {
		return err
	}
	c, err := circuit.DecodeCircuit(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", filepath.Base(o.Input), err)
	}
	models, err := loader.Catalog(c)
	if err != nil {
		return err
	}

	var g *graph.Graph
	if o.Check {
		k := check.Checker{
			MaxSignal:    o.Tuning.MaxSignal,
			MaxPaths:     o.Tuning.MaxPaths,
			MaxPathSteps: o.Tuning.MaxPathSteps,
			Verbose:      o.Tuning.Verbose,
			Sink:         sink,
		}
		rep, err := k.Check(c, models)
		if err != nil {
			diag.Errorf(sink, "failed to construct graph from circuit: %v", err)
			return errCheckFailed
		}
		if idx != nil {
			idx.RecordCheck(indexdb.CheckRunFromReport(runID, c.Name, circuit.Digest(raw), rep))
		}
		logger.Printf("checked %s: %s dots, %s edges, %s pairs (%d long)", c.Name,
			humanize.Comma(int64(rep.Dots)), humanize.Comma(int64(rep.Edges)), humanize.Comma(int64(rep.Pairs)), rep.LongPairs)
		if !rep.OK {
			return errCheckFailed
		}
		g = rep.Graph
	}

	if o.GraphJSON != "" || o.Tuning.Neo4j.Enabled() {
		if g == nil {
			if g, err = graph.Build(c, models, sink); err != nil {
				return err
			}
		}
		if o.GraphJSON != "" {
			b, err := json.MarshalIndent(g, "", "  ")
			if err != nil {
				return err
			}
			if err := os.WriteFile(o.GraphJSON, b, 0o644); err != nil {
				return err
			}
		}
		if o.Tuning.Neo4j.Enabled() {
			if err := exportGraph(o.Tuning.Neo4j, c.Name, g); err != nil {
				return err
			}
			logger.Printf("exported graph of %s to %s", c.Name, o.Tuning.Neo4j.URI)
		}
	}

	if o.Output != "" {
		region, err := (&layout.Compiler{Sink: sink}).Compile(c, models, loader)
		if err != nil {
			return err
		}
		if err := schematic.Write(o.Output, region); err != nil {
			return err
		}
		size := int64(0)
		if fi, err := os.Stat(o.Output); err == nil {
			size = fi.Size()
		}
		logger.Printf("wrote %s: %s blocks, %s", o.Output, humanize.Comma(int64(region.Count())), humanize.Bytes(uint64(size)))

		if o.ArchiveDir != "" {
			archived, err := archive.ArchiveBuild(o.ArchiveDir, o.Output, archive.BuildMeta{
				Circuit: c.Name,
				Digest:  circuit.Digest(raw),
				RunID:   runID,
				Blocks:  region.Count(),
			})
			if err != nil {
				return fmt.Errorf("archive build: %w", err)
			}
			logger.Printf("archived %s", archived)
		}
	}

	if o.ComponentJSON != "" {
		ref := ""
		if o.Output != "" {
			ref = filepath.Base(o.Output)
		}
		b, err := json.MarshalIndent(circuit.ComponentDescriptor(c, ref), "", "  ")
		if err != nil {
			return err
		}
		if err := os.WriteFile(o.ComponentJSON, b, 0o644); err != nil {
			return err
		}
	}
	return nil
}

func exportGraph(cfg tuning.Neo4j, name string, g *graph.Graph) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	exec, err := graphstore.NewNeo4jExecutor(cfg.URI, cfg.Username, cfg.Password, cfg.Database)
	if err != nil {
		return err
	}
	defer exec.Close(ctx)
	if err := exec.Verify(ctx); err != nil {
		return fmt.Errorf("neo4j: %w", err)
	}
	return graphstore.Exporter{Runner: exec}.Export(ctx, name, g)
}
