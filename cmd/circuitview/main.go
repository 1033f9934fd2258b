package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gdamore/tcell/v2"

	"voxelcircuit.ai/internal/circuit"
	"voxelcircuit.ai/internal/diag"
	"voxelcircuit.ai/internal/library"
	"voxelcircuit.ai/internal/sim"
	"voxelcircuit.ai/internal/view"
)

func main() {
	var (
		modelPath = flag.String("model", "", "component model to view")
		inputs    = flag.String("inputs", "", "input assignment JSON (default: every input off)")
		layer     = flag.Int("layer", 0, "initial Y layer")
	)
	flag.Parse()

	logger := log.New(os.Stderr, "[circuitview] ", log.LstdFlags|log.Lmicroseconds)
	if *modelPath == "" {
		logger.Fatalf("-model is required")
	}

	path, err := filepath.Abs(*modelPath)
	if err != nil {
		logger.Fatalf("model path: %v", err)
	}
	loader := library.NewLoader("")
	m, err := loader.Import(circuit.ImportItem{ModelType: circuit.KindComponent.String(), Path: path})
	if err != nil {
		logger.Fatalf("load model: %v", err)
	}
	region, err := loader.Content(m)
	if err != nil {
		logger.Fatalf("load content: %v", err)
	}

	assign := map[string]int{}
	if *inputs != "" {
		raw, err := os.ReadFile(*inputs)
		if err != nil {
			logger.Fatalf("read inputs: %v", err)
		}
		if assign, err = sim.ParseAssignment(raw); err != nil {
			logger.Fatalf("inputs: %v", err)
		}
	}

	var warnings diag.Collector
	res, err := (&sim.Simulator{Sink: &warnings}).Run(m, assign, region)
	if err != nil {
		logger.Fatalf("simulate: %v", err)
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		logger.Fatalf("screen: %v", err)
	}
	if err := screen.Init(); err != nil {
		logger.Fatalf("screen init: %v", err)
	}

	v := &view.Viewer{
		Screen: screen,
		Region: region,
		Levels: res.Levels,
		Footer: footer(res.Outputs) + "  [+/- layer, q quit]",
	}
	v.Step(*layer)
	v.Run()
	screen.Fini()

	for _, line := range warnings.Lines() {
		logger.Print(line)
	}
}

func footer(outputs map[string]int) string {
	names := make([]string, 0, len(outputs))
	for name := range outputs {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s=%d", name, outputs[name]))
	}
	return strings.Join(parts, " ")
}
