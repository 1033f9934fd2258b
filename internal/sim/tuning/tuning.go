// Package tuning loads the YAML knobs shared by the compiler, the service and
// the viewer.
package tuning

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type Tuning struct {
	// MaxSignal is the checker's power budget. Simulation levels are fixed
	// at 0..15 regardless.
	MaxSignal           int  `yaml:"max_signal"`
	MaxPaths            int  `yaml:"max_paths"`
	MaxPathSteps        int  `yaml:"max_path_steps"`
	MaxTruthTableInputs int  `yaml:"max_truth_table_inputs"`
	Verbose             bool `yaml:"verbose"`

	LibraryDir string `yaml:"library_dir"`
	IndexDB    string `yaml:"index_db"`
	ArchiveDir string `yaml:"archive_dir"`
	ListenAddr string `yaml:"listen_addr"`

	Neo4j Neo4j `yaml:"neo4j"`
}

type Neo4j struct {
	URI      string `yaml:"uri"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

func (n Neo4j) Enabled() bool { return strings.TrimSpace(n.URI) != "" }

func Defaults() Tuning {
	return Tuning{
		MaxSignal:           15,
		MaxPaths:            4096,
		MaxPathSteps:        1 << 20,
		MaxTruthTableInputs: 12,
		LibraryDir:          ".",
		ListenAddr:          ":8090",
		Neo4j:               Neo4j{Database: "neo4j"},
	}
}

// Load reads path over Defaults. An empty path yields the defaults.
func Load(path string) (Tuning, error) {
	t := Defaults()
	if strings.TrimSpace(path) == "" {
		return t, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	t.Normalize()
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

// Normalize fills zero values left by a sparse file.
func (t *Tuning) Normalize() {
	if t == nil {
		return
	}
	d := Defaults()
	if t.MaxSignal == 0 {
		t.MaxSignal = d.MaxSignal
	}
	if t.MaxPaths == 0 {
		t.MaxPaths = d.MaxPaths
	}
	if t.MaxPathSteps == 0 {
		t.MaxPathSteps = d.MaxPathSteps
	}
	if t.MaxTruthTableInputs == 0 {
		t.MaxTruthTableInputs = d.MaxTruthTableInputs
	}
	if strings.TrimSpace(t.LibraryDir) == "" {
		t.LibraryDir = d.LibraryDir
	}
	if strings.TrimSpace(t.ListenAddr) == "" {
		t.ListenAddr = d.ListenAddr
	}
	if t.Neo4j.Enabled() && strings.TrimSpace(t.Neo4j.Database) == "" {
		t.Neo4j.Database = d.Neo4j.Database
	}
}

func (t Tuning) Validate() error {
	if t.MaxSignal < 1 || t.MaxSignal > 15 {
		return fmt.Errorf("max_signal must be in [1, 15]")
	}
	if t.MaxPaths < 1 {
		return fmt.Errorf("max_paths must be > 0")
	}
	if t.MaxPathSteps < 1 {
		return fmt.Errorf("max_path_steps must be > 0")
	}
	if t.MaxTruthTableInputs < 1 || t.MaxTruthTableInputs > 20 {
		return fmt.Errorf("max_truth_table_inputs must be in [1, 20]")
	}
	if t.Neo4j.Enabled() && strings.TrimSpace(t.Neo4j.Username) == "" {
		return fmt.Errorf("neo4j.username is required when neo4j.uri is set")
	}
	return nil
}
