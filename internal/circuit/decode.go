package circuit

import (
	"crypto/sha256"
	"embed"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.json
var schemaFS embed.FS

const (
	circuitSchemaName   = "circuit.schema.json"
	componentSchemaName = "component.schema.json"
)

var (
	schemaOnce sync.Once
	schemas    map[string]*jsonschema.Schema
	schemaErr  error
)

func loadSchemas() (map[string]*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		out := map[string]*jsonschema.Schema{}
		for _, name := range []string{circuitSchemaName, componentSchemaName} {
			raw, err := schemaFS.ReadFile("schemas/" + name)
			if err != nil {
				schemaErr = err
				return
			}
			s, err := jsonschema.CompileString(name, string(raw))
			if err != nil {
				schemaErr = fmt.Errorf("compile %s: %w", name, err)
				return
			}
			out[name] = s
		}
		schemas = out
	})
	return schemas, schemaErr
}

func validate(schemaName string, raw []byte) error {
	all, err := loadSchemas()
	if err != nil {
		return err
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return err
	}
	return all[schemaName].Validate(doc)
}

// DecodeCircuit validates raw against the circuit schema and decodes it.
func DecodeCircuit(raw []byte) (*Circuit, error) {
	if err := validate(circuitSchemaName, raw); err != nil {
		return nil, fmt.Errorf("circuit: %w", err)
	}
	var c Circuit
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("circuit: %w", err)
	}
	return &c, nil
}

func DecodeComponentModel(raw []byte) (*ComponentModel, error) {
	if err := validate(componentSchemaName, raw); err != nil {
		return nil, fmt.Errorf("component: %w", err)
	}
	var m ComponentModel
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("component: %w", err)
	}
	if m.ModelType == "" {
		m.ModelType = KindComponent.String()
	}
	return &m, nil
}

func LoadCircuit(path string) (*Circuit, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c, err := DecodeCircuit(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return c, nil
}

func LoadComponentModel(path string) (*ComponentModel, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	m, err := DecodeComponentModel(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return m, nil
}

// Digest is the hex sha256 of a raw document.
func Digest(raw []byte) string {
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
