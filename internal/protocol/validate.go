package protocol

import (
	"embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.json
var schemaFS embed.FS

var requestSchemas = map[string]string{
	TypeCheck:    "check.schema.json",
	TypeSimulate: "simulate.schema.json",
}

var (
	schemaOnce sync.Once
	compiled   map[string]*jsonschema.Schema
	compileErr error
)

func schemas() (map[string]*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		out := make(map[string]*jsonschema.Schema, len(requestSchemas))
		for typ, name := range requestSchemas {
			raw, err := schemaFS.ReadFile("schemas/" + name)
			if err != nil {
				compileErr = err
				return
			}
			s, err := jsonschema.CompileString(name, string(raw))
			if err != nil {
				compileErr = fmt.Errorf("compile %s: %w", name, err)
				return
			}
			out[typ] = s
		}
		compiled = out
	})
	return compiled, compileErr
}

// ValidateRequest checks a client message of type typ against its schema.
func ValidateRequest(typ string, raw []byte) error {
	all, err := schemas()
	if err != nil {
		return err
	}
	s, ok := all[typ]
	if !ok {
		return fmt.Errorf("no schema for %q", typ)
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return err
	}
	return s.Validate(doc)
}
