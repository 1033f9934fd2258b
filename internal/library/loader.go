// Package library resolves a circuit's imports into a model catalog and loads
// the voxel content behind component models.
package library

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"voxelcircuit.ai/internal/blocks"
	"voxelcircuit.ai/internal/circuit"
	"voxelcircuit.ai/internal/persistence/schematic"
)

// ErrOutsideLibrary rejects a path that escapes a confined loader's Dir.
var ErrOutsideLibrary = errors.New("path outside library")

// Loader reads models and content relative to Dir. It is safe for concurrent
// use; loaded content is cached per resolved path.
//
// A confined loader only opens relative paths that stay inside Dir after
// cleaning, model content refs included. The check is lexical; symlinks
// inside Dir are followed.
type Loader struct {
	Dir      string
	Confined bool

	mu      sync.Mutex
	content map[string]*blocks.Region
}

func NewLoader(dir string) *Loader {
	return &Loader{Dir: dir, content: map[string]*blocks.Region{}}
}

// NewConfinedLoader is the loader for paths supplied by remote clients.
func NewConfinedLoader(dir string) *Loader {
	l := NewLoader(dir)
	l.Confined = true
	return l
}

func (l *Loader) resolve(p string) (string, error) {
	if l.Confined {
		if filepath.IsAbs(p) || filepath.VolumeName(p) != "" {
			return "", fmt.Errorf("%w: %s", ErrOutsideLibrary, p)
		}
		rel := filepath.Clean(p)
		if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return "", fmt.Errorf("%w: %s", ErrOutsideLibrary, p)
		}
		return filepath.Join(l.Dir, rel), nil
	}
	if filepath.IsAbs(p) || l.Dir == "" {
		return p, nil
	}
	return filepath.Join(l.Dir, p), nil
}

// Catalog loads every import of c. Import names are the names components
// refer to, so the loaded model is renamed to the import's modelName.
func (l *Loader) Catalog(c *circuit.Circuit) (*circuit.Catalog, error) {
	cat, _ := circuit.NewCatalog()
	for _, imp := range c.Imports {
		m, err := l.Import(imp)
		if err != nil {
			return nil, err
		}
		if err := cat.Add(m); err != nil {
			return nil, fmt.Errorf("import %s: %w", imp.ModelName, err)
		}
	}
	return cat, nil
}

func (l *Loader) Import(imp circuit.ImportItem) (circuit.Model, error) {
	kind, err := circuit.ParseKind(imp.ModelType)
	if err != nil {
		return nil, fmt.Errorf("import %s: %w", imp.ModelName, err)
	}
	path, err := l.resolve(imp.Path)
	if err != nil {
		return nil, fmt.Errorf("import %s: %w", imp.ModelName, err)
	}
	switch kind {
	case circuit.KindComponent:
		m, err := circuit.LoadComponentModel(path)
		if err != nil {
			return nil, fmt.Errorf("import %s: %w", imp.ModelName, err)
		}
		if imp.ModelName != "" {
			m.Name = imp.ModelName
		}
		// Content paths inside a model file are relative to that file. The
		// joined ref stays relative to Dir so LoadContent resolves it once.
		if m.NBT != "" && !filepath.IsAbs(m.NBT) {
			m.NBT = filepath.Join(filepath.Dir(imp.Path), m.NBT)
		}
		if m.NBT != "" {
			if _, err := l.resolve(m.NBT); err != nil {
				return nil, fmt.Errorf("import %s: content: %w", imp.ModelName, err)
			}
		}
		return m, nil
	default:
		sub, err := circuit.LoadCircuit(path)
		if err != nil {
			return nil, fmt.Errorf("import %s: %w", imp.ModelName, err)
		}
		if imp.ModelName != "" {
			sub.Name = imp.ModelName
		}
		return sub, nil
	}
}

// Content returns the voxel content backing m. Circuit models carry none.
func (l *Loader) Content(m circuit.Model) (*blocks.Region, error) {
	ref := m.ContentRef()
	if m.Kind() != circuit.KindComponent || ref == "" {
		return nil, fmt.Errorf("model %s has no voxel content", m.ModelName())
	}
	return l.LoadContent(ref)
}

// LoadContent reads a .vxs schematic or a .json block list.
func (l *Loader) LoadContent(ref string) (*blocks.Region, error) {
	path, err := l.resolve(ref)
	if err != nil {
		return nil, fmt.Errorf("content %s: %w", ref, err)
	}

	l.mu.Lock()
	if l.content == nil {
		l.content = map[string]*blocks.Region{}
	}
	if r, ok := l.content[path]; ok {
		l.mu.Unlock()
		return r, nil
	}
	l.mu.Unlock()

	var r *blocks.Region
	switch strings.ToLower(filepath.Ext(path)) {
	case schematic.Ext:
		r, err = schematic.Read(path)
	case ".json":
		var raw []byte
		raw, err = os.ReadFile(path)
		if err == nil {
			r, err = blocks.DecodeList(raw)
		}
	default:
		err = fmt.Errorf("unsupported content format %q", filepath.Ext(path))
	}
	if err != nil {
		return nil, fmt.Errorf("content %s: %w", ref, err)
	}

	l.mu.Lock()
	if cached, ok := l.content[path]; ok {
		r = cached
	} else {
		l.content[path] = r
	}
	l.mu.Unlock()
	return r, nil
}
