package circuit

import "fmt"

type Kind int

const (
	KindComponent Kind = iota + 1
	KindCircuit
)

func (k Kind) String() string {
	switch k {
	case KindComponent:
		return "component"
	case KindCircuit:
		return "circuit"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

func ParseKind(s string) (Kind, error) {
	switch s {
	case "component":
		return KindComponent, nil
	case "circuit":
		return KindCircuit, nil
	default:
		return 0, fmt.Errorf("unsupported model type: %q", s)
	}
}

// Model is what a component instance refers to: either a leaf component with
// voxel content or a nested circuit. Both expose a name and a port table.
type Model interface {
	ModelName() string
	Kind() Kind
	InputPorts() []Port
	OutputPorts() []Port
	// ContentRef names the voxel content backing the model; empty for circuits.
	ContentRef() string
}

func (m *ComponentModel) ModelName() string   { return m.Name }
func (m *ComponentModel) Kind() Kind          { return KindComponent }
func (m *ComponentModel) InputPorts() []Port  { return m.Inputs }
func (m *ComponentModel) OutputPorts() []Port { return m.Outputs }
func (m *ComponentModel) ContentRef() string  { return m.NBT }

func (c *Circuit) ModelName() string   { return c.Name }
func (c *Circuit) Kind() Kind          { return KindCircuit }
func (c *Circuit) InputPorts() []Port  { return c.Inputs }
func (c *Circuit) OutputPorts() []Port { return c.Outputs }
func (c *Circuit) ContentRef() string  { return "" }

// Resolver looks models up by name.
type Resolver interface {
	Lookup(name string) (Model, bool)
}

// Catalog is an insertion-ordered set of models keyed by name.
type Catalog struct {
	order  []string
	byName map[string]Model
}

func NewCatalog(models ...Model) (*Catalog, error) {
	c := &Catalog{byName: make(map[string]Model, len(models))}
	for _, m := range models {
		if err := c.Add(m); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Catalog) Add(m Model) error {
	if c.byName == nil {
		c.byName = map[string]Model{}
	}
	name := m.ModelName()
	if name == "" {
		return fmt.Errorf("model with empty name")
	}
	if _, dup := c.byName[name]; dup {
		return fmt.Errorf("duplicate model %q", name)
	}
	c.byName[name] = m
	c.order = append(c.order, name)
	return nil
}

func (c *Catalog) Lookup(name string) (Model, bool) {
	if c == nil {
		return nil, false
	}
	m, ok := c.byName[name]
	return m, ok
}

func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.order)
}

func (c *Catalog) Models() []Model {
	if c == nil {
		return nil
	}
	out := make([]Model, 0, len(c.order))
	for _, n := range c.order {
		out = append(out, c.byName[n])
	}
	return out
}
