package circuit

import "fmt"

// ComponentDescriptor describes a compiled circuit as an importable component
// whose content lives at contentRef. Ports are renamed input<i>/output<i> in
// declaration order.
func ComponentDescriptor(c *Circuit, contentRef string) ComponentModel {
	m := ComponentModel{
		Name:      c.Name,
		ModelType: KindComponent.String(),
		NBT:       contentRef,
		Size:      c.Size.ToArray(),
		Inputs:    make([]Port, 0, len(c.Inputs)),
		Outputs:   make([]Port, 0, len(c.Outputs)),
	}
	for i, p := range c.Inputs {
		m.Inputs = append(m.Inputs, Port{Name: fmt.Sprintf("input%d", i), Position: p.Position})
	}
	for i, p := range c.Outputs {
		m.Outputs = append(m.Outputs, Port{Name: fmt.Sprintf("output%d", i), Position: p.Position})
	}
	return m
}
