package sim

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"voxelcircuit.ai/internal/blocks"
	"voxelcircuit.ai/internal/circuit"
)

// TruthTable maps input level combinations to output levels. Columns follow
// the model's port declaration order.
type TruthTable struct {
	Inputs  []string `json:"inputs"`
	Outputs []string `json:"outputs"`
	Rows    [][]int  `json:"rows"`
}

func NewTruthTable(inputs, outputs []string) *TruthTable {
	return &TruthTable{Inputs: inputs, Outputs: outputs}
}

// Set records outputs for the given inputs, replacing an earlier row with the
// same inputs.
func (t *TruthTable) Set(in, out []int) {
	row := make([]int, 0, len(in)+len(out))
	row = append(row, in...)
	row = append(row, out...)
	for i, r := range t.Rows {
		if slices.Equal(r[:len(t.Inputs)], in) {
			t.Rows[i] = row
			return
		}
	}
	t.Rows = append(t.Rows, row)
}

func (t *TruthTable) Get(in []int) ([]int, bool) {
	for _, r := range t.Rows {
		if slices.Equal(r[:len(t.Inputs)], in) {
			return r[len(t.Inputs):], true
		}
	}
	return nil, false
}

// String renders the table as tab-separated text with a header line.
func (t *TruthTable) String() string {
	var b strings.Builder
	b.WriteString(strings.Join(append(append([]string(nil), t.Inputs...), t.Outputs...), "\t"))
	b.WriteByte('\n')
	for _, r := range t.Rows {
		for i, v := range r {
			if i > 0 {
				b.WriteByte('\t')
			}
			b.WriteString(strconv.Itoa(v))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// BuildTruthTable simulates every all-off/all-on combination of m's inputs.
// Row i drives input j at MaxLevel when bit j of i is set.
func BuildTruthTable(s *Simulator, m circuit.Model, content blocks.Lookup, maxInputs int) (*TruthTable, error) {
	ins, outs := m.InputPorts(), m.OutputPorts()
	if maxInputs > 0 && len(ins) > maxInputs {
		return nil, errors.Errorf("model %s has %d inputs, truth tables are limited to %d", m.ModelName(), len(ins), maxInputs)
	}
	if len(ins) >= 31 {
		return nil, errors.Errorf("model %s has too many inputs (%d)", m.ModelName(), len(ins))
	}
	t := NewTruthTable(portNames(ins), portNames(outs))
	for i := 0; i < 1<<len(ins); i++ {
		assign := make(map[string]int, len(ins))
		in := make([]int, len(ins))
		for j, p := range ins {
			if i>>j&1 == 1 {
				in[j] = MaxLevel
			}
			assign[p.Name] = in[j]
		}
		res, err := s.Run(m, assign, content)
		if err != nil {
			return nil, errors.Wrap(err, fmt.Sprintf("row %d", i))
		}
		out := make([]int, len(outs))
		for j, p := range outs {
			out[j] = res.Outputs[p.Name]
		}
		t.Set(in, out)
	}
	return t, nil
}

func portNames(ports []circuit.Port) []string {
	out := make([]string, 0, len(ports))
	for _, p := range ports {
		out = append(out, p.Name)
	}
	return out
}
