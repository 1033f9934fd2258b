package sim

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// ParseAssignment decodes a JSON object mapping input port names to levels.
func ParseAssignment(raw []byte) (map[string]int, error) {
	var out map[string]int
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, errors.Wrap(err, "input assignment")
	}
	for name, lvl := range out {
		if lvl < 0 || lvl > MaxLevel {
			return nil, errors.Wrapf(ErrLevelRange, "input %s: %d", name, lvl)
		}
	}
	if out == nil {
		out = map[string]int{}
	}
	return out, nil
}
