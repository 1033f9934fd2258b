package blocks

import (
	"encoding/json"
	"fmt"

	"voxelcircuit.ai/internal/geom"
)

// Entry is one block of the JSON block-list content form.
type Entry struct {
	Pos    [3]int `json:"pos"`
	ID     string `json:"id"`
	Facing string `json:"facing,omitempty"`
}

// DecodeList builds a region from a JSON block list. The region is sized to
// the bounding box of the listed positions, which must be non-negative.
func DecodeList(raw []byte) (*Region, error) {
	var entries []Entry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("block list: %w", err)
	}
	return RegionFromEntries(entries)
}

func RegionFromEntries(entries []Entry) (*Region, error) {
	var size geom.Pos
	for i, e := range entries {
		p := geom.FromArray(e.Pos)
		if p.X < 0 || p.Y < 0 || p.Z < 0 {
			return nil, fmt.Errorf("block list entry %d: negative position %v", i, p)
		}
		if e.ID == "" {
			return nil, fmt.Errorf("block list entry %d: empty id", i)
		}
		size.X = max(size.X, p.X+1)
		size.Y = max(size.Y, p.Y+1)
		size.Z = max(size.Z, p.Z+1)
	}
	r := NewRegion(size)
	for _, e := range entries {
		if err := r.Set(geom.FromArray(e.Pos), Block{ID: e.ID, Facing: e.Facing}); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Entries lists every non-air block in storage order.
func (r *Region) Entries() []Entry {
	out := make([]Entry, 0, r.Count())
	r.Each(func(p geom.Pos, b Block) {
		out = append(out, Entry{Pos: p.ToArray(), ID: b.ID, Facing: b.Facing})
	})
	return out
}
