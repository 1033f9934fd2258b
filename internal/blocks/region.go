package blocks

import (
	"errors"
	"fmt"

	"voxelcircuit.ai/internal/geom"
)

var ErrOutOfRange = errors.New("position out of range")

// Block is the identity of a placed block plus its optional facing attribute.
type Block struct {
	ID     string `json:"id"`
	Facing string `json:"facing,omitempty"`
}

// Lookup is the block-by-position service the simulator reads content through.
type Lookup interface {
	BlockAt(p geom.Pos) (Block, bool)
}

// MapLookup is a sparse Lookup, convenient for small hand-built content.
type MapLookup map[geom.Pos]Block

func (m MapLookup) BlockAt(p geom.Pos) (Block, bool) {
	b, ok := m[p]
	if !ok || IsAir(b.ID) {
		return Block{}, false
	}
	return b, true
}

// Region is a dense box of blocks with its origin at (0,0,0). Cells hold
// palette indices; palette index 0 is always air.
type Region struct {
	size    geom.Pos
	palette []Block
	index   map[Block]uint16
	cells   []uint16
}

func NewRegion(size geom.Pos) *Region {
	if size.X < 0 || size.Y < 0 || size.Z < 0 {
		size = geom.Pos{}
	}
	return &Region{
		size:    size,
		palette: []Block{{ID: "air"}},
		index:   map[Block]uint16{{ID: "air"}: 0},
		cells:   make([]uint16, size.X*size.Y*size.Z),
	}
}

// FromCells rebuilds a region from its serialized palette form.
func FromCells(size geom.Pos, palette []Block, cells []uint16) (*Region, error) {
	if size.X < 0 || size.Y < 0 || size.Z < 0 {
		return nil, fmt.Errorf("bad region size %v", size)
	}
	if len(cells) != size.X*size.Y*size.Z {
		return nil, fmt.Errorf("cell count %d does not match size %v", len(cells), size)
	}
	if len(palette) == 0 || !IsAir(palette[0].ID) {
		return nil, fmt.Errorf("palette must start with air")
	}
	r := &Region{
		size:    size,
		palette: append([]Block(nil), palette...),
		index:   make(map[Block]uint16, len(palette)),
		cells:   append([]uint16(nil), cells...),
	}
	for i, b := range r.palette {
		if _, dup := r.index[b]; !dup {
			r.index[b] = uint16(i)
		}
	}
	for i, c := range r.cells {
		if int(c) >= len(r.palette) {
			return nil, fmt.Errorf("cell %d references palette id %d (palette has %d)", i, c, len(r.palette))
		}
	}
	return r, nil
}

func (r *Region) Size() geom.Pos { return r.size }

func (r *Region) Palette() []Block { return append([]Block(nil), r.palette...) }

func (r *Region) Cells() []uint16 { return append([]uint16(nil), r.cells...) }

func (r *Region) InBounds(p geom.Pos) bool {
	return p.X >= 0 && p.Y >= 0 && p.Z >= 0 && p.X < r.size.X && p.Y < r.size.Y && p.Z < r.size.Z
}

func (r *Region) offset(p geom.Pos) int {
	// x fastest, then z, then y
	return p.X + p.Z*r.size.X + p.Y*r.size.X*r.size.Z
}

func (r *Region) Set(p geom.Pos, b Block) error {
	if !r.InBounds(p) {
		return fmt.Errorf("%w: %v (size %v)", ErrOutOfRange, p, r.size)
	}
	if IsAir(b.ID) {
		r.cells[r.offset(p)] = 0
		return nil
	}
	id, ok := r.index[b]
	if !ok {
		if len(r.palette) >= 1<<16 {
			return fmt.Errorf("palette full")
		}
		id = uint16(len(r.palette))
		r.palette = append(r.palette, b)
		r.index[b] = id
	}
	r.cells[r.offset(p)] = id
	return nil
}

// BlockAt reports the block at p. Air and out-of-range positions are absent.
func (r *Region) BlockAt(p geom.Pos) (Block, bool) {
	if !r.InBounds(p) {
		return Block{}, false
	}
	id := r.cells[r.offset(p)]
	if id == 0 {
		return Block{}, false
	}
	return r.palette[id], true
}

// Each visits every non-air block in storage order.
func (r *Region) Each(fn func(p geom.Pos, b Block)) {
	for y := 0; y < r.size.Y; y++ {
		for z := 0; z < r.size.Z; z++ {
			for x := 0; x < r.size.X; x++ {
				p := geom.Pos{X: x, Y: y, Z: z}
				if id := r.cells[r.offset(p)]; id != 0 {
					fn(p, r.palette[id])
				}
			}
		}
	}
}

func (r *Region) Count() int {
	n := 0
	for _, c := range r.cells {
		if c != 0 {
			n++
		}
	}
	return n
}

// Place copies every non-air block of src into r, shifted by offset.
func (r *Region) Place(src *Region, offset geom.Pos) error {
	var err error
	src.Each(func(p geom.Pos, b Block) {
		if err != nil {
			return
		}
		err = r.Set(p.Add(offset), b)
	})
	return err
}
