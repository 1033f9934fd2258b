// Package schematic reads and writes .vxs voxel content files: a zstd stream
// holding one JSON header line followed by a gob-encoded RegionV1.
package schematic

import (
	"bufio"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"

	"voxelcircuit.ai/internal/blocks"
	"voxelcircuit.ai/internal/geom"
	"voxelcircuit.ai/internal/sim/encoding"
)

const (
	Ext     = ".vxs"
	Version = 1
)

type Header struct {
	Version int    `json:"version"`
	Size    [3]int `json:"size"`
	Blocks  int    `json:"blocks"`
}

type PaletteEntryV1 struct {
	ID     string `json:"id"`
	Facing string `json:"facing,omitempty"`
}

type RegionV1 struct {
	Header  Header           `json:"header"`
	Palette []PaletteEntryV1 `json:"palette"`
	// Runs holds the cells as uvarint (palette index, run length) pairs in
	// x, then z, then y order.
	Runs []byte `json:"runs"`
}

func Encode(r *blocks.Region) RegionV1 {
	size := r.Size()
	pal := r.Palette()
	out := RegionV1{
		Header:  Header{Version: Version, Size: size.ToArray(), Blocks: r.Count()},
		Palette: make([]PaletteEntryV1, 0, len(pal)),
		Runs:    encoding.AppendRuns(nil, r.Cells()),
	}
	for _, b := range pal {
		out.Palette = append(out.Palette, PaletteEntryV1{ID: b.ID, Facing: b.Facing})
	}
	return out
}

func Decode(v RegionV1) (*blocks.Region, error) {
	if v.Header.Version != Version {
		return nil, fmt.Errorf("unsupported schematic version %d", v.Header.Version)
	}
	size := geom.FromArray(v.Header.Size)
	if size.X < 0 || size.Y < 0 || size.Z < 0 {
		return nil, fmt.Errorf("bad size %v", size)
	}
	cells, err := encoding.DecodeRuns(v.Runs, size.X*size.Y*size.Z)
	if err != nil {
		return nil, fmt.Errorf("cells: %w", err)
	}
	pal := make([]blocks.Block, 0, len(v.Palette))
	for _, p := range v.Palette {
		pal = append(pal, blocks.Block{ID: p.ID, Facing: p.Facing})
	}
	return blocks.FromCells(size, pal, cells)
}

func WriteTo(w io.Writer, r *blocks.Region) error {
	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	bw := bufio.NewWriterSize(enc, 64*1024)

	v := Encode(r)
	hb, _ := json.Marshal(v.Header)
	if _, err := bw.Write(hb); err != nil {
		enc.Close()
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		enc.Close()
		return err
	}
	if err := gob.NewEncoder(bw).Encode(&v); err != nil {
		enc.Close()
		return fmt.Errorf("gob encode: %w", err)
	}
	if err := bw.Flush(); err != nil {
		enc.Close()
		return err
	}
	return enc.Close()
}

func ReadFrom(rd io.Reader) (*blocks.Region, error) {
	dec, err := zstd.NewReader(rd)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 64*1024)
	line, err := br.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("header: %w", err)
	}
	var h Header
	if err := json.Unmarshal(line, &h); err != nil {
		return nil, fmt.Errorf("header: %w", err)
	}
	if h.Version != Version {
		return nil, fmt.Errorf("unsupported schematic version %d", h.Version)
	}

	var v RegionV1
	if err := gob.NewDecoder(br).Decode(&v); err != nil {
		return nil, fmt.Errorf("gob decode: %w", err)
	}
	return Decode(v)
}

func Write(path string, r *blocks.Region) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if err := WriteTo(f, r); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func Read(path string) (*blocks.Region, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	r, err := ReadFrom(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return r, nil
}
