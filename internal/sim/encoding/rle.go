// Package encoding packs the palette-index cells of a voxel region into
// run-length pairs for content files and wire messages.
package encoding

import (
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
)

var ErrLength = errors.New("run length mismatch")

// AppendRuns appends ids to dst as uvarint (palette index, run length) pairs.
func AppendRuns(dst []byte, ids []uint16) []byte {
	for i := 0; i < len(ids); {
		id := ids[i]
		run := 1
		for i+run < len(ids) && ids[i+run] == id {
			run++
		}
		dst = binary.AppendUvarint(dst, uint64(id))
		dst = binary.AppendUvarint(dst, uint64(run))
		i += run
	}
	return dst
}

// DecodeRuns expands raw back into exactly want cells. A stream that expands
// to more or fewer cells fails with ErrLength.
func DecodeRuns(raw []byte, want int) ([]uint16, error) {
	out := make([]uint16, 0, want)
	for i := 0; i < len(raw); {
		id, n := binary.Uvarint(raw[i:])
		if n <= 0 {
			return nil, fmt.Errorf("bad varint at %d", i)
		}
		i += n
		run, n := binary.Uvarint(raw[i:])
		if n <= 0 {
			return nil, fmt.Errorf("bad varint at %d", i)
		}
		i += n
		if id > 0xFFFF {
			return nil, fmt.Errorf("palette index too large: %d", id)
		}
		if run > uint64(want-len(out)) {
			return nil, fmt.Errorf("%w: run of %d past %d cells", ErrLength, run, want)
		}
		for k := uint64(0); k < run; k++ {
			out = append(out, uint16(id))
		}
	}
	if len(out) != want {
		return nil, fmt.Errorf("%w: got %d cells want %d", ErrLength, len(out), want)
	}
	return out, nil
}

// EncodeRLE is AppendRuns in base64, for JSON transports.
func EncodeRLE(ids []uint16) string {
	return base64.StdEncoding.EncodeToString(AppendRuns(nil, ids))
}

func DecodeRLE(b64 string, want int) ([]uint16, error) {
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, err
	}
	return DecodeRuns(raw, want)
}
