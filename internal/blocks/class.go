package blocks

import (
	"fmt"
	"strings"

	"voxelcircuit.ai/internal/geom"
)

func IsAir(id string) bool {
	id = strings.TrimPrefix(id, "minecraft:")
	return id == "" || id == "air" || strings.HasSuffix(id, "_air")
}

func IsGlass(id string) bool { return strings.Contains(id, "glass") }

// IsAmplifier matches repeaters: they regenerate signal and only pass it one way.
func IsAmplifier(id string) bool { return strings.Contains(id, "repeater") }

// IsRegenerator matches blocks that emit full strength instead of a decayed level.
func IsRegenerator(id string) bool {
	return IsAmplifier(id) || strings.Contains(id, "torch") || strings.Contains(id, "redstone_block")
}

// Conducts reports whether b accepts signal travelling in direction incoming
// (from the source block toward b). A repeater only takes signal through its
// back face, which is the side its facing points to.
func Conducts(b Block, incoming geom.Direction) (bool, error) {
	switch {
	case IsGlass(b.ID):
		return false, nil
	case IsAmplifier(b.ID):
		facing, err := geom.ParseFacing(b.Facing)
		if err != nil {
			return false, fmt.Errorf("%s facing: %w", b.ID, err)
		}
		return facing == incoming.Opposite(), nil
	default:
		return true, nil
	}
}
