// Package view draws one horizontal layer of a component's voxel content on
// a terminal, coloured by the signal level the simulator left on each block.
package view

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"

	"voxelcircuit.ai/internal/blocks"
	"voxelcircuit.ai/internal/geom"
)

// Canvas is the part of tcell.Screen the renderer draws through.
type Canvas interface {
	SetContent(x, y int, primary rune, combining []rune, style tcell.Style)
}

const hexDigits = "0123456789abcdef"

var (
	styleSolid   = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleGlass   = tcell.StyleDefault.Foreground(tcell.ColorLightCyan)
	styleUnknown = tcell.StyleDefault.Foreground(tcell.ColorDarkGray)
	styleHeader  = tcell.StyleDefault.Bold(true)
)

// LevelStyle colours a powered block; brighter red is a stronger signal.
func LevelStyle(level int) tcell.Style {
	level = max(0, min(level, 15))
	if level == 0 {
		return tcell.StyleDefault.Foreground(tcell.ColorMaroon)
	}
	return tcell.StyleDefault.Foreground(tcell.NewRGBColor(int32(75+12*level), 0, 0)).Bold(level == 15)
}

// Glyph picks the rune for a block. Wires show their level as a hex digit;
// repeaters point the way signal leaves them.
func Glyph(b blocks.Block, level int, powered bool) rune {
	id := strings.TrimPrefix(b.ID, "minecraft:")
	switch {
	case blocks.IsAir(id):
		return ' '
	case strings.Contains(id, "redstone_wire"):
		if !powered {
			return '.'
		}
		return rune(hexDigits[max(0, min(level, 15))])
	case blocks.IsAmplifier(id):
		facing, err := geom.ParseFacing(b.Facing)
		if err != nil {
			return '?'
		}
		switch facing.Opposite() {
		case geom.North:
			return '^'
		case geom.South:
			return 'v'
		case geom.West:
			return '<'
		default:
			return '>'
		}
	case strings.Contains(id, "torch"):
		return 'i'
	case strings.Contains(id, "redstone_block"):
		return '#'
	case blocks.IsGlass(id):
		return '~'
	default:
		return '='
	}
}

func cellStyle(b blocks.Block, level int, powered bool) tcell.Style {
	switch {
	case powered:
		return LevelStyle(level)
	case blocks.IsGlass(b.ID):
		return styleGlass
	case strings.Contains(b.ID, "redstone"), blocks.IsAmplifier(b.ID):
		return styleUnknown
	default:
		return styleSolid
	}
}

// RenderLayer draws layer y of region with X across and Z down, below a one
// line header. Positions missing from levels are drawn unpowered.
func RenderLayer(c Canvas, region *blocks.Region, levels map[geom.Pos]int, y int) {
	size := region.Size()
	putString(c, 0, 0, fmt.Sprintf("layer y=%d/%d  size %dx%dx%d", y, max(0, size.Y-1), size.X, size.Y, size.Z), styleHeader)
	for z := 0; z < size.Z; z++ {
		for x := 0; x < size.X; x++ {
			p := geom.Pos{X: x, Y: y, Z: z}
			b, ok := region.BlockAt(p)
			if !ok {
				c.SetContent(x, z+1, ' ', nil, tcell.StyleDefault)
				continue
			}
			level, powered := levels[p]
			c.SetContent(x, z+1, Glyph(b, level, powered), nil, cellStyle(b, level, powered))
		}
	}
}

func putString(c Canvas, x, y int, s string, style tcell.Style) {
	for i, r := range []rune(s) {
		c.SetContent(x+i, y, r, nil, style)
	}
}
