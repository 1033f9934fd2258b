package view

import (
	"github.com/gdamore/tcell/v2"

	"voxelcircuit.ai/internal/blocks"
	"voxelcircuit.ai/internal/geom"
)

// Viewer is the interactive layer browser behind cmd/circuitview.
type Viewer struct {
	Screen tcell.Screen
	Region *blocks.Region
	Levels map[geom.Pos]int
	Layer  int
	// Footer is drawn on the last screen row, e.g. the output levels.
	Footer string
}

// Step moves the displayed layer by delta, clamped to the region.
func (v *Viewer) Step(delta int) {
	top := max(0, v.Region.Size().Y-1)
	v.Layer = max(0, min(top, v.Layer+delta))
}

func (v *Viewer) Draw() {
	v.Screen.Clear()
	RenderLayer(v.Screen, v.Region, v.Levels, v.Layer)
	if v.Footer != "" {
		_, h := v.Screen.Size()
		putString(v.Screen, 0, h-1, v.Footer, tcell.StyleDefault)
	}
	v.Screen.Show()
}

// Handle applies one key event and reports whether the viewer should exit.
func (v *Viewer) Handle(ev *tcell.EventKey) (quit bool) {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return true
	case tcell.KeyPgUp, tcell.KeyUp:
		v.Step(1)
	case tcell.KeyPgDn, tcell.KeyDown:
		v.Step(-1)
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'q':
			return true
		case '+':
			v.Step(1)
		case '-':
			v.Step(-1)
		}
	}
	return false
}

// Run draws and handles events until the user quits.
func (v *Viewer) Run() {
	v.Draw()
	for {
		switch ev := v.Screen.PollEvent().(type) {
		case *tcell.EventKey:
			if v.Handle(ev) {
				return
			}
			v.Draw()
		case *tcell.EventResize:
			v.Screen.Sync()
			v.Draw()
		case nil:
			return
		}
	}
}
