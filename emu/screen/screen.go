package screen

import (
	"image/color"

	"github.com/beanboi7/chyp8/emu/cpu"
	"github.com/beanboi7/chyp8/emu/runner"
	"github.com/faiface/pixel"
	"github.com/faiface/pixel/imdraw"
	"github.com/faiface/pixel/pixelgl"
	"github.com/pkg/errors"
	"golang.org/x/image/colornames"
)

// DefaultKeyMap binds the hex keypad: 0-9 on the numeric keypad, A-F on the left hand.
var DefaultKeyMap = map[uint16]pixelgl.Button{
	0x0: pixelgl.KeyKP0, 0x1: pixelgl.KeyKP1, 0x2: pixelgl.KeyKP2, 0x3: pixelgl.KeyKP3,
	0x4: pixelgl.KeyKP4, 0x5: pixelgl.KeyKP5, 0x6: pixelgl.KeyKP6, 0x7: pixelgl.KeyKP7,
	0x8: pixelgl.KeyKP8, 0x9: pixelgl.KeyKP9, 0xA: pixelgl.KeyQ, 0xB: pixelgl.KeyA,
	0xC: pixelgl.KeyZ, 0xD: pixelgl.KeyW, 0xE: pixelgl.KeyS, 0xF: pixelgl.KeyX,
}

const (
	keyDumpMemory    = pixelgl.KeyD
	keyDumpRegisters = pixelgl.KeyR
	keyPause         = pixelgl.KeyEnter
	keyReset         = pixelgl.KeyBackspace
	keyExit          = pixelgl.KeyEscape
)

type Window struct {
	*pixelgl.Window
	KeyMap map[uint16]pixelgl.Button

	imd   *imdraw.IMDraw
	scale float64
	fg    color.RGBA
	bg    color.RGBA
}

// NewWindow opens a 64x32 window scaled by scale. Must run inside pixelgl.Run.
func NewWindow(scale int, fg, bg string) (*Window, error) {
	fgColor, err := Color(fg)
	if err != nil {
		return nil, err
	}
	bgColor, err := Color(bg)
	if err != nil {
		return nil, err
	}

	cfg := pixelgl.WindowConfig{
		Title:  "Chyp8",
		Bounds: pixel.R(0, 0, float64(cpu.Width*scale), float64(cpu.Height*scale)),
		VSync:  true,
	}
	win, err := pixelgl.NewWindow(cfg)
	if err != nil {
		return nil, err
	}

	return &Window{
		Window: win,
		KeyMap: DefaultKeyMap,
		imd:    imdraw.New(nil),
		scale:  float64(scale),
		fg:     fgColor,
		bg:     bgColor,
	}, nil
}

// Color resolves an x/image color name.
func Color(name string) (color.RGBA, error) {
	c, ok := colornames.Map[name]
	if !ok {
		return color.RGBA{}, errors.Errorf("unknown color %q", name)
	}
	return c, nil
}

// Draw renders the frame, row 0 at the top of the window, and swaps buffers.
func (w *Window) Draw(frame *[cpu.Width * cpu.Height]uint8) {
	w.Clear(w.bg)
	w.imd.Clear()
	w.imd.Color = w.fg

	for y := 0; y < cpu.Height; y++ {
		for x := 0; x < cpu.Width; x++ {
			if frame[y*cpu.Width+x] == 0 {
				continue
			}
			top := float64(cpu.Height - y)
			w.imd.Push(
				pixel.V(float64(x)*w.scale, (top-1)*w.scale),
				pixel.V(float64(x+1)*w.scale, top*w.scale),
			)
			w.imd.Rectangle(0)
		}
	}

	w.imd.Draw(w)
	w.Update()
}

func (w *Window) Poll() ([cpu.NumKeys]bool, runner.Events) {
	keys := pressedKeys(w.KeyMap, w.Pressed)
	events := runner.Events{
		Quit:          w.Closed() || w.JustPressed(keyExit),
		TogglePause:   w.JustPressed(keyPause),
		Reset:         w.JustPressed(keyReset),
		DumpMemory:    w.JustPressed(keyDumpMemory),
		DumpRegisters: w.JustPressed(keyDumpRegisters),
	}
	return keys, events
}

func pressedKeys(keyMap map[uint16]pixelgl.Button, pressed func(pixelgl.Button) bool) [cpu.NumKeys]bool {
	var keys [cpu.NumKeys]bool
	for key, button := range keyMap {
		if int(key) < cpu.NumKeys {
			keys[key] = pressed(button)
		}
	}
	return keys
}
