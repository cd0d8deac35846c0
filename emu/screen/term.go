package screen

import (
	"sync"
	"time"

	"github.com/beanboi7/chyp8/emu/cpu"
	"github.com/beanboi7/chyp8/emu/runner"
	"github.com/nsf/termbox-go"
)

// terminals only report key presses, a key counts as held for this long after one.
const keyRepeatDuration = time.Second / 5

var termKeyMap = map[rune]uint16{
	'0': 0x0, '1': 0x1, '2': 0x2, '3': 0x3, '4': 0x4,
	'5': 0x5, '6': 0x6, '7': 0x7, '8': 0x8, '9': 0x9,
	'q': 0xA, 'a': 0xB, 'z': 0xC, 'w': 0xD, 's': 0xE, 'x': 0xF,
}

var termColors = map[string]termbox.Attribute{
	"black":   termbox.ColorBlack,
	"red":     termbox.ColorRed,
	"green":   termbox.ColorGreen,
	"yellow":  termbox.ColorYellow,
	"blue":    termbox.ColorBlue,
	"magenta": termbox.ColorMagenta,
	"cyan":    termbox.ColorCyan,
	"white":   termbox.ColorWhite,
}

// Terminal renders two pixel rows per character cell with upper half blocks.
type Terminal struct {
	fg, bg termbox.Attribute

	mu      sync.Mutex
	pressed [cpu.NumKeys]time.Time
	events  runner.Events

	now       func() time.Time
	setCell   func(x, y int, ch rune, fg, bg termbox.Attribute)
	flush     func() error
	pollEvent func() termbox.Event
	interrupt func()
	shutdown  func()
	done      chan struct{}
	exited    chan struct{}
}

// NewTerminal takes over the terminal until Close.
func NewTerminal(fg, bg string) (*Terminal, error) {
	if err := termbox.Init(); err != nil {
		return nil, err
	}
	termbox.SetInputMode(termbox.InputEsc)

	t := newTerminal(fg, bg)
	t.setCell = termbox.SetCell
	t.flush = termbox.Flush
	t.pollEvent = termbox.PollEvent
	t.interrupt = termbox.Interrupt
	t.shutdown = termbox.Close
	go t.pollEvents()
	return t, nil
}

func newTerminal(fg, bg string) *Terminal {
	return &Terminal{
		fg:   termColor(fg, termbox.ColorWhite),
		bg:   termColor(bg, termbox.ColorBlack),
		now:    time.Now,
		done:   make(chan struct{}),
		exited: make(chan struct{}),
	}
}

func termColor(name string, fallback termbox.Attribute) termbox.Attribute {
	if c, ok := termColors[name]; ok {
		return c
	}
	return fallback
}

// Close wakes the event goroutine, waits for it and restores the terminal.
func (t *Terminal) Close() {
	close(t.done)
	t.interrupt()
	<-t.exited
	t.shutdown()
}

func (t *Terminal) pollEvents() {
	defer close(t.exited)
	for {
		ev := t.pollEvent()
		select {
		case <-t.done:
			return
		default:
		}
		if ev.Type == termbox.EventKey {
			t.handleKey(ev)
		}
	}
}

func (t *Terminal) handleKey(ev termbox.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch ev.Key {
	case termbox.KeyEsc, termbox.KeyCtrlC:
		t.events.Quit = true
		return
	case termbox.KeyEnter:
		t.events.TogglePause = true
		return
	case termbox.KeyBackspace, termbox.KeyBackspace2:
		t.events.Reset = true
		return
	}

	switch ev.Ch {
	case 'd':
		t.events.DumpMemory = true
	case 'r':
		t.events.DumpRegisters = true
	default:
		if key, ok := termKeyMap[ev.Ch]; ok {
			t.pressed[key] = t.now()
		}
	}
}

func (t *Terminal) Poll() ([cpu.NumKeys]bool, runner.Events) {
	t.mu.Lock()
	defer t.mu.Unlock()

	var keys [cpu.NumKeys]bool
	now := t.now()
	for i, at := range t.pressed {
		keys[i] = !at.IsZero() && now.Sub(at) < keyRepeatDuration
	}
	events := t.events
	t.events = runner.Events{}
	return keys, events
}

func (t *Terminal) Draw(frame *[cpu.Width * cpu.Height]uint8) {
	for y := 0; y < cpu.Height; y += 2 {
		for x := 0; x < cpu.Width; x++ {
			top := t.colorOf(frame[y*cpu.Width+x])
			bottom := t.colorOf(frame[(y+1)*cpu.Width+x])
			t.setCell(x, y/2, '▀', top, bottom)
		}
	}
	_ = t.flush()
}

func (t *Terminal) colorOf(pixel uint8) termbox.Attribute {
	if pixel == 1 {
		return t.fg
	}
	return t.bg
}
