package cpu

import (
	"errors"
	"math/rand"
	"time"

	"github.com/retroenv/retrogolib/log"
)

const (
	MemorySize   = 4096
	ProgramStart = 0x200
	MaxRomSize   = MemorySize - ProgramStart

	Width  = 64
	Height = 32

	NumKeys      = 16
	numRegisters = 16
	stackSize    = 16
	fontAddress  = 0x000
	glyphSize    = 5
	flag         = 0xF
)

var (
	ErrRomTooLarge       = errors.New("rom too large")
	ErrNotInitialized    = errors.New("emulator used before reset")
	ErrStackOverflow     = errors.New("stack overflow")
	ErrStackUnderflow    = errors.New("stack underflow")
	ErrUnknownOpcode     = errors.New("unknown opcode")
	ErrSpriteOutOfBounds = errors.New("sprite out of bounds")
)

// DrawMode selects what DXYN does with pixels that fall outside the 64x32 grid.
type DrawMode int

const (
	DrawWrap   DrawMode = iota // coordinates wrap modulo the grid size
	DrawClip                   // pixels past the edges are dropped
	DrawReject                 // the whole draw fails with ErrSpriteOutOfBounds
)

func (m DrawMode) String() string {
	switch m {
	case DrawWrap:
		return "wrap"
	case DrawClip:
		return "clip"
	case DrawReject:
		return "reject"
	default:
		return "unknown"
	}
}

// ParseDrawMode maps a config value to a DrawMode.
func ParseDrawMode(s string) (DrawMode, error) {
	switch s {
	case "wrap", "":
		return DrawWrap, nil
	case "clip":
		return DrawClip, nil
	case "reject":
		return DrawReject, nil
	}
	return DrawWrap, errors.New("unsupported draw mode: " + s)
}

type EMU struct {
	opcode     uint16
	memory     [MemorySize]uint8
	V          [numRegisters]uint8
	I          uint16 //address register
	pc         uint16
	display    [Width * Height]uint8
	delayTimer uint8 //counts down once per Tick
	soundTimer uint8 //same as above
	stack      [stackSize]uint16
	sp         uint16
	keyState   [NumKeys]bool //tells whether key is pressed or not

	initialized bool
	unknown     uint64

	logger      *log.Logger
	random      func() byte
	drawMode    DrawMode
	shiftQuirk  bool
	strict      bool
	unknownHook func(opcode, pc uint16)
}

// Option configures an EMU created by New.
type Option func(*EMU)

func WithLogger(logger *log.Logger) Option {
	return func(emu *EMU) { emu.logger = logger }
}

// WithRandom replaces the byte source used by CXNN.
func WithRandom(fn func() byte) Option {
	return func(emu *EMU) { emu.random = fn }
}

// WithSeed makes CXNN deterministic.
func WithSeed(seed int64) Option {
	return func(emu *EMU) { emu.random = seededRandom(seed) }
}

func WithDrawMode(mode DrawMode) Option {
	return func(emu *EMU) { emu.drawMode = mode }
}

// WithShiftQuirk makes 8XY6 and 8XYE shift VY into VX instead of shifting VX in place.
func WithShiftQuirk(enabled bool) Option {
	return func(emu *EMU) { emu.shiftQuirk = enabled }
}

// WithStrict makes Step return ErrUnknownOpcode instead of stalling silently.
func WithStrict(enabled bool) Option {
	return func(emu *EMU) { emu.strict = enabled }
}

// WithUnknownHook registers a callback invoked for every unrecognized opcode.
func WithUnknownHook(fn func(opcode, pc uint16)) Option {
	return func(emu *EMU) { emu.unknownHook = fn }
}

// New returns a reset machine with the font installed and pc at 0x200.
func New(opts ...Option) *EMU {
	emu := &EMU{}
	for _, opt := range opts {
		opt(emu)
	}
	emu.Reset()
	return emu
}

func seededRandom(seed int64) func() byte {
	rng := rand.New(rand.NewSource(seed))
	return func() byte { return byte(rng.Intn(256)) }
}

// Reset zeroes all machine state and reinstalls the font.
func (emu *EMU) Reset() {
	emu.opcode = 0
	emu.memory = [MemorySize]uint8{}
	emu.V = [numRegisters]uint8{}
	emu.I = 0
	emu.pc = ProgramStart
	emu.display = [Width * Height]uint8{}
	emu.delayTimer = 0
	emu.soundTimer = 0
	emu.stack = [stackSize]uint16{}
	emu.sp = 0
	emu.keyState = [NumKeys]bool{}
	emu.loadFont()
	if emu.random == nil {
		emu.random = seededRandom(time.Now().UnixNano())
	}
	emu.initialized = true
}

func (emu *EMU) loadFont() {
	copy(emu.memory[fontAddress:], FontSet[:])
}

// Load copies a program to 0x200. Other state is left alone, call Reset first
// for a fresh run.
func (emu *EMU) Load(rom []byte) error {
	if !emu.initialized {
		return ErrNotInitialized
	}
	if len(rom) > MaxRomSize {
		return ErrRomTooLarge
	}
	copy(emu.memory[ProgramStart:], rom)
	return nil
}

// Tick decrements both timers by one if they are above zero.
func (emu *EMU) Tick() {
	if emu.delayTimer > 0 {
		emu.delayTimer--
	}
	if emu.soundTimer > 0 {
		emu.soundTimer--
	}
}

// SetKey records the pressed state of one of the 16 hex keys.
func (emu *EMU) SetKey(key int, pressed bool) {
	if key < 0 || key >= NumKeys {
		return
	}
	emu.keyState[key] = pressed
}

func (emu *EMU) SetKeys(keys [NumKeys]bool) {
	emu.keyState = keys
}

// Pixel reports whether the pixel at x,y is lit. Coordinates outside the grid are unlit.
func (emu *EMU) Pixel(x, y int) bool {
	if x < 0 || x >= Width || y < 0 || y >= Height {
		return false
	}
	return emu.display[y*Width+x] == 1
}

// Framebuffer returns a copy of the 64x32 grid, row-major, one byte per pixel.
func (emu *EMU) Framebuffer() [Width * Height]uint8 {
	return emu.display
}

func (emu *EMU) DelayTimer() uint8 { return emu.delayTimer }
func (emu *EMU) SoundTimer() uint8 { return emu.soundTimer }
func (emu *EMU) PC() uint16 { return emu.pc }
func (emu *EMU) Opcode() uint16 { return emu.opcode }

// UnknownOpcodes returns how many unrecognized opcodes Step has met since New.
func (emu *EMU) UnknownOpcodes() uint64 { return emu.unknown }
