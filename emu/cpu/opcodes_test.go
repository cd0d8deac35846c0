package cpu

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadThenIncrement(t *testing.T) {
	for x := uint16(0); x < 16; x++ {
		for _, nn := range []uint16{0x00, 0x7F, 0xFE, 0xFF} {
			t.Run(fmt.Sprintf("V%X=%02X", x, nn), func(t *testing.T) {
				emu := newTestEMU(t, nil, 0x6000|x<<8|nn, 0x7001|x<<8)
				run(t, emu, 2)
				assert.Equal(t, uint8((nn+1)%256), emu.V[x])
				assert.Equal(t, uint16(0x204), emu.PC())
			})
		}
	}
}

func TestArithmetic(t *testing.T) {
	tests := []struct {
		name   string
		op     uint16
		vx, vy uint8
		want   uint8
		flag   uint8
	}{
		{"8XY0 copy", 0x8010, 1, 9, 9, 0xAA},
		{"8XY1 or", 0x8011, 0x0F, 0xF0, 0xFF, 0xAA},
		{"8XY2 and", 0x8012, 0x3C, 0x0F, 0x0C, 0xAA},
		{"8XY3 xor", 0x8013, 0xFF, 0x0F, 0xF0, 0xAA},
		{"8XY4 no carry", 0x8014, 0, 0, 0, 0},
		{"8XY4 max without carry", 0x8014, 0xFE, 0x01, 0xFF, 0},
		{"8XY4 carry", 0x8014, 0xFF, 0x01, 0x00, 1},
		{"8XY5 no borrow", 0x8015, 5, 3, 2, 1},
		{"8XY5 equal", 0x8015, 7, 7, 0, 1},
		{"8XY5 borrow", 0x8015, 3, 5, 0xFE, 0},
		{"8XY6 odd", 0x8016, 0x05, 0xFF, 0x02, 1},
		{"8XY6 even", 0x8016, 0x04, 0xFF, 0x02, 0},
		{"8XY7 no borrow", 0x8017, 3, 5, 2, 1},
		{"8XY7 equal", 0x8017, 7, 7, 0, 1},
		{"8XY7 borrow", 0x8017, 5, 3, 0xFE, 0},
		{"8XYE msb set", 0x801E, 0x81, 0x00, 0x02, 1},
		{"8XYE msb clear", 0x801E, 0x41, 0x00, 0x82, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			emu := newTestEMU(t, nil, tt.op)
			emu.V[0] = tt.vx
			emu.V[1] = tt.vy
			emu.V[0xF] = 0xAA
			run(t, emu, 1)
			assert.Equal(t, tt.want, emu.V[0])
			assert.Equal(t, tt.flag, emu.V[0xF])
			assert.Equal(t, uint16(0x202), emu.PC())
		})
	}
}

func TestShiftQuirk(t *testing.T) {
	emu := newTestEMU(t, []Option{WithShiftQuirk(true)}, 0x8016, 0x823E)
	emu.V[0] = 0xFF
	emu.V[1] = 0x03
	emu.V[3] = 0x80
	run(t, emu, 1)
	assert.Equal(t, uint8(0x01), emu.V[0])
	assert.Equal(t, uint8(1), emu.V[0xF])

	run(t, emu, 1)
	assert.Equal(t, uint8(0x00), emu.V[2])
	assert.Equal(t, uint8(1), emu.V[0xF])
}

func TestSkips(t *testing.T) {
	tests := []struct {
		name string
		op   uint16
		skip bool
	}{
		{"3XNN equal", 0x3005, true},
		{"3XNN not equal", 0x3006, false},
		{"4XNN not equal", 0x4006, true},
		{"4XNN equal", 0x4005, false},
		{"5XY0 equal", 0x5020, true},
		{"5XY0 not equal", 0x5010, false},
		{"9XY0 not equal", 0x9010, true},
		{"9XY0 equal", 0x9020, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			emu := newTestEMU(t, nil, tt.op)
			emu.V[0] = 5
			emu.V[1] = 6
			emu.V[2] = 5
			run(t, emu, 1)
			want := uint16(0x202)
			if tt.skip {
				want = 0x204
			}
			assert.Equal(t, want, emu.PC())
		})
	}
}

func TestJumps(t *testing.T) {
	emu := newTestEMU(t, nil, 0x1208)
	run(t, emu, 1)
	assert.Equal(t, uint16(0x208), emu.PC())

	emu = newTestEMU(t, nil, 0xB300)
	emu.V[0] = 0x10
	run(t, emu, 1)
	assert.Equal(t, uint16(0x310), emu.PC())
}

func TestCallAndReturn(t *testing.T) {
	// 0x200 call 0x206, 0x202 jump to self, 0x206 return
	emu := newTestEMU(t, nil, 0x2206, 0x1202, 0x0000, 0x00EE)
	run(t, emu, 1)
	assert.Equal(t, uint16(0x206), emu.PC())
	assert.Equal(t, uint16(1), emu.sp)
	assert.Equal(t, uint16(0x200), emu.stack[0])

	run(t, emu, 1)
	assert.Equal(t, uint16(0x202), emu.PC())
	assert.Equal(t, uint16(0), emu.sp)
}

func TestStackOverflow(t *testing.T) {
	// calls itself forever
	emu := newTestEMU(t, nil, 0x2200)
	run(t, emu, stackSize)

	before := emu.Snapshot()
	_, err := emu.Step()
	assert.ErrorIs(t, err, ErrStackOverflow)
	assert.Equal(t, before.PC, emu.PC())
	assert.Equal(t, before.SP, emu.sp)
}

func TestStackUnderflow(t *testing.T) {
	emu := newTestEMU(t, nil, 0x00EE)
	_, err := emu.Step()
	assert.ErrorIs(t, err, ErrStackUnderflow)
	assert.Equal(t, uint16(0x200), emu.PC())
}

func TestIndexOps(t *testing.T) {
	emu := newTestEMU(t, nil, 0xA123, 0xF01E, 0xAFFF, 0xF01E, 0x6B0B, 0xFB29)
	emu.V[0] = 2

	run(t, emu, 2)
	assert.Equal(t, uint16(0x125), emu.I)
	assert.Equal(t, uint8(0), emu.V[0xF])

	run(t, emu, 2)
	assert.Equal(t, uint16(0x1001), emu.I)
	assert.Equal(t, uint8(1), emu.V[0xF])

	run(t, emu, 2)
	assert.Equal(t, uint16(0x0B*5), emu.I)
}

func TestRandom(t *testing.T) {
	emu := newTestEMU(t, []Option{WithRandom(func() byte { return 0xAB })}, 0xC30F)
	run(t, emu, 1)
	assert.Equal(t, uint8(0x0B), emu.V[3])

	a := newTestEMU(t, []Option{WithSeed(42)}, 0xC0FF, 0xC1FF, 0xC2FF)
	b := newTestEMU(t, []Option{WithSeed(42)}, 0xC0FF, 0xC1FF, 0xC2FF)
	run(t, a, 3)
	run(t, b, 3)
	assert.Equal(t, a.V, b.V)
}

func TestClearScreen(t *testing.T) {
	emu := newTestEMU(t, nil, 0xD015, 0x00E0)
	run(t, emu, 1)
	require.True(t, emu.Pixel(0, 0))

	run(t, emu, 1)
	assert.Equal(t, [Width * Height]uint8{}, emu.Framebuffer())
	assert.Equal(t, uint16(0x204), emu.PC())
}

func TestDrawTwiceRestoresFramebuffer(t *testing.T) {
	// glyph 0 at (10,5), drawn twice
	emu := newTestEMU(t, nil, 0x600A, 0x6105, 0xA000, 0xD015, 0xD015)
	run(t, emu, 3)
	before := emu.Framebuffer()

	run(t, emu, 1)
	assert.Equal(t, uint8(0), emu.V[0xF])
	assert.True(t, emu.Pixel(10, 5))
	assert.True(t, emu.Pixel(13, 6))
	assert.False(t, emu.Pixel(11, 6))

	run(t, emu, 1)
	// erasing the lit pixels is itself a collision
	assert.Equal(t, uint8(1), emu.V[0xF])
	if diff := cmp.Diff(before, emu.Framebuffer()); diff != "" {
		t.Errorf("framebuffer not restored: (-want, +got)\n%s", diff)
	}
}

func TestDrawCollision(t *testing.T) {
	// glyph 1 then glyph 0 on top of it share pixel (2,0)
	emu := newTestEMU(t, nil, 0xA005, 0xD015, 0xA000, 0xD015)
	run(t, emu, 2)
	assert.Equal(t, uint8(0), emu.V[0xF])

	run(t, emu, 2)
	assert.Equal(t, uint8(1), emu.V[0xF])
	assert.False(t, emu.Pixel(2, 0))
}

func TestDrawModes(t *testing.T) {
	program := []uint16{0x603E, 0x611E, 0xA000, 0xD015}

	t.Run("wrap", func(t *testing.T) {
		emu := newTestEMU(t, []Option{WithDrawMode(DrawWrap)}, program...)
		run(t, emu, 4)
		assert.True(t, emu.Pixel(62, 30))
		assert.True(t, emu.Pixel(1, 30))
		assert.True(t, emu.Pixel(62, 0))
		assert.True(t, emu.Pixel(1, 0))
		assert.False(t, emu.Pixel(63, 0))
	})

	t.Run("clip", func(t *testing.T) {
		emu := newTestEMU(t, []Option{WithDrawMode(DrawClip)}, program...)
		run(t, emu, 4)
		assert.True(t, emu.Pixel(62, 30))
		assert.True(t, emu.Pixel(63, 30))
		assert.False(t, emu.Pixel(0, 30))
		assert.False(t, emu.Pixel(62, 0))
	})

	t.Run("reject", func(t *testing.T) {
		emu := newTestEMU(t, []Option{WithDrawMode(DrawReject)}, program...)
		run(t, emu, 3)
		_, err := emu.Step()
		assert.ErrorIs(t, err, ErrSpriteOutOfBounds)
		assert.Equal(t, uint16(0x206), emu.PC())
		assert.Equal(t, [Width * Height]uint8{}, emu.Framebuffer())
	})
}

func TestKeySkips(t *testing.T) {
	emu := newTestEMU(t, nil, 0xE59E, 0xE5A1, 0xE5A1)
	emu.V[5] = 0xC

	run(t, emu, 1)
	assert.Equal(t, uint16(0x202), emu.PC())

	emu.SetKey(0xC, true)
	run(t, emu, 1)
	assert.Equal(t, uint16(0x204), emu.PC())

	emu.SetKey(0xC, false)
	run(t, emu, 1)
	assert.Equal(t, uint16(0x208), emu.PC())
}

func TestWaitForKey(t *testing.T) {
	emu := newTestEMU(t, nil, 0xF40A)
	run(t, emu, 3)
	assert.Equal(t, uint16(0x200), emu.PC())

	var keys [NumKeys]bool
	keys[0x9] = true
	keys[0xE] = true
	emu.SetKeys(keys)
	run(t, emu, 1)
	assert.Equal(t, uint8(0x9), emu.V[4])
	assert.Equal(t, uint16(0x202), emu.PC())
}

func TestTimerOps(t *testing.T) {
	emu := newTestEMU(t, nil, 0x6A10, 0xFA15, 0xFA18, 0xFB07)
	run(t, emu, 3)
	emu.Tick()
	run(t, emu, 1)
	assert.Equal(t, uint8(0x0F), emu.V[0xB])
	assert.Equal(t, uint8(0x0F), emu.SoundTimer())
}

func TestBCD(t *testing.T) {
	emu := newTestEMU(t, nil, 0x60EA, 0xA300, 0xF033)
	run(t, emu, 3)
	assert.Equal(t, []uint8{2, 3, 4}, emu.memory[0x300:0x303])
}

func TestStoreLoadRegisters(t *testing.T) {
	emu := newTestEMU(t, nil, 0xA400, 0xF755, 0x00E0)
	for i := range emu.V {
		emu.V[i] = uint8(0x10 + i)
	}
	original := emu.V
	run(t, emu, 2)
	assert.Equal(t, original[:8], emu.memory[0x400:0x408])
	assert.Equal(t, uint8(0), emu.memory[0x408])

	emu.V = [numRegisters]uint8{}
	emu.pc = 0x200
	require.NoError(t, emu.Load(assemble(0xA400, 0xF765)))
	run(t, emu, 2)
	assert.Equal(t, original[:8], emu.V[:8])
	assert.Equal(t, uint8(0), emu.V[8])
}

func TestUnknownOpcodes(t *testing.T) {
	for _, op := range []uint16{0x0123, 0x5001, 0x8008, 0x9001, 0xE000, 0xF0FF} {
		t.Run(fmt.Sprintf("%04X", op), func(t *testing.T) {
			var seen []uint16
			emu := newTestEMU(t, []Option{WithUnknownHook(func(opcode, pc uint16) {
				seen = append(seen, opcode)
				assert.Equal(t, uint16(0x200), pc)
			})}, op)
			before := emu.Snapshot()

			run(t, emu, 2)

			assert.Equal(t, uint16(0x200), emu.PC())
			assert.Equal(t, uint64(2), emu.UnknownOpcodes())
			assert.Equal(t, []uint16{op, op}, seen)
			assert.Equal(t, before.V, emu.V)
		})
	}
}

func TestUnknownOpcodeStrict(t *testing.T) {
	emu := newTestEMU(t, []Option{WithStrict(true)}, 0xF0FF)
	cycles, err := emu.Step()
	assert.ErrorIs(t, err, ErrUnknownOpcode)
	assert.Equal(t, 0, cycles)
	assert.Equal(t, uint16(0x200), emu.PC())
	assert.Equal(t, uint64(1), emu.UnknownOpcodes())
}
