package cpu

import (
	"errors"
	"fmt"

	"github.com/retroenv/retrogolib/log"
)

// cyclesPerInstruction is what Step reports; every opcode costs the same.
const cyclesPerInstruction = 1

// Step fetches, decodes and executes exactly one instruction.
// On error the machine state is left as it was before the call.
func (emu *EMU) Step() (int, error) {
	if !emu.initialized {
		return 0, ErrNotInitialized
	}

	emu.opcode = uint16(emu.memory[emu.pc&0xFFF])<<8 | uint16(emu.memory[(emu.pc+1)&0xFFF])

	err := emu.opCodeParser()
	if err == errUnknown {
		return emu.unknownOpcode()
	}
	if err != nil {
		return 0, err
	}
	return cyclesPerInstruction, nil
}

// errUnknown never leaves the package, Step turns it into a counter bump or ErrUnknownOpcode.
var errUnknown = errors.New("unrecognized opcode")

func (emu *EMU) unknownOpcode() (int, error) {
	emu.unknown++
	if emu.logger != nil {
		emu.logger.Warn("Unknown opcode",
			log.String("opcode", fmt.Sprintf("0x%04X", emu.opcode)),
			log.String("pc", fmt.Sprintf("0x%03X", emu.pc)))
	}
	if emu.unknownHook != nil {
		emu.unknownHook(emu.opcode, emu.pc)
	}
	if emu.strict {
		return 0, fmt.Errorf("%w: 0x%04X at 0x%03X", ErrUnknownOpcode, emu.opcode, emu.pc)
	}
	return cyclesPerInstruction, nil
}

func (emu *EMU) opCodeParser() error {
	op := emu.opcode
	x := int(op&0x0F00) >> 8
	y := int(op&0x00F0) >> 4
	n := op & 0x000F
	kk := uint8(op & 0x00FF)
	addr := op & 0x0FFF

	switch op & 0xF000 {
	case 0x0000:
		switch addr {
		case 0x0E0:
			emu.display = [Width * Height]uint8{}
			emu.pc += 2
		case 0x0EE:
			if emu.sp == 0 {
				return ErrStackUnderflow
			}
			emu.sp--
			emu.pc = emu.stack[emu.sp] + 2
		default:
			// 0NNN machine code routines need an RCA 1802
			return errUnknown
		}
	case 0x1000:
		emu.pc = addr
	case 0x2000:
		if int(emu.sp) >= stackSize {
			return ErrStackOverflow
		}
		emu.stack[emu.sp] = emu.pc
		emu.sp++
		emu.pc = addr
	case 0x3000:
		emu.skipIf(emu.V[x] == kk)
	case 0x4000:
		emu.skipIf(emu.V[x] != kk)
	case 0x5000:
		if n != 0 {
			return errUnknown
		}
		emu.skipIf(emu.V[x] == emu.V[y])
	case 0x6000:
		emu.V[x] = kk
		emu.pc += 2
	case 0x7000:
		emu.V[x] += kk
		emu.pc += 2
	case 0x8000:
		return emu.arithmetic(x, y, n)
	case 0x9000:
		if n != 0 {
			return errUnknown
		}
		emu.skipIf(emu.V[x] != emu.V[y])
	case 0xA000:
		emu.I = addr
		emu.pc += 2
	case 0xB000:
		emu.pc = addr + uint16(emu.V[0])
	case 0xC000:
		emu.V[x] = emu.random() & kk
		emu.pc += 2
	case 0xD000:
		if err := emu.drawSprite(emu.V[x], emu.V[y], int(n)); err != nil {
			return err
		}
		emu.pc += 2
	case 0xE000:
		pressed := emu.keyState[emu.V[x]&0xF]
		switch kk {
		case 0x9E:
			emu.skipIf(pressed)
		case 0xA1:
			emu.skipIf(!pressed)
		default:
			return errUnknown
		}
	case 0xF000:
		return emu.misc(x, kk)
	}
	return nil
}

func (emu *EMU) skipIf(cond bool) {
	if cond {
		emu.pc += 4
	} else {
		emu.pc += 2
	}
}

func (emu *EMU) setFlag(cond bool) {
	if cond {
		emu.V[flag] = 1
	} else {
		emu.V[flag] = 0
	}
}

// arithmetic handles the 8XYN family. VF is always written before VX.
func (emu *EMU) arithmetic(x, y int, n uint16) error {
	vx, vy := emu.V[x], emu.V[y]

	switch n {
	case 0x0:
		emu.V[x] = vy
	case 0x1:
		emu.V[x] = vx | vy
	case 0x2:
		emu.V[x] = vx & vy
	case 0x3:
		emu.V[x] = vx ^ vy
	case 0x4:
		emu.setFlag(uint16(vx)+uint16(vy) > 0xFF)
		emu.V[x] = vx + vy
	case 0x5:
		// 1 means no borrow
		emu.setFlag(vx >= vy)
		emu.V[x] = vx - vy
	case 0x6:
		src := vx
		if emu.shiftQuirk {
			src = vy
		}
		emu.V[flag] = src & 0x01
		emu.V[x] = src >> 1
	case 0x7:
		emu.setFlag(vy >= vx)
		emu.V[x] = vy - vx
	case 0xE:
		src := vx
		if emu.shiftQuirk {
			src = vy
		}
		emu.V[flag] = (src & 0x80) >> 7
		emu.V[x] = src << 1
	default:
		return errUnknown
	}
	emu.pc += 2
	return nil
}

// misc handles the FXNN family.
func (emu *EMU) misc(x int, kk uint8) error {
	switch kk {
	case 0x07:
		emu.V[x] = emu.delayTimer
	case 0x0A:
		for key, pressed := range emu.keyState {
			if pressed {
				emu.V[x] = uint8(key)
				emu.pc += 2
				return nil
			}
		}
		// nothing pressed, execute this instruction again next step
		return nil
	case 0x15:
		emu.delayTimer = emu.V[x]
	case 0x18:
		emu.soundTimer = emu.V[x]
	case 0x1E:
		sum := emu.I + uint16(emu.V[x])
		emu.setFlag(sum > 0xFFF)
		emu.I = sum
	case 0x29:
		emu.I = fontAddress + uint16(emu.V[x])*glyphSize
	case 0x33:
		vx := emu.V[x]
		emu.write(emu.I, vx/100)
		emu.write(emu.I+1, (vx/10)%10)
		emu.write(emu.I+2, vx%10)
	case 0x55:
		for i := 0; i <= x; i++ {
			emu.write(emu.I+uint16(i), emu.V[i])
		}
	case 0x65:
		for i := 0; i <= x; i++ {
			emu.V[i] = emu.read(emu.I + uint16(i))
		}
	default:
		return errUnknown
	}
	emu.pc += 2
	return nil
}

// I is not bounds checked, memory accesses through it wrap at 4K.
func (emu *EMU) read(addr uint16) uint8 {
	return emu.memory[addr&0xFFF]
}

func (emu *EMU) write(addr uint16, value uint8) {
	emu.memory[addr&0xFFF] = value
}

// drawSprite XORs an 8 pixel wide, height rows tall sprite from memory[I] onto the display.
func (emu *EMU) drawSprite(vx, vy uint8, height int) error {
	if emu.drawMode == DrawReject && !emu.spriteFits(vx, vy, height) {
		return ErrSpriteOutOfBounds
	}

	collision := false
	for row := 0; row < height; row++ {
		line := emu.read(emu.I + uint16(row))
		for col := 0; col < 8; col++ {
			if line&(0x80>>col) == 0 {
				continue
			}
			px, py := int(vx)+col, int(vy)+row
			if emu.drawMode == DrawWrap {
				px %= Width
				py %= Height
			} else if px >= Width || py >= Height {
				continue
			}
			idx := py*Width + px
			if emu.display[idx] == 1 {
				collision = true
			}
			emu.display[idx] ^= 1
		}
	}
	emu.setFlag(collision)
	return nil
}

func (emu *EMU) spriteFits(vx, vy uint8, height int) bool {
	for row := 0; row < height; row++ {
		line := emu.read(emu.I + uint16(row))
		for col := 0; col < 8; col++ {
			if line&(0x80>>col) == 0 {
				continue
			}
			if int(vx)+col >= Width || int(vy)+row >= Height {
				return false
			}
		}
	}
	return true
}
