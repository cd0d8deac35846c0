package cpu

import (
	"bufio"
	"fmt"
	"io"
)

// State is a value copy of everything the machine holds.
type State struct {
	Opcode     uint16
	Memory     [MemorySize]uint8
	V          [numRegisters]uint8
	I          uint16
	PC         uint16
	Display    [Width * Height]uint8
	DelayTimer uint8
	SoundTimer uint8
	Stack      [stackSize]uint16
	SP         uint16
	Keys       [NumKeys]bool
}

func (emu *EMU) Snapshot() State {
	return State{
		Opcode:     emu.opcode,
		Memory:     emu.memory,
		V:          emu.V,
		I:          emu.I,
		PC:         emu.pc,
		Display:    emu.display,
		DelayTimer: emu.delayTimer,
		SoundTimer: emu.soundTimer,
		Stack:      emu.stack,
		SP:         emu.sp,
		Keys:       emu.keyState,
	}
}

// DumpMemory writes the whole address space as hex and ASCII, 16 bytes per row.
func (emu *EMU) DumpMemory(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for row := 0; row < MemorySize; row += 16 {
		fmt.Fprintf(bw, "%06x: ", row)
		for _, b := range emu.memory[row : row+16] {
			fmt.Fprintf(bw, "%02x ", b)
		}
		bw.WriteByte(' ')
		for _, b := range emu.memory[row : row+16] {
			if b >= 0x20 && b < 0x7F {
				bw.WriteByte(b)
			} else {
				bw.WriteByte('.')
			}
		}
		bw.WriteByte('\n')
	}
	bw.WriteByte('\n')
	return bw.Flush()
}

// DumpRegisters writes keys, timers, opcode, I, pc, V0-VF, sp and the stack.
func (emu *EMU) DumpRegisters(w io.Writer) error {
	bw := bufio.NewWriter(w)

	bw.WriteString("Keys: \t\t")
	for _, pressed := range emu.keyState {
		if pressed {
			bw.WriteByte('1')
		} else {
			bw.WriteByte('0')
		}
	}
	bw.WriteByte('\n')

	fmt.Fprintf(bw, "Delay timer: \t%d\n", emu.delayTimer)
	fmt.Fprintf(bw, "Sound timer: \t%d\n", emu.soundTimer)
	fmt.Fprintf(bw, "Opcode: \t%04x\n", emu.opcode)
	fmt.Fprintf(bw, "I: \t\t%04x\n", emu.I)
	fmt.Fprintf(bw, "pc: \t\t%04x\n", emu.pc)

	bw.WriteString("VReg: \t\t")
	for i := 0; i < numRegisters; i++ {
		if i == numRegisters/2 {
			bw.WriteString("\n\t\t")
		}
		fmt.Fprintf(bw, "V%X: %02x  ", i, emu.V[i])
	}
	bw.WriteByte('\n')
	fmt.Fprintf(bw, "sp: \t\t%02x\n", emu.sp)

	bw.WriteString("stack: \t\t")
	for i := 0; i < stackSize; i++ {
		if i == stackSize/2 {
			bw.WriteString("\n\t\t")
		}
		fmt.Fprintf(bw, "%04x ", emu.stack[i])
	}
	bw.WriteString("\n\n")
	return bw.Flush()
}
