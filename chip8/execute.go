package chip8

import (
	"github.com/valerio/go-chip8/chip8/bit"
	"github.com/valerio/go-chip8/chip8/video"
)

const instructionSize = 2

// Step runs one fetch-decode-execute cycle. Any returned error is fatal
// and leaves the machine state exactly as it was before the faulting
// instruction.
func (m *Machine) Step() error {
	if int(m.pc)+1 >= MemorySize {
		return AddressError{Address: uint32(m.pc)}
	}

	ins := Decode(m.memory[m.pc], m.memory[m.pc+1])
	return m.Execute(ins)
}

// Execute applies a single decoded instruction to the machine state.
// Every branch that does not set PC itself advances it by 2; skip
// instructions advance by 4 when their condition holds.
func (m *Machine) Execute(ins Instruction) error {
	x, y := ins.X, ins.Y

	switch ins.Op {
	case OpClearScreen:
		m.fb.Clear()
		m.pc += instructionSize

	case OpReturn:
		address, err := m.popStack()
		if err != nil {
			return err
		}
		m.pc = address

	case OpJump:
		m.pc = ins.NNN

	case OpCall:
		if err := m.pushStack(m.pc + instructionSize); err != nil {
			return err
		}
		m.pc = ins.NNN

	case OpSkipEqualByte:
		m.skipIf(m.v[x] == ins.NN)

	case OpSkipNotEqualByte:
		m.skipIf(m.v[x] != ins.NN)

	case OpSkipEqual:
		m.skipIf(m.v[x] == m.v[y])

	case OpLoadByte:
		m.v[x] = ins.NN
		m.pc += instructionSize

	case OpAddByte:
		// wraps, VF untouched
		m.v[x] += ins.NN
		m.pc += instructionSize

	case OpMove:
		m.v[x] = m.v[y]
		m.pc += instructionSize

	case OpOr:
		m.v[x] |= m.v[y]
		m.pc += instructionSize

	case OpAnd:
		m.v[x] &= m.v[y]
		m.pc += instructionSize

	case OpXor:
		m.v[x] ^= m.v[y]
		m.pc += instructionSize

	case OpAdd:
		result, carry := bit.CheckedAdd(m.v[x], m.v[y])
		m.v[x] = result
		m.setFlag(carry)
		m.pc += instructionSize

	case OpSub:
		result, borrow := bit.CheckedSub(m.v[x], m.v[y])
		m.v[x] = result
		m.setFlag(!borrow)
		m.pc += instructionSize

	case OpShiftRight:
		lsb := m.v[x] & 0x01
		m.v[x] >>= 1
		m.v[0xF] = lsb
		m.pc += instructionSize

	case OpSubReverse:
		result, borrow := bit.CheckedSub(m.v[y], m.v[x])
		m.v[x] = result
		m.setFlag(!borrow)
		m.pc += instructionSize

	case OpShiftLeft:
		msb := (m.v[x] >> 7) & 0x01
		m.v[x] <<= 1
		m.v[0xF] = msb
		m.pc += instructionSize

	case OpSkipNotEqual:
		m.skipIf(m.v[x] != m.v[y])

	case OpLoadIndex:
		m.i = ins.NNN
		m.pc += instructionSize

	case OpJumpOffset:
		m.pc = ins.NNN + uint16(m.v[0x0])

	case OpRandom:
		m.v[x] = m.randByte() & ins.NN
		m.pc += instructionSize

	case OpDraw:
		if err := m.drawSprite(m.v[x], m.v[y], ins.N); err != nil {
			return err
		}
		m.pc += instructionSize

	case OpSkipKeyPressed:
		m.skipIf(m.keypad.Pressed(m.v[x] & 0xF))

	case OpSkipKeyNotPressed:
		m.skipIf(!m.keypad.Pressed(m.v[x] & 0xF))

	case OpLoadDelay:
		m.v[x] = m.delayTimer
		m.pc += instructionSize

	case OpWaitKey:
		// Blocks instruction progress only; PC stays on this instruction
		// and the cycle loop completes the wait when a key arrives. The
		// 60Hz timer clock keeps running.
		m.waitRegister = int(x)

	case OpSetDelay:
		m.delayTimer = m.v[x]
		m.pc += instructionSize

	case OpSetSound:
		m.soundTimer = m.v[x]
		m.pc += instructionSize

	case OpAddIndex:
		// VF untouched
		m.i += uint16(m.v[x])
		m.pc += instructionSize

	case OpLoadGlyph:
		m.i = glyphAddress(m.v[x])
		m.pc += instructionSize

	case OpStoreBCD:
		if int(m.i)+2 >= MemorySize {
			return AddressError{Address: uint32(m.i) + 2}
		}
		m.memory[m.i] = m.v[x] / 100
		m.memory[m.i+1] = (m.v[x] / 10) % 10
		m.memory[m.i+2] = m.v[x] % 10
		m.pc += instructionSize

	case OpStoreRegisters:
		if int(m.i)+int(x) >= MemorySize {
			return AddressError{Address: uint32(m.i) + uint32(x)}
		}
		for offset := uint8(0); offset <= x; offset++ {
			m.memory[m.i+uint16(offset)] = m.v[offset]
		}
		m.pc += instructionSize

	case OpLoadRegisters:
		if int(m.i)+int(x) >= MemorySize {
			return AddressError{Address: uint32(m.i) + uint32(x)}
		}
		for offset := uint8(0); offset <= x; offset++ {
			m.v[offset] = m.memory[m.i+uint16(offset)]
		}
		m.pc += instructionSize

	default:
		return InvalidOpcodeError{PC: m.pc, Opcode: ins.Word}
	}

	return nil
}

// skipIf advances PC past the next instruction when the condition holds.
func (m *Machine) skipIf(condition bool) {
	if condition {
		m.pc += 2 * instructionSize
	} else {
		m.pc += instructionSize
	}
}

// setFlag writes the carry/borrow flag register VF.
func (m *Machine) setFlag(set bool) {
	if set {
		m.v[0xF] = 1
	} else {
		m.v[0xF] = 0
	}
}

// drawSprite XORs an 8xN sprite read from memory[I..] onto the display at
// (startX, startY). The origin wraps around the screen; rows and columns
// past the edge are clipped. VF is set when any lit pixel is cleared.
func (m *Machine) drawSprite(startX, startY, height uint8) error {
	if int(m.i)+int(height) > MemorySize {
		return AddressError{Address: uint32(m.i) + uint32(height) - 1}
	}

	originX := int(startX) % video.FramebufferWidth
	originY := int(startY) % video.FramebufferHeight

	collision := false
	for row := 0; row < int(height); row++ {
		py := originY + row
		if py >= video.FramebufferHeight {
			break
		}
		line := m.memory[m.i+uint16(row)]
		for col := 0; col < 8; col++ {
			if !bit.IsSet(uint8(7-col), line) {
				continue
			}
			px := originX + col
			if px >= video.FramebufferWidth {
				break
			}
			if m.fb.FlipPixel(px, py) {
				collision = true
			}
		}
	}

	m.setFlag(collision)
	m.fb.MarkDirty()
	return nil
}
