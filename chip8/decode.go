package chip8

import "github.com/valerio/go-chip8/chip8/bit"

// Op identifies one of the CHIP-8 instructions. Decoding produces a value
// of this closed set; bit patterns matching nothing decode to OpUnknown.
type Op int

const (
	OpUnknown Op = iota

	OpClearScreen // 00E0
	OpReturn      // 00EE

	OpJump             // 1NNN
	OpCall             // 2NNN
	OpSkipEqualByte    // 3XNN
	OpSkipNotEqualByte // 4XNN
	OpSkipEqual        // 5XY0
	OpLoadByte         // 6XNN
	OpAddByte          // 7XNN

	OpMove       // 8XY0
	OpOr         // 8XY1
	OpAnd        // 8XY2
	OpXor        // 8XY3
	OpAdd        // 8XY4
	OpSub        // 8XY5
	OpShiftRight // 8XY6
	OpSubReverse // 8XY7
	OpShiftLeft  // 8XYE

	OpSkipNotEqual // 9XY0
	OpLoadIndex    // ANNN
	OpJumpOffset   // BNNN
	OpRandom       // CXNN
	OpDraw         // DXYN

	OpSkipKeyPressed    // EX9E
	OpSkipKeyNotPressed // EXA1

	OpLoadDelay      // FX07
	OpWaitKey        // FX0A
	OpSetDelay       // FX15
	OpSetSound       // FX18
	OpAddIndex       // FX1E
	OpLoadGlyph      // FX29
	OpStoreBCD       // FX33
	OpStoreRegisters // FX55
	OpLoadRegisters  // FX65
)

// Instruction is a decoded instruction word with its standard fields
// extracted. Only the fields relevant to Op carry meaning.
type Instruction struct {
	Op   Op
	Word uint16 // full big-endian instruction word

	X   uint8  // bits 8-11
	Y   uint8  // bits 4-7
	N   uint8  // bits 0-3
	NN  uint8  // bits 0-7
	NNN uint16 // bits 0-11
}

// Decode forms a 16-bit instruction word out of the two bytes at PC and
// PC+1 and classifies it. Unrecognized patterns yield an OpUnknown
// instruction carrying the raw word.
func Decode(hi, lo byte) Instruction {
	word := bit.Combine(hi, lo)

	ins := Instruction{
		Op:   OpUnknown,
		Word: word,
		X:    uint8(word >> 8 & 0xF),
		Y:    uint8(word >> 4 & 0xF),
		N:    uint8(word & 0xF),
		NN:   uint8(word & 0xFF),
		NNN:  word & 0xFFF,
	}

	switch word >> 12 {
	case 0x0:
		switch word {
		case 0x00E0:
			ins.Op = OpClearScreen
		case 0x00EE:
			ins.Op = OpReturn
		}
	case 0x1:
		ins.Op = OpJump
	case 0x2:
		ins.Op = OpCall
	case 0x3:
		ins.Op = OpSkipEqualByte
	case 0x4:
		ins.Op = OpSkipNotEqualByte
	case 0x5:
		if ins.N == 0 {
			ins.Op = OpSkipEqual
		}
	case 0x6:
		ins.Op = OpLoadByte
	case 0x7:
		ins.Op = OpAddByte
	case 0x8:
		switch ins.N {
		case 0x0:
			ins.Op = OpMove
		case 0x1:
			ins.Op = OpOr
		case 0x2:
			ins.Op = OpAnd
		case 0x3:
			ins.Op = OpXor
		case 0x4:
			ins.Op = OpAdd
		case 0x5:
			ins.Op = OpSub
		case 0x6:
			ins.Op = OpShiftRight
		case 0x7:
			ins.Op = OpSubReverse
		case 0xE:
			ins.Op = OpShiftLeft
		}
	case 0x9:
		if ins.N == 0 {
			ins.Op = OpSkipNotEqual
		}
	case 0xA:
		ins.Op = OpLoadIndex
	case 0xB:
		ins.Op = OpJumpOffset
	case 0xC:
		ins.Op = OpRandom
	case 0xD:
		ins.Op = OpDraw
	case 0xE:
		switch ins.NN {
		case 0x9E:
			ins.Op = OpSkipKeyPressed
		case 0xA1:
			ins.Op = OpSkipKeyNotPressed
		}
	case 0xF:
		switch ins.NN {
		case 0x07:
			ins.Op = OpLoadDelay
		case 0x0A:
			ins.Op = OpWaitKey
		case 0x15:
			ins.Op = OpSetDelay
		case 0x18:
			ins.Op = OpSetSound
		case 0x1E:
			ins.Op = OpAddIndex
		case 0x29:
			ins.Op = OpLoadGlyph
		case 0x33:
			ins.Op = OpStoreBCD
		case 0x55:
			ins.Op = OpStoreRegisters
		case 0x65:
			ins.Op = OpLoadRegisters
		}
	}

	return ins
}
