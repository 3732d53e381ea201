package chip8

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// exec decodes and executes a single instruction word.
func exec(t *testing.T, m *Machine, word uint16) {
	t.Helper()
	require.NoError(t, m.Execute(Decode(byte(word>>8), byte(word))))
}

func execErr(m *Machine, word uint16) error {
	return m.Execute(Decode(byte(word>>8), byte(word)))
}

func TestExecute_loadAndAddByte(t *testing.T) {
	m := newTestMachine()

	exec(t, m, 0x6005) // V0 := 5
	assert.Equal(t, uint8(5), m.v[0])
	assert.Equal(t, uint16(ProgramStart+2), m.pc)

	exec(t, m, 0x7003) // V0 += 3
	assert.Equal(t, uint8(8), m.v[0])
	assert.Equal(t, uint16(ProgramStart+4), m.pc)
}

func TestExecute_addByteWrapsWithoutFlag(t *testing.T) {
	m := newTestMachine()
	m.v[0] = 0xFF
	m.v[0xF] = 7

	exec(t, m, 0x7002)

	assert.Equal(t, uint8(0x01), m.v[0])
	// 7XNN never touches the flag register
	assert.Equal(t, uint8(7), m.v[0xF])
}

func TestExecute_registerOps(t *testing.T) {
	testCases := []struct {
		desc  string
		word  uint16
		vx    uint8
		vy    uint8
		want  uint8
		flag  uint8
		flags bool // whether the op defines VF
	}{
		{desc: "move", word: 0x8120, vx: 1, vy: 2, want: 2},
		{desc: "or", word: 0x8121, vx: 0xF0, vy: 0x0F, want: 0xFF},
		{desc: "and", word: 0x8122, vx: 0xF0, vy: 0x3C, want: 0x30},
		{desc: "xor", word: 0x8123, vx: 0xFF, vy: 0x0F, want: 0xF0},
		{desc: "add no carry", word: 0x8124, vx: 10, vy: 20, want: 30, flag: 0, flags: true},
		{desc: "add carry", word: 0x8124, vx: 0xFF, vy: 0x02, want: 0x01, flag: 1, flags: true},
		{desc: "sub no borrow", word: 0x8125, vx: 20, vy: 10, want: 10, flag: 1, flags: true},
		{desc: "sub borrow", word: 0x8125, vx: 10, vy: 20, want: 246, flag: 0, flags: true},
		{desc: "shift right", word: 0x8126, vx: 0x05, want: 0x02, flag: 1, flags: true},
		{desc: "shift right even", word: 0x8126, vx: 0x04, want: 0x02, flag: 0, flags: true},
		{desc: "sub reverse no borrow", word: 0x8127, vx: 10, vy: 20, want: 10, flag: 1, flags: true},
		{desc: "sub reverse borrow", word: 0x8127, vx: 20, vy: 10, want: 246, flag: 0, flags: true},
		{desc: "shift left", word: 0x812E, vx: 0x81, want: 0x02, flag: 1, flags: true},
		{desc: "shift left low", word: 0x812E, vx: 0x41, want: 0x82, flag: 0, flags: true},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			m := newTestMachine()
			m.v[1] = tC.vx
			m.v[2] = tC.vy

			exec(t, m, tC.word)

			assert.Equal(t, tC.want, m.v[1])
			if tC.flags {
				assert.Equal(t, tC.flag, m.v[0xF], "flag register")
			}
			assert.Equal(t, uint16(ProgramStart+2), m.pc)
		})
	}
}

// Exhaustive check of the carry/borrow conventions over every register
// value pair.
func TestExecute_arithmeticFlagsExhaustive(t *testing.T) {
	m := newTestMachine()

	for a := 0; a < 256; a++ {
		for b := 0; b < 256; b++ {
			m.pc = ProgramStart
			m.v[1] = uint8(a)
			m.v[2] = uint8(b)
			exec(t, m, 0x8124) // V1 += V2
			wantCarry := uint8(0)
			if a+b > 255 {
				wantCarry = 1
			}
			require.Equal(t, uint8(a+b), m.v[1], "add result for %d+%d", a, b)
			require.Equal(t, wantCarry, m.v[0xF], "carry for %d+%d", a, b)

			m.pc = ProgramStart
			m.v[1] = uint8(a)
			m.v[2] = uint8(b)
			exec(t, m, 0x8125) // V1 -= V2
			wantNoBorrow := uint8(1)
			if a < b {
				wantNoBorrow = 0
			}
			require.Equal(t, uint8(a-b), m.v[1], "sub result for %d-%d", a, b)
			require.Equal(t, wantNoBorrow, m.v[0xF], "borrow flag for %d-%d", a, b)

			m.pc = ProgramStart
			m.v[1] = uint8(a)
			m.v[2] = uint8(b)
			exec(t, m, 0x8127) // V1 := V2 - V1
			wantNoBorrow = 1
			if b < a {
				wantNoBorrow = 0
			}
			require.Equal(t, uint8(b-a), m.v[1], "reverse sub result for %d-%d", b, a)
			require.Equal(t, wantNoBorrow, m.v[0xF], "borrow flag for %d-%d", b, a)
		}
	}
}

func TestExecute_skips(t *testing.T) {
	testCases := []struct {
		desc string
		word uint16
		prep func(m *Machine)
		skip bool
	}{
		{desc: "3XNN taken", word: 0x3142, prep: func(m *Machine) { m.v[1] = 0x42 }, skip: true},
		{desc: "3XNN not taken", word: 0x3142, prep: func(m *Machine) { m.v[1] = 0x43 }, skip: false},
		{desc: "4XNN taken", word: 0x4142, prep: func(m *Machine) { m.v[1] = 0x43 }, skip: true},
		{desc: "4XNN not taken", word: 0x4142, prep: func(m *Machine) { m.v[1] = 0x42 }, skip: false},
		{desc: "5XY0 taken", word: 0x5120, prep: func(m *Machine) { m.v[1], m.v[2] = 7, 7 }, skip: true},
		{desc: "5XY0 not taken", word: 0x5120, prep: func(m *Machine) { m.v[1], m.v[2] = 7, 8 }, skip: false},
		{desc: "9XY0 taken", word: 0x9120, prep: func(m *Machine) { m.v[1], m.v[2] = 7, 8 }, skip: true},
		// 9XY0 compares register values, not register indices: distinct
		// registers holding equal values must not skip.
		{desc: "9XY0 equal values in distinct registers", word: 0x9120, prep: func(m *Machine) { m.v[1], m.v[2] = 7, 7 }, skip: false},
		{desc: "EX9E taken", word: 0xE19E, prep: func(m *Machine) { m.v[1] = 0x4; m.keypad.Press(0x4) }, skip: true},
		{desc: "EX9E not taken", word: 0xE19E, prep: func(m *Machine) { m.v[1] = 0x4 }, skip: false},
		{desc: "EXA1 taken", word: 0xE1A1, prep: func(m *Machine) { m.v[1] = 0x4 }, skip: true},
		{desc: "EXA1 not taken", word: 0xE1A1, prep: func(m *Machine) { m.v[1] = 0x4; m.keypad.Press(0x4) }, skip: false},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			m := newTestMachine()
			tC.prep(m)

			exec(t, m, tC.word)

			want := uint16(ProgramStart + 2)
			if tC.skip {
				want = ProgramStart + 4
			}
			assert.Equal(t, want, m.pc)
		})
	}
}

func TestExecute_jumpAndCall(t *testing.T) {
	m := newTestMachine()

	exec(t, m, 0x1456)
	assert.Equal(t, uint16(0x456), m.pc)

	exec(t, m, 0x2654)
	assert.Equal(t, uint16(0x654), m.pc)
	assert.Equal(t, uint8(1), m.sp)

	// return lands just past the call site
	exec(t, m, 0x00EE)
	assert.Equal(t, uint16(0x458), m.pc)
	assert.Equal(t, uint8(0), m.sp)
}

func TestExecute_callReturnNesting(t *testing.T) {
	m := newTestMachine()

	callSites := make([]uint16, 0, StackSize)
	for i := 0; i < StackSize; i++ {
		callSites = append(callSites, m.pc)
		exec(t, m, 0x2300)
		assert.Equal(t, uint16(0x300), m.pc)
		m.pc = 0x400 + uint16(i*2) // simulate running inside the subroutine
	}

	err := execErr(m, 0x2300)
	var overflow StackOverflowError
	require.ErrorAs(t, err, &overflow)

	for i := StackSize - 1; i >= 0; i-- {
		exec(t, m, 0x00EE)
		assert.Equal(t, callSites[i]+2, m.pc)
	}
	assert.Equal(t, uint8(0), m.sp)

	err = execErr(m, 0x00EE)
	var underflow StackUnderflowError
	require.ErrorAs(t, err, &underflow)
}

func TestExecute_jumpOffsetUsesProgramCounter(t *testing.T) {
	// BNNN is a jump through V0, not an index register write.
	m := newTestMachine()
	m.v[0] = 0x10
	m.i = 0x111

	exec(t, m, 0xB300)

	assert.Equal(t, uint16(0x310), m.pc)
	assert.Equal(t, uint16(0x111), m.i)
}

func TestExecute_random(t *testing.T) {
	m := newTestMachine() // randByte pinned to 0xAB

	exec(t, m, 0xC10F)
	assert.Equal(t, uint8(0xAB&0x0F), m.v[1])

	exec(t, m, 0xC2FF)
	assert.Equal(t, uint8(0xAB), m.v[2])
}

func TestExecute_index(t *testing.T) {
	m := newTestMachine()

	exec(t, m, 0xA123)
	assert.Equal(t, uint16(0x123), m.i)

	m.v[1] = 0x10
	m.v[0xF] = 7
	exec(t, m, 0xF11E)
	assert.Equal(t, uint16(0x133), m.i)
	// FX1E leaves VF alone
	assert.Equal(t, uint8(7), m.v[0xF])
}

func TestExecute_timers(t *testing.T) {
	m := newTestMachine()
	m.v[1] = 42

	exec(t, m, 0xF115)
	assert.Equal(t, uint8(42), m.delayTimer)

	exec(t, m, 0xF118)
	assert.Equal(t, uint8(42), m.soundTimer)
	assert.True(t, m.SoundActive())

	m.delayTimer = 17
	exec(t, m, 0xF207)
	assert.Equal(t, uint8(17), m.v[2])
}

func TestExecute_loadGlyph(t *testing.T) {
	m := newTestMachine()
	m.v[1] = 0xA

	exec(t, m, 0xF129)

	assert.Equal(t, glyphAddress(0xA), m.i)
}

func TestExecute_storeBCD(t *testing.T) {
	m := newTestMachine()
	m.v[1] = 217
	m.i = 0x300

	exec(t, m, 0xF133)

	assert.Equal(t, byte(2), m.memory[0x300])
	assert.Equal(t, byte(1), m.memory[0x301])
	assert.Equal(t, byte(7), m.memory[0x302])
}

func TestExecute_storeBCD_outOfRange(t *testing.T) {
	m := newTestMachine()
	m.i = MemorySize - 2

	err := execErr(m, 0xF133)

	var addrErr AddressError
	require.ErrorAs(t, err, &addrErr)
	// nothing was written
	assert.Equal(t, byte(0), m.memory[MemorySize-2])
	assert.Equal(t, byte(0), m.memory[MemorySize-1])
}

func TestExecute_storeAndLoadRegisters(t *testing.T) {
	m := newTestMachine()
	for i := uint8(0); i <= 3; i++ {
		m.v[i] = 10 + i
	}
	m.v[4] = 0xEE
	m.i = 0x300

	// V0..V3 inclusive
	exec(t, m, 0xF355)
	assert.Equal(t, byte(10), m.memory[0x300])
	assert.Equal(t, byte(13), m.memory[0x303])
	assert.Equal(t, byte(0), m.memory[0x304], "V4 must not be stored")

	m2 := newTestMachine()
	m2.i = 0x300
	copy(m2.memory[0x300:], []byte{1, 2, 3, 4, 5})
	exec(t, m2, 0xF365)
	assert.Equal(t, uint8(1), m2.v[0])
	assert.Equal(t, uint8(4), m2.v[3])
	assert.Equal(t, uint8(0), m2.v[4], "V4 must not be loaded")
}

func TestExecute_registerTransferOutOfRange(t *testing.T) {
	var addrErr AddressError

	m := newTestMachine()
	m.i = MemorySize - 2
	err := execErr(m, 0xF555)
	require.ErrorAs(t, err, &addrErr)
	assert.Equal(t, byte(0), m.memory[MemorySize-1], "no partial store")

	m = newTestMachine()
	m.i = MemorySize - 2
	err = execErr(m, 0xF565)
	require.ErrorAs(t, err, &addrErr)
}

func TestExecute_clearScreen(t *testing.T) {
	m := newTestMachine()
	m.fb.SetPixel(3, 4, true)
	m.fb.ClearDirty()

	exec(t, m, 0x00E0)

	assert.False(t, m.fb.GetPixel(3, 4))
	assert.True(t, m.fb.Dirty())
	assert.Equal(t, uint16(ProgramStart+2), m.pc)
}

func TestExecute_draw(t *testing.T) {
	m := newTestMachine()
	m.i = 0x300
	m.memory[0x300] = 0b11000000
	m.memory[0x301] = 0b10000000
	m.v[1] = 10
	m.v[2] = 5

	exec(t, m, 0xD122)

	assert.True(t, m.fb.GetPixel(10, 5))
	assert.True(t, m.fb.GetPixel(11, 5))
	assert.True(t, m.fb.GetPixel(10, 6))
	assert.False(t, m.fb.GetPixel(11, 6))
	assert.Equal(t, uint8(0), m.v[0xF], "first draw hits no lit pixels")
	assert.True(t, m.fb.Dirty())

	// XOR drawing is its own inverse; the second draw erases the sprite
	// and reports the collision.
	m.pc = ProgramStart
	exec(t, m, 0xD122)
	assert.False(t, m.fb.GetPixel(10, 5))
	assert.False(t, m.fb.GetPixel(11, 5))
	assert.False(t, m.fb.GetPixel(10, 6))
	assert.Equal(t, uint8(1), m.v[0xF])
}

func TestExecute_drawWrapsOriginAndClips(t *testing.T) {
	m := newTestMachine()
	m.i = 0x300
	m.memory[0x300] = 0xFF
	m.memory[0x301] = 0xFF
	m.v[1] = 62 + 64 // wraps to column 62
	m.v[2] = 31

	exec(t, m, 0xD122)

	// two columns fit, the rest clip off the right edge
	assert.True(t, m.fb.GetPixel(62, 31))
	assert.True(t, m.fb.GetPixel(63, 31))
	assert.False(t, m.fb.GetPixel(0, 31), "clipped columns must not wrap")
	// second row clips off the bottom edge
	assert.False(t, m.fb.GetPixel(62, 0), "clipped rows must not wrap")
}

func TestExecute_drawSpriteOutOfRange(t *testing.T) {
	m := newTestMachine()
	m.i = MemorySize - 1

	err := execErr(m, 0xD122)

	var addrErr AddressError
	require.ErrorAs(t, err, &addrErr)
	assert.False(t, m.fb.Dirty())
}

func TestExecute_waitKey(t *testing.T) {
	m := newTestMachine()

	exec(t, m, 0xF30A)

	// instruction progress stops on the waiting instruction
	assert.True(t, m.waiting())
	assert.Equal(t, uint16(ProgramStart), m.pc)
	assert.True(t, m.pollWaitKey())

	// timers keep running during the wait
	m.delayTimer = 2
	m.TickTimers()
	assert.Equal(t, uint8(1), m.delayTimer)

	m.keypad.Press(0x7)
	assert.False(t, m.pollWaitKey())
	assert.Equal(t, uint8(0x7), m.v[3])
	assert.Equal(t, uint16(ProgramStart+2), m.pc)
	assert.False(t, m.waiting())
}

func TestExecute_invalidOpcode(t *testing.T) {
	m := newTestMachine()
	m.v[5] = 99
	m.i = 0x222
	m.sp = 0

	err := execErr(m, 0xF1FF)

	var invalid InvalidOpcodeError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, uint16(ProgramStart), invalid.PC)
	assert.Equal(t, uint16(0xF1FF), invalid.Opcode)

	// no state mutation as a side effect
	assert.Equal(t, uint16(ProgramStart), m.pc)
	assert.Equal(t, uint8(99), m.v[5])
	assert.Equal(t, uint16(0x222), m.i)
	assert.Equal(t, uint8(0), m.sp)
}

func TestStep_fetchesAtPC(t *testing.T) {
	m := newTestMachine()
	require.NoError(t, m.LoadROM([]byte{0x61, 0x42}))

	require.NoError(t, m.Step())

	assert.Equal(t, uint8(0x42), m.v[1])
	assert.Equal(t, uint16(ProgramStart+2), m.pc)
}

func TestStep_invalidOpcodeReportsPC(t *testing.T) {
	m := newTestMachine()
	require.NoError(t, m.LoadROM([]byte{0x00, 0xE0, 0xFF, 0xFF}))
	require.NoError(t, m.Step())

	err := m.Step()

	var invalid InvalidOpcodeError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, uint16(ProgramStart+2), invalid.PC)
	assert.Equal(t, uint16(0xFFFF), invalid.Opcode)
}

func TestStep_pcOutOfRange(t *testing.T) {
	m := newTestMachine()
	m.pc = MemorySize - 1

	err := m.Step()

	var addrErr AddressError
	require.ErrorAs(t, err, &addrErr)
}
