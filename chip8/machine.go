package chip8

import (
	"math/rand"

	"github.com/valerio/go-chip8/chip8/input"
	"github.com/valerio/go-chip8/chip8/video"
)

const (
	// MemorySize is the full CHIP-8 address space.
	MemorySize = 4096
	// ProgramStart is where ROMs are loaded and where PC starts.
	ProgramStart = 0x200
	// MaxROMSize is the largest ROM that fits in the program area.
	MaxROMSize = MemorySize - ProgramStart
	// StackSize is the call stack capacity in return addresses.
	StackSize = 16
	// NumRegisters is the number of general purpose registers V0-VF.
	NumRegisters = 16
)

// State is the engine lifecycle state. Stopped is terminal for a run;
// Reset is required before the machine can run again.
type State int

const (
	Stopped State = iota
	Running
	Paused
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Paused:
		return "paused"
	default:
		return "stopped"
	}
}

const noWaitRegister = -1

// Machine is the CHIP-8 machine state: address space, registers, stack,
// timers, keypad and framebuffer. All structures are fixed-size; a Machine
// is constructed once and Reset between runs. The cycle loop is the only
// mutator, except the keypad which the input backend writes.
type Machine struct {
	memory [MemorySize]byte
	v      [NumRegisters]uint8
	i      uint16
	pc     uint16
	stack  [StackSize]uint16
	sp     uint8

	delayTimer uint8
	soundTimer uint8

	state State

	// waitRegister is the destination register of an in-progress FX0A
	// key wait, or noWaitRegister when not waiting.
	waitRegister int

	fb     *video.FrameBuffer
	keypad *input.Keypad

	randByte func() uint8
}

// NewMachine creates a machine with power-on defaults and the font table
// loaded below the program area.
func NewMachine(keypad *input.Keypad) *Machine {
	m := &Machine{
		fb:       video.NewFrameBuffer(),
		keypad:   keypad,
		randByte: func() uint8 { return uint8(rand.Intn(256)) },
	}
	m.Reset()
	return m
}

// Reset restores power-on defaults: memory cleared except for the font
// table, PC at the program start, empty stack, timers and display cleared.
func (m *Machine) Reset() {
	m.memory = [MemorySize]byte{}
	copy(m.memory[FontStart:], fontset[:])
	m.v = [NumRegisters]uint8{}
	m.i = 0
	m.pc = ProgramStart
	m.stack = [StackSize]uint16{}
	m.sp = 0
	m.delayTimer = 0
	m.soundTimer = 0
	m.state = Stopped
	m.waitRegister = noWaitRegister
	m.fb.Clear()
}

// LoadROM copies the ROM bytes into memory at the program start address.
// Oversized ROMs are rejected, never truncated.
func (m *Machine) LoadROM(rom []byte) error {
	if len(rom) > MaxROMSize {
		return ROMTooLargeError{Size: len(rom), Max: MaxROMSize}
	}
	copy(m.memory[ProgramStart:], rom)
	return nil
}

// TickTimers decrements both timers toward zero. Called at a fixed 60Hz
// cadence, independent of the instruction rate.
func (m *Machine) TickTimers() {
	if m.delayTimer > 0 {
		m.delayTimer--
	}
	if m.soundTimer > 0 {
		m.soundTimer--
	}
}

// SoundActive reports whether the sound timer is running, which is when
// the audio collaborator should play a tone.
func (m *Machine) SoundActive() bool {
	return m.soundTimer > 0
}

// State returns the current lifecycle state.
func (m *Machine) State() State {
	return m.state
}

// PC returns the current program counter.
func (m *Machine) PC() uint16 {
	return m.pc
}

// FrameBuffer returns the machine's display state.
func (m *Machine) FrameBuffer() *video.FrameBuffer {
	return m.fb
}

// ReadByte returns the byte at the given address, bounds-checked.
func (m *Machine) ReadByte(address uint16) (byte, error) {
	if int(address) >= MemorySize {
		return 0, AddressError{Address: uint32(address)}
	}
	return m.memory[address], nil
}

// WriteByte stores a byte at the given address, bounds-checked.
func (m *Machine) WriteByte(address uint16, value byte) error {
	if int(address) >= MemorySize {
		return AddressError{Address: uint32(address)}
	}
	m.memory[address] = value
	return nil
}

// pushStack records a return address. A push past capacity is fatal.
func (m *Machine) pushStack(address uint16) error {
	if int(m.sp) >= StackSize {
		return StackOverflowError{PC: m.pc}
	}
	m.stack[m.sp] = address
	m.sp++
	return nil
}

// popStack returns the most recent return address. A pop of an empty
// stack is fatal.
func (m *Machine) popStack() (uint16, error) {
	if m.sp == 0 {
		return 0, StackUnderflowError{PC: m.pc}
	}
	m.sp--
	return m.stack[m.sp], nil
}

func (m *Machine) setState(s State) {
	m.state = s
}

// waiting reports whether an FX0A key wait is in progress.
func (m *Machine) waiting() bool {
	return m.waitRegister != noWaitRegister
}

// pollWaitKey completes an in-progress FX0A wait if a key is held,
// storing the key in the destination register and resuming instruction
// progress. Returns true if the machine is still waiting.
func (m *Machine) pollWaitKey() bool {
	if !m.waiting() {
		return false
	}
	if key, ok := m.keypad.FirstPressed(); ok {
		m.v[m.waitRegister] = key
		m.waitRegister = noWaitRegister
		m.pc += 2
		return false
	}
	return true
}
