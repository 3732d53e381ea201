package chip8

import "fmt"

// InvalidOpcodeError reports an instruction word that matches no known
// pattern. Execution halts; the machine state is left untouched so the
// faulting PC and word can be inspected.
type InvalidOpcodeError struct {
	PC     uint16
	Opcode uint16
}

func (e InvalidOpcodeError) Error() string {
	return fmt.Sprintf("invalid opcode 0x%04X at address 0x%04X", e.Opcode, e.PC)
}

// AddressError reports a memory or sprite read/write outside the 4KB
// address space.
type AddressError struct {
	Address uint32
}

func (e AddressError) Error() string {
	return fmt.Sprintf("address 0x%04X out of range", e.Address)
}

// StackOverflowError reports a CALL past the stack capacity.
type StackOverflowError struct {
	PC uint16
}

func (e StackOverflowError) Error() string {
	return fmt.Sprintf("stack overflow on call at address 0x%04X", e.PC)
}

// StackUnderflowError reports a RET with an empty stack.
type StackUnderflowError struct {
	PC uint16
}

func (e StackUnderflowError) Error() string {
	return fmt.Sprintf("stack underflow on return at address 0x%04X", e.PC)
}

// ROMTooLargeError reports a ROM that does not fit between the program
// start address and the end of memory.
type ROMTooLargeError struct {
	Size int
	Max  int
}

func (e ROMTooLargeError) Error() string {
	return fmt.Sprintf("ROM size %d exceeds maximum of %d bytes", e.Size, e.Max)
}
