package bit

import (
	"testing"
)

func TestCombine(t *testing.T) {
	tests := []struct {
		high, low uint8
		expected  uint16
	}{
		{0xAB, 0xCD, 0xABCD},
		{0x00, 0x00, 0x0000},
		{0xFF, 0xFF, 0xFFFF},
		{0x12, 0x34, 0x1234},
	}

	for _, tt := range tests {
		result := Combine(tt.high, tt.low)
		if result != tt.expected {
			t.Errorf("Combine(%X, %X) = %X; want %X", tt.high, tt.low, result, tt.expected)
		}
	}
}

func TestCheckedAdd(t *testing.T) {
	tests := []struct {
		a, b             uint8
		expectedResult   uint8
		expectedOverflow bool
	}{
		{0b11111111, 0b00000001, 0, true},
		{0b11111111, 0b11111111, 254, true},
		{0b00000001, 0b00000001, 2, false},
		{0b10000000, 0b00000000, 128, false},
	}

	for _, tt := range tests {
		result, overflow := CheckedAdd(tt.a, tt.b)
		if result != tt.expectedResult || overflow != tt.expectedOverflow {
			t.Errorf("CheckedAdd(%d, %d) = (%d, %v); want (%d, %v)", tt.a, tt.b, result, overflow, tt.expectedResult, tt.expectedOverflow)
		}
	}
}

func TestCheckedSub(t *testing.T) {
	tests := []struct {
		a, b           uint8
		expectedResult uint8
		expectedBorrow bool
	}{
		{0b00000000, 0b00000001, 255, true},
		{0b00000001, 0b00000001, 0, false},
		{0b10000000, 0b00000000, 128, false},
		{0b11111111, 0b11111111, 0, false},
	}

	for _, tt := range tests {
		result, borrow := CheckedSub(tt.a, tt.b)
		if result != tt.expectedResult || borrow != tt.expectedBorrow {
			t.Errorf("CheckedSub(%d, %d) = (%d, %v); want (%d, %v)", tt.a, tt.b, result, borrow, tt.expectedResult, tt.expectedBorrow)
		}
	}
}

func TestIsSet(t *testing.T) {
	tests := []struct {
		index, value uint8
		expected     bool
	}{
		{0, 0b00000001, true},
		{0, 0b00000010, false},
		{7, 0b10000000, true},
		{7, 0b01111111, false},
		{3, 0b00001000, true},
	}

	for _, tt := range tests {
		result := IsSet(tt.index, tt.value)
		if result != tt.expected {
			t.Errorf("IsSet(%d, %08b) = %v; want %v", tt.index, tt.value, result, tt.expected)
		}
	}
}
