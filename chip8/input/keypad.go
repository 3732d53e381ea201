package input

import "sync"

// NumKeys is the number of keypad lines on a CHIP-8 machine.
const NumKeys = 16

// Keypad holds the state of the 16 hexadecimal keys. It is written by the
// presentation backend and sampled by the engine, so access is guarded.
type Keypad struct {
	mu   sync.RWMutex
	keys [NumKeys]bool
}

// NewKeypad creates a keypad with all keys released.
func NewKeypad() *Keypad {
	return &Keypad{}
}

// Press marks the key line as held. Lines outside 0x0-0xF are ignored.
func (k *Keypad) Press(line uint8) {
	if line >= NumKeys {
		return
	}
	k.mu.Lock()
	k.keys[line] = true
	k.mu.Unlock()
}

// Release marks the key line as released. Lines outside 0x0-0xF are ignored.
func (k *Keypad) Release(line uint8) {
	if line >= NumKeys {
		return
	}
	k.mu.Lock()
	k.keys[line] = false
	k.mu.Unlock()
}

// Pressed reports whether the key line is currently held.
func (k *Keypad) Pressed(line uint8) bool {
	if line >= NumKeys {
		return false
	}
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.keys[line]
}

// FirstPressed returns the lowest-numbered held key, if any.
func (k *Keypad) FirstPressed() (uint8, bool) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	for line := uint8(0); line < NumKeys; line++ {
		if k.keys[line] {
			return line, true
		}
	}
	return 0, false
}

// ReleaseAll clears every key line, used on reset.
func (k *Keypad) ReleaseAll() {
	k.mu.Lock()
	k.keys = [NumKeys]bool{}
	k.mu.Unlock()
}
