package action

// Action represents input actions that can be performed in the emulator
type Action int

const (
	// CHIP-8 keypad lines, 0x0 through 0xF
	Key0 Action = iota
	Key1
	Key2
	Key3
	Key4
	Key5
	Key6
	Key7
	Key8
	Key9
	KeyA
	KeyB
	KeyC
	KeyD
	KeyE
	KeyF

	// Emulator features
	EmulatorPauseToggle
	EmulatorReset
	EmulatorQuit
)

// Category groups actions by how backends should deliver them.
type Category int

const (
	// CategoryGameInput covers the 16 keypad lines; backends track these
	// with press/release (or timed expiry) semantics.
	CategoryGameInput Category = iota
	// CategoryControl covers emulator controls delivered as one-shot events.
	CategoryControl
)

// Info describes an action for backends and logging.
type Info struct {
	Category    Category
	Description string
}

var infoTable = map[Action]Info{
	Key0: {CategoryGameInput, "keypad 0"},
	Key1: {CategoryGameInput, "keypad 1"},
	Key2: {CategoryGameInput, "keypad 2"},
	Key3: {CategoryGameInput, "keypad 3"},
	Key4: {CategoryGameInput, "keypad 4"},
	Key5: {CategoryGameInput, "keypad 5"},
	Key6: {CategoryGameInput, "keypad 6"},
	Key7: {CategoryGameInput, "keypad 7"},
	Key8: {CategoryGameInput, "keypad 8"},
	Key9: {CategoryGameInput, "keypad 9"},
	KeyA: {CategoryGameInput, "keypad A"},
	KeyB: {CategoryGameInput, "keypad B"},
	KeyC: {CategoryGameInput, "keypad C"},
	KeyD: {CategoryGameInput, "keypad D"},
	KeyE: {CategoryGameInput, "keypad E"},
	KeyF: {CategoryGameInput, "keypad F"},

	EmulatorPauseToggle: {CategoryControl, "pause/resume"},
	EmulatorReset:       {CategoryControl, "reset"},
	EmulatorQuit:        {CategoryControl, "quit"},
}

// GetInfo returns descriptive info for an action.
func GetInfo(act Action) Info {
	return infoTable[act]
}

// KeypadLine returns the keypad line (0x0-0xF) for a keypad action.
// The second return value is false for non-keypad actions.
func KeypadLine(act Action) (uint8, bool) {
	if act >= Key0 && act <= KeyF {
		return uint8(act - Key0), true
	}
	return 0, false
}
