package backend

import (
	"github.com/valerio/go-chip8/chip8/input"
	"github.com/valerio/go-chip8/chip8/input/action"
	"github.com/valerio/go-chip8/chip8/input/event"
	"github.com/valerio/go-chip8/chip8/video"
)

// InputEvent is a translated platform input, returned by Update for the
// caller to dispatch through the input manager.
type InputEvent struct {
	Action action.Action
	Type   event.Type
}

// Backend represents a complete presentation platform (rendering + input).
// Backends are responsible for:
// - Rendering snapshots to their specific output (terminal, SDL window, etc.)
// - Translating platform-specific input events to Actions
// - Handling backend-specific features (snapshots, debug overlays)
type Backend interface {
	// Init configures the backend with the provided configuration.
	// This is a required step before calling Update.
	Init(config Config) error

	// Update renders the given snapshot and polls platform events,
	// returning any input events collected since the last call.
	Update(frame video.Snapshot) ([]InputEvent, error)

	// Cleanup resources when shutting down
	Cleanup() error
}

// Config holds configuration for backends
type Config struct {
	Title        string
	Scale        int
	ShowDebug    bool           // Backends may ignore unsupported features
	Callbacks    Callbacks      // Callbacks for backend communication
	InputManager *input.Manager // Shared input manager for unified input handling
}

// Callbacks allows backends to observe and signal the emulator
type Callbacks struct {
	// OnQuit is invoked when the backend requests shutdown (e.g. window close)
	OnQuit func()

	// SoundActive reports whether the sound timer is running; backends
	// with an audio capability play a tone while it returns true.
	SoundActive func() bool

	// DebugState returns a line of machine diagnostics for display,
	// optional.
	DebugState func() string
}
