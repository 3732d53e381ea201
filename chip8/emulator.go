package chip8

import (
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/valerio/go-chip8/chip8/input"
	"github.com/valerio/go-chip8/chip8/timing"
	"github.com/valerio/go-chip8/chip8/video"
)

// snapshotBuffer is the frame channel capacity. Snapshot delivery is
// drop-oldest, so a slow consumer only ever costs stale frames, never
// engine stalls.
const snapshotBuffer = 2

// Config holds emulator options.
type Config struct {
	// CycleRate is the instruction execution rate in Hz. Zero selects
	// timing.DefaultCycleRate.
	CycleRate int
	// Limiter overrides cycle pacing when set; headless runs pass a
	// no-op limiter to execute at full speed.
	Limiter timing.Limiter
}

// Emulator drives the machine cycle loop and owns all machine state.
// It communicates with the presentation loop only through the frames
// channel (outward) and the stop signal (inward); the keypad is shared
// key-line state written by the input backend.
type Emulator struct {
	machine *Machine
	keypad  *input.Keypad
	rom     []byte

	frames   chan video.Snapshot
	stop     chan struct{}
	stopOnce sync.Once

	limiter      timing.Limiter
	ownedLimiter *timing.TickerLimiter

	started      atomic.Bool
	pauseRequest atomic.Bool
	resetRequest atomic.Bool
	soundActive  atomic.Bool
	machineState atomic.Int32

	instructionCount atomic.Uint64
	frameCount       atomic.Uint64
}

// New creates an emulator with an empty machine.
func New(cfg Config) *Emulator {
	e := &Emulator{
		keypad: input.NewKeypad(),
		frames: make(chan video.Snapshot, snapshotBuffer),
		stop:   make(chan struct{}),
	}
	e.machine = NewMachine(e.keypad)

	if cfg.Limiter != nil {
		e.limiter = cfg.Limiter
	} else {
		e.ownedLimiter = timing.NewTickerLimiter(cfg.CycleRate)
		e.limiter = e.ownedLimiter
	}

	return e
}

// NewWithFile creates an emulator and loads the ROM at path into it.
func NewWithFile(path string, cfg Config) (*Emulator, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading ROM: %w", err)
	}

	e := New(cfg)
	if err := e.LoadROM(data); err != nil {
		return nil, err
	}

	slog.Info("Loaded ROM", "path", path, "bytes", len(data))
	return e, nil
}

// LoadROM loads a program into the machine and remembers it for resets.
func (e *Emulator) LoadROM(rom []byte) error {
	if err := e.machine.LoadROM(rom); err != nil {
		return err
	}
	e.rom = append(e.rom[:0], rom...)
	return nil
}

// Keypad returns the shared keypad the input backend writes to.
func (e *Emulator) Keypad() *input.Keypad {
	return e.keypad
}

// Frames returns the snapshot channel the presentation loop consumes.
// Delivery is latest-wins; consumers may skip frames freely.
func (e *Emulator) Frames() <-chan video.Snapshot {
	return e.frames
}

// Stop requests cooperative shutdown. Safe to call from any goroutine,
// any number of times.
func (e *Emulator) Stop() {
	e.stopOnce.Do(func() { close(e.stop) })
}

// TogglePause requests a Running<->Paused transition, applied by the
// engine at the next cycle boundary.
func (e *Emulator) TogglePause() {
	e.pauseRequest.Store(true)
}

// RequestReset asks the engine to restore power-on state and reload the
// current ROM, applied at the next cycle boundary.
func (e *Emulator) RequestReset() {
	e.resetRequest.Store(true)
}

// SoundActive reports whether the sound timer is running. Safe to call
// from the audio goroutine.
func (e *Emulator) SoundActive() bool {
	return e.soundActive.Load()
}

// State returns the machine lifecycle state as last published by the
// engine. Safe to call from any goroutine.
func (e *Emulator) State() State {
	return State(e.machineState.Load())
}

// setState applies a lifecycle transition on the machine and publishes
// it for cross-goroutine observers.
func (e *Emulator) setState(s State) {
	e.machine.setState(s)
	e.machineState.Store(int32(s))
}

// InstructionCount returns the number of instructions executed so far.
func (e *Emulator) InstructionCount() uint64 {
	return e.instructionCount.Load()
}

// FrameCount returns the number of snapshots emitted so far.
func (e *Emulator) FrameCount() uint64 {
	return e.frameCount.Load()
}

// Run executes the machine cycle loop until the stop signal is raised or
// a fatal machine error occurs. Run is single-use: it owns and finally
// closes the frames channel, so a finished emulator cannot be restarted.
// Run blocks and should be invoked on its own goroutine.
func (e *Emulator) Run() error {
	if e.started.Swap(true) {
		return fmt.Errorf("machine is %s, emulator already started", e.State())
	}

	e.setState(Running)
	defer e.setState(Stopped)

	// The engine is the only sender, so it closes the channel to signal
	// natural termination to the presentation loop.
	defer close(e.frames)

	if e.ownedLimiter != nil {
		defer e.ownedLimiter.Stop()
	}

	// The engine goroutine owns the timers: FX07/FX15/FX18 access and the
	// 60Hz decrement all happen here, so no synchronization is needed.
	// Decrements are scheduled by elapsed wall time rather than a ticker
	// channel, which only buffers one tick: a cycle rate below 60Hz must
	// still produce every 60Hz decrement, catching up within one cycle.
	timerPeriod := timing.TimerPeriod()
	lastTimerTick := time.Now()

	slog.Info("Starting emulation", "pc", fmt.Sprintf("0x%04X", e.machine.PC()))

	for {
		select {
		case <-e.stop:
			slog.Info("Stop signal received", "instructions", e.instructionCount.Load())
			return nil
		default:
		}

		e.limiter.WaitForNextCycle()

		// Timer decrement happens on its own fixed cadence, regardless of
		// pause state, an in-progress key wait, or the instruction rate.
		now := time.Now()
		for now.Sub(lastTimerTick) >= timerPeriod {
			e.machine.TickTimers()
			lastTimerTick = lastTimerTick.Add(timerPeriod)
		}

		if e.resetRequest.Swap(false) {
			e.machine.Reset()
			e.keypad.ReleaseAll()
			if err := e.machine.LoadROM(e.rom); err != nil {
				return err
			}
			e.setState(Running)
			slog.Info("Machine reset")
		}

		if e.pauseRequest.Swap(false) {
			switch e.machine.State() {
			case Running:
				e.setState(Paused)
				slog.Info("Paused")
			case Paused:
				e.setState(Running)
				e.limiter.Reset()
				slog.Info("Resumed")
			}
		}

		if e.machine.State() == Paused {
			e.soundActive.Store(e.machine.SoundActive())
			continue
		}

		if e.machine.pollWaitKey() {
			// Key wait blocks instruction progress only.
			e.soundActive.Store(e.machine.SoundActive())
			continue
		}

		if err := e.machine.Step(); err != nil {
			slog.Error("Execution halted",
				"error", err,
				"pc", fmt.Sprintf("0x%04X", e.machine.PC()),
				"instructions", e.instructionCount.Load())
			return err
		}
		e.instructionCount.Add(1)
		e.soundActive.Store(e.machine.SoundActive())

		if fb := e.machine.FrameBuffer(); fb.Dirty() {
			e.emit(fb.Snapshot())
			fb.ClearDirty()
			e.frameCount.Add(1)
		}
	}
}

// emit delivers a snapshot without ever blocking the engine: when the
// channel is full the oldest frame is dropped in favor of the new one.
func (e *Emulator) emit(s video.Snapshot) {
	for {
		select {
		case e.frames <- s:
			return
		default:
			select {
			case <-e.frames:
			default:
			}
		}
	}
}
