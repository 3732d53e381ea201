package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/urfave/cli"
	"github.com/valerio/go-chip8/chip8"
	"github.com/valerio/go-chip8/chip8/audio"
	"github.com/valerio/go-chip8/chip8/backend"
	"github.com/valerio/go-chip8/chip8/backend/headless"
	"github.com/valerio/go-chip8/chip8/backend/sdl2"
	"github.com/valerio/go-chip8/chip8/backend/terminal"
	"github.com/valerio/go-chip8/chip8/display"
	"github.com/valerio/go-chip8/chip8/input"
	"github.com/valerio/go-chip8/chip8/input/action"
	"github.com/valerio/go-chip8/chip8/input/event"
	"github.com/valerio/go-chip8/chip8/timing"
	"github.com/valerio/go-chip8/chip8/video"
)

func main() {
	app := cli.NewApp()
	app.Name = "chip8"
	app.Description = "A CHIP-8 emulator"
	app.Usage = "chip8 [options] <ROM file>"
	app.Version = "1.0.0"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "headless",
			Usage: "Run the emulator without a graphical interface",
		},
		cli.IntFlag{
			Name:  "frames",
			Usage: "Number of frames to run in headless mode (required for headless)",
			Value: 0,
		},
		cli.IntFlag{
			Name:  "speed",
			Usage: "Instruction execution rate in Hz",
			Value: timing.DefaultCycleRate,
		},
		cli.IntFlag{
			Name:  "snapshot-interval",
			Usage: "Save frame snapshots every N frames in headless mode (0 = disabled)",
			Value: 0,
		},
		cli.StringFlag{
			Name:  "snapshot-dir",
			Usage: "Directory to save frame snapshots (default: temp directory)",
		},
		cli.BoolFlag{
			Name:  "sdl",
			Usage: "Use the SDL2 window backend (requires a build with -tags sdl2)",
		},
		cli.BoolFlag{
			Name:  "no-audio",
			Usage: "Disable the audio device; the terminal bell is used instead",
		},
		cli.BoolFlag{
			Name:  "show-debug",
			Usage: "Show execution diagnostics in the status line",
		},
		cli.IntFlag{
			Name:  "scale",
			Usage: "Pixel scale for the SDL2 window",
			Value: display.DefaultPixelScale,
		},
	}
	app.Action = runEmulator

	if err := app.Run(os.Args); err != nil {
		slog.Error("Error running emulator", "error", err)
		os.Exit(1)
	}
}

func runEmulator(c *cli.Context) error {
	if c.NArg() != 1 {
		_ = cli.ShowAppHelp(c)
		return errors.New("expected exactly one ROM file argument")
	}
	romPath := c.Args().Get(0)

	if c.Bool("headless") {
		return runHeadless(c, romPath)
	}

	emu, err := chip8.NewWithFile(romPath, chip8.Config{CycleRate: c.Int("speed")})
	if err != nil {
		return err
	}

	var b backend.Backend
	if c.Bool("sdl") {
		b = sdl2.New()
	} else {
		b = terminal.New()
	}

	manager := input.NewManager(emu.Keypad())
	manager.On(action.EmulatorQuit, event.Press, emu.Stop)
	manager.On(action.EmulatorPauseToggle, event.Press, emu.TogglePause)
	manager.On(action.EmulatorReset, event.Press, emu.RequestReset)

	// Terminal-bell fallback when the audio device is disabled or missing.
	var soundProbe func() bool
	if c.Bool("no-audio") {
		soundProbe = emu.SoundActive
	} else {
		beeper, err := audio.NewBeeper(emu.SoundActive)
		if err != nil {
			slog.Warn("Audio unavailable, falling back to terminal bell", "error", err)
			soundProbe = emu.SoundActive
		} else {
			beeper.Start()
			defer beeper.Close()
		}
	}

	config := backend.Config{
		Title:        fmt.Sprintf("chip8 - %s", romPath),
		Scale:        c.Int("scale"),
		ShowDebug:    c.Bool("show-debug"),
		InputManager: manager,
		Callbacks: backend.Callbacks{
			OnQuit:      emu.Stop,
			SoundActive: soundProbe,
			DebugState: func() string {
				return fmt.Sprintf("%s instructions=%d frames=%d", emu.State(), emu.InstructionCount(), emu.FrameCount())
			},
		},
	}

	if err := b.Init(config); err != nil {
		return err
	}
	defer b.Cleanup()

	errCh := make(chan error, 1)
	go func() {
		errCh <- emu.Run()
	}()

	// Presentation loop: consume latest-wins snapshots and refresh the
	// backend at its own cadence, independent of the emulation rate.
	frameTick := time.NewTicker(timing.FramePeriod())
	defer frameTick.Stop()

	var current video.Snapshot
	for running := true; running; {
		select {
		case snap, ok := <-emu.Frames():
			if !ok {
				running = false
				break
			}
			current = snap

		case <-frameTick.C:
			events, err := b.Update(current)
			if err != nil {
				emu.Stop()
				running = false
				break
			}
			for _, ev := range events {
				manager.Trigger(ev.Action, ev.Type)
			}
		}
	}

	return <-errCh
}

func runHeadless(c *cli.Context, romPath string) error {
	frames := c.Int("frames")
	if frames <= 0 {
		return errors.New("headless mode requires --frames option with a positive value")
	}

	snapshotConfig, err := headless.CreateSnapshotConfig(c.Int("snapshot-interval"), c.String("snapshot-dir"), romPath)
	if err != nil {
		return err
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})
	slog.SetDefault(slog.New(handler))

	emu, err := chip8.NewWithFile(romPath, chip8.Config{Limiter: timing.NewNoOpLimiter()})
	if err != nil {
		return err
	}

	manager := input.NewManager(emu.Keypad())
	manager.On(action.EmulatorQuit, event.Press, emu.Stop)

	b := headless.New(frames, snapshotConfig)
	if err := b.Init(backend.Config{InputManager: manager}); err != nil {
		return err
	}
	defer b.Cleanup()

	errCh := make(chan error, 1)
	go func() {
		errCh <- emu.Run()
	}()

	for snap := range emu.Frames() {
		events, err := b.Update(snap)
		if err != nil {
			emu.Stop()
			break
		}
		for _, ev := range events {
			manager.Trigger(ev.Action, ev.Type)
		}
	}

	return <-errCh
}
