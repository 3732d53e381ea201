//go:build sdl2

package sdl2

import (
	"fmt"
	"log/slog"
	"unsafe"

	"github.com/valerio/go-chip8/chip8/backend"
	"github.com/valerio/go-chip8/chip8/display"
	"github.com/valerio/go-chip8/chip8/input/action"
	"github.com/valerio/go-chip8/chip8/input/event"
	"github.com/valerio/go-chip8/chip8/video"
	"github.com/veandco/go-sdl2/sdl"
)

const bytesPerPixel = 4

// keycodeMap translates SDL scancodes to keypad actions, following the
// same COSMAC layout as the terminal backend.
var keycodeMap = map[sdl.Keycode]action.Action{
	sdl.K_1: action.Key1,
	sdl.K_2: action.Key2,
	sdl.K_3: action.Key3,
	sdl.K_4: action.KeyC,
	sdl.K_q: action.Key4,
	sdl.K_w: action.Key5,
	sdl.K_e: action.Key6,
	sdl.K_r: action.KeyD,
	sdl.K_a: action.Key7,
	sdl.K_s: action.Key8,
	sdl.K_d: action.Key9,
	sdl.K_f: action.KeyE,
	sdl.K_z: action.KeyA,
	sdl.K_x: action.Key0,
	sdl.K_c: action.KeyB,
	sdl.K_v: action.KeyF,

	sdl.K_SPACE:  action.EmulatorPauseToggle,
	sdl.K_F5:     action.EmulatorReset,
	sdl.K_ESCAPE: action.EmulatorQuit,
}

// Backend implements the backend interface using SDL2 bindings.
// Note: building this requires SDL2 development libraries installed.
// Default builds skip this and use a stubbed renderer, see build tags (sdl2)
type Backend struct {
	window   *sdl.Window
	renderer *sdl.Renderer
	texture  *sdl.Texture
	running  bool
	config   backend.Config
	pixels   []byte
}

// New creates a new SDL2 backend
func New() *Backend {
	return &Backend{}
}

// Init initializes the SDL2 backend
func (s *Backend) Init(config backend.Config) error {
	s.config = config

	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		return fmt.Errorf("failed to initialize SDL2: %v", err)
	}

	scale := config.Scale
	if scale <= 0 {
		scale = display.DefaultPixelScale
	}

	window, err := sdl.CreateWindow(
		config.Title,
		sdl.WINDOWPOS_CENTERED,
		sdl.WINDOWPOS_CENTERED,
		int32(video.FramebufferWidth*scale),
		int32(video.FramebufferHeight*scale),
		sdl.WINDOW_SHOWN,
	)
	if err != nil {
		sdl.Quit()
		return fmt.Errorf("failed to create window: %v", err)
	}
	s.window = window

	renderer, err := sdl.CreateRenderer(window, -1, sdl.RENDERER_ACCELERATED|sdl.RENDERER_PRESENTVSYNC)
	if err != nil {
		window.Destroy()
		sdl.Quit()
		return fmt.Errorf("failed to create renderer: %v", err)
	}
	s.renderer = renderer

	texture, err := renderer.CreateTexture(
		sdl.PIXELFORMAT_RGBA8888,
		sdl.TEXTUREACCESS_STREAMING,
		video.FramebufferWidth,
		video.FramebufferHeight,
	)
	if err != nil {
		renderer.Destroy()
		window.Destroy()
		sdl.Quit()
		return fmt.Errorf("failed to create texture: %v", err)
	}
	s.texture = texture

	s.pixels = make([]byte, video.FramebufferWidth*video.FramebufferHeight*bytesPerPixel)
	s.running = true

	slog.Info("SDL2 backend initialized")
	return nil
}

// Update renders a snapshot and processes window events
func (s *Backend) Update(frame video.Snapshot) ([]backend.InputEvent, error) {
	var events []backend.InputEvent
	if !s.running {
		return events, nil
	}

	for ev := sdl.PollEvent(); ev != nil; ev = sdl.PollEvent() {
		switch e := ev.(type) {
		case *sdl.QuitEvent:
			s.running = false
			events = append(events, backend.InputEvent{Action: action.EmulatorQuit, Type: event.Press})

		case *sdl.KeyboardEvent:
			act, ok := keycodeMap[e.Keysym.Sym]
			if !ok {
				break
			}
			switch e.Type {
			case sdl.KEYDOWN:
				if e.Repeat == 0 {
					events = append(events, backend.InputEvent{Action: act, Type: event.Press})
				}
			case sdl.KEYUP:
				events = append(events, backend.InputEvent{Action: act, Type: event.Release})
			}
		}
	}

	s.renderFrame(frame)
	return events, nil
}

// Cleanup cleans up SDL2 resources
func (s *Backend) Cleanup() error {
	slog.Info("Cleaning up SDL2 backend")

	if s.texture != nil {
		s.texture.Destroy()
	}
	if s.renderer != nil {
		s.renderer.Destroy()
	}
	if s.window != nil {
		s.window.Destroy()
	}
	sdl.Quit()

	return nil
}

func (s *Backend) renderFrame(frame video.Snapshot) {
	for y := 0; y < video.FramebufferHeight; y++ {
		for x := 0; x < video.FramebufferWidth; x++ {
			gray := byte(display.UnlitGray)
			if frame.Lit(x, y) {
				gray = display.LitGray
			}

			idx := (y*video.FramebufferWidth + x) * bytesPerPixel
			// ABGR byte order for little-endian RGBA8888
			s.pixels[idx] = display.FullAlpha
			s.pixels[idx+1] = gray
			s.pixels[idx+2] = gray
			s.pixels[idx+3] = gray
		}
	}

	s.texture.Update(nil, unsafe.Pointer(&s.pixels[0]), video.FramebufferWidth*bytesPerPixel)

	s.renderer.SetDrawColor(0, 0, 0, display.FullAlpha)
	s.renderer.Clear()
	s.renderer.Copy(s.texture, nil, nil)
	s.renderer.Present()
}
