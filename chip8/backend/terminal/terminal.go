package terminal

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/valerio/go-chip8/chip8/backend"
	"github.com/valerio/go-chip8/chip8/input"
	"github.com/valerio/go-chip8/chip8/input/action"
	"github.com/valerio/go-chip8/chip8/input/event"
	"github.com/valerio/go-chip8/chip8/video"
)

const (
	width  = video.FramebufferWidth
	height = video.FramebufferHeight

	// Two display rows per terminal cell via half-block rendering.
	cellRows = height / 2

	minTermWidth  = width + 2
	minTermHeight = cellRows + 3
)

// keyTimeout expires held keys: terminals deliver key repeats but no
// key-up events, so a line is released when its repeats stop arriving.
const keyTimeout = 150 * time.Millisecond

// Backend implements the backend interface using tcell for terminal
// rendering and keyboard input.
type Backend struct {
	screen     tcell.Screen
	running    bool
	config     backend.Config
	eventQueue []backend.InputEvent

	// quit carries shutdown requests from the signal goroutine into
	// Update; all other fields are touched only by the Update goroutine.
	quit chan struct{}

	keyStates  map[action.Action]time.Time // Last time each key was seen
	activeKeys map[action.Action]bool      // Keys active in previous frame

	soundOn bool // previous sound state, for bell edge detection
}

// New creates a new terminal backend
func New() *Backend {
	return &Backend{}
}

// Init initializes the terminal backend
func (t *Backend) Init(config backend.Config) error {
	t.config = config
	t.eventQueue = make([]backend.InputEvent, 0)
	t.quit = make(chan struct{}, 1)
	t.keyStates = make(map[action.Action]time.Time)
	t.activeKeys = make(map[action.Action]bool)

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("failed to initialize terminal: %v", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("failed to initialize terminal: %v", err)
	}

	t.screen = screen
	t.running = true

	t.screen.SetStyle(tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorWhite))
	t.screen.Clear()

	// Set up signal handling for graceful shutdown
	go t.handleSignals()

	slog.Info("Terminal backend initialized")
	return nil
}

// Update renders a snapshot and processes keyboard events
func (t *Backend) Update(frame video.Snapshot) ([]backend.InputEvent, error) {
	var events []backend.InputEvent
	now := time.Now()

	if t.pendingQuit() {
		t.running = false
		events = append(events, backend.InputEvent{Action: action.EmulatorQuit, Type: event.Press})
	}

	for t.screen.HasPendingEvent() {
		ev := t.screen.PollEvent()
		switch ev := ev.(type) {
		case *tcell.EventKey:
			t.processKeyEvent(ev, now)
		case *tcell.EventResize:
			t.screen.Sync()
		}
	}

	// Track which keys are currently active this frame
	currentlyActive := make(map[action.Action]bool)

	for act, lastPressed := range t.keyStates {
		if now.Sub(lastPressed) < keyTimeout {
			currentlyActive[act] = true
			if !t.activeKeys[act] {
				events = append(events, backend.InputEvent{Action: act, Type: event.Press})
			} else {
				events = append(events, backend.InputEvent{Action: act, Type: event.Hold})
			}
		} else {
			delete(t.keyStates, act)
		}
	}

	// Keys active last frame but not this one are released
	for act := range t.activeKeys {
		if !currentlyActive[act] {
			events = append(events, backend.InputEvent{Action: act, Type: event.Release})
		}
	}
	t.activeKeys = currentlyActive

	if len(t.eventQueue) > 0 {
		events = append(events, t.eventQueue...)
		t.eventQueue = nil
	}

	if !t.running {
		return events, nil
	}

	if t.config.Callbacks.SoundActive != nil {
		soundOn := t.config.Callbacks.SoundActive()
		if soundOn && !t.soundOn {
			t.screen.Beep()
		}
		t.soundOn = soundOn
	}

	t.render(frame)
	t.screen.Show()

	return events, nil
}

// Cleanup cleans up terminal resources
func (t *Backend) Cleanup() error {
	if t.screen != nil {
		slog.Info("Cleaning up terminal backend")
		t.screen.Fini()
	}
	return nil
}

func (t *Backend) handleSignals() {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP, syscall.SIGQUIT)

	<-signals
	t.requestQuit()
}

// requestQuit queues a shutdown request without blocking. Safe to call
// from any goroutine; repeated requests collapse into one.
func (t *Backend) requestQuit() {
	select {
	case t.quit <- struct{}{}:
	default:
	}
}

// pendingQuit consumes a queued shutdown request, if any.
func (t *Backend) pendingQuit() bool {
	select {
	case <-t.quit:
		return true
	default:
		return false
	}
}

func (t *Backend) processKeyEvent(ev *tcell.EventKey, now time.Time) {
	name, ok := tcellKeyNameMap[ev.Key()]
	if !ok && ev.Key() == tcell.KeyRune {
		name = string(ev.Rune())
	}

	act, ok := input.GetDefaultMapping(name)
	if !ok {
		return
	}

	if act == action.EmulatorQuit {
		t.running = false
	}

	if action.GetInfo(act).Category == action.CategoryGameInput {
		t.keyStates[act] = now
	} else {
		t.eventQueue = append(t.eventQueue, backend.InputEvent{Action: act, Type: event.Press})
	}
}

// tcellKeyNameMap converts non-rune tcell keys to key names used in the
// default mappings
var tcellKeyNameMap = map[tcell.Key]string{
	tcell.KeyEscape: "Escape",
	tcell.KeyEnter:  "Enter",
	tcell.KeyF5:     "F5",
}

var (
	pixelStyles = [2][2]tcell.Style{
		{
			tcell.StyleDefault.Foreground(tcell.ColorBlack).Background(tcell.ColorBlack),
			tcell.StyleDefault.Foreground(tcell.ColorBlack).Background(tcell.ColorWhite),
		},
		{
			tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.ColorBlack),
			tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.ColorWhite),
		},
	}
	borderStyle = tcell.StyleDefault.Foreground(tcell.ColorGray)
	statusStyle = tcell.StyleDefault.Foreground(tcell.ColorSilver)
)

// render draws the display as half-block cells: each terminal cell covers
// two vertically adjacent pixels, the upper one on the foreground of '▀'.
func (t *Backend) render(frame video.Snapshot) {
	termWidth, termHeight := t.screen.Size()
	if termWidth < minTermWidth || termHeight < minTermHeight {
		t.screen.Clear()
		style := tcell.StyleDefault.Foreground(tcell.ColorRed)
		msg := fmt.Sprintf("Terminal too small! Need at least %dx%d", minTermWidth, minTermHeight)
		for i, ch := range msg {
			t.screen.SetContent(i, termHeight/2, ch, nil, style)
		}
		return
	}

	t.screen.Clear()
	t.drawBorders()

	for cy := 0; cy < cellRows; cy++ {
		for x := 0; x < width; x++ {
			top := boolToIndex(frame.Lit(x, cy*2))
			bottom := boolToIndex(frame.Lit(x, cy*2+1))
			t.screen.SetContent(1+x, 1+cy, '▀', nil, pixelStyles[top][bottom])
		}
	}

	if t.config.ShowDebug && t.config.Callbacks.DebugState != nil {
		t.drawStatus(t.config.Callbacks.DebugState())
	}
}

func (t *Backend) drawBorders() {
	right := width + 1
	bottom := cellRows + 1

	for x := 1; x <= width; x++ {
		t.screen.SetContent(x, 0, tcell.RuneHLine, nil, borderStyle)
		t.screen.SetContent(x, bottom, tcell.RuneHLine, nil, borderStyle)
	}
	for y := 1; y <= cellRows; y++ {
		t.screen.SetContent(0, y, tcell.RuneVLine, nil, borderStyle)
		t.screen.SetContent(right, y, tcell.RuneVLine, nil, borderStyle)
	}
	t.screen.SetContent(0, 0, tcell.RuneULCorner, nil, borderStyle)
	t.screen.SetContent(right, 0, tcell.RuneURCorner, nil, borderStyle)
	t.screen.SetContent(0, bottom, tcell.RuneLLCorner, nil, borderStyle)
	t.screen.SetContent(right, bottom, tcell.RuneLRCorner, nil, borderStyle)

	for i, ch := range t.config.Title {
		if 2+i >= right {
			break
		}
		t.screen.SetContent(2+i, 0, ch, nil, statusStyle)
	}
}

func (t *Backend) drawStatus(line string) {
	for i, ch := range line {
		t.screen.SetContent(1+i, cellRows+2, ch, nil, statusStyle)
	}
}

func boolToIndex(lit bool) int {
	if lit {
		return 1
	}
	return 0
}
