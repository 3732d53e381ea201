package headless

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/valerio/go-chip8/chip8/backend"
	"github.com/valerio/go-chip8/chip8/input/action"
	"github.com/valerio/go-chip8/chip8/input/event"
	"github.com/valerio/go-chip8/chip8/video"
)

// Backend implements the backend interface for automated testing and
// batch processing: no rendering surface, no input, a fixed frame budget.
type Backend struct {
	config         backend.Config
	frameCount     int
	maxFrames      int
	snapshotConfig SnapshotConfig
}

// SnapshotConfig holds configuration for frame snapshots
type SnapshotConfig struct {
	Enabled   bool
	Interval  int    // Save snapshot every N frames
	Directory string // Directory to save snapshots
	ROMName   string // ROM name for snapshot filenames
}

func New(maxFrames int, snapshotConfig SnapshotConfig) *Backend {
	return &Backend{
		maxFrames:      maxFrames,
		snapshotConfig: snapshotConfig,
	}
}

func (h *Backend) Init(config backend.Config) error {
	h.config = config

	slog.Info("Running headless mode",
		"frames", h.maxFrames,
		"snapshot_interval", h.snapshotConfig.Interval,
		"snapshot_dir", h.snapshotConfig.Directory)

	return nil
}

// Update counts frames, saves snapshots and signals quit once the frame
// budget is spent.
func (h *Backend) Update(frame video.Snapshot) ([]backend.InputEvent, error) {
	var events []backend.InputEvent

	h.frameCount++

	if h.snapshotConfig.Enabled && h.frameCount%h.snapshotConfig.Interval == 0 {
		h.saveSnapshot(frame)
	}

	if h.frameCount%60 == 0 {
		slog.Info("Frame progress", "completed", h.frameCount, "total", h.maxFrames)
	}

	if h.frameCount >= h.maxFrames {
		// Save final snapshot if enabled and we haven't just saved one
		if h.snapshotConfig.Enabled && h.frameCount%h.snapshotConfig.Interval != 0 {
			h.saveSnapshot(frame)
		}

		slog.Info("Headless execution completed", "frames", h.maxFrames)
		events = append(events, backend.InputEvent{Action: action.EmulatorQuit, Type: event.Press})
	}

	return events, nil
}

func (h *Backend) Cleanup() error {
	return nil
}

// CreateSnapshotConfig creates a snapshot configuration from CLI parameters
func CreateSnapshotConfig(interval int, directory, romPath string) (SnapshotConfig, error) {
	config := SnapshotConfig{
		Enabled:  interval > 0,
		Interval: interval,
	}

	if !config.Enabled {
		return config, nil
	}

	if directory == "" {
		tempDir, err := os.MkdirTemp("", "chip8-snapshots-*")
		if err != nil {
			return config, fmt.Errorf("failed to create snapshot directory: %v", err)
		}
		config.Directory = tempDir
	} else {
		if err := os.MkdirAll(directory, 0755); err != nil {
			return config, fmt.Errorf("failed to create snapshot directory: %v", err)
		}
		config.Directory = directory
	}

	config.ROMName = filepath.Base(romPath)
	config.ROMName = strings.TrimSuffix(config.ROMName, filepath.Ext(config.ROMName))

	return config, nil
}

// saveSnapshot writes the frame as text art, one rune per pixel.
func (h *Backend) saveSnapshot(frame video.Snapshot) {
	name := fmt.Sprintf("%s_frame_%d.txt", h.snapshotConfig.ROMName, h.frameCount)
	path := filepath.Join(h.snapshotConfig.Directory, name)

	if err := WriteSnapshot(frame, path); err != nil {
		slog.Error("Failed to save snapshot", "frame", h.frameCount, "path", path, "error", err)
		return
	}
	slog.Info("Saved frame snapshot", "frame", h.frameCount, "path", path)
}

// WriteSnapshot saves a frame as a text representation for inspection
// and regression comparison.
func WriteSnapshot(frame video.Snapshot, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	fmt.Fprintf(file, "# CHIP-8 Frame Snapshot\n")
	fmt.Fprintf(file, "# Resolution: %dx%d pixels\n", video.FramebufferWidth, video.FramebufferHeight)
	fmt.Fprintf(file, "# Legend: █=lit .=unlit\n")

	var sb strings.Builder
	for y := 0; y < video.FramebufferHeight; y++ {
		for x := 0; x < video.FramebufferWidth; x++ {
			if frame.Lit(x, y) {
				sb.WriteRune('█')
			} else {
				sb.WriteRune('.')
			}
		}
		sb.WriteRune('\n')
	}

	_, err = file.WriteString(sb.String())
	return err
}
