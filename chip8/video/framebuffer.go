package video

const (
	// FramebufferWidth is the horizontal resolution of the CHIP-8 display.
	FramebufferWidth = 64
	// FramebufferHeight is the vertical resolution of the CHIP-8 display.
	FramebufferHeight = 32
)

// Snapshot is an immutable copy of the display at one point in time.
// It is a value type so it can be sent on a channel without sharing
// state with the engine.
type Snapshot [FramebufferWidth * FramebufferHeight]bool

// Lit returns whether the pixel at (x, y) is on.
func (s *Snapshot) Lit(x, y int) bool {
	return s[y*FramebufferWidth+x]
}

// FrameBuffer holds the monochrome display state. Pixels are mutated only
// by the clear and draw instructions; the dirty flag tells the scheduler
// that a new snapshot should be emitted.
type FrameBuffer struct {
	pixels Snapshot
	dirty  bool
}

// NewFrameBuffer creates a cleared frame buffer, marked dirty so the first
// frame is always presented.
func NewFrameBuffer() *FrameBuffer {
	return &FrameBuffer{dirty: true}
}

func (fb *FrameBuffer) GetPixel(x, y int) bool {
	return fb.pixels[y*FramebufferWidth+x]
}

func (fb *FrameBuffer) SetPixel(x, y int, lit bool) {
	fb.pixels[y*FramebufferWidth+x] = lit
}

// FlipPixel XORs the pixel at (x, y) and reports a collision, i.e. whether
// the pixel was lit and is now cleared.
func (fb *FrameBuffer) FlipPixel(x, y int) bool {
	idx := y*FramebufferWidth + x
	collision := fb.pixels[idx]
	fb.pixels[idx] = !fb.pixels[idx]
	return collision
}

// Clear turns every pixel off and marks the buffer dirty.
func (fb *FrameBuffer) Clear() {
	fb.pixels = Snapshot{}
	fb.dirty = true
}

// MarkDirty flags the buffer as changed since the last snapshot.
func (fb *FrameBuffer) MarkDirty() {
	fb.dirty = true
}

// Dirty reports whether the buffer changed since the last ClearDirty.
func (fb *FrameBuffer) Dirty() bool {
	return fb.dirty
}

func (fb *FrameBuffer) ClearDirty() {
	fb.dirty = false
}

// Snapshot returns a copy of the current pixel state.
func (fb *FrameBuffer) Snapshot() Snapshot {
	return fb.pixels
}
