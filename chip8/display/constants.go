package display

// Backend scaling and window constants
const (
	// DefaultPixelScale is the default scaling factor for CHIP-8 pixels
	DefaultPixelScale = 10
	// DefaultWindowWidth is the default window width (CHIP-8 width * scale)
	DefaultWindowWidth = 64 * DefaultPixelScale // 640
	// DefaultWindowHeight is the default window height (CHIP-8 height * scale)
	DefaultWindowHeight = 32 * DefaultPixelScale // 320
)

// Monochrome pixel values
const (
	// LitGray is the grayscale value for a lit pixel
	LitGray = 255
	// UnlitGray is the grayscale value for a cleared pixel
	UnlitGray = 0
	// FullAlpha is the alpha value for fully opaque pixels
	FullAlpha = 255
)
