package capture

import (
	"errors"
	"sync"

	"gocv.io/x/gocv"
)

// ErrNoFrames is returned by a MockCamera with nothing to play.
var ErrNoFrames = errors.New("no frames available")

// MockCamera plays back pre-recorded frames. It backs tests and demo mode.
type MockCamera struct {
	frames  []*gocv.Mat
	index   int
	loop    bool
	mu      sync.Mutex
	running bool
	fps     int
	reads   int
}

// NewMockCamera creates a camera that plays frames in order, optionally looping.
func NewMockCamera(frames []*gocv.Mat, loop bool) *MockCamera {
	return &MockCamera{
		frames: frames,
		loop:   loop,
		fps:    DefaultFPS,
	}
}

// NewBlankCamera creates a looping camera that returns a single solid
// grey frame of the default size.
func NewBlankCamera() *MockCamera {
	frame := gocv.NewMatWithSizeFromScalar(
		gocv.NewScalar(64, 64, 64, 0), DefaultHeight, DefaultWidth, gocv.MatTypeCV8UC3)
	return NewMockCamera([]*gocv.Mat{&frame}, true)
}

// Open starts playback from the first frame.
func (c *MockCamera) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.running = true
	c.index = 0
	return nil
}

// Close stops playback. The frames themselves stay owned by the caller.
func (c *MockCamera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.running = false
	return nil
}

// ReadFrame returns a clone of the next frame.
func (c *MockCamera) ReadFrame() (*gocv.Mat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running {
		return nil, ErrCameraNotOpen
	}

	if len(c.frames) == 0 {
		return nil, ErrNoFrames
	}

	if c.index >= len(c.frames) {
		if !c.loop {
			return nil, ErrEndOfStream
		}
		c.index = 0
	}

	frame := c.frames[c.index].Clone()
	c.index++
	c.reads++

	return &frame, nil
}

// SetFPS records the requested rate.
func (c *MockCamera) SetFPS(fps int) {
	if fps <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fps = fps
}

// FPS returns the last rate set.
func (c *MockCamera) FPS() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fps
}

// IsOpen reports whether Open has been called without Close.
func (c *MockCamera) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// Reads returns the number of frames handed out.
func (c *MockCamera) Reads() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reads
}

// SetFrames replaces the frame sequence
func (c *MockCamera) SetFrames(frames []*gocv.Mat) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = frames
	c.index = 0
}

// Reset restarts playback from the beginning
func (c *MockCamera) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.index = 0
}
