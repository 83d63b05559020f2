// Package capture reads frames from a webcam or a recorded video using
// GoCV (OpenCV).
package capture

import (
	"errors"
	"fmt"
	"strconv"
	"sync"

	"gocv.io/x/gocv"
)

// Default camera settings
const (
	DefaultFPS    = 15
	DefaultWidth  = 640
	DefaultHeight = 480
)

var (
	// ErrCameraNotOpen is returned when trying to read from a camera that is not open.
	ErrCameraNotOpen = errors.New("camera is not open")
	// ErrEndOfStream is returned when a finite source has no more frames.
	ErrEndOfStream = errors.New("end of stream")
)

// Camera defines the interface for camera capture implementations.
type Camera interface {
	Open() error
	Close() error
	ReadFrame() (*gocv.Mat, error)
	SetFPS(fps int)
	FPS() int
	IsOpen() bool
}

// Source selects what a camera reads from: a device index such as "0" or
// a path to a video file.
type Source string

// Device returns a Source for a numbered capture device.
func Device(id int) Source {
	return Source(strconv.Itoa(id))
}

// target converts the source into the argument gocv expects.
func (s Source) target() any {
	if id, err := strconv.Atoi(string(s)); err == nil {
		return id
	}
	return string(s)
}

// IsFile reports whether the source is a video file rather than a device.
func (s Source) IsFile() bool {
	_, err := strconv.Atoi(string(s))
	return s != "" && err != nil
}

// cameraImpl manages video capture from a camera device using GoCV.
type cameraImpl struct {
	source  Source
	capture *gocv.VideoCapture
	mu      sync.Mutex
	running bool
	fps     int
}

// NewCamera creates a Camera reading from the given device ID.
func NewCamera(deviceID int) Camera {
	return NewSourceCamera(Device(deviceID))
}

// NewSourceCamera creates a Camera reading from a device or video file.
func NewSourceCamera(source Source) Camera {
	return &cameraImpl{
		source: source,
		fps:    DefaultFPS,
	}
}

// Open opens the camera for capturing frames.
// It sets the resolution to 640x480 for performance.
func (c *cameraImpl) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return nil
	}

	capture, err := gocv.OpenVideoCapture(c.source.target())
	if err != nil {
		return fmt.Errorf("open capture %q: %w", c.source, err)
	}

	if !c.source.IsFile() {
		capture.Set(gocv.VideoCaptureFrameWidth, DefaultWidth)
		capture.Set(gocv.VideoCaptureFrameHeight, DefaultHeight)
		capture.Set(gocv.VideoCaptureFPS, float64(c.fps))
	}

	c.capture = capture
	c.running = true

	return nil
}

// Close closes the camera and releases resources.
func (c *cameraImpl) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running || c.capture == nil {
		c.running = false
		return nil
	}

	err := c.capture.Close()
	c.capture = nil
	c.running = false

	return err
}

// ReadFrame reads a single frame from the camera.
// The caller is responsible for closing the returned Mat.
func (c *cameraImpl) ReadFrame() (*gocv.Mat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running || c.capture == nil {
		return nil, ErrCameraNotOpen
	}

	mat := gocv.NewMat()
	if ok := c.capture.Read(&mat); !ok {
		mat.Close()
		if c.source.IsFile() {
			return nil, ErrEndOfStream
		}
		return nil, errors.New("failed to read frame from camera")
	}

	if mat.Empty() {
		mat.Close()
		return nil, errors.New("captured frame is empty")
	}

	return &mat, nil
}

// SetFPS sets the frames per second for capture.
// Values less than or equal to 0 are ignored.
func (c *cameraImpl) SetFPS(fps int) {
	if fps <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.fps = fps

	if c.capture != nil && !c.source.IsFile() {
		c.capture.Set(gocv.VideoCaptureFPS, float64(fps))
	}
}

// FPS returns the current frames per second setting.
func (c *cameraImpl) FPS() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.fps
}

// IsOpen returns true if the camera is currently open and running.
func (c *cameraImpl) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.running
}
