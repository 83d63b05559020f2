package detector

import (
	"math"
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector is a Detector whose results are set by the caller. It is
// used by tests and by demo mode, where no camera model is available.
type MockDetector struct {
	mu    sync.Mutex
	hands []HandLandmarks
	err   error
	calls int
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetHands sets the hands that will be returned by Detect.
func (m *MockDetector) SetHands(hands []HandLandmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hands = hands
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns how many times Detect has been called.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Detect returns the pre-configured hands or error.
func (m *MockDetector) Detect(frame *gocv.Mat) ([]HandLandmarks, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.hands, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// LetterALandmarks returns a right hand making the fingerspelled A: a
// closed fist with the thumb resting upright against the index finger.
func LetterALandmarks() HandLandmarks {
	h := HandLandmarks{Handedness: "Right", Score: 0.96}

	h.Points[Wrist] = Point3D{X: 0.50, Y: 0.80, Z: 0.0}

	h.Points[ThumbCMC] = Point3D{X: 0.56, Y: 0.76, Z: -0.01}
	h.Points[ThumbMCP] = Point3D{X: 0.59, Y: 0.70, Z: -0.02}
	h.Points[ThumbIP] = Point3D{X: 0.60, Y: 0.64, Z: -0.03}
	h.Points[ThumbTip] = Point3D{X: 0.60, Y: 0.59, Z: -0.03}

	// Fingers folded: tips sit just below their MCP joints.
	h.Points[IndexMCP] = Point3D{X: 0.56, Y: 0.64, Z: -0.01}
	h.Points[IndexPIP] = Point3D{X: 0.57, Y: 0.58, Z: -0.05}
	h.Points[IndexDIP] = Point3D{X: 0.56, Y: 0.63, Z: -0.07}
	h.Points[IndexTip] = Point3D{X: 0.55, Y: 0.67, Z: -0.06}

	h.Points[MiddleMCP] = Point3D{X: 0.51, Y: 0.63, Z: -0.01}
	h.Points[MiddlePIP] = Point3D{X: 0.51, Y: 0.57, Z: -0.05}
	h.Points[MiddleDIP] = Point3D{X: 0.51, Y: 0.62, Z: -0.07}
	h.Points[MiddleTip] = Point3D{X: 0.51, Y: 0.66, Z: -0.06}

	h.Points[RingMCP] = Point3D{X: 0.46, Y: 0.64, Z: -0.01}
	h.Points[RingPIP] = Point3D{X: 0.46, Y: 0.59, Z: -0.05}
	h.Points[RingDIP] = Point3D{X: 0.46, Y: 0.63, Z: -0.07}
	h.Points[RingTip] = Point3D{X: 0.46, Y: 0.67, Z: -0.06}

	h.Points[PinkyMCP] = Point3D{X: 0.42, Y: 0.66, Z: -0.01}
	h.Points[PinkyPIP] = Point3D{X: 0.42, Y: 0.62, Z: -0.04}
	h.Points[PinkyDIP] = Point3D{X: 0.42, Y: 0.65, Z: -0.06}
	h.Points[PinkyTip] = Point3D{X: 0.42, Y: 0.68, Z: -0.05}

	return h
}

// LetterBLandmarks returns a right hand making the fingerspelled B: four
// fingers straight up and together with the thumb folded across the palm.
func LetterBLandmarks() HandLandmarks {
	h := HandLandmarks{Handedness: "Right", Score: 0.95}

	h.Points[Wrist] = Point3D{X: 0.50, Y: 0.80, Z: 0.0}

	h.Points[ThumbCMC] = Point3D{X: 0.55, Y: 0.76, Z: -0.01}
	h.Points[ThumbMCP] = Point3D{X: 0.56, Y: 0.71, Z: -0.03}
	h.Points[ThumbIP] = Point3D{X: 0.53, Y: 0.68, Z: -0.05}
	h.Points[ThumbTip] = Point3D{X: 0.49, Y: 0.67, Z: -0.06}

	h.Points[IndexMCP] = Point3D{X: 0.55, Y: 0.65, Z: 0.0}
	h.Points[IndexPIP] = Point3D{X: 0.55, Y: 0.53, Z: 0.0}
	h.Points[IndexDIP] = Point3D{X: 0.55, Y: 0.45, Z: 0.0}
	h.Points[IndexTip] = Point3D{X: 0.55, Y: 0.38, Z: 0.0}

	h.Points[MiddleMCP] = Point3D{X: 0.51, Y: 0.64, Z: 0.0}
	h.Points[MiddlePIP] = Point3D{X: 0.51, Y: 0.51, Z: 0.0}
	h.Points[MiddleDIP] = Point3D{X: 0.51, Y: 0.42, Z: 0.0}
	h.Points[MiddleTip] = Point3D{X: 0.51, Y: 0.34, Z: 0.0}

	h.Points[RingMCP] = Point3D{X: 0.47, Y: 0.65, Z: 0.0}
	h.Points[RingPIP] = Point3D{X: 0.47, Y: 0.53, Z: 0.0}
	h.Points[RingDIP] = Point3D{X: 0.47, Y: 0.45, Z: 0.0}
	h.Points[RingTip] = Point3D{X: 0.47, Y: 0.38, Z: 0.0}

	h.Points[PinkyMCP] = Point3D{X: 0.43, Y: 0.67, Z: 0.0}
	h.Points[PinkyPIP] = Point3D{X: 0.43, Y: 0.57, Z: 0.0}
	h.Points[PinkyDIP] = Point3D{X: 0.43, Y: 0.50, Z: 0.0}
	h.Points[PinkyTip] = Point3D{X: 0.43, Y: 0.44, Z: 0.0}

	return h
}

// Jitter returns a copy of h with every coordinate moved by at most amp,
// in a fixed pattern so tests are repeatable. It stands in for the
// frame to frame noise of a real landmark model.
func Jitter(h HandLandmarks, amp float64) HandLandmarks {
	for i := range h.Points {
		phase := 1.3*float64(i) + 0.7
		h.Points[i].X += amp * math.Sin(phase)
		h.Points[i].Y += amp * math.Sin(phase+2.1)
		h.Points[i].Z += amp * math.Sin(phase+4.2)
	}
	return h
}
