package detector

import (
	"errors"
	"time"

	"gocv.io/x/gocv"
)

// ErrScriptNotFound is returned when the MediaPipe helper script cannot be located.
var ErrScriptNotFound = errors.New("mediapipe_service.py not found")

// Detector defines the interface for hand detection implementations.
type Detector interface {
	// Detect analyzes a video frame and returns detected hand landmarks.
	// Returns an empty slice if no hands are detected.
	Detect(frame *gocv.Mat) ([]HandLandmarks, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds configuration options for hand detection.
type Config struct {
	// MaxHands is the maximum number of hands to detect. Only the first
	// hand is classified, so the default is 1.
	MaxHands int

	// MinConfidence is the minimum detection confidence threshold (0.0-1.0).
	MinConfidence float64

	// MinTrackingConf is the minimum tracking confidence threshold (0.0-1.0).
	MinTrackingConf float64

	// IdleTimeout stops the helper process after this long without frames.
	IdleTimeout time.Duration
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		MaxHands:        1,
		MinConfidence:   0.7,
		MinTrackingConf: 0.5,
		IdleTimeout:     30 * time.Second,
	}
}
