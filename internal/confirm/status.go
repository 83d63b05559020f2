package confirm

import (
	"time"

	"github.com/ayusman/mudra/internal/sign"
)

// StatusKind classifies what a frame looked like to the engine.
type StatusKind uint8

const (
	// StatusReady means nothing qualifying is in view.
	StatusReady StatusKind = iota
	// StatusDetecting means a sign is being held but has not matured.
	StatusDetecting
	// StatusDetected means this frame confirmed Symbol.
	StatusDetected
	// StatusCooldown means input is being ignored for Remaining.
	StatusCooldown
)

// String returns a lower-case name for logs and JSON.
func (k StatusKind) String() string {
	switch k {
	case StatusDetecting:
		return "detecting"
	case StatusDetected:
		return "detected"
	case StatusCooldown:
		return "cooldown"
	default:
		return "ready"
	}
}

// Status is the per-frame feedback for UI layers.
type Status struct {
	Kind      StatusKind
	Symbol    sign.Symbol   // set for Detecting and Detected
	Remaining time.Duration // set for Cooldown
}

// Ready is the status of a frame with no qualifying sign.
func Ready() Status {
	return Status{Kind: StatusReady}
}

// Detecting is the status of a frame holding s.
func Detecting(s sign.Symbol) Status {
	return Status{Kind: StatusDetecting, Symbol: s}
}

// Detected is the status of the frame that confirmed s.
func Detected(s sign.Symbol) Status {
	return Status{Kind: StatusDetected, Symbol: s}
}

// Cooling is the status of a frame inside the cooldown window.
func Cooling(remaining time.Duration) Status {
	return Status{Kind: StatusCooldown, Remaining: remaining}
}
