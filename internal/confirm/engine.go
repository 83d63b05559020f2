// Package confirm turns a noisy per-frame stream of sign classifications
// into debounced sign events.
//
// A sign is confirmed once it has been classified above the confidence
// threshold on every frame for at least the hold duration. Confirmation
// starts a cooldown during which every frame is ignored, so a sign that
// stays in view is emitted once. All timing comes from the caller-supplied
// now; the engine has no timers and never blocks.
package confirm

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/ayusman/mudra/internal/sign"
)

// Default engine settings.
const (
	DefaultConfidenceThreshold = 0.85
	DefaultHoldDuration        = 500 * time.Millisecond
	DefaultCooldownDuration    = 2 * time.Second
)

// ErrInvalidConfig is returned by New for out-of-range settings.
var ErrInvalidConfig = errors.New("invalid confirmation config")

// Config holds the engine timing and threshold settings.
type Config struct {
	// ConfidenceThreshold must be strictly exceeded for a sample to count.
	ConfidenceThreshold float64
	// HoldDuration is how long one sign must be held before it is confirmed.
	HoldDuration time.Duration
	// CooldownDuration is how long input is ignored after a confirmation.
	CooldownDuration time.Duration
}

// DefaultConfig returns the standard 0.85 / 500ms / 2s settings.
func DefaultConfig() Config {
	return Config{
		ConfidenceThreshold: DefaultConfidenceThreshold,
		HoldDuration:        DefaultHoldDuration,
		CooldownDuration:    DefaultCooldownDuration,
	}
}

// Validate checks that the settings are usable.
func (c Config) Validate() error {
	if math.IsNaN(c.ConfidenceThreshold) || c.ConfidenceThreshold < 0 || c.ConfidenceThreshold > 1 {
		return fmt.Errorf("%w: confidence threshold %v outside [0,1]", ErrInvalidConfig, c.ConfidenceThreshold)
	}
	if c.HoldDuration <= 0 {
		return fmt.Errorf("%w: hold duration must be positive, got %s", ErrInvalidConfig, c.HoldDuration)
	}
	if c.CooldownDuration < 0 {
		return fmt.Errorf("%w: cooldown duration must not be negative, got %s", ErrInvalidConfig, c.CooldownDuration)
	}
	return nil
}

// Sample is one frame's classification. A frame without a detected hand,
// or whose classifier failed, has Detected set to false.
type Sample struct {
	Symbol     sign.Symbol
	Detected   bool
	Confidence float64
}

// Observed builds a sample for a detected hand.
func Observed(s sign.Symbol, confidence float64) Sample {
	return Sample{Symbol: s, Detected: true, Confidence: confidence}
}

// Empty is the sample for a frame with nothing usable in it.
func Empty() Sample {
	return Sample{}
}

// StepResult is the outcome of one frame. OK is true only on the frame
// that confirms Confirmed.
type StepResult struct {
	Confirmed sign.Symbol
	OK        bool
	Status    Status
}

// Engine is the hold/cooldown state machine. It is not safe for
// concurrent use; callers serialise Step calls in frame order.
type Engine struct {
	cfg   Config
	phase Phase
}

// New creates an idle engine.
func New(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Engine{cfg: cfg, phase: idle()}, nil
}

// Config returns the settings the engine was built with.
func (e *Engine) Config() Config {
	return e.cfg
}

// Phase returns the current phase.
func (e *Engine) Phase() Phase {
	return e.phase
}

// Reset drops any hold or cooldown.
func (e *Engine) Reset() {
	e.phase = idle()
}

// Step advances the machine by one frame observed at now.
func (e *Engine) Step(s Sample, now time.Time) StepResult {
	// Cooldown wins over everything; the sample is not looked at.
	if e.phase.Kind == PhaseCooldown {
		if now.Before(e.phase.Until) {
			return StepResult{Status: Cooling(e.phase.Until.Sub(now))}
		}
		e.phase = idle()
	}

	if !e.qualifies(s) {
		e.phase = idle()
		return StepResult{Status: Ready()}
	}

	if e.phase.Kind != PhaseHolding || e.phase.Symbol != s.Symbol || now.Before(e.phase.Since) {
		e.phase = holding(s.Symbol, now)
		return StepResult{Status: Detecting(s.Symbol)}
	}

	if now.Sub(e.phase.Since) >= e.cfg.HoldDuration {
		e.phase = cooldown(now.Add(e.cfg.CooldownDuration))
		return StepResult{Confirmed: s.Symbol, OK: true, Status: Detected(s.Symbol)}
	}

	return StepResult{Status: Detecting(s.Symbol)}
}

// qualifies reports whether s may start or extend a hold. Malformed
// confidences are treated like an empty frame.
func (e *Engine) qualifies(s Sample) bool {
	if !s.Detected || !s.Symbol.Valid() {
		return false
	}
	c := s.Confidence
	if math.IsNaN(c) || c < 0 || c > 1 {
		return false
	}
	return c > e.cfg.ConfidenceThreshold
}
