package gesture

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ayusman/mudra/internal/detector"
)

// ErrNoSamples is returned when training is attempted without samples.
var ErrNoSamples = errors.New("no samples provided")

// Sample is one recorded pose as stored and posted by clients.
type Sample struct {
	Landmarks  []detector.Point3D `json:"landmarks"`
	Handedness string             `json:"handedness,omitempty"`
	Timestamp  int64              `json:"timestamp"`
}

// ParseSample decodes and checks a recorded sample.
func ParseSample(raw json.RawMessage) (Sample, error) {
	var s Sample
	if err := json.Unmarshal(raw, &s); err != nil {
		return s, fmt.Errorf("parse sample: %w", err)
	}
	if len(s.Landmarks) != detector.NumLandmarks {
		return s, fmt.Errorf("sample has %d landmarks, expected %d", len(s.Landmarks), detector.NumLandmarks)
	}
	return s, nil
}

// Trainer processes recorded samples into letter templates.
type Trainer struct{}

// NewTrainer creates a new Trainer instance.
func NewTrainer() *Trainer {
	return &Trainer{}
}

// TrainStatic normalizes each sample and averages them into the
// landmarks of a single template.
func (t *Trainer) TrainStatic(samples []json.RawMessage) ([]detector.Point3D, error) {
	if len(samples) == 0 {
		return nil, ErrNoSamples
	}

	var sum [detector.NumLandmarks]detector.Point3D
	for i, raw := range samples {
		sample, err := ParseSample(raw)
		if err != nil {
			return nil, fmt.Errorf("sample %d: %w", i, err)
		}

		var hand detector.HandLandmarks
		copy(hand.Points[:], sample.Landmarks)
		normalized := hand.Normalize()

		for j, p := range normalized.Points {
			sum[j].X += p.X
			sum[j].Y += p.Y
			sum[j].Z += p.Z
		}
	}

	n := float64(len(samples))
	averaged := make([]detector.Point3D, detector.NumLandmarks)
	for i, p := range sum {
		averaged[i] = detector.Point3D{X: p.X / n, Y: p.Y / n, Z: p.Z / n}
	}

	return averaged, nil
}
