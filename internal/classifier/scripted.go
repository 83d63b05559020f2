package classifier

import "sync"

// Fixed always returns the same prediction.
type Fixed struct {
	mu sync.Mutex
	p  Prediction
}

// NewFixed creates a Fixed classifier.
func NewFixed(p Prediction) *Fixed {
	return &Fixed{p: p}
}

// Set changes the prediction.
func (f *Fixed) Set(p Prediction) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.p = p
}

// Classify returns the configured prediction.
func (f *Fixed) Classify(features []float32) (Prediction, error) {
	if err := checkFeatures(features); err != nil {
		return Prediction{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.p, nil
}

// Close is a no-op.
func (f *Fixed) Close() error { return nil }

// Step is one entry of a Sequence: Prediction is returned for Frames calls.
type Step struct {
	Prediction Prediction
	Frames     int
}

// Sequence replays a script of predictions and loops when it reaches the
// end. It drives demo mode.
type Sequence struct {
	mu    sync.Mutex
	steps []Step
	idx   int
	left  int
}

// NewSequence creates a Sequence. Steps with Frames < 1 are played once.
func NewSequence(steps ...Step) *Sequence {
	s := &Sequence{steps: steps}
	s.reset()
	return s
}

// Spell builds a script that holds each label for hold frames at
// confidence conf, with gap empty frames in between.
func Spell(labels []string, conf float64, hold, gap int) []Step {
	steps := make([]Step, 0, len(labels)*2)
	for _, l := range labels {
		steps = append(steps, Step{Prediction: Prediction{Label: l, Confidence: conf}, Frames: hold})
		if gap > 0 {
			steps = append(steps, Step{Frames: gap})
		}
	}
	return steps
}

func (s *Sequence) reset() {
	s.idx = 0
	if len(s.steps) > 0 {
		s.left = max(s.steps[0].Frames, 1)
	}
}

// Classify returns the current scripted prediction and advances the script.
func (s *Sequence) Classify(features []float32) (Prediction, error) {
	if err := checkFeatures(features); err != nil {
		return Prediction{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.steps) == 0 {
		return Prediction{}, nil
	}

	p := s.steps[s.idx].Prediction
	s.left--
	if s.left <= 0 {
		s.idx = (s.idx + 1) % len(s.steps)
		s.left = max(s.steps[s.idx].Frames, 1)
	}
	return p, nil
}

// Close is a no-op.
func (s *Sequence) Close() error { return nil }
