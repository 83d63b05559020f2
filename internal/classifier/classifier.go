// Package classifier turns a hand's landmark vector into a sign label and
// a confidence score.
package classifier

import (
	"errors"
	"fmt"
	"math"

	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/sign"
)

// FeatureSize is the number of values a classifier expects per hand.
const FeatureSize = detector.FeatureLen

// ErrFeatureSize is returned for a feature vector of the wrong length.
var ErrFeatureSize = errors.New("feature vector has wrong length")

// Classifier predicts a sign from one hand's features.
type Classifier interface {
	// Classify returns the most likely label. A zero Prediction means no
	// label applies to the input.
	Classify(features []float32) (Prediction, error)

	// Close releases any resources held by the classifier.
	Close() error
}

// Prediction is a classifier output.
type Prediction struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// Symbol parses the predicted label.
func (p Prediction) Symbol() (sign.Symbol, error) {
	return sign.Parse(p.Label)
}

func checkFeatures(features []float32) error {
	if len(features) != FeatureSize {
		return fmt.Errorf("%w: got %d, want %d", ErrFeatureSize, len(features), FeatureSize)
	}
	return nil
}

// argmax returns the index and value of the largest element.
func argmax(v []float32) (int, float32) {
	best, bestVal := -1, float32(math.Inf(-1))
	for i, x := range v {
		if x > bestVal {
			best, bestVal = i, x
		}
	}
	return best, bestVal
}

// softmax rescales logits into probabilities in place.
func softmax(v []float32) {
	if len(v) == 0 {
		return
	}
	_, maxVal := argmax(v)
	var sum float64
	for i, x := range v {
		e := math.Exp(float64(x - maxVal))
		v[i] = float32(e)
		sum += e
	}
	for i := range v {
		v[i] = float32(float64(v[i]) / sum)
	}
}
