package classifier

import (
	"fmt"

	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
)

// TemplateClassifier predicts the nearest recorded letter template. It
// needs no model file; the confidence is the matcher score, 1 for an
// exact pose and 0 at the template tolerance.
type TemplateClassifier struct {
	matcher *gesture.StaticMatcher
}

// NewTemplateClassifier classifies against the templates held by m.
func NewTemplateClassifier(m *gesture.StaticMatcher) *TemplateClassifier {
	return &TemplateClassifier{matcher: m}
}

// Matcher returns the underlying matcher so templates can be reloaded.
func (c *TemplateClassifier) Matcher() *gesture.StaticMatcher {
	return c.matcher
}

// Classify returns the best matching template, or a zero Prediction.
func (c *TemplateClassifier) Classify(features []float32) (Prediction, error) {
	if err := checkFeatures(features); err != nil {
		return Prediction{}, err
	}

	hand, ok := detector.FromFeatures(features)
	if !ok {
		return Prediction{}, fmt.Errorf("%w: got %d", ErrFeatureSize, len(features))
	}
	best, ok := c.matcher.Best(&hand)
	if !ok {
		return Prediction{}, nil
	}
	return Prediction{Label: best.Template.Symbol.String(), Confidence: best.Score}, nil
}

// Close is a no-op.
func (c *TemplateClassifier) Close() error {
	return nil
}
