// Package gesture matches hand poses against recorded letter templates.
//
// It is the model-free fallback classifier: each letter is stored as the
// averaged, normalized landmarks of a handful of recorded samples, and a
// hand is scored by its mean point distance to each template. Distances
// are in hand units: after normalization the wrist to middle knuckle
// span is 1.
package gesture

import (
	"sort"
	"sync"

	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/sign"
)

// DefaultTolerance is the template tolerance used when none is set. It
// is a mean point distance in hand units.
const DefaultTolerance = 0.3

// Template is a recorded letter pose.
type Template struct {
	ID        string             // Unique identifier for the template
	Symbol    sign.Symbol        // Sign the template stands for
	Landmarks []detector.Point3D // Normalized landmarks
	Tolerance float64            // Maximum mean point distance for a match
}

// Match represents a matching result between input and a template.
type Match struct {
	Template *Template // The matched template
	Score    float64   // Match score (0-1, higher is better)
	Distance float64   // Mean point distance between input and template
}

// StaticMatcher matches hand poses against registered templates. It is
// safe for concurrent use; templates can be swapped while frames are
// being matched.
type StaticMatcher struct {
	mu        sync.RWMutex
	templates []*Template
}

// NewStaticMatcher creates a new StaticMatcher instance.
func NewStaticMatcher() *StaticMatcher {
	return &StaticMatcher{
		templates: make([]*Template, 0),
	}
}

// AddTemplate adds a template, replacing any with the same ID.
func (m *StaticMatcher) AddTemplate(t *Template) {
	if t == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removeLocked(t.ID)
	m.templates = append(m.templates, t)
}

// RemoveTemplate removes a template by its ID.
func (m *StaticMatcher) RemoveTemplate(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removeLocked(id)
}

// SetTemplates replaces the whole template set.
func (m *StaticMatcher) SetTemplates(ts []*Template) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.templates = append(make([]*Template, 0, len(ts)), ts...)
}

// Len returns the number of templates.
func (m *StaticMatcher) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.templates)
}

func (m *StaticMatcher) removeLocked(id string) {
	for i, t := range m.templates {
		if t.ID == id {
			m.templates = append(m.templates[:i], m.templates[i+1:]...)
			return
		}
	}
}

// Match finds matching templates for the given hand landmarks.
// Returns matches sorted by score in descending order (best matches first).
func (m *StaticMatcher) Match(hand *detector.HandLandmarks) []Match {
	normalized := hand.Normalize()
	if normalized == nil {
		return nil
	}
	input := normalized.Points[:]

	m.mu.RLock()
	defer m.mu.RUnlock()

	var matches []Match
	for _, template := range m.templates {
		if len(template.Landmarks) != detector.NumLandmarks {
			continue
		}

		distance := meanDistance(input, template.Landmarks)

		tolerance := template.Tolerance
		if tolerance <= 0 {
			tolerance = DefaultTolerance
		}
		if distance <= tolerance {
			matches = append(matches, Match{
				Template: template,
				Score:    score(distance, tolerance),
				Distance: distance,
			})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	return matches
}

// Best returns the highest scoring match, if any.
func (m *StaticMatcher) Best(hand *detector.HandLandmarks) (Match, bool) {
	matches := m.Match(hand)
	if len(matches) == 0 {
		return Match{}, false
	}
	return matches[0], true
}

// score is 1 for an exact match and falls to 0 at the tolerance. The
// falloff is quadratic so landmark jitter well inside the tolerance
// still scores close to 1.
func score(distance, tolerance float64) float64 {
	r := distance / tolerance
	return 1 - r*r
}

// meanDistance averages the distances between corresponding points.
func meanDistance(a, b []detector.Point3D) float64 {
	n := min(len(a), len(b))
	if n == 0 {
		return 0
	}

	var total float64
	for i := 0; i < n; i++ {
		total += a[i].Sub(b[i]).Norm()
	}
	return total / float64(n)
}
