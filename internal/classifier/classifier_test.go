package classifier

import (
	"errors"
	"math"
	"testing"

	"github.com/ayusman/mudra/internal/confirm"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/sign"
)

func features() []float32 {
	h := detector.LetterALandmarks()
	return h.Features()
}

func TestPredictionSymbol(t *testing.T) {
	tests := []struct {
		label   string
		want    sign.Symbol
		wantErr bool
	}{
		{"A", sign.MustParse("A"), false},
		{"Space", sign.Space, false},
		{"DELETE", sign.Delete, false},
		{"?", sign.None, true},
		{"", sign.None, true},
	}
	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			got, err := Prediction{Label: tt.label}.Symbol()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Symbol() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Symbol() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDecode(t *testing.T) {
	labels := []string{"A", "B", "C"}

	t.Run("probabilities", func(t *testing.T) {
		p := decode([]float32{0.1, 0.7, 0.2}, labels, false)
		if p.Label != "B" || math.Abs(p.Confidence-0.7) > 1e-6 {
			t.Errorf("decode() = %+v, want B/0.7", p)
		}
	})

	t.Run("logits with softmax", func(t *testing.T) {
		p := decode([]float32{1, 1, 1}, labels, true)
		if math.Abs(p.Confidence-1.0/3) > 1e-6 {
			t.Errorf("Confidence = %v, want 1/3", p.Confidence)
		}
		p = decode([]float32{0, 10, 0}, labels, true)
		if p.Label != "B" || p.Confidence < 0.99 {
			t.Errorf("decode() = %+v, want confident B", p)
		}
	})

	t.Run("more scores than labels", func(t *testing.T) {
		if p := decode([]float32{0, 0, 0, 1}, labels, false); p != (Prediction{}) {
			t.Errorf("decode() = %+v, want zero", p)
		}
	})

	t.Run("empty", func(t *testing.T) {
		if p := decode(nil, labels, false); p != (Prediction{}) {
			t.Errorf("decode() = %+v, want zero", p)
		}
	})
}

func TestFeatureSizeChecked(t *testing.T) {
	classifiers := map[string]Classifier{
		"fixed":    NewFixed(Prediction{Label: "A", Confidence: 1}),
		"sequence": NewSequence(Step{Prediction: Prediction{Label: "A"}}),
		"template": NewTemplateClassifier(gesture.NewStaticMatcher()),
	}
	for name, c := range classifiers {
		t.Run(name, func(t *testing.T) {
			_, err := c.Classify(make([]float32, 42))
			if !errors.Is(err, ErrFeatureSize) {
				t.Errorf("Classify() error = %v, want ErrFeatureSize", err)
			}
		})
	}
}

func TestTemplateClassifier(t *testing.T) {
	m := gesture.NewStaticMatcher()
	a := detector.LetterALandmarks()
	b := detector.LetterBLandmarks()
	m.AddTemplate(&gesture.Template{ID: "a", Symbol: sign.MustParse("A"), Landmarks: a.Normalize().Points[:], Tolerance: 0.5})
	m.AddTemplate(&gesture.Template{ID: "b", Symbol: sign.MustParse("B"), Landmarks: b.Normalize().Points[:], Tolerance: 0.5})

	c := NewTemplateClassifier(m)
	defer c.Close()

	t.Run("matches A", func(t *testing.T) {
		p, err := c.Classify(a.Features())
		if err != nil {
			t.Fatal(err)
		}
		if p.Label != "A" || p.Confidence < 0.9 {
			t.Errorf("Classify() = %+v, want confident A", p)
		}
	})

	t.Run("matches B", func(t *testing.T) {
		p, err := c.Classify(b.Features())
		if err != nil {
			t.Fatal(err)
		}
		if p.Label != "B" {
			t.Errorf("Classify() = %+v, want B", p)
		}
	})

	t.Run("jittered hand clears the confirm threshold", func(t *testing.T) {
		// Default tolerance, and about 3px of noise per coordinate at 640px.
		m := gesture.NewStaticMatcher()
		m.AddTemplate(&gesture.Template{ID: "a", Symbol: sign.MustParse("A"), Landmarks: a.Normalize().Points[:]})
		m.AddTemplate(&gesture.Template{ID: "b", Symbol: sign.MustParse("B"), Landmarks: b.Normalize().Points[:]})
		c := NewTemplateClassifier(m)

		for _, amp := range []float64{0.005, -0.005} {
			hand := detector.Jitter(a, amp)
			p, err := c.Classify(hand.Features())
			if err != nil {
				t.Fatal(err)
			}
			if p.Label != "A" || p.Confidence <= confirm.DefaultConfidenceThreshold {
				t.Errorf("amp %v: Classify() = %+v, want A above %v", amp, p, confirm.DefaultConfidenceThreshold)
			}
		}
	})

	t.Run("no templates", func(t *testing.T) {
		empty := NewTemplateClassifier(gesture.NewStaticMatcher())
		p, err := empty.Classify(features())
		if err != nil || p != (Prediction{}) {
			t.Errorf("Classify() = %+v, %v; want zero, nil", p, err)
		}
	})
}

func TestSequence(t *testing.T) {
	seq := NewSequence(Spell([]string{"H", "I"}, 0.95, 2, 1)...)

	want := []string{"H", "H", "", "I", "I", "", "H"}
	for i, w := range want {
		p, err := seq.Classify(features())
		if err != nil {
			t.Fatal(err)
		}
		if p.Label != w {
			t.Errorf("frame %d = %q, want %q", i, p.Label, w)
		}
	}

	t.Run("empty script", func(t *testing.T) {
		p, err := NewSequence().Classify(features())
		if err != nil || p != (Prediction{}) {
			t.Errorf("Classify() = %+v, %v", p, err)
		}
	})
}

func TestFixed(t *testing.T) {
	f := NewFixed(Prediction{Label: "A", Confidence: 0.9})
	if p, _ := f.Classify(features()); p.Label != "A" {
		t.Errorf("Classify() = %+v", p)
	}
	f.Set(Prediction{Label: "B", Confidence: 0.5})
	if p, _ := f.Classify(features()); p.Label != "B" || p.Confidence != 0.5 {
		t.Errorf("Classify() after Set = %+v", p)
	}
}

func TestORTLibPathOverride(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		t.Setenv("MUDRA_ORT_LIB_PATH", "/nonexistent/libonnxruntime.so")
		if _, err := resolveORTLibPath(); err == nil {
			t.Error("expected error for missing override")
		}
	})

	t.Run("directory", func(t *testing.T) {
		t.Setenv("MUDRA_ORT_LIB_PATH", t.TempDir())
		if _, err := resolveORTLibPath(); err == nil {
			t.Error("expected error for directory override")
		}
	})
}

func TestNewONNXClassifierValidation(t *testing.T) {
	if _, err := NewONNXClassifier(ONNXConfig{Labels: []string{"A"}}); err == nil {
		t.Error("expected error for empty model path")
	}
	if _, err := NewONNXClassifier(ONNXConfig{ModelPath: "m.onnx"}); err == nil {
		t.Error("expected error for empty labels")
	}
}
