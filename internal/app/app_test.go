package app

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"gocv.io/x/gocv"

	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/classifier"
	"github.com/ayusman/mudra/internal/confirm"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/output"
	"github.com/ayusman/mudra/internal/session"
	"github.com/ayusman/mudra/internal/sign"
	"github.com/ayusman/mudra/internal/store"
)

var t0 = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func at(ms int) time.Time {
	return t0.Add(time.Duration(ms) * time.Millisecond)
}

type fakeSpeaker struct {
	mu    sync.Mutex
	texts []string
}

func (f *fakeSpeaker) Speak(_ context.Context, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, text)
	return nil
}

type eventSink struct {
	mu     sync.Mutex
	events []session.Event
}

func (e *eventSink) Handle(ev session.Event) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, ev)
	return nil
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func newTestApp(t *testing.T, cfg Config) (*App, *detector.MockDetector) {
	t.Helper()
	det := detector.NewMockDetector()
	if cfg.Detector == nil {
		cfg.Detector = det
	}
	if cfg.Camera == nil {
		cfg.Camera = capture.NewMockCamera(nil, false)
	}
	if cfg.Confirm == (confirm.Config{}) {
		cfg.Confirm = confirm.DefaultConfig()
	}
	cfg.Logger = zerolog.Nop()

	a, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	a.SetEnabled(true)
	return a, det
}

// processBlank runs one solid black frame through the pipeline.
func processBlank(a *App, now time.Time) FrameResult {
	frame := gocv.NewMatWithSize(capture.DefaultHeight, capture.DefaultWidth, gocv.MatTypeCV8UC3)
	defer frame.Close()
	return a.ProcessFrame(&frame, now)
}

// feed runs frames every 100ms from start to end inclusive.
func feed(a *App, start, end int) []FrameResult {
	var out []FrameResult
	for ms := start; ms <= end; ms += 100 {
		out = append(out, processBlank(a, at(ms)))
	}
	return out
}

func TestApp_ProcessFrame_ConfirmsHeldSign(t *testing.T) {
	s := newTestStore(t)
	a, det := newTestApp(t, Config{
		Store:      s,
		Classifier: classifier.NewFixed(classifier.Prediction{Label: "A", Confidence: 0.95}),
	})
	det.SetHands([]detector.HandLandmarks{detector.LetterALandmarks()})

	results := feed(a, 0, 500)

	for i, r := range results[:5] {
		if r.Step.OK {
			t.Fatalf("frame %d confirmed before the hold elapsed", i)
		}
		if r.Step.Status.Kind != confirm.StatusDetecting {
			t.Errorf("frame %d status = %v, want detecting", i, r.Step.Status.Kind)
		}
	}
	last := results[5]
	if !last.Step.OK || last.Step.Confirmed != sign.MustParse("A") {
		t.Fatalf("frame at 500ms = %+v, want confirmed A", last.Step)
	}
	if last.Hands != 1 || last.Prediction.Label != "A" {
		t.Errorf("result = %+v", last)
	}
	if got := a.Session().Sentence(); got != "A" {
		t.Errorf("sentence = %q, want A", got)
	}

	// History is written in the background; Stop waits for it.
	a.Stop()
	events, err := s.Events().Recent(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 || events[0].Symbol != sign.MustParse("A") || events[0].Sentence != "A" {
		t.Errorf("recorded events = %+v", events)
	}
	if events[0].SessionID != a.Session().ID() {
		t.Errorf("event session = %q, want %q", events[0].SessionID, a.Session().ID())
	}
}

func TestApp_ProcessFrame_NonQualifying(t *testing.T) {
	tests := []struct {
		name  string
		hands []detector.HandLandmarks
		det   error
		pred  classifier.Prediction
	}{
		{"no hand", nil, nil, classifier.Prediction{Label: "A", Confidence: 0.99}},
		{"detector error", []detector.HandLandmarks{detector.LetterALandmarks()}, errors.New("helper died"), classifier.Prediction{Label: "A", Confidence: 0.99}},
		{"unknown label", []detector.HandLandmarks{detector.LetterALandmarks()}, nil, classifier.Prediction{Label: "thumbs_up", Confidence: 0.99}},
		{"empty prediction", []detector.HandLandmarks{detector.LetterALandmarks()}, nil, classifier.Prediction{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, det := newTestApp(t, Config{Classifier: classifier.NewFixed(tt.pred)})
			det.SetHands(tt.hands)
			det.SetError(tt.det)

			for _, r := range feed(a, 0, 1000) {
				if r.Sample.Detected {
					t.Fatalf("sample = %+v, want empty", r.Sample)
				}
				if r.Step.Status.Kind != confirm.StatusReady {
					t.Fatalf("status = %v, want ready", r.Step.Status.Kind)
				}
			}
			if a.Session().Sentence() != "" {
				t.Errorf("sentence = %q, want empty", a.Session().Sentence())
			}
		})
	}
}

func TestApp_ProcessFrame_UnusableFrame(t *testing.T) {
	empty := gocv.NewMat()
	defer empty.Close()

	frames := map[string]*gocv.Mat{"nil": nil, "empty": &empty}
	for name, frame := range frames {
		t.Run(name, func(t *testing.T) {
			a, det := newTestApp(t, Config{
				Classifier: classifier.NewFixed(classifier.Prediction{Label: "A", Confidence: 0.99}),
			})
			det.SetHands([]detector.HandLandmarks{detector.LetterALandmarks()})

			for ms := 0; ms <= 1000; ms += 100 {
				r := a.ProcessFrame(frame, at(ms))
				if r.Hands != 0 || r.Sample.Detected {
					t.Fatalf("frame at %dms = %+v, want no hand", ms, r)
				}
			}
			if det.Calls() != 0 {
				t.Errorf("detector called %d times for unusable frames", det.Calls())
			}
			if a.Session().Sentence() != "" {
				t.Errorf("sentence = %q, want empty", a.Session().Sentence())
			}
		})
	}
}

func TestApp_ProcessFrame_FirstHandOnly(t *testing.T) {
	seq := classifier.NewSequence(classifier.Step{Prediction: classifier.Prediction{Label: "B", Confidence: 0.9}})
	a, det := newTestApp(t, Config{Classifier: seq})
	det.SetHands([]detector.HandLandmarks{detector.LetterBLandmarks(), detector.LetterALandmarks()})

	r := processBlank(a, at(0))
	if r.Hands != 2 {
		t.Errorf("Hands = %d, want 2", r.Hands)
	}
	if r.Sample.Symbol != sign.MustParse("B") {
		t.Errorf("sample symbol = %v, want B", r.Sample.Symbol)
	}
}

func TestApp_LoadTemplates(t *testing.T) {
	s := newTestStore(t)

	hand := detector.LetterALandmarks()
	normalized := hand.Normalize()
	g := &store.Gesture{Symbol: sign.MustParse("A"), Tolerance: 1.0}
	if err := s.Gestures().Create(g); err != nil {
		t.Fatal(err)
	}
	landmarks := make([]store.Landmark, len(normalized.Points))
	for i, p := range normalized.Points {
		landmarks[i] = store.Landmark{X: p.X, Y: p.Y, Z: p.Z}
	}
	if err := s.Gestures().SetLandmarks(g.ID, landmarks); err != nil {
		t.Fatal(err)
	}
	// A gesture without landmarks yet is skipped.
	if err := s.Gestures().Create(&store.Gesture{Symbol: sign.MustParse("B")}); err != nil {
		t.Fatal(err)
	}

	a, det := newTestApp(t, Config{Store: s})
	if err := a.LoadTemplates(); err != nil {
		t.Fatalf("LoadTemplates() error = %v", err)
	}
	if a.Matcher().Len() != 1 {
		t.Fatalf("Matcher().Len() = %d, want 1", a.Matcher().Len())
	}

	det.SetHands([]detector.HandLandmarks{hand})
	r := processBlank(a, at(0))
	if r.Prediction.Label != "A" || r.Prediction.Confidence < 0.99 {
		t.Errorf("prediction = %+v, want A with a near-perfect score", r.Prediction)
	}
}

func TestApp_SpeakAndSinks(t *testing.T) {
	s := newTestStore(t)
	sp := &fakeSpeaker{}
	sink := &eventSink{}
	a, det := newTestApp(t, Config{
		Store:      s,
		Speaker:    sp,
		Sinks:      []output.Sink{sink},
		Classifier: classifier.NewFixed(classifier.Prediction{Label: "H", Confidence: 0.9}),
	})
	det.SetHands([]detector.HandLandmarks{detector.LetterALandmarks()})

	feed(a, 0, 500)
	if !a.Session().Speak() {
		t.Fatal("Speak() = false, want true")
	}
	a.Stop()

	sp.mu.Lock()
	spoken := append([]string(nil), sp.texts...)
	sp.mu.Unlock()
	if len(spoken) != 1 || spoken[0] != "H" {
		t.Errorf("spoken = %q, want [H]", spoken)
	}

	sentences, err := s.Sentences().Recent(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(sentences) != 1 || sentences[0].Text != "H" {
		t.Errorf("recorded sentences = %+v", sentences)
	}

	sink.mu.Lock()
	defer sink.mu.Unlock()
	if len(sink.events) != 2 || sink.events[0].Kind != session.EventConfirmed || sink.events[1].Kind != session.EventSpoken {
		t.Errorf("sink events = %+v", sink.events)
	}
}

func TestApp_SetEnabled(t *testing.T) {
	a, det := newTestApp(t, Config{
		Classifier: classifier.NewFixed(classifier.Prediction{Label: "A", Confidence: 0.9}),
	})
	det.SetHands([]detector.HandLandmarks{detector.LetterALandmarks()})

	feed(a, 0, 500)
	if a.Session().Sentence() != "A" {
		t.Fatalf("sentence = %q, want A", a.Session().Sentence())
	}

	a.SetEnabled(false)
	if a.IsEnabled() {
		t.Error("IsEnabled() = true after SetEnabled(false)")
	}
	if a.Session().Sentence() != "" {
		t.Errorf("disabling should reset the session, sentence = %q", a.Session().Sentence())
	}
}

func TestApp_SavedEnabled(t *testing.T) {
	s := newTestStore(t)

	a, _ := newTestApp(t, Config{Store: s})
	a.SetEnabled(false)

	b, _ := newTestApp(t, Config{Store: s})
	// newTestApp enables detection, which is saved too.
	if !b.SavedEnabled() {
		t.Error("SavedEnabled() = false after SetEnabled(true)")
	}
	b.SetEnabled(false)
	if b.SavedEnabled() {
		t.Error("SavedEnabled() = true after SetEnabled(false)")
	}

	fresh, _ := newTestApp(t, Config{Store: newTestStore(t)})
	if err := fresh.config.Store.Settings().Set(settingEnabled, "garbage"); err != nil {
		t.Fatal(err)
	}
	if !fresh.SavedEnabled() {
		t.Error("an unreadable value should default to enabled")
	}

	noStore, _ := newTestApp(t, Config{})
	if !noStore.SavedEnabled() {
		t.Error("SavedEnabled() without a store should be true")
	}
}

func TestNew_InvalidConfirmConfig(t *testing.T) {
	_, err := New(Config{
		Confirm:    confirm.Config{ConfidenceThreshold: 2},
		Camera:     capture.NewMockCamera(nil, false),
		Detector:   detector.NewMockDetector(),
		Classifier: classifier.NewFixed(classifier.Prediction{}),
		Logger:     zerolog.Nop(),
	})
	if err == nil {
		t.Error("expected error for invalid confirm config")
	}
}
