// Package app wires the camera, hand detector, classifier and sign
// session into the running recognition loop.
package app

import (
	"errors"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/classifier"
	"github.com/ayusman/mudra/internal/confirm"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/output"
	"github.com/ayusman/mudra/internal/overlay"
	"github.com/ayusman/mudra/internal/session"
	"github.com/ayusman/mudra/internal/speech"
	"github.com/ayusman/mudra/internal/store"
)

// Pipeline timing constants.
const (
	// IdleFPS is the frame rate while no hand is in view.
	IdleFPS = 5
	// IdleTimeout is how long without a hand before dropping to IdleFPS.
	IdleTimeout = 2 * time.Second
)

// Config holds the collaborators and settings for an App. Nil
// collaborators are replaced with defaults in New.
type Config struct {
	Confirm confirm.Config
	// FPS is the active frame rate.
	FPS    int
	Mirror bool

	Store      *store.Store
	Camera     capture.Camera
	Detector   detector.Detector
	Classifier classifier.Classifier
	Speaker    speech.Speaker
	Sinks      []output.Sink

	Logger zerolog.Logger
}

// App is the main application that turns camera frames into sentences.
type App struct {
	config     Config
	log        zerolog.Logger
	camera     capture.Camera
	classifier classifier.Classifier
	matcher    *gesture.StaticMatcher
	session    *session.Session
	annotator  *overlay.Annotator
	hub        *FrameHub
	speech     *speech.Queue
	recorder   *recorder

	enabled atomic.Bool

	mu       sync.RWMutex
	detector detector.Detector
	stopCh   chan struct{}
	done     chan struct{}
}

// New creates an App. Detection starts disabled.
func New(config Config) (*App, error) {
	if config.FPS <= 0 {
		config.FPS = capture.DefaultFPS
	}
	log := config.Logger.With().Str("component", "app").Logger()

	a := &App{
		config:    config,
		log:       log,
		camera:    config.Camera,
		matcher:   gesture.NewStaticMatcher(),
		annotator: overlay.NewAnnotator(),
		hub:       NewFrameHub(),
		detector:  config.Detector,
	}

	if a.camera == nil {
		a.camera = capture.NewCamera(0)
	}

	if a.detector == nil {
		// Try MediaPipe first, fall back to mock detector
		if mp, err := detector.NewMediaPipeDetector(detector.DefaultConfig(), config.Logger); err == nil {
			a.detector = mp
			log.Info().Msg("using MediaPipe hand detection")
		} else {
			log.Warn().Err(err).Msg("MediaPipe not available, using mock detector")
			a.detector = detector.NewMockDetector()
		}
	}

	a.classifier = config.Classifier
	if a.classifier == nil {
		a.classifier = classifier.NewTemplateClassifier(a.matcher)
		log.Info().Msg("no model configured, classifying against stored templates")
	}

	if config.Speaker != nil {
		a.speech = speech.NewQueue(config.Speaker, speech.DefaultQueueSize, config.Logger)
	}

	opts := []session.Option{session.WithLogger(config.Logger)}
	if config.Store != nil {
		a.recorder = newRecorder(config.Store, recorderQueueSize, log)
		opts = append(opts, session.WithListener(a.record))
	}
	if a.speech != nil {
		opts = append(opts, session.WithListener(a.speak))
	}
	if len(config.Sinks) > 0 {
		opts = append(opts, session.WithListener(output.Listener(output.Multi(config.Sinks), log)))
	}

	sess, err := session.New(config.Confirm, opts...)
	if err != nil {
		if a.speech != nil {
			a.speech.Close()
		}
		if a.recorder != nil {
			a.recorder.Close()
		}
		return nil, err
	}
	a.session = sess

	return a, nil
}

// settingEnabled persists the detection toggle across restarts.
const settingEnabled = "detection_enabled"

// SetEnabled enables or disables sign detection and remembers the choice
// when a store is configured.
func (a *App) SetEnabled(enabled bool) {
	a.enabled.Store(enabled)
	if !enabled {
		a.session.Reset()
	}
	if st := a.config.Store; st != nil {
		if err := st.Settings().Set(settingEnabled, strconv.FormatBool(enabled)); err != nil {
			a.log.Warn().Err(err).Msg("failed to save detection state")
		}
	}
}

// SavedEnabled returns the detection state stored by SetEnabled. It is
// true when nothing was stored.
func (a *App) SavedEnabled() bool {
	st := a.config.Store
	if st == nil {
		return true
	}
	v, err := st.Settings().Get(settingEnabled)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			a.log.Warn().Err(err).Msg("failed to read detection state")
		}
		return true
	}
	enabled, err := strconv.ParseBool(v)
	return err != nil || enabled
}

// IsEnabled returns whether sign detection is currently enabled.
func (a *App) IsEnabled() bool {
	return a.enabled.Load()
}

// SetDetector sets the hand detector implementation to use.
func (a *App) SetDetector(d detector.Detector) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.detector = d
}

// LoadTemplates loads letter templates from the database into the matcher.
func (a *App) LoadTemplates() error {
	if a.config.Store == nil {
		return nil
	}

	gestures, err := a.config.Store.Gestures().List()
	if err != nil {
		return err
	}

	templates := make([]*gesture.Template, 0, len(gestures))
	for _, g := range gestures {
		landmarks, err := a.config.Store.Gestures().GetLandmarks(g.ID)
		if err != nil {
			a.log.Warn().Err(err).Stringer("sign", g.Symbol).Msg("failed to load landmarks")
			continue
		}
		if len(landmarks) != detector.NumLandmarks {
			continue
		}
		templates = append(templates, &gesture.Template{
			ID:        g.ID,
			Symbol:    g.Symbol,
			Landmarks: storeLandmarksToDetector(landmarks),
			Tolerance: g.Tolerance,
		})
	}
	a.matcher.SetTemplates(templates)

	a.log.Info().Int("templates", len(templates)).Int("gestures", len(gestures)).Msg("loaded templates")
	return nil
}

// storeLandmarksToDetector converts store.Landmark slice to detector.Point3D slice.
func storeLandmarksToDetector(landmarks []store.Landmark) []detector.Point3D {
	points := make([]detector.Point3D, len(landmarks))
	for i, l := range landmarks {
		points[i] = detector.Point3D{X: l.X, Y: l.Y, Z: l.Z}
	}
	return points
}

// Start opens the camera and begins the detection pipeline.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopCh != nil {
		return nil
	}

	if err := a.camera.Open(); err != nil {
		return err
	}
	a.camera.SetFPS(IdleFPS)

	a.stopCh = make(chan struct{})
	a.done = make(chan struct{})
	go a.runPipeline(a.stopCh, a.done)

	a.log.Info().Int("fps", a.config.FPS).Msg("detection pipeline started")
	return nil
}

// Running reports whether the pipeline goroutine is alive.
func (a *App) Running() bool {
	a.mu.RLock()
	done := a.done
	a.mu.RUnlock()
	if done == nil {
		return false
	}
	select {
	case <-done:
		return false
	default:
		return true
	}
}

// Stop halts the pipeline and releases the camera, detector, classifier
// and speech queue, then waits for queued history to reach the store.
// The App cannot be restarted afterwards.
func (a *App) Stop() {
	a.mu.Lock()
	stopCh, done := a.stopCh, a.done
	a.stopCh, a.done = nil, nil
	a.mu.Unlock()

	if stopCh != nil {
		close(stopCh)
		<-done
	}

	var errs []error
	if err := a.camera.Close(); err != nil {
		errs = append(errs, err)
	}
	if d := a.Detector(); d != nil {
		errs = append(errs, d.Close())
	}
	errs = append(errs, a.classifier.Close())
	if a.speech != nil {
		errs = append(errs, a.speech.Close())
	}
	if a.recorder != nil {
		a.recorder.Close()
	}
	if err := errors.Join(errs...); err != nil {
		a.log.Warn().Err(err).Msg("error releasing resources")
	}

	a.log.Info().Msg("detection pipeline stopped")
}

// Camera returns the camera instance.
func (a *App) Camera() capture.Camera {
	return a.camera
}

// Matcher returns the letter template matcher.
func (a *App) Matcher() *gesture.StaticMatcher {
	return a.matcher
}

// Session returns the sign session fed by the pipeline.
func (a *App) Session() *session.Session {
	return a.session
}

// Frames returns the hub carrying annotated frames.
func (a *App) Frames() *FrameHub {
	return a.hub
}

// Store returns the configured store, which may be nil.
func (a *App) Store() *store.Store {
	return a.config.Store
}

// Detector returns the hand detector.
func (a *App) Detector() detector.Detector {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.detector
}

// record queues confirmations and spoken sentences for the store.
func (a *App) record(ev session.Event) {
	if err := a.recorder.Enqueue(ev); err != nil {
		a.log.Warn().Err(err).Str("kind", string(ev.Kind)).Msg("dropped history event")
	}
}

func (a *App) speak(ev session.Event) {
	if ev.Kind != session.EventSpoken {
		return
	}
	if err := a.speech.Enqueue(ev.Text); err != nil {
		a.log.Warn().Err(err).Str("text", ev.Text).Msg("dropped sentence")
	}
}
