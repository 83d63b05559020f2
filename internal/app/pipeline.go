package app

import (
	"errors"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/classifier"
	"github.com/ayusman/mudra/internal/confirm"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/overlay"
)

// FrameResult describes what the pipeline made of one frame.
type FrameResult struct {
	Hands      int
	Prediction classifier.Prediction
	Sample     confirm.Sample
	Step       confirm.StepResult
}

// runPipeline is the frame loop. It runs at IdleFPS until a hand shows
// up, then at the configured rate until no hand has been seen for
// IdleTimeout.
func (a *App) runPipeline(stopCh <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	activeMode := false
	lastHandTime := time.Now()

	ticker := time.NewTicker(time.Second / time.Duration(IdleFPS))
	defer ticker.Stop()

	setRate := func(active bool) {
		fps := IdleFPS
		if active {
			fps = a.config.FPS
		}
		activeMode = active
		a.camera.SetFPS(fps)
		ticker.Reset(time.Second / time.Duration(fps))
		a.log.Debug().Bool("active", active).Int("fps", fps).Msg("switched frame rate")
	}

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			if !a.IsEnabled() {
				continue
			}

			frame, err := a.camera.ReadFrame()
			if err != nil {
				if errors.Is(err, capture.ErrEndOfStream) {
					a.log.Info().Msg("end of video stream")
					return
				}
				a.log.Warn().Err(err).Msg("error reading frame")
				continue
			}

			now := time.Now()
			res := a.ProcessFrame(frame, now)
			frame.Close()

			switch {
			case res.Hands > 0:
				lastHandTime = now
				if !activeMode {
					setRate(true)
				}
			case activeMode && now.Sub(lastHandTime) > IdleTimeout:
				setRate(false)
			}
		}
	}
}

// ProcessFrame runs one frame through detection, classification and the
// session, then publishes the annotated frame. Only the first detected
// hand is classified. A nil or empty frame, and detector or classifier
// failures, count as a frame without a sign.
func (a *App) ProcessFrame(frame *gocv.Mat, now time.Time) FrameResult {
	var res FrameResult
	usable := frame != nil && !frame.Empty()

	if usable && a.config.Mirror {
		overlay.Mirror(frame)
	}

	res.Sample = confirm.Empty()
	var hands []detector.HandLandmarks
	if usable {
		var err error
		hands, err = a.Detector().Detect(frame)
		if err != nil {
			a.log.Warn().Err(err).Msg("error detecting hands")
			hands = nil
		}
	}
	res.Hands = len(hands)

	if len(hands) > 0 {
		pred, err := a.classifier.Classify(hands[0].Features())
		if err != nil {
			a.log.Warn().Err(err).Msg("error classifying hand")
		} else {
			res.Prediction = pred
			if sym, err := pred.Symbol(); err == nil {
				res.Sample = confirm.Observed(sym, pred.Confidence)
			} else if pred.Label != "" {
				a.log.Debug().Str("label", pred.Label).Msg("ignoring unknown label")
			}
		}
	}

	res.Step = a.session.Observe(res.Sample, now)

	if usable && a.hub.Subscribers() > 0 {
		a.annotator.Render(frame, res.Step.Status, hands)
		jpeg, err := overlay.EncodeJPEG(frame)
		if err != nil {
			a.log.Warn().Err(err).Msg("error encoding frame")
		} else {
			a.hub.Publish(jpeg)
		}
	}

	return res
}
