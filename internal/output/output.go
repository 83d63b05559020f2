// Package output forwards session events to the desktop: the clipboard
// and synthetic key presses.
package output

import (
	"errors"

	"github.com/rs/zerolog"

	"github.com/ayusman/mudra/internal/session"
)

// Sink consumes session events.
type Sink interface {
	Handle(ev session.Event) error
}

// Multi fans an event out to several sinks.
type Multi []Sink

// Handle calls every sink and joins their errors.
func (m Multi) Handle(ev session.Event) error {
	var errs []error
	for _, s := range m {
		if err := s.Handle(ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Listener adapts a sink to a session listener, logging failures.
func Listener(s Sink, log zerolog.Logger) session.Listener {
	return func(ev session.Event) {
		if err := s.Handle(ev); err != nil {
			log.Warn().Err(err).Str("kind", string(ev.Kind)).Msg("output sink failed")
		}
	}
}
