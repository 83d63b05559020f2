package app

import (
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/ayusman/mudra/internal/session"
	"github.com/ayusman/mudra/internal/store"
)

// recorderQueueSize is the number of events that can wait for the store.
const recorderQueueSize = 64

var (
	errRecorderFull   = errors.New("recorder: queue full")
	errRecorderClosed = errors.New("recorder: closed")
)

// recorder writes confirmations and spoken sentences to the store from
// its own goroutine, so a slow disk never delays the frame loop.
type recorder struct {
	store *store.Store
	log   zerolog.Logger

	mu     sync.Mutex
	closed bool
	events chan session.Event
	done   chan struct{}
}

func newRecorder(st *store.Store, size int, log zerolog.Logger) *recorder {
	r := &recorder{
		store:  st,
		log:    log,
		events: make(chan session.Event, size),
		done:   make(chan struct{}),
	}
	go r.loop()
	return r
}

// Enqueue schedules ev without waiting. Only confirmed and spoken events
// are kept.
func (r *recorder) Enqueue(ev session.Event) error {
	if ev.Kind != session.EventConfirmed && ev.Kind != session.EventSpoken {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return errRecorderClosed
	}
	select {
	case r.events <- ev:
		return nil
	default:
		return errRecorderFull
	}
}

// Close writes what is queued and waits for the worker.
func (r *recorder) Close() {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.events)
	}
	r.mu.Unlock()
	<-r.done
}

func (r *recorder) loop() {
	defer close(r.done)
	for ev := range r.events {
		if err := r.write(ev); err != nil {
			r.log.Warn().Err(err).Str("kind", string(ev.Kind)).Msg("failed to record event")
		}
	}
}

func (r *recorder) write(ev session.Event) error {
	switch ev.Kind {
	case session.EventConfirmed:
		return r.store.Events().Record(&store.SignEvent{
			SessionID:  ev.SessionID,
			Symbol:     ev.Symbol,
			Confidence: ev.Confidence,
			Sentence:   ev.Text,
			CreatedAt:  ev.At,
		})
	case session.EventSpoken:
		return r.store.Sentences().Record(&store.SpokenSentence{
			SessionID: ev.SessionID,
			Text:      ev.Text,
			CreatedAt: ev.At,
		})
	}
	return nil
}
