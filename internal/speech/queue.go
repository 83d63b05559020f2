package speech

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"
)

// DefaultQueueSize is the number of sentences that can wait for the speaker.
const DefaultQueueSize = 8

var (
	ErrQueueFull   = errors.New("speech: queue full")
	ErrQueueClosed = errors.New("speech: queue closed")
)

// Queue feeds a Speaker from a single worker goroutine so callers on the
// frame loop never block on audio.
type Queue struct {
	speaker Speaker
	log     zerolog.Logger

	mu     sync.Mutex
	closed bool
	items  chan string

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// NewQueue starts the worker. size <= 0 selects DefaultQueueSize.
func NewQueue(speaker Speaker, size int, log zerolog.Logger) *Queue {
	if size <= 0 {
		size = DefaultQueueSize
	}
	ctx, cancel := context.WithCancel(context.Background())
	q := &Queue{
		speaker: speaker,
		log:     log.With().Str("component", "speech").Logger(),
		items:   make(chan string, size),
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	go q.loop()
	return q
}

// Enqueue schedules text without waiting.
func (q *Queue) Enqueue(text string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrQueueClosed
	}
	select {
	case q.items <- text:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close stops accepting text, lets queued sentences finish and waits for
// the worker.
func (q *Queue) Close() error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		<-q.done
		return nil
	}
	q.closed = true
	close(q.items)
	q.mu.Unlock()

	<-q.done
	q.cancel()
	return nil
}

// Abort is like Close but interrupts the sentence being spoken and drops
// the rest.
func (q *Queue) Abort() {
	q.cancel()
	q.Close()
}

func (q *Queue) loop() {
	defer close(q.done)
	for text := range q.items {
		if q.ctx.Err() != nil {
			continue
		}
		if err := q.speaker.Speak(q.ctx, text); err != nil {
			q.log.Warn().Err(err).Str("text", text).Msg("speak failed")
			continue
		}
		q.log.Debug().Str("text", text).Msg("spoken")
	}
}
