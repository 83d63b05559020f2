package plugin

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/ayusman/mudra/internal/session"
)

// DefaultQueueSize is the number of events a Sink buffers.
const DefaultQueueSize = 32

// ErrQueueFull is returned by Handle when the worker is behind.
var ErrQueueFull = errors.New("plugin: event queue full")

// Sink runs the plugins subscribed to each session event on a single
// worker goroutine, in event order. It satisfies output.Sink.
type Sink struct {
	manager  *Manager
	executor *Executor
	log      zerolog.Logger

	mu     sync.Mutex
	closed bool
	events chan session.Event
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// NewSink starts the worker.
func NewSink(manager *Manager, executor *Executor, log zerolog.Logger) *Sink {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Sink{
		manager:  manager,
		executor: executor,
		log:      log.With().Str("component", "plugin").Logger(),
		events:   make(chan session.Event, DefaultQueueSize),
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	go s.loop()
	return s
}

// Handle queues ev without blocking.
func (s *Sink) Handle(ev session.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	select {
	case s.events <- ev:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close runs the queued events and stops the worker. When ctx ends first
// the running plugin is killed and the rest of the queue is dropped.
func (s *Sink) Close(ctx context.Context) {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.events)
	}
	s.mu.Unlock()

	select {
	case <-s.done:
	case <-ctx.Done():
		s.cancel()
		<-s.done
	}
	s.cancel()
}

func (s *Sink) loop() {
	defer close(s.done)
	for ev := range s.events {
		if s.ctx.Err() != nil {
			continue
		}
		for _, p := range s.manager.List() {
			if !p.Wants(ev.Kind) {
				continue
			}
			resp, err := s.executor.Execute(s.ctx, p, NewRequest(p, ev))
			switch {
			case err != nil:
				s.log.Warn().Err(err).Str("plugin", p.Manifest.Name).Msg("plugin failed")
			case !resp.Success:
				s.log.Warn().Str("plugin", p.Manifest.Name).Str("error", resp.Error).Msg("plugin reported an error")
			default:
				s.log.Debug().Str("plugin", p.Manifest.Name).Str("event", string(ev.Kind)).Msg("plugin ran")
			}
		}
	}
}
