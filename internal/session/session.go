// Package session binds one confirmation engine to one sentence buffer
// and exposes the queries a presentation layer needs.
//
// A Session is the only place the engine and buffer are touched, and it
// serialises every mutation behind a mutex. Status reads take the read
// lock, so pollers always see a consistent snapshot regardless of how
// often frames arrive.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ayusman/mudra/internal/confirm"
	"github.com/ayusman/mudra/internal/sentence"
	"github.com/ayusman/mudra/internal/sign"
)

// Listener is called synchronously, outside the session lock, for every event.
type Listener func(Event)

// Option configures a Session.
type Option func(*Session)

// WithID overrides the generated session ID.
func WithID(id string) Option {
	return func(s *Session) { s.id = id }
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Session) { s.log = l.With().Str("component", "session").Logger() }
}

// WithClock sets the time source used to stamp Speak and Clear events.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// WithListener adds a synchronous event listener.
func WithListener(fn Listener) Option {
	return func(s *Session) { s.listeners = append(s.listeners, fn) }
}

// Session owns one engine and one sentence buffer.
type Session struct {
	id        string
	log       zerolog.Logger
	now       func() time.Time
	listeners []Listener

	mu          sync.RWMutex
	engine      *confirm.Engine
	buffer      *sentence.Buffer
	last        confirm.Status
	updatedAt   time.Time
	seq         uint64
	lastSign    sign.Symbol
	signShownTo time.Time
	pending     []sentence.SpeakEvent

	subMu   sync.Mutex
	subs    map[int]chan Event
	nextSub int
}

// New creates a session with a fresh engine built from cfg.
func New(cfg confirm.Config, opts ...Option) (*Session, error) {
	engine, err := confirm.New(cfg)
	if err != nil {
		return nil, err
	}

	s := &Session{
		id:     uuid.NewString(),
		log:    zerolog.Nop(),
		now:    time.Now,
		engine: engine,
		last:   confirm.Ready(),
		subs:   make(map[int]chan Event),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.buffer = sentence.New(sentence.WithSpeaker(func(ev sentence.SpeakEvent) {
		// Called from Apply/Speak with s.mu held.
		s.pending = append(s.pending, ev)
	}))

	return s, nil
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Config returns the engine settings.
func (s *Session) Config() confirm.Config {
	return s.engine.Config()
}

// Observe feeds one frame to the engine and applies any confirmed sign
// to the sentence. Frames must arrive in timestamp order.
func (s *Session) Observe(sample confirm.Sample, now time.Time) confirm.StepResult {
	s.mu.Lock()
	res := s.engine.Step(sample, now)
	s.last = res.Status
	s.updatedAt = now

	var events []Event
	if res.OK {
		s.seq++
		s.lastSign = res.Confirmed
		s.signShownTo = now.Add(s.engine.Config().CooldownDuration)

		effect := s.buffer.Apply(res.Confirmed)
		text := s.buffer.Text()
		events = append(events, Event{
			Kind:       EventConfirmed,
			SessionID:  s.id,
			Symbol:     res.Confirmed,
			Confidence: sample.Confidence,
			Effect:     effect,
			Text:       text,
			Seq:        s.seq,
			At:         now,
		})
		if effect == sentence.Cleared {
			events = append(events, s.clearedEvent(now))
		}
		events = append(events, s.drainSpoken(now)...)

		s.log.Info().
			Str("sign", res.Confirmed.String()).
			Str("effect", effect.String()).
			Str("sentence", text).
			Uint64("seq", s.seq).
			Msg("sign confirmed")
	}
	s.mu.Unlock()

	s.emit(events)
	return res
}

// Sentence returns the current sentence.
func (s *Session) Sentence() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.buffer.Text()
}

// Speak sends the sentence to the speech listeners if it is not empty.
// It reports whether anything was spoken.
func (s *Session) Speak() bool {
	now := s.now()

	s.mu.Lock()
	spoke := s.buffer.Speak() == sentence.Spoke
	events := s.drainSpoken(now)
	s.mu.Unlock()

	s.emit(events)
	return spoke
}

// Clear empties the sentence.
func (s *Session) Clear() {
	now := s.now()

	s.mu.Lock()
	s.buffer.Clear()
	ev := s.clearedEvent(now)
	s.mu.Unlock()

	s.log.Info().Msg("sentence cleared")
	s.emit([]Event{ev})
}

// Reset clears the sentence and drops any hold or cooldown.
func (s *Session) Reset() {
	s.mu.Lock()
	s.engine.Reset()
	s.buffer.Clear()
	s.last = confirm.Ready()
	s.lastSign = sign.None
	s.signShownTo = time.Time{}
	s.mu.Unlock()
}

// Subscribe returns a channel of session events and a function that
// unsubscribes and closes it. Events are dropped for a subscriber whose
// buffer is full.
func (s *Session) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan Event, buffer)

	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.subMu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// clearedEvent must be called with s.mu held.
func (s *Session) clearedEvent(now time.Time) Event {
	return Event{
		Kind:      EventCleared,
		SessionID: s.id,
		Text:      s.buffer.Text(),
		Seq:       s.seq,
		At:        now,
	}
}

// drainSpoken must be called with s.mu held.
func (s *Session) drainSpoken(now time.Time) []Event {
	if len(s.pending) == 0 {
		return nil
	}
	events := make([]Event, 0, len(s.pending))
	for _, p := range s.pending {
		events = append(events, Event{
			Kind:      EventSpoken,
			SessionID: s.id,
			Text:      p.Text,
			Seq:       s.seq,
			At:        now,
		})
	}
	s.pending = s.pending[:0]
	return events
}

func (s *Session) emit(events []Event) {
	for _, ev := range events {
		for _, fn := range s.listeners {
			fn(ev)
		}

		s.subMu.Lock()
		for _, ch := range s.subs {
			select {
			case ch <- ev:
			default:
				s.log.Warn().Str("kind", string(ev.Kind)).Msg("subscriber slow, event dropped")
			}
		}
		s.subMu.Unlock()
	}
}
