// Package sentence accumulates confirmed signs into editable text.
package sentence

import "github.com/ayusman/mudra/internal/sign"

// Effect reports what Apply did to the buffer.
type Effect uint8

const (
	// NoOp means the buffer was not changed and nothing was emitted.
	NoOp Effect = iota
	// Appended means a character was added.
	Appended
	// Deleted means the last character was removed.
	Deleted
	// Cleared means the buffer was emptied.
	Cleared
	// Spoke means a SpeakEvent was emitted.
	Spoke
)

// String returns a lower-case name for logs.
func (e Effect) String() string {
	switch e {
	case Appended:
		return "appended"
	case Deleted:
		return "deleted"
	case Cleared:
		return "cleared"
	case Spoke:
		return "spoke"
	default:
		return "noop"
	}
}

// MarshalText encodes the effect by name.
func (e Effect) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

// UnmarshalText decodes a name written by MarshalText. Unknown names
// decode as NoOp.
func (e *Effect) UnmarshalText(text []byte) error {
	*e = NoOp
	for c := Appended; c <= Spoke; c++ {
		if c.String() == string(text) {
			*e = c
		}
	}
	return nil
}

// SpeakEvent carries the sentence as it was when SPEAK was applied.
type SpeakEvent struct {
	Text string
}

// SpeakFunc receives speak events. It is called synchronously from Apply.
type SpeakFunc func(SpeakEvent)

// Option configures a Buffer.
type Option func(*Buffer)

// WithSpeaker sets the consumer of SPEAK events.
func WithSpeaker(fn SpeakFunc) Option {
	return func(b *Buffer) {
		b.speak = fn
	}
}

// Buffer is the sentence being built. Control symbols edit it and are
// never stored. A Buffer is not safe for concurrent use.
type Buffer struct {
	runes []rune
	speak SpeakFunc
}

// New returns an empty buffer.
func New(opts ...Option) *Buffer {
	b := &Buffer{}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Apply interprets one confirmed symbol.
func (b *Buffer) Apply(s sign.Symbol) Effect {
	switch {
	case s.IsLetter(), s == sign.Space:
		b.runes = append(b.runes, s.Rune())
		return Appended
	case s == sign.Delete:
		if len(b.runes) == 0 {
			return NoOp
		}
		b.runes = b.runes[:len(b.runes)-1]
		return Deleted
	case s == sign.Clear:
		b.Clear()
		return Cleared
	case s == sign.Speak:
		return b.Speak()
	}
	return NoOp
}

// Speak emits the current text on the speak channel. An empty buffer
// emits nothing.
func (b *Buffer) Speak() Effect {
	if len(b.runes) == 0 {
		return NoOp
	}
	if b.speak != nil {
		b.speak(SpeakEvent{Text: b.Text()})
	}
	return Spoke
}

// Text returns a snapshot of the sentence.
func (b *Buffer) Text() string {
	return string(b.runes)
}

// Len returns the number of characters in the sentence.
func (b *Buffer) Len() int {
	return len(b.runes)
}

// Clear empties the buffer.
func (b *Buffer) Clear() {
	b.runes = b.runes[:0]
}
