package output

import (
	"github.com/atotto/clipboard"

	"github.com/ayusman/mudra/internal/session"
)

// ClipboardSink copies the sentence to the system clipboard.
type ClipboardSink struct {
	// OnChange also copies after every confirmation and clear, not only
	// when the sentence is spoken.
	OnChange bool

	write func(string) error
}

// NewClipboardSink returns a sink backed by the system clipboard.
func NewClipboardSink(onChange bool) *ClipboardSink {
	return &ClipboardSink{OnChange: onChange, write: clipboard.WriteAll}
}

// Available reports whether a clipboard backend exists on this system.
func Available() bool {
	return !clipboard.Unsupported
}

func (c *ClipboardSink) Handle(ev session.Event) error {
	switch ev.Kind {
	case session.EventSpoken:
	case session.EventConfirmed, session.EventCleared:
		if !c.OnChange {
			return nil
		}
	default:
		return nil
	}
	return c.write(ev.Text)
}
