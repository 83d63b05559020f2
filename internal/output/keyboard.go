package output

import (
	"sync"

	"github.com/micmonay/keybd_event"

	"github.com/ayusman/mudra/internal/sentence"
	"github.com/ayusman/mudra/internal/session"
	"github.com/ayusman/mudra/internal/sign"
)

var letterKeys = [26]int{
	keybd_event.VK_A, keybd_event.VK_B, keybd_event.VK_C, keybd_event.VK_D,
	keybd_event.VK_E, keybd_event.VK_F, keybd_event.VK_G, keybd_event.VK_H,
	keybd_event.VK_I, keybd_event.VK_J, keybd_event.VK_K, keybd_event.VK_L,
	keybd_event.VK_M, keybd_event.VK_N, keybd_event.VK_O, keybd_event.VK_P,
	keybd_event.VK_Q, keybd_event.VK_R, keybd_event.VK_S, keybd_event.VK_T,
	keybd_event.VK_U, keybd_event.VK_V, keybd_event.VK_W, keybd_event.VK_X,
	keybd_event.VK_Y, keybd_event.VK_Z,
}

// Keystroke is one key press, optionally with shift held.
type Keystroke struct {
	Key   int
	Shift bool
}

// KeyFor maps a confirmed symbol to the key that types it. Letters are
// typed upper case. CLEAR and SPEAK have no key.
func KeyFor(s sign.Symbol) (Keystroke, bool) {
	switch {
	case s.IsLetter():
		return Keystroke{Key: letterKeys[s.Rune()-'A'], Shift: true}, true
	case s == sign.Space:
		return Keystroke{Key: keybd_event.VK_SPACE}, true
	case s == sign.Delete:
		if keyBackspace < 0 {
			return Keystroke{}, false
		}
		return Keystroke{Key: keyBackspace}, true
	}
	return Keystroke{}, false
}

type presser interface {
	Press(k Keystroke) error
}

type keyBonding struct {
	mu sync.Mutex
	kb keybd_event.KeyBonding
}

func (b *keyBonding) Press(k Keystroke) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.kb.Clear()
	b.kb.SetKeys(k.Key)
	b.kb.HasSHIFT(k.Shift)
	return b.kb.Launching()
}

// KeyboardSink types confirmed signs into the focused window. It keeps
// the typed text in step with the sentence: edits that left the sentence
// unchanged send nothing, and backspaces only remove characters the sink
// typed itself, so a clear erases exactly what was typed.
type KeyboardSink struct {
	keys presser

	mu    sync.Mutex
	typed int
}

// NewKeyboardSink opens a virtual keyboard device.
func NewKeyboardSink() (*KeyboardSink, error) {
	kb, err := keybd_event.NewKeyBonding()
	if err != nil {
		return nil, err
	}
	return &KeyboardSink{keys: &keyBonding{kb: kb}}, nil
}

func (k *KeyboardSink) Handle(ev session.Event) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	switch ev.Kind {
	case session.EventConfirmed:
		return k.apply(ev)
	case session.EventCleared:
		return k.erase()
	}
	return nil
}

func (k *KeyboardSink) apply(ev session.Event) error {
	switch {
	case ev.Effect == sentence.Appended:
	case ev.Effect == sentence.Deleted && k.typed > 0:
	default:
		return nil
	}

	stroke, ok := KeyFor(ev.Symbol)
	if !ok {
		return nil
	}
	if err := k.keys.Press(stroke); err != nil {
		return err
	}
	if ev.Effect == sentence.Appended {
		k.typed++
	} else {
		k.typed--
	}
	return nil
}

func (k *KeyboardSink) erase() error {
	if keyBackspace < 0 {
		k.typed = 0
		return nil
	}
	for k.typed > 0 {
		if err := k.keys.Press(Keystroke{Key: keyBackspace}); err != nil {
			return err
		}
		k.typed--
	}
	return nil
}
