// Package tray provides the system tray menu.
package tray

import (
	"sync"

	"github.com/getlantern/systray"

	"github.com/ayusman/mudra/internal/session"
)

const maxSentenceTitle = 32

// Tray represents the system tray application.
type Tray struct {
	onToggle func(enabled bool)
	onSpeak  func()
	onClear  func()
	onOpen   func()
	onQuit   func()
	enabled  bool
	mu       sync.RWMutex

	// Menu items stored for later updates
	menuToggle   *systray.MenuItem
	menuLastSign *systray.MenuItem
	menuSentence *systray.MenuItem
}

// New creates a new Tray instance with enabled state set to true by default.
func New() *Tray {
	return &Tray{
		enabled: true,
	}
}

// OnToggle sets the callback for the enable/disable item.
func (t *Tray) OnToggle(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnSpeak sets the callback for the Speak item.
func (t *Tray) OnSpeak(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onSpeak = fn
}

// OnClear sets the callback for the Clear item.
func (t *Tray) OnClear(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onClear = fn
}

// OnOpen sets the callback for the Open in browser item.
func (t *Tray) OnOpen(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onOpen = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until Quit is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Quit closes the tray and makes Run return.
func (t *Tray) Quit() {
	systray.Quit()
}

func (t *Tray) onReady() {
	systray.SetTitle("Mudra")
	systray.SetTooltip("Mudra sign recognition")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(toggleTitle(t.enabled), "Toggle sign recognition")
	systray.AddSeparator()

	t.menuLastSign = systray.AddMenuItem(lastSignTitle(""), "Last confirmed sign")
	t.menuLastSign.Disable()
	t.menuSentence = systray.AddMenuItem(sentenceTitle(""), "Sentence so far")
	t.menuSentence.Disable()
	t.mu.Unlock()

	menuSpeak := systray.AddMenuItem("Speak", "Speak the sentence")
	menuClear := systray.AddMenuItem("Clear", "Clear the sentence")
	systray.AddSeparator()

	menuOpen := systray.AddMenuItem("Open in Browser...", "Open the camera view in a browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit Mudra")

	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-menuSpeak.ClickedCh:
				t.call(func() func() { return t.onSpeak })
			case <-menuClear.ClickedCh:
				t.call(func() func() { return t.onClear })
			case <-menuOpen.ClickedCh:
				t.call(func() func() { return t.onOpen })
			case <-menuQuit.ClickedCh:
				t.call(func() func() { return t.onQuit })
				systray.Quit()
				return
			}
		}
	}()
}

func (t *Tray) onExit() {}

func (t *Tray) handleToggle() {
	t.mu.Lock()
	t.enabled = !t.enabled
	enabled := t.enabled
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(enabled))
	}
	callback := t.onToggle
	t.mu.Unlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(enabled)
	}
}

// call runs the callback picked under the read lock.
func (t *Tray) call(pick func() func()) {
	t.mu.RLock()
	callback := pick()
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

// Handle updates the menu from a session event. It can be registered as a
// session listener.
func (t *Tray) Handle(ev session.Event) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if ev.Kind == session.EventConfirmed && t.menuLastSign != nil {
		t.menuLastSign.SetTitle(lastSignTitle(ev.Symbol.String()))
	}
	if t.menuSentence != nil {
		t.menuSentence.SetTitle(sentenceTitle(ev.Text))
	}
}

// SetEnabled sets the toggle state without calling OnToggle.
func (t *Tray) SetEnabled(enabled bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.enabled = enabled
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(enabled))
	}
}

// IsEnabled returns the current enabled state.
func (t *Tray) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}

func toggleTitle(enabled bool) string {
	if enabled {
		return "● Enabled"
	}
	return "○ Disabled"
}

func lastSignTitle(label string) string {
	if label == "" {
		return "Last: none"
	}
	return "Last: " + label
}

// sentenceTitle shows the tail of the sentence so the latest letters
// stay visible.
func sentenceTitle(text string) string {
	if text == "" {
		return "Sentence: (empty)"
	}
	r := []rune(text)
	if len(r) > maxSentenceTitle {
		return "Sentence: …" + string(r[len(r)-maxSentenceTitle:])
	}
	return "Sentence: " + text
}
