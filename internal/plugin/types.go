// Package plugin runs external hook programs when the sign session
// confirms a letter, speaks a sentence or clears it.
package plugin

import (
	"encoding/json"
	"slices"

	"github.com/ayusman/mudra/internal/session"
)

// Manifest describes a plugin's metadata and the events it wants.
type Manifest struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Description string `json:"description"`
	Executable  string `json:"executable"`
	// Events lists session event kinds ("confirmed", "spoken", "cleared").
	// An empty list subscribes to every event.
	Events []string        `json:"events"`
	Config json.RawMessage `json:"config,omitempty"`
}

// Request is written to the plugin's stdin as JSON.
type Request struct {
	Event     string          `json:"event"`
	SessionID string          `json:"session_id"`
	Sign      string          `json:"sign,omitempty"`
	Text      string          `json:"text"`
	Seq       uint64          `json:"seq"`
	Config    json.RawMessage `json:"config,omitempty"`
}

// Response is read from the plugin's stdout.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Plugin represents a discovered plugin with its manifest and location.
type Plugin struct {
	Manifest   Manifest
	Path       string
	Executable string
}

// Wants reports whether the plugin subscribed to kind.
func (p *Plugin) Wants(kind session.EventKind) bool {
	return len(p.Manifest.Events) == 0 || slices.Contains(p.Manifest.Events, string(kind))
}

// NewRequest builds the request for a session event.
func NewRequest(p *Plugin, ev session.Event) *Request {
	req := &Request{
		Event:     string(ev.Kind),
		SessionID: ev.SessionID,
		Text:      ev.Text,
		Seq:       ev.Seq,
		Config:    p.Manifest.Config,
	}
	if ev.Kind == session.EventConfirmed {
		req.Sign = ev.Symbol.String()
	}
	return req
}
