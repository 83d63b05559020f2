package session

import (
	"time"

	"github.com/ayusman/mudra/internal/sentence"
	"github.com/ayusman/mudra/internal/sign"
)

// EventKind identifies what happened in a session.
type EventKind string

const (
	// EventConfirmed is emitted for every confirmed sign.
	EventConfirmed EventKind = "confirmed"
	// EventSpoken is emitted when the sentence is sent to speech.
	EventSpoken EventKind = "spoken"
	// EventCleared is emitted when the sentence is emptied.
	EventCleared EventKind = "cleared"
)

// Event is pushed to listeners and subscribers. Text is the sentence
// after the event took effect. Effect is what a confirmed sign did to
// the sentence; a DELETE on an empty sentence is confirmed with NoOp.
type Event struct {
	Kind       EventKind       `json:"kind"`
	SessionID  string          `json:"session_id"`
	Symbol     sign.Symbol     `json:"symbol,omitempty"`
	Confidence float64         `json:"confidence,omitempty"`
	Effect     sentence.Effect `json:"effect,omitempty"`
	Text       string          `json:"text"`
	Seq        uint64          `json:"seq"`
	At         time.Time       `json:"at"`
}
