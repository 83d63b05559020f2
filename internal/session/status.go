package session

import (
	"time"

	"github.com/ayusman/mudra/internal/confirm"
	"github.com/ayusman/mudra/internal/sign"
)

// Snapshot is the externally visible state of a session.
//
// ConfirmedSign stays set for the cooldown window that follows a
// confirmation, and Seq increases with every confirmation, so a client
// polling slower than the frame rate still sees every sign.
type Snapshot struct {
	ConfirmedSign     *sign.Symbol   `json:"confirmed_sign"`
	InCooldown        bool           `json:"in_cooldown"`
	CooldownRemaining float64        `json:"cooldown_remaining"`
	Phase             string         `json:"phase"`
	Seq               uint64         `json:"seq"`
	Sentence          string         `json:"sentence"`
	UpdatedAt         time.Time      `json:"updated_at"`
	Status            confirm.Status `json:"-"`
}

// Status returns the session state as seen at now.
func (s *Session) Status(now time.Time) Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Phase:     s.engine.Phase().Kind.String(),
		Seq:       s.seq,
		Sentence:  s.buffer.Text(),
		UpdatedAt: s.updatedAt,
		Status:    s.last,
	}

	if p := s.engine.Phase(); p.Kind == confirm.PhaseCooldown && now.Before(p.Until) {
		snap.InCooldown = true
		snap.CooldownRemaining = p.Until.Sub(now).Seconds()
	}

	zeroCooldown := s.engine.Config().CooldownDuration == 0
	if s.seq > 0 && (now.Before(s.signShownTo) || zeroCooldown && s.last.Kind == confirm.StatusDetected) {
		confirmed := s.lastSign
		snap.ConfirmedSign = &confirmed
	}

	return snap
}
