package confirm

import (
	"time"

	"github.com/ayusman/mudra/internal/sign"
)

// PhaseKind tags the active phase of the engine.
type PhaseKind uint8

const (
	// PhaseIdle means no sign is being held.
	PhaseIdle PhaseKind = iota
	// PhaseHolding means the same sign has been seen on every frame since Since.
	PhaseHolding
	// PhaseCooldown means a sign was confirmed and input is ignored until Until.
	PhaseCooldown
)

// String returns a lower-case name for logs and JSON.
func (k PhaseKind) String() string {
	switch k {
	case PhaseHolding:
		return "holding"
	case PhaseCooldown:
		return "cooldown"
	default:
		return "idle"
	}
}

// Phase is the whole state of the engine. Only the fields belonging to
// Kind are set: Symbol and Since for holding, Until for cooldown.
type Phase struct {
	Kind   PhaseKind
	Symbol sign.Symbol
	Since  time.Time
	Until  time.Time
}

func idle() Phase {
	return Phase{Kind: PhaseIdle}
}

func holding(s sign.Symbol, since time.Time) Phase {
	return Phase{Kind: PhaseHolding, Symbol: s, Since: since}
}

func cooldown(until time.Time) Phase {
	return Phase{Kind: PhaseCooldown, Until: until}
}
