// Package sign defines the closed alphabet of recognised hand signs.
package sign

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownLabel is returned when a classifier label does not name a symbol.
var ErrUnknownLabel = errors.New("unknown sign label")

// Symbol is one element of the recognised alphabet: a letter A-Z or a
// control gesture. The zero value is None and never appears in output.
type Symbol uint8

// Control symbols follow the 26 letters.
const (
	None Symbol = iota
	A
	B
	C
	D
	E
	F
	G
	H
	I
	J
	K
	L
	M
	N
	O
	P
	Q
	R
	S
	T
	U
	V
	W
	X
	Y
	Z
	Space
	Delete
	Clear
	Speak
)

// DefaultLabels is the output order of the bundled letter model.
var DefaultLabels = []string{
	"A", "B", "C", "D", "DELETE", "E", "F", "G", "H", "I",
	"J", "K", "L", "M", "N", "O", "P", "Q", "R", "S",
	"Space", "T", "U", "V", "W", "X", "Y", "Z",
}

var controlNames = map[Symbol]string{
	Space:  "SPACE",
	Delete: "DELETE",
	Clear:  "CLEAR",
	Speak:  "SPEAK",
}

// Letter returns the symbol for an ASCII letter (either case).
func Letter(r rune) (Symbol, bool) {
	switch {
	case r >= 'A' && r <= 'Z':
		return A + Symbol(r-'A'), true
	case r >= 'a' && r <= 'z':
		return A + Symbol(r-'a'), true
	}
	return None, false
}

// Parse converts a classifier label into a Symbol.
// Letters and control names are matched case-insensitively; a lone
// space is accepted as Space.
func Parse(label string) (Symbol, error) {
	if label == " " {
		return Space, nil
	}
	l := strings.ToUpper(strings.TrimSpace(label))
	if len(l) == 1 {
		if s, ok := Letter(rune(l[0])); ok {
			return s, nil
		}
	}
	switch l {
	case "SPACE":
		return Space, nil
	case "DELETE", "DEL":
		return Delete, nil
	case "CLEAR":
		return Clear, nil
	case "SPEAK":
		return Speak, nil
	}
	return None, fmt.Errorf("%w: %q", ErrUnknownLabel, label)
}

// MustParse is like Parse but panics on an unknown label. Meant for
// tests and static tables.
func MustParse(label string) Symbol {
	s, err := Parse(label)
	if err != nil {
		panic(err)
	}
	return s
}

// Valid reports whether s is a member of the alphabet.
func (s Symbol) Valid() bool {
	return s >= A && s <= Speak
}

// IsLetter reports whether s is one of A-Z.
func (s Symbol) IsLetter() bool {
	return s >= A && s <= Z
}

// IsControl reports whether s is SPACE, DELETE, CLEAR or SPEAK.
func (s Symbol) IsControl() bool {
	return s >= Space && s <= Speak
}

// Rune returns the character a letter contributes to a sentence.
// Space yields ' '. Other symbols return 0.
func (s Symbol) Rune() rune {
	switch {
	case s.IsLetter():
		return 'A' + rune(s-A)
	case s == Space:
		return ' '
	}
	return 0
}

// String returns the canonical name, e.g. "A" or "SPACE".
func (s Symbol) String() string {
	if s.IsLetter() {
		return string(s.Rune())
	}
	if name, ok := controlNames[s]; ok {
		return name
	}
	return "NONE"
}

// MarshalText encodes the symbol by name so JSON carries "A", not 1.
func (s Symbol) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a symbol name.
func (s *Symbol) UnmarshalText(b []byte) error {
	v, err := Parse(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// All returns every symbol of the alphabet in order.
func All() []Symbol {
	out := make([]Symbol, 0, int(Speak))
	for s := A; s <= Speak; s++ {
		out = append(out, s)
	}
	return out
}
