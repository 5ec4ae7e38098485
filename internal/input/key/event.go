package key

import "unicode"

// Event is a single key press.
type Event struct {
	Key       Key
	Rune      rune
	Modifiers Modifier
}

// NewRuneEvent creates an event for a character.
func NewRuneEvent(r rune, mods Modifier) Event {
	return Event{Key: KeyRune, Rune: r, Modifiers: mods}
}

// NewSpecialEvent creates an event for a non-character key.
func NewSpecialEvent(k Key, mods Modifier) Event {
	return Event{Key: k, Modifiers: mods}
}

// IsRune reports whether the event is a character key.
func (e Event) IsRune() bool {
	return e.Key == KeyRune && e.Rune != 0
}

// Normalize returns the canonical form of e. A character typed with only
// Shift drops the modifier, since it already shows in the character. A
// letter typed with Ctrl, Alt or Meta is lowercased and an uppercase
// letter implies Shift.
func (e Event) Normalize() Event {
	if !e.IsRune() {
		return e
	}
	if !e.Modifiers.Has(ModCtrl | ModAlt | ModMeta) {
		e.Modifiers = e.Modifiers.Without(ModShift)
		return e
	}
	if unicode.IsUpper(e.Rune) {
		e.Rune = unicode.ToLower(e.Rune)
		e.Modifiers = e.Modifiers.With(ModShift)
	}
	return e
}

// String returns the canonical specification, such as "Ctrl-Shift-z",
// "Shift-Enter" or "A".
func (e Event) String() string {
	e = e.Normalize()
	var name string
	switch {
	case e.IsRune() && e.Rune == ' ':
		name = "Space"
	case e.IsRune():
		name = string(e.Rune)
	default:
		name = e.Key.String()
	}
	if mods := e.Modifiers.String(); mods != "" {
		return mods + "-" + name
	}
	return name
}

// Equals reports whether two events are the same key press.
func (e Event) Equals(other Event) bool {
	return e.Normalize() == other.Normalize()
}

// Matches reports whether e matches the key specification spec.
func (e Event) Matches(spec string) bool {
	parsed, err := Parse(spec)
	return err == nil && e.Equals(parsed)
}

// Canonical parses spec and returns its canonical string.
func Canonical(spec string) (string, error) {
	e, err := Parse(spec)
	if err != nil {
		return "", err
	}
	return e.String(), nil
}

// Text returns the character an unmodified rune event types, if any.
func (e Event) Text() (string, bool) {
	if !e.IsRune() || e.Modifiers.Has(ModCtrl|ModAlt|ModMeta) || !unicode.IsPrint(e.Rune) {
		return "", false
	}
	return string(e.Rune), true
}
