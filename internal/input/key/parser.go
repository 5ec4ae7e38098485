package key

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// Parse errors.
var (
	ErrEmptySpec   = errors.New("empty key specification")
	ErrInvalidSpec = errors.New("invalid key specification")
)

// Parse parses a key specification. See the package documentation for
// the accepted notations.
func Parse(spec string) (Event, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return Event{}, ErrEmptySpec
	}
	if len(spec) > 2 && strings.HasPrefix(spec, "<") && strings.HasSuffix(spec, ">") {
		return parseParts(spec, splitSpec(spec[1:len(spec)-1], '-'))
	}
	sep := '-'
	if strings.Contains(spec, "+") && len(spec) > 1 {
		sep = '+'
	}
	return parseParts(spec, splitSpec(spec, sep))
}

// MustParse parses spec and panics on error. Use only for known-valid
// specs in initialization code.
func MustParse(spec string) Event {
	e, err := Parse(spec)
	if err != nil {
		panic("invalid key specification: " + spec + ": " + err.Error())
	}
	return e
}

// splitSpec splits on sep. A trailing separator names the separator key
// itself, so "Mod--" is Mod plus the minus key.
func splitSpec(s string, sep rune) []string {
	if s == string(sep) {
		return []string{s}
	}
	parts := strings.Split(s, string(sep))
	if n := len(parts); n >= 2 && parts[n-1] == "" && parts[n-2] == "" {
		parts = append(parts[:n-2], string(sep))
	}
	return parts
}

func parseParts(spec string, parts []string) (Event, error) {
	var mods Modifier
	for _, p := range parts[:len(parts)-1] {
		mod := modifierFromName(p)
		if mod == ModNone {
			return Event{}, fmt.Errorf("%w: unknown modifier %q in %q", ErrInvalidSpec, p, spec)
		}
		mods = mods.With(mod)
	}
	name := parts[len(parts)-1]
	if name == "" {
		return Event{}, fmt.Errorf("%w: missing key in %q", ErrInvalidSpec, spec)
	}
	if k, r, ok := lookupName(name); ok {
		if k == KeyRune {
			return NewRuneEvent(r, mods).Normalize(), nil
		}
		return NewSpecialEvent(k, mods), nil
	}
	runes := []rune(name)
	if len(runes) != 1 || !unicode.IsPrint(runes[0]) {
		return Event{}, fmt.Errorf("%w: unknown key %q in %q", ErrInvalidSpec, name, spec)
	}
	return NewRuneEvent(runes[0], mods).Normalize(), nil
}
