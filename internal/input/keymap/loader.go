package keymap

import (
	"fmt"
	"sort"
	"strings"
)

// UserKeymapName is the name of the keymap built from configuration.
const UserKeymapName = "user"

// userPriority ranks user bindings above the defaults.
const userPriority = 100

// FromOverrides builds the user keymap from a chord-to-action table such
// as the editor.keymap configuration section. A binding for an action
// that has a default binding inherits the default's condition, so
// rebinding ai.continue keeps it gated on focus. Chords are applied in
// sorted order so errors are reported deterministically.
func FromOverrides(overrides map[string]string, defaults *Keymap) (*Keymap, error) {
	km := NewKeymap(UserKeymapName).WithPriority(userPriority).WithSource("user")

	chords := make([]string, 0, len(overrides))
	for chord := range overrides {
		chords = append(chords, chord)
	}
	sort.Strings(chords)

	for _, chord := range chords {
		action := strings.TrimSpace(overrides[chord])
		if action == "" {
			return nil, fmt.Errorf("keymap %s: binding %q: empty action", UserKeymapName, chord)
		}
		b := NewBinding(chord, action).WithCategory("User")
		if defaults != nil {
			if def, ok := defaults.ForAction(action); ok {
				b.When = def.When
				b.Description = def.Description
				b.Args = def.Args
			}
		}
		km.AddBinding(b)
	}

	if err := km.Validate(); err != nil {
		return nil, err
	}
	return km, nil
}

// ApplyOverrides replaces the user keymap in r. An empty table removes
// it.
func ApplyOverrides(r *Registry, overrides map[string]string) error {
	if len(overrides) == 0 {
		r.Unregister(UserKeymapName)
		return nil
	}
	km, err := FromOverrides(overrides, DefaultKeymap())
	if err != nil {
		return err
	}
	return r.Register(km)
}
