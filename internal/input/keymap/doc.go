// Package keymap maps key chords to action names.
//
// A Keymap is a named list of bindings. Keymaps are registered in a
// Registry, which resolves a key event to the binding of the highest
// priority keymap whose "when" condition holds:
//
//	reg := keymap.NewRegistry()
//	_ = keymap.LoadDefaults(reg)
//
//	ctx := keymap.NewLookupContext()
//	ctx.Conditions[keymap.CondEditorFocus] = true
//	if b := reg.Lookup(key.MustParse("Mod-b"), ctx); b != nil {
//	    fmt.Println(b.Action) // format.toggleMark.strong
//	}
//
// User overrides come from the editor.keymap configuration table and are
// registered with a higher priority than the defaults. Binding a key to
// the action "none" disables the default binding of that key.
//
// Conditions are plain names combined with !, && and ||, for example
// "editorTextFocus && !modalActive".
package keymap
