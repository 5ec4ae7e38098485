// Package key provides key events and key specification parsing.
//
// Specifications follow the editor keymap notation, where "Mod" is the
// primary command modifier (Ctrl):
//
//   - Simple keys: "a", "A", "Enter", "Escape", "Space"
//   - Hyphen style: "Mod-b", "Shift-Enter", "Mod-Shift-z", "Ctrl-`"
//   - Plus style: "Ctrl+S", "Ctrl+Shift+P"
//   - Vim style: "<C-s>", "<S-CR>"
//
// Every event has a canonical string (Event.String) used as the keymap
// lookup key, so specs written in any style compare equal.
package key
