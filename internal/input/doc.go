// Package input turns user input into editor actions.
//
// # Architecture
//
//   - key: key events, chord parsing and the tcell adapter
//   - keymap: chord-to-action bindings with "when" conditions
//   - Handler: resolves key events under the current Context
//   - Toolbar and ParseAction: the button and command-line surfaces
//
// # Context
//
// The Context records whether the editing surface has focus, whether a
// modal text-entry surface intercepts keys, and whether a continuation
// is in flight. Bindings use these as conditions, so Shift-Enter only
// continues writing while the editor is focused, no modal is open and
// no request is running.
//
// # Usage
//
//	h := input.NewHandler(input.WithLogger(log))
//	if err := h.ApplyKeymap(cfg.Editor().Keymap); err != nil {
//	    log.Warn("keymap: %v", err)
//	}
//
//	if ev, ok := key.FromTcell(tev); ok {
//	    if action, ok := h.HandleKeyEvent(ev); ok {
//	        dispatcher.Dispatch(action)
//	    }
//	}
package input
