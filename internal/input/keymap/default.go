package keymap

// Conditions shared by the default bindings.
const (
	whenEditing  = CondEditorFocus + " && !" + CondModalActive
	whenContinue = whenEditing + " && !" + CondGenerating
)

// LoadDefaults loads all default keymaps into the registry.
func LoadDefaults(r *Registry) error {
	return r.Register(DefaultKeymap())
}

// DefaultKeymap returns the built-in editor bindings.
func DefaultKeymap() *Keymap {
	return &Keymap{
		Name:   "default",
		Source: "default",
		Bindings: []Binding{
			// Marks
			{Keys: "Mod-b", Action: "format.toggleMark.strong", When: whenEditing, Description: "Toggle bold", Category: "Format"},
			{Keys: "Mod-i", Action: "format.toggleMark.em", When: whenEditing, Description: "Toggle italic", Category: "Format"},
			{Keys: "Mod-`", Action: "format.toggleMark.code", When: whenEditing, Description: "Toggle inline code", Category: "Format"},

			// History
			{Keys: "Mod-z", Action: "history.undo", When: whenEditing, Description: "Undo", Category: "History"},
			{Keys: "Mod-Shift-z", Action: "history.redo", When: whenEditing, Description: "Redo", Category: "History"},
			{Keys: "Mod-y", Action: "history.redo", When: whenEditing, Description: "Redo", Category: "History"},

			// Continue writing
			{Keys: "Shift-Enter", Action: "ai.continue", When: whenContinue, Description: "Continue writing", Category: "AI"},
		},
	}
}
