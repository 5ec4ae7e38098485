package key

import "github.com/gdamore/tcell/v2"

// FromTcell converts a terminal key event. The second result is false for
// keys with no equivalent here.
func FromTcell(ev *tcell.EventKey) (Event, bool) {
	mods := fromTcellMod(ev.Modifiers())
	k := ev.Key()
	switch k {
	case tcell.KeyRune:
		return NewRuneEvent(ev.Rune(), mods).Normalize(), true
	case tcell.KeyEnter:
		return NewSpecialEvent(KeyEnter, mods), true
	case tcell.KeyTab:
		return NewSpecialEvent(KeyTab, mods), true
	case tcell.KeyBacktab:
		return NewSpecialEvent(KeyTab, mods.With(ModShift)), true
	case tcell.KeyEscape:
		return NewSpecialEvent(KeyEscape, mods), true
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		return NewSpecialEvent(KeyBackspace, mods), true
	case tcell.KeyDelete:
		return NewSpecialEvent(KeyDelete, mods), true
	case tcell.KeyHome:
		return NewSpecialEvent(KeyHome, mods), true
	case tcell.KeyEnd:
		return NewSpecialEvent(KeyEnd, mods), true
	case tcell.KeyPgUp:
		return NewSpecialEvent(KeyPageUp, mods), true
	case tcell.KeyPgDn:
		return NewSpecialEvent(KeyPageDown, mods), true
	case tcell.KeyUp:
		return NewSpecialEvent(KeyUp, mods), true
	case tcell.KeyDown:
		return NewSpecialEvent(KeyDown, mods), true
	case tcell.KeyLeft:
		return NewSpecialEvent(KeyLeft, mods), true
	case tcell.KeyRight:
		return NewSpecialEvent(KeyRight, mods), true
	case tcell.KeyCtrlSpace:
		return NewRuneEvent(' ', mods.With(ModCtrl)), true
	}
	// Control characters arrive as their own key codes.
	if k >= tcell.KeyCtrlA && k <= tcell.KeyCtrlZ {
		r := 'a' + rune(k-tcell.KeyCtrlA)
		return NewRuneEvent(r, mods.With(ModCtrl)), true
	}
	return Event{}, false
}

func fromTcellMod(m tcell.ModMask) Modifier {
	var result Modifier
	if m&tcell.ModShift != 0 {
		result |= ModShift
	}
	if m&tcell.ModCtrl != 0 {
		result |= ModCtrl
	}
	if m&tcell.ModAlt != 0 {
		result |= ModAlt
	}
	if m&tcell.ModMeta != 0 {
		result |= ModMeta
	}
	return result
}
