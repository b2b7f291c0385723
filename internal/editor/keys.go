package editor

import "strings"

// KeyDown handles the global shortcuts. It reports whether the key was consumed.
func (e *Engine) KeyDown(ev KeyEvent) bool {
	if ev.Code == "Space" || ev.Key == " " {
		e.spaceHeld = true
		return true
	}
	if ev.Ctrl || ev.Meta {
		switch strings.ToLower(ev.Key) {
		case "z":
			e.Abort()
			e.history.Undo()
			return true
		case "y":
			e.Abort()
			e.history.Redo()
			return true
		}
	}
	switch ev.Key {
	case "Delete", "Backspace":
		e.DeleteSelection()
		return true
	}
	return false
}

// IsHistoryChord reports whether ev is Ctrl/Cmd+Z or Ctrl/Cmd+Y.
func IsHistoryChord(ev KeyEvent) bool {
	if !ev.Ctrl && !ev.Meta {
		return false
	}
	switch strings.ToLower(ev.Key) {
	case "z", "y":
		return true
	}
	return false
}

// KeyUp releases the space-to-pan modifier.
func (e *Engine) KeyUp(ev KeyEvent) bool {
	if ev.Code == "Space" || ev.Key == " " {
		e.spaceHeld = false
		return true
	}
	return false
}
