package app

import (
	"errors"
	"fmt"
	"strings"

	hook "github.com/robotn/gohook"
)

// ErrInvalidHotkey is returned by ParseHotkey.
var ErrInvalidHotkey = errors.New("invalid hotkey")

var modifierAliases = map[string]string{
	"ctrl":    "ctrl",
	"control": "ctrl",
	"shift":   "shift",
	"alt":     "alt",
	"option":  "alt",
	"cmd":     "cmd",
	"command": "cmd",
	"win":     "cmd",
	"super":   "cmd",
}

// ParseHotkey turns a combo such as "F1" or "ctrl+shift+`" into the key
// list gohook expects: modifiers first, exactly one non-modifier key last.
func ParseHotkey(s string) ([]string, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidHotkey)
	}
	var mods []string
	var key string
	seen := map[string]bool{}
	for _, part := range strings.Split(s, "+") {
		part = strings.TrimSpace(part)
		if part == "" {
			return nil, fmt.Errorf("%w: %q has an empty key", ErrInvalidHotkey, s)
		}
		if m, ok := modifierAliases[part]; ok {
			if seen[m] {
				return nil, fmt.Errorf("%w: %q repeats %s", ErrInvalidHotkey, s, m)
			}
			seen[m] = true
			mods = append(mods, m)
			continue
		}
		if key != "" {
			return nil, fmt.Errorf("%w: %q has more than one key", ErrInvalidHotkey, s)
		}
		if _, ok := hook.Keycode[part]; !ok {
			return nil, fmt.Errorf("%w: unknown key %q", ErrInvalidHotkey, part)
		}
		key = part
	}
	if key == "" {
		return nil, fmt.Errorf("%w: %q has no key besides modifiers", ErrInvalidHotkey, s)
	}
	return append(mods, key), nil
}
