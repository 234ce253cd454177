package input

import (
	"fmt"
	"strings"
)

// Key is a hardware key the dispatcher knows how to press.
type Key string

const (
	KeyHome       Key = "home"
	KeyLock       Key = "lock"
	KeyVolumeUp   Key = "volumeUp"
	KeyVolumeDown Key = "volumeDown"
)

// Keys lists the supported key names in display form.
func Keys() []string {
	return []string{string(KeyHome), string(KeyLock), string(KeyVolumeUp), string(KeyVolumeDown)}
}

// UnsupportedKeyError rejects a key name outside the supported set.
type UnsupportedKeyError struct {
	Key string
}

func (e *UnsupportedKeyError) Error() string {
	return fmt.Sprintf("unsupported key %q (use %s)", e.Key, strings.Join(Keys(), ", "))
}

// ParseKey normalizes a key name, accepting volume_up/volume-up style
// spellings.
func ParseKey(s string) (Key, error) {
	norm := strings.ToLower(strings.NewReplacer("-", "", "_", "").Replace(strings.TrimSpace(s)))
	switch norm {
	case "home":
		return KeyHome, nil
	case "lock":
		return KeyLock, nil
	case "volumeup":
		return KeyVolumeUp, nil
	case "volumedown":
		return KeyVolumeDown, nil
	default:
		return "", &UnsupportedKeyError{Key: s}
	}
}
