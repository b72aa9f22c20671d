package counting

import (
	"strconv"
	"strings"

	"go-stockcount-ws/pkg/apperr"
)

// DefaultKeypadPrecision caps decimal places accepted from keypad entry.
const DefaultKeypadPrecision = 3

// Keypad accumulates keystrokes into a decimal value with explicit rules:
// a single decimal point, leading zeros collapse, digits beyond the
// precision limit are rejected. Independent of any UI toolkit.
type Keypad struct {
	digits    string
	precision int
}

func NewKeypad() *Keypad {
	return &Keypad{precision: DefaultKeypadPrecision}
}

// Press feeds one keystroke: '0'-'9' or '.'.
func (k *Keypad) Press(key rune) error {
	switch {
	case key >= '0' && key <= '9':
		if i := strings.IndexByte(k.digits, '.'); i >= 0 && len(k.digits)-i-1 >= k.precision {
			return apperr.Validation("maximum %d decimal places", k.precision)
		}
		if k.digits == "0" {
			// leading zero collapses: "0" then "5" reads 5, not 05
			k.digits = string(key)
			return nil
		}
		k.digits += string(key)
	case key == '.':
		if strings.ContainsRune(k.digits, '.') {
			return apperr.Validation("decimal point already entered")
		}
		if k.digits == "" {
			k.digits = "0."
			return nil
		}
		k.digits += "."
	default:
		return apperr.Validation("unsupported keypad key %q", key)
	}
	return nil
}

// Backspace removes the last keystroke.
func (k *Keypad) Backspace() {
	if k.digits == "" {
		return
	}
	k.digits = k.digits[:len(k.digits)-1]
}

// Clear resets the accumulator.
func (k *Keypad) Clear() { k.digits = "" }

// String returns the display form, "0" when empty.
func (k *Keypad) String() string {
	if k.digits == "" {
		return "0"
	}
	return k.digits
}

// Value parses the accumulated keystrokes.
func (k *Keypad) Value() float64 {
	s := strings.TrimSuffix(k.String(), ".")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
