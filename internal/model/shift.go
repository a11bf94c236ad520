package model

import (
	"fmt"
	"strings"
)

// Shift is one of the three daily booking blocks.
type Shift string

const (
	ShiftMorning   Shift = "MORNING"
	ShiftAfternoon Shift = "AFTERNOON"
	ShiftNight     Shift = "NIGHT"
)

// Shifts lists every shift in the order of the day.
var Shifts = []Shift{ShiftMorning, ShiftAfternoon, ShiftNight}

// Valid reports whether s is one of the three recognised shifts.
func (s Shift) Valid() bool {
	switch s {
	case ShiftMorning, ShiftAfternoon, ShiftNight:
		return true
	}
	return false
}

// Rank orders shifts within a day: morning 0, afternoon 1, night 2.
// Unknown shifts sort last.
func (s Shift) Rank() int {
	for i, v := range Shifts {
		if v == s {
			return i
		}
	}
	return len(Shifts)
}

// Label returns a human readable name such as "Morning".
func (s Shift) Label() string {
	switch s {
	case ShiftMorning:
		return "Morning"
	case ShiftAfternoon:
		return "Afternoon"
	case ShiftNight:
		return "Night"
	}
	return string(s)
}

// ParseShift accepts the full shift name or its one letter code in any
// case.  "V" (vespertine) is kept as an alias for the afternoon shift so
// that codes typed by long time users keep working.
func ParseShift(raw string) (Shift, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "M", "MORNING":
		return ShiftMorning, nil
	case "A", "V", "AFTERNOON":
		return ShiftAfternoon, nil
	case "N", "NIGHT":
		return ShiftNight, nil
	}
	return "", fmt.Errorf("unknown shift %q (use M, A or N)", raw)
}
