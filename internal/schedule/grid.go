package schedule

import (
	"fmt"
	"time"
)

// Grid maps timestamps to fixed-width slots of an operating day.
type Grid struct {
	OpeningHour  int
	ClosingHour  int
	SlotDuration time.Duration
	Location     *time.Location
}

// DefaultGrid is the reference operating day: 08:00 to 18:00 in 15-minute slots.
func DefaultGrid() Grid {
	return Grid{OpeningHour: 8, ClosingHour: 18, SlotDuration: 15 * time.Minute, Location: time.UTC}
}

// Validate rejects windows the grid cannot express as a whole number of slots.
func (g Grid) Validate() error {
	if g.OpeningHour < 0 || g.ClosingHour > 24 || g.OpeningHour >= g.ClosingHour {
		return fmt.Errorf("invalid operating window %02d:00-%02d:00", g.OpeningHour, g.ClosingHour)
	}
	if g.SlotDuration <= 0 || g.SlotDuration%time.Minute != 0 {
		return fmt.Errorf("slot duration %s must be a positive number of minutes", g.SlotDuration)
	}
	if g.window()%g.SlotDuration != 0 {
		return fmt.Errorf("slot duration %s does not divide the operating window", g.SlotDuration)
	}
	return nil
}

func (g Grid) window() time.Duration {
	return time.Duration(g.ClosingHour-g.OpeningHour) * time.Hour
}

func (g Grid) loc() *time.Location {
	if g.Location == nil {
		return time.UTC
	}
	return g.Location
}

// SlotsPerDay is the number of slots between opening and closing.
func (g Grid) SlotsPerDay() int {
	return int(g.window() / g.SlotDuration)
}

// StartOfDay is the opening time on t's calendar day.
func (g Grid) StartOfDay(t time.Time) time.Time {
	t = t.In(g.loc())
	return time.Date(t.Year(), t.Month(), t.Day(), g.OpeningHour, 0, 0, 0, g.loc())
}

// IndexOf returns the slot index of t within its own operating day. The result is
// negative before opening and >= SlotsPerDay at or after closing.
func (g Grid) IndexOf(t time.Time) int {
	d := t.In(g.loc()).Sub(g.StartOfDay(t))
	idx := int(d / g.SlotDuration)
	if d < 0 && d%g.SlotDuration != 0 {
		idx--
	}
	return idx
}

// TimestampOf is the start of slot i on the operating day of day.
func (g Grid) TimestampOf(i int, day time.Time) time.Time {
	return g.StartOfDay(day).Add(time.Duration(i) * g.SlotDuration)
}

// Align truncates t to the start of the slot containing it.
func (g Grid) Align(t time.Time) time.Time {
	return g.TimestampOf(g.IndexOf(t), t)
}

// Contains reports whether t falls in [opening, closing) of its own day.
func (g Grid) Contains(t time.Time) bool {
	i := g.IndexOf(t)
	return i >= 0 && i < g.SlotsPerDay()
}
