package models

// Drone is a delivery drone and the time slots it owns for the current operating day.
// A drone never holds two slots at the same time of day.
type Drone struct {
	ID         string     `db:"id" json:"id"`
	FlightTime int        `db:"flight_time" json:"flight_time"`
	TimeSlots  []TimeSlot `db:"-" json:"time_slots,omitempty"`
}

// HasDayPlan reports whether the drone's day-plan has been initialised.
func (d *Drone) HasDayPlan() bool {
	return d != nil && len(d.TimeSlots) > 0
}
