package models

import "time"

// State is the occupation of a single time slot.
type State string

const (
	StateAvailable         State = "AVAILABLE"
	StateDelivery          State = "DELIVERY"
	StateReservedForCharge State = "RESERVED_FOR_CHARGE"
	StateCharging          State = "CHARGING"
	StateReview            State = "REVIEW"
)

// Valid reports whether s is one of the known states.
func (s State) Valid() bool {
	switch s {
	case StateAvailable, StateDelivery, StateReservedForCharge, StateCharging, StateReview:
		return true
	}
	return false
}

// TimeSlot is one recorded slot of a drone's day. AVAILABLE slots are never stored.
// DeliveryID is only set when State is DELIVERY.
type TimeSlot struct {
	ID         int64     `db:"id" json:"id"`
	DroneID    string    `db:"drone_id" json:"drone_id"`
	At         time.Time `db:"slot_at" json:"at"`
	State      State     `db:"state" json:"state"`
	DeliveryID *string   `db:"delivery_id" json:"delivery_id,omitempty"`
}
