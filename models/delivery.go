package models

// Delivery is an opaque payload scheduled onto a drone.
// DroneID is bound once, when the delivery is accepted.
type Delivery struct {
	ID        string  `db:"id" json:"id"`
	DroneID   *string `db:"drone_id" json:"drone_id,omitempty"`
	CreatedAt string  `db:"created_at" json:"created_at,omitempty"`
}

// Scheduled reports whether the delivery has been bound to a drone.
func (d *Delivery) Scheduled() bool {
	return d != nil && d.DroneID != nil && *d.DroneID != ""
}
