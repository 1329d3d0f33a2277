package schedule

import (
	"time"

	"droneDeliveryScheduler/models"
)

// FindFreeDrone returns the first drone of the fleet, in fleet order, whose slot at t is
// AVAILABLE. An empty fleet is reported before any selection is attempted.
func (g Grid) FindFreeDrone(fleet []*models.Drone, t time.Time) (*models.Drone, error) {
	if len(fleet) == 0 {
		return nil, ErrZeroDronesInFleet
	}
	for _, d := range fleet {
		if g.StateAt(d, t) == models.StateAvailable {
			return d, nil
		}
	}
	return nil, newError(KindNoFreeDroneAtTimeSlot, "%s", t.Format("15:04"))
}
