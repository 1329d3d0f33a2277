package schedule

import (
	"sort"
	"time"

	"droneDeliveryScheduler/models"
)

// StateAt reports what occupies the drone's slot at t. Slots are matched on hour and
// minute only: a drone's slots always describe the current operating day.
func (g Grid) StateAt(d *models.Drone, t time.Time) models.State {
	t = t.In(g.loc())
	for _, s := range d.TimeSlots {
		at := s.At.In(g.loc())
		if at.Hour() == t.Hour() && at.Minute() == t.Minute() {
			return s.State
		}
	}
	return models.StateAvailable
}

// Planning expands a drone's sparse slots into one state per grid index.
func (g Grid) Planning(slots []models.TimeSlot) []models.State {
	plan := make([]models.State, g.SlotsPerDay())
	for i := range plan {
		plan[i] = models.StateAvailable
	}
	for _, s := range slots {
		if i := g.IndexOf(s.At); i >= 0 && i < len(plan) {
			plan[i] = s.State
		}
	}
	return plan
}

// ChargeRunAfter returns the grid indices of the first RESERVED_FOR_CHARGE run found
// scanning forward from index from (exclusive). Free, delivery and review slots are
// skipped; reaching a CHARGING slot first means a charge is already under way and
// nothing is returned.
func ChargeRunAfter(plan []models.State, from int) []int {
	i := from + 1
	for ; i < len(plan) && plan[i] != models.StateReservedForCharge; i++ {
		if plan[i] == models.StateCharging {
			return nil
		}
	}
	var run []int
	for ; i < len(plan) && plan[i] == models.StateReservedForCharge; i++ {
		run = append(run, i)
	}
	return run
}

// sortSlots orders slots by time.
func sortSlots(slots []models.TimeSlot) {
	sort.Slice(slots, func(i, j int) bool { return slots[i].At.Before(slots[j].At) })
}
