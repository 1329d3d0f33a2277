package schedule

import (
	"time"

	"droneDeliveryScheduler/models"
)

// Policy is the maintenance and charging model applied to every drone's day.
type Policy struct {
	// ReviewThreshold is the accumulated flight time at which a review is due.
	ReviewThreshold int
	// ReviewSlots is the length of the review block.
	ReviewSlots int
	// ChargeSlots is the length of a charge block.
	ChargeSlots int
	// ChargeInterval is the number of free slots before the first charge block.
	ChargeInterval int
}

// DefaultPolicy: 3-hour review at 80 flight units, 1-hour charge after every 3 free slots.
func DefaultPolicy() Policy {
	return Policy{ReviewThreshold: 80, ReviewSlots: 12, ChargeSlots: 4, ChargeInterval: 3}
}

// InitDayPlan builds the initial slots of a drone's day: at most one REVIEW block, placed when
// the flight-time budget runs out, and RESERVED_FOR_CHARGE blocks between runs of free slots.
// Free slots are not emitted. The slot right after a block stays free without counting
// toward the next charge.
func InitDayPlan(g Grid, p Policy, flightTime int, day time.Time) []models.TimeSlot {
	n := g.SlotsPerDay()
	reviewIn := max(p.ReviewThreshold-flightTime, 0)
	chargeIn := max(p.ChargeInterval, 0)
	reviewed := false

	var out []models.TimeSlot
	emit := func(from, size int, state models.State) int {
		end := min(from+size, n)
		for i := from; i < end; i++ {
			out = append(out, models.TimeSlot{At: g.TimestampOf(i, day), State: state})
		}
		return end
	}

	for i := 0; i < n; i++ {
		switch {
		case !reviewed && reviewIn == 0:
			i = emit(i, p.ReviewSlots, models.StateReview)
			reviewed = true
		case chargeIn == 0 && p.ChargeSlots > 0:
			i = emit(i, p.ChargeSlots, models.StateReservedForCharge)
			chargeIn = max(p.ChargeInterval-1, 0)
		default:
			if reviewIn > 0 {
				reviewIn--
			}
			if chargeIn > 0 {
				chargeIn--
			}
		}
	}
	return out
}
