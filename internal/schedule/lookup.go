package schedule

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"droneDeliveryScheduler/internal/events"
	"droneDeliveryScheduler/models"
	"droneDeliveryScheduler/repository"
)

// NextDelivery returns the earliest delivery, across the whole fleet, whose slot is
// strictly after the given instant. It returns nil when nothing is scheduled.
func (s *Scheduler) NextDelivery(ctx context.Context, after time.Time) (*models.Delivery, error) {
	fleet, err := s.drones.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list drones: %w", err)
	}
	if len(fleet) == 0 {
		return nil, ErrZeroDronesInFleet
	}

	var best *models.TimeSlot
	for _, d := range fleet {
		for i := range d.TimeSlots {
			ts := &d.TimeSlots[i]
			if ts.State != models.StateDelivery || ts.DeliveryID == nil || !ts.At.After(after) {
				continue
			}
			if best == nil || ts.At.Before(best.At) {
				best = ts
			}
		}
	}
	if best == nil {
		return nil, nil
	}

	delivery, err := s.deliveries.GetByID(ctx, *best.DeliveryID)
	if err != nil {
		return nil, fmt.Errorf("get delivery %s: %w", *best.DeliveryID, err)
	}
	if delivery == nil {
		droneID := best.DroneID
		delivery = &models.Delivery{ID: *best.DeliveryID, DroneID: &droneID}
	}
	return delivery, nil
}

// CurrentPlanning returns one state per slot of the operating day for a drone.
func (s *Scheduler) CurrentPlanning(ctx context.Context, droneID string) ([]models.State, error) {
	d, err := s.drones.GetByID(ctx, droneID)
	if err != nil {
		return nil, fmt.Errorf("get drone %s: %w", droneID, err)
	}
	if d == nil {
		return nil, newError(KindDroneNotFound, "%s", droneID)
	}
	return s.grid.Planning(d.TimeSlots), nil
}

// ResetDay clears the day-plan of one drone, or of the whole fleet when droneID is empty.
// Deliveries keep their drone binding. The next scheduling request re-initialises the plan.
func (s *Scheduler) ResetDay(ctx context.Context, droneID string) (int, error) {
	var ids []string
	if droneID != "" {
		d, err := s.drones.GetByID(ctx, droneID)
		if err != nil {
			return 0, fmt.Errorf("get drone %s: %w", droneID, err)
		}
		if d == nil {
			return 0, newError(KindDroneNotFound, "%s", droneID)
		}
		ids = []string{d.ID}
	} else {
		fleet, err := s.drones.List(ctx)
		if err != nil {
			return 0, fmt.Errorf("list drones: %w", err)
		}
		for _, d := range fleet {
			ids = append(ids, d.ID)
		}
	}

	reset := 0
	for _, id := range ids {
		n, err := s.clearDrone(ctx, id)
		if err != nil {
			return reset, err
		}
		if n > 0 {
			reset++
		}
	}
	return reset, nil
}

func (s *Scheduler) clearDrone(ctx context.Context, id string) (int64, error) {
	unlock, err := s.locker.Lock(ctx, "drone:"+id)
	if err != nil {
		return 0, fmt.Errorf("lock drone %s: %w", id, err)
	}
	defer unlock()
	n, err := s.drones.ClearSlots(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("clear slots of %s: %w", id, err)
	}
	if n > 0 {
		s.metrics.DayPlanReset()
		s.log.Info().Str("drone", id).Int64("slots", n).Msg("day plan reset")
		s.publish(ctx, events.Event{Type: events.DayPlanReset, DroneID: id})
	}
	return n, nil
}

// RegisterDrone adds a drone to the fleet with an empty day-plan.
func (s *Scheduler) RegisterDrone(ctx context.Context, id string, flightTime int) (*models.Drone, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, errors.New("drone id is required")
	}
	d, err := s.drones.Create(ctx, &models.Drone{ID: id, FlightTime: flightTime})
	if errors.Is(err, repository.ErrDroneExists) {
		return nil, newError(KindDroneAlreadyRegistered, "%s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("create drone %s: %w", id, err)
	}
	s.log.Info().Str("drone", id).Int("flight_time", flightTime).Msg("drone registered")
	return d, nil
}

// RemoveDrone takes a drone out of the fleet together with its day-plan.
// Deliveries it carried stay in the store, unbound.
func (s *Scheduler) RemoveDrone(ctx context.Context, id string) error {
	unlock, err := s.locker.Lock(ctx, "drone:"+id)
	if err != nil {
		return fmt.Errorf("lock drone %s: %w", id, err)
	}
	defer unlock()
	err = s.drones.Delete(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return newError(KindDroneNotFound, "%s", id)
	}
	if err != nil {
		return fmt.Errorf("delete drone %s: %w", id, err)
	}
	s.log.Info().Str("drone", id).Msg("drone removed")
	return nil
}

// DroneDeliveries lists the deliveries bound to a drone, oldest first.
func (s *Scheduler) DroneDeliveries(ctx context.Context, id string) ([]models.Delivery, error) {
	d, err := s.drones.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get drone %s: %w", id, err)
	}
	if d == nil {
		return nil, newError(KindDroneNotFound, "%s", id)
	}
	list, err := s.deliveries.ListByDrone(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list deliveries of %s: %w", id, err)
	}
	return list, nil
}

// AddFlightTime records flight time flown by a drone. It takes effect on the next day-plan.
func (s *Scheduler) AddFlightTime(ctx context.Context, id string, delta int) error {
	if delta < 0 {
		return fmt.Errorf("negative flight time delta %d", delta)
	}
	err := s.drones.AddFlightTime(ctx, id, delta)
	if errors.Is(err, sql.ErrNoRows) {
		return newError(KindDroneNotFound, "%s", id)
	}
	return err
}

// Fleet lists every drone with its slots, in fleet order.
func (s *Scheduler) Fleet(ctx context.Context) ([]*models.Drone, error) {
	fleet, err := s.drones.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list drones: %w", err)
	}
	for _, d := range fleet {
		sortSlots(d.TimeSlots)
	}
	return fleet, nil
}
