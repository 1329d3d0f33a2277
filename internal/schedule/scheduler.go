package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"droneDeliveryScheduler/internal/events"
	"droneDeliveryScheduler/internal/lock"
	"droneDeliveryScheduler/internal/metrics"
	"droneDeliveryScheduler/models"
	"droneDeliveryScheduler/repository"
)

// Scheduler assigns deliveries to drone time slots. It keeps no state between calls;
// drones and their slots live in the repositories.
type Scheduler struct {
	grid       Grid
	policy     Policy
	drones     repository.DroneRepositoryI
	deliveries repository.DeliveryRepositoryI

	locker  lock.Locker
	events  events.Publisher
	metrics *metrics.Collector
	log     zerolog.Logger
	now     func() time.Time
}

// Option customises a Scheduler.
type Option func(*Scheduler)

// WithLocker replaces the in-process per-drone lock.
func WithLocker(l lock.Locker) Option { return func(s *Scheduler) { s.locker = l } }

// WithPublisher sets where day-plan transitions are announced.
func WithPublisher(p events.Publisher) Option { return func(s *Scheduler) { s.events = p } }

func WithMetrics(c *metrics.Collector) Option { return func(s *Scheduler) { s.metrics = c } }

func WithLogger(l zerolog.Logger) Option { return func(s *Scheduler) { s.log = l } }

// WithClock overrides time.Now, used for "today" and event timestamps.
func WithClock(now func() time.Time) Option { return func(s *Scheduler) { s.now = now } }

// New builds a Scheduler. The grid and policy must already be valid.
func New(g Grid, p Policy, drones repository.DroneRepositoryI, deliveries repository.DeliveryRepositoryI, opts ...Option) *Scheduler {
	s := &Scheduler{
		grid:       g,
		policy:     p,
		drones:     drones,
		deliveries: deliveries,
		locker:     lock.NewLocal(),
		events:     events.Nop{},
		log:        zerolog.Nop(),
		now:        time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Grid returns the slot grid the scheduler works on.
func (s *Scheduler) Grid() Grid { return s.grid }

// Now is the scheduler's clock; "today" for the grid is taken from it.
func (s *Scheduler) Now() time.Time { return s.now() }

// ScheduleDelivery books delivery on the first drone free at the slot containing at.
// On success the delivery is bound to that drone, the slot is DELIVERY and the drone's
// next reserved charge block is CHARGING. Failures are *Error values; apart from a freshly
// initialised day-plan, a failed call leaves nothing persisted.
func (s *Scheduler) ScheduleDelivery(ctx context.Context, at time.Time, delivery *models.Delivery) (ok bool, err error) {
	if delivery == nil || delivery.ID == "" {
		return false, errors.New("delivery id is required")
	}
	start := s.now()
	at = s.grid.Align(at)
	defer func() {
		outcome := "accepted"
		if err != nil {
			outcome = KindOf(err).String()
			s.log.Debug().Err(err).Str("delivery", delivery.ID).Time("slot", at).Str("kind", outcome).Msg("delivery rejected")
		}
		s.metrics.ObserveSchedule(outcome, s.now().Sub(start))
	}()

	fleet, err := s.drones.List(ctx)
	if err != nil {
		return false, fmt.Errorf("list drones: %w", err)
	}
	candidate, err := s.grid.FindFreeDrone(fleet, at)
	if err != nil {
		return false, err
	}

	unlock, err := s.locker.Lock(ctx, "drone:"+candidate.ID)
	if err != nil {
		return false, fmt.Errorf("lock drone %s: %w", candidate.ID, err)
	}
	defer unlock()

	// Reload under the lock: another request may have committed since the fleet was listed.
	drone, err := s.drones.GetByID(ctx, candidate.ID)
	if err != nil {
		return false, fmt.Errorf("get drone %s: %w", candidate.ID, err)
	}
	if drone == nil {
		return false, newError(KindDroneNotFound, "%s", candidate.ID)
	}

	if !drone.HasDayPlan() {
		if err := s.initDayPlan(ctx, drone, at); err != nil {
			return false, err
		}
	}

	if !s.grid.Contains(at) {
		return false, newError(KindOutsideOperatingHours, "%s is outside %02d:00-%02d:00",
			at.Format("2006-01-02 15:04"), s.grid.OpeningHour, s.grid.ClosingHour)
	}
	if st := s.grid.StateAt(drone, at); st != models.StateAvailable {
		return false, newError(KindTimeslotUnavailable, "%s on drone %s is %s", at.Format("15:04"), drone.ID, st)
	}

	existing, err := s.deliveries.GetByID(ctx, delivery.ID)
	if err != nil {
		return false, fmt.Errorf("get delivery %s: %w", delivery.ID, err)
	}
	if existing.Scheduled() {
		return false, newError(KindDeliveryAlreadyScheduled, "%s is bound to drone %s", delivery.ID, *existing.DroneID)
	}

	deliveryID := delivery.ID
	slot := models.TimeSlot{DroneID: drone.ID, At: at, State: models.StateDelivery, DeliveryID: &deliveryID}
	plan := s.grid.Planning(append(drone.TimeSlots, slot))
	run := ChargeRunAfter(plan, s.grid.IndexOf(at))
	promoted := make([]time.Time, len(run))
	minutes := make([]int, len(run))
	for i, idx := range run {
		promoted[i] = s.grid.TimestampOf(idx, at)
		minutes[i] = promoted[i].Hour()*60 + promoted[i].Minute()
	}

	err = s.drones.CommitDelivery(ctx, repository.DeliveryCommit{DroneID: drone.ID, Slot: slot, Promote: minutes})
	switch {
	case errors.Is(err, repository.ErrSlotTaken):
		return false, newError(KindTimeslotUnavailable, "%s on drone %s was taken concurrently", at.Format("15:04"), drone.ID)
	case errors.Is(err, repository.ErrDeliveryTaken):
		return false, newError(KindDeliveryAlreadyScheduled, "%s", delivery.ID)
	case err != nil:
		return false, fmt.Errorf("commit delivery %s: %w", delivery.ID, err)
	}

	droneID := drone.ID
	delivery.DroneID = &droneID
	s.metrics.ChargePromoted(len(promoted))
	s.log.Info().
		Str("drone", drone.ID).
		Str("delivery", delivery.ID).
		Time("slot", at).
		Int("charge_slots", len(promoted)).
		Msg("delivery scheduled")

	s.publish(ctx, events.Event{Type: events.DeliveryScheduled, DroneID: drone.ID, DeliveryID: delivery.ID, Slots: []time.Time{at}})
	if len(promoted) > 0 {
		s.publish(ctx, events.Event{Type: events.ChargeStarted, DroneID: drone.ID, DeliveryID: delivery.ID, Slots: promoted})
	}
	return true, nil
}

// initDayPlan persists the initial day-plan of a drone. It is kept even when the
// request that triggered it fails later.
func (s *Scheduler) initDayPlan(ctx context.Context, drone *models.Drone, day time.Time) error {
	plan := InitDayPlan(s.grid, s.policy, drone.FlightTime, day)
	if err := s.drones.SaveDayPlan(ctx, drone.ID, plan); err != nil {
		return fmt.Errorf("save day plan of %s: %w", drone.ID, err)
	}
	for i := range plan {
		plan[i].DroneID = drone.ID
	}
	drone.TimeSlots = plan
	s.metrics.DayPlanInitialized()
	s.log.Info().Str("drone", drone.ID).Int("flight_time", drone.FlightTime).Int("slots", len(plan)).Msg("day plan initialised")
	s.publish(ctx, events.Event{Type: events.DayPlanInitialized, DroneID: drone.ID})
	return nil
}

func (s *Scheduler) publish(ctx context.Context, evt events.Event) {
	if evt.At.IsZero() {
		evt.At = s.now()
	}
	if err := s.events.Publish(ctx, evt); err != nil {
		s.log.Warn().Err(err).Str("event", string(evt.Type)).Str("drone", evt.DroneID).Msg("publish event")
	}
}
