package repository

import (
	"context"
	"errors"

	"droneDeliveryScheduler/models"
)

var (
	// ErrSlotTaken is returned when a drone already holds a slot at the same minute of day.
	ErrSlotTaken = errors.New("time slot already taken")
	// ErrDeliveryTaken is returned when a delivery is already bound to a drone or slot.
	ErrDeliveryTaken = errors.New("delivery already bound")
	// ErrDroneExists is returned when a drone id is already registered.
	ErrDroneExists = errors.New("drone already registered")
)

// DeliveryCommit is the unit written atomically when a delivery is accepted:
// the DELIVERY slot, the delivery's drone binding and the charge-slot promotions.
type DeliveryCommit struct {
	DroneID string
	Slot    models.TimeSlot
	// Promote lists the minutes of day of RESERVED_FOR_CHARGE slots to switch to CHARGING.
	Promote []int
}

// DroneRepositoryI defines operations on Drone aggregates and the slots they own.
type DroneRepositoryI interface {
	Create(ctx context.Context, d *models.Drone) (*models.Drone, error)
	GetByID(ctx context.Context, id string) (*models.Drone, error)
	List(ctx context.Context) ([]*models.Drone, error)
	AddFlightTime(ctx context.Context, id string, delta int) error
	SaveDayPlan(ctx context.Context, droneID string, slots []models.TimeSlot) error
	CommitDelivery(ctx context.Context, c DeliveryCommit) error
	ClearSlots(ctx context.Context, droneID string) (int64, error)
	Delete(ctx context.Context, id string) error
}

// DeliveryRepositoryI defines operations on Delivery entities.
type DeliveryRepositoryI interface {
	GetByID(ctx context.Context, id string) (*models.Delivery, error)
	ListByDrone(ctx context.Context, droneID string) ([]models.Delivery, error)
}
