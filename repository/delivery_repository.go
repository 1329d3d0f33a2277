package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"droneDeliveryScheduler/models"
)

// DeliveryRepository persists deliveries. Binding a delivery to a drone happens in
// DroneRepository.CommitDelivery, together with its slot.
type DeliveryRepository struct {
	db *sql.DB
}

func NewDeliveryRepository(db *sql.DB) *DeliveryRepository {
	return &DeliveryRepository{db: db}
}

// GetByID fetches a delivery. It returns nil, nil when the delivery does not exist.
func (r *DeliveryRepository) GetByID(ctx context.Context, id string) (*models.Delivery, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	var d models.Delivery
	var drone sql.NullString
	err := r.db.QueryRowContext(ctx, `SELECT id, drone_id, created_at FROM deliveries WHERE id = ?`, id).
		Scan(&d.ID, &drone, &d.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if drone.Valid {
		v := drone.String
		d.DroneID = &v
	}
	return &d, nil
}

// ListByDrone returns the deliveries bound to a drone, oldest first.
func (r *DeliveryRepository) ListByDrone(ctx context.Context, droneID string) ([]models.Delivery, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	rows, err := r.db.QueryContext(ctx, `SELECT id, drone_id, created_at FROM deliveries WHERE drone_id = ? ORDER BY created_at ASC, id ASC`, droneID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.Delivery
	for rows.Next() {
		var d models.Delivery
		var drone sql.NullString
		if err := rows.Scan(&d.ID, &drone, &d.CreatedAt); err != nil {
			return nil, err
		}
		if drone.Valid {
			v := drone.String
			d.DroneID = &v
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
