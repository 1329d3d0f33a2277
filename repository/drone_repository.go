package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"

	"droneDeliveryScheduler/models"
)

type DroneRepository struct {
	db *sql.DB
}

func NewDroneRepository(db *sql.DB) *DroneRepository {
	return &DroneRepository{db: db}
}

// minuteOfDay is the uniqueness key of a slot within a drone's day.
func minuteOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// Create inserts a new drone. The day-plan is not persisted here.
func (r *DroneRepository) Create(ctx context.Context, d *models.Drone) (*models.Drone, error) {
	if d == nil {
		return nil, errors.New("drone is nil")
	}
	if strings.TrimSpace(d.ID) == "" {
		return nil, errors.New("drone id is empty")
	}
	if d.FlightTime < 0 {
		return nil, fmt.Errorf("negative flight time %d", d.FlightTime)
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if _, err := r.db.ExecContext(ctx, `INSERT INTO drones (id, flight_time) VALUES (?, ?)`, d.ID, d.FlightTime); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDroneExists
		}
		return nil, err
	}
	return d, nil
}

// GetByID fetches a drone with its time slots. It returns nil, nil when the drone does not exist.
func (r *DroneRepository) GetByID(ctx context.Context, id string) (*models.Drone, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	var d models.Drone
	err := r.db.QueryRowContext(ctx, `SELECT id, flight_time FROM drones WHERE id = ?`, id).Scan(&d.ID, &d.FlightTime)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, `SELECT id, drone_id, slot_at, state, delivery_id FROM time_slots WHERE drone_id = ? ORDER BY slot_minute ASC`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	slots, err := scanSlotRows(rows)
	if err != nil {
		return nil, err
	}
	d.TimeSlots = slots
	return &d, nil
}

// List returns the whole fleet ordered by id, each drone with its time slots.
func (r *DroneRepository) List(ctx context.Context) ([]*models.Drone, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `SELECT id, flight_time FROM drones ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	var fleet []*models.Drone
	byID := map[string]*models.Drone{}
	for rows.Next() {
		d := &models.Drone{}
		if err := rows.Scan(&d.ID, &d.FlightTime); err != nil {
			rows.Close()
			return nil, err
		}
		fleet = append(fleet, d)
		byID[d.ID] = d
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()
	if len(fleet) == 0 {
		return fleet, nil
	}

	slotRows, err := r.db.QueryContext(ctx, `SELECT id, drone_id, slot_at, state, delivery_id FROM time_slots ORDER BY drone_id ASC, slot_minute ASC`)
	if err != nil {
		return nil, err
	}
	defer slotRows.Close()
	slots, err := scanSlotRows(slotRows)
	if err != nil {
		return nil, err
	}
	for _, s := range slots {
		if d, ok := byID[s.DroneID]; ok {
			d.TimeSlots = append(d.TimeSlots, s)
		}
	}
	return fleet, nil
}

// AddFlightTime increments the drone's accumulated flight time.
func (r *DroneRepository) AddFlightTime(ctx context.Context, id string, delta int) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := r.db.ExecContext(ctx, `UPDATE drones SET flight_time = flight_time + ? WHERE id = ?`, delta, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// SaveDayPlan stores the slots produced by the day-plan initializer in one transaction.
func (r *DroneRepository) SaveDayPlan(ctx context.Context, droneID string, slots []models.TimeSlot) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO time_slots (drone_id, slot_at, slot_minute, state) VALUES (?,?,?,?)`)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()
	for _, s := range slots {
		if _, err := stmt.ExecContext(ctx, droneID, s.At.Format(time.RFC3339Nano), minuteOfDay(s.At), string(s.State)); err != nil {
			_ = tx.Rollback()
			if isUniqueViolation(err) {
				return fmt.Errorf("save day plan for %s: %w", droneID, ErrSlotTaken)
			}
			return err
		}
	}
	return tx.Commit()
}

// CommitDelivery binds the delivery to the drone, inserts its DELIVERY slot and promotes
// the given charge slots, all in one transaction. An occupied minute yields ErrSlotTaken,
// an already bound delivery yields ErrDeliveryTaken.
func (r *DroneRepository) CommitDelivery(ctx context.Context, c DeliveryCommit) error {
	if c.Slot.DeliveryID == nil || *c.Slot.DeliveryID == "" {
		return errors.New("delivery slot without delivery id")
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx, `
INSERT INTO deliveries (id, drone_id) VALUES (?, ?)
ON CONFLICT(id) DO UPDATE SET drone_id = excluded.drone_id WHERE deliveries.drone_id IS NULL`,
		*c.Slot.DeliveryID, c.DroneID)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		_ = tx.Rollback()
		return ErrDeliveryTaken
	}

	if _, err := tx.ExecContext(ctx, `INSERT INTO time_slots (drone_id, slot_at, slot_minute, state, delivery_id) VALUES (?,?,?,?,?)`,
		c.DroneID, c.Slot.At.Format(time.RFC3339Nano), minuteOfDay(c.Slot.At), string(models.StateDelivery), *c.Slot.DeliveryID); err != nil {
		_ = tx.Rollback()
		if isUniqueViolation(err) {
			if strings.Contains(err.Error(), "delivery_id") {
				return ErrDeliveryTaken
			}
			return ErrSlotTaken
		}
		return err
	}

	if len(c.Promote) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(c.Promote)), ",")
		args := make([]any, 0, len(c.Promote)+3)
		args = append(args, string(models.StateCharging), c.DroneID, string(models.StateReservedForCharge))
		for _, m := range c.Promote {
			args = append(args, m)
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE time_slots SET state = ? WHERE drone_id = ? AND state = ? AND slot_minute IN (`+placeholders+`)`, args...); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// ClearSlots deletes every slot of a drone and returns how many were removed.
func (r *DroneRepository) ClearSlots(ctx context.Context, droneID string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := r.db.ExecContext(ctx, `DELETE FROM time_slots WHERE drone_id = ?`, droneID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Delete removes a drone and its slots. Its deliveries stay, unbound.
// It returns sql.ErrNoRows when the drone does not exist.
func (r *DroneRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := r.db.ExecContext(ctx, `DELETE FROM drones WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func scanSlotRows(rows *sql.Rows) ([]models.TimeSlot, error) {
	var out []models.TimeSlot
	for rows.Next() {
		var s models.TimeSlot
		var at, state string
		var delivery sql.NullString
		if err := rows.Scan(&s.ID, &s.DroneID, &at, &state, &delivery); err != nil {
			return nil, err
		}
		t, err := time.Parse(time.RFC3339Nano, at)
		if err != nil {
			return nil, fmt.Errorf("slot %d: bad slot_at %q: %w", s.ID, at, err)
		}
		s.At = t
		s.State = models.State(state)
		if delivery.Valid {
			v := delivery.String
			s.DeliveryID = &v
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func isUniqueViolation(err error) bool {
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.ExtendedCode == sqlite3.ErrConstraintUnique || se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
