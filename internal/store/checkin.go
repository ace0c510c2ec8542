package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/barhop/internal/model"
)

type CheckinStore struct {
	db *sql.DB
}

func NewCheckinStore(db *sql.DB) *CheckinStore {
	return &CheckinStore{db: db}
}

func scanCheckin(scanner interface{ Scan(...any) error }) (*model.Checkin, error) {
	var c model.Checkin
	err := scanner.Scan(&c.ID, &c.ActivityID, &c.LocationID, &c.DeviceID, &c.BarName, &c.CheckinTime)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

const checkinCols = `id, activity_id, location_id, device_id, bar_name, checkin_time`

// Create records a check-in. barName is stored alongside the location id so
// later renames do not rewrite history.
func (s *CheckinStore) Create(ctx context.Context, activityID, locationID, deviceID, barName string, at time.Time) (*model.Checkin, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO checkins (activity_id, location_id, device_id, bar_name, checkin_time) VALUES (?, ?, ?, ?, ?)`,
		activityID, locationID, deviceID, barName, at.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert checkin: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	row := s.db.QueryRowContext(ctx, `SELECT `+checkinCols+` FROM checkins WHERE id = ?`, id)
	c, err := scanCheckin(row)
	if err != nil {
		return nil, fmt.Errorf("get checkin: %w", err)
	}
	return c, nil
}

// ListByActivityAndDevice returns the device's check-ins for an activity in
// the order they were recorded. The result is never nil.
func (s *CheckinStore) ListByActivityAndDevice(ctx context.Context, activityID, deviceID string) ([]model.Checkin, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+checkinCols+` FROM checkins WHERE activity_id = ? AND device_id = ? ORDER BY id ASC`,
		activityID, deviceID,
	)
	if err != nil {
		return nil, fmt.Errorf("list checkins: %w", err)
	}
	defer rows.Close()

	checkins := []model.Checkin{}
	for rows.Next() {
		c, err := scanCheckin(rows)
		if err != nil {
			return nil, fmt.Errorf("scan checkin: %w", err)
		}
		checkins = append(checkins, *c)
	}
	return checkins, rows.Err()
}
