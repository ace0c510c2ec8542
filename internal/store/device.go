package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/barhop/internal/model"
)

type DeviceStore struct {
	db *sql.DB
}

func NewDeviceStore(db *sql.DB) *DeviceStore {
	return &DeviceStore{db: db}
}

func scanDevice(scanner interface{ Scan(...any) error }) (*model.Device, error) {
	var d model.Device
	if err := scanner.Scan(&d.ID, &d.Fingerprint, &d.Label, &d.CreatedAt, &d.LastSeenAt); err != nil {
		return nil, err
	}
	return &d, nil
}

const deviceCols = `id, fingerprint, label, created_at, last_seen_at`

func (s *DeviceStore) Create(ctx context.Context, id, fingerprint, label string) (*model.Device, error) {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO devices (id, fingerprint, label, created_at, last_seen_at) VALUES (?, ?, ?, ?, ?)`,
		id, fingerprint, label, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert device: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *DeviceStore) GetByID(ctx context.Context, id string) (*model.Device, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+deviceCols+` FROM devices WHERE id = ?`, id)
	d, err := scanDevice(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get device: %w", err)
	}
	return d, nil
}

// Touch updates last_seen_at. It reports false if the device does not exist.
func (s *DeviceStore) Touch(ctx context.Context, id string) (bool, error) {
	result, err := s.db.ExecContext(ctx,
		`UPDATE devices SET last_seen_at = ? WHERE id = ?`, time.Now().UTC(), id,
	)
	if err != nil {
		return false, fmt.Errorf("touch device: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// DeleteStale removes devices not seen since the cutoff that never checked in.
func (s *DeviceStore) DeleteStale(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM devices WHERE last_seen_at < ? AND id NOT IN (SELECT DISTINCT device_id FROM checkins)`,
		cutoff.UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("delete stale devices: %w", err)
	}
	return result.RowsAffected()
}
