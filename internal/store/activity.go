package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/barhop/internal/model"
	"github.com/google/uuid"
)

type ActivityStore struct {
	db *sql.DB
}

func NewActivityStore(db *sql.DB) *ActivityStore {
	return &ActivityStore{db: db}
}

func scanActivity(scanner interface{ Scan(...any) error }) (*model.Activity, error) {
	var a model.Activity
	var single int

	err := scanner.Scan(&a.ID, &a.Name, &a.Description, &a.StartDate, &a.EndDate, &a.CheckInLimit, &single, &a.CreatedAt)
	if err != nil {
		return nil, err
	}

	a.SingleLocationOnly = single != 0
	return &a, nil
}

const activityCols = `id, name, description, start_date, end_date, check_in_limit, single_location_only, created_at`

func scanLocation(scanner interface{ Scan(...any) error }) (*model.Location, error) {
	var l model.Location
	if err := scanner.Scan(&l.ID, &l.ActivityID, &l.Name, &l.Description, &l.Address, &l.Position); err != nil {
		return nil, err
	}
	return &l, nil
}

const locationCols = `id, activity_id, name, description, address, position`

// ActivityParams holds the writable fields of an activity. An empty ID is
// replaced with a generated UUID.
type ActivityParams struct {
	ID                 string
	Name               string
	Description        string
	StartDate          time.Time
	EndDate            time.Time
	CheckInLimit       int
	SingleLocationOnly bool
}

func (s *ActivityStore) Create(ctx context.Context, p ActivityParams) (*model.Activity, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	var single int
	if p.SingleLocationOnly {
		single = 1
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO activities (id, name, description, start_date, end_date, check_in_limit, single_location_only) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Description, p.StartDate.UTC(), p.EndDate.UTC(), p.CheckInLimit, single,
	)
	if err != nil {
		return nil, fmt.Errorf("insert activity: %w", err)
	}
	return s.GetByID(ctx, p.ID)
}

// CreateWithLocations inserts the activity and its locations, in order, in
// one transaction. Nothing is stored if any insert fails.
func (s *ActivityStore) CreateWithLocations(ctx context.Context, p ActivityParams, locations []LocationParams) (*model.Activity, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	var single int
	if p.SingleLocationOnly {
		single = 1
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO activities (id, name, description, start_date, end_date, check_in_limit, single_location_only) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Description, p.StartDate.UTC(), p.EndDate.UTC(), p.CheckInLimit, single,
	)
	if err != nil {
		return nil, fmt.Errorf("insert activity: %w", err)
	}
	for i, l := range locations {
		if l.ID == "" {
			l.ID = uuid.NewString()
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO locations (id, activity_id, name, description, address, position) VALUES (?, ?, ?, ?, ?, ?)`,
			l.ID, p.ID, l.Name, l.Description, l.Address, i,
		)
		if err != nil {
			return nil, fmt.Errorf("insert location %q: %w", l.Name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit activity: %w", err)
	}
	return s.GetByID(ctx, p.ID)
}

// GetByID returns the activity with its locations in position order, or nil
// if no activity has the given id.
func (s *ActivityStore) GetByID(ctx context.Context, id string) (*model.Activity, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+activityCols+` FROM activities WHERE id = ?`, id)
	a, err := scanActivity(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get activity: %w", err)
	}

	locations, err := s.ListLocations(ctx, id)
	if err != nil {
		return nil, err
	}
	a.Locations = locations
	return a, nil
}

// List returns all activities without their locations, most recent start first.
func (s *ActivityStore) List(ctx context.Context) ([]model.Activity, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+activityCols+` FROM activities ORDER BY start_date DESC, name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	defer rows.Close()

	var activities []model.Activity
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		activities = append(activities, *a)
	}
	return activities, rows.Err()
}

func (s *ActivityStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM activities WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete activity: %w", err)
	}
	return nil
}

// --- Location methods ---

// LocationParams holds the writable fields of a location. An empty ID is
// replaced with a generated UUID.
type LocationParams struct {
	ID          string
	Name        string
	Description string
	Address     string
}

// AddLocation appends a location after the activity's existing ones.
func (s *ActivityStore) AddLocation(ctx context.Context, activityID string, p LocationParams) (*model.Location, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}

	var next int
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(position), -1) + 1 FROM locations WHERE activity_id = ?`, activityID,
	).Scan(&next)
	if err != nil {
		return nil, fmt.Errorf("next location position: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO locations (id, activity_id, name, description, address, position) VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID, activityID, p.Name, p.Description, p.Address, next,
	)
	if err != nil {
		return nil, fmt.Errorf("insert location: %w", err)
	}

	row := s.db.QueryRowContext(ctx, `SELECT `+locationCols+` FROM locations WHERE id = ?`, p.ID)
	l, err := scanLocation(row)
	if err != nil {
		return nil, fmt.Errorf("get location: %w", err)
	}
	return l, nil
}

// ListLocations returns the activity's locations in position order. The
// result is never nil so JSON encodes it as an empty array.
func (s *ActivityStore) ListLocations(ctx context.Context, activityID string) ([]model.Location, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+locationCols+` FROM locations WHERE activity_id = ? ORDER BY position ASC, id ASC`, activityID,
	)
	if err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}
	defer rows.Close()

	locations := []model.Location{}
	for rows.Next() {
		l, err := scanLocation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan location: %w", err)
		}
		locations = append(locations, *l)
	}
	return locations, rows.Err()
}
