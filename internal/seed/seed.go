// Package seed imports activities and their locations from a YAML file.
package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dukerupert/barhop/internal/model"
	"github.com/dukerupert/barhop/internal/store"
	"gopkg.in/yaml.v3"
)

type File struct {
	Activities []Activity `yaml:"activities"`
}

type Activity struct {
	ID                 string     `yaml:"id"`
	Name               string     `yaml:"name"`
	Description        string     `yaml:"description"`
	StartDate          time.Time  `yaml:"start_date"`
	EndDate            time.Time  `yaml:"end_date"`
	CheckInLimit       int        `yaml:"check_in_limit"`
	SingleLocationOnly bool       `yaml:"single_location_only"`
	Locations          []Location `yaml:"locations"`
}

type Location struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Address     string `yaml:"address"`
}

type Store interface {
	GetByID(ctx context.Context, id string) (*model.Activity, error)
	CreateWithLocations(ctx context.Context, p store.ActivityParams, locations []store.LocationParams) (*model.Activity, error)
}

// Load reads and validates a seed file.
func Load(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

func Decode(r io.Reader) (*File, error) {
	var f File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode seed file: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Validate checks every activity and reports all problems at once.
func (f *File) Validate() error {
	var errs []error
	for i, a := range f.Activities {
		label := fmt.Sprintf("activities[%d]", i)
		if a.ID != "" {
			label += " (" + a.ID + ")"
		}
		if strings.TrimSpace(a.Name) == "" {
			errs = append(errs, fmt.Errorf("%s: name is required", label))
		}
		if a.StartDate.IsZero() || a.EndDate.IsZero() {
			errs = append(errs, fmt.Errorf("%s: start_date and end_date are required", label))
		} else if a.EndDate.Before(a.StartDate) {
			errs = append(errs, fmt.Errorf("%s: end_date is before start_date", label))
		}
		if a.CheckInLimit < 0 {
			errs = append(errs, fmt.Errorf("%s: check_in_limit must be >= 0", label))
		}
		for j, l := range a.Locations {
			if strings.TrimSpace(l.Name) == "" {
				errs = append(errs, fmt.Errorf("%s.locations[%d]: name is required", label, j))
			}
		}
	}
	return errors.Join(errs...)
}

// Result counts what Apply did.
type Result struct {
	Created int
	Skipped int
}

// Apply inserts activities that do not exist yet. Activities with an id
// already in the store are left untouched, so a seed file can be applied
// on every start. Each activity is stored with all of its locations or not
// at all.
func Apply(ctx context.Context, s Store, f *File) (Result, error) {
	var res Result
	for _, a := range f.Activities {
		if a.ID != "" {
			existing, err := s.GetByID(ctx, a.ID)
			if err != nil {
				return res, err
			}
			if existing != nil {
				res.Skipped++
				continue
			}
		}

		locations := make([]store.LocationParams, 0, len(a.Locations))
		for _, l := range a.Locations {
			locations = append(locations, store.LocationParams{
				ID:          l.ID,
				Name:        l.Name,
				Description: l.Description,
				Address:     l.Address,
			})
		}
		_, err := s.CreateWithLocations(ctx, store.ActivityParams{
			ID:                 a.ID,
			Name:               a.Name,
			Description:        a.Description,
			StartDate:          a.StartDate,
			EndDate:            a.EndDate,
			CheckInLimit:       a.CheckInLimit,
			SingleLocationOnly: a.SingleLocationOnly,
		}, locations)
		if err != nil {
			return res, fmt.Errorf("seed activity %q: %w", a.Name, err)
		}
		res.Created++
	}
	return res, nil
}
