package model

import "time"

type Activity struct {
	ID                 string     `json:"id"`
	Name               string     `json:"name"`
	Description        string     `json:"description"`
	StartDate          time.Time  `json:"start_date"`
	EndDate            time.Time  `json:"end_date"`
	CheckInLimit       int        `json:"check_in_limit"`
	SingleLocationOnly bool       `json:"single_location_only"`
	Locations          []Location `json:"locations"`
	CreatedAt          time.Time  `json:"created_at"`
}

// Location returns the location with the given id, or nil.
func (a *Activity) Location(id string) *Location {
	for i := range a.Locations {
		if a.Locations[i].ID == id {
			return &a.Locations[i]
		}
	}
	return nil
}

type Location struct {
	ID          string `json:"id"`
	ActivityID  string `json:"activity_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Address     string `json:"address"`
	Position    int    `json:"position"`
}
