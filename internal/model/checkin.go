package model

import "time"

// Checkin is one recorded visit by a device at an activity location.
// BarName keeps the location name as it was when the visit was recorded.
type Checkin struct {
	ID          int64     `json:"id"`
	ActivityID  string    `json:"activity_id"`
	LocationID  string    `json:"location_id"`
	DeviceID    string    `json:"device_id"`
	BarName     string    `json:"barName"`
	CheckinTime time.Time `json:"checkin_time"`
}
