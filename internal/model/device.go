package model

import "time"

type Device struct {
	ID          string    `json:"id"`
	Fingerprint string    `json:"-"`
	Label       string    `json:"label"`
	CreatedAt   time.Time `json:"created_at"`
	LastSeenAt  time.Time `json:"last_seen_at"`
}
