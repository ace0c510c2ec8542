// Package checkin decides whether a device may check in at an activity
// location and records the visit.
package checkin

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dukerupert/barhop/internal/model"
)

var (
	ErrActivityNotFound = errors.New("activity not found")
	ErrLocationNotFound = errors.New("location not part of activity")
	ErrNotStarted       = errors.New("activity has not started")
	ErrEnded            = errors.New("activity has ended")
	ErrLimitReached     = errors.New("check-in limit reached")
	ErrAlreadyCheckedIn = errors.New("already checked in at this location")
	ErrNoDevice         = errors.New("device id required")
)

// Reason returns the message shown to the visitor for a verification error.
func Reason(err error) string {
	switch {
	case errors.Is(err, ErrActivityNotFound):
		return "沒有找到活動資訊。"
	case errors.Is(err, ErrLocationNotFound):
		return "此地點不屬於這個活動。"
	case errors.Is(err, ErrNotStarted):
		return "活動尚未開始。"
	case errors.Is(err, ErrEnded):
		return "活動已經結束。"
	case errors.Is(err, ErrLimitReached):
		return "您已達到打卡限制！"
	case errors.Is(err, ErrAlreadyCheckedIn):
		return "您已在此地點打過卡。"
	case errors.Is(err, ErrNoDevice):
		return "無法辨識此裝置。"
	case err == nil:
		return ""
	default:
		return err.Error()
	}
}

// Outcome is the metrics label for a verification result.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "recorded"
	case errors.Is(err, ErrActivityNotFound):
		return "activity_not_found"
	case errors.Is(err, ErrLocationNotFound):
		return "location_not_found"
	case errors.Is(err, ErrNotStarted):
		return "not_started"
	case errors.Is(err, ErrEnded):
		return "ended"
	case errors.Is(err, ErrLimitReached):
		return "limit_reached"
	case errors.Is(err, ErrAlreadyCheckedIn):
		return "duplicate_location"
	case errors.Is(err, ErrNoDevice):
		return "no_device"
	default:
		return "error"
	}
}

// IsRejection reports whether err is a verification rule rather than an
// infrastructure failure.
func IsRejection(err error) bool {
	return Outcome(err) != "error" && err != nil
}

type ActivityFetcher interface {
	GetByID(ctx context.Context, id string) (*model.Activity, error)
}

type DeviceFetcher interface {
	GetByID(ctx context.Context, id string) (*model.Device, error)
}

type Store interface {
	ListByActivityAndDevice(ctx context.Context, activityID, deviceID string) ([]model.Checkin, error)
	Create(ctx context.Context, activityID, locationID, deviceID, barName string, at time.Time) (*model.Checkin, error)
}

// Eligibility is what Check learned while verifying. Checkins holds the
// device's visits before any new one is recorded.
type Eligibility struct {
	Activity *model.Activity
	Location *model.Location
	Checkins []model.Checkin
}

type Verifier struct {
	activities ActivityFetcher
	checkins   Store
	devices    DeviceFetcher
	now        func() time.Time

	// Serializes check-then-insert so concurrent requests cannot exceed
	// the limit.
	mu sync.Mutex
}

func NewVerifier(a ActivityFetcher, s Store, d DeviceFetcher) *Verifier {
	return &Verifier{activities: a, checkins: s, devices: d, now: time.Now}
}

// Check verifies that deviceID may check in at locationID. On a rule
// violation the returned Eligibility is still filled as far as it got, so
// callers can render context next to the reason.
func (v *Verifier) Check(ctx context.Context, activityID, locationID, deviceID string) (*Eligibility, error) {
	e := &Eligibility{}
	if deviceID == "" {
		return e, ErrNoDevice
	}
	d, err := v.devices.GetByID(ctx, deviceID)
	if err != nil {
		return e, err
	}
	if d == nil {
		return e, ErrNoDevice
	}

	a, err := v.activities.GetByID(ctx, activityID)
	if err != nil {
		return e, err
	}
	if a == nil {
		return e, ErrActivityNotFound
	}
	e.Activity = a

	loc := a.Location(locationID)
	if loc == nil {
		return e, ErrLocationNotFound
	}
	e.Location = loc

	now := v.now()
	if now.Before(a.StartDate) {
		return e, ErrNotStarted
	}
	if now.After(a.EndDate) {
		return e, ErrEnded
	}

	list, err := v.checkins.ListByActivityAndDevice(ctx, activityID, deviceID)
	if err != nil {
		return e, err
	}
	e.Checkins = list

	// A limit of zero means the activity is uncapped.
	if a.CheckInLimit > 0 && len(list) >= a.CheckInLimit {
		return e, ErrLimitReached
	}
	if a.SingleLocationOnly {
		for _, c := range list {
			if c.LocationID == locationID {
				return e, ErrAlreadyCheckedIn
			}
		}
	}
	return e, nil
}

// Record re-runs Check and stores the check-in if it passes. The returned
// Eligibility includes the new check-in.
func (v *Verifier) Record(ctx context.Context, activityID, locationID, deviceID string) (*model.Checkin, *Eligibility, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	e, err := v.Check(ctx, activityID, locationID, deviceID)
	if err != nil {
		return nil, e, err
	}

	c, err := v.checkins.Create(ctx, activityID, locationID, deviceID, e.Location.Name, v.now())
	if err != nil {
		return nil, e, err
	}
	e.Checkins = append(e.Checkins, *c)
	return c, e, nil
}
