package activity

import (
	"context"
	"log/slog"

	"github.com/dukerupert/barhop/internal/device"
	"github.com/dukerupert/barhop/internal/model"
	"github.com/dukerupert/barhop/internal/result"
	"golang.org/x/sync/errgroup"
)

type ActivityFetcher interface {
	GetByID(ctx context.Context, id string) (*model.Activity, error)
}

type CheckinLister interface {
	ListByActivityAndDevice(ctx context.Context, activityID, deviceID string) ([]model.Checkin, error)
}

// Snapshot is the state of both fetches once loading settles.
type Snapshot struct {
	Activity result.Result[*model.Activity]
	Checkins result.Result[[]model.Checkin]
}

// Loader runs the activity and check-in fetches for a page view.
type Loader struct {
	activities ActivityFetcher
	checkins   CheckinLister
	logger     *slog.Logger
}

func NewLoader(a ActivityFetcher, c CheckinLister, logger *slog.Logger) *Loader {
	return &Loader{activities: a, checkins: c, logger: logger}
}

// Load fetches the activity and, once dev resolves, the device's check-ins.
// Both run concurrently under ctx. If the device never resolves the
// check-in query is not issued and Checkins stays Loading.
func (l *Loader) Load(ctx context.Context, activityID string, dev *device.Future) Snapshot {
	var snap Snapshot
	var g errgroup.Group

	g.Go(func() error {
		a, err := l.activities.GetByID(ctx, activityID)
		if err != nil {
			l.logger.Error("fetch activity", "activity_id", activityID, "error", err)
		}
		snap.Activity = result.From(a, err)
		return nil
	})
	g.Go(func() error {
		snap.Checkins = l.LoadCheckins(ctx, activityID, dev)
		return nil
	})

	g.Wait()
	return snap
}

// LoadCheckins waits for the device id and lists its check-ins.
func (l *Loader) LoadCheckins(ctx context.Context, activityID string, dev *device.Future) result.Result[[]model.Checkin] {
	deviceID, err := dev.Await(ctx)
	if err != nil {
		l.logger.Debug("device unresolved, skipping checkins", "activity_id", activityID, "error", err)
		return result.Loading[[]model.Checkin]()
	}

	list, err := l.checkins.ListByActivityAndDevice(ctx, activityID, deviceID)
	if err != nil {
		l.logger.Error("fetch checkins", "activity_id", activityID, "error", err)
	}
	return result.From(list, err)
}
