package store

import (
	"context"
	"testing"
	"time"
)

func TestCheckinListInArrivalOrder(t *testing.T) {
	as, cs, ds := setupTestDB(t)
	ctx := context.Background()
	activityID := createTestActivity(t, as, 3)

	barA, _ := as.AddLocation(ctx, activityID, LocationParams{Name: "Bar A"})
	barB, _ := as.AddLocation(ctx, activityID, LocationParams{Name: "Bar B"})
	if _, err := ds.Create(ctx, "dev-1", "fp", "Firefox on Linux"); err != nil {
		t.Fatalf("create device: %v", err)
	}

	// Second check-in carries an earlier timestamp; ordering follows arrival.
	t1 := time.Date(2026, 10, 2, 20, 0, 0, 0, time.UTC)
	t2 := t1.Add(-time.Hour)
	if _, err := cs.Create(ctx, activityID, barB.ID, "dev-1", barB.Name, t1); err != nil {
		t.Fatalf("create checkin: %v", err)
	}
	if _, err := cs.Create(ctx, activityID, barA.ID, "dev-1", barA.Name, t2); err != nil {
		t.Fatalf("create checkin: %v", err)
	}

	checkins, err := cs.ListByActivityAndDevice(ctx, activityID, "dev-1")
	if err != nil {
		t.Fatalf("list checkins: %v", err)
	}
	if len(checkins) != 2 {
		t.Fatalf("expected 2 checkins, got %d", len(checkins))
	}
	if checkins[0].BarName != "Bar B" || checkins[1].BarName != "Bar A" {
		t.Errorf("order = [%s %s], want [Bar B Bar A]", checkins[0].BarName, checkins[1].BarName)
	}
	if !checkins[0].CheckinTime.Equal(t1) {
		t.Errorf("checkin_time = %v, want %v", checkins[0].CheckinTime, t1)
	}
}

func TestCheckinListScopedToDevice(t *testing.T) {
	as, cs, ds := setupTestDB(t)
	ctx := context.Background()
	activityID := createTestActivity(t, as, 3)
	bar, _ := as.AddLocation(ctx, activityID, LocationParams{Name: "Bar"})

	ds.Create(ctx, "dev-1", "", "")
	ds.Create(ctx, "dev-2", "", "")
	cs.Create(ctx, activityID, bar.ID, "dev-1", bar.Name, time.Now())
	cs.Create(ctx, activityID, bar.ID, "dev-2", bar.Name, time.Now())
	cs.Create(ctx, activityID, bar.ID, "dev-2", bar.Name, time.Now())

	got, err := cs.ListByActivityAndDevice(ctx, activityID, "dev-1")
	if err != nil {
		t.Fatalf("list checkins: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("dev-1 checkins = %d, want 1", len(got))
	}

	got, err = cs.ListByActivityAndDevice(ctx, activityID, "dev-2")
	if err != nil {
		t.Fatalf("list checkins: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("dev-2 checkins = %d, want 2", len(got))
	}
}

func TestCheckinListEmpty(t *testing.T) {
	as, cs, _ := setupTestDB(t)
	activityID := createTestActivity(t, as, 3)

	got, err := cs.ListByActivityAndDevice(context.Background(), activityID, "nobody")
	if err != nil {
		t.Fatalf("list checkins: %v", err)
	}
	if got == nil {
		t.Error("expected empty non-nil slice")
	}
	if len(got) != 0 {
		t.Errorf("expected 0 checkins, got %d", len(got))
	}
}

func TestCheckinRequiresDevice(t *testing.T) {
	as, cs, _ := setupTestDB(t)
	ctx := context.Background()
	activityID := createTestActivity(t, as, 3)
	bar, _ := as.AddLocation(ctx, activityID, LocationParams{Name: "Bar"})

	if _, err := cs.Create(ctx, activityID, bar.ID, "unknown-device", bar.Name, time.Now()); err == nil {
		t.Error("expected foreign key error for unknown device")
	}
}
