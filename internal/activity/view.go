// Package activity builds the activity detail page: it loads the activity
// and the current device's check-ins, and turns the resulting fetch states
// into a render-ready view.
package activity

import (
	"time"

	"github.com/dukerupert/barhop/internal/model"
	"github.com/dukerupert/barhop/internal/result"
)

// Branch is the top-level outcome of the page.
type Branch int

const (
	BranchLoading Branch = iota
	BranchError
	BranchNotFound
	BranchReady
)

// Detail is everything the activity detail template needs.
type Detail struct {
	ActivityID string
	Branch     Branch
	Error      string

	Name           string
	Description    string
	StartDate      string
	EndDate        string
	CheckInLimit   int
	SingleLocation string
	Locations      []AccordionItem
	Checkins       CheckinSection
}

func (d Detail) Loading() bool  { return d.Branch == BranchLoading }
func (d Detail) Failed() bool   { return d.Branch == BranchError }
func (d Detail) NotFound() bool { return d.Branch == BranchNotFound }
func (d Detail) Ready() bool    { return d.Branch == BranchReady }

// AccordionItem is one collapsible location panel. At most one item in a
// Detail is Open. Toggle is the value of the open query parameter that
// clicking the panel header should produce; "" collapses everything.
type AccordionItem struct {
	model.Location
	Open   bool
	Toggle string
}

// CheckinSection covers both the progress block and the record list.
type CheckinSection struct {
	ActivityID string
	State      result.State
	Error      string
	Progress   Progress
	Records    []Record
}

func (s CheckinSection) Loading() bool { return s.State == result.StateLoading }
func (s CheckinSection) Failed() bool  { return s.State == result.StateFailed }

type Record struct {
	ID      int64
	BarName string
	Time    string
}

// Progress is the icon row, counter and reward banner state.
type Progress struct {
	Icons        []Icon
	Count        int
	Limit        int
	LimitReached bool
}

type Icon struct {
	Index    int
	Achieved bool
}

// NewProgress lays out limit icons with the first min(count, limit)
// achieved. The reward is reached when count >= limit and limit > 0.
func NewProgress(count, limit int) Progress {
	if limit < 0 {
		limit = 0
	}
	if count < 0 {
		count = 0
	}
	icons := make([]Icon, limit)
	for i := range icons {
		icons[i] = Icon{Index: i, Achieved: i < count}
	}
	return Progress{
		Icons:        icons,
		Count:        count,
		Limit:        limit,
		LimitReached: limit > 0 && count >= limit,
	}
}

// Achieved returns how many icons are filled.
func (p Progress) Achieved() int {
	return min(p.Count, p.Limit)
}

// Formatter renders timestamps the way the pages display them.
type Formatter struct {
	Location *time.Location
}

func (f Formatter) zone() *time.Location {
	if f.Location == nil {
		return time.Local
	}
	return f.Location
}

func (f Formatter) Date(t time.Time) string {
	return t.In(f.zone()).Format("2006/1/2")
}

func (f Formatter) DateTime(t time.Time) string {
	return t.In(f.zone()).Format("2006/1/2 15:04:05")
}

// BuildDetail applies the page's rendering policy to the two fetch states.
// openLocation selects the accordion panel that starts expanded.
func BuildDetail(activityID string, act result.Result[*model.Activity], checkins result.Result[[]model.Checkin], openLocation string, f Formatter) Detail {
	d := Detail{ActivityID: activityID}

	a, ok := act.Value()
	switch {
	case act.State() == result.StateLoading:
		d.Branch = BranchLoading
		return d
	case act.State() == result.StateFailed:
		d.Branch = BranchError
		d.Error = act.Err()
		return d
	case ok && a == nil:
		d.Branch = BranchNotFound
		return d
	}

	d.Branch = BranchReady
	d.Name = a.Name
	d.Description = a.Description
	d.StartDate = f.Date(a.StartDate)
	d.EndDate = f.Date(a.EndDate)
	d.CheckInLimit = a.CheckInLimit
	d.SingleLocation = "否"
	if a.SingleLocationOnly {
		d.SingleLocation = "是"
	}
	d.Locations = BuildAccordion(a.Locations, openLocation)
	d.Checkins = BuildCheckins(activityID, checkins, a.CheckInLimit, f)
	return d
}

// BuildAccordion returns one panel per location in order. The panel matching
// open is expanded and toggles back to collapsed; the rest toggle to
// themselves, which closes whichever panel was open.
func BuildAccordion(locations []model.Location, open string) []AccordionItem {
	items := make([]AccordionItem, 0, len(locations))
	opened := false
	for _, l := range locations {
		item := AccordionItem{Location: l, Toggle: l.ID}
		if !opened && open != "" && l.ID == open {
			item.Open = true
			item.Toggle = ""
			opened = true
		}
		items = append(items, item)
	}
	return items
}

// BuildCheckins maps the check-in fetch state onto the progress and record
// blocks.
func BuildCheckins(activityID string, checkins result.Result[[]model.Checkin], limit int, f Formatter) CheckinSection {
	return result.Match(checkins,
		func() CheckinSection {
			return CheckinSection{ActivityID: activityID, State: result.StateLoading}
		},
		func(msg string) CheckinSection {
			return CheckinSection{ActivityID: activityID, State: result.StateFailed, Error: msg}
		},
		func(list []model.Checkin) CheckinSection {
			records := make([]Record, 0, len(list))
			for _, c := range list {
				records = append(records, Record{ID: c.ID, BarName: c.BarName, Time: f.DateTime(c.CheckinTime)})
			}
			return CheckinSection{
				ActivityID: activityID,
				State:      result.StateReady,
				Progress:   NewProgress(len(list), limit),
				Records:    records,
			}
		},
	)
}
