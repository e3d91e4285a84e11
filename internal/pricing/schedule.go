// Package pricing implements the dynamic pricing engine: discount schedule
// evaluation, display price resolution and cart totals. All functions are
// pure; the current time is always an explicit parameter.
package pricing

import (
	"fmt"
	"time"
)

// Known schedule types. Listings carry one of these; anything else falls back
// to the classic 60-day table so the read path never fails on a schedule type
// introduced by configuration before code caught up.
const (
	ScheduleFast30    = "30_day"
	ScheduleClassic60 = "60_day"
)

// Step is one bracket of a discount schedule: from Day onward the listing
// sells at Percent of its list price, until the next step takes over.
type Step struct {
	Day     int
	Percent int64
}

// Schedule is a fixed, ordered markdown table. Offsets are strictly
// increasing, percents non-increasing, and the terminal step is always 0%
// (the listing expires from active sale).
type Schedule struct {
	Type  string
	Steps []Step
}

var schedules = map[string]Schedule{
	ScheduleFast30: {
		Type: ScheduleFast30,
		Steps: []Step{
			{0, 100}, {5, 90}, {10, 80}, {15, 70}, {20, 60}, {25, 50}, {30, 0},
		},
	},
	ScheduleClassic60: {
		Type: ScheduleClassic60,
		Steps: []Step{
			{0, 100}, {7, 90}, {14, 80}, {21, 70}, {28, 60},
			{35, 50}, {42, 40}, {49, 30}, {56, 20}, {60, 0},
		},
	},
}

// ByType looks up a schedule table. The second return reports whether the
// requested type was known; unknown types return the classic 60-day table so
// the caller can log and carry on.
func ByType(typ string) (Schedule, bool) {
	if s, ok := schedules[typ]; ok {
		return s, true
	}
	return schedules[ScheduleClassic60], false
}

// Schedules returns all known schedule tables, keyed by type.
func Schedules() map[string]Schedule {
	out := make(map[string]Schedule, len(schedules))
	for k, v := range schedules {
		out[k] = v
	}
	return out
}

// Validate checks the schedule table invariants.
func (s Schedule) Validate() error {
	if len(s.Steps) < 2 {
		return fmt.Errorf("schedule %q needs at least an opening and a terminal step: %w", s.Type, ErrInvalidInput)
	}
	if s.Steps[0].Day != 0 {
		return fmt.Errorf("schedule %q must start at day 0: %w", s.Type, ErrInvalidInput)
	}
	for i := 1; i < len(s.Steps); i++ {
		if s.Steps[i].Day <= s.Steps[i-1].Day {
			return fmt.Errorf("schedule %q offsets must be strictly increasing: %w", s.Type, ErrInvalidInput)
		}
		if s.Steps[i].Percent > s.Steps[i-1].Percent {
			return fmt.Errorf("schedule %q percents must be non-increasing: %w", s.Type, ErrInvalidInput)
		}
	}
	if last := s.Steps[len(s.Steps)-1]; last.Percent != 0 {
		return fmt.Errorf("schedule %q missing terminal 0%% step: %w", s.Type, ErrInvalidInput)
	}
	return nil
}

// TotalDuration is the day offset of the terminal step.
func (s Schedule) TotalDuration() int {
	if len(s.Steps) == 0 {
		return 0
	}
	return s.Steps[len(s.Steps)-1].Day
}

// Drop is the evaluated state of a schedule at a given instant.
type Drop struct {
	PercentRemaining  int64
	DaysUntilNextDrop int
	Expired           bool
}

// NextDropLabel renders the time-to-next-drop for buyers. This is part of the
// contract: callers display the string verbatim and must not re-pluralise.
func (d Drop) NextDropLabel() string {
	if d.Expired {
		return ""
	}
	switch d.DaysUntilNextDrop {
	case 0:
		return "Price drop imminent"
	case 1:
		return "Price drops tomorrow"
	default:
		return fmt.Sprintf("Price drops in %d days", d.DaysUntilNextDrop)
	}
}

// Evaluate computes the current bracket for a listing created at createdAt,
// as of now. Day granularity is whole days: fractional hours within a day do
// not trigger a drop.
func (s Schedule) Evaluate(createdAt, now time.Time) (Drop, error) {
	if err := s.Validate(); err != nil {
		return Drop{}, err
	}
	days := daysBetween(createdAt, now)
	if days >= s.TotalDuration() {
		return Drop{Expired: true}, nil
	}
	// Last offset <= days is the current bracket; the first offset beyond it
	// sets the countdown.
	current := s.Steps[0]
	next := s.Steps[len(s.Steps)-1]
	for _, step := range s.Steps {
		if step.Day <= days {
			current = step
			continue
		}
		next = step
		break
	}
	return Drop{
		PercentRemaining:  current.Percent,
		DaysUntilNextDrop: next.Day - days,
	}, nil
}

func daysBetween(from, to time.Time) int {
	if to.Before(from) {
		return 0
	}
	return int(to.Sub(from) / (24 * time.Hour))
}
