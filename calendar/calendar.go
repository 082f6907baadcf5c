/*
Package calendar decides which days a store works and turns a month into
working-day counts for run-rate projection.

PURPOSE:
  Activation volumes in a quote are month-end targets. Next to them the
  engine shows how far through the month each store is, measured in the
  store's own working days rather than calendar days. This package is that
  measurement.

PRECEDENCE (IsStoreOpen):
  1. Special day override for the exact date (open or closed)
  2. Weekly schedule membership of the weekday (0=Sunday..6=Saturday)

PRECEDENCE (WorkdaysFromOverrides):
  1. Day status override (worked / remaining / closed)
  2. IsStoreOpen + "on or before today" heuristic

PROJECTION:
  factor = total / elapsed, exactly 1 when elapsed is 0. The factor is
  display-only: it never rewrites point totals.

SEE ALSO:
  - network/: Store.Calendar
  - engine/: attaches WorkdayInfo to every store result
*/
package calendar

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/premi-engine/generic"
)

// =============================================================================
// STORE CALENDAR
// =============================================================================

// DayStatus is a manual per-day status used by the month-view projection
// tool.
type DayStatus string

const (
	StatusWorked    DayStatus = "worked"
	StatusRemaining DayStatus = "remaining"
	StatusClosed    DayStatus = "closed"
)

func (s DayStatus) Valid() bool {
	switch s {
	case StatusWorked, StatusRemaining, StatusClosed:
		return true
	}
	return false
}

// SpecialDay forces a date open or closed regardless of the weekly schedule.
type SpecialDay struct {
	Date generic.Date `json:"date"`
	Open bool         `json:"open"`
}

// DayOverride pins a date's status, taking precedence over both the weekly
// schedule and special days.
type DayOverride struct {
	Date   generic.Date `json:"date"`
	Status DayStatus    `json:"status"`
}

// StoreCalendar describes when a store is open.
type StoreCalendar struct {
	WeeklySchedule []time.Weekday `json:"weeklySchedule"`
	SpecialDays    []SpecialDay   `json:"specialDays,omitempty"`
	DayOverrides   []DayOverride  `json:"dayOverrides,omitempty"`
}

// Weekdays used by the UI auto-adjustment: malls trade on Sunday, street
// stores don't.
var (
	ScheduleMonSat = []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday}
	ScheduleMonSun = []time.Weekday{time.Sunday, time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday}
)

// WithSunday returns a copy of the calendar with Sunday added to or removed
// from the weekly schedule.
func (c StoreCalendar) WithSunday(open bool) StoreCalendar {
	out := c
	out.WeeklySchedule = nil
	for _, wd := range c.WeeklySchedule {
		if wd != time.Sunday {
			out.WeeklySchedule = append(out.WeeklySchedule, wd)
		}
	}
	if open {
		out.WeeklySchedule = append([]time.Weekday{time.Sunday}, out.WeeklySchedule...)
	}
	return out
}

func (c StoreCalendar) specialDay(d generic.Date) (SpecialDay, bool) {
	for _, sd := range c.SpecialDays {
		if sd.Date.Equal(d) {
			return sd, true
		}
	}
	return SpecialDay{}, false
}

func (c StoreCalendar) override(d generic.Date) (DayOverride, bool) {
	for _, o := range c.DayOverrides {
		if o.Date.Equal(d) && o.Status.Valid() {
			return o, true
		}
	}
	return DayOverride{}, false
}

// =============================================================================
// OPEN / CLOSED
// =============================================================================

// IsStoreOpen reports whether the store works on a date.
func IsStoreOpen(d generic.Date, c StoreCalendar) bool {
	if sd, ok := c.specialDay(d); ok {
		return sd.Open
	}
	wd := d.Weekday()
	for _, open := range c.WeeklySchedule {
		if open == wd {
			return true
		}
	}
	return false
}

// =============================================================================
// WORKDAY INFO
// =============================================================================

// WorkdayInfo is the month-level working-day count of one store.
type WorkdayInfo struct {
	Total     int `json:"totalWorkingDays"`
	Elapsed   int `json:"elapsedWorkingDays"`
	Remaining int `json:"remainingWorkingDays"`
}

func newWorkdayInfo(total, elapsed int) WorkdayInfo {
	remaining := total - elapsed
	if remaining < 0 {
		remaining = 0
	}
	return WorkdayInfo{Total: total, Elapsed: elapsed, Remaining: remaining}
}

// Workdays counts working days in a month. A day counts toward Total when
// the store is open and toward Elapsed when it is also on or before today.
func Workdays(year int, month time.Month, c StoreCalendar, today generic.Date) WorkdayInfo {
	total, elapsed := 0, 0
	for _, d := range generic.MonthPeriod(year, month).Days() {
		if !IsStoreOpen(d, c) {
			continue
		}
		total++
		if d.BeforeOrEqual(today) {
			elapsed++
		}
	}
	return newWorkdayInfo(total, elapsed)
}

// WorkdaysFromOverrides is Workdays with explicit day statuses taking
// precedence wherever one exists for the date.
func WorkdaysFromOverrides(year int, month time.Month, c StoreCalendar, today generic.Date) WorkdayInfo {
	total, elapsed := 0, 0
	for _, d := range generic.MonthPeriod(year, month).Days() {
		worked, counts := dayCounts(d, c, today)
		if counts {
			total++
		}
		if worked {
			elapsed++
		}
	}
	return newWorkdayInfo(total, elapsed)
}

// dayCounts returns (counts toward elapsed, counts toward total).
func dayCounts(d generic.Date, c StoreCalendar, today generic.Date) (bool, bool) {
	if o, ok := c.override(d); ok {
		switch o.Status {
		case StatusWorked:
			return true, true
		case StatusRemaining:
			return false, true
		default:
			return false, false
		}
	}
	if !IsStoreOpen(d, c) {
		return false, false
	}
	return d.BeforeOrEqual(today), true
}

// ProjectionFactor is Total/Elapsed, exactly 1 when nothing has elapsed.
func (w WorkdayInfo) ProjectionFactor() decimal.Decimal {
	if w.Elapsed <= 0 {
		return decimal.NewFromInt(1)
	}
	return decimal.NewFromInt(int64(w.Total)).Div(decimal.NewFromInt(int64(w.Elapsed)))
}

// ProjectEndOfMonth extrapolates a partial-month value to the full month.
func (w WorkdayInfo) ProjectEndOfMonth(v decimal.Decimal) decimal.Decimal {
	return v.Mul(w.ProjectionFactor())
}

// RunRate is the daily pace needed over the whole month, 0 for a calendar
// with no working days.
func (w WorkdayInfo) RunRate(v decimal.Decimal) decimal.Decimal {
	if w.Total <= 0 {
		return decimal.Zero
	}
	return v.Div(decimal.NewFromInt(int64(w.Total))).Round(2)
}

// Max returns the info with more total working days. Used for company
// run-rates where the company works whenever one of its stores does.
func (w WorkdayInfo) Max(o WorkdayInfo) WorkdayInfo {
	if o.Total > w.Total {
		return o
	}
	return w
}

// =============================================================================
// MONTH VIEW - per-day listing for the projection tool
// =============================================================================

// DayView is one day of a month as seen by the projection tool.
type DayView struct {
	Date       generic.Date `json:"date"`
	Weekday    time.Weekday `json:"weekday"`
	Open       bool         `json:"open"`
	Status     DayStatus    `json:"status"`
	Overridden bool         `json:"overridden"`
}

// MonthView lists every day of the month with its effective status.
func MonthView(year int, month time.Month, c StoreCalendar, today generic.Date) []DayView {
	days := generic.MonthPeriod(year, month).Days()
	views := make([]DayView, 0, len(days))
	for _, d := range days {
		v := DayView{Date: d, Weekday: d.Weekday(), Open: IsStoreOpen(d, c)}
		if o, ok := c.override(d); ok {
			v.Status = o.Status
			v.Overridden = true
		} else {
			switch {
			case !v.Open:
				v.Status = StatusClosed
			case d.BeforeOrEqual(today):
				v.Status = StatusWorked
			default:
				v.Status = StatusRemaining
			}
		}
		views = append(views, v)
	}
	return views
}
