package calendar_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/premi-engine/calendar"
	"github.com/warp/premi-engine/generic"
)

func monFri() calendar.StoreCalendar {
	return calendar.StoreCalendar{WeeklySchedule: []time.Weekday{
		time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday,
	}}
}

func monSat() calendar.StoreCalendar {
	return calendar.StoreCalendar{WeeklySchedule: append([]time.Weekday(nil), calendar.ScheduleMonSat...)}
}

func day(y int, m time.Month, d int) generic.Date { return generic.NewDate(y, m, d) }

// =============================================================================
// OPEN / CLOSED
// =============================================================================

func TestIsStoreOpen_SundaysClosedOnWeekdaySchedule(t *testing.T) {
	// GIVEN: a Mon-Fri store and April 2018, a 30-day month starting on Sunday
	cal := monFri()
	require.Equal(t, time.Sunday, day(2018, time.April, 1).Weekday())

	// THEN: every Sunday is closed and weekdays are open
	for _, d := range []int{1, 8, 15, 22, 29} {
		assert.False(t, calendar.IsStoreOpen(day(2018, time.April, d), cal), "April %d", d)
	}
	assert.True(t, calendar.IsStoreOpen(day(2018, time.April, 2), cal))
	assert.False(t, calendar.IsStoreOpen(day(2018, time.April, 7), cal), "Saturday")

	// AND: the month has 30 - 5 Sundays - 4 Saturdays working days
	info := calendar.Workdays(2018, time.April, cal, generic.Date{})
	assert.Equal(t, 21, info.Total)
}

func TestWorkdays_ThirtyDayMonthWithFourSundays(t *testing.T) {
	// GIVEN: a store open every day but Sunday, April 2025 (four Sundays)
	// WHEN: the month is counted
	info := calendar.Workdays(2025, time.April, monSat(), generic.Date{})

	// THEN: 26 working days
	assert.Equal(t, 26, info.Total)
	assert.Equal(t, 0, info.Elapsed, "zero reference date means nothing elapsed")
	assert.Equal(t, 26, info.Remaining)
}

func TestIsStoreOpen_SpecialDayBeatsSchedule(t *testing.T) {
	// GIVEN: a Mon-Sat store opening on Sunday 6 and closing Easter Monday 21
	cal := monSat()
	cal.SpecialDays = []calendar.SpecialDay{
		{Date: day(2025, time.April, 6), Open: true},
		{Date: day(2025, time.April, 21), Open: false},
	}

	// THEN: both special days win over the weekly schedule
	assert.True(t, calendar.IsStoreOpen(day(2025, time.April, 6), cal))
	assert.False(t, calendar.IsStoreOpen(day(2025, time.April, 21), cal))
	assert.Equal(t, 26, calendar.Workdays(2025, time.April, cal, generic.Date{}).Total)
}

// =============================================================================
// ELAPSED / PROJECTION
// =============================================================================

func TestWorkdays_ElapsedCountsUpToToday(t *testing.T) {
	// GIVEN: April 2025 seen from Tuesday the 15th
	today := day(2025, time.April, 15)

	// WHEN: counting a Mon-Sat store
	info := calendar.Workdays(2025, time.April, monSat(), today)

	// THEN: 15 days minus Sundays 6 and 13 have elapsed
	assert.Equal(t, 13, info.Elapsed)
	assert.Equal(t, 13, info.Remaining)
	assert.True(t, info.ProjectionFactor().Equal(generic.Dec(2)))
	assert.True(t, info.ProjectEndOfMonth(generic.Dec(40)).Equal(generic.Dec(80)))
}

func TestWorkdays_BoundsHoldForEveryReferenceDate(t *testing.T) {
	// GIVEN: reference dates before, during and after the month
	refs := []generic.Date{
		{}, day(2025, time.March, 31), day(2025, time.April, 1),
		day(2025, time.April, 30), day(2025, time.June, 1),
	}
	for _, ref := range refs {
		info := calendar.WorkdaysFromOverrides(2025, time.April, monSat(), ref)

		// THEN: 0 <= elapsed <= total <= days in month
		assert.GreaterOrEqual(t, info.Elapsed, 0)
		assert.LessOrEqual(t, info.Elapsed, info.Total)
		assert.LessOrEqual(t, info.Total, generic.DaysInMonth(2025, time.April))
		assert.Equal(t, info.Total-info.Elapsed, info.Remaining)
	}
}

func TestProjectionFactor_IsOneWhenNothingElapsed(t *testing.T) {
	info := calendar.Workdays(2025, time.April, monSat(), generic.Date{})
	assert.True(t, info.ProjectionFactor().Equal(generic.Dec(1)))

	closed := calendar.Workdays(2025, time.April, calendar.StoreCalendar{}, day(2025, time.April, 30))
	assert.Equal(t, 0, closed.Total)
	assert.True(t, closed.ProjectionFactor().Equal(generic.Dec(1)))
	assert.True(t, closed.RunRate(generic.Dec(100)).IsZero())
}

func TestWorkdaysFromOverrides_StatusWins(t *testing.T) {
	// GIVEN: a Mon-Sat store seen from the 15th with three pinned days:
	//   Sunday 13 worked, Monday 14 closed, Thursday 10 still remaining
	cal := monSat()
	cal.DayOverrides = []calendar.DayOverride{
		{Date: day(2025, time.April, 13), Status: calendar.StatusWorked},
		{Date: day(2025, time.April, 14), Status: calendar.StatusClosed},
		{Date: day(2025, time.April, 10), Status: calendar.StatusRemaining},
	}

	// WHEN: counting with overrides
	info := calendar.WorkdaysFromOverrides(2025, time.April, cal, day(2025, time.April, 15))

	// THEN: total 26 +1 (Sunday) -1 (Monday); elapsed 13 +1 -1 -1
	assert.Equal(t, 26, info.Total)
	assert.Equal(t, 12, info.Elapsed)

	// AND: the plain count ignores statuses
	assert.Equal(t, 13, calendar.Workdays(2025, time.April, cal, day(2025, time.April, 15)).Elapsed)
}

func TestWorkdayInfo_MaxPrefersMoreWorkingDays(t *testing.T) {
	street := calendar.Workdays(2025, time.April, monSat(), generic.Date{})
	mall := calendar.Workdays(2025, time.April, monSat().WithSunday(true), generic.Date{})

	assert.Equal(t, 30, mall.Total)
	assert.Equal(t, mall, street.Max(mall))
	assert.Equal(t, mall, mall.Max(street))
	assert.True(t, mall.RunRate(generic.Dec(90)).Equal(generic.Dec(3)))
}

func TestWithSunday_RemovesSunday(t *testing.T) {
	cal := calendar.StoreCalendar{WeeklySchedule: calendar.ScheduleMonSun}

	out := cal.WithSunday(false)

	assert.NotContains(t, out.WeeklySchedule, time.Sunday)
	assert.Len(t, cal.WeeklySchedule, 7, "original untouched")
}

// =============================================================================
// MONTH VIEW
// =============================================================================

func TestMonthView_StatusPerDay(t *testing.T) {
	cal := monSat()
	cal.DayOverrides = []calendar.DayOverride{{Date: day(2025, time.April, 2), Status: calendar.StatusClosed}}

	views := calendar.MonthView(2025, time.April, cal, day(2025, time.April, 15))

	require.Len(t, views, 30)
	assert.Equal(t, calendar.StatusWorked, views[0].Status)
	assert.Equal(t, calendar.StatusClosed, views[1].Status)
	assert.True(t, views[1].Overridden)
	assert.Equal(t, calendar.StatusClosed, views[5].Status, "Sunday 6")
	assert.Equal(t, calendar.StatusRemaining, views[15].Status, "Wednesday 16")
}
