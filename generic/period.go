package generic

import (
	"fmt"
	"time"
)

// =============================================================================
// PERIOD - The competition month
// =============================================================================

// Period is a closed range of days [Start, End]. Incentive competitions
// (gare) always run over one calendar month.
type Period struct {
	Start Date
	End   Date
}

// MonthPeriod returns the period covering a calendar month.
func MonthPeriod(year int, month time.Month) Period {
	return Period{Start: StartOfMonth(year, month), End: EndOfMonth(year, month)}
}

// Contains returns true if the date is within [Start, End].
func (p Period) Contains(d Date) bool {
	return !d.Before(p.Start) && !d.After(p.End)
}

// Days returns all days in the period.
func (p Period) Days() []Date {
	var days []Date
	current := p.Start
	for current.BeforeOrEqual(p.End) {
		days = append(days, current)
		current = current.AddDays(1)
	}
	return days
}

func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}

// ValidMonth reports whether year/month describe a real month.
func ValidMonth(year int, month time.Month) error {
	if month < time.January || month > time.December {
		return fmt.Errorf("%w: month %d", ErrInvalidPeriod, month)
	}
	if year < 1970 || year > 9999 {
		return fmt.Errorf("%w: year %d", ErrInvalidPeriod, year)
	}
	return nil
}
