package planner

import (
	"errors"
	"fmt"
	"time"
)

// Date is a calendar date without a time-of-day component. Due dates and
// payment schedules are day-granular, so comparing instants would make
// "due today" depend on the clock's hour.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// ParseDate parses a date in YYYY-MM-DD form.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, errors.New("invalid date, expected YYYY-MM-DD")
	}
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}, nil
}

// MustParseDate is ParseDate that panics on error, for tests and seeds.
func MustParseDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil { panic(err) }
	return d
}

// DateOf truncates an instant to its calendar date in UTC.
func DateOf(t time.Time) Date {
	t = t.UTC()
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

// IsZero reports whether d is the zero Date.
func (d Date) IsZero() bool { return d == Date{} }

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// MarshalText encodes d as YYYY-MM-DD.
func (d Date) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

// UnmarshalText decodes YYYY-MM-DD.
func (d *Date) UnmarshalText(b []byte) error {
	parsed, err := ParseDate(string(b))
	if err != nil { return err }
	*d = parsed
	return nil
}

// Equal reports d == other.
func (d Date) Equal(other Date) bool { return d == other }

// Before reports whether d is earlier than other.
func (d Date) Before(other Date) bool {
	if d.Year != other.Year { return d.Year < other.Year }
	if d.Month != other.Month { return d.Month < other.Month }
	return d.Day < other.Day
}

// daysIn returns the number of days in the given month.
func daysIn(year int, month time.Month) int {
	// day 0 of the next month normalizes to the last day of this one
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// WithMonthYear returns d moved to the given month and year, clamping the
// day to the target month's last day (a due date on the 31st falls on the
// 30th in a 30-day month rather than rolling into the next month).
func (d Date) WithMonthYear(month time.Month, year int) Date {
	day := d.Day
	if max := daysIn(year, month); day > max { day = max }
	return Date{Year: year, Month: month, Day: day}
}

// AddMonths returns d moved n calendar months forward, clamping the day the
// same way as WithMonthYear. The original day-of-month is preserved where
// the target month allows it.
func (d Date) AddMonths(n int) Date {
	total := int(d.Month) - 1 + n
	year := d.Year + total/12
	month := time.Month(total%12 + 1)
	if total < 0 {
		// Go's % can be negative; normalize
		year = d.Year + (total-11)/12
		month = time.Month((total%12+12)%12 + 1)
	}
	return d.WithMonthYear(month, year)
}
