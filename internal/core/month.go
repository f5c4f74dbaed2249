package core

import (
	"fmt"
	"strings"
	"time"
)

// Month is a calendar month. The zero value is not a valid month.
type Month struct {
	year  int
	month time.Month
}

// NewMonth normalizes out-of-range months, so NewMonth(2014, 13) is 2015-Jan.
func NewMonth(year int, month time.Month) Month {
	return FromTime(time.Date(year, month, 1, 0, 0, 0, 0, time.UTC))
}

// FromTime truncates t to its month.
func FromTime(t time.Time) Month {
	return Month{year: t.Year(), month: t.Month()}
}

// ParseMonth parses "2014-01" or "2014-01-25" (the day is dropped).
func ParseMonth(s string) (Month, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"2006-01", "2006-01-02", "2006-Jan"} {
		if t, err := time.Parse(layout, s); err == nil {
			return FromTime(t), nil
		}
	}
	return Month{}, fmt.Errorf("%w: %q", ErrInvalidMonth, s)
}

func (m Month) Year() int {
	return m.year
}

func (m Month) Month() time.Month {
	return m.month
}

func (m Month) IsZero() bool {
	return m.year == 0 && m.month == 0
}

// Time returns midnight UTC on the first day of the month.
func (m Month) Time() time.Time {
	return time.Date(m.year, m.month, 1, 0, 0, 0, 0, time.UTC)
}

// AddMonths returns the month n months later (n may be negative).
func (m Month) AddMonths(n int) Month {
	return NewMonth(m.year, m.month+time.Month(n))
}

// Diff returns other minus m in the given unit. Years and months are whole
// calendar units truncated toward zero; days count calendar days between the
// first days of both months.
func (m Month) Diff(part DatePart, other Month) int {
	months := (other.year-m.year)*12 + int(other.month-m.month)
	switch part {
	case Years:
		return months / 12
	case Months:
		return months
	case Days:
		return int(other.Time().Sub(m.Time()).Hours() / 24)
	default:
		return 0
	}
}

func (m Month) Compare(other Month) int {
	switch {
	case m.year < other.year:
		return -1
	case m.year > other.year:
		return 1
	case m.month < other.month:
		return -1
	case m.month > other.month:
		return 1
	default:
		return 0
	}
}

func (m Month) Before(other Month) bool { return m.Compare(other) < 0 }
func (m Month) After(other Month) bool  { return m.Compare(other) > 0 }
func (m Month) Equal(other Month) bool  { return m.Compare(other) == 0 }

// String formats as "2014-Jan".
func (m Month) String() string {
	if m.IsZero() {
		return ""
	}
	return m.Time().Format("2006-Jan")
}

// ISO formats as "2014-01".
func (m Month) ISO() string {
	if m.IsZero() {
		return ""
	}
	return m.Time().Format("2006-01")
}

func (m Month) MarshalText() ([]byte, error) {
	return []byte(m.ISO()), nil
}

func (m *Month) UnmarshalText(b []byte) error {
	if len(strings.TrimSpace(string(b))) == 0 {
		*m = Month{}
		return nil
	}
	parsed, err := ParseMonth(string(b))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
