package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"cloudeng.io/datetime"
)

// ReferenceYear is the leap year used for calendar checks. Sign ranges only
// depend on month and day, so any leap year accepts February 29.
const ReferenceYear = 2024

type (
	// MonthDay is a day of the year without the year.
	MonthDay struct {
		Month int
		Day   int
	}

	// Sign is a named span of the year with its descriptive attributes.
	Sign struct {
		Name         string
		Start        MonthDay
		End          MonthDay
		Description  string
		Element      string
		RulingPlanet string
		Symbol       string
	}
)

var (
	ErrInvalidDate  = errors.New("invalid date")
	ErrInvalidMonth = errors.New("invalid month")
	ErrInvalidDay   = errors.New("invalid day")
	ErrNoMatch      = errors.New("no matching sign")
	ErrEmptyName    = errors.New("empty sign name")
)

// ValidDate reports whether month and day form a real calendar date.
func ValidDate(month, day int) bool {
	return ValidateDate(month, day) == nil
}

// ValidateDate checks month and day against the reference leap year.
// Returned errors wrap ErrInvalidDate plus ErrInvalidMonth or ErrInvalidDay.
func ValidateDate(month, day int) error {
	if month < 1 || month > 12 {
		return fmt.Errorf("%w: %w %d", ErrInvalidDate, ErrInvalidMonth, month)
	}
	if day < 1 || day > MaxDay(month) {
		return fmt.Errorf("%w: %w %d for %s", ErrInvalidDate, ErrInvalidDay, day, time.Month(month))
	}
	return nil
}

// MaxDay returns the last selectable day of month, 29 for February.
// It returns 0 for months outside 1..12.
func MaxDay(month int) int {
	if month < 1 || month > 12 {
		return 0
	}
	return int(datetime.DaysInMonth(ReferenceYear, datetime.Month(month)))
}

// ParseMonth accepts a numeric month ("3", "03") or a month name or
// prefix of at least three letters ("mar", "March").
func ParseMonth(val string) (int, error) {
	val = strings.TrimSpace(val)
	if val == "" {
		return 0, fmt.Errorf("%w: empty value", ErrInvalidMonth)
	}
	if n, err := datetime.ParseNumericMonth(val); err == nil {
		return int(n), nil
	}
	if len(val) < 3 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidMonth, val)
	}
	m, err := datetime.ParseMonth(val)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidMonth, val)
	}
	return int(m), nil
}

// CalendarDates returns every month/day of the reference year in order.
func CalendarDates() []MonthDay {
	out := make([]MonthDay, 0, 366)
	for m := 1; m <= 12; m++ {
		for d := 1; d <= MaxDay(m); d++ {
			out = append(out, MonthDay{Month: m, Day: d})
		}
	}
	return out
}

// Validate checks that the month/day is a real calendar date.
func (md MonthDay) Validate() error {
	return ValidateDate(md.Month, md.Day)
}

// Compare orders two dates by month, then day.
func (md MonthDay) Compare(other MonthDay) int {
	switch {
	case md.Month < other.Month:
		return -1
	case md.Month > other.Month:
		return 1
	case md.Day < other.Day:
		return -1
	case md.Day > other.Day:
		return 1
	}
	return 0
}

// Before reports whether md comes strictly earlier in the year than other.
func (md MonthDay) Before(other MonthDay) bool {
	return md.Compare(other) < 0
}

func (md MonthDay) String() string {
	if md.Month < 1 || md.Month > 12 {
		return fmt.Sprintf("%02d/%02d", md.Month, md.Day)
	}
	return fmt.Sprintf("%s %02d", time.Month(md.Month).String()[:3], md.Day)
}

// Wraps reports whether the sign crosses the year boundary (Dec into Jan).
func (s Sign) Wraps() bool {
	return s.End.Before(s.Start)
}

// Contains reports whether md falls inside the sign's inclusive range.
func (s Sign) Contains(md MonthDay) bool {
	if s.Wraps() {
		return !md.Before(s.Start) || !s.End.Before(md)
	}
	return !md.Before(s.Start) && !s.End.Before(md)
}

// SpanLabel renders the range as "Mar 21 - Apr 19".
func (s Sign) SpanLabel() string {
	return s.Start.String() + " - " + s.End.String()
}

func (s Sign) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return ErrEmptyName
	}
	if err := s.Start.Validate(); err != nil {
		return fmt.Errorf("invalid start: %w", err)
	}
	if err := s.End.Validate(); err != nil {
		return fmt.Errorf("invalid end: %w", err)
	}
	return nil
}
