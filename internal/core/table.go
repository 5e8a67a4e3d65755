package core

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Table is an ordered, read-only set of signs. The zero value is an empty
// table. A Table is safe for concurrent use since nothing mutates it after
// NewTable returns.
type Table struct {
	signs []Sign
}

// NewTable copies signs into a new Table, preserving order.
func NewTable(signs []Sign) Table {
	return Table{signs: slices.Clone(signs)}
}

// Len returns the number of signs.
func (t Table) Len() int {
	return len(t.signs)
}

// Signs returns a copy of the table rows in order.
func (t Table) Signs() []Sign {
	return slices.Clone(t.signs)
}

// Resolve returns the first sign in table order whose range contains md.
// Dates that are not real calendar dates never match.
func (t Table) Resolve(md MonthDay) (Sign, error) {
	if md.Validate() == nil {
		for _, s := range t.signs {
			if s.Contains(md) {
				return s, nil
			}
		}
	}
	return Sign{}, fmt.Errorf("%w for %s", ErrNoMatch, md)
}

// Lookup validates month and day and resolves them against the table.
// Errors wrap either ErrInvalidDate or ErrNoMatch.
func (t Table) Lookup(month, day int) (Sign, error) {
	if err := ValidateDate(month, day); err != nil {
		return Sign{}, err
	}
	return t.Resolve(MonthDay{Month: month, Day: day})
}

// Find returns the sign with the given name, ignoring case.
func (t Table) Find(name string) (Sign, bool) {
	name = strings.TrimSpace(name)
	for _, s := range t.signs {
		if strings.EqualFold(s.Name, name) {
			return s, true
		}
	}
	return Sign{}, false
}

// Overlap is a date claimed by more than one sign.
type Overlap struct {
	Date  MonthDay
	Signs []string
}

// CoverageError lists the dates of the reference year that resolve to no
// sign or to more than one.
type CoverageError struct {
	Gaps     []MonthDay
	Overlaps []Overlap
}

func (e *CoverageError) Error() string {
	var parts []string
	if len(e.Gaps) > 0 {
		parts = append(parts, fmt.Sprintf("%d uncovered dates (first %s)", len(e.Gaps), e.Gaps[0]))
	}
	if len(e.Overlaps) > 0 {
		o := e.Overlaps[0]
		parts = append(parts, fmt.Sprintf("%d overlapping dates (first %s: %s)", len(e.Overlaps), o.Date, strings.Join(o.Signs, ", ")))
	}
	return "table coverage: " + strings.Join(parts, "; ")
}

// Verify checks every row and then walks all 366 dates of the reference
// year, reporting rows that are malformed and dates covered zero or several
// times. A nil error means every valid date resolves to exactly one sign.
func (t Table) Verify() error {
	var errs []error
	for i, s := range t.signs {
		if err := s.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("sign %d (%q): %w", i, s.Name, err))
		}
	}

	cov := &CoverageError{}
	for _, md := range CalendarDates() {
		var names []string
		for _, s := range t.signs {
			if s.Contains(md) {
				names = append(names, s.Name)
			}
		}
		switch {
		case len(names) == 0:
			cov.Gaps = append(cov.Gaps, md)
		case len(names) > 1:
			cov.Overlaps = append(cov.Overlaps, Overlap{Date: md, Signs: names})
		}
	}
	if len(cov.Gaps) > 0 || len(cov.Overlaps) > 0 {
		errs = append(errs, cov)
	}
	return errors.Join(errs...)
}
