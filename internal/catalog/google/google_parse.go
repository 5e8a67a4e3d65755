package google

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"zodiac/internal/core"
)

// Column headers expected in the first row of the signs range. Order in the
// sheet does not matter; matching ignores case.
const (
	colName         = "Name"
	colStartMonth   = "Start Month"
	colStartDay     = "Start Day"
	colEndMonth     = "End Month"
	colEndDay       = "End Day"
	colDescription  = "Description"
	colElement      = "Element"
	colRulingPlanet = "Ruling Planet"
	colSymbol       = "Symbol"
)

var requiredHeaders = []string{colName, colStartMonth, colStartDay, colEndMonth, colEndDay}

// parseSigns converts a values matrix (as returned by the Sheets API) into
// signs. Blank rows and rows whose name starts with '#' are skipped.
func parseSigns(values [][]interface{}) ([]core.Sign, error) {
	if len(values) == 0 {
		return nil, errors.New("empty range")
	}
	headers := toStrings(values[0])
	cols := map[string]int{}
	var missing []string
	for _, h := range []string{colName, colStartMonth, colStartDay, colEndMonth, colEndDay,
		colDescription, colElement, colRulingPlanet, colSymbol} {
		cols[h] = indexOf(headers, h)
	}
	for _, h := range requiredHeaders {
		if cols[h] == -1 {
			missing = append(missing, h)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("unexpected signs header: missing %s; got headers=%v", strings.Join(missing, ","), headers)
	}

	var signs []core.Sign
	for i := 1; i < len(values); i++ {
		row := toStrings(values[i])
		name := safeGet(row, cols[colName])
		if name == "" || strings.HasPrefix(name, "#") {
			continue
		}
		start, err := parseMonthDay(safeGet(row, cols[colStartMonth]), safeGet(row, cols[colStartDay]))
		if err != nil {
			return nil, fmt.Errorf("row %d (%q) start: %w", i+1, name, err)
		}
		end, err := parseMonthDay(safeGet(row, cols[colEndMonth]), safeGet(row, cols[colEndDay]))
		if err != nil {
			return nil, fmt.Errorf("row %d (%q) end: %w", i+1, name, err)
		}
		s := core.Sign{
			Name:         name,
			Start:        start,
			End:          end,
			Description:  safeGet(row, cols[colDescription]),
			Element:      safeGet(row, cols[colElement]),
			RulingPlanet: safeGet(row, cols[colRulingPlanet]),
			Symbol:       safeGet(row, cols[colSymbol]),
		}
		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("row %d (%q): %w", i+1, name, err)
		}
		signs = append(signs, s)
	}
	if len(signs) == 0 {
		return nil, errors.New("no signs found")
	}
	return signs, nil
}

// parseMonthDay accepts month names as well as numbers, since a sheet edited
// by hand often says "March" rather than 3.
func parseMonthDay(month, day string) (core.MonthDay, error) {
	m, err := core.ParseMonth(month)
	if err != nil {
		return core.MonthDay{}, err
	}
	d, err := strconv.Atoi(strings.TrimSpace(day))
	if err != nil {
		return core.MonthDay{}, fmt.Errorf("%w: %q", core.ErrInvalidDay, day)
	}
	return core.MonthDay{Month: m, Day: d}, nil
}
