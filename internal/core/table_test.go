package core

import (
	"errors"
	"testing"
)

func TestDefaultTableBoundaries(t *testing.T) {
	table := DefaultTable()
	tests := []struct {
		month, day int
		want       string
	}{
		{3, 21, "Aries"},
		{4, 19, "Aries"},
		{4, 20, "Taurus"},
		{5, 20, "Taurus"},
		{5, 21, "Gemini"},
		{6, 20, "Gemini"},
		{6, 21, "Cancer"},
		{7, 22, "Cancer"},
		{7, 23, "Leo"},
		{8, 22, "Leo"},
		{8, 23, "Virgo"},
		{9, 22, "Virgo"},
		{9, 23, "Libra"},
		{10, 22, "Libra"},
		{10, 23, "Scorpio"},
		{11, 21, "Scorpio"},
		{11, 22, "Sagittarius"},
		{12, 21, "Sagittarius"},
		{12, 22, "Capricorn"},
		{12, 25, "Capricorn"},
		{12, 31, "Capricorn"},
		{1, 1, "Capricorn"},
		{1, 5, "Capricorn"},
		{1, 19, "Capricorn"},
		{1, 20, "Aquarius"},
		{2, 18, "Aquarius"},
		{2, 19, "Pisces"},
		{2, 29, "Pisces"},
		{3, 20, "Pisces"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			got, err := table.Lookup(tt.month, tt.day)
			if err != nil {
				t.Fatalf("Lookup(%d, %d) error: %v", tt.month, tt.day, err)
			}
			if got.Name != tt.want {
				t.Fatalf("Lookup(%d, %d) = %s, want %s", tt.month, tt.day, got.Name, tt.want)
			}
		})
	}
}

func TestDefaultTablePartitionsYear(t *testing.T) {
	table := DefaultTable()
	if table.Len() != 12 {
		t.Fatalf("expected 12 signs, got %d", table.Len())
	}
	if err := table.Verify(); err != nil {
		t.Fatalf("default table should verify: %v", err)
	}

	counts := map[string]int{}
	for _, md := range CalendarDates() {
		matches := 0
		for _, s := range table.Signs() {
			if s.Contains(md) {
				matches++
			}
		}
		if matches != 1 {
			t.Fatalf("%s matched %d signs", md, matches)
		}
		s, err := table.Resolve(md)
		if err != nil {
			t.Fatalf("Resolve(%s): %v", md, err)
		}
		counts[s.Name]++
	}
	total := 0
	for _, n := range counts {
		total += n
	}
	if total != 366 || len(counts) != 12 {
		t.Fatalf("expected 366 dates over 12 signs, got %d over %d", total, len(counts))
	}
}

func TestResolveIdempotent(t *testing.T) {
	table := DefaultTable()
	for _, md := range []MonthDay{{12, 25}, {1, 5}, {7, 4}} {
		a, errA := table.Resolve(md)
		b, errB := table.Resolve(md)
		if errA != nil || errB != nil || a != b {
			t.Fatalf("Resolve(%s) not stable: %v/%v %v/%v", md, a, errA, b, errB)
		}
	}
}

func TestLookupInvalidDate(t *testing.T) {
	table := DefaultTable()
	for _, in := range [][2]int{{2, 30}, {4, 31}, {13, 1}, {0, 0}} {
		_, err := table.Lookup(in[0], in[1])
		if !errors.Is(err, ErrInvalidDate) {
			t.Fatalf("Lookup(%d, %d) error = %v, want ErrInvalidDate", in[0], in[1], err)
		}
	}
}

func TestResolveOutOfRangeIsNoMatch(t *testing.T) {
	table := DefaultTable()
	// (13, 1) sorts after Capricorn's start, so it must be rejected before matching.
	for _, md := range []MonthDay{{13, 1}, {0, 5}, {2, 30}} {
		if _, err := table.Resolve(md); !errors.Is(err, ErrNoMatch) {
			t.Fatalf("Resolve(%s) error = %v, want ErrNoMatch", md, err)
		}
	}
}

func TestMalformedTableNoMatch(t *testing.T) {
	signs := DefaultSigns()
	// Drop Leo, leaving Jul 23 - Aug 22 uncovered.
	var trimmed []Sign
	for _, s := range signs {
		if s.Name != "Leo" {
			trimmed = append(trimmed, s)
		}
	}
	table := NewTable(trimmed)

	_, err := table.Lookup(8, 1)
	if !errors.Is(err, ErrNoMatch) {
		t.Fatalf("expected ErrNoMatch, got %v", err)
	}
	if errors.Is(err, ErrInvalidDate) {
		t.Fatalf("no match must not be reported as invalid date")
	}

	err = table.Verify()
	var cov *CoverageError
	if !errors.As(err, &cov) {
		t.Fatalf("expected CoverageError, got %v", err)
	}
	if len(cov.Gaps) != 31 || len(cov.Overlaps) != 0 {
		t.Fatalf("expected 31 gaps and no overlaps, got %d/%d", len(cov.Gaps), len(cov.Overlaps))
	}
	if cov.Gaps[0] != (MonthDay{7, 23}) {
		t.Fatalf("first gap = %s", cov.Gaps[0])
	}
}

func TestOverlapFirstMatchWins(t *testing.T) {
	signs := append([]Sign{{Name: "Early Spring", Start: MonthDay{3, 15}, End: MonthDay{3, 25}}}, DefaultSigns()...)
	table := NewTable(signs)

	got, err := table.Lookup(3, 21)
	if err != nil || got.Name != "Early Spring" {
		t.Fatalf("expected first match in table order, got %v %v", got.Name, err)
	}

	err = table.Verify()
	var cov *CoverageError
	if !errors.As(err, &cov) {
		t.Fatalf("expected CoverageError, got %v", err)
	}
	if len(cov.Overlaps) != 11 || len(cov.Gaps) != 0 {
		t.Fatalf("expected 11 overlaps, got %d (gaps %d)", len(cov.Overlaps), len(cov.Gaps))
	}
	if cov.Overlaps[0].Signs[0] != "Early Spring" {
		t.Fatalf("unexpected overlap %v", cov.Overlaps[0])
	}
}

func TestVerifyReportsBadRows(t *testing.T) {
	signs := DefaultSigns()
	signs[0].Name = ""
	if err := NewTable(signs).Verify(); !errors.Is(err, ErrEmptyName) {
		t.Fatalf("expected ErrEmptyName, got %v", err)
	}
}

func TestTableIsolation(t *testing.T) {
	signs := DefaultSigns()
	table := NewTable(signs)
	signs[0].Name = "Mutated"
	out := table.Signs()
	out[1].Name = "Also mutated"
	if s, _ := table.Lookup(3, 21); s.Name != "Aries" {
		t.Fatalf("table changed through input slice: %s", s.Name)
	}
	if s, _ := table.Lookup(4, 21); s.Name != "Taurus" {
		t.Fatalf("table changed through Signs() copy: %s", s.Name)
	}
}

func TestFindAndElementFact(t *testing.T) {
	table := DefaultTable()
	s, ok := table.Find("  sagittarius ")
	if !ok || s.Symbol != "♐" {
		t.Fatalf("Find failed: %v %v", s, ok)
	}
	if _, ok := table.Find("Ophiuchus"); ok {
		t.Fatalf("unexpected match")
	}
	for _, s := range table.Signs() {
		if _, ok := ElementFact(s.Element); !ok {
			t.Fatalf("no element fact for %s (%s)", s.Name, s.Element)
		}
	}
	if _, ok := ElementFact("Aether"); ok {
		t.Fatalf("unexpected fact")
	}
}
