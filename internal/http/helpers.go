package http

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"zodiac/internal/core"
)

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

type monthOption struct {
	Value    int
	Name     string
	Selected bool
}

type dayOption struct {
	Value    int
	Selected bool
}

func monthOptions(selected int) []monthOption {
	out := make([]monthOption, 0, 12)
	for m := 1; m <= 12; m++ {
		out = append(out, monthOption{Value: m, Name: time.Month(m).String(), Selected: m == selected})
	}
	return out
}

// dayOptions lists 1..MaxDay(month), clamping selected into range.
func dayOptions(month, selected int) []dayOption {
	last := core.MaxDay(month)
	selected = min(max(selected, 1), last)
	out := make([]dayOption, 0, last)
	for d := 1; d <= last; d++ {
		out = append(out, dayOption{Value: d, Selected: d == selected})
	}
	return out
}

type signRow struct {
	Symbol string
	Name   string
	Span   string
}

func signRows(signs []core.Sign) []signRow {
	out := make([]signRow, 0, len(signs))
	for _, s := range signs {
		out = append(out, signRow{Symbol: s.Symbol, Name: s.Name, Span: s.SpanLabel()})
	}
	return out
}

type resultView struct {
	Sign        core.Sign
	Span        string
	ElementFact string
}

func newResultView(s core.Sign) resultView {
	fact, _ := core.ElementFact(s.Element)
	return resultView{Sign: s, Span: s.SpanLabel(), ElementFact: fact}
}

type monthDayJSON struct {
	Month int `json:"month"`
	Day   int `json:"day"`
}

type signJSON struct {
	Name         string       `json:"name"`
	Description  string       `json:"description"`
	Element      string       `json:"element"`
	RulingPlanet string       `json:"ruling_planet"`
	Symbol       string       `json:"symbol"`
	Start        monthDayJSON `json:"start"`
	End          monthDayJSON `json:"end"`
	ElementFact  string       `json:"element_fact,omitempty"`
}

func toSignJSON(s core.Sign) signJSON {
	fact, _ := core.ElementFact(s.Element)
	return signJSON{
		Name:         s.Name,
		Description:  s.Description,
		Element:      s.Element,
		RulingPlanet: s.RulingPlanet,
		Symbol:       s.Symbol,
		Start:        monthDayJSON{Month: s.Start.Month, Day: s.Start.Day},
		End:          monthDayJSON{Month: s.End.Month, Day: s.End.Day},
		ElementFact:  fact,
	}
}

type errorJSON struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
