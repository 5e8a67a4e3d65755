package memory

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"zodiac/internal/catalog"
	"zodiac/internal/core"
)

// SeedFile is the optional file in the data directory that overrides the
// built-in signs.
const SeedFile = "signs.yaml"

var _ catalog.TableLoader = (*Store)(nil)

// Store serves a table held in process memory.
type Store struct {
	table  core.Table
	source string
}

type seedDoc struct {
	Signs []seedSign `yaml:"signs"`
}

type seedSign struct {
	Name         string   `yaml:"name"`
	Start        seedDate `yaml:"start"`
	End          seedDate `yaml:"end"`
	Description  string   `yaml:"description"`
	Element      string   `yaml:"element"`
	RulingPlanet string   `yaml:"ruling_planet"`
	Symbol       string   `yaml:"symbol"`
}

type seedDate struct {
	Month int `yaml:"month"`
	Day   int `yaml:"day"`
}

func New(signs []core.Sign) *Store {
	return &Store{table: core.NewTable(signs), source: "memory"}
}

// NewDefault returns a store holding the built-in twelve signs.
func NewDefault() *Store {
	s := New(core.DefaultSigns())
	s.source = "builtin"
	return s
}

// NewFromDir loads base/signs.yaml when it exists and falls back to the
// built-in signs otherwise. A present but unreadable file is an error.
func NewFromDir(base string) (*Store, error) {
	path := filepath.Join(base, SeedFile)
	s, err := NewFromFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return NewDefault(), nil
	}
	return s, err
}

// NewFromFile parses a YAML seed file.
func NewFromFile(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	signs, err := ParseSeed(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	s := New(signs)
	s.source = path
	return s, nil
}

// ParseSeed decodes the YAML seed format and validates every row.
func ParseSeed(data []byte) ([]core.Sign, error) {
	var doc seedDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	if len(doc.Signs) == 0 {
		return nil, errors.New("no signs defined")
	}
	signs := make([]core.Sign, 0, len(doc.Signs))
	for i, row := range doc.Signs {
		s := core.Sign{
			Name:         row.Name,
			Start:        core.MonthDay{Month: row.Start.Month, Day: row.Start.Day},
			End:          core.MonthDay{Month: row.End.Month, Day: row.End.Day},
			Description:  row.Description,
			Element:      row.Element,
			RulingPlanet: row.RulingPlanet,
			Symbol:       row.Symbol,
		}
		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("sign %d (%q): %w", i, row.Name, err)
		}
		signs = append(signs, s)
	}
	return signs, nil
}

// MarshalSeed renders signs in the seed file format.
func MarshalSeed(signs []core.Sign) ([]byte, error) {
	doc := seedDoc{Signs: make([]seedSign, len(signs))}
	for i, s := range signs {
		doc.Signs[i] = seedSign{
			Name:         s.Name,
			Start:        seedDate{Month: s.Start.Month, Day: s.Start.Day},
			End:          seedDate{Month: s.End.Month, Day: s.End.Day},
			Description:  s.Description,
			Element:      s.Element,
			RulingPlanet: s.RulingPlanet,
			Symbol:       s.Symbol,
		}
	}
	return yaml.Marshal(doc)
}

// LoadTable implements catalog.TableLoader.
func (s *Store) LoadTable(_ context.Context) (core.Table, error) {
	return s.table, nil
}

// Source describes where the table came from, for logging.
func (s *Store) Source() string {
	return s.source
}
