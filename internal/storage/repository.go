package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"zodiac/internal/catalog"
	"zodiac/internal/core"

	_ "modernc.org/sqlite"
)

var _ catalog.TableLoader = (*SQLiteRepository)(nil)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	// Run migrations
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	repo := &SQLiteRepository{
		db:      db,
		queries: New(db),
	}

	return repo, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// LoadTable implements catalog.TableLoader. Rows come back in insertion
// order, which is the table order used for first-match resolution.
func (r *SQLiteRepository) LoadTable(ctx context.Context) (core.Table, error) {
	rows, err := r.queries.ListSigns(ctx)
	if err != nil {
		return core.Table{}, fmt.Errorf("list signs: %w", err)
	}

	signs := make([]core.Sign, 0, len(rows))
	for _, row := range rows {
		s := toCore(row)
		if err := s.Validate(); err != nil {
			return core.Table{}, fmt.Errorf("row %d (%q): %w", row.ID, row.SignName, err)
		}
		signs = append(signs, s)
	}

	slog.DebugContext(ctx, "Sign table loaded from SQLite", "sign_count", len(signs))
	return core.NewTable(signs), nil
}

// Count returns the number of stored signs.
func (r *SQLiteRepository) Count(ctx context.Context) (int64, error) {
	n, err := r.queries.CountSigns(ctx)
	if err != nil {
		return 0, fmt.Errorf("count signs: %w", err)
	}
	return n, nil
}

// ReplaceSigns swaps the stored table for signs in a single transaction.
func (r *SQLiteRepository) ReplaceSigns(ctx context.Context, signs []core.Sign) error {
	for i, s := range signs {
		if err := s.Validate(); err != nil {
			return fmt.Errorf("sign %d (%q): %w", i, s.Name, err)
		}
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	q := r.queries.WithTx(tx)
	if err := q.DeleteAllSigns(ctx); err != nil {
		return fmt.Errorf("delete signs: %w", err)
	}
	for _, s := range signs {
		if _, err := q.InsertSign(ctx, fromCore(s)); err != nil {
			return fmt.Errorf("insert sign %q: %w", s.Name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	slog.InfoContext(ctx, "Sign table replaced", "sign_count", len(signs))
	return nil
}

func toCore(row ZodiacSign) core.Sign {
	return core.Sign{
		Name:         row.SignName,
		Start:        core.MonthDay{Month: int(row.StartMonth), Day: int(row.StartDay)},
		End:          core.MonthDay{Month: int(row.EndMonth), Day: int(row.EndDay)},
		Description:  row.Description,
		Element:      row.Element,
		RulingPlanet: row.RulingPlanet,
		Symbol:       row.Emoji,
	}
}

func fromCore(s core.Sign) InsertSignParams {
	return InsertSignParams{
		SignName:     s.Name,
		StartMonth:   int64(s.Start.Month),
		StartDay:     int64(s.Start.Day),
		EndMonth:     int64(s.End.Month),
		EndDay:       int64(s.End.Day),
		Description:  s.Description,
		Element:      s.Element,
		RulingPlanet: s.RulingPlanet,
		Emoji:        s.Symbol,
	}
}
