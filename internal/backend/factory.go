package backend

import (
	"context"
	"fmt"
	"log/slog"

	"zodiac/internal/catalog/google"
	"zodiac/internal/catalog/memory"
	"zodiac/internal/core"
	"zodiac/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case SQLiteBackend:
		return f.createSQLiteBackend(config)
	case SheetsBackend:
		return f.createSheetsBackend(ctx, config)
	case MemoryBackend:
		return f.createMemoryBackend(config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*BackendResult, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)

	return &BackendResult{
		Loader:  repo,
		Cleanup: repo.Close,
		Source:  config.SQLiteDBPath,
	}, nil
}

func (f *DefaultFactory) createSheetsBackend(ctx context.Context, config Config) (*BackendResult, error) {
	cli, err := google.New(ctx, google.Options{
		SpreadsheetID:   config.GoogleSpreadsheetID,
		SignsRange:      config.GoogleSignsRange,
		CredentialsJSON: config.GoogleServiceAccountJSON,
		CredentialsFile: config.GoogleServiceAccountFile,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}

	f.logger.Info("Initialized Google Sheets backend", "range", config.GoogleSignsRange)

	return &BackendResult{
		Loader: cli,
		Source: config.GoogleSpreadsheetID + "/" + config.GoogleSignsRange,
	}, nil
}

func (f *DefaultFactory) createMemoryBackend(config Config) (*BackendResult, error) {
	var (
		store *memory.Store
		err   error
	)
	if config.DataDirectory == "" {
		store = memory.NewDefault()
	} else if store, err = memory.NewFromDir(config.DataDirectory); err != nil {
		return nil, fmt.Errorf("failed to initialize memory backend: %w", err)
	}

	f.logger.Info("Initialized memory backend", "source", store.Source())

	return &BackendResult{
		Loader: store,
		Source: store.Source(),
	}, nil
}

// LoadTable builds the configured backend, reads the table once and releases
// the backend. Coverage problems are logged, not returned: a table with gaps
// still answers for the dates it covers.
func LoadTable(ctx context.Context, f Factory, config Config, logger *slog.Logger) (core.Table, error) {
	if logger == nil {
		logger = slog.Default()
	}
	res, err := f.CreateBackend(ctx, config)
	if err != nil {
		return core.Table{}, err
	}
	if res.Cleanup != nil {
		defer func() {
			if err := res.Cleanup(); err != nil {
				logger.Warn("Backend cleanup failed", "error", err)
			}
		}()
	}

	table, err := res.Loader.LoadTable(ctx)
	if err != nil {
		return core.Table{}, fmt.Errorf("load table from %s backend: %w", config.Type, err)
	}
	if table.Len() == 0 {
		return core.Table{}, fmt.Errorf("%s backend returned no signs", config.Type)
	}
	if err := table.Verify(); err != nil {
		logger.Warn("Sign table failed verification", "backend", config.Type.String(), "error", err)
	}

	logger.Info("Sign table loaded",
		"backend", config.Type.String(),
		"source", res.Source,
		"sign_count", table.Len())
	return table, nil
}
