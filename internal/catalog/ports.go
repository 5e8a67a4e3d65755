package catalog

import (
	"context"

	"zodiac/internal/core"
)

// Ports for outbound adapters.
type (
	// TableLoader produces the sign table once at startup.
	TableLoader interface {
		LoadTable(ctx context.Context) (core.Table, error)
	}
)
