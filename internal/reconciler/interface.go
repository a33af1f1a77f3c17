package reconciler

import (
	"context"

	"sid-reconciliation-service/internal/parsers"
)

// TableLoader reads one SID or FIR source into a positional grid. The service
// depends on this interface; parsers.FileLoader is the production loader.
//
//go:generate mockgen -destination=mocks/mock_table_loader.go -source=interface.go TableLoader
type TableLoader interface {
	Load(ctx context.Context, source string) (parsers.Grid, error)
}
