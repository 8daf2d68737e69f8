package stats

import (
	"context"
	"time"
)

type Repository interface {
	// UserRows returns every user with entry counts restricted to entries created at or after since.
	UserRows(ctx context.Context, since time.Time) ([]UserRow, error)
	LedgerTotals(ctx context.Context, userID int64) (LedgerTotals, error)
}
