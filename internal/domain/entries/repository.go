package entries

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"timebank-go/internal/domain/ledger"
)

type Repository interface {
	Transaction(ctx context.Context, fn func(Repository) error) error
	CreateEntry(ctx context.Context, entry *Entry) error
	GetEntryView(ctx context.Context, entryID int64) (*EntryView, error)
	// LockEntry reads the entry and holds a row lock until the transaction ends.
	LockEntry(ctx context.Context, entryID int64) (*Entry, error)
	ListEntriesByUser(ctx context.Context, userID int64, filter ListFilter) ([]EntryView, error)
	ListPendingEntries(ctx context.Context) ([]EntryView, error)
	// TransitionStatus moves an entry out of from into to and reports whether a row changed.
	TransitionStatus(ctx context.Context, entryID int64, from, to Status, adminID int64, at time.Time) (bool, error)
	SetApprovedHours(ctx context.Context, entryID int64, hours decimal.Decimal, adminID int64, at time.Time) error
	DeleteEntry(ctx context.Context, entryID int64) (bool, error)
	ListUserIDsWithEntriesBefore(ctx context.Context, cutoff time.Time, statuses []Status) ([]int64, error)
	LockEntriesBefore(ctx context.Context, userID int64, cutoff time.Time, statuses []Status) ([]Entry, error)
	DeleteEntriesByIDs(ctx context.Context, entryIDs []int64) (int64, error)
	AdjustBalance(ctx context.Context, userID int64, delta decimal.Decimal) error
	RecordAdjustment(ctx context.Context, adjustment *ledger.Adjustment) error
}
