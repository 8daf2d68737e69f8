package balances

import (
	"context"

	"github.com/shopspring/decimal"

	"timebank-go/internal/domain/ledger"
)

type Repository interface {
	Transaction(ctx context.Context, fn func(Repository) error) error
	GetBalance(ctx context.Context, userID int64) (*ledger.Balance, error)
	// LockBalances locks the existing balance rows of userIDs in ascending id order.
	// Users without a row are absent from the result.
	LockBalances(ctx context.Context, userIDs []int64) (map[int64]decimal.Decimal, error)
	AdjustBalance(ctx context.Context, userID int64, delta decimal.Decimal) error
	RecordAdjustment(ctx context.Context, adjustment *ledger.Adjustment) error
	CreateTransfer(ctx context.Context, transfer *Transfer) error
	ListTransfersByUser(ctx context.Context, userID int64) ([]TransferRow, error)
	LockTransfersByUser(ctx context.Context, userID int64) ([]Transfer, error)
	DeleteTransfersByIDs(ctx context.Context, transferIDs []int64) (int64, error)
}
