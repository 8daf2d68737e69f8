package balances

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	balancesdomain "timebank-go/internal/domain/balances"
	ledgerdomain "timebank-go/internal/domain/ledger"
	"timebank-go/internal/repository/postgres/ledger"
)

type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Transaction(ctx context.Context, fn func(balancesdomain.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&PostgresRepository{db: tx})
	})
}

func (r *PostgresRepository) GetBalance(ctx context.Context, userID int64) (*ledgerdomain.Balance, error) {
	var rows []ledgerdomain.Balance
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Limit(1).Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return &ledgerdomain.Balance{UserID: userID, CurrentBalance: decimal.Zero}, nil
	}
	return &rows[0], nil
}

func (r *PostgresRepository) LockBalances(ctx context.Context, userIDs []int64) (map[int64]decimal.Decimal, error) {
	return ledger.LockBalances(ctx, r.db, userIDs)
}

func (r *PostgresRepository) AdjustBalance(ctx context.Context, userID int64, delta decimal.Decimal) error {
	return ledger.AdjustBalance(ctx, r.db, userID, delta)
}

func (r *PostgresRepository) RecordAdjustment(ctx context.Context, adjustment *ledgerdomain.Adjustment) error {
	return ledger.RecordAdjustment(ctx, r.db, adjustment)
}

func (r *PostgresRepository) CreateTransfer(ctx context.Context, transfer *balancesdomain.Transfer) error {
	return r.db.WithContext(ctx).Create(transfer).Error
}

func (r *PostgresRepository) ListTransfersByUser(ctx context.Context, userID int64) ([]balancesdomain.TransferRow, error) {
	var rows []balancesdomain.TransferRow
	if err := r.db.WithContext(ctx).
		Table("time_transfers").
		Select("time_transfers.*, COALESCE(sender.name, '') AS from_user_name, COALESCE(receiver.name, '') AS to_user_name").
		Joins("LEFT JOIN users sender ON sender.id = time_transfers.from_user_id").
		Joins("LEFT JOIN users receiver ON receiver.id = time_transfers.to_user_id").
		Where("time_transfers.from_user_id = ? OR time_transfers.to_user_id = ?", userID, userID).
		Order("time_transfers.created_at desc, time_transfers.id desc").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *PostgresRepository) LockTransfersByUser(ctx context.Context, userID int64) ([]balancesdomain.Transfer, error) {
	var transfers []balancesdomain.Transfer
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("from_user_id = ? OR to_user_id = ?", userID, userID).
		Order("id asc").
		Find(&transfers).Error; err != nil {
		return nil, err
	}
	return transfers, nil
}

func (r *PostgresRepository) DeleteTransfersByIDs(ctx context.Context, transferIDs []int64) (int64, error) {
	if len(transferIDs) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).Delete(&balancesdomain.Transfer{}, "id IN ?", transferIDs)
	return result.RowsAffected, result.Error
}
