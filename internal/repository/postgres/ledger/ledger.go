// Package ledger holds the balance primitive shared by every repository that
// mutates the ledger. Callers pass their transactional handle.
package ledger

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	ledgerdomain "timebank-go/internal/domain/ledger"
)

// AdjustBalance adds delta to the user's balance in a single upsert, creating
// the row on first use.
func AdjustBalance(ctx context.Context, db *gorm.DB, userID int64, delta decimal.Decimal) error {
	row := ledgerdomain.Balance{
		UserID:         userID,
		CurrentBalance: ledgerdomain.RoundHours(delta),
		LastUpdated:    time.Now().UTC(),
	}

	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"current_balance": gorm.Expr("user_time_balance.current_balance + EXCLUDED.current_balance"),
				"last_updated":    gorm.Expr("EXCLUDED.last_updated"),
			}),
		}).
		Create(&row).Error
}

func RecordAdjustment(ctx context.Context, db *gorm.DB, adjustment *ledgerdomain.Adjustment) error {
	return db.WithContext(ctx).Create(adjustment).Error
}

// LockBalances reads the balance rows of userIDs with FOR UPDATE. Rows are
// locked in ascending user id order so concurrent transfers cannot deadlock.
func LockBalances(ctx context.Context, db *gorm.DB, userIDs []int64) (map[int64]decimal.Decimal, error) {
	var rows []ledgerdomain.Balance
	if err := db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id IN ?", userIDs).
		Order("user_id asc").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	result := make(map[int64]decimal.Decimal, len(rows))
	for _, row := range rows {
		result[row.UserID] = row.CurrentBalance
	}
	return result, nil
}
