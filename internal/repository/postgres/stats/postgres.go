package stats

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	statsdomain "timebank-go/internal/domain/stats"
)

type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) UserRows(ctx context.Context, since time.Time) ([]statsdomain.UserRow, error) {
	query := "SELECT u.id AS user_id, u.name, u.email, u.role, " +
		"COALESCE(b.current_balance, 0) AS current_balance, " +
		"COUNT(e.id) FILTER (WHERE e.created_at >= ?) AS recent_entries, " +
		"COUNT(e.id) FILTER (WHERE e.created_at >= ? AND e.status = 'pending') AS recent_pending, " +
		"COALESCE(SUM(e.hours) FILTER (WHERE e.status = 'approved' AND e.entry_type = 'productive'), 0) AS approved_productive, " +
		"COALESCE(SUM(ABS(e.hours)) FILTER (WHERE e.status = 'approved' AND e.entry_type = 'screen_time'), 0) AS approved_screen_time " +
		"FROM users u " +
		"LEFT JOIN user_time_balance b ON b.user_id = u.id " +
		"LEFT JOIN time_entries e ON e.user_id = u.id " +
		"GROUP BY u.id, u.name, u.email, u.role, b.current_balance " +
		"ORDER BY u.name asc, u.id asc"

	var rows []statsdomain.UserRow
	if err := r.db.WithContext(ctx).Raw(query, since, since).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *PostgresRepository) LedgerTotals(ctx context.Context, userID int64) (statsdomain.LedgerTotals, error) {
	query := "SELECT " +
		"COALESCE((SELECT current_balance FROM user_time_balance WHERE user_id = @user), 0) AS stored_balance, " +
		"COALESCE((SELECT SUM(hours) FROM time_entries WHERE user_id = @user AND status = 'approved'), 0) AS approved_hours, " +
		"COALESCE((SELECT SUM(hours) FROM time_transfers WHERE to_user_id = @user), 0) AS received_hours, " +
		"COALESCE((SELECT SUM(hours) FROM time_transfers WHERE from_user_id = @user), 0) AS sent_hours, " +
		"COALESCE((SELECT SUM(delta) FROM balance_adjustments WHERE user_id = @user), 0) AS adjusted_hours"

	var row struct {
		StoredBalance decimal.Decimal
		ApprovedHours decimal.Decimal
		ReceivedHours decimal.Decimal
		SentHours     decimal.Decimal
		AdjustedHours decimal.Decimal
	}
	if err := r.db.WithContext(ctx).Raw(query, map[string]interface{}{"user": userID}).Scan(&row).Error; err != nil {
		return statsdomain.LedgerTotals{}, err
	}

	return statsdomain.LedgerTotals{
		StoredBalance: row.StoredBalance,
		ApprovedHours: row.ApprovedHours,
		ReceivedHours: row.ReceivedHours,
		SentHours:     row.SentHours,
		AdjustedHours: row.AdjustedHours,
	}, nil
}
